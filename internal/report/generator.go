package report

import (
	"math"
	"sort"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/cat"
	"github.com/smilepat/vocab-cat-engine/internal/irt"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// DefaultMatrixSample is the number of bank items sampled for the
// knowledge matrix.
const DefaultMatrixSample = 150

// cefrBounds maps each band to its theta interval, lowest band first.
var cefrBounds = map[models.CEFRBand][2]float64{
	models.CEFRA1: {-3.0, -1.5},
	models.CEFRA2: {-1.5, -0.5},
	models.CEFRB1: {-0.5, 0.5},
	models.CEFRB2: {0.5, 1.5},
	models.CEFRC1: {1.5, 3.0},
}

func bandCenter(band models.CEFRBand) float64 {
	b := cefrBounds[band]
	return (b[0] + b[1]) / 2
}

// Generator derives every diagnostic artifact from terminal session state
// plus the item bank. All methods are pure reads.
type Generator struct {
	bank         *bank.Bank
	matrixSample int
}

func NewGenerator(b *bank.Bank) *Generator {
	return &Generator{bank: b, matrixSample: DefaultMatrixSample}
}

// Diagnostic builds the full report for a terminal session.
func (g *Generator) Diagnostic(s *cat.Session) *models.Report {
	theta := s.Theta()
	se := s.SE()
	records := s.Records()

	rep := &models.Report{
		SessionID:         s.ID,
		Theta:             round3(theta),
		SE:                round3(se),
		Reliability:       round3(s.Reliability()),
		CEFR:              ThetaToCEFR(theta),
		CEFRProbabilities: CEFRProbabilities(theta, se),
		CurriculumLevel:   ThetaToCurriculum(theta),
		EstimatedVocab:    g.EstimatedVocabSize(theta),
		Dimensions:        DimensionScores(records),
		OxfordCoverage:    g.OxfordCoverage(theta),
		ItemsCompleted:    s.ItemsCompleted(),
		TotalCorrect:      s.TotalCorrect(),
		DontKnowCount:     s.DontKnowCount(),
		TerminationReason: s.TerminationReason(),
		InsufficientData:  s.ItemsCompleted() < 5,
	}
	rep.TopicStrengths, rep.TopicWeaknesses = g.TopicRates(records)
	return rep
}

// ThetaToCEFR classifies theta into its band interval. Values outside
// [-3, 3] clamp to the edge bands.
func ThetaToCEFR(theta float64) models.CEFRBand {
	switch {
	case theta < -1.5:
		return models.CEFRA1
	case theta < -0.5:
		return models.CEFRA2
	case theta < 0.5:
		return models.CEFRB1
	case theta < 1.5:
		return models.CEFRB2
	default:
		return models.CEFRC1
	}
}

// CEFRProbabilities emits a normalized softmax over the negative scaled
// distance from theta to each band center. A tighter SE sharpens the
// distribution around the primary band.
func CEFRProbabilities(theta, se float64) map[models.CEFRBand]float64 {
	if se < 0.05 {
		se = 0.05
	}
	probs := make(map[models.CEFRBand]float64, len(models.CEFROrder))
	sum := 0.0
	for _, band := range models.CEFROrder {
		w := math.Exp(-math.Abs(theta-bandCenter(band)) / se)
		probs[band] = w
		sum += w
	}
	for band, w := range probs {
		probs[band] = round4(w / sum)
	}
	return probs
}

// ThetaToCurriculum maps theta onto the Korean school curriculum scale.
func ThetaToCurriculum(theta float64) models.CurriculumLevel {
	switch {
	case theta < -0.8:
		return models.LevelElementary
	case theta < 0.3:
		return models.LevelMiddle
	case theta < 1.2:
		return models.LevelHigh
	default:
		return models.LevelBeyondHigh
	}
}

// EstimatedVocabSize is the expected number of known words: the sum of
// 2PL success probabilities over the whole bank at theta.
func (g *Generator) EstimatedVocabSize(theta float64) int {
	total := 0.0
	for i := range g.bank.Items() {
		it := &g.bank.Items()[i]
		total += irt.Probability(theta, it.Discrimination, it.Difficulty, 0)
	}
	return int(math.Round(total))
}

// OxfordCoverage is the mean success probability over the core bands
// (A1, A2, B1), a proxy for high-frequency vocabulary coverage.
func (g *Generator) OxfordCoverage(theta float64) float64 {
	sum, n := 0.0, 0
	for i := range g.bank.Items() {
		it := &g.bank.Items()[i]
		switch it.CEFR {
		case models.CEFRA1, models.CEFRA2, models.CEFRB1:
			sum += irt.Probability(theta, it.Discrimination, it.Difficulty, it.Guessing)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round3(sum / float64(n))
}

// DimensionScores tallies correct/total per knowledge dimension. A score
// is reported only once a dimension has at least 3 observations.
func DimensionScores(records []models.ResponseRecord) []models.DimensionScore {
	type tally struct{ correct, total int }
	counts := make(map[models.Dimension]*tally)
	for _, r := range records {
		dim, ok := models.TypeDimension[r.QuestionType]
		if !ok {
			continue
		}
		t := counts[dim]
		if t == nil {
			t = &tally{}
			counts[dim] = t
		}
		t.total++
		if r.IsCorrect {
			t.correct++
		}
	}

	scores := make([]models.DimensionScore, 0, len(models.DimensionCatalog))
	for _, info := range models.DimensionCatalog {
		ds := models.DimensionScore{
			Dimension: info.Key,
			Label:     info.Label,
			LabelKo:   info.LabelKo,
			Color:     info.Color,
		}
		if t := counts[info.Key]; t != nil {
			ds.Correct = t.correct
			ds.Total = t.total
			if t.total >= 3 {
				v := int(math.Round(float64(t.correct) / float64(t.total) * 100))
				ds.Score = &v
			}
		}
		scores = append(scores, ds)
	}
	return scores
}

// TopicRates splits per-topic accuracy into strengths (rate >= 0.75) and
// weaknesses (rate <= 0.50), each capped at 5 entries. Topics with fewer
// than 3 observations are skipped.
func (g *Generator) TopicRates(records []models.ResponseRecord) (strengths, weaknesses []models.TopicRate) {
	type tally struct{ correct, total int }
	counts := make(map[string]*tally)
	for _, r := range records {
		it, ok := g.bank.Get(r.ItemID)
		if !ok {
			continue
		}
		t := counts[it.Topic]
		if t == nil {
			t = &tally{}
			counts[it.Topic] = t
		}
		t.total++
		if r.IsCorrect {
			t.correct++
		}
	}

	var rates []models.TopicRate
	for topic, t := range counts {
		if t.total < 3 {
			continue
		}
		rates = append(rates, models.TopicRate{
			Topic:   topic,
			Correct: t.correct,
			Total:   t.total,
			Rate:    round2(float64(t.correct) / float64(t.total)),
		})
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Rate != rates[j].Rate {
			return rates[i].Rate > rates[j].Rate
		}
		return rates[i].Topic < rates[j].Topic
	})

	for _, r := range rates {
		if r.Rate >= 0.75 && len(strengths) < 5 {
			strengths = append(strengths, r)
		}
	}
	for i := len(rates) - 1; i >= 0; i-- {
		if rates[i].Rate <= 0.50 && len(weaknesses) < 5 {
			weaknesses = append(weaknesses, rates[i])
		}
	}
	return strengths, weaknesses
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
