package bank

import (
	"math"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Difficulty composite weights. Korean curriculum and frequency carry 80%
// combined; Lexile is disabled.
const (
	bWeightCEFR       = 0.10
	bWeightFreq       = 0.40
	bWeightGSE        = 0.10
	bWeightCurriculum = 0.40
	bWeightLexile     = 0.00
)

var cefrNumeric = map[string]float64{
	"A1": 0.0, "A2": 0.2, "B1": 0.45, "B2": 0.7, "C1": 0.95,
}

var curriculumNumeric = map[models.CurriculumBand]float64{
	models.CurriculumElementary: 0.1,
	models.CurriculumMiddle:     0.45,
	models.CurriculumHigh:       0.75,
	models.CurriculumCSAT:       0.95,
}

// Discrimination bounds for the initializer. The kernel guards a wider range;
// initialized values stay inside these.
const (
	aBase = 1.0
	aMin  = 0.5
	aMax  = 2.0
	bMin  = -2.5
	bMax  = 2.5
)

var eduValueBonus = map[int]float64{
	10: 1.15, 9: 1.10, 8: 1.0, 7: 0.90, 6: 0.80,
}

var posFactor = map[models.PartOfSpeech]float64{
	models.POSNoun:      1.05,
	models.POSVerb:      1.05,
	models.POSAdjective: 1.0,
	models.POSAdverb:    0.95,
	models.POSOther:     0.80,
}

var generalTopics = map[string]bool{"general": true, "grammar": true}

// probit is the standard normal quantile function.
func probit(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2.0*p-1.0)
}

// computeDifficulty derives the initial b from a weighted composite of the
// word's ordinal encodings, transformed to the theta scale via probit.
func computeDifficulty(rec VocabRecord, totalWords int) float64 {
	cefrVal, ok := cefrNumeric[rec.CEFR]
	if !ok {
		cefrVal = 0.45
	}

	freqVal := 0.5
	if rec.FreqRank > 0 && totalWords > 0 {
		freqVal = float64(rec.FreqRank) / float64(totalWords)
	}

	curriculumVal := curriculumNumeric[mapCurriculum(rec.Curriculum)]

	weights := []float64{bWeightCEFR, bWeightFreq, bWeightCurriculum}
	values := []float64{cefrVal, freqVal, curriculumVal}

	if rec.GSE > 0 {
		gseVal := clampF((rec.GSE-10.0)/60.0, 0.0, 1.0)
		weights = append(weights, bWeightGSE)
		values = append(values, gseVal)
	}
	if mid, ok := parseLexileMidpoint(rec.Lexile); ok && bWeightLexile > 0 {
		lexVal := clampF((mid-200.0)/1200.0, 0.0, 1.0)
		weights = append(weights, bWeightLexile)
		values = append(values, lexVal)
	}

	totalWeight, composite := 0.0, 0.0
	for i := range weights {
		totalWeight += weights[i]
		composite += weights[i] * values[i]
	}
	if totalWeight < 1e-10 {
		composite = 0.5
	} else {
		composite /= totalWeight
	}

	b := probit(clampF(composite, 0.01, 0.99))
	return clampF(b, bMin, bMax)
}

// computeDiscrimination derives the initial a from word metadata.
func computeDiscrimination(rec VocabRecord, pos models.PartOfSpeech) float64 {
	a := aBase

	// More synonyms means fuzzier meaning boundaries.
	synPenalty := 1.0 - 0.05*float64(len(rec.Synonyms))
	if synPenalty < 0.7 {
		synPenalty = 0.7
	}
	a *= synPenalty

	if bonus, ok := eduValueBonus[rec.EducationalValue]; ok {
		a *= bonus
	}

	if generalTopics[rec.Topic] {
		a *= 0.85
	}

	if f, ok := posFactor[pos]; ok {
		a *= f
	}

	if rec.Oxford3000 != "" && rec.Oxford3000 != "N/A" {
		a *= 0.90
	}

	return clampF(a, aMin, aMax)
}

// InitializeItems builds the immutable item slice from raw vocabulary
// records. Deterministic; recomputed on every cold start.
func InitializeItems(records []VocabRecord) []models.Item {
	total := len(records)
	items := make([]models.Item, 0, total)
	byWord := make(map[string]int, total)

	for i, rec := range records {
		pos := models.NormalizePOS(rec.POS)
		item := models.Item{
			ID:             i,
			Word:           rec.Word,
			MeaningKo:      rec.MeaningKo,
			DefinitionEn:   rec.DefinitionEn,
			POS:            pos,
			Topic:          rec.Topic,
			CEFR:           mapCEFR(rec.CEFR),
			Curriculum:     mapCurriculum(rec.Curriculum),
			FreqRank:       rec.FreqRank,
			Discrimination: computeDiscrimination(rec, pos),
			Difficulty:     computeDifficulty(rec, total),
			Guessing:       0.0,
			IsLoanword:     IsTransparentLoanword(rec.Word),
			OxfordCore:     rec.Oxford3000 != "" && rec.Oxford3000 != "N/A",
			Synonyms:       rec.Synonyms,
			Antonyms:       rec.Antonyms,
			Sentences:      rec.Sentences,
			Collocations:   rec.Collocations,
		}
		byWord[normalizeWord(rec.Word)] = i
		items = append(items, item)
	}

	// Resolve graph edges to item ids. Siblings share the primary topic and
	// POS within one CEFR step.
	for i := range items {
		it := &items[i]
		for _, s := range it.Synonyms {
			if id, ok := byWord[normalizeWord(s)]; ok && id != it.ID {
				it.SynonymIDs = append(it.SynonymIDs, id)
			}
		}
		for _, a := range it.Antonyms {
			if id, ok := byWord[normalizeWord(a)]; ok && id != it.ID {
				it.AntonymIDs = append(it.AntonymIDs, id)
			}
		}
	}
	resolveSiblings(items)
	return items
}

// resolveSiblings links items sharing topic and POS at adjacent CEFR bands.
// Capped per item; ids ascend for reproducibility.
func resolveSiblings(items []models.Item) {
	const maxSiblings = 12
	type key struct {
		topic string
		pos   models.PartOfSpeech
	}
	groups := make(map[key][]int)
	for i := range items {
		if items[i].Topic == "" || generalTopics[items[i].Topic] {
			continue
		}
		k := key{items[i].Topic, items[i].POS}
		groups[k] = append(groups[k], items[i].ID)
	}
	bandIndex := make(map[models.CEFRBand]int, len(models.CEFROrder))
	for i, b := range models.CEFROrder {
		bandIndex[b] = i
	}
	for _, ids := range groups {
		for _, id := range ids {
			it := &items[id]
			for _, other := range ids {
				if other == id || len(it.SiblingIDs) >= maxSiblings {
					continue
				}
				d := bandIndex[it.CEFR] - bandIndex[items[other].CEFR]
				if d >= -1 && d <= 1 {
					it.SiblingIDs = append(it.SiblingIDs, other)
				}
			}
		}
	}
}

func normalizeWord(w string) string {
	return trimLower(w)
}

func clampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
