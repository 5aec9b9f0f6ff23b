package cat

import (
	"log"
	"math"
	"sort"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/irt"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Selection limits.
const (
	maxSameTopic       = 3
	posRatioTolerance  = 0.10
	topKCandidates     = 5
	maxLoanwordPerTest = 2
	exposureRelaxStep  = 0.10
	minItemsForPOSGate = 5
)

// posTarget is the intended POS mix of a full-length test.
var posTarget = map[models.PartOfSpeech]float64{
	models.POSNoun:      0.50,
	models.POSVerb:      0.275,
	models.POSAdjective: 0.175,
	models.POSAdverb:    0.03,
	models.POSOther:     0.02,
}

// Selector chooses the next item for a session by maximum Fisher information
// under content-balance and exposure constraints.
type Selector struct {
	bank     *bank.Bank
	renderer *bank.Renderer
	exposure *ExposureController
	maxRate  float64
}

func NewSelector(b *bank.Bank, r *bank.Renderer, e *ExposureController, maxRate float64) *Selector {
	if maxRate <= 0 {
		maxRate = DefaultMaxExposureRate
	}
	return &Selector{bank: b, renderer: r, exposure: e, maxRate: maxRate}
}

// Selection is the selector's output: the chosen item and its question type.
type Selection struct {
	Item         *models.Item
	QuestionType models.QuestionType
}

// Next picks the next item for the session, or a pool_exhausted error when
// no candidate survives every relaxation. Caller holds the session lock.
func (sel *Selector) Next(s *Session) (*Selection, error) {
	theta := s.Theta()

	candidates := sel.contentEligible(s)
	if len(candidates) == 0 {
		return nil, models.NewError(models.KindPoolExhausted, "no eligible item under content constraints")
	}

	candidates = sel.exposureGate(s, candidates)
	if len(candidates) == 0 {
		return nil, models.NewError(models.KindPoolExhausted, "no eligible item after exposure gating")
	}

	// Rank by information at the current estimate; ties by ascending id.
	type scored struct {
		id   int
		info float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, id := range candidates {
		it, _ := sel.bank.Get(id)
		info := irt.FisherInformation(theta, it.Discrimination, it.Difficulty, 0)
		ranked = append(ranked, scored{id, info})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].info != ranked[j].info {
			return ranked[i].info > ranked[j].info
		}
		return ranked[i].id < ranked[j].id
	})

	k := topKCandidates
	if len(ranked) < k {
		k = len(ranked)
	}
	chosen := ranked[s.rng.Intn(k)]
	item, _ := sel.bank.Get(chosen.id)

	qt := sel.assignType(s, item, theta)
	return &Selection{Item: item, QuestionType: qt}, nil
}

// contentEligible applies step 1: repeats, topic caps, POS balance, type
// capability, and the loanword session cap.
func (sel *Selector) contentEligible(s *Session) []int {
	filter := bank.Filter{}
	if s.Profile.QuestionType != models.TypeMixed {
		filter.QuestionType = s.Profile.QuestionType
	}
	ids := sel.bank.Enumerate(filter)

	completed := s.ItemsCompleted()
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if s.administered[id] {
			continue
		}
		it, _ := sel.bank.Get(id)
		if it.Topic != "" && s.topicCounts[it.Topic] >= maxSameTopic {
			continue
		}
		if completed >= minItemsForPOSGate && sel.posOverweight(s, it.POS) {
			continue
		}
		if it.IsLoanword && s.loanwordCount >= maxLoanwordPerTest {
			continue
		}
		if s.Profile.QuestionType != models.TypeMixed &&
			!sel.renderer.CanRender(it, s.Profile.QuestionType) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// posOverweight reports whether administering another item of this POS would
// push its running share past target + tolerance.
func (sel *Selector) posOverweight(s *Session, pos models.PartOfSpeech) bool {
	total := s.ItemsCompleted() + 1
	share := float64(s.posCounts[pos]+1) / float64(total)
	return share > posTarget[pos]+posRatioTolerance
}

// exposureGate applies step 2: drop items at or above the cap, relax once by
// +0.10 when that empties the pool, then proceed ungated.
func (sel *Selector) exposureGate(s *Session, candidates []int) []int {
	if !sel.exposure.gatingActive() {
		return candidates
	}
	pass := func(limit float64) []int {
		out := make([]int, 0, len(candidates))
		for _, id := range candidates {
			if sel.exposure.Rate(id) < limit {
				out = append(out, id)
			}
		}
		return out
	}

	gated := pass(sel.maxRate)
	if len(gated) > 0 {
		return gated
	}
	relaxed := pass(sel.maxRate + exposureRelaxStep)
	if len(relaxed) > 0 {
		log.Printf("[cat] session %s: exposure gate relaxed to %.2f", s.ID, sel.maxRate+exposureRelaxStep)
		return relaxed
	}
	log.Printf("[cat] session %s: exposure gate disabled, all candidates above relaxed cap", s.ID)
	return candidates
}

// assignType applies step 5. A fixed learner preference wins when the item
// supports it; mixed mode rotates through the warm-up progression; otherwise
// the supported type whose effective difficulty sits closest to theta wins.
func (sel *Selector) assignType(s *Session, item *models.Item, theta float64) models.QuestionType {
	preferred := s.Profile.QuestionType
	if preferred != models.TypeMixed && sel.renderer.CanRender(item, preferred) {
		return preferred
	}
	if preferred == models.TypeMixed {
		if qt, ok := sel.mixedModeType(s, item); ok {
			return qt
		}
	}

	best := models.TypeKoreanMean
	bestDist := math.Inf(1)
	for _, qt := range item.SupportedTypes() {
		if !sel.renderer.CanRender(item, qt) {
			continue
		}
		if d := math.Abs(item.EffectiveB(qt) - theta); d < bestDist {
			bestDist = d
			best = qt
		}
	}
	return best
}

// mixedTypeProgression gates question types by test position: early items
// stay on the receptive types, the mid-test opens relational and contextual.
func mixedTypeProgression(itemsCompleted int) []models.QuestionType {
	switch {
	case itemsCompleted < 5:
		return []models.QuestionType{models.TypeKoreanMean, models.TypeEnglishDef}
	case itemsCompleted < 15:
		return []models.QuestionType{models.TypeKoreanMean, models.TypeEnglishDef, models.TypeSynonym, models.TypeCloze}
	default:
		return []models.QuestionType{models.TypeKoreanMean, models.TypeEnglishDef, models.TypeSynonym,
			models.TypeAntonym, models.TypeCloze, models.TypeCollocation}
	}
}

// mixedModeType picks the least-used eligible type for balanced coverage,
// random among ties with the session seed.
func (sel *Selector) mixedModeType(s *Session, item *models.Item) (models.QuestionType, bool) {
	var eligible []models.QuestionType
	for _, qt := range mixedTypeProgression(s.ItemsCompleted()) {
		if sel.renderer.CanRender(item, qt) {
			eligible = append(eligible, qt)
		}
	}
	if len(eligible) == 0 {
		return 0, false
	}
	minCount := math.MaxInt
	for _, qt := range eligible {
		if c := s.typeCounts[qt]; c < minCount {
			minCount = c
		}
	}
	var leastUsed []models.QuestionType
	for _, qt := range eligible {
		if s.typeCounts[qt] == minCount {
			leastUsed = append(leastUsed, qt)
		}
	}
	return leastUsed[s.rng.Intn(len(leastUsed))], true
}
