package bank

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Renderer projects bank items into concrete questions. All randomness flows
// from the caller-provided seed, so regeneration is byte-identical.
type Renderer struct {
	bank *Bank
}

func NewRenderer(b *Bank) *Renderer {
	return &Renderer{bank: b}
}

// RenderSeed derives the deterministic seed for one (session, item) pair.
func RenderSeed(sessionID string, itemID int) int64 {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	fmt.Fprintf(h, ":%d", itemID)
	return int64(h.Sum64())
}

// Render produces the concrete question for an item under a question type.
// Loanwords are redirected off meaning-recall types; under-filled distractor
// strategies fall back in a fixed order before the item is declared not
// renderable for the type.
func (r *Renderer) Render(item *models.Item, qt models.QuestionType, seed int64) (*models.RenderedItem, error) {
	if item.IsLoanword && (qt == models.TypeKoreanMean || qt == models.TypeEnglishDef) {
		switch {
		case item.Supports(models.TypeSynonym):
			qt = models.TypeSynonym
		case item.Supports(models.TypeCloze):
			qt = models.TypeCloze
		default:
			return nil, models.NewError(models.KindBadRequest,
				fmt.Sprintf("item %d not renderable: transparent loanword without synonym or sentence data", item.ID))
		}
	}
	if !item.Supports(qt) {
		return nil, models.NewError(models.KindBadRequest,
			fmt.Sprintf("item %d does not support question type %d", item.ID, qt))
	}

	rng := rand.New(rand.NewSource(seed))

	var stem, correct string
	var distractors []string
	binary := false

	switch qt {
	case models.TypeKoreanMean:
		stem = fmt.Sprintf("다음 단어 '%s'의 뜻으로 가장 알맞은 것을 고르세요.", item.Word)
		correct = item.MeaningKo
		distractors = r.withFallback(item, rng, strategyMeaningKo)
	case models.TypeEnglishDef:
		stem = fmt.Sprintf("Choose the correct English definition of '%s'.", item.Word)
		correct = item.DefinitionEn
		if correct == "" {
			correct = item.MeaningKo
		}
		distractors = r.withFallback(item, rng, strategyMeaningEn)
	case models.TypeSynonym:
		stem = fmt.Sprintf("다음 단어 '%s'와 의미가 가장 비슷한 유의어를 고르세요.", item.Word)
		correct = item.Synonyms[rng.Intn(len(item.Synonyms))]
		distractors = r.withFallback(item, rng, strategyNonSynonym)
	case models.TypeAntonym:
		stem = fmt.Sprintf("다음 단어 '%s'와 의미가 반대인 반의어를 고르세요.", item.Word)
		correct = item.Antonyms[rng.Intn(len(item.Antonyms))]
		distractors = r.withFallback(item, rng, strategySibling)
	case models.TypeCloze:
		sentence := item.Sentences[0]
		blanked, ok := blankWord(sentence, item.Word)
		if !ok {
			return nil, models.NewError(models.KindBadRequest,
				fmt.Sprintf("item %d not renderable: word absent from sentence", item.ID))
		}
		stem = "문맥상 빈칸에 들어갈 가장 적절한 단어를 고르세요.\n\n" + blanked
		correct = item.Word
		distractors = r.withFallback(item, rng, strategyHypernym)
	case models.TypeCollocation:
		coll := item.Collocations[rng.Intn(len(item.Collocations))]
		stem = fmt.Sprintf("다음 연어 표현이 올바른지 판단하세요: '%s'", coll)
		correct = "올바름"
		distractors = []string{"올바르지 않음"}
		binary = true
	}

	want := 3
	if binary {
		want = 1
	}
	if len(distractors) < want {
		return nil, models.NewError(models.KindBadRequest,
			fmt.Sprintf("item %d not renderable under type %d: insufficient distractors", item.ID, qt))
	}
	distractors = distractors[:want]

	options := make([]string, 0, want+1)
	options = append(options, correct)
	options = append(options, distractors...)
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return &models.RenderedItem{
		ItemID:        item.ID,
		Word:          item.Word,
		QuestionType:  qt,
		Stem:          stem,
		CorrectAnswer: correct,
		Distractors:   distractors,
		Options:       options,
		POS:           item.POS,
		CEFR:          item.CEFR,
		Explanation:   Explanation(item, correct, qt),
		EffectiveB:    item.EffectiveB(qt),
	}, nil
}

// CanRender reports whether an item would render under a type without
// producing the full question. Cheap capability plus loanword checks; the
// bank excludes failures from candidate sets.
func (r *Renderer) CanRender(item *models.Item, qt models.QuestionType) bool {
	if item.IsLoanword && (qt == models.TypeKoreanMean || qt == models.TypeEnglishDef) {
		return item.Supports(models.TypeSynonym) || item.Supports(models.TypeCloze)
	}
	return item.Supports(qt)
}

// Explanation builds the bilingual answer explanation for a rendered item.
func Explanation(item *models.Item, correct string, qt models.QuestionType) string {
	switch qt {
	case models.TypeKoreanMean:
		return fmt.Sprintf("'%s'의 뜻: %s", item.Word, item.MeaningKo)
	case models.TypeEnglishDef:
		defn := item.DefinitionEn
		if defn == "" {
			defn = item.MeaningKo
		}
		return fmt.Sprintf("'%s' means: %s (%s)", item.Word, defn, item.MeaningKo)
	case models.TypeSynonym:
		return fmt.Sprintf("'%s'은/는 '%s'의 동의어입니다 (%s)", correct, item.Word, item.MeaningKo)
	case models.TypeAntonym:
		return fmt.Sprintf("'%s'은/는 '%s'의 반의어입니다 (%s)", correct, item.Word, item.MeaningKo)
	case models.TypeCloze:
		return fmt.Sprintf("'%s'가 빈칸에 적합한 단어입니다. (%s)", item.Word, item.MeaningKo)
	default:
		return fmt.Sprintf("'%s': %s", item.Word, item.MeaningKo)
	}
}

func blankWord(sentence, word string) (string, bool) {
	if idx := strings.Index(sentence, word); idx >= 0 {
		return sentence[:idx] + "______" + sentence[idx+len(word):], true
	}
	lower := strings.ToLower(sentence)
	if idx := strings.Index(lower, strings.ToLower(word)); idx >= 0 {
		return sentence[:idx] + "______" + sentence[idx+len(word):], true
	}
	return sentence, false
}

// ── Distractor strategies ─────────────────────────────────

type strategy int

const (
	strategyMeaningKo  strategy = iota // A: same POS, adjacent CEFR, meanings
	strategyMeaningEn                  // A over English definitions
	strategyHypernym                   // D: graph siblings, word distractors
	strategyNonSynonym                 // B: non-synonym words
	strategySibling                    // C: antonym siblings with A fallback
)

// fallbackOrder tries further strategies when the primary under-fills.
var fallbackOrder = map[strategy][]strategy{
	strategyMeaningKo:  {strategyMeaningKo},
	strategyMeaningEn:  {strategyMeaningEn},
	strategyHypernym:   {strategyHypernym, strategyNonSynonym},
	strategyNonSynonym: {strategyNonSynonym, strategyHypernym},
	strategySibling:    {strategySibling, strategyHypernym, strategyNonSynonym},
}

func (r *Renderer) withFallback(item *models.Item, rng *rand.Rand, primary strategy) []string {
	const n = 3
	var out []string
	seen := map[string]bool{trimLower(item.Word): true}
	for _, s := range fallbackOrder[primary] {
		for _, d := range r.generate(item, rng, s, n-len(out)) {
			if k := trimLower(d); !seen[k] {
				seen[k] = true
				out = append(out, d)
			}
		}
		if len(out) >= n {
			break
		}
	}
	return out
}

func (r *Renderer) generate(item *models.Item, rng *rand.Rand, s strategy, n int) []string {
	switch s {
	case strategyMeaningKo:
		return r.meaningDistractors(item, rng, n, true)
	case strategyMeaningEn:
		return r.meaningDistractors(item, rng, n, false)
	case strategyNonSynonym:
		return r.nonSynonymDistractors(item, rng, n)
	case strategySibling:
		return r.siblingDistractors(item, rng, n)
	case strategyHypernym:
		return r.hypernymDistractors(item, rng, n)
	}
	return nil
}

// adjacentCEFR returns the target band plus one band either side.
func adjacentCEFR(band models.CEFRBand) []models.CEFRBand {
	idx := -1
	for i, b := range models.CEFROrder {
		if b == band {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.CEFROrder
	}
	out := []models.CEFRBand{band}
	if idx > 0 {
		out = append(out, models.CEFROrder[idx-1])
	}
	if idx < len(models.CEFROrder)-1 {
		out = append(out, models.CEFROrder[idx+1])
	}
	return out
}

// candidatePool enumerates same-POS items at adjacent CEFR bands, excluding
// the target and its synonyms.
func (r *Renderer) candidatePool(item *models.Item) []*models.Item {
	synonyms := make(map[string]bool, len(item.Synonyms))
	for _, s := range item.Synonyms {
		synonyms[trimLower(s)] = true
	}
	var pool []*models.Item
	for _, band := range adjacentCEFR(item.CEFR) {
		for _, id := range r.bank.Enumerate(Filter{POS: item.POS, CEFR: band}) {
			c, _ := r.bank.Get(id)
			if c.ID == item.ID {
				continue
			}
			if synonyms[trimLower(c.Word)] || isSynonymPair(item, c) {
				continue
			}
			pool = append(pool, c)
		}
	}
	return pool
}

func isSynonymPair(a, b *models.Item) bool {
	bl := trimLower(b.Word)
	for _, s := range a.Synonyms {
		if trimLower(s) == bl {
			return true
		}
	}
	al := trimLower(a.Word)
	for _, s := range b.Synonyms {
		if trimLower(s) == al {
			return true
		}
	}
	return false
}

// koreanParticles are dropped before comparing meaning overlap.
var koreanParticles = map[string]bool{
	"을": true, "를": true, "이": true, "가": true, "의": true,
	"에": true, "로": true, "~": true, "하다": true, "되다": true,
}

func meaningTokens(meaning string) map[string]bool {
	tokens := strings.Fields(strings.ReplaceAll(meaning, ",", " "))
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if !koreanParticles[t] {
			set[t] = true
		}
	}
	return set
}

// sharesMeaning flags pairs whose Korean glosses overlap in two or more
// content tokens; such pairs make ambiguous distractors.
func sharesMeaning(a, b *models.Item) bool {
	ta, tb := meaningTokens(a.MeaningKo), meaningTokens(b.MeaningKo)
	overlap := 0
	for t := range ta {
		if tb[t] {
			overlap++
			if overlap >= 2 {
				return true
			}
		}
	}
	return false
}

// meaningDistractors is Strategy A: same POS, adjacent CEFR, same topic
// preferred, no synonym or shared-meaning collisions. Returns glosses.
func (r *Renderer) meaningDistractors(item *models.Item, rng *rand.Rand, n int, korean bool) []string {
	pool := r.candidatePool(item)
	var sameTopic, otherTopic []*models.Item
	for _, c := range pool {
		if sharesMeaning(item, c) {
			continue
		}
		text := c.MeaningKo
		if !korean {
			text = c.DefinitionEn
		}
		if text == "" {
			continue
		}
		if item.Topic != "" && c.Topic == item.Topic {
			sameTopic = append(sameTopic, c)
		} else {
			otherTopic = append(otherTopic, c)
		}
	}
	shuffleItems(rng, sameTopic)
	shuffleItems(rng, otherTopic)

	var out []string
	var picked []*models.Item
	take := func(cs []*models.Item) {
		for _, c := range cs {
			if len(out) >= n {
				return
			}
			clean := true
			for _, p := range picked {
				if isSynonymPair(c, p) {
					clean = false
					break
				}
			}
			if !clean {
				continue
			}
			picked = append(picked, c)
			if korean {
				out = append(out, c.MeaningKo)
			} else {
				out = append(out, c.DefinitionEn)
			}
		}
	}
	take(sameTopic)
	take(otherTopic)
	return out
}

// nonSynonymDistractors is Strategy B: words sharing POS that are not
// synonyms of the target or of each other.
func (r *Renderer) nonSynonymDistractors(item *models.Item, rng *rand.Rand, n int) []string {
	pool := r.candidatePool(item)
	shuffleItems(rng, pool)
	var out []string
	var picked []*models.Item
	for _, c := range pool {
		if len(out) >= n {
			break
		}
		clean := true
		for _, p := range picked {
			if isSynonymPair(c, p) {
				clean = false
				break
			}
		}
		if clean {
			picked = append(picked, c)
			out = append(out, c.Word)
		}
	}
	return out
}

// siblingDistractors is Strategy C: graph siblings excluding the target's
// antonyms and synonyms, topped up from the Strategy A pool.
func (r *Renderer) siblingDistractors(item *models.Item, rng *rand.Rand, n int) []string {
	exclude := map[string]bool{trimLower(item.Word): true}
	for _, a := range item.Antonyms {
		exclude[trimLower(a)] = true
	}
	for _, s := range item.Synonyms {
		exclude[trimLower(s)] = true
	}

	var candidates []*models.Item
	for _, id := range item.SiblingIDs {
		c, ok := r.bank.Get(id)
		if ok && c.POS == item.POS && !exclude[trimLower(c.Word)] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) < n*2 {
		for _, c := range r.candidatePool(item) {
			if !exclude[trimLower(c.Word)] {
				candidates = append(candidates, c)
			}
		}
	}
	shuffleItems(rng, candidates)

	var out []string
	seen := map[string]bool{}
	for _, c := range candidates {
		if len(out) >= n {
			break
		}
		if k := trimLower(c.Word); !seen[k] {
			seen[k] = true
			out = append(out, c.Word)
		}
	}
	return out
}

// hypernymDistractors is Strategy D: words sharing a hypernym with the
// target, same POS.
func (r *Renderer) hypernymDistractors(item *models.Item, rng *rand.Rand, n int) []string {
	exclude := map[string]bool{trimLower(item.Word): true}
	for _, s := range item.Synonyms {
		exclude[trimLower(s)] = true
	}
	for _, a := range item.Antonyms {
		exclude[trimLower(a)] = true
	}

	var valid []*models.Item
	for _, id := range item.SiblingIDs {
		c, ok := r.bank.Get(id)
		if ok && c.POS == item.POS && !exclude[trimLower(c.Word)] {
			valid = append(valid, c)
		}
	}
	shuffleItems(rng, valid)

	var out []string
	for _, c := range valid {
		if len(out) >= n {
			break
		}
		out = append(out, c.Word)
	}
	return out
}

func shuffleItems(rng *rand.Rand, items []*models.Item) {
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
