package bank

import (
	"fmt"
	"log"
	"sort"
	"sync/atomic"

	"github.com/smilepat/vocab-cat-engine/internal/irt"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Bank is the process-wide item index. A version is immutable once built;
// calibration publishes a replacement with a single pointer swap, so readers
// always see a consistent bank without locking.
type Bank struct {
	v atomic.Pointer[version]
}

type version struct {
	items        []models.Item
	byWord       map[string]int
	byTopic      map[string][]int
	byPOS        map[models.PartOfSpeech][]int
	byCEFR       map[models.CEFRBand][]int
	byCurriculum map[models.CurriculumBand][]int
	byType       map[models.QuestionType][]int
}

func buildVersion(items []models.Item) *version {
	v := &version{
		items:        items,
		byWord:       make(map[string]int, len(items)),
		byTopic:      make(map[string][]int),
		byPOS:        make(map[models.PartOfSpeech][]int),
		byCEFR:       make(map[models.CEFRBand][]int),
		byCurriculum: make(map[models.CurriculumBand][]int),
		byType:       make(map[models.QuestionType][]int),
	}
	for i := range items {
		it := &items[i]
		v.byWord[normalizeWord(it.Word)] = it.ID
		if it.Topic != "" {
			v.byTopic[it.Topic] = append(v.byTopic[it.Topic], it.ID)
		}
		v.byPOS[it.POS] = append(v.byPOS[it.POS], it.ID)
		v.byCEFR[it.CEFR] = append(v.byCEFR[it.CEFR], it.ID)
		v.byCurriculum[it.Curriculum] = append(v.byCurriculum[it.Curriculum], it.ID)
		for _, qt := range it.SupportedTypes() {
			v.byType[qt] = append(v.byType[qt], it.ID)
		}
	}
	return v
}

// New builds a bank from initialized items. Item ids must equal slice index.
func New(items []models.Item) (*Bank, error) {
	for i := range items {
		if items[i].ID != i {
			return nil, fmt.Errorf("bank: item at index %d has id %d", i, items[i].ID)
		}
	}
	b := &Bank{}
	b.v.Store(buildVersion(items))
	return b, nil
}

// Load reads the vocabulary file, initializes parameters, and builds a bank.
func Load(path string) (*Bank, error) {
	records, err := LoadVocabFile(path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	items := InitializeItems(records)
	b, err := New(items)
	if err != nil {
		return nil, err
	}
	log.Printf("[bank] loaded %d items from %s", len(items), path)
	return b, nil
}

// Publish swaps in a recalibrated item set. The previous version remains
// visible to in-flight readers until they drop it.
func (b *Bank) Publish(items []models.Item) error {
	for i := range items {
		if items[i].ID != i {
			return fmt.Errorf("bank: item at index %d has id %d", i, items[i].ID)
		}
	}
	b.v.Store(buildVersion(items))
	log.Printf("[bank] published new version with %d items", len(items))
	return nil
}

// Count returns the number of items in the current version.
func (b *Bank) Count() int { return len(b.v.Load().items) }

// Get returns the item with the given id.
func (b *Bank) Get(id int) (*models.Item, bool) {
	v := b.v.Load()
	if id < 0 || id >= len(v.items) {
		return nil, false
	}
	return &v.items[id], true
}

// GetByWord returns the item for a lemma, case-insensitive.
func (b *Bank) GetByWord(word string) (*models.Item, bool) {
	v := b.v.Load()
	id, ok := v.byWord[normalizeWord(word)]
	if !ok {
		return nil, false
	}
	return &v.items[id], true
}

// Items returns the current version's item slice. Callers must not mutate.
func (b *Bank) Items() []models.Item { return b.v.Load().items }

// ── Filtered enumeration ──────────────────────────────────

// Filter narrows candidate enumeration. Zero values match everything.
type Filter struct {
	Topic        string
	POS          models.PartOfSpeech
	CEFR         models.CEFRBand
	Curriculum   models.CurriculumBand
	QuestionType models.QuestionType
}

func (f Filter) matches(it *models.Item) bool {
	if f.Topic != "" && it.Topic != f.Topic {
		return false
	}
	if f.POS != "" && it.POS != f.POS {
		return false
	}
	if f.CEFR != "" && it.CEFR != f.CEFR {
		return false
	}
	if f.Curriculum != "" && it.Curriculum != f.Curriculum {
		return false
	}
	if f.QuestionType != models.TypeMixed && !it.Supports(f.QuestionType) {
		return false
	}
	return true
}

// Enumerate returns ids of items matching the filter, ascending.
func (b *Bank) Enumerate(f Filter) []int {
	v := b.v.Load()
	base := b.narrowest(v, f)
	out := make([]int, 0, len(base))
	for _, id := range base {
		if f.matches(&v.items[id]) {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// narrowest picks the smallest prebuilt index covering the filter.
func (b *Bank) narrowest(v *version, f Filter) []int {
	all := func() []int {
		ids := make([]int, len(v.items))
		for i := range ids {
			ids[i] = i
		}
		return ids
	}
	best := []int(nil)
	consider := func(ids []int, ok bool) {
		if ok && (best == nil || len(ids) < len(best)) {
			best = ids
		}
	}
	if f.Topic != "" {
		consider(v.byTopic[f.Topic], true)
	}
	if f.CEFR != "" {
		consider(v.byCEFR[f.CEFR], true)
	}
	if f.Curriculum != "" {
		consider(v.byCurriculum[f.Curriculum], true)
	}
	if f.POS != "" {
		consider(v.byPOS[f.POS], true)
	}
	if f.QuestionType != models.TypeMixed {
		consider(v.byType[f.QuestionType], true)
	}
	if best == nil {
		return all()
	}
	return best
}

// ── Information ranking ───────────────────────────────────

// Ranked pairs an item id with its Fisher information at some theta.
type Ranked struct {
	ItemID int
	Info   float64
}

// TopByInformation returns the n most informative matching items at theta,
// scored on the 2PL base parameters. Ties break by ascending id.
func (b *Bank) TopByInformation(theta float64, f Filter, n int) []Ranked {
	v := b.v.Load()
	ids := b.Enumerate(f)
	ranked := make([]Ranked, 0, len(ids))
	for _, id := range ids {
		it := &v.items[id]
		info := irt.FisherInformation(theta, it.Discrimination, it.Difficulty, 0)
		ranked = append(ranked, Ranked{ItemID: id, Info: info})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Info != ranked[j].Info {
			return ranked[i].Info > ranked[j].Info
		}
		return ranked[i].ItemID < ranked[j].ItemID
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ── Graph neighbors ───────────────────────────────────────

// SynonymNeighbors returns resolved synonym edges for an item.
func (b *Bank) SynonymNeighbors(id int) []int {
	if it, ok := b.Get(id); ok {
		return it.SynonymIDs
	}
	return nil
}

// AntonymNeighbors returns resolved antonym edges for an item.
func (b *Bank) AntonymNeighbors(id int) []int {
	if it, ok := b.Get(id); ok {
		return it.AntonymIDs
	}
	return nil
}

// Siblings returns hypernym-sibling edges for an item.
func (b *Bank) Siblings(id int) []int {
	if it, ok := b.Get(id); ok {
		return it.SiblingIDs
	}
	return nil
}
