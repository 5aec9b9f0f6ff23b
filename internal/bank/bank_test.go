package bank

import (
	"fmt"
	"testing"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// fixtureItems builds a small bank spanning CEFR bands, POS classes, and
// topics, with enough metadata to render every question type.
func fixtureItems(t *testing.T) []models.Item {
	t.Helper()
	var records []VocabRecord
	bands := []string{"A1", "A2", "B1", "B2", "C1"}
	curricula := []string{"초등", "초등", "중등", "고등", "기타"}
	for bi, band := range bands {
		for j := 0; j < 8; j++ {
			w := fmt.Sprintf("word%s%d", band, j)
			records = append(records, VocabRecord{
				Word:         w,
				MeaningKo:    fmt.Sprintf("뜻%s%d", band, j),
				DefinitionEn: fmt.Sprintf("definition of %s", w),
				POS:          "noun",
				Topic:        "nature",
				CEFR:         band,
				Curriculum:   curricula[bi],
				FreqRank:     bi*100 + j + 1,
				Synonyms:     []string{fmt.Sprintf("syn%s%d", band, j)},
				Antonyms:     []string{fmt.Sprintf("ant%s%d", band, j)},
				Sentences:    []string{fmt.Sprintf("I saw the %s yesterday.", w)},
				Collocations: []string{fmt.Sprintf("strong %s", w)},
			})
		}
	}
	return InitializeItems(records)
}

func fixtureBank(t *testing.T) *Bank {
	t.Helper()
	b, err := New(fixtureItems(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestBankLookup(t *testing.T) {
	b := fixtureBank(t)
	it, ok := b.Get(0)
	if !ok {
		t.Fatalf("Get(0) not found")
	}
	byWord, ok := b.GetByWord(it.Word)
	if !ok || byWord.ID != it.ID {
		t.Errorf("GetByWord(%q) = %v, want id %d", it.Word, byWord, it.ID)
	}
	if _, ok := b.Get(9999); ok {
		t.Errorf("Get(9999) should miss")
	}
}

func TestBankEnumerateFilters(t *testing.T) {
	b := fixtureBank(t)
	ids := b.Enumerate(Filter{CEFR: models.CEFRA1})
	if len(ids) != 8 {
		t.Errorf("A1 filter matched %d items, want 8", len(ids))
	}
	for _, id := range ids {
		it, _ := b.Get(id)
		if it.CEFR != models.CEFRA1 {
			t.Errorf("item %d has band %s, want A1", id, it.CEFR)
		}
	}

	ids = b.Enumerate(Filter{Curriculum: models.CurriculumElementary})
	if len(ids) != 16 {
		t.Errorf("elementary filter matched %d items, want 16", len(ids))
	}

	ids = b.Enumerate(Filter{QuestionType: models.TypeSynonym})
	if len(ids) != b.Count() {
		t.Errorf("all fixture items support synonyms, matched %d of %d", len(ids), b.Count())
	}
}

func TestBankEnumerateAscending(t *testing.T) {
	b := fixtureBank(t)
	ids := b.Enumerate(Filter{})
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not ascending at %d: %v", i, ids[i-1:i+1])
		}
	}
}

func TestTopByInformation(t *testing.T) {
	b := fixtureBank(t)
	top := b.TopByInformation(0.0, Filter{}, 5)
	if len(top) != 5 {
		t.Fatalf("got %d ranked items, want 5", len(top))
	}
	for i := 1; i < len(top); i++ {
		if top[i].Info > top[i-1].Info {
			t.Errorf("ranking not descending at %d: %f > %f", i, top[i].Info, top[i-1].Info)
		}
	}
	// The most informative item at theta=0 should sit near b=0.
	best, _ := b.Get(top[0].ItemID)
	worstDistance := 0.0
	for _, it := range b.Items() {
		d := abs(it.Difficulty)
		if d > worstDistance {
			worstDistance = d
		}
	}
	if abs(best.Difficulty) >= worstDistance {
		t.Errorf("top item difficulty %f is the farthest from theta", best.Difficulty)
	}
}

func TestBankPublishSwaps(t *testing.T) {
	b := fixtureBank(t)
	items := make([]models.Item, len(b.Items()))
	copy(items, b.Items())
	items[0].Difficulty = 1.234

	if err := b.Publish(items); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got, _ := b.Get(0)
	if got.Difficulty != 1.234 {
		t.Errorf("published difficulty = %f, want 1.234", got.Difficulty)
	}
}

func TestBankRejectsMisnumberedItems(t *testing.T) {
	items := fixtureItems(t)
	items[3].ID = 99
	if _, err := New(items); err == nil {
		t.Errorf("New should reject items whose id differs from index")
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
