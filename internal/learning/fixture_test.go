package learning

import (
	"fmt"
	"testing"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// fixtureBank builds an 80-word bank spread over the four curriculum bands
// with enough metadata for every question type.
func fixtureBank(t *testing.T) *bank.Bank {
	t.Helper()
	bands := []string{"A1", "A2", "B1", "B2"}
	curricula := []string{"초등", "중등", "고등", "수능"}

	var records []bank.VocabRecord
	for i := 0; i < 80; i++ {
		w := fmt.Sprintf("word%03d", i)
		records = append(records, bank.VocabRecord{
			Word:         w,
			MeaningKo:    fmt.Sprintf("뜻%03d", i),
			DefinitionEn: fmt.Sprintf("definition of %s", w),
			POS:          "noun",
			Topic:        fmt.Sprintf("topic%02d", i%8),
			CEFR:         bands[i%len(bands)],
			Curriculum:   curricula[i%len(curricula)],
			FreqRank:     i + 1,
			Synonyms:     []string{fmt.Sprintf("syn%03d", i)},
			Antonyms:     []string{fmt.Sprintf("ant%03d", i)},
			Sentences:    []string{fmt.Sprintf("I noticed the %s yesterday.", w)},
			Collocations: []string{fmt.Sprintf("strong %s", w)},
		})
	}
	b, err := bank.New(bank.InitializeItems(records))
	if err != nil {
		t.Fatalf("bank.New: %v", err)
	}
	return b
}

func fixtureService(t *testing.T) *Service {
	t.Helper()
	b := fixtureBank(t)
	renderer := bank.NewRenderer(b)
	registry := NewRegistry(DefaultSessionTTL)
	return NewService(b, renderer, registry, NewStore(nil))
}

func fixtureStartRequest() models.StartGoalRequest {
	return models.StartGoalRequest{
		GoalID:          models.GoalElementary,
		GoalName:        "elementary vocab",
		TargetWordCount: 10,
		Nickname:        "tester",
	}
}

func fixtureWord(word string, itemID int) *models.LearnedWord {
	return &models.LearnedWord{
		ID:         "lw-" + word,
		SessionID:  "sess-1",
		Word:       word,
		ItemID:     itemID,
		EaseFactor: defaultEaseFactor,
		DVKLevel:   1,
	}
}
