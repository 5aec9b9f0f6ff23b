package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/cat"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// fixtureBank builds a 200-word bank over 20 topics and all five CEFR
// bands, with enough metadata for every question type.
func fixtureBank(t *testing.T) *bank.Bank {
	t.Helper()
	bands := []string{"A1", "A2", "B1", "B2", "C1"}
	curricula := []string{"초등", "초등", "중등", "고등", "기타"}
	poses := []string{"noun", "verb", "adjective", "noun", "noun"}

	var records []bank.VocabRecord
	for i := 0; i < 200; i++ {
		w := fmt.Sprintf("word%03d", i)
		records = append(records, bank.VocabRecord{
			Word:         w,
			MeaningKo:    fmt.Sprintf("뜻%03d", i),
			DefinitionEn: fmt.Sprintf("definition of %s", w),
			POS:          poses[i%len(poses)],
			Topic:        fmt.Sprintf("topic%02d", i%20),
			CEFR:         bands[i%len(bands)],
			Curriculum:   curricula[i%len(bands)],
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

func fixtureGenerator(t *testing.T) (*Generator, *bank.Bank) {
	t.Helper()
	b := fixtureBank(t)
	return NewGenerator(b), b
}

// answer issues and records one response on the session.
func answer(t *testing.T, s *cat.Session, b *bank.Bank, itemID int, qt models.QuestionType, correct bool) {
	t.Helper()
	it, ok := b.Get(itemID)
	if !ok {
		t.Fatalf("item %d missing from fixture bank", itemID)
	}
	s.IssueItem(it.ID, qt, it.IsLoanword)
	if _, err := s.RecordResponse(it, models.RespondRequest{
		ItemID:    it.ID,
		IsCorrect: correct,
	}, time.Now()); err != nil {
		t.Fatalf("RecordResponse item %d: %v", itemID, err)
	}
}

// fixtureTerminalSession answers n items, alternating correctness, then
// terminates the session.
func fixtureTerminalSession(t *testing.T, b *bank.Bank, n int) *cat.Session {
	t.Helper()
	profile := models.Profile{
		Grade:          models.GradeMiddle2,
		SelfAssess:     models.AssessIntermediate,
		ExamExperience: models.ExamSome,
		QuestionType:   models.TypeMixed,
	}
	s := cat.NewSession(cat.NewSessionID(), "user-1", profile, time.Now())
	types := []models.QuestionType{
		models.TypeKoreanMean, models.TypeEnglishDef, models.TypeSynonym,
		models.TypeAntonym, models.TypeCloze, models.TypeCollocation,
	}
	for i := 0; i < n; i++ {
		answer(t, s, b, i, types[i%len(types)], i%2 == 0)
	}
	s.Terminate(models.ReasonSEThreshold)
	return s
}

func intPtr(v int) *int { return &v }
