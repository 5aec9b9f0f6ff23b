package cat

import (
	"fmt"
	"testing"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// posPattern approximates the administered POS mix per 40 words so the
// balance gate never starves selection in tests.
var posPattern = func() []string {
	var p []string
	add := func(pos string, n int) {
		for i := 0; i < n; i++ {
			p = append(p, pos)
		}
	}
	add("noun", 20)
	add("verb", 11)
	add("adjective", 7)
	add("adverb", 1)
	add("other", 1)
	return p
}()

// fixtureItems builds a 200-word bank spread over 20 topics, five CEFR bands,
// and a realistic POS mix, with enough metadata for every question type.
func fixtureItems(t *testing.T) []models.Item {
	t.Helper()
	bands := []string{"A1", "A2", "B1", "B2", "C1"}
	curricula := []string{"초등", "초등", "중등", "고등", "기타"}

	var records []bank.VocabRecord
	for i := 0; i < 200; i++ {
		band := bands[i%len(bands)]
		w := fmt.Sprintf("word%03d", i)
		records = append(records, bank.VocabRecord{
			Word:         w,
			MeaningKo:    fmt.Sprintf("뜻%03d", i),
			DefinitionEn: fmt.Sprintf("definition of %s", w),
			POS:          posPattern[i%len(posPattern)],
			Topic:        fmt.Sprintf("topic%02d", i%20),
			CEFR:         band,
			Curriculum:   curricula[i%len(bands)],
			FreqRank:     i + 1,
			Synonyms:     []string{fmt.Sprintf("syn%03d", i)},
			Antonyms:     []string{fmt.Sprintf("ant%03d", i)},
			Sentences:    []string{fmt.Sprintf("I noticed the %s yesterday.", w)},
			Collocations: []string{fmt.Sprintf("strong %s", w)},
		})
	}
	return bank.InitializeItems(records)
}

func fixtureBank(t *testing.T) *bank.Bank {
	t.Helper()
	b, err := bank.New(fixtureItems(t))
	if err != nil {
		t.Fatalf("bank.New: %v", err)
	}
	return b
}

func fixtureProfile(qt models.QuestionType) models.Profile {
	return models.Profile{
		Grade:          models.GradeMiddle2,
		SelfAssess:     models.AssessIntermediate,
		ExamExperience: models.ExamSome,
		QuestionType:   qt,
	}
}

func fixtureSession(t *testing.T, qt models.QuestionType) *Session {
	t.Helper()
	return NewSession(NewSessionID(), "user-1", fixtureProfile(qt), time.Now())
}

// stubReporter returns a minimal diagnostic without touching the bank.
type stubReporter struct{}

func (stubReporter) Diagnostic(s *Session) *models.Report {
	return &models.Report{
		SessionID:         s.ID,
		Theta:             s.Theta(),
		SE:                s.SE(),
		Reliability:       s.Reliability(),
		ItemsCompleted:    s.ItemsCompleted(),
		TotalCorrect:      s.TotalCorrect(),
		DontKnowCount:     s.DontKnowCount(),
		TerminationReason: s.TerminationReason(),
		InsufficientData:  s.ItemsCompleted() < 5,
	}
}

func fixtureService(t *testing.T) *Service {
	t.Helper()
	b := fixtureBank(t)
	renderer := bank.NewRenderer(b)
	exposure := NewExposureController()
	selector := NewSelector(b, renderer, exposure, DefaultMaxExposureRate)
	manager := NewManager(DefaultSessionTTL)
	return NewService(b, renderer, selector, exposure, manager, NewStore(nil), stubReporter{})
}
