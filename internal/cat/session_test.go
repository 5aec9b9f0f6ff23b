package cat

import (
	"testing"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

func TestSessionLifecycle(t *testing.T) {
	items := fixtureItems(t)
	s := fixtureSession(t, models.TypeKoreanMean)

	if s.State() != models.StateInitialized {
		t.Fatalf("state = %q, want initialized", s.State())
	}
	s.IssueItem(items[0].ID, models.TypeKoreanMean, false)
	if s.State() != models.StateInProgress {
		t.Fatalf("state after issue = %q, want in_progress", s.State())
	}
	s.Terminate(models.ReasonSEThreshold)
	if s.State() != models.StateTerminated {
		t.Fatalf("state after terminate = %q, want terminated", s.State())
	}
	s.Terminate(models.ReasonMaxItems)
	if s.TerminationReason() != models.ReasonSEThreshold {
		t.Errorf("second terminate overwrote reason: %q", s.TerminationReason())
	}
}

func TestSessionThetaStartsAtPrior(t *testing.T) {
	s := fixtureSession(t, models.TypeKoreanMean)
	if s.Theta() != s.InitialTheta() {
		t.Errorf("pre-response theta = %f, want profile prior %f", s.Theta(), s.InitialTheta())
	}

	items := fixtureItems(t)
	answerN(t, s, items, 1, func(int) bool { return true })
	if s.Theta() == s.InitialTheta() && s.InitialTheta() != 0 {
		t.Errorf("post-response theta still pinned to prior")
	}
}

func TestSessionDuplicateResponseConflict(t *testing.T) {
	items := fixtureItems(t)
	s := fixtureSession(t, models.TypeKoreanMean)
	answerN(t, s, items, 1, func(int) bool { return true })

	s.IssueItem(items[1].ID, models.TypeKoreanMean, false)
	_, err := s.RecordResponse(&items[0], models.RespondRequest{ItemID: items[0].ID, IsCorrect: true}, time.Now())
	if models.KindOf(err) != models.KindConflict {
		t.Errorf("duplicate response kind = %q, want conflict", models.KindOf(err))
	}
	if s.ItemsCompleted() != 1 {
		t.Errorf("history length = %d after duplicate, want 1", s.ItemsCompleted())
	}
}

func TestSessionWrongItemRejected(t *testing.T) {
	items := fixtureItems(t)
	s := fixtureSession(t, models.TypeKoreanMean)

	s.IssueItem(items[0].ID, models.TypeKoreanMean, false)
	_, err := s.RecordResponse(&items[5], models.RespondRequest{ItemID: items[5].ID, IsCorrect: true}, time.Now())
	if models.KindOf(err) != models.KindBadRequest {
		t.Errorf("mismatched item kind = %q, want bad_request", models.KindOf(err))
	}
}

func TestSessionTerminatedRejectsResponses(t *testing.T) {
	items := fixtureItems(t)
	s := fixtureSession(t, models.TypeKoreanMean)
	s.IssueItem(items[0].ID, models.TypeKoreanMean, false)
	s.Terminate(models.ReasonExpired)

	_, err := s.RecordResponse(&items[0], models.RespondRequest{ItemID: items[0].ID, IsCorrect: true}, time.Now())
	if models.KindOf(err) != models.KindGone {
		t.Errorf("terminated session kind = %q, want gone", models.KindOf(err))
	}
}

func TestSessionRecordTrace(t *testing.T) {
	items := fixtureItems(t)
	s := fixtureSession(t, models.TypeKoreanMean)
	answerN(t, s, items, 3, func(i int) bool { return i != 1 })

	records := s.Records()
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, r := range records {
		if r.Sequence != i+1 {
			t.Errorf("record %d sequence = %d", i, r.Sequence)
		}
		if i > 0 && r.ThetaBefore != records[i-1].ThetaAfter {
			t.Errorf("record %d theta_before %f != previous theta_after %f", i, r.ThetaBefore, records[i-1].ThetaAfter)
		}
	}
	if records[0].ThetaBefore != s.InitialTheta() {
		t.Errorf("first theta_before = %f, want prior %f", records[0].ThetaBefore, s.InitialTheta())
	}
}

func TestSessionDontKnowCounted(t *testing.T) {
	items := fixtureItems(t)
	s := fixtureSession(t, models.TypeKoreanMean)

	s.IssueItem(items[0].ID, models.TypeKoreanMean, false)
	_, err := s.RecordResponse(&items[0], models.RespondRequest{
		ItemID:     items[0].ID,
		IsCorrect:  false,
		IsDontKnow: true,
	}, time.Now())
	if err != nil {
		t.Fatalf("RecordResponse: %v", err)
	}
	if s.DontKnowCount() != 1 {
		t.Errorf("dont-know count = %d, want 1", s.DontKnowCount())
	}
	if s.TotalCorrect() != 0 {
		t.Errorf("dont-know counted as correct")
	}
}

func TestSessionProgressSnapshot(t *testing.T) {
	items := fixtureItems(t)
	s := fixtureSession(t, models.TypeKoreanMean)
	answerN(t, s, items, 4, func(i int) bool { return i < 3 })

	p := s.Progress()
	if p.ItemsCompleted != 4 || p.TotalCorrect != 3 {
		t.Fatalf("progress = %+v", p)
	}
	if p.Accuracy != 0.75 {
		t.Errorf("accuracy = %f, want 0.75", p.Accuracy)
	}
	if p.IsComplete {
		t.Errorf("progress complete before termination")
	}
}

func TestSessionSeedDeterministic(t *testing.T) {
	a := sessionSeed("abc123")
	b := sessionSeed("abc123")
	c := sessionSeed("abc124")
	if a != b {
		t.Errorf("same id produced different seeds")
	}
	if a == c {
		t.Errorf("different ids produced the same seed")
	}
}
