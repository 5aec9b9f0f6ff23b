package cat

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/irt"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Session is the per-learner adaptive test state machine. All access is
// serialized through mu; posterior updates are not commutative, so a session
// progresses strictly sequentially.
type Session struct {
	mu sync.Mutex

	ID      string
	UserID  string
	Profile models.Profile

	estimator *irt.Estimator
	records   []models.ResponseRecord

	administered map[int]bool
	topicCounts  map[string]int
	posCounts    map[models.PartOfSpeech]int
	typeCounts   map[models.QuestionType]int

	loanwordCount int
	thetaTrace    []float64

	rng  *rand.Rand
	seed int64

	state             models.SessionState
	terminationReason models.TerminationReason

	// lastIssued is the item the learner must answer next. -1 when none.
	lastIssued     int
	lastIssuedType models.QuestionType

	StartedAt    time.Time
	LastActivity time.Time
}

// sessionSeed derives the deterministic selection seed from the session id.
func sessionSeed(sessionID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	return int64(h.Sum64())
}

// NewSession builds an initialized session. The profile prior is the theta
// reported before the first response; the EAP posterior always starts from
// N(0,1).
func NewSession(id, userID string, profile models.Profile, now time.Time) *Session {
	seed := sessionSeed(id)
	return &Session{
		ID:           id,
		UserID:       userID,
		Profile:      profile,
		estimator:    irt.NewEstimator(),
		administered: make(map[int]bool),
		topicCounts:  make(map[string]int),
		posCounts:    make(map[models.PartOfSpeech]int),
		typeCounts:   make(map[models.QuestionType]int),
		rng:          rand.New(rand.NewSource(seed)),
		seed:         seed,
		state:        models.StateInitialized,
		lastIssued:   -1,
		StartedAt:    now,
		LastActivity: now,
	}
}

// Lock serializes handler access to the session.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// InitialTheta is the profile-derived starting ability used for the first
// selection, before any posterior evidence exists.
func (s *Session) InitialTheta() float64 { return s.Profile.InitialTheta() }

// Theta returns the current ability estimate: the profile prior before any
// response, the posterior mean afterward.
func (s *Session) Theta() float64 {
	if len(s.records) == 0 {
		return s.InitialTheta()
	}
	return s.estimator.Theta()
}

// SE returns the posterior standard deviation.
func (s *Session) SE() float64 { return s.estimator.SE() }

// Reliability returns the score reliability derived from the posterior SE.
func (s *Session) Reliability() float64 { return irt.Reliability(s.estimator.SE()) }

// State returns the lifecycle state.
func (s *Session) State() models.SessionState { return s.state }

// TerminationReason returns the recorded reason, empty while running.
func (s *Session) TerminationReason() models.TerminationReason { return s.terminationReason }

// Records returns the response history. Callers must hold the lock and must
// not mutate.
func (s *Session) Records() []models.ResponseRecord { return s.records }

// ItemsCompleted returns the number of answered items.
func (s *Session) ItemsCompleted() int { return len(s.records) }

// TotalCorrect counts correct responses.
func (s *Session) TotalCorrect() int {
	n := 0
	for _, r := range s.records {
		if r.IsCorrect && !r.IsDontKnow {
			n++
		}
	}
	return n
}

// DontKnowCount counts explicit dont-know responses.
func (s *Session) DontKnowCount() int {
	n := 0
	for _, r := range s.records {
		if r.IsDontKnow {
			n++
		}
	}
	return n
}

// Progress snapshots the per-response progress shape.
func (s *Session) Progress() models.Progress {
	completed := s.ItemsCompleted()
	correct := s.TotalCorrect()
	accuracy := 0.0
	if completed > 0 {
		accuracy = float64(correct) / float64(completed)
	}
	return models.Progress{
		ItemsCompleted: completed,
		TotalCorrect:   correct,
		Accuracy:       accuracy,
		CurrentTheta:   s.Theta(),
		CurrentSE:      s.SE(),
		IsComplete:     s.state == models.StateTerminated,
	}
}

// IssueItem records the item handed to the learner and transitions
// initialized sessions into in_progress.
func (s *Session) IssueItem(itemID int, qt models.QuestionType, isLoanword bool) {
	if s.state == models.StateInitialized {
		s.state = models.StateInProgress
	}
	s.lastIssued = itemID
	s.lastIssuedType = qt
	if isLoanword {
		s.loanwordCount++
	}
}

// LastIssued returns the pending item id and type, or -1 when none.
func (s *Session) LastIssued() (int, models.QuestionType) {
	return s.lastIssued, s.lastIssuedType
}

// RecordResponse applies one answer: ordering and duplicate guards, posterior
// update, history append, counter updates. The caller supplies the item; its
// effective parameters are taken under the issued question type.
func (s *Session) RecordResponse(item *models.Item, req models.RespondRequest, now time.Time) (*models.ResponseRecord, error) {
	if s.state == models.StateTerminated {
		return nil, models.NewError(models.KindGone, "session already terminated")
	}
	if s.administered[req.ItemID] {
		return nil, models.NewError(models.KindConflict, "response for this item already recorded")
	}
	if s.lastIssued != req.ItemID {
		return nil, models.NewError(models.KindBadRequest, "response does not reference the issued item")
	}

	qt := s.lastIssuedType
	correct := req.IsCorrect && !req.IsDontKnow

	rec := models.ResponseRecord{
		Sequence:       len(s.records) + 1,
		ItemID:         item.ID,
		Word:           item.Word,
		QuestionType:   qt,
		IsCorrect:      req.IsCorrect,
		IsDontKnow:     req.IsDontKnow,
		ResponseTimeMs: req.ResponseTimeMs,
		ThetaBefore:    s.Theta(),
		SEBefore:       s.SE(),
		AnsweredAt:     now,
	}

	s.estimator.Update(correct, item.EffectiveA(qt), item.EffectiveB(qt), item.Guessing)
	if mass := s.estimator.PosteriorMass(); mass < 1.0-1e-9 || mass > 1.0+1e-9 {
		s.state = models.StateTerminated
		s.terminationReason = models.ReasonCorrupted
		return nil, models.NewError(models.KindInvariantViolation, "posterior not normalizable")
	}

	rec.ThetaAfter = s.estimator.Theta()
	rec.SEAfter = s.estimator.SE()
	s.records = append(s.records, rec)
	s.thetaTrace = append(s.thetaTrace, rec.ThetaAfter)

	s.administered[item.ID] = true
	s.topicCounts[item.Topic]++
	s.posCounts[item.POS]++
	s.typeCounts[qt]++
	s.lastIssued = -1
	s.LastActivity = now

	return &rec, nil
}

// FindRecord returns the committed record for an item, if answered.
func (s *Session) FindRecord(itemID int) (*models.ResponseRecord, bool) {
	for i := range s.records {
		if s.records[i].ItemID == itemID {
			return &s.records[i], true
		}
	}
	return nil, false
}

// Terminate finalizes the session with a reason. Idempotent; the first
// reason wins.
func (s *Session) Terminate(reason models.TerminationReason) {
	if s.state == models.StateTerminated {
		return
	}
	s.state = models.StateTerminated
	s.terminationReason = reason
}

// ThetaDeltas returns the trailing |delta theta| values, newest last, up to n.
func (s *Session) ThetaDeltas(n int) []float64 {
	var deltas []float64
	for i := 1; i < len(s.thetaTrace); i++ {
		d := s.thetaTrace[i] - s.thetaTrace[i-1]
		if d < 0 {
			d = -d
		}
		deltas = append(deltas, d)
	}
	if len(deltas) > n {
		deltas = deltas[len(deltas)-n:]
	}
	return deltas
}
