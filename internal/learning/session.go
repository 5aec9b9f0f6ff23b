package learning

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// DefaultSessionTTL evicts goal sessions idle for this long.
const DefaultSessionTTL = 2 * time.Hour

// Session is one goal-based learning run: a pool of curriculum words, the
// per-word SM-2 state, and the study counters. Access is serialized
// through mu.
type Session struct {
	mu sync.Mutex

	ID              string
	UserID          string
	GoalID          models.GoalID
	GoalName        string
	TargetWordCount int

	// Words holds per-word spaced-repetition state, keyed by word.
	Words map[string]*models.LearnedWord

	WordsStudied  int
	WordsMastered int
	TotalReviews  int

	pool []int
	rng  *rand.Rand

	StartedAt    time.Time
	LastActivity time.Time
}

func NewSession(id, userID string, req models.StartGoalRequest, pool []int, seed int64, now time.Time) *Session {
	return &Session{
		ID:              id,
		UserID:          userID,
		GoalID:          req.GoalID,
		GoalName:        req.GoalName,
		TargetWordCount: req.TargetWordCount,
		Words:           make(map[string]*models.LearnedWord),
		pool:            pool,
		rng:             rand.New(rand.NewSource(seed)),
		StartedAt:       now,
		LastActivity:    now,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Progress snapshots the session counters. Completion is measured in
// mastered words against the target.
func (s *Session) Progress() models.GoalProgress {
	pct := 0.0
	if s.TargetWordCount > 0 {
		pct = float64(s.WordsMastered) / float64(s.TargetWordCount) * 100
		if pct > 100 {
			pct = 100
		}
	}
	return models.GoalProgress{
		WordsStudied:         s.WordsStudied,
		WordsMastered:        s.WordsMastered,
		TotalReviews:         s.TotalReviews,
		TargetWordCount:      s.TargetWordCount,
		CompletionPercentage: pct,
	}
}

// nextWordID picks the next item to study. Priority order: due reviews
// (earliest first, hardest first on ties), then an unstudied pool word at
// random, then the stalest unmastered word. Returns false when every
// pool word is mastered.
func (s *Session) nextWordID(now time.Time) (int, *models.LearnedWord, bool) {
	var due []*models.LearnedWord
	for _, w := range s.Words {
		if !w.IsMastered && !w.NextReviewAt.After(now) {
			due = append(due, w)
		}
	}
	if len(due) > 0 {
		sort.Slice(due, func(i, j int) bool {
			if !due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
				return due[i].NextReviewAt.Before(due[j].NextReviewAt)
			}
			return due[i].EaseFactor < due[j].EaseFactor
		})
		w := due[0]
		return w.ItemID, w, true
	}

	var unstudied []int
	studied := make(map[int]bool, len(s.Words))
	for _, w := range s.Words {
		studied[w.ItemID] = true
	}
	for _, id := range s.pool {
		if !studied[id] {
			unstudied = append(unstudied, id)
		}
	}
	if len(unstudied) > 0 {
		return unstudied[s.rng.Intn(len(unstudied))], nil, true
	}

	var stale *models.LearnedWord
	for _, w := range s.Words {
		if w.IsMastered {
			continue
		}
		if stale == nil || w.LastReviewedAt.Before(stale.LastReviewedAt) {
			stale = w
		}
	}
	if stale != nil {
		return stale.ItemID, stale, true
	}
	return 0, nil, false
}

// stageFor resolves the learning stage of an item for type selection.
func (s *Session) stageFor(w *models.LearnedWord) models.LearningStage {
	if w == nil {
		return models.StageFirstExposure
	}
	return w.Stage()
}

// ── Registry ──────────────────────────────────────────────

// Registry maps live goal-session ids to state with TTL eviction.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, models.NewError(models.KindNotFound, "learning session not found")
	}
	if r.now().Sub(s.LastActivity) > r.ttl {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return nil, models.NewError(models.KindGone, "learning session expired")
	}
	return s, nil
}

func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepExpired drops idle sessions and returns them for archival.
func (r *Registry) SweepExpired() []*Session {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept []*Session
	for id, s := range r.sessions {
		if s.LastActivity.Before(cutoff) {
			swept = append(swept, s)
			delete(r.sessions, id)
		}
	}
	return swept
}
