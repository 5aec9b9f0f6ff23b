package learning

import (
	"context"
	"hash/fnv"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Enricher may rewrite a rendered card's explanation before it is served.
type Enricher interface {
	Enrich(it *models.Item, card *models.RenderedItem)
}

// Service runs the goal-based spaced-repetition loop on top of the item
// bank: card selection, SM-2 scheduling, and mastery tracking.
type Service struct {
	bank     *bank.Bank
	renderer *bank.Renderer
	registry *Registry
	store    *Store
	enricher Enricher
	now      func() time.Time
}

func NewService(b *bank.Bank, renderer *bank.Renderer, registry *Registry, store *Store) *Service {
	return &Service{
		bank:     b,
		renderer: renderer,
		registry: registry,
		store:    store,
		now:      time.Now,
	}
}

func (svc *Service) Registry() *Registry { return svc.registry }

// SetEnricher installs an optional explanation enricher.
func (svc *Service) SetEnricher(e Enricher) { svc.enricher = e }

func sessionSeed(sessionID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	return int64(h.Sum64())
}

// StartGoal opens a learning session over the goal's curriculum pool and
// issues the first card.
func (svc *Service) StartGoal(ctx context.Context, req models.StartGoalRequest) (*models.StartGoalResponse, error) {
	if !models.ValidGoalIDs[req.GoalID] {
		return nil, models.NewError(models.KindBadRequest, "invalid goal_id")
	}
	if req.TargetWordCount <= 0 {
		return nil, models.NewError(models.KindBadRequest, "target_word_count must be positive")
	}

	pool := svc.bank.Enumerate(bank.Filter{Curriculum: req.GoalID.Curriculum()})
	if len(pool) == 0 {
		pool = svc.bank.Enumerate(bank.Filter{})
	}
	if len(pool) == 0 {
		return nil, models.NewError(models.KindPoolExhausted, "no items available for goal")
	}

	userID := uuid.New().String()
	if err := svc.store.EnsureUser(userID, req.Nickname); err != nil {
		log.Printf("[learn] ensure user %s: %v", userID, err)
	}

	id := uuid.New().String()
	now := svc.now()
	s := NewSession(id, userID, req, pool, sessionSeed(id), now)
	svc.registry.Put(s)

	s.Lock()
	defer s.Unlock()
	card, _, err := svc.nextCardLocked(s, now)
	if err != nil {
		svc.registry.Drop(id)
		return nil, err
	}
	if err := svc.store.SaveSession(s); err != nil {
		log.Printf("[learn] save session %s: %v", id, err)
	}

	return &models.StartGoalResponse{
		SessionID:       id,
		UserID:          userID,
		GoalName:        req.GoalName,
		TargetWordCount: req.TargetWordCount,
		FirstCard:       card,
	}, nil
}

// Submit records one card rating: SM-2 update, mastery check, counters,
// best-effort persistence, then the next card. next_card is omitted and
// is_complete set once every pool word is mastered.
func (svc *Service) Submit(ctx context.Context, sessionID string, req models.SubmitCardRequest) (*models.SubmitCardResponse, error) {
	if req.SelfRating < RatingForgot || req.SelfRating > RatingEasy {
		return nil, models.NewError(models.KindBadRequest, "self_rating must be 0-3")
	}
	s, err := svc.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	it, ok := svc.bank.GetByWord(req.Word)
	if !ok {
		return nil, models.NewError(models.KindBadRequest, "unknown word")
	}

	now := svc.now()
	w, seen := s.Words[it.Word]
	if !seen {
		w = &models.LearnedWord{
			ID:         uuid.New().String(),
			SessionID:  s.ID,
			Word:       it.Word,
			ItemID:     it.ID,
			EaseFactor: defaultEaseFactor,
			DVKLevel:   1,
		}
		s.Words[it.Word] = w
		s.WordsStudied++
	}

	mastered := applyRating(w, req.SelfRating, req.IsCorrect, now)
	if mastered {
		s.WordsMastered++
	}
	if req.IsCorrect && int(req.QuestionType) > w.DVKLevel {
		w.DVKLevel = int(req.QuestionType)
	}
	s.TotalReviews++
	s.LastActivity = now

	if err := svc.store.SaveWord(s.ID, w); err != nil {
		log.Printf("[learn] save word %q: %v", w.Word, err)
	}
	if err := svc.store.SaveSession(s); err != nil {
		log.Printf("[learn] save session %s: %v", s.ID, err)
	}

	resp := &models.SubmitCardResponse{
		SessionProgress: s.Progress(),
		WordMastered:    mastered,
	}
	card, done, err := svc.nextCardLocked(s, now)
	if err != nil {
		return nil, err
	}
	resp.NextCard = card
	resp.IsComplete = done
	return resp, nil
}

// Progress returns the session counters.
func (svc *Service) Progress(sessionID string) (*models.GoalProgress, error) {
	s, err := svc.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.Lock()
	defer s.Unlock()
	p := s.Progress()
	return &p, nil
}

// nextCardLocked resolves the next word and renders its card. The second
// return is true when the goal pool is fully mastered.
func (svc *Service) nextCardLocked(s *Session, now time.Time) (*models.RenderedItem, bool, error) {
	itemID, w, ok := s.nextWordID(now)
	if !ok {
		return nil, true, nil
	}
	it, found := svc.bank.Get(itemID)
	if !found {
		return nil, false, models.NewError(models.KindInternal, "pool item missing from bank")
	}

	dist := distributionFor(s.GoalID, s.stageFor(w))
	qt := dist.sample(s.rng, it)
	card, err := svc.renderer.Render(it, qt, bank.RenderSeed(s.ID, it.ID))
	if err != nil {
		return nil, false, models.WrapError(models.KindInternal, "render card", err)
	}
	if svc.enricher != nil {
		svc.enricher.Enrich(it, card)
	}
	return card, false, nil
}

// ArchiveExpired persists swept sessions; wired to the registry sweeper.
func (svc *Service) ArchiveExpired(sessions []*Session) {
	for _, s := range sessions {
		s.Lock()
		if err := svc.store.SaveSession(s); err != nil {
			log.Printf("[learn] archive expired session %s: %v", s.ID, err)
		}
		s.Unlock()
	}
}
