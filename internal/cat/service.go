package cat

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Reporter builds the terminal diagnostic for a finished session. The caller
// holds the session lock for the duration of the call.
type Reporter interface {
	Diagnostic(s *Session) *models.Report
}

// Enricher may rewrite a rendered item's explanation before it is served.
type Enricher interface {
	Enrich(it *models.Item, card *models.RenderedItem)
}

// Service drives the adaptive test flow: session creation, item issue,
// response handling, termination, and archival.
type Service struct {
	bank     *bank.Bank
	renderer *bank.Renderer
	selector *Selector
	stopping StoppingEngine
	exposure *ExposureController
	manager  *Manager
	store    *Store
	reporter Reporter
	enricher Enricher
}

func NewService(b *bank.Bank, r *bank.Renderer, sel *Selector, e *ExposureController, m *Manager, st *Store, rep Reporter) *Service {
	return &Service{
		bank:     b,
		renderer: r,
		selector: sel,
		exposure: e,
		manager:  m,
		store:    st,
		reporter: rep,
	}
}

// SetEnricher installs an optional explanation enricher.
func (svc *Service) SetEnricher(e Enricher) { svc.enricher = e }

// Manager exposes the registry for sweeper wiring.
func (svc *Service) Manager() *Manager { return svc.manager }

// Exposure exposes the controller for the ops surface.
func (svc *Service) Exposure() *ExposureController { return svc.exposure }

// ArchiveExpired persists a swept session. Used as the sweeper callback.
func (svc *Service) ArchiveExpired(s *Session) {
	s.Lock()
	defer s.Unlock()
	svc.archiveLocked(s)
}

// ── Start ─────────────────────────────────────────────────

// StartTest registers a user and session, then issues the first item. A bank
// that cannot produce a single eligible item terminates the session
// immediately with pool_exhausted.
func (svc *Service) StartTest(ctx context.Context, req models.StartTestRequest) (*models.StartTestResponse, error) {
	profile := models.Profile{
		Grade:          req.Grade,
		SelfAssess:     req.SelfAssess,
		ExamExperience: req.ExamExperience,
		QuestionType:   req.QuestionType,
	}

	userID := req.UserID
	if userID == "" {
		userID = uuid.New().String()
	}
	if err := svc.store.EnsureUser(userID, req.Nickname); err != nil {
		log.Printf("[cat] ensure user %s: %v", userID, err)
	}

	s := svc.manager.Create(userID, profile)
	svc.exposure.RecordSessionStart()

	s.Lock()
	defer s.Unlock()

	first, err := svc.issueLocked(s)
	if err != nil {
		if models.KindOf(err) == models.KindPoolExhausted {
			s.Terminate(models.ReasonPoolExhausted)
			svc.archiveLocked(s)
			svc.manager.Drop(s.ID)
		}
		return nil, err
	}

	return &models.StartTestResponse{
		SessionID:    s.ID,
		UserID:       userID,
		InitialTheta: s.InitialTheta(),
		FirstItem:    first,
		Progress:     s.Progress(),
	}, nil
}

// ── Respond ───────────────────────────────────────────────

// duplicateError is a conflict carrying the already-committed record so the
// handler can return it alongside the error body.
type duplicateError struct {
	err       *models.Error
	committed models.ResponseRecord
}

func (e *duplicateError) Error() string { return e.err.Error() }

func (e *duplicateError) Unwrap() error { return e.err }

// Respond applies one answer and either issues the next item or finalizes the
// session with its diagnostic report.
func (svc *Service) Respond(ctx context.Context, sessionID string, req models.RespondRequest) (*models.RespondResponse, error) {
	s, err := svc.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	item, ok := svc.bank.Get(req.ItemID)
	if !ok {
		return nil, models.NewError(models.KindBadRequest, "unknown item id")
	}

	if rec, answered := s.FindRecord(req.ItemID); answered {
		return nil, &duplicateError{
			err:       models.NewError(models.KindConflict, "response for this item already recorded"),
			committed: *rec,
		}
	}

	if _, err := s.RecordResponse(item, req, svc.manager.now()); err != nil {
		if models.KindOf(err) == models.KindInvariantViolation {
			svc.archiveLocked(s)
			svc.manager.Drop(s.ID)
		}
		return nil, err
	}

	if reason := svc.stopping.Evaluate(s); reason != models.ReasonNone {
		return svc.finalizeLocked(s, reason)
	}

	next, err := svc.issueLocked(s)
	if err != nil {
		if models.KindOf(err) == models.KindPoolExhausted {
			return svc.finalizeLocked(s, models.ReasonPoolExhausted)
		}
		return nil, err
	}

	return &models.RespondResponse{
		IsComplete: false,
		Progress:   s.Progress(),
		NextItem:   next,
	}, nil
}

// issueLocked selects, renders, and books the next item. Caller holds the
// session lock.
func (svc *Service) issueLocked(s *Session) (*models.RenderedItem, error) {
	selection, err := svc.selector.Next(s)
	if err != nil {
		return nil, err
	}
	rendered, err := svc.renderer.Render(selection.Item, selection.QuestionType, bank.RenderSeed(s.ID, selection.Item.ID))
	if err != nil {
		return nil, models.WrapError(models.KindInternal, "render item", err)
	}
	if svc.enricher != nil {
		svc.enricher.Enrich(selection.Item, rendered)
	}
	s.IssueItem(selection.Item.ID, rendered.QuestionType, selection.Item.IsLoanword)
	svc.exposure.RecordAdministered(selection.Item.ID)
	return rendered, nil
}

// finalizeLocked terminates the session, builds the report, archives, and
// removes the session from the registry. Caller holds the session lock.
func (svc *Service) finalizeLocked(s *Session, reason models.TerminationReason) (*models.RespondResponse, error) {
	s.Terminate(reason)
	report := svc.reporter.Diagnostic(s)
	svc.archiveLocked(s)
	svc.manager.Drop(s.ID)

	return &models.RespondResponse{
		IsComplete: true,
		Progress:   s.Progress(),
		Results:    report,
	}, nil
}

// archiveLocked persists the session best-effort. Archive failures are logged,
// never surfaced to the learner mid-flow.
func (svc *Service) archiveLocked(s *Session) {
	var report *models.Report
	if svc.reporter != nil && s.State() == models.StateTerminated {
		report = svc.reporter.Diagnostic(s)
	}
	if err := svc.store.ArchiveSession(context.Background(), s, report); err != nil {
		log.Printf("[cat] archive session %s: %v", s.ID, err)
	}
}

// ── Read side ─────────────────────────────────────────────

// Results returns the diagnostic for a terminated session: from the live
// registry when the session just finished, otherwise from the archive.
func (svc *Service) Results(sessionID string) (*models.Report, error) {
	s, err := svc.manager.Get(sessionID)
	if err == nil {
		s.Lock()
		defer s.Unlock()
		if s.State() != models.StateTerminated {
			return nil, models.NewError(models.KindBadRequest, "session still in progress")
		}
		return svc.reporter.Diagnostic(s), nil
	}
	if models.KindOf(err) == models.KindGone {
		return nil, err
	}
	return svc.store.LoadReport(sessionID)
}

// Progress returns the live snapshot for an active session.
func (svc *Service) Progress(sessionID string) (*models.Progress, error) {
	s, err := svc.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.Lock()
	defer s.Unlock()
	p := s.Progress()
	return &p, nil
}

// History lists a user's archived sessions, newest first.
func (svc *Service) History(userID string) (*models.HistoryResponse, error) {
	entries, err := svc.store.UserHistory(userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return &models.HistoryResponse{
		UserID:        userID,
		TotalSessions: len(entries),
		Sessions:      entries,
	}, nil
}
