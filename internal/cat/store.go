package cat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Write retry policy for transient persistence failures.
const (
	writeAttempts   = 3
	backoffBase     = 100 * time.Millisecond
	backoffCap      = 1 * time.Second
)

// Store persists users, archived test sessions, and response histories. A nil
// *sql.DB store degrades to in-memory operation; archive calls become no-ops
// and the history read side reports persistence_unavailable.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (st *Store) Available() bool { return st != nil && st.db != nil }

// withRetry runs fn up to writeAttempts times with capped exponential backoff.
func withRetry(fn func() error) error {
	var err error
	backoff := backoffBase
	for attempt := 0; attempt < writeAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < writeAttempts-1 {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		}
	}
	return err
}

// EnsureUser upserts a user row, refreshing the nickname when one is given.
func (st *Store) EnsureUser(userID, nickname string) error {
	if !st.Available() {
		return nil
	}
	return withRetry(func() error {
		_, err := st.db.Exec(
			`INSERT INTO users (id, nickname)
			 VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET nickname = COALESCE(NULLIF($2, ''), users.nickname)`,
			userID, nickname,
		)
		if err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		return nil
	})
}

// ArchiveSession writes the terminated session, its full response history, and
// the diagnostic report in one transaction.
func (st *Store) ArchiveSession(ctx context.Context, s *Session, report *models.Report) error {
	if !st.Available() {
		return nil
	}
	err := withRetry(func() error {
		tx, err := st.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		var reportJSON []byte
		if report != nil {
			reportJSON, err = json.Marshal(report)
			if err != nil {
				return fmt.Errorf("marshal report: %w", err)
			}
		}

		_, err = tx.Exec(
			`INSERT INTO test_sessions
			 (id, user_id, grade, self_assess, exam_experience, question_type,
			  initial_theta, final_theta, final_se, reliability,
			  items_completed, total_correct, dont_know_count,
			  termination_reason, report, started_at, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
			 ON CONFLICT (id) DO NOTHING`,
			s.ID, s.UserID, s.Profile.Grade, s.Profile.SelfAssess, s.Profile.ExamExperience,
			int(s.Profile.QuestionType), s.InitialTheta(), s.Theta(), s.SE(), s.Reliability(),
			s.ItemsCompleted(), s.TotalCorrect(), s.DontKnowCount(),
			string(s.TerminationReason()), nullBytes(reportJSON), s.StartedAt,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		for _, r := range s.Records() {
			_, err = tx.Exec(
				`INSERT INTO responses
				 (session_id, sequence, item_id, word, question_type,
				  is_correct, is_dont_know, response_time_ms,
				  theta_before, se_before, theta_after, se_after, answered_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				 ON CONFLICT (session_id, sequence) DO NOTHING`,
				s.ID, r.Sequence, r.ItemID, r.Word, int(r.QuestionType),
				r.IsCorrect, r.IsDontKnow, r.ResponseTimeMs,
				r.ThetaBefore, r.SEBefore, r.ThetaAfter, r.SEAfter, r.AnsweredAt,
			)
			if err != nil {
				return fmt.Errorf("insert response %d: %w", r.Sequence, err)
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return models.WrapError(models.KindPersistenceUnavailable, "archive session", err)
	}
	return nil
}

// LoadReport returns the archived diagnostic for a terminated session, or
// not_found when the session was never archived.
func (st *Store) LoadReport(sessionID string) (*models.Report, error) {
	if !st.Available() {
		return nil, models.NewError(models.KindPersistenceUnavailable, "no persistence backend configured")
	}
	var raw []byte
	err := st.db.QueryRow(
		`SELECT report FROM test_sessions WHERE id = $1`,
		sessionID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, models.NewError(models.KindNotFound, "session not found")
	}
	if err != nil {
		return nil, models.WrapError(models.KindPersistenceUnavailable, "load report", err)
	}
	if len(raw) == 0 {
		return nil, models.NewError(models.KindNotFound, "no report archived for session")
	}
	var report models.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, models.WrapError(models.KindInternal, "decode archived report", err)
	}
	return &report, nil
}

// UserHistory returns the archived sessions for a user, newest first, with a
// theta delta against the chronologically previous completed session.
func (st *Store) UserHistory(userID string) ([]models.HistoryEntry, error) {
	if !st.Available() {
		return nil, models.NewError(models.KindPersistenceUnavailable, "no persistence backend configured")
	}
	rows, err := st.db.Query(
		`SELECT id, started_at, completed_at, final_theta, final_se,
		        items_completed, termination_reason, report
		 FROM test_sessions
		 WHERE user_id = $1
		 ORDER BY started_at ASC`,
		userID,
	)
	if err != nil {
		return nil, models.WrapError(models.KindPersistenceUnavailable, "load history", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	var prevTheta *float64
	for rows.Next() {
		var e models.HistoryEntry
		var completedAt sql.NullTime
		var theta, se sql.NullFloat64
		var reason sql.NullString
		var raw []byte
		if err := rows.Scan(&e.SessionID, &e.StartedAt, &completedAt, &theta, &se,
			&e.ItemsCompleted, &reason, &raw); err != nil {
			return nil, models.WrapError(models.KindPersistenceUnavailable, "scan history row", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		if theta.Valid {
			v := theta.Float64
			e.FinalTheta = &v
			if prevTheta != nil {
				d := v - *prevTheta
				e.ThetaDelta = &d
			}
			prevTheta = &v
		}
		if se.Valid {
			v := se.Float64
			e.FinalSE = &v
		}
		if reason.Valid {
			e.TerminationReason = models.TerminationReason(reason.String)
		}
		if len(raw) > 0 {
			var report models.Report
			if json.Unmarshal(raw, &report) == nil && report.CEFR != "" {
				cefr := report.CEFR
				e.CEFR = &cefr
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapError(models.KindPersistenceUnavailable, "iterate history", err)
	}

	// Newest first on the wire.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// SessionCount returns the number of archived sessions.
func (st *Store) SessionCount() (int, error) {
	if !st.Available() {
		return 0, models.NewError(models.KindPersistenceUnavailable, "no persistence backend configured")
	}
	var n int
	err := st.db.QueryRow(`SELECT COUNT(*) FROM test_sessions`).Scan(&n)
	if err != nil {
		return 0, models.WrapError(models.KindPersistenceUnavailable, "count sessions", err)
	}
	return n, nil
}

// ResponseObservations loads every archived (theta_before, is_correct,
// is_dont_know) observation per item for parameter recalibration.
func (st *Store) ResponseObservations() (map[int][]bank.ResponseObs, error) {
	if !st.Available() {
		return nil, models.NewError(models.KindPersistenceUnavailable, "no persistence backend configured")
	}
	rows, err := st.db.Query(
		`SELECT item_id, theta_before, is_correct, is_dont_know FROM responses`,
	)
	if err != nil {
		return nil, models.WrapError(models.KindPersistenceUnavailable, "load observations", err)
	}
	defer rows.Close()

	out := make(map[int][]bank.ResponseObs)
	for rows.Next() {
		var itemID int
		var theta float64
		var correct, dontKnow bool
		if err := rows.Scan(&itemID, &theta, &correct, &dontKnow); err != nil {
			return nil, models.WrapError(models.KindPersistenceUnavailable, "scan observation", err)
		}
		out[itemID] = append(out[itemID], bank.ResponseObs{
			Theta:   theta,
			Correct: correct && !dontKnow,
		})
	}
	return out, rows.Err()
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
