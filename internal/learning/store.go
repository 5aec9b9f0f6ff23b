package learning

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

const (
	writeAttempts = 3
	backoffBase   = 100 * time.Millisecond
	backoffCap    = 1 * time.Second
)

// Store persists goal sessions and per-word spaced-repetition state. A
// nil *sql.DB degrades to in-memory operation: writes become no-ops.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (st *Store) Available() bool { return st != nil && st.db != nil }

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

// SaveSession upserts the goal session counters.
func (st *Store) SaveSession(s *Session) error {
	if !st.Available() {
		return nil
	}
	err := withRetry(func() error {
		_, err := st.db.Exec(
			`INSERT INTO goal_learning_sessions
			 (id, user_id, goal_id, goal_name, target_word_count,
			  words_studied, words_mastered, total_reviews, started_at, last_activity_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE SET
			   words_studied = $6, words_mastered = $7, total_reviews = $8,
			   last_activity_at = $10`,
			s.ID, s.UserID, string(s.GoalID), s.GoalName, s.TargetWordCount,
			s.WordsStudied, s.WordsMastered, s.TotalReviews, s.StartedAt, s.LastActivity,
		)
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.WrapError(models.KindPersistenceUnavailable, "save learning session", err)
	}
	return nil
}

// SaveWord upserts one learned-word record with its assessment history.
func (st *Store) SaveWord(sessionID string, w *models.LearnedWord) error {
	if !st.Available() {
		return nil
	}
	history, err := json.Marshal(w.History)
	if err != nil {
		return models.WrapError(models.KindInternal, "marshal assessment history", err)
	}
	err = withRetry(func() error {
		_, err := st.db.Exec(
			`INSERT INTO learned_words
			 (session_id, word, item_id, review_count, correct_count,
			  next_review_at, last_reviewed_at, ease_factor, interval_days,
			  is_mastered, mastered_at, assessment_history, dvk_level)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 ON CONFLICT (session_id, word) DO UPDATE SET
			   review_count = $4, correct_count = $5,
			   next_review_at = $6, last_reviewed_at = $7,
			   ease_factor = $8, interval_days = $9,
			   is_mastered = $10, mastered_at = $11,
			   assessment_history = $12, dvk_level = $13`,
			sessionID, w.Word, w.ItemID, w.ReviewCount, w.CorrectCount,
			w.NextReviewAt, w.LastReviewedAt, w.EaseFactor, w.IntervalDays,
			w.IsMastered, w.MasteredAt, history, w.DVKLevel,
		)
		if err != nil {
			return fmt.Errorf("save word %q: %w", w.Word, err)
		}
		return nil
	})
	if err != nil {
		return models.WrapError(models.KindPersistenceUnavailable, "save learned word", err)
	}
	return nil
}
