package learning

import (
	"math"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

const (
	// RatingForgot through RatingEasy are the learner self-ratings.
	RatingForgot = 0
	RatingHard   = 1
	RatingGood   = 2
	RatingEasy   = 3

	defaultEaseFactor = 2.5
	minEaseFactor     = 1.3

	masteryReviewFloor   = 5
	masteryAccuracyFloor = 0.80
	masteryIntervalFloor = 7
)

// nextInterval applies the SM-2 update for one self-rating. reviewCount
// is the count before this review; a Good/Easy rating on a fresh word
// starts the schedule at 1 or 4 days instead of multiplying.
func nextInterval(intervalDays int, ease float64, reviewCount, rating int) (int, float64) {
	switch rating {
	case RatingForgot:
		return 0, math.Max(minEaseFactor, ease-0.20)
	case RatingHard:
		days := int(math.Round(float64(intervalDays) * 1.2))
		if days < 1 {
			days = 1
		}
		return days, math.Max(minEaseFactor, ease-0.15)
	case RatingGood:
		if reviewCount == 0 {
			return 1, ease
		}
		return int(math.Round(float64(intervalDays) * ease)), ease
	default:
		if reviewCount == 0 {
			return 4, ease + 0.15
		}
		return int(math.Round(float64(intervalDays) * ease * 1.3)), ease + 0.15
	}
}

// applyRating records one review on the word: SM-2 scheduling, counters,
// assessment history, and the mastery transition. Returns true when this
// review mastered the word.
func applyRating(w *models.LearnedWord, rating int, correct bool, now time.Time) bool {
	interval, ease := nextInterval(w.IntervalDays, w.EaseFactor, w.ReviewCount, rating)
	w.IntervalDays = interval
	w.EaseFactor = ease
	w.NextReviewAt = now.Add(time.Duration(interval) * 24 * time.Hour)
	w.LastReviewedAt = now

	w.ReviewCount++
	if rating >= RatingGood {
		w.CorrectCount++
	}
	w.History = append(w.History, models.Assessment{
		Timestamp:  now,
		SelfRating: rating,
		IsCorrect:  correct,
	})

	if w.IsMastered {
		return false
	}
	if w.ReviewCount >= masteryReviewFloor &&
		w.Accuracy() >= masteryAccuracyFloor &&
		w.IntervalDays >= masteryIntervalFloor {
		w.IsMastered = true
		t := now
		w.MasteredAt = &t
		return true
	}
	return false
}
