package learning

import (
	"math"
	"testing"
	"time"
)

func TestNextInterval(t *testing.T) {
	tests := []struct {
		name        string
		interval    int
		ease        float64
		reviewCount int
		rating      int
		wantDays    int
		wantEase    float64
	}{
		{"forgot resets", 10, 2.5, 3, RatingForgot, 0, 2.3},
		{"forgot ease floor", 10, 1.4, 3, RatingForgot, 0, 1.3},
		{"hard grows slowly", 10, 2.5, 3, RatingHard, 12, 2.35},
		{"hard minimum one day", 0, 2.5, 1, RatingHard, 1, 2.35},
		{"hard ease floor", 5, 1.35, 2, RatingHard, 6, 1.3},
		{"good first review", 0, 2.5, 0, RatingGood, 1, 2.5},
		{"good multiplies", 6, 2.5, 2, RatingGood, 15, 2.5},
		{"easy first review", 0, 2.5, 0, RatingEasy, 4, 2.65},
		{"easy multiplies", 6, 2.5, 2, RatingEasy, 20, 2.65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, ease := nextInterval(tt.interval, tt.ease, tt.reviewCount, tt.rating)
			if days != tt.wantDays {
				t.Errorf("interval = %d, want %d", days, tt.wantDays)
			}
			if math.Abs(ease-tt.wantEase) > 1e-9 {
				t.Errorf("ease = %v, want %v", ease, tt.wantEase)
			}
		})
	}
}

func TestApplyRatingCounters(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := fixtureWord("word000", 0)

	applyRating(w, RatingForgot, false, now)
	if w.ReviewCount != 1 || w.CorrectCount != 0 {
		t.Fatalf("after forgot: reviews=%d correct=%d", w.ReviewCount, w.CorrectCount)
	}
	applyRating(w, RatingHard, false, now)
	if w.CorrectCount != 0 {
		t.Fatalf("hard counted as correct")
	}
	applyRating(w, RatingGood, true, now)
	applyRating(w, RatingEasy, true, now)
	if w.ReviewCount != 4 || w.CorrectCount != 2 {
		t.Fatalf("reviews=%d correct=%d, want 4 and 2", w.ReviewCount, w.CorrectCount)
	}
	if len(w.History) != 4 {
		t.Fatalf("history length = %d, want 4", len(w.History))
	}
}

func TestApplyRatingSchedule(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := fixtureWord("word000", 0)

	applyRating(w, RatingGood, true, now)
	if w.IntervalDays != 1 {
		t.Fatalf("first good interval = %d, want 1", w.IntervalDays)
	}
	want := now.Add(24 * time.Hour)
	if !w.NextReviewAt.Equal(want) {
		t.Fatalf("next review = %v, want %v", w.NextReviewAt, want)
	}
	if !w.LastReviewedAt.Equal(now) {
		t.Fatalf("last reviewed = %v, want %v", w.LastReviewedAt, now)
	}
}

func TestMasteryProgression(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := fixtureWord("word000", 0)

	ratings := []int{RatingGood, RatingGood, RatingGood, RatingGood}
	for _, r := range ratings {
		if mastered := applyRating(w, r, true, now); mastered {
			t.Fatalf("mastered after %d reviews", w.ReviewCount)
		}
		now = w.NextReviewAt
	}
	// Fifth consecutive good review: 5 reviews, accuracy 1.0, interval past a week.
	if mastered := applyRating(w, RatingGood, true, now); !mastered {
		t.Fatalf("not mastered: reviews=%d accuracy=%v interval=%d",
			w.ReviewCount, w.Accuracy(), w.IntervalDays)
	}
	if !w.IsMastered || w.MasteredAt == nil {
		t.Fatalf("mastery state not recorded")
	}

	// Further reviews never re-report mastery.
	if mastered := applyRating(w, RatingEasy, true, w.NextReviewAt); mastered {
		t.Fatalf("mastery reported twice")
	}
}

func TestMasteryNeedsInterval(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w := fixtureWord("word000", 0)

	// Alternate forgot/good: accuracy stays at 0.5 and the interval keeps
	// resetting, so mastery never fires.
	for i := 0; i < 10; i++ {
		rating := RatingForgot
		if i%2 == 1 {
			rating = RatingGood
		}
		if mastered := applyRating(w, rating, rating == RatingGood, now); mastered {
			t.Fatalf("mastered with accuracy %v interval %d", w.Accuracy(), w.IntervalDays)
		}
		now = now.Add(24 * time.Hour)
	}
}
