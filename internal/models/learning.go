package models

import "time"

// ── Goals ─────────────────────────────────────────────────

type GoalID string

const (
	GoalElementary GoalID = "elementary"
	GoalMiddle     GoalID = "middle"
	GoalHigh       GoalID = "high"
	GoalCSAT       GoalID = "csat"
)

var ValidGoalIDs = map[GoalID]bool{
	GoalElementary: true,
	GoalMiddle:     true,
	GoalHigh:       true,
	GoalCSAT:       true,
}

// Curriculum maps a goal to the bank's curriculum band that forms its pool.
func (g GoalID) Curriculum() CurriculumBand {
	switch g {
	case GoalElementary:
		return CurriculumElementary
	case GoalMiddle:
		return CurriculumMiddle
	case GoalHigh:
		return CurriculumHigh
	default:
		return CurriculumCSAT
	}
}

// LearningStage describes the learner's standing with one word and picks the
// question-type distribution for the next card.
type LearningStage string

const (
	StageFirstExposure LearningStage = "first_exposure"
	StageReview        LearningStage = "review"
	StageMasteryCheck  LearningStage = "mastery_check"
)

// ── SM-2 state ────────────────────────────────────────────

type Assessment struct {
	Timestamp  time.Time `json:"timestamp"`
	SelfRating int       `json:"self_rating"`
	IsCorrect  bool      `json:"is_correct"`
}

// LearnedWord is the per-(session, word) spaced-repetition record.
type LearnedWord struct {
	ID             string       `json:"id"`
	SessionID      string       `json:"session_id"`
	Word           string       `json:"word"`
	ItemID         int          `json:"item_id"`
	ReviewCount    int          `json:"review_count"`
	CorrectCount   int          `json:"correct_count"`
	IntervalDays   int          `json:"interval_days"`
	EaseFactor     float64      `json:"ease_factor"`
	NextReviewAt   time.Time    `json:"next_review_at"`
	LastReviewedAt time.Time    `json:"last_reviewed_at"`
	IsMastered     bool         `json:"is_mastered"`
	MasteredAt     *time.Time   `json:"mastered_at,omitempty"`
	History        []Assessment `json:"assessment_history"`
	DVKLevel       int          `json:"dvk_level"`
}

// Accuracy is correct_count / review_count, 0 when unreviewed.
func (w *LearnedWord) Accuracy() float64 {
	if w.ReviewCount == 0 {
		return 0
	}
	return float64(w.CorrectCount) / float64(w.ReviewCount)
}

// Stage classifies the word for question-type distribution lookup.
func (w *LearnedWord) Stage() LearningStage {
	switch {
	case w.ReviewCount == 0:
		return StageFirstExposure
	case w.ReviewCount >= 5:
		return StageMasteryCheck
	default:
		return StageReview
	}
}

// ── API Request/Response Types ────────────────────────────

type StartGoalRequest struct {
	GoalID          GoalID `json:"goal_id"`
	GoalName        string `json:"goal_name"`
	TargetWordCount int    `json:"target_word_count"`
	Nickname        string `json:"nickname,omitempty"`
}

type StartGoalResponse struct {
	SessionID       string        `json:"session_id"`
	UserID          string        `json:"user_id"`
	GoalName        string        `json:"goal_name"`
	TargetWordCount int           `json:"target_word_count"`
	FirstCard       *RenderedItem `json:"first_card"`
}

type SubmitCardRequest struct {
	Word         string       `json:"word"`
	QuestionType QuestionType `json:"question_type"`
	SelfRating   int          `json:"self_rating"`
	IsCorrect    bool         `json:"is_correct"`
}

type GoalProgress struct {
	WordsStudied         int     `json:"words_studied"`
	WordsMastered        int     `json:"words_mastered"`
	TotalReviews         int     `json:"total_reviews"`
	TargetWordCount      int     `json:"target_word_count"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type SubmitCardResponse struct {
	NextCard        *RenderedItem `json:"next_card,omitempty"`
	SessionProgress GoalProgress  `json:"session_progress"`
	WordMastered    bool          `json:"word_mastered,omitempty"`
	IsComplete      bool          `json:"is_complete,omitempty"`
}
