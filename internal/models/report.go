package models

// ── Dimensions ────────────────────────────────────────────

// Dimension is one of the five vocabulary-knowledge axes. Question types 1-6
// cover three of them; form and pragmatic await new question types.
type Dimension string

const (
	DimSemantic   Dimension = "semantic"
	DimContextual Dimension = "contextual"
	DimForm       Dimension = "form"
	DimRelational Dimension = "relational"
	DimPragmatic  Dimension = "pragmatic"
)

var DimensionOrder = []Dimension{
	DimSemantic, DimContextual, DimForm, DimRelational, DimPragmatic,
}

// TypeDimension maps question types to the dimension they probe.
var TypeDimension = map[QuestionType]Dimension{
	TypeKoreanMean:  DimSemantic,
	TypeEnglishDef:  DimSemantic,
	TypeSynonym:     DimRelational,
	TypeAntonym:     DimRelational,
	TypeCloze:       DimContextual,
	TypeCollocation: DimContextual,
}

type DimensionInfo struct {
	Key     Dimension `json:"dimension"`
	Label   string    `json:"label"`
	LabelKo string    `json:"label_ko"`
	Color   string    `json:"color"`
}

var DimensionCatalog = []DimensionInfo{
	{DimSemantic, "Semantic", "의미 이해", "#3b82f6"},
	{DimContextual, "Contextual", "문맥 사용", "#10b981"},
	{DimForm, "Form", "형태 변환", "#f59e0b"},
	{DimRelational, "Relational", "관계어", "#ef4444"},
	{DimPragmatic, "Pragmatic", "화용 맥락", "#8b5cf6"},
}

type DimensionScore struct {
	Dimension Dimension `json:"dimension"`
	Label     string    `json:"label"`
	LabelKo   string    `json:"label_ko"`
	Color     string    `json:"color"`
	Correct   int       `json:"correct"`
	Total     int       `json:"total"`
	Score     *int      `json:"score"`
}

// ── Report ────────────────────────────────────────────────

type TopicRate struct {
	Topic   string  `json:"topic"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

type CurriculumLevel string

const (
	LevelElementary CurriculumLevel = "elementary"
	LevelMiddle     CurriculumLevel = "middle"
	LevelHigh       CurriculumLevel = "high"
	LevelBeyondHigh CurriculumLevel = "beyond_high"
)

// Report is the full diagnostic payload for a terminal session.
type Report struct {
	SessionID         string               `json:"session_id"`
	Theta             float64              `json:"theta"`
	SE                float64              `json:"se"`
	Reliability       float64              `json:"reliability"`
	CEFR              CEFRBand             `json:"cefr"`
	CEFRProbabilities map[CEFRBand]float64 `json:"cefr_probabilities"`
	CurriculumLevel   CurriculumLevel      `json:"curriculum_level"`
	EstimatedVocab    int                  `json:"estimated_vocab_size"`
	Dimensions        []DimensionScore     `json:"dimensions"`
	TopicStrengths    []TopicRate          `json:"topic_strengths"`
	TopicWeaknesses   []TopicRate          `json:"topic_weaknesses"`
	OxfordCoverage    float64              `json:"oxford_core_coverage"`
	ItemsCompleted    int                  `json:"items_completed"`
	TotalCorrect      int                  `json:"total_correct"`
	DontKnowCount     int                  `json:"dont_know_count"`
	TerminationReason TerminationReason    `json:"termination_reason"`
	InsufficientData  bool                 `json:"insufficient_data,omitempty"`
}

// ── Study plan ────────────────────────────────────────────

type PlanPriority string

const (
	PriorityHigh   PlanPriority = "high"
	PriorityMedium PlanPriority = "medium"
	PriorityReview PlanPriority = "review"
)

type PlanExercise struct {
	Word         string       `json:"word"`
	QuestionType QuestionType `json:"question_type"`
	CEFR         CEFRBand     `json:"cefr"`
	Difficulty   float64      `json:"difficulty"`
}

type PlanRecommendation struct {
	Dimension Dimension      `json:"dimension"`
	Label     string         `json:"label"`
	LabelKo   string         `json:"label_ko"`
	Score     *int           `json:"score"`
	Priority  PlanPriority   `json:"priority"`
	TipKo     string         `json:"tip_ko"`
	TipEn     string         `json:"tip_en"`
	Exercises []PlanExercise `json:"exercises"`
}

type WeeklyFocus struct {
	Week          int         `json:"week"`
	Dimensions    []Dimension `json:"dimensions"`
	ExerciseCount int         `json:"exercise_count"`
	FocusKo       string      `json:"focus_ko"`
	FocusEn       string      `json:"focus_en"`
}

type StudyPlan struct {
	Recommendations []PlanRecommendation `json:"recommendations"`
	TotalExercises  int                  `json:"total_exercises"`
	WeakDimensions  []Dimension          `json:"weak_dimensions"`
	WeeklyPlan      []WeeklyFocus        `json:"weekly_plan"`
}

// ── Knowledge matrix ──────────────────────────────────────

type KnowledgeState string

const (
	StateNotKnown    KnowledgeState = "not_known"
	StateEmerging    KnowledgeState = "emerging"
	StateDeveloping  KnowledgeState = "developing"
	StateComfortable KnowledgeState = "comfortable"
	StateMastered    KnowledgeState = "mastered"
)

type KnowledgeStateInfo struct {
	Key     KnowledgeState `json:"key"`
	Label   string         `json:"label"`
	LabelKo string         `json:"label_ko"`
	Color   string         `json:"color"`
	MinP    float64        `json:"min_p"`
	MaxP    float64        `json:"max_p"`
}

var KnowledgeStateCatalog = []KnowledgeStateInfo{
	{StateNotKnown, "Not Known", "미학습", "#e2e8f0", 0.0, 0.25},
	{StateEmerging, "Emerging", "인식", "#93c5fd", 0.25, 0.5},
	{StateDeveloping, "Developing", "발전", "#86efac", 0.5, 0.7},
	{StateComfortable, "Comfortable", "익숙", "#fde047", 0.7, 0.85},
	{StateMastered, "Mastered", "완전 습득", "#fca5a5", 0.85, 1.01},
}

type MatrixWord struct {
	Word               string         `json:"word"`
	MeaningKo          string         `json:"meaning_ko"`
	CEFR               CEFRBand       `json:"cefr"`
	POS                PartOfSpeech   `json:"pos"`
	FreqRank           int            `json:"freq_rank"`
	CurrentState       KnowledgeState `json:"current_state"`
	CurrentProbability float64        `json:"current_probability"`
	GoalState          KnowledgeState `json:"goal_state"`
	GoalProbability    float64        `json:"goal_probability"`
}

type MatrixSummary struct {
	Counts       map[KnowledgeState]int `json:"counts"`
	Total        int                    `json:"total"`
	WordsChanged int                    `json:"words_changed,omitempty"`
}

type KnowledgeMatrix struct {
	Words        []MatrixWord         `json:"words"`
	TotalSampled int                  `json:"total_sampled"`
	CurrentTheta float64              `json:"current_theta"`
	GoalTheta    float64              `json:"goal_theta"`
	GoalCEFR     CEFRBand             `json:"goal_cefr"`
	Summary      MatrixSummary        `json:"summary"`
	GoalSummary  MatrixSummary        `json:"goal_summary"`
	States       []KnowledgeStateInfo `json:"states"`
}
