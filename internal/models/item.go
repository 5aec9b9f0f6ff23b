package models

// ── Question types ────────────────────────────────────────

// QuestionType identifies one of the six rendering modes for a vocabulary
// item. Type 0 is the mixed mode marker on test sessions, never on items.
type QuestionType int

const (
	TypeMixed        QuestionType = 0
	TypeKoreanMean   QuestionType = 1
	TypeEnglishDef   QuestionType = 2
	TypeSynonym      QuestionType = 3
	TypeAntonym      QuestionType = 4
	TypeCloze        QuestionType = 5
	TypeCollocation  QuestionType = 6
)

var ValidQuestionTypes = map[QuestionType]bool{
	TypeKoreanMean:  true,
	TypeEnglishDef:  true,
	TypeSynonym:     true,
	TypeAntonym:     true,
	TypeCloze:       true,
	TypeCollocation: true,
}

// TypeBOffset is the per-type difficulty offset applied to an item's b at
// render and selection time, never stored on the item.
var TypeBOffset = map[QuestionType]float64{
	TypeKoreanMean:  0.0,
	TypeEnglishDef:  0.6,
	TypeSynonym:     0.2,
	TypeAntonym:     0.3,
	TypeCloze:       0.5,
	TypeCollocation: 0.2,
}

// Guessing parameter per rendering mode. Four-option MCQ vs binary judgment.
const (
	GuessingFourOption = 0.20
	GuessingBinary     = 0.40
)

// ── CEFR / curriculum / POS ───────────────────────────────

type CEFRBand string

const (
	CEFRA1 CEFRBand = "A1"
	CEFRA2 CEFRBand = "A2"
	CEFRB1 CEFRBand = "B1"
	CEFRB2 CEFRBand = "B2"
	CEFRC1 CEFRBand = "C1"
)

// CEFROrder lists bands lowest first. Index is the band's ordinal.
var CEFROrder = []CEFRBand{CEFRA1, CEFRA2, CEFRB1, CEFRB2, CEFRC1}

var ValidCEFRBands = map[CEFRBand]bool{
	CEFRA1: true, CEFRA2: true, CEFRB1: true, CEFRB2: true, CEFRC1: true,
}

type CurriculumBand string

const (
	CurriculumElementary CurriculumBand = "elementary"
	CurriculumMiddle     CurriculumBand = "middle"
	CurriculumHigh       CurriculumBand = "high"
	CurriculumCSAT       CurriculumBand = "csat"
)

var ValidCurriculumBands = map[CurriculumBand]bool{
	CurriculumElementary: true,
	CurriculumMiddle:     true,
	CurriculumHigh:       true,
	CurriculumCSAT:       true,
}

type PartOfSpeech string

const (
	POSNoun      PartOfSpeech = "noun"
	POSVerb      PartOfSpeech = "verb"
	POSAdjective PartOfSpeech = "adjective"
	POSAdverb    PartOfSpeech = "adverb"
	POSOther     PartOfSpeech = "other"
)

// NormalizePOS folds raw metadata tags into the five tracked classes.
func NormalizePOS(raw string) PartOfSpeech {
	switch raw {
	case "noun", "n", "n.":
		return POSNoun
	case "verb", "v", "v.":
		return POSVerb
	case "adjective", "adj", "adj.":
		return POSAdjective
	case "adverb", "adv", "adv.":
		return POSAdverb
	default:
		return POSOther
	}
}

// ── Item ──────────────────────────────────────────────────

// Item is an immutable bank entry. IRT parameters are set once by the
// initializer and replaced only by a calibration publish.
type Item struct {
	ID             int            `json:"item_id"`
	Word           string         `json:"word"`
	MeaningKo      string         `json:"meaning_ko"`
	DefinitionEn   string         `json:"definition_en,omitempty"`
	POS            PartOfSpeech   `json:"pos"`
	Topic          string         `json:"topic"`
	CEFR           CEFRBand       `json:"cefr"`
	Curriculum     CurriculumBand `json:"curriculum"`
	FreqRank       int            `json:"freq_rank"`
	Discrimination float64        `json:"a"`
	Difficulty     float64        `json:"b"`
	Guessing       float64        `json:"c"`
	IsLoanword     bool           `json:"is_loanword"`
	OxfordCore     bool           `json:"oxford_core"`

	// Renderable metadata. Empty slices mean the capability is absent.
	Synonyms     []string `json:"synonyms,omitempty"`
	Antonyms     []string `json:"antonyms,omitempty"`
	Sentences    []string `json:"sentences,omitempty"`
	Collocations []string `json:"collocations,omitempty"`

	// Graph edges resolved to item ids (siblings share a hypernym).
	SynonymIDs []int `json:"-"`
	AntonymIDs []int `json:"-"`
	SiblingIDs []int `json:"-"`
}

// Supports reports whether the item can be rendered under a question type.
func (it *Item) Supports(qt QuestionType) bool {
	switch qt {
	case TypeKoreanMean:
		return it.MeaningKo != ""
	case TypeEnglishDef:
		return it.DefinitionEn != "" || it.MeaningKo != ""
	case TypeSynonym:
		return len(it.Synonyms) > 0
	case TypeAntonym:
		return len(it.Antonyms) > 0
	case TypeCloze:
		return len(it.Sentences) > 0
	case TypeCollocation:
		return len(it.Collocations) > 0
	default:
		return false
	}
}

// SupportedTypes returns the renderable types in ascending order.
func (it *Item) SupportedTypes() []QuestionType {
	var out []QuestionType
	for qt := TypeKoreanMean; qt <= TypeCollocation; qt++ {
		if it.Supports(qt) {
			out = append(out, qt)
		}
	}
	return out
}

// EffectiveB is the item difficulty under a question type.
func (it *Item) EffectiveB(qt QuestionType) float64 {
	return it.Difficulty + TypeBOffset[qt]
}

// LoanwordDiscriminationFactor discounts a for loanwords on meaning-recall
// types, where the answer is transparent from the word form.
const LoanwordDiscriminationFactor = 0.5

// EffectiveA is the item discrimination under a question type.
func (it *Item) EffectiveA(qt QuestionType) float64 {
	if it.IsLoanword && (qt == TypeKoreanMean || qt == TypeEnglishDef) {
		return it.Discrimination * LoanwordDiscriminationFactor
	}
	return it.Discrimination
}

// ── Rendered item ─────────────────────────────────────────

// RenderedItem is an item projected into a concrete question. Regenerated on
// demand; identical output for identical (item id, seed).
type RenderedItem struct {
	ItemID        int          `json:"item_id"`
	Word          string       `json:"word"`
	QuestionType  QuestionType `json:"question_type"`
	Stem          string       `json:"stem"`
	CorrectAnswer string       `json:"correct_answer"`
	Distractors   []string     `json:"distractors"`
	Options       []string     `json:"options"`
	POS           PartOfSpeech `json:"pos"`
	CEFR          CEFRBand     `json:"cefr"`
	Explanation   string       `json:"explanation,omitempty"`
	EffectiveB    float64      `json:"-"`
}
