package enrich

import (
	"fmt"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

var questionTypeNames = map[models.QuestionType]string{
	models.TypeKoreanMean:  "Korean meaning choice",
	models.TypeEnglishDef:  "English definition choice",
	models.TypeSynonym:     "synonym choice",
	models.TypeAntonym:     "antonym choice",
	models.TypeCloze:       "fill-in-the-blank sentence",
	models.TypeCollocation: "collocation completion",
}

func systemPrompt() string {
	return `You write short explanations for Korean students learning English vocabulary.
Given a word, its Korean meaning, and the question the student just saw, write a
two-sentence explanation: the first sentence in Korean, the second in English.
Keep it concrete and tied to the correct answer. Output the explanation text only,
no preamble and no markdown.`
}

func userPrompt(it *models.Item, card *models.RenderedItem) string {
	return fmt.Sprintf(
		"Word: %s\nKorean meaning: %s\nQuestion type: %s\nStem: %s\nCorrect answer: %s",
		it.Word, it.MeaningKo, questionTypeNames[card.QuestionType], card.Stem, card.CorrectAnswer,
	)
}
