package learning

import (
	"math/rand"
	"sort"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// stageDistribution is a question-type probability table for one learning
// stage. Probabilities sum to 1.
type stageDistribution map[models.QuestionType]float64

// goalDistributions drives card-type selection per goal and stage. Higher
// goals lean harder on relational and contextual types as words mature.
var goalDistributions = map[models.GoalID]map[models.LearningStage]stageDistribution{
	models.GoalElementary: {
		models.StageFirstExposure: {models.TypeKoreanMean: 0.60, models.TypeSynonym: 0.20, models.TypeCloze: 0.20},
		models.StageReview:        {models.TypeKoreanMean: 0.40, models.TypeSynonym: 0.30, models.TypeAntonym: 0.20, models.TypeCloze: 0.10},
		models.StageMasteryCheck:  {models.TypeSynonym: 0.40, models.TypeAntonym: 0.30, models.TypeCloze: 0.30},
	},
	models.GoalMiddle: {
		models.StageFirstExposure: {models.TypeKoreanMean: 0.40, models.TypeSynonym: 0.30, models.TypeCloze: 0.20, models.TypeCollocation: 0.10},
		models.StageReview:        {models.TypeKoreanMean: 0.30, models.TypeSynonym: 0.25, models.TypeAntonym: 0.20, models.TypeCloze: 0.15, models.TypeCollocation: 0.10},
		models.StageMasteryCheck:  {models.TypeEnglishDef: 0.20, models.TypeSynonym: 0.20, models.TypeAntonym: 0.20, models.TypeCloze: 0.20, models.TypeCollocation: 0.20},
	},
	models.GoalHigh: {
		models.StageFirstExposure: {models.TypeKoreanMean: 0.30, models.TypeSynonym: 0.30, models.TypeCloze: 0.30, models.TypeCollocation: 0.10},
		models.StageReview:        {models.TypeKoreanMean: 0.20, models.TypeEnglishDef: 0.20, models.TypeSynonym: 0.20, models.TypeAntonym: 0.20, models.TypeCloze: 0.20},
		models.StageMasteryCheck:  {models.TypeEnglishDef: 0.25, models.TypeSynonym: 0.15, models.TypeAntonym: 0.15, models.TypeCloze: 0.25, models.TypeCollocation: 0.20},
	},
	models.GoalCSAT: {
		models.StageFirstExposure: {models.TypeKoreanMean: 0.30, models.TypeEnglishDef: 0.10, models.TypeSynonym: 0.20, models.TypeCloze: 0.30, models.TypeCollocation: 0.10},
		models.StageReview:        {models.TypeKoreanMean: 0.20, models.TypeEnglishDef: 0.20, models.TypeSynonym: 0.20, models.TypeAntonym: 0.20, models.TypeCloze: 0.20},
		models.StageMasteryCheck:  {models.TypeEnglishDef: 0.30, models.TypeSynonym: 0.10, models.TypeAntonym: 0.10, models.TypeCloze: 0.30, models.TypeCollocation: 0.20},
	},
}

// descending returns the distribution's types ordered by probability
// descending, type ascending for ties. Used for the fallback chain.
func (d stageDistribution) descending() []models.QuestionType {
	types := make([]models.QuestionType, 0, len(d))
	for qt := range d {
		types = append(types, qt)
	}
	sort.Slice(types, func(i, j int) bool {
		if d[types[i]] != d[types[j]] {
			return d[types[i]] > d[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}

// sample draws a question type from the distribution. If the item does
// not support the drawn type, it walks the remaining types by descending
// probability and settles on the first supported one.
func (d stageDistribution) sample(rng *rand.Rand, it *models.Item) models.QuestionType {
	ordered := d.descending()

	r := rng.Float64()
	cum := 0.0
	drawn := ordered[len(ordered)-1]
	for _, qt := range ordered {
		cum += d[qt]
		if r < cum {
			drawn = qt
			break
		}
	}
	if it.Supports(drawn) {
		return drawn
	}
	for _, qt := range ordered {
		if qt != drawn && it.Supports(qt) {
			return qt
		}
	}
	return models.TypeKoreanMean
}

// distributionFor resolves the table for a goal and stage, defaulting to
// the elementary tables for unknown goals.
func distributionFor(goal models.GoalID, stage models.LearningStage) stageDistribution {
	stages, ok := goalDistributions[goal]
	if !ok {
		stages = goalDistributions[models.GoalElementary]
	}
	return stages[stage]
}
