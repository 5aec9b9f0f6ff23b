package report

import (
	"math"
	"sort"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

const (
	focusThreshold    = 75 // score below this earns a recommendation
	reviewThreshold   = 60
	priorityThreshold = 40
)

// dimensionTypes inverts the type->dimension mapping. Dimensions with no
// probing question type (form, pragmatic) produce no exercises.
var dimensionTypes = func() map[models.Dimension][]models.QuestionType {
	m := make(map[models.Dimension][]models.QuestionType)
	for qt, dim := range models.TypeDimension {
		m[dim] = append(m[dim], qt)
	}
	for _, types := range m {
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	}
	return m
}()

var dimensionTips = map[models.Dimension][2]string{
	models.DimSemantic: {
		"단어의 정확한 의미와 유사 단어 간 미묘한 차이에 집중하세요.",
		"Focus on exact meanings and subtle differences between similar words.",
	},
	models.DimContextual: {
		"문장 속에서 단어를 사용하는 연습을 하세요. 연어(함께 쓰이는 단어)에 주의하세요.",
		"Practice using words in sentences. Pay attention to collocations.",
	},
	models.DimForm: {
		"단어 가족을 공부하세요: 같은 어근에서 파생된 명사, 동사, 형용사를 함께 학습하세요.",
		"Study word families: learn nouns, verbs, adjectives from the same root together.",
	},
	models.DimRelational: {
		"동의어, 반의어, 관련 단어를 함께 학습하여 어휘 네트워크를 확장하세요.",
		"Build your word network by learning synonyms, antonyms, and related words together.",
	},
	models.DimPragmatic: {
		"격식체와 비격식체 단어를 구분하는 연습을 하세요.",
		"Notice when words are formal vs. informal.",
	},
}

// StudyPlan turns a diagnostic report into targeted practice. Every
// dimension scoring below the focus threshold (or lacking a score while
// still being measurable) gets a recommendation with exercises drawn
// from bank items slightly above the learner's level.
func (g *Generator) StudyPlan(rep *models.Report) *models.StudyPlan {
	targetB := rep.Theta + 0.2

	var weak []models.DimensionScore
	for _, ds := range rep.Dimensions {
		if len(dimensionTypes[ds.Dimension]) == 0 {
			continue
		}
		if ds.Score == nil || *ds.Score < focusThreshold {
			weak = append(weak, ds)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		return scoreOrNil(weak[i].Score) < scoreOrNil(weak[j].Score)
	})

	plan := &models.StudyPlan{}
	for _, ds := range weak {
		priority, count := planPriority(ds.Score)
		tip := dimensionTips[ds.Dimension]
		rec := models.PlanRecommendation{
			Dimension: ds.Dimension,
			Label:     ds.Label,
			LabelKo:   ds.LabelKo,
			Score:     ds.Score,
			Priority:  priority,
			TipKo:     tip[0],
			TipEn:     tip[1],
			Exercises: g.exercises(ds.Dimension, targetB, count),
		}
		plan.Recommendations = append(plan.Recommendations, rec)
		plan.WeakDimensions = append(plan.WeakDimensions, ds.Dimension)
		plan.TotalExercises += len(rec.Exercises)
	}
	plan.WeeklyPlan = buildWeeklyPlan(plan.Recommendations)
	return plan
}

// scoreOrNil orders unmeasured dimensions after measured ones.
func scoreOrNil(s *int) int {
	if s == nil {
		return focusThreshold
	}
	return *s
}

func planPriority(score *int) (models.PlanPriority, int) {
	switch {
	case score == nil:
		return models.PriorityMedium, 4
	case *score < priorityThreshold:
		return models.PriorityHigh, 5
	case *score < reviewThreshold:
		return models.PriorityMedium, 4
	default:
		return models.PriorityReview, 3
	}
}

// exercises picks the items closest in difficulty to targetB that can be
// rendered under one of the dimension's question types.
func (g *Generator) exercises(dim models.Dimension, targetB float64, count int) []models.PlanExercise {
	types := dimensionTypes[dim]
	if len(types) == 0 {
		return nil
	}

	type candidate struct {
		id   int
		dist float64
	}
	items := g.bank.Items()
	var pool []candidate
	for i := range items {
		it := &items[i]
		for _, qt := range types {
			if it.Supports(qt) {
				pool = append(pool, candidate{it.ID, math.Abs(it.Difficulty - targetB)})
				break
			}
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].dist != pool[j].dist {
			return pool[i].dist < pool[j].dist
		}
		return pool[i].id < pool[j].id
	})

	var out []models.PlanExercise
	for _, c := range pool {
		if len(out) >= count {
			break
		}
		it, ok := g.bank.Get(c.id)
		if !ok {
			continue
		}
		qt := types[0]
		for _, t := range types {
			if it.Supports(t) {
				qt = t
				break
			}
		}
		out = append(out, models.PlanExercise{
			Word:         it.Word,
			QuestionType: qt,
			CEFR:         it.CEFR,
			Difficulty:   round3(it.Difficulty),
		})
	}
	return out
}

// buildWeeklyPlan lays recommendations out over a 4-week cycle: weak
// dimensions first, reinforcement mid-cycle, full review before retest.
func buildWeeklyPlan(recs []models.PlanRecommendation) []models.WeeklyFocus {
	if len(recs) == 0 {
		return nil
	}

	byPriority := func(p models.PlanPriority) []models.Dimension {
		var dims []models.Dimension
		for _, r := range recs {
			if r.Priority == p {
				dims = append(dims, r.Dimension)
			}
		}
		return dims
	}
	high := byPriority(models.PriorityHigh)
	medium := byPriority(models.PriorityMedium)
	review := byPriority(models.PriorityReview)

	var weeks []models.WeeklyFocus

	w1 := firstNonEmpty(high, medium, review)
	weeks = append(weeks, models.WeeklyFocus{
		Week: 1, Dimensions: w1[:1], ExerciseCount: 5,
		FocusKo: "약점 차원 집중 학습",
		FocusEn: "Focus on weakest dimension",
	})

	w2 := w1[:1]
	focusKo, focusEn := "지속 연습", "Continue practice"
	if len(high) > 1 {
		w2 = high[1:]
		focusKo, focusEn = "약점 보강 학습", "Reinforce weak areas"
	} else if len(w1) == len(high) && len(medium) > 0 {
		w2 = medium[:1]
		focusKo, focusEn = "약점 보강 학습", "Reinforce weak areas"
	}
	weeks = append(weeks, models.WeeklyFocus{
		Week: 2, Dimensions: w2, ExerciseCount: 5,
		FocusKo: focusKo, FocusEn: focusEn,
	})

	w3 := firstNonEmpty(medium, review, high)
	if len(w3) > 2 {
		w3 = w3[:2]
	}
	weeks = append(weeks, models.WeeklyFocus{
		Week: 3, Dimensions: w3, ExerciseCount: 4,
		FocusKo: "중간 영역 보강",
		FocusEn: "Strengthen moderate areas",
	})

	all := make([]models.Dimension, 0, 3)
	for _, r := range recs {
		if len(all) == 3 {
			break
		}
		all = append(all, r.Dimension)
	}
	weeks = append(weeks, models.WeeklyFocus{
		Week: 4, Dimensions: all, ExerciseCount: 3,
		FocusKo: "종합 복습 + 재테스트",
		FocusEn: "Comprehensive review + retest",
	})
	return weeks
}

func firstNonEmpty(lists ...[]models.Dimension) []models.Dimension {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}
