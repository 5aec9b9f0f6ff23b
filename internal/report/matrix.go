package report

import (
	"sort"

	"github.com/smilepat/vocab-cat-engine/internal/irt"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// classifyProbability maps a success probability to a knowledge state
// using the catalog thresholds.
func classifyProbability(p float64) models.KnowledgeState {
	for _, st := range models.KnowledgeStateCatalog {
		if p >= st.MinP && p < st.MaxP {
			return st.Key
		}
	}
	if p >= 1 {
		return models.StateMastered
	}
	return models.StateNotKnown
}

// goalBand is the next CEFR band above the current one; C1 stays C1.
func goalBand(current models.CEFRBand) models.CEFRBand {
	for i, band := range models.CEFROrder {
		if band == current && i+1 < len(models.CEFROrder) {
			return models.CEFROrder[i+1]
		}
	}
	return models.CEFROrder[len(models.CEFROrder)-1]
}

// KnowledgeMatrix projects a stratified sample of the bank onto the
// learner's current and goal ability levels. The goal theta is the
// midpoint of the next CEFR band; when that midpoint is no more than 0.1
// above theta, the goal is theta + 0.5 instead.
func (g *Generator) KnowledgeMatrix(rep *models.Report) *models.KnowledgeMatrix {
	theta := rep.Theta
	goal := goalBand(rep.CEFR)
	goalTheta := bandCenter(goal)
	if goalTheta <= theta+0.1 {
		goalTheta = theta + 0.5
	}

	sampled := g.sampleStratified(g.matrixSample)

	matrix := &models.KnowledgeMatrix{
		TotalSampled: len(sampled),
		CurrentTheta: round3(theta),
		GoalTheta:    round3(goalTheta),
		GoalCEFR:     goal,
		Summary:      models.MatrixSummary{Counts: emptyCounts()},
		GoalSummary:  models.MatrixSummary{Counts: emptyCounts()},
		States:       models.KnowledgeStateCatalog,
	}

	for _, it := range sampled {
		currentP := irt.Probability(theta, it.Discrimination, it.Difficulty, it.Guessing)
		goalP := irt.Probability(goalTheta, it.Discrimination, it.Difficulty, it.Guessing)
		currentState := classifyProbability(currentP)
		goalState := classifyProbability(goalP)

		matrix.Summary.Counts[currentState]++
		matrix.GoalSummary.Counts[goalState]++
		if currentState != goalState {
			matrix.GoalSummary.WordsChanged++
		}

		matrix.Words = append(matrix.Words, models.MatrixWord{
			Word:               it.Word,
			MeaningKo:          it.MeaningKo,
			CEFR:               it.CEFR,
			POS:                it.POS,
			FreqRank:           it.FreqRank,
			CurrentState:       currentState,
			CurrentProbability: round3(currentP),
			GoalState:          goalState,
			GoalProbability:    round3(goalP),
		})
	}
	matrix.Summary.Total = len(matrix.Words)
	matrix.GoalSummary.Total = len(matrix.Words)
	return matrix
}

func emptyCounts() map[models.KnowledgeState]int {
	counts := make(map[models.KnowledgeState]int, len(models.KnowledgeStateCatalog))
	for _, st := range models.KnowledgeStateCatalog {
		counts[st.Key] = 0
	}
	return counts
}

// sampleStratified draws up to n items stratified by CEFR band,
// proportional to band size with a floor of 5, spread evenly across each
// band's frequency range. The result is ordered by frequency rank.
func (g *Generator) sampleStratified(n int) []models.Item {
	items := g.bank.Items()
	byBand := make(map[models.CEFRBand][]models.Item)
	for _, it := range items {
		band := it.CEFR
		if !models.ValidCEFRBands[band] {
			band = models.CEFRB1
		}
		byBand[band] = append(byBand[band], it)
	}
	total := len(items)
	if total == 0 {
		return nil
	}

	var sampled []models.Item
	for _, band := range models.CEFROrder {
		pool := byBand[band]
		if len(pool) == 0 {
			continue
		}
		want := int(float64(len(pool)) / float64(total) * float64(n))
		if want < 5 {
			want = 5
		}
		if want > len(pool) {
			want = len(pool)
		}
		if remaining := n - len(sampled); want > remaining {
			want = remaining
		}
		if want <= 0 {
			continue
		}
		sort.Slice(pool, func(i, j int) bool { return pool[i].FreqRank < pool[j].FreqRank })
		step := float64(len(pool)) / float64(want)
		for i := 0; i < want; i++ {
			sampled = append(sampled, pool[int(float64(i)*step)])
		}
	}

	sort.Slice(sampled, func(i, j int) bool { return sampled[i].FreqRank < sampled[j].FreqRank })
	if len(sampled) > n {
		sampled = sampled[:n]
	}
	return sampled
}
