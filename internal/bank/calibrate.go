package bank

import (
	"log"
	"math"

	"github.com/smilepat/vocab-cat-engine/internal/irt"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Calibration priors and guards. Updates outside the guard bounds are
// anomalies: logged, reported, and discarded.
const (
	DefaultCalibrationThreshold = 200

	priorSDb = 0.5
	priorSDa = 0.3

	maxDeltaB = 0.5
	maxDeltaA = 0.3
)

// ResponseObs is one archived response to an item: the learner's ability
// estimate at the time, and correctness.
type ResponseObs struct {
	Theta   float64
	Correct bool
}

// ItemCalibration reports one item's update.
type ItemCalibration struct {
	ItemID        int     `json:"item_id"`
	Word          string  `json:"word"`
	ResponseCount int     `json:"response_count"`
	OldB          float64 `json:"old_b"`
	NewB          float64 `json:"new_b"`
	OldA          float64 `json:"old_a"`
	NewA          float64 `json:"new_a"`
	Accepted      bool    `json:"accepted"`
	Anomalous     bool    `json:"anomalous"`
}

// CalibrationSummary aggregates a calibration run.
type CalibrationSummary struct {
	ItemsConsidered int               `json:"items_considered"`
	ItemsUpdated    int               `json:"items_updated"`
	Anomalies       int               `json:"anomalies"`
	Details         []ItemCalibration `json:"details"`
}

// negLogPosterior scores candidate (a, b) against observations with normal
// priors centered on the current parameters.
func negLogPosterior(a, b, priorA, priorB float64, obs []ResponseObs) float64 {
	nll := 0.0
	for _, o := range obs {
		p := irt.Probability(o.Theta, a, b, 0)
		p = math.Min(math.Max(p, 1e-10), 1-1e-10)
		if o.Correct {
			nll -= math.Log(p)
		} else {
			nll -= math.Log1p(-p)
		}
	}
	db := (b - priorB) / priorSDb
	da := (a - priorA) / priorSDa
	return nll + 0.5*db*db + 0.5*da*da
}

// minimizeB grid-searches b around the prior, holding a fixed.
func minimizeB(a, priorB float64, obs []ResponseObs) float64 {
	bestB, bestV := priorB, math.Inf(1)
	for b := priorB - 1.0; b <= priorB+1.0+1e-9; b += 0.01 {
		if v := negLogPosterior(a, b, a, priorB, obs); v < bestV {
			bestV, bestB = v, b
		}
	}
	return bestB
}

// minimizeA grid-searches a around the prior, holding b fixed.
func minimizeA(priorA, b, priorB float64, obs []ResponseObs) float64 {
	bestA, bestV := priorA, math.Inf(1)
	lo := math.Max(irt.MinDiscrimination, priorA-0.6)
	hi := math.Min(irt.MaxDiscrimination, priorA+0.6)
	for a := lo; a <= hi+1e-9; a += 0.01 {
		if v := negLogPosterior(a, b, priorA, priorB, obs); v < bestV {
			bestV, bestA = v, a
		}
	}
	return bestA
}

// Calibrate performs the Bayesian parameter update for every item with
// enough archived responses and returns the updated item set alongside the
// run summary. The caller publishes the returned items atomically.
func Calibrate(items []models.Item, observations map[int][]ResponseObs, threshold int) ([]models.Item, CalibrationSummary) {
	if threshold <= 0 {
		threshold = DefaultCalibrationThreshold
	}

	updated := make([]models.Item, len(items))
	copy(updated, items)

	var summary CalibrationSummary
	for id, obs := range observations {
		if id < 0 || id >= len(updated) || len(obs) < threshold {
			continue
		}
		it := &updated[id]
		summary.ItemsConsidered++

		newB := minimizeB(it.Discrimination, it.Difficulty, obs)
		newA := minimizeA(it.Discrimination, newB, it.Difficulty, obs)

		detail := ItemCalibration{
			ItemID:        id,
			Word:          it.Word,
			ResponseCount: len(obs),
			OldB:          it.Difficulty,
			NewB:          newB,
			OldA:          it.Discrimination,
			NewA:          newA,
		}

		if math.Abs(newB-it.Difficulty) > maxDeltaB || math.Abs(newA-it.Discrimination) > maxDeltaA {
			detail.Anomalous = true
			detail.NewB = it.Difficulty
			detail.NewA = it.Discrimination
			summary.Anomalies++
			log.Printf("[bank] calibration anomaly on item %d (%s): db=%.3f da=%.3f, retaining prior",
				id, it.Word, newB-it.Difficulty, newA-it.Discrimination)
		} else {
			it.Difficulty = newB
			it.Discrimination = newA
			detail.Accepted = true
			summary.ItemsUpdated++
		}
		summary.Details = append(summary.Details, detail)
	}
	return updated, summary
}
