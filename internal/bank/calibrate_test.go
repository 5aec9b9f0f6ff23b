package bank

import (
	"math"
	"testing"

	"github.com/smilepat/vocab-cat-engine/internal/irt"
)

// simulateObs draws responses for an item at its true parameters from a
// deterministic sweep of learner abilities.
func simulateObs(trueA, trueB float64, n int) []ResponseObs {
	obs := make([]ResponseObs, 0, n)
	for i := 0; i < n; i++ {
		theta := -2.0 + 4.0*float64(i)/float64(n-1)
		p := irt.Probability(theta, trueA, trueB, 0)
		// Deterministic thresholding keeps the test reproducible while the
		// aggregate correct rate tracks the model.
		correct := float64(i%100)/100.0 < p
		obs = append(obs, ResponseObs{Theta: theta, Correct: correct})
	}
	return obs
}

func TestCalibrateMovesTowardData(t *testing.T) {
	items := fixtureItems(t)
	target := items[0]
	// Data generated from a difficulty 0.3 above the initialized value.
	trueB := target.Difficulty + 0.3
	obs := map[int][]ResponseObs{0: simulateObs(target.Discrimination, trueB, 400)}

	updated, summary := Calibrate(items, obs, 200)
	if summary.ItemsUpdated != 1 {
		t.Fatalf("ItemsUpdated = %d, want 1", summary.ItemsUpdated)
	}
	if updated[0].Difficulty <= target.Difficulty {
		t.Errorf("calibrated b=%f did not move toward data b=%f", updated[0].Difficulty, trueB)
	}
	if math.Abs(updated[0].Difficulty-target.Difficulty) > maxDeltaB+1e-9 {
		t.Errorf("accepted delta %f exceeds guard %f", updated[0].Difficulty-target.Difficulty, maxDeltaB)
	}
}

func TestCalibrateSkipsBelowThreshold(t *testing.T) {
	items := fixtureItems(t)
	obs := map[int][]ResponseObs{0: simulateObs(1.0, 0.0, 50)}
	updated, summary := Calibrate(items, obs, 200)
	if summary.ItemsConsidered != 0 {
		t.Errorf("ItemsConsidered = %d, want 0", summary.ItemsConsidered)
	}
	if updated[0].Difficulty != items[0].Difficulty {
		t.Errorf("item below threshold was modified")
	}
}

func TestCalibrateRejectsAnomalousJump(t *testing.T) {
	items := fixtureItems(t)
	// All-wrong data pulls b far up; the guard must retain the prior.
	obs := make([]ResponseObs, 300)
	for i := range obs {
		obs[i] = ResponseObs{Theta: 2.0, Correct: false}
	}
	updated, summary := Calibrate(items, map[int][]ResponseObs{0: obs}, 200)
	if summary.Anomalies != 1 {
		t.Errorf("Anomalies = %d, want 1", summary.Anomalies)
	}
	if updated[0].Difficulty != items[0].Difficulty || updated[0].Discrimination != items[0].Discrimination {
		t.Errorf("anomalous update was not discarded")
	}
}

func TestCalibrateLeavesOtherItemsUntouched(t *testing.T) {
	items := fixtureItems(t)
	obs := map[int][]ResponseObs{0: simulateObs(1.0, 0.5, 400)}
	updated, _ := Calibrate(items, obs, 200)
	for i := 1; i < len(items); i++ {
		if updated[i].Difficulty != items[i].Difficulty {
			t.Fatalf("item %d modified without observations", i)
		}
	}
}
