package irt

import (
	"math"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// EAP quadrature configuration. 41 equally spaced points over [-4, +4] with a
// standard-normal prior.
const (
	GridPoints = 41
	GridMin    = -4.0
	GridMax    = 4.0
)

const posteriorFloor = 1e-30

// Estimator maintains the discrete posterior over theta and produces EAP
// point estimates after each response. Not safe for concurrent use; each
// session serializes access through its own lock.
type Estimator struct {
	grid      []float64
	posterior []float64
	step      float64
}

// NewEstimator builds the quadrature grid and seeds the posterior with a
// N(0,1) prior, normalized to integrate to 1.
func NewEstimator() *Estimator {
	e := &Estimator{
		grid:      make([]float64, GridPoints),
		posterior: make([]float64, GridPoints),
		step:      (GridMax - GridMin) / float64(GridPoints-1),
	}
	for j := 0; j < GridPoints; j++ {
		theta := GridMin + float64(j)*e.step
		e.grid[j] = theta
		e.posterior[j] = math.Exp(-theta * theta / 2.0)
	}
	e.normalize()
	return e
}

func (e *Estimator) normalize() {
	mass := 0.0
	for _, g := range e.posterior {
		mass += g * e.step
	}
	if mass < posteriorFloor {
		// Degenerate posterior; fall back to the prior.
		for j, theta := range e.grid {
			e.posterior[j] = math.Exp(-theta * theta / 2.0)
		}
		mass = 0.0
		for _, g := range e.posterior {
			mass += g * e.step
		}
	}
	for j := range e.posterior {
		e.posterior[j] /= mass
	}
}

// Update multiplies the posterior by the response likelihood and renormalizes.
func (e *Estimator) Update(correct bool, a, b, c float64) {
	for j, theta := range e.grid {
		p := Probability(theta, a, b, c)
		if correct {
			e.posterior[j] *= p
		} else {
			e.posterior[j] *= 1.0 - p
		}
	}
	e.normalize()
}

// Theta returns the posterior mean.
func (e *Estimator) Theta() float64 {
	mean := 0.0
	for j, theta := range e.grid {
		mean += theta * e.posterior[j] * e.step
	}
	return mean
}

// SE returns the posterior standard deviation.
func (e *Estimator) SE() float64 {
	mean := e.Theta()
	variance := 0.0
	for j, theta := range e.grid {
		d := theta - mean
		variance += d * d * e.posterior[j] * e.step
	}
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// PosteriorMass integrates the posterior; 1 within tolerance when healthy.
func (e *Estimator) PosteriorMass() float64 {
	mass := 0.0
	for _, g := range e.posterior {
		mass += g * e.step
	}
	return mass
}

// Reliability is 1 - SE^2, floored at 0.
func Reliability(se float64) float64 {
	r := 1.0 - se*se
	if r < 0 {
		return 0
	}
	return r
}

// Replay rebuilds an estimator from a persisted response trace. Records whose
// item parameters cannot be resolved are skipped.
func Replay(records []models.ResponseRecord, params func(itemID int) (ItemParams, bool)) *Estimator {
	e := NewEstimator()
	for _, r := range records {
		p, ok := params(r.ItemID)
		if !ok {
			continue
		}
		correct := r.IsCorrect && !r.IsDontKnow
		e.Update(correct, p.A, p.B+models.TypeBOffset[r.QuestionType], p.C)
	}
	return e
}
