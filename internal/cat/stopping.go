package cat

import "github.com/smilepat/vocab-cat-engine/internal/models"

// Stopping rule thresholds.
const (
	MinItems             = 15
	MaxItems             = 40
	SEThreshold          = 0.30
	ConvergenceWindow    = 5
	ConvergenceItemFloor = 20
	ConvergenceEpsilon   = 0.05
)

// StoppingEngine evaluates termination after every response.
type StoppingEngine struct{}

// Evaluate returns the termination reason, or ReasonNone to continue. Pool
// exhaustion is decided by the selector, not here. Below the item floor the
// test never stops.
func (StoppingEngine) Evaluate(s *Session) models.TerminationReason {
	n := s.ItemsCompleted()
	if n >= MaxItems {
		return models.ReasonMaxItems
	}
	if n < MinItems {
		return models.ReasonNone
	}
	if s.SE() < SEThreshold {
		return models.ReasonSEThreshold
	}
	if n >= ConvergenceItemFloor {
		deltas := s.ThetaDeltas(ConvergenceWindow)
		if len(deltas) == ConvergenceWindow {
			converged := true
			for _, d := range deltas {
				if d >= ConvergenceEpsilon {
					converged = false
					break
				}
			}
			if converged {
				return models.ReasonConverged
			}
		}
	}
	return models.ReasonNone
}
