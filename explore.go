package anydqn

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anyvec"
)

// EpsilonGreedy selects actions greedily with respect to
// a Scorer, except for a fraction of the time when it
// picks uniformly random actions.
//
// The exploration rate decays with the global step count.
type EpsilonGreedy struct {
	Start float64
	End   float64
	Decay float64

	NumActions int

	// Rand is the source of randomness.
	// If nil, the global source is used.
	Rand *rand.Rand

	// LastEpsilon is the exploration rate used for the
	// most recent call to Select.
	LastEpsilon float64
}

// NewEpsilonGreedy creates an EpsilonGreedy from the
// exploration schedule in cfg.
func NewEpsilonGreedy(cfg Config, r *rand.Rand) *EpsilonGreedy {
	return &EpsilonGreedy{
		Start:       cfg.EpsStart,
		End:         cfg.EpsEnd,
		Decay:       cfg.EpsDecay,
		NumActions:  cfg.NumActions,
		Rand:        r,
		LastEpsilon: cfg.EpsStart,
	}
}

// Epsilon computes the exploration rate after t steps.
func (e *EpsilonGreedy) Epsilon(t int) float64 {
	return e.End + (e.Start-e.End)*math.Exp(-float64(t)/e.Decay)
}

// Select chooses an action for the observation.
//
// The step counter determines the exploration rate and
// is incremented once per call.
func (e *EpsilonGreedy) Select(s Scorer, obs anyvec.Vector, steps *int) int {
	e.LastEpsilon = e.Epsilon(*steps)
	*steps++
	if e.uniform() > e.LastEpsilon {
		return Greedy(s.Scores(obs))
	}
	return e.intn(e.NumActions)
}

func (e *EpsilonGreedy) uniform() float64 {
	if e.Rand == nil {
		return rand.Float64()
	}
	return e.Rand.Float64()
}

func (e *EpsilonGreedy) intn(n int) int {
	if e.Rand == nil {
		return rand.Intn(n)
	}
	return e.Rand.Intn(n)
}
