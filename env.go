package anydqn

import "github.com/unixpickle/anyvec"

// Env is an instance of an RL environment with a discrete
// action space.
//
// Observations are flattened single-channel images whose
// size matches the input of the Q-network.
type Env interface {
	Reset() (observation anyvec.Vector, err error)
	Step(action int) (observation anyvec.Vector, reward float64,
		done bool, err error)
}
