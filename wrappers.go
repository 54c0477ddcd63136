package anydqn

import "github.com/unixpickle/anyvec"

// StepCapEnv wraps an Env and ends episodes early if they
// run for MaxSteps timesteps.
//
// Unlike a plain step limit, it also reports how many
// steps were taken, and the cap is inclusive: the
// MaxSteps-th step is the last one.
type StepCapEnv struct {
	Env
	MaxSteps int

	steps int
}

// Reset resets the environment.
func (s *StepCapEnv) Reset() (anyvec.Vector, error) {
	s.steps = 0
	return s.Env.Reset()
}

// Step takes a step in the environment.
func (s *StepCapEnv) Step(action int) (anyvec.Vector, float64, bool, error) {
	obs, rew, done, err := s.Env.Step(action)
	s.steps++
	if s.steps == s.MaxSteps {
		done = true
	}
	return obs, rew, done, err
}

// Steps returns the number of steps taken since the last
// reset.
func (s *StepCapEnv) Steps() int {
	return s.steps
}
