package anydqn

import (
	"testing"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

// counterEnv produces constant observations and a reward
// of 1 per step.
// It ends episodes after DoneAt steps, or never if DoneAt
// is 0.
type counterEnv struct {
	Creator anyvec.Creator
	ObsSize int
	DoneAt  int

	Resets  int
	Steps   int
	Actions []int
}

func (c *counterEnv) Reset() (anyvec.Vector, error) {
	c.Resets++
	c.Steps = 0
	return c.obs(), nil
}

func (c *counterEnv) Step(action int) (anyvec.Vector, float64, bool, error) {
	c.Steps++
	c.Actions = append(c.Actions, action)
	return c.obs(), 1, c.DoneAt > 0 && c.Steps >= c.DoneAt, nil
}

func (c *counterEnv) obs() anyvec.Vector {
	res := c.Creator.MakeVector(c.ObsSize)
	res.AddScalar(c.Creator.MakeNumeric(float64(c.Steps) / 10))
	return res
}

func TestStepCapEnv(t *testing.T) {
	inner := &counterEnv{Creator: anyvec64.DefaultCreator{}, ObsSize: 1}
	env := &StepCapEnv{Env: inner, MaxSteps: 3}
	for episode := 0; episode < 2; episode++ {
		if _, err := env.Reset(); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			_, _, done, err := env.Step(0)
			if err != nil {
				t.Fatal(err)
			}
			if done != (i == 2) {
				t.Errorf("episode %d step %d: unexpected done=%v", episode, i, done)
			}
		}
		if env.Steps() != 3 {
			t.Errorf("expected 3 steps but got %d", env.Steps())
		}
	}
}

func TestStepCapEnvEarlyDone(t *testing.T) {
	inner := &counterEnv{Creator: anyvec64.DefaultCreator{}, ObsSize: 1, DoneAt: 2}
	env := &StepCapEnv{Env: inner, MaxSteps: 5}
	env.Reset()
	env.Step(0)
	_, _, done, _ := env.Step(0)
	if !done {
		t.Error("inner done signal was dropped")
	}
}
