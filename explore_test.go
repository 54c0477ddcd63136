package anydqn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

type fixedScorer []float64

func (f fixedScorer) Scores(obs anyvec.Vector) []float64 {
	return f
}

func TestEpsilonSchedule(t *testing.T) {
	e := NewEpsilonGreedy(DefaultConfig(), rand.New(rand.NewSource(1)))
	if actual := e.Epsilon(0); math.Abs(actual-0.9) > 1e-12 {
		t.Errorf("expected 0.9 at step 0 but got %v", actual)
	}
	last := e.Epsilon(0)
	for step := 100; step < 300000; step += 100 {
		eps := e.Epsilon(step)
		if eps > last {
			t.Fatalf("epsilon increased at step %d: %v -> %v", step, last, eps)
		}
		if eps < 0.05 {
			t.Fatalf("epsilon %v below end value at step %d", eps, step)
		}
		last = eps
	}
	if math.Abs(last-0.05) > 1e-3 {
		t.Errorf("expected epsilon near 0.05 but got %v", last)
	}
	expected := 0.05 + 0.85*math.Exp(-1)
	if actual := e.Epsilon(30000); math.Abs(actual-expected) > 1e-12 {
		t.Errorf("expected %v after one time constant but got %v", expected, actual)
	}
}

func TestEpsilonGreedyExploit(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	e := &EpsilonGreedy{
		Start:      0,
		End:        0,
		Decay:      1,
		NumActions: 3,
		Rand:       rand.New(rand.NewSource(1)),
	}
	var steps int
	for i := 0; i < 100; i++ {
		action := e.Select(fixedScorer{1, 3, 2}, c.MakeVector(1), &steps)
		if action != 1 {
			t.Fatalf("expected greedy action 1 but got %d", action)
		}
	}
	if steps != 100 {
		t.Errorf("expected 100 steps but got %d", steps)
	}
	if e.LastEpsilon != 0 {
		t.Errorf("expected last epsilon 0 but got %v", e.LastEpsilon)
	}
}

func TestEpsilonGreedyExplore(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	e := &EpsilonGreedy{
		Start:      1,
		End:        1,
		Decay:      1,
		NumActions: 4,
		Rand:       rand.New(rand.NewSource(1)),
	}
	var steps int
	counts := make([]int, 4)
	for i := 0; i < 4000; i++ {
		counts[e.Select(fixedScorer{0, 0, 9, 0}, c.MakeVector(1), &steps)]++
	}
	for action, count := range counts {
		if count < 800 || count > 1200 {
			t.Errorf("action %d chosen %d times out of 4000", action, count)
		}
	}
}

func TestEpsilonGreedySteps(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	e := NewEpsilonGreedy(DefaultConfig(), rand.New(rand.NewSource(2)))
	steps := 30000
	e.Select(fixedScorer{1, 0, 0, 0}, c.MakeVector(1), &steps)
	if steps != 30001 {
		t.Errorf("expected 30001 steps but got %d", steps)
	}
	if math.Abs(e.LastEpsilon-e.Epsilon(30000)) > 1e-12 {
		t.Errorf("epsilon should come from the step count before the action")
	}
}
