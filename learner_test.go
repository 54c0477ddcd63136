package anydqn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestLearnerInsufficientData(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	learner := testLearner(c, 2)
	learner.Buffer.Store(testTransition(c, 0, 1))

	before := paramData(learner.Policy)
	loss, learned, err := learner.Learn()
	if err != nil {
		t.Fatal(err)
	}
	if learned || loss != 0 {
		t.Errorf("expected no-op but got learned=%v loss=%v", learned, loss)
	}
	if !scoresClose(before, paramData(learner.Policy)) {
		t.Error("parameters changed without learning")
	}
	if learner.Updates != 0 {
		t.Error("optimizer stepped without learning")
	}
	if data, err := learner.SaveOptimizer(); err != nil || len(data) != 0 {
		t.Errorf("expected no optimizer state but got %d bytes (%v)", len(data), err)
	}
}

func TestLearnerTargetAction(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	learner := testLearner(c, 1)
	learner.Gamma = 0.5
	setFC(c, learner.Policy, []float64{0, 0})
	setFC(c, learner.Target, []float64{1, 5})
	learner.Buffer.Store(testTransition(c, 0, 2))

	loss, learned, err := learner.Learn()
	if err != nil {
		t.Fatal(err)
	}
	if !learned {
		t.Fatal("expected a learning step")
	}
	// The target is evaluated at the stored action (Q=1),
	// not at the best next action (Q=5).
	expected := math.Pow(2+0.5*1, 2)
	if math.Abs(loss-expected) > 1e-8 {
		t.Errorf("expected loss %v but got %v", expected, loss)
	}
	if learner.Updates != 1 {
		t.Errorf("expected 1 update but got %d", learner.Updates)
	}
}

func TestLearnerReducesLoss(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	learner := testLearner(c, 4)
	learner.Gamma = 0
	learner.LearningRate = 1e-3
	for i := 0; i < 4; i++ {
		learner.Buffer.Store(testTransition(c, i%2, 10))
	}
	targetBefore := paramData(learner.Target)

	first, _, err := learner.Learn()
	if err != nil {
		t.Fatal(err)
	}
	var last float64
	for i := 0; i < 20; i++ {
		last, _, err = learner.Learn()
		if err != nil {
			t.Fatal(err)
		}
	}
	if last >= first {
		t.Errorf("loss did not decrease: %v -> %v", first, last)
	}
	if !scoresClose(targetBefore, paramData(learner.Target)) {
		t.Error("learning modified the target network")
	}
}

func TestLearnerRestoreOptimizer(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	learner := testLearner(c, 1)
	learner.LearningRate = 0.01
	learner.Buffer.Store(testTransition(c, 1, 3))
	for i := 0; i < 3; i++ {
		if _, _, err := learner.Learn(); err != nil {
			t.Fatal(err)
		}
	}
	data, err := learner.SaveOptimizer()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("empty optimizer state")
	}

	// A second learner with the same weights and the
	// restored optimizer must take the same step.
	other := testLearner(c, 1)
	other.LearningRate = learner.LearningRate
	other.Buffer.Store(testTransition(c, 1, 3))
	if err := other.Policy.SetParams(learner.Policy); err != nil {
		t.Fatal(err)
	}
	if err := other.Target.SetParams(learner.Target); err != nil {
		t.Fatal(err)
	}
	opt, err := other.decodeOptimizer(learner.Updates, data)
	if err != nil {
		t.Fatal(err)
	}
	other.Optimizer = opt

	fresh := testLearner(c, 1)
	fresh.LearningRate = learner.LearningRate
	fresh.Buffer.Store(testTransition(c, 1, 3))
	fresh.Policy.SetParams(learner.Policy)
	fresh.Target.SetParams(learner.Target)

	for _, l := range []*Learner{learner, other, fresh} {
		if _, _, err := l.Learn(); err != nil {
			t.Fatal(err)
		}
	}
	if !scoresClose(paramData(learner.Policy), paramData(other.Policy)) {
		t.Error("restored optimizer took a different step")
	}
	if scoresClose(paramData(learner.Policy), paramData(fresh.Policy)) {
		t.Error("fresh optimizer should not match the trained one")
	}

	if _, err := other.decodeOptimizer(1, []byte("garbage")); err == nil {
		t.Error("expected error for corrupt optimizer state")
	}
}

func testLearner(c anyvec.Creator, batch int) *Learner {
	cfg := DefaultConfig()
	cfg.BatchSize = batch
	cfg.NumActions = 2
	policy := testQNet(c)
	target, err := policy.Copy()
	if err != nil {
		panic(err)
	}
	buffer := NewReplayBuffer(100, rand.New(rand.NewSource(1)))
	return NewLearner(cfg, policy, target, buffer)
}

func testTransition(c anyvec.Creator, action int, reward float64) *Transition {
	return &Transition{
		State:     c.MakeVectorData([]float64{1, 0.5, -0.5, 0.25}),
		Action:    action,
		Reward:    reward,
		NextState: c.MakeVectorData([]float64{0.5, 1, 0, -1}),
	}
}

// setFC zeroes the weights of a single-layer network and
// sets its biases, making its output constant.
func setFC(c anyvec.Creator, q *QNet, biases []float64) {
	fc := q.Net[0].(*anynet.FC)
	fc.Weights.Vector.Scale(c.MakeNumeric(0))
	fc.Biases.Vector.SetData(c.MakeNumericList(biases))
}

func paramData(q *QNet) []float64 {
	var res []float64
	for _, p := range q.Parameters() {
		res = append(res, vectorFloats(p.Vector)...)
	}
	return res
}
