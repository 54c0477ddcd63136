package anydqn

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// A Learner trains a policy network on batches sampled
// from a replay buffer, bootstrapping from a target
// network.
type Learner struct {
	Policy *QNet
	Target *QNet
	Buffer *ReplayBuffer

	// Optimizer transforms raw gradients into steps.
	// Its Vars should be the policy's parameters.
	Optimizer *anysgd.Adam

	BatchSize    int
	Gamma        float64
	LearningRate float64

	// Updates is the number of optimizer steps taken.
	Updates int
}

// NewLearner creates a Learner with a fresh Adam optimizer
// over the policy's parameters.
func NewLearner(cfg Config, policy, target *QNet, buffer *ReplayBuffer) *Learner {
	return &Learner{
		Policy:       policy,
		Target:       target,
		Buffer:       buffer,
		Optimizer:    &anysgd.Adam{Vars: policy.Parameters()},
		BatchSize:    cfg.BatchSize,
		Gamma:        cfg.Gamma,
		LearningRate: cfg.LearningRate,
	}
}

// Learn performs one optimizer step on a sampled batch.
//
// If the buffer holds fewer than BatchSize transitions,
// nothing is changed and learned is false.
func (l *Learner) Learn() (loss float64, learned bool, err error) {
	batch, err := l.Buffer.Sample(l.BatchSize)
	if err == ErrInsufficientData {
		return 0, false, nil
	} else if err != nil {
		return 0, false, essentials.AddCtx("learn", err)
	}

	c := l.Policy.Creator()
	n := len(batch)
	numActions := l.Policy.NumActions

	var states, nextStates []anyvec.Vector
	mask := make([]float64, n*numActions)
	for i, t := range batch {
		if t.Action < 0 || t.Action >= numActions {
			panic("stored action out of range")
		}
		states = append(states, t.State)
		nextStates = append(nextStates, t.NextState)
		mask[i*numActions+t.Action] = 1
	}

	// The target network is evaluated at the action that
	// was taken, not at the best next action.
	nextOut := vectorFloats(l.Target.Apply(anydiff.NewConst(c.Concat(nextStates...)),
		n).Output())
	expected := make([]float64, n)
	for i, t := range batch {
		nextQ := nextOut[i*numActions+t.Action]
		expected[i] = t.Reward + l.Gamma*nextQ
	}

	policyOut := l.Policy.Apply(anydiff.NewConst(c.Concat(states...)), n)
	currentQ := anydiff.SumCols(&anydiff.Matrix{
		Data: anydiff.Mul(policyOut, anydiff.NewConst(floatsVector(c, mask))),
		Rows: n,
		Cols: numActions,
	})
	diff := anydiff.Sub(currentQ, anydiff.NewConst(floatsVector(c, expected)))
	lossRes := anydiff.Scale(
		anydiff.SumCols(&anydiff.Matrix{
			Data: anydiff.Square(diff),
			Rows: 1,
			Cols: n,
		}),
		c.MakeNumeric(1/float64(n)),
	)
	loss = vectorFloats(lossRes.Output())[0]

	grad := anydiff.NewGrad(l.Policy.Parameters()...)
	one := c.MakeVector(1)
	one.AddScalar(c.MakeNumeric(1))
	lossRes.Propagate(one, grad)

	step := l.Optimizer.Transform(grad)
	step.Scale(c.MakeNumeric(-l.LearningRate))
	step.AddToVars()
	l.Updates++

	return loss, true, nil
}

// SaveOptimizer encodes the optimizer state.
//
// Before the first update there is no state, and the
// result is empty.
func (l *Learner) SaveOptimizer() ([]byte, error) {
	if l.Updates == 0 {
		return nil, nil
	}
	data, err := l.Optimizer.MarshalBinary()
	if err != nil {
		return nil, essentials.AddCtx("save optimizer", err)
	}
	return data, nil
}

// decodeOptimizer creates an optimizer over the policy's
// parameters from a saved state, leaving l unchanged.
func (l *Learner) decodeOptimizer(updates int, data []byte) (*anysgd.Adam, error) {
	opt := &anysgd.Adam{Vars: l.Policy.Parameters()}
	if updates == 0 {
		return opt, nil
	}
	if err := opt.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return opt, nil
}
