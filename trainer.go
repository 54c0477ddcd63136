package anydqn

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// Metric names emitted by a Trainer.
const (
	MetricEpsilon         = "epsilon_value"
	MetricScore           = "score_history"
	MetricReward          = "reward_history"
	MetricTotalSteps      = "total_steps"
	MetricMemoryAllocated = "memory_usage_allocated"
	MetricMemoryCached    = "memory_usage_cached"
	MetricGeneralLook     = "general_look"
	MetricTest            = "Test"
)

// A Trainer runs the DDQN training loop.
//
// A Trainer is not thread-safe.
type Trainer struct {
	Config Config
	Env    Env

	// Policy is trained and used for exploration.
	// Target provides bootstrap estimates and is synced
	// from Policy every NetworkUpdateInterval episodes.
	// Eval is a copy of Target used for test episodes.
	Policy *QNet
	Target *QNet
	Eval   *QNet

	Buffer   *ReplayBuffer
	Learner  *Learner
	Selector *EpsilonGreedy

	// Store is used for checkpoints.
	// If nil, no checkpoints are saved or loaded.
	Store *CheckpointStore

	// Each of these may be nil.
	Logger  Logger
	Metrics MetricSink
	Memory  MemoryStats

	// Episode is the index of the next episode.
	Episode int

	// StepsDone is the global step count.
	StepsDone int

	ScoreHistory  []float64
	RewardHistory []float64
}

// NewTrainer creates a Trainer around a policy network.
//
// The target and evaluation networks start as copies of
// the policy.
func NewTrainer(cfg Config, env Env, policy *QNet) (t *Trainer, err error) {
	defer essentials.AddCtxTo("create trainer", &err)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if policy.NumActions != cfg.NumActions {
		return nil, fmt.Errorf("network has %d actions but config has %d",
			policy.NumActions, cfg.NumActions)
	}
	target, err := policy.Copy()
	if err != nil {
		return nil, err
	}
	eval, err := policy.Copy()
	if err != nil {
		return nil, err
	}
	gen := rand.New(rand.NewSource(cfg.Seed))
	buffer := NewReplayBuffer(cfg.ReplayCapacity, gen)
	return &Trainer{
		Config:   cfg,
		Env:      env,
		Policy:   policy,
		Target:   target,
		Eval:     eval,
		Buffer:   buffer,
		Learner:  NewLearner(cfg, policy, target, buffer),
		Selector: NewEpsilonGreedy(cfg, gen),
		Episode:  1,
	}, nil
}

// Resume restores the most recent checkpoint, if there is
// one, and re-syncs the target network from the restored
// policy.
//
// It returns false if there was nothing to resume from.
func (t *Trainer) Resume() (bool, error) {
	if t.Store == nil {
		return false, nil
	}
	ckpt, path, err := t.Store.LoadLatest()
	if err == ErrNoCheckpoint {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := t.restore(ckpt); err != nil {
		return false, fmt.Errorf("resume from %s: %w", path, err)
	}
	if t.Logger != nil {
		t.Logger.LogResume(path, t.Episode, t.StepsDone)
	}
	return true, nil
}

func (t *Trainer) restore(ckpt *Checkpoint) error {
	// Check everything before touching the live state.
	loaded := &QNet{Net: ckpt.Policy}
	if err := checkParams(t.Policy.Parameters(), loaded.Parameters()); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptCheckpoint, err)
	}
	opt, err := t.Learner.decodeOptimizer(ckpt.Updates, ckpt.Optimizer)
	if err != nil {
		return fmt.Errorf("%w: optimizer: %v", ErrCorruptCheckpoint, err)
	}

	if err := t.Policy.SetParams(loaded); err != nil {
		return err
	}
	t.Learner.Optimizer = opt
	t.Learner.Updates = ckpt.Updates
	t.Episode = ckpt.Episode
	t.StepsDone = ckpt.StepsDone
	return t.UpdateNetworks()
}

// Checkpoint captures the current training progress.
func (t *Trainer) Checkpoint() (*Checkpoint, error) {
	policy, err := t.Policy.Copy()
	if err != nil {
		return nil, err
	}
	optimizer, err := t.Learner.SaveOptimizer()
	if err != nil {
		return nil, err
	}
	return &Checkpoint{
		Episode:   t.Episode,
		StepsDone: t.StepsDone,
		Policy:    policy.Net,
		Updates:   t.Learner.Updates,
		Optimizer: optimizer,
	}, nil
}

// LogGraph sends a summary of the policy network to
// Metrics, if it is set.
func (t *Trainer) LogGraph() error {
	if t.Metrics == nil {
		return nil
	}
	if err := t.Metrics.AddGraph(t.Policy.Summary()); err != nil {
		return essentials.AddCtx("log graph", err)
	}
	return nil
}

// UpdateNetworks copies the policy parameters into the
// target network.
func (t *Trainer) UpdateNetworks() error {
	if err := t.Target.SetParams(t.Policy); err != nil {
		return essentials.AddCtx("update target network", err)
	}
	return nil
}

// Run runs Config.MaxEpisodes training episodes.
//
// If the done channel is closed, this stops after the
// current episode and returns nil.
//
// If the environment produces an error, this stops and
// returns the error.
func (t *Trainer) Run(done <-chan struct{}) (err error) {
	defer essentials.AddCtxTo("run trainer", &err)
	for e := 0; e < t.Config.MaxEpisodes; e++ {
		select {
		case <-done:
			return nil
		default:
		}
		res, err := t.RunEpisode()
		if err != nil {
			return err
		}
		if err := t.endEpisode(res); err != nil {
			return err
		}
	}
	return nil
}

// RunEpisode runs one training episode, storing every
// transition and invoking the learner after each step.
//
// It does not advance the episode index.
func (t *Trainer) RunEpisode() (res *EpisodeResult, err error) {
	defer essentials.AddCtxTo(fmt.Sprintf("episode %d", t.Episode), &err)
	start := time.Now()
	env := &StepCapEnv{Env: t.Env, MaxSteps: t.Config.StepCap}
	obs, err := env.Reset()
	if err != nil {
		return nil, err
	}
	res = &EpisodeResult{Episode: t.Episode}
	state := t.networkInput(obs)
	for {
		action := t.Selector.Select(t.Policy, state, &t.StepsDone)
		nextObs, reward, done, err := env.Step(action)
		if err != nil {
			return nil, err
		}
		nextState := t.networkInput(nextObs)
		t.Buffer.Store(&Transition{
			State:     state,
			Action:    action,
			Reward:    reward,
			NextState: nextState,
		})
		loss, learned, err := t.Learner.Learn()
		if err != nil {
			return nil, err
		}
		res.Learns++
		if learned && t.Logger != nil {
			t.Logger.LogLearn(loss)
		}

		state = nextState
		res.Steps++
		res.Score += reward
		res.Reward = reward
		if done {
			break
		}
	}
	res.Epsilon = t.Selector.LastEpsilon
	res.TotalSteps = t.StepsDone
	res.Duration = time.Since(start)
	return res, nil
}

func (t *Trainer) endEpisode(res *EpisodeResult) error {
	t.ScoreHistory = append(t.ScoreHistory, res.Score)
	t.RewardHistory = append(t.RewardHistory, res.Reward)
	if t.Logger != nil {
		t.Logger.LogEpisode(res)
	}
	if err := t.emitEpisode(res); err != nil {
		return err
	}

	if t.Episode%t.Config.SaveInterval == 0 && t.Store != nil {
		ckpt, err := t.Checkpoint()
		if err != nil {
			return err
		}
		path, err := t.Store.Save(ckpt)
		if err != nil {
			return err
		}
		if t.Logger != nil {
			t.Logger.LogCheckpoint(path, t.Episode)
		}
	}
	if t.Episode%t.Config.NetworkUpdateInterval == 0 {
		if err := t.UpdateNetworks(); err != nil {
			return err
		}
	}

	t.Episode++
	if t.Episode%t.Config.TestInterval == 0 {
		if _, err := t.Test(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trainer) emitEpisode(res *EpisodeResult) (err error) {
	if t.Metrics == nil {
		return nil
	}
	defer essentials.AddCtxTo("emit metrics", &err)
	step := res.Episode
	if t.Config.UseAccelerator && t.Memory != nil {
		allocated, cached, err := t.Memory()
		if err != nil {
			return err
		}
		if err := t.Metrics.AddScalar(MetricMemoryAllocated, allocated, step); err != nil {
			return err
		}
		if err := t.Metrics.AddScalar(MetricMemoryCached, cached, step); err != nil {
			return err
		}
	}
	scalars := []struct {
		tag   string
		value float64
	}{
		{MetricEpsilon, res.Epsilon},
		{MetricScore, res.Score},
		{MetricReward, res.Reward},
		{MetricTotalSteps, float64(res.TotalSteps)},
	}
	for _, s := range scalars {
		if err := t.Metrics.AddScalar(s.tag, s.value, step); err != nil {
			return err
		}
	}
	return t.Metrics.AddScalars(MetricGeneralLook, map[string]float64{
		MetricEpsilon: res.Epsilon,
		MetricScore:   res.Score,
		MetricReward:  res.Reward,
	}, step)
}

// networkInput converts an observation into the form
// stored in transitions and fed to the networks.
func (t *Trainer) networkInput(obs anyvec.Vector) anyvec.Vector {
	if obs == nil || obs.Len() != t.Policy.InSize {
		var size int
		if obs != nil {
			size = obs.Len()
		}
		panic(fmt.Sprintf("observation size %d does not match network input %d",
			size, t.Policy.InSize))
	}
	return obs.Copy()
}
