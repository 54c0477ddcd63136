package anydqn

import (
	"time"

	"github.com/unixpickle/essentials"
)

// Test runs one greedy episode with a snapshot of the
// target network.
//
// It does not change the policy, the replay buffer, the
// optimizer, or the training counters.
func (t *Trainer) Test() (res *EpisodeResult, err error) {
	defer essentials.AddCtxTo("test episode", &err)
	if err := t.Eval.SetParams(t.Target); err != nil {
		return nil, err
	}

	start := time.Now()
	env := &StepCapEnv{Env: t.Env, MaxSteps: t.Config.StepCap + 1}
	obs, err := env.Reset()
	if err != nil {
		return nil, err
	}
	res = &EpisodeResult{Episode: t.Episode}
	for {
		action := Greedy(t.Eval.Scores(t.networkInput(obs)))
		var done bool
		var reward float64
		obs, reward, done, err = env.Step(action)
		if err != nil {
			return nil, err
		}
		res.Steps++
		res.Score += reward
		res.Reward = reward
		if done {
			break
		}
	}
	res.TotalSteps = t.StepsDone
	res.Duration = time.Since(start)

	if t.Logger != nil {
		t.Logger.LogTest(res)
	}
	if t.Metrics != nil {
		err := t.Metrics.AddScalars(MetricTest, map[string]float64{
			"score":  res.Score,
			"reward": res.Reward,
		}, t.Episode)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}
