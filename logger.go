package anydqn

import (
	"log"
	"time"
)

// EpisodeResult summarizes a training or test episode.
type EpisodeResult struct {
	// Episode is the index of the episode.
	// For test episodes, it is the index of the next
	// training episode.
	Episode int

	// Score is the sum of the rewards.
	Score float64

	// Reward is the final reward of the episode.
	Reward float64

	Steps int

	// Learns is the number of times the learner was
	// invoked, whether or not it had enough data.
	Learns int

	// Epsilon is the exploration rate of the last action.
	// It is 0 for test episodes.
	Epsilon float64

	// TotalSteps is the global step count at the end of
	// the episode.
	TotalSteps int

	Duration time.Duration
}

// MeanReward is the average reward per step.
func (e *EpisodeResult) MeanReward() float64 {
	if e.Steps == 0 {
		return 0
	}
	return e.Score / float64(e.Steps)
}

// A Logger logs status messages which are produced during
// training.
type Logger interface {
	LogEpisode(r *EpisodeResult)
	LogTest(r *EpisodeResult)
	LogLearn(loss float64)
	LogCheckpoint(path string, episode int)
	LogResume(path string, episode, steps int)
}

// StandardLogger is a Logger which uses the log package.
//
// A Field of name <N> controls whether or not the Log<N>
// method does anything.
type StandardLogger struct {
	Episode    bool
	Test       bool
	Learn      bool
	Checkpoint bool
	Resume     bool
}

// LogEpisode logs the result of a training episode.
func (s *StandardLogger) LogEpisode(r *EpisodeResult) {
	if s.Episode {
		log.Printf("episode:%d, reward: %v, mean reward: %.2f, score: %v, "+
			"epsilon: %v, total steps: %d, time: %v", r.Episode, r.Reward,
			r.MeanReward(), r.Score, r.Epsilon, r.TotalSteps, r.Duration)
	}
}

// LogTest logs the result of a test episode.
func (s *StandardLogger) LogTest(r *EpisodeResult) {
	if s.Test {
		log.Printf("TEST, reward: %v, score: %v, total steps: %d, time: %v",
			r.Reward, r.Score, r.TotalSteps, r.Duration)
	}
}

// LogLearn logs the loss of a learner step.
func (s *StandardLogger) LogLearn(loss float64) {
	if s.Learn {
		log.Printf("loss: %v", loss)
	}
}

// LogCheckpoint logs a saved checkpoint.
func (s *StandardLogger) LogCheckpoint(path string, episode int) {
	if s.Checkpoint {
		log.Printf("checkpoint: episode=%d path=%s", episode, path)
	}
}

// LogResume logs a restored checkpoint.
func (s *StandardLogger) LogResume(path string, episode, steps int) {
	if s.Resume {
		log.Printf("resumed: path=%s episode=%d steps=%d", path, episode, steps)
	}
}

// MultiLogger forwards every message to each of its
// Loggers.
type MultiLogger []Logger

// LogEpisode forwards a training episode result.
func (m MultiLogger) LogEpisode(r *EpisodeResult) {
	for _, l := range m {
		l.LogEpisode(r)
	}
}

// LogTest forwards a test episode result.
func (m MultiLogger) LogTest(r *EpisodeResult) {
	for _, l := range m {
		l.LogTest(r)
	}
}

// LogLearn forwards a training loss.
func (m MultiLogger) LogLearn(loss float64) {
	for _, l := range m {
		l.LogLearn(loss)
	}
}

// LogCheckpoint forwards a saved checkpoint.
func (m MultiLogger) LogCheckpoint(path string, episode int) {
	for _, l := range m {
		l.LogCheckpoint(path, episode)
	}
}

// LogResume forwards a restored checkpoint.
func (m MultiLogger) LogResume(path string, episode, steps int) {
	for _, l := range m {
		l.LogResume(path, episode, steps)
	}
}

// A MetricSink records named scalars keyed by episode.
//
// AddGraph records a description of the network, once
// per run.
type MetricSink interface {
	AddScalar(tag string, value float64, step int) error
	AddScalars(group string, values map[string]float64, step int) error
	AddGraph(summary string) error
}

// MemoryStats reports memory usage in GiB.
type MemoryStats func() (allocated, cached float64, err error)
