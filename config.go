package anydqn

import (
	"errors"
	"fmt"
)

// Config stores the hyper-parameters for a training run.
type Config struct {
	// Exploration schedule.
	// The exploration rate decays exponentially from
	// EpsStart to EpsEnd with time constant EpsDecay,
	// measured in global steps.
	EpsStart float64
	EpsEnd   float64
	EpsDecay float64

	// Gamma is the reward discount factor.
	Gamma float64

	LearningRate float64
	BatchSize    int

	// MaxEpisodes is the number of training episodes to
	// run in one call to Trainer.Run.
	MaxEpisodes int

	// Schedules, measured in episodes.
	SaveInterval          int
	TestInterval          int
	NetworkUpdateInterval int

	ReplayCapacity int

	// StepCap is the maximum number of steps in a
	// training episode.
	// Test episodes may run for one extra step.
	StepCap int

	// UseAccelerator selects the process-wide vector
	// creator and enables memory usage metrics.
	UseAccelerator bool

	NumActions  int
	ImageWidth  int
	ImageHeight int

	// Seed determines the initial network weights and every
	// random decision made during training.
	Seed int64
}

// DefaultConfig returns the hyper-parameters used to train
// the drone controller.
func DefaultConfig() Config {
	return Config{
		EpsStart:              0.9,
		EpsEnd:                0.05,
		EpsDecay:              30000,
		Gamma:                 0.8,
		LearningRate:          0.001,
		BatchSize:             256,
		MaxEpisodes:           10000,
		SaveInterval:          10,
		TestInterval:          2,
		NetworkUpdateInterval: 10,
		ReplayCapacity:        10000,
		StepCap:               34,
		NumActions:            4,
		ImageWidth:            84,
		ImageHeight:           84,
	}
}

// Validate checks that the hyper-parameters make sense.
func (c *Config) Validate() error {
	if c.EpsStart < c.EpsEnd {
		return fmt.Errorf("epsilon start %v is below epsilon end %v", c.EpsStart,
			c.EpsEnd)
	}
	if c.EpsEnd < 0 || c.EpsStart > 1 {
		return errors.New("epsilon must lie in [0, 1]")
	}
	if c.EpsDecay <= 0 {
		return errors.New("epsilon decay must be positive")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("discount %v outside [0, 1]", c.Gamma)
	}
	if c.LearningRate <= 0 {
		return errors.New("learning rate must be positive")
	}
	positive := []struct {
		name  string
		value int
	}{
		{"batch size", c.BatchSize},
		{"max episodes", c.MaxEpisodes},
		{"save interval", c.SaveInterval},
		{"test interval", c.TestInterval},
		{"network update interval", c.NetworkUpdateInterval},
		{"replay capacity", c.ReplayCapacity},
		{"step cap", c.StepCap},
		{"action count", c.NumActions},
		{"image width", c.ImageWidth},
		{"image height", c.ImageHeight},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive (got %d)", p.name, p.value)
		}
	}
	if c.BatchSize > c.ReplayCapacity {
		return fmt.Errorf("batch size %d exceeds replay capacity %d", c.BatchSize,
			c.ReplayCapacity)
	}
	return nil
}
