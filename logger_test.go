package anydqn

import "testing"

type countingLogger struct {
	Episodes, Tests, Learns, Checkpoints, Resumes int
}

func (c *countingLogger) LogEpisode(r *EpisodeResult)               { c.Episodes++ }
func (c *countingLogger) LogTest(r *EpisodeResult)                  { c.Tests++ }
func (c *countingLogger) LogLearn(loss float64)                     { c.Learns++ }
func (c *countingLogger) LogCheckpoint(path string, episode int)    { c.Checkpoints++ }
func (c *countingLogger) LogResume(path string, episode, steps int) { c.Resumes++ }

func TestMultiLogger(t *testing.T) {
	l1, l2 := &countingLogger{}, &countingLogger{}
	m := MultiLogger{l1, l2}
	m.LogEpisode(&EpisodeResult{})
	m.LogTest(&EpisodeResult{})
	m.LogLearn(1)
	m.LogLearn(2)
	m.LogCheckpoint("x", 1)
	m.LogResume("x", 1, 2)
	for i, l := range []*countingLogger{l1, l2} {
		if *l != (countingLogger{1, 1, 2, 1, 1}) {
			t.Errorf("logger %d: unexpected counts %+v", i, *l)
		}
	}
}

func TestEpisodeResultMeanReward(t *testing.T) {
	if (&EpisodeResult{}).MeanReward() != 0 {
		t.Error("empty episode should have zero mean reward")
	}
	if r := (&EpisodeResult{Score: 6, Steps: 4}).MeanReward(); r != 1.5 {
		t.Errorf("expected 1.5 but got %v", r)
	}
}
