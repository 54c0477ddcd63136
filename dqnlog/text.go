package dqnlog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/unixpickle/anydqn"
	"github.com/unixpickle/essentials"
)

// Names of the text logs inside a log directory.
const (
	TrainLogName = "log.txt"
	TestLogName  = "tests.txt"
)

// TextLog is an anydqn.Logger which appends one line per
// training episode to log.txt and one line per test
// episode to tests.txt.
//
// Write errors do not interrupt training. The first one
// is logged with the log package when it happens and is
// reported by Err and Close.
type TextLog struct {
	lock  sync.Mutex
	train *os.File
	test  *os.File
	err   error
}

// OpenTextLog opens the logs in dir.
//
// If fresh is true, existing logs are truncated.
// Otherwise, new lines are appended to them.
func OpenTextLog(dir string, fresh bool) (t *TextLog, err error) {
	defer essentials.AddCtxTo("open text logs", &err)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if fresh {
		flags |= os.O_TRUNC
	}
	train, err := os.OpenFile(filepath.Join(dir, TrainLogName), flags, 0644)
	if err != nil {
		return nil, err
	}
	test, err := os.OpenFile(filepath.Join(dir, TestLogName), flags, 0644)
	if err != nil {
		train.Close()
		return nil, err
	}
	return &TextLog{train: train, test: test}, nil
}

// LogEpisode appends a training summary line.
func (t *TextLog) LogEpisode(r *anydqn.EpisodeResult) {
	t.write(t.train, "episode:%d, reward: %v, mean reward: %.2f, score: %v, "+
		"epsilon: %v, total steps: %d\n", r.Episode, r.Reward, r.MeanReward(),
		r.Score, r.Epsilon, r.TotalSteps)
}

// LogTest appends a test summary line.
func (t *TextLog) LogTest(r *anydqn.EpisodeResult) {
	t.write(t.test, "TEST, episode: %d, reward: %v, score: %v, total steps: %d\n",
		r.Episode, r.Reward, r.Score, r.TotalSteps)
}

// LogLearn does nothing.
func (t *TextLog) LogLearn(loss float64) {}

// LogCheckpoint does nothing.
func (t *TextLog) LogCheckpoint(path string, episode int) {}

// LogResume does nothing.
func (t *TextLog) LogResume(path string, episode, steps int) {}

// Err returns the first write error, if any.
func (t *TextLog) Err() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.err
}

// Close flushes and closes both logs.
func (t *TextLog) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	for _, f := range []*os.File{t.train, t.test} {
		if err := f.Close(); err != nil && t.err == nil {
			t.err = err
		}
	}
	return t.err
}

func (t *TextLog) write(f *os.File, format string, args ...interface{}) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, err := fmt.Fprintf(f, format, args...); err != nil && t.err == nil {
		t.err = essentials.AddCtx("write "+filepath.Base(f.Name()), err)
		log.Println("text log:", t.err)
	}
}
