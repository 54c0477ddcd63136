package anydqn

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/unixpickle/anynet"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

var (
	// ErrNoCheckpoint is returned when there is no saved
	// checkpoint to resume from.
	ErrNoCheckpoint = errors.New("no checkpoint found")

	// ErrCorruptCheckpoint is returned when a checkpoint
	// cannot be decoded or is missing fields.
	ErrCorruptCheckpoint = errors.New("corrupt checkpoint")
)

const checkpointExt = ".ckpt"

var checkpointName = regexp.MustCompile(`^EPISODE(\d+)\` + checkpointExt + `$`)

func init() {
	var c Checkpoint
	serializer.RegisterTypedDeserializer(c.SerializerType(), DeserializeCheckpoint)
}

// A Checkpoint is a snapshot of training progress.
type Checkpoint struct {
	Episode   int
	StepsDone int
	Policy    anynet.Net

	// Updates is the number of optimizer steps taken.
	// Optimizer is the encoded anysgd.Adam state, which is
	// empty when Updates is 0.
	Updates   int
	Optimizer []byte
}

// DeserializeCheckpoint deserializes a Checkpoint.
func DeserializeCheckpoint(d []byte) (*Checkpoint, error) {
	var episode, steps, updates serializer.Int
	var policy anynet.Net
	var optimizer serializer.Bytes
	err := serializer.DeserializeAny(d, &episode, &steps, &policy, &updates,
		&optimizer)
	if err != nil {
		return nil, essentials.AddCtx("deserialize checkpoint", err)
	}
	return &Checkpoint{
		Episode:   int(episode),
		StepsDone: int(steps),
		Policy:    policy,
		Updates:   int(updates),
		Optimizer: []byte(optimizer),
	}, nil
}

// SerializerType returns the unique ID used to serialize
// a Checkpoint with the serializer package.
func (c *Checkpoint) SerializerType() string {
	return "github.com/unixpickle/anydqn.Checkpoint"
}

// Serialize serializes the Checkpoint.
func (c *Checkpoint) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Int(c.Episode),
		serializer.Int(c.StepsDone),
		c.Policy,
		serializer.Int(c.Updates),
		serializer.Bytes(c.Optimizer),
	)
}

// Validate checks that every field is present and sane.
func (c *Checkpoint) Validate() error {
	switch {
	case c.Episode < 1:
		return fmt.Errorf("%w: episode %d", ErrCorruptCheckpoint, c.Episode)
	case c.StepsDone < 0:
		return fmt.Errorf("%w: steps done %d", ErrCorruptCheckpoint, c.StepsDone)
	case len(c.Policy) == 0:
		return fmt.Errorf("%w: missing policy", ErrCorruptCheckpoint)
	case c.Updates < 0:
		return fmt.Errorf("%w: optimizer updates %d", ErrCorruptCheckpoint, c.Updates)
	case c.Updates > 0 && len(c.Optimizer) == 0:
		return fmt.Errorf("%w: missing optimizer state", ErrCorruptCheckpoint)
	}
	return nil
}

// A CheckpointStore saves one checkpoint file per save
// event in a directory.
type CheckpointStore struct {
	Dir string
}

// Path returns the file used for an episode's checkpoint.
func (c *CheckpointStore) Path(episode int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("EPISODE%d%s", episode, checkpointExt))
}

// Save writes a checkpoint and returns its path.
//
// The file is written under a temporary name and then
// renamed, so a crash never leaves a partial checkpoint.
func (c *CheckpointStore) Save(ckpt *Checkpoint) (path string, err error) {
	defer essentials.AddCtxTo("save checkpoint", &err)
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return "", err
	}
	path = c.Path(ckpt.Episode)
	tmpPath := path + ".tmp"
	if err := serializer.SaveAny(tmpPath, ckpt); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads and validates a checkpoint file.
//
// Decoding and validation failures wrap
// ErrCorruptCheckpoint.
func (c *CheckpointStore) Load(path string) (*Checkpoint, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	var ckpt *Checkpoint
	if err := serializer.LoadAny(path, &ckpt); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		return nil, fmt.Errorf("load checkpoint %s: %w: %v", path,
			ErrCorruptCheckpoint, err)
	}
	if ckpt == nil {
		return nil, fmt.Errorf("load checkpoint %s: %w: empty file", path,
			ErrCorruptCheckpoint)
	}
	if err := ckpt.Validate(); err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", path, err)
	}
	return ckpt, nil
}

// Latest returns the path of the most recently modified
// checkpoint.
// Ties are broken in favor of the later episode.
//
// If there are no checkpoints, ErrNoCheckpoint is
// returned.
func (c *CheckpointStore) Latest() (string, error) {
	entries, err := os.ReadDir(c.Dir)
	if os.IsNotExist(err) {
		return "", ErrNoCheckpoint
	} else if err != nil {
		return "", essentials.AddCtx("list checkpoints", err)
	}
	var bestPath string
	var bestTime time.Time
	var bestEpisode int
	for _, entry := range entries {
		match := checkpointName.FindStringSubmatch(entry.Name())
		if entry.IsDir() || match == nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return "", essentials.AddCtx("list checkpoints", err)
		}
		episode, _ := strconv.Atoi(match[1])
		modTime := info.ModTime()
		if bestPath == "" || modTime.After(bestTime) ||
			(modTime.Equal(bestTime) && episode > bestEpisode) {
			bestPath = filepath.Join(c.Dir, entry.Name())
			bestTime = modTime
			bestEpisode = episode
		}
	}
	if bestPath == "" {
		return "", ErrNoCheckpoint
	}
	return bestPath, nil
}

// LoadLatest loads the most recently modified checkpoint.
func (c *CheckpointStore) LoadLatest() (*Checkpoint, string, error) {
	path, err := c.Latest()
	if err != nil {
		return nil, "", err
	}
	ckpt, err := c.Load(path)
	if err != nil {
		return nil, "", err
	}
	return ckpt, path, nil
}
