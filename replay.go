package anydqn

import (
	"errors"
	"math/rand"

	"github.com/gammazero/deque"
	"github.com/unixpickle/anyvec"
)

// ErrInsufficientData is returned when a sample is larger
// than the replay buffer.
var ErrInsufficientData = errors.New("not enough transitions to sample")

// A Transition is one step of experience.
//
// States are stored in network-input form.
// A Transition must not be modified after it is stored.
type Transition struct {
	State     anyvec.Vector
	Action    int
	Reward    float64
	NextState anyvec.Vector
}

// ReplayBuffer is a bounded FIFO store of transitions.
// When it is full, storing a transition evicts the oldest
// one.
type ReplayBuffer struct {
	// Rand is used for sampling.
	// If nil, the global source is used.
	Rand *rand.Rand

	capacity int
	items    deque.Deque[*Transition]
}

// NewReplayBuffer creates an empty buffer.
func NewReplayBuffer(capacity int, r *rand.Rand) *ReplayBuffer {
	if capacity <= 0 {
		panic("replay capacity must be positive")
	}
	return &ReplayBuffer{Rand: r, capacity: capacity}
}

// Store adds a transition, evicting the oldest one if the
// buffer is full.
func (r *ReplayBuffer) Store(t *Transition) {
	r.items.PushBack(t)
	if r.items.Len() > r.capacity {
		r.items.PopFront()
	}
}

// Sample draws n distinct transitions uniformly at random.
//
// The order of the buffer is not changed.
func (r *ReplayBuffer) Sample(n int) ([]*Transition, error) {
	if r.items.Len() < n {
		return nil, ErrInsufficientData
	}
	var indices []int
	if r.Rand == nil {
		indices = rand.Perm(r.items.Len())[:n]
	} else {
		indices = r.Rand.Perm(r.items.Len())[:n]
	}
	res := make([]*Transition, n)
	for i, idx := range indices {
		res[i] = r.items.At(idx)
	}
	return res, nil
}

// Len returns the number of stored transitions.
func (r *ReplayBuffer) Len() int {
	return r.items.Len()
}

// Cap returns the maximum number of stored transitions.
func (r *ReplayBuffer) Cap() int {
	return r.capacity
}

// At returns the i-th oldest transition.
func (r *ReplayBuffer) At(i int) *Transition {
	return r.items.At(i)
}
