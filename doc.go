// Package anydqn implements Double Deep Q-Networks for
// agents which observe single-channel images and choose
// from a small set of discrete actions.
//
// The package provides the pieces of the algorithm
// (experience replay, epsilon-greedy exploration, the
// policy/target network pair, and checkpointing) along
// with a Trainer that ties them together into an episodic
// training loop.
//
// See https://arxiv.org/abs/1509.06461.
package anydqn
