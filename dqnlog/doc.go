// Package dqnlog records the progress of a training run
// as scalar metrics and plain text logs.
//
// Everything a run writes is owned by a Run, which is
// opened when training starts and closed when it ends.
package dqnlog
