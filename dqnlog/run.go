package dqnlog

import (
	"path/filepath"

	"github.com/unixpickle/essentials"
)

// RunOptions configures the outputs of a training run.
type RunOptions struct {
	// Dir holds the text logs and charts.
	Dir string

	// Fresh truncates the text logs instead of appending
	// to them.
	Fresh bool

	// DBPath is the metrics database.
	// If empty, no database is used.
	DBPath string

	// Plots enables PNG charts, written to Dir/plots
	// when the run is closed.
	Plots bool
}

// Run owns every output of one training run.
type Run struct {
	Sink MultiSink
	Text *TextLog

	DB    *SQLiteSink
	Plots *PlotSink
}

// OpenRun opens the outputs described by opts.
func OpenRun(opts RunOptions) (r *Run, err error) {
	defer essentials.AddCtxTo("open run", &err)
	run := &Run{}
	defer func() {
		if err != nil {
			run.Close()
		}
	}()
	run.Text, err = OpenTextLog(opts.Dir, opts.Fresh)
	if err != nil {
		return nil, err
	}
	if opts.DBPath != "" {
		run.DB, err = OpenSQLite(opts.DBPath)
		if err != nil {
			return nil, err
		}
		run.Sink = append(run.Sink, run.DB)
	}
	if opts.Plots {
		run.Plots = NewPlotSink(filepath.Join(opts.Dir, "plots"))
		run.Sink = append(run.Sink, run.Plots)
	}
	return run, nil
}

// Close closes every output and returns the first error.
func (r *Run) Close() error {
	var firstErr error
	if err := r.Sink.Close(); err != nil {
		firstErr = err
	}
	if r.Text != nil {
		if err := r.Text.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
