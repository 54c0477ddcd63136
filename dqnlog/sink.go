package dqnlog

import "github.com/unixpickle/anydqn"

// A Sink is an anydqn.MetricSink which must be closed
// once the run is over.
type Sink interface {
	anydqn.MetricSink
	Close() error
}

// A Point is one value in a scalar series.
type Point struct {
	Step  int
	Value float64
}

// MultiSink forwards every metric to each of its Sinks.
type MultiSink []Sink

// AddScalar records the scalar in every Sink.
func (m MultiSink) AddScalar(tag string, value float64, step int) error {
	for _, s := range m {
		if err := s.AddScalar(tag, value, step); err != nil {
			return err
		}
	}
	return nil
}

// AddScalars records the group in every Sink.
func (m MultiSink) AddScalars(group string, values map[string]float64,
	step int) error {
	for _, s := range m {
		if err := s.AddScalars(group, values, step); err != nil {
			return err
		}
	}
	return nil
}

// AddGraph records the summary in every Sink.
func (m MultiSink) AddGraph(summary string) error {
	for _, s := range m {
		if err := s.AddGraph(summary); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every Sink and returns the first error.
func (m MultiSink) Close() error {
	var firstErr error
	for _, s := range m {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// groupTag names the series for one member of a group.
func groupTag(group, name string) string {
	return group + "/" + name
}
