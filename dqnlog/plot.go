package dqnlog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/unixpickle/essentials"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotSink keeps every series in memory and draws a line
// chart for each of them when it is closed.
type PlotSink struct {
	// Dir is where the PNG charts are written.
	Dir string

	lock   sync.Mutex
	series map[string][]Point
	graph  string
}

// GraphFile is the name of the network description
// written next to the charts.
const GraphFile = "graph.txt"

// NewPlotSink creates a PlotSink which writes to dir.
func NewPlotSink(dir string) *PlotSink {
	return &PlotSink{Dir: dir, series: map[string][]Point{}}
}

// AddScalar appends a value to a series.
func (p *PlotSink) AddScalar(tag string, value float64, step int) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.series[tag] = append(p.series[tag], Point{Step: step, Value: value})
	return nil
}

// AddScalars appends each value to the series
// "<group>/<name>".
func (p *PlotSink) AddScalars(group string, values map[string]float64,
	step int) error {
	for name, value := range values {
		if err := p.AddScalar(groupTag(group, name), value, step); err != nil {
			return err
		}
	}
	return nil
}

// AddGraph keeps the network description, which is
// written to GraphFile on Close.
func (p *PlotSink) AddGraph(summary string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.graph = summary
	return nil
}

// Series returns a copy of the values recorded for a tag.
func (p *PlotSink) Series(tag string) []Point {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]Point{}, p.series[tag]...)
}

// Close writes one chart per series, plus the network
// description if there is one.
func (p *PlotSink) Close() (err error) {
	defer essentials.AddCtxTo("write charts", &err)
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return err
	}
	var tags []string
	for tag := range p.series {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	if p.graph != "" {
		err := os.WriteFile(filepath.Join(p.Dir, GraphFile), []byte(p.graph+"\n"), 0644)
		if err != nil {
			return err
		}
	}
	for _, tag := range tags {
		if err := p.writeChart(tag, p.series[tag]); err != nil {
			return err
		}
	}
	return nil
}

// ChartPath returns the file used for a tag's chart.
func (p *PlotSink) ChartPath(tag string) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(tag)
	return filepath.Join(p.Dir, name+".png")
}

func (p *PlotSink) writeChart(tag string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	chart := plot.New()
	chart.Title.Text = tag
	chart.X.Label.Text = "Episode"
	chart.Y.Label.Text = tag

	pts := make(plotter.XYs, len(points))
	for i, point := range points {
		pts[i].X = float64(point.Step)
		pts[i].Y = point.Value
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return essentials.AddCtx(tag, err)
	}
	chart.Add(line)
	chart.Legend.Add(tag, line)

	return chart.Save(6*vg.Inch, 4*vg.Inch, p.ChartPath(tag))
}
