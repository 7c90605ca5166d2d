// Package plot renders frequency reports as PNG bar charts.
package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"

	"animalitos-stats/models"
	"animalitos-stats/utils"
)

const (
	barWidth   = 30
	barSpacing = 12
	minWidth   = 640
	height     = 512
)

// ChartSink writes one PNG per report to a fixed path.
type ChartSink struct {
	path   string
	logger *utils.Logger
}

func NewChartSink(path string, logger *utils.Logger) *ChartSink {
	return &ChartSink{path: path, logger: logger}
}

// Render draws one bar per animal, or one stacked bar per group when the
// report is grouped. Empty reports produce no file.
func (c *ChartSink) Render(r *models.FrequencyReport) error {
	if r.Empty() {
		c.logger.Warn("[plot] Nothing to chart for %s", r.Source)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("plot: create output dir: %w", err)
	}
	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("plot: create %q: %w", c.path, err)
	}
	defer f.Close()

	if r.Grouped() {
		err = StackedChart(r).Render(chart.PNG, f)
	} else {
		err = BarChart(r).Render(chart.PNG, f)
	}
	if err != nil {
		return fmt.Errorf("plot: render: %w", err)
	}

	c.logger.Info("[plot] Chart written to %s", c.path)
	return nil
}

// BarChart builds the relative frequency chart of the whole report.
func BarChart(r *models.FrequencyReport) chart.BarChart {
	bars := make([]chart.Value, 0, len(r.Overall.Shares))
	for _, s := range r.Overall.Shares {
		bars = append(bars, chart.Value{Label: s.Category, Value: s.Percent})
	}

	return chart.BarChart{
		Title:      "Relative frequency per animal (%)",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Width:      widthFor(len(bars), barWidth),
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}
}

// StackedChart builds one 100% stacked bar per group, one segment per animal.
func StackedChart(r *models.FrequencyReport) chart.StackedBarChart {
	bars := make([]chart.StackedBar, 0, len(r.Groups))
	for _, g := range r.Groups {
		values := make([]chart.Value, 0, len(g.Shares))
		for _, s := range g.Shares {
			values = append(values, chart.Value{Label: s.Category, Value: float64(s.Count)})
		}
		bars = append(bars, chart.StackedBar{Name: g.Key, Values: values})
	}

	return chart.StackedBarChart{
		Title:      fmt.Sprintf("Animal frequency per %s", r.GroupBy),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Width:      widthFor(len(bars), 2*barWidth),
		Height:     height,
		BarSpacing: barSpacing,
		Bars:       bars,
	}
}

func widthFor(n, perBar int) int {
	w := n*(perBar+barSpacing) + 120
	if w < minWidth {
		return minWidth
	}
	return w
}
