// report renders solve runs as html charts.
package report

import (
	"errors"
	"fmt"
	"io"

	"gridplan/planning"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Run is a named solve result.
type Run struct {
	Name   string
	Result *planning.Result
}

// ErrNoRuns is returned when there is nothing to plot.
var ErrNoRuns = errors.New("no runs to plot")

// WriteConvergenceChart writes an html page plotting the max value change of every sweep,
// one line per run. Shorter runs end early on the shared sweep axis.
func WriteConvergenceChart(w io.Writer, title string, runs ...Run) error {
	numSweeps := 0
	for _, run := range runs {
		if run.Result != nil && len(run.Result.Deltas) > numSweeps {
			numSweeps = len(run.Result.Deltas)
		}
	}
	if numSweeps == 0 {
		return ErrNoRuns
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "max absolute value change per sweep",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	sweeps := make([]string, numSweeps)
	for i := range sweeps {
		sweeps[i] = fmt.Sprintf("%d", i+1)
	}
	line = line.SetXAxis(sweeps)

	for _, run := range runs {
		if run.Result == nil {
			continue
		}
		items := make([]opts.LineData, 0, len(run.Result.Deltas))
		for _, delta := range run.Result.Deltas {
			items = append(items, opts.LineData{Value: delta})
		}
		line.AddSeries(run.Name, items)
	}

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}
