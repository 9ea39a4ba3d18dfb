package reporting

import (
	"fmt"
	"log"

	"github.com/will-rowe/taxbench/src/evaluate"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Row is the result of one classifier run
type Row struct {
	Name   string
	Result *evaluate.Result
}

// PlotMetrics draws a grouped bar chart of recall, precision and accuracy for each classifier at each rank.
// Undefined metrics are drawn as empty bars.
func PlotMetrics(fileName string, rows []Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("no results to plot")
	}
	metricPlot, err := plot.New()
	if err != nil {
		return err
	}
	metricPlot.Title.Text = "classifier performance"
	metricPlot.Y.Label.Text = "percentage"
	metricPlot.Y.Min = 0
	metricPlot.Y.Max = 100
	metricPlot.Legend.Top = true

	labels := []string{}
	for _, rank := range evaluate.Ranks {
		labels = append(labels, rank.String()+" recall", rank.String()+" precision", rank.String()+" accuracy")
	}
	barWidth := vg.Points(60 / float64(len(rows)))
	for i, row := range rows {
		values := make(plotter.Values, 0, len(labels))
		for _, rank := range evaluate.Ranks {
			metrics := row.Result.Counts[rank].Metrics()
			for _, ratio := range []evaluate.Ratio{metrics.Recall, metrics.Precision, metrics.Accuracy} {
				if !ratio.Defined {
					log.Printf("\tundefined %v metric for %v will be plotted as 0", rank, rowName(row))
				}
				values = append(values, ratio.Value*100)
			}
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = barWidth * vg.Length(2*i-len(rows)+1) / 2
		metricPlot.Add(bars)
		metricPlot.Legend.Add(rowName(row), bars)
	}
	metricPlot.NominalX(labels...)
	return metricPlot.Save(12*vg.Inch, 6*vg.Inch, fileName)
}

func rowName(row Row) string {
	if row.Name == "" {
		return NoName
	}
	return row.Name
}
