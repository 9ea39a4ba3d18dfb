// Package reporting renders evaluation results as tab separated report lines, batch configs and metric plots
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/will-rowe/taxbench/src/evaluate"
)

// NoName is printed in place of a missing classifier name
const NoName = "<No name provided>"

// Formulas describes how the metrics are derived
const Formulas = `TP = True Positives, FP = False Positives, FN = False Negatives, TN = True Negatives
precision = TP / (TP + FP)
recall = TP / (TP + FN)
accuracy = (TP + TN) / (TP + FP + FN + TN)
`

// Header returns the column names of a report line
func Header() string {
	fields := []string{"classifier"}
	for _, rank := range evaluate.Ranks {
		for _, metric := range []string{"recall", "precision", "accuracy"} {
			fields = append(fields, rank.String()+"_"+metric)
		}
	}
	for _, rank := range evaluate.Ranks {
		for _, count := range []string{"TP", "FP", "FN", "TN"} {
			fields = append(fields, rank.String()+"_"+count)
		}
	}
	return strings.Join(fields, "\t")
}

// Line renders the metrics and counts of one classifier run, genus first
func Line(name string, result *evaluate.Result) string {
	if name == "" {
		name = NoName
	}
	fields := []string{name}
	for _, rank := range evaluate.Ranks {
		metrics := result.Counts[rank].Metrics()
		fields = append(fields, metrics.Recall.String(), metrics.Precision.String(), metrics.Accuracy.String())
	}
	for _, rank := range evaluate.Ranks {
		counts := result.Counts[rank]
		fields = append(fields,
			strconv.Itoa(counts.TruePositive),
			strconv.Itoa(counts.FalsePositiveTotal()),
			strconv.Itoa(counts.FalseNegative),
			strconv.Itoa(counts.TrueNegativeTotal()),
		)
	}
	return strings.Join(fields, "\t")
}

// Reporter writes report lines, the formulas and header are written before the first line if requested
type Reporter struct {
	w        io.Writer
	started  bool
	Header   bool
	Formulas bool
}

// NewReporter returns a Reporter writing to w
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Write adds the line for one classifier run
func (reporter *Reporter) Write(name string, result *evaluate.Result) error {
	if !reporter.started {
		reporter.started = true
		if reporter.Formulas {
			if _, err := fmt.Fprint(reporter.w, Formulas+"\n"); err != nil {
				return err
			}
		}
		if reporter.Header {
			if _, err := fmt.Fprintln(reporter.w, Header()); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(reporter.w, Line(name, result))
	return err
}
