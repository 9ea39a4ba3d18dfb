package evaluate

import (
	"fmt"
	"strconv"
)

// Category is the outcome of comparing a predicted taxon with the ground truth at one rank
type Category int

// the categories a read can fall in at a rank
const (
	TruePositive Category = iota
	FalsePositive
	FalseNegative
	UnclassifiedTrueNegative
	UnclassifiedFalsePositive
	NotInReferenceFalsePositive
	NotInReferenceTrueNegative
)

var categoryNames = [...]string{
	TruePositive:                "true_positive",
	FalsePositive:               "false_positive",
	FalseNegative:               "false_negative",
	UnclassifiedTrueNegative:    "unclassified_true_negative",
	UnclassifiedFalsePositive:   "unclassified_false_positive",
	NotInReferenceFalsePositive: "not_in_reference_false_positive",
	NotInReferenceTrueNegative:  "not_in_reference_true_negative",
}

// String returns the name of the category
func (category Category) String() string {
	if category >= 0 && int(category) < len(categoryNames) {
		return categoryNames[category]
	}
	return fmt.Sprintf("Category(%d)", int(category))
}

// Classify compares the true and predicted ancestors at a rank (0 means no ancestor).
// inReference reports whether the true ancestor is reachable from the reference database.
func Classify(trueID, predID int, inReference bool) Category {
	switch {
	case trueID == 0 && predID == 0:
		return UnclassifiedTrueNegative
	case trueID == 0:
		return UnclassifiedFalsePositive
	case !inReference && predID == 0:
		return NotInReferenceTrueNegative
	case !inReference:
		return NotInReferenceFalsePositive
	case trueID == predID:
		return TruePositive
	case predID == 0:
		return FalseNegative
	default:
		return FalsePositive
	}
}

// Counts is the confusion matrix for one rank
type Counts struct {
	Total                       int
	TruePositive                int
	FalsePositive               int
	FalseNegative               int
	UnclassifiedTrueNegative    int
	UnclassifiedFalsePositive   int
	NotInReferenceFalsePositive int
	NotInReferenceTrueNegative  int
}

// Increment records one read in a category
func (counts *Counts) Increment(category Category) {
	counts.Total++
	switch category {
	case TruePositive:
		counts.TruePositive++
	case FalsePositive:
		counts.FalsePositive++
	case FalseNegative:
		counts.FalseNegative++
	case UnclassifiedTrueNegative:
		counts.UnclassifiedTrueNegative++
	case UnclassifiedFalsePositive:
		counts.UnclassifiedFalsePositive++
	case NotInReferenceFalsePositive:
		counts.NotInReferenceFalsePositive++
	case NotInReferenceTrueNegative:
		counts.NotInReferenceTrueNegative++
	}
}

// Add merges another set of counts into this one
func (counts *Counts) Add(other Counts) {
	counts.Total += other.Total
	counts.TruePositive += other.TruePositive
	counts.FalsePositive += other.FalsePositive
	counts.FalseNegative += other.FalseNegative
	counts.UnclassifiedTrueNegative += other.UnclassifiedTrueNegative
	counts.UnclassifiedFalsePositive += other.UnclassifiedFalsePositive
	counts.NotInReferenceFalsePositive += other.NotInReferenceFalsePositive
	counts.NotInReferenceTrueNegative += other.NotInReferenceTrueNegative
}

// FalsePositiveTotal is every kind of false positive
func (counts Counts) FalsePositiveTotal() int {
	return counts.FalsePositive + counts.UnclassifiedFalsePositive + counts.NotInReferenceFalsePositive
}

// TrueNegativeTotal is every kind of true negative
func (counts Counts) TrueNegativeTotal() int {
	return counts.UnclassifiedTrueNegative + counts.NotInReferenceTrueNegative
}

// Ratio is a metric that may be undefined (zero denominator)
type Ratio struct {
	Value   float64
	Defined bool
}

// NewRatio divides two counts, a zero denominator gives an undefined ratio
func NewRatio(numerator, denominator int) Ratio {
	if denominator == 0 {
		return Ratio{}
	}
	return Ratio{Value: float64(numerator) / float64(denominator), Defined: true}
}

// Undefined is the text reported for a ratio with a zero denominator
const Undefined = "undef"

// String renders the ratio as a percentage with four decimal places, or "undef"
func (ratio Ratio) String() string {
	if !ratio.Defined {
		return Undefined
	}
	return strconv.FormatFloat(ratio.Value*100, 'f', 4, 64)
}

// Metrics are the statistics derived from a confusion matrix
type Metrics struct {
	Precision Ratio
	Recall    Ratio
	Accuracy  Ratio
}

// Metrics derives precision, recall and accuracy from the counts
func (counts Counts) Metrics() Metrics {
	tp := counts.TruePositive
	return Metrics{
		Precision: NewRatio(tp, tp+counts.FalsePositiveTotal()),
		Recall:    NewRatio(tp, tp+counts.FalseNegative),
		Accuracy:  NewRatio(tp+counts.TrueNegativeTotal(), counts.Total),
	}
}
