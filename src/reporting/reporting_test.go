package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/will-rowe/taxbench/src/evaluate"
	"github.com/will-rowe/taxbench/src/taxonomy"
)

var testResult = &evaluate.Result{
	Counts: map[taxonomy.Rank]evaluate.Counts{
		taxonomy.Genus:   {Total: 3, TruePositive: 1, UnclassifiedTrueNegative: 1, NotInReferenceFalsePositive: 1},
		taxonomy.Species: {Total: 3, UnclassifiedTrueNegative: 2, NotInReferenceTrueNegative: 1},
	},
	Reads: 3,
}

var testConfig = `taxonomy: ./taxdump
truth: truth.tsv
reference: /data/reference.acc2taxid
ignore_unclassified: true
header: true
classifiers:
  - name: kraken2
    predictions: kraken2.tsv
  - name: centrifuge
    predictions: centrifuge.tsv
`

func TestHeader(t *testing.T) {
	expected := "classifier\tgenus_recall\tgenus_precision\tgenus_accuracy\tspecies_recall\tspecies_precision\tspecies_accuracy\t" +
		"genus_TP\tgenus_FP\tgenus_FN\tgenus_TN\tspecies_TP\tspecies_FP\tspecies_FN\tspecies_TN"
	if Header() != expected {
		t.Fatalf("unexpected header:\n%v", Header())
	}
}

func TestLine(t *testing.T) {
	expected := "kraken2\t100.0000\t50.0000\t66.6667\tundef\tundef\t100.0000\t1\t1\t0\t1\t0\t0\t0\t3"
	if got := Line("kraken2", testResult); got != expected {
		t.Fatalf("got\n%v\nwant\n%v", got, expected)
	}
	if !strings.HasPrefix(Line("", testResult), NoName+"\t") {
		t.Errorf("a missing name should be reported as %v", NoName)
	}
	if len(strings.Split(Line("x", testResult), "\t")) != len(strings.Split(Header(), "\t")) {
		t.Errorf("line and header have a different number of fields")
	}
}

func TestReporter(t *testing.T) {
	buf := &bytes.Buffer{}
	reporter := NewReporter(buf)
	reporter.Header = true
	reporter.Formulas = true
	for _, name := range []string{"a", "b"} {
		if err := reporter.Write(name, testResult); err != nil {
			t.Fatal(err)
		}
	}
	out := buf.String()
	if strings.Count(out, Header()) != 1 || strings.Count(out, "precision = TP / (TP + FP)") != 1 {
		t.Errorf("header and formulas should be written once:\n%v", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.HasPrefix(lines[len(lines)-1], "b\t") || !strings.HasPrefix(lines[len(lines)-2], "a\t") {
		t.Errorf("report lines are out of order:\n%v", out)
	}
}

func TestLoadBatchConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	config, err := LoadBatchConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !config.IgnoreUnclassified || !config.Header || config.OutsideReference {
		t.Errorf("flags were not decoded: %+v", config)
	}
	if len(config.Classifiers) != 2 || config.Classifiers[1].Name != "centrifuge" {
		t.Fatalf("classifiers were not decoded: %+v", config.Classifiers)
	}
	if config.Truth != filepath.Join(dir, "truth.tsv") || config.Taxonomy != filepath.Join(dir, "taxdump") {
		t.Errorf("relative paths were not resolved: %v %v", config.Truth, config.Taxonomy)
	}
	if config.Reference != "/data/reference.acc2taxid" {
		t.Errorf("absolute path was changed: %v", config.Reference)
	}
	if config.Classifiers[0].Predictions != filepath.Join(dir, "kraken2.tsv") {
		t.Errorf("prediction path was not resolved: %v", config.Classifiers[0].Predictions)
	}
}

func TestParseBatchConfigErrors(t *testing.T) {
	bad := []string{
		"truth: t.tsv\n",
		"classifiers:\n  - name: a\n",
		"classifiers:\n  - name: a\n    predictions: a.tsv\n  - name: a\n    predictions: b.tsv\n",
		"unknown_field: 1\nclassifiers:\n  - predictions: a.tsv\n",
	}
	for _, config := range bad {
		if _, err := ParseBatchConfig([]byte(config)); err == nil {
			t.Errorf("expected an error for config:\n%v", config)
		}
	}
}

func TestPlotMetrics(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "metrics.png")
	rows := []Row{{Name: "a", Result: testResult}, {Name: "", Result: testResult}}
	if err := PlotMetrics(fileName, rows); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(fileName); err != nil || info.Size() == 0 {
		t.Fatalf("plot was not written: %v", err)
	}
	if err := PlotMetrics(fileName, nil); err == nil {
		t.Errorf("an empty plot should not be drawn")
	}
}
