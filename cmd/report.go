// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/will-rowe/taxbench/src/accession"
	"github.com/will-rowe/taxbench/src/assignment"
	"github.com/will-rowe/taxbench/src/evaluate"
	"github.com/will-rowe/taxbench/src/misc"
	"github.com/will-rowe/taxbench/src/reporting"
	"github.com/will-rowe/taxbench/src/taxonomy"
	"github.com/will-rowe/taxbench/src/version"
)

// the command line arguments
var (
	reportTaxDir       *string // NCBI taxdump directory or taxonomy cache
	truthFile          *string // ground truth read id to taxon id file
	refTable           *string // accession to taxon id table for the reference database
	predictedFile      *string // classifier read id to taxon id file
	classifierName     *string // name printed in the first column of the report
	header             *bool   // print the header line
	formulas           *bool   // print the metric formulas
	ignoreUnclassified *bool   // drop ground truth reads with taxon id 0
	outsideReference   *bool   // only count reads whose taxon is not reachable from the reference
	verbose            *bool   // log every data quality warning
	plotFile           *string // bar chart of the metrics
	batchConfig        *string // YAML file describing several classifier runs
	cacheLimit         *int    // maximum lineages held per cache
	batch              *reporting.BatchConfig
)

// the report command (used by cobra)
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report the recall, precision and accuracy of classifier assignments",
	Long: `Report the recall, precision and accuracy of classifier assignments.

The classifier assignments are compared with the ground truth at the genus and species ranks.
A classifier run is given with --predicted, or several runs are listed in a YAML --config file.
Flags given on the command line take precedence over the config file.`,
}

// a function to initialise the command line arguments
func init() {
	// Run is set here to avoid an initialization cycle (reportParamCheck refers to reportCmd)
	reportCmd.Run = func(cmd *cobra.Command, args []string) {
		runReport()
	}
	reportTaxDir = reportCmd.Flags().StringP("taxonomy", "t", "", "NCBI taxdump directory (or taxonomy cache)")
	truthFile = reportCmd.Flags().StringP("truth", "g", "", "ground truth read id to taxon id file")
	refTable = reportCmd.Flags().StringP("reference", "r", "", "accession to taxon id table for the reference database")
	predictedFile = reportCmd.Flags().StringP("predicted", "P", "", "classifier read id to taxon id file")
	classifierName = reportCmd.Flags().StringP("classifier", "c", "", "classifier name for the report")
	header = reportCmd.Flags().Bool("header", false, "print the header line")
	formulas = reportCmd.Flags().Bool("formulas", false, "print the formulas used for precision, recall and accuracy")
	ignoreUnclassified = reportCmd.Flags().Bool("ignoreUnclassified", false, "ignore ground truth reads that are unclassified (taxon id 0)")
	outsideReference = reportCmd.Flags().Bool("outsideReference", false, "only count reads whose taxon is not in the reference database")
	verbose = reportCmd.Flags().Bool("verbose", false, "log every taxon that needs the genus fallback or is missing from the taxonomy")
	plotFile = reportCmd.Flags().String("plot", "", "save a bar chart of the metrics to this file (.png/.svg/.pdf)")
	batchConfig = reportCmd.Flags().String("config", "", "YAML file describing a batch of classifier runs")
	cacheLimit = reportCmd.Flags().Int("cacheLimit", 0, "maximum number of lineages cached per worker (0 = no limit)")
	RootCmd.AddCommand(reportCmd)
}

// a function to check user supplied parameters, the config file is loaded here and the flags are merged into it
func reportParamCheck() error {
	batch = &reporting.BatchConfig{}
	if *batchConfig != "" {
		if err := misc.CheckExt(*batchConfig, []string{"yaml", "yml"}); err != nil {
			return err
		}
		var err error
		if batch, err = reporting.LoadBatchConfig(*batchConfig); err != nil {
			return err
		}
	}
	flags := reportCmd.Flags()
	overrideString := func(name string, value *string, target *string) {
		if flags.Changed(name) || *target == "" {
			*target = *value
		}
	}
	overrideBool := func(name string, value *bool, target *bool) {
		if flags.Changed(name) {
			*target = *value
		}
	}
	overrideString("taxonomy", reportTaxDir, &batch.Taxonomy)
	overrideString("truth", truthFile, &batch.Truth)
	overrideString("reference", refTable, &batch.Reference)
	overrideString("plot", plotFile, &batch.Plot)
	overrideBool("header", header, &batch.Header)
	overrideBool("formulas", formulas, &batch.Formulas)
	overrideBool("ignoreUnclassified", ignoreUnclassified, &batch.IgnoreUnclassified)
	overrideBool("outsideReference", outsideReference, &batch.OutsideReference)
	overrideBool("verbose", verbose, &batch.Verbose)
	if flags.Changed("predicted") || len(batch.Classifiers) == 0 {
		batch.Classifiers = []reporting.Classifier{{Name: *classifierName, Predictions: *predictedFile}}
	}

	// check the files
	if batch.Taxonomy == "" || batch.Truth == "" || batch.Reference == "" {
		return fmt.Errorf("a taxonomy (--taxonomy), ground truth (--truth) and reference table (--reference) are needed")
	}
	if err := misc.CheckFile(batch.Taxonomy); err != nil {
		return fmt.Errorf("can't find the taxonomy: %v", err)
	}
	for _, file := range []string{batch.Truth, batch.Reference} {
		if err := misc.CheckFile(file); err != nil {
			return err
		}
	}
	for _, classifier := range batch.Classifiers {
		if classifier.Predictions == "" {
			return fmt.Errorf("no classifier assignments given (--predicted)")
		}
		if err := misc.CheckFile(classifier.Predictions); err != nil {
			return err
		}
	}
	if batch.Plot != "" {
		if err := misc.CheckExt(batch.Plot, []string{"png", "svg", "pdf", "eps", "jpg", "jpeg", "tif", "tiff"}); err != nil {
			return err
		}
	}
	*proc = misc.SetProcessors(*proc)
	return nil
}

/*
The main function for the report sub-command
*/
func runReport() {
	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	// start logging
	logFH := misc.StartLogging(*logFile)
	defer logFH.Close()
	start := time.Now()
	log.Printf("i am taxbench (version %s)", version.GetVersion())
	log.Printf("starting the report subcommand")
	log.Printf("checking parameters...")
	misc.ErrorCheck(reportParamCheck())
	log.Printf("\tprocessors: %d", *proc)
	log.Printf("\ttaxonomy: %v", batch.Taxonomy)
	log.Printf("\tground truth: %v", batch.Truth)
	log.Printf("\treference table: %v", batch.Reference)
	log.Printf("\tnumber of classifier runs: %d", len(batch.Classifiers))
	log.Printf("\tignore unclassified reads: %v", batch.IgnoreUnclassified)
	log.Printf("\tonly reads outside the reference: %v", batch.OutsideReference)

	// load everything shared by the classifier runs
	log.Printf("loading the taxonomy...")
	tax, err := taxonomy.Load(batch.Taxonomy)
	misc.ErrorCheck(err)
	log.Printf("\tnumber of taxonomy nodes: %d", tax.Size())
	log.Printf("loading the reference table...")
	table, err := accession.Load(batch.Reference)
	misc.ErrorCheck(err)
	refTaxIDs := table.TaxIDs()
	log.Printf("\tnumber of reference taxa: %d", len(refTaxIDs))
	log.Printf("loading the ground truth...")
	truth, err := assignment.Load(batch.Truth)
	misc.ErrorCheck(err)
	log.Printf("\tnumber of ground truth reads: %d", len(truth))

	// build the reference taxon set
	opts := evaluate.Options{
		OutsideReference: batch.OutsideReference,
		Verbose:          batch.Verbose,
		Workers:          *proc,
		CacheLimit:       *cacheLimit,
	}
	if batch.IgnoreUnclassified {
		opts.Unclassified = evaluate.ExcludeUnclassified
	}
	log.Printf("building the reference taxon set...")
	evaluator := evaluate.New(tax, refTaxIDs, opts)
	for _, rank := range evaluate.Ranks {
		log.Printf("\tnumber of %v taxa in the reference: %d", rank, evaluator.ReferenceSet().Len(rank))
	}

	// evaluate each classifier run
	reporter := reporting.NewReporter(os.Stdout)
	reporter.Header = batch.Header
	reporter.Formulas = batch.Formulas
	rows := make([]reporting.Row, 0, len(batch.Classifiers))
	fallbacks := false
	for _, classifier := range batch.Classifiers {
		log.Printf("evaluating %v...", classifier.Predictions)
		predicted, err := assignment.Load(classifier.Predictions)
		misc.ErrorCheck(err)
		result, err := evaluator.Evaluate(truth, predicted)
		misc.ErrorCheck(err)
		log.Printf("\treads counted: %d", result.Reads)
		log.Printf("\treads skipped: %d", result.Skipped)
		if batch.OutsideReference {
			log.Printf("\ttotal outside reference reads: %d", result.Counts[taxonomy.Species].Total)
		}
		fallbacks = fallbacks || result.FallbacksOccurred()
		misc.ErrorCheck(reporter.Write(classifier.Name, result))
		rows = append(rows, reporting.Row{Name: classifier.Name, Result: result})
	}
	if fallbacks {
		log.Printf("genus fallbacks occurred, genus results for taxa without a genus node use the parent of the species")
	}

	// plot the metrics
	if batch.Plot != "" {
		log.Printf("plotting the metrics to %v...", batch.Plot)
		misc.ErrorCheck(reporting.PlotMetrics(batch.Plot, rows))
	}
	log.Println("finished")
	log.Printf("time taken: %v", time.Since(start))
}
