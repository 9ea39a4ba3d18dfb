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
	"time"

	"github.com/spf13/cobra"
	"github.com/will-rowe/taxbench/src/misc"
	"github.com/will-rowe/taxbench/src/taxonomy"
	"github.com/will-rowe/taxbench/src/version"
)

// the command line arguments
var (
	countTaxDir *string // NCBI taxdump directory or taxonomy cache
	countRank   *string // the rank to report
)

// the count command (used by cobra)
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the leaf nodes below every taxon of a rank",
	Long: `Count the leaf nodes below every taxon of a rank.

Prints the taxon id and number of leaf nodes for each taxon of the rank that has descendants.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCount()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	countTaxDir = countCmd.Flags().StringP("taxonomy", "t", "", "NCBI taxdump directory (or taxonomy cache) - required")
	countRank = countCmd.Flags().StringP("rank", "r", "species", "the rank to report")
	countCmd.MarkFlagRequired("taxonomy")
	RootCmd.AddCommand(countCmd)
}

/*
The main function for the count sub-command
*/
func runCount() {
	// start logging
	logFH := misc.StartLogging(*logFile)
	defer logFH.Close()
	start := time.Now()
	log.Printf("i am taxbench (version %s)", version.GetVersion())
	log.Printf("starting the count subcommand")
	log.Printf("checking parameters...")
	rank, err := taxonomy.ParseRank(*countRank)
	misc.ErrorCheck(err)
	misc.ErrorCheck(misc.CheckFile(*countTaxDir))
	log.Printf("\trank: %v", rank)
	log.Printf("loading the taxonomy...")
	tax, err := taxonomy.Load(*countTaxDir)
	misc.ErrorCheck(err)
	log.Printf("\tnumber of taxonomy nodes: %d", tax.Size())
	counts := taxonomy.CountLeaves(tax, rank)
	for _, count := range counts {
		fmt.Printf("%d\t%d\n", count.ID, count.Leaves)
	}
	log.Printf("\tnumber of %v taxa with descendants: %d", rank, len(counts))
	log.Println("finished")
	log.Printf("time taken: %v", time.Since(start))
}
