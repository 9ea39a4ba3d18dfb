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
	"io"
	"log"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/will-rowe/taxbench/src/assignment"
	"github.com/will-rowe/taxbench/src/misc"
	"github.com/will-rowe/taxbench/src/resolver"
	"github.com/will-rowe/taxbench/src/taxonomy"
	"github.com/will-rowe/taxbench/src/version"
)

// the command line arguments
var (
	lcaTaxDir *string // NCBI taxdump directory or taxonomy cache
	lcaInput  *string // read id to taxon id file, grouped by read
	lcaOut    *string // file to write the collapsed assignments to
)

// the lca command (used by cobra)
var lcaCmd = &cobra.Command{
	Use:   "lca",
	Short: "Collapse repeated read to taxon assignments to their lowest common ancestor",
	Long: `Collapse repeated read to taxon assignments to their lowest common ancestor.

The input lists read ids and taxon ids, one pair per line. Lines for the same read must be next to each other.`,
	Run: func(cmd *cobra.Command, args []string) {
		runLCA()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	lcaTaxDir = lcaCmd.Flags().StringP("taxonomy", "t", "", "NCBI taxdump directory (or taxonomy cache) - required")
	lcaInput = lcaCmd.Flags().StringP("input", "i", misc.STDIN, "read id to taxon id file, grouped by read (- for STDIN)")
	lcaOut = lcaCmd.Flags().StringP("out", "o", "-", "file to write the collapsed assignments to (- for STDOUT)")
	lcaCmd.MarkFlagRequired("taxonomy")
	RootCmd.AddCommand(lcaCmd)
}

// a function to check user supplied parameters
func lcaParamCheck() error {
	if err := misc.CheckFile(*lcaInput); err != nil {
		return err
	}
	if err := misc.CheckFile(*lcaTaxDir); err != nil {
		return fmt.Errorf("can't find the taxonomy: %v", err)
	}
	return nil
}

/*
The main function for the lca sub-command
*/
func runLCA() {
	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	// start logging
	logFH := misc.StartLogging(*logFile)
	defer logFH.Close()
	start := time.Now()
	log.Printf("i am taxbench (version %s)", version.GetVersion())
	log.Printf("starting the lca subcommand")
	log.Printf("checking parameters...")
	misc.ErrorCheck(lcaParamCheck())
	log.Printf("\tinput: %v", *lcaInput)
	log.Printf("\ttaxonomy: %v", *lcaTaxDir)
	log.Printf("loading the taxonomy...")
	tax, err := taxonomy.Load(*lcaTaxDir)
	misc.ErrorCheck(err)
	log.Printf("\tnumber of taxonomy nodes: %d", tax.Size())

	// open the input and output
	var input io.Reader = os.Stdin
	if *lcaInput != misc.STDIN {
		inFH, err := os.Open(*lcaInput)
		misc.ErrorCheck(err)
		defer inFH.Close()
		input = inFH
	}
	outFH, err := openOutput(*lcaOut)
	misc.ErrorCheck(err)
	defer outFH.Close()

	// collapse each group of lines
	log.Print("collapsing assignments...")
	groups := assignment.NewGroupReader(input)
	writer := assignment.NewWriter(outFH)
	collapsed := 0
	for {
		readID, taxa, err := groups.Next()
		if err == io.EOF {
			break
		}
		misc.ErrorCheck(err)
		taxID, err := resolver.CollapseLCA(tax, taxa)
		misc.ErrorCheck(err)
		if len(taxa) > 1 {
			collapsed++
		}
		misc.ErrorCheck(writer.Write(assignment.Assignment{ReadID: readID, TaxID: taxID}))
	}
	misc.ErrorCheck(writer.Flush())
	log.Printf("\tnumber of reads: %d", writer.Count())
	log.Printf("\tnumber of reads with more than one taxon: %d", collapsed)
	log.Println("finished")
	log.Printf("time taken: %v", time.Since(start))
}
