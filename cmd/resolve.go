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

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/will-rowe/taxbench/src/accession"
	"github.com/will-rowe/taxbench/src/alignment"
	"github.com/will-rowe/taxbench/src/misc"
	"github.com/will-rowe/taxbench/src/pipeline"
	"github.com/will-rowe/taxbench/src/taxonomy"
	"github.com/will-rowe/taxbench/src/version"
)

// the command line arguments
var (
	accTable        *string // accession to taxon id table for the reference sequences
	alignments      *string // SAM/BAM file of read alignments
	taxDir          *string // NCBI taxdump directory or taxonomy cache
	resolveOut      *string // file to write the read assignments to
	topMapq         *bool   // only keep the alignments with the highest MAPQ for each read
	excludeUnmapped *bool   // ignore unmapped records when a read has other alignments
	speciesLevel    *bool   // set reads resolved above the species rank to unclassified
)

// the resolve command (used by cobra)
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the alignments of each read to a single taxon",
	Long: `Resolve the alignments of each read to a single taxon.

The alignments of a read must be next to each other in the SAM/BAM file (as aligners write them).
Reads with more than one candidate taxon are assigned the lowest common ancestor of the candidates.`,
	Run: func(cmd *cobra.Command, args []string) {
		runResolve()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	accTable = resolveCmd.Flags().StringP("accessions", "a", "", "accession to taxon id table for the reference sequences - required")
	alignments = resolveCmd.Flags().StringP("alignments", "s", misc.STDIN, "SAM/BAM file of read alignments (- for STDIN)")
	taxDir = resolveCmd.Flags().StringP("taxonomy", "t", "", "NCBI taxdump directory (or taxonomy cache) - required")
	resolveOut = resolveCmd.Flags().StringP("out", "o", "-", "file to write the read assignments to (- for STDOUT)")
	topMapq = resolveCmd.Flags().Bool("topMapq", false, "only use the alignments with the highest MAPQ for each read")
	excludeUnmapped = resolveCmd.Flags().Bool("excludeUnmapped", false, "ignore unmapped records when resolving a read")
	speciesLevel = resolveCmd.Flags().Bool("speciesLevel", false, "set reads resolved above the species rank to unclassified")
	resolveCmd.MarkFlagRequired("accessions")
	resolveCmd.MarkFlagRequired("taxonomy")
	RootCmd.AddCommand(resolveCmd)
}

// a function to check user supplied parameters
func resolveParamCheck() error {
	if err := misc.CheckFile(*accTable); err != nil {
		return err
	}
	if err := misc.CheckFile(*alignments); err != nil {
		return err
	}
	if *alignments != misc.STDIN {
		if err := misc.CheckExt(*alignments, []string{"sam", "bam"}); err != nil {
			return err
		}
	}
	if err := misc.CheckFile(*taxDir); err != nil {
		return fmt.Errorf("can't find the taxonomy: %v", err)
	}
	*proc = misc.SetProcessors(*proc)
	return nil
}

/*
The main function for the resolve sub-command
*/
func runResolve() {
	// set up profiling
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	// start logging
	logFH := misc.StartLogging(*logFile)
	defer logFH.Close()
	start := time.Now()
	log.Printf("i am taxbench (version %s)", version.GetVersion())
	log.Printf("starting the resolve subcommand")

	// check the supplied files and then log some stuff
	log.Printf("checking parameters...")
	misc.ErrorCheck(resolveParamCheck())
	info := &pipeline.Info{
		Version:   version.GetVersion(),
		NumProc:   *proc,
		Profiling: *profiling,
		Resolve: pipeline.ResolveCmd{
			AccessionTable:  *accTable,
			Alignments:      *alignments,
			Taxonomy:        *taxDir,
			Output:          *resolveOut,
			TopMapQ:         *topMapq,
			ExcludeUnmapped: *excludeUnmapped,
			SpeciesLevel:    *speciesLevel,
		},
	}
	info.LogParameters()

	// load the accession table and the taxonomy
	log.Printf("loading the accession table...")
	table, err := accession.Load(*accTable)
	misc.ErrorCheck(err)
	log.Printf("\tnumber of accessions: %d", len(table))
	info.AttachTable(table)
	log.Printf("loading the taxonomy...")
	tax, err := taxonomy.Load(*taxDir)
	misc.ErrorCheck(err)
	log.Printf("\tnumber of taxonomy nodes: %d", tax.Size())
	if tax.UnknownRanks != 0 {
		log.Printf("\tnumber of nodes with an unrecognised rank: %d", tax.UnknownRanks)
	}
	info.AttachTaxonomy(tax)

	// open the input and output
	reader, err := alignment.Open(*alignments)
	misc.ErrorCheck(err)
	defer reader.Close()
	outFH, err := openOutput(*resolveOut)
	misc.ErrorCheck(err)
	defer outFH.Close()

	// create the pipeline
	log.Printf("initialising resolve pipeline...")
	resolvePipeline := pipeline.NewPipeline(info)

	// initialise processes
	log.Printf("\tinitialising the processes")
	alignmentStreamer := pipeline.NewAlignmentStreamer(info)
	readResolver := pipeline.NewReadResolver(info)
	assignmentWriter := pipeline.NewAssignmentWriter(info, outFH)

	// connect the pipeline processes
	log.Printf("\tconnecting data streams")
	alignmentStreamer.Connect(reader)
	readResolver.Connect(alignmentStreamer)
	assignmentWriter.Connect(readResolver)

	// submit each process to the pipeline and run it
	resolvePipeline.AddProcesses(alignmentStreamer, readResolver, assignmentWriter)
	log.Printf("\tnumber of processes added to the resolve pipeline: %d", resolvePipeline.GetNumProcesses())
	log.Print("resolving reads...")
	misc.ErrorCheck(resolvePipeline.Run())
	log.Println("finished")
	log.Printf("time taken: %v", time.Since(start))
}
