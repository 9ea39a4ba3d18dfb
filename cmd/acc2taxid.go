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
	"compress/gzip"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/will-rowe/taxbench/src/accession"
	"github.com/will-rowe/taxbench/src/misc"
	"github.com/will-rowe/taxbench/src/version"
)

// the command line arguments
var (
	mappingFile   *string // NCBI accession2taxid file
	referenceFile *string // FASTA file of the reference database
	acc2taxidOut  *string // file to write the reference accession table to
)

// the acc2taxid command (used by cobra)
var acc2taxidCmd = &cobra.Command{
	Use:   "acc2taxid",
	Short: "Build the accession table for a reference database from an NCBI accession2taxid file",
	Long: `Build the accession table for a reference database from an NCBI accession2taxid file.

Only the accessions of sequences in the reference FASTA file are kept.`,
	Run: func(cmd *cobra.Command, args []string) {
		runAcc2taxid()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	mappingFile = acc2taxidCmd.Flags().StringP("mapping", "m", "", "NCBI accession2taxid file (can be gzipped) - required")
	referenceFile = acc2taxidCmd.Flags().StringP("fasta", "f", "", "FASTA file of the reference database - required")
	acc2taxidOut = acc2taxidCmd.Flags().StringP("out", "o", "-", "file to write the accession table to (- for STDOUT)")
	acc2taxidCmd.MarkFlagRequired("mapping")
	acc2taxidCmd.MarkFlagRequired("fasta")
	RootCmd.AddCommand(acc2taxidCmd)
}

// a function to check user supplied parameters
func acc2taxidParamCheck() error {
	if err := misc.CheckFile(*mappingFile); err != nil {
		return err
	}
	if err := misc.CheckFile(*referenceFile); err != nil {
		return err
	}
	return misc.CheckExt(*referenceFile, []string{"fasta", "fa", "fna", "fas"})
}

/*
The main function for the acc2taxid sub-command
*/
func runAcc2taxid() {
	// start logging
	logFH := misc.StartLogging(*logFile)
	defer logFH.Close()
	start := time.Now()
	log.Printf("i am taxbench (version %s)", version.GetVersion())
	log.Printf("starting the acc2taxid subcommand")
	log.Printf("checking parameters...")
	misc.ErrorCheck(acc2taxidParamCheck())
	log.Printf("\taccession2taxid file: %v", *mappingFile)
	log.Printf("\treference file: %v", *referenceFile)

	// open the input, handling gzipped files
	mapping, err := openMaybeGzipped(*mappingFile)
	misc.ErrorCheck(err)
	defer mapping.Close()
	reference, err := openMaybeGzipped(*referenceFile)
	misc.ErrorCheck(err)
	defer reference.Close()
	outFH, err := openOutput(*acc2taxidOut)
	misc.ErrorCheck(err)
	defer outFH.Close()

	// filter the mapping
	log.Printf("filtering the accession2taxid file...")
	kept, err := accession.FilterByReference(mapping, reference, outFH)
	misc.ErrorCheck(err)
	log.Printf("\tnumber of accessions written: %d", kept)
	log.Println("finished")
	log.Printf("time taken: %v", time.Since(start))
}

// gzipFile closes the gzip reader and the file below it
type gzipFile struct {
	*gzip.Reader
	fh *os.File
}

func (gz gzipFile) Close() error {
	gz.Reader.Close()
	return gz.fh.Close()
}

// openMaybeGzipped opens a file, decompressing it if it ends with .gz
func openMaybeGzipped(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return fh, nil
	}
	gz, err := gzip.NewReader(fh)
	if err != nil {
		fh.Close()
		return nil, err
	}
	return gzipFile{Reader: gz, fh: fh}, nil
}
