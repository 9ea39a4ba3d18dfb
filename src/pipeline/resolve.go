package pipeline

/*
 this part of the pipeline streams alignment records, resolves each read to a taxon and writes the assignments
*/

import (
	"io"
	"log"

	"github.com/will-rowe/taxbench/src/alignment"
	"github.com/will-rowe/taxbench/src/assignment"
	"github.com/will-rowe/taxbench/src/misc"
	"github.com/will-rowe/taxbench/src/resolver"
)

// AlignmentStreamer is a pipeline process that streams alignment records from a source
type AlignmentStreamer struct {
	info   *Info
	input  alignment.Source
	output chan alignment.Record
	count  int
}

// NewAlignmentStreamer is the constructor
func NewAlignmentStreamer(info *Info) *AlignmentStreamer {
	return &AlignmentStreamer{info: info, output: make(chan alignment.Record, BUFFERSIZE)}
}

// Connect is the method to connect the AlignmentStreamer to a source of records
func (proc *AlignmentStreamer) Connect(input alignment.Source) {
	proc.input = input
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *AlignmentStreamer) Run() {
	defer close(proc.output)
	for {
		record, err := proc.input.Read()
		if err == io.EOF {
			break
		}
		misc.ErrorCheck(err)
		proc.count++
		proc.output <- record
	}
}

// chanSource lets the resolver pull records from a channel
type chanSource <-chan alignment.Record

// Read returns the next record, or io.EOF once the channel is closed
func (src chanSource) Read() (alignment.Record, error) {
	record, ok := <-src
	if !ok {
		return alignment.Record{}, io.EOF
	}
	return record, nil
}

// ReadResolver is a pipeline process that collapses the alignment records of each read to a single taxon
type ReadResolver struct {
	info   *Info
	input  <-chan alignment.Record
	output chan assignment.Assignment
	stats  resolver.Stats
}

// NewReadResolver is the constructor
func NewReadResolver(info *Info) *ReadResolver {
	return &ReadResolver{info: info, output: make(chan assignment.Assignment, BUFFERSIZE)}
}

// Connect is the method to join the input of this process with the output of an AlignmentStreamer
func (proc *ReadResolver) Connect(previous *AlignmentStreamer) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *ReadResolver) Run() {
	defer close(proc.output)
	res, err := resolver.New(chanSource(proc.input), proc.info.table, proc.info.tax, proc.info.Options())
	misc.ErrorCheck(err)
	for {
		read, err := res.Next()
		if err == io.EOF {
			break
		}
		misc.ErrorCheck(err)
		proc.output <- read
	}
	proc.stats = res.Stats()
	log.Printf("\tnumber of alignment records processed: %d", proc.stats.Records)
	log.Printf("\tnumber of reads resolved: %d", proc.stats.Groups)
	log.Printf("\tnumber of reads needing an LCA: %d", proc.stats.LCAGroups)
	log.Printf("\tnumber of unclassified reads: %d", proc.stats.Unclassified)
	if proc.info.Resolve.SpeciesLevel {
		log.Printf("\tnumber of reads above species level set to unclassified: %d", proc.stats.ForcedUnclassified)
	}
}

// AssignmentWriter is a pipeline process that writes read assignments as tab separated lines
type AssignmentWriter struct {
	info   *Info
	input  <-chan assignment.Assignment
	output io.Writer
	count  int
}

// NewAssignmentWriter is the constructor
func NewAssignmentWriter(info *Info, w io.Writer) *AssignmentWriter {
	return &AssignmentWriter{info: info, output: w}
}

// Connect is the method to join the input of this process with the output of a ReadResolver
func (proc *AssignmentWriter) Connect(previous *ReadResolver) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *AssignmentWriter) Run() {
	writer := assignment.NewWriter(proc.output)
	for read := range proc.input {
		misc.ErrorCheck(writer.Write(read))
	}
	misc.ErrorCheck(writer.Flush())
	proc.count = writer.Count()
	log.Printf("\tnumber of assignments written: %d", proc.count)
}

// Count returns the number of assignments written
func (proc *AssignmentWriter) Count() int {
	return proc.count
}
