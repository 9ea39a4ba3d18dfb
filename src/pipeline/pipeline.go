// Package pipeline streams alignment records through the read resolver and out to a readid2taxid file.
// Each stage is a process joined to the next by a buffered channel.
package pipeline

import (
	"fmt"
	"log"
)

// BUFFERSIZE is the size of the buffer used by the pipeline channels
const BUFFERSIZE int = 64

// process is a pipeline stage
type process interface {
	Run()
}

// Pipeline runs a chain of connected processes against a runtime
type Pipeline struct {
	info      *Info
	processes []process
}

// NewPipeline returns a pipeline for a runtime, a nil runtime skips the resolve checks
func NewPipeline(info *Info) *Pipeline {
	return &Pipeline{info: info}
}

// AddProcess adds a single process to the end of the pipeline
func (Pipeline *Pipeline) AddProcess(proc process) {
	Pipeline.processes = append(Pipeline.processes, proc)
}

// AddProcesses adds several processes, in order
func (Pipeline *Pipeline) AddProcesses(procs ...process) {
	for _, proc := range procs {
		Pipeline.AddProcess(proc)
	}
}

// Run checks the runtime and starts the pipeline, returning once the last process is done.
// Every process runs in a goroutine except the last, which runs in the foreground to control the flow.
func (Pipeline *Pipeline) Run() error {
	if len(Pipeline.processes) == 0 {
		return fmt.Errorf("no processes added to the pipeline")
	}
	if Pipeline.info != nil {
		if err := Pipeline.info.check(); err != nil {
			return err
		}
	}
	log.Printf("\tstarting %d pipeline processes", len(Pipeline.processes))
	last := len(Pipeline.processes) - 1
	for _, process := range Pipeline.processes[:last] {
		go process.Run()
	}
	Pipeline.processes[last].Run()
	return nil
}

// GetNumProcesses returns the number of processes in the pipeline
func (Pipeline *Pipeline) GetNumProcesses() int {
	return len(Pipeline.processes)
}
