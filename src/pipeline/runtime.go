package pipeline

import (
	"fmt"
	"log"

	"github.com/will-rowe/taxbench/src/resolver"
	"github.com/will-rowe/taxbench/src/taxonomy"
)

// Info stores the runtime information
type Info struct {
	Version   string
	NumProc   int
	Profiling bool

	Resolve ResolveCmd

	// the following are attached once loaded
	table resolver.Lookup
	tax   taxonomy.Taxonomy
}

// ResolveCmd stores the runtime info for the resolve command
type ResolveCmd struct {
	AccessionTable  string
	Alignments      string
	Taxonomy        string
	Output          string
	TopMapQ         bool
	ExcludeUnmapped bool
	SpeciesLevel    bool
}

// Options returns the resolver options for the run
func (Info *Info) Options() resolver.Options {
	return resolver.Options{
		TopMapQ:         Info.Resolve.TopMapQ,
		ExcludeUnmapped: Info.Resolve.ExcludeUnmapped,
		SpeciesLevel:    Info.Resolve.SpeciesLevel,
	}
}

// AttachTable is a method to attach the accession table to the runtime
func (Info *Info) AttachTable(table resolver.Lookup) {
	Info.table = table
}

// AttachTaxonomy is a method to attach the taxonomy to the runtime
func (Info *Info) AttachTaxonomy(tax taxonomy.Taxonomy) {
	Info.tax = tax
}

// check makes sure the runtime has everything the resolve pipeline needs
func (Info *Info) check() error {
	if Info.table == nil {
		return fmt.Errorf("no accession table attached to the runtime")
	}
	if Info.tax == nil {
		return fmt.Errorf("no taxonomy attached to the runtime")
	}
	return nil
}

// LogParameters writes the resolve parameters to the log
func (Info *Info) LogParameters() {
	log.Printf("\tprocessors: %d", Info.NumProc)
	log.Printf("\taccession table: %v", Info.Resolve.AccessionTable)
	log.Printf("\talignments: %v", Info.Resolve.Alignments)
	log.Printf("\ttaxonomy: %v", Info.Resolve.Taxonomy)
	log.Printf("\ttop MAPQ only: %v", Info.Resolve.TopMapQ)
	log.Printf("\texclude unmapped: %v", Info.Resolve.ExcludeUnmapped)
	log.Printf("\tspecies level: %v", Info.Resolve.SpeciesLevel)
}
