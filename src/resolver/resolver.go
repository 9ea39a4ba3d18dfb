// Package resolver reduces the alignments of each read to a single taxon id
package resolver

import (
	"errors"
	"fmt"
	"io"

	"github.com/will-rowe/taxbench/src/alignment"
	"github.com/will-rowe/taxbench/src/assignment"
	"github.com/will-rowe/taxbench/src/taxonomy"
)

var (
	// ErrReadOutOfSequence is returned when a read id reappears after its alignments have been closed out
	ErrReadOutOfSequence = errors.New("read id appeared more than once out of sequence")

	// ErrUnknownAccession is returned when an alignment references an accession missing from the accession table
	ErrUnknownAccession = errors.New("accession not found in accession table")
)

// Lookup maps a reference name to a taxon id
type Lookup interface {
	Lookup(reference string) (int, bool)
}

// Options control how the alignments of a read are reduced
type Options struct {
	TopMapQ         bool // only keep the alignments with the highest MAPQ (ties are kept)
	ExcludeUnmapped bool // drop records with no mapping location instead of treating them as taxon 0
	SpeciesLevel    bool // resolve to 0 when the result has no species ancestor
}

// Stats records what the resolver did
type Stats struct {
	Records            int // alignment records read
	Groups             int // reads resolved
	LCAGroups          int // reads with more than one candidate taxon
	ForcedUnclassified int // reads set to 0 by the species-level rule
	Unclassified       int // reads resolved to 0
}

// Resolver is a streaming reducer over runs of alignment records that share a read id.
// Records for one read must be contiguous, a read id seen again after another read has started is an error.
type Resolver struct {
	src     alignment.Source
	table   Lookup
	tax     taxonomy.Taxonomy
	opts    Options
	closed  map[string]struct{}
	group   []alignment.Record
	pending alignment.Record
	hasNext bool
	done    bool
	stats   Stats
}

// New returns a Resolver. The taxonomy is needed for LCA reduction and the species-level rule.
func New(src alignment.Source, table Lookup, tax taxonomy.Taxonomy, opts Options) (*Resolver, error) {
	if src == nil || table == nil {
		return nil, fmt.Errorf("resolver needs an alignment source and an accession table")
	}
	if tax == nil {
		return nil, fmt.Errorf("resolver needs a taxonomy")
	}
	return &Resolver{
		src:    src,
		table:  table,
		tax:    tax,
		opts:   opts,
		closed: make(map[string]struct{}),
	}, nil
}

// Stats returns a copy of the resolver counts
func (resolver *Resolver) Stats() Stats {
	return resolver.stats
}

// Next returns the assignment for the next read, ending with io.EOF
func (resolver *Resolver) Next() (assignment.Assignment, error) {
	resolver.group = resolver.group[:0]
	if resolver.hasNext {
		resolver.group = append(resolver.group, resolver.pending)
		resolver.hasNext = false
	}
	for !resolver.done {
		rec, err := resolver.src.Read()
		if err == io.EOF {
			resolver.done = true
			break
		}
		if err != nil {
			return assignment.Assignment{}, err
		}
		resolver.stats.Records++
		if len(resolver.group) != 0 && rec.ReadID != resolver.group[0].ReadID {
			resolver.pending, resolver.hasNext = rec, true
			break
		}
		resolver.group = append(resolver.group, rec)
	}
	if len(resolver.group) == 0 {
		return assignment.Assignment{}, io.EOF
	}

	readID := resolver.group[0].ReadID
	if _, ok := resolver.closed[readID]; ok {
		return assignment.Assignment{}, fmt.Errorf("%w: %v", ErrReadOutOfSequence, readID)
	}
	resolver.closed[readID] = struct{}{}

	taxID, err := resolver.resolve(resolver.group)
	if err != nil {
		return assignment.Assignment{}, fmt.Errorf("could not resolve read %v: %w", readID, err)
	}
	resolver.stats.Groups++
	if taxID == taxonomy.Unclassified {
		resolver.stats.Unclassified++
	}
	return assignment.Assignment{ReadID: readID, TaxID: taxID}, nil
}

// resolve reduces the records of a single read to one taxon id
func (resolver *Resolver) resolve(group []alignment.Record) (int, error) {
	if resolver.opts.TopMapQ {
		group = FilterTopMapQ(group)
	}
	taxa := make([]int, 0, len(group))
	for _, rec := range group {
		taxID := taxonomy.Unclassified
		if rec.Mapped {
			var ok bool
			taxID, ok = resolver.table.Lookup(rec.Reference)
			if !ok {
				return 0, fmt.Errorf("%w: %v", ErrUnknownAccession, rec.Reference)
			}
		} else if resolver.opts.ExcludeUnmapped {
			continue
		}
		taxa = append(taxa, taxID)
	}
	taxa = distinct(taxa)
	if len(taxa) > 1 {
		resolver.stats.LCAGroups++
	}
	taxID, err := CollapseLCA(resolver.tax, taxa)
	if err != nil {
		return 0, err
	}
	if resolver.opts.SpeciesLevel && taxID != taxonomy.Unclassified {
		if _, ok := resolver.tax.Parent(taxID, taxonomy.Species); !ok {
			resolver.stats.ForcedUnclassified++
			return taxonomy.Unclassified, nil
		}
	}
	return taxID, nil
}

// FilterTopMapQ keeps the records whose MAPQ equals the highest MAPQ in the group, ties are all kept
func FilterTopMapQ(group []alignment.Record) []alignment.Record {
	if len(group) == 0 {
		return group
	}
	top := group[0].MapQ
	for _, rec := range group[1:] {
		if rec.MapQ > top {
			top = rec.MapQ
		}
	}
	kept := make([]alignment.Record, 0, len(group))
	for _, rec := range group {
		if rec.MapQ == top {
			kept = append(kept, rec)
		}
	}
	return kept
}

// CollapseLCA folds a list of taxa into their lowest common ancestor, left to right.
// An empty list gives 0 and an unclassified taxon (0) in the list makes the result 0.
func CollapseLCA(tax taxonomy.Taxonomy, taxa []int) (int, error) {
	taxa = distinct(taxa)
	if len(taxa) == 0 {
		return taxonomy.Unclassified, nil
	}
	lca := taxa[0]
	for _, taxID := range taxa[1:] {
		if lca == taxonomy.Unclassified || taxID == taxonomy.Unclassified {
			return taxonomy.Unclassified, nil
		}
		node, err := tax.LCA(lca, taxID)
		if err != nil {
			return 0, err
		}
		lca = node.ID
	}
	return lca, nil
}

// distinct removes repeated taxa, keeping the order of first appearance
func distinct(taxa []int) []int {
	if len(taxa) < 2 {
		return taxa
	}
	seen := make(map[int]struct{}, len(taxa))
	kept := make([]int, 0, len(taxa))
	for _, taxID := range taxa {
		if _, ok := seen[taxID]; ok {
			continue
		}
		seen[taxID] = struct{}{}
		kept = append(kept, taxID)
	}
	return kept
}
