// Package lineage finds the genus and species ancestors of taxa and records which of them the reference database can reach
package lineage

import (
	"log"
	"sort"

	"github.com/will-rowe/taxbench/src/taxonomy"
)

// Ranks are the evaluated ranks, most general first
var Ranks = []taxonomy.Rank{taxonomy.Genus, taxonomy.Species}

// Pair holds the genus and species ancestors of a taxon, 0 means there is no ancestor at that rank
type Pair struct {
	Genus   int
	Species int
}

// At returns the ancestor at one of the evaluated ranks
func (pair Pair) At(rank taxonomy.Rank) int {
	switch rank {
	case taxonomy.Genus:
		return pair.Genus
	case taxonomy.Species:
		return pair.Species
	}
	return 0
}

// Outcome reports the data quality of a lineage lookup
type Outcome struct {
	Fallback bool // the genus was taken from the parent of the species
	Unknown  bool // the taxon is not in the taxonomy
}

// Resolve finds the lineage pair for a taxon.
// If there is no genus ancestor, the parent of the species ancestor stands in for it (some viral lineages skip
// the genus rank). If there is no species ancestor either, the genus is left empty.
func Resolve(tax taxonomy.Taxonomy, id int) (Pair, Outcome) {
	pair, outcome := Pair{}, Outcome{}
	if id == taxonomy.Unclassified {
		return pair, outcome
	}
	if _, ok := tax.Node(id); !ok {
		outcome.Unknown = true
		return pair, outcome
	}
	species, hasSpecies := tax.Parent(id, taxonomy.Species)
	if hasSpecies {
		pair.Species = species.ID
	}
	if genus, ok := tax.Parent(id, taxonomy.Genus); ok {
		pair.Genus = genus.ID
		return pair, outcome
	}
	if hasSpecies && species.Parent != species.ID && species.Parent != tax.Root().ID {
		if parent, ok := tax.Node(species.Parent); ok {
			pair.Genus = parent.ID
			outcome.Fallback = true
		}
	}
	return pair, outcome
}

// entry is a memoised lookup
type entry struct {
	pair    Pair
	outcome Outcome
}

// Cache memoises lineage pairs by taxon id. It is not safe for concurrent use, each evaluation worker owns one.
type Cache struct {
	tax     taxonomy.Taxonomy
	entries map[int]entry
	max     int

	Verbose   bool // log every fallback and unknown taxon
	Hits      int
	Misses    int
	Fallbacks int
	Unknown   int
}

// NewCache returns a cache sized for the expected number of distinct taxa.
// Once max entries are held, new lineages are still computed but no longer stored (max <= 0 means no limit).
func NewCache(tax taxonomy.Taxonomy, sizeHint, max int) *Cache {
	if sizeHint < 0 {
		sizeHint = 0
	}
	if max > 0 && sizeHint > max {
		sizeHint = max
	}
	return &Cache{
		tax:     tax,
		entries: make(map[int]entry, sizeHint),
		max:     max,
	}
}

// Get returns the lineage pair for a taxon
func (cache *Cache) Get(id int) Pair {
	pair, _ := cache.Lookup(id)
	return pair
}

// Lookup returns the lineage pair for a taxon and the outcome of resolving it, cached or not.
// The Fallbacks and Unknown counters only move when a taxon is resolved.
func (cache *Cache) Lookup(id int) (Pair, Outcome) {
	if e, ok := cache.entries[id]; ok {
		cache.Hits++
		return e.pair, e.outcome
	}
	cache.Misses++
	pair, outcome := Resolve(cache.tax, id)
	if outcome.Fallback {
		cache.Fallbacks++
		if cache.Verbose {
			log.Printf("\ttax id %d has no genus node, using %d (parent of species %d)", id, pair.Genus, pair.Species)
		}
	}
	if outcome.Unknown {
		cache.Unknown++
		if cache.Verbose {
			log.Printf("\ttax id %d is not in the taxonomy", id)
		}
	}
	if cache.max <= 0 || len(cache.entries) < cache.max {
		cache.entries[id] = entry{pair: pair, outcome: outcome}
	}
	return pair, outcome
}

// Len returns the number of stored lineages
func (cache *Cache) Len() int {
	return len(cache.entries)
}

// ReferenceSet holds, for each evaluated rank, the taxa reachable from the reference database
type ReferenceSet struct {
	sets      map[taxonomy.Rank]map[int]struct{}
	fallbacks map[int]struct{}

	// NoSpecies counts reference taxa without a species ancestor
	NoSpecies int
}

// BuildReferenceSet looks up the lineage of every reference taxon, warming the cache as it goes
func BuildReferenceSet(cache *Cache, taxIDs []int) *ReferenceSet {
	refSet := &ReferenceSet{
		sets:      make(map[taxonomy.Rank]map[int]struct{}, len(Ranks)),
		fallbacks: make(map[int]struct{}),
	}
	for _, rank := range Ranks {
		refSet.sets[rank] = make(map[int]struct{})
	}
	for _, taxID := range taxIDs {
		pair, outcome := cache.Lookup(taxID)
		if outcome.Fallback {
			refSet.fallbacks[taxID] = struct{}{}
		}
		if pair.Species == 0 {
			refSet.NoSpecies++
			if cache.Verbose {
				log.Printf("\treference tax id %d has no species node", taxID)
			}
		}
		for _, rank := range Ranks {
			if id := pair.At(rank); id != 0 {
				refSet.sets[rank][id] = struct{}{}
			}
		}
	}
	return refSet
}

// Contains reports whether a taxon at the given rank is reachable from the reference
func (refSet *ReferenceSet) Contains(rank taxonomy.Rank, id int) bool {
	_, ok := refSet.sets[rank][id]
	return ok
}

// Len returns the number of reachable taxa at a rank
func (refSet *ReferenceSet) Len(rank taxonomy.Rank) int {
	return len(refSet.sets[rank])
}

// IDs returns the reachable taxa at a rank in ascending order
func (refSet *ReferenceSet) IDs(rank taxonomy.Rank) []int {
	ids := make([]int, 0, len(refSet.sets[rank]))
	for id := range refSet.sets[rank] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// FallbackTaxa returns, in ascending order, the reference taxa whose genus came from the parent of the species
func (refSet *ReferenceSet) FallbackTaxa() []int {
	ids := make([]int, 0, len(refSet.fallbacks))
	for id := range refSet.fallbacks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Equal reports whether two reference sets hold the same taxa at every evaluated rank
func (refSet *ReferenceSet) Equal(other *ReferenceSet) bool {
	for _, rank := range Ranks {
		if len(refSet.sets[rank]) != len(other.sets[rank]) {
			return false
		}
		for id := range refSet.sets[rank] {
			if !other.Contains(rank, id) {
				return false
			}
		}
	}
	return true
}
