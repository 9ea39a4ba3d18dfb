// Package evaluate compares a classifier's read assignments with the ground truth at the genus and species ranks
package evaluate

import (
	"fmt"
	"log"
	"sync"

	"github.com/minio/highwayhash"
	"github.com/will-rowe/taxbench/src/assignment"
	"github.com/will-rowe/taxbench/src/lineage"
	"github.com/will-rowe/taxbench/src/taxonomy"
)

// BUFFERSIZE is the size of the buffer used by the worker channels
const BUFFERSIZE int = 64

// Ranks are the evaluated ranks in report order
var Ranks = lineage.Ranks

// shardKey is the highwayhash key used to assign reads to workers
var shardKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// UnclassifiedPolicy decides what happens to reads whose ground truth taxon is 0
type UnclassifiedPolicy int

const (
	// IncludeUnclassified evaluates these reads with an empty lineage
	IncludeUnclassified UnclassifiedPolicy = iota
	// ExcludeUnclassified removes these reads from every rank
	ExcludeUnclassified
)

// Options control an evaluation
type Options struct {
	Unclassified     UnclassifiedPolicy
	OutsideReference bool // only count reads whose true taxon the reference cannot reach
	Verbose          bool // log every data quality warning
	Workers          int  // number of workers, reads are sharded by read id
	CacheLimit       int  // maximum lineages held per cache (0 = no limit)
}

// Result holds the counts for every evaluated rank along with data quality tallies
type Result struct {
	Counts          map[taxonomy.Rank]Counts
	Reads           int // reads counted
	Skipped         int // reads removed by the unclassified policy or the outside reference filter
	Fallbacks       int // distinct reference and read taxa whose genus came from the parent of the species
	Unknown         int // distinct read taxa not found in the taxonomy
	UnresolvedTruth int // classified ground truth reads with no genus or species ancestor

	fallbackTaxa map[int]struct{}
	unknownTaxa  map[int]struct{}
}

// FallbacksOccurred reports whether any lineage needed the genus fallback
func (result *Result) FallbacksOccurred() bool {
	return result.Fallbacks > 0
}

// newResult returns a Result with zeroed counts for each rank
func newResult() *Result {
	result := &Result{
		Counts:       make(map[taxonomy.Rank]Counts, len(lineage.Ranks)),
		fallbackTaxa: make(map[int]struct{}),
		unknownTaxa:  make(map[int]struct{}),
	}
	for _, rank := range lineage.Ranks {
		result.Counts[rank] = Counts{}
	}
	return result
}

// merge adds another result into this one
func (result *Result) merge(other *Result) {
	for rank, counts := range other.Counts {
		merged := result.Counts[rank]
		merged.Add(counts)
		result.Counts[rank] = merged
	}
	result.Reads += other.Reads
	result.Skipped += other.Skipped
	result.UnresolvedTruth += other.UnresolvedTruth
	for id := range other.fallbackTaxa {
		result.fallbackTaxa[id] = struct{}{}
	}
	for id := range other.unknownTaxa {
		result.unknownTaxa[id] = struct{}{}
	}
}

// record notes the data quality of a taxon lookup
func (result *Result) record(id int, outcome lineage.Outcome) {
	if outcome.Fallback {
		result.fallbackTaxa[id] = struct{}{}
	}
	if outcome.Unknown {
		result.unknownTaxa[id] = struct{}{}
	}
}

// finish folds in the reference fallbacks and sets the data quality tallies
func (result *Result) finish(refSet *lineage.ReferenceSet) {
	for _, id := range refSet.FallbackTaxa() {
		result.fallbackTaxa[id] = struct{}{}
	}
	result.Fallbacks = len(result.fallbackTaxa)
	result.Unknown = len(result.unknownTaxa)
}

// Evaluator holds the reference set and lineage cache for a run, it may evaluate several classifiers
type Evaluator struct {
	tax    taxonomy.Taxonomy
	opts   Options
	refSet *lineage.ReferenceSet
	cache  *lineage.Cache
}

// New builds the reference set from the taxa of the reference accession table and warms the lineage cache
func New(tax taxonomy.Taxonomy, refTaxIDs []int, opts Options) *Evaluator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	cache := lineage.NewCache(tax, 2*len(refTaxIDs), opts.CacheLimit)
	cache.Verbose = opts.Verbose
	refSet := lineage.BuildReferenceSet(cache, refTaxIDs)
	if refSet.NoSpecies != 0 {
		log.Printf("\t%d reference tax ids have no species node", refSet.NoSpecies)
	}
	return &Evaluator{
		tax:    tax,
		opts:   opts,
		refSet: refSet,
		cache:  cache,
	}
}

// ReferenceSet returns the taxa reachable from the reference
func (ev *Evaluator) ReferenceSet() *lineage.ReferenceSet {
	return ev.refSet
}

// Evaluate compares the predicted assignments with the ground truth, a read missing from the predictions is unclassified
func (ev *Evaluator) Evaluate(truth, predicted assignment.Map) (*Result, error) {
	if len(truth) == 0 {
		return nil, fmt.Errorf("no ground truth reads to evaluate")
	}
	var result *Result
	if ev.opts.Workers == 1 {
		result = ev.evaluateSerial(truth, predicted)
	} else {
		result = ev.evaluateSharded(truth, predicted)
	}
	result.finish(ev.refSet)
	if result.Fallbacks > 0 && !ev.opts.Verbose {
		log.Printf("a tax id that did not have a genus node was found (%d tax ids used the parent of the species)", result.Fallbacks)
		log.Printf("provide option '--verbose' to log all tax ids without genus nodes")
	}
	if result.Unknown > 0 {
		log.Printf("%d tax ids were not found in the taxonomy", result.Unknown)
	}
	if result.UnresolvedTruth > 0 && ev.opts.Unclassified == ExcludeUnclassified {
		log.Printf("%d ground truth reads have a tax id without genus or species ancestors, they are counted as unclassified", result.UnresolvedTruth)
	}
	return result, nil
}

// evaluateSerial runs the pass in the foreground using the evaluator's own cache
func (ev *Evaluator) evaluateSerial(truth, predicted assignment.Map) *Result {
	w := ev.newWorker(ev.cache)
	for readID, trueID := range truth {
		w.tally(trueID, predicted.Get(readID))
	}
	return w.result
}

// evaluateSharded splits the reads between workers by a hash of the read id, each worker has its own cache and
// counts which are summed once every worker is done
func (ev *Evaluator) evaluateSharded(truth, predicted assignment.Map) *Result {
	result := newResult()
	var mu sync.Mutex
	var wg sync.WaitGroup
	inputs := make([]chan assignment.Assignment, ev.opts.Workers)
	for i := range inputs {
		inputs[i] = make(chan assignment.Assignment, BUFFERSIZE)
		wg.Add(1)
		go func(input <-chan assignment.Assignment) {
			defer wg.Done()
			cache := lineage.NewCache(ev.tax, ev.refSet.Len(taxonomy.Species), ev.opts.CacheLimit)
			cache.Verbose = ev.opts.Verbose
			w := ev.newWorker(cache)
			for read := range input {
				w.tally(read.TaxID, predicted.Get(read.ReadID))
			}
			mu.Lock()
			result.merge(w.result)
			mu.Unlock()
		}(inputs[i])
	}
	for readID, trueID := range truth {
		inputs[shardOf(readID, len(inputs))] <- assignment.Assignment{ReadID: readID, TaxID: trueID}
	}
	for _, input := range inputs {
		close(input)
	}
	wg.Wait()
	return result
}

// shardOf assigns a read to a worker
func shardOf(readID string, workers int) int {
	return int(highwayhash.Sum64([]byte(readID), shardKey) % uint64(workers))
}

// worker accumulates the counts for a subset of reads
type worker struct {
	ev     *Evaluator
	cache  *lineage.Cache
	result *Result
}

func (ev *Evaluator) newWorker(cache *lineage.Cache) *worker {
	return &worker{ev: ev, cache: cache, result: newResult()}
}

func (w *worker) lookup(id int) lineage.Pair {
	pair, outcome := w.cache.Lookup(id)
	w.result.record(id, outcome)
	return pair
}

// tally classifies one read at every evaluated rank
func (w *worker) tally(trueID, predID int) {
	if trueID == taxonomy.Unclassified && w.ev.opts.Unclassified == ExcludeUnclassified {
		w.result.Skipped++
		return
	}
	truePair := w.lookup(trueID)
	if trueID != taxonomy.Unclassified && truePair == (lineage.Pair{}) {
		w.result.UnresolvedTruth++
	}
	if w.ev.opts.OutsideReference && w.ev.inReference(truePair) {
		w.result.Skipped++
		return
	}
	predPair := w.lookup(predID)
	for _, rank := range lineage.Ranks {
		trueAt := truePair.At(rank)
		counts := w.result.Counts[rank]
		counts.Increment(Classify(trueAt, predPair.At(rank), w.ev.refSet.Contains(rank, trueAt)))
		w.result.Counts[rank] = counts
	}
	w.result.Reads++
}

// inReference reports whether the most specific ancestor of a lineage is reachable from the reference
func (ev *Evaluator) inReference(pair lineage.Pair) bool {
	switch {
	case pair.Species != 0:
		return ev.refSet.Contains(taxonomy.Species, pair.Species)
	case pair.Genus != 0:
		return ev.refSet.Contains(taxonomy.Genus, pair.Genus)
	}
	return false
}
