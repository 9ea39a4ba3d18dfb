package lineage

import (
	"testing"

	"github.com/will-rowe/taxbench/src/taxonomy"
)

var testNodes = "../taxonomy/test-data/nodes.dmp"

func loadTestTaxonomy(t *testing.T) *taxonomy.NCBI {
	t.Helper()
	tax, err := taxonomy.Load(testNodes)
	if err != nil {
		t.Fatalf("could not load test taxonomy: %v", err)
	}
	return tax
}

func TestResolve(t *testing.T) {
	tax := loadTestTaxonomy(t)
	tests := []struct {
		id      int
		want    Pair
		outcome Outcome
	}{
		{0, Pair{}, Outcome{}},
		{100, Pair{50, 100}, Outcome{}},
		{101, Pair{50, 100}, Outcome{}},
		{50, Pair{50, 0}, Outcome{}},
		{3, Pair{}, Outcome{}},
		{400, Pair{70, 400}, Outcome{Fallback: true}},
		{401, Pair{70, 400}, Outcome{Fallback: true}},
		{900, Pair{}, Outcome{}},
		{12345, Pair{}, Outcome{Unknown: true}},
	}
	for _, test := range tests {
		got, outcome := Resolve(tax, test.id)
		if got != test.want || outcome != test.outcome {
			t.Errorf("Resolve(%d) = %+v %+v, want %+v %+v", test.id, got, outcome, test.want, test.outcome)
		}
	}
	if Pair.At(Pair{50, 100}, taxonomy.Family) != 0 {
		t.Errorf("only genus and species are evaluated")
	}
}

func TestCache(t *testing.T) {
	tax := loadTestTaxonomy(t)
	cache := NewCache(tax, 4, 0)
	for _, id := range []int{100, 101, 100, 401, 401, 12345} {
		cache.Get(id)
	}
	if cache.Hits != 2 || cache.Misses != 4 {
		t.Errorf("expected 2 hits and 4 misses, got %d and %d", cache.Hits, cache.Misses)
	}
	if cache.Fallbacks != 1 || cache.Unknown != 1 {
		t.Errorf("expected 1 fallback and 1 unknown, got %d and %d", cache.Fallbacks, cache.Unknown)
	}

	// a bounded cache keeps answering once it is full
	bounded := NewCache(tax, 10, 1)
	if bounded.Get(100) != (Pair{50, 100}) || bounded.Get(200) != (Pair{60, 200}) {
		t.Fatalf("bounded cache returned a wrong pair")
	}
	if bounded.Len() != 1 {
		t.Errorf("bounded cache should hold 1 entry, holds %d", bounded.Len())
	}
	bounded.Get(200)
	if bounded.Misses != 3 {
		t.Errorf("an entry beyond the bound should be recomputed, got %d misses", bounded.Misses)
	}
}

// a cached taxon still reports how it was resolved
func TestCacheLookupOutcome(t *testing.T) {
	tax := loadTestTaxonomy(t)
	cache := NewCache(tax, 2, 0)
	for i := 0; i < 2; i++ {
		pair, outcome := cache.Lookup(401)
		if pair != (Pair{70, 400}) || !outcome.Fallback {
			t.Errorf("lookup %d of 401 = %+v %+v, want the genus fallback", i, pair, outcome)
		}
		if _, outcome := cache.Lookup(12345); !outcome.Unknown {
			t.Errorf("lookup %d of 12345 should be unknown", i)
		}
	}
	if cache.Hits != 2 || cache.Fallbacks != 1 || cache.Unknown != 1 {
		t.Errorf("counters should only move on a miss: %d hits, %d fallbacks, %d unknown", cache.Hits, cache.Fallbacks, cache.Unknown)
	}
}

func TestReferenceSet(t *testing.T) {
	tax := loadTestTaxonomy(t)
	refTaxa := []int{100, 101, 401, 900}
	refSet := BuildReferenceSet(NewCache(tax, len(refTaxa), 0), refTaxa)
	if !refSet.Contains(taxonomy.Species, 100) || !refSet.Contains(taxonomy.Species, 400) {
		t.Errorf("species set is missing reference species: %v", refSet.IDs(taxonomy.Species))
	}
	if !refSet.Contains(taxonomy.Genus, 50) || !refSet.Contains(taxonomy.Genus, 70) {
		t.Errorf("genus set is missing reference genera: %v", refSet.IDs(taxonomy.Genus))
	}
	if refSet.Len(taxonomy.Species) != 2 || refSet.Len(taxonomy.Genus) != 2 {
		t.Errorf("unexpected set sizes: %v %v", refSet.IDs(taxonomy.Genus), refSet.IDs(taxonomy.Species))
	}
	if refSet.NoSpecies != 1 {
		t.Errorf("expected one reference taxon without species, got %d", refSet.NoSpecies)
	}
	if fallbacks := refSet.FallbackTaxa(); len(fallbacks) != 1 || fallbacks[0] != 401 {
		t.Errorf("expected 401 to be the only fallback reference taxon, got %v", fallbacks)
	}
	if refSet.Contains(taxonomy.Species, 200) || refSet.Contains(taxonomy.Genus, 60) {
		t.Errorf("taxa outside the reference were reported as reachable")
	}
}

// building the set twice, from any ordering of the same input, gives the same set
func TestReferenceSetIsDeterministic(t *testing.T) {
	tax := loadTestTaxonomy(t)
	first := BuildReferenceSet(NewCache(tax, 0, 0), []int{100, 200, 401, 500, 101})
	second := BuildReferenceSet(NewCache(tax, 0, 0), []int{101, 500, 401, 200, 100, 100})
	if !first.Equal(second) || !second.Equal(first) {
		t.Fatalf("reference sets differ: %v/%v vs %v/%v", first.IDs(taxonomy.Genus), first.IDs(taxonomy.Species), second.IDs(taxonomy.Genus), second.IDs(taxonomy.Species))
	}
	third := BuildReferenceSet(NewCache(tax, 0, 0), []int{100})
	if first.Equal(third) {
		t.Errorf("different reference sets compared equal")
	}
}
