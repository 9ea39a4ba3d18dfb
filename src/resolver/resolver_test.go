package resolver

import (
	"errors"
	"io"
	"testing"

	"github.com/will-rowe/taxbench/src/accession"
	"github.com/will-rowe/taxbench/src/alignment"
	"github.com/will-rowe/taxbench/src/assignment"
	"github.com/will-rowe/taxbench/src/taxonomy"
)

// the test taxonomy is shared with the taxonomy package
var testNodes = "../taxonomy/test-data/nodes.dmp"

// accessions for the test taxonomy (100 and 102 share genus 50, 101 is a strain of 100, 401 has no genus)
var testTable = accession.Table{
	"ACC_A": 100,
	"ACC_B": 102,
	"ACC_C": 200,
	"ACC_D": 101,
	"ACC_E": 401,
	"ACC_F": 500,
	"ACC_G": 900,
}

func loadTestTaxonomy(t *testing.T) *taxonomy.NCBI {
	t.Helper()
	tax, err := taxonomy.Load(testNodes)
	if err != nil {
		t.Fatalf("could not load test taxonomy: %v", err)
	}
	return tax
}

func mapped(read, ref string, mapq int) alignment.Record {
	return alignment.Record{ReadID: read, Reference: ref, Mapped: true, MapQ: mapq}
}

func unmapped(read string) alignment.Record {
	return alignment.Record{ReadID: read}
}

// resolveAll runs a resolver to completion
func resolveAll(t *testing.T, records []alignment.Record, opts Options) ([]assignment.Assignment, *Resolver) {
	t.Helper()
	res, err := New(alignment.NewSliceSource(records), testTable, loadTestTaxonomy(t), opts)
	if err != nil {
		t.Fatal(err)
	}
	results := []assignment.Assignment{}
	for {
		a, err := res.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, a)
	}
	return results, res
}

func TestSingleCandidateIsDirectLookup(t *testing.T) {
	records := []alignment.Record{}
	for acc := range testTable {
		records = append(records, mapped("read-"+acc, acc+".1", 60))
	}
	results, res := resolveAll(t, records, Options{})
	if len(results) != len(testTable) {
		t.Fatalf("expected %d assignments, got %d", len(testTable), len(results))
	}
	for _, a := range results {
		if want := testTable[a.ReadID[len("read-"):]]; a.TaxID != want {
			t.Errorf("%v resolved to %d, want %d", a.ReadID, a.TaxID, want)
		}
	}
	if res.Stats().LCAGroups != 0 {
		t.Errorf("LCA should not be used for single candidates")
	}
}

func TestMultiCandidateLCA(t *testing.T) {
	tax := loadTestTaxonomy(t)
	records := []alignment.Record{
		mapped("r1", "ACC_A", 60), mapped("r1", "ACC_B", 60),
		mapped("r2", "ACC_D", 30), mapped("r2", "ACC_A", 10), mapped("r2", "ACC_D", 30),
		mapped("r3", "ACC_D", 60), mapped("r3", "ACC_C", 60), mapped("r3", "ACC_E", 60),
	}
	results, res := resolveAll(t, records, Options{})
	expected := []assignment.Assignment{
		{ReadID: "r1", TaxID: 50},
		{ReadID: "r2", TaxID: 100},
		{ReadID: "r3", TaxID: 2},
	}
	for i, a := range results {
		if a != expected[i] {
			t.Errorf("got %+v, want %+v", a, expected[i])
		}
	}
	if res.Stats().LCAGroups != 3 || res.Stats().Records != len(records) {
		t.Errorf("unexpected stats: %+v", res.Stats())
	}

	// the result must be an ancestor-or-self of every candidate
	for _, pair := range [][2]int{{100, 50}, {101, 100}, {401, 2}, {200, 2}} {
		lineage, err := tax.Lineage(pair[0])
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, node := range lineage {
			if node.ID == pair[1] {
				found = true
			}
		}
		if !found {
			t.Errorf("%d is not an ancestor of %d", pair[1], pair[0])
		}
	}
}

func TestCollapseLCAIsOrderIndependent(t *testing.T) {
	tax := loadTestTaxonomy(t)
	permutations := [][]int{
		{101, 102, 100}, {101, 100, 102}, {102, 101, 100},
		{102, 100, 101}, {100, 101, 102}, {100, 102, 101},
	}
	for _, taxa := range permutations {
		got, err := CollapseLCA(tax, taxa)
		if err != nil {
			t.Fatal(err)
		}
		if got != 50 {
			t.Errorf("CollapseLCA(%v) = %d, want 50", taxa, got)
		}
	}
	if got, _ := CollapseLCA(tax, []int{0, 100}); got != 0 {
		t.Errorf("unclassified should absorb the fold, got %d", got)
	}
	if got, _ := CollapseLCA(tax, []int{100, 0}); got != 0 {
		t.Errorf("unclassified should absorb the fold, got %d", got)
	}
	if got, _ := CollapseLCA(tax, nil); got != 0 {
		t.Errorf("empty list should be unclassified, got %d", got)
	}
	if _, err := CollapseLCA(tax, []int{100, 12345}); !errors.Is(err, taxonomy.ErrUnknownTaxon) {
		t.Errorf("expected ErrUnknownTaxon, got %v", err)
	}
}

func TestTopMapQ(t *testing.T) {
	records := []alignment.Record{
		mapped("R1", "ACC_A", 60), mapped("R1", "ACC_C", 40),
		mapped("R2", "ACC_A", 60), mapped("R2", "ACC_B", 60), mapped("R2", "ACC_C", 10),
	}
	results, _ := resolveAll(t, records, Options{TopMapQ: true})
	if results[0].TaxID != 100 {
		t.Errorf("R1 should resolve to the direct lookup of ACC_A, got %d", results[0].TaxID)
	}
	if results[1].TaxID != 50 {
		t.Errorf("R2 should keep both tied alignments and resolve to 50, got %d", results[1].TaxID)
	}

	// without the filter, R1 climbs to the family
	results, _ = resolveAll(t, records, Options{})
	if results[0].TaxID != 3 {
		t.Errorf("R1 without top MAPQ filtering should resolve to 3, got %d", results[0].TaxID)
	}
}

func TestFilterTopMapQIsIdempotent(t *testing.T) {
	group := []alignment.Record{
		mapped("r", "ACC_A", 10), mapped("r", "ACC_B", 60), unmapped("r"), mapped("r", "ACC_C", 60),
	}
	once := FilterTopMapQ(group)
	twice := FilterTopMapQ(once)
	if len(once) != 2 || len(twice) != len(once) {
		t.Fatalf("expected 2 records after filtering, got %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("filtering changed record %d: %+v -> %+v", i, once[i], twice[i])
		}
	}
	if len(FilterTopMapQ(nil)) != 0 {
		t.Errorf("empty group should stay empty")
	}
}

func TestUnmapped(t *testing.T) {
	records := []alignment.Record{
		unmapped("r1"),
		unmapped("r2"), mapped("r2", "ACC_A", 0),
	}
	results, _ := resolveAll(t, records, Options{})
	if results[0].TaxID != 0 || results[1].TaxID != 0 {
		t.Errorf("unmapped records should make reads unclassified: %+v", results)
	}
	results, res := resolveAll(t, records, Options{ExcludeUnmapped: true})
	if len(results) != 2 {
		t.Fatalf("every read should still be emitted, got %d", len(results))
	}
	if results[0].TaxID != 0 || results[1].TaxID != 100 {
		t.Errorf("unexpected results when excluding unmapped records: %+v", results)
	}
	if res.Stats().Unclassified != 1 {
		t.Errorf("expected one unclassified read, got %d", res.Stats().Unclassified)
	}
}

func TestSpeciesLevel(t *testing.T) {
	records := []alignment.Record{
		mapped("r1", "ACC_A", 60), mapped("r1", "ACC_C", 60),
		mapped("r2", "ACC_D", 60),
		mapped("r3", "ACC_G", 60),
		mapped("r4", "ACC_A", 60), mapped("r4", "ACC_D", 60),
	}
	results, res := resolveAll(t, records, Options{SpeciesLevel: true})
	expected := []int{0, 101, 0, 100}
	for i, a := range results {
		if a.TaxID != expected[i] {
			t.Errorf("%v resolved to %d, want %d", a.ReadID, a.TaxID, expected[i])
		}
	}
	if res.Stats().ForcedUnclassified != 2 {
		t.Errorf("expected 2 reads forced to unclassified, got %d", res.Stats().ForcedUnclassified)
	}
}

func TestOutOfSequence(t *testing.T) {
	records := []alignment.Record{
		mapped("r1", "ACC_A", 60), mapped("r2", "ACC_A", 60), mapped("r1", "ACC_B", 60),
	}
	res, err := New(alignment.NewSliceSource(records), testTable, loadTestTaxonomy(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := res.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := res.Next(); !errors.Is(err, ErrReadOutOfSequence) {
		t.Fatalf("expected ErrReadOutOfSequence, got %v", err)
	}
}

func TestUnknownAccession(t *testing.T) {
	records := []alignment.Record{mapped("r1", "ACC_A", 60), mapped("r1", "NOT_IN_TABLE.2", 60)}
	res, err := New(alignment.NewSliceSource(records), testTable, loadTestTaxonomy(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := res.Next(); !errors.Is(err, ErrUnknownAccession) {
		t.Fatalf("expected ErrUnknownAccession, got %v", err)
	}
	if _, err := New(nil, testTable, nil, Options{}); err == nil {
		t.Fatalf("a resolver without a source should not be created")
	}
}
