package accession

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

var (
	testTable = "NC_000913.3\t562\nNZ_CP009072.1\t562\nNC_002695.2 83334\n\nNC_000913\t562\n"
	testFasta = ">NC_000913.3 Escherichia coli str. K-12\nACGTACGTNN\nACGT\n>NC_045512.2 SARS-CoV-2\nRYKMACGT\n"
	testNCBI  = "accession\taccession.version\ttaxid\tgi\nNC_000913\tNC_000913.3\t511145\t556503834\nNC_002695\tNC_002695.2\t386585\t47118301\nNC_045512\tNC_045512.2\t2697049\t1798174254\n"
)

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(testTable))
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 3 {
		t.Fatalf("expected 3 accessions, got %d", len(table))
	}
	if taxID, ok := table.Lookup("NC_002695.9"); !ok || taxID != 83334 {
		t.Errorf("space separated line not parsed or version not stripped: %d %v", taxID, ok)
	}
	if _, ok := table.Lookup("NC_999999.1"); ok {
		t.Errorf("unknown accession should not be found")
	}
	taxIDs := table.TaxIDs()
	if len(taxIDs) != 2 || taxIDs[0] != 562 || taxIDs[1] != 83334 {
		t.Errorf("unexpected taxon ids: %v", taxIDs)
	}
}

func TestReadConflict(t *testing.T) {
	_, err := Read(strings.NewReader("NC_1.1\t562\nNC_1.2\t9606\n"))
	if !errors.Is(err, ErrConflictingAccession) {
		t.Fatalf("expected ErrConflictingAccession, got %v", err)
	}
	if _, err := Read(strings.NewReader("NC_1.1\tnine\n")); err == nil {
		t.Fatalf("bad taxon id was accepted")
	}
}

// an NCBI accession2taxid file has the gi in the last column, it must not be read as a taxon id
func TestReadRejectsExtraColumns(t *testing.T) {
	if _, err := Read(strings.NewReader(testNCBI)); err == nil {
		t.Fatalf("a four column accession2taxid file was accepted")
	}
	if _, err := Read(strings.NewReader("NC_000913\tNC_000913.3\t511145\t556503834\n")); err == nil {
		t.Fatalf("a four column line was accepted")
	}
	if _, err := Read(strings.NewReader("NC_000913.3 562 extra\n")); err == nil {
		t.Fatalf("a three column space separated line was accepted")
	}
}

func TestFilterByReference(t *testing.T) {
	var out bytes.Buffer
	kept, err := FilterByReference(strings.NewReader(testNCBI), strings.NewReader(testFasta), &out)
	if err != nil {
		t.Fatal(err)
	}
	if kept != 2 {
		t.Fatalf("expected 2 accessions to be kept, got %d", kept)
	}
	expected := "NC_000913.3\t511145\nNC_045512.2\t2697049\n"
	if out.String() != expected {
		t.Errorf("got %q, want %q", out.String(), expected)
	}
}
