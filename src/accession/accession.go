// Package accession loads the accession to taxon id table shared by the resolver and the evaluator.
package accession

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrConflictingAccession is returned when an accession is assigned two different taxon ids
var ErrConflictingAccession = errors.New("accession assigned to more than one taxon id")

// Table maps version-less accessions to taxon ids, it is immutable once loaded
type Table map[string]int

// StripVersion removes the version suffix (everything after the first period) from an accession
func StripVersion(accession string) string {
	if idx := strings.IndexByte(accession, '.'); idx != -1 {
		return accession[:idx]
	}
	return accession
}

// Lookup returns the taxon id for a reference name, the version suffix is ignored
func (table Table) Lookup(reference string) (int, bool) {
	taxID, ok := table[StripVersion(reference)]
	return taxID, ok
}

// TaxIDs returns the distinct taxon ids in the table in ascending order
func (table Table) TaxIDs() []int {
	seen := make(map[int]struct{})
	for _, taxID := range table {
		seen[taxID] = struct{}{}
	}
	taxIDs := make([]int, 0, len(seen))
	for taxID := range seen {
		taxIDs = append(taxIDs, taxID)
	}
	sort.Ints(taxIDs)
	return taxIDs
}

// Load reads an accession to taxon id table from a file
func Load(path string) (Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Read(fh)
}

// Read parses an accession to taxon id table.
// Each line holds an accession and a taxon id, separated by a tab (or a single space if the line has no tab).
// Lines with more columns are rejected, a raw NCBI accession2taxid file must go through FilterByReference first.
// The same accession may be listed more than once, but only ever with the same taxon id.
func Read(r io.Reader) (Table, error) {
	table := make(Table)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var fields []string
		if strings.Contains(line, "\t") {
			fields = strings.Split(line, "\t")
		} else {
			fields = strings.Split(line, " ")
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d of accession table has no taxon id: %q", lineNum, line)
		}
		if len(fields) > 2 {
			return nil, fmt.Errorf("line %d of accession table has %d columns, expected accession and taxon id (convert NCBI accession2taxid files with `taxbench acc2taxid`): %q", lineNum, len(fields), line)
		}
		accession := StripVersion(fields[0])
		taxID, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d of accession table has a bad taxon id: %v", lineNum, err)
		}
		if existing, ok := table[accession]; ok && existing != taxID {
			log.Printf("%v appeared twice with taxids %d and %d", accession, existing, taxID)
			return nil, fmt.Errorf("%w: %v (%d and %d)", ErrConflictingAccession, accession, existing, taxID)
		}
		table[accession] = taxID
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}
