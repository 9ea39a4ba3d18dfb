package accession

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// ReferenceIDs collects the sequence ids held in a FASTA file
func ReferenceIDs(r io.Reader) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	scanner := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for scanner.Next() {
		ids[scanner.Seq().Name()] = struct{}{}
	}
	if err := scanner.Error(); err != nil {
		return nil, fmt.Errorf("could not read reference FASTA: %v", err)
	}
	return ids, nil
}

// FilterByReference reduces an NCBI accession2taxid file (accession, accession.version, taxid, gi) to the accessions
// present in a reference FASTA, writing "accession.version<TAB>taxid" lines. It returns the number of lines written.
func FilterByReference(mapping io.Reader, reference io.Reader, w io.Writer) (int, error) {
	needed, err := ReferenceIDs(reference)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(mapping)
	kept, lineNum := 0, 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(fields) < 3 {
			// the header line and any malformed lines are skipped
			continue
		}
		if _, ok := needed[fields[1]]; !ok {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%v\t%v\n", fields[1], fields[2]); err != nil {
			return kept, err
		}
		kept++
	}
	if err := scanner.Err(); err != nil {
		return kept, fmt.Errorf("could not read accession2taxid at line %d: %v", lineNum, err)
	}
	return kept, bw.Flush()
}
