// Package assignment reads and writes read id to taxon id mappings ("readid2taxid" TSV files)
package assignment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrConflictingRead is returned when a mapping lists one read with two different taxon ids
var ErrConflictingRead = errors.New("read assigned to more than one taxon id")

// ErrReadOutOfSequence is returned by a GroupReader when the lines of a read are not consecutive
var ErrReadOutOfSequence = errors.New("read lines are not grouped together")

// Assignment is the taxon assigned to a single read, taxon 0 means unclassified
type Assignment struct {
	ReadID string
	TaxID  int
}

// Map holds a complete read to taxon mapping, reads missing from the map are unclassified
type Map map[string]int

// Get returns the taxon for a read, defaulting to 0 (unclassified)
func (m Map) Get(readID string) int {
	return m[readID]
}

// parseTaxID converts the taxon column, "NA", "-" and empty fields are unclassified
func parseTaxID(field string) (int, error) {
	field = strings.TrimSpace(field)
	switch field {
	case "", "NA", "-":
		return 0, nil
	}
	taxID, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}
	if taxID < 0 {
		return 0, fmt.Errorf("negative taxon id: %d", taxID)
	}
	return taxID, nil
}

// splitLine splits a "read_id<TAB>taxon_id" line
func splitLine(line string, lineNum int) (string, int, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("line %d is not tab separated: %q", lineNum, line)
	}
	taxID, err := parseTaxID(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("line %d has a bad taxon id: %v", lineNum, err)
	}
	return fields[0], taxID, nil
}

// Load reads a read to taxon mapping from a file
func Load(path string) (Map, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Read(fh)
}

// Read parses a read to taxon mapping. A read may be repeated only with the same taxon id.
func Read(r io.Reader) (Map, error) {
	m := make(Map)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		readID, taxID, err := splitLine(line, lineNum)
		if err != nil {
			return nil, err
		}
		if existing, ok := m[readID]; ok && existing != taxID {
			return nil, fmt.Errorf("%w: %v (%d and %d), collapse it with `taxbench lca` first", ErrConflictingRead, readID, existing, taxID)
		}
		m[readID] = taxID
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Writer writes assignments as newline-delimited "read_id<TAB>taxon_id"
type Writer struct {
	bw    *bufio.Writer
	count int
}

// NewWriter returns a buffered Writer, Flush must be called once writing is done
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write writes a single assignment
func (writer *Writer) Write(a Assignment) error {
	writer.count++
	_, err := fmt.Fprintf(writer.bw, "%v\t%d\n", a.ReadID, a.TaxID)
	return err
}

// Count returns the number of assignments written
func (writer *Writer) Count() int {
	return writer.count
}

// Flush writes any buffered data
func (writer *Writer) Flush() error {
	return writer.bw.Flush()
}

// GroupReader groups consecutive lines that share a read id
type GroupReader struct {
	scanner     *bufio.Scanner
	lineNum     int
	pendingRead string
	pendingTax  int
	hasPending  bool
	closed      map[string]struct{}
}

// NewGroupReader returns a GroupReader over a read to taxon mapping
func NewGroupReader(r io.Reader) *GroupReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &GroupReader{scanner: scanner, closed: make(map[string]struct{})}
}

// Next returns the next read id and every taxon listed for it, ending with io.EOF.
// A read that turns up again after another read has been grouped is an ErrReadOutOfSequence.
func (gr *GroupReader) Next() (string, []int, error) {
	readID, taxa := "", []int{}
	if gr.hasPending {
		readID, taxa = gr.pendingRead, append(taxa, gr.pendingTax)
		gr.hasPending = false
		if err := gr.open(readID); err != nil {
			return "", nil, err
		}
	}
	for gr.scanner.Scan() {
		gr.lineNum++
		line := strings.TrimRight(gr.scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		id, taxID, err := splitLine(line, gr.lineNum)
		if err != nil {
			return "", nil, err
		}
		if len(taxa) == 0 {
			readID = id
			if err := gr.open(readID); err != nil {
				return "", nil, err
			}
		}
		if id != readID {
			gr.pendingRead, gr.pendingTax, gr.hasPending = id, taxID, true
			return readID, taxa, nil
		}
		taxa = append(taxa, taxID)
	}
	if err := gr.scanner.Err(); err != nil {
		return "", nil, err
	}
	if len(taxa) == 0 {
		return "", nil, io.EOF
	}
	return readID, taxa, nil
}

// open starts a group, marking the read as done
func (gr *GroupReader) open(readID string) error {
	if _, ok := gr.closed[readID]; ok {
		return fmt.Errorf("line %d: %w: %v", gr.lineNum, ErrReadOutOfSequence, readID)
	}
	gr.closed[readID] = struct{}{}
	return nil
}
