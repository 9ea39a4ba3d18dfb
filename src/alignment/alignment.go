// Package alignment streams alignment records from SAM or BAM files for read-to-taxon resolution
package alignment

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/sam"
)

// gzipMagic marks BGZF (and so BAM) input
var gzipMagic = []byte{0x1f, 0x8b}

// Record is a single alignment of a read, Reference is only meaningful when Mapped is true
type Record struct {
	ReadID    string
	Reference string
	Mapped    bool
	MapQ      int
}

// Source is anything that yields alignment records in file order, ending with io.EOF
type Source interface {
	Read() (Record, error)
}

// Reader yields alignment records from SAM or BAM input
type Reader struct {
	samReader *sam.Reader
	bamReader *bam.Reader
	closer    io.Closer
	count     int
}

// NewReader returns a Reader for SAM or BAM input, the format is detected from the first bytes of the stream
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(magic, gzipMagic) {
		b, err := bam.NewReader(br, 0)
		if err != nil {
			return nil, fmt.Errorf("could not read BAM: %v", err)
		}
		return &Reader{bamReader: b}, nil
	}
	s, err := sam.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("could not read SAM: %v", err)
	}
	return &Reader{samReader: s}, nil
}

// Open returns a Reader for a SAM or BAM file, "-" reads from STDIN
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	magic := make([]byte, 2)
	if _, err := io.ReadFull(fh, magic); err == nil && bytes.Equal(magic, gzipMagic) {
		ok, err := bgzf.HasEOF(fh)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("could not open bam file %q: %v", path, err)
		}
		if !ok {
			log.Printf("file %q has no bgzf magic block: may be truncated", path)
		}
	}
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		fh.Close()
		return nil, err
	}
	reader, err := NewReader(fh)
	if err != nil {
		fh.Close()
		return nil, err
	}
	reader.closer = fh
	return reader, nil
}

// Read returns the next alignment record
func (reader *Reader) Read() (Record, error) {
	var rec *sam.Record
	var err error
	if reader.bamReader != nil {
		rec, err = reader.bamReader.Read()
	} else {
		rec, err = reader.samReader.Read()
	}
	if err != nil {
		if err == io.EOF {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("error reading alignment %d: %v", reader.count+1, err)
	}
	reader.count++
	return FromSAM(rec), nil
}

// Count returns the number of records read so far
func (reader *Reader) Count() int {
	return reader.count
}

// Close releases the underlying reader and file
func (reader *Reader) Close() error {
	var err error
	if reader.bamReader != nil {
		err = reader.bamReader.Close()
	}
	if reader.closer != nil {
		if cerr := reader.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// FromSAM converts a SAM record. A record flagged as unmapped has no reference, even if placed next to its mate.
func FromSAM(rec *sam.Record) Record {
	record := Record{
		ReadID: rec.Name,
		MapQ:   int(rec.MapQ),
	}
	if rec.Flags&sam.Unmapped == 0 && rec.Ref != nil {
		record.Mapped = true
		record.Reference = rec.Ref.Name()
	}
	return record
}

// SliceSource yields records held in memory
type SliceSource struct {
	records []Record
	next    int
}

// NewSliceSource returns a Source over the given records
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Read returns the next record
func (src *SliceSource) Read() (Record, error) {
	if src.next >= len(src.records) {
		return Record{}, io.EOF
	}
	src.next++
	return src.records[src.next-1], nil
}
