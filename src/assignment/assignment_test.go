package assignment

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	m, err := Read(strings.NewReader("r1\t100\nr2\t0\nr3\tNA\n\nr1\t100\nr4\t200\textra\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 4 {
		t.Fatalf("expected 4 reads, got %d", len(m))
	}
	if m.Get("r1") != 100 || m.Get("r3") != 0 || m.Get("r4") != 200 {
		t.Errorf("unexpected mapping: %v", m)
	}
	if m.Get("missing") != 0 {
		t.Errorf("a missing read should be unclassified")
	}
}

func TestReadErrors(t *testing.T) {
	if _, err := Read(strings.NewReader("r1\t100\nr1\t200\n")); !errors.Is(err, ErrConflictingRead) {
		t.Errorf("expected ErrConflictingRead, got %v", err)
	}
	for _, bad := range []string{"r1 100\n", "r1\tabc\n", "r1\t-5\n"} {
		if _, err := Read(strings.NewReader(bad)); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, a := range []Assignment{{"r1", 100}, {"r2", 0}} {
		if err := w.Write(a); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "r1\t100\nr2\t0\n" || w.Count() != 2 {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestGroupReader(t *testing.T) {
	gr := NewGroupReader(strings.NewReader("r1\t100\nr1\t102\nr2\t200\nr3\t300\nr3\t0\nr3\t300\n"))
	expected := []struct {
		read string
		taxa []int
	}{
		{"r1", []int{100, 102}},
		{"r2", []int{200}},
		{"r3", []int{300, 0, 300}},
	}
	for _, exp := range expected {
		read, taxa, err := gr.Next()
		if err != nil {
			t.Fatal(err)
		}
		if read != exp.read || len(taxa) != len(exp.taxa) {
			t.Fatalf("got %v %v, want %v %v", read, taxa, exp.read, exp.taxa)
		}
		for i := range taxa {
			if taxa[i] != exp.taxa[i] {
				t.Errorf("%v: got taxa %v, want %v", read, taxa, exp.taxa)
			}
		}
	}
	if _, _, err := gr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestGroupReaderOutOfSequence(t *testing.T) {
	gr := NewGroupReader(strings.NewReader("r1\t100\nr2\t200\nr1\t102\n"))
	for _, exp := range []string{"r1", "r2"} {
		read, _, err := gr.Next()
		if err != nil {
			t.Fatal(err)
		}
		if read != exp {
			t.Fatalf("got read %v, want %v", read, exp)
		}
	}
	if _, _, err := gr.Next(); !errors.Is(err, ErrReadOutOfSequence) {
		t.Errorf("expected ErrReadOutOfSequence for the second r1 group, got %v", err)
	}
}
