package cmd

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestMD5(t *testing.T) {
	dir := t.TempDir()
	tarball := filepath.Join(dir, "taxdump.tar.gz")
	content := []byte("not really a tarball")
	if err := os.WriteFile(tarball, content, 0644); err != nil {
		t.Fatal(err)
	}
	sum := md5.Sum(content)
	expected := hex.EncodeToString(sum[:])
	md5File := tarball + ".md5"
	if err := os.WriteFile(md5File, []byte(expected+"  taxdump.tar.gz\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := readMD5(md5File)
	if err != nil {
		t.Fatal(err)
	}
	if got != expected {
		t.Fatalf("read md5 %v, want %v", got, expected)
	}
	if err := checkMD5(tarball, got); err != nil {
		t.Fatal(err)
	}
	if err := checkMD5(tarball, "00000000000000000000000000000000"); err == nil {
		t.Fatal("a wrong md5 should fail the check")
	}
	if err := os.WriteFile(md5File, []byte("\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := readMD5(md5File); err == nil {
		t.Fatal("an empty md5 file should be an error")
	}
}

func TestOpenMaybeGzipped(t *testing.T) {
	dir := t.TempDir()
	content := "accession\taccession.version\ttaxid\tgi\n"
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	files := map[string][]byte{
		filepath.Join(dir, "plain.accession2taxid"):      []byte(content),
		filepath.Join(dir, "gzipped.accession2taxid.gz"): buf.Bytes(),
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		fh, err := openMaybeGzipped(path)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(fh)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("%v: got %q", path, got)
		}
		if err := fh.Close(); err != nil {
			t.Error(err)
		}
	}
}
