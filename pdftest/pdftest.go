// Package pdftest builds small fixture documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// Page is a fixture page size in points.
type Page struct {
	Width, Height float64
}

var (
	A4        = Page{Width: 595.28, Height: 841.89}
	Letter    = Page{Width: 612, Height: 792}
	Landscape = Page{Width: 800, Height: 600}
)

// Repeat returns n copies of p.
func Repeat(p Page, n int) []Page {
	out := make([]Page, n)
	for i := range out {
		out[i] = p
	}
	return out
}

// Build renders one labelled page per entry. gofpdf declares version 1.3.
func Build(pages ...Page) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i, p := range pages {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: p.Width, Ht: p.Height})
		pdf.Text(20, 30, fmt.Sprintf("page %d", i+1))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SetVersion rewrites the header version in place. The new version must have the
// same length as the old one so cross-reference offsets stay valid.
func SetVersion(data []byte, version string) ([]byte, error) {
	const prefix = "%PDF-"
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return nil, fmt.Errorf("no header")
	}
	end := bytes.IndexAny(data, "\r\n")
	if end < 0 || end-len(prefix) != len(version) {
		return nil, fmt.Errorf("version %q does not fit header %q", version, data[:end])
	}
	out := append([]byte(nil), data...)
	copy(out[len(prefix):], version)
	return out, nil
}

// WriteFile builds a fixture into dir and returns its path.
func WriteFile(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	data, err := Build(pages...)
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	return write(t, dir, name, data)
}

// WriteVersioned is WriteFile with the header version replaced.
func WriteVersioned(t testing.TB, dir, name, version string, pages ...Page) string {
	t.Helper()
	data, err := Build(pages...)
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	if data, err = SetVersion(data, version); err != nil {
		t.Fatalf("set version: %v", err)
	}
	return write(t, dir, name, data)
}

func write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
