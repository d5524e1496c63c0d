// Package pdftest writes small, well-formed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Page describes one page of a generated PDF. A zero Width or Height
// inherits the 612x792 MediaBox from the page tree. A zero CropBox is omitted.
type Page struct {
	Text    string
	Width   float64
	Height  float64
	CropBox [4]float64
	Rotate  int
}

// Build returns the bytes of a PDF with one Helvetica text line per page.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	fontID := 3 + 2*len(pages)
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", strings.Join(kids, " "), len(pages)))
	for i, p := range pages {
		box := ""
		if p.Width > 0 && p.Height > 0 {
			box = fmt.Sprintf(" /MediaBox [0 0 %g %g]", p.Width, p.Height)
		}
		if p.CropBox != [4]float64{} {
			box += fmt.Sprintf(" /CropBox [%g %g %g %g]", p.CropBox[0], p.CropBox[1], p.CropBox[2], p.CropBox[3])
		}
		if p.Rotate != 0 {
			box += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R%s /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			box, fontID, 4+2*i))
		content := fmt.Sprintf("BT /F1 12 Tf 72 700 Td (%s) Tj ET", escape(p.Text))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// Write stores a generated PDF named name under a fresh temp directory and returns its path.
func Write(t testing.TB, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
