package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	sampleFontSize   = 10
	sampleLeading    = 14
	sampleGlyphWidth = 500
)

var pdfEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// SamplePDF renders each page as left-aligned lines of Helvetica text, one
// line per "\n" separated segment, and returns the document. Text is encoded
// as WinAnsi so Portuguese accents survive.
func SamplePDF(pages ...string) []byte {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

	streams := make([]string, len(pages))
	for i, page := range pages {
		var b strings.Builder
		fmt.Fprintf(&b, "BT\n/F1 %d Tf\n50 800 Td\n", sampleFontSize)
		for n, line := range strings.Split(page, "\n") {
			if n > 0 {
				fmt.Fprintf(&b, "0 -%d Td\n", sampleLeading)
			}
			raw, err := enc.String(line)
			if err != nil {
				raw = line
			}
			fmt.Fprintf(&b, "(%s) Tj\n", pdfEscaper.Replace(raw))
		}
		b.WriteString("ET")
		streams[i] = b.String()
	}
	return buildPDF(streams...)
}

// buildPDF writes a document with one page per content stream. Every page
// shares a WinAnsi Helvetica font named /F1 with uniform glyph widths.
func buildPDF(streams ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(streams))
	for i := range streams {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	widths := strings.TrimSpace(strings.Repeat(fmt.Sprintf("%d ", sampleGlyphWidth), 224))

	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 595 842] >>",
		strings.Join(kids, " "), len(streams)))
	object(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 255 /Widths [%s] >>", widths))
	for i, s := range streams {
		object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(s), s))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}
