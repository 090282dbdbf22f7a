// Package pdftext extracts the text of each page of a statement PDF.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

const (
	// rowTolerance is the vertical distance, in points, within which two
	// glyphs belong to the same line.
	rowTolerance = 2.0
	// wordGap is the share of the font size a horizontal gap between glyphs
	// must exceed to read as a space.
	wordGap = 0.2
)

// ErrUnreadable indicates the input is not a PDF the reader can open.
var ErrUnreadable = errors.New("unreadable pdf")

// Reader turns PDF bytes into pages.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a page reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Pages reads every page of the PDF in r. Pages whose content cannot be
// decoded yield empty text; only a document that cannot be opened fails.
func (r *Reader) Pages(in io.Reader) ([]statement.Page, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	return r.PagesFromBytes(data)
}

// PagesFromBytes is Pages for an in-memory document.
func (r *Reader) PagesFromBytes(data []byte) (pages []statement.Page, err error) {
	// The decoder panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	doc, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	n := doc.NumPage()
	pages = make([]statement.Page, 0, n)
	for i := 1; i <= n; i++ {
		text, perr := pageText(doc.Page(i))
		if perr != nil {
			r.logger.Warn("page text unavailable",
				slog.Int("page", i),
				slog.Any("error", perr),
			)
		}
		pages = append(pages, statement.Page{Index: i - 1, Text: text})
	}
	return pages, nil
}

// pageText lays out the positioned glyphs of p as lines, top to bottom.
func pageText(p pdflib.Page) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("decode page: %v", rec)
		}
	}()

	if p.V.IsNull() {
		return "", nil
	}
	return strings.Join(layout(p.Content().Text), "\n"), nil
}

type row struct {
	y      float64
	glyphs []pdflib.Text
}

// layout groups glyphs into lines by baseline and orders each line left to
// right. Glyphs on one line keep their content order when they share an X,
// which is what fonts without a /Widths array produce.
func layout(glyphs []pdflib.Text) []string {
	var rows []*row
	for _, g := range glyphs {
		// The decoder emits a newline glyph after every TJ array.
		if g.S == "" || g.S == "\n" || g.S == "\r" {
			continue
		}
		var target *row
		for _, r := range rows {
			if math.Abs(r.y-g.Y) <= rowTolerance {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: g.Y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })
		if line := joinGlyphs(r.glyphs); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// joinGlyphs concatenates the glyphs of one line. A space is written for
// blank glyphs and for gaps wider than wordGap times the font size; runs of
// spaces collapse to one.
func joinGlyphs(glyphs []pdflib.Text) string {
	var b strings.Builder
	spaced := true
	end := math.Inf(-1)
	for _, g := range glyphs {
		blank := strings.TrimSpace(g.S) == ""
		gap := g.X - end
		if !spaced && (blank || gap > math.Abs(g.FontSize)*wordGap) {
			b.WriteByte(' ')
			spaced = true
		}
		if !blank {
			b.WriteString(g.S)
			spaced = false
		}
		end = math.Max(end, g.X+g.W)
	}
	return strings.TrimRight(b.String(), " ")
}
