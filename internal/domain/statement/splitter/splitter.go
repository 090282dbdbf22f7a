// Package splitter segments a compiled statement into one document per
// billing period.
package splitter

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/period"
)

// DefaultClosingMarker is printed on the last page of every period.
const DefaultClosingMarker = "VALORES EXPRESSOS"

// Options controls how pages are grouped.
type Options struct {
	// ClosingMarker ends the working document; DefaultClosingMarker when empty.
	ClosingMarker string
	// KeepTrailing emits pages after the last closing marker as a final
	// document instead of dropping them.
	KeepTrailing bool
}

// Result is the outcome of splitting one input.
type Result struct {
	Documents []statement.Document
	// DroppedTrailing counts pages after the last closing marker that were
	// not emitted.
	DroppedTrailing int
}

// Split groups pages into period documents. Every emitted page belongs to
// exactly one document and document names are unique within the result.
func Split(pages []statement.Page, opts Options) Result {
	marker := opts.ClosingMarker
	if marker == "" {
		marker = DefaultClosingMarker
	}

	var (
		res     Result
		working []statement.Page
		names   = NewNamer()
	)
	for _, rp := range period.Fold(pages) {
		working = append(working, rp.Page)
		if !strings.Contains(period.Canonical(rp.Page.Text), marker) {
			continue
		}
		res.Documents = append(res.Documents, statement.Document{
			Name:   names.Unique(baseName(rp.Marker, rp.Page.Index)),
			Period: rp.Marker,
			Pages:  working,
		})
		working = nil
	}

	if len(working) == 0 {
		return res
	}
	if !opts.KeepTrailing {
		res.DroppedTrailing = len(working)
		return res
	}

	last := working[len(working)-1]
	current := period.Last(pages)
	res.Documents = append(res.Documents, statement.Document{
		Name:   names.Unique(baseName(current, last.Index)),
		Period: current,
		Pages:  working,
	})
	return res
}

// baseName is YEAR_MM for a known period and sem_data_<page> otherwise,
// where page is the 1-based number of the closing page.
func baseName(marker string, pageIndex int) string {
	if token, ok := period.FileToken(marker); ok {
		return token
	}
	return fmt.Sprintf("sem_data_%d", pageIndex+1)
}

// Namer suffixes repeated names with _2, _3 and so on. Split uses one per
// input; callers combining several inputs share one across them.
type Namer struct {
	seen map[string]int
}

func NewNamer() *Namer {
	return &Namer{seen: make(map[string]int)}
}

// Unique returns name, or name with the next free suffix when taken.
func (n *Namer) Unique(name string) string {
	n.seen[name]++
	count := n.seen[name]
	if count == 1 {
		return name
	}
	candidate := fmt.Sprintf("%s_%d", name, count)
	for n.seen[candidate] > 0 {
		count++
		candidate = fmt.Sprintf("%s_%d", name, count)
	}
	n.seen[name] = count
	n.seen[candidate]++
	return candidate
}
