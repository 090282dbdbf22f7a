// Package period recognizes the "MONTH/YEAR" reference markers printed on
// statement pages and resolves the current period across a page sequence.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

var markerPattern = regexp.MustCompile(`\b[A-ZÇ]{3,9}/\d{4}\b`)

var yearPattern = regexp.MustCompile(`\d{4}`)

// months maps Portuguese month names to month numbers. MARCO covers text
// extracted without the cedilla.
var months = map[string]int{
	"JANEIRO":   1,
	"FEVEREIRO": 2,
	"MARÇO":     3,
	"MARCO":     3,
	"ABRIL":     4,
	"MAIO":      5,
	"JUNHO":     6,
	"JULHO":     7,
	"AGOSTO":    8,
	"SETEMBRO":  9,
	"OUTUBRO":   10,
	"NOVEMBRO":  11,
	"DEZEMBRO":  12,
}

// monthOrder is the lookup order for substring matching; longer names first
// so that MARÇO is tried before MARCO and neither shadows another month.
var monthOrder = []string{
	"FEVEREIRO", "SETEMBRO", "NOVEMBRO", "DEZEMBRO", "JANEIRO", "OUTUBRO",
	"AGOSTO", "MARÇO", "MARCO", "ABRIL", "JUNHO", "JULHO", "MAIO",
}

// Canonical returns text in NFC form so composed and decomposed accents
// compare equal.
func Canonical(text string) string {
	return norm.NFC.String(text)
}

// Find returns the first period marker in text.
func Find(text string) (string, bool) {
	m := markerPattern.FindString(Canonical(text))
	return m, m != ""
}

// Resolved pairs a page with the period marker in force on it.
type Resolved struct {
	Page   statement.Page
	Marker string // "" until a marker has been seen
}

// Fold reduces pages to the period in force on each page. A marker stays in
// force until a later page carries a different one.
func Fold(pages []statement.Page) []Resolved {
	out := make([]Resolved, len(pages))
	current := ""
	for i, p := range pages {
		if m, ok := Find(p.Text); ok {
			current = m
		}
		out[i] = Resolved{Page: p, Marker: current}
	}
	return out
}

// Last returns the period in force after the final page.
func Last(pages []statement.Page) string {
	resolved := Fold(pages)
	if len(resolved) == 0 {
		return ""
	}
	return resolved[len(resolved)-1].Marker
}

// MonthNumber looks up a month by name.
func MonthNumber(name string) (int, bool) {
	n, ok := months[strings.ToUpper(Canonical(strings.TrimSpace(name)))]
	return n, ok
}

// Parse extracts month and year from a marker such as "MARÇO/2024". The
// month is matched as a substring so stray prefixes do not defeat it.
func Parse(marker string) (year, month int, ok bool) {
	text := strings.ToUpper(Canonical(marker))
	for _, name := range monthOrder {
		if !strings.Contains(text, name) {
			continue
		}
		y := yearPattern.FindString(text)
		if y == "" {
			return 0, 0, false
		}
		year, err := strconv.Atoi(y)
		if err != nil {
			return 0, 0, false
		}
		return year, months[name], true
	}
	return 0, 0, false
}

// FileToken converts a marker to the YEAR_MM name used for period documents.
func FileToken(marker string) (string, bool) {
	name, year, found := strings.Cut(marker, "/")
	if !found {
		return "", false
	}
	month, ok := MonthNumber(name)
	if !ok || len(year) != 4 {
		return "", false
	}
	return fmt.Sprintf("%s_%02d", year, month), true
}
