// Package extractor recovers the category, rubric and work tables from the
// page text of one period document. The three tables share a single scan
// driven by a TableSpec.
package extractor

import (
	"regexp"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

// NameRule decides which tokens of a line form the row name.
type NameRule int

const (
	// NameAllTokens joins every non-value token in original order.
	NameAllTokens NameRule = iota
	// NameBeforeFirstCurrency joins the tokens between the leading code and
	// the first currency token.
	NameBeforeFirstCurrency
)

// Layout markers shared by the statement sections.
const (
	ExcludeStartMarker  = "EXEC. - NÚM. DE EXECUÇÕES"
	ExcludeResumeMarker = "OBRA RUBRICA PERÍODO RENDIMENTO % RATEIO CORREÇÃO EXEC (OC)"
	TotalPrefix         = "TOTAL"
	StatedTotalMarker   = "TOTAL GERAL"
)

// TableSpec configures one table extraction.
type TableSpec struct {
	Kind statement.TableKind

	// StartAnchor opens the table. EndAnchor closes bounded tables; when it
	// is empty the table is line-qualified instead.
	StartAnchor string
	EndAnchor   string

	// LinePattern qualifies rows of line-qualified tables.
	LinePattern *regexp.Regexp

	// Columns is the number of numeric columns. Missing values are padded
	// with placeholders on the left when PadLeft is set, on the right otherwise.
	Columns int
	PadLeft bool

	NameRule NameRule

	// SkipPrefixes drops lines starting with any of these phrases.
	SkipPrefixes []string

	// ExcludeStart and ExcludeResume delimit a sub-block whose lines are
	// ignored. Empty disables the window.
	ExcludeStart  string
	ExcludeResume string
}

// Bounded reports whether the table is delimited by a start/end anchor pair.
func (s TableSpec) Bounded() bool {
	return s.EndAnchor != ""
}

var workLinePattern = regexp.MustCompile(`^\d{2,}\s`)

// CategorySpec extracts the "POR CATEGORIA" table.
var CategorySpec = TableSpec{
	Kind:          statement.KindCategory,
	StartAnchor:   "POR CATEGORIA",
	EndAnchor:     "POR RUBRICA",
	Columns:       len(statement.SectionColumns),
	PadLeft:       true,
	NameRule:      NameAllTokens,
	SkipPrefixes:  []string{"POR CATEGORIA", TotalPrefix},
	ExcludeStart:  ExcludeStartMarker,
	ExcludeResume: ExcludeResumeMarker,
}

// RubricSpec extracts the "POR RUBRICA" table.
var RubricSpec = TableSpec{
	Kind:          statement.KindRubric,
	StartAnchor:   "POR RUBRICA",
	EndAnchor:     "TOTAL DO TITULAR",
	Columns:       len(statement.SectionColumns),
	PadLeft:       true,
	NameRule:      NameAllTokens,
	SkipPrefixes:  []string{"POR RUBRICA", TotalPrefix},
	ExcludeStart:  ExcludeStartMarker,
	ExcludeResume: ExcludeResumeMarker,
}

// WorkSpec extracts the per-work table. Collection starts at the first line
// containing "OBRA"; every later line starting with a numeric code is a row.
var WorkSpec = TableSpec{
	Kind:        statement.KindWork,
	StartAnchor: "OBRA",
	LinePattern: workLinePattern,
	Columns:     1,
	NameRule:    NameBeforeFirstCurrency,
}

// Specs returns the three table specs in pipeline order.
func Specs() []TableSpec {
	return []TableSpec{CategorySpec, RubricSpec, WorkSpec}
}

// WithAnchors returns a copy of s with the non-empty anchors replaced. The
// end anchor is ignored for line-qualified tables.
func (s TableSpec) WithAnchors(start, end string) TableSpec {
	out := s
	out.SkipPrefixes = append([]string(nil), s.SkipPrefixes...)
	if start != "" {
		for i, p := range out.SkipPrefixes {
			if p == s.StartAnchor {
				out.SkipPrefixes[i] = start
			}
		}
		out.StartAnchor = start
	}
	if end != "" && s.Bounded() {
		out.EndAnchor = end
	}
	return out
}
