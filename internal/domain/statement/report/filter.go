// Package report filters consolidated datasets by period and builds the
// aggregated run summary.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/consolidator"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
)

// Mode selects the period column a filter matches on.
type Mode string

const (
	ModeAll     Mode = ""
	ModeDay     Mode = "dia"
	ModeMonth   Mode = "mes"
	ModeQuarter Mode = "trim"
	ModeYear    Mode = "ano"
)

var modeAliases = map[string]Mode{
	"mês":       ModeMonth,
	"trimestre": ModeQuarter,
}

// ErrInvalidFilter is returned for unknown modes or malformed selections.
var ErrInvalidFilter = errors.New("invalid period filter")

// Filter keeps rows whose period falls in Selection. For ModeDay the
// selection is an inclusive "YYYY-MM-DD" range of one or two dates; for the
// other modes it lists PERIODO_MES, PERIODO_TRIM or PERIODO_ANO values. An
// empty selection with a mode other than ModeAll keeps nothing.
type Filter struct {
	Mode      Mode     `json:"mode"`
	Selection []string `json:"selection,omitempty"`

	from, to time.Time
}

// NewFilter validates mode and selection.
func NewFilter(mode string, selection []string) (Filter, error) {
	key := strings.ToLower(strings.TrimSpace(mode))
	f := Filter{Mode: Mode(key)}
	if alias, ok := modeAliases[key]; ok {
		f.Mode = alias
	}
	for _, s := range selection {
		if s = strings.TrimSpace(s); s != "" {
			f.Selection = append(f.Selection, s)
		}
	}

	switch f.Mode {
	case ModeAll, ModeMonth, ModeQuarter, ModeYear:
		return f, nil
	case ModeDay:
	default:
		return Filter{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidFilter, mode)
	}

	if len(f.Selection) == 0 || len(f.Selection) > 2 {
		return Filter{}, fmt.Errorf("%w: day mode needs a start date and an optional end date", ErrInvalidFilter)
	}
	var err error
	if f.from, err = time.Parse("2006-01-02", f.Selection[0]); err != nil {
		return Filter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	f.to = f.from
	if len(f.Selection) == 2 {
		if f.to, err = time.Parse("2006-01-02", f.Selection[1]); err != nil {
			return Filter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
	}
	if f.to.Before(f.from) {
		f.from, f.to = f.to, f.from
	}
	return f, nil
}

// Match reports whether a row dated d passes the filter. Rows without a
// date only pass ModeAll.
func (f Filter) Match(d time.Time) bool {
	if f.Mode == ModeAll {
		return true
	}
	if normalizer.IsNoDate(d) {
		return false
	}
	if f.Mode == ModeDay {
		return !d.Before(f.from) && !d.After(f.to)
	}

	cols := normalizer.PeriodColumns(d)
	var value string
	switch f.Mode {
	case ModeMonth:
		value = cols.Month
	case ModeQuarter:
		value = cols.Quarter
	case ModeYear:
		value = cols.Year
	}
	for _, s := range f.Selection {
		if s == value {
			return true
		}
	}
	return false
}

// Apply returns the rows of ds that pass f. ds is not modified.
func (f Filter) Apply(ds consolidator.Datasets) consolidator.Datasets {
	return consolidator.Datasets{
		Categories: keep(ds.Categories, func(r statement.CategoryRow) bool { return f.Match(r.Date) }),
		Rubrics:    keep(ds.Rubrics, func(r statement.RubricRow) bool { return f.Match(r.Date) }),
		Works:      keep(ds.Works, func(r statement.WorkRow) bool { return f.Match(r.Date) }),
	}
}

func keep[T any](rows []T, pred func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
