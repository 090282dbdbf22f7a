package rubric

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

var subPeriodPattern = regexp.MustCompile(`\b\d{2}/\d{4}(?: A \d{2}/\d{4})?\b`)

// SplitSubPeriod removes the "MM/YYYY" or "MM/YYYY A MM/YYYY" range from a
// rubric name. It returns the cleaned name and the first range found. Only
// the ends are trimmed; inner spacing is kept so names match reference
// tables exported from earlier runs.
func SplitSubPeriod(name string) (clean, sub string) {
	sub = subPeriodPattern.FindString(name)
	if sub == "" {
		return strings.TrimSpace(name), ""
	}
	clean = subPeriodPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(clean), sub
}

// Miss is a cleaned rubric name with no reference entry.
type Miss struct {
	Name        string   `json:"name"`
	Count       int      `json:"count"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// MapResult holds the mapped rows and the names that found no model.
type MapResult struct {
	Rows   []statement.RubricRow
	Misses []Miss
}

// Mapper labels rubric rows with their canonical model.
type Mapper struct {
	ref    *Reference
	logger *slog.Logger
}

// NewMapper creates a mapper. A nil reference leaves every model empty.
func NewMapper(ref *Reference, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{ref: ref, logger: logger}
}

// Apply strips sub-periods and assigns models. The input slice is not
// modified.
func (m *Mapper) Apply(rows []statement.RubricRow) MapResult {
	out := make([]statement.RubricRow, len(rows))
	missIndex := make(map[string]int)
	var misses []Miss

	for i, row := range rows {
		row.Name, row.SubPeriod = SplitSubPeriod(row.Name)
		model, ok := m.ref.Lookup(row.Name)
		row.Model = model
		out[i] = row

		if ok || m.ref.Len() == 0 {
			continue
		}
		if idx, seen := missIndex[row.Name]; seen {
			misses[idx].Count++
			continue
		}
		missIndex[row.Name] = len(misses)
		misses = append(misses, Miss{
			Name:        row.Name,
			Count:       1,
			Suggestions: m.ref.Suggest(row.Name),
		})
	}

	for _, miss := range misses {
		m.logger.Debug("rubric without model",
			slog.String("rubric", miss.Name),
			slog.Int("rows", miss.Count),
			slog.Any("suggestions", miss.Suggestions),
		)
	}
	if len(misses) > 0 {
		m.logger.Info("unmapped rubrics", slog.Int("distinct", len(misses)))
	}

	return MapResult{Rows: out, Misses: misses}
}
