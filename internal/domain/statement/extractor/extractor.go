package extractor

import (
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/period"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/token"
)

// Result is the raw table recovered from one document.
type Result struct {
	Kind   statement.TableKind
	Rows   []statement.RawRow
	Period string

	// Found is false when an anchor was missing; Reason explains which.
	Found  bool
	Reason string

	// StatedTotal is the "TOTAL GERAL" amount printed after the work table,
	// empty when the document has none.
	StatedTotal string
}

// Extract runs spec over the pages of one period document. A missing anchor
// yields an empty result with Found unset, never an error.
func Extract(spec TableSpec, pages []statement.Page) Result {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = period.Canonical(p.Text)
	}

	if spec.Bounded() {
		return extractBounded(spec, pages, texts)
	}
	return extractLines(spec, pages, texts)
}

// bounds is the page range of a bounded table.
type bounds struct {
	start, end int
}

// locate finds the first page with the start anchor and the first page at or
// after it with the end anchor. On the start page the end anchor must follow
// the start anchor.
func locate(spec TableSpec, texts []string) (bounds, error) {
	matcher := ahocorasick.NewStringMatcher([]string{spec.StartAnchor, spec.EndAnchor})
	b := bounds{start: -1, end: -1}

	for i, text := range texts {
		hits := matcher.Match([]byte(text))
		hasStart, hasEnd := false, false
		for _, h := range hits {
			switch h {
			case 0:
				hasStart = true
			case 1:
				hasEnd = true
			}
		}

		if b.start < 0 && hasStart {
			b.start = i
		}
		if b.start < 0 || !hasEnd {
			continue
		}
		if i == b.start {
			after := text[strings.Index(text, spec.StartAnchor)+len(spec.StartAnchor):]
			if !strings.Contains(after, spec.EndAnchor) {
				continue
			}
		}
		b.end = i
		return b, nil
	}

	if b.start < 0 {
		return b, fmt.Errorf("start anchor %q not found", spec.StartAnchor)
	}
	return b, fmt.Errorf("end anchor %q not found after page %d", spec.EndAnchor, b.start+1)
}

// clip joins the bounded pages, cutting the start page at the start anchor and
// the end page just after the end anchor.
func clip(spec TableSpec, texts []string, b bounds) []string {
	segments := make([]string, 0, b.end-b.start+1)
	for i := b.start; i <= b.end; i++ {
		txt := texts[i]
		if i == b.start {
			if idx := strings.Index(txt, spec.StartAnchor); idx >= 0 {
				txt = txt[idx:]
			}
		}
		if i == b.end {
			if idx := strings.Index(txt, spec.EndAnchor); idx >= 0 {
				txt = txt[:idx+len(spec.EndAnchor)]
			}
		}
		segments = append(segments, txt)
	}
	return strings.Split(strings.Join(segments, "\n"), "\n")
}

func extractBounded(spec TableSpec, pages []statement.Page, texts []string) Result {
	res := Result{Kind: spec.Kind}

	b, err := locate(spec, texts)
	if err != nil {
		res.Period = period.Last(pages)
		res.Reason = err.Error()
		return res
	}
	res.Found = true
	res.Period = period.Last(pages[:b.end+1])

	lines := clip(spec, texts, b)
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	window := exclusionWindow{start: spec.ExcludeStart, resume: spec.ExcludeResume}
	for _, line := range window.filter(lines) {
		if skipLine(spec, line) {
			continue
		}
		names, values := token.Split(line)
		res.Rows = append(res.Rows, statement.RawRow{
			Name:   strings.Join(names, " "),
			Values: pad(values, spec.Columns, spec.PadLeft),
			Period: res.Period,
		})
	}
	return res
}

// skipLine drops empty lines and lines repeating a table boundary phrase.
func skipLine(spec TableSpec, line string) bool {
	if line == "" {
		return true
	}
	for _, prefix := range spec.SkipPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return spec.EndAnchor != "" && strings.Contains(line, spec.EndAnchor)
}

// pad fits values to n columns with placeholders. With left padding the
// values present fill the rightmost columns, and surplus values are dropped
// from the left so the grand total stays last.
func pad(values []string, n int, left bool) []string {
	if len(values) > n {
		if left {
			return append([]string(nil), values[len(values)-n:]...)
		}
		return append([]string(nil), values[:n]...)
	}

	out := make([]string, 0, n)
	missing := n - len(values)
	if left {
		for i := 0; i < missing; i++ {
			out = append(out, token.PlaceholderLiteral)
		}
		return append(out, values...)
	}
	out = append(out, values...)
	for i := 0; i < missing; i++ {
		out = append(out, token.PlaceholderLiteral)
	}
	return out
}

func extractLines(spec TableSpec, pages []statement.Page, texts []string) Result {
	res := Result{Kind: spec.Kind, Period: period.Last(pages)}

	lines := strings.Split(strings.Join(texts, "\n"), "\n")
	collecting := false
	for i, line := range lines {
		if line == "" {
			continue
		}
		if strings.Contains(line, spec.StartAnchor) {
			collecting = true
		}
		if !collecting {
			continue
		}
		res.Found = true

		if strings.Contains(line, StatedTotalMarker) {
			if total := statedTotal(lines, i); total != "" {
				res.StatedTotal = total
			}
		}

		row, ok := workRow(spec, strings.TrimSpace(line))
		if !ok {
			continue
		}
		row.Period = res.Period
		res.Rows = append(res.Rows, row)
	}

	if !res.Found {
		res.Reason = fmt.Sprintf("start anchor %q not found", spec.StartAnchor)
	}
	return res
}

// workRow splits a qualifying line into code, name and the last currency
// token, which is the apportionment.
func workRow(spec TableSpec, line string) (statement.RawRow, bool) {
	if spec.LinePattern != nil && !spec.LinePattern.MatchString(line) {
		return statement.RawRow{}, false
	}

	parts := strings.Fields(line)
	first, last := -1, -1
	for i, p := range parts {
		if !token.IsCurrency(p) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 1 {
		return statement.RawRow{}, false
	}

	name := strings.TrimSpace(strings.Join(parts[1:first], " "))
	if name == "" {
		return statement.RawRow{}, false
	}
	return statement.RawRow{
		Code:   parts[0],
		Name:   name,
		Values: []string{parts[last]},
	}, true
}

// statedTotal reads the amount printed with a "TOTAL GERAL" label: first on
// the label line after the phrase, then on the next line.
func statedTotal(lines []string, i int) string {
	rest := lines[i][strings.Index(lines[i], StatedTotalMarker)+len(StatedTotalMarker):]
	if tok := firstCurrency(rest); tok != "" {
		return tok
	}
	if i+1 < len(lines) {
		return firstCurrency(lines[i+1])
	}
	return ""
}

func firstCurrency(line string) string {
	for _, p := range strings.Fields(line) {
		if token.IsCurrency(p) {
			return p
		}
	}
	return ""
}
