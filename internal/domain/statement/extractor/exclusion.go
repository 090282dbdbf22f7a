package extractor

import "strings"

// exclusionState is the state of the excluded sub-block filter.
type exclusionState int

const (
	including exclusionState = iota
	excluding
)

func (s exclusionState) String() string {
	if s == excluding {
		return "excluding"
	}
	return "including"
}

// exclusionWindow drops the statistics sub-block that sits between a
// begin-exclude line and the column header that resumes the table.
type exclusionWindow struct {
	start  string
	resume string
}

// next consumes one line and returns the new state and whether the line is
// kept. The resume line itself is never kept.
func (w exclusionWindow) next(state exclusionState, line string) (exclusionState, bool) {
	if w.start == "" {
		return including, true
	}
	if strings.HasPrefix(line, w.start) {
		state = excluding
	}
	if w.resume != "" && strings.HasPrefix(line, w.resume) {
		return including, false
	}
	return state, state == including
}

// filter applies the window to lines, starting in the including state.
func (w exclusionWindow) filter(lines []string) []string {
	kept := make([]string, 0, len(lines))
	state := including
	for _, line := range lines {
		var keep bool
		state, keep = w.next(state, line)
		if keep {
			kept = append(kept, line)
		}
	}
	return kept
}
