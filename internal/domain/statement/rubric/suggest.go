package rubric

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MaxSuggestions caps the candidates reported for one unmapped rubric.
const MaxSuggestions = 3

// Suggest ranks reference descriptions close to name. Subsequence matches
// (accent and case insensitive) come first; when there are none, candidates
// within a third of the name's length in edit distance are used.
func (r *Reference) Suggest(name string) []string {
	descs := r.Descriptions()
	if name == "" || len(descs) == 0 {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(name, descs)
	if len(ranks) == 0 {
		limit := len([]rune(name))/3 + 1
		for i, d := range descs {
			dist := fuzzy.LevenshteinDistance(name, d)
			if dist <= limit {
				ranks = append(ranks, fuzzy.Rank{Source: name, Target: d, Distance: dist, OriginalIndex: i})
			}
		}
	}
	sort.Stable(ranks)

	out := make([]string, 0, MaxSuggestions)
	for _, rk := range ranks {
		if len(out) == MaxSuggestions {
			break
		}
		out = append(out, rk.Target)
	}
	return out
}
