package resolver

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns the candidate closest to name: the best fuzzy
// subsequence match, or failing that the nearest name by edit distance.
func Suggest(name string, candidates []string) (string, bool) {
	if name == "" || len(candidates) == 0 {
		return "", false
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target, true
	}

	limit := max(2, len(name)/3)
	best := ""
	bestDistance := limit + 1
	for _, candidate := range candidates {
		d := fuzzy.LevenshteinDistance(name, candidate)
		if d < bestDistance || (d == bestDistance && candidate < best) {
			best, bestDistance = candidate, d
		}
	}
	if bestDistance > limit {
		return "", false
	}
	return best, true
}

func didYouMean(name string, candidates []string) string {
	if s, ok := Suggest(name, candidates); ok && s != name {
		return "; did you mean " + s + "?"
	}
	return ""
}
