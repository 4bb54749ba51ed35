package analysis

import (
	"cmp"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jacoelho/jsonpatcher/internal/token"
)

// Completion is one candidate offered at a cursor.
type Completion struct {
	Label  string
	Kind   string
	Detail string
	Doc    string
}

// Completions lists what may be typed at offset. After `lib.` the members of
// a built-in library are offered; elsewhere the visible symbols, innermost
// first, followed by keywords. A partially typed word filters candidates by
// fuzzy match, best matches first.
func (a *Analysis) Completions(offset int) []Completion {
	text := a.file.Text()
	offset = max(0, min(offset, len(text)))

	start := offset
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	prefix := text[start:offset]

	var candidates []Completion
	if start > 0 && text[start-1] == '.' {
		candidates = a.memberCompletions(text, start-1)
	} else {
		candidates = a.scopeCompletions(offset)
	}
	return rank(prefix, candidates)
}

func (a *Analysis) memberCompletions(text string, dot int) []Completion {
	end := dot
	begin := end
	for begin > 0 && isIdentByte(text[begin-1]) {
		begin--
	}
	if begin == end {
		return nil
	}

	sym, ok := a.result.LookupFrom(a.result.ScopeAt(dot), text[begin:end])
	if !ok || sym.Library == nil {
		return nil
	}

	var out []Completion
	for _, m := range sym.Library.Members() {
		info := memberInfo(sym.Library.Name, m.Name, m.Doc, m.Value)
		out = append(out, Completion{Label: m.Name, Kind: info.Kind, Detail: info.Detail, Doc: info.Doc})
	}
	return out
}

func (a *Analysis) scopeCompletions(offset int) []Completion {
	var out []Completion
	for _, sym := range a.result.Visible(offset) {
		info := a.Describe(sym)
		out = append(out, Completion{Label: sym.Name, Kind: info.Kind, Detail: info.Detail, Doc: info.Doc})
	}
	for _, kw := range token.Keywords() {
		out = append(out, Completion{Label: kw, Kind: "keyword"})
	}
	return out
}

func rank(prefix string, candidates []Completion) []Completion {
	if prefix == "" {
		return candidates
	}

	labels := make([]string, len(candidates))
	for i, c := range candidates {
		labels[i] = c.Label
	}
	ranks := fuzzy.RankFindFold(prefix, labels)
	slices.SortStableFunc(ranks, func(x, y fuzzy.Rank) int {
		xp := strings.HasPrefix(strings.ToLower(x.Target), strings.ToLower(prefix))
		yp := strings.HasPrefix(strings.ToLower(y.Target), strings.ToLower(prefix))
		if xp != yp {
			if xp {
				return -1
			}
			return 1
		}
		return cmp.Or(cmp.Compare(x.Distance, y.Distance), cmp.Compare(x.OriginalIndex, y.OriginalIndex))
	})

	out := make([]Completion, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, candidates[r.OriginalIndex])
	}
	return out
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
