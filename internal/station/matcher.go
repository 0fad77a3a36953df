package station

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Policy selects how permissive a Matcher is.
type Policy int

const (
	// Strict accepts exact names and parenthetical variants only.
	Strict Policy = iota
	// Lenient also accepts substring containment when nothing matches strictly.
	Lenient
)

// Rank orders how well a candidate name matches a query.
type Rank int

const (
	NoMatch Rank = iota
	SubstringMatch
	ParenMatch
	ExactMatch
)

// Normalize composes Hangul into NFC and removes all whitespace. Feeds mix
// NFC and NFD encodings of the same syllables, which compare unequal as bytes.
func Normalize(name string) string {
	name = norm.NFC.String(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

func withoutStationSuffix(name string) string {
	if trimmed := strings.TrimSuffix(name, "역"); trimmed != "" {
		return trimmed
	}
	return name
}

// forms returns the normalized name with and without a trailing "역".
func forms(name string) []string {
	n := Normalize(name)
	if n == "" {
		return nil
	}
	if bare := withoutStationSuffix(n); bare != n {
		return []string{n, bare}
	}
	return []string{n}
}

// Matcher decides whether upstream station names refer to one queried station.
type Matcher struct {
	query  []string
	policy Policy
}

func NewMatcher(query string, policy Policy) *Matcher {
	return &Matcher{query: forms(query), policy: policy}
}

// Empty reports whether the query was blank.
func (m *Matcher) Empty() bool {
	return len(m.query) == 0
}

// Rank scores a candidate. "서울역" ranks "서울", "서울역" as exact and
// "서울(1)" as a parenthetical match; "서울대입구" only ranks as a substring.
func (m *Matcher) Rank(candidate string) Rank {
	cand := forms(candidate)
	if len(m.query) == 0 || len(cand) == 0 {
		return NoMatch
	}
	best := NoMatch
	for _, q := range m.query {
		for _, c := range cand {
			switch {
			case c == q:
				return ExactMatch
			case strings.HasPrefix(c, q+"("):
				best = max(best, ParenMatch)
			case m.policy == Lenient && strings.Contains(c, q):
				best = max(best, SubstringMatch)
			}
		}
	}
	return best
}

// Match reports whether the candidate is accepted under the matcher's policy.
func (m *Matcher) Match(candidate string) bool {
	return m.Rank(candidate) != NoMatch
}

// Select keeps the items whose name matches. Exact and parenthetical matches are
// preferred; substring matches are returned only when there is nothing better.
func Select[T any](m *Matcher, items []T, name func(T) []string) []T {
	strong := make([]T, 0, len(items))
	var weak []T
	for _, item := range items {
		best := NoMatch
		for _, n := range name(item) {
			best = max(best, m.Rank(n))
		}
		switch {
		case best >= ParenMatch:
			strong = append(strong, item)
		case best == SubstringMatch:
			weak = append(weak, item)
		}
	}
	if len(strong) > 0 || len(weak) == 0 {
		return strong
	}
	return weak
}

// SameLine compares line labels loosely, so "1호선", "01호선" and "1" agree.
func SameLine(a, b string) bool {
	a, b = lineKey(a), lineKey(b)
	return a != "" && a == b
}

func lineKey(line string) string {
	line = Normalize(line)
	line = strings.TrimSuffix(line, "선")
	line = strings.TrimSuffix(line, "호")
	line = strings.TrimLeft(line, "0")
	return strings.ToLower(line)
}
