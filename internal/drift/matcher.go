package drift

import (
	"path"
	"strings"
)

// Matcher decides whether a documented file path refers to a structural
// file path. The policy is pluggable because any alias heuristic trades
// false negatives for false positives; callers with stricter layouts can
// supply exact-only matching.
type Matcher interface {
	Match(documented, structural string) bool
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(documented, structural string) bool

func (f MatcherFunc) Match(documented, structural string) bool { return f(documented, structural) }

// DefaultMatcher matches by exact path, or by basename when the directory
// differs. The basename fallback tolerates refactors that move files
// without renaming them, at the cost of occasionally matching an unrelated
// file that shares a name. Hyphen and underscore differences in the
// basename are normalized away.
func DefaultMatcher() Matcher {
	return MatcherFunc(func(documented, structural string) bool {
		if documented == structural {
			return true
		}
		return normalizeBase(documented) == normalizeBase(structural)
	})
}

// ExactMatcher matches by exact path only.
func ExactMatcher() Matcher {
	return MatcherFunc(func(documented, structural string) bool {
		return documented == structural
	})
}

func normalizeBase(p string) string {
	base := strings.ToLower(path.Base(p))
	return strings.ReplaceAll(base, "-", "_")
}

// matchAny reports whether any candidate matches the documented path.
func matchAny(m Matcher, documented string, candidates []string) bool {
	for _, c := range candidates {
		if m.Match(documented, c) {
			return true
		}
	}
	return false
}

// coveredBy reports whether any documented path matches the structural path.
func coveredBy(m Matcher, structural string, documented []string) bool {
	for _, d := range documented {
		if m.Match(d, structural) {
			return true
		}
	}
	return false
}
