package walk

import (
	"path/filepath"

	"symgrep/internal/errors"
)

// globSet is a small set of glob patterns matched with the standard
// library's filepath.Match, checked both against the full relative path
// and its basename (so `*.go` matches at any depth, matching the
// original engine's build_globset behavior).
type globSet []string

func newGlobSet(patterns []string) (globSet, error) {
	for _, p := range patterns {
		if _, err := filepath.Match(p, "probe"); err != nil {
			return nil, errors.NewInvalidConfig("invalid glob pattern \"" + p + "\"")
		}
	}
	return globSet(patterns), nil
}

// emptyOrMatches reports true when the set is empty (no include filter
// configured) or when rel matches any pattern in the set.
func (g globSet) emptyOrMatches(rel string) bool {
	if len(g) == 0 {
		return true
	}
	return g.matches(rel)
}

func (g globSet) matches(rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range g {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
