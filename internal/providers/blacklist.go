package providers

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// BlacklistMatcher matches listing text against a job's blacklist terms:
// whole-word, case-insensitive, OR-combined. An empty term set matches
// nothing.
type BlacklistMatcher struct {
	pattern *regexp.Regexp
}

func NewBlacklistMatcher(terms []string) *BlacklistMatcher {

	quoted := lo.FilterMap(terms, func(term string, _ int) (string, bool) {
		term = strings.TrimSpace(term)
		return regexp.QuoteMeta(term), term != ""
	})

	if len(quoted) == 0 {
		return &BlacklistMatcher{}
	}

	return &BlacklistMatcher{
		pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

func (m *BlacklistMatcher) Matches(text string) bool {
	if m == nil || m.pattern == nil {
		return false
	}
	return m.pattern.MatchString(text)
}
