package rules

import (
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreRules excludes files matching any of its glob patterns.
type IgnoreRules struct {
	patterns []string
	matchers []glob.Glob
}

// ParseIgnore reads one glob per line. Blank lines, lines starting with '#'
// and malformed patterns are skipped.
func ParseIgnore(content string) *IgnoreRules {
	r := &IgnoreRules{}
	for _, line := range lines(content) {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		g, err := compilePattern(line)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, line)
		r.matchers = append(r.matchers, g)
	}
	return r
}

// Patterns returns the accepted patterns in file order.
func (r *IgnoreRules) Patterns() []string {
	return r.patterns
}

// IsIgnored reports whether path matches any pattern.
func (r *IgnoreRules) IsIgnored(path string) bool {
	if r == nil {
		return false
	}
	for _, g := range r.matchers {
		if g.Match(path) {
			return true
		}
	}
	return false
}
