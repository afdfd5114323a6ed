package rules

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
	"github.com/panbanda/gitrends/pkg/models"
)

// ruleSeparator splits a rule line into its left and right side.
const ruleSeparator = "=>"

// ModuleRule maps files matching Pattern to the module Name.
type ModuleRule struct {
	Pattern string
	Name    string
}

// ModuleRules assigns files to modules. The first matching rule wins.
type ModuleRules struct {
	rules    []ModuleRule
	matchers []glob.Glob
}

// ParseModules reads lines of the form "pattern => name". Lines without the
// separator are skipped; a malformed pattern rejects the whole set.
func ParseModules(content string) (*ModuleRules, error) {
	r := &ModuleRules{}
	for i, line := range lines(content) {
		left, right, ok := splitRule(line)
		if !ok {
			continue
		}
		g, err := compilePattern(left)
		if err != nil {
			return nil, &PatternError{Line: i + 1, Pattern: left, Err: err}
		}
		r.rules = append(r.rules, ModuleRule{Pattern: left, Name: right})
		r.matchers = append(r.matchers, g)
	}
	return r, nil
}

// Rules returns the rules in file order.
func (r *ModuleRules) Rules() []ModuleRule {
	return r.rules
}

// Module returns the module of a file path: the first matching rule's name,
// else the parent directory, else the root module.
func (r *ModuleRules) Module(file string) string {
	if r != nil {
		for i, g := range r.matchers {
			if g.Match(file) {
				return r.rules[i].Name
			}
		}
	}
	dir := path.Dir(file)
	if dir == "." || dir == "" {
		return models.RootModule
	}
	return dir
}

// splitRule splits at the last separator and trims both sides.
func splitRule(line string) (string, string, bool) {
	idx := strings.LastIndex(line, ruleSeparator)
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+len(ruleSeparator):]), true
}
