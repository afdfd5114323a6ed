// Package rules parses the optional rule files that shape analytics: ignore
// patterns, module rules and author aliases.
package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Rule file names inside the data directory.
const (
	IgnoreFile  = "ignore.txt"
	ModulesFile = "modules.txt"
	AuthorsFile = "authors.txt"
)

// Files lists every rule file Load reads.
var Files = []string{IgnoreFile, ModulesFile, AuthorsFile}

// compilePattern compiles a rule glob. No separators are declared, so "*"
// and "?" match "/" too and "src/*" covers every file below src.
func compilePattern(pattern string) (glob.Glob, error) {
	return glob.Compile(pattern)
}

// PatternError reports a malformed glob in a rule file.
type PatternError struct {
	File    string
	Line    int
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: invalid pattern %q: %v", e.Line, e.Pattern, e.Err)
	}
	return fmt.Sprintf("%s:%d: invalid pattern %q: %v", e.File, e.Line, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// AliasError reports an author alias line with an empty side.
type AliasError struct {
	File string
	Line int
	Text string
}

func (e *AliasError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: invalid author alias %q", e.Line, e.Text)
	}
	return fmt.Sprintf("%s:%d: invalid author alias %q", e.File, e.Line, e.Text)
}

// Set bundles the rules an analytics engine is built with.
type Set struct {
	Ignore  *IgnoreRules
	Modules *ModuleRules
	Authors *AuthorAliases
}

// Empty returns a rule set that ignores nothing, maps files to their parent
// directory and leaves author names untouched.
func Empty() Set {
	return Set{
		Ignore:  &IgnoreRules{},
		Modules: &ModuleRules{},
		Authors: &AuthorAliases{},
	}
}

// Load reads the rule files from dir. Missing files yield empty rules.
func Load(dir string) (Set, error) {
	set := Empty()

	content, err := readOptional(filepath.Join(dir, IgnoreFile))
	if err != nil {
		return Set{}, err
	}
	set.Ignore = ParseIgnore(content)

	content, err = readOptional(filepath.Join(dir, ModulesFile))
	if err != nil {
		return Set{}, err
	}
	if set.Modules, err = ParseModules(content); err != nil {
		return Set{}, withFile(err, ModulesFile)
	}

	content, err = readOptional(filepath.Join(dir, AuthorsFile))
	if err != nil {
		return Set{}, err
	}
	if set.Authors, err = ParseAuthors(content); err != nil {
		return Set{}, withFile(err, AuthorsFile)
	}

	return set, nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func withFile(err error, file string) error {
	var pe *PatternError
	if errors.As(err, &pe) {
		pe.File = file
	}
	var ae *AliasError
	if errors.As(err, &ae) {
		ae.File = file
	}
	return err
}

// lines splits content into lines, dropping one trailing carriage return
// per line and the empty remainder after a final newline.
func lines(content string) []string {
	if content == "" {
		return nil
	}
	out := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, l := range out {
		out[i] = strings.TrimSuffix(l, "\r")
	}
	return out
}
