// Package linestats classifies the physical lines of a source file into code,
// comment and blank lines and measures the indentation of the code lines.
package linestats

import (
	"path"
	"strings"
	"unicode"
)

// UnknownLanguage is the language hint for files without an extension.
const UnknownLanguage = "unknown"

// Stats holds per-file line statistics.
//
// AvgIndentLevels and StdIndentLevel are NaN when the file has no code lines.
type Stats struct {
	CodeLines         uint64  `json:"num_code_lines"`
	CommentLines      uint64  `json:"num_comment_lines"`
	BlankLines        uint64  `json:"num_blank_lines"`
	TotalIndentLevels uint64  `json:"total_indent_levels"`
	AvgIndentLevels   float64 `json:"avg_indent_levels"`
	StdIndentLevel    float64 `json:"std_indent_level"`
}

// LanguageHint derives the language hint for a file path from its extension.
func LanguageHint(filePath string) string {
	base := path.Base(filePath)
	ext := path.Ext(base)
	// Dot files such as ".gitignore" have no extension.
	if ext == "" || ext == "." || ext == base {
		return UnknownLanguage
	}
	return ext[1:]
}

// Classify computes line statistics for content written in the given language.
//
// A line is blank when it holds only whitespace and a comment when it sits in a
// block comment or carries a single-line comment marker followed by at least one
// character ("#" for py, "//" otherwise). Block comments open with "/*" at the
// start of a line and close with "*/" at the end of a line; the closing line is
// not itself counted as a comment. A line may be both comment and blank; code
// lines are the rest.
func Classify(language, content string) Stats {
	marker := "//"
	if language == "py" {
		marker = "#"
	}

	var (
		stats        Stats
		inBlock      bool
		sum, squares uint64
	)
	forEachLine(content, func(line string) {
		if !inBlock && strings.HasPrefix(line, "/*") {
			inBlock = true
		}
		if inBlock && strings.HasSuffix(line, "*/") {
			inBlock = false
		}

		isComment := inBlock || hasLineComment(line, marker)
		isBlank := isBlankLine(line)

		if isComment {
			stats.CommentLines++
		}
		if isBlank {
			stats.BlankLines++
		}
		if isComment || isBlank {
			return
		}

		level := indentLevel(line)
		stats.CodeLines++
		sum += level
		squares += level * level
	})

	n := float64(stats.CodeLines)
	s := float64(sum)
	stats.TotalIndentLevels = sum
	stats.AvgIndentLevels = s / n
	stats.StdIndentLevel = (float64(squares) - s*s/n) / n
	return stats
}

// forEachLine calls fn for every line of content. Lines end at "\n" or "\r\n";
// a trailing line terminator does not produce a final empty line.
func forEachLine(content string, fn func(string)) {
	for content != "" {
		line, rest, found := strings.Cut(content, "\n")
		if found {
			line = strings.TrimSuffix(line, "\r")
		}
		fn(line)
		content = rest
	}
}

func isBlankLine(line string) bool {
	return strings.TrimLeftFunc(line, unicode.IsSpace) == ""
}

func hasLineComment(line, marker string) bool {
	rest, ok := strings.CutPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), marker)
	return ok && rest != ""
}

// indentLevel counts four spaces or one tab per level. Only the run of the
// character the line starts with is measured.
func indentLevel(line string) uint64 {
	spaces := len(line) - len(strings.TrimLeft(line, " "))
	tabs := len(line) - len(strings.TrimLeft(line, "\t"))
	return uint64(spaces+4*tabs) / 4
}
