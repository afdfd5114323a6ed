package indexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/panbanda/gitrends/internal/vcs"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// FileChange is a path that differs between a commit and one of its parents.
type FileChange struct {
	Path string
	// Deleted is set when the path is absent from the commit's tree.
	Deleted bool
	// Text is set when the commit's blob decoded as UTF-8. Only text
	// changes carry Content and become file entries.
	Text    bool
	Content string
	// Previous is the parent's text of the file, empty when the file is new
	// or the parent's blob is not text.
	Previous string
}

// ExtractDiff lists the files changed by commit relative to parent. A nil
// parent compares against the empty tree. Paths for which skip returns true
// are dropped before any blob is read.
func ExtractDiff(commit, parent vcs.Commit, skip func(path string) bool) ([]FileChange, error) {
	changes, err := commit.Changes(parent)
	if err != nil {
		return nil, fmt.Errorf("%w: diff %s: %v", ErrRepository, commit.ShortID(), err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: tree of %s: %v", ErrRepository, commit.ShortID(), err)
	}
	var parentTree vcs.Tree
	if parent != nil {
		if parentTree, err = parent.Tree(); err != nil {
			return nil, fmt.Errorf("%w: tree of %s: %v", ErrRepository, parent.ShortID(), err)
		}
	}

	result := make([]FileChange, 0, len(changes))
	for _, change := range changes {
		path := change.Path()
		if skip != nil && skip(path) {
			continue
		}

		fc := FileChange{Path: path}
		if change.ToName() == "" {
			fc.Deleted = true
			result = append(result, fc)
			continue
		}

		fc.Content, fc.Text, err = tree.Text(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s@%s: %v", ErrRepository, path, commit.ShortID(), err)
		}
		if fc.Text && parentTree != nil && change.FromName() != "" {
			previous, ok, err := parentTree.Text(change.FromName())
			if err != nil {
				return nil, fmt.Errorf("%w: read %s@%s: %v", ErrRepository, change.FromName(), parent.ShortID(), err)
			}
			if ok {
				fc.Previous = previous
			}
		}
		result = append(result, fc)
	}
	return result, nil
}

// LineDelta counts the lines added and removed going from before to after.
func LineDelta(before, after string) (added, removed uint64) {
	if before == after {
		return 0, 0
	}
	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(before, after)
	for _, edit := range dmp.DiffMainRunes(src, dst, false) {
		// Each rune stands for one line.
		n := uint64(utf8.RuneCountInString(edit.Text))
		switch edit.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}
