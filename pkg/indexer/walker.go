package indexer

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/panbanda/gitrends/internal/vcs"
)

// Step is one commit of the history walk together with its diff plan.
type Step struct {
	Commit vcs.Commit
	// Parents to diff against, in order. Empty for a root commit, which is
	// diffed against the empty tree.
	Parents []vcs.Commit
	// Skipped is set for a parent of an already diffed merge. The commit is
	// still logged but produces no file entries.
	Skipped bool
}

// Merge reports whether the commit is diffed against more than one parent.
func (s Step) Merge() bool {
	return len(s.Parents) > 1
}

// Walk visits every commit reachable from HEAD, newest first, and calls fn
// with the diff plan for each.
//
// A merge is diffed against each of its parents and every parent id is put
// into an ignore set. When the walk later reaches a commit in that set, the
// id is removed and the commit is skipped, so changes already seen through
// the merge are not counted again against the parent's own parent. This is
// an approximation of effective change in branchy histories, not blame.
func Walk(ctx context.Context, repo vcs.Repository, fn func(Step) error) error {
	iter, err := repo.LogWithContext(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: reading log: %v", ErrRepository, err)
	}
	defer iter.Close()

	ignored := make(map[plumbing.Hash]struct{})

	return iter.ForEach(func(commit vcs.Commit) error {
		step := Step{Commit: commit}

		if _, ok := ignored[commit.Hash()]; ok {
			delete(ignored, commit.Hash())
			step.Skipped = true
			return fn(step)
		}

		n := commit.NumParents()
		step.Parents = make([]vcs.Commit, 0, n)
		for i := 0; i < n; i++ {
			parent, err := commit.Parent(i)
			if err != nil {
				return fmt.Errorf("%w: parent %d of %s: %v", ErrRepository, i, commit.ShortID(), err)
			}
			step.Parents = append(step.Parents, parent)
		}
		if n > 1 {
			for _, hash := range commit.ParentHashes() {
				ignored[hash] = struct{}{}
			}
		}

		return fn(step)
	})
}
