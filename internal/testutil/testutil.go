package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// BaseTime is the timestamp of the first commit created by a GitRepo.
var BaseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// GitRepo builds a throwaway repository with deterministic commit times.
// Every commit is one hour after the previous one.
type GitRepo struct {
	t    *testing.T
	Path string
	Repo *git.Repository
	when time.Time
}

// NewGitRepo initializes an empty repository in a temp directory.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	path := t.TempDir()
	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}
	return &GitRepo{t: t, Path: path, Repo: repo, when: BaseTime}
}

// Commit writes files, removes the given paths and commits on top of HEAD.
func (r *GitRepo) Commit(message, author string, files map[string]string, removed ...string) plumbing.Hash {
	r.t.Helper()
	return r.commit(message, author, files, removed, nil)
}

// Merge commits the given files with explicit parents. The worktree should be
// checked out at the first parent.
func (r *GitRepo) Merge(message, author string, files map[string]string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	return r.commit(message, author, files, nil, parents)
}

// Checkout moves HEAD (detached) and the worktree to the given commit.
func (r *GitRepo) Checkout(hash plumbing.Hash) {
	r.t.Helper()
	w, err := r.Repo.Worktree()
	if err != nil {
		r.t.Fatalf("Failed to get worktree: %v", err)
	}
	if err := w.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		r.t.Fatalf("Failed to checkout %s: %v", hash, err)
	}
}

// Time returns the timestamp the nth commit (zero based) was created with.
func Time(n int) time.Time {
	return BaseTime.Add(time.Duration(n) * time.Hour)
}

func (r *GitRepo) commit(message, author string, files map[string]string, removed []string, parents []plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	w, err := r.Repo.Worktree()
	if err != nil {
		r.t.Fatalf("Failed to get worktree: %v", err)
	}

	for name, content := range files {
		WriteFile(r.t, filepath.Join(r.Path, name), content)
		if _, err := w.Add(name); err != nil {
			r.t.Fatalf("Failed to add %s: %v", name, err)
		}
	}
	for _, name := range removed {
		if _, err := w.Remove(name); err != nil {
			r.t.Fatalf("Failed to remove %s: %v", name, err)
		}
	}

	sig := &object.Signature{Name: author, Email: author + "@example.com", When: r.when}
	r.when = r.when.Add(time.Hour)

	hash, err := w.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.t.Fatalf("Failed to commit: %v", err)
	}
	return hash
}
