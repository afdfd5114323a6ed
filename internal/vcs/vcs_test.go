package vcs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/panbanda/gitrends/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T, path string) Repository {
	t.Helper()
	repo, err := NewGitOpener().PlainOpen(path)
	require.NoError(t, err)
	return repo
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	_, err := NewGitOpener().PlainOpen("/nonexistent/path")
	assert.Error(t, err)
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	fixture.Commit("init", "alice", map[string]string{"a.txt": "a\n"})

	subDir := filepath.Join(fixture.Path, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	repo, err := NewGitOpener().PlainOpenWithDetect(subDir)
	require.NoError(t, err)
	assert.Equal(t, subDir, repo.RepoPath())
}

func TestGitRepository_Head(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	hash := fixture.Commit("init", "alice", map[string]string{"a.txt": "a\n"})

	head, err := openRepo(t, fixture.Path).Head()
	require.NoError(t, err)
	assert.Equal(t, hash, head.Hash())
	assert.Equal(t, "master", head.Name())
}

func TestGitRepository_HeadFiles(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	fixture.Commit("init", "alice", map[string]string{
		"a.txt":          "a\n",
		"src/b.go":       "package b\n",
		"src/deep/c.txt": "c\n",
	})
	fixture.Commit("drop a", "alice", nil, "a.txt")

	files, err := openRepo(t, fixture.Path).HeadFiles()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{
		"src/b.go":       {},
		"src/deep/c.txt": {},
	}, files)
}

func TestGitRepository_Log(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	first := fixture.Commit("one", "alice", map[string]string{"a.txt": "1\n"})
	second := fixture.Commit("two", "bob", map[string]string{"a.txt": "2\n"})

	iter, err := openRepo(t, fixture.Path).Log(nil)
	require.NoError(t, err)
	defer iter.Close()

	var ids []string
	require.NoError(t, iter.ForEach(func(c Commit) error {
		ids = append(ids, c.ShortID())
		return nil
	}))
	assert.Equal(t, []string{ShortID(second), ShortID(first)}, ids)
}

func TestGitRepository_LogWithContext_Cancelled(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	fixture.Commit("one", "alice", map[string]string{"a.txt": "1\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	iter, err := openRepo(t, fixture.Path).LogWithContext(ctx, nil)
	require.NoError(t, err)
	defer iter.Close()

	err = iter.ForEach(func(Commit) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGitCommit_Methods(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	first := fixture.Commit("one", "alice", map[string]string{"a.txt": "1\n"})
	second := fixture.Commit("two\n\nbody", "bob", map[string]string{"a.txt": "2\n"})

	repo := openRepo(t, fixture.Path)
	commit, err := repo.CommitObject(second)
	require.NoError(t, err)

	assert.Equal(t, second.String()[:7], commit.ShortID())
	assert.Equal(t, 1, commit.NumParents())
	assert.Equal(t, first, commit.ParentHashes()[0])
	assert.Equal(t, "bob", commit.Author().Name)
	assert.Equal(t, testutil.Time(1).Unix(), commit.Committer().When.Unix())
	assert.Equal(t, "two\n\nbody", commit.Message())

	parent, err := commit.Parent(0)
	require.NoError(t, err)
	assert.Equal(t, first, parent.Hash())
}

func TestGitCommit_Changes(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	first := fixture.Commit("one", "alice", map[string]string{
		"keep.txt": "keep\n",
		"mod.txt":  "v1\n",
		"del.txt":  "bye\n",
	})
	second := fixture.Commit("two", "alice", map[string]string{
		"mod.txt": "v2\n",
		"new.txt": "hello\n",
	}, "del.txt")

	repo := openRepo(t, fixture.Path)

	root, err := repo.CommitObject(first)
	require.NoError(t, err)
	rootChanges, err := root.Changes(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"keep.txt", "mod.txt", "del.txt"}, changePaths(rootChanges))

	commit, err := repo.CommitObject(second)
	require.NoError(t, err)
	parent, err := commit.Parent(0)
	require.NoError(t, err)
	changes, err := commit.Changes(parent)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mod.txt", "new.txt", "del.txt"}, changePaths(changes))

	for _, c := range changes {
		if c.Path() == "del.txt" {
			assert.Equal(t, "del.txt", c.FromName())
			assert.Empty(t, c.ToName())
		}
	}
}

func TestGitTree_Text(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	hash := fixture.Commit("one", "alice", map[string]string{
		"text.txt": "hello\n",
		"bin.dat":  "\xff\xfe\x00binary",
	})

	commit, err := openRepo(t, fixture.Path).CommitObject(hash)
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)

	content, ok, err := tree.Text("text.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello\n", content)

	_, ok, err = tree.Text("bin.dat")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = tree.Text("missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGitTree_Entries(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	hash := fixture.Commit("one", "alice", map[string]string{
		"a.txt":     "a\n",
		"dir/b.txt": "bb\n",
	})

	commit, err := openRepo(t, fixture.Path).CommitObject(hash)
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)

	entries, err := tree.Entries()
	require.NoError(t, err)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	assert.Equal(t, []TreeEntry{{Path: "a.txt", Size: 2}, {Path: "dir/b.txt", Size: 3}}, entries)
}

func TestDefaultOpener(t *testing.T) {
	original := DefaultOpener()
	defer SetDefaultOpener(original)

	custom := NewGitOpener()
	SetDefaultOpener(custom)
	assert.Same(t, custom, DefaultOpener())
}

func changePaths(changes Changes) []string {
	paths := make([]string, len(changes))
	for i, c := range changes {
		paths[i] = c.Path()
	}
	return paths
}
