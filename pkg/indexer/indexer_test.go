package indexer

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/panbanda/gitrends/internal/testutil"
	"github.com/panbanda/gitrends/internal/vcs"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/panbanda/gitrends/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mergeFixture builds:
//
//	c0 -- c1 ------ m
//	  \            /
//	   `-- c2 ----'
//
// d.txt differs between m and both of its parents.
type mergeFixture struct {
	repo          *testutil.GitRepo
	c0, c1, c2, m plumbing.Hash
}

func newMergeFixture(t *testing.T) *mergeFixture {
	t.Helper()
	f := &mergeFixture{repo: testutil.NewGitRepo(t)}
	f.c0 = f.repo.Commit("init", "alice", map[string]string{
		"a.txt": "a1\n",
		"b.txt": "b1\n",
	})
	f.c1 = f.repo.Commit("main", "alice", map[string]string{
		"a.txt": "a2\n",
		"d.txt": "main\n",
	})
	f.repo.Checkout(f.c0)
	f.c2 = f.repo.Commit("feature", "bob", map[string]string{
		"b.txt": "b2\n",
		"c.txt": "c\n",
		"d.txt": "feature\n",
	})
	f.repo.Checkout(f.c1)
	f.m = f.repo.Merge("merge", "alice", map[string]string{
		"b.txt": "b2\n",
		"c.txt": "c\n",
		"d.txt": "merged\n",
	}, f.c1, f.c2)
	return f
}

func openRepo(t *testing.T, path string) vcs.Repository {
	t.Helper()
	repo, err := vcs.NewGitOpener().PlainOpen(path)
	require.NoError(t, err)
	return repo
}

func TestWalk_Linear(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	c0 := fixture.Commit("one", "alice", map[string]string{"a.txt": "1\n"})
	c1 := fixture.Commit("two", "alice", map[string]string{"a.txt": "2\n"})
	c2 := fixture.Commit("three", "bob", map[string]string{"b.txt": "3\n"})

	var steps []Step
	err := Walk(context.Background(), openRepo(t, fixture.Path), func(s Step) error {
		steps = append(steps, s)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, c2, steps[0].Commit.Hash())
	assert.Equal(t, c1, steps[1].Commit.Hash())
	assert.Equal(t, c0, steps[2].Commit.Hash())

	for _, s := range steps {
		assert.False(t, s.Skipped)
		assert.False(t, s.Merge())
	}
	require.Len(t, steps[0].Parents, 1)
	assert.Equal(t, c1, steps[0].Parents[0].Hash())
	require.Len(t, steps[1].Parents, 1)
	assert.Equal(t, c0, steps[1].Parents[0].Hash())
	assert.Empty(t, steps[2].Parents)
}

func TestWalk_MergeIgnoresParents(t *testing.T) {
	f := newMergeFixture(t)

	var steps []Step
	err := Walk(context.Background(), openRepo(t, f.repo.Path), func(s Step) error {
		steps = append(steps, s)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, f.m, steps[0].Commit.Hash())
	assert.True(t, steps[0].Merge())
	require.Len(t, steps[0].Parents, 2)
	assert.Equal(t, f.c1, steps[0].Parents[0].Hash())
	assert.Equal(t, f.c2, steps[0].Parents[1].Hash())

	assert.Equal(t, f.c2, steps[1].Commit.Hash())
	assert.True(t, steps[1].Skipped)
	assert.Equal(t, f.c1, steps[2].Commit.Hash())
	assert.True(t, steps[2].Skipped)

	assert.Equal(t, f.c0, steps[3].Commit.Hash())
	assert.False(t, steps[3].Skipped)
	assert.Empty(t, steps[3].Parents)
}

func TestWalk_CallbackError(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	fixture.Commit("one", "alice", map[string]string{"a.txt": "1\n"})

	boom := assert.AnError
	err := Walk(context.Background(), openRepo(t, fixture.Path), func(Step) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestExtractDiff(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	fixture.Commit("one", "alice", map[string]string{
		"keep.txt": "keep\n",
		"mod.txt":  "one\ntwo\n",
		"del.txt":  "bye\n",
	})
	second := fixture.Commit("two", "alice", map[string]string{
		"mod.txt": "one\nthree\nfour\n",
		"bin.dat": "\xff\xfe\x00",
	}, "del.txt")

	repo := openRepo(t, fixture.Path)
	commit, err := repo.CommitObject(second)
	require.NoError(t, err)
	parent, err := commit.Parent(0)
	require.NoError(t, err)

	changes, err := ExtractDiff(commit, parent, nil)
	require.NoError(t, err)

	byPath := make(map[string]FileChange)
	for _, fc := range changes {
		byPath[fc.Path] = fc
	}
	require.Len(t, byPath, 3)

	assert.True(t, byPath["del.txt"].Deleted)
	assert.False(t, byPath["bin.dat"].Text)

	mod := byPath["mod.txt"]
	assert.True(t, mod.Text)
	assert.Equal(t, "one\nthree\nfour\n", mod.Content)
	assert.Equal(t, "one\ntwo\n", mod.Previous)

	skipped, err := ExtractDiff(commit, parent, func(path string) bool { return path == "mod.txt" })
	require.NoError(t, err)
	assert.Len(t, skipped, 2)
}

func TestExtractDiff_Root(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	root := fixture.Commit("one", "alice", map[string]string{
		"a.txt":     "a\n",
		"dir/b.txt": "b\n",
	})

	commit, err := openRepo(t, fixture.Path).CommitObject(root)
	require.NoError(t, err)

	changes, err := ExtractDiff(commit, nil, nil)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	for _, fc := range changes {
		assert.True(t, fc.Text)
		assert.Empty(t, fc.Previous)
	}
}

func TestLineDelta(t *testing.T) {
	tests := []struct {
		name           string
		before, after  string
		added, removed uint64
	}{
		{"identical", "a\nb\n", "a\nb\n", 0, 0},
		{"new file", "", "a\nb\nc\n", 3, 0},
		{"emptied", "a\nb\n", "", 0, 2},
		{"replace one line", "a\nb\nc\n", "a\nx\nc\n", 1, 1},
		{"append", "a\n", "a\nb\nc\n", 2, 0},
		{"no trailing newline", "", "a\nb", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := LineDelta(tt.before, tt.after)
			assert.Equal(t, tt.added, added)
			assert.Equal(t, tt.removed, removed)
		})
	}
}

func TestIndex_Linear(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	fixture.Commit("add files", "alice", map[string]string{
		"src/main.go": "package main\n\n// entry\nfunc main() {\n\tprintln()\n}\n",
		"gone.txt":    "temporary\n",
		"image.bin":   "\xff\xd8\xff\x00",
	})
	fixture.Commit("edit main", "bob", map[string]string{
		"src/main.go": "package main\n\nfunc main() {\n}\n",
	}, "gone.txt")

	dataDir := filepath.Join(t.TempDir(), ".gitrends")
	var ticks int
	ix := New(WithWorkers(2), WithProgress(func() { ticks++ }))

	result, err := ix.Index(context.Background(), fixture.Path, dataDir, false)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Commits)
	assert.Equal(t, 3, result.Entries)
	assert.Equal(t, 2, ticks)
	assert.True(t, store.Exists(dataDir))

	tables, err := store.Load(context.Background(), dataDir)
	require.NoError(t, err)

	require.Len(t, tables.Log, 2)
	assert.Equal(t, "edit main", tables.Log[0].CommitMessage)
	assert.Equal(t, "bob", tables.Log[0].Author)
	assert.Equal(t, testutil.Time(1).Unix(), tables.Log[0].Date)
	assert.Len(t, tables.Log[0].Revision, vcs.ShortIDLength)
	assert.NotEqual(t, tables.Log[0].Revision, tables.Log[1].Revision)

	entries := entriesByKey(tables.Entries)
	require.Len(t, entries, 3)

	latest := entries[tables.Log[0].Revision+":src/main.go"]
	assert.True(t, latest.ExistsAtHead)
	assert.Equal(t, uint64(3), latest.NumCodeLines)
	assert.Equal(t, uint64(1), latest.NumBlankLines)
	assert.Equal(t, testutil.Time(1).Unix(), latest.Date)

	first := entries[tables.Log[1].Revision+":src/main.go"]
	assert.Equal(t, uint64(4), first.NumCodeLines)
	assert.Equal(t, uint64(1), first.NumCommentLines)
	assert.Equal(t, uint64(1), first.TotalIndentLevels)
	assert.Equal(t, uint64(6), first.AddedLines)
	assert.Equal(t, uint64(0), first.RemovedLines)

	gone := entries[tables.Log[1].Revision+":gone.txt"]
	assert.False(t, gone.ExistsAtHead)
}

func TestIndex_MergeDedup(t *testing.T) {
	f := newMergeFixture(t)
	dataDir := t.TempDir()

	result, err := New().Index(context.Background(), f.repo.Path, dataDir, false)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Commits)

	tables, err := store.Load(context.Background(), dataDir)
	require.NoError(t, err)

	revs := make([]string, len(tables.Log))
	for i, c := range tables.Log {
		revs[i] = c.Revision
	}
	assert.Equal(t, []string{
		vcs.ShortID(f.m), vcs.ShortID(f.c2), vcs.ShortID(f.c1), vcs.ShortID(f.c0),
	}, revs)

	files := make(map[string][]string)
	for _, e := range tables.Entries {
		files[e.Revision] = append(files[e.Revision], e.FileName)
	}
	for _, names := range files {
		sort.Strings(names)
	}

	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "d.txt"}, files[vcs.ShortID(f.m)])
	assert.Empty(t, files[vcs.ShortID(f.c1)])
	assert.Empty(t, files[vcs.ShortID(f.c2)])
	assert.Equal(t, []string{"a.txt", "b.txt"}, files[vcs.ShortID(f.c0)])

	merged := entriesByKey(tables.Entries)[vcs.ShortID(f.m)+":d.txt"]
	assert.Equal(t, uint64(1), merged.AddedLines, "counts come from the first parent")
	assert.Equal(t, uint64(1), merged.RemovedLines)
}

func TestIndex_SkipsWhenIndexed(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	fixture.Commit("one", "alice", map[string]string{"a.txt": "a\n"})
	dataDir := t.TempDir()
	ctx := context.Background()

	_, err := New().Index(ctx, fixture.Path, dataDir, false)
	require.NoError(t, err)
	before, err := store.Load(ctx, dataDir)
	require.NoError(t, err)

	fixture.Commit("two", "alice", map[string]string{"a.txt": "b\n"})

	result, err := New().Index(ctx, fixture.Path, dataDir, false)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	unchanged, err := store.Load(ctx, dataDir)
	require.NoError(t, err)
	assert.Equal(t, before, unchanged)

	result, err = New().Index(ctx, fixture.Path, dataDir, true)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Commits)
}

func TestIndex_ForcedRerunIsStable(t *testing.T) {
	f := newMergeFixture(t)
	dataDir := t.TempDir()
	ctx := context.Background()

	_, err := New(WithWorkers(1)).Index(ctx, f.repo.Path, dataDir, true)
	require.NoError(t, err)
	first, err := store.Load(ctx, dataDir)
	require.NoError(t, err)

	_, err = New(WithWorkers(4)).Index(ctx, f.repo.Path, dataDir, true)
	require.NoError(t, err)
	second, err := store.Load(ctx, dataDir)
	require.NoError(t, err)

	assert.Equal(t, first.Log, second.Log)
	assert.ElementsMatch(t, first.Entries, second.Entries)
}

func TestIndex_Cancelled(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	fixture.Commit("one", "alice", map[string]string{"a.txt": "a\n"})
	dataDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Index(ctx, fixture.Path, dataDir, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.Exists(dataDir))
}

func TestIndex_BadRepository(t *testing.T) {
	_, err := New().Index(context.Background(), t.TempDir(), t.TempDir(), false)
	assert.ErrorIs(t, err, ErrRepository)
}

func TestCommitLogEntry_UnknownAuthor(t *testing.T) {
	fixture := testutil.NewGitRepo(t)
	hash := fixture.Commit("anonymous", "", map[string]string{"a.txt": "a\n"})

	commit, err := openRepo(t, fixture.Path).CommitObject(hash)
	require.NoError(t, err)
	entry := commitLogEntry(commit, vcs.ShortID(hash))
	assert.Equal(t, models.UnknownAuthor, entry.Author)
	assert.Equal(t, vcs.ShortID(hash), entry.Revision)
}

// sharedPrefixCommit gives a real commit a hash chosen by the test.
type sharedPrefixCommit struct {
	vcs.Commit
	hash plumbing.Hash
}

func (c sharedPrefixCommit) Hash() plumbing.Hash { return c.hash }
func (c sharedPrefixCommit) ShortID() string { return vcs.ShortID(c.hash) }

func TestCollectChanges_CommitsSharingShortID(t *testing.T) {
	f := newMergeFixture(t)
	repo := openRepo(t, f.repo.Path)
	commit := func(h plumbing.Hash) vcs.Commit {
		c, err := repo.CommitObject(h)
		require.NoError(t, err)
		return c
	}

	left := sharedPrefixCommit{commit(f.c1), plumbing.NewHash("c36a03a254dc0000000000000000000000000001")}
	right := sharedPrefixCommit{commit(f.c2), plumbing.NewHash("c36a03a810002000000000000000000000000002")}
	require.Equal(t, left.ShortID(), right.ShortID())

	seen := make(map[uint64]struct{})
	var paths [][]string
	for _, c := range []vcs.Commit{left, right} {
		changes, err := collectChanges(Step{Commit: c, Parents: []vcs.Commit{commit(f.c0)}}, seen)
		require.NoError(t, err)
		var names []string
		for _, fc := range changes {
			names = append(names, fc.Path)
		}
		sort.Strings(names)
		paths = append(paths, names)
	}

	assert.Equal(t, []string{"a.txt", "d.txt"}, paths[0])
	assert.Equal(t, []string{"b.txt", "c.txt", "d.txt"}, paths[1], "d.txt is recorded for both commits")

	abbrevs := vcs.Abbreviate([]plumbing.Hash{left.Hash(), right.Hash()})
	assert.NotEqual(t,
		commitLogEntry(left, abbrevs.Get(left.Hash())).Revision,
		commitLogEntry(right, abbrevs.Get(right.Hash())).Revision)
}

func TestDedupKey(t *testing.T) {
	a := plumbing.NewHash("c36a03a254dc0000000000000000000000000001")
	b := plumbing.NewHash("c36a03a810002000000000000000000000000002")
	assert.NotEqual(t, dedupKey(a, "a.txt"), dedupKey(b, "a.txt"))
	assert.NotEqual(t, dedupKey(a, "a.txt"), dedupKey(a, "b.txt"))
	assert.Equal(t, dedupKey(a, "a.txt"), dedupKey(a, "a.txt"))
}

func entriesByKey(entries []models.FileRevisionEntry) map[string]models.FileRevisionEntry {
	m := make(map[string]models.FileRevisionEntry, len(entries))
	for _, e := range entries {
		m[e.Revision+":"+e.FileName] = e
	}
	return m
}
