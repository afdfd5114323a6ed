package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/gitrends/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(rev, file string, date int64) models.FileRevisionEntry {
	return models.FileRevisionEntry{
		Revision:          rev,
		FileName:          file,
		Date:              date,
		ExistsAtHead:      true,
		NumCodeLines:      10,
		NumCommentLines:   2,
		NumBlankLines:     1,
		TotalIndentLevels: 5,
		AvgIndentLevels:   0.5,
		StdIndentLevel:    0.25,
		AddedLines:        7,
		RemovedLines:      3,
	}
}

func TestWriter_PublishAndLoad(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	w, err := NewWriter(dir)
	require.NoError(t, err)

	empty := sampleEntry("bbbbbbb", "empty.txt", 200)
	empty.NumCodeLines = 0
	empty.AvgIndentLevels = models.Metric(math.NaN())
	empty.StdIndentLevel = models.Metric(math.NaN())
	empty.ExistsAtHead = false

	require.NoError(t, w.WriteCommit(ctx,
		models.CommitLogEntry{Revision: "bbbbbbb", Date: 200, Author: "bob", CommitMessage: "second"},
		[]models.FileRevisionEntry{sampleEntry("bbbbbbb", "a.go", 200), empty}))
	require.NoError(t, w.WriteCommit(ctx,
		models.CommitLogEntry{Revision: "aaaaaaa", Date: 100, Author: "alice", CommitMessage: "first"},
		nil))

	commits, entries := w.Counts()
	assert.Equal(t, 2, commits)
	assert.Equal(t, 2, entries)

	assert.False(t, Exists(dir), "tables are not visible before publish")
	require.NoError(t, w.Publish())
	assert.True(t, Exists(dir))
	assert.NoFileExists(t, filepath.Join(dir, LogFile+tmpSuffix))
	assert.NoFileExists(t, filepath.Join(dir, EntriesFile+tmpSuffix))

	tables, err := Load(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, []models.CommitLogEntry{
		{Revision: "bbbbbbb", Date: 200, Author: "bob", CommitMessage: "second"},
		{Revision: "aaaaaaa", Date: 100, Author: "alice", CommitMessage: "first"},
	}, tables.Log)

	require.Len(t, tables.Entries, 2)
	assert.Equal(t, sampleEntry("bbbbbbb", "a.go", 200), tables.Entries[0])

	got := tables.Entries[1]
	assert.Equal(t, "empty.txt", got.FileName)
	assert.False(t, got.ExistsAtHead)
	assert.True(t, got.AvgIndentLevels.IsNaN())
	assert.True(t, got.StdIndentLevel.IsNaN())
}

func TestWriter_PublishReplacesPreviousRun(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, rev := range []string{"1111111", "2222222"} {
		w, err := NewWriter(dir)
		require.NoError(t, err)
		require.NoError(t, w.WriteCommit(ctx, models.CommitLogEntry{Revision: rev, Author: "a"}, nil))
		require.NoError(t, w.Publish())
	}

	tables, err := Load(ctx, dir)
	require.NoError(t, err)
	require.Len(t, tables.Log, 1)
	assert.Equal(t, "2222222", tables.Log[0].Revision)
}

func TestWriter_Abort(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.WriteCommit(context.Background(), models.CommitLogEntry{Revision: "abc1234"}, nil))
	require.NoError(t, w.Abort())

	assert.False(t, Exists(dir))
	assert.NoFileExists(t, filepath.Join(dir, LogFile+tmpSuffix))

	err = w.WriteCommit(context.Background(), models.CommitLogEntry{Revision: "abc1234"}, nil)
	assert.ErrorIs(t, err, ErrIO)
}

func TestNewWriter_DiscardsStaleTemp(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, LogFile+tmpSuffix)
	require.NoError(t, os.WriteFile(stale, []byte("garbage"), 0644))

	w, err := NewWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.WriteCommit(context.Background(), models.CommitLogEntry{Revision: "abc1234"}, nil))
	require.NoError(t, w.Publish())
}

func TestExists_RequiresBoth(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Exists(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, LogFile), nil, 0644))
	assert.False(t, Exists(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, EntriesFile), nil, 0644))
	assert.True(t, Exists(dir))
}

func TestLoad_NotIndexed(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNotIndexed)
}

func TestState_DateRange(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenState(dir)
	require.NoError(t, err)

	r, err := s.DateRange()
	require.NoError(t, err)
	assert.Nil(t, r.MinDate)
	assert.Nil(t, r.MaxDate)

	min := int64(1000)
	require.NoError(t, s.SetDateRange(models.DateRange{MinDate: &min}))
	require.NoError(t, s.Close())

	s, err = OpenState(dir)
	require.NoError(t, err)
	defer s.Close()

	r, err = s.DateRange()
	require.NoError(t, err)
	require.NotNil(t, r.MinDate)
	assert.Equal(t, int64(1000), *r.MinDate)
	assert.Nil(t, r.MaxDate)
}
