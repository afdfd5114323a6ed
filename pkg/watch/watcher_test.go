package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher(t *testing.T) {
	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, 500 * time.Millisecond},
		{"custom debounce", time.Second, time.Second},
		{"negative debounce defaults", -time.Second, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWatcher(t.TempDir(), []string{"modules.txt"}, tt.debounce)
			require.NoError(t, err)
			defer w.Stop()

			assert.Equal(t, tt.want, w.debounce)
			assert.Contains(t, w.names, "modules.txt")
		})
	}
}

func TestHandleEvent(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, []string{"authors.txt"}, time.Hour)
	require.NoError(t, err)
	defer w.Stop()

	tests := []struct {
		name    string
		event   fsnotify.Event
		pending bool
	}{
		{"write to watched file", fsnotify.Event{Name: filepath.Join(dir, "authors.txt"), Op: fsnotify.Write}, true},
		{"rename onto watched file", fsnotify.Event{Name: filepath.Join(dir, "authors.txt"), Op: fsnotify.Rename}, true},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write}, false},
		{"chmod", fsnotify.Event{Name: filepath.Join(dir, "authors.txt"), Op: fsnotify.Chmod}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.pending = time.Time{}
			w.handleEvent(tt.event)
			assert.Equal(t, tt.pending, !w.pending.IsZero())
		})
	}
}

func TestReady(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	assert.False(t, w.ready(), "nothing pending")

	w.pending = time.Now()
	assert.False(t, w.ready(), "still inside the debounce period")

	w.pending = time.Now().Add(-time.Second)
	assert.True(t, w.ready())
	assert.False(t, w.ready(), "ready clears the pending change")
}

func TestStart_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, []string{"ignore.txt"}, 100*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	var calls atomic.Int32
	w.SetCallback(func() { calls.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Let the watcher register the directory.
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "ignore.txt")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("vendor/**\n"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst triggers one callback")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStart_MissingDir(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), nil, 0)
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.Start(context.Background()))
}
