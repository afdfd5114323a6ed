package analytics

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/panbanda/gitrends/internal/logging"
	"github.com/panbanda/gitrends/pkg/indexer"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/panbanda/gitrends/pkg/rules"
	"github.com/panbanda/gitrends/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

// ErrNotLoaded is returned by Current before the first successful Reload.
var ErrNotLoaded = errors.New("analytics not loaded")

// Indexer is the indexing run Reindex drives.
type Indexer interface {
	Index(ctx context.Context, repoPath, dataDir string, force bool) (*indexer.Result, error)
}

// Live holds the current engine for a data directory. Readers get the
// engine lock-free; rebuilds are serialized and swap a new engine in
// atomically.
type Live struct {
	dataDir string
	logger  *logrus.Logger

	current atomic.Pointer[Engine]

	mu          sync.Mutex
	dates       models.DateRange
	fingerprint string
}

// LiveOption configures a Live holder.
type LiveOption func(*Live)

// WithLiveLogger sets the logger used by the holder and its engines.
func WithLiveLogger(logger *logrus.Logger) LiveOption {
	return func(l *Live) {
		l.logger = logger
	}
}

// WithDateRange sets the initial date range instead of the persisted one.
func WithDateRange(r models.DateRange) LiveOption {
	return func(l *Live) {
		l.dates = r
	}
}

// NewLive creates a holder for dataDir. The date range is read from the
// persisted state unless overridden. No engine is built until Reload.
func NewLive(dataDir string, opts ...LiveOption) (*Live, error) {
	l := &Live{dataDir: dataDir, logger: logging.Discard()}

	state, err := store.OpenState(dataDir)
	if err != nil {
		return nil, err
	}
	l.dates, err = state.DateRange()
	if closeErr := state.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Current returns the engine readers should query.
func (l *Live) Current() (*Engine, error) {
	e := l.current.Load()
	if e == nil {
		return nil, ErrNotLoaded
	}
	return e, nil
}

// Reload rebuilds the engine when the rule files, tables or date range
// changed since the last build, or always when force is set. It reports
// whether a new engine was swapped in.
func (l *Live) Reload(ctx context.Context, force bool) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reloadLocked(ctx, force)
}

func (l *Live) reloadLocked(ctx context.Context, force bool) (bool, error) {
	fp, err := l.fingerprintLocked()
	if err != nil {
		return false, err
	}
	if !force && fp == l.fingerprint && l.current.Load() != nil {
		l.logger.Debug("Analytics inputs unchanged, keeping engine")
		return false, nil
	}

	e, err := Open(ctx, l.dataDir, l.dates, WithLogger(l.logger))
	if err != nil {
		return false, err
	}
	l.current.Store(e)
	l.fingerprint = fp
	l.logger.WithField("fingerprint", fp[:12]).Info("Analytics engine reloaded")
	return true, nil
}

// DateRange returns the date range the next rebuild uses.
func (l *Live) DateRange() models.DateRange {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dates
}

// SetDateRange persists r and rebuilds the engine with it.
func (l *Live) SetDateRange(ctx context.Context, r models.DateRange) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := store.OpenState(l.dataDir)
	if err != nil {
		return err
	}
	err = state.SetDateRange(r)
	if closeErr := state.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("persist date range: %w", err)
	}

	l.dates = r
	_, err = l.reloadLocked(ctx, false)
	return err
}

// Reindex forces a fresh indexing run of repoPath and rebuilds the engine
// over the new tables.
func (l *Live) Reindex(ctx context.Context, ix Indexer, repoPath string) (*indexer.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result, err := ix.Index(ctx, repoPath, l.dataDir, true)
	if err != nil {
		return nil, err
	}
	if _, err := l.reloadLocked(ctx, true); err != nil {
		return nil, err
	}
	return result, nil
}

// fingerprintLocked hashes the rule files, the table sizes and modification
// times and the date range.
func (l *Live) fingerprintLocked() (string, error) {
	h := blake3.New()
	var buf [8]byte
	writeInt := func(n int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		_, _ = h.Write(buf[:])
	}

	for _, name := range rules.Files {
		_, _ = h.Write([]byte(name))
		data, err := os.ReadFile(filepath.Join(l.dataDir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: read %s: %v", store.ErrIO, name, err)
		}
		writeInt(int64(len(data)))
		_, _ = h.Write(data)
	}

	for _, name := range []string{store.LogFile, store.EntriesFile} {
		_, _ = h.Write([]byte(name))
		info, err := os.Stat(filepath.Join(l.dataDir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", store.ErrNotIndexed
			}
			return "", fmt.Errorf("%w: stat %s: %v", store.ErrIO, name, err)
		}
		writeInt(info.Size())
		writeInt(info.ModTime().UnixNano())
	}

	writeInt(l.dates.Min())
	writeInt(l.dates.Max())
	if l.dates.MinDate == nil {
		_, _ = h.Write([]byte("open-min"))
	}
	if l.dates.MaxDate == nil {
		_, _ = h.Write([]byte("open-max"))
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
