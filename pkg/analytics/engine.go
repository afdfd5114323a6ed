// Package analytics computes software evolution reports over indexed
// history: hotspots, change coupling, sum of couplings, main developers,
// commit spread and their path hierarchies.
//
// All reports operate on the active view: file revision entries whose file
// exists at HEAD, is not ignored and whose date lies in the configured range.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/panbanda/gitrends/internal/logging"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/panbanda/gitrends/pkg/rules"
	"github.com/panbanda/gitrends/pkg/store"
	"github.com/sirupsen/logrus"
)

// ErrUnknownEntity is returned when a file or module is not in the active view.
var ErrUnknownEntity = errors.New("unknown entity")

// Default thresholds for change coupling trees.
const (
	DefaultMinRevisions = 15
	DefaultMinRatio     = 0.2
)

// Engine answers analytics queries over one immutable view.
type Engine struct {
	set    rules.Set
	dates  models.DateRange
	logger *logrus.Logger
	v      *view
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New builds an engine over loaded tables.
func New(tables *store.Tables, set rules.Set, dates models.DateRange, opts ...Option) *Engine {
	e := &Engine{
		set:    set,
		dates:  dates,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.set.Ignore == nil || e.set.Modules == nil || e.set.Authors == nil {
		empty := rules.Empty()
		if e.set.Ignore == nil {
			e.set.Ignore = empty.Ignore
		}
		if e.set.Modules == nil {
			e.set.Modules = empty.Modules
		}
		if e.set.Authors == nil {
			e.set.Authors = empty.Authors
		}
	}

	e.v = buildView(tables, e.set, dates)
	e.logger.WithFields(logrus.Fields{
		"rows":    len(e.v.entries),
		"files":   len(e.v.files),
		"modules": len(e.v.modules),
	}).Debug("Built analytics view")
	return e
}

// Open loads the tables and rule files from dataDir and builds an engine.
func Open(ctx context.Context, dataDir string, dates models.DateRange, opts ...Option) (*Engine, error) {
	tables, err := store.Load(ctx, dataDir)
	if err != nil {
		return nil, err
	}
	set, err := rules.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return New(tables, set, dates, opts...), nil
}

// DateRange returns the date range the engine was built with.
func (e *Engine) DateRange() models.DateRange {
	return e.dates
}

// Log returns the commit log ordered by date, oldest first.
func (e *Engine) Log() []models.CommitLogEntry {
	log := make([]models.CommitLogEntry, len(e.v.log))
	copy(log, e.v.log)
	sort.SliceStable(log, func(i, j int) bool {
		return log[i].Date < log[j].Date
	})
	return log
}

// Module returns the module a file path belongs to.
func (e *Engine) Module(file string) string {
	return e.set.Modules.Module(file)
}

func limitSlice[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
