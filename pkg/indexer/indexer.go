// Package indexer mines a git history into the commit log and file revision
// tables.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/panbanda/gitrends/internal/logging"
	"github.com/panbanda/gitrends/internal/vcs"
	"github.com/panbanda/gitrends/pkg/linestats"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/panbanda/gitrends/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/stream"
)

// ErrRepository is wrapped by failures to open or read the repository.
var ErrRepository = errors.New("repository error")

// Result summarizes an indexing run.
type Result struct {
	// Skipped is set when published tables already existed.
	Skipped bool
	Commits int
	Entries int
	Elapsed time.Duration
}

// Indexer runs the mining pipeline.
type Indexer struct {
	opener   vcs.Opener
	logger   *logrus.Logger
	workers  int
	progress func()
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithOpener sets the git opener.
func WithOpener(opener vcs.Opener) Option {
	return func(ix *Indexer) {
		ix.opener = opener
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// WithWorkers sets how many commits are classified concurrently.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithProgress sets a callback invoked after each commit is written.
func WithProgress(fn func()) Option {
	return func(ix *Indexer) {
		ix.progress = fn
	}
}

// New creates an indexer.
func New(opts ...Option) *Indexer {
	ix := &Indexer{
		opener:  vcs.DefaultOpener(),
		logger:  logging.Discard(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index mines repoPath into dataDir. When both tables already exist the run
// is skipped unless force is set. Tables are published only when the whole
// history was written; any error or cancellation leaves the previous
// tables, if any, untouched.
func (ix *Indexer) Index(ctx context.Context, repoPath, dataDir string, force bool) (*Result, error) {
	log := ix.logger.WithFields(logrus.Fields{"repo": repoPath, "data_dir": dataDir})

	if !force && store.Exists(dataDir) {
		log.Info("Tables exist, skipping indexing")
		return &Result{Skipped: true}, nil
	}

	start := time.Now()
	repo, err := ix.opener.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrRepository, repoPath, err)
	}
	headFiles, err := repo.HeadFiles()
	if err != nil {
		return nil, fmt.Errorf("%w: head tree: %v", ErrRepository, err)
	}

	w, err := store.NewWriter(dataDir, store.WithLogger(ix.logger))
	if err != nil {
		return nil, err
	}

	log.WithField("head_files", len(headFiles)).Info("Indexing repository")

	if err := ix.run(ctx, repo, headFiles, w); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			log.WithError(abortErr).Warn("Failed to discard temporary tables")
		}
		return nil, err
	}

	commits, entries := w.Counts()
	if err := w.Publish(); err != nil {
		return nil, err
	}

	result := &Result{Commits: commits, Entries: entries, Elapsed: time.Since(start)}
	log.WithFields(logrus.Fields{
		"commits": result.Commits,
		"entries": result.Entries,
		"elapsed": result.Elapsed.Round(time.Millisecond),
	}).Info("Indexing finished")
	return result, nil
}

// run walks the history sequentially, reading trees and blobs in walk order,
// and classifies each commit's files on a worker stream. Writes happen in
// walk order on the stream's callbacks.
func (ix *Indexer) run(ctx context.Context, repo vcs.Repository, headFiles map[string]struct{}, w *store.Writer) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	abbrevs, err := abbreviations(ctx, repo)
	if err != nil {
		return err
	}

	s := stream.New().WithMaxGoroutines(ix.workers)
	seen := make(map[uint64]struct{})

	walkErr := Walk(ctx, repo, func(step Step) error {
		commit := commitLogEntry(step.Commit, abbrevs.Get(step.Commit.Hash()))

		var changes []FileChange
		if !step.Skipped {
			var err error
			if changes, err = collectChanges(step, seen); err != nil {
				return err
			}
		}

		s.Go(func() stream.Callback {
			entries := buildEntries(commit, changes, headFiles)
			return func() {
				if ctx.Err() != nil {
					return
				}
				if err := w.WriteCommit(ctx, commit, entries); err != nil {
					cancel(err)
					return
				}
				if ix.progress != nil {
					ix.progress()
				}
			}
		})
		return nil
	})
	s.Wait()

	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return walkErr
}

// abbreviations computes a unique revision id for every commit reachable
// from HEAD.
func abbreviations(ctx context.Context, repo vcs.Repository) (vcs.Abbreviations, error) {
	iter, err := repo.LogWithContext(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: reading log: %v", ErrRepository, err)
	}
	defer iter.Close()

	var hashes []plumbing.Hash
	err = iter.ForEach(func(c vcs.Commit) error {
		hashes = append(hashes, c.Hash())
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading log: %v", ErrRepository, err)
	}
	return vcs.Abbreviate(hashes), nil
}

// collectChanges diffs a commit against every parent in its plan. A path
// is read at most once per commit: the dedup key is checked before the
// blob lookup and recorded once the path yields text.
func collectChanges(step Step, seen map[uint64]struct{}) ([]FileChange, error) {
	rev := step.Commit.Hash()
	skip := func(path string) bool {
		_, ok := seen[dedupKey(rev, path)]
		return ok
	}

	parents := step.Parents
	if len(parents) == 0 {
		parents = []vcs.Commit{nil}
	}

	var changes []FileChange
	for _, parent := range parents {
		diff, err := ExtractDiff(step.Commit, parent, skip)
		if err != nil {
			return nil, err
		}
		for _, fc := range diff {
			if fc.Deleted || !fc.Text {
				continue
			}
			seen[dedupKey(rev, fc.Path)] = struct{}{}
			changes = append(changes, fc)
		}
	}
	return changes, nil
}

// dedupKey keys a (commit, path) pair on the full commit hash.
func dedupKey(rev plumbing.Hash, path string) uint64 {
	d := xxhash.New()
	d.Write(rev[:])
	d.WriteString(path)
	return d.Sum64()
}

func commitLogEntry(c vcs.Commit, revision string) models.CommitLogEntry {
	author := c.Author().Name
	if author == "" {
		author = models.UnknownAuthor
	}
	return models.CommitLogEntry{
		Revision:      revision,
		Date:          c.Committer().When.Unix(),
		Author:        author,
		CommitMessage: c.Message(),
	}
}

func buildEntries(commit models.CommitLogEntry, changes []FileChange, headFiles map[string]struct{}) []models.FileRevisionEntry {
	if len(changes) == 0 {
		return nil
	}
	entries := make([]models.FileRevisionEntry, 0, len(changes))
	for _, fc := range changes {
		stats := linestats.Classify(linestats.LanguageHint(fc.Path), fc.Content)
		added, removed := LineDelta(fc.Previous, fc.Content)
		_, atHead := headFiles[fc.Path]

		entries = append(entries, models.FileRevisionEntry{
			Revision:          commit.Revision,
			FileName:          fc.Path,
			Date:              commit.Date,
			ExistsAtHead:      atHead,
			NumCodeLines:      stats.CodeLines,
			NumCommentLines:   stats.CommentLines,
			NumBlankLines:     stats.BlankLines,
			TotalIndentLevels: stats.TotalIndentLevels,
			AvgIndentLevels:   models.Metric(stats.AvgIndentLevels),
			StdIndentLevel:    models.Metric(stats.StdIndentLevel),
			AddedLines:        added,
			RemovedLines:      removed,
		})
	}
	return entries
}
