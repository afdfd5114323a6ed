package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/panbanda/gitrends/internal/logging"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	insertLog = `
		INSERT INTO git_log (revision, date, author, commit_message)
		VALUES (:revision, :date, :author, :commit_message)
	`
	insertEntry = `
		INSERT INTO git_file_entries
		(revision, file_name, date, exists_at_head, num_code_lines, num_comment_lines,
		 num_blank_lines, total_indent_levels, avg_indent_levels, std_indent_level,
		 added_lines, removed_lines)
		VALUES
		(:revision, :file_name, :date, :exists_at_head, :num_code_lines, :num_comment_lines,
		 :num_blank_lines, :total_indent_levels, :avg_indent_levels, :std_indent_level,
		 :added_lines, :removed_lines)
	`
)

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// Writer appends an indexing run to temporary tables and publishes them
// together once the run succeeds.
type Writer struct {
	dataDir string
	logDB   *sqlx.DB
	entryDB *sqlx.DB
	logger  *logrus.Logger

	commits int
	entries int
	closed  bool
}

// NewWriter creates fresh temporary tables in dataDir, discarding leftovers
// of an earlier aborted run.
func NewWriter(dataDir string, opts ...Option) (*Writer, error) {
	w := &Writer{
		dataDir: dataDir,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", ErrIO, err)
	}

	var err error
	if w.logDB, err = openTemp(w.tmpPath(LogFile)); err != nil {
		return nil, err
	}
	if w.entryDB, err = openTemp(w.tmpPath(EntriesFile)); err != nil {
		w.logDB.Close()
		os.Remove(w.tmpPath(LogFile))
		return nil, err
	}
	return w, nil
}

func openTemp(path string) (*sqlx.DB, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: remove stale %s: %v", ErrIO, path, err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to sqlite: %v", ErrIO, err)
	}
	// One connection keeps the pragmas in effect for every statement.
	db.SetMaxOpenConns(1)
	db.Exec("PRAGMA journal_mode = MEMORY")
	db.Exec("PRAGMA synchronous = OFF")

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrIO, err)
	}
	return db, nil
}

func (w *Writer) tmpPath(name string) string {
	return filepath.Join(w.dataDir, name+tmpSuffix)
}

// WriteCommit appends one commit log row and, in a single transaction, the
// file revision entries found for that commit.
func (w *Writer) WriteCommit(ctx context.Context, commit models.CommitLogEntry, entries []models.FileRevisionEntry) error {
	if w.closed {
		return fmt.Errorf("%w: writer closed", ErrIO)
	}

	if _, err := w.logDB.NamedExecContext(ctx, insertLog, commit); err != nil {
		return fmt.Errorf("%w: write commit %s: %v", ErrIO, commit.Revision, err)
	}
	w.commits++

	if len(entries) == 0 {
		return nil
	}

	tx, err := w.entryDB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrIO, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, insertEntry)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrIO, err)
	}
	defer stmt.Close()

	for i := range entries {
		if _, err := stmt.ExecContext(ctx, toRow(&entries[i])); err != nil {
			return fmt.Errorf("%w: write entry %s@%s: %v", ErrIO, entries[i].FileName, commit.Revision, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", ErrIO, err)
	}
	w.entries += len(entries)
	return nil
}

// Counts returns the number of commits and file entries written so far.
func (w *Writer) Counts() (commits, entries int) {
	return w.commits, w.entries
}

// Publish closes the temporary tables and moves them into place. Existing
// tables are removed first so a crash never leaves a mixed pair behind.
func (w *Writer) Publish() error {
	if err := w.close(); err != nil {
		w.removeTemp()
		return err
	}

	for _, name := range []string{LogFile, EntriesFile} {
		path := filepath.Join(w.dataDir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: remove %s: %v", ErrIO, path, err)
		}
	}
	// The log is renamed last: Exists needs both files.
	for _, name := range []string{EntriesFile, LogFile} {
		if err := os.Rename(w.tmpPath(name), filepath.Join(w.dataDir, name)); err != nil {
			return fmt.Errorf("%w: publish %s: %v", ErrIO, name, err)
		}
	}

	w.logger.WithFields(logrus.Fields{
		"data_dir": w.dataDir,
		"commits":  w.commits,
		"entries":  w.entries,
	}).Info("Published tables")
	return nil
}

// Abort discards the temporary tables.
func (w *Writer) Abort() error {
	err := w.close()
	w.removeTemp()
	return err
}

func (w *Writer) close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	errLog := w.logDB.Close()
	errEntries := w.entryDB.Close()
	if err := errors.Join(errLog, errEntries); err != nil {
		return fmt.Errorf("%w: close tables: %v", ErrIO, err)
	}
	return nil
}

func (w *Writer) removeTemp() {
	for _, name := range []string{LogFile, EntriesFile} {
		os.Remove(w.tmpPath(name))
	}
}
