package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/panbanda/gitrends/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Tables is the in-memory copy of both published tables, in write order.
type Tables struct {
	Log     []models.CommitLogEntry
	Entries []models.FileRevisionEntry
}

// Load reads both tables from dataDir concurrently.
func Load(ctx context.Context, dataDir string) (*Tables, error) {
	if !Exists(dataDir) {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, dataDir)
	}

	tables := &Tables{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return withReadOnly(filepath.Join(dataDir, LogFile), func(db *sqlx.DB) error {
			return db.SelectContext(ctx, &tables.Log,
				`SELECT revision, date, author, commit_message FROM git_log ORDER BY rowid`)
		})
	})

	g.Go(func() error {
		var rows []entryRow
		err := withReadOnly(filepath.Join(dataDir, EntriesFile), func(db *sqlx.DB) error {
			return db.SelectContext(ctx, &rows, `SELECT * FROM git_file_entries ORDER BY rowid`)
		})
		if err != nil {
			return err
		}
		tables.Entries = make([]models.FileRevisionEntry, len(rows))
		for i := range rows {
			tables.Entries[i] = rows[i].entry()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func withReadOnly(path string, fn func(*sqlx.DB) error) error {
	db, err := sqlx.Connect("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer db.Close()

	if err := fn(db); err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	return nil
}
