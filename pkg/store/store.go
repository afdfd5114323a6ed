// Package store persists the commit log and file revision tables produced by
// an indexing run and loads them back for analytics.
package store

import (
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"

	"github.com/panbanda/gitrends/pkg/models"
)

// Artifact names inside the data directory.
const (
	LogFile     = "git_log.db"
	EntriesFile = "git_file_entries.db"
	StateFile   = "state.db"

	tmpSuffix = ".tmp"
)

var (
	// ErrIO is wrapped by failures to create, write or publish table files.
	ErrIO = errors.New("store i/o error")
	// ErrNotIndexed is returned when the tables have not been published yet.
	ErrNotIndexed = errors.New("repository not indexed")
)

const schema = `
CREATE TABLE IF NOT EXISTS git_log (
	revision TEXT NOT NULL,
	date INTEGER NOT NULL,
	author TEXT NOT NULL,
	commit_message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS git_file_entries (
	revision TEXT NOT NULL,
	file_name TEXT NOT NULL,
	date INTEGER NOT NULL,
	exists_at_head INTEGER NOT NULL,
	num_code_lines INTEGER NOT NULL,
	num_comment_lines INTEGER NOT NULL,
	num_blank_lines INTEGER NOT NULL,
	total_indent_levels INTEGER NOT NULL,
	avg_indent_levels REAL,
	std_indent_level REAL,
	added_lines INTEGER NOT NULL,
	removed_lines INTEGER NOT NULL
);
`

// Exists reports whether both tables were published in dataDir.
func Exists(dataDir string) bool {
	for _, name := range []string{LogFile, EntriesFile} {
		info, err := os.Stat(filepath.Join(dataDir, name))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// entryRow is the SQL shape of a file revision entry. NaN metrics are NULL.
type entryRow struct {
	Revision          string          `db:"revision"`
	FileName          string          `db:"file_name"`
	Date              int64           `db:"date"`
	ExistsAtHead      bool            `db:"exists_at_head"`
	NumCodeLines      int64           `db:"num_code_lines"`
	NumCommentLines   int64           `db:"num_comment_lines"`
	NumBlankLines     int64           `db:"num_blank_lines"`
	TotalIndentLevels int64           `db:"total_indent_levels"`
	AvgIndentLevels   sql.NullFloat64 `db:"avg_indent_levels"`
	StdIndentLevel    sql.NullFloat64 `db:"std_indent_level"`
	AddedLines        int64           `db:"added_lines"`
	RemovedLines      int64           `db:"removed_lines"`
}

func toRow(e *models.FileRevisionEntry) entryRow {
	return entryRow{
		Revision:          e.Revision,
		FileName:          e.FileName,
		Date:              e.Date,
		ExistsAtHead:      e.ExistsAtHead,
		NumCodeLines:      int64(e.NumCodeLines),
		NumCommentLines:   int64(e.NumCommentLines),
		NumBlankLines:     int64(e.NumBlankLines),
		TotalIndentLevels: int64(e.TotalIndentLevels),
		AvgIndentLevels:   nullFloat(e.AvgIndentLevels),
		StdIndentLevel:    nullFloat(e.StdIndentLevel),
		AddedLines:        int64(e.AddedLines),
		RemovedLines:      int64(e.RemovedLines),
	}
}

func (r *entryRow) entry() models.FileRevisionEntry {
	return models.FileRevisionEntry{
		Revision:          r.Revision,
		FileName:          r.FileName,
		Date:              r.Date,
		ExistsAtHead:      r.ExistsAtHead,
		NumCodeLines:      uint64(r.NumCodeLines),
		NumCommentLines:   uint64(r.NumCommentLines),
		NumBlankLines:     uint64(r.NumBlankLines),
		TotalIndentLevels: uint64(r.TotalIndentLevels),
		AvgIndentLevels:   metric(r.AvgIndentLevels),
		StdIndentLevel:    metric(r.StdIndentLevel),
		AddedLines:        uint64(r.AddedLines),
		RemovedLines:      uint64(r.RemovedLines),
	}
}

func nullFloat(m models.Metric) sql.NullFloat64 {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func metric(f sql.NullFloat64) models.Metric {
	if !f.Valid {
		return models.Metric(math.NaN())
	}
	return models.Metric(f.Float64)
}
