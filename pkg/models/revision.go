package models

import (
	"encoding/json"
	"math"
)

// UnknownAuthor is recorded when a commit carries no author name.
const UnknownAuthor = "unknown"

// CommitLogEntry is one row of the commit log table.
type CommitLogEntry struct {
	Revision      string `json:"revision" db:"revision"`
	Date          int64  `json:"date" db:"date"`
	Author        string `json:"author" db:"author"`
	CommitMessage string `json:"commit_message" db:"commit_message"`
}

// FileRevisionEntry is one row of the file entries table: the state of a file
// as of a revision that touched it.
type FileRevisionEntry struct {
	Revision          string `json:"revision"`
	FileName          string `json:"file_name"`
	Date              int64  `json:"date"`
	ExistsAtHead      bool   `json:"exists_at_head"`
	NumCodeLines      uint64 `json:"num_code_lines"`
	NumCommentLines   uint64 `json:"num_comment_lines"`
	NumBlankLines     uint64 `json:"num_blank_lines"`
	TotalIndentLevels uint64 `json:"total_indent_levels"`
	AvgIndentLevels   Metric `json:"avg_indent_levels"`
	StdIndentLevel    Metric `json:"std_indent_level"`
	AddedLines        uint64 `json:"added_lines"`
	RemovedLines      uint64 `json:"removed_lines"`
}

// NetAddedLines returns added minus removed lines, floored at zero.
func (e *FileRevisionEntry) NetAddedLines() int64 {
	if e.AddedLines <= e.RemovedLines {
		return 0
	}
	return int64(e.AddedLines - e.RemovedLines)
}

// Metric is a float that encodes NaN and infinities as JSON null.
type Metric float64

// IsNaN reports whether m is not a number.
func (m Metric) IsNaN() bool {
	return math.IsNaN(float64(m))
}

func (m Metric) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

// DateRange bounds the commits analytics consider, in unix seconds.
// Nil bounds are open.
type DateRange struct {
	MinDate *int64 `json:"min_date,omitempty" koanf:"min_date"`
	MaxDate *int64 `json:"max_date,omitempty" koanf:"max_date"`
}

// Min returns the inclusive lower bound.
func (r DateRange) Min() int64 {
	if r.MinDate == nil {
		return 0
	}
	return *r.MinDate
}

// Max returns the inclusive upper bound.
func (r DateRange) Max() int64 {
	if r.MaxDate == nil {
		return math.MaxInt64
	}
	return *r.MaxDate
}

// Contains reports whether date lies within the range.
func (r DateRange) Contains(date int64) bool {
	return date >= r.Min() && date <= r.Max()
}
