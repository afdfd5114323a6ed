package models

// RootModule names the module of files at the repository root.
const RootModule = "<root>"

// HotspotEntry ranks a file or module by change frequency and size.
type HotspotEntry struct {
	Name              string `json:"name"`
	NumRevisions      uint64 `json:"num_revisions"`
	NumAuthors        uint64 `json:"num_authors"`
	NumCodeLines      uint64 `json:"num_code_lines"`
	NumCommentLines   uint64 `json:"num_comment_lines"`
	NumBlankLines     uint64 `json:"num_blank_lines"`
	TotalIndentLevels uint64 `json:"total_indent_levels"`
	AvgIndentLevels   Metric `json:"avg_indent_levels"`
}

// ChangeCoupling counts how often two entities change in the same revision.
type ChangeCoupling struct {
	LeftName          string  `json:"left_name"`
	RightName         string  `json:"right_name"`
	CoupledRevisions  uint64  `json:"coupled_revisions"`
	NumLeftRevisions  uint64  `json:"num_left_revisions"`
	NumRightRevisions uint64  `json:"num_right_revisions"`
	CouplingRatio     float64 `json:"coupling_ratio"`
}

// NewChangeCoupling builds a coupling and computes its ratio.
func NewChangeCoupling(left, right string, coupled, numLeft, numRight uint64) ChangeCoupling {
	c := ChangeCoupling{
		LeftName:          left,
		RightName:         right,
		CoupledRevisions:  coupled,
		NumLeftRevisions:  numLeft,
		NumRightRevisions: numRight,
	}
	c.CouplingRatio = float64(coupled) / float64(c.AverageRevisions())
	return c
}

// AverageRevisions is the integer mean of both sides' revision counts.
func (c ChangeCoupling) AverageRevisions() uint64 {
	return (c.NumLeftRevisions + c.NumRightRevisions) / 2
}

// SumOfCouplingEntry is the total coupled revisions of an entity across all partners.
type SumOfCouplingEntry struct {
	Name           string `json:"name"`
	SumOfCouplings uint64 `json:"sum_of_couplings"`
}

// MainDeveloperEntry names the author with the most net added lines.
type MainDeveloperEntry struct {
	Name               string `json:"name"`
	MainDeveloper      string `json:"main_developer"`
	NetAddedLines      int64  `json:"net_added_lines"`
	TotalNetAddedLines int64  `json:"total_net_added_lines"`
}

// Share returns the main developer's fraction of all net added lines.
func (e MainDeveloperEntry) Share() float64 {
	if e.TotalNetAddedLines == 0 {
		return 0
	}
	return float64(e.NetAddedLines) / float64(e.TotalNetAddedLines)
}

// CommitSpreadEntry counts an author's revisions touching a module.
type CommitSpreadEntry struct {
	ModuleName   string `json:"module_name"`
	Author       string `json:"author"`
	NumRevisions uint64 `json:"num_revisions"`
}

// Author counts the revisions of a normalized author.
type Author struct {
	Name         string `json:"name"`
	NumRevisions uint64 `json:"num_revisions"`
}

// FileEntry holds the latest known metrics of a file.
type FileEntry struct {
	Name              string `json:"name"`
	LastRevision      string `json:"last_revision"`
	LastDate          int64  `json:"date"`
	NumCodeLines      uint64 `json:"num_code_lines"`
	NumCommentLines   uint64 `json:"num_comment_lines"`
	NumBlankLines     uint64 `json:"num_blank_lines"`
	TotalIndentLevels uint64 `json:"total_indent_levels"`
	AvgIndentLevels   Metric `json:"avg_indent_levels"`
	StdIndentLevels   Metric `json:"std_indent_levels"`
}

// ModuleEntry groups the files mapped to a module.
type ModuleEntry struct {
	Name         string      `json:"name"`
	NumCodeLines uint64      `json:"num_code_lines"`
	Files        []FileEntry `json:"files"`
}

// FileHistoryEntry is a file's metrics at one revision.
type FileHistoryEntry struct {
	Name              string `json:"name"`
	Revision          string `json:"revision"`
	Date              int64  `json:"date"`
	NumCodeLines      uint64 `json:"num_code_lines"`
	NumCommentLines   uint64 `json:"num_comment_lines"`
	NumBlankLines     uint64 `json:"num_blank_lines"`
	TotalIndentLevels uint64 `json:"total_indent_levels"`
	AvgIndentLevels   Metric `json:"avg_indent_levels"`
	StdIndentLevel    Metric `json:"std_indent_level"`
	AddedLines        uint64 `json:"added_lines"`
	RemovedLines      uint64 `json:"removed_lines"`
}

// RevisionStats describes the distribution of revisions per file.
type RevisionStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    uint64  `json:"max"`
}

// Summary is the repository overview.
type Summary struct {
	NumRevisions     uint64          `json:"num_revisions"`
	FirstCommit      *CommitLogEntry `json:"first_commit,omitempty"`
	LastCommit       *CommitLogEntry `json:"last_commit,omitempty"`
	NumCodeLines     uint64          `json:"num_code_lines"`
	NumFiles         uint64          `json:"num_files"`
	NumModules       uint64          `json:"num_modules"`
	TopAuthors       []Author        `json:"top_authors"`
	LastChangedFiles []FileEntry     `json:"last_changed_files"`
	TopCodeFiles     []FileEntry     `json:"top_code_files"`
	FileRevisions    RevisionStats   `json:"file_revisions"`
}
