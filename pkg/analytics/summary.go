package analytics

import (
	"sort"

	"github.com/panbanda/gitrends/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// summaryTop bounds the author and file lists of the summary.
const summaryTop = 10

// Summary returns the repository overview. Commit counts cover the log
// entries within the date range; sizes cover the active view.
func (e *Engine) Summary() models.Summary {
	v := e.v
	summary := models.Summary{
		NumFiles:   uint64(len(v.files)),
		NumModules: uint64(len(v.modules)),
	}

	authorRevs := make(map[string]uint64)
	for i := range v.log {
		c := &v.log[i]
		if !e.dates.Contains(c.Date) {
			continue
		}
		summary.NumRevisions++
		authorRevs[e.set.Authors.Normalize(c.Author)]++
		if summary.FirstCommit == nil || c.Date < summary.FirstCommit.Date {
			summary.FirstCommit = c
		}
		if summary.LastCommit == nil || c.Date > summary.LastCommit.Date {
			summary.LastCommit = c
		}
	}

	for name, n := range authorRevs {
		summary.TopAuthors = append(summary.TopAuthors, models.Author{Name: name, NumRevisions: n})
	}
	sort.Slice(summary.TopAuthors, func(i, j int) bool {
		a, b := summary.TopAuthors[i], summary.TopAuthors[j]
		if a.NumRevisions != b.NumRevisions {
			return a.NumRevisions > b.NumRevisions
		}
		return a.Name < b.Name
	})
	summary.TopAuthors = limitSlice(summary.TopAuthors, summaryTop)

	files := e.Files()
	for _, f := range files {
		summary.NumCodeLines += f.NumCodeLines
	}
	summary.TopCodeFiles = limitSlice(files, summaryTop)

	changed := make([]models.FileEntry, len(files))
	copy(changed, files)
	sort.SliceStable(changed, func(i, j int) bool {
		if changed[i].LastDate != changed[j].LastDate {
			return changed[i].LastDate > changed[j].LastDate
		}
		return changed[i].Name < changed[j].Name
	})
	summary.LastChangedFiles = limitSlice(changed, summaryTop)

	summary.FileRevisions = e.revisionStats()
	return summary
}

// revisionStats describes the distribution of revisions per active file.
func (e *Engine) revisionStats() models.RevisionStats {
	counts := make([]float64, len(e.v.files))
	var top uint64
	for f, revs := range e.v.fileRevs {
		n := revs.GetCardinality()
		counts[f] = float64(n)
		if n > top {
			top = n
		}
	}
	if len(counts) == 0 {
		return models.RevisionStats{}
	}
	sort.Float64s(counts)

	stats := models.RevisionStats{
		Mean:   stat.Mean(counts, nil),
		Median: stat.Quantile(0.5, stat.Empirical, counts, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, counts, nil),
		Max:    top,
	}
	if len(counts) > 1 {
		stats.StdDev = stat.StdDev(counts, nil)
	}
	return stats
}
