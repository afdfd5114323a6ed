package analytics

import (
	"sort"

	"github.com/panbanda/gitrends/pkg/models"
)

// FilesMainDeveloper returns, per file, the author with the most net added
// lines, ranked by that author's share of the file's net added lines.
func (e *Engine) FilesMainDeveloper() []models.MainDeveloperEntry {
	return e.mainDevelopers(e.v.files, func(f int) int { return f })
}

// ModulesMainDeveloper is FilesMainDeveloper for modules.
func (e *Engine) ModulesMainDeveloper() []models.MainDeveloperEntry {
	return e.mainDevelopers(e.v.modules, func(f int) int { return e.v.fileModule[f] })
}

// mainDevelopers sums max(0, added-removed) per entity and author over the
// active entries. entityOf maps a file index to the entity index.
func (e *Engine) mainDevelopers(names []string, entityOf func(file int) int) []models.MainDeveloperEntry {
	v := e.v
	net := make([]map[string]int64, len(names))
	for i := range net {
		net[i] = make(map[string]int64)
	}
	for i := range v.entries {
		entry := &v.entries[i]
		entity := entityOf(v.fileIndex[entry.FileName])
		author := v.revAuthor[v.revIndex[entry.Revision]]
		net[entity][author] += entry.NetAddedLines()
	}

	result := make([]models.MainDeveloperEntry, len(names))
	for i, name := range names {
		entry := models.MainDeveloperEntry{Name: name}
		for author, lines := range net[i] {
			entry.TotalNetAddedLines += lines
			if entry.MainDeveloper == "" || lines > entry.NetAddedLines ||
				(lines == entry.NetAddedLines && author < entry.MainDeveloper) {
				entry.MainDeveloper = author
				entry.NetAddedLines = lines
			}
		}
		result[i] = entry
	}

	sort.SliceStable(result, func(i, j int) bool {
		si, sj := result[i].Share(), result[j].Share()
		if si != sj {
			return si > sj
		}
		if result[i].TotalNetAddedLines != result[j].TotalNetAddedLines {
			return result[i].TotalNetAddedLines > result[j].TotalNetAddedLines
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// CommitSpread counts, per module and author, the revisions touching the
// module. Ordered by module, then by count descending.
func (e *Engine) CommitSpread() []models.CommitSpreadEntry {
	v := e.v
	var spread []models.CommitSpreadEntry
	for m, module := range v.modules {
		counts := make(map[string]uint64)
		it := v.moduleRevs[m].Iterator()
		for it.HasNext() {
			counts[v.revAuthor[it.Next()]]++
		}

		start := len(spread)
		for author, n := range counts {
			spread = append(spread, models.CommitSpreadEntry{ModuleName: module, Author: author, NumRevisions: n})
		}
		group := spread[start:]
		sort.Slice(group, func(i, j int) bool {
			if group[i].NumRevisions != group[j].NumRevisions {
				return group[i].NumRevisions > group[j].NumRevisions
			}
			return group[i].Author < group[j].Author
		})
	}
	return spread
}
