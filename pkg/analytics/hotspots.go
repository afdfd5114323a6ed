package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/panbanda/gitrends/pkg/models"
)

// FileHotspots ranks files by revision count. limit <= 0 returns all.
func (e *Engine) FileHotspots(limit int) []models.HotspotEntry {
	v := e.v
	hotspots := make([]models.HotspotEntry, len(v.files))
	for f, name := range v.files {
		latest := v.latestEntry(f)
		hotspots[f] = models.HotspotEntry{
			Name:              name,
			NumRevisions:      v.fileRevs[f].GetCardinality(),
			NumAuthors:        v.authorCount(v.fileRevs[f]),
			NumCodeLines:      latest.NumCodeLines,
			NumCommentLines:   latest.NumCommentLines,
			NumBlankLines:     latest.NumBlankLines,
			TotalIndentLevels: latest.TotalIndentLevels,
			AvgIndentLevels:   latest.AvgIndentLevels,
		}
	}
	sortHotspots(hotspots)
	return limitSlice(hotspots, limit)
}

// ModuleHotspots ranks modules by revision count. Revisions and authors
// include every file mapped to the module, deleted and ignored ones too.
// Sizes are the sums of the latest metrics of the module's active files.
// limit <= 0 returns all.
func (e *Engine) ModuleHotspots(limit int) []models.HotspotEntry {
	v := e.v
	hotspots := make([]models.HotspotEntry, len(v.modules))
	for m, name := range v.modules {
		h := models.HotspotEntry{
			Name:         name,
			NumRevisions: v.moduleAllRevs[m].GetCardinality(),
			NumAuthors:   v.authorCount(v.moduleAllRevs[m]),
		}
		for _, f := range v.moduleFiles[m] {
			latest := v.latestEntry(f)
			h.NumCodeLines += latest.NumCodeLines
			h.NumCommentLines += latest.NumCommentLines
			h.NumBlankLines += latest.NumBlankLines
			h.TotalIndentLevels += latest.TotalIndentLevels
		}
		h.AvgIndentLevels = models.Metric(float64(h.TotalIndentLevels) / float64(h.NumCodeLines))
		hotspots[m] = h
	}
	sortHotspots(hotspots)
	return limitSlice(hotspots, limit)
}

func sortHotspots(hotspots []models.HotspotEntry) {
	sort.SliceStable(hotspots, func(i, j int) bool {
		if hotspots[i].NumRevisions != hotspots[j].NumRevisions {
			return hotspots[i].NumRevisions > hotspots[j].NumRevisions
		}
		return hotspots[i].Name < hotspots[j].Name
	})
}

// Files returns the latest metrics of every active file, largest first.
func (e *Engine) Files() []models.FileEntry {
	files := make([]models.FileEntry, len(e.v.files))
	for f := range e.v.files {
		files[f] = e.fileEntry(f)
	}
	sortBySize(files)
	return files
}

// Modules returns every module with its files, ordered by module name.
func (e *Engine) Modules() []models.ModuleEntry {
	modules := make([]models.ModuleEntry, len(e.v.modules))
	for m, name := range e.v.modules {
		modules[m] = e.moduleEntry(m, name)
	}
	return modules
}

// ModuleFiles returns the files of one module, largest first.
func (e *Engine) ModuleFiles(module string) ([]models.FileEntry, error) {
	m, ok := e.v.moduleIndex[module]
	if !ok {
		return nil, fmt.Errorf("%w: module %q", ErrUnknownEntity, module)
	}
	return e.moduleEntry(m, module).Files, nil
}

// FileHistory returns the active entries of a file, oldest first.
func (e *Engine) FileHistory(file string) ([]models.FileHistoryEntry, error) {
	f, ok := e.v.fileIndex[file]
	if !ok {
		return nil, fmt.Errorf("%w: file %q", ErrUnknownEntity, file)
	}
	history := make([]models.FileHistoryEntry, 0, len(e.v.fileEntries[f]))
	for _, i := range e.v.fileEntries[f] {
		entry := &e.v.entries[i]
		history = append(history, models.FileHistoryEntry{
			Name:              entry.FileName,
			Revision:          entry.Revision,
			Date:              entry.Date,
			NumCodeLines:      entry.NumCodeLines,
			NumCommentLines:   entry.NumCommentLines,
			NumBlankLines:     entry.NumBlankLines,
			TotalIndentLevels: entry.TotalIndentLevels,
			AvgIndentLevels:   entry.AvgIndentLevels,
			StdIndentLevel:    entry.StdIndentLevel,
			AddedLines:        entry.AddedLines,
			RemovedLines:      entry.RemovedLines,
		})
	}
	return history, nil
}

func (e *Engine) moduleEntry(m int, name string) models.ModuleEntry {
	entry := models.ModuleEntry{Name: name}
	for _, f := range e.v.moduleFiles[m] {
		file := e.fileEntry(f)
		entry.NumCodeLines += file.NumCodeLines
		entry.Files = append(entry.Files, file)
	}
	sortBySize(entry.Files)
	return entry
}

func (e *Engine) fileEntry(f int) models.FileEntry {
	latest := e.v.latestEntry(f)
	return models.FileEntry{
		Name:              e.v.files[f],
		LastRevision:      latest.Revision,
		LastDate:          latest.Date,
		NumCodeLines:      latest.NumCodeLines,
		NumCommentLines:   latest.NumCommentLines,
		NumBlankLines:     latest.NumBlankLines,
		TotalIndentLevels: latest.TotalIndentLevels,
		AvgIndentLevels:   latest.AvgIndentLevels,
		StdIndentLevels:   latest.StdIndentLevel,
	}
}

func sortBySize(files []models.FileEntry) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].NumCodeLines != files[j].NumCodeLines {
			return files[i].NumCodeLines > files[j].NumCodeLines
		}
		return files[i].Name < files[j].Name
	})
}

// weight returns n relative to top, zero when top is zero.
func weight(n, top uint64) float64 {
	if top == 0 {
		return 0
	}
	return math.Min(1, float64(n)/float64(top))
}
