package analytics

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/gitrends/pkg/models"
	"github.com/panbanda/gitrends/pkg/rules"
	"github.com/panbanda/gitrends/pkg/store"
)

// view is the immutable, indexed form of the active file revision entries.
// Files and modules are numbered in name order; revisions are numbered in
// commit log order and tracked per entity in roaring bitmaps.
type view struct {
	log []models.CommitLogEntry

	revisions []string
	revIndex  map[string]uint32
	revAuthor []string

	entries []models.FileRevisionEntry

	files       []string
	fileIndex   map[string]int
	fileRevs    []*roaring.Bitmap
	fileEntries [][]int
	latest      []int
	fileModule  []int

	modules     []string
	moduleIndex map[string]int
	moduleRevs  []*roaring.Bitmap
	moduleFiles [][]int
	// moduleAllRevs also counts entries of deleted and ignored files mapped
	// to an active module. Only the date range applies.
	moduleAllRevs []*roaring.Bitmap

	// revFiles and revModules list, per revision, the entities it touched
	// in ascending index order.
	revFiles   [][]int
	revModules [][]int
}

func buildView(tables *store.Tables, set rules.Set, dates models.DateRange) *view {
	v := &view{
		log:         tables.Log,
		revIndex:    make(map[string]uint32, len(tables.Log)),
		fileIndex:   make(map[string]int),
		moduleIndex: make(map[string]int),
	}

	for _, c := range tables.Log {
		v.revisionIndex(c.Revision, set.Authors.Normalize(c.Author))
	}

	for _, e := range tables.Entries {
		if !e.ExistsAtHead || set.Ignore.IsIgnored(e.FileName) || !dates.Contains(e.Date) {
			continue
		}
		v.entries = append(v.entries, e)
		if _, ok := v.fileIndex[e.FileName]; !ok {
			v.fileIndex[e.FileName] = -1
			v.files = append(v.files, e.FileName)
		}
	}

	sort.Strings(v.files)
	for i, f := range v.files {
		v.fileIndex[f] = i
	}
	v.fileRevs = newBitmaps(len(v.files))
	v.fileEntries = make([][]int, len(v.files))
	v.latest = make([]int, len(v.files))
	v.fileModule = make([]int, len(v.files))

	moduleSet := make(map[string]struct{})
	fileModuleName := make([]string, len(v.files))
	for i, f := range v.files {
		fileModuleName[i] = set.Modules.Module(f)
		moduleSet[fileModuleName[i]] = struct{}{}
	}
	for m := range moduleSet {
		v.modules = append(v.modules, m)
	}
	sort.Strings(v.modules)
	for i, m := range v.modules {
		v.moduleIndex[m] = i
	}
	for i := range v.files {
		v.fileModule[i] = v.moduleIndex[fileModuleName[i]]
	}
	v.moduleRevs = newBitmaps(len(v.modules))
	v.moduleFiles = make([][]int, len(v.modules))
	for i := range v.files {
		m := v.fileModule[i]
		v.moduleFiles[m] = append(v.moduleFiles[m], i)
	}

	for i := range v.entries {
		e := &v.entries[i]
		f := v.fileIndex[e.FileName]
		rev := v.revisionIndex(e.Revision, models.UnknownAuthor)
		v.fileRevs[f].Add(rev)
		v.moduleRevs[v.fileModule[f]].Add(rev)
		v.fileEntries[f] = append(v.fileEntries[f], i)
	}

	v.moduleAllRevs = newBitmaps(len(v.modules))
	moduleOf := make(map[string]int)
	for _, e := range tables.Entries {
		if !dates.Contains(e.Date) {
			continue
		}
		m, ok := moduleOf[e.FileName]
		if !ok {
			m = -1
			if idx, found := v.moduleIndex[set.Modules.Module(e.FileName)]; found {
				m = idx
			}
			moduleOf[e.FileName] = m
		}
		if m >= 0 {
			v.moduleAllRevs[m].Add(v.revisionIndex(e.Revision, models.UnknownAuthor))
		}
	}

	for f, idx := range v.fileEntries {
		// The latest entry is the first in table order among those with the
		// newest date.
		sort.SliceStable(idx, func(a, b int) bool {
			return v.entries[idx[a]].Date < v.entries[idx[b]].Date
		})
		last := len(idx) - 1
		for last > 0 && v.entries[idx[last-1]].Date == v.entries[idx[last]].Date {
			last--
		}
		v.latest[f] = idx[last]
	}

	v.revFiles = invert(v.fileRevs, len(v.revisions))
	v.revModules = invert(v.moduleRevs, len(v.revisions))
	return v
}

// revisionIndex returns the index of rev, registering it with author when new.
func (v *view) revisionIndex(rev, author string) uint32 {
	if idx, ok := v.revIndex[rev]; ok {
		return idx
	}
	idx := uint32(len(v.revisions))
	v.revIndex[rev] = idx
	v.revisions = append(v.revisions, rev)
	v.revAuthor = append(v.revAuthor, author)
	return idx
}

// authorCount returns the number of distinct authors among revs.
func (v *view) authorCount(revs *roaring.Bitmap) uint64 {
	authors := make(map[string]struct{})
	it := revs.Iterator()
	for it.HasNext() {
		authors[v.revAuthor[it.Next()]] = struct{}{}
	}
	return uint64(len(authors))
}

func (v *view) latestEntry(file int) *models.FileRevisionEntry {
	return &v.entries[v.latest[file]]
}

func newBitmaps(n int) []*roaring.Bitmap {
	bitmaps := make([]*roaring.Bitmap, n)
	for i := range bitmaps {
		bitmaps[i] = roaring.New()
	}
	return bitmaps
}

// invert turns per-entity revision sets into per-revision entity lists.
func invert(sets []*roaring.Bitmap, numRevisions int) [][]int {
	out := make([][]int, numRevisions)
	for entity, revs := range sets {
		it := revs.Iterator()
		for it.HasNext() {
			rev := it.Next()
			out[rev] = append(out[rev], entity)
		}
	}
	return out
}
