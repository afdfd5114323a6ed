package analytics

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/gitrends/pkg/models"
)

// entitySet is the per-entity view shared by file and module queries.
type entitySet struct {
	kind   string
	names  []string
	index  map[string]int
	revs   []*roaring.Bitmap
	byRevs [][]int
}

func (e *Engine) fileSet() entitySet {
	return entitySet{kind: "file", names: e.v.files, index: e.v.fileIndex, revs: e.v.fileRevs, byRevs: e.v.revFiles}
}

func (e *Engine) moduleSet() entitySet {
	return entitySet{kind: "module", names: e.v.modules, index: e.v.moduleIndex, revs: e.v.moduleRevs, byRevs: e.v.revModules}
}

// FileChangeCouplings returns every pair of files changed in the same
// revision, most coupled first. limit <= 0 returns all.
func (e *Engine) FileChangeCouplings(limit int) []models.ChangeCoupling {
	return limitSlice(allCouplings(e.fileSet()), limit)
}

// ModuleChangeCouplings is FileChangeCouplings for modules.
func (e *Engine) ModuleChangeCouplings(limit int) []models.ChangeCoupling {
	return limitSlice(allCouplings(e.moduleSet()), limit)
}

// ChangeCouplingsForFile returns the couplings of one file, with the file
// on the left side.
func (e *Engine) ChangeCouplingsForFile(file string, limit int) ([]models.ChangeCoupling, error) {
	couplings, err := couplingsFor(e.fileSet(), file)
	if err != nil {
		return nil, err
	}
	return limitSlice(couplings, limit), nil
}

// ChangeCouplingsForModule is ChangeCouplingsForFile for modules.
func (e *Engine) ChangeCouplingsForModule(module string, limit int) ([]models.ChangeCoupling, error) {
	couplings, err := couplingsFor(e.moduleSet(), module)
	if err != nil {
		return nil, err
	}
	return limitSlice(couplings, limit), nil
}

// FileSumOfCouplings returns, per file, the coupled revisions summed over all
// partners. Files without partners are included with zero.
func (e *Engine) FileSumOfCouplings(limit int) []models.SumOfCouplingEntry {
	return limitSlice(sumOfCouplings(e.fileSet()), limit)
}

// ModuleSumOfCouplings is FileSumOfCouplings for modules.
func (e *Engine) ModuleSumOfCouplings(limit int) []models.SumOfCouplingEntry {
	return limitSlice(sumOfCouplings(e.moduleSet()), limit)
}

func pairKey(left, right int) uint64 {
	return uint64(left)<<32 | uint64(right)
}

// allCouplings counts, for each unordered pair, the revisions touching both.
// Entity indices follow name order so the left name is always the smaller.
func allCouplings(s entitySet) []models.ChangeCoupling {
	counts := make(map[uint64]uint64)
	for _, entities := range s.byRevs {
		for i := 0; i < len(entities); i++ {
			for j := i + 1; j < len(entities); j++ {
				counts[pairKey(entities[i], entities[j])]++
			}
		}
	}

	couplings := make([]models.ChangeCoupling, 0, len(counts))
	for key, coupled := range counts {
		left, right := int(key>>32), int(key&0xffffffff)
		couplings = append(couplings, models.NewChangeCoupling(
			s.names[left], s.names[right], coupled,
			s.revs[left].GetCardinality(), s.revs[right].GetCardinality(),
		))
	}
	sortCouplings(couplings)
	return couplings
}

func couplingsFor(s entitySet, name string) ([]models.ChangeCoupling, error) {
	idx, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownEntity, s.kind, name)
	}

	revs := s.revs[idx]
	var couplings []models.ChangeCoupling
	for other, otherRevs := range s.revs {
		if other == idx {
			continue
		}
		coupled := revs.AndCardinality(otherRevs)
		if coupled == 0 {
			continue
		}
		couplings = append(couplings, models.NewChangeCoupling(
			name, s.names[other], coupled,
			revs.GetCardinality(), otherRevs.GetCardinality(),
		))
	}
	sortCouplings(couplings)
	return couplings, nil
}

func sortCouplings(couplings []models.ChangeCoupling) {
	sort.Slice(couplings, func(i, j int) bool {
		a, b := couplings[i], couplings[j]
		if a.CoupledRevisions != b.CoupledRevisions {
			return a.CoupledRevisions > b.CoupledRevisions
		}
		if a.LeftName != b.LeftName {
			return a.LeftName < b.LeftName
		}
		return a.RightName < b.RightName
	})
}

// sumOfCouplings adds, for every revision touching k entities, k-1 to each
// of them: the sum over partners of coupled revisions.
func sumOfCouplings(s entitySet) []models.SumOfCouplingEntry {
	sums := make([]uint64, len(s.names))
	for _, entities := range s.byRevs {
		k := uint64(len(entities))
		if k < 2 {
			continue
		}
		for _, entity := range entities {
			sums[entity] += k - 1
		}
	}

	entries := make([]models.SumOfCouplingEntry, len(s.names))
	for i, name := range s.names {
		entries[i] = models.SumOfCouplingEntry{Name: name, SumOfCouplings: sums[i]}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SumOfCouplings != entries[j].SumOfCouplings {
			return entries[i].SumOfCouplings > entries[j].SumOfCouplings
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
