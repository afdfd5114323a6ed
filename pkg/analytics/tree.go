package analytics

import (
	"sort"
	"strings"

	"github.com/panbanda/gitrends/pkg/models"
)

// pathNode is the mutable form of a path tree. Directories and leaves are
// keyed by segment; a directory and a leaf may share a name.
type pathNode[P any] struct {
	dirs   map[string]*pathNode[P]
	leaves map[string]P
}

func newPathNode[P any]() *pathNode[P] {
	return &pathNode[P]{
		dirs:   make(map[string]*pathNode[P]),
		leaves: make(map[string]P),
	}
}

// insert adds a leaf. With split the name is broken on "/" and every segment
// but the last becomes a directory; otherwise the whole name is one leaf.
func (n *pathNode[P]) insert(name string, payload P, split bool) {
	if !split {
		n.leaves[name] = payload
		return
	}
	var segments []string
	for _, s := range strings.Split(name, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return
	}
	node := n
	for _, s := range segments[:len(segments)-1] {
		child, ok := node.dirs[s]
		if !ok {
			child = newPathNode[P]()
			node.dirs[s] = child
		}
		node = child
	}
	node.leaves[segments[len(segments)-1]] = payload
}

// build converts the node into its final form. Children are ordered by name,
// directories before leaves of the same name. Directories that end up with no
// children are dropped.
func build[P any, T any](
	n *pathNode[P],
	name string,
	dir func(name string, children []T) T,
	leaf func(name string, payload P) T,
) (T, bool) {
	type child struct {
		name  string
		isDir bool
		node  T
	}
	var children []child
	for s, d := range n.dirs {
		if node, ok := build(d, s, dir, leaf); ok {
			children = append(children, child{name: s, isDir: true, node: node})
		}
	}
	for s, p := range n.leaves {
		children = append(children, child{name: s, node: leaf(s, p)})
	}

	var zero T
	if len(children) == 0 {
		return zero, false
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].name != children[j].name {
			return children[i].name < children[j].name
		}
		return children[i].isDir && !children[j].isDir
	})
	nodes := make([]T, len(children))
	for i, c := range children {
		nodes[i] = c.node
	}
	return dir(name, nodes), true
}

// HotspotTree returns the file or module hotspots as a path hierarchy.
// Leaf weights are relative to the most revised and most authored entry.
func (e *Engine) HotspotTree(files bool) *models.HotspotTree {
	var hotspots []models.HotspotEntry
	if files {
		hotspots = e.FileHotspots(0)
	} else {
		hotspots = e.ModuleHotspots(0)
	}

	var maxRevs, maxAuthors uint64
	for _, h := range hotspots {
		maxRevs = max(maxRevs, h.NumRevisions)
		maxAuthors = max(maxAuthors, h.NumAuthors)
	}

	root := newPathNode[models.HotspotEntry]()
	for _, h := range hotspots {
		root.insert(h.Name, h, true)
	}
	tree, ok := build(root, "",
		func(name string, children []*models.HotspotTree) *models.HotspotTree {
			return &models.HotspotTree{Type: models.NodeTree, Name: name, Children: children}
		},
		func(name string, h models.HotspotEntry) *models.HotspotTree {
			return &models.HotspotTree{
				Type:           models.NodeLeaf,
				Name:           name,
				Size:           h.NumCodeLines,
				RevisionWeight: weight(h.NumRevisions, maxRevs),
				AuthorWeight:   weight(h.NumAuthors, maxAuthors),
			}
		})
	if !ok {
		return &models.HotspotTree{Type: models.NodeTree}
	}
	return tree
}

// ChangeCouplingTree returns the couplings as a hierarchy. Files are split on
// path separators; modules are flat leaves under the root. Each leaf lists,
// in both directions, the partners with at least minRevisions coupled
// revisions and a ratio of at least minRatio. Leaves without partners and
// directories left empty are removed.
func (e *Engine) ChangeCouplingTree(files bool, minRevisions uint64, minRatio float64) *models.ChangeCouplingTree {
	var couplings []models.ChangeCoupling
	if files {
		couplings = e.FileChangeCouplings(0)
	} else {
		couplings = e.ModuleChangeCouplings(0)
	}

	partners := make(map[string][]models.Coupling)
	for _, c := range couplings {
		if c.CoupledRevisions < minRevisions || c.CouplingRatio < minRatio {
			continue
		}
		partners[c.LeftName] = append(partners[c.LeftName], models.Coupling{Coupled: c.RightName, CouplingRatio: c.CouplingRatio})
		partners[c.RightName] = append(partners[c.RightName], models.Coupling{Coupled: c.LeftName, CouplingRatio: c.CouplingRatio})
	}

	root := newPathNode[[]models.Coupling]()
	for name, list := range partners {
		sort.Slice(list, func(i, j int) bool {
			if list[i].CouplingRatio != list[j].CouplingRatio {
				return list[i].CouplingRatio > list[j].CouplingRatio
			}
			return list[i].Coupled < list[j].Coupled
		})
		root.insert(name, list, files)
	}

	tree, ok := build(root, "",
		func(name string, children []*models.ChangeCouplingTree) *models.ChangeCouplingTree {
			return &models.ChangeCouplingTree{Type: models.NodeTree, Name: name, Children: children}
		},
		func(name string, list []models.Coupling) *models.ChangeCouplingTree {
			return &models.ChangeCouplingTree{Type: models.NodeLeaf, Name: name, Couplings: list}
		})
	if !ok {
		return &models.ChangeCouplingTree{Type: models.NodeTree}
	}
	return tree
}

// MainDeveloperTree returns the main developers as a path hierarchy. Leaf
// size is the entity's current code lines.
func (e *Engine) MainDeveloperTree(files bool) *models.MainDeveloperTree {
	var entries []models.MainDeveloperEntry
	sizes := make(map[string]uint64)
	if files {
		entries = e.FilesMainDeveloper()
		for f, name := range e.v.files {
			sizes[name] = e.v.latestEntry(f).NumCodeLines
		}
	} else {
		entries = e.ModulesMainDeveloper()
		for m, name := range e.v.modules {
			for _, f := range e.v.moduleFiles[m] {
				sizes[name] += e.v.latestEntry(f).NumCodeLines
			}
		}
	}

	root := newPathNode[models.MainDeveloperEntry]()
	for _, entry := range entries {
		root.insert(entry.Name, entry, true)
	}
	tree, ok := build(root, "",
		func(name string, children []*models.MainDeveloperTree) *models.MainDeveloperTree {
			return &models.MainDeveloperTree{Type: models.NodeTree, Name: name, Children: children}
		},
		func(name string, entry models.MainDeveloperEntry) *models.MainDeveloperTree {
			return &models.MainDeveloperTree{
				Type:          models.NodeLeaf,
				Name:          name,
				Size:          sizes[entry.Name],
				MainDeveloper: entry.MainDeveloper,
			}
		})
	if !ok {
		return &models.MainDeveloperTree{Type: models.NodeTree}
	}
	return tree
}
