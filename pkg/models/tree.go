package models

// NodeType distinguishes internal tree nodes from leaves.
type NodeType string

const (
	NodeTree NodeType = "Tree"
	NodeLeaf NodeType = "Leaf"
)

// HotspotTree is a path hierarchy of hotspots. Leaves carry the size and
// weights relative to the most changed and most authored entry.
type HotspotTree struct {
	Type           NodeType       `json:"type"`
	Name           string         `json:"name"`
	Size           uint64         `json:"size,omitempty"`
	RevisionWeight float64        `json:"revision_weight,omitempty"`
	AuthorWeight   float64        `json:"author_weight,omitempty"`
	Children       []*HotspotTree `json:"children,omitempty"`
}

// Coupling is one partner of a change coupling tree leaf.
type Coupling struct {
	Coupled       string  `json:"coupled"`
	CouplingRatio float64 `json:"coupling_ratio"`
}

// ChangeCouplingTree is a path hierarchy of change couplings.
type ChangeCouplingTree struct {
	Type      NodeType              `json:"type"`
	Name      string                `json:"name"`
	Couplings []Coupling            `json:"couplings,omitempty"`
	Children  []*ChangeCouplingTree `json:"children,omitempty"`
}

// MainDeveloperTree is a path hierarchy of main developers.
type MainDeveloperTree struct {
	Type          NodeType             `json:"type"`
	Name          string               `json:"name"`
	Size          uint64               `json:"size,omitempty"`
	MainDeveloper string               `json:"main_developer,omitempty"`
	Children      []*MainDeveloperTree `json:"children,omitempty"`
}
