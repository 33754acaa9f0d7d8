package models

// Provenance records which document currently owns a node for persistence
// purposes. It lives only on in-memory trees; serialization strips it
// unless a diagnostic encoding explicitly asks for it.
type Provenance struct {
	// Source is the canonical path of the owning document
	Source string `json:"source"`
	// Imported is true when the node arrived via expansion of an import
	Imported bool `json:"imported,omitempty"`
	// ImportedFrom is the literal import-target string that pulled the
	// node in, kept un-canonicalized for boundary reconstruction
	ImportedFrom string `json:"importedFrom,omitempty"`
}

// Provenance returns the node's origin metadata, or the zero value if
// none has been recorded.
func (n *Node) Provenance() Provenance {
	if n.Prov == nil {
		return Provenance{}
	}
	return *n.Prov
}

// SetProvenance replaces the node's origin metadata
func (n *Node) SetProvenance(p Provenance) {
	n.Prov = &p
}

// EffectiveSource is the document that owns this node: its recorded
// source if set, otherwise the owning document of its parent.
func (n *Node) EffectiveSource(parentDocument string) string {
	if n.Prov != nil && n.Prov.Source != "" {
		return n.Prov.Source
	}
	return parentDocument
}

// StripProvenance removes origin metadata from a single node
func StripProvenance(n *Node) {
	n.Prov = nil
}

// StripTreeProvenance removes origin metadata from every node in the
// forest. Used right before final serialization.
func StripTreeProvenance(children []Child) {
	WalkNodes(children, func(n *Node) bool {
		n.Prov = nil
		return true
	})
}

// TagSource records source as the owning document of every node in the
// forest, preserving any imported/importedFrom marks already present.
func TagSource(children []Child, source string) {
	WalkNodes(children, func(n *Node) bool {
		if n.Prov == nil {
			n.Prov = &Provenance{}
		}
		n.Prov.Source = source
		return true
	})
}

// MarkImported flags spliced top-level nodes as having arrived through
// the import written as target.
func MarkImported(children []Child, target string) {
	for _, c := range children {
		n, ok := c.(*Node)
		if !ok {
			continue
		}
		if n.Prov == nil {
			n.Prov = &Provenance{}
		}
		n.Prov.Imported = true
		n.Prov.ImportedFrom = target
	}
}
