package models

// Priority represents how urgent a plan node is
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority value
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Status represents the completion state of a plan node
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status value
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Child is one entry in an ordered child list: either a literal *Node or,
// before resolution, an *ImportReference.
type Child interface {
	child()
}

// CodeBlock is a code content payload with an optional language tag
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

// Node is one task/idea entry in a plan hierarchy
type Node struct {
	ID        string
	Title     string
	Priority  Priority
	Status    Status
	Assignee  string
	StartDate string
	EndDate   string
	DaysSpent *int

	// Content payload, each optional, at most one of each kind
	Comment    string
	Code       *CodeBlock
	TaskPrompt string
	CLICommand string

	// Extra carries unrecognized attributes through round-trips unchanged
	Extra map[string]string

	// Children is ordered; the interleaving of nodes and import
	// references is semantically meaningful
	Children []Child

	// Prov is origin metadata maintained by the resolver; never part of
	// persisted document content
	Prov *Provenance
}

func (*Node) child() {}

// ImportReference is a placeholder replaced at resolution time by the
// target document's content. Target is kept exactly as written.
type ImportReference struct {
	Target string
}

func (*ImportReference) child() {}

// Document is one addressable unit of plan content
type Document struct {
	Path     string
	Children []Child
}

// ApplyDefaults fills the enum fields that the encodings allow to be
// omitted
func (n *Node) ApplyDefaults() {
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Status == "" {
		n.Status = StatusPending
	}
}

// CloneShallow copies the node's attributes and content payload. Children
// and provenance are not carried over.
func (n *Node) CloneShallow() *Node {
	c := &Node{
		ID:         n.ID,
		Title:      n.Title,
		Priority:   n.Priority,
		Status:     n.Status,
		Assignee:   n.Assignee,
		StartDate:  n.StartDate,
		EndDate:    n.EndDate,
		Comment:    n.Comment,
		TaskPrompt: n.TaskPrompt,
		CLICommand: n.CLICommand,
	}
	if n.DaysSpent != nil {
		d := *n.DaysSpent
		c.DaysSpent = &d
	}
	if n.Code != nil {
		code := *n.Code
		c.Code = &code
	}
	if len(n.Extra) > 0 {
		c.Extra = make(map[string]string, len(n.Extra))
		for k, v := range n.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// WalkNodes visits every node in the forest depth-first, parents before
// children, skipping import references. It stops early if fn returns
// false.
func WalkNodes(children []Child, fn func(n *Node) bool) bool {
	for _, c := range children {
		n, ok := c.(*Node)
		if !ok {
			continue
		}
		if !fn(n) {
			return false
		}
		if !WalkNodes(n.Children, fn) {
			return false
		}
	}
	return true
}

// Nodes returns the document's top-level literal nodes in order
func (d *Document) Nodes() []*Node {
	var out []*Node
	for _, c := range d.Children {
		if n, ok := c.(*Node); ok {
			out = append(out, n)
		}
	}
	return out
}

// Imports returns every import reference in the document, in document
// order, including references nested under nodes.
func (d *Document) Imports() []*ImportReference {
	var out []*ImportReference
	var walk func(children []Child)
	walk = func(children []Child) {
		for _, c := range children {
			switch v := c.(type) {
			case *ImportReference:
				out = append(out, v)
			case *Node:
				walk(v.Children)
			}
		}
	}
	walk(d.Children)
	return out
}
