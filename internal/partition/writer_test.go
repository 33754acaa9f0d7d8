package partition

import (
	"context"
	"testing"

	"github.com/planweave/planweave/internal/models"
)

func node(title, source string, children ...models.Child) *models.Node {
	n := &models.Node{
		Title:    title,
		Priority: models.PriorityMedium,
		Status:   models.StatusPending,
		Children: children,
	}
	if source != "" {
		n.Prov = &models.Provenance{Source: source}
	}
	return n
}

func imported(n *models.Node, literal string) *models.Node {
	n.Prov.Imported = true
	n.Prov.ImportedFrom = literal
	return n
}

func docTitles(d *models.Document) []string {
	var out []string
	for _, c := range d.Children {
		if n, ok := c.(*models.Node); ok {
			out = append(out, n.Title)
		}
	}
	return out
}

func docImports(d *models.Document) []string {
	var out []string
	for _, c := range d.Children {
		if ref, ok := c.(*models.ImportReference); ok {
			out = append(out, ref.Target)
		}
	}
	return out
}

func TestPartition_SingleDocument(t *testing.T) {
	t.Parallel()

	merged := &models.Document{Path: "main.xml", Children: []models.Child{
		node("a", "main.xml", node("a1", "main.xml")),
		node("b", "main.xml"),
	}}

	res, err := New(nil).Partition(context.Background(), "main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if len(res.Documents) != 1 {
		t.Fatalf("got %d documents, want 1", len(res.Documents))
	}
	main := res.Documents["main.xml"]
	got := docTitles(main)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("main titles = %v", got)
	}

	a := main.Children[0].(*models.Node)
	if a.Prov != nil {
		t.Errorf("output still carries provenance")
	}
	if len(a.Children) != 1 || a.Children[0].(*models.Node).Title != "a1" {
		t.Errorf("nesting lost: %+v", a.Children)
	}
}

func TestPartition_BoundaryReconstruction(t *testing.T) {
	t.Parallel()

	// main owned "before"/"after" around two nodes spliced from sub.xml
	merged := &models.Document{Path: "main.xml", Children: []models.Child{
		node("before", "main.xml"),
		imported(node("s1", "sub.xml"), "sub.xml"),
		imported(node("s2", "sub.xml"), "sub.xml"),
		node("after", "main.xml"),
	}}

	res, err := New(nil).Partition(context.Background(), "main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("got %d documents, want 2: %v", len(res.Documents), res.Order)
	}

	main := res.Documents["main.xml"]
	// before, <import sub.xml>, after with exactly one import reference
	if len(main.Children) != 3 {
		t.Fatalf("main has %d children, want 3", len(main.Children))
	}
	ref, ok := main.Children[1].(*models.ImportReference)
	if !ok || ref.Target != "sub.xml" {
		t.Errorf("main.Children[1] = %+v, want import of sub.xml", main.Children[1])
	}
	if got := docTitles(res.Documents["sub.xml"]); len(got) != 2 || got[0] != "s1" || got[1] != "s2" {
		t.Errorf("sub titles = %v", got)
	}
	if res.Order[0] != "main.xml" {
		t.Errorf("Order = %v, main must come first", res.Order)
	}
}

func TestPartition_InheritedOwnership(t *testing.T) {
	t.Parallel()

	// a child added under an imported parent has no provenance of its own
	// and follows the parent into sub.xml
	newChild := &models.Node{Title: "added", Priority: models.PriorityHigh, Status: models.StatusPending}
	merged := &models.Document{Path: "main.xml", Children: []models.Child{
		imported(node("parent", "sub.xml"), "sub.xml"),
	}}
	merged.Children[0].(*models.Node).Children = []models.Child{newChild}

	res, err := New(nil).Partition(context.Background(), "main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	sub := res.Documents["sub.xml"]
	if len(sub.Children) != 1 {
		t.Fatalf("sub has %d children, want 1", len(sub.Children))
	}
	parent := sub.Children[0].(*models.Node)
	if len(parent.Children) != 1 || parent.Children[0].(*models.Node).Title != "added" {
		t.Errorf("added child did not follow its parent: %+v", parent.Children)
	}
	if got := docTitles(res.Documents["main.xml"]); len(got) != 0 {
		t.Errorf("main keeps only the reference, got nodes %v", got)
	}
}

func TestPartition_ReassignedNodeMoves(t *testing.T) {
	t.Parallel()

	// an edit changed this node's source; it moves to the top level of
	// other.xml and main gains a derived relative reference
	merged := &models.Document{Path: "plans/main.xml", Children: []models.Child{
		node("stay", "plans/main.xml"),
		node("move", "plans/other.xml"),
	}}

	res, err := New(nil).Partition(context.Background(), "plans/main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	if refs := docImports(res.Documents["plans/main.xml"]); len(refs) != 1 || refs[0] != "other.xml" {
		t.Errorf("main imports = %v, want [other.xml]", refs)
	}
	if got := docTitles(res.Documents["plans/other.xml"]); len(got) != 1 || got[0] != "move" {
		t.Errorf("other titles = %v", got)
	}
}

func TestPartition_LiteralImportStringPreferred(t *testing.T) {
	t.Parallel()

	// the node was pulled in as "./sub.xml"; that exact string must come
	// back even though the canonical path differs
	merged := &models.Document{Path: "main.xml", Children: []models.Child{
		imported(node("s1", "sub.xml"), "./sub.xml"),
	}}

	res, err := New(nil).Partition(context.Background(), "main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if refs := docImports(res.Documents["main.xml"]); len(refs) != 1 || refs[0] != "./sub.xml" {
		t.Errorf("main imports = %v, want [./sub.xml]", refs)
	}
}

func TestPartition_OneReferencePerBoundary(t *testing.T) {
	t.Parallel()

	merged := &models.Document{Path: "main.xml", Children: []models.Child{
		imported(node("s1", "sub.xml"), "sub.xml"),
		node("mine", "main.xml"),
		imported(node("s2", "sub.xml"), "sub.xml"),
	}}

	res, err := New(nil).Partition(context.Background(), "main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if refs := docImports(res.Documents["main.xml"]); len(refs) != 1 {
		t.Errorf("main imports = %v, want exactly one", refs)
	}
	if got := docTitles(res.Documents["sub.xml"]); len(got) != 2 {
		t.Errorf("sub titles = %v, want both nodes", got)
	}
}

func TestPartition_UnexpandedReferencePassesThrough(t *testing.T) {
	t.Parallel()

	merged := &models.Document{Path: "main.xml", Children: []models.Child{
		node("a", "main.xml"),
		&models.ImportReference{Target: "untouched.xml"},
	}}

	res, err := New(nil).Partition(context.Background(), "main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if refs := docImports(res.Documents["main.xml"]); len(refs) != 1 || refs[0] != "untouched.xml" {
		t.Errorf("main imports = %v, want [untouched.xml]", refs)
	}
	// pass-through references create no output bucket for the target
	if _, ok := res.Documents["untouched.xml"]; ok {
		t.Errorf("pass-through reference created a bucket for its target")
	}
}

func TestPartition_InvalidAttributeKeyDropped(t *testing.T) {
	t.Parallel()

	n := node("a", "main.xml")
	n.Extra = map[string]string{"good-key": "kept", "1bad": "dropped"}
	merged := &models.Document{Path: "main.xml", Children: []models.Child{n}}

	res, err := New(nil).Partition(context.Background(), "main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}

	out := res.Documents["main.xml"].Children[0].(*models.Node)
	if _, ok := out.Extra["1bad"]; ok {
		t.Errorf("invalid key survived: %v", out.Extra)
	}
	if out.Extra["good-key"] != "kept" {
		t.Errorf("valid key dropped: %v", out.Extra)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != models.KindInvalidAttributeKey {
		t.Errorf("warnings = %v, want one invalid_attribute_key", res.Warnings)
	}
	// the source tree is untouched
	if n.Extra["1bad"] != "dropped" {
		t.Errorf("partition mutated its input")
	}
}

func TestPartition_MainAlwaysPresent(t *testing.T) {
	t.Parallel()

	// everything was reassigned away; main still gets written
	merged := &models.Document{Path: "main.xml", Children: []models.Child{
		node("gone", "other.xml"),
	}}

	res, err := New(nil).Partition(context.Background(), "main.xml", merged)
	if err != nil {
		t.Fatalf("Partition() error = %v", err)
	}
	if _, ok := res.Documents["main.xml"]; !ok {
		t.Fatalf("main document missing from output: %v", res.Order)
	}
	if res.Order[0] != "main.xml" {
		t.Errorf("Order = %v, main must come first", res.Order)
	}
}
