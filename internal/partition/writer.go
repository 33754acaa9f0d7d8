// Package partition re-splits an edited merged tree back into its source
// documents, reconstructing import boundaries from provenance without
// losing or duplicating data.
package partition

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/planweave/planweave/internal/format"
	"github.com/planweave/planweave/internal/models"
	"github.com/planweave/planweave/internal/store"
	"github.com/planweave/planweave/internal/validation"
)

// Result is the per-document output of one partition walk
type Result struct {
	// Documents holds each output document keyed by canonical path
	Documents map[string]*models.Document
	// Order lists the document paths in first-touch order, main document
	// first; write operations follow it so partial failures are
	// deterministic
	Order    []string
	Warnings []models.Warning
}

// Writer materializes per-document output from an edited merged tree
type Writer struct {
	logger *zap.Logger
}

// New creates a partition writer
func New(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger}
}

// walkState is request-local
type walkState struct {
	result *Result
	// importsAdded tracks (document, canonical target) pairs so each
	// boundary produces exactly one import reference
	importsAdded map[string]map[string]bool
}

// Partition splits the edited merged tree rooted at mainPath into one
// output document per owning source. The main document always appears in
// the output, even when everything it held was moved elsewhere; documents
// that end up empty are never deleted here.
func (w *Writer) Partition(ctx context.Context, mainPath string, doc *models.Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	canonical, err := store.Normalize(mainPath)
	if err != nil {
		return nil, models.NewDocError(models.KindNotFound, mainPath, err)
	}

	st := &walkState{
		result: &Result{
			Documents: make(map[string]*models.Document),
		},
		importsAdded: make(map[string]map[string]bool),
	}
	mainBucket := st.bucket(canonical)

	if err := w.walk(st, doc.Children, canonical, &mainBucket.Children); err != nil {
		return nil, err
	}

	w.logger.Info("partitioned_tree",
		zap.String("main", canonical),
		zap.Int("documents", len(st.result.Documents)),
		zap.Int("warnings", len(st.result.Warnings)),
	)
	return st.result, nil
}

// bucket returns the output document for a source path, creating it on
// first touch
func (st *walkState) bucket(docPath string) *models.Document {
	if d, ok := st.result.Documents[docPath]; ok {
		return d
	}
	d := &models.Document{Path: docPath}
	st.result.Documents[docPath] = d
	st.result.Order = append(st.result.Order, docPath)
	return d
}

func (w *Writer) walk(st *walkState, children []models.Child, parentDoc string, parentBucket *[]models.Child) error {
	for _, c := range children {
		switch v := c.(type) {
		case *models.ImportReference:
			// an unexpanded reference in an edited tree passes through
			// unchanged, subject to the same dedupe rule
			target, err := store.Canonical(parentDoc, v.Target)
			if err != nil {
				target = v.Target
			}
			if st.noteImport(parentDoc, target) {
				*parentBucket = append(*parentBucket, &models.ImportReference{Target: v.Target})
			}
		case *models.Node:
			if err := w.walkNode(st, v, parentDoc, parentBucket); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown child type %T", c)
		}
	}
	return nil
}

func (w *Writer) walkNode(st *walkState, n *models.Node, parentDoc string, parentBucket *[]models.Child) error {
	effective := n.EffectiveSource(parentDoc)

	clone := n.CloneShallow()
	models.StripProvenance(clone)
	w.dropInvalidKeys(st, clone, effective)

	if effective != parentDoc {
		// import boundary: the parent document keeps a reference, the
		// node itself moves to the top level of its owning document
		if st.noteImport(parentDoc, effective) {
			*parentBucket = append(*parentBucket, &models.ImportReference{
				Target: importTarget(parentDoc, effective, n),
			})
		}
		dest := st.bucket(effective)
		dest.Children = append(dest.Children, clone)
		return w.walk(st, n.Children, effective, &clone.Children)
	}

	*parentBucket = append(*parentBucket, clone)
	return w.walk(st, n.Children, parentDoc, &clone.Children)
}

// noteImport records that parentDoc references target; the first caller
// per pair gets true and emits the reference
func (st *walkState) noteImport(parentDoc, target string) bool {
	m := st.importsAdded[parentDoc]
	if m == nil {
		m = make(map[string]bool)
		st.importsAdded[parentDoc] = m
	}
	if m[target] {
		return false
	}
	m[target] = true
	return true
}

// importTarget picks the import string written into the parent document.
// The literal string that originally pulled the node in wins whenever it
// still points at the node's owning document, so unedited documents
// round-trip byte for byte; otherwise a relative path is derived.
func importTarget(parentDoc, effective string, n *models.Node) string {
	if n.Prov != nil && n.Prov.ImportedFrom != "" {
		if canonical, err := store.Canonical(parentDoc, n.Prov.ImportedFrom); err == nil && canonical == effective {
			return n.Prov.ImportedFrom
		}
	}
	return relativeTarget(parentDoc, effective)
}

// relativeTarget expresses a canonical document path relative to the
// importing document's directory
func relativeTarget(parentDoc, target string) string {
	dir := path.Dir(parentDoc)
	if dir == "." {
		return target
	}
	prefix := dir + "/"
	if rest, ok := strings.CutPrefix(target, prefix); ok {
		return rest
	}
	// walk up as far as needed
	up := ""
	for dir != "." {
		up += "../"
		dir = path.Dir(dir)
		prefix = dir + "/"
		if dir == "." {
			return up + target
		}
		if rest, ok := strings.CutPrefix(target, prefix); ok {
			return up + rest
		}
	}
	return target
}

// dropInvalidKeys validates extra attribute keys against the naming rules
// of the node's destination encoding, dropping offenders with a warning
// instead of aborting the node
func (w *Writer) dropInvalidKeys(st *walkState, n *models.Node, destDoc string) {
	if len(n.Extra) == 0 {
		return
	}
	enc, err := format.EncodingForPath(destDoc)
	if err != nil {
		enc = format.EncodingXML
	}
	for k := range n.Extra {
		if validation.AttributeKeyValid(k, enc) {
			continue
		}
		delete(n.Extra, k)
		st.result.Warnings = append(st.result.Warnings, models.Warnf(
			models.KindInvalidAttributeKey, destDoc,
			"attribute %q on node %q is not a valid %s attribute name; dropped", k, n.Title, enc))
		w.logger.Warn("dropped_invalid_attribute_key",
			zap.String("document", destDoc),
			zap.String("key", k),
		)
	}
}
