// Package resolver expands a document graph's import references into one
// merged in-memory tree, tagging every node with provenance and guarding
// against cycles and runaway graphs.
package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/planweave/planweave/internal/loader"
	"github.com/planweave/planweave/internal/models"
	"github.com/planweave/planweave/internal/store"
)

// Limits bounds one resolution request. Legitimate non-cyclic graphs can
// still be pathologically deep, so the cycle check alone does not bound
// work.
type Limits struct {
	MaxDepth int
	MaxFiles int
}

// DefaultLimits returns the limits used when configuration provides none
func DefaultLimits() Limits {
	return Limits{MaxDepth: 64, MaxFiles: 512}
}

// Resolver expands import references recursively
type Resolver struct {
	loader *loader.Loader
	limits Limits
	logger *zap.Logger
}

// New creates a resolver. Zero or negative limit values fall back to the
// defaults.
func New(l *loader.Loader, limits Limits, logger *zap.Logger) *Resolver {
	def := DefaultLimits()
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = def.MaxDepth
	}
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = def.MaxFiles
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{loader: l, limits: limits, logger: logger}
}

// state is request-local; nothing here is ever shared across requests
type state struct {
	ancestry map[string]bool
	warnings []models.Warning
	files    int
}

// Resolve expands the document at docPath into a fully merged tree.
// Failures on the entry document are fatal; failures on nested imports
// degrade to warnings and an omitted subtree.
func (r *Resolver) Resolve(ctx context.Context, docPath string) (*models.Document, []models.Warning, error) {
	canonical, err := store.Normalize(docPath)
	if err != nil {
		return nil, nil, models.NewDocError(models.KindNotFound, docPath, err)
	}

	st := &state{ancestry: make(map[string]bool)}
	children, err := r.expand(ctx, st, canonical, 0, true)
	if err != nil {
		return nil, nil, err
	}

	merged := &models.Document{Path: canonical, Children: children}
	r.reportDuplicateIDs(merged, st)

	r.logger.Info("resolved_document",
		zap.String("path", canonical),
		zap.Int("documents_loaded", st.files),
		zap.Int("warnings", len(st.warnings)),
	)
	return merged, st.warnings, nil
}

// expand loads one document and splices every import reference in place.
// entry marks the top-level call, whose failures are fatal.
func (r *Resolver) expand(ctx context.Context, st *state, canonical string, depth int, entry bool) ([]models.Child, error) {
	if depth > r.limits.MaxDepth {
		return nil, models.Errorf(models.KindImportLimitExceeded, canonical,
			"import chain deeper than %d documents", r.limits.MaxDepth)
	}
	if st.ancestry[canonical] {
		st.warnings = append(st.warnings, models.Warnf(models.KindCycleDetected, canonical,
			"import cycle back to %s; subtree omitted", canonical))
		r.logger.Warn("import_cycle_detected", zap.String("path", canonical))
		return nil, nil
	}

	st.files++
	if st.files > r.limits.MaxFiles {
		return nil, models.Errorf(models.KindImportLimitExceeded, canonical,
			"resolution touched more than %d documents", r.limits.MaxFiles)
	}

	doc, _, err := r.loader.Load(ctx, canonical)
	if err != nil {
		if entry {
			return nil, err
		}
		st.warnings = append(st.warnings, models.Warnf(kindOf(err), canonical,
			"import of %s failed: %v; subtree omitted", canonical, err))
		r.logger.Warn("nested_import_failed", zap.String("path", canonical), zap.Error(err))
		return nil, nil
	}

	// every literal node in this document is owned by it
	models.TagSource(doc.Children, canonical)

	st.ancestry[canonical] = true
	defer delete(st.ancestry, canonical)

	return r.expandChildren(ctx, st, doc.Children, canonical, depth)
}

// expandChildren replaces import references with the expanded content of
// their targets, left to right, preserving the interleaving with literal
// sibling nodes.
func (r *Resolver) expandChildren(ctx context.Context, st *state, children []models.Child, canonical string, depth int) ([]models.Child, error) {
	out := make([]models.Child, 0, len(children))
	for _, c := range children {
		switch v := c.(type) {
		case *models.Node:
			expanded, err := r.expandChildren(ctx, st, v.Children, canonical, depth)
			if err != nil {
				return nil, err
			}
			v.Children = expanded
			out = append(out, v)
		case *models.ImportReference:
			target, err := store.Canonical(canonical, v.Target)
			if err != nil {
				st.warnings = append(st.warnings, models.Warnf(models.KindMalformedDocument, canonical,
					"import target %q is invalid: %v; subtree omitted", v.Target, err))
				continue
			}
			spliced, err := r.expand(ctx, st, target, depth+1, false)
			if err != nil {
				return nil, err
			}
			models.MarkImported(spliced, v.Target)
			out = append(out, spliced...)
		default:
			return nil, fmt.Errorf("unknown child type %T", c)
		}
	}
	return out, nil
}

// reportDuplicateIDs scans the merged tree for id collisions. The same
// document imported from two places is copied independently, so
// collisions are expected there; they are surfaced, never silently
// resolved.
func (r *Resolver) reportDuplicateIDs(doc *models.Document, st *state) {
	type occurrence struct {
		title  string
		source string
	}
	seen := make(map[string]occurrence)
	models.WalkNodes(doc.Children, func(n *models.Node) bool {
		if n.ID == "" {
			return true
		}
		src := n.Provenance().Source
		if first, ok := seen[n.ID]; ok {
			st.warnings = append(st.warnings, models.Warnf(models.KindDuplicateID, doc.Path,
				"id %q used by %q (%s) and %q (%s)", n.ID, first.title, first.source, n.Title, src))
			return true
		}
		seen[n.ID] = occurrence{title: n.Title, source: src}
		return true
	})
}

// kindOf extracts the classification of a load failure for the warning
// record
func kindOf(err error) models.ErrorKind {
	if models.IsNotFound(err) {
		return models.KindNotFound
	}
	return models.KindMalformedDocument
}
