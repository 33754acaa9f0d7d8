// Package engine is the boundary the surrounding application consumes:
// resolve a document graph into one merged tree, and partition an edited
// tree back into per-document content.
package engine

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/planweave/planweave/internal/format"
	"github.com/planweave/planweave/internal/loader"
	"github.com/planweave/planweave/internal/models"
	"github.com/planweave/planweave/internal/partition"
	"github.com/planweave/planweave/internal/resolver"
	"github.com/planweave/planweave/internal/store"
)

const tracerName = "planweave/engine"

// Engine wires the document loader, import resolver and partition writer
// over one store
type Engine struct {
	store    store.Store
	loader   *loader.Loader
	resolver *resolver.Resolver
	writer   *partition.Writer
	logger   *zap.Logger
	tracer   trace.Tracer
}

// New creates an engine over the given store
func New(st store.Store, limits resolver.Limits, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := loader.New(st, logger)
	return &Engine{
		store:    st,
		loader:   l,
		resolver: resolver.New(l, limits, logger),
		writer:   partition.New(logger),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// Load reads and parses a single document without resolving its imports
func (e *Engine) Load(ctx context.Context, docPath string) (*models.Document, error) {
	doc, _, err := e.loader.Load(ctx, docPath)
	return doc, err
}

// Resolve expands the document graph rooted at docPath into one merged
// tree with per-node provenance
func (e *Engine) Resolve(ctx context.Context, docPath string) (*models.Document, []models.Warning, error) {
	ctx, span := e.tracer.Start(ctx, "engine.resolve",
		trace.WithAttributes(attribute.String("document.path", docPath)))
	defer span.End()

	doc, warnings, err := e.resolver.Resolve(ctx, docPath)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	span.SetAttributes(attribute.Int("document.warnings", len(warnings)))
	return doc, warnings, nil
}

// PartitionOutput carries the serialized output of a partition walk
type PartitionOutput struct {
	// Documents maps canonical path to serialized content
	Documents map[string][]byte
	// Order lists paths in deterministic write order, main document first
	Order    []string
	Warnings []models.Warning
}

// Partition splits an edited merged tree back into serialized per-document
// content without writing anything
func (e *Engine) Partition(ctx context.Context, mainPath string, doc *models.Document) (*PartitionOutput, error) {
	ctx, span := e.tracer.Start(ctx, "engine.partition",
		trace.WithAttributes(attribute.String("document.path", mainPath)))
	defer span.End()

	res, err := e.writer.Partition(ctx, mainPath, doc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := &PartitionOutput{
		Documents: make(map[string][]byte, len(res.Documents)),
		Order:     res.Order,
		Warnings:  res.Warnings,
	}
	for docPath, d := range res.Documents {
		enc, err := format.EncodingForPath(docPath)
		if err != nil {
			return nil, err
		}
		data, err := format.Serialize(d, enc)
		if err != nil {
			return nil, err
		}
		out.Documents[docPath] = data
	}
	span.SetAttributes(attribute.Int("document.outputs", len(out.Documents)))
	return out, nil
}

// SaveResult reports what a Save persisted. On a write failure the error
// is returned alongside the documents already written, so no partial
// state is hidden.
type SaveResult struct {
	Written  []string
	Warnings []models.Warning
}

// Save partitions the edited tree and writes every output document
// through the store in deterministic order. Nodes added during the edit
// session receive ids first. A failed write aborts the remaining writes.
func (e *Engine) Save(ctx context.Context, mainPath string, doc *models.Document) (*SaveResult, error) {
	ctx, span := e.tracer.Start(ctx, "engine.save",
		trace.WithAttributes(attribute.String("document.path", mainPath)))
	defer span.End()

	if assigned := e.AssignIDs(doc); assigned > 0 {
		e.logger.Info("assigned_node_ids",
			zap.String("path", mainPath),
			zap.Int("count", assigned),
		)
	}

	out, err := e.Partition(ctx, mainPath, doc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &SaveResult{Warnings: out.Warnings}
	for _, docPath := range out.Order {
		if err := e.store.Write(ctx, docPath, out.Documents[docPath]); err != nil {
			span.RecordError(err)
			e.logger.Error("document_write_failed",
				zap.String("path", docPath),
				zap.Strings("written", result.Written),
				zap.Error(err),
			)
			return result, err
		}
		result.Written = append(result.Written, docPath)
	}

	e.logger.Info("saved_documents",
		zap.String("main", mainPath),
		zap.Strings("written", result.Written),
	)
	return result, nil
}

// AssignIDs walks the tree and gives every node without an id a fresh
// UUID, returning how many were assigned
func (e *Engine) AssignIDs(doc *models.Document) int {
	assigned := 0
	models.WalkNodes(doc.Children, func(n *models.Node) bool {
		if n.ID == "" {
			n.ID = uuid.NewString()
			assigned++
		}
		return true
	})
	return assigned
}
