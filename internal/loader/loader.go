// Package loader reads one document from storage and hands it through the
// format bridge. It performs no caching; collaborators that need caching
// layer it on top.
package loader

import (
	"bytes"
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/planweave/planweave/internal/format"
	"github.com/planweave/planweave/internal/models"
	"github.com/planweave/planweave/internal/store"
)

// Loader loads raw, unresolved documents
type Loader struct {
	store  store.Store
	logger *zap.Logger
}

// New creates a loader backed by the given store
func New(st store.Store, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{store: st, logger: logger}
}

// Load reads and parses one document, returning the raw tree and its
// import references in document order. A document with no root content is
// an empty result, not an error.
func (l *Loader) Load(ctx context.Context, docPath string) (*models.Document, []*models.ImportReference, error) {
	enc, err := format.EncodingForPath(docPath)
	if err != nil {
		return nil, nil, err
	}

	data, err := l.store.Read(ctx, docPath)
	if err != nil {
		return nil, nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		l.logger.Debug("loaded_empty_document", zap.String("path", docPath))
		return &models.Document{Path: docPath}, nil, nil
	}

	doc, err := format.Parse(data, enc)
	if err != nil {
		// attach the path the bridge does not know about
		var de *models.DocError
		if errors.As(err, &de) && de.Path == "" {
			de.Path = docPath
		}
		return nil, nil, err
	}
	doc.Path = docPath

	imports := doc.Imports()
	l.logger.Debug("loaded_document",
		zap.String("path", docPath),
		zap.Int("top_level_children", len(doc.Children)),
		zap.Int("imports", len(imports)),
	)
	return doc, imports, nil
}
