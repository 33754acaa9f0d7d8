package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/planweave/planweave/internal/engine"
	"github.com/planweave/planweave/internal/format"
	"github.com/planweave/planweave/internal/models"
)

// DocumentHandler exposes the partition engine over HTTP
type DocumentHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(eng *engine.Engine, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{engine: eng, logger: logger}
}

// RegisterRoutes registers document routes on the given router. The
// router should already carry the /documents prefix. Suffixed routes are
// registered first so the greedy path variable does not swallow them.
func (h *DocumentHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{path:.+}/resolved", h.ResolveDocument).Methods("GET")
	r.HandleFunc("/{path:.+}/partition", h.PartitionDocument).Methods("POST")
	r.HandleFunc("/{path:.+}", h.GetDocument).Methods("GET")
	r.HandleFunc("/{path:.+}", h.SaveDocument).Methods("PUT")
}

// GetDocument returns one raw document without resolving imports
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	docPath := mux.Vars(r)["path"]

	doc, err := h.engine.Load(r.Context(), docPath)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	raw, err := format.Serialize(doc, format.EncodingJSON)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"path":     doc.Path,
		"document": json.RawMessage(raw),
	})
}

// ResolveDocument returns the merged tree for a document graph. Node
// provenance is included so an editor can hand the tree back for saving.
func (h *DocumentHandler) ResolveDocument(w http.ResponseWriter, r *http.Request) {
	docPath := mux.Vars(r)["path"]

	doc, warnings, err := h.engine.Resolve(r.Context(), docPath)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	raw, err := format.SerializeWithProvenance(doc, format.EncodingJSON)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"path":     doc.Path,
		"document": json.RawMessage(raw),
		"warnings": warningsPayload(warnings),
	})
}

// SaveDocument accepts an edited merged tree in the structured encoding,
// partitions it and persists every affected document
func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	docPath := mux.Vars(r)["path"]

	doc, ok := h.readTree(w, r)
	if !ok {
		return
	}

	result, err := h.engine.Save(r.Context(), docPath, doc)
	if err != nil {
		if result != nil && models.IsKind(err, models.KindWriteFailure) {
			// surface the documents persisted before the failure so no
			// partial state is hidden
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":  false,
				"error":    "Write Failure",
				"message":  err.Error(),
				"written":  result.Written,
				"warnings": warningsPayload(result.Warnings),
			})
			return
		}
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"written":  result.Written,
		"warnings": warningsPayload(result.Warnings),
	})
}

// PartitionDocument is the dry-run variant of SaveDocument: it returns
// the serialized per-document output without writing anything
func (h *DocumentHandler) PartitionDocument(w http.ResponseWriter, r *http.Request) {
	docPath := mux.Vars(r)["path"]

	doc, ok := h.readTree(w, r)
	if !ok {
		return
	}

	out, err := h.engine.Partition(r.Context(), docPath, doc)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	documents := make(map[string]string, len(out.Documents))
	for p, data := range out.Documents {
		documents[p] = string(data)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"documents": documents,
		"order":     out.Order,
		"warnings":  warningsPayload(out.Warnings),
	})
}

// readTree decodes a request body holding a tree in the structured
// encoding
func (h *DocumentHandler) readTree(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "failed to read request body")
		return nil, false
	}
	doc, err := format.Parse(body, format.EncodingJSON)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return nil, false
	}
	return doc, true
}

// warningsPayload keeps the warnings field an empty array rather than
// null in responses
func warningsPayload(warnings []models.Warning) []models.Warning {
	if warnings == nil {
		return []models.Warning{}
	}
	return warnings
}
