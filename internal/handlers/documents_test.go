package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/planweave/planweave/internal/engine"
	"github.com/planweave/planweave/internal/resolver"
	"github.com/planweave/planweave/internal/store"
)

const mainXML = `<?xml version="1.0" encoding="UTF-8"?>
<plan>
  <node id="m1" title="Main" priority="medium" status="pending">
    <import src="sub.xml"/>
  </node>
</plan>
`

const subXML = `<?xml version="1.0" encoding="UTF-8"?>
<plan>
  <node id="s1" title="Sub task" priority="low" status="pending"/>
</plan>
`

func newTestRouter(t *testing.T, files map[string]string) (*mux.Router, *store.FSStore) {
	t.Helper()
	st, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}
	for p, content := range files {
		if err := st.Write(context.Background(), p, []byte(content)); err != nil {
			t.Fatalf("seeding %s: %v", p, err)
		}
	}
	eng := engine.New(st, resolver.DefaultLimits(), nil)

	r := mux.NewRouter()
	NewDocumentHandler(eng, nil).RegisterRoutes(r.PathPrefix("/api/v1/documents").Subrouter())
	return r, st
}

type apiResponse struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Written  []string        `json:"written"`
	Warnings json.RawMessage `json:"warnings"`
}

func doRequest(t *testing.T, r *mux.Router, method, url, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, resp
}

func TestGetDocument(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, map[string]string{"main.xml": mainXML, "sub.xml": subXML})

	rec, resp := doRequest(t, r, http.MethodGet, "/api/v1/documents/main.xml", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Path     string          `json:"path"`
		Document json.RawMessage `json:"document"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("data payload: %v", err)
	}
	if data.Path != "main.xml" {
		t.Errorf("path = %q", data.Path)
	}
	// raw read: the import is present, not expanded
	if !strings.Contains(string(data.Document), `"type": "import"`) {
		t.Errorf("raw document should keep its import reference:\n%s", data.Document)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, nil)

	rec, resp := doRequest(t, r, http.MethodGet, "/api/v1/documents/missing.xml", "")
	if rec.Code != http.StatusNotFound || resp.Success {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestResolveDocument(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, map[string]string{"main.xml": mainXML, "sub.xml": subXML})

	rec, resp := doRequest(t, r, http.MethodGet, "/api/v1/documents/main.xml/resolved", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Document json.RawMessage `json:"document"`
		Warnings []any           `json:"warnings"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("data payload: %v", err)
	}
	doc := string(data.Document)
	if strings.Contains(doc, `"type": "import"`) {
		t.Errorf("resolved document still holds an import reference:\n%s", doc)
	}
	if !strings.Contains(doc, `"_provenance"`) {
		t.Errorf("resolved document is missing provenance:\n%s", doc)
	}
	if !strings.Contains(doc, `"Sub task"`) {
		t.Errorf("imported content not merged:\n%s", doc)
	}
	if data.Warnings == nil {
		t.Errorf("warnings should be an empty array, not null")
	}
}

func TestResolveDocument_MalformedIsBadRequest(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, map[string]string{"broken.xml": `<tasks/>`})

	rec, _ := doRequest(t, r, http.MethodGet, "/api/v1/documents/broken.xml/resolved", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSaveDocument_RoundTrip(t *testing.T) {
	t.Parallel()

	r, st := newTestRouter(t, map[string]string{"main.xml": mainXML, "sub.xml": subXML})

	// fetch the resolved tree and hand it straight back
	_, resolved := doRequest(t, r, http.MethodGet, "/api/v1/documents/main.xml/resolved", "")
	var data struct {
		Document json.RawMessage `json:"document"`
	}
	if err := json.Unmarshal(resolved.Data, &data); err != nil {
		t.Fatalf("data payload: %v", err)
	}

	rec, resp := doRequest(t, r, http.MethodPut, "/api/v1/documents/main.xml", string(data.Document))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var saveData struct {
		Written []string `json:"written"`
	}
	if err := json.Unmarshal(resp.Data, &saveData); err != nil {
		t.Fatalf("data payload: %v", err)
	}
	if len(saveData.Written) != 2 || saveData.Written[0] != "main.xml" {
		t.Errorf("written = %v", saveData.Written)
	}

	got, err := st.Read(context.Background(), "main.xml")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != mainXML {
		t.Errorf("no-op save changed main.xml:\n%s", got)
	}
}

func TestSaveDocument_BadBody(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, map[string]string{"main.xml": mainXML})

	rec, resp := doRequest(t, r, http.MethodPut, "/api/v1/documents/main.xml", `{"not": "a tree"}`)
	if rec.Code != http.StatusBadRequest || resp.Success {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPartitionDocument_DryRun(t *testing.T) {
	t.Parallel()

	r, st := newTestRouter(t, map[string]string{"main.xml": mainXML, "sub.xml": subXML})

	body := `{"nodes": [
		{"id": "m1", "title": "Renamed", "priority": "medium", "status": "pending",
		 "_provenance": {"source": "main.xml"}}
	]}`
	rec, resp := doRequest(t, r, http.MethodPost, "/api/v1/documents/main.xml/partition", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Documents map[string]string `json:"documents"`
		Order     []string          `json:"order"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("data payload: %v", err)
	}
	if len(data.Order) != 1 || data.Order[0] != "main.xml" {
		t.Errorf("order = %v", data.Order)
	}
	if !strings.Contains(data.Documents["main.xml"], `title="Renamed"`) {
		t.Errorf("dry-run output wrong:\n%s", data.Documents["main.xml"])
	}

	// storage untouched
	got, _ := st.Read(context.Background(), "main.xml")
	if string(got) != mainXML {
		t.Errorf("dry run wrote to storage")
	}
}
