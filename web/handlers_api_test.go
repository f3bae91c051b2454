// ABOUTME: Tests for the JSON API: page catalog and variable set CRUD over HTTP.
// ABOUTME: Uses a real file store plus a failing fake to cover every status code mapping.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/2389-research/pagetester/varset"
	"gopkg.in/yaml.v3"
)

type setResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Variables map[string]any `json:"variables"`
}

func decodeBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", body, err)
	}
	return v
}

func TestAPIPageList(t *testing.T) {
	srv, pagesDir := newTestServer(t)
	writeTestPage(t, pagesDir, "zeta", map[string]string{"index.html": "z"})
	writeTestPage(t, pagesDir, "alpha-beta", map[string]string{"index.html": "a"})

	rec := doRequest(t, srv, http.MethodGet, "/api/pages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decodeBody[[]map[string]string](t, rec.Body.String())
	if len(got) != 2 {
		t.Fatalf("expected 2 pages, got %v", got)
	}
	if got[0]["displayName"] != "Alpha Beta" || got[0]["directoryName"] != "alpha-beta" || got[0]["url"] != "/pages/alpha-beta/" {
		t.Errorf("unexpected first page: %v", got[0])
	}
	if got[1]["displayName"] != "Zeta" {
		t.Errorf("unexpected second page: %v", got[1])
	}
}

func TestAPIPageListMissingRoot(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/pages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty JSON list, got %q", rec.Body.String())
	}
}

func TestAPIVariableSetLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/variable-sets", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "{}" {
		t.Fatalf("expected empty mapping, got %d %q", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/variable-sets", `{"name":"Staging","variables":{"user":"alice","retries":3}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[setResponse](t, rec.Body.String())
	if created.ID == "" || created.Name != "Staging" || created.Variables["user"] != "alice" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/variable-sets/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/variable-sets/"+created.ID, `{"name":"Prod","variables":{"user":"bob"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[setResponse](t, rec.Body.String())
	if updated.ID != created.ID || updated.Name != "Prod" {
		t.Errorf("unexpected update response: %+v", updated)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/variable-sets", "")
	all := decodeBody[map[string]setResponse](t, rec.Body.String())
	if len(all) != 1 || all[created.ID].Name != "Prod" || all[created.ID].Variables["user"] != "bob" {
		t.Errorf("unexpected list after update: %+v", all)
	}
	if _, hasRetries := all[created.ID].Variables["retries"]; hasRetries {
		t.Error("update should fully replace variables")
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/variable-sets/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	msg := decodeBody[map[string]string](t, rec.Body.String())
	if msg["message"] == "" {
		t.Errorf("expected confirmation message, got %v", msg)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/variable-sets/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/variable-sets/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on get after delete, got %d", rec.Code)
	}
}

func TestAPIUpdateUpserts(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/variable-sets/hand-picked", `{"name":"New","variables":{}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/variable-sets/hand-picked", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected upserted record, got %d", rec.Code)
	}
}

func TestAPIVariablesKeepKeyOrder(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/variable-sets", `{"name":"o","variables":{"z":1,"a":{"y":2,"b":3}}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"variables":{"z":1,"a":{"y":2,"b":3}}`) {
		t.Errorf("expected key order preserved, got %s", rec.Body.String())
	}
}

func TestAPIValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"create missing name", http.MethodPost, "/api/variable-sets", `{"variables":{}}`},
		{"create missing variables", http.MethodPost, "/api/variable-sets", `{"name":"x"}`},
		{"create null variables", http.MethodPost, "/api/variable-sets", `{"name":"x","variables":null}`},
		{"create array variables", http.MethodPost, "/api/variable-sets", `{"name":"x","variables":[1]}`},
		{"create non-string name", http.MethodPost, "/api/variable-sets", `{"name":5,"variables":{}}`},
		{"create bad json", http.MethodPost, "/api/variable-sets", `{"name":`},
		{"create empty body", http.MethodPost, "/api/variable-sets", ""},
		{"update missing fields", http.MethodPut, "/api/variable-sets/abc", `{}`},
		{"update bad id", http.MethodPut, "/api/variable-sets/.hidden", `{"name":"x","variables":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, tt.method, tt.target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			body := decodeBody[map[string]string](t, rec.Body.String())
			if body["error"] == "" {
				t.Errorf("expected error message, got %v", body)
			}
		})
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/variable-sets", "")
	if strings.TrimSpace(rec.Body.String()) != "{}" {
		t.Errorf("rejected requests must not write records, got %s", rec.Body.String())
	}
}

func TestAPIRequestTooLarge(t *testing.T) {
	srv, _ := newTestServer(t)
	big := `{"name":"big","variables":{"blob":"` + strings.Repeat("x", maxRequestBody) + `"}}`

	rec := doRequest(t, srv, http.MethodPost, "/api/variable-sets", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestAPIExport(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPut, "/api/variable-sets/demo", `{"name":"Demo","variables":{"user":"alice","n":2}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/variable-sets/demo/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="demo.json"` {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	jsonDoc := decodeBody[setResponse](t, rec.Body.String())
	if jsonDoc.ID != "demo" || jsonDoc.Name != "Demo" {
		t.Errorf("unexpected JSON export: %+v", jsonDoc)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/variable-sets/demo/export?format=yaml", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var yamlDoc struct {
		ID        string         `yaml:"id"`
		Name      string         `yaml:"name"`
		Variables map[string]any `yaml:"variables"`
	}
	if err := yaml.Unmarshal(rec.Body.Bytes(), &yamlDoc); err != nil {
		t.Fatalf("invalid YAML export: %v", err)
	}
	if yamlDoc.ID != "demo" || yamlDoc.Variables["user"] != "alice" || yamlDoc.Variables["n"] != 2 {
		t.Errorf("unexpected YAML export: %+v", yamlDoc)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/variable-sets/demo/export?format=xml", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/variable-sets/missing/export", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown set, got %d", rec.Code)
	}
}

// failingStore fails every operation with a plain I/O-style error.
type failingStore struct{}

var errDisk = errors.New("disk on fire")

func (failingStore) List() (map[string]varset.Entry, error) { return nil, errDisk }
func (failingStore) Get(string) (varset.VariableSet, error) { return varset.VariableSet{}, errDisk }
func (failingStore) Create(string, *varset.Object) (varset.VariableSet, error) {
	return varset.VariableSet{}, &varset.WriteError{ID: "x", Err: errDisk}
}
func (failingStore) Update(id, _ string, _ *varset.Object) (varset.VariableSet, error) {
	return varset.VariableSet{}, &varset.WriteError{ID: id, Err: errDisk}
}
func (failingStore) Delete(string) error { return errDisk }

func TestAPIStoreFailuresMapTo500(t *testing.T) {
	srv, err := NewServer(Config{PagesDir: t.TempDir()}, WithStore(failingStore{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		method string
		target string
		body   string
		msg    string
	}{
		{http.MethodGet, "/api/variable-sets", "", "Failed to load variable sets"},
		{http.MethodPost, "/api/variable-sets", `{"name":"x","variables":{}}`, "Failed to save variable set"},
		{http.MethodPut, "/api/variable-sets/x", `{"name":"x","variables":{}}`, "Failed to update variable set"},
		{http.MethodDelete, "/api/variable-sets/x", "", "Failed to delete variable set"},
		{http.MethodGet, "/api/variable-sets/x", "", "Failed to load variable set"},
	}
	for _, tt := range tests {
		rec := doRequest(t, srv, tt.method, tt.target, tt.body)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: expected 500, got %d", tt.method, tt.target, rec.Code)
			continue
		}
		body := decodeBody[map[string]string](t, rec.Body.String())
		if body["error"] != tt.msg {
			t.Errorf("%s %s: expected %q, got %q", tt.method, tt.target, tt.msg, body["error"])
		}
		if strings.Contains(rec.Body.String(), "disk on fire") {
			t.Errorf("%s %s: internal error leaked to client", tt.method, tt.target)
		}
	}
}
