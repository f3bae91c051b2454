// ABOUTME: JSON API handlers for the page catalog and variable set CRUD.
// ABOUTME: Maps store outcomes to status codes: 400 validation, 404 missing, 500 I/O.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/2389-research/pagetester/pages"
	"github.com/2389-research/pagetester/varset"
	"github.com/go-chi/chi/v5"
)

// variableSetRequest is the body accepted by create and update. Pointer
// fields distinguish an absent field from a zero value.
type variableSetRequest struct {
	Name      *string        `json:"name"`
	Variables *varset.Object `json:"variables"`
}

const missingFieldsMessage = "Missing required fields: name and variables"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web response encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeVariableSetRequest reads and validates a create/update body. On
// failure it has already written the error response.
func decodeVariableSetRequest(w http.ResponseWriter, r *http.Request) (string, *varset.Object, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req variableSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return "", nil, false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return "", nil, false
	}
	if req.Name == nil || req.Variables == nil {
		writeError(w, http.StatusBadRequest, missingFieldsMessage)
		return "", nil, false
	}
	return *req.Name, req.Variables, true
}

// storeErrorStatus classifies a store error into an HTTP status.
func storeErrorStatus(err error) int {
	var verr *varset.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, varset.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, varset.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePageList returns the current page catalog.
func (s *Server) handlePageList(w http.ResponseWriter, r *http.Request) {
	catalog, err := pages.Scan(s.pagesDir)
	if err != nil {
		log.Printf("page scan error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to scan pages")
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// handleVariableSetList returns every readable variable set keyed by id.
func (s *Server) handleVariableSetList(w http.ResponseWriter, r *http.Request) {
	sets, err := s.store.List()
	if err != nil {
		log.Printf("variable set list error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load variable sets")
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

// handleVariableSetCreate stores a new set under a generated id.
func (s *Server) handleVariableSetCreate(w http.ResponseWriter, r *http.Request) {
	name, vars, ok := decodeVariableSetRequest(w, r)
	if !ok {
		return
	}

	set, err := s.store.Create(name, vars)
	if err != nil {
		log.Printf("variable set create error: %v", err)
		status := storeErrorStatus(err)
		if status == http.StatusInternalServerError {
			writeError(w, status, "Failed to save variable set")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

// handleVariableSetGet returns one set.
func (s *Server) handleVariableSetGet(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.Get(chi.URLParam(r, "setID"))
	if err != nil {
		status := storeErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("variable set get error: %v", err)
			writeError(w, status, "Failed to load variable set")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// handleVariableSetUpdate replaces the set at the path id, creating it if absent.
func (s *Server) handleVariableSetUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "setID")
	name, vars, ok := decodeVariableSetRequest(w, r)
	if !ok {
		return
	}

	set, err := s.store.Update(id, name, vars)
	if err != nil {
		log.Printf("variable set update error id=%s: %v", id, err)
		status := storeErrorStatus(err)
		if status == http.StatusInternalServerError {
			writeError(w, status, "Failed to update variable set")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// handleVariableSetDelete removes the set at the path id.
func (s *Server) handleVariableSetDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "setID")
	if err := s.store.Delete(id); err != nil {
		status := storeErrorStatus(err)
		switch status {
		case http.StatusNotFound:
			writeError(w, status, "Variable set not found")
		case http.StatusInternalServerError:
			log.Printf("variable set delete error id=%s: %v", id, err)
			writeError(w, status, "Failed to delete variable set")
		default:
			writeError(w, status, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Variable set deleted successfully"})
}

// handleVariableSetExport downloads one set as JSON (default) or YAML.
func (s *Server) handleVariableSetExport(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.Get(chi.URLParam(r, "setID"))
	if err != nil {
		status := storeErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("variable set export error: %v", err)
			writeError(w, status, "Failed to load variable set")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	var (
		body        []byte
		contentType string
		ext         string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		body, err = json.MarshalIndent(set, "", "  ")
		contentType, ext = "application/json", "json"
	case "yaml", "yml":
		body, err = varset.ExportYAML(set)
		contentType, ext = "application/yaml", "yaml"
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
		return
	}
	if err != nil {
		log.Printf("variable set export error id=%s: %v", set.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to export variable set")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", set.ID+"."+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
