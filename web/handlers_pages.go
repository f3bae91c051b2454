// ABOUTME: HTML handlers: index, page viewer, help, and page bundle file serving.
// ABOUTME: Page files are served from <pagesDir>/<dir>/ with traversal and directory listings refused.
package web

import (
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/2389-research/pagetester/pages"
	"github.com/go-chi/chi/v5"
)

// handleIndex renders the page catalog.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := PageData{Title: "Pages"}
	catalog, err := pages.Scan(s.pagesDir)
	if err != nil {
		log.Printf("page scan error: %v", err)
		data.Error = "Could not read the pages directory."
	}
	data.Pages = catalog

	if err := s.templates.Render(w, "index.html", data); err != nil {
		log.Printf("error rendering index: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// handlePageViewer renders the viewer shell that frames a page and pushes a
// variable set into it.
func (s *Server) handlePageViewer(w http.ResponseWriter, r *http.Request) {
	data := PageData{
		Title:   "Page Viewer",
		PageURL: r.URL.Query().Get("page"),
		SetID:   r.URL.Query().Get("set"),
	}
	if data.PageURL != "" && !strings.HasPrefix(data.PageURL, "/pages/") {
		http.Error(w, "page must be a /pages/ path", http.StatusBadRequest)
		return
	}
	if err := s.templates.Render(w, "page_viewer.html", data); err != nil {
		log.Printf("error rendering page viewer: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// handleHelp renders the embedded help document.
func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	data := PageData{Title: "Help", Help: s.templates.HelpHTML()}
	if err := s.templates.Render(w, "help.html", data); err != nil {
		log.Printf("error rendering help: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// handlePageRedirect adds the trailing slash so relative asset links resolve.
func (s *Server) handlePageRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pages.URLFor(chi.URLParam(r, "pageDir")), http.StatusMovedPermanently)
}

// handlePageFile serves index.html for /pages/{dir}/ and sibling assets for
// anything below it.
func (s *Server) handlePageFile(w http.ResponseWriter, r *http.Request) {
	dir := chi.URLParam(r, "pageDir")
	if !validPageDir(dir) {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	if name == "" {
		name = pages.EntryFile
	}

	fsys := os.DirFS(filepath.Join(s.pagesDir, dir))
	info, err := fs.Stat(fsys, name)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, fsys, name)
}

// validPageDir rejects names that are not a single plain path segment.
func validPageDir(dir string) bool {
	return dir != "" && dir != "." && dir != ".." &&
		!strings.HasPrefix(dir, ".") && !strings.ContainsAny(dir, "/\\")
}
