// ABOUTME: Page tester HTTP server: page catalog, page bundle serving, and the variable set API.
// ABOUTME: One chi router over an explicit server context holding the page root and the record store.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/2389-research/pagetester/varset"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBody caps JSON bodies accepted by the API.
const maxRequestBody = 1 << 20

// VariableSetStore is the persistence the API needs. *varset.Store satisfies it.
type VariableSetStore interface {
	List() (map[string]varset.Entry, error)
	Get(id string) (varset.VariableSet, error)
	Create(name string, variables *varset.Object) (varset.VariableSet, error)
	Update(id, name string, variables *varset.Object) (varset.VariableSet, error)
	Delete(id string) error
}

// Server is the page tester HTTP server.
type Server struct {
	addr      string
	pagesDir  string
	store     VariableSetStore
	templates *TemplateEngine
	router    chi.Router
}

// ServerOption configures optional Server behavior.
type ServerOption func(*Server)

// WithStore replaces the file-backed store built from the config.
func WithStore(store VariableSetStore) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// NewServer builds the server context from cfg: it opens the variable set
// store, parses templates, and wires routes.
func NewServer(cfg Config, opts ...ServerOption) (*Server, error) {
	if cfg.Bind == "" {
		cfg.Bind = "127.0.0.1:5000"
	}
	if cfg.PagesDir == "" {
		return nil, errors.New("PagesDir must not be empty")
	}

	tmpl, err := NewTemplateEngine()
	if err != nil {
		return nil, fmt.Errorf("initializing templates: %w", err)
	}

	s := &Server{
		addr:      cfg.Bind,
		pagesDir:  cfg.PagesDir,
		templates: tmpl,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		gen, err := varset.GeneratorForScheme(cfg.IDScheme)
		if err != nil {
			return nil, err
		}
		store, err := varset.NewStore(cfg.VariableSetsDir, varset.WithIDGenerator(gen))
		if err != nil {
			return nil, fmt.Errorf("opening variable set store: %w", err)
		}
		s.store = store
	}

	s.router = s.buildRouter()
	return s, nil
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("web listening addr=%s pages=%s", s.addr, s.pagesDir)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(webRequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/page-viewer", s.handlePageViewer)
	r.Get("/help", s.handleHelp)
	r.Get("/health", s.handleHealth)

	staticFS, err := fs.Sub(StaticFS, "static")
	if err != nil {
		log.Printf("WARNING: failed to create static sub-FS: %v", err)
	} else {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Get("/pages/{pageDir}", s.handlePageRedirect)
	r.Get("/pages/{pageDir}/*", s.handlePageFile)

	r.Route("/api", func(r chi.Router) {
		r.Get("/pages", s.handlePageList)

		r.Route("/variable-sets", func(r chi.Router) {
			r.Get("/", s.handleVariableSetList)
			r.Post("/", s.handleVariableSetCreate)
			r.Get("/{setID}", s.handleVariableSetGet)
			r.Put("/{setID}", s.handleVariableSetUpdate)
			r.Delete("/{setID}", s.handleVariableSetDelete)
			r.Get("/{setID}/export", s.handleVariableSetExport)
		})
	})

	return r
}
