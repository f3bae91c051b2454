// ABOUTME: TemplateEngine loads embedded HTML templates and renders them with Go's html/template.
// ABOUTME: Also converts the embedded help.md to HTML once at startup via goldmark.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/2389-research/pagetester/pages"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed help.md
var helpMarkdown []byte

// PageData holds all data passed to templates for rendering.
type PageData struct {
	Title   string
	Pages   []pages.Page
	PageURL string // page-viewer: page being framed
	SetID   string // page-viewer: preselected variable set
	Help    template.HTML
	Error   string
}

// TemplateEngine loads and renders embedded HTML templates.
type TemplateEngine struct {
	templates map[string]*template.Template
	helpHTML  template.HTML
}

// NewTemplateEngine parses all embedded templates and returns a ready-to-use engine.
// Each page template is parsed together with the layout so that the layout wraps every page.
func NewTemplateEngine() (*TemplateEngine, error) {
	pageNames := []string{
		"index.html",
		"page_viewer.html",
		"help.html",
	}

	engine := &TemplateEngine{
		templates: make(map[string]*template.Template),
	}

	for _, page := range pageNames {
		t, err := template.New("layout.html").ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/"+page,
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		engine.templates[page] = t
	}

	help, err := markdownToHTML(helpMarkdown)
	if err != nil {
		return nil, fmt.Errorf("rendering help: %w", err)
	}
	engine.helpHTML = help

	return engine, nil
}

// markdownToHTML converts markdown to HTML using goldmark. Raw HTML in the
// input is not passed through.
func markdownToHTML(input []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.New(goldmark.WithExtensions(extension.Table)).Convert(input, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// HelpHTML returns the rendered help document.
func (e *TemplateEngine) HelpHTML() template.HTML {
	return e.helpHTML
}

// Render executes the named template with the given data and writes the result
// to w. It sets the Content-Type header to text/html.
func (e *TemplateEngine) Render(w http.ResponseWriter, name string, data any) error {
	var buf bytes.Buffer
	if err := e.RenderTo(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// RenderTo executes the named template with the given data and writes the
// result to an arbitrary io.Writer (useful for testing without HTTP).
func (e *TemplateEngine) RenderTo(w io.Writer, name string, data any) error {
	t, ok := e.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
