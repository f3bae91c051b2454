// ABOUTME: Tests for the embedded template engine and goldmark help rendering.
// ABOUTME: Verifies every page template parses, renders inside the layout, and escapes data.
package web

import (
	"bytes"
	"strings"
	"testing"

	"github.com/2389-research/pagetester/pages"
)

func TestTemplateEngineRendersAllPages(t *testing.T) {
	engine, err := NewTemplateEngine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"index.html", "page_viewer.html", "help.html"} {
		var buf bytes.Buffer
		if err := engine.RenderTo(&buf, name, PageData{Title: "T"}); err != nil {
			t.Errorf("%s: render failed: %v", name, err)
			continue
		}
		if !strings.Contains(buf.String(), "<title>T · Page Tester</title>") {
			t.Errorf("%s: expected layout wrapper", name)
		}
	}
}

func TestTemplateEngineUnknownTemplate(t *testing.T) {
	engine, err := NewTemplateEngine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	if err := engine.RenderTo(&buf, "missing.html", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestTemplateEngineEscapesPageNames(t *testing.T) {
	engine, err := NewTemplateEngine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := PageData{
		Title: "Pages",
		Pages: []pages.Page{{DisplayName: "<script>x</script>", DirectoryName: "x", URL: "/pages/x/"}},
	}
	var buf bytes.Buffer
	if err := engine.RenderTo(&buf, "index.html", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "<script>x</script>") {
		t.Error("expected display name to be escaped")
	}
}

func TestMarkdownToHTML(t *testing.T) {
	html, err := markdownToHTML([]byte("# Title\n\n*em*"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(html), "<h1>Title</h1>") || !strings.Contains(string(html), "<em>em</em>") {
		t.Errorf("unexpected html: %s", html)
	}
}
