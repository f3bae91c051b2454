// ABOUTME: PageRegistry scans a page root for demo page bundles and returns a sorted catalog.
// ABOUTME: Stateless and uncached; every Scan re-reads the directory so new pages appear immediately.
package pages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EntryFile is the file a directory must contain to count as a page.
const EntryFile = "index.html"

// Page describes one servable page bundle.
type Page struct {
	DisplayName   string `json:"displayName"`
	DirectoryName string `json:"directoryName"`
	URL           string `json:"url"`
}

// Scan enumerates the immediate subdirectories of root that directly contain
// index.html, sorted by display name (ties broken by directory name). A
// missing root yields an empty catalog, not an error.
func Scan(root string) ([]Page, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Page{}, nil
		}
		return nil, fmt.Errorf("reading page root: %w", err)
	}

	result := make([]Page, 0, len(entries))
	for _, entry := range entries {
		if !isDir(root, entry) {
			continue
		}
		name := entry.Name()
		info, err := os.Stat(filepath.Join(root, name, EntryFile))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		result = append(result, Page{
			DisplayName:   DisplayName(name),
			DirectoryName: name,
			URL:           URLFor(name),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DisplayName != result[j].DisplayName {
			return result[i].DisplayName < result[j].DisplayName
		}
		return result[i].DirectoryName < result[j].DirectoryName
	})
	return result, nil
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(root string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(root, entry.Name()))
	return err == nil && info.IsDir()
}

// DisplayName turns a directory name into a title: hyphens become spaces and
// each word is capitalized ("alpha-beta" -> "Alpha Beta").
func DisplayName(dir string) string {
	words := strings.Split(strings.ReplaceAll(dir, "-", " "), " ")
	caser := cases.Title(language.Und)
	for i, w := range words {
		if w != "" {
			words[i] = caser.String(w)
		}
	}
	return strings.Join(words, " ")
}

// URLFor returns the serving path of a page directory.
func URLFor(dir string) string {
	return "/pages/" + dir + "/"
}
