// ABOUTME: Help display for the pagetester CLI with flags, environment, and examples.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// helpStyles renders headings and env status for one output writer.
// Non-terminal writers get plain text.
type helpStyles struct {
	heading lipgloss.Style
	set     lipgloss.Style
	unset   lipgloss.Style
}

func newHelpStyles(w io.Writer) helpStyles {
	r := lipgloss.NewRenderer(w)
	return helpStyles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		set:     r.NewStyle().Foreground(lipgloss.Color("42")),
		unset:   r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// printHelp writes usage, flags, environment status and examples to w.
func printHelp(w io.Writer, ver string) {
	st := newHelpStyles(w)
	fmt.Fprintf(w, "pagetester %s: browse demo pages and apply variable sets\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.heading.Render("Usage:"))
	fmt.Fprintln(w, "  pagetester [flags]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.heading.Render("Flags:"))
	fmt.Fprintln(w, "  -bind <addr>            Listen address (default: 127.0.0.1:5000)")
	fmt.Fprintln(w, "  -pages <dir>            Page bundle directory (default: ./pages)")
	fmt.Fprintln(w, "  -variable-sets <dir>    Variable set directory")
	fmt.Fprintln(w, "  -id-scheme <scheme>     ulid, uuid or timestamp (default: ulid)")
	fmt.Fprintln(w, "  -allow-remote           Allow non-loopback bind addresses")
	fmt.Fprintln(w, "  -version                Print version and exit")
	fmt.Fprintln(w, "  -help                   Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.heading.Render("Environment:"))
	for _, key := range []string{
		"PAGETESTER_BIND",
		"PAGETESTER_PAGES_DIR",
		"PAGETESTER_VARIABLE_SETS_DIR",
		"PAGETESTER_ID_SCHEME",
		"PAGETESTER_ALLOW_REMOTE",
	} {
		status := envStatus(key)
		style := st.unset
		if status == "[set]" {
			style = st.set
		}
		fmt.Fprintf(w, "  %-30s %s\n", key, style.Render(status))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.heading.Render("Examples:"))
	fmt.Fprintln(w, "  pagetester -pages ./pages")
	fmt.Fprintln(w, "  pagetester -bind 127.0.0.1:8080 -id-scheme uuid")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
