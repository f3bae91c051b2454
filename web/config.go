// ABOUTME: Server configuration loaded from PAGETESTER_* environment variables.
// ABOUTME: Refuses non-loopback binds unless remote access is explicitly allowed.
package web

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/2389-research/pagetester/varset"
)

// ErrNonLoopbackBind is returned when the bind address would expose the
// server beyond this machine without PAGETESTER_ALLOW_REMOTE.
var ErrNonLoopbackBind = errors.New(
	"PAGETESTER_BIND is a non-loopback address but PAGETESTER_ALLOW_REMOTE is not true",
)

// Config holds everything the server needs at startup.
type Config struct {
	Bind            string // listen address (PAGETESTER_BIND, default: 127.0.0.1:5000)
	AllowRemote     bool   // allow non-loopback binds (PAGETESTER_ALLOW_REMOTE)
	PagesDir        string // page bundle root (PAGETESTER_PAGES_DIR, default: ./pages)
	VariableSetsDir string // variable set records (PAGETESTER_VARIABLE_SETS_DIR)
	IDScheme        string // ulid, uuid or timestamp (PAGETESTER_ID_SCHEME, default: ulid)
}

// ConfigFromEnv loads configuration from PAGETESTER_* environment variables
// and validates it.
func ConfigFromEnv() (*Config, error) {
	cfg, err := EnvConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnvConfig reads PAGETESTER_* variables with defaults but does not
// validate, so callers can layer flag overrides on top first.
func EnvConfig() (*Config, error) {
	varSetsDir := os.Getenv("PAGETESTER_VARIABLE_SETS_DIR")
	if varSetsDir == "" {
		dataDir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		varSetsDir = filepath.Join(dataDir, "variable_sets")
	}

	allowRemote := false
	if v := os.Getenv("PAGETESTER_ALLOW_REMOTE"); v == "true" || v == "1" || v == "yes" {
		allowRemote = true
	}

	return &Config{
		Bind:            envOrDefault("PAGETESTER_BIND", "127.0.0.1:5000"),
		AllowRemote:     allowRemote,
		PagesDir:        envOrDefault("PAGETESTER_PAGES_DIR", "pages"),
		VariableSetsDir: varSetsDir,
		IDScheme:        envOrDefault("PAGETESTER_ID_SCHEME", "ulid"),
	}, nil
}

// Validate checks the bind address against the remote-access setting and
// that the id scheme is known.
func (c *Config) Validate() error {
	if c.PagesDir == "" {
		return errors.New("pages directory must not be empty")
	}
	if c.VariableSetsDir == "" {
		return errors.New("variable sets directory must not be empty")
	}
	if _, err := varset.GeneratorForScheme(c.IDScheme); err != nil {
		return err
	}

	if c.AllowRemote {
		return nil
	}
	host, _, err := net.SplitHostPort(c.Bind)
	if err != nil {
		return fmt.Errorf("invalid bind address %q: %w", c.Bind, err)
	}
	ip := net.ParseIP(host)
	switch {
	case host == "":
		// ":5000" listens on every interface
		return fmt.Errorf("%w: bind=%s", ErrNonLoopbackBind, c.Bind)
	case ip != nil && ip.IsLoopback():
	case ip != nil:
		return fmt.Errorf("%w: bind=%s", ErrNonLoopbackBind, c.Bind)
	case host == "localhost":
	default:
		return fmt.Errorf("%w: bind=%s", ErrNonLoopbackBind, c.Bind)
	}
	return nil
}

// DefaultDataDir returns $XDG_DATA_HOME/pagetester, falling back to
// ~/.local/share/pagetester.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pagetester"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "pagetester"), nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
