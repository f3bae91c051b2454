// ABOUTME: CLI entrypoint for the page tester web server.
// ABOUTME: Layers flags over PAGETESTER_* env config, then serves until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/2389-research/pagetester/web"
)

var version = "dev"

// cliFlags holds command-line overrides. Empty strings mean "keep the env value".
type cliFlags struct {
	bind        string
	pagesDir    string
	varSetsDir  string
	idScheme    string
	allowRemote bool
	showVersion bool
}

func main() {
	loadDotEnvAuto()

	flags, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if flags.showVersion {
		fmt.Printf("pagetester %s\n", version)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, flags))
}

// parseFlags parses command-line flags.
func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var f cliFlags

	fs := flag.NewFlagSet("pagetester", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.bind, "bind", "", "Listen address (default: $PAGETESTER_BIND or 127.0.0.1:5000)")
	fs.StringVar(&f.pagesDir, "pages", "", "Page bundle directory (default: $PAGETESTER_PAGES_DIR or ./pages)")
	fs.StringVar(&f.varSetsDir, "variable-sets", "", "Variable set directory (default: $XDG_DATA_HOME/pagetester/variable_sets)")
	fs.StringVar(&f.idScheme, "id-scheme", "", "Variable set id scheme: ulid, uuid, timestamp")
	fs.BoolVar(&f.allowRemote, "allow-remote", false, "Allow binding to non-loopback addresses")
	fs.BoolVar(&f.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(stderr, version)
	}

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "error: unexpected argument %q\n", fs.Arg(0))
		return cliFlags{}, errors.New("unexpected positional arguments")
	}
	return f, nil
}

// resolveConfig applies flag overrides on top of the environment config.
func resolveConfig(f cliFlags) (*web.Config, error) {
	cfg, err := web.EnvConfig()
	if err != nil {
		return nil, err
	}
	if f.bind != "" {
		cfg.Bind = f.bind
	}
	if f.pagesDir != "" {
		cfg.PagesDir = f.pagesDir
	}
	if f.varSetsDir != "" {
		cfg.VariableSetsDir = f.varSetsDir
	}
	if f.idScheme != "" {
		cfg.IDScheme = f.idScheme
	}
	if f.allowRemote {
		cfg.AllowRemote = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run starts the server and blocks until ctx is cancelled.
// Returns an exit code: 0 for success, 1 for failure.
func run(ctx context.Context, f cliFlags) int {
	cfg, err := resolveConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	srv, err := web.NewServer(*cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	log.Printf("pagetester %s pages=%s variable_sets=%s id_scheme=%s",
		version, cfg.PagesDir, cfg.VariableSetsDir, cfg.IDScheme)
	fmt.Fprintf(os.Stderr, "Page tester running at http://%s\n", cfg.Bind)

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	log.Printf("pagetester stopped")
	return 0
}
