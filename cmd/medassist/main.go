// medassist - evidence-grounded medical research assistant.
// Entry point for the HTTP API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akhawaja/medassist/internal/infra/config"
	"github.com/akhawaja/medassist/internal/infra/sqlite"
	"github.com/akhawaja/medassist/internal/server"
	"github.com/akhawaja/medassist/internal/version"
)

const shutdownGrace = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("medassist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}
	if *showHelp {
		printHelp(out)
		return 0
	}

	if err := serve(); err != nil {
		fmt.Fprintf(errOut, "medassist: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

// serve loads configuration, prepares the database, and runs the HTTP
// server until interrupted.
func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close() //nolint:errcheck
		return fmt.Errorf("run migrations: %w", err)
	}

	srv, err := server.NewServer(db, cfg)
	if err != nil {
		db.Close() //nolint:errcheck
		return fmt.Errorf("init server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printHelp(out io.Writer) {
	helpText := `medassist - evidence-grounded medical research assistant

Usage:
  medassist [options]

Options:
  --version    Show version information
  --help       Show this help message

Running without options starts the HTTP API server. Configuration is
read from environment variables (GROQ_API_KEY, LLM_PROVIDER,
MEDASSIST_ADDR, MEDASSIST_DB, VECTOR_INDEX_DIR, ...) and an optional
YAML file pointed at by MEDASSIST_CONFIG.

Examples:
  medassist --version
  GROQ_API_KEY=... medassist`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
