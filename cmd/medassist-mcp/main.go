// medassist-mcp - Model Context Protocol server exposing the research
// tools (PubMed, ClinicalTrials.gov, RxNorm, CDC guidance, notes) over
// stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akhawaja/medassist/internal/infra/config"
	"github.com/akhawaja/medassist/internal/infra/sqlite"
	"github.com/akhawaja/medassist/internal/mcpserver"
	"github.com/akhawaja/medassist/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("medassist-mcp", flag.ContinueOnError)
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
		fmt.Fprintf(errOut, "medassist-mcp: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

// serve opens the notes database and runs the MCP server over stdio
// until the client disconnects or the process is interrupted.
func serve() error {
	cfg, err := config.LoadMCP()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck
	if err := sqlite.MigrateUp(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcpserver.NewServer(mcpserver.NewToolset(db, cfg))
	return server.Run(ctx, &mcp.StdioTransport{})
}

func printHelp(out io.Writer) {
	helpText := `medassist-mcp - Model Context Protocol server for medical research tools

Usage:
  medassist-mcp [options]

Options:
  --version    Show version information
  --help       Show this help message

Running without options serves MCP over stdio. Tools:
  add-note                 Save a note to the shared scratchpad
  search-pubmed            Search PubMed for medical articles
  lookup-drug              Look up a medication via RxNorm
  search-clinicaltrials    Search ClinicalTrials.gov for studies
  search-cdc-guidelines    Search CDC guidelines for a topic

Configuration is read from environment variables (MEDASSIST_DB,
NCBI_API_KEY, PUBMED_RETMAX, ...) and an optional YAML file pointed at
by MEDASSIST_CONFIG.`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
