// Package mcpserver exposes the research tools over the Model Context
// Protocol so external agents can use PubMed, ClinicalTrials.gov, RxNorm,
// CDC guidance, and the shared note scratchpad directly.
package mcpserver

import (
	"database/sql"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akhawaja/medassist/internal/domain/notes"
	"github.com/akhawaja/medassist/internal/domain/sources"
	"github.com/akhawaja/medassist/internal/infra/config"
	"github.com/akhawaja/medassist/internal/version"
)

const serverName = "medassist-mcp"

// Toolset carries the services the tool handlers call into.
type Toolset struct {
	notes      *notes.Service
	pubmed     *sources.PubMedClient
	trials     *sources.TrialsClient
	rxnorm     *sources.RxNormClient
	guidelines *sources.GuidelinesClient
}

// NewToolset wires the tool handlers to the notes database and the
// external source clients from cfg.
func NewToolset(db *sql.DB, cfg config.Config) *Toolset {
	return &Toolset{
		notes:      notes.NewService(db),
		pubmed:     sources.NewPubMedClient(cfg.Sources.PubMedBaseURL, cfg.NCBIAPIKey, cfg.PubMedRetMax),
		trials:     sources.NewTrialsClient(cfg.Sources.ClinicalTrialsBaseURL),
		rxnorm:     sources.NewRxNormClient(cfg.Sources.RxNormBaseURL),
		guidelines: sources.NewGuidelinesClient(cfg.Sources.CDCSearchURL),
	}
}

// NewServer registers every tool on a stdio-ready MCP server.
func NewServer(ts *Toolset) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version.Version,
	}, nil)

	mcp.AddTool(server, MetadataAddNote, ts.AddNote)
	mcp.AddTool(server, MetadataSearchPubMed, ts.SearchPubMed)
	mcp.AddTool(server, MetadataLookupDrug, ts.LookupDrug)
	mcp.AddTool(server, MetadataSearchClinicalTrials, ts.SearchClinicalTrials)
	mcp.AddTool(server, MetadataSearchCDCGuidelines, ts.SearchCDCGuidelines)

	return server
}

// textResult wraps plain text as a tool call result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// clampMaxResults bounds a requested result count to [1, 10], defaulting
// to 5 when unset.
func clampMaxResults(n int) int {
	switch {
	case n <= 0:
		return 5
	case n > 10:
		return 10
	}
	return n
}
