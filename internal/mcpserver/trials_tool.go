package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akhawaja/medassist/internal/domain/sources"
)

// MetadataSearchClinicalTrials describes the search-clinicaltrials tool.
var MetadataSearchClinicalTrials = &mcp.Tool{
	Name:        "search-clinicaltrials",
	Description: "Search ClinicalTrials.gov for clinical studies",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search expression, e.g. a condition or intervention",
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of studies to return (default 5)",
				"minimum":     1,
				"maximum":     10,
			},
		},
	},
}

// InputSearchClinicalTrials is the input for the SearchClinicalTrials tool.
type InputSearchClinicalTrials struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// TrialSummary is one study in the SearchClinicalTrials output.
type TrialSummary struct {
	NCTID   string `json:"nct_id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// OutputSearchClinicalTrials is the output for the SearchClinicalTrials tool.
type OutputSearchClinicalTrials struct {
	Trials []TrialSummary `json:"trials"`
}

// SearchClinicalTrials searches the trial registry.
func (ts *Toolset) SearchClinicalTrials(ctx context.Context, _ *mcp.CallToolRequest, input InputSearchClinicalTrials) (*mcp.CallToolResult, OutputSearchClinicalTrials, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, OutputSearchClinicalTrials{}, fmt.Errorf("query is required")
	}

	trials, err := ts.trials.Search(ctx, input.Query, clampMaxResults(input.MaxResults))
	if err != nil {
		return nil, OutputSearchClinicalTrials{}, err
	}
	if len(trials) == 0 {
		return textResult("No results found"), OutputSearchClinicalTrials{Trials: []TrialSummary{}}, nil
	}

	out := OutputSearchClinicalTrials{Trials: make([]TrialSummary, 0, len(trials))}
	var blocks []string
	for _, tr := range trials {
		out.Trials = append(out.Trials, TrialSummary{
			NCTID:   tr.NCTID,
			Title:   tr.Title,
			Status:  tr.Status,
			Summary: tr.Summary,
			URL:     sources.TrialURL(tr.NCTID),
		})
		blocks = append(blocks, fmt.Sprintf(
			"NCT ID: %s\nTitle: %s\nStatus: %s\nSummary: %s\nURL: %s\n",
			tr.NCTID, tr.Title, tr.Status, tr.Summary, sources.TrialURL(tr.NCTID),
		))
	}
	return textResult(strings.Join(blocks, "\n")), out, nil
}
