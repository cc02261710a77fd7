package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetadataSearchCDCGuidelines describes the search-cdc-guidelines tool.
var MetadataSearchCDCGuidelines = &mcp.Tool{
	Name:        "search-cdc-guidelines",
	Description: "Search CDC guidelines for a medical topic",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Topic to look up, e.g. a disease or prevention measure",
			},
		},
	},
}

// InputSearchCDCGuidelines is the input for the SearchCDCGuidelines tool.
type InputSearchCDCGuidelines struct {
	Query string `json:"query"`
}

// GuidelineSummary is one entry in the SearchCDCGuidelines output.
type GuidelineSummary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// OutputSearchCDCGuidelines is the output for the SearchCDCGuidelines tool.
type OutputSearchCDCGuidelines struct {
	Guidelines []GuidelineSummary `json:"guidelines"`
}

// SearchCDCGuidelines returns CDC guidance pointers for the query.
func (ts *Toolset) SearchCDCGuidelines(ctx context.Context, _ *mcp.CallToolRequest, input InputSearchCDCGuidelines) (*mcp.CallToolResult, OutputSearchCDCGuidelines, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, OutputSearchCDCGuidelines{}, fmt.Errorf("query is required")
	}

	items, err := ts.guidelines.SearchEvidence(ctx, input.Query)
	if err != nil {
		return nil, OutputSearchCDCGuidelines{}, err
	}

	out := OutputSearchCDCGuidelines{Guidelines: make([]GuidelineSummary, 0, len(items))}
	var blocks []string
	for _, item := range items {
		link := ""
		if item.URL != nil {
			link = *item.URL
		}
		out.Guidelines = append(out.Guidelines, GuidelineSummary{
			Title:   item.Title,
			Summary: item.Summary,
			URL:     link,
		})
		blocks = append(blocks, fmt.Sprintf(
			"Title: %s\nSummary: %s\nURL: %s\n",
			item.Title, item.Summary, link,
		))
	}
	return textResult(strings.Join(blocks, "\n")), out, nil
}
