package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetadataLookupDrug describes the lookup-drug tool.
var MetadataLookupDrug = &mcp.Tool{
	Name:        "lookup-drug",
	Description: "Look up information about a medication via RxNorm",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"name"},
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Drug name, brand or generic",
			},
		},
	},
}

// InputLookupDrug is the input for the LookupDrug tool.
type InputLookupDrug struct {
	Name string `json:"name"`
}

// OutputLookupDrug is the output for the LookupDrug tool. Found is false
// when the name matched no RxNorm concept.
type OutputLookupDrug struct {
	Found    bool     `json:"found"`
	RxCUI    string   `json:"rxcui,omitempty"`
	Name     string   `json:"name,omitempty"`
	TTY      string   `json:"tty,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
	Brands   []string `json:"brands,omitempty"`
}

// LookupDrug resolves a drug name against RxNorm and renders a clinical
// summary.
func (ts *Toolset) LookupDrug(ctx context.Context, _ *mcp.CallToolRequest, input InputLookupDrug) (*mcp.CallToolResult, OutputLookupDrug, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, OutputLookupDrug{}, fmt.Errorf("name is required")
	}

	info, err := ts.rxnorm.Lookup(ctx, input.Name)
	if err != nil {
		return nil, OutputLookupDrug{}, err
	}
	if info == nil {
		text := fmt.Sprintf("No drug information found for '%s'.", input.Name)
		return textResult(text), OutputLookupDrug{Found: false}, nil
	}

	text := fmt.Sprintf("## Drug Information: %s\n\n%s", info.Name, info.ComposeSummary())
	return textResult(text), OutputLookupDrug{
		Found:    true,
		RxCUI:    info.RxCUI,
		Name:     info.Name,
		TTY:      info.TTY,
		Synonyms: info.Synonyms,
		Brands:   info.Brands,
	}, nil
}
