package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetadataAddNote describes the add-note tool.
var MetadataAddNote = &mcp.Tool{
	Name:        "add-note",
	Description: "Add a new note to the shared research scratchpad. Writing an existing name replaces its content.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"name", "content"},
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Unique name of the note",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Text content of the note",
			},
		},
	},
}

// InputAddNote is the input for the AddNote tool.
type InputAddNote struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// OutputAddNote is the output for the AddNote tool.
type OutputAddNote struct {
	Name string `json:"name"`
}

// AddNote stores or replaces a named note.
func (ts *Toolset) AddNote(ctx context.Context, _ *mcp.CallToolRequest, input InputAddNote) (*mcp.CallToolResult, OutputAddNote, error) {
	if input.Name == "" || input.Content == "" {
		return nil, OutputAddNote{}, fmt.Errorf("name and content are required")
	}

	if err := ts.notes.Put(ctx, input.Name, input.Content); err != nil {
		return nil, OutputAddNote{}, err
	}

	text := fmt.Sprintf("Added note '%s' with content: %s", input.Name, input.Content)
	return textResult(text), OutputAddNote{Name: input.Name}, nil
}
