package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akhawaja/medassist/internal/domain/sources"
)

// MetadataSearchPubMed describes the search-pubmed tool.
var MetadataSearchPubMed = &mcp.Tool{
	Name:        "search-pubmed",
	Description: "Search PubMed for medical articles",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search terms, e.g. a condition or treatment",
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of articles to return (default 5)",
				"minimum":     1,
				"maximum":     10,
			},
		},
	},
}

// InputSearchPubMed is the input for the SearchPubMed tool.
type InputSearchPubMed struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// PubMedArticle is one article in the SearchPubMed output.
type PubMedArticle struct {
	PMID     string `json:"pmid"`
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Journal  string `json:"journal"`
	Date     string `json:"date"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
}

// OutputSearchPubMed is the output for the SearchPubMed tool.
type OutputSearchPubMed struct {
	Articles []PubMedArticle `json:"articles"`
}

// SearchPubMed searches PubMed and returns fetched abstracts.
func (ts *Toolset) SearchPubMed(ctx context.Context, _ *mcp.CallToolRequest, input InputSearchPubMed) (*mcp.CallToolResult, OutputSearchPubMed, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, OutputSearchPubMed{}, fmt.Errorf("query is required")
	}

	pmids, err := ts.pubmed.Search(ctx, input.Query)
	if err != nil {
		return nil, OutputSearchPubMed{}, err
	}
	if maxResults := clampMaxResults(input.MaxResults); len(pmids) > maxResults {
		pmids = pmids[:maxResults]
	}

	articles, err := ts.pubmed.Fetch(ctx, pmids)
	if err != nil {
		return nil, OutputSearchPubMed{}, err
	}
	if len(articles) == 0 {
		return textResult("No results found"), OutputSearchPubMed{Articles: []PubMedArticle{}}, nil
	}

	out := OutputSearchPubMed{Articles: make([]PubMedArticle, 0, len(articles))}
	var blocks []string
	for _, a := range articles {
		abstract := articleAbstract(a)
		out.Articles = append(out.Articles, PubMedArticle{
			PMID:     a.PMID,
			Title:    a.Title,
			Authors:  strings.Join(a.Authors, ", "),
			Journal:  a.Journal,
			Date:     a.Date,
			Abstract: abstract,
			URL:      sources.ArticleURL(a.PMID),
		})
		blocks = append(blocks, fmt.Sprintf(
			"PMID: %s\nTitle: %s\nAuthors: %s\nJournal: %s (%s)\nAbstract: %s\nURL: %s\n",
			a.PMID, a.Title, strings.Join(a.Authors, ", "), a.Journal, a.Date,
			abstract, sources.ArticleURL(a.PMID),
		))
	}
	return textResult(strings.Join(blocks, "\n")), out, nil
}

// articleAbstract flattens the abstract for display: unstructured text as
// is, labeled sections joined in alphabetical label order.
func articleAbstract(a sources.Article) string {
	if text, ok := a.AbstractSections["text"]; ok {
		return text
	}
	labels := make([]string, 0, len(a.AbstractSections))
	for label := range a.AbstractSections {
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return "No abstract available"
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, strings.ToUpper(label[:1])+label[1:]+": "+a.AbstractSections[label])
	}
	return strings.Join(parts, " ")
}
