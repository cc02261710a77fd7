// ClinicalTrials.gov client over the study_fields query API.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/akhawaja/medassist/internal/domain/evidence"
)

// Trial is one normalized clinical trial record.
type Trial struct {
	NCTID   string
	Title   string
	Status  string
	Summary string
}

// TrialsClient searches the ClinicalTrials.gov registry.
type TrialsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTrialsClient creates a TrialsClient with a 10s default timeout.
func NewTrialsClient(baseURL string) *TrialsClient {
	return &TrialsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// studyFieldsResponse mirrors the registry's JSON envelope. Every field
// value arrives as an array, usually of one element.
type studyFieldsResponse struct {
	StudyFieldsResponse struct {
		StudyFields []struct {
			NCTID         []string `json:"NCTId"`
			BriefTitle    []string `json:"BriefTitle"`
			OverallStatus []string `json:"OverallStatus"`
			BriefSummary  []string `json:"BriefSummary"`
		} `json:"StudyFields"`
	} `json:"StudyFieldsResponse"`
}

// Search returns up to maxResults trials matching the query expression.
// A blank query returns no results and no error.
func (c *TrialsClient) Search(ctx context.Context, query string, maxResults int) ([]Trial, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	params := url.Values{}
	params.Set("expr", query)
	params.Set("fields", "NCTId,BriefTitle,OverallStatus,BriefSummary")
	params.Set("min_rnk", "1")
	params.Set("max_rnk", strconv.Itoa(maxResults))
	params.Set("fmt", "json")

	reqURL := c.baseURL + "/study_fields?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, unavailable("clinicaltrials", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("clinicaltrials", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("clinicaltrials", fmt.Errorf("study_fields status %d", resp.StatusCode))
	}

	var parsed studyFieldsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, unavailable("clinicaltrials", fmt.Errorf("decode study_fields response: %w", err))
	}

	trials := make([]Trial, 0, len(parsed.StudyFieldsResponse.StudyFields))
	for _, sf := range parsed.StudyFieldsResponse.StudyFields {
		trials = append(trials, Trial{
			NCTID:   first(sf.NCTID),
			Title:   first(sf.BriefTitle),
			Status:  first(sf.OverallStatus),
			Summary: first(sf.BriefSummary),
		})
	}
	return trials, nil
}

// SearchEvidence converts search results into evidence items graded C
// (individual trials are not systematic evidence).
func (c *TrialsClient) SearchEvidence(ctx context.Context, query string, maxResults int) ([]evidence.Item, error) {
	trials, err := c.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	items := make([]evidence.Item, 0, len(trials))
	for _, tr := range trials {
		summary := tr.Summary
		if tr.Status != "" {
			summary = "Status: " + tr.Status + ". " + summary
		}
		items = append(items, evidence.Item{
			Source:  evidence.SourceTrial,
			ID:      evidence.StrPtr(tr.NCTID),
			Title:   tr.Title,
			Summary: summary,
			URL:     evidence.StrPtr(TrialURL(tr.NCTID)),
			Grade:   evidence.GradeC,
		})
	}
	return items, nil
}

// TrialURL returns the registry page for an NCT number.
func TrialURL(nctID string) string {
	return "https://clinicaltrials.gov/study/" + nctID
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}
