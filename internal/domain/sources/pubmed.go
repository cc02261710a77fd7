// PubMed client over the NCBI E-utilities API:
//   - GET /esearch.fcgi — term search, returns PMIDs (JSON)
//   - GET /efetch.fcgi  — abstract fetch for PMIDs (XML)
//
// Search builds an [All Fields] AND-query from the question's words. When
// that finds nothing a simpler query with common stopwords removed is
// tried once. Fetched articles are graded by publication type.
package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akhawaja/medassist/internal/domain/evidence"
)

const (
	pubmedToolName = "medassist"
	pubmedEmail    = "helloahmedkhawaja@gmail.com"

	// Summary text is capped so a single long abstract cannot dominate
	// the synthesis prompt.
	pubmedSummaryCap = 300
)

// PubMedClient searches and fetches biomedical literature.
type PubMedClient struct {
	baseURL    string
	apiKey     string
	retMax     int
	httpClient *http.Client
}

// NewPubMedClient creates a PubMedClient with a 10s default timeout.
// apiKey is optional; when present it raises NCBI's rate limits.
func NewPubMedClient(baseURL, apiKey string, retMax int) *PubMedClient {
	if retMax <= 0 {
		retMax = 5
	}
	return &PubMedClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		retMax:     retMax,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ─── esearch ─────────────────────────────────────────────────────────────────

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search returns up to retMax PMIDs for the query. A blank query returns
// no results and no error.
func (c *PubMedClient) Search(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	pmids, err := c.esearch(ctx, fieldedQuery(query))
	if err != nil {
		return nil, unavailable("pubmed", err)
	}
	if len(pmids) == 0 {
		// Fall back to a plain AND-query without common stopwords.
		pmids, err = c.esearch(ctx, simplifiedQuery(query))
		if err != nil {
			return nil, unavailable("pubmed", err)
		}
	}
	if len(pmids) > c.retMax {
		pmids = pmids[:c.retMax]
	}
	return pmids, nil
}

func (c *PubMedClient) esearch(ctx context.Context, term string) ([]string, error) {
	params := c.baseParams()
	params.Set("retmax", fmt.Sprintf("%d", c.retMax))
	params.Set("retmode", "json")
	params.Set("usehistory", "y")
	params.Set("term", term)

	reqURL := c.baseURL + "/esearch.fcgi?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("esearch status %d", resp.StatusCode)
	}

	var parsed esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode esearch response: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}

// fieldedQuery tags every word with [All Fields] and joins with AND.
// No MeSH mapping; plain term matching only.
func fieldedQuery(query string) string {
	terms := strings.Fields(strings.ToLower(query))
	fielded := make([]string, len(terms))
	for i, t := range terms {
		fielded[i] = t + "[All Fields]"
	}
	return strings.Join(fielded, " AND ")
}

// simplifiedQuery drops common stopwords and joins the rest with AND.
func simplifiedQuery(query string) string {
	var kept []string
	for _, t := range strings.Fields(query) {
		switch strings.ToLower(t) {
		case "the", "a", "an":
			continue
		}
		kept = append(kept, t)
	}
	return strings.Join(kept, " AND ")
}

// ─── efetch ──────────────────────────────────────────────────────────────────

// Article is one fetched PubMed record, flattened from the efetch XML.
type Article struct {
	PMID             string
	Title            string
	Journal          string
	Authors          []string
	Date             string
	DOI              string
	PublicationTypes []string
	// AbstractSections maps lowercased section labels (background,
	// methods, results, conclusion) to text. Unlabeled abstracts use
	// the key "text".
	AbstractSections map[string]string
}

// efetch XML shapes, limited to the elements actually consumed.
type efetchArticleSet struct {
	Articles []efetchArticle `xml:"PubmedArticle"`
}

type efetchArticle struct {
	PMID    string `xml:"MedlineCitation>PMID"`
	Article struct {
		Title string `xml:"ArticleTitle"`
		// The date lives under Journal; encoding/xml forbids a sibling
		// field whose path descends through another field's element.
		Journal struct {
			Title   string `xml:"Title"`
			PubDate struct {
				Year  string `xml:"Year"`
				Month string `xml:"Month"`
				Day   string `xml:"Day"`
			} `xml:"JournalIssue>PubDate"`
		} `xml:"Journal"`
		Authors []struct {
			LastName string `xml:"LastName"`
			ForeName string `xml:"ForeName"`
		} `xml:"AuthorList>Author"`
		PublicationTypes []string `xml:"PublicationTypeList>PublicationType"`
		AbstractTexts    []struct {
			Label string `xml:"Label,attr"`
			Text  string `xml:",chardata"`
		} `xml:"Abstract>AbstractText"`
	} `xml:"MedlineCitation>Article"`
	ArticleIDs []struct {
		IDType string `xml:"IdType,attr"`
		Value  string `xml:",chardata"`
	} `xml:"PubmedData>ArticleIdList>ArticleId"`
}

// Fetch retrieves abstracts for the given PMIDs.
func (c *PubMedClient) Fetch(ctx context.Context, pmids []string) ([]Article, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := c.baseParams()
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")

	reqURL := c.baseURL + "/efetch.fcgi?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, unavailable("pubmed", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("pubmed", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("pubmed", fmt.Errorf("efetch status %d", resp.StatusCode))
	}

	var parsed efetchArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, unavailable("pubmed", fmt.Errorf("decode efetch response: %w", err))
	}

	articles := make([]Article, 0, len(parsed.Articles))
	for _, raw := range parsed.Articles {
		articles = append(articles, flattenArticle(raw))
	}
	return articles, nil
}

func flattenArticle(raw efetchArticle) Article {
	a := Article{
		PMID:             raw.PMID,
		Title:            raw.Article.Title,
		Journal:          raw.Article.Journal.Title,
		PublicationTypes: raw.Article.PublicationTypes,
		AbstractSections: map[string]string{},
	}

	for _, au := range raw.Article.Authors {
		if au.LastName != "" && au.ForeName != "" {
			a.Authors = append(a.Authors, au.LastName+", "+au.ForeName)
		}
	}

	pubDate := raw.Article.Journal.PubDate
	var dateParts []string
	for _, p := range []string{pubDate.Year, pubDate.Month, pubDate.Day} {
		if p != "" {
			dateParts = append(dateParts, p)
		}
	}
	a.Date = strings.Join(dateParts, " ")

	for _, id := range raw.ArticleIDs {
		if id.IDType == "doi" {
			a.DOI = strings.TrimSpace(id.Value)
			break
		}
	}

	var unlabeled []string
	for _, sec := range raw.Article.AbstractTexts {
		text := strings.TrimSpace(sec.Text)
		if text == "" {
			continue
		}
		if sec.Label == "" {
			unlabeled = append(unlabeled, text)
			continue
		}
		a.AbstractSections[strings.ToLower(sec.Label)] = text
	}
	if len(a.AbstractSections) == 0 && len(unlabeled) > 0 {
		a.AbstractSections["text"] = strings.Join(unlabeled, " ")
	}

	return a
}

// ─── evidence conversion ─────────────────────────────────────────────────────

// SearchEvidence runs Search then Fetch and converts the results into
// graded evidence items.
func (c *PubMedClient) SearchEvidence(ctx context.Context, query string) ([]evidence.Item, error) {
	pmids, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	articles, err := c.Fetch(ctx, pmids)
	if err != nil {
		return nil, err
	}

	items := make([]evidence.Item, 0, len(articles))
	for _, a := range articles {
		items = append(items, evidence.Item{
			Source:  evidence.SourceLiterature,
			ID:      evidence.StrPtr(a.PMID),
			Title:   a.Title,
			Summary: a.Summary(),
			URL:     evidence.StrPtr(ArticleURL(a.PMID)),
			Grade:   gradeArticle(a.PublicationTypes),
		})
	}
	return items, nil
}

// Summary picks the most decision-relevant abstract section, preferring
// conclusion over results over the unstructured text, capped at 300 chars.
func (a Article) Summary() string {
	for _, key := range []string{"conclusion", "conclusions", "results", "text"} {
		if text, ok := a.AbstractSections[key]; ok {
			return capText(text, pubmedSummaryCap)
		}
	}
	return ""
}

// ArticleURL returns the canonical PubMed page for a PMID.
func ArticleURL(pmid string) string {
	return "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
}

// gradeArticle maps publication types to an evidence grade.
func gradeArticle(pubTypes []string) evidence.Grade {
	for _, pt := range pubTypes {
		lower := strings.ToLower(pt)
		if strings.Contains(lower, "meta-analysis") || strings.Contains(lower, "systematic review") {
			return evidence.GradeA
		}
	}
	for _, pt := range pubTypes {
		if strings.Contains(strings.ToLower(pt), "randomized controlled trial") {
			return evidence.GradeB
		}
	}
	return evidence.GradeC
}

func (c *PubMedClient) baseParams() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("tool", pubmedToolName)
	params.Set("email", pubmedEmail)
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	return params
}

func capText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
