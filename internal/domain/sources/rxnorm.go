// RxNorm drug terminology client over the RxNav REST API:
//   - GET /rxcui.json?name=...              — resolve a drug name to an RxCUI
//   - GET /rxcui/{id}/properties.json       — name and term type
//   - GET /rxcui/{id}/related.json?tty=...  — synonyms, brands, branded packs
//
// Related terms are only fetched for non-ingredient entries; an
// ingredient-level RxCUI (TTY=IN) carries no brand or synonym relations.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akhawaja/medassist/internal/domain/evidence"
)

// DrugInfo is a resolved RxNorm drug record.
type DrugInfo struct {
	RxCUI    string
	Name     string
	TTY      string // RxNorm term type, e.g. "IN" (ingredient), "BN" (brand)
	Synonyms []string
	Brands   []string
}

// RxNormClient looks up drug terminology.
type RxNormClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRxNormClient creates an RxNormClient with a 5s default timeout.
func NewRxNormClient(baseURL string) *RxNormClient {
	return &RxNormClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// ─── RxNav JSON shapes ───────────────────────────────────────────────────────

type rxcuiResponse struct {
	IDGroup struct {
		RxNormID []string `json:"rxnormId"`
	} `json:"idGroup"`
}

type propertiesResponse struct {
	Properties struct {
		Name string `json:"name"`
		TTY  string `json:"tty"`
	} `json:"properties"`
}

type relatedResponse struct {
	RelatedGroup struct {
		ConceptGroup []struct {
			TTY               string `json:"tty"`
			ConceptProperties []struct {
				Name string `json:"name"`
			} `json:"conceptProperties"`
		} `json:"conceptGroup"`
	} `json:"relatedGroup"`
}

// ─── lookup ──────────────────────────────────────────────────────────────────

// Lookup resolves a drug name to its RxNorm record. Returns (nil, nil)
// when the name matches no RxCUI.
func (c *RxNormClient) Lookup(ctx context.Context, name string) (*DrugInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	rxcui, err := c.findRxCUI(ctx, name)
	if err != nil {
		return nil, err
	}
	if rxcui == "" {
		return nil, nil
	}

	info := &DrugInfo{RxCUI: rxcui}
	if err := c.fetchProperties(ctx, info); err != nil {
		return nil, err
	}

	// Ingredient-level entries have no brand or synonym relations.
	if info.TTY != "" && info.TTY != "IN" {
		if err := c.fetchRelated(ctx, info); err != nil {
			return nil, err
		}
	}
	return info, nil
}

func (c *RxNormClient) findRxCUI(ctx context.Context, name string) (string, error) {
	var parsed rxcuiResponse
	if err := c.getJSON(ctx, "/rxcui.json?name="+url.QueryEscape(name), &parsed); err != nil {
		return "", err
	}
	if len(parsed.IDGroup.RxNormID) == 0 {
		return "", nil
	}
	return parsed.IDGroup.RxNormID[0], nil
}

func (c *RxNormClient) fetchProperties(ctx context.Context, info *DrugInfo) error {
	var parsed propertiesResponse
	if err := c.getJSON(ctx, "/rxcui/"+info.RxCUI+"/properties.json", &parsed); err != nil {
		return err
	}
	info.Name = parsed.Properties.Name
	info.TTY = parsed.Properties.TTY
	return nil
}

func (c *RxNormClient) fetchRelated(ctx context.Context, info *DrugInfo) error {
	for _, tty := range []string{"SY", "BN", "BPCK"} {
		var parsed relatedResponse
		path := "/rxcui/" + info.RxCUI + "/related.json?tty=" + tty
		if err := c.getJSON(ctx, path, &parsed); err != nil {
			return err
		}
		for _, group := range parsed.RelatedGroup.ConceptGroup {
			for _, concept := range group.ConceptProperties {
				if concept.Name == "" {
					continue
				}
				switch group.TTY {
				case "SY":
					info.Synonyms = appendUnique(info.Synonyms, concept.Name)
				case "BN", "BPCK":
					info.Brands = appendUnique(info.Brands, concept.Name)
				}
			}
		}
	}
	return nil
}

func (c *RxNormClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return unavailable("rxnorm", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return unavailable("rxnorm", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return unavailable("rxnorm", fmt.Errorf("%s status %d", path, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable("rxnorm", fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

// ─── evidence conversion ─────────────────────────────────────────────────────

// LookupEvidence resolves the drug and wraps it as an evidence item with
// a composed clinical summary. Unknown drug names yield no items.
func (c *RxNormClient) LookupEvidence(ctx context.Context, name string) ([]evidence.Item, error) {
	info, err := c.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return []evidence.Item{{
		Source:  evidence.SourceDrug,
		ID:      evidence.StrPtr(info.RxCUI),
		Title:   info.Name,
		Summary: info.ComposeSummary(),
		URL:     evidence.StrPtr("https://mor.nlm.nih.gov/RxNav/search?searchBy=RXCUI&searchTerm=" + info.RxCUI),
		Grade:   evidence.GradeUnknown,
	}}, nil
}

// ComposeSummary renders the record as structured text with clinical
// reasoning and a plain-language paragraph.
func (d *DrugInfo) ComposeSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Drug Name: %s\n", d.Name)
	fmt.Fprintf(&b, "Term Type: %s\n", orNA(d.TTY))
	fmt.Fprintf(&b, "RxCUI: %s\n", d.RxCUI)
	fmt.Fprintf(&b, "Synonyms: %s\n", orNA(strings.Join(d.Synonyms, ", ")))
	fmt.Fprintf(&b, "Brand Names: %s\n", orNA(strings.Join(d.Brands, ", ")))

	b.WriteString("\nClinical Reasoning & Relevance:\n")
	for _, line := range d.reasoning() {
		b.WriteString("- " + line + "\n")
	}

	b.WriteString("\nPlain-language summary:\n")
	b.WriteString(d.plainSummary())
	return b.String()
}

func (d *DrugInfo) reasoning() []string {
	var lines []string
	switch {
	case d.TTY == "IN":
		lines = append(lines, d.Name+" is an ingredient-level entry in RxNorm, representing the active substance.")
	case d.TTY != "":
		lines = append(lines, d.Name+" is classified as '"+d.TTY+"' in RxNorm, which may indicate a brand, pack, or synonym.")
	}
	if len(d.Brands) > 0 {
		lines = append(lines, "Common brand names include: "+strings.Join(d.Brands, ", ")+".")
	}
	if len(d.Synonyms) > 0 {
		lines = append(lines, "Synonyms or alternative names: "+joinCapped(d.Synonyms, 5)+".")
	}
	if len(d.Brands) == 0 && len(d.Synonyms) == 0 {
		lines = append(lines, "No brand or synonym information was found for this entry.")
	}
	lines = append(lines, "Always verify drug information with a healthcare provider or pharmacist, especially for dosing, interactions, and contraindications.")
	return lines
}

func (d *DrugInfo) plainSummary() string {
	tty := d.TTY
	if tty == "" {
		tty = "drug"
	}
	s := fmt.Sprintf("%s (RxCUI: %s) is a %s used in clinical practice. ", d.Name, d.RxCUI, tty)
	if len(d.Brands) > 0 {
		s += "It is available under brand names such as " + joinCapped(d.Brands, 3) + ". "
	}
	if len(d.Synonyms) > 0 {
		s += "It may also be known as " + joinCapped(d.Synonyms, 3) + ". "
	}
	s += "Consult a healthcare professional for detailed usage, safety, and interaction information."
	return s
}

func joinCapped(ss []string, n int) string {
	if len(ss) <= n {
		return strings.Join(ss, ", ")
	}
	return strings.Join(ss[:n], ", ") + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func appendUnique(ss []string, s string) []string {
	for _, existing := range ss {
		if existing == s {
			return ss
		}
	}
	return append(ss, s)
}
