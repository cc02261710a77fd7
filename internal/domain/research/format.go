package research

import (
	"fmt"
	"strings"

	"github.com/akhawaja/medassist/internal/domain/evidence"
)

// noEvidenceAnswer builds the fixed non-answer returned when every source
// and the local store came back empty. It restates the question, states
// the absence of results explicitly, and suggests next steps. It never
// fabricates a clinical claim.
func noEvidenceAnswer(query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your question: %s\n\n", query)
	b.WriteString("No evidence was found for this question. ")
	b.WriteString("PubMed, ClinicalTrials.gov, CDC guidance, the drug database, and the local knowledge store all returned no results.\n\n")
	b.WriteString("Suggested next steps:\n")
	b.WriteString("- Rephrase the question using different medical terms.\n")
	b.WriteString("- Broaden the question if it is very specific.\n")
	b.WriteString("- Consult a healthcare professional for guidance.\n")
	return b.String()
}

// unavailableAnswer is returned when the model retry budget is spent.
// Distinct from the no-evidence message: evidence may exist, but the
// assistant cannot synthesize right now.
const unavailableAnswer = "The assistant is temporarily unavailable due to high demand. Your question was not answered. Please try again in a few minutes."

// formatAnswer renders the model's synthesis plus a sectioned source list
// with citation links.
func formatAnswer(modelText string, items []evidence.Item) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(modelText))

	sections := []struct {
		title   string
		sources []evidence.Source
	}{
		{"Guidelines", []evidence.Source{evidence.SourceGuideline}},
		{"Key Findings", []evidence.Source{evidence.SourceLiterature}},
		{"Clinical Trials", []evidence.Source{evidence.SourceTrial}},
		{"Other Sources", []evidence.Source{evidence.SourceDrug, evidence.SourceLocalStore}},
	}

	for _, sec := range sections {
		lines := citationLines(items, sec.sources)
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n## %s\n", sec.title)
		for _, line := range lines {
			b.WriteString("- " + line + "\n")
		}
	}
	return b.String()
}

// citationLines renders the items of the given sources as citation lines,
// in merged-list order.
func citationLines(items []evidence.Item, sources []evidence.Source) []string {
	var lines []string
	for _, item := range items {
		if !sourceIn(item.Source, sources) {
			continue
		}
		lines = append(lines, citationLine(item))
	}
	return lines
}

func citationLine(item evidence.Item) string {
	label := item.Title
	if label == "" {
		label = capText(item.Summary, 80)
	}

	marker := ""
	if item.ID != nil && *item.ID != "" {
		switch item.Source {
		case evidence.SourceLiterature:
			marker = "PMID " + *item.ID
		default:
			marker = *item.ID
		}
	}

	switch {
	case marker != "" && item.URL != nil:
		return fmt.Sprintf("%s ([%s](%s))", label, marker, *item.URL)
	case item.URL != nil:
		return fmt.Sprintf("%s ([link](%s))", label, *item.URL)
	case marker != "":
		return fmt.Sprintf("%s (%s)", label, marker)
	default:
		return label
	}
}

func sourceIn(s evidence.Source, set []evidence.Source) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

func capText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
