package research

import (
	"fmt"
	"strings"

	"github.com/akhawaja/medassist/internal/domain/evidence"
)

const (
	// Only the strongest items reach the prompt, each capped so one long
	// summary cannot crowd out the rest.
	promptMaxItems    = 3
	promptItemCharCap = 500
)

// buildPrompt assembles the grounding prompt from the merged evidence.
// The model is instructed to use only the given context and to cite
// identifiers per claim.
func buildPrompt(query string, items []evidence.Item) string {
	var ctxParts []string
	for _, item := range items {
		if len(ctxParts) == promptMaxItems {
			break
		}
		text := formatPromptItem(item)
		if text == "" {
			continue
		}
		if len(text) > promptItemCharCap {
			text = text[:promptItemCharCap]
		}
		ctxParts = append(ctxParts, text)
	}
	contextStr := strings.Join(ctxParts, "\n\n")

	return "You are a medical assistant. Use ONLY the provided context below to answer the user's medical question. " +
		"For each major claim, cite the PMID (PubMed ID) or source if available. " +
		"If the context does not contain enough information, say: 'No relevant medical evidence was found in PubMed. Please consult a healthcare professional.' " +
		"Structure your answer as a concise, evidence-based summary with bullet points or sections. " +
		"Do NOT make up information.\n\n" +
		"CONTEXT (from PubMed abstracts, may include PMIDs):\n" + contextStr + "\n\n" +
		"QUESTION: " + query + "\n\n" +
		"ANSWER (with citations):"
}

// formatPromptItem renders one evidence item as prompt context, leading
// with its identifier so the model can cite it.
func formatPromptItem(item evidence.Item) string {
	var b strings.Builder
	if item.ID != nil && *item.ID != "" {
		switch item.Source {
		case evidence.SourceLiterature:
			fmt.Fprintf(&b, "PMID %s: ", *item.ID)
		case evidence.SourceTrial:
			fmt.Fprintf(&b, "%s: ", *item.ID)
		default:
			fmt.Fprintf(&b, "[%s] ", *item.ID)
		}
	}
	b.WriteString(item.Title)
	if item.Summary != "" {
		b.WriteString(". ")
		b.WriteString(item.Summary)
	}
	return strings.TrimSpace(b.String())
}
