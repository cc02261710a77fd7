// Package knowledge implements the local fallback store: sentence-window
// chunking, embedding via the local model, and a persisted brute-force
// nearest-neighbor index consulted only when live sources return nothing.
package knowledge

import "strings"

// SentenceChunks splits text into overlapping windows of whole sentences.
// Each chunk holds up to window sentences and consecutive chunks share
// overlap sentences, so the stride is window-overlap (minimum 1).
func SentenceChunks(text string, window, overlap int) []string {
	sents := splitSentences(text)
	if len(sents) == 0 {
		return nil
	}
	if window <= 0 {
		window = 3
	}
	step := window - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for i := 0; i < len(sents); i += step {
		end := i + window
		if end > len(sents) {
			end = len(sents)
		}
		chunks = append(chunks, strings.Join(sents[i:end], " "))
	}
	return chunks
}

// splitSentences breaks text after runs of sentence terminators followed
// by whitespace. The terminator stays attached to its sentence.
func splitSentences(text string) []string {
	var sents []string
	start := 0
	inTerminator := false
	for i, r := range text {
		switch {
		case r == '.' || r == '?' || r == '!':
			inTerminator = true
		case inTerminator && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if s := strings.TrimSpace(text[start:i]); s != "" {
				sents = append(sents, s)
			}
			start = i + 1
			inTerminator = false
		default:
			inTerminator = false
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sents = append(sents, s)
	}
	return sents
}
