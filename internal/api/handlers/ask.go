package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/akhawaja/medassist/internal/domain/research"
)

// Answerer is the slice of the research service the handler needs.
type Answerer interface {
	Answer(ctx context.Context, query string) (*research.Answer, error)
}

type AskHandler struct{ service Answerer }

func NewAskHandler(service Answerer) *AskHandler { return &AskHandler{service: service} }

type AskRequest struct {
	Query string `json:"query"`
}

type AskResponse struct {
	Result    string `json:"result"`
	QueryType string `json:"query_type"`
}

// Ask handles POST /ask. Rate-limit exhaustion maps to 503 so callers
// can distinguish "retry later" from a real failure.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	ans, err := h.service.Answer(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, research.ErrModelUnavailable) {
			writeError(w, http.StatusServiceUnavailable, ans.Text)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to answer query")
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Result:    ans.Text,
		QueryType: string(ans.QueryType),
	})
}
