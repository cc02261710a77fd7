package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Indexer is the slice of the knowledge store the handlers need.
type Indexer interface {
	Index(ctx context.Context, text string) (int, error)
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

type KnowledgeHandler struct{ store Indexer }

func NewKnowledgeHandler(store Indexer) *KnowledgeHandler {
	return &KnowledgeHandler{store: store}
}

type IndexRequest struct {
	Text string `json:"text"`
}

type IndexResponse struct {
	ChunksIndexed int `json:"chunks_indexed"`
}

type RetrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type RetrieveResponse struct {
	Contexts []string `json:"contexts"`
}

// Index handles POST /knowledge/index. The store is rebuilt wholesale
// from the submitted text.
func (h *KnowledgeHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	n, err := h.store.Index(r.Context(), req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to index text")
		return
	}
	writeJSON(w, http.StatusOK, IndexResponse{ChunksIndexed: n})
}

// Retrieve handles POST /knowledge/retrieve.
func (h *KnowledgeHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	contexts, err := h.store.Retrieve(r.Context(), req.Query, req.K)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve contexts")
		return
	}
	if contexts == nil {
		contexts = []string{}
	}
	writeJSON(w, http.StatusOK, RetrieveResponse{Contexts: contexts})
}
