package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubIndexer struct {
	indexed   int
	contexts  []string
	err       error
	lastText  string
	lastQuery string
	lastK     int
}

func (s *stubIndexer) Index(_ context.Context, text string) (int, error) {
	s.lastText = text
	return s.indexed, s.err
}

func (s *stubIndexer) Retrieve(_ context.Context, query string, k int) ([]string, error) {
	s.lastQuery, s.lastK = query, k
	return s.contexts, s.err
}

func TestIndex_Success(t *testing.T) {
	t.Parallel()

	stub := &stubIndexer{indexed: 7}
	h := NewKnowledgeHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/knowledge/index", strings.NewReader(`{"text": "Some medical text. More text."}`))
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp IndexResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ChunksIndexed != 7 {
		t.Errorf("chunks_indexed = %d, want 7", resp.ChunksIndexed)
	}
}

func TestIndex_EmptyText(t *testing.T) {
	t.Parallel()

	h := NewKnowledgeHandler(&stubIndexer{})
	req := httptest.NewRequest(http.MethodPost, "/knowledge/index", strings.NewReader(`{"text": ""}`))
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRetrieve_Success(t *testing.T) {
	t.Parallel()

	stub := &stubIndexer{contexts: []string{"chunk one", "chunk two"}}
	h := NewKnowledgeHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/knowledge/retrieve", strings.NewReader(`{"query": "migraine", "k": 2}`))
	rec := httptest.NewRecorder()
	h.Retrieve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp RetrieveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Contexts) != 2 {
		t.Errorf("contexts = %v", resp.Contexts)
	}
	if stub.lastQuery != "migraine" || stub.lastK != 2 {
		t.Errorf("store received query=%q k=%d", stub.lastQuery, stub.lastK)
	}
}

func TestRetrieve_EmptyStoreReturnsEmptyArray(t *testing.T) {
	t.Parallel()

	h := NewKnowledgeHandler(&stubIndexer{contexts: nil})
	req := httptest.NewRequest(http.MethodPost, "/knowledge/retrieve", strings.NewReader(`{"query": "anything"}`))
	rec := httptest.NewRecorder()
	h.Retrieve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// JSON null would break clients iterating contexts.
	if !strings.Contains(rec.Body.String(), `"contexts":[]`) {
		t.Errorf("body = %s, want empty array", rec.Body.String())
	}
}

func TestIndex_StoreError(t *testing.T) {
	t.Parallel()

	h := NewKnowledgeHandler(&stubIndexer{err: errors.New("embedder down")})
	req := httptest.NewRequest(http.MethodPost, "/knowledge/index", strings.NewReader(`{"text": "x."}`))
	rec := httptest.NewRecorder()
	h.Index(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
