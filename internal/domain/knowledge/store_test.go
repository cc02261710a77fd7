package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akhawaja/medassist/internal/infra/llm"
)

// stubEmbedder maps each text to a deterministic 3-dim vector derived
// from its first byte, so nearest-neighbor ordering is predictable.
type stubEmbedder struct {
	calls int
}

func (e *stubEmbedder) Embed(_ context.Context, req llm.EmbedRequest) (*llm.EmbedResponse, error) {
	e.calls++
	out := make([][]float32, len(req.Texts))
	for i, text := range req.Texts {
		var lead float32
		if len(text) > 0 {
			lead = float32(text[0])
		}
		out[i] = []float32{lead, lead / 2, 1}
	}
	return &llm.EmbedResponse{Embeddings: out}, nil
}

func newTestStore(t *testing.T) (*Store, *stubEmbedder) {
	t.Helper()
	emb := &stubEmbedder{}
	store, err := NewStore(t.TempDir(), emb)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, emb
}

func TestIndexAndRetrieve(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	n, err := store.Index(context.Background(), "Alpha fact. Beta fact. Gamma fact. Delta fact.")
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if n != 2 {
		t.Errorf("chunks indexed = %d, want 2", n)
	}

	// Query starting with 'A' is nearest the chunk starting with "Alpha".
	got, err := store.Retrieve(context.Background(), "Alpha", 1)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 1 || !strings.HasPrefix(got[0], "Alpha") {
		t.Errorf("Retrieve = %v, want the Alpha chunk first", got)
	}
}

func TestRetrieve_AtMostK(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if _, err := store.Index(context.Background(), "A one. B two. C three. D four. E five. F six. G seven. H eight."); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	got, err := store.Retrieve(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) > 3 {
		t.Errorf("len = %d, want <= 3", len(got))
	}
}

func TestRetrieve_DefaultK(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if _, err := store.Index(context.Background(), "A one. B two. C three. D four. E five. F six. G seven. H eight. I nine. J ten."); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	got, err := store.Retrieve(context.Background(), "A", 0)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want default 3", len(got))
	}
}

func TestRetrieve_MissingIndex(t *testing.T) {
	t.Parallel()

	store, emb := newTestStore(t)
	got, err := store.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if got != nil {
		t.Errorf("Retrieve = %v, want nil before any indexing", got)
	}
	if emb.calls != 0 {
		t.Error("query must not be embedded when no index exists")
	}
}

func TestRetrieve_BlankQuery(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	got, err := store.Retrieve(context.Background(), "   ", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if got != nil {
		t.Errorf("Retrieve = %v, want nil for blank query", got)
	}
}

func TestIndex_BlankText(t *testing.T) {
	t.Parallel()

	store, emb := newTestStore(t)
	n, err := store.Index(context.Background(), "  \n ")
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	if emb.calls != 0 {
		t.Error("blank text must not be embedded")
	}
}

func TestIndex_RebuildReplacesOldState(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Index(ctx, "Old alpha content. Old beta content. Old gamma content."); err != nil {
		t.Fatalf("first Index failed: %v", err)
	}
	if _, err := store.Index(ctx, "New zulu content."); err != nil {
		t.Fatalf("second Index failed: %v", err)
	}

	got, err := store.Retrieve(ctx, "Old", 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	for _, chunk := range got {
		if strings.Contains(chunk, "Old") {
			t.Errorf("reindex must replace old chunks, got %q", chunk)
		}
	}
}

func TestRetrieve_StaleIndexNeverPanics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	emb := &stubEmbedder{}
	store, err := NewStore(dir, emb)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Index(ctx, "A one. B two. C three. D four. E five. F six."); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	// Corrupt the pair: shrink the chunk list so the index reports more
	// vectors than chunks exist.
	if err := os.WriteFile(filepath.Join(dir, chunksFile), []byte(`["only chunk"]`), 0o644); err != nil {
		t.Fatalf("write chunks: %v", err)
	}

	got, err := store.Retrieve(ctx, "A", 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) > 1 {
		t.Errorf("got %d chunks from a 1-chunk list", len(got))
	}
	for _, chunk := range got {
		if chunk != "only chunk" {
			t.Errorf("unexpected chunk %q", chunk)
		}
	}
}

func TestIndexFilesWrittenAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir, &stubEmbedder{})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, err := store.Index(context.Background(), "Alpha. Beta. Gamma."); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	// No temp files left behind after a successful swap.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want index.bin and chunks.json only", len(entries))
	}
}
