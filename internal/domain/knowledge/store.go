package knowledge

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/akhawaja/medassist/internal/infra/llm"
)

const (
	indexFile  = "index.bin"
	chunksFile = "chunks.json"

	chunkWindow  = 3
	chunkOverlap = 1

	defaultTopK = 3
)

// Embedder is the slice of the provider interface the store needs.
type Embedder interface {
	Embed(ctx context.Context, req llm.EmbedRequest) (*llm.EmbedResponse, error)
}

// Store is a persisted nearest-neighbor index over sentence chunks.
// Indexing rebuilds the whole index; there are no incremental updates.
// The on-disk state is a file pair: index.bin holds the vectors, and
// chunks.json holds the chunk texts in vector order. Both are replaced
// atomically on reindex.
type Store struct {
	dir      string
	embedder Embedder

	mu sync.RWMutex
}

// NewStore creates a Store rooted at dir, creating the directory if
// missing.
func NewStore(dir string, embedder Embedder) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("knowledge store: create dir: %w", err)
	}
	return &Store{dir: dir, embedder: embedder}, nil
}

// Index chunks the text, embeds every chunk, and replaces the persisted
// index wholesale. Returns the number of chunks indexed. Blank text is a
// no-op returning zero.
func (s *Store) Index(ctx context.Context, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	chunks := SentenceChunks(text, chunkWindow, chunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	resp, err := s.embedder.Embed(ctx, llm.EmbedRequest{Texts: chunks})
	if err != nil {
		return 0, fmt.Errorf("knowledge store: embed chunks: %w", err)
	}
	if len(resp.Embeddings) != len(chunks) {
		return 0, fmt.Errorf("knowledge store: got %d embeddings for %d chunks", len(resp.Embeddings), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeIndex(resp.Embeddings); err != nil {
		return 0, err
	}
	if err := s.writeChunks(chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Retrieve embeds the query and returns up to k nearest chunks by L2
// distance. A blank query or a missing index yields no results and no
// error. k <= 0 defaults to 3.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = defaultTopK
	}

	s.mu.RLock()
	vectors, err := s.readIndex()
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	chunks, err := s.readChunks()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(chunks) == 0 {
		return nil, nil
	}

	resp, err := s.embedder.Embed(ctx, llm.EmbedRequest{Texts: []string{query}})
	if err != nil {
		return nil, fmt.Errorf("knowledge store: embed query: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("knowledge store: empty query embedding")
	}
	q := resp.Embeddings[0]

	type scored struct {
		idx  int
		dist float64
	}
	ranked := make([]scored, 0, len(vectors))
	for i, v := range vectors {
		ranked = append(ranked, scored{idx: i, dist: l2Distance(q, v)})
	}
	sort.Slice(ranked, func(a, b int) bool { return ranked[a].dist < ranked[b].dist })

	out := make([]string, 0, k)
	for _, r := range ranked {
		if len(out) == k {
			break
		}
		// The index file may report more vectors than the chunk list
		// holds if the pair went out of sync. Never index past it.
		if r.idx < len(chunks) {
			out = append(out, chunks[r.idx])
		}
	}
	return out, nil
}

// ─── persistence ─────────────────────────────────────────────────────────────

// index.bin layout: uint32 count, uint32 dim, then count*dim float32
// values, all little-endian.

func (s *Store) writeIndex(vectors [][]float32) error {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("knowledge store: inconsistent embedding dims %d vs %d", len(v), dim)
		}
	}

	buf := make([]byte, 8+4*len(vectors)*dim)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(vectors)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(dim))
	off := 8
	for _, v := range vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
			off += 4
		}
	}
	return atomicWrite(filepath.Join(s.dir, indexFile), buf)
}

func (s *Store) readIndex() ([][]float32, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("knowledge store: read index: %w", err)
	}
	if len(raw) < 8 {
		return nil, fmt.Errorf("knowledge store: index file truncated")
	}

	count := int(binary.LittleEndian.Uint32(raw[0:4]))
	dim := int(binary.LittleEndian.Uint32(raw[4:8]))
	if len(raw) != 8+4*count*dim {
		return nil, fmt.Errorf("knowledge store: index file size mismatch")
	}

	vectors := make([][]float32, count)
	off := 8
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off : off+4]))
			off += 4
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (s *Store) writeChunks(chunks []string) error {
	raw, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("knowledge store: marshal chunks: %w", err)
	}
	return atomicWrite(filepath.Join(s.dir, chunksFile), raw)
}

func (s *Store) readChunks() ([]string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, chunksFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("knowledge store: read chunks: %w", err)
	}
	var chunks []string
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil, fmt.Errorf("knowledge store: unmarshal chunks: %w", err)
	}
	return chunks, nil
}

// atomicWrite writes to a temp file in the same directory and renames it
// over the target so readers never see a partial file.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("knowledge store: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()          //nolint:errcheck
		os.Remove(tmpName)   //nolint:errcheck
		return fmt.Errorf("knowledge store: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("knowledge store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("knowledge store: rename temp: %w", err)
	}
	return nil
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
