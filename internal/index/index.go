// ABOUTME: Index is a read handle on a built document vector index
// ABOUTME: Embeds the query and returns chunks above the score threshold, best first
package index

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/storage/sqlite"
)

// Retrieval defaults
const (
	DefaultTopK           = 3
	DefaultScoreThreshold = 0.5
)

// ErrNoIndex is returned when no index has been built yet
var ErrNoIndex = errors.New("no document index has been built")

// Embedder turns texts into vectors, one per input in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Options control retrieval
type Options struct {
	TopK           int
	ScoreThreshold float64
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.ScoreThreshold < 0 || o.ScoreThreshold > 1 {
		o.ScoreThreshold = DefaultScoreThreshold
	}
	return o
}

// Stats describes a built index
type Stats struct {
	Chunks         int
	Sources        map[string]int
	EmbeddingModel string
	BuiltAt        string
}

// Index is an open, immutable document index
type Index struct {
	db       *sqlite.DB
	chunks   *sqlite.ChunkStore
	embedder Embedder
	opts     Options
}

// Open opens the index file at path. A missing file yields ErrNoIndex.
func Open(path string, embedder Embedder, opts Options) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoIndex
		}
		return nil, fmt.Errorf("failed to stat index: %w", err)
	}

	db, err := sqlite.OpenWithJournalMode(path, "DELETE")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	// One pinned connection keeps reading the same file after a rebuild renames over it
	db.Conn().SetMaxOpenConns(1)

	return &Index{
		db:       db,
		chunks:   sqlite.NewChunkStore(db),
		embedder: embedder,
		opts:     opts.withDefaults(),
	}, nil
}

// Retrieve returns up to TopK chunks scoring at least ScoreThreshold
func (i *Index) Retrieve(ctx context.Context, query string) ([]models.DocumentChunk, error) {
	hits, err := i.Search(ctx, query, i.opts.TopK)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.DocumentChunk, len(hits))
	for n, hit := range hits {
		chunks[n] = hit.Chunk
	}
	return chunks, nil
}

// Search returns up to k scored hits above the threshold
func (i *Index) Search(ctx context.Context, query string, k int) ([]models.VectorSearchResult, error) {
	vectors, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}

	hits, err := i.chunks.SearchSimilar(vectors[0], k, i.opts.ScoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	return hits, nil
}

// Stats reports what the index contains
func (i *Index) Stats() (Stats, error) {
	n, err := i.chunks.Count()
	if err != nil {
		return Stats{}, err
	}
	sources, err := i.chunks.Sources()
	if err != nil {
		return Stats{}, err
	}
	model, _ := i.chunks.GetMeta(sqlite.MetaEmbeddingModel)
	builtAt, _ := i.chunks.GetMeta(sqlite.MetaBuiltAt)

	return Stats{
		Chunks:         n,
		Sources:        sources,
		EmbeddingModel: model,
		BuiltAt:        builtAt,
	}, nil
}

// Close releases the handle
func (i *Index) Close() error {
	return i.db.Close()
}

// Loader opens a fresh handle on the index file for each call
type Loader struct {
	path     string
	embedder Embedder
	opts     Options
}

// NewLoader creates a Loader for the index at path
func NewLoader(path string, embedder Embedder, opts Options) *Loader {
	return &Loader{path: path, embedder: embedder, opts: opts}
}

// Load opens the current index
func (l *Loader) Load() (*Index, error) {
	return Open(l.path, l.embedder, l.opts)
}

// Path returns the index file path
func (l *Loader) Path() string {
	return l.path
}
