// ABOUTME: Builder rebuilds the document index from the PDF directory
// ABOUTME: Writes a temp database and atomically renames it over the live index
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/study-agent/internal/ingest"
	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/storage/sqlite"
)

// DefaultBatchSize is how many chunks are embedded per request
const DefaultBatchSize = 64

// BuildStats summarizes a rebuild
type BuildStats struct {
	Documents int
	Chunks    int
	Skipped   []ingest.SkippedFile
	Duration  time.Duration
}

// Builder creates index files
type Builder struct {
	path      string
	embedder  Embedder
	model     string
	chunker   *ingest.ChunkEngine
	batchSize int
	logger    *log.Logger
	mu        sync.Mutex
}

// NewBuilder creates a Builder writing to path. model is recorded as index metadata.
func NewBuilder(path string, embedder Embedder, model string, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{
		path:      path,
		embedder:  embedder,
		model:     model,
		chunker:   ingest.NewChunkEngine(),
		batchSize: DefaultBatchSize,
		logger:    logger.WithPrefix("index"),
	}
}

// RebuildFromDir extracts, chunks, embeds, and indexes every PDF in dir.
// Returns ingest.ErrNoText when nothing could be extracted; the live index is left untouched.
func (b *Builder) RebuildFromDir(ctx context.Context, dir string) (*BuildStats, error) {
	start := time.Now()

	loaded, err := ingest.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, s := range loaded.Skipped {
		b.logger.Warn("skipping unreadable pdf", "path", s.Path, "err", s.Err)
	}

	chunks := b.chunker.ChunkDocuments(loaded.Documents)
	if len(chunks) == 0 {
		return nil, ingest.ErrNoText
	}

	if err := b.Rebuild(ctx, chunks); err != nil {
		return nil, err
	}

	stats := &BuildStats{
		Documents: len(loaded.Documents),
		Chunks:    len(chunks),
		Skipped:   loaded.Skipped,
		Duration:  time.Since(start),
	}
	b.logger.Info("index rebuilt", "documents", stats.Documents, "chunks", stats.Chunks, "duration", stats.Duration.Round(time.Millisecond))
	return stats, nil
}

// Rebuild replaces the index with the given chunks.
// Open handles on the previous index keep reading the old file.
func (b *Builder) Rebuild(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return ingest.ErrNoText
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp-%d", b.path, time.Now().UnixNano())
	if err := b.writeIndex(ctx, tmp, chunks); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}

func (b *Builder) writeIndex(ctx context.Context, path string, chunks []models.DocumentChunk) error {
	db, err := sqlite.OpenWithJournalMode(path, "DELETE")
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer func() { _ = db.Close() }()

	store := sqlite.NewChunkStore(db)
	dimension := 0

	for startIdx := 0; startIdx < len(chunks); startIdx += b.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(startIdx+b.batchSize, len(chunks))
		batch := chunks[startIdx:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := b.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks %d-%d: %w", startIdx, end, err)
		}
		if err := store.SaveBatch(batch, vectors); err != nil {
			return err
		}
		if dimension == 0 && len(vectors) > 0 {
			dimension = len(vectors[0])
		}
		b.logger.Debug("embedded batch", "from", startIdx, "to", end, "total", len(chunks))
	}

	meta := map[string]string{
		sqlite.MetaEmbeddingModel: b.model,
		sqlite.MetaDimension:      strconv.Itoa(dimension),
		sqlite.MetaBuiltAt:        time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if err := store.SetMeta(k, v); err != nil {
			return fmt.Errorf("failed to write index metadata: %w", err)
		}
	}

	return db.Close()
}
