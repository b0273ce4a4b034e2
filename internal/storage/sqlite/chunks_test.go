// ABOUTME: Tests for document chunk storage and similarity search
// ABOUTME: Verifies batch save, thresholding, ordering, and metadata
package sqlite

import (
	"math"
	"testing"

	"github.com/harper/study-agent/internal/models"
)

func newTestChunkStore(t *testing.T) *ChunkStore {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewChunkStore(db)
}

func TestChunkStore_SaveAndSearch(t *testing.T) {
	store := newTestChunkStore(t)

	chunks := []models.DocumentChunk{
		{ChunkID: "a", Source: "bio.pdf", Position: 0, Content: "cells"},
		{ChunkID: "b", Source: "bio.pdf", Position: 1, Content: "mitochondria"},
		{ChunkID: "c", Source: "chem.pdf", Position: 0, Content: "atoms"},
	}
	vectors := [][]float64{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}
	if err := store.SaveBatch(chunks, vectors); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	n, err := store.Count()
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v; want 3", n, err)
	}

	results, err := store.SearchSimilar([]float64{1, 0, 0}, 3, 0.5)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results above threshold, want 2", len(results))
	}
	if results[0].Chunk.ChunkID != "a" || results[1].Chunk.ChunkID != "b" {
		t.Errorf("unexpected order: %s, %s", results[0].Chunk.ChunkID, results[1].Chunk.ChunkID)
	}
	if results[0].Chunk.Source != "bio.pdf" || results[0].Chunk.Score != results[0].SimilarityScore {
		t.Errorf("chunk fields not populated: %+v", results[0])
	}
}

func TestChunkStore_SearchLimit(t *testing.T) {
	store := newTestChunkStore(t)

	var chunks []models.DocumentChunk
	var vectors [][]float64
	for i := 0; i < 5; i++ {
		chunks = append(chunks, models.DocumentChunk{ChunkID: string(rune('a' + i)), Source: "x.pdf", Position: i, Content: "t"})
		vectors = append(vectors, []float64{1, float64(i) * 0.01})
	}
	if err := store.SaveBatch(chunks, vectors); err != nil {
		t.Fatal(err)
	}

	results, err := store.SearchSimilar([]float64{1, 0}, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestChunkStore_SaveBatchMismatch(t *testing.T) {
	store := newTestChunkStore(t)
	err := store.SaveBatch([]models.DocumentChunk{{ChunkID: "a"}}, nil)
	if err == nil {
		t.Error("expected mismatch error")
	}
}

func TestChunkStore_Sources(t *testing.T) {
	store := newTestChunkStore(t)
	_ = store.SaveBatch(
		[]models.DocumentChunk{
			{ChunkID: "1", Source: "a.pdf", Content: "x"},
			{ChunkID: "2", Source: "a.pdf", Position: 1, Content: "y"},
			{ChunkID: "3", Source: "b.pdf", Content: "z"},
		},
		[][]float64{{1}, {1}, {1}},
	)

	sources, err := store.Sources()
	if err != nil {
		t.Fatalf("Sources() error = %v", err)
	}
	if sources["a.pdf"] != 2 || sources["b.pdf"] != 1 {
		t.Errorf("Sources() = %v", sources)
	}
}

func TestChunkStore_Meta(t *testing.T) {
	store := newTestChunkStore(t)

	v, err := store.GetMeta(MetaEmbeddingModel)
	if err != nil || v != "" {
		t.Errorf("GetMeta() on unset key = %q, %v", v, err)
	}
	_ = store.SetMeta(MetaEmbeddingModel, "old")
	_ = store.SetMeta(MetaEmbeddingModel, "text-embedding-3-small")
	v, _ = store.GetMeta(MetaEmbeddingModel)
	if v != "text-embedding-3-small" {
		t.Errorf("GetMeta() = %q", v)
	}
}

func TestVectorBlobRoundTrip(t *testing.T) {
	in := []float64{0, -1.5, math.Pi, 1e-9}
	out := blobToVector(vectorToBlob(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"length mismatch", []float64{1}, []float64{1, 0}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
