// ABOUTME: Embedding models for the document vector index
// ABOUTME: Defines the stored chunk vector and similarity hit structures
package models

import "time"

// Embedding represents a stored embedding vector for a document chunk
type Embedding struct {
	ChunkID   string    `json:"chunk_id"`
	Vector    []float64 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// VectorSearchResult represents a chunk hit with similarity score
type VectorSearchResult struct {
	Chunk           DocumentChunk `json:"chunk"`
	SimilarityScore float64       `json:"similarity_score"`
}
