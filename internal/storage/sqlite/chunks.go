// ABOUTME: Document chunk storage with vectors as BLOBs
// ABOUTME: Brute-force cosine similarity search with a score threshold
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/harper/study-agent/internal/models"
)

// Index metadata keys
const (
	MetaEmbeddingModel = "embedding_model"
	MetaDimension      = "dimension"
	MetaBuiltAt        = "built_at"
)

// ChunkStore handles document chunk persistence
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// SaveBatch stores chunks with their vectors in one transaction
func (s *ChunkStore) SaveBatch(chunks []models.DocumentChunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	return s.db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO chunks (id, source, position, content, vector, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source = excluded.source,
				position = excluded.position,
				content = excluded.content,
				vector = excluded.vector
		`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now().UTC()
		for i, c := range chunks {
			if len(vectors[i]) == 0 {
				return fmt.Errorf("chunk %s has an empty vector", c.ChunkID)
			}
			if _, err := stmt.Exec(c.ChunkID, c.Source, c.Position, c.Content, vectorToBlob(vectors[i]), now); err != nil {
				return fmt.Errorf("failed to save chunk %s: %w", c.ChunkID, err)
			}
		}
		return nil
	})
}

// Count returns the number of stored chunks
func (s *ChunkStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// Sources returns each distinct source filename with its chunk count
func (s *ChunkStore) Sources() (map[string]int, error) {
	rows, err := s.db.Query("SELECT source, COUNT(*) FROM chunks GROUP BY source")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sources := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		sources[name] = n
	}
	return sources, rows.Err()
}

// SearchSimilar returns up to maxResults chunks whose cosine similarity to
// queryVector is at least threshold, best first
func (s *ChunkStore) SearchSimilar(queryVector []float64, maxResults int, threshold float64) ([]models.VectorSearchResult, error) {
	rows, err := s.db.Query(`
		SELECT id, source, position, content, vector
		FROM chunks
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []models.VectorSearchResult
	for rows.Next() {
		var (
			chunk models.DocumentChunk
			blob  []byte
		)
		if err := rows.Scan(&chunk.ChunkID, &chunk.Source, &chunk.Position, &chunk.Content, &blob); err != nil {
			return nil, err
		}

		similarity := CosineSimilarity(queryVector, blobToVector(blob))
		if similarity < threshold {
			continue
		}
		chunk.Score = similarity
		results = append(results, models.VectorSearchResult{
			Chunk:           chunk,
			SimilarityScore: similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Sort by similarity descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// SetMeta stores an index metadata value
func (s *ChunkStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMeta returns an index metadata value, or "" when unset
func (s *ChunkStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// vectorToBlob converts a float64 slice to binary blob
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float64 slice
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
