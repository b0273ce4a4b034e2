// ABOUTME: ChunkEngine splits extracted document text into overlapping chunks for embedding
// ABOUTME: Recursive character splitting over paragraph, line, word, and character separators
package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/harper/study-agent/internal/models"
)

// Chunking defaults
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// DefaultSeparators are tried in order; "" splits into single characters
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ChunkEngine handles recursive text chunking
type ChunkEngine struct {
	size       int
	overlap    int
	separators []string
}

// NewChunkEngine creates a ChunkEngine with the default size, overlap, and separators
func NewChunkEngine() *ChunkEngine {
	return NewChunkEngineWithSize(DefaultChunkSize, DefaultChunkOverlap)
}

// NewChunkEngineWithSize creates a ChunkEngine with a custom size and overlap (in characters)
func NewChunkEngineWithSize(size, overlap int) *ChunkEngine {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &ChunkEngine{
		size:       size,
		overlap:    overlap,
		separators: DefaultSeparators,
	}
}

// ChunkDocuments splits every document and tags each chunk with its source filename
func (ce *ChunkEngine) ChunkDocuments(docs []Document) []models.DocumentChunk {
	var chunks []models.DocumentChunk
	for _, doc := range docs {
		for i, text := range ce.SplitText(doc.Text) {
			chunks = append(chunks, models.DocumentChunk{
				ChunkID:  generateChunkID(),
				Source:   doc.Source,
				Position: i,
				Content:  text,
			})
		}
	}
	return chunks
}

// SplitText splits text into chunks of at most size characters where possible
func (ce *ChunkEngine) SplitText(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return ce.split(text, ce.separators)
}

func (ce *ChunkEngine) split(text string, separators []string) []string {
	// Pick the first separator present in the text
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		pieces = splitChars(text)
	} else {
		pieces = strings.Split(text, separator)
	}

	var final []string
	var good []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if length(piece) < ce.size {
			good = append(good, piece)
			continue
		}

		if len(good) > 0 {
			final = append(final, ce.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, ce.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, ce.merge(good, separator)...)
	}

	return final
}

// merge packs small pieces into chunks, carrying up to overlap characters forward
func (ce *ChunkEngine) merge(pieces []string, separator string) []string {
	sepLen := length(separator)

	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		n := length(piece)
		if total+n+joinCost(len(current), sepLen) > ce.size && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// Drop from the front until the carried text fits the overlap
			for total > ce.overlap || (total > 0 && total+n+joinCost(len(current), sepLen) > ce.size) {
				total -= length(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}

		current = append(current, piece)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func joinCost(count, sepLen int) int {
	if count > 0 {
		return sepLen
	}
	return 0
}

func splitChars(text string) []string {
	chars := make([]string, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		chars = append(chars, string(r))
	}
	return chars
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}

// generateChunkID generates a unique chunk ID
func generateChunkID() string {
	return "chunk_" + uuid.New().String()
}
