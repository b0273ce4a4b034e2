// ABOUTME: DocumentChunk is a ranked span of text retrieved from uploaded PDFs
// ABOUTME: Source carries the originating filename for logging and display
package models

// DocumentChunk represents a piece of an indexed document
type DocumentChunk struct {
	ChunkID  string  `json:"chunk_id"`
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Content  string  `json:"content"`
	Score    float64 `json:"score,omitempty"`
}

// SearchResult is a single web search hit
type SearchResult struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Usable reports whether the result carries any text worth summarizing
func (r SearchResult) Usable() bool {
	return r.Snippet != ""
}
