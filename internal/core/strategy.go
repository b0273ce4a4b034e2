// ABOUTME: Contracts between the answer flow and its external collaborators
// ABOUTME: Generators, retrievers, search providers, and the Strategy runner interface
package core

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/harper/study-agent/internal/models"
)

// Outcome is what a strategy reports back to the orchestrator.
// An empty Result means the strategy produced nothing usable.
type Outcome struct {
	Result string
	Source models.Source
}

// Strategy runs one answer path for a question
type Strategy interface {
	Run(ctx context.Context, question string) (Outcome, error)
}

// Generator maps a rendered prompt to generated text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever returns document chunks ranked by relevance, best first
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.DocumentChunk, error)
}

// IndexLoader hands out the current document index.
// It returns index.ErrNoIndex when no index has been built.
type IndexLoader interface {
	Load() (Retriever, error)
}

// IndexLoaderFunc adapts a function to IndexLoader
type IndexLoaderFunc func() (Retriever, error)

// Load calls f
func (f IndexLoaderFunc) Load() (Retriever, error) {
	return f()
}

// SearchProvider queries the web
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

func loggerOrDefault(logger *log.Logger, prefix string) *log.Logger {
	if logger == nil {
		logger = log.Default()
	}
	return logger.WithPrefix(prefix)
}
