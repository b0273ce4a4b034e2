// ABOUTME: WebStrategy answers from live web search results summarized for students
// ABOUTME: Search failures are an explicit outcome and degrade to the no-results message
package core

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/study-agent/internal/models"
)

const (
	// DefaultWebResults is how many search hits are requested
	DefaultWebResults = 4

	NoWebResultsMessage = "No relevant web results found."
	NoWebContentMessage = "No relevant content found to summarize."
)

// searchOutcome distinguishes "the provider failed" from "the provider found nothing"
type searchOutcome struct {
	results []models.SearchResult
	failed  bool
	err     error
}

// WebStrategy searches the web and summarizes the snippets
type WebStrategy struct {
	provider SearchProvider
	gen      Generator
	limit    int
	logger   *log.Logger
}

// NewWebStrategy creates a WebStrategy. A non-positive limit uses DefaultWebResults.
func NewWebStrategy(provider SearchProvider, gen Generator, limit int, logger *log.Logger) *WebStrategy {
	if limit <= 0 {
		limit = DefaultWebResults
	}
	return &WebStrategy{
		provider: provider,
		gen:      gen,
		limit:    limit,
		logger:   loggerOrDefault(logger, "web"),
	}
}

func (s *WebStrategy) search(ctx context.Context, question string) searchOutcome {
	if strings.TrimSpace(question) == "" {
		return searchOutcome{}
	}
	results, err := s.provider.Search(ctx, question, s.limit)
	if err != nil {
		return searchOutcome{failed: true, err: err}
	}
	return searchOutcome{results: results}
}

// Run searches and summarizes. The web source label is always reported.
func (s *WebStrategy) Run(ctx context.Context, question string) (Outcome, error) {
	found := s.search(ctx, question)
	if found.failed {
		if ctx.Err() != nil {
			return Outcome{Source: models.SourceWeb}, ctx.Err()
		}
		s.logger.Warn("web search failed", "err", found.err)
	}

	if len(found.results) == 0 {
		return Outcome{Result: NoWebResultsMessage, Source: models.SourceWeb}, nil
	}

	var snippets []string
	for _, r := range found.results {
		if r.Usable() {
			snippets = append(snippets, r.Title+": "+r.Snippet)
		}
	}
	if len(snippets) == 0 {
		return Outcome{Result: NoWebContentMessage, Source: models.SourceWeb}, nil
	}

	text, err := s.gen.Generate(ctx, BuildWebSummaryPrompt(question, snippets))
	if err != nil {
		return Outcome{Source: models.SourceWeb}, err
	}

	return Outcome{Result: strings.TrimSpace(text), Source: models.SourceWeb}, nil
}
