// ABOUTME: MCP tool handler implementations for the study agent server
// ABOUTME: Each handler validates arguments and returns a JSON text result
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harper/study-agent/internal/index"
	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// Asker answers questions through the full strategy flow
type Asker interface {
	Ask(ctx context.Context, question string) (models.Answer, error)
}

// Documents searches and rebuilds the PDF index
type Documents interface {
	SearchDocuments(ctx context.Context, query string, k int) ([]models.VectorSearchResult, error)
	Rebuild(ctx context.Context) (*index.BuildStats, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	agent   Asker
	history storage.HistoryStore
	docs    Documents
}

// NewHandlers creates Handlers
func NewHandlers(agent Asker, history storage.HistoryStore, docs Documents) *Handlers {
	return &Handlers{agent: agent, history: history, docs: docs}
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	answer, err := h.agent.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", err)), nil
	}

	attempts := make([]string, len(answer.Attempts))
	for i, s := range answer.Attempts {
		attempts[i] = s.String()
	}

	return jsonResult(map[string]interface{}{
		"answer":   answer.Text,
		"source":   answer.Source.String(),
		"attempts": attempts,
	})
}

// GetHistory handles the get_history tool
func (h *Handlers) GetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError("limit must be zero or positive"), nil
	}

	turns, err := h.history.ReadAll()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read history: %v", err)), nil
	}

	total := len(turns)
	if limit > 0 && limit < total {
		turns = turns[total-limit:]
	}

	return jsonResult(map[string]interface{}{
		"turns": turns,
		"count": len(turns),
		"total": total,
	})
}

// ClearHistory handles the clear_history tool
func (h *Handlers) ClearHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.history.Clear(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to clear history: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"status": "cleared",
	})
}

// SearchDocuments handles the search_documents tool
func (h *Handlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	maxResults := request.GetInt("max_results", index.DefaultTopK)
	if maxResults <= 0 {
		return mcp.NewToolResultError("max_results must be positive"), nil
	}

	hits, err := h.docs.SearchDocuments(ctx, query, maxResults)
	if errors.Is(err, index.ErrNoIndex) {
		return jsonResult(map[string]interface{}{
			"query":   query,
			"results": []models.VectorSearchResult{},
			"count":   0,
			"message": "no documents have been indexed yet",
		})
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"query":   query,
		"results": hits,
		"count":   len(hits),
	})
}

// RebuildIndex handles the rebuild_index tool
func (h *Handlers) RebuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.docs.Rebuild(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rebuild failed: %v", err)), nil
	}

	skipped := make([]string, len(stats.Skipped))
	for i, f := range stats.Skipped {
		skipped[i] = fmt.Sprintf("%s: %v", f.Path, f.Err)
	}

	return jsonResult(map[string]interface{}{
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
		"skipped":   skipped,
		"duration":  stats.Duration.String(),
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
