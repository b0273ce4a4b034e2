// ABOUTME: Tests for MCP tool handlers
// ABOUTME: Drives each handler with fake agent, history, and document services
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/harper/study-agent/internal/index"
	"github.com/harper/study-agent/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeAsker struct {
	answer   models.Answer
	err      error
	question string
}

func (f *fakeAsker) Ask(_ context.Context, q string) (models.Answer, error) {
	f.question = q
	return f.answer, f.err
}

type memHistory struct {
	turns    []models.Turn
	cleared  bool
	readErr  error
	clearErr error
}

func (m *memHistory) Append(t models.Turn) error {
	m.turns = append(m.turns, t)
	return nil
}

func (m *memHistory) ReadAll() ([]models.Turn, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.turns, nil
}

func (m *memHistory) Clear() error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = true
	m.turns = nil
	return nil
}

type fakeDocs struct {
	hits      []models.VectorSearchResult
	searchErr error
	stats     *index.BuildStats
	buildErr  error
	k         int
}

func (f *fakeDocs) SearchDocuments(_ context.Context, _ string, k int) ([]models.VectorSearchResult, error) {
	f.k = k
	return f.hits, f.searchErr
}

func (f *fakeDocs) Rebuild(context.Context) (*index.BuildStats, error) {
	return f.stats, f.buildErr
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", res.Content[0])
	}
	return text.Text
}

func decode(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	return out
}

func TestAskQuestion(t *testing.T) {
	agent := &fakeAsker{answer: models.Answer{
		Text:     "Mitochondria.",
		Source:   models.SourcePDF,
		Attempts: []models.Source{models.SourcePDF},
	}}
	h := NewHandlers(agent, &memHistory{}, &fakeDocs{})

	res, err := h.AskQuestion(context.Background(), request(map[string]interface{}{"question": "powerhouse?"}))
	if err != nil {
		t.Fatalf("AskQuestion() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	out := decode(t, res)
	if out["answer"] != "Mitochondria." || out["source"] != "pdf" {
		t.Errorf("result = %v", out)
	}
	if agent.question != "powerhouse?" {
		t.Errorf("question = %q", agent.question)
	}
}

func TestAskQuestion_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		err  error
	}{
		{name: "missing question", args: map[string]interface{}{}},
		{name: "wrong type", args: map[string]interface{}{"question": 42}},
		{name: "agent failure", args: map[string]interface{}{"question": "q"}, err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(&fakeAsker{err: tt.err}, &memHistory{}, &fakeDocs{})
			res, err := h.AskQuestion(context.Background(), request(tt.args))
			if err != nil {
				t.Fatalf("AskQuestion() error = %v", err)
			}
			if !res.IsError {
				t.Error("expected tool error result")
			}
		})
	}
}

func TestGetHistory(t *testing.T) {
	hist := &memHistory{turns: []models.Turn{
		{Role: models.RoleUser, Content: "one"},
		{Role: models.RoleAssistant, Content: "two"},
		{Role: models.RoleUser, Content: "three"},
	}}
	h := NewHandlers(&fakeAsker{}, hist, &fakeDocs{})

	tests := []struct {
		name      string
		limit     interface{}
		wantCount float64
	}{
		{name: "all", limit: nil, wantCount: 3},
		{name: "limited", limit: 2, wantCount: 2},
		{name: "limit above total", limit: 10, wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{}
			if tt.limit != nil {
				args["limit"] = tt.limit
			}
			res, err := h.GetHistory(context.Background(), request(args))
			if err != nil {
				t.Fatal(err)
			}
			out := decode(t, res)
			if out["count"] != tt.wantCount || out["total"] != float64(3) {
				t.Errorf("result = %v", out)
			}
		})
	}
}

func TestGetHistory_ReadFailure(t *testing.T) {
	h := NewHandlers(&fakeAsker{}, &memHistory{readErr: errors.New("corrupt")}, &fakeDocs{})
	res, err := h.GetHistory(context.Background(), request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error result")
	}
}

func TestClearHistory(t *testing.T) {
	hist := &memHistory{turns: []models.Turn{{Role: models.RoleUser, Content: "hi"}}}
	h := NewHandlers(&fakeAsker{}, hist, &fakeDocs{})

	res, err := h.ClearHistory(context.Background(), request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || !hist.cleared {
		t.Errorf("history not cleared: %s", resultText(t, res))
	}
}

func TestSearchDocuments(t *testing.T) {
	docs := &fakeDocs{hits: []models.VectorSearchResult{{
		Chunk:           models.DocumentChunk{ChunkID: "c1", Source: "bio.pdf", Content: "cells"},
		SimilarityScore: 0.9,
	}}}
	h := NewHandlers(&fakeAsker{}, &memHistory{}, docs)

	res, err := h.SearchDocuments(context.Background(), request(map[string]interface{}{"query": "cells"}))
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, res)
	if out["count"] != float64(1) {
		t.Errorf("result = %v", out)
	}
	if docs.k != index.DefaultTopK {
		t.Errorf("k = %d, want %d", docs.k, index.DefaultTopK)
	}
}

func TestSearchDocuments_NoIndex(t *testing.T) {
	h := NewHandlers(&fakeAsker{}, &memHistory{}, &fakeDocs{searchErr: index.ErrNoIndex})

	res, err := h.SearchDocuments(context.Background(), request(map[string]interface{}{"query": "cells"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("missing index should not be a tool error: %s", resultText(t, res))
	}
	if out := decode(t, res); out["count"] != float64(0) {
		t.Errorf("result = %v", out)
	}
}

func TestSearchDocuments_InvalidArgs(t *testing.T) {
	h := NewHandlers(&fakeAsker{}, &memHistory{}, &fakeDocs{})
	for _, args := range []map[string]interface{}{
		{},
		{"query": "x", "max_results": 0},
	} {
		res, err := h.SearchDocuments(context.Background(), request(args))
		if err != nil {
			t.Fatal(err)
		}
		if !res.IsError {
			t.Errorf("args %v: expected tool error", args)
		}
	}
}

func TestRebuildIndex(t *testing.T) {
	docs := &fakeDocs{stats: &index.BuildStats{Documents: 2, Chunks: 7, Duration: time.Second}}
	h := NewHandlers(&fakeAsker{}, &memHistory{}, docs)

	res, err := h.RebuildIndex(context.Background(), request(nil))
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, res)
	if out["documents"] != float64(2) || out["chunks"] != float64(7) {
		t.Errorf("result = %v", out)
	}

	docs.buildErr = errors.New("no text")
	res, err = h.RebuildIndex(context.Background(), request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error result")
	}
}
