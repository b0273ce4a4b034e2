// ABOUTME: Test doubles for the answer flow collaborators
// ABOUTME: Scripted generators, retrievers, search providers, and an in-memory history
package core

import (
	"context"
	"errors"
	"sync"

	"github.com/harper/study-agent/internal/llm"
	"github.com/harper/study-agent/internal/models"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func genErr() error {
	return &llm.GenerationError{Op: "complete", Model: "m", Err: errors.New("503")}
}

type fakeRetriever struct {
	chunks []models.DocumentChunk
	err    error
	closed bool
}

func (r *fakeRetriever) Retrieve(context.Context, string) ([]models.DocumentChunk, error) {
	return r.chunks, r.err
}

func (r *fakeRetriever) Close() error {
	r.closed = true
	return nil
}

type fakeSearch struct {
	results []models.SearchResult
	err     error
	limit   int
	calls   int
}

func (s *fakeSearch) Search(_ context.Context, _ string, limit int) ([]models.SearchResult, error) {
	s.calls++
	s.limit = limit
	return s.results, s.err
}

type memHistory struct {
	mu        sync.Mutex
	turns     []models.Turn
	appendErr error
	readErr   error
}

func (h *memHistory) Append(turn models.Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	h.turns = append(h.turns, turn)
	return nil
}

func (h *memHistory) ReadAll() ([]models.Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.readErr != nil {
		return nil, h.readErr
	}
	return append([]models.Turn(nil), h.turns...), nil
}

func (h *memHistory) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
	return nil
}

// stubStrategy returns a fixed outcome and counts runs
type stubStrategy struct {
	outcome Outcome
	err     error
	runs    int
	hook    func()
}

func (s *stubStrategy) Run(context.Context, string) (Outcome, error) {
	s.runs++
	if s.hook != nil {
		s.hook()
	}
	return s.outcome, s.err
}
