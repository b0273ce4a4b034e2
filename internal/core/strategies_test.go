// ABOUTME: Tests for the PDF, web, and chat strategies
// ABOUTME: Verifies outcomes, prompt contents, and degradation paths
package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/study-agent/internal/index"
	"github.com/harper/study-agent/internal/models"
)

func loaderFor(r Retriever, err error) IndexLoader {
	return IndexLoaderFunc(func() (Retriever, error) {
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

func TestPDFStrategy_NoIndex(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	s := NewPDFStrategy(loaderFor(nil, index.ErrNoIndex), gen, "", 0, nil)

	out, err := s.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Source != models.SourceNoPDF || out.Result != "" {
		t.Errorf("outcome = %+v, want no_pdf", out)
	}
	if gen.calls() != 0 {
		t.Error("generator should not be called without an index")
	}
}

func TestPDFStrategy_LoadFailureIsNoPDF(t *testing.T) {
	s := NewPDFStrategy(loaderFor(nil, errors.New("disk")), &fakeGenerator{}, "", 0, nil)
	out, err := s.Run(context.Background(), "q")
	if err != nil || out.Source != models.SourceNoPDF {
		t.Errorf("Run() = %+v, %v; want no_pdf", out, err)
	}
}

func TestPDFStrategy_NoMatch(t *testing.T) {
	r := &fakeRetriever{}
	s := NewPDFStrategy(loaderFor(r, nil), &fakeGenerator{}, "", 0, nil)

	out, err := s.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Source != models.SourceNoPDFMatch {
		t.Errorf("Source = %q, want no_pdf_match", out.Source)
	}
	if !r.closed {
		t.Error("retriever handle should be closed")
	}
}

func TestPDFStrategy_RetrieveErrorIsNoMatch(t *testing.T) {
	r := &fakeRetriever{err: errors.New("embed failed")}
	gen := &fakeGenerator{}
	s := NewPDFStrategy(loaderFor(r, nil), gen, "", 0, nil)
	out, err := s.Run(context.Background(), "q")
	if err != nil || out.Source != models.SourceNoPDFMatch || out.Result != "" {
		t.Errorf("Run() = %+v, %v; want no_pdf_match", out, err)
	}
	if gen.calls() != 0 {
		t.Errorf("generator called %d times after a failed retrieval", gen.calls())
	}
	if !r.closed {
		t.Error("retriever handle should be closed")
	}
}

func TestPDFStrategy_UsesTopThreeChunks(t *testing.T) {
	r := &fakeRetriever{chunks: []models.DocumentChunk{
		{Content: "alpha"}, {Content: "beta"}, {Content: "gamma"}, {Content: "delta"},
	}}
	gen := &fakeGenerator{reply: "Osmosis is water diffusion."}
	s := NewPDFStrategy(loaderFor(r, nil), gen, "", 0, nil)

	out, err := s.Run(context.Background(), "what is osmosis")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Source != models.SourcePDF || out.Result != "Osmosis is water diffusion." {
		t.Errorf("outcome = %+v", out)
	}

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "alpha\n\nbeta\n\ngamma") {
		t.Errorf("prompt missing joined context:\n%s", prompt)
	}
	if strings.Contains(prompt, "delta") {
		t.Error("prompt should contain only the top 3 chunks")
	}
	if !strings.Contains(prompt, DefaultNotFoundSentinel) || !strings.Contains(prompt, "Question: what is osmosis") {
		t.Errorf("prompt missing sentinel or question:\n%s", prompt)
	}
}

func TestPDFStrategy_GenerationError(t *testing.T) {
	r := &fakeRetriever{chunks: []models.DocumentChunk{{Content: "alpha"}}}
	s := NewPDFStrategy(loaderFor(r, nil), &fakeGenerator{err: genErr()}, "", 0, nil)

	out, err := s.Run(context.Background(), "q")
	if err == nil {
		t.Fatal("expected generation error")
	}
	if out.Source != models.SourcePDF || out.Result != "" {
		t.Errorf("outcome = %+v, want empty pdf", out)
	}
}

func TestWebStrategy(t *testing.T) {
	tests := []struct {
		name       string
		search     *fakeSearch
		wantResult string
		wantGen    bool
	}{
		{"no results", &fakeSearch{}, NoWebResultsMessage, false},
		{"provider failure", &fakeSearch{err: errors.New("timeout")}, NoWebResultsMessage, false},
		{"no snippets", &fakeSearch{results: []models.SearchResult{{Title: "A"}, {Title: "B"}}}, NoWebContentMessage, false},
		{"summarized", &fakeSearch{results: []models.SearchResult{{Title: "A"}, {Title: "B", Snippet: "x"}}}, "summary", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "  summary \n"}
			s := NewWebStrategy(tt.search, gen, 0, nil)

			out, err := s.Run(context.Background(), "neet exam date")
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if out.Source != models.SourceWeb || out.Result != tt.wantResult {
				t.Errorf("outcome = %+v, want %q", out, tt.wantResult)
			}
			if (gen.calls() > 0) != tt.wantGen {
				t.Errorf("generator called = %v, want %v", gen.calls() > 0, tt.wantGen)
			}
			if tt.search.limit != DefaultWebResults {
				t.Errorf("limit = %d, want %d", tt.search.limit, DefaultWebResults)
			}
		})
	}
}

func TestWebStrategy_PromptContainsSnippets(t *testing.T) {
	search := &fakeSearch{results: []models.SearchResult{
		{Title: "NEET", Snippet: "May 3"},
		{Title: "Skip"},
		{Title: "JEE", Snippet: "April"},
	}}
	gen := &fakeGenerator{reply: "ok"}
	_, _ = NewWebStrategy(search, gen, 4, nil).Run(context.Background(), "exam dates")

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "NEET: May 3\n\nJEE: April") {
		t.Errorf("prompt missing snippets:\n%s", prompt)
	}
	if strings.Contains(prompt, "Skip") {
		t.Error("results without snippets should be dropped")
	}
	if !strings.Contains(prompt, "Date not mentioned in the sources.") {
		t.Error("prompt missing tutor instructions")
	}
}

func TestWebStrategy_GenerationError(t *testing.T) {
	search := &fakeSearch{results: []models.SearchResult{{Title: "A", Snippet: "x"}}}
	out, err := NewWebStrategy(search, &fakeGenerator{err: genErr()}, 0, nil).Run(context.Background(), "q")
	if err == nil || out.Source != models.SourceWeb || out.Result != "" {
		t.Errorf("Run() = %+v, %v", out, err)
	}
}

func TestChatStrategy_UsesHistory(t *testing.T) {
	history := &memHistory{turns: []models.Turn{
		{Role: models.RoleUser, Content: "my name is Asha"},
		{Role: models.RoleAssistant, Content: "Hi Asha"},
		{Role: models.RoleUser, Content: "what is my name"},
	}}
	gen := &fakeGenerator{reply: "Asha"}
	s := NewChatStrategy(history, gen, 0, nil)

	out, err := s.Run(context.Background(), "what is my name")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Source != models.SourceChat || out.Result != "Asha" {
		t.Errorf("outcome = %+v", out)
	}

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "User: my name is Asha\nAssistant: Hi Asha\n") {
		t.Errorf("prompt missing transcript:\n%s", prompt)
	}
	if strings.Count(prompt, "what is my name") != 1 {
		t.Errorf("current question should appear once:\n%s", prompt)
	}
}

func TestChatStrategy_HistoryReadFailure(t *testing.T) {
	history := &memHistory{readErr: errors.New("corrupt")}
	gen := &fakeGenerator{reply: "fine"}
	out, err := NewChatStrategy(history, gen, 0, nil).Run(context.Background(), "q")
	if err != nil || out.Result != "fine" {
		t.Errorf("Run() = %+v, %v; want answer without history", out, err)
	}
}
