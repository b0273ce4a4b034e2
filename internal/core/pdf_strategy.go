// ABOUTME: PDFStrategy answers from the uploaded documents via retrieval-augmented generation
// ABOUTME: Reports no_pdf / no_pdf_match when there is nothing to ground an answer on
package core

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/study-agent/internal/index"
	"github.com/harper/study-agent/internal/models"
)

// DefaultTopK is how many ranked chunks go into the document prompt
const DefaultTopK = 3

// PDFStrategy retrieves document chunks and asks the document model to answer from them
type PDFStrategy struct {
	loader   IndexLoader
	gen      Generator
	sentinel string
	topK     int
	logger   *log.Logger
}

// NewPDFStrategy creates a PDFStrategy. A non-positive topK uses DefaultTopK.
func NewPDFStrategy(loader IndexLoader, gen Generator, sentinel string, topK int, logger *log.Logger) *PDFStrategy {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if sentinel == "" {
		sentinel = DefaultNotFoundSentinel
	}
	return &PDFStrategy{
		loader:   loader,
		gen:      gen,
		sentinel: sentinel,
		topK:     topK,
		logger:   loggerOrDefault(logger, "pdf"),
	}
}

// Run loads the current index, retrieves, and generates.
// The index is loaded per call so a rebuild is picked up by the next question.
func (s *PDFStrategy) Run(ctx context.Context, question string) (Outcome, error) {
	retriever, err := s.loader.Load()
	if err != nil {
		if !errors.Is(err, index.ErrNoIndex) {
			s.logger.Warn("could not load document index", "err", err)
		}
		return Outcome{Source: models.SourceNoPDF}, nil
	}
	if closer, ok := retriever.(io.Closer); ok {
		defer closer.Close()
	}

	chunks, err := retriever.Retrieve(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Source: models.SourceNoPDF}, ctx.Err()
		}
		s.logger.Warn("retrieval failed, treating as no match", "err", err)
		return Outcome{Source: models.SourceNoPDFMatch}, nil
	}
	if len(chunks) == 0 {
		return Outcome{Source: models.SourceNoPDFMatch}, nil
	}

	if len(chunks) > s.topK {
		chunks = chunks[:s.topK]
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		s.logger.Debug("retrieved chunk", "source", c.Source, "position", c.Position, "score", c.Score)
		texts[i] = c.Content
	}

	prompt := BuildRAGPrompt(s.sentinel, strings.Join(texts, "\n\n"), question)
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return Outcome{Source: models.SourcePDF}, err
	}

	return Outcome{Result: text, Source: models.SourcePDF}, nil
}
