// ABOUTME: ChatStrategy answers with the general chat model using conversation memory
// ABOUTME: History read failures degrade to an empty transcript
package core

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/storage"
)

// ChatStrategy prompts the chat model with the stored conversation
type ChatStrategy struct {
	history  storage.HistoryStore
	gen      Generator
	hydrator *ContextHydrator
	logger   *log.Logger
}

// NewChatStrategy creates a ChatStrategy with a transcript budget in characters
func NewChatStrategy(history storage.HistoryStore, gen Generator, budget int, logger *log.Logger) *ChatStrategy {
	return &ChatStrategy{
		history:  history,
		gen:      gen,
		hydrator: NewContextHydrator(budget),
		logger:   loggerOrDefault(logger, "chat"),
	}
}

// Run generates an answer with memory context
func (s *ChatStrategy) Run(ctx context.Context, question string) (Outcome, error) {
	turns, err := s.history.ReadAll()
	if err != nil {
		s.logger.Warn("could not read history, continuing without it", "err", err)
		turns = nil
	}

	text, err := s.gen.Generate(ctx, s.hydrator.HydratePrompt(turns, question))
	if err != nil {
		return Outcome{Source: models.SourceChat}, err
	}

	return Outcome{Result: text, Source: models.SourceChat}, nil
}
