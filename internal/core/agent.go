// ABOUTME: Agent orchestrates one question through the PDF, chat, and web strategies
// ABOUTME: Records the user and assistant turns and returns the answer with its source label
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/study-agent/internal/llm"
	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/storage"
)

// FallbackAnswer is shown when no strategy produced text
const FallbackAnswer = "I couldn't find an answer"

// MaxAttempts bounds strategy executions per question
const MaxAttempts = 3

// ErrEmptyQuestion is returned for blank input
var ErrEmptyQuestion = errors.New("question cannot be empty")

// AgentConfig wires an Agent's collaborators
type AgentConfig struct {
	Router  *Router
	History storage.HistoryStore
	PDF     Strategy
	Chat    Strategy
	Web     Strategy
	Logger  *log.Logger
}

// Agent answers questions. Calls to Ask are serialized.
type Agent struct {
	mu         sync.Mutex
	router     *Router
	history    storage.HistoryStore
	strategies map[models.Strategy]Strategy
	logger     *log.Logger
}

// NewAgent validates the config and creates an Agent
func NewAgent(cfg AgentConfig) (*Agent, error) {
	if cfg.History == nil {
		return nil, errors.New("history store is required")
	}
	if cfg.PDF == nil || cfg.Chat == nil || cfg.Web == nil {
		return nil, errors.New("pdf, chat, and web strategies are required")
	}
	router := cfg.Router
	if router == nil {
		router = defaultRouter
	}

	return &Agent{
		router:  router,
		history: cfg.History,
		strategies: map[models.Strategy]Strategy{
			models.StrategyPDF:  cfg.PDF,
			models.StrategyChat: cfg.Chat,
			models.StrategyWeb:  cfg.Web,
		},
		logger: loggerOrDefault(cfg.Logger, "agent"),
	}, nil
}

// Ask runs the answer flow for question.
// Strategy and persistence faults degrade the answer; only cancellation is returned.
func (a *Agent) Ask(ctx context.Context, question string) (models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return models.Answer{}, ErrEmptyQuestion
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.appendTurn(models.RoleUser, question)

	state := models.FlowState{Question: question}
	answer := models.Answer{}
	attempted := make(map[models.Strategy]bool)

	var flowErr error
	for len(answer.Attempts) < MaxAttempts {
		next := a.router.Route(question, state)
		a.logger.Debug("route", "from", state.Source, "next", next)
		if next == models.StrategyDone || attempted[next] {
			break
		}
		attempted[next] = true

		outcome, err := a.strategies[next].Run(ctx, question)
		state.Source = outcome.Source
		state.Result = outcome.Result
		answer.Attempts = append(answer.Attempts, outcome.Source)

		if err != nil {
			if isCancellation(ctx, err) {
				flowErr = err
				break
			}
			var genErr *llm.GenerationError
			if errors.As(err, &genErr) {
				a.logger.Warn("generation failed", "strategy", next, "op", genErr.Op, "model", genErr.Model, "err", genErr.Err)
			} else {
				a.logger.Warn("strategy failed", "strategy", next, "err", err)
			}
			state.Result = ""
		}
	}

	a.appendTurn(models.RoleAssistant, state.Result)

	answer.Source = state.Source
	answer.Text = state.Result
	if !state.HasResult() {
		answer.Text = FallbackAnswer
	}

	a.logger.Info("answered", "source", answer.Source, "question", question)

	if flowErr != nil {
		return answer, fmt.Errorf("answer flow interrupted: %w", flowErr)
	}
	return answer, nil
}

// appendTurn persists a turn; failures are logged and never fail the flow
func (a *Agent) appendTurn(role models.Role, content string) {
	turn, err := models.NewTurn(role, content)
	if err != nil {
		a.logger.Warn("could not build turn", "role", role, "err", err)
		return
	}
	err = a.history.Append(*turn)
	switch {
	case errors.Is(err, storage.ErrHistoryReset):
		a.logger.Warn("corrupted history file, starting fresh", "role", role, "err", err)
	case err != nil:
		a.logger.Warn("could not record turn", "role", role, "err", err)
	}
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
