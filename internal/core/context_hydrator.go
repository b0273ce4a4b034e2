// ABOUTME: ContextHydrator renders stored history into the memory-aware chat prompt
// ABOUTME: Enforces a character budget by dropping the oldest turns first
package core

import (
	"strings"

	"github.com/harper/study-agent/internal/models"
)

// DefaultHistoryBudget is the transcript size limit in characters
const DefaultHistoryBudget = 12000

// ContextHydrator assembles chat prompts from conversation history
type ContextHydrator struct {
	budget int
}

// NewContextHydrator creates a ContextHydrator. A non-positive budget uses DefaultHistoryBudget.
func NewContextHydrator(budget int) *ContextHydrator {
	if budget <= 0 {
		budget = DefaultHistoryBudget
	}
	return &ContextHydrator{budget: budget}
}

// HydratePrompt builds the full chat prompt for question from history (oldest first)
func (ch *ContextHydrator) HydratePrompt(history []models.Turn, question string) string {
	return BuildMemoryPrompt(ch.Transcript(history, question), question)
}

// Transcript renders history as "User:" / "Assistant:" lines.
// A trailing user turn repeating the question is skipped since the prompt restates it.
func (ch *ContextHydrator) Transcript(history []models.Turn, question string) string {
	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Role == models.RoleUser && strings.TrimSpace(last.Content) == strings.TrimSpace(question) {
			history = history[:n-1]
		}
	}

	lines := make([]string, 0, len(history))
	for _, turn := range history {
		if !turn.Role.IsValid() {
			continue
		}
		lines = append(lines, turn.Role.Label()+": "+turn.Content+"\n")
	}

	return ch.limitChars(lines)
}

// limitChars keeps the newest lines that fit the budget
func (ch *ContextHydrator) limitChars(lines []string) string {
	total := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		if total+len(lines[i]) > ch.budget {
			break
		}
		total += len(lines[i])
		start = i
	}
	return strings.Join(lines[start:], "")
}
