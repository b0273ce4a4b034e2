// ABOUTME: FlowState is the per-question working record threaded through the router
// ABOUTME: Answer is what the orchestrator hands back to callers
package models

import "strings"

// FlowState carries the question and the latest strategy outcome.
// It is created fresh per question and never persisted.
type FlowState struct {
	Question string
	Result   string
	Source   Source
}

// HasResult reports whether the last strategy produced usable text.
// Blank output counts as absent.
func (f FlowState) HasResult() bool {
	return strings.TrimSpace(f.Result) != ""
}

// Answer is the final (text, source label) pair plus the attempt trail
type Answer struct {
	Text     string   `json:"answer"`
	Source   Source   `json:"source"`
	Attempts []Source `json:"attempts"`
}
