// ABOUTME: Turn represents a single persisted message in the study conversation
// ABOUTME: Role-tagged (user or assistant), appended in strict chronological order
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Label returns the transcript label used when rendering history
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

// Turn represents one message in the persisted history.
// The JSON layout stays compatible with plain [{role, content}] history files.
type Turn struct {
	TurnID    string    `json:"turn_id,omitempty" yaml:"turn_id,omitempty"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
}

// NewTurn creates a new Turn with validation.
// User turns must carry text; assistant turns may be empty (a failed answer).
func NewTurn(role Role, content string) (*Turn, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if role == RoleUser && strings.TrimSpace(content) == "" {
		return nil, errors.New("user message cannot be empty")
	}
	return &Turn{
		TurnID:    generateTurnID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// generateTurnID generates a unique turn identifier
func generateTurnID() string {
	return fmt.Sprintf("turn_%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}
