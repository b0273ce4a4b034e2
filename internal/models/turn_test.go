// ABOUTME: Tests for Turn model creation and validation
// ABOUTME: Verifies NewTurn constructor, roles, and JSON layout
package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewTurn(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		content string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid user turn",
			role:    RoleUser,
			content: "What is photosynthesis?",
		},
		{
			name:    "valid assistant turn",
			role:    RoleAssistant,
			content: "Plants turn light into chemical energy.",
		},
		{
			name:    "assistant turn may be empty",
			role:    RoleAssistant,
			content: "",
		},
		{
			name:    "empty user message",
			role:    RoleUser,
			content: "",
			wantErr: true,
			errMsg:  "user message cannot be empty",
		},
		{
			name:    "whitespace-only user message",
			role:    RoleUser,
			content: "   \t\n  ",
			wantErr: true,
			errMsg:  "user message cannot be empty",
		},
		{
			name:    "unknown role",
			role:    Role("system"),
			content: "hi",
			wantErr: true,
			errMsg:  "invalid role",
		},
		{
			name:    "unicode content",
			role:    RoleUser,
			content: "Hello 世界",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn, err := NewTurn(tt.role, tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewTurn() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("NewTurn() error = %q, want containing %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTurn() unexpected error = %v", err)
			}
			if turn.Role != tt.role {
				t.Errorf("Role = %q, want %q", turn.Role, tt.role)
			}
			if turn.Content != tt.content {
				t.Errorf("Content = %q, want %q", turn.Content, tt.content)
			}
			if !strings.HasPrefix(turn.TurnID, "turn_") {
				t.Errorf("TurnID = %q, want turn_ prefix", turn.TurnID)
			}
			if turn.CreatedAt.IsZero() {
				t.Error("CreatedAt should be set")
			}
		})
	}
}

func TestNewTurn_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		turn, err := NewTurn(RoleUser, "question")
		if err != nil {
			t.Fatalf("NewTurn() error = %v", err)
		}
		if seen[turn.TurnID] {
			t.Fatalf("duplicate TurnID %q", turn.TurnID)
		}
		seen[turn.TurnID] = true
	}
}

func TestRole_Label(t *testing.T) {
	if RoleUser.Label() != "User" {
		t.Errorf("RoleUser.Label() = %q, want User", RoleUser.Label())
	}
	if RoleAssistant.Label() != "Assistant" {
		t.Errorf("RoleAssistant.Label() = %q, want Assistant", RoleAssistant.Label())
	}
}

func TestTurn_DecodesPlainHistoryLayout(t *testing.T) {
	data := []byte(`[{"role": "user", "content": "hi"}, {"role": "assistant", "content": ""}]`)

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "hi" {
		t.Errorf("turns[0] = %+v", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "" {
		t.Errorf("turns[1] = %+v", turns[1])
	}
}

func TestTurn_EncodeOmitsZeroTimestamp(t *testing.T) {
	data, err := json.Marshal(Turn{Role: RoleUser, Content: "hi"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "created_at") {
		t.Errorf("Marshal() = %s, want no created_at", data)
	}
}
