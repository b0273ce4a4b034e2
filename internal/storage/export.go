// ABOUTME: Export functionality for conversation history
// ABOUTME: Supports JSON, YAML, and Markdown export formats
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/study-agent/internal/models"
)

// Export formats
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// ExportData represents the complete exportable history
type ExportData struct {
	Version    string       `yaml:"version" json:"version"`
	ExportedAt string       `yaml:"exported_at" json:"exported_at"`
	Tool       string       `yaml:"tool" json:"tool"`
	Turns      []ExportTurn `yaml:"turns" json:"turns"`
}

// ExportTurn represents a turn for export
type ExportTurn struct {
	TurnID    string `yaml:"turn_id,omitempty" json:"turn_id,omitempty"`
	Role      string `yaml:"role" json:"role"`
	Content   string `yaml:"content" json:"content"`
	Timestamp string `yaml:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// Export collects all turns from store
func Export(store HistoryStore) (*ExportData, error) {
	turns, err := store.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "study",
		Turns:      make([]ExportTurn, 0, len(turns)),
	}

	for _, turn := range turns {
		et := ExportTurn{
			TurnID:  turn.TurnID,
			Role:    string(turn.Role),
			Content: turn.Content,
		}
		if !turn.CreatedAt.IsZero() {
			et.Timestamp = turn.CreatedAt.Format(time.RFC3339)
		}
		data.Turns = append(data.Turns, et)
	}

	return data, nil
}

// WriteExport writes store's history to w in the given format
func WriteExport(w io.Writer, store HistoryStore, format string) error {
	data, err := Export(store)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case FormatMarkdown, "md":
		writeMarkdown(w, data)
	default:
		return fmt.Errorf("unsupported export format %q (use json, yaml, or markdown)", format)
	}
	return nil
}

func writeMarkdown(w io.Writer, data *ExportData) {
	_, _ = fmt.Fprintf(w, "# Study History Export - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	if len(data.Turns) == 0 {
		_, _ = fmt.Fprintln(w, "_No conversation yet._")
		return
	}

	_, _ = fmt.Fprintln(w, "## Conversation")
	_, _ = fmt.Fprintln(w)
	for _, turn := range data.Turns {
		label := models.Role(turn.Role).Label()
		if turn.Content == "" {
			_, _ = fmt.Fprintf(w, "**%s:** _(no answer)_\n\n", label)
			continue
		}
		_, _ = fmt.Fprintf(w, "**%s:** %s\n\n", label, turn.Content)
	}
}
