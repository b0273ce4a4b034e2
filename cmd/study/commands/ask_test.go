// ABOUTME: Tests for ask, chat, and index commands that run before any network call
// ABOUTME: Covers argument validation, missing API keys, and answer printing
package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/harper/study-agent/internal/models"
)

func TestCommands_RequireAPIKey(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"ask", []string{"ask", "What is DNA?"}},
		{"index build", []string{"index", "build"}},
		{"index search", []string{"index", "search", "dna"}},
		{"index stats", []string{"index", "stats"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHistory(t)
			t.Setenv("OPENAI_API_KEY", "")

			_, err := runRoot(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
				t.Errorf("error = %v, want missing API key", err)
			}
		})
	}
}

func TestCommands_Args(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"ask without question", []string{"ask"}},
		{"ask blank question", []string{"ask", "   "}},
		{"chat with args", []string{"chat", "extra"}},
		{"index search without query", []string{"index", "search"}},
		{"index search bad limit", []string{"index", "search", "--limit", "0", "dna"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHistory(t)
			if _, err := runRoot(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPrintAnswer(t *testing.T) {
	answer := models.Answer{
		Text:     "Mitochondria.",
		Source:   models.SourcePDF,
		Attempts: []models.Source{models.SourcePDF},
	}

	tests := []struct {
		format string
		want   []string
	}{
		{"auto", []string{"Mitochondria.", "📌 Source: pdf"}},
		{"json", []string{`"answer": "Mitochondria."`, `"source": "pdf"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			original := outputFormat
			defer func() { outputFormat = original }()
			outputFormat = tt.format

			var out bytes.Buffer
			if err := printAnswer(&out, answer); err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestNewIndexCmd(t *testing.T) {
	cmd := NewIndexCmd()

	want := map[string]bool{"build": false, "search <query>": false, "stats": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Use]; ok {
			want[sub.Use] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Subcommand %q not found", name)
		}
	}

	build, _, err := cmd.Find([]string{"build"})
	if err != nil {
		t.Fatal(err)
	}
	for _, flag := range []string{"dir", "watch", "from", "debounce"} {
		if build.Flags().Lookup(flag) == nil {
			t.Errorf("build: --%s flag not found", flag)
		}
	}
}

func TestExportFormat(t *testing.T) {
	tests := map[string]string{"": "json", "auto": "json", "yaml": "yaml", "markdown": "markdown"}
	for in, want := range tests {
		if got := exportFormat(in); got != want {
			t.Errorf("exportFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
