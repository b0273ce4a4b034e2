// ABOUTME: CLI command to answer one question
// ABOUTME: Prints the answer and the source that produced it
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/tui"
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question",
		Long: `Answer a single question.

Tries your indexed PDFs first, then the conversation so far, then a
web search. Questions about recent events go straight to the web.
The question and answer are added to your history.

Examples:
  study ask "What is photosynthesis?"
  study ask "latest news on the Mars mission"
  study ask --format json "Define entropy"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	answer, err := a.agent.Ask(ctx, question)
	if err != nil {
		return err
	}

	return printAnswer(cmd.OutOrStdout(), answer)
}

// printAnswer writes an answer in the selected output format
func printAnswer(w io.Writer, answer models.Answer) error {
	if outputFormat == "json" {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(w, "%s\n", data)
		return nil
	}

	fmt.Fprintln(w, answer.Text)
	fmt.Fprintf(w, "\n%s %s\n", tui.SourcePrefix, answer.Source)
	return nil
}
