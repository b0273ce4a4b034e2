// ABOUTME: CLI commands to list, clear, and export conversation history
// ABOUTME: Works against whichever history backend is configured
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/storage"
)

var (
	historyLimit  int
	historyOutput string
)

// NewHistoryCmd creates the history command group
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage conversation history",
		Long: `Manage conversation history.

History is what the chat path reads to answer follow-up questions.
The backend is chosen with STUDY_HISTORY_BACKEND (json, sqlite, charm).`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryClearCmd())
	cmd.AddCommand(newHistoryExportCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversation turns",
		Long: `List conversation turns, oldest first.

Examples:
  study history list
  study history list --limit 10
  study history list --format json`,
		Args: cobra.NoArgs,
		RunE: runHistoryList,
	}

	cmd.Flags().IntVar(&historyLimit, "limit", 0, "Show only the most recent N turns (0 for all)")

	return cmd
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", historyLimit)
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	turns, err := a.history.ReadAll()
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if historyLimit > 0 && historyLimit < len(turns) {
		turns = turns[len(turns)-historyLimit:]
	}

	return printTurns(cmd.OutOrStdout(), turns)
}

// printTurns writes turns in the selected output format
func printTurns(w io.Writer, turns []models.Turn) error {
	if len(turns) == 0 {
		if !quiet {
			fmt.Fprintln(w, "No conversation yet")
		}
		return nil
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(turns, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(w, "%s\n", data)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "WHEN\tROLE\tMESSAGE\n")
	fmt.Fprintf(tw, "----\t----\t-------\n")
	for _, t := range turns {
		when := "-"
		if !t.CreatedAt.IsZero() {
			when = formatTime(t.CreatedAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", when, t.Role, truncate(oneLine(t.Content), 70))
	}
	_ = tw.Flush()

	if !quiet {
		fmt.Fprintf(w, "\n%d turn(s)\n", len(turns))
	}
	return nil
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all conversation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.history.Clear(); err != nil {
				return fmt.Errorf("clearing history: %w", err)
			}
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			}
			return nil
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export conversation history",
		Long: `Export conversation history as JSON, YAML, or Markdown.

The global --format flag picks the format; auto means JSON.

Examples:
  study history export
  study history export --format yaml -o history.yaml
  study history export --format markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryExport,
	}

	cmd.Flags().StringVarP(&historyOutput, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return exportHistory(cmd.OutOrStdout(), a.history, historyOutput, exportFormat(outputFormat))
}

// exportFormat maps the global --format value onto an export format
func exportFormat(format string) string {
	if format == "" || format == "auto" {
		return storage.FormatJSON
	}
	return format
}

func exportHistory(stdout io.Writer, store storage.HistoryStore, path, format string) error {
	if path == "" {
		return storage.WriteExport(stdout, store, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := storage.WriteExport(f, store, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	if !quiet {
		fmt.Fprintf(stdout, "Exported history to %s\n", path)
	}
	return nil
}
