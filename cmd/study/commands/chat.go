// ABOUTME: CLI command for the interactive chat surface
// ABOUTME: Runs the Bubble Tea program against the wired agent
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harper/study-agent/internal/tui"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive study chat",
		Long: `Start an interactive study chat.

Shows your previous conversation, then answers each question you type
along with the source it came from. Press ctrl+l to clear history and
ctrl+c to quit.`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Keep logs off the alternate screen
	if !verbose {
		logger.SetOutput(io.Discard)
	}

	program := tea.NewProgram(tui.New(ctx, a.agent, a.history), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat exited: %w", err)
	}
	return nil
}
