// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents ask study questions and manage the index over stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/study-agent/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the study agent as an MCP (Model Context Protocol) server,
letting LLM clients ask questions, read history, and search your
PDFs via stdio.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  study mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "study": {
  #       "command": "study",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// stdout carries the protocol
	logger.SetOutput(os.Stderr)

	server := mcpserver.NewMCPServer("Study Agent", versionInfo.Version)
	mcp.RegisterTools(server, a.agent, a.history, a.docs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	}
}
