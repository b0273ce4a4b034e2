// ABOUTME: Root command, global flags, and the shared logger
// ABOUTME: Every subcommand hangs off NewRootCmd
package commands

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
)

const banner = `
 ███████╗████████╗██╗   ██╗██████╗ ██╗   ██╗
 ██╔════╝╚══██╔══╝██║   ██║██╔══██╗╚██╗ ██╔╝
 ███████╗   ██║   ██║   ██║██║  ██║ ╚████╔╝
 ╚════██║   ██║   ██║   ██║██║  ██║  ╚██╔╝
 ███████║   ██║   ╚██████╔╝██████╔╝   ██║
 ╚══════╝   ╚═╝    ╚═════╝ ╚═════╝    ╚═╝
`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Study assistant that answers from your PDFs, your chat, and the web",
		Long: banner + `
Ask questions about your study material. Each question is answered
from your uploaded PDFs when possible, then from the conversation so
far, and finally from a web search. Every answer shows its source.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return errors.New("--verbose and --quiet cannot be used together")
			}
			logger.SetOutput(cmd.ErrOrStderr())
			setLogLevel("")
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format (auto, json)")

	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// setLogLevel applies the configured level. Flags win over configuration.
func setLogLevel(configured string) {
	level := log.InfoLevel
	if configured != "" {
		if parsed, err := log.ParseLevel(configured); err == nil {
			level = parsed
		}
	}
	switch {
	case verbose:
		level = log.DebugLevel
	case quiet:
		level = log.ErrorLevel
	}
	logger.SetLevel(level)
}
