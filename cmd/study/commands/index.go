// ABOUTME: CLI commands to build, watch, inspect, and search the document index
// ABOUTME: Rebuilds replace the live index atomically so readers never see a partial file
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/study-agent/internal/index"
	"github.com/harper/study-agent/internal/ingest"
)

var (
	indexDir      string
	indexWatch    bool
	indexFrom     []string
	indexLimit    int
	indexDebounce = ingest.DefaultDebounce
)

// NewIndexCmd creates the index command group
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the PDF document index",
		Long: `Manage the PDF document index.

The index holds embedded chunks of every PDF in your PDF directory.
Questions are answered from it before falling back to chat or the web.`,
	}

	cmd.AddCommand(newIndexBuildCmd())
	cmd.AddCommand(newIndexSearchCmd())
	cmd.AddCommand(newIndexStatsCmd())

	return cmd
}

func newIndexBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild the index from the PDF directory",
		Long: `Rebuild the index from the PDF directory.

With --from, the PDF directory is emptied and the given files are
copied in first. With --watch, the index is rebuilt whenever a PDF in
the directory is added, changed, or removed.

Examples:
  study index build
  study index build --from notes.pdf slides.pdf
  study index build --watch`,
		Args: cobra.NoArgs,
		RunE: runIndexBuild,
	}

	cmd.Flags().StringVar(&indexDir, "dir", "", "PDF directory (default: STUDY_PDF_DIR)")
	cmd.Flags().BoolVar(&indexWatch, "watch", false, "Rebuild when PDFs change")
	cmd.Flags().StringSliceVar(&indexFrom, "from", nil, "Replace the PDF directory with these files before building")
	cmd.Flags().DurationVar(&indexDebounce, "debounce", ingest.DefaultDebounce, "Quiet period before a watched rebuild")

	return cmd
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	_, docs, err := openDocuments(indexDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stats *index.BuildStats
	if len(indexFrom) > 0 {
		stats, err = docs.ReplaceAndRebuild(ctx, indexFrom)
	} else {
		stats, err = docs.Rebuild(ctx)
	}
	if err != nil && !(indexWatch && errors.Is(err, ingest.ErrNoText)) {
		return buildError(err)
	}
	if stats != nil {
		printBuildStats(cmd, stats)
	}

	if !indexWatch {
		return nil
	}
	return watchAndRebuild(ctx, cmd, docs)
}

// watchAndRebuild rebuilds after each debounced change until ctx ends
func watchAndRebuild(ctx context.Context, cmd *cobra.Command, docs *index.Service) error {
	watcher, err := ingest.NewWatcher(indexDebounce, logger)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	changes, err := watcher.Changes(ctx, docs.PDFDir())
	if err != nil {
		return err
	}

	logger.Info("watching for pdf changes", "dir", docs.PDFDir())
	for range changes {
		stats, err := docs.Rebuild(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("rebuild failed", "err", buildError(err))
			continue
		}
		printBuildStats(cmd, stats)
	}
	return nil
}

func buildError(err error) error {
	if errors.Is(err, ingest.ErrNoText) {
		return fmt.Errorf("no text could be extracted from the PDFs; they may be scanned images: %w", err)
	}
	return fmt.Errorf("index build failed: %w", err)
}

func printBuildStats(cmd *cobra.Command, stats *index.BuildStats) {
	for _, s := range stats.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", s.Path, s.Err)
	}
	if quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunk(s) from %d PDF(s) in %s\n",
		stats.Chunks, stats.Documents, stats.Duration.Round(time.Millisecond))
}

func newIndexSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the chunks the index returns for a query",
		Long: `Show the chunks the index returns for a query.

Prints similarity score, source file, and a preview of each chunk.

Examples:
  study index search "cell membrane"
  study index search --limit 10 --format json "enzymes"`,
		Args: cobra.ExactArgs(1),
		RunE: runIndexSearch,
	}

	cmd.Flags().IntVar(&indexLimit, "limit", index.DefaultTopK, "Maximum chunks to return")

	return cmd
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(indexLimit, "limit"); err != nil {
		return err
	}

	_, docs, err := openDocuments("")
	if err != nil {
		return err
	}

	query := args[0]
	hits, err := docs.SearchDocuments(cmd.Context(), query, indexLimit)
	if errors.Is(err, index.ErrNoIndex) {
		return fmt.Errorf("no index yet; run 'study index build' first")
	}
	if err != nil {
		return fmt.Errorf("searching index: %w", err)
	}

	if len(hits) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No chunks matched: %s\n", query)
		}
		return nil
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tSOURCE\tPOS\tPREVIEW\n")
	fmt.Fprintf(w, "-----\t------\t---\t-------\n")
	for _, hit := range hits {
		fmt.Fprintf(w, "%.3f\t%s\t%d\t%s\n",
			hit.SimilarityScore,
			truncate(hit.Chunk.Source, 30),
			hit.Chunk.Position,
			truncate(oneLine(hit.Chunk.Content), 60))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d chunk(s)\n", len(hits))
	}
	return nil
}

func newIndexStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the index contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, docs, err := openDocuments("")
			if err != nil {
				return err
			}

			stats, err := docs.Stats()
			if errors.Is(err, index.ErrNoIndex) {
				fmt.Fprintln(cmd.OutOrStdout(), "No index yet; run 'study index build' first")
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading index: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chunks: %d\n", stats.Chunks)
			fmt.Fprintf(out, "Embedding model: %s\n", stats.EmbeddingModel)
			fmt.Fprintf(out, "Built: %s\n", stats.BuiltAt)

			sources := make([]string, 0, len(stats.Sources))
			for s := range stats.Sources {
				sources = append(sources, s)
			}
			sort.Strings(sources)
			for _, s := range sources {
				fmt.Fprintf(out, "  %s (%d chunks)\n", s, stats.Sources[s])
			}
			return nil
		},
	}
}
