package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driving"
)

var (
	syncMaxItems    int
	syncMaxDuration time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync [source]",
	Short: "Synchronise sources into the search index",
	Long: `Starts or resumes synchronisation from configured sources.
If a source is named (notion, github), only that source is synchronised.
Otherwise, all sources are synchronised in order.

A paused or failed run resumes from its last checkpoint.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncMaxItems, "max-items", 0,
		"pause after processing this many items (0 = no cap)")
	syncCmd.Flags().DurationVar(&syncMaxDuration, "max-duration", 0,
		"pause at the first checkpoint after this long (0 = default cap)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	maxItems := syncMaxItems
	if maxItems == 0 {
		maxItems = defaultMaxItems
	}
	opts := driving.RunOptions{MaxItems: maxItems, MaxDuration: syncMaxDuration}

	if len(args) > 0 {
		sourceType, err := domain.ParseSourceType(args[0])
		if err != nil {
			return err
		}

		// Ctrl-C requests a checkpoint pause rather than killing the
		// run mid-chunk.
		stop := notifyStopOnInterrupt(ctx, sourceType)
		defer stop()

		cmd.Printf("Synchronising %s...\n", sourceType)
		result, err := syncOrchestrator.Run(ctx, sourceType, opts)
		if result != nil {
			printResult(cmd, result)
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		return nil
	}

	cmd.Println("Synchronising all sources...")
	results, err := syncOrchestrator.RunAll(ctx, opts)
	for _, result := range results {
		printResult(cmd, result)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

// notifyStopOnInterrupt converts the first SIGINT/SIGTERM into a stop
// request for the active run. Returns a cleanup func.
func notifyStopOnInterrupt(ctx context.Context, sourceType domain.SourceType) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			_ = syncOrchestrator.RequestStop(ctx, sourceType)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func printResult(cmd *cobra.Command, result *domain.SyncResult) {
	cmd.Printf("%s: %s in %s\n", result.SourceType, describeStatus(result.Status),
		result.Duration.Round(time.Millisecond))
	cmd.Printf("  processed %d  added %d  updated %d  unchanged %d  deleted %d  errors %d\n",
		result.Stats.Processed, result.Stats.Added, result.Stats.Updated,
		result.Stats.Unchanged, result.Stats.Deleted, result.Stats.Errored)
	for _, msg := range result.Errors {
		cmd.Printf("  error: %s\n", msg)
	}
}

func describeStatus(status domain.SyncStatus) string {
	switch status {
	case domain.StatusCompleted:
		return "completed"
	case domain.StatusTimeout:
		return "paused (resumable)"
	case domain.StatusFailed:
		return "failed (resumable)"
	default:
		return string(status)
	}
}
