package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

var resetCmd = &cobra.Command{
	Use:   "reset <source>",
	Short: "Discard a source's sync state",
	Long: `Discards the cursor and run state for a source, returning it to idle.
Synced records and uploaded artifacts are kept; the next sync walks the
source from the beginning and reconciles against them.`,
	Args: cobra.ExactArgs(1),
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	sourceType, err := domain.ParseSourceType(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := syncOrchestrator.Reset(ctx, sourceType); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}

	cmd.Printf("Sync state for %s reset. The next sync starts from the beginning.\n", sourceType)
	return nil
}
