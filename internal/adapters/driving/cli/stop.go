package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

var stopCmd = &cobra.Command{
	Use:   "stop <source>",
	Short: "Request a running sync to pause",
	Long: `Asks the active sync for a source to pause at its next checkpoint.
The run keeps its cursor and can be resumed with 'knowledge-sync sync'.
The request also reaches a sync running in another process.`,
	Args: cobra.ExactArgs(1),
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
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

	if err := syncOrchestrator.RequestStop(ctx, sourceType); err != nil {
		return fmt.Errorf("failed to request stop: %w", err)
	}

	cmd.Printf("Stop requested for %s. The run will pause at its next checkpoint.\n", sourceType)
	return nil
}
