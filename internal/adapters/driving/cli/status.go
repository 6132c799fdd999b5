package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [source]",
	Short: "Show sync state per source",
	Long: `Shows the persisted sync state of each configured source: lifecycle
status, accumulated counters, and whether an interrupted run can resume.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var states []*domain.SyncState
	if len(args) > 0 {
		sourceType, err := domain.ParseSourceType(args[0])
		if err != nil {
			return err
		}
		state, err := syncOrchestrator.State(ctx, sourceType)
		if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}
		states = append(states, state)
	} else {
		var err error
		states, err = syncOrchestrator.ListStates(ctx)
		if err != nil {
			return fmt.Errorf("failed to list states: %w", err)
		}
	}

	for i, state := range states {
		if i > 0 {
			cmd.Println()
		}
		printState(cmd, state)
	}

	return nil
}

func printState(cmd *cobra.Command, state *domain.SyncState) {
	cmd.Printf("[%s]\n", state.SourceType)
	cmd.Printf("  Status: %s\n", state.Status)

	if state.CanResume() {
		cmd.Printf("  Resumable: yes (run started %s)\n",
			state.RunStartedAt.Format(time.RFC3339))
	}
	if state.StopRequested {
		cmd.Println("  Stop requested: pausing at next checkpoint")
	}

	s := state.Stats
	if s.Processed > 0 || s.Deleted > 0 {
		cmd.Printf("  Progress: processed %d  added %d  updated %d  unchanged %d  deleted %d  errors %d\n",
			s.Processed, s.Added, s.Updated, s.Unchanged, s.Deleted, s.Errored)
	}

	if !state.LastSyncAt.IsZero() {
		cmd.Printf("  Last completed: %s\n", state.LastSyncAt.Format(time.RFC3339))
	}
	if state.LastError != "" {
		cmd.Printf("  Last error: %s\n", state.LastError)
	}
}
