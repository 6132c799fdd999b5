package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage periodic background syncs",
	Long: `Runs and inspects the scheduler, which triggers a sync per source at
its configured interval. Paused runs continue at the next tick.`,
	RunE: runScheduleStatus,
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler in the foreground",
	Long: `Starts the scheduling loop and blocks. Sources are synced at their
configured intervals until the process is interrupted.`,
	RunE: runScheduleRun,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduled tasks",
	RunE:  runScheduleStatus,
}

func init() {
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleStatusCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleRun(cmd *cobra.Command, _ []string) error {
	if syncScheduler == nil {
		return errors.New("scheduler not configured")
	}

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(baseCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd.Println("Scheduler running. Press Ctrl-C to stop.")

	err := syncScheduler.Start(ctx)
	if errors.Is(err, context.Canceled) {
		// Interrupted; wait for any in-flight task before exiting.
		err = syncScheduler.Stop()
	}
	if err != nil {
		return fmt.Errorf("scheduler stopped: %w", err)
	}

	cmd.Println("Scheduler stopped.")
	return nil
}

func runScheduleStatus(cmd *cobra.Command, _ []string) error {
	if taskStore == nil {
		return errors.New("scheduler not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tasks, err := taskStore.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(tasks) == 0 {
		cmd.Println("No scheduled tasks. Run 'knowledge-sync schedule run' to initialise them.")
		return nil
	}

	for i, task := range tasks {
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("[%s]\n", task.SourceType)
		enabled := "yes"
		if !task.Enabled {
			enabled = "no"
		}
		cmd.Printf("  Enabled: %s\n", enabled)
		cmd.Printf("  Interval: %s\n", task.Interval)
		if !task.NextRun.IsZero() {
			cmd.Printf("  Next run: %s\n", task.NextRun.Format(time.RFC3339))
		}
		if !task.LastRun.IsZero() {
			cmd.Printf("  Last run: %s\n", task.LastRun.Format(time.RFC3339))
		}
		if !task.LastSuccess.IsZero() {
			cmd.Printf("  Last success: %s\n", task.LastSuccess.Format(time.RFC3339))
		}
		if task.LastError != "" {
			cmd.Printf("  Last error: %s\n", task.LastError)
		}
	}

	return nil
}
