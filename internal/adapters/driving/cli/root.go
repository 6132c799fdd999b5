// Package cli implements the command line interface. Commands hold no
// business logic; they translate arguments into driving-port calls and
// render the results.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/adapters/driven/config/file"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driving"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by Initialise. Commands check for nil so the binary
// degrades gracefully when a service could not be constructed.
var (
	syncOrchestrator driving.SyncOrchestrator
	syncScheduler    driving.Scheduler
	taskStore        driven.SchedulerStore
	configStore      *file.ConfigStore
	defaultMaxItems  int
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "knowledge-sync",
	Short: "Keep a search index in sync with your knowledge sources",
	Long: `knowledge-sync mirrors Notion pages and GitHub issue threads into an
OpenAI vector store, incrementally and resumably. Runs checkpoint their
progress so an interrupted sync picks up where it left off.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Dependencies carries the wired services into the CLI layer.
type Dependencies struct {
	Orchestrator driving.SyncOrchestrator
	Scheduler    driving.Scheduler
	Tasks        driven.SchedulerStore
	Config       *file.ConfigStore

	// DefaultMaxItems caps runs when --max-items is not given. Zero means
	// no cap.
	DefaultMaxItems int
}

// Initialise installs the services used by the commands. Must be called
// before Execute.
func Initialise(deps Dependencies) {
	syncOrchestrator = deps.Orchestrator
	syncScheduler = deps.Scheduler
	taskStore = deps.Tasks
	configStore = deps.Config
	defaultMaxItems = deps.DefaultMaxItems
}

// SetVersion overrides the build version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
