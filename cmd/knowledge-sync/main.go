// Command knowledge-sync keeps a search index in sync with Notion and
// GitHub. All wiring of adapters to services happens here.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/adapters/driven/config/file"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/adapters/driven/index/openai"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/adapters/driven/storage/sqlite"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/adapters/driving/cli"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/connectors/github"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/connectors/notion"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/services"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/logger"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/ratelimit"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := configStore.Config()

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	deps := cli.Dependencies{
		Tasks:           store.SchedulerStore(),
		Config:          configStore,
		DefaultMaxItems: cfg.Sync.MaxItems,
	}

	orch, err := buildOrchestrator(cfg, store)
	if err != nil {
		return err
	}
	if orch != nil {
		if cfg.Sync.MaxDurationMinutes > 0 {
			orch.SetMaxRunDuration(time.Duration(cfg.Sync.MaxDurationMinutes) * time.Minute)
		}
		deps.Orchestrator = orch
		deps.Scheduler = services.NewScheduler(schedulerConfig(cfg), store.SchedulerStore(), orch)
	}

	cli.SetVersion(version)
	cli.Initialise(deps)
	return cli.Execute()
}

// buildOrchestrator wires configured sources to the index writer. Returns
// nil when the index or no source is configured; sync commands then report
// what is missing instead of failing on first use.
func buildOrchestrator(cfg file.Config, store *sqlite.Store) (*services.SyncOrchestrator, error) {
	if cfg.OpenAI.APIKey == "" || cfg.OpenAI.VectorStoreID == "" {
		logger.Debug("OpenAI index not configured, sync disabled")
		return nil, nil
	}

	indexWriter, err := openai.NewIndexWriter(openai.Config{
		APIKey:        cfg.OpenAI.APIKey,
		VectorStoreID: cfg.OpenAI.VectorStoreID,
		BaseURL:       cfg.OpenAI.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build index writer: %w", err)
	}

	// One limiter for the index regardless of how many sources feed it, so
	// concurrent runs share the same budget.
	indexLimiter := ratelimit.New(60, time.Minute)

	bindings := make(map[domain.SourceType]*services.SourceBinding)

	if cfg.Notion.Token != "" && cfg.Notion.DatabaseID != "" {
		reader, err := notion.NewReader(notion.Config{
			Token:      cfg.Notion.Token,
			DatabaseID: cfg.Notion.DatabaseID,
			PageSize:   cfg.Notion.PageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build notion reader: %w", err)
		}
		bindings[domain.SourceTypeNotion] = newBinding(reader, store, indexWriter,
			ratelimit.New(180, time.Minute), indexLimiter)
	}

	if cfg.GitHub.Token != "" && len(cfg.GitHub.Repos) > 0 {
		reader, err := github.NewReader(github.Config{
			Token:    cfg.GitHub.Token,
			Repos:    cfg.GitHub.Repos,
			PageSize: cfg.GitHub.PageSize,
			BaseURL:  cfg.GitHub.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build github reader: %w", err)
		}
		bindings[domain.SourceTypeGitHub] = newBinding(reader, store, indexWriter,
			ratelimit.New(60, time.Minute), indexLimiter)
	}

	if len(bindings) == 0 {
		logger.Debug("no sources configured, sync disabled")
		return nil, nil
	}

	return services.NewSyncOrchestrator(store.RecordStore(), store.SyncStateStore(), bindings), nil
}

func newBinding(reader driven.SourceReader, store *sqlite.Store, index driven.IndexWriter, readLimiter, indexLimiter *ratelimit.Limiter) *services.SourceBinding {
	pipeline := services.NewPipeline(index, store.RecordStore(), indexLimiter, 0)
	return services.NewSourceBinding(reader, readLimiter, pipeline)
}

// schedulerConfig translates file settings into the scheduler's config,
// scheduling only sources that are actually configured.
func schedulerConfig(cfg file.Config) domain.SchedulerConfig {
	intervals := make(map[domain.SourceType]time.Duration)

	defaultMinutes := cfg.Scheduler.DefaultIntervalMinutes
	if defaultMinutes <= 0 {
		defaultMinutes = 360
	}

	if cfg.Notion.Token != "" && cfg.Notion.DatabaseID != "" {
		intervals[domain.SourceTypeNotion] = minutesOr(cfg.Scheduler.NotionIntervalMinutes, defaultMinutes)
	}
	if cfg.GitHub.Token != "" && len(cfg.GitHub.Repos) > 0 {
		intervals[domain.SourceTypeGitHub] = minutesOr(cfg.Scheduler.GitHubIntervalMinutes, defaultMinutes)
	}

	return domain.SchedulerConfig{
		Enabled:   cfg.Scheduler.Enabled,
		Intervals: intervals,
	}
}

func minutesOr(minutes, fallback int) time.Duration {
	if minutes <= 0 {
		minutes = fallback
	}
	return time.Duration(minutes) * time.Minute
}
