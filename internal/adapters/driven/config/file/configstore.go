package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every user-tunable setting. Zero values fall back to the
// defaults applied by DefaultConfig.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Notion    NotionConfig    `toml:"notion"`
	GitHub    GitHubConfig    `toml:"github"`
	OpenAI    OpenAIConfig    `toml:"openai"`
	Sync      SyncConfig      `toml:"sync"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// StorageConfig controls where the SQLite database lives.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// NotionConfig configures the Notion workspace connector.
type NotionConfig struct {
	Token      string `toml:"token"`
	DatabaseID string `toml:"database_id"`
	PageSize   int    `toml:"page_size"`
}

// GitHubConfig configures the GitHub issues connector.
type GitHubConfig struct {
	Token    string   `toml:"token"`
	Repos    []string `toml:"repos"`
	PageSize int      `toml:"page_size"`
	BaseURL  string   `toml:"base_url"`
}

// OpenAIConfig configures the vector store index writer.
type OpenAIConfig struct {
	APIKey        string `toml:"api_key"`
	VectorStoreID string `toml:"vector_store_id"`
	BaseURL       string `toml:"base_url"`
}

// SyncConfig bounds a single sync invocation.
type SyncConfig struct {
	MaxDurationMinutes int `toml:"max_duration_minutes"`
	MaxItems           int `toml:"max_items"`
}

// SchedulerConfig controls the background scheduling loop. Intervals are
// in minutes; a source without an interval falls back to the default.
type SchedulerConfig struct {
	Enabled                bool `toml:"enabled"`
	NotionIntervalMinutes  int  `toml:"notion_interval_minutes"`
	GitHubIntervalMinutes  int  `toml:"github_interval_minutes"`
	DefaultIntervalMinutes int  `toml:"default_interval_minutes"`
}

// DefaultConfig returns the settings applied when the config file is
// absent or leaves a field unset.
func DefaultConfig() Config {
	return Config{
		Sync: SyncConfig{
			MaxDurationMinutes: 10,
		},
		Scheduler: SchedulerConfig{
			DefaultIntervalMinutes: 360,
		},
	}
}

// ConfigStore loads and persists Config as a TOML file. Safe for
// concurrent use.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	cfg      Config
}

// NewConfigStore creates a store rooted at configDir.
// If configDir is empty, defaults to ~/.knowledge-sync/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".knowledge-sync")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		cfg:      DefaultConfig(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Config returns a copy of the current configuration with token fields
// filled from the environment where the file leaves them empty.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.cfg
	// Copy the only reference-typed field so callers cannot mutate
	// the stored slice.
	cfg.GitHub.Repos = append([]string(nil), s.cfg.GitHub.Repos...)
	applyEnvOverrides(&cfg)
	return cfg
}

// Update applies fn to the configuration and persists the result.
func (s *ConfigStore) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.cfg)
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.cfg)
	if err != nil {
		return err
	}

	// Tokens live in this file, so keep it private to the owner.
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file. A missing file leaves the
// defaults in place.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.cfg = DefaultConfig()
			return nil
		}
		return err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}

	s.cfg = cfg
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// applyEnvOverrides fills empty credential fields from the environment,
// so tokens never have to be written to disk.
func applyEnvOverrides(cfg *Config) {
	if cfg.Notion.Token == "" {
		cfg.Notion.Token = os.Getenv("NOTION_TOKEN")
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
