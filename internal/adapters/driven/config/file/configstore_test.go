package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_MissingFileUsesDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, 10, cfg.Sync.MaxDurationMinutes)
	assert.Equal(t, 360, cfg.Scheduler.DefaultIntervalMinutes)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestConfigStore_LoadsExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[notion]
token = "secret_abc"
database_id = "db-123"

[github]
token = "ghp_xyz"
repos = ["acme/widgets", "acme/gadgets"]

[openai]
api_key = "sk-test"
vector_store_id = "vs-1"

[sync]
max_items = 500

[scheduler]
enabled = true
notion_interval_minutes = 60
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, "secret_abc", cfg.Notion.Token)
	assert.Equal(t, "db-123", cfg.Notion.DatabaseID)
	assert.Equal(t, "ghp_xyz", cfg.GitHub.Token)
	assert.Equal(t, []string{"acme/widgets", "acme/gadgets"}, cfg.GitHub.Repos)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "vs-1", cfg.OpenAI.VectorStoreID)
	assert.Equal(t, 500, cfg.Sync.MaxItems)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 60, cfg.Scheduler.NotionIntervalMinutes)

	// Unset fields keep their defaults.
	assert.Equal(t, 10, cfg.Sync.MaxDurationMinutes)
	assert.Equal(t, 360, cfg.Scheduler.DefaultIntervalMinutes)
}

func TestConfigStore_UpdatePersists(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	err = store.Update(func(cfg *Config) {
		cfg.Notion.DatabaseID = "db-42"
		cfg.GitHub.Repos = []string{"acme/widgets"}
	})
	require.NoError(t, err)

	// A fresh store reads the persisted values back.
	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	cfg := store2.Config()
	assert.Equal(t, "db-42", cfg.Notion.DatabaseID)
	assert.Equal(t, []string{"acme/widgets"}, cfg.GitHub.Repos)
}

func TestConfigStore_EnvOverridesEmptyTokens(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "env-notion")
	t.Setenv("GITHUB_TOKEN", "env-github")
	t.Setenv("OPENAI_API_KEY", "env-openai")

	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, "env-notion", cfg.Notion.Token)
	assert.Equal(t, "env-github", cfg.GitHub.Token)
	assert.Equal(t, "env-openai", cfg.OpenAI.APIKey)
}

func TestConfigStore_FileTokenWinsOverEnv(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "env-notion")

	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Update(func(cfg *Config) {
		cfg.Notion.Token = "file-notion"
	}))

	assert.Equal(t, "file-notion", store.Config().Notion.Token)
}

func TestConfigStore_ConfigReturnsCopy(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Update(func(cfg *Config) {
		cfg.GitHub.Repos = []string{"acme/widgets"}
	}))

	cfg := store.Config()
	cfg.GitHub.Repos[0] = "mutated/elsewhere"
	cfg.Notion.Token = "mutated"

	fresh := store.Config()
	assert.Equal(t, "acme/widgets", fresh.GitHub.Repos[0])
	assert.Empty(t, fresh.Notion.Token)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	corrupted := []byte("this is not valid TOML {{{[[")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), corrupted, 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "deep", "path")

	store, err := NewConfigStore(nestedPath)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nestedPath, "config.toml"), store.Path())

	info, err := os.Stat(nestedPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			_ = store.Update(func(cfg *Config) {
				cfg.Sync.MaxItems = id
			})
			_ = store.Config()
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
