package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the configuration file. Tokens can also be supplied via
the NOTION_TOKEN, GITHUB_TOKEN and OPENAI_API_KEY environment variables,
which are used when the file leaves them empty.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configTokenCmd = &cobra.Command{
	Use:   "token <notion|github|openai>",
	Short: "Store an API token",
	Long:  `Prompts for a token without echoing it and stores it in the config file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigToken,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Sets a non-secret configuration value.

Keys:
  notion.database_id      Notion database to sync
  github.repos            comma-separated owner/name list
  openai.vector_store_id  target vector store`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configTokenCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cfg := configStore.Config()

	cmd.Printf("Config file: %s\n\n", configStore.Path())

	cmd.Println("[Notion]")
	cmd.Printf("  Token: %s\n", describeToken(cfg.Notion.Token))
	cmd.Printf("  Database: %s\n", orUnset(cfg.Notion.DatabaseID))
	cmd.Println()

	cmd.Println("[GitHub]")
	cmd.Printf("  Token: %s\n", describeToken(cfg.GitHub.Token))
	if len(cfg.GitHub.Repos) == 0 {
		cmd.Println("  Repos: (not set)")
	} else {
		cmd.Printf("  Repos: %s\n", strings.Join(cfg.GitHub.Repos, ", "))
	}
	cmd.Println()

	cmd.Println("[OpenAI]")
	cmd.Printf("  API Key: %s\n", describeToken(cfg.OpenAI.APIKey))
	cmd.Printf("  Vector store: %s\n", orUnset(cfg.OpenAI.VectorStoreID))
	cmd.Println()

	cmd.Println("[Scheduler]")
	enabled := "no"
	if cfg.Scheduler.Enabled {
		enabled = "yes"
	}
	cmd.Printf("  Enabled: %s\n", enabled)
	cmd.Printf("  Default interval: %d minutes\n", cfg.Scheduler.DefaultIntervalMinutes)

	return nil
}

func runConfigToken(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	target := args[0]
	switch target {
	case "notion", "github", "openai":
	default:
		return fmt.Errorf("unknown token target %q (want notion, github or openai)", target)
	}

	cmd.Printf("Enter %s token: ", target)
	token := readSecret()
	cmd.Println()
	if token == "" {
		return errors.New("token must not be empty")
	}

	err := configStore.Update(func(cfg *file.Config) {
		switch target {
		case "notion":
			cfg.Notion.Token = token
		case "github":
			cfg.GitHub.Token = token
		case "openai":
			cfg.OpenAI.APIKey = token
		}
	})
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	cmd.Printf("Token for %s saved.\n", target)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, value := args[0], args[1]

	var apply func(cfg *file.Config)
	switch key {
	case "notion.database_id":
		apply = func(cfg *file.Config) { cfg.Notion.DatabaseID = value }
	case "github.repos":
		apply = func(cfg *file.Config) { cfg.GitHub.Repos = splitRepoList(value) }
	case "openai.vector_store_id":
		apply = func(cfg *file.Config) { cfg.OpenAI.VectorStoreID = value }
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := configStore.Update(apply); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cmd.Printf("Set %s.\n", key)
	return nil
}

func splitRepoList(value string) []string {
	var repos []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			repos = append(repos, part)
		}
	}
	return repos
}

//nolint:errcheck // CLI helper, error ignored for UX
func readSecret() string {
	// Read without echo when attached to a terminal.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func describeToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	return maskToken(token)
}

func orUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
