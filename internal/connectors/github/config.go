package github

import (
	"fmt"
	"strings"
)

// DefaultPageSize is the number of issues fetched per chunk.
const DefaultPageSize = 100

// Config holds the configuration for a GitHub issue source.
type Config struct {
	// Token is the personal access token (required).
	Token string

	// Repos are the repositories to sync, as "owner/name" (required).
	Repos []string

	// PageSize is the number of issues per chunk (default: 100).
	PageSize int

	// BaseURL overrides the API base URL, for GitHub Enterprise.
	BaseURL string
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("github: token is required")
	}
	if len(c.Repos) == 0 {
		return ErrNoRepos
	}
	for _, full := range c.Repos {
		if _, _, err := splitRepo(full); err != nil {
			return err
		}
	}
	return nil
}

// splitRepo splits "owner/name" into its parts.
func splitRepo(full string) (owner, name string, err error) {
	parts := strings.Split(full, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("github: invalid repository %q, want owner/name", full)
	}
	return parts[0], parts[1], nil
}
