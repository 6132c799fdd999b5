package notion

import (
	"errors"
	"fmt"
	"net"

	"github.com/jomei/notionapi"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// DefaultPageSize is the number of pages fetched per chunk.
const DefaultPageSize = 100

// Notion-specific errors.
var (
	// ErrTokenRequired indicates the integration token is missing.
	ErrTokenRequired = errors.New("notion: token is required")

	// ErrDatabaseRequired indicates the database ID is missing.
	ErrDatabaseRequired = errors.New("notion: database ID is required")
)

// Config holds the configuration for a Notion database source.
type Config struct {
	// Token is the internal integration token (required).
	Token string

	// DatabaseID is the database whose pages are synced (required).
	DatabaseID string

	// PageSize is the number of pages per chunk (default: 100).
	PageSize int
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrTokenRequired
	}
	if c.DatabaseID == "" {
		return ErrDatabaseRequired
	}
	return nil
}

// IsTransient classifies a Notion API error as retryable: rate limiting,
// server errors, save conflicts and network failures.
func IsTransient(err error) bool {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == "rate_limited" || apiErr.Code == "conflict_error" {
			return true
		}
		return apiErr.Status == 429 || apiErr.Status >= 500
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// wrapAPIError annotates a Notion API failure with the matching domain
// sentinel so callers can use errors.Is.
func wrapAPIError(err error, operation string) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 401 || apiErr.Code == "unauthorized":
			return fmt.Errorf("%s: %w: %w", operation, domain.ErrAuthInvalid, err)
		case apiErr.Status == 429 || apiErr.Code == "rate_limited":
			return fmt.Errorf("%s: %w: %w", operation, domain.ErrRateLimited, err)
		case apiErr.Status == 404:
			return fmt.Errorf("%s: %w: %w", operation, domain.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// shortID strips the dashes from a Notion object ID for use in filenames.
func shortID(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		if id[i] != '-' {
			out = append(out, id[i])
		}
	}
	return string(out)
}
