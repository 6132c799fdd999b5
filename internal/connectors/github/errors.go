package github

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// GitHub-specific errors.
var (
	// ErrInvalidCursor indicates the cursor format is invalid.
	ErrInvalidCursor = errors.New("github: invalid cursor format")

	// ErrInvalidItemID indicates an item ID is not of the form owner/repo#number.
	ErrInvalidItemID = errors.New("github: invalid item ID")

	// ErrNoRepos indicates the source has no repositories configured.
	ErrNoRepos = errors.New("github: no repositories configured")
)

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Is matches the domain rate-limit sentinel.
func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Is maps API status codes onto the domain sentinels so callers can use
// errors.Is without knowing this package's error types.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrAuthInvalid:
		return e.StatusCode == 401
	case domain.ErrRateLimited:
		return e.StatusCode == 429
	case domain.ErrNotFound:
		return e.StatusCode == 404
	}
	return false
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

// IsTransient classifies an error as retryable: rate limiting, server
// errors and network failures.
func IsTransient(err error) bool {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
