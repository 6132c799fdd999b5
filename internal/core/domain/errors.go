package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSyncInProgress indicates a sync is already running for a source.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrSourceUnsupported indicates an unknown source type.
	ErrSourceUnsupported = errors.New("unsupported source type")

	// ErrInvalidCursor indicates a resumption cursor could not be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrRateLimited indicates an API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthInvalid indicates credentials were rejected by a collaborator.
	ErrAuthInvalid = errors.New("authentication invalid")
)
