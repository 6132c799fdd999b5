package domain

import "fmt"

// SourceType identifies a content source kind.
type SourceType string

const (
	// SourceTypeNotion is the page-oriented Notion workspace source.
	SourceTypeNotion SourceType = "notion"

	// SourceTypeGitHub is the message-oriented GitHub issue thread source.
	SourceTypeGitHub SourceType = "github"
)

// AllSourceTypes lists every supported source type in a stable order.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceTypeNotion, SourceTypeGitHub}
}

// ParseSourceType converts a string to a SourceType.
// Returns ErrSourceUnsupported for unknown values.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceTypeNotion:
		return SourceTypeNotion, nil
	case SourceTypeGitHub:
		return SourceTypeGitHub, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrSourceUnsupported, s)
	}
}

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// Valid reports whether the source type is a known value.
func (t SourceType) Valid() bool {
	return t == SourceTypeNotion || t == SourceTypeGitHub
}
