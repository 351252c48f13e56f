package text

import (
	"context"
	"io"
)

// ReplacementRule defines a single text replacement operation
type ReplacementRule struct {
	// Name identifies the rule in reports
	Name string

	// FromText is the text (or RE2 pattern) to replace
	FromText string

	// ToText is the replacement text; for patterns it may use $1-style expansion
	ToText string

	// Literal disables pattern matching for FromText
	Literal bool

	// Examples are sample inputs the rule is checked against for idempotence
	Examples []string
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	// CountByRule is ReplacementCount split per rule name
	CountByRule map[string]int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte
}

// TextReplacer defines the interface for text replacement operations
type TextReplacer interface {
	// ReplaceText applies a set of replacement rules to the content
	// Returns a ReplacementResult containing the modified content and metadata
	ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}
