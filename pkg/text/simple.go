package text

import (
	"context"
	"io"
	"regexp"

	"gitlab.com/tozd/go/errors"
)

// ErrNotIdempotent is returned when a rule rewrites its own output again.
var ErrNotIdempotent = errors.Base("rule is not idempotent")

// ErrNeedsExamples is returned when a pattern rule matches none of its inputs.
var ErrNeedsExamples = errors.Base("rule needs examples its pattern matches")

// CompiledRule is a ReplacementRule ready to be applied
type CompiledRule struct {
	Rule ReplacementRule
	re   *regexp.Regexp
}

// Compile validates a rule and compiles its pattern
func Compile(rule ReplacementRule) (*CompiledRule, error) {
	if rule.FromText == "" {
		return nil, errors.New("from_text is required")
	}

	pattern := rule.FromText
	if rule.Literal {
		pattern = regexp.QuoteMeta(pattern)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("compiling pattern %q: %w", rule.FromText, err)
	}

	// an empty match would insert text between every byte on each run
	if re.MatchString("") {
		return nil, errors.Errorf("pattern %q matches the empty string", rule.FromText)
	}

	return &CompiledRule{Rule: rule, re: re}, nil
}

// Apply rewrites text and returns the spans of the input that changed
func (c *CompiledRule) Apply(text string) (string, []Span) {
	return Substitute(c.re, text, func(s string, loc []int) string {
		if c.Rule.Literal {
			return c.Rule.ToText
		}
		return string(c.re.ExpandString(nil, c.Rule.ToText, s, loc))
	})
}

// CheckIdempotent applies the rule twice to every input and fails if the
// second pass still changes something. Besides samples and the rule's
// examples, the inputs always include a string the pattern matches and the
// replacement text itself. A pattern rule that matches none of them is
// rejected with ErrNeedsExamples, since nothing about it could be checked.
func (c *CompiledRule) CheckIdempotent(samples ...string) error {
	inputs := make([]string, 0, len(samples)+len(c.Rule.Examples)+2)
	inputs = append(inputs, samples...)
	inputs = append(inputs, c.Rule.Examples...)
	if sample, ok := c.SampleMatch(); ok {
		inputs = append(inputs, sample)
	}
	inputs = append(inputs, c.Rule.ToText)

	matched := false
	for _, in := range inputs {
		once, spans := c.Apply(in)
		matched = matched || len(spans) > 0 || c.re.MatchString(in)
		twice, spans := c.Apply(once)
		if len(spans) > 0 {
			return errors.Errorf("%w: %q -> %q -> %q", ErrNotIdempotent, in, once, twice)
		}
	}

	if !matched {
		return errors.Errorf("%w: pattern %q", ErrNeedsExamples, c.Rule.FromText)
	}
	return nil
}

// SimpleTextReplacer implements TextReplacer on top of CompiledRule
type SimpleTextReplacer struct{}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer() *SimpleTextReplacer {
	return &SimpleTextReplacer{}
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *SimpleTextReplacer) ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error) {
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	result := &ReplacementResult{
		OriginalContent: originalContent,
		ModifiedContent: originalContent,
		CountByRule:     map[string]int{},
	}

	currentContent := string(originalContent)
	for i, rule := range rules {
		compiled, err := Compile(rule)
		if err != nil {
			return nil, errors.Errorf("rule %d: %w", i, err)
		}

		newContent, spans := compiled.Apply(currentContent)
		if len(spans) == 0 {
			continue
		}

		result.WasModified = true
		result.ReplacementCount += len(spans)
		result.CountByRule[rule.Name] += len(spans)
		currentContent = newContent
	}

	result.ModifiedContent = []byte(currentContent)
	return result, nil
}

// ValidateRules implements TextReplacer.ValidateRules
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if rule.Name == "" {
			return errors.Errorf("rule %d: name is required", i)
		}
		if seen[rule.Name] {
			return errors.Errorf("rule %d: duplicate name %q", i, rule.Name)
		}
		seen[rule.Name] = true

		compiled, err := Compile(rule)
		if err != nil {
			return errors.Errorf("rule %d: %w", i, err)
		}
		if err := compiled.CheckIdempotent(); err != nil {
			return errors.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
	}
	return nil
}
