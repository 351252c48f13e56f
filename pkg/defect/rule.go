package defect

import (
	"github.com/walteh/htmlfix/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// FromRule turns a configured replacement rule into a defect. The rule is
// rejected when it is not idempotent on its own examples.
func FromRule(rule text.ReplacementRule) (*Defect, error) {
	if rule.Name == "" {
		return nil, errors.New("rule name is required")
	}

	compiled, err := text.Compile(rule)
	if err != nil {
		return nil, errors.Errorf("rule %s: %w", rule.Name, err)
	}
	if err := compiled.CheckIdempotent(); err != nil {
		return nil, errors.Errorf("rule %s: %w", rule.Name, err)
	}

	desc := "custom rule " + rule.FromText
	return New(rule.Name, desc, compiled.Apply), nil
}
