package text

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestSimpleTextReplacer_ReplaceText(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		rules        []ReplacementRule
		want         string
		wantCount    int
		wantByRule   map[string]int
		wantError    string
		wantModified bool
	}{
		{
			name:    "literal_replacement",
			content: "Hello World",
			rules: []ReplacementRule{
				{Name: "world", FromText: "World", ToText: "Universe", Literal: true},
			},
			want:         "Hello Universe",
			wantCount:    1,
			wantByRule:   map[string]int{"world": 1},
			wantModified: true,
		},
		{
			name:    "literal_does_not_interpret_metacharacters",
			content: `a.b a+b`,
			rules: []ReplacementRule{
				{Name: "dot", FromText: "a.b", ToText: "$1", Literal: true},
			},
			want:         `$1 a+b`,
			wantCount:    1,
			wantByRule:   map[string]int{"dot": 1},
			wantModified: true,
		},
		{
			name:    "pattern_with_expansion",
			content: `<a href="/AuntRuth/x.htm"> <a href="/AUNTRUTH/y.htm">`,
			rules: []ReplacementRule{
				{Name: "root", FromText: `(href=")/(?i:auntruth)/`, ToText: "${1}/auntruth/"},
			},
			want:         `<a href="/auntruth/x.htm"> <a href="/auntruth/y.htm">`,
			wantCount:    2,
			wantByRule:   map[string]int{"root": 2},
			wantModified: true,
		},
		{
			name:    "matches_already_fixed_are_not_counted",
			content: `href="/auntruth/a.htm" href="/AuntRuth/b.htm"`,
			rules: []ReplacementRule{
				{Name: "root", FromText: `(?i)/auntruth/`, ToText: "/auntruth/"},
			},
			want:         `href="/auntruth/a.htm" href="/auntruth/b.htm"`,
			wantCount:    1,
			wantByRule:   map[string]int{"root": 1},
			wantModified: true,
		},
		{
			name:    "multiple_rules_run_in_order",
			content: "Hello World",
			rules: []ReplacementRule{
				{Name: "hello", FromText: "Hello", ToText: "Hi", Literal: true},
				{Name: "hi", FromText: `Hi (\w+)`, ToText: "Hi, $1"},
			},
			want:         "Hi, World",
			wantCount:    2,
			wantByRule:   map[string]int{"hello": 1, "hi": 1},
			wantModified: true,
		},
		{
			name:    "no_match",
			content: "Hello World",
			rules: []ReplacementRule{
				{Name: "bye", FromText: "Goodbye", ToText: "Hi", Literal: true},
			},
			want:         "Hello World",
			wantCount:    0,
			wantByRule:   map[string]int{},
			wantModified: false,
		},
		{
			name:    "invalid_utf8_is_preserved",
			content: "caf\xe9 <o:p></o:p>",
			rules: []ReplacementRule{
				{Name: "word", FromText: `</?o:p>`},
			},
			want:         "caf\xe9 ",
			wantCount:    2,
			wantByRule:   map[string]int{"word": 2},
			wantModified: true,
		},
		{
			name:      "invalid_pattern",
			content:   "Hello",
			rules:     []ReplacementRule{{Name: "bad", FromText: "(unclosed"}},
			wantError: "rule 0: compiling pattern",
		},
		{
			name:      "empty_pattern",
			content:   "Hello",
			rules:     []ReplacementRule{{Name: "empty"}},
			wantError: "rule 0: from_text is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replacer := NewSimpleTextReplacer()
			result, err := replacer.ReplaceText(context.Background(), strings.NewReader(tt.content), tt.rules)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, string(result.ModifiedContent), "content should match")
			assert.Equal(t, tt.content, string(result.OriginalContent), "original content should be kept")
			assert.Equal(t, tt.wantCount, result.ReplacementCount, "replacement count should match")
			assert.Equal(t, tt.wantByRule, result.CountByRule, "per rule counts should match")
			assert.Equal(t, tt.wantModified, result.WasModified, "modified flag should match")
		})
	}
}

func TestSimpleTextReplacer_ValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		rules     []ReplacementRule
		wantError string
		wantIs    error
	}{
		{
			name: "valid_rules",
			rules: []ReplacementRule{
				{Name: "a", FromText: "foo", ToText: "bar", Literal: true},
				{Name: "b", FromText: `(?i)\.HTM\b`, ToText: ".htm", Examples: []string{"a.HTM", "b.htm"}},
			},
		},
		{
			name:      "missing_name",
			rules:     []ReplacementRule{{FromText: "foo", ToText: "bar"}},
			wantError: "rule 0: name is required",
		},
		{
			name: "duplicate_name",
			rules: []ReplacementRule{
				{Name: "a", FromText: "foo", ToText: "bar"},
				{Name: "a", FromText: "baz", ToText: "bar"},
			},
			wantError: `rule 1: duplicate name "a"`,
		},
		{
			name:      "missing_from_text",
			rules:     []ReplacementRule{{Name: "a", ToText: "bar"}},
			wantError: "rule 0: from_text is required",
		},
		{
			name:      "matches_empty_string",
			rules:     []ReplacementRule{{Name: "a", FromText: "x*", ToText: "y"}},
			wantError: "matches the empty string",
		},
		{
			name:   "literal_replacement_contains_pattern",
			rules:  []ReplacementRule{{Name: "grow", FromText: "a", ToText: "aa", Literal: true}},
			wantIs: ErrNotIdempotent,
		},
		{
			name: "pattern_example_not_idempotent",
			rules: []ReplacementRule{
				{Name: "prefix", FromText: `/site/`, ToText: "/site/site/", Examples: []string{`href="/site/x.htm"`}},
			},
			wantIs: ErrNotIdempotent,
		},
		{
			name:   "pattern_grows_without_examples",
			rules:  []ReplacementRule{{Name: "dup", FromText: "foo", ToText: "foofoo"}},
			wantIs: ErrNotIdempotent,
		},
		{
			name:   "pattern_class_grows_without_examples",
			rules:  []ReplacementRule{{Name: "tag", FromText: `<[a-z]+>`, ToText: "<b><b>"}},
			wantIs: ErrNotIdempotent,
		},
		{
			name:   "pattern_cannot_be_sampled",
			rules:  []ReplacementRule{{Name: "inner", FromText: `\Bfoo`, ToText: "bar"}},
			wantIs: ErrNeedsExamples,
		},
		{
			name:  "pattern_sampled_from_examples",
			rules: []ReplacementRule{{Name: "inner", FromText: `\Bfoo`, ToText: "bar", Examples: []string{"xfoo"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replacer := NewSimpleTextReplacer()
			err := replacer.ValidateRules(tt.rules)

			switch {
			case tt.wantIs != nil:
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantIs), "error should wrap %v, got %v", tt.wantIs, err)
			case tt.wantError != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompiledRule_CheckIdempotent(t *testing.T) {
	rule, err := Compile(ReplacementRule{Name: "ext", FromText: `(?i)\.(htm)\b`, ToText: ".htm"})
	require.NoError(t, err)

	assert.NoError(t, rule.CheckIdempotent(`<a href="A.HTM">`, `<a href="a.htm">`))

	once, spans := rule.Apply(`<a href="A.HTM">`)
	assert.Equal(t, `<a href="A.htm">`, once)
	assert.Len(t, spans, 1)

	twice, spans := rule.Apply(once)
	assert.Equal(t, once, twice)
	assert.Empty(t, spans)
}

func TestCompiledRule_SampleMatch(t *testing.T) {
	tests := []struct {
		name   string
		rule   ReplacementRule
		want   string
		wantOK bool
	}{
		{name: "literal", rule: ReplacementRule{FromText: "a.b", Literal: true}, want: "a.b", wantOK: true},
		{name: "plain_pattern", rule: ReplacementRule{FromText: "foo"}, want: "foo", wantOK: true},
		{name: "optional_and_star", rule: ReplacementRule{FromText: `</?o:p\s*>`}, want: "<o:p>", wantOK: true},
		{name: "class_and_plus", rule: ReplacementRule{FromText: `x[^>]+y`}, want: "xay", wantOK: true},
		{name: "first_alternative", rule: ReplacementRule{FromText: `(?:cat|dog)s{2}`}, want: "catss", wantOK: true},
		{name: "anchored", rule: ReplacementRule{FromText: `^/site/$`}, want: "/site/", wantOK: true},
		{name: "boundary_not_satisfied", rule: ReplacementRule{FromText: `\Bfoo`}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Compile(tt.rule)
			require.NoError(t, err)

			got, ok := rule.SampleMatch()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
