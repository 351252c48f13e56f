package text

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// Span is a half-open byte range [Start, End) of a text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Covers reports whether the range [start, end) lies inside the span.
func (s Span) Covers(start, end int) bool {
	return s.Start <= start && end <= s.End
}

// MergeSpans sorts spans by start and merges the ones that overlap. Spans
// that only touch are kept apart so each still counts as an occurrence.
func MergeSpans(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}

	sorted := slices.Clone(spans)
	slices.SortFunc(sorted, func(a, b Span) int {
		return cmp.Compare(a.Start, b.Start)
	})

	merged := sorted[:1]
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start < last.End {
			last.End = max(last.End, s.End)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Substitution computes the replacement for one match. loc holds the submatch
// index pairs as returned by FindAllStringSubmatchIndex.
type Substitution func(text string, loc []int) string

// Substitute replaces every match of re whose substitution differs from the
// matched text. Matches that would be replaced by themselves are left alone and
// not reported, so the returned spans only cover bytes that actually change.
func Substitute(re *regexp.Regexp, text string, fn Substitution) (string, []Span) {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}

	var (
		b     strings.Builder
		spans []Span
		last  int
	)
	for _, loc := range locs {
		repl := fn(text, loc)
		if repl == text[loc[0]:loc[1]] {
			continue
		}
		if len(spans) == 0 {
			b.Grow(len(text))
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}

	if len(spans) == 0 {
		return text, nil
	}

	b.WriteString(text[last:])
	return b.String(), spans
}

// Group returns the text of submatch i, or "" when it did not participate.
func Group(text string, loc []int, i int) string {
	if 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return ""
	}
	return text[loc[2*i]:loc[2*i+1]]
}
