package text

import (
	"regexp/syntax"
	"strings"
)

// sampleRunes are tried in order when a character class has to be
// represented by a single rune
const sampleRunes = "a0 /.-_"

// SampleMatch builds a short string the pattern should match by walking its
// syntax tree. Repetitions take their minimum count and alternations their
// first branch. ok is false when the pattern cannot be parsed or the result
// does not actually match, which happens with anchors and word boundaries.
func (c *CompiledRule) SampleMatch() (string, bool) {
	if c.Rule.Literal {
		return c.Rule.FromText, true
	}

	re, err := syntax.Parse(c.Rule.FromText, syntax.Perl)
	if err != nil {
		return "", false
	}

	var b strings.Builder
	if !writeSample(&b, re.Simplify()) {
		return "", false
	}

	sample := b.String()
	return sample, c.re.MatchString(sample)
}

func writeSample(b *strings.Builder, re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpNoMatch:
		return false
	case syntax.OpLiteral:
		b.WriteString(string(re.Rune))
	case syntax.OpCharClass:
		r, ok := classRune(re.Rune)
		if !ok {
			return false
		}
		b.WriteRune(r)
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		b.WriteByte('a')
	case syntax.OpCapture, syntax.OpPlus:
		return writeSample(b, re.Sub[0])
	case syntax.OpRepeat:
		for i := 0; i < re.Min; i++ {
			if !writeSample(b, re.Sub[0]) {
				return false
			}
		}
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !writeSample(b, sub) {
				return false
			}
		}
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			var alt strings.Builder
			if writeSample(&alt, sub) {
				b.WriteString(alt.String())
				return true
			}
		}
		return false
	}
	// empty-width ops, star and quest contribute nothing
	return true
}

// classRune picks a rune from a class given as lo-hi pairs, preferring
// printable ones
func classRune(ranges []rune) (rune, bool) {
	if len(ranges) < 2 {
		return 0, false
	}
	for _, r := range sampleRunes {
		for i := 0; i+1 < len(ranges); i += 2 {
			if ranges[i] <= r && r <= ranges[i+1] {
				return r, true
			}
		}
	}
	for i := 0; i+1 < len(ranges); i += 2 {
		if ranges[i+1] >= ' ' {
			return max(ranges[i], ' '), true
		}
	}
	return ranges[0], true
}
