package defect

import (
	"regexp"
	"strings"

	"github.com/walteh/htmlfix/pkg/text"
)

// attrPattern matches the URL-bearing attributes legacy pages use
var attrPattern = regexp.MustCompile(`(?i)\b(href|src|background|action)(\s*=\s*)("[^"]*"|'[^']*'|[^\s>"']+)`)

// rewriteAttrs builds an ApplyFunc that runs fn over the unquoted value of
// every URL attribute. Values fn leaves alone are not reported.
func rewriteAttrs(fn func(value string) string) ApplyFunc {
	return func(s string) (string, []text.Span) {
		return text.Substitute(attrPattern, s, func(s string, loc []int) string {
			raw := text.Group(s, loc, 3)
			quote, value := "", raw
			if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') {
				quote, value = raw[:1], raw[1:len(raw)-1]
			}

			fixed := fn(value)
			if fixed == value {
				return s[loc[0]:loc[1]]
			}
			return text.Group(s, loc, 1) + text.Group(s, loc, 2) + quote + fixed + quote
		})
	}
}

// splitURL separates the path of a reference from its query and fragment
func splitURL(value string) (path, rest string) {
	if i := strings.IndexAny(value, "?#"); i >= 0 {
		return value[:i], value[i:]
	}
	return value, ""
}

var sitePattern = regexp.MustCompile(`(?i)^(?:https?:)?//(www\.)?auntieruth\.com(/|$)`)

// isForeign reports whether a reference points outside the site
func isForeign(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	for _, scheme := range []string{"mailto:", "javascript:", "data:", "tel:", "ftp:"} {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "//") {
		return !sitePattern.MatchString(value)
	}
	return false
}
