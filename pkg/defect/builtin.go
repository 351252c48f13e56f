// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package defect

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/walteh/htmlfix/pkg/text"
	"golang.org/x/text/encoding/charmap"
)

// Names of the built-in defects
const (
	Windows1252Text     = "windows-1252-text"
	BackslashPaths      = "backslash-paths"
	AuntRuthRootCase    = "auntruth-root-case"
	UppercaseExtensions = "uppercase-extensions"
	CounterTags         = "counter-tags"
	WordArtifacts       = "word-artifacts"
	LegacyCharset       = "legacy-charset"
	FilenameCase        = "filename-case"
)

// SiteRoot is the lowercase root segment every site-absolute path lives under.
const SiteRoot = "/auntruth/"

// 🏭 Builtins returns the built-in defects in application order
func Builtins() *Registry {
	r, err := NewRegistry(
		New(Windows1252Text, "re-encode text saved as Windows-1252 into UTF-8", windows1252Text),
		New(BackslashPaths, `turn \ into / in link attributes and lowercase the /AuntRuth/ root`, rewriteAttrs(fixBackslashes)),
		New(AuntRuthRootCase, "lowercase the /AuntRuth/ root of site-absolute links", rewriteAttrs(fixRootCase)),
		New(UppercaseExtensions, "lowercase .HTM .HTML .JPG .JPEG .GIF .PNG extensions in links", rewriteAttrs(fixExtensionCase)),
		New(CounterTags, "remove cgi-bin hit counter images", removeAll(counterPattern)),
		New(WordArtifacts, "remove Microsoft Word export markup", removeAll(wordPattern)),
		New(LegacyCharset, "declare utf-8 instead of legacy charsets in meta tags", legacyCharset),
	)
	if err != nil {
		panic(err)
	}
	return r
}

func windows1252Text(s string) (string, []text.Span) {
	if utf8.ValidString(s) {
		return s, nil
	}

	out, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return s, nil
	}

	return out, highByteRuns(s)
}

// highByteRuns returns the runs of non-ASCII bytes in s
func highByteRuns(s string) []text.Span {
	var spans []text.Span
	start := -1
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= 0x80 && start < 0:
			start = i
		case s[i] < 0x80 && start >= 0:
			spans = append(spans, text.Span{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, text.Span{Start: start, End: len(s)})
	}
	return spans
}

var rootSegment = regexp.MustCompile(`(?i)^((?:(?:https?:)?//(?:www\.)?auntieruth\.com)?)/(auntruth)(/|$)`)

func lowerRoot(value string) string {
	loc := rootSegment.FindStringSubmatchIndex(value)
	if loc == nil || value[loc[4]:loc[5]] == "auntruth" {
		return value
	}
	return value[:loc[4]] + "auntruth" + value[loc[5]:]
}

func fixBackslashes(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}
	return lowerRoot(strings.ReplaceAll(value, `\`, "/"))
}

func fixRootCase(value string) string {
	return lowerRoot(value)
}

var upperExtensions = map[string]bool{
	".htm":  true,
	".html": true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".png":  true,
}

func fixExtensionCase(value string) string {
	if isForeign(value) {
		return value
	}

	p, rest := splitURL(value)
	ext := path.Ext(p)
	lower := strings.ToLower(ext)
	if ext == lower || !upperExtensions[lower] {
		return value
	}
	return p[:len(p)-len(ext)] + lower + rest
}

// tagAttrs matches the rest of a tag up to its closing >, stepping over
// quoted values that contain one
const tagAttrs = `(?:"[^"]*"|'[^']*'|[^'">])*`

var counterPattern = regexp.MustCompile(`(?i)<img\b` + tagAttrs + `\bsrc\s*=\s*(?:"[^"]*cgi-bin/[^"]*count[^"]*"|'[^']*cgi-bin/[^']*count[^']*'|[^"'\s>]*cgi-bin/[^"'\s>]*count[^"'\s>]*)` + tagAttrs + `>`)

var wordPattern = regexp.MustCompile(`(?i)</?o:p\s*>|<!\[if [^\]]*\]>|<!\[endif\]>|\s+class\s*=\s*(?:"MsoNormal"|'MsoNormal'|MsoNormal\b)`)

// removeAll deletes every match of re. Deleting a match can join the bytes
// around it into a new one, so it repeats until nothing matches. Spans are
// reported against the input, with overlapping ones merged.
func removeAll(re *regexp.Regexp) ApplyFunc {
	return func(s string) (string, []text.Span) {
		out, spans := text.Substitute(re, s, remove)
		if len(spans) == 0 {
			return s, nil
		}

		// offsets[i] is the input offset of byte i of out
		var offsets []int
		for {
			next, more := text.Substitute(re, out, remove)
			if len(more) == 0 {
				break
			}
			if offsets == nil {
				offsets = make([]int, len(s))
				for i := range offsets {
					offsets[i] = i
				}
				offsets = keptOffsets(offsets, spans)
			}
			for _, sp := range more {
				spans = append(spans, text.Span{Start: offsets[sp.Start], End: offsets[sp.End-1] + 1})
			}
			offsets = keptOffsets(offsets, more)
			out = next
		}

		return out, text.MergeSpans(spans)
	}
}

func remove(string, []int) string {
	return ""
}

// keptOffsets drops the removed spans from offsets
func keptOffsets(offsets []int, removed []text.Span) []int {
	kept := make([]int, 0, len(offsets))
	last := 0
	for _, sp := range removed {
		kept = append(kept, offsets[last:sp.Start]...)
		last = sp.End
	}
	return append(kept, offsets[last:]...)
}

var (
	metaPattern    = regexp.MustCompile(`(?i)<meta\b` + tagAttrs + `>`)
	charsetPattern = regexp.MustCompile(`(?i)(\bcharset\s*=\s*["']?)(windows-1252|iso-8859-1|us-ascii)\b`)
)

// legacyCharset rewrites every legacy charset declared inside a meta tag.
// Working per tag keeps a second declaration in the same tag from being
// left for a later run.
func legacyCharset(s string) (string, []text.Span) {
	// a declaration is only wrong once the bytes really are utf-8
	if !utf8.ValidString(s) {
		return s, nil
	}

	var spans []text.Span
	out, tags := text.Substitute(metaPattern, s, func(s string, loc []int) string {
		fixed, inner := text.Substitute(charsetPattern, s[loc[0]:loc[1]], func(s string, loc []int) string {
			return text.Group(s, loc, 1) + "utf-8"
		})
		for _, sp := range inner {
			spans = append(spans, text.Span{Start: loc[0] + sp.Start, End: loc[0] + sp.End})
		}
		return fixed
	})
	if len(tags) == 0 {
		return s, nil
	}
	return out, spans
}
