package status

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Emojis and messages used by DefaultFileFormatter
const (
	EmojiProgress = "⏳"
	EmojiComplete = "✅"

	MsgProgress = "%s Progress: %d/%d (%.0f%%)"
)

// FileFormatter defines how file operations and status should be formatted
type FileFormatter interface {
	// FormatFileOperation formats a file operation status message
	FormatFileOperation(path string, status FileStatus, hits int) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string

	// FormatDiff renders the changed lines between two versions of a file
	FormatDiff(path, before, after string) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileOperation formats a file operation status message with emojis
func (f *DefaultFileFormatter) FormatFileOperation(path string, status FileStatus, hits int) string {
	switch status {
	case StatusModified:
		return fmt.Sprintf("📝 Modified %s (%d fixes)", path, hits)
	case StatusProposed:
		return fmt.Sprintf("🔎 Would modify %s (%d fixes)", path, hits)
	case StatusPending:
		return fmt.Sprintf("⏸️  Pending %s (%d fixes)", path, hits)
	case StatusFalsePositive:
		return fmt.Sprintf("🤔 No-op rewrite %s (%d detected)", path, hits)
	case StatusFailed:
		return fmt.Sprintf("❌ Failed %s", path)
	default:
		return fmt.Sprintf("👍 Unchanged %s", path)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	if current < 0 || total < 0 {
		return fmt.Sprintf(MsgProgress, EmojiProgress, 0, 0, 0.0)
	}

	var percentage float64
	if total > 0 {
		percentage = float64(current) / float64(total) * 100
	}
	if percentage > 100 {
		percentage = 100
	}

	emoji := EmojiProgress
	if current >= total {
		emoji = EmojiComplete
	}
	return fmt.Sprintf(MsgProgress, emoji, current, total, percentage)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}

// FormatDiff renders a line diff: removed lines start with "-", added lines
// with "+", and runs of unchanged lines collapse into a single "@@" marker.
func (f *DefaultFileFormatter) FormatDiff(path, before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", path, path)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			sb.WriteString("@@\n")
		case diffmatchpatch.DiffDelete:
			writeLines(&sb, "-", d.Text)
		case diffmatchpatch.DiffInsert:
			writeLines(&sb, "+", d.Text)
		}
	}
	return sb.String()
}

func writeLines(sb *strings.Builder, prefix, text string) {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		sb.WriteString(prefix)
		sb.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			sb.WriteString("\n")
		}
	}
}
