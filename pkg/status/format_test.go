package status

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 🧪 TestDefaultFileFormatter tests the default file formatter implementation
func TestDefaultFileFormatter(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		status      FileStatus
		hits        int
		want        string
		description string
	}{
		{
			name:        "modified_file",
			path:        "index.htm",
			status:      StatusModified,
			hits:        3,
			want:        "📝 Modified index.htm (3 fixes)",
			description: "should show modification symbol for written files",
		},
		{
			name:        "proposed_file",
			path:        "index.htm",
			status:      StatusProposed,
			hits:        1,
			want:        "🔎 Would modify index.htm (1 fixes)",
			description: "should show preview symbol in dry runs",
		},
		{
			name:        "pending_file",
			path:        "L1/XF1.htm",
			status:      StatusPending,
			hits:        2,
			want:        "⏸️  Pending L1/XF1.htm (2 fixes)",
			description: "should show pause symbol for files past the limit",
		},
		{
			name:        "false_positive",
			path:        "odd.htm",
			status:      StatusFalsePositive,
			hits:        1,
			want:        "🤔 No-op rewrite odd.htm (1 detected)",
			description: "should flag detections that changed nothing",
		},
		{
			name:        "failed_file",
			path:        "locked.htm",
			status:      StatusFailed,
			want:        "❌ Failed locked.htm",
			description: "should show error symbol for failed files",
		},
		{
			name:        "unchanged_file",
			path:        "stable.htm",
			status:      StatusUnchanged,
			want:        "👍 Unchanged stable.htm",
			description: "should show unchanged symbol for clean files",
		},
		{
			name:        "empty_path",
			path:        "",
			status:      StatusUnknown,
			want:        "👍 Unchanged ",
			description: "should handle empty paths",
		},
	}

	formatter := NewDefaultFileFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatter.FormatFileOperation(tt.path, tt.status, tt.hits)
			assert.Equal(t, tt.want, got, tt.description)
		})
	}
}

func TestDefaultFileFormatter_FormatProgress(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    string
	}{
		{name: "start", current: 0, total: 10, want: fmt.Sprintf(MsgProgress, EmojiProgress, 0, 10, 0.0)},
		{name: "halfway", current: 5, total: 10, want: fmt.Sprintf(MsgProgress, EmojiProgress, 5, 10, 50.0)},
		{name: "complete", current: 10, total: 10, want: fmt.Sprintf(MsgProgress, EmojiComplete, 10, 10, 100.0)},
		{name: "over_total_is_capped", current: 12, total: 10, want: fmt.Sprintf(MsgProgress, EmojiComplete, 12, 10, 100.0)},
		{name: "empty_run", current: 0, total: 0, want: fmt.Sprintf(MsgProgress, EmojiComplete, 0, 0, 0.0)},
		{name: "negative", current: -1, total: 10, want: fmt.Sprintf(MsgProgress, EmojiProgress, 0, 0, 0.0)},
	}

	formatter := NewDefaultFileFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatter.FormatProgress(tt.current, tt.total))
		})
	}
}

func TestDefaultFileFormatter_FormatError(t *testing.T) {
	formatter := NewDefaultFileFormatter()
	assert.Equal(t, "", formatter.FormatError(nil))
	assert.Equal(t, "❌ Error: permission denied", formatter.FormatError(fmt.Errorf("permission denied")))
}

func TestDefaultFileFormatter_FormatDiff(t *testing.T) {
	before := "<html>\n<a href=\"\\AuntRuth\\index1.htm\">\n<p>same</p>\n</html>\n"
	after := "<html>\n<a href=\"/auntruth/index1.htm\">\n<p>same</p>\n</html>\n"

	got := NewDefaultFileFormatter().FormatDiff("index.htm", before, after)

	assert.True(t, strings.HasPrefix(got, "--- index.htm\n+++ index.htm\n"))
	assert.Contains(t, got, "-<a href=\"\\AuntRuth\\index1.htm\">\n")
	assert.Contains(t, got, "+<a href=\"/auntruth/index1.htm\">\n")
	assert.NotContains(t, got, "<p>same</p>", "unchanged lines should collapse")
}
