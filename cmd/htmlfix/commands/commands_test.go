package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/htmlfix/cmd/htmlfix/opts"
	"github.com/walteh/htmlfix/pkg/config"
	"github.com/walteh/htmlfix/pkg/defect"
	"github.com/walteh/htmlfix/pkg/linkcheck"
	"github.com/walteh/htmlfix/pkg/log"
	"github.com/walteh/htmlfix/pkg/status"
	"github.com/walteh/htmlfix/pkg/walk"
)

const brokenPage = `<html><body><a href="\AuntRuth\index1.htm">home</a></body></html>`
const fixedPage = `<html><body><a href="/auntruth/index1.htm">home</a></body></html>`

type harness struct {
	ro  *opts.RootOpts
	out *bytes.Buffer
	ctx context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	zlog := zerolog.New(zerolog.NewTestWriter(t))
	out := &bytes.Buffer{}
	ro := &opts.RootOpts{
		Config:  config.Default(),
		Console: log.New(out, zlog),
		Out:     out,
	}
	return &harness{ro: ro, out: out, ctx: zlog.WithContext(context.Background())}
}

func (h *harness) exec(cmd *cobra.Command, args ...string) error {
	h.out.Reset()
	cmd.SetArgs(args)
	cmd.SetOut(h.out)
	cmd.SetErr(h.out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(h.ctx)
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestFixPreviewByDefault(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{"index.htm": brokenPage, "ok.htm": fixedPage})

	require.NoError(t, h.exec(NewFixCmd(h.ro), "--target-dir", root))

	assert.Equal(t, brokenPage, readFile(t, filepath.Join(root, "index.htm")), "preview must not write")
	out := h.out.String()
	assert.Contains(t, out, "--- index.htm")
	assert.Contains(t, out, `+<html><body><a href="/auntruth/index1.htm">home</a></body></html>`)
	assert.Contains(t, out, "Files changed")
	assert.Contains(t, out, "run again with --execute")
	assert.NotContains(t, out, "ok.htm", "unchanged files are quiet without debug")
}

func TestFixExecute(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{"index.htm": brokenPage, "People/XF1.html": fixedPage})

	require.NoError(t, h.exec(NewFixCmd(h.ro), "--target-dir", root, "--execute", "--validate", "--json"))
	assert.Equal(t, fixedPage, readFile(t, filepath.Join(root, "index.htm")))

	var summary status.RunSummary
	require.NoError(t, json.Unmarshal(h.out.Bytes()[bytes.IndexByte(h.out.Bytes(), '{'):], &summary))
	assert.Equal(t, "apply", summary.Mode)
	assert.Equal(t, 2, summary.FilesScanned)
	assert.Equal(t, 1, summary.FilesChanged)
	assert.Equal(t, map[string]int{defect.BackslashPaths: 1}, summary.PatternHitCounts)
	assert.Empty(t, summary.Residuals)
	assert.Empty(t, summary.Errors)
}

func TestFixDryRunWinsOverExecute(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{"index.htm": brokenPage})

	require.NoError(t, h.exec(NewFixCmd(h.ro), "--target-dir", root, "--execute", "--dry-run"))
	assert.Equal(t, brokenPage, readFile(t, filepath.Join(root, "index.htm")))
}

func TestFixSelectedDefects(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{"index.htm": brokenPage})

	require.NoError(t, h.exec(NewFixCmd(h.ro), "word-artifacts", "--target-dir", root, "--execute"))
	assert.Equal(t, brokenPage, readFile(t, filepath.Join(root, "index.htm")), "backslash-paths was not selected")

	err := h.exec(NewFixCmd(h.ro), "no-such-defect", "--target-dir", root)
	require.Error(t, err)
	assert.ErrorIs(t, err, defect.ErrUnknownDefect)
}

func TestFixTargetDir(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		h := newHarness(t)
		err := h.exec(NewFixCmd(h.ro))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target directory is required")
	})

	t.Run("missing", func(t *testing.T) {
		h := newHarness(t)
		err := h.exec(NewFixCmd(h.ro), "--target-dir", filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		var nf *walk.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("from_config", func(t *testing.T) {
		h := newHarness(t)
		root := writeSite(t, map[string]string{"index.htm": brokenPage})
		h.ro.Config.TargetDir = root

		require.NoError(t, h.exec(NewFixCmd(h.ro), "--execute"))
		assert.Equal(t, fixedPage, readFile(t, filepath.Join(root, "index.htm")))
	})
}

func TestScan(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{"index.htm": brokenPage, "b.htm": brokenPage})

	require.NoError(t, h.exec(NewScanCmd(h.ro), "--target-dir", root))
	out := h.out.String()
	assert.NotContains(t, out, "--- index.htm", "scan prints no diffs")
	assert.Contains(t, out, defect.BackslashPaths)
	assert.Equal(t, brokenPage, readFile(t, filepath.Join(root, "index.htm")))
}

func TestVerify(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{"index.htm": brokenPage, "ok.htm": fixedPage})

	require.NoError(t, h.exec(NewVerifyCmd(h.ro), "--target-dir", root))
	assert.Contains(t, h.out.String(), "index.htm has 1 backslash-paths (not written this run)")

	err := h.exec(NewVerifyCmd(h.ro), "--target-dir", root, "--fail-on-residual")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResiduals)

	require.NoError(t, h.exec(NewFixCmd(h.ro), "--target-dir", root, "--execute"))
	require.NoError(t, h.exec(NewVerifyCmd(h.ro), "--target-dir", root, "--fail-on-residual"))
}

func TestBackupAndRestore(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{"index.htm": brokenPage, "ok.htm": fixedPage})
	index := filepath.Join(root, "index.htm")

	require.NoError(t, h.exec(NewFixCmd(h.ro), "--target-dir", root, "--execute", "--backup"))
	assert.Equal(t, fixedPage, readFile(t, index))
	assert.Equal(t, brokenPage, readFile(t, index+status.BackupSuffix))
	assert.NoFileExists(t, filepath.Join(root, "ok.htm"+status.BackupSuffix), "unchanged files are not backed up")

	require.NoError(t, h.exec(NewRestoreCmd(h.ro), "--target-dir", root, "--dry-run"))
	assert.Contains(t, h.out.String(), "would restore index.htm")
	assert.Equal(t, fixedPage, readFile(t, index))

	require.NoError(t, h.exec(NewRestoreCmd(h.ro), "--target-dir", root))
	assert.Equal(t, brokenPage, readFile(t, index))
	assert.NoFileExists(t, index+status.BackupSuffix)

	require.NoError(t, h.exec(NewRestoreCmd(h.ro), "--target-dir", root))
	assert.Contains(t, h.out.String(), "no backups found")
}

func TestDefects(t *testing.T) {
	h := newHarness(t)
	h.ro.Config.Rules = []config.Rule{{Name: "old-domain", Pattern: `http://www\.auntruth\.com/`, Replace: "/auntruth/"}}

	require.NoError(t, h.exec(NewDefectsCmd(h.ro), "--json"))

	var rows []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &rows))
	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		defect.Windows1252Text,
		defect.BackslashPaths,
		defect.AuntRuthRootCase,
		defect.UppercaseExtensions,
		defect.CounterTags,
		defect.WordArtifacts,
		defect.LegacyCharset,
		"old-domain",
		defect.FilenameCase,
	}, names)

	require.NoError(t, h.exec(NewDefectsCmd(h.ro)))
	assert.Contains(t, h.out.String(), "remove cgi-bin hit counter images")
}

func TestLinkCheckCrawlAndSummarize(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{
		"index.html": `<html><body>
<a href="People/XF1.htm">ok</a>
<a href="/AuntRuth/People/XF1.htm">root case</a>
<a href="People/XF1.HTM">extension case</a>
<a href="http://example.com/">elsewhere</a>
</body></html>`,
		"People/XF1.htm": `<html><body>no links</body></html>`,
	})
	report := filepath.Join(t.TempDir(), "links.csv")

	require.NoError(t, h.exec(NewLinkCheckCmd(h.ro), "crawl", "--target-dir", root, "--output", report))
	assert.Contains(t, h.out.String(), "wrote 3 links to "+report)
	assert.Contains(t, h.out.String(), "next: htmlfix fix")

	fh, err := os.Open(report)
	require.NoError(t, err)
	defer fh.Close()
	records, err := linkcheck.ReadCSV(fh)
	require.NoError(t, err)
	assert.Equal(t, []linkcheck.Record{
		{Path: "index.html", Status: 200, URL: "People/XF1.htm"},
		{Path: "index.html", Status: 404, URL: "/AuntRuth/People/XF1.htm", Error: "outside /auntruth/"},
		{Path: "index.html", Status: 404, URL: "People/XF1.HTM"},
	}, records)

	require.NoError(t, h.exec(NewLinkCheckCmd(h.ro), "summarize", "--input", report, "--json"))
	var summary linkcheck.Summary
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Broken)
	require.Len(t, summary.Suggestions, 2)
	assert.Equal(t, defect.AuntRuthRootCase, summary.Suggestions[0].Defect)
	assert.Equal(t, defect.UppercaseExtensions, summary.Suggestions[1].Defect)
}

func TestLinkCheckCrawlToStdout(t *testing.T) {
	h := newHarness(t)
	root := writeSite(t, map[string]string{"index.html": `<a href="index.html">self</a>`})

	require.NoError(t, h.exec(NewLinkCheckCmd(h.ro), "crawl", "--target-dir", root, "--output", "-"))
	assert.True(t, strings.HasPrefix(h.out.String(), "path,status,url,error\nindex.html,200,index.html,\n"))
	assert.Contains(t, h.out.String(), "no broken links")
}

func TestBuildRegistry(t *testing.T) {
	root := writeSite(t, map[string]string{"People/XF1.htm": fixedPage})
	ctx := context.Background()

	tests := []struct {
		name        string
		rules       []config.Rule
		defects     []string
		names       []string
		resolveCase bool
		want        []string
		wantErr     error
	}{
		{
			name: "all_builtins",
			want: defect.Builtins().Names(),
		},
		{
			name:    "config_defects_when_no_names",
			defects: []string{defect.WordArtifacts, defect.CounterTags},
			want:    []string{defect.CounterTags, defect.WordArtifacts},
		},
		{
			name:    "names_win_over_config",
			defects: []string{defect.WordArtifacts},
			names:   []string{defect.LegacyCharset},
			want:    []string{defect.LegacyCharset},
		},
		{
			name:  "custom_rule_runs_last",
			rules: []config.Rule{{Name: "nbsp", Pattern: "&nbsp;&nbsp;", Replace: "&nbsp;", Literal: true}},
			names: []string{"nbsp", defect.BackslashPaths},
			want:  []string{defect.BackslashPaths, "nbsp"},
		},
		{
			name:        "resolve_case_replaces_uppercase_extensions",
			names:       []string{defect.UppercaseExtensions},
			resolveCase: true,
			want:        []string{defect.FilenameCase},
		},
		{
			name:  "filename_case_by_name",
			names: []string{defect.FilenameCase, defect.BackslashPaths},
			want:  []string{defect.BackslashPaths, defect.FilenameCase},
		},
		{
			name:    "rule_shadowing_builtin",
			rules:   []config.Rule{{Name: defect.CounterTags, Pattern: "x", Replace: "y"}},
			wantErr: defect.ErrDuplicateDefect,
		},
		{
			name:    "unknown_name",
			names:   []string{"nope"},
			wantErr: defect.ErrUnknownDefect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Rules = tt.rules
			cfg.Defects = tt.defects

			reg, err := buildRegistry(ctx, cfg, root, tt.names, tt.resolveCase)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, reg.Names())
		})
	}
}
