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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/htmlfix/pkg/checkpoint"
	"github.com/walteh/htmlfix/pkg/text"
	"github.com/walteh/htmlfix/pkg/walk"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, walk.DefaultExtensions, cfg.Extensions)
	assert.Equal(t, walk.DefaultIgnoreFile, cfg.IgnoreFile)
	assert.Equal(t, DefaultSample, cfg.Sample)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, checkpoint.DefaultMessage, cfg.Checkpoint.Message)
	assert.Equal(t, 0, cfg.Checkpoint.Every)
	assert.Equal(t, DefaultConcurrency, cfg.LinkCheck.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.LinkCheck.TimeoutDuration())
	assert.Equal(t, DefaultSitePrefix, cfg.LinkCheck.SitePrefix)
	assert.Equal(t, DefaultLinkReport, cfg.LinkCheck.Output)
	assert.Empty(t, cfg.Location())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		config      string
		errContains string
		check       func(t *testing.T, dir string, cfg *Config)
	}{
		{
			name: "valid_yaml",
			file: ".htmlfix.yaml",
			config: `
target_dir: site
extensions: [HTM, .Html, shtml]
ignore:
  - "cgi-bin/**"
defects: [backslash-paths, word-artifacts]
rules:
  - name: old-domain
    pattern: 'http://www\.auntruth\.com/'
    replace: 'https://auntieruth.com/'
sample: 3
workers: 4
backup: true
checkpoint:
  every: 100
linkcheck:
  base_url: http://localhost:8080/
  timeout: 2s
`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, filepath.Join(dir, "site"), cfg.TargetDir, "relative target dir resolves against the config file")
				assert.Equal(t, []string{".htm", ".html", ".shtml"}, cfg.Extensions)
				assert.Equal(t, []string{"cgi-bin/**"}, cfg.Ignore)
				assert.Equal(t, []string{"backslash-paths", "word-artifacts"}, cfg.Defects)
				require.Len(t, cfg.Rules, 1)
				assert.Equal(t, "old-domain", cfg.Rules[0].Name)
				assert.Equal(t, 3, cfg.Sample)
				assert.Equal(t, 4, cfg.Workers)
				assert.True(t, cfg.Backup)
				assert.Equal(t, 100, cfg.Checkpoint.Every)
				assert.Equal(t, checkpoint.DefaultMessage, cfg.Checkpoint.Message)
				assert.Equal(t, 2*time.Second, cfg.LinkCheck.TimeoutDuration())
				assert.Equal(t, "http://localhost:8080/", cfg.LinkCheck.BaseURL)
			},
		},
		{
			name:   "empty_yaml_uses_defaults",
			file:   ".htmlfix.yml",
			config: "",
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, DefaultSample, cfg.Sample)
				assert.Empty(t, cfg.TargetDir)
			},
		},
		{
			name: "valid_json",
			file: "htmlfix.json",
			config: `{
				"target_dir": "/srv/auntruth",
				"rules": [{"name": "nbsp", "pattern": "&nbsp;&nbsp;", "replace": "&nbsp;", "literal": true}],
				"linkcheck": {"concurrency": 8, "site_prefix": "/"}
			}`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, "/srv/auntruth", cfg.TargetDir)
				require.Len(t, cfg.Rules, 1)
				assert.True(t, cfg.Rules[0].Literal)
				assert.Equal(t, 8, cfg.LinkCheck.Concurrency)
				assert.Equal(t, "/", cfg.LinkCheck.SitePrefix)
			},
		},
		{
			name: "valid_hcl",
			file: ".htmlfix.hcl",
			config: `
target_dir = "/srv/auntruth"
defects    = ["counter-tags"]
workers    = 2

rule "old-domain" {
  pattern  = "http://www\\.auntruth\\.com/"
  replace  = "https://auntieruth.com${site_root}"
  examples = ["href=\"http://www.auntruth.com/index.htm\""]
}

checkpoint {
  every   = 50
  message = "fix: %d files"
}

linkcheck {
  base_url = "https://auntieruth.com/"
  timeout  = "500ms"
}
`,
			check: func(t *testing.T, dir string, cfg *Config) {
				assert.Equal(t, "/srv/auntruth", cfg.TargetDir)
				assert.Equal(t, []string{"counter-tags"}, cfg.Defects)
				assert.Equal(t, 2, cfg.Workers)
				require.Len(t, cfg.Rules, 1)
				assert.Equal(t, Rule{
					Name:     "old-domain",
					Pattern:  `http://www\.auntruth\.com/`,
					Replace:  "https://auntieruth.com/auntruth/",
					Examples: []string{`href="http://www.auntruth.com/index.htm"`},
				}, cfg.Rules[0])
				assert.Equal(t, CheckpointConfig{Every: 50, Message: "fix: %d files"}, cfg.Checkpoint)
				assert.Equal(t, 500*time.Millisecond, cfg.LinkCheck.TimeoutDuration())
			},
		},
		{
			name:        "unknown_yaml_field",
			file:        ".htmlfix.yaml",
			config:      "target: site\n",
			errContains: "field target not found",
		},
		{
			name:        "unknown_json_field",
			file:        "htmlfix.json",
			config:      `{"destination": "x"}`,
			errContains: "unknown field",
		},
		{
			name:        "unsupported_extension",
			file:        "htmlfix.toml",
			config:      "sample = 1",
			errContains: "no parser found",
		},
		{
			name:        "negative_sample",
			file:        ".htmlfix.yaml",
			config:      "sample: -1\n",
			errContains: "sample must not be negative",
		},
		{
			name:        "negative_workers",
			file:        ".htmlfix.yaml",
			config:      "workers: -2\n",
			errContains: "workers must not be negative",
		},
		{
			name:        "bad_timeout",
			file:        ".htmlfix.yaml",
			config:      "linkcheck:\n  timeout: soon\n",
			errContains: "linkcheck.timeout",
		},
		{
			name:        "relative_base_url",
			file:        ".htmlfix.yaml",
			config:      "linkcheck:\n  base_url: /auntruth/\n",
			errContains: "must be an absolute url",
		},
		{
			name: "rule_not_idempotent",
			file: ".htmlfix.yaml",
			config: `
rules:
  - name: grow
    pattern: "a"
    replace: "aa"
    literal: true
`,
			errContains: "rule is not idempotent",
		},
		{
			name: "pattern_rule_grows_without_examples",
			file: ".htmlfix.yaml",
			config: `
rules:
  - name: dup
    pattern: "foo"
    replace: "foofoo"
`,
			errContains: "rule is not idempotent",
		},
		{
			name: "rule_matches_empty",
			file: ".htmlfix.yaml",
			config: `
rules:
  - name: empty
    pattern: "x*"
    replace: "y"
`,
			errContains: "matches the empty string",
		},
		{
			name: "duplicate_rule_names",
			file: ".htmlfix.yaml",
			config: `
rules:
  - name: same
    pattern: "a"
    replace: "b"
  - name: same
    pattern: "c"
    replace: "d"
`,
			errContains: "duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.file, tt.config)

			cfg, err := Load(testContext(t), path)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Location())
			tt.check(t, dir, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(testContext(t), filepath.Join(t.TempDir(), ".htmlfix.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefault(t *testing.T) {
	ctx := testContext(t)

	t.Run("no_file_uses_defaults", func(t *testing.T) {
		cfg, err := LoadOrDefault(ctx, "", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("first_default_file_wins", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ".htmlfix.json", `{"sample": 9}`)
		yml := writeConfig(t, dir, ".htmlfix.yml", "sample: 7\n")

		cfg, err := LoadOrDefault(ctx, "", dir)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Sample)
		assert.Equal(t, yml, cfg.Location())
	})

	t.Run("explicit_path", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ".htmlfix.yml", "sample: 7\n")
		other := writeConfig(t, dir, "other.yaml", "sample: 2\n")

		cfg, err := LoadOrDefault(ctx, other, dir)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Sample)
	})
}

func TestApplyEnv(t *testing.T) {
	ctx := testContext(t)

	t.Run("process_environment", func(t *testing.T) {
		t.Setenv(EnvTargetDir, "/from/env")
		t.Setenv(EnvBaseURL, "https://auntieruth.com/")

		cfg := Default()
		cfg.TargetDir = "/from/file"
		require.NoError(t, ApplyEnv(ctx, cfg, ""))
		assert.Equal(t, "/from/env", cfg.TargetDir)
		assert.Equal(t, "https://auntieruth.com/", cfg.LinkCheck.BaseURL)
	})

	t.Run("env_file_fills_unset_variables", func(t *testing.T) {
		t.Setenv(EnvTargetDir, "")
		t.Setenv(EnvBaseURL, "https://process.example/")

		dir := t.TempDir()
		envFile := writeConfig(t, dir, ".env", "HTMLFIX_TARGET_DIR=/from/dotenv\nHTMLFIX_BASE_URL=https://dotenv.example/\n")

		cfg := Default()
		require.NoError(t, ApplyEnv(ctx, cfg, envFile))
		assert.Equal(t, "/from/dotenv", cfg.TargetDir)
		assert.Equal(t, "https://process.example/", cfg.LinkCheck.BaseURL)
	})

	t.Run("missing_env_file", func(t *testing.T) {
		t.Setenv(EnvTargetDir, "")
		t.Setenv(EnvBaseURL, "")

		cfg := Default()
		cfg.TargetDir = "/kept"
		require.NoError(t, ApplyEnv(ctx, cfg, filepath.Join(t.TempDir(), ".env")))
		assert.Equal(t, "/kept", cfg.TargetDir)
	})

	t.Run("invalid_override", func(t *testing.T) {
		t.Setenv(EnvTargetDir, "")
		t.Setenv(EnvBaseURL, "not a url")

		require.Error(t, ApplyEnv(ctx, Default(), ""))
	})
}

func TestReplacementRules(t *testing.T) {
	cfg := &Config{Rules: []Rule{{Name: "a", Pattern: "x", Replace: "y", Literal: true, Examples: []string{"xx"}}}}
	assert.Equal(t, []text.ReplacementRule{{Name: "a", FromText: "x", ToText: "y", Literal: true, Examples: []string{"xx"}}}, cfg.ReplacementRules())
}

func TestWalkOptions(t *testing.T) {
	cfg := Default()
	cfg.Ignore = []string{"old/**"}
	assert.Equal(t, walk.Options{
		Extensions: []string{".htm", ".html"},
		Ignore:     []string{"old/**"},
		IgnoreFile: walk.DefaultIgnoreFile,
	}, cfg.WalkOptions())
}
