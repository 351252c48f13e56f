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
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/pkg/checkpoint"
	"github.com/walteh/htmlfix/pkg/linkcheck"
	"github.com/walteh/htmlfix/pkg/text"
	"github.com/walteh/htmlfix/pkg/walk"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// DefaultFiles are the config files looked up in the working directory, in order
var DefaultFiles = []string{".htmlfix.yaml", ".htmlfix.yml", ".htmlfix.hcl", ".htmlfix.json"}

const (
	DefaultSample      = 5
	DefaultWorkers     = 1
	DefaultConcurrency = linkcheck.DefaultConcurrency
	DefaultTimeout     = "10s"
	DefaultSitePrefix  = linkcheck.DefaultSitePrefix
	DefaultLinkReport  = "links.csv"
)

// 🔄 Rule is a custom rewrite rule
type Rule struct {
	Name     string   `json:"name" yaml:"name"`
	Pattern  string   `json:"pattern" yaml:"pattern"`
	Replace  string   `json:"replace" yaml:"replace"`
	Literal  bool     `json:"literal,omitempty" yaml:"literal,omitempty"`
	Examples []string `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// ReplacementRule converts the rule for the text engine
func (r Rule) ReplacementRule() text.ReplacementRule {
	return text.ReplacementRule{
		Name:     r.Name,
		FromText: r.Pattern,
		ToText:   r.Replace,
		Literal:  r.Literal,
		Examples: r.Examples,
	}
}

// 📍 CheckpointConfig controls git checkpoint commits
type CheckpointConfig struct {
	Every   int    `json:"every,omitempty" yaml:"every,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// 🔗 LinkCheckConfig configures the link checker
type LinkCheckConfig struct {
	BaseURL     string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout     string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Concurrency int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Output      string `json:"output,omitempty" yaml:"output,omitempty"`
	SitePrefix  string `json:"site_prefix,omitempty" yaml:"site_prefix,omitempty"`

	timeout time.Duration
}

// TimeoutDuration returns the parsed timeout of a validated config
func (l LinkCheckConfig) TimeoutDuration() time.Duration {
	if l.timeout == 0 {
		return linkcheck.DefaultTimeout
	}
	return l.timeout
}

// 📚 Config represents the complete configuration
type Config struct {
	TargetDir   string           `json:"target_dir,omitempty" yaml:"target_dir,omitempty"`
	Extensions  []string         `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Ignore      []string         `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	IgnoreFile  string           `json:"ignore_file,omitempty" yaml:"ignore_file,omitempty"`
	Defects     []string         `json:"defects,omitempty" yaml:"defects,omitempty"`
	Rules       []Rule           `json:"rules,omitempty" yaml:"rules,omitempty"`
	Sample      int              `json:"sample,omitempty" yaml:"sample,omitempty"`
	Workers     int              `json:"workers,omitempty" yaml:"workers,omitempty"`
	Backup      bool             `json:"backup,omitempty" yaml:"backup,omitempty"`
	ResolveCase bool             `json:"resolve_case,omitempty" yaml:"resolve_case,omitempty"`
	Checkpoint  CheckpointConfig `json:"checkpoint,omitempty" yaml:"checkpoint,omitempty"`
	LinkCheck   LinkCheckConfig  `json:"linkcheck,omitempty" yaml:"linkcheck,omitempty"`

	location string
}

// 🏭 Default returns a validated config with every default filled in
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// 🎯 Load loads the configuration from a file. A relative target_dir is
// resolved against the directory of the file.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	if cfg.TargetDir != "" && !filepath.IsAbs(cfg.TargetDir) {
		cfg.TargetDir = filepath.Join(filepath.Dir(path), cfg.TargetDir)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// 🔍 LoadOrDefault loads path when set, otherwise the first of DefaultFiles
// found in dir, otherwise the defaults.
func LoadOrDefault(ctx context.Context, path, dir string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	for _, name := range DefaultFiles {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return Load(ctx, candidate)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
	return Default(), nil
}

// 🔍 Validate checks if the configuration is valid and fills in defaults
func (cfg *Config) Validate() error {
	if cfg.TargetDir != "" {
		cfg.TargetDir = filepath.Clean(cfg.TargetDir)
	}

	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), walk.DefaultExtensions...)
	}
	cfg.Extensions = walk.NormalizeExtensions(cfg.Extensions)
	if cfg.IgnoreFile == "" {
		cfg.IgnoreFile = walk.DefaultIgnoreFile
	}

	switch {
	case cfg.Sample < 0:
		return errors.Errorf("sample must not be negative, got %d", cfg.Sample)
	case cfg.Sample == 0:
		cfg.Sample = DefaultSample
	}
	switch {
	case cfg.Workers < 0:
		return errors.Errorf("workers must not be negative, got %d", cfg.Workers)
	case cfg.Workers == 0:
		cfg.Workers = DefaultWorkers
	}

	if err := text.NewSimpleTextReplacer().ValidateRules(cfg.ReplacementRules()); err != nil {
		return errors.Errorf("rules: %w", err)
	}

	if cfg.Checkpoint.Every < 0 {
		return errors.Errorf("checkpoint.every must not be negative, got %d", cfg.Checkpoint.Every)
	}
	if cfg.Checkpoint.Message == "" {
		cfg.Checkpoint.Message = checkpoint.DefaultMessage
	}

	return cfg.LinkCheck.validate()
}

func (l *LinkCheckConfig) validate() error {
	if l.BaseURL != "" {
		u, err := url.Parse(l.BaseURL)
		if err != nil {
			return errors.Errorf("linkcheck.base_url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.Errorf("linkcheck.base_url %q must be an absolute url", l.BaseURL)
		}
	}

	if l.Timeout == "" {
		l.Timeout = DefaultTimeout
	}
	d, err := time.ParseDuration(l.Timeout)
	if err != nil {
		return errors.Errorf("linkcheck.timeout: %w", err)
	}
	if d <= 0 {
		return errors.Errorf("linkcheck.timeout must be positive, got %s", l.Timeout)
	}
	l.timeout = d

	switch {
	case l.Concurrency < 0:
		return errors.Errorf("linkcheck.concurrency must not be negative, got %d", l.Concurrency)
	case l.Concurrency == 0:
		l.Concurrency = DefaultConcurrency
	}
	if l.Output == "" {
		l.Output = DefaultLinkReport
	}
	if l.SitePrefix == "" {
		l.SitePrefix = DefaultSitePrefix
	}
	return nil
}

// ReplacementRules returns the custom rules for the text engine
func (cfg *Config) ReplacementRules() []text.ReplacementRule {
	rules := make([]text.ReplacementRule, len(cfg.Rules))
	for i, r := range cfg.Rules {
		rules[i] = r.ReplacementRule()
	}
	return rules
}

// WalkOptions returns the walker options of the config
func (cfg *Config) WalkOptions() walk.Options {
	return walk.Options{
		Extensions: cfg.Extensions,
		Ignore:     cfg.Ignore,
		IgnoreFile: cfg.IgnoreFile,
	}
}

// Location returns the file the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	target := cfg.TargetDir
	if target == "" {
		target = "."
	}
	return fmt.Sprintf("%s [%d extensions, %d rules, %d workers]", target, len(cfg.Extensions), len(cfg.Rules), cfg.Workers)
}
