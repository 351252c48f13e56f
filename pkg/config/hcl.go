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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/pkg/defect"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hcl")
}

type hclRule struct {
	Name     string   `hcl:"name,label"`
	Pattern  string   `hcl:"pattern"`
	Replace  string   `hcl:"replace"`
	Literal  bool     `hcl:"literal,optional"`
	Examples []string `hcl:"examples,optional"`
}

type hclCheckpoint struct {
	Every   int    `hcl:"every,optional"`
	Message string `hcl:"message,optional"`
}

type hclLinkCheck struct {
	BaseURL     string `hcl:"base_url,optional"`
	Timeout     string `hcl:"timeout,optional"`
	Concurrency int    `hcl:"concurrency,optional"`
	Output      string `hcl:"output,optional"`
	SitePrefix  string `hcl:"site_prefix,optional"`
}

type hclConfig struct {
	TargetDir   string         `hcl:"target_dir,optional"`
	Extensions  []string       `hcl:"extensions,optional"`
	Ignore      []string       `hcl:"ignore,optional"`
	IgnoreFile  string         `hcl:"ignore_file,optional"`
	Defects     []string       `hcl:"defects,optional"`
	Sample      int            `hcl:"sample,optional"`
	Workers     int            `hcl:"workers,optional"`
	Backup      bool           `hcl:"backup,optional"`
	ResolveCase bool           `hcl:"resolve_case,optional"`
	Rules       []hclRule      `hcl:"rule,block"`
	Checkpoint  *hclCheckpoint `hcl:"checkpoint,block"`
	LinkCheck   *hclLinkCheck  `hcl:"linkcheck,block"`
}

// evalContext exposes site_root and env to HCL expressions
func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	envVal := cty.MapValEmpty(cty.String)
	if len(env) > 0 {
		envVal = cty.MapVal(env)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"site_root": cty.StringVal(defect.SiteRoot),
			"env":       envVal,
		},
	}
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		TargetDir:   hclCfg.TargetDir,
		Extensions:  hclCfg.Extensions,
		Ignore:      hclCfg.Ignore,
		IgnoreFile:  hclCfg.IgnoreFile,
		Defects:     hclCfg.Defects,
		Sample:      hclCfg.Sample,
		Workers:     hclCfg.Workers,
		Backup:      hclCfg.Backup,
		ResolveCase: hclCfg.ResolveCase,
	}
	for _, r := range hclCfg.Rules {
		cfg.Rules = append(cfg.Rules, Rule(r))
	}
	if c := hclCfg.Checkpoint; c != nil {
		cfg.Checkpoint = CheckpointConfig(*c)
	}
	if l := hclCfg.LinkCheck; l != nil {
		cfg.LinkCheck = LinkCheckConfig{
			BaseURL:     l.BaseURL,
			Timeout:     l.Timeout,
			Concurrency: l.Concurrency,
			Output:      l.Output,
			SitePrefix:  l.SitePrefix,
		}
	}

	return cfg, nil
}
