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

package walk

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
	"gitlab.com/tozd/go/errors"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
}

type matcher struct {
	root     string
	patterns []string
	file     gitignore.GitIgnore
}

func newMatcher(root string, patterns []string, ignoreFile string) (*matcher, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid ignore pattern %q", p)
		}
	}

	if ignoreFile == "" {
		ignoreFile = DefaultIgnoreFile
	}
	if !filepath.IsAbs(ignoreFile) {
		ignoreFile = filepath.Join(root, ignoreFile)
	}

	m := &matcher{root: root, patterns: patterns}

	f, err := os.Open(ignoreFile)
	switch {
	case err == nil:
		defer f.Close()
		m.file = gitignore.New(f, root, nil)
	case !os.IsNotExist(err):
		return nil, errors.Errorf("opening ignore file: %w", err)
	}

	return m, nil
}

func (m *matcher) ignore(path string, isDir bool) bool {
	if isDir && skipDirs[filepath.Base(path)] {
		return true
	}

	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}

	if m.file != nil {
		if match := m.file.Relative(rel, isDir); match != nil && match.Ignore() {
			return true
		}
	}
	return false
}
