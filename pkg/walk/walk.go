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
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// DefaultExtensions are the file extensions walked when none are configured.
var DefaultExtensions = []string{".htm", ".html"}

// DefaultIgnoreFile is read from the root directory when Options.IgnoreFile is empty.
const DefaultIgnoreFile = ".htmlfixignore"

// 📁 Options controls which files a walk yields
type Options struct {
	// Extensions is a case-insensitive allow-list; the leading dot is optional
	Extensions []string

	// Ignore holds doublestar globs matched against slash-separated paths
	// relative to the root
	Ignore []string

	// IgnoreFile is a gitignore-style file relative to the root
	IgnoreFile string

	// AllFiles disables the extension filter
	AllFiles bool
}

// ❌ NotFoundError is returned when the walk root does not exist or is not a directory
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("target directory %s not found: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// NormalizeExtensions lowercases extensions, adds the leading dot and drops blanks.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

// 🚶 Walk yields the absolute path of every candidate file under root in
// sort.Strings order. A directory that cannot be read is yielded as
// (dir, err) and the walk continues with its siblings. Setup failures and
// cancellation are yielded as ("", err) and end the walk.
func Walk(ctx context.Context, root string, opts Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		w, err := newWalker(root, opts)
		if err != nil {
			yield("", err)
			return
		}
		w.dir(ctx, w.root, yield)
	}
}

// 📋 List collects Walk into a slice, failing on the first error.
func List(ctx context.Context, root string, opts Options) ([]string, error) {
	var paths []string
	for path, err := range Walk(ctx, root, opts) {
		if err != nil {
			if path != "" {
				return nil, errors.Errorf("reading directory %s: %w", path, err)
			}
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

type walker struct {
	root    string
	exts    map[string]bool
	all     bool
	matcher *matcher
}

func newWalker(root string, opts Options) (*walker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &NotFoundError{Path: abs, Err: err}
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Path: abs, Err: errors.New("not a directory")}
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool)
	for _, ext := range NormalizeExtensions(exts) {
		allowed[ext] = true
	}

	m, err := newMatcher(abs, opts.Ignore, opts.IgnoreFile)
	if err != nil {
		return nil, err
	}

	return &walker{root: abs, exts: allowed, all: opts.AllFiles, matcher: m}, nil
}

type entry struct {
	key   string
	name  string
	isDir bool
}

func (w *walker) dir(ctx context.Context, dir string, yield func(string, error) bool) bool {
	des, err := os.ReadDir(dir)
	if err != nil {
		return yield(dir, err)
	}

	// a directory sorts as name + "/" so that the walk matches sort.Strings
	// over the full paths
	entries := make([]entry, 0, len(des))
	for _, de := range des {
		e := entry{key: de.Name(), name: de.Name(), isDir: de.IsDir()}
		if e.isDir {
			e.key += "/"
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			yield("", err)
			return false
		}

		path := filepath.Join(dir, e.name)
		if w.matcher.ignore(path, e.isDir) {
			continue
		}

		if e.isDir {
			if !w.dir(ctx, path, yield) {
				return false
			}
			continue
		}

		if !w.all && !w.exts[strings.ToLower(filepath.Ext(e.name))] {
			continue
		}
		if !yield(path, nil) {
			return false
		}
	}
	return true
}
