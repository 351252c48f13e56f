package defect

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/walteh/htmlfix/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

// 🔤 CaseIndex maps lowercased file names to the single name found on disk.
// Names that exist under several spellings are ambiguous and never resolved.
type CaseIndex struct {
	names     map[string]string
	ambiguous map[string]bool
}

// NewCaseIndex builds an index from file names
func NewCaseIndex(names ...string) *CaseIndex {
	idx := &CaseIndex{names: map[string]string{}, ambiguous: map[string]bool{}}
	for _, name := range names {
		idx.Add(name)
	}
	return idx
}

// BuildCaseIndex indexes the base name of every file under root. It only reads
// the directory tree and runs before any file is scanned.
func BuildCaseIndex(ctx context.Context, root string, opts walk.Options) (*CaseIndex, error) {
	opts.AllFiles = true
	paths, err := walk.List(ctx, root, opts)
	if err != nil {
		return nil, errors.Errorf("indexing file names: %w", err)
	}

	idx := NewCaseIndex()
	for _, p := range paths {
		idx.Add(filepath.Base(p))
	}
	return idx, nil
}

// Add records one on-disk name
func (c *CaseIndex) Add(name string) {
	key := strings.ToLower(name)
	if c.ambiguous[key] {
		return
	}
	if prev, ok := c.names[key]; ok && prev != name {
		delete(c.names, key)
		c.ambiguous[key] = true
		return
	}
	c.names[key] = name
}

// Resolve returns the on-disk spelling of name
func (c *CaseIndex) Resolve(name string) (string, bool) {
	actual, ok := c.names[strings.ToLower(name)]
	return actual, ok
}

// Ambiguous lists the lowercased names with more than one spelling on disk
func (c *CaseIndex) Ambiguous() []string {
	out := make([]string, 0, len(c.ambiguous))
	for k := range c.ambiguous {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of resolvable names
func (c *CaseIndex) Len() int {
	return len(c.names)
}

// 🏭 NewFilenameCase creates the filename-case defect: link targets whose file
// name exists on disk with a different case are rewritten to the disk spelling.
func NewFilenameCase(idx *CaseIndex) *Defect {
	return New(FilenameCase, "match link file names to the case found on disk", rewriteAttrs(func(value string) string {
		if isForeign(value) {
			return value
		}

		p, rest := splitURL(value)
		dir, base := "", p
		if i := strings.LastIndexAny(p, `/\`); i >= 0 {
			dir, base = p[:i+1], p[i+1:]
		}
		if base == "" {
			return value
		}

		actual, ok := idx.Resolve(base)
		if !ok || actual == base {
			return value
		}
		return dir + actual + rest
	}))
}
