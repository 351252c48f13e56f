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
	"github.com/walteh/htmlfix/pkg/text"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrUnknownDefect is returned when a name is not in the registry.
	ErrUnknownDefect = errors.Base("unknown defect")

	// ErrDuplicateDefect is returned when two defects share a name.
	ErrDuplicateDefect = errors.Base("duplicate defect")
)

// ApplyFunc rewrites text and returns the spans of the input it changed.
type ApplyFunc func(s string) (string, []text.Span)

// 🧩 Defect is one legacy-authoring problem: how to find it and how to fix it
type Defect struct {
	Name        string
	Description string
	apply       ApplyFunc
}

// 🏭 New creates a defect from its rewrite function
func New(name, description string, apply ApplyFunc) *Defect {
	return &Defect{Name: name, Description: description, apply: apply}
}

// Apply rewrites s and reports the changed spans
func (d *Defect) Apply(s string) (string, []text.Span) {
	return d.apply(s)
}

// Detect counts the occurrences in s that would change
func (d *Defect) Detect(s string) int {
	return len(d.Spans(s))
}

// Spans returns the byte ranges of s that Rewrite touches
func (d *Defect) Spans(s string) []text.Span {
	_, spans := d.apply(s)
	return spans
}

// Rewrite returns s with every occurrence fixed
func (d *Defect) Rewrite(s string) string {
	out, _ := d.apply(s)
	return out
}

// CheckIdempotent rewrites every sample twice and fails if the second
// rewrite still finds something to change.
func CheckIdempotent(d *Defect, samples ...string) error {
	for _, sample := range samples {
		once := d.Rewrite(sample)
		if n := d.Detect(once); n > 0 {
			return errors.Errorf("defect %s: %w: %q -> %q still has %d occurrences", d.Name, text.ErrNotIdempotent, sample, once, n)
		}
	}
	return nil
}

// 📚 Registry is an ordered set of defects
type Registry struct {
	defects []*Defect
	byName  map[string]int
}

// 🏭 NewRegistry creates a registry holding defects in the given order
func NewRegistry(defects ...*Defect) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(defects))}
	for _, d := range defects {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a defect
func (r *Registry) Register(d *Defect) error {
	if d == nil || d.Name == "" {
		return errors.New("defect name is required")
	}
	if _, ok := r.byName[d.Name]; ok {
		return errors.Errorf("%w: %s", ErrDuplicateDefect, d.Name)
	}
	r.byName[d.Name] = len(r.defects)
	r.defects = append(r.defects, d)
	return nil
}

// Replace swaps the defect registered as name for d, keeping its position
func (r *Registry) Replace(name string, d *Defect) error {
	i, ok := r.byName[name]
	if !ok {
		return errors.Errorf("%w: %s", ErrUnknownDefect, name)
	}
	if j, ok := r.byName[d.Name]; ok && j != i {
		return errors.Errorf("%w: %s", ErrDuplicateDefect, d.Name)
	}
	delete(r.byName, name)
	r.byName[d.Name] = i
	r.defects[i] = d
	return nil
}

// Lookup finds a defect by name
func (r *Registry) Lookup(name string) (*Defect, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.defects[i], true
}

// Select returns a registry with only the named defects, in registry order.
// No names selects everything.
func (r *Registry) Select(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	want := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			return nil, errors.Errorf("%w: %s", ErrUnknownDefect, name)
		}
		want[name] = true
	}

	out := &Registry{byName: make(map[string]int, len(want))}
	for _, d := range r.defects {
		if want[d.Name] {
			out.byName[d.Name] = len(out.defects)
			out.defects = append(out.defects, d)
		}
	}
	return out, nil
}

// All returns the defects in application order
func (r *Registry) All() []*Defect {
	return append([]*Defect(nil), r.defects...)
}

// Names returns the defect names in application order
func (r *Registry) Names() []string {
	names := make([]string, len(r.defects))
	for i, d := range r.defects {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of defects
func (r *Registry) Len() int {
	return len(r.defects)
}

// maxRunPasses bounds Run for defects that keep re-enabling each other
const maxRunPasses = 16

// Result is the outcome of running every defect of a registry over a text
type Result struct {
	Text   string
	Hits   map[string]int
	Spans  map[string][]text.Span
	Passes int
}

// Run applies each defect in order to the evolving text, then repeats the
// whole sequence until a pass changes nothing: removing markup can expose a
// link that an earlier defect already went past. Hits add up over passes.
// Spans of a defect come from the first pass it fired in and refer to the text
// as it was when it ran. Passes counts the passes that changed the text.
func (r *Registry) Run(s string) Result {
	res := Result{Text: s, Hits: map[string]int{}, Spans: map[string][]text.Span{}}
	for res.Passes < maxRunPasses {
		changed := false
		for _, d := range r.defects {
			out, spans := d.Apply(res.Text)
			if len(spans) == 0 {
				continue
			}
			res.Hits[d.Name] += len(spans)
			if _, ok := res.Spans[d.Name]; !ok {
				res.Spans[d.Name] = spans
			}
			res.Text = out
			changed = true
		}
		if !changed {
			break
		}
		res.Passes++
	}
	return res
}
