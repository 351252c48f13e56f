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

package operation

import (
	"github.com/walteh/htmlfix/pkg/status"
	"github.com/walteh/htmlfix/pkg/text"
)

// 📄 FileTask is what Scan learned about one file
type FileTask struct {
	Path         string
	OriginalText string
	ProposedText string

	// Changed is true when ProposedText differs from OriginalText
	Changed bool

	// Hits holds occurrences per defect; Defects lists the defects with hits
	// in the order they ran
	Hits    map[string]int
	Defects []string
	Spans   map[string][]text.Span

	// Err is set when the file could not be read
	Err error
}

// HitTotal sums Hits
func (t *FileTask) HitTotal() int {
	n := 0
	for _, v := range t.Hits {
		n += v
	}
	return n
}

// Detected reports whether any defect found something
func (t *FileTask) Detected() bool {
	return len(t.Hits) > 0
}

// FalsePositive reports a detection whose rewrite left the text as it was
func (t *FileTask) FalsePositive() bool {
	return t.Detected() && !t.Changed
}

// ScanStatus is the status the task has when nothing gets written
func (t *FileTask) ScanStatus() status.FileStatus {
	switch {
	case t.Err != nil:
		return status.StatusFailed
	case t.Changed:
		return status.StatusProposed
	case t.FalsePositive():
		return status.StatusFalsePositive
	default:
		return status.StatusUnchanged
	}
}
