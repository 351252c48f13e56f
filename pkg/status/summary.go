package status

import (
	"sort"
	"time"
)

// FileError is a per-file failure that did not stop the run
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Residual is a file a verification pass still flags
type Residual struct {
	Path   string `json:"path"`
	Defect string `json:"defect"`
	Count  int    `json:"count"`

	// Applied is true when this run wrote the file, so the rewrite did not
	// remove everything the detector finds
	Applied bool `json:"applied"`
}

// 📋 RunSummary is the outcome of one run. It is built by the run that owns it
// and handed back to the caller.
type RunSummary struct {
	Mode             string         `json:"mode"`
	Root             string         `json:"root"`
	FilesScanned     int            `json:"files_scanned"`
	FilesChanged     int            `json:"files_changed"`
	FilesPending     int            `json:"files_pending"`
	FalsePositives   int            `json:"false_positives"`
	PatternHitCounts map[string]int `json:"pattern_hit_counts"`
	Errors           []FileError    `json:"errors"`
	Residuals        []Residual     `json:"residuals"`
	Duration         time.Duration  `json:"duration_ns"`
}

// 🏭 NewRunSummary creates an empty summary
func NewRunSummary(mode, root string) *RunSummary {
	return &RunSummary{
		Mode:             mode,
		Root:             root,
		PatternHitCounts: map[string]int{},
		Errors:           []FileError{},
		Residuals:        []Residual{},
	}
}

// AddHits folds per-defect counts of one file into the totals
func (s *RunSummary) AddHits(hits map[string]int) {
	for name, n := range hits {
		s.PatternHitCounts[name] += n
	}
}

// AddError records a per-file failure
func (s *RunSummary) AddError(path string, err error) {
	s.Errors = append(s.Errors, FileError{Path: path, Message: err.Error()})
}

// AddResidual records a file still flagged after the run
func (s *RunSummary) AddResidual(r Residual) {
	s.Residuals = append(s.Residuals, r)
}

// TotalHits sums PatternHitCounts
func (s *RunSummary) TotalHits() int {
	return totalHits(s.PatternHitCounts)
}

// HasErrors reports whether any file failed
func (s *RunSummary) HasErrors() bool {
	return len(s.Errors) > 0
}

// ConfirmedResiduals returns residuals in files this run wrote
func (s *RunSummary) ConfirmedResiduals() []Residual {
	var out []Residual
	for _, r := range s.Residuals {
		if r.Applied {
			out = append(out, r)
		}
	}
	return out
}

// DefectNames returns the defects with hits, sorted
func (s *RunSummary) DefectNames() []string {
	names := make([]string, 0, len(s.PatternHitCounts))
	for name := range s.PatternHitCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
