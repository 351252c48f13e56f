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
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/htmlfix/pkg/checkpoint"
	"github.com/walteh/htmlfix/pkg/defect"
	"github.com/walteh/htmlfix/pkg/status"
	"github.com/walteh/htmlfix/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

// ErrNotWritable is returned by an Apply run whose root cannot be written.
var ErrNotWritable = errors.Base("target directory is not writable")

// 👀 Event is what the driver reports about one file
type Event struct {
	Path    string
	RelPath string
	Outcome status.FileStatus
	Defects []string
	Hits    int
	Err     error
}

// Observer is called once per file, in scan order, from the driver goroutine
type Observer func(ctx context.Context, ev Event)

// 🔧 Options contains configuration for the driver
type Options struct {
	// Root is the directory to fix
	Root string
	// Walk selects the candidate files under Root
	Walk walk.Options
	// Defects are run over every file, in registry order
	Defects *defect.Registry
	// Files reads and writes file content
	Files status.FileManager
	// Reporter tracks per-file status and progress (optional)
	Reporter status.StatusReporter
	// Checkpointer is called every CheckpointEvery written files and once at
	// the end (optional)
	Checkpointer    checkpoint.Checkpointer
	CheckpointEvery int
	// Workers bounds parallel reads during Scan
	Workers int
	// Observer receives per-file events (optional)
	Observer Observer
	// Out receives preview diffs (optional)
	Out io.Writer
	// Formatter renders preview diffs
	Formatter status.FileFormatter
}

// 🎮 Driver runs the Scan, Preview, Apply and Verify steps over one root
type Driver struct {
	opts Options
}

// 🏭 New creates a new driver with the given options
func New(opts Options) (*Driver, error) {
	if opts.Root == "" {
		return nil, errors.Errorf("root is required")
	}
	if opts.Defects == nil || opts.Defects.Len() == 0 {
		return nil, errors.Errorf("at least one defect is required")
	}
	if opts.Files == nil {
		return nil, errors.Errorf("file manager is required")
	}
	if opts.Formatter == nil {
		opts.Formatter = status.NewDefaultFileFormatter()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.Errorf("resolving root: %w", err)
	}
	opts.Root = root

	return &Driver{opts: opts}, nil
}

// Root returns the absolute root directory
func (d *Driver) Root() string {
	return d.opts.Root
}

// ScanResult holds every FileTask of a scan in walk order
type ScanResult struct {
	Tasks []*FileTask

	// Errors are directories that could not be listed
	Errors []status.FileError
}

// 🔍 Scan walks the root and builds a FileTask for every candidate file. All
// tasks are complete before Scan returns, so nothing is written while the
// tree is still being read.
func (d *Driver) Scan(ctx context.Context) (*ScanResult, error) {
	logger := zerolog.Ctx(ctx)

	res := &ScanResult{}
	var paths []string
	for path, err := range walk.Walk(ctx, d.opts.Root, d.opts.Walk) {
		if err != nil {
			if path == "" {
				return nil, err
			}
			logger.Warn().Err(err).Str("dir", path).Msg("skipping unreadable directory")
			res.Errors = append(res.Errors, status.FileError{Path: path, Message: err.Error()})
			continue
		}
		paths = append(paths, path)
	}

	res.Tasks = make([]*FileTask, len(paths))
	runner := NewRunner(logger, d.opts.Workers)
	err := runner.Run(ctx, len(paths), func(ctx context.Context, i int) error {
		res.Tasks[i] = d.scanFile(ctx, paths[i])
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("scanning files: %w", err)
	}

	logger.Debug().Int("files", len(paths)).Msg("scan complete")
	return res, nil
}

func (d *Driver) scanFile(ctx context.Context, path string) *FileTask {
	task := &FileTask{Path: path}

	content, err := d.opts.Files.ReadFile(ctx, path)
	if err != nil {
		task.Err = err
		return task
	}

	task.OriginalText = string(content)
	res := d.opts.Defects.Run(task.OriginalText)
	task.ProposedText = res.Text
	task.Changed = res.Text != task.OriginalText
	task.Hits = res.Hits
	task.Spans = res.Spans
	for _, name := range d.opts.Defects.Names() {
		if res.Hits[name] > 0 {
			task.Defects = append(task.Defects, name)
		}
	}
	return task
}

// 🚀 Run scans the root and then carries out mode. The summary is returned
// even when err is not nil, as long as the scan got far enough to produce one.
func (d *Driver) Run(ctx context.Context, mode Mode) (*status.RunSummary, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()
	summary := status.NewRunSummary(mode.Name(), d.opts.Root)
	defer func() { summary.Duration = time.Since(start) }()

	if _, ok := mode.(Apply); ok {
		if err := d.opts.Files.CheckWritable(ctx, d.opts.Root); err != nil {
			return nil, errors.Errorf("%w: %s: %v", ErrNotWritable, d.opts.Root, err)
		}
	}

	scan, err := d.Scan(ctx)
	if err != nil {
		return nil, err
	}
	summary.Errors = append(summary.Errors, scan.Errors...)

	logger.Info().Str("mode", mode.Name()).Int("files", len(scan.Tasks)).Msg("scan finished")

	switch m := mode.(type) {
	case Preview:
		err = d.preview(ctx, m, scan, summary)
	case Apply:
		err = d.apply(ctx, m, scan, summary)
	case Verify:
		d.tally(ctx, scan, summary, func(t *FileTask) status.FileStatus { return t.ScanStatus() })
		d.residuals(scan, summary, nil)
	default:
		return nil, errors.Errorf("unknown mode %T", mode)
	}

	return summary, err
}

// tally folds every task into the summary and reports it; outcome decides
// the status of readable files
func (d *Driver) tally(ctx context.Context, scan *ScanResult, summary *status.RunSummary, outcome func(*FileTask) status.FileStatus) {
	if d.opts.Reporter != nil {
		d.opts.Reporter.StartOperation(ctx, len(scan.Tasks))
		defer d.opts.Reporter.FinishOperation(ctx)
	}

	for i, task := range scan.Tasks {
		st := status.StatusFailed
		if task.Err != nil {
			summary.AddError(task.Path, task.Err)
		} else {
			summary.FilesScanned++
			summary.AddHits(task.Hits)
			st = outcome(task)
		}

		switch st {
		case status.StatusProposed, status.StatusModified:
			summary.FilesChanged++
		case status.StatusPending:
			summary.FilesPending++
		case status.StatusFalsePositive:
			summary.FalsePositives++
		}

		d.report(ctx, task, st, task.Err)
		if d.opts.Reporter != nil {
			d.opts.Reporter.UpdateProgress(ctx, i+1)
		}
	}
}

func (d *Driver) report(ctx context.Context, task *FileTask, st status.FileStatus, err error) {
	if d.opts.Reporter != nil {
		d.opts.Reporter.TrackFile(ctx, task.Path, status.FileInfo{
			Path:     task.Path,
			Status:   st,
			Size:     int64(len(task.ProposedText)),
			Checksum: status.Checksum([]byte(task.ProposedText)),
			Hits:     task.Hits,
			Error:    err,
		})
	}
	if d.opts.Observer != nil {
		d.opts.Observer(ctx, Event{
			Path:    task.Path,
			RelPath: d.rel(task.Path),
			Outcome: st,
			Defects: task.Defects,
			Hits:    task.HitTotal(),
			Err:     err,
		})
	}
}

func (d *Driver) rel(path string) string {
	if rel, err := filepath.Rel(d.opts.Root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// 🔎 preview prints the first Sample diffs and writes nothing
func (d *Driver) preview(ctx context.Context, m Preview, scan *ScanResult, summary *status.RunSummary) error {
	d.tally(ctx, scan, summary, func(t *FileTask) status.FileStatus { return t.ScanStatus() })

	if d.opts.Out == nil || m.Sample <= 0 {
		return nil
	}

	shown := 0
	for _, task := range scan.Tasks {
		if shown >= m.Sample {
			break
		}
		if task.Err != nil || !task.Changed {
			continue
		}
		fmt.Fprint(d.opts.Out, d.opts.Formatter.FormatDiff(d.rel(task.Path), task.OriginalText, task.ProposedText))
		shown++
	}
	return nil
}

// ✍️ apply writes changed tasks in scan order
func (d *Driver) apply(ctx context.Context, m Apply, scan *ScanResult, summary *status.RunSummary) error {
	logger := zerolog.Ctx(ctx)

	var (
		written = map[string]bool{}
		batch   []string
		total   int
		runErr  error
	)

	flush := func() {
		if d.opts.Checkpointer == nil || len(batch) == 0 {
			return
		}
		if err := d.opts.Checkpointer.Checkpoint(ctx, batch, total); err != nil {
			logger.Warn().Err(err).Int("files", len(batch)).Msg("checkpoint failed, continuing")
		}
		batch = nil
	}

	d.tally(ctx, scan, summary, func(t *FileTask) status.FileStatus {
		if !t.Changed {
			return t.ScanStatus()
		}
		if runErr != nil {
			return status.StatusPending
		}
		if err := ctx.Err(); err != nil {
			runErr = errors.Errorf("apply interrupted after %d files: %w", total, err)
			return status.StatusPending
		}
		if m.Limit > 0 && total >= m.Limit {
			return status.StatusPending
		}

		if err := d.write(ctx, t, m.Backup); err != nil {
			t.Err = err
			summary.AddError(t.Path, err)
			return status.StatusFailed
		}

		written[t.Path] = true
		total++
		batch = append(batch, t.Path)
		if d.opts.CheckpointEvery > 0 && len(batch) >= d.opts.CheckpointEvery {
			flush()
		}
		return status.StatusModified
	})
	flush()

	if runErr != nil {
		return runErr
	}

	if m.Validate {
		again, err := d.Scan(ctx)
		if err != nil {
			return errors.Errorf("validating: %w", err)
		}
		d.residuals(again, summary, written)
	}
	return nil
}

func (d *Driver) write(ctx context.Context, t *FileTask, backup bool) error {
	if backup {
		if err := d.opts.Files.BackupFile(ctx, t.Path); err != nil {
			return errors.Errorf("backing up: %w", err)
		}
	}
	if err := d.opts.Files.WriteFileAtomic(ctx, t.Path, []byte(t.ProposedText)); err != nil {
		return errors.Errorf("writing: %w", err)
	}
	return nil
}

// residuals records every defect still found by scan. written marks the
// files this run wrote.
func (d *Driver) residuals(scan *ScanResult, summary *status.RunSummary, written map[string]bool) {
	for _, task := range scan.Tasks {
		if task.Err != nil {
			continue
		}
		for _, name := range task.Defects {
			summary.AddResidual(status.Residual{
				Path:    task.Path,
				Defect:  name,
				Count:   task.Hits[name],
				Applied: written[task.Path],
			})
		}
	}
}
