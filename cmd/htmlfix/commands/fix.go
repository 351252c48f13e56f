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

package commands

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/cmd/htmlfix/opts"
	"github.com/walteh/htmlfix/pkg/checkpoint"
	"github.com/walteh/htmlfix/pkg/defect"
	"github.com/walteh/htmlfix/pkg/log"
	"github.com/walteh/htmlfix/pkg/operation"
	"github.com/walteh/htmlfix/pkg/status"
)

// ErrResiduals is returned by verify --fail-on-residual when defects remain
var ErrResiduals = errors.Base("defects remain")

// runFlags are shared by fix, scan and verify
type runFlags struct {
	targetDir       string
	dryRun          bool
	execute         bool
	limit           int
	validate        bool
	sample          int
	workers         int
	checkpointEvery int
	resolveCase     bool
	backup          bool
	json            bool
	failOnResidual  bool
}

func addTargetFlags(cmd *cobra.Command, ro *opts.RootOpts, f *runFlags) {
	cmd.ValidArgsFunction = defectNames(ro)
	cmd.Flags().StringVarP(&f.targetDir, "target-dir", "t", "", "directory of HTML files (default: target_dir or $HTMLFIX_TARGET_DIR)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "files read in parallel during the scan")
	cmd.Flags().BoolVar(&f.resolveCase, "resolve-case", false, "fix link file names to their on-disk case (replaces uppercase-extensions)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the run summary as JSON")
}

// NewFixCmd creates the fix command
func NewFixCmd(ro *opts.RootOpts) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "fix [defect...]",
		Short: "Preview or apply defect fixes",
		Long: `Fix scans the target directory and rewrites every file with a defect.

Without --execute (or with --dry-run) nothing is written: the first --sample
diffs are printed along with the counts. With --execute changed files are
written in scan order, at most --limit of them, optionally followed by a
verification scan (--validate).

Defects default to every builtin and custom rule; name some to narrow the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode operation.Mode
			if f.dryRun || !f.execute {
				mode = operation.Preview{Sample: intFlag(cmd, "sample", f.sample, ro.Config.Sample)}
			} else {
				mode = operation.Apply{
					Limit:    f.limit,
					Validate: f.validate,
					Backup:   boolFlag(cmd, "backup", f.backup, ro.Config.Backup),
				}
			}
			return run(cmd, ro, f, args, mode)
		},
	}

	addTargetFlags(cmd, ro, f)
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "preview only, wins over --execute")
	cmd.Flags().BoolVarP(&f.execute, "execute", "x", false, "write the fixes")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "write at most this many files (0 = no limit)")
	cmd.Flags().BoolVar(&f.validate, "validate", false, "rescan after writing and report what is left")
	cmd.Flags().IntVar(&f.sample, "sample", 0, "number of diffs to preview (default: sample from config)")
	cmd.Flags().IntVar(&f.checkpointEvery, "checkpoint-every", 0, "commit to git every N written files (0 = off)")
	cmd.Flags().BoolVar(&f.backup, "backup", false, "keep a .bak copy of each file before writing it")

	return cmd
}

// NewScanCmd creates the scan command
func NewScanCmd(ro *opts.RootOpts) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "scan [defect...]",
		Short: "Count defects without printing diffs or writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ro, f, args, operation.Preview{})
		},
	}
	addTargetFlags(cmd, ro, f)
	return cmd
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd(ro *opts.RootOpts) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "verify [defect...]",
		Short: "Report every file that still has a defect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ro, f, args, operation.Verify{})
		},
	}
	addTargetFlags(cmd, ro, f)
	cmd.Flags().BoolVar(&f.failOnResidual, "fail-on-residual", false, "exit non-zero when any defect remains")
	return cmd
}

// 🚀 run builds a driver from flags and config, runs mode and prints the summary
func run(cmd *cobra.Command, ro *opts.RootOpts, f *runFlags, names []string, mode operation.Mode) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	root, err := targetDir(ro, f.targetDir)
	if err != nil {
		return err
	}

	reg, err := buildRegistry(ctx, ro.Config, root, names, boolFlag(cmd, "resolve-case", f.resolveCase, ro.Config.ResolveCase))
	if err != nil {
		return errors.Errorf("selecting defects: %w", err)
	}

	files := status.New(root, logger)
	driverOpts := operation.Options{
		Root:     root,
		Walk:     ro.Config.WalkOptions(),
		Defects:  reg,
		Files:    files,
		Reporter: files,
		Workers:  intFlag(cmd, "workers", f.workers, ro.Config.Workers),
		Out:      ro.Out,
		Observer: observe(ro.Console, ro.Debug),
	}

	if _, ok := mode.(operation.Apply); ok {
		every := intFlag(cmd, "checkpoint-every", f.checkpointEvery, ro.Config.Checkpoint.Every)
		if every > 0 {
			git, err := checkpoint.NewGit(ctx, root, ro.Config.Checkpoint.Message)
			if err != nil {
				return errors.Errorf("enabling checkpoints: %w", err)
			}
			driverOpts.Checkpointer = git
			driverOpts.CheckpointEvery = every
		}
	}

	driver, err := operation.New(driverOpts)
	if err != nil {
		return errors.Errorf("creating driver: %w", err)
	}

	ro.Console.StartRun(ctx, log.RunOperation{Mode: mode.Name(), Root: driver.Root(), Defects: reg.Names()})
	summary, runErr := driver.Run(ctx, mode)
	ro.Console.EndRun(ctx)

	if summary != nil {
		if err := printSummary(ro, summary, f.json); err != nil {
			return err
		}
	}
	if runErr != nil {
		return errors.Errorf("running %s: %w", mode.Name(), runErr)
	}

	if f.failOnResidual && len(summary.Residuals) > 0 {
		return errors.Errorf("%w: %d residual defects", ErrResiduals, len(summary.Residuals))
	}
	return nil
}

func printSummary(ro *opts.RootOpts, summary *status.RunSummary, asJSON bool) error {
	if asJSON {
		return status.WriteJSON(ro.Out, summary)
	}
	ro.Console.LogNewline()
	if err := status.RenderSummary(ro.Out, summary); err != nil {
		return err
	}
	if summary.Mode == (operation.Preview{}).Name() && summary.FilesChanged > 0 {
		ro.Console.Infof("%d files would change, run again with --execute to write them", summary.FilesChanged)
	}
	return nil
}

// observe prints one console line per file; unchanged files only with debug
func observe(console *log.Logger, debug bool) operation.Observer {
	return func(ctx context.Context, ev operation.Event) {
		if ev.Outcome == status.StatusUnchanged && !debug {
			return
		}
		console.LogFileOperation(ctx, log.FileOperation{
			Path:    ev.RelPath,
			Outcome: ev.Outcome.String(),
			Defects: ev.Defects,
			Hits:    ev.Hits,
			Error:   ev.Err,
		})
	}
}

// targetDir resolves --target-dir, falling back to the config
func targetDir(ro *opts.RootOpts, flag string) (string, error) {
	dir := flag
	if dir == "" {
		dir = ro.Config.TargetDir
	}
	if dir == "" {
		return "", errors.New("target directory is required (--target-dir, target_dir or HTMLFIX_TARGET_DIR)")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", dir, err)
	}
	return abs, nil
}

// intFlag returns the flag value when it was set on the command line
func intFlag(cmd *cobra.Command, name string, flag, fallback int) int {
	if cmd.Flags().Changed(name) {
		return flag
	}
	return fallback
}

func boolFlag(cmd *cobra.Command, name string, flag, fallback bool) bool {
	if cmd.Flags().Changed(name) {
		return flag
	}
	return fallback
}

// defectNames is used for shell completion of defect arguments
func defectNames(ro *opts.RootOpts) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if ro.Config == nil {
			return defect.Builtins().Names(), cobra.ShellCompDirectiveNoFileComp
		}
		reg, err := allDefects(ro.Config)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return append(reg.Names(), defect.FilenameCase), cobra.ShellCompDirectiveNoFileComp
	}
}
