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
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/cmd/htmlfix/opts"
	"github.com/walteh/htmlfix/pkg/status"
	"github.com/walteh/htmlfix/pkg/walk"
)

// NewRestoreCmd creates the restore command
func NewRestoreCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		dir    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Put back the " + status.BackupSuffix + " copies left by fix --backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := zerolog.Ctx(ctx)

			root, err := targetDir(ro, dir)
			if err != nil {
				return err
			}

			walkOpts := ro.Config.WalkOptions()
			walkOpts.Extensions = []string{status.BackupSuffix}
			backups, err := walk.List(ctx, root, walkOpts)
			if err != nil {
				return errors.Errorf("finding backups: %w", err)
			}
			if len(backups) == 0 {
				ro.Console.Info("no backups found")
				return nil
			}

			files := status.New(root, logger)
			restored, failed := 0, 0
			for _, backup := range backups {
				original := strings.TrimSuffix(backup, status.BackupSuffix)
				rel, _ := filepath.Rel(root, original)
				if dryRun {
					ro.Console.Infof("would restore %s", filepath.ToSlash(rel))
					continue
				}
				if err := files.RestoreFile(ctx, original); err != nil {
					ro.Console.Errorf("%s: %v", filepath.ToSlash(rel), err)
					failed++
					continue
				}
				restored++
			}

			if dryRun {
				ro.Console.Infof("%d backups found, nothing restored", len(backups))
				return nil
			}
			ro.Console.Successf("restored %d files", restored)
			if failed > 0 {
				return errors.Errorf("%d of %d restores failed", failed, len(backups))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "target-dir", "t", "", "directory of HTML files (default: target_dir or $HTMLFIX_TARGET_DIR)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "list the backups without restoring them")
	return cmd
}
