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

package checkpoint

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultMessage is the commit message template; %d is the number of files
// written so far.
const DefaultMessage = "htmlfix: checkpoint after %d files"

// 📌 Checkpointer snapshots the files written since the previous checkpoint.
// total is the number of files written by the run so far.
type Checkpointer interface {
	Checkpoint(ctx context.Context, paths []string, total int) error
}

// Func adapts a function to Checkpointer
type Func func(ctx context.Context, paths []string, total int) error

func (f Func) Checkpoint(ctx context.Context, paths []string, total int) error {
	return f(ctx, paths, total)
}

// runFunc runs git in dir and returns its combined output
type runFunc func(ctx context.Context, dir string, args ...string) ([]byte, error)

func runGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// 🌳 Git commits written files to the git repository containing Dir
type Git struct {
	Dir     string
	Message string
	run     runFunc
}

// 🏭 NewGit creates a git checkpointer, failing when dir is not inside a work tree
func NewGit(ctx context.Context, dir, message string) (*Git, error) {
	return newGit(ctx, dir, message, runGit)
}

func newGit(ctx context.Context, dir, message string, run runFunc) (*Git, error) {
	if message == "" {
		message = DefaultMessage
	}
	g := &Git{Dir: dir, Message: message, run: run}

	out, err := g.run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(string(out)) != "true" {
		return nil, errors.Errorf("%s is not inside a git work tree: %w", dir, gitError(out, err))
	}
	return g, nil
}

func (g *Git) Checkpoint(ctx context.Context, paths []string, total int) error {
	if len(paths) == 0 {
		return nil
	}

	args := []string{"add", "--"}
	for _, p := range paths {
		if rel, err := filepath.Rel(g.Dir, p); err == nil {
			p = rel
		}
		args = append(args, filepath.ToSlash(p))
	}
	if out, err := g.run(ctx, g.Dir, args...); err != nil {
		return errors.Errorf("git add: %w", gitError(out, err))
	}

	// exit status 0 means nothing is staged
	if _, err := g.run(ctx, g.Dir, "diff", "--cached", "--quiet"); err == nil {
		zerolog.Ctx(ctx).Debug().Int("total", total).Msg("checkpoint skipped, nothing staged")
		return nil
	}

	msg := g.Message
	if strings.Contains(msg, "%d") {
		msg = fmt.Sprintf(msg, total)
	}
	if out, err := g.run(ctx, g.Dir, "commit", "--no-verify", "-m", msg); err != nil {
		return errors.Errorf("git commit: %w", gitError(out, err))
	}

	zerolog.Ctx(ctx).Info().Int("files", len(paths)).Int("total", total).Msg("checkpoint committed")
	return nil
}

func gitError(out []byte, err error) error {
	if err == nil {
		err = errors.New("unexpected output")
	}
	if msg := strings.TrimSpace(string(out)); msg != "" {
		return errors.Errorf("%w: %s", err, msg)
	}
	return err
}
