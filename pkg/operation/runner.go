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

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// 🏃 OperationRunner runs per-file work, either in order or on a bounded pool
type OperationRunner struct {
	logger  *zerolog.Logger
	workers int
}

// 🏗️ NewRunner creates a new runner. One worker or fewer runs sequentially.
func NewRunner(logger *zerolog.Logger, workers int) *OperationRunner {
	if workers < 1 {
		workers = 1
	}
	return &OperationRunner{
		logger:  logger,
		workers: workers,
	}
}

// 🏃 Run calls fn for every index in [0, n). fn must only write to state owned
// by its index; results are read back by index, so the outcome does not depend
// on scheduling.
func (r *OperationRunner) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if r.workers == 1 || n < 2 {
		return r.runSync(ctx, n, fn)
	}
	return r.runAsync(ctx, n, fn)
}

// 🔄 runSync runs every index in order
func (r *OperationRunner) runSync(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// ⚡ runAsync fans the indexes out to at most r.workers goroutines
func (r *OperationRunner) runAsync(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	r.logger.Debug().Int("workers", r.workers).Int("items", n).Msg("running in parallel")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
