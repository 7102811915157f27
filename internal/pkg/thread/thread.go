// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package thread provides bounded parallel execution of jobs.
package thread

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// Parallelize runs the jobs in parallel and waits for all of them.
//
// Errors are aggregated: one failing job does not cancel its siblings, only
// cancellation of ctx does. No further jobs are started once ctx is done;
// ctx.Err() is included in the returned error in that case.
//
// The default parallelism is the number of CPUs; override it with
// ParallelizeWithParallelism. A parallelism below one means unbounded.
func Parallelize(ctx context.Context, jobs []func(context.Context) error, options ...ParallelizeOption) error {
	parallelizeOptions := newParallelizeOptions()
	for _, option := range options {
		option(parallelizeOptions)
	}
	switch len(jobs) {
	case 0:
		return nil
	case 1:
		if err := ctx.Err(); err != nil {
			return err
		}
		return jobs[0](ctx)
	}
	parallelism := parallelizeOptions.parallelism
	if parallelism < 1 {
		parallelism = len(jobs)
	}
	var (
		wg       sync.WaitGroup
		lock     sync.Mutex
		retErr   error
		startErr error
	)
	weighted := semaphore.NewWeighted(int64(parallelism))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			startErr = err
			break
		}
		if err := weighted.Acquire(ctx, 1); err != nil {
			startErr = err
			break
		}
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer weighted.Release(1)
			if err := job(ctx); err != nil {
				lock.Lock()
				retErr = multierr.Append(retErr, err)
				lock.Unlock()
			}
		}()
	}
	wg.Wait()
	return multierr.Append(retErr, startErr)
}

// ParallelizeOption is an option for Parallelize.
type ParallelizeOption func(*parallelizeOptions)

// ParallelizeWithParallelism returns a ParallelizeOption that sets the
// maximum number of jobs running at once.
func ParallelizeWithParallelism(parallelism int) ParallelizeOption {
	return func(parallelizeOptions *parallelizeOptions) {
		parallelizeOptions.parallelism = parallelism
	}
}

type parallelizeOptions struct {
	parallelism int
}

func newParallelizeOptions() *parallelizeOptions {
	return &parallelizeOptions{
		parallelism: runtime.GOMAXPROCS(0),
	}
}
