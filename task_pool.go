// Copyright 2025 The DBQ Authors
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

package dbqguard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// TaskPool runs read-only tasks with bounded concurrency and collects their errors.
type TaskPool struct {
	semaphore chan struct{}
	logger    *slog.Logger
	wg        sync.WaitGroup
	mu        sync.Mutex
	errors    []error
}

func NewTaskPool(poolSize int, logger *slog.Logger) *TaskPool {
	if logger == nil {
		// noop logger by default
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if poolSize < 1 {
		poolSize = 1
	}

	return &TaskPool{
		semaphore: make(chan struct{}, poolSize),
		logger:    logger,
	}
}

// Enqueue schedules task. A task whose turn comes after ctx is done is not run
// and ctx.Err() is recorded instead.
func (tp *TaskPool) Enqueue(ctx context.Context, id string, task func() error) {
	tp.wg.Add(1)
	go func() {
		defer tp.wg.Done()

		select {
		case tp.semaphore <- struct{}{}:
		case <-ctx.Done():
			tp.addError(ctx.Err())
			return
		}
		defer func() { <-tp.semaphore }()

		if err := ctx.Err(); err != nil {
			tp.addError(err)
			return
		}

		tp.logger.Debug("executing task", "task_id", id)
		exeStartTime := time.Now()
		if err := task(); err != nil {
			tp.logger.Error("task failed", "task_id", id, "error", err.Error())
			tp.addError(err)
		}
		elapsed := time.Since(exeStartTime).Milliseconds()
		tp.logger.Debug("completed task", "task_id", id, "elapsed_ms", elapsed)
	}()
}

func (tp *TaskPool) addError(err error) {
	tp.mu.Lock()
	tp.errors = append(tp.errors, err)
	tp.mu.Unlock()
}

// Join waits for every enqueued task and returns their errors joined.
func (tp *TaskPool) Join() error {
	tp.wg.Wait()
	return errors.Join(tp.Errors()...)
}

func (tp *TaskPool) Errors() []error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	errsCopy := make([]error, len(tp.errors))
	copy(errsCopy, tp.errors)
	return errsCopy
}
