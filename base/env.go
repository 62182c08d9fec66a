// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package base

import (
	"sync"
	"time"

	"github.com/cockroachdb/crlib/crtime"
)

// Env bundles the process-wide facilities the block I/O core needs from its
// surroundings: a monotonic clock and an executor for asynchronous read
// completions.
//
// An Env must outlive every operation issued against it. Close drains the
// executor: tasks that have not started when Close is called are invoked
// with canceled=true so that readers can deliver ShutdownInProgress to
// their callers.
type Env struct {
	mu struct {
		sync.Mutex
		cond   sync.Cond
		queue  []func(canceled bool)
		closed bool
	}
	wg sync.WaitGroup
}

// DefaultEnvWorkers is the executor size used by NewEnv when workers <= 0.
const DefaultEnvWorkers = 4

// NewEnv returns an Env whose executor runs completions on the given number
// of worker goroutines.
func NewEnv(workers int) *Env {
	if workers <= 0 {
		workers = DefaultEnvWorkers
	}
	e := &Env{}
	e.mu.cond.L = &e.mu.Mutex
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	return e
}

func (e *Env) worker() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for len(e.mu.queue) == 0 && !e.mu.closed {
			e.mu.cond.Wait()
		}
		if len(e.mu.queue) == 0 {
			e.mu.Unlock()
			return
		}
		task := e.mu.queue[0]
		e.mu.queue = e.mu.queue[1:]
		e.mu.Unlock()
		task(false)
	}
}

// Schedule enqueues a task on the executor. It returns false if the Env has
// been closed, in which case the task will never run and the caller must
// fail the operation itself.
func (e *Env) Schedule(task func(canceled bool)) bool {
	e.mu.Lock()
	if e.mu.closed {
		e.mu.Unlock()
		return false
	}
	e.mu.queue = append(e.mu.queue, task)
	e.mu.cond.Signal()
	e.mu.Unlock()
	return true
}

// Close shuts the executor down. Queued tasks that have not started are
// invoked with canceled=true; in-flight tasks run to completion. Close
// blocks until all workers have exited. Further Schedule calls fail.
func (e *Env) Close() {
	e.mu.Lock()
	if e.mu.closed {
		e.mu.Unlock()
		return
	}
	e.mu.closed = true
	pending := e.mu.queue
	e.mu.queue = nil
	e.mu.cond.Broadcast()
	e.mu.Unlock()
	for _, task := range pending {
		task(true)
	}
	e.wg.Wait()
}

// NowMono returns the current monotonic time.
func (e *Env) NowMono() crtime.Mono {
	return crtime.NowMono()
}

// Elapsed returns the duration since start.
func (e *Env) Elapsed(start crtime.Mono) time.Duration {
	return start.Elapsed()
}
