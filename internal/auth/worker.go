// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package auth

import (
	"context"
	"sync"
)

// JobRunner executes jobs off the caller's goroutine. Submit reports whether
// the job was accepted; it returns false once the runner is closed.
type JobRunner interface {
	Submit(job func(ctx context.Context)) bool
}

const defaultWorkerQueue = 256

// Worker is a single-goroutine JobRunner. Store access funnels through it so
// credential lookups for one connection never block the event path, and so
// at most one database operation is in flight at a time.
type Worker struct {
	mu     sync.Mutex
	closed bool

	jobs   chan func(ctx context.Context)
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

var _ JobRunner = (*Worker)(nil)

// NewWorker starts a worker with the default queue depth.
func NewWorker() *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		jobs:   make(chan func(ctx context.Context), defaultWorkerQueue),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for job := range w.jobs {
		job(w.ctx)
	}
}

// Submit queues a job. It blocks if the queue is full and returns false if
// the worker has been closed.
func (w *Worker) Submit(job func(ctx context.Context)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.jobs <- job
	return true
}

// Close stops accepting jobs, runs everything already queued, then cancels
// the worker context. Safe to call more than once.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobs)
	w.mu.Unlock()

	<-w.done
	w.cancel()
}
