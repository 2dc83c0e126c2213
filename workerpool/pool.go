// Package workerpool provides an unbounded, lazily grown pool of reusable
// goroutines for running blocking operations off the caller's goroutine.
//
// The pool behaves like a cached thread pool: a submitted task is handed to
// an idle worker when one is waiting, otherwise a new worker is started for
// it. Workers that stay idle longer than the idle timeout exit. There is no
// upper bound on the number of workers and no task queue, so unbounded
// concurrent load means unbounded goroutine growth.
//
// A Pool is meant to be created once per process and shared by every client
// that needs it.
package workerpool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultIdleTimeout is how long an idle worker waits for new work before exiting.
const DefaultIdleTimeout = 60 * time.Second

var (
	// ErrPoolStopped is returned by Submit after Stop has been called.
	ErrPoolStopped = errors.New("worker pool is stopped")

	// ErrNilTask is returned by Submit when the task is nil.
	ErrNilTask = errors.New("task cannot be nil")
)

// Stats is a snapshot of pool activity. The counters are read independently,
// so while tasks are being submitted they may be mutually inconsistent.
type Stats struct {
	// Workers is the number of live worker goroutines.
	Workers int
	// Idle is the number of workers waiting for a task. It is approximate: a
	// worker is counted just before it starts receiving, so a Submit in that
	// window may still start a new worker. It settles once the pool is quiet.
	Idle int
	// Active is the number of tasks currently executing.
	Active int
	// Completed is the number of tasks that have finished, including panicked ones.
	Completed uint64
	// Panicked is the number of tasks that panicked.
	Panicked uint64
}

// Pool runs submitted tasks on reusable worker goroutines.
type Pool struct {
	idleTimeout time.Duration
	logger      *slog.Logger

	// handoff is unbuffered: a send only succeeds when an idle worker is receiving.
	handoff chan func()
	quit    chan struct{}

	// mu orders Submit against Stop so no worker is started after Stop returns.
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	workers   atomic.Int32
	idle      atomic.Int32
	active    atomic.Int32
	completed atomic.Uint64
	panicked  atomic.Uint64
}

// Option configures a Pool.
type Option func(*Pool)

// WithIdleTimeout sets how long idle workers are kept alive.
// Non-positive values are ignored.
func WithIdleTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.idleTimeout = d
		}
	}
}

// WithLogger sets the logger used to report recovered task panics.
// If logger is nil, panics are only counted.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// New creates a Pool. No workers are started until the first Submit.
func New(opts ...Option) *Pool {
	p := &Pool{
		idleTimeout: DefaultIdleTimeout,
		handoff:     make(chan func()),
		quit:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit schedules task for execution and returns without waiting for it.
// The task runs on an idle worker if one is available, or on a newly started one.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.handoff <- task:
		return nil
	default:
	}

	p.wg.Add(1)
	p.workers.Add(1)
	go p.worker(task)
	return nil
}

// worker runs its first task, then keeps accepting handed-off tasks until it
// has been idle for idleTimeout or the pool is stopped.
func (p *Pool) worker(task func()) {
	defer p.wg.Done()
	defer p.workers.Add(-1)

	timer := time.NewTimer(p.idleTimeout)
	defer timer.Stop()

	for {
		p.run(task)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.idleTimeout)

		// Counted before the select, so Stats.Idle can lead the receive.
		p.idle.Add(1)
		select {
		case task = <-p.handoff:
			p.idle.Add(-1)
		case <-timer.C:
			p.idle.Add(-1)
			return
		case <-p.quit:
			p.idle.Add(-1)
			return
		}
	}
}

// run executes a single task, recovering from panics so the worker survives.
func (p *Pool) run(task func()) {
	p.active.Add(1)
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			if p.logger != nil {
				p.logger.Error("worker pool task panicked",
					"panic", fmt.Sprint(r))
			}
		}
		p.active.Add(-1)
		p.completed.Add(1)
	}()

	task()
}

// Stop prevents further submissions and waits for running tasks to finish.
// Idle workers exit immediately. Stop is safe to call multiple times.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.stopped = true
	close(p.quit)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   int(p.workers.Load()),
		Idle:      int(p.idle.Load()),
		Active:    int(p.active.Load()),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}
