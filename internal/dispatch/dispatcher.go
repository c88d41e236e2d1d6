// Package dispatch provides a bounded worker pool for fire-and-forget jobs.
//
// Jobs are accepted immediately into an unbounded queue and executed by a fixed
// number of workers; Submit never blocks the caller. Per-job failures (errors
// and panics) are captured as outcomes and surfaced through WaitAll instead of
// crashing a worker or leaking unobserved.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/allisson/provenance/internal/errors"
)

// ErrDispatcherClosed indicates a job was submitted after Close.
var ErrDispatcherClosed = apperrors.Wrap(apperrors.ErrInvalidState, "dispatcher is closed")

// Job is a unit of work executed by a dispatcher worker.
type Job func(ctx context.Context) error

// Outcome is the terminal result of a submitted job.
type Outcome struct {
	// TaskID is the identifier returned by Submit for this job.
	TaskID uuid.UUID
	// Err is nil on success, or the error (or recovered panic) the job produced.
	Err error
}

// Success reports whether the job completed without error.
func (o Outcome) Success() bool {
	return o.Err == nil
}

// task pairs a job with its identity while queued.
type task struct {
	id  uuid.UUID
	job Job
}

// Dispatcher executes submitted jobs on a fixed pool of workers.
type Dispatcher struct {
	ctx    context.Context
	logger *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []task
	pending  int
	outcomes []Outcome
	closed   bool

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given number of workers and
// starts them immediately. ctx is the base context passed to every job; it is
// not used to cancel in-flight jobs (mid-flight cancellation is the job's own
// concern via the context it receives).
func NewDispatcher(ctx context.Context, workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}

	d := &Dispatcher{
		ctx:    ctx,
		logger: logger,
	}
	d.cond = sync.NewCond(&d.mu)

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Submit queues a job for asynchronous execution and returns its task id.
// Submission never blocks: the queue is unbounded, only execution concurrency
// is capped by the worker count. Returns ErrDispatcherClosed after Close.
func (d *Dispatcher) Submit(job Job) (uuid.UUID, error) {
	id := uuid.Must(uuid.NewV7())

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return uuid.Nil, ErrDispatcherClosed
	}

	d.queue = append(d.queue, task{id: id, job: job})
	d.pending++
	d.cond.Broadcast()

	return id, nil
}

// WaitAll blocks until every job submitted and not yet awaited has finished,
// then returns their outcomes and clears the pending set. Outcomes are in
// completion order; callers needing ordering must correlate by TaskID.
func (d *Dispatcher) WaitAll() []Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.pending > 0 {
		d.cond.Wait()
	}

	outcomes := d.outcomes
	d.outcomes = nil
	return outcomes
}

// Close stops accepting new jobs, waits for queued and in-flight jobs to
// finish, and shuts the workers down. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.wg.Wait()
		return
	}
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()

	d.wg.Wait()
}

// worker drains the queue until the dispatcher is closed and the queue is empty.
func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		t := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		err := d.run(t)

		d.mu.Lock()
		d.pending--
		d.outcomes = append(d.outcomes, Outcome{TaskID: t.id, Err: err})
		d.cond.Broadcast()
		d.mu.Unlock()
	}
}

// run executes a single job, converting panics into errors at the worker boundary.
func (d *Dispatcher) run(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			if d.logger != nil {
				d.logger.Error("task panicked",
					slog.String("task_id", t.id.String()),
					slog.Any("panic", r),
				)
			}
		}
	}()

	if jobErr := t.job(d.ctx); jobErr != nil {
		if d.logger != nil {
			d.logger.Error("task failed",
				slog.String("task_id", t.id.String()),
				slog.Any("error", jobErr),
			)
		}
		return apperrors.Wrap(jobErr, "task failed")
	}

	return nil
}
