// Package workerpool generalizes the teacher's TCP-task worker pool
// (internal/worker.go in the example's server package) into a
// fixed-size pool of tomb-supervised goroutines draining a task
// channel. The engine uses it to hand settlement emissions off the
// matching-path lock: spec.md §5 requires settlement RPCs never block
// the hot path, so fills enqueue a task here instead of calling the
// settlement port directly.
package workerpool

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	defaultTaskChanSize = 256
	taskAttempts        = 3
	taskRetryWait       = 500 * time.Millisecond
)

// Task is one unit of background work. Errors are logged, never
// propagated to the submitter — per spec.md §7, External errors during
// fire-and-forget emissions are logged and retried out of band (up to
// taskAttempts runs in all), the core continues regardless.
type Task func(ctx context.Context) error

// Pool is a fixed-size set of workers draining a shared task channel,
// supervised by a tomb.Tomb so Stop waits for in-flight tasks to drain.
type Pool struct {
	n     int
	tasks chan Task
	t     *tomb.Tomb
}

// New creates a pool of size workers. Start must be called before
// Submit.
func New(size int) *Pool {
	return &Pool{
		n:     size,
		tasks: make(chan Task, defaultTaskChanSize),
	}
}

// Start launches size workers under ctx, each running until ctx is
// cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	t, ctx := tomb.WithContext(ctx)
	p.t = t
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			return p.worker(ctx)
		})
	}
}

func (p *Pool) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-p.tasks:
			for attempt := 1; ; attempt++ {
				err := task(ctx)
				if err == nil {
					break
				}
				log.Error().Err(err).Int("attempt", attempt).Msg("workerpool task failed")
				if attempt >= taskAttempts {
					break
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(taskRetryWait):
				}
			}
		}
	}
}

// Submit enqueues task for background execution. If the task channel
// is full, Submit drops the task and logs rather than blocking the
// caller — callers on the matching path must never stall on this.
func (p *Pool) Submit(task Task) {
	select {
	case p.tasks <- task:
	default:
		log.Error().Msg("workerpool task queue full, dropping task")
	}
}

// Stop signals every worker to exit and waits for them to drain.
func (p *Pool) Stop() error {
	if p.t == nil {
		return nil
	}
	p.t.Kill(nil)
	return p.t.Wait()
}
