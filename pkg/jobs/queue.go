package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of background work.
type Task struct {
	ID      string
	Kind    string
	Payload interface{}
}

// HandlerFunc executes a task. A returned error triggers a retry.
type HandlerFunc func(context.Context, Task) error

// Options tunes a Dispatcher. Zero values fall back to sane defaults.
type Options struct {
	Workers int
	Depth   int // buffered channel capacity
	Retries int
	Backoff time.Duration
	Logger  *zap.Logger
}

type envelope struct {
	task    Task
	attempt int
}

// Dispatcher runs tasks on a fixed pool of goroutines fed by a buffered
// channel. Failed tasks are retried with a flat backoff; after the retry
// budget is spent the task is dropped with a log line. There is no
// persistence: a restart loses whatever was queued.
type Dispatcher struct {
	name string
	run  HandlerFunc
	opts Options

	tasks  chan envelope
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
	running   atomic.Bool
}

// NewDispatcher builds a dispatcher around the handler.
func NewDispatcher(name string, run HandlerFunc, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Depth <= 0 {
		opts.Depth = opts.Workers * 4
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher{
		name:  name,
		run:   run,
		opts:  opts,
		tasks: make(chan envelope, opts.Depth),
	}
}

// Start launches the worker pool. Subsequent calls are no-ops.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.ctx, d.cancel = context.WithCancel(ctx)
		for i := 0; i < d.opts.Workers; i++ {
			d.wg.Add(1)
			go d.work()
		}
		d.running.Store(true)
		d.opts.Logger.Info("dispatcher started",
			zap.String("dispatcher", d.name),
			zap.Int("workers", d.opts.Workers),
		)
	})
}

// Stop cancels the workers and waits for them to exit.
func (d *Dispatcher) Stop() {
	if !d.running.Load() {
		return
	}
	d.stopOnce.Do(func() {
		d.cancel()
		d.wg.Wait()
		d.opts.Logger.Info("dispatcher stopped", zap.String("dispatcher", d.name))
	})
}

// Submit queues a task for execution.
func (d *Dispatcher) Submit(task Task) error {
	if !d.running.Load() {
		return fmt.Errorf("dispatcher %s not started", d.name)
	}
	select {
	case <-d.ctx.Done():
		return fmt.Errorf("dispatcher %s stopped: %w", d.name, d.ctx.Err())
	case d.tasks <- envelope{task: task}:
		return nil
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case env := <-d.tasks:
			d.execute(env)
		}
	}
}

// execute runs a task and, on failure, blocks this worker through the
// backoff before retrying. The pool is sized for cheap I/O tasks, so tying
// up one worker is preferable to unbounded retry goroutines.
func (d *Dispatcher) execute(env envelope) {
	for {
		err := d.run(d.ctx, env.task)
		if err == nil {
			return
		}
		env.attempt++
		if env.attempt >= d.opts.Retries {
			d.opts.Logger.Error("task dropped after retries",
				zap.String("dispatcher", d.name),
				zap.String("task_id", env.task.ID),
				zap.String("kind", env.task.Kind),
				zap.Error(err),
			)
			return
		}
		d.opts.Logger.Warn("task failed, retrying",
			zap.String("dispatcher", d.name),
			zap.String("task_id", env.task.ID),
			zap.String("kind", env.task.Kind),
			zap.Int("attempt", env.attempt),
			zap.Error(err),
		)
		select {
		case <-d.ctx.Done():
			return
		case <-time.After(d.opts.Backoff):
		}
	}
}
