package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler processes one payload. Returning an error schedules a retry until
// the attempt budget runs out.
type Handler[T any] func(context.Context, T) error

// Config tunes the worker pool.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

type task[T any] struct {
	id      string
	payload T
	attempt int
}

// Dispatcher fans typed payloads out to a fixed pool of workers. Delivery is
// best-effort: a payload that keeps failing is dropped once it exhausts its
// retries, and the drop is logged.
type Dispatcher[T any] struct {
	name    string
	handler Handler[T]

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	tasks   chan task[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewDispatcher builds a dispatcher around the given handler.
func NewDispatcher[T any](name string, handler Handler[T], cfg Config) *Dispatcher[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Dispatcher[T]{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		tasks:      make(chan task[T], cfg.BufferSize),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (d *Dispatcher[T]) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.started = true
	d.logger.Sugar().Infow("dispatcher started", "dispatcher", d.name, "workers", d.workers)
}

// Stop cancels the workers and waits for them to exit.
func (d *Dispatcher[T]) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Sugar().Infow("dispatcher stopped", "dispatcher", d.name)
}

// Enqueue hands a payload to the pool. Fails when the dispatcher has not
// been started or has been stopped.
func (d *Dispatcher[T]) Enqueue(payload T) error {
	return d.push(task[T]{id: uuid.NewString(), payload: payload})
}

func (d *Dispatcher[T]) push(tk task[T]) error {
	d.mu.Lock()
	ctx := d.ctx
	started := d.started
	d.mu.Unlock()

	if !started {
		return fmt.Errorf("dispatcher %s not started", d.name)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("dispatcher %s stopped: %w", d.name, ctx.Err())
	case d.tasks <- tk:
		return nil
	}
}

func (d *Dispatcher[T]) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case tk := <-d.tasks:
			if err := d.handler(d.ctx, tk.payload); err != nil {
				d.retry(tk, err)
			}
		}
	}
}

func (d *Dispatcher[T]) retry(tk task[T], err error) {
	tk.attempt++
	if tk.attempt > d.maxRetries {
		d.logger.Sugar().Errorw("dropping payload after retries", "dispatcher", d.name, "task_id", tk.id, "error", err)
		return
	}
	d.logger.Sugar().Warnw("handler failed, retrying", "dispatcher", d.name, "task_id", tk.id, "attempt", tk.attempt, "error", err)

	go func(tk task[T]) {
		timer := time.NewTimer(d.retryDelay)
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
			if err := d.push(tk); err != nil {
				d.logger.Sugar().Errorw("failed to requeue payload", "dispatcher", d.name, "task_id", tk.id, "error", err)
			}
		}
	}(tk)
}
