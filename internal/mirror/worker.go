package mirror

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Task results reported to the Observer.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultDropped = "dropped"
)

type Observer interface {
	MirrorTask(op, result string)
}

type Config struct {
	Queue   int
	Rate    float64 // tasks per second, <= 0 means unlimited
	Burst   int
	Timeout time.Duration
}

type task struct {
	op string
	fn func(ctx context.Context) error
}

// Worker replays overlay mutations against the remote catalog in the
// background. Nothing waits on it and nothing is retried: the overlay is
// already authoritative by the time a task is submitted.
type Worker struct {
	inbox   chan task
	doneCh  chan struct{}
	limiter *rate.Limiter
	timeout time.Duration
	log     *slog.Logger
	obs     Observer

	mu     sync.Mutex
	closed bool
}

func New(cfg Config, log *slog.Logger, obs Observer) *Worker {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Queue <= 0 {
		cfg.Queue = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Worker{
		inbox:   make(chan task, cfg.Queue),
		doneCh:  make(chan struct{}),
		limiter: rate.NewLimiter(limit, cfg.Burst),
		timeout: cfg.Timeout,
		log:     log.With("component", "mirror"),
		obs:     obs,
	}
}

// Start runs the worker until ctx is cancelled or Close is called. After
// Close the queued tasks still run; after cancellation they are dropped.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.doneCh)
		for {
			select {
			case <-ctx.Done():
				w.dropQueued()
				return
			case t, ok := <-w.inbox:
				if !ok {
					return
				}
				w.run(ctx, t)
			}
		}
	}()
}

func (w *Worker) run(ctx context.Context, t task) {
	if err := w.limiter.Wait(ctx); err != nil {
		w.observe(t.op, ResultDropped)
		return
	}
	tctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	start := time.Now()
	if err := t.fn(tctx); err != nil {
		// remote mirror bersifat best-effort, cukup dicatat
		w.log.Warn("mirror failed", "op", t.op, "took", time.Since(start), "error", err)
		w.observe(t.op, ResultError)
		return
	}
	w.log.Debug("mirrored", "op", t.op, "took", time.Since(start))
	w.observe(t.op, ResultOK)
}

func (w *Worker) dropQueued() {
	for {
		select {
		case t, ok := <-w.inbox:
			if !ok {
				return
			}
			w.observe(t.op, ResultDropped)
		default:
			return
		}
	}
}

// Submit queues fn under the name op. It never blocks; false means the
// task was dropped because the queue is full or the worker is closed.
func (w *Worker) Submit(op string, fn func(ctx context.Context) error) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.observe(op, ResultDropped)
		return false
	}
	select {
	case w.inbox <- task{op: op, fn: fn}:
		return true
	default:
		w.log.Warn("mirror queue full, dropping", "op", op)
		w.observe(op, ResultDropped)
		return false
	}
}

func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.inbox)
	}
}

// Wait blocks until the worker goroutine has exited.
func (w *Worker) Wait() { <-w.doneCh }

func (w *Worker) observe(op, result string) {
	if w.obs != nil {
		w.obs.MirrorTask(op, result)
	}
}
