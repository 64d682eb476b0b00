// Package sender delivers Telegram replies in order through a single
// background worker with bounded retries.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/librarybot/core/logger"
	"github.com/m3rciful/librarybot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbox.
type Options struct {
	QueueSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx    context.Context
	action string
	run    func(ctx context.Context) error
}

// Outbox runs send jobs one at a time, in enqueue order.
type Outbox struct {
	opts Options
	jobs chan job

	// gate orders Enqueue against Close.
	gate   sync.RWMutex
	closed bool
	done   chan struct{}

	sent atomic.Uint64
	errs atomic.Uint64
}

// New starts an outbox; zero options fall back to defaults.
func New(opts Options) *Outbox {
	opts = opts.withDefaults()
	o := &Outbox{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		done: make(chan struct{}),
	}
	go o.worker()
	return o
}

// Enqueue schedules run. It never blocks; a saturated queue yields ErrQueueFull.
// run must be safe to repeat when retries are enabled.
func (o *Outbox) Enqueue(ctx context.Context, action string, run func(ctx context.Context) error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	o.gate.RLock()
	defer o.gate.RUnlock()
	if o.closed {
		return ErrQueueClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case o.jobs <- job{ctx: context.WithoutCancel(ctx), action: action, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Sent returns the number of delivered jobs.
func (o *Outbox) Sent() uint64 { return o.sent.Load() }

// ErrorCount returns the number of failed jobs.
func (o *Outbox) ErrorCount() uint64 { return o.errs.Load() }

// Close rejects new jobs and waits until queued ones are processed.
func (o *Outbox) Close() {
	o.gate.Lock()
	if !o.closed {
		o.closed = true
		close(o.jobs)
	}
	o.gate.Unlock()
	<-o.done
}

func (o *Outbox) worker() {
	defer close(o.done)
	for j := range o.jobs {
		o.handleJob(j)
	}
}

// handleJob runs j until it succeeds or retries are exhausted and reports
// how many attempts were made.
func (o *Outbox) handleJob(j job) int {
	ctx := j.ctx
	deadlineCtx, cancel := context.WithTimeout(ctx, o.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := o.opts.MaxRetries + 1
	var (
		lastErr error
		made    int
	)

attemptLoop:
	for attempt := 1; attempt <= attempts; attempt++ {
		made = attempt
		err := j.run(deadlineCtx)
		if err == nil {
			o.sent.Add(1)
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("action", j.action),
				slog.Duration("duration", logger.RoundMS(time.Since(start))),
			}
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempts", attempt))
			}
			logger.Debug(ctx, logger.CompTGSender, "send.success", attrs...)
			return made
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := o.opts.RetryBackoff * time.Duration(attempt)
		logger.Debug(ctx, logger.CompTGSender, "send.retry",
			slog.String("status", "retry"),
			slog.String("action", j.action),
			slog.Int("attempts", attempt),
			slog.Duration("backoff", delay),
		)
		timer := time.NewTimer(delay)
		select {
		case <-deadlineCtx.Done():
			timer.Stop()
			lastErr = errors.Join(lastErr, deadlineCtx.Err())
			break attemptLoop
		case <-timer.C:
		}
	}

	o.errs.Add(1)
	logger.Error(ctx, logger.CompTGSender, "send.fail",
		slog.String("status", "fail"),
		slog.String("action", j.action),
		slog.String("err", sanitizeErrorMessage(lastErr)),
		slog.String("err_kind", classifyError(lastErr)),
		slog.Int("attempts", made),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return made
}
