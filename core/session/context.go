// Package session runs the single conversation between a user and the book
// dialog: it reads a line, classifies it, feeds the state machine and speaks
// the replies back through the transport.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/librarybot/core/books"
	"github.com/m3rciful/librarybot/core/expression"
	"github.com/m3rciful/librarybot/core/fsm"
	"github.com/m3rciful/librarybot/core/logger"
	"github.com/m3rciful/librarybot/core/metrics"
)

const payloadLogLimit = 64

// Context owns everything one session needs: the machine, the collection,
// the draft of the entry being captured and the exit flag.
// It is driven by one goroutine and is not safe for concurrent use.
type Context struct {
	id        string
	cycle     uint64
	transport Transport
	machine   *fsm.Machine
	books     *books.Collection
	draft     books.Draft
	exit      bool
	metrics   *metrics.Session

	// speakErr keeps the first output failure of the running cycle.
	speakErr error
}

var _ fsm.Env = (*Context)(nil)

// Option customises a Context.
type Option func(*Context)

// WithMachine replaces the default state machine.
func WithMachine(m *fsm.Machine) Option {
	return func(c *Context) {
		if m != nil {
			c.machine = m
		}
	}
}

// WithBooks makes the session append to an existing collection.
func WithBooks(b *books.Collection) Option {
	return func(c *Context) {
		if b != nil {
			c.books = b
		}
	}
}

// WithMetrics records cycles into m.
func WithMetrics(m *metrics.Session) Option {
	return func(c *Context) { c.metrics = m }
}

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(c *Context) {
		if id != "" {
			c.id = id
		}
	}
}

// New creates a session reading from and writing to t.
func New(t Transport, opts ...Option) *Context {
	c := &Context{transport: t}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.machine == nil {
		c.machine = fsm.New()
	}
	if c.books == nil {
		c.books = books.NewCollection()
	}
	if c.id == "" {
		c.id = newID()
	}
	return c
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// ID returns the session id used in logs.
func (c *Context) ID() string { return c.id }

// State returns the active state of the machine.
func (c *Context) State() fsm.State { return c.machine.State() }

// Books returns the session collection.
func (c *Context) Books() *books.Collection { return c.books }

// Draft returns the entry being captured.
func (c *Context) Draft() *books.Draft { return &c.draft }

// RequestExit asks the run loop to stop after the current cycle.
func (c *Context) RequestExit() { c.exit = true }

// ExitRequested reports whether a handler asked to end the session.
func (c *Context) ExitRequested() bool { return c.exit }

// Speak sends text through the transport. A failure is reported by the
// running RunCycle.
func (c *Context) Speak(ctx context.Context, text string) {
	err := c.transport.Output(ctx, text)
	if err == nil {
		return
	}
	logger.Warn(ctx, logger.CompSession, "session.output",
		slog.String("status", "fail"),
		slog.Any("err", err),
	)
	if c.speakErr == nil {
		c.speakErr = err
	}
}

// RunCycle reads one line, classifies it and dispatches it to the state
// machine. It returns the transport error when reading or replying fails.
func (c *Context) RunCycle(ctx context.Context) error {
	line, err := c.transport.GetLine(ctx)
	if err != nil {
		return err
	}

	c.cycle++
	start := time.Now()
	from := c.machine.State()
	ctx = logger.WithCycle(ctx, c.id, c.cycle)
	ctx = logger.WithState(ctx, string(from))

	c.speakErr = nil
	binding := c.machine.Bind(ctx, c)
	ev := expression.Dispatch(line, binding)
	out := binding.Outcome()
	to := c.machine.State()
	took := time.Since(start)

	c.metrics.Observe(metrics.Cycle{
		Kind:     ev.Kind(),
		From:     string(from),
		To:       string(to),
		Handled:  out.Handled,
		Books:    c.books.Len(),
		Duration: took,
	})

	err = c.speakErr
	c.speakErr = nil
	c.logCycle(ctx, ev, out, from, to, took, err)
	return err
}

func (c *Context) logCycle(ctx context.Context, ev expression.Event, out fsm.Outcome, from, to fsm.State, took time.Duration, err error) {
	outcome := "handled"
	if !out.Handled {
		outcome = "ignored"
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("kind", ev.Kind()),
		slog.String("outcome", outcome),
		slog.String("state_from", string(from)),
		slog.String("state_to", string(to)),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	if ev.IsCommand {
		attrs = append(attrs, slog.String("command", logger.SanitizeLimit(ev.Text, payloadLogLimit)))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
	}
	logger.Info(ctx, logger.CompSession, "cycle.handled", attrs...)
	if !ev.IsCommand {
		logger.Debug(ctx, logger.CompSession, "cycle.payload",
			slog.String("payload", logger.SanitizeLimit(ev.Text, payloadLogLimit)),
		)
	}
}

// Run repeats RunCycle until a handler requests exit, the input ends or ctx
// is cancelled. The end of input and cancellation are a normal stop.
func (c *Context) Run(ctx context.Context) error {
	logger.Info(ctx, logger.CompSession, "session.start",
		slog.String("status", "ok"),
		slog.String("session_id", c.id),
	)
	for !c.ExitRequested() {
		err := c.RunCycle(ctx)
		if err == nil {
			continue
		}
		switch {
		case errors.Is(err, io.EOF):
			c.logEnd(ctx, "eof")
			return nil
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			c.logEnd(ctx, "cancelled")
			return nil
		}
		logger.Error(ctx, logger.CompSession, "session.end",
			slog.String("status", "fail"),
			slog.String("session_id", c.id),
			slog.Any("err", err),
		)
		return fmt.Errorf("session: run cycle %d: %w", c.cycle, err)
	}
	c.logEnd(ctx, "ok")
	return nil
}

func (c *Context) logEnd(ctx context.Context, status string) {
	logger.Info(ctx, logger.CompSession, "session.end",
		slog.String("status", status),
		slog.String("session_id", c.id),
		slog.Uint64("cycle", c.cycle),
		slog.Int("books", c.books.Len()),
	)
}
