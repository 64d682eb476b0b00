package fsm

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/librarybot/core/commands"
	"github.com/m3rciful/librarybot/core/expression"
	"github.com/m3rciful/librarybot/core/logger"
)

// Machine routes events to the handler of the active state.
type Machine struct {
	mu       sync.Mutex
	current  State
	handlers map[State]Handler
	vocab    *commands.Registry
}

// Option customises a Machine at construction time.
type Option func(*Machine)

// WithCommands replaces the default command vocabulary.
func WithCommands(reg *commands.Registry) Option {
	return func(m *Machine) {
		if reg != nil {
			m.vocab = reg
		}
	}
}

// WithHandler overrides the handler of a single state.
func WithHandler(st State, h Handler) Option {
	return func(m *Machine) {
		if h != nil {
			m.handlers[st] = h
		}
	}
}

// New returns a machine in StateUndefined with the library dialog installed.
func New(opts ...Option) *Machine {
	m := &Machine{
		current:  StateUndefined,
		handlers: make(map[State]Handler, 3),
		vocab:    commands.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	for st, h := range defaultHandlers(m.vocab) {
		if _, ok := m.handlers[st]; !ok {
			m.handlers[st] = h
		}
	}
	return m
}

// Register associates a state with its handler. A nil handler is ignored.
func (m *Machine) Register(st State, h Handler) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// State returns the active state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Commands returns the vocabulary the machine recognises.
func (m *Machine) Commands() *commands.Registry {
	return m.vocab
}

// Dispatch hands ev to the active state's handler, applies the resulting
// transition and speaks the reply. Leaving StateCollectingBook always
// discards the draft. The lock is not held while the handler runs or the
// reply is spoken, so handlers may call State.
func (m *Machine) Dispatch(ctx context.Context, env Env, ev expression.Event) Outcome {
	m.mu.Lock()
	from := m.current
	handler, ok := m.handlers[from]
	m.mu.Unlock()

	logger.Debug(ctx, logger.CompFSM, "fsm.dispatch",
		slog.String("status", "ok"),
		slog.String("state", string(from)),
		slog.String("kind", ev.Kind()),
	)
	if !ok {
		return Outcome{Next: from}
	}

	out := handler.Handle(ctx, env, ev)
	if !out.Handled {
		return Outcome{Next: from}
	}
	if out.Next == "" {
		out.Next = from
	}
	if out.Next != from {
		if from == StateCollectingBook && env != nil {
			env.Draft().Reset()
		}
		m.mu.Lock()
		m.current = out.Next
		m.mu.Unlock()
		logger.Info(ctx, logger.CompFSM, "fsm.transition",
			slog.String("status", "ok"),
			slog.String("state_from", string(from)),
			slog.String("state_to", string(out.Next)),
		)
	}
	if out.Reply != "" && env != nil {
		env.Speak(ctx, out.Reply)
	}
	return out
}

// Bind returns an expression.Listener that feeds events for env into m.
func (m *Machine) Bind(ctx context.Context, env Env) *Binding {
	return &Binding{ctx: ctx, machine: m, env: env}
}

// Binding adapts a Machine to the classifier's listener entry points and
// remembers the outcome of the last delivered event.
type Binding struct {
	ctx     context.Context
	machine *Machine
	env     Env
	last    Outcome
}

var _ expression.Listener = (*Binding)(nil)

// OnCommand delivers a command event.
func (b *Binding) OnCommand(text string) {
	b.last = b.machine.Dispatch(b.ctx, b.env, expression.Event{Text: text, IsCommand: true})
}

// OnLiteral delivers a literal event.
func (b *Binding) OnLiteral(text string) {
	b.last = b.machine.Dispatch(b.ctx, b.env, expression.Event{Text: text})
}

// Outcome reports the result of the last delivered event.
func (b *Binding) Outcome() Outcome {
	return b.last
}
