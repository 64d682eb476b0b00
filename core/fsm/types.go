package fsm

import (
	"context"

	"github.com/m3rciful/librarybot/core/books"
	"github.com/m3rciful/librarybot/core/expression"
)

// State identifies a step of the conversation.
type State string

const (
	// StateUndefined is the initial state; only /start leaves it.
	StateUndefined State = "undefined"
	// StateReady accepts the main command set.
	StateReady State = "ready"
	// StateCollectingBook runs the two-step name/description dialog.
	StateCollectingBook State = "collecting_book"
)

// Env exposes the session a handler may touch during one call.
type Env interface {
	Books() *books.Collection
	Draft() *books.Draft
	RequestExit()
	// Speak sends text to the user through the session transport.
	Speak(ctx context.Context, text string)
}

// Outcome is the result of handling one event.
type Outcome struct {
	// Next is the state after the event; empty means unchanged.
	Next State
	// Reply is spoken through Env after the transition when not empty.
	Reply string
	// Handled is false when no rule of the active state matched.
	Handled bool
}

// Handler interprets events for one state.
type Handler interface {
	Handle(ctx context.Context, env Env, ev expression.Event) Outcome
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, env Env, ev expression.Event) Outcome

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, env Env, ev expression.Event) Outcome {
	return f(ctx, env, ev)
}

func ignored() Outcome { return Outcome{} }

func reply(next State, text string) Outcome {
	return Outcome{Next: next, Reply: text, Handled: true}
}
