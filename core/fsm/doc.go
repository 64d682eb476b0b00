// Package fsm implements the conversation state machine of a session.
//
// The machine keeps exactly one active State and a Handler per state. Each
// classified event goes to the handler of the active state, which returns an
// Outcome: the next state, an optional reply, and whether the event was
// handled at all. Events without a matching rule are ignored silently.
//
// Handlers never hold a reference to the session; whatever they may mutate is
// passed in as an Env on every call.
package fsm
