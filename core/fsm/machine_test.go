package fsm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/librarybot/core/books"
	"github.com/m3rciful/librarybot/core/commands"
	"github.com/m3rciful/librarybot/core/expression"
)

type stubEnv struct {
	books  books.Collection
	draft  books.Draft
	exit   bool
	spoken []string
}

func (e *stubEnv) Books() *books.Collection { return &e.books }
func (e *stubEnv) Draft() *books.Draft      { return &e.draft }
func (e *stubEnv) RequestExit()             { e.exit = true }
func (e *stubEnv) Speak(_ context.Context, text string) {
	e.spoken = append(e.spoken, text)
}

func (e *stubEnv) last() string {
	if len(e.spoken) == 0 {
		return ""
	}
	return e.spoken[len(e.spoken)-1]
}

func send(m *Machine, env Env, line string) Outcome {
	b := m.Bind(context.Background(), env)
	expression.Dispatch(line, b)
	return b.Outcome()
}

func readyMachine(t *testing.T, env *stubEnv) *Machine {
	t.Helper()
	m := New()
	send(m, env, "/start")
	require.Equal(t, StateReady, m.State())
	env.spoken = nil
	return m
}

func TestStartLeavesUndefined(t *testing.T) {
	env := &stubEnv{}
	m := New()
	require.Equal(t, StateUndefined, m.State())

	out := send(m, env, "/start")
	require.True(t, out.Handled)
	require.Equal(t, StateReady, m.State())
	require.Equal(t, []string{WelcomeText}, env.spoken)
}

func TestUndefinedIgnoresEverythingElse(t *testing.T) {
	env := &stubEnv{}
	m := New()
	for _, line := range []string{"/help", "/addbook", "/list", "/quit", "/exit", "/cancel", "/nope", "hello", "", "/Start", "/start now"} {
		out := send(m, env, line)
		require.False(t, out.Handled, line)
		require.Equal(t, StateUndefined, m.State(), line)
	}
	require.Empty(t, env.spoken)
	require.False(t, env.exit)
}

func TestRepeatedStartAndHelpAreIdempotent(t *testing.T) {
	env := &stubEnv{}
	m := readyMachine(t, env)
	help := commands.Default().HelpText()

	for _, line := range []string{"/start", "/help", "/start", "/help"} {
		send(m, env, line)
		require.Equal(t, StateReady, m.State())
		require.Equal(t, help, env.last())
	}
	require.Len(t, env.spoken, 4)
}

func TestAddBookFlow(t *testing.T) {
	env := &stubEnv{}
	m := readyMachine(t, env)

	send(m, env, "/addbook")
	require.Equal(t, StateCollectingBook, m.State())
	require.Equal(t, AskNameText, env.last())

	send(m, env, "Dune")
	require.Equal(t, StateCollectingBook, m.State())
	require.Equal(t, books.AwaitingDescription, env.draft.Phase())
	require.Contains(t, env.last(), "Okay, the book name is: Dune")

	send(m, env, "Sci-fi classic")
	require.Equal(t, StateReady, m.State())
	require.Equal(t, []books.Entry{{Name: "Dune", Description: "Sci-fi classic"}}, env.books.Entries())
	require.Equal(t, `Book "Dune" added.`, env.last())
	require.Equal(t, books.AwaitingName, env.draft.Phase())
	require.Empty(t, env.draft.Name())
}

func TestCancelDiscardsDraft(t *testing.T) {
	env := &stubEnv{}
	m := readyMachine(t, env)

	send(m, env, "/addbook")
	send(m, env, "Dune")
	send(m, env, "/cancel")
	require.Equal(t, StateReady, m.State())
	require.Equal(t, CancelledText, env.last())
	require.Zero(t, env.books.Len())
	require.Empty(t, env.draft.Name())

	send(m, env, "/addbook")
	send(m, env, "Solaris")
	send(m, env, "Lem")
	require.Equal(t, []books.Entry{{Name: "Solaris", Description: "Lem"}}, env.books.Entries())
}

func TestCollectingIgnoresOtherCommands(t *testing.T) {
	env := &stubEnv{}
	m := readyMachine(t, env)
	send(m, env, "/addbook")
	send(m, env, "Dune")
	spoken := len(env.spoken)

	for _, line := range []string{"/list", "/help", "/start", "/addbook", "/quit", "/exit", "/whatever"} {
		out := send(m, env, line)
		require.False(t, out.Handled, line)
		require.Equal(t, StateCollectingBook, m.State(), line)
	}
	require.Len(t, env.spoken, spoken)
	require.False(t, env.exit)
	require.Equal(t, "Dune", env.draft.Name())

	send(m, env, "desc")
	require.Equal(t, []books.Entry{{Name: "Dune", Description: "desc"}}, env.books.Entries())
}

func TestEmptyLiteralsBuildAnEntry(t *testing.T) {
	env := &stubEnv{}
	m := readyMachine(t, env)
	send(m, env, "/addbook")
	send(m, env, "")
	send(m, env, "")
	require.Equal(t, StateReady, m.State())
	require.Equal(t, []books.Entry{{}}, env.books.Entries())
}

func TestReadyIgnoresLiteralsAndUnknownCommands(t *testing.T) {
	env := &stubEnv{}
	m := readyMachine(t, env)
	for _, line := range []string{"Dune", "", "/cancel", "/LIST", "/addbook Dune", "//list"} {
		out := send(m, env, line)
		require.False(t, out.Handled, line)
		require.Equal(t, StateReady, m.State(), line)
	}
	require.Empty(t, env.spoken)
	require.Zero(t, env.books.Len())
}

func TestListShowsCollection(t *testing.T) {
	env := &stubEnv{}
	m := readyMachine(t, env)

	send(m, env, "/list")
	require.Equal(t, "Total: 0", env.last())

	env.books.Append(books.Entry{Name: "Dune", Description: "Sci-fi classic"})
	send(m, env, "/list")
	require.Equal(t, env.books.ListAll(), env.last())
	require.Equal(t, StateReady, m.State())
}

func TestQuitAndExitRequestExitFromReady(t *testing.T) {
	for _, line := range []string{"/quit", "/exit"} {
		env := &stubEnv{}
		m := readyMachine(t, env)
		send(m, env, line)
		require.True(t, env.exit, line)
		require.Equal(t, FarewellText, env.last())
	}
}

func TestQuitOutsideReadyDoesNothing(t *testing.T) {
	env := &stubEnv{}
	m := New()
	send(m, env, "/quit")
	require.False(t, env.exit)

	send(m, env, "/start")
	send(m, env, "/addbook")
	send(m, env, "/quit")
	send(m, env, "/exit")
	require.False(t, env.exit)
	require.Equal(t, StateCollectingBook, m.State())
}

func TestWithHandlerOverridesSingleState(t *testing.T) {
	env := &stubEnv{}
	m := New(WithHandler(StateUndefined, HandlerFunc(func(_ context.Context, _ Env, ev expression.Event) Outcome {
		return Outcome{Next: StateReady, Reply: "hi " + ev.Text, Handled: true}
	})))

	send(m, env, "anything")
	require.Equal(t, StateReady, m.State())
	require.Equal(t, "hi anything", env.last())

	send(m, env, "/help")
	require.Equal(t, commands.Default().HelpText(), env.last())
}

func TestWithCommandsChangesVocabulary(t *testing.T) {
	reg := commands.NewRegistry()
	require.NoError(t, reg.Register(commands.Command{Name: commands.Start, Description: "start", Hidden: true}))
	require.NoError(t, reg.Register(commands.Command{Name: commands.Help, Description: "help"}))

	env := &stubEnv{}
	m := New(WithCommands(reg))
	require.Same(t, reg, m.Commands())

	send(m, env, "/start")
	require.Equal(t, StateReady, m.State())
	require.Equal(t, WelcomeText, env.last())

	out := send(m, env, "/addbook")
	require.False(t, out.Handled)
	require.Equal(t, StateReady, m.State())
	require.Equal(t, WelcomeText, env.last())
	require.Equal(t, books.AwaitingName, env.draft.Phase())

	send(m, env, "/help")
	require.Equal(t, "Available commands:\n/help - help", env.last())
}

func TestLeavingCollectingResetsDraftFromCustomHandler(t *testing.T) {
	env := &stubEnv{}
	m := New(WithHandler(StateCollectingBook, HandlerFunc(func(context.Context, Env, expression.Event) Outcome {
		return Outcome{Next: StateUndefined, Handled: true}
	})))
	send(m, env, "/start")
	send(m, env, "/addbook")
	env.draft.SetName("leftover")

	send(m, env, "x")
	require.Equal(t, StateUndefined, m.State())
	require.Empty(t, env.draft.Name())
	require.Equal(t, books.AwaitingName, env.draft.Phase())
}

func TestBookNameEchoedVerbatim(t *testing.T) {
	env := &stubEnv{}
	m := readyMachine(t, env)

	send(m, env, "/addbook")
	send(m, env, `A "B"`)
	send(m, env, "quoted")
	require.Equal(t, `Book "A "B"" added.`, env.last())
}

func TestHandlerMayReadStateDuringDispatch(t *testing.T) {
	env := &stubEnv{}
	var m *Machine
	var seen State
	m = New(WithHandler(StateUndefined, HandlerFunc(func(context.Context, Env, expression.Event) Outcome {
		seen = m.State()
		return Outcome{Next: StateReady, Reply: "ok", Handled: true}
	})))

	done := make(chan struct{})
	go func() {
		defer close(done)
		send(m, env, "/start")
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch blocked while the handler read the state")
	}
	require.Equal(t, StateUndefined, seen)
	require.Equal(t, StateReady, m.State())
	require.Equal(t, "ok", env.last())
}
