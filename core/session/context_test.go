package session

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/librarybot/core/books"
	"github.com/m3rciful/librarybot/core/fsm"
	"github.com/m3rciful/librarybot/core/metrics"
)

// script feeds fixed lines and records every reply.
type script struct {
	lines   []string
	outputs []string
	reads   int
	readErr error
	outErr  error
}

func (s *script) GetLine(context.Context) (string, error) {
	if s.reads >= len(s.lines) {
		if s.readErr != nil {
			return "", s.readErr
		}
		return "", io.EOF
	}
	line := s.lines[s.reads]
	s.reads++
	return line, nil
}

func (s *script) Output(_ context.Context, text string) error {
	if s.outErr != nil {
		return s.outErr
	}
	s.outputs = append(s.outputs, text)
	return nil
}

func runCycles(t *testing.T, c *Context, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.RunCycle(context.Background()))
	}
}

func TestNewSessionDefaults(t *testing.T) {
	c := New(&script{})
	require.Equal(t, fsm.StateUndefined, c.State())
	require.False(t, c.ExitRequested())
	require.Zero(t, c.Books().Len())
	require.NotEmpty(t, c.ID())
	require.NotEqual(t, c.ID(), New(&script{}).ID())
}

func TestStartRepliesAndEntersReady(t *testing.T) {
	tr := &script{lines: []string{"/start", "/start", "/help"}}
	c := New(tr)

	runCycles(t, c, 1)
	require.Equal(t, fsm.StateReady, c.State())
	require.Len(t, tr.outputs, 1)
	require.NotEmpty(t, tr.outputs[0])

	runCycles(t, c, 2)
	require.Equal(t, fsm.StateReady, c.State())
	require.Len(t, tr.outputs, 3)
	require.Equal(t, tr.outputs[1], tr.outputs[2])
}

func TestAddBookThroughTransport(t *testing.T) {
	tr := &script{lines: []string{"/start", "/addbook", "Dune", "Sci-fi classic", "/list"}}
	c := New(tr)
	runCycles(t, c, len(tr.lines))

	require.Equal(t, fsm.StateReady, c.State())
	require.Equal(t, []books.Entry{{Name: "Dune", Description: "Sci-fi classic"}}, c.Books().Entries())
	require.Equal(t, "1. Dune - Sci-fi classic\nTotal: 1", tr.outputs[len(tr.outputs)-1])
}

func TestCancelThenFreshEntry(t *testing.T) {
	tr := &script{lines: []string{
		"/start", "/addbook", "Dune", "/cancel",
		"/addbook", "Solaris", "Stanislaw Lem",
	}}
	c := New(tr)

	runCycles(t, c, 4)
	require.Equal(t, fsm.StateReady, c.State())
	require.Zero(t, c.Books().Len())

	runCycles(t, c, 3)
	require.Equal(t, []books.Entry{{Name: "Solaris", Description: "Stanislaw Lem"}}, c.Books().Entries())
}

func TestIgnoredEventsProduceNoOutput(t *testing.T) {
	tr := &script{lines: []string{"hello", "/list", "/start", "/nope", "plain"}}
	c := New(tr)
	runCycles(t, c, len(tr.lines))
	require.Len(t, tr.outputs, 1)
	require.Equal(t, fsm.StateReady, c.State())
}

func TestQuitAndExitEndTheSession(t *testing.T) {
	for _, cmd := range []string{"/quit", "/exit"} {
		tr := &script{lines: []string{"/start", cmd, "/list"}}
		c := New(tr)
		require.NoError(t, c.Run(context.Background()))
		require.True(t, c.ExitRequested(), cmd)
		require.Equal(t, 2, tr.reads, cmd)
		require.Equal(t, fsm.FarewellText, tr.outputs[len(tr.outputs)-1])
	}
}

func TestQuitOutsideReadyKeepsRunning(t *testing.T) {
	tr := &script{lines: []string{"/quit", "/start", "/addbook", "/quit", "/exit"}}
	c := New(tr)
	require.NoError(t, c.Run(context.Background()))
	require.False(t, c.ExitRequested())
	require.Equal(t, len(tr.lines), tr.reads)
	require.Equal(t, fsm.StateCollectingBook, c.State())
}

func TestRunStopsOnEOF(t *testing.T) {
	tr := &script{lines: []string{"/start"}}
	c := New(tr)
	require.NoError(t, c.Run(context.Background()))
	require.False(t, c.ExitRequested())
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(&script{readErr: context.Canceled, lines: nil})
	require.NoError(t, c.Run(ctx))
}

func TestRunWrapsReadErrors(t *testing.T) {
	boom := errors.New("boom")
	c := New(&script{readErr: boom, lines: []string{"/start"}})
	err := c.Run(context.Background())
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "session:")
}

func TestRunCycleReturnsOutputError(t *testing.T) {
	boom := errors.New("send failed")
	tr := &script{lines: []string{"/start", "hello"}, outErr: boom}
	c := New(tr)

	require.ErrorIs(t, c.RunCycle(context.Background()), boom)
	require.Equal(t, fsm.StateReady, c.State())

	require.NoError(t, c.RunCycle(context.Background()))
}

func TestRunCycleRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewSession(reg)
	require.NoError(t, err)

	tr := &script{lines: []string{"/start", "noise", "/addbook", "Dune", "desc"}}
	c := New(tr, WithMetrics(m))
	runCycles(t, c, len(tr.lines))

	count, err := testutil.GatherAndCount(reg, "librarybot_transitions_total")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	count, err = testutil.GatherAndCount(reg, "librarybot_ignored_events_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestOptionsShareCollectionAndID(t *testing.T) {
	shelf := books.NewCollection()
	shelf.Append(books.Entry{Name: "Dune"})
	c := New(&script{}, WithBooks(shelf), WithID("fixed"), WithMachine(fsm.New()))
	require.Same(t, shelf, c.Books())
	require.Equal(t, "fixed", c.ID())
}
