package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/librarybot/core/logger"
)

func newContext(t *testing.T, from int64, text string) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return bot.NewContext(tele.Update{
		ID: 5,
		Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: from},
			Chat:   &tele.Chat{ID: from},
		},
	})
}

func counting(n *int) tele.HandlerFunc {
	return func(tele.Context) error {
		*n++
		return nil
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	var calls, rejected int
	h := AdminOnlyMiddleware(AdminOptions{AdminID: 42, OnReject: counting(&rejected)})(counting(&calls))

	require.NoError(t, h(newContext(t, 42, "hi")))
	require.NoError(t, h(newContext(t, 7, "hi")))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, rejected)
}

func TestAdminOnlyWithoutAdminRejectsEveryone(t *testing.T) {
	var calls int
	h := AdminOnlyMiddleware(AdminOptions{})(counting(&calls))
	require.NoError(t, h(newContext(t, 42, "hi")))
	require.Zero(t, calls)
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Unix(1700000000, 0)
	var calls, limited int
	h := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		OnLimited: counting(&limited),
		Now:       func() time.Time { return now },
	})(counting(&calls))

	c := newContext(t, 42, "a")
	require.NoError(t, h(c))
	now = now.Add(500 * time.Millisecond)
	require.NoError(t, h(c))
	now = now.Add(time.Second)
	require.NoError(t, h(c))

	require.Equal(t, 2, calls)
	require.Equal(t, 1, limited)
}

func TestRateLimitDisabled(t *testing.T) {
	var calls int
	h := RateLimitMiddleware(RateLimitOptions{})(counting(&calls))
	c := newContext(t, 42, "a")
	require.NoError(t, h(c))
	require.NoError(t, h(c))
	require.Equal(t, 2, calls)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newContext(t, 42, "a"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")

	sentinel := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return sentinel })
	require.ErrorIs(t, h(newContext(t, 42, "a")), sentinel)
}

func TestLoggerMiddlewareStoresChatContext(t *testing.T) {
	var got int64
	h := LoggerMiddleware(func(c tele.Context) error {
		got = logger.ChatIDFrom(ContextFrom(c))
		return nil
	})
	require.NoError(t, h(newContext(t, 42, "hello")))
	require.Equal(t, int64(42), got)

	require.NotNil(t, ContextFrom(newContext(t, 1, "x")))
}
