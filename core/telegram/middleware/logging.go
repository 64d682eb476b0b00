// Package middleware holds the telebot middleware chain of the Telegram transport.
package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/librarybot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "logger_ctx"

// LoggerMiddleware attaches a logging context with the chat id to the update
// and logs its receipt at debug level.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := logger.WithLogger(context.Background(), logger.Component(logger.CompTG))
		if chat := c.Chat(); chat != nil {
			ctx = logger.WithChatID(ctx, chat.ID)
		}
		c.Set(contextKey, ctx)

		attrs := []slog.Attr{
			slog.String("status", "ok"),
			slog.Int("update_id", c.Update().ID),
		}
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
		logger.Debug(ctx, logger.CompTG, "update.received", attrs...)
		return next(c)
	}
}

// ContextFrom returns the logging context stored by LoggerMiddleware, or a
// background context when the middleware did not run.
func ContextFrom(c tele.Context) context.Context {
	return contextOf(c)
}

func contextOf(c tele.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(contextKey).(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}
