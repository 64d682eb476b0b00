package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/librarybot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	OnLimited tele.HandlerFunc
	// Now is used instead of time.Now when set.
	Now func() time.Time
}

// RateLimitMiddleware enforces a minimum interval between two accepted
// messages of the same sender. Dropped messages never reach the session.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || opts.Interval <= 0 {
				return next(c)
			}

			ts := now()
			mu.Lock()
			if last, ok := lastSeen[sender.ID]; ok && ts.Sub(last) < opts.Interval {
				mu.Unlock()
				logger.Warn(contextOf(c), logger.CompTG, "tg.rate_limit",
					slog.String("status", "rate_limited"),
					slog.Duration("backoff", opts.Interval-ts.Sub(last)),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen[sender.ID] = ts
			mu.Unlock()
			return next(c)
		}
	}
}
