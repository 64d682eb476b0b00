package middleware

import (
	"log/slog"

	"github.com/m3rciful/librarybot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware drops updates from anyone but the admin, who owns the
// only session of the bot. A zero AdminID lets nothing through.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender != nil && opts.AdminID != 0 && sender.ID == opts.AdminID {
				return next(c)
			}
			var senderID int64
			if sender != nil {
				senderID = sender.ID
			}
			logger.Warn(contextOf(c), logger.CompTG, "access.denied",
				slog.String("status", "skip"),
				slog.Int64("sender_id", senderID),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
