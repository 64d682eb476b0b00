package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// ctxKey keeps logger values private to this package.
type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRID
	keySessionID
	keyCycle
	keyState
	keyHandler
	keyChatID
)

// WithLogger stores the provided slog.Logger in context for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, keyLogger, log)
}

// FromContext extracts slog.Logger from context or returns the global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(keyLogger).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithCycle attaches the session identity and the cycle number, and derives rid from both.
func WithCycle(ctx context.Context, sessionID string, cycle uint64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, keySessionID, sessionID)
	ctx = context.WithValue(ctx, keyCycle, cycle)
	return context.WithValue(ctx, keyRID, BuildRID(sessionID, cycle))
}

// WithState records the conversation state the current event is handled in.
func WithState(ctx context.Context, state string) context.Context {
	return withString(ctx, keyState, state)
}

// WithHandler stores handler identifier in context for downstream logs.
func WithHandler(ctx context.Context, handler string) context.Context {
	return withString(ctx, keyHandler, handler)
}

// WithChatID attaches the Telegram chat the session is bound to.
func WithChatID(ctx context.Context, chatID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if chatID == 0 {
		return ctx
	}
	return context.WithValue(ctx, keyChatID, chatID)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

// RIDFrom extracts rid from context if present.
func RIDFrom(ctx context.Context) string { return stringFrom(ctx, keyRID) }

// SessionIDFrom extracts the session identifier.
func SessionIDFrom(ctx context.Context) string { return stringFrom(ctx, keySessionID) }

// StateFrom extracts the conversation state name.
func StateFrom(ctx context.Context) string { return stringFrom(ctx, keyState) }

// HandlerFrom returns handler identifier from context if present.
func HandlerFrom(ctx context.Context) string { return stringFrom(ctx, keyHandler) }

// CycleFrom extracts the cycle number; zero means no cycle is in progress.
func CycleFrom(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	n, _ := ctx.Value(keyCycle).(uint64)
	return n
}

// ChatIDFrom extracts chat id from context.
func ChatIDFrom(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(keyChatID).(int64)
	return id
}

// BuildRID returns a correlation identifier in the format <session prefix>:<cycle>.
// Only the last eight hex digits of the session id are kept; for UUIDv7 those are random.
func BuildRID(sessionID string, cycle uint64) string {
	prefix := strings.ReplaceAll(strings.TrimSpace(sessionID), "-", "")
	if len(prefix) > 8 {
		prefix = prefix[len(prefix)-8:]
	}
	if prefix == "" {
		prefix = "local"
	}
	return fmt.Sprintf("%s:%d", prefix, cycle)
}

// Sanitize drops control and format runes (except tab and newline) so user input stays on one log line.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r), r == 0x7F:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeLimit applies Sanitize and limits the output length in runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max])
}
