package session

import "context"

// Transport supplies input lines and displays replies.
//
// GetLine blocks until a line is available, ctx is done, or the input ends.
// Implementations return io.EOF when no more lines will come.
type Transport interface {
	GetLine(ctx context.Context) (string, error)
	Output(ctx context.Context, text string) error
}
