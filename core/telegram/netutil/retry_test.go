package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	require.False(t, ShouldRetry(nil))
	require.False(t, ShouldRetry(errors.New("telegram: bad request (400)")))
	require.False(t, ShouldRetry(context.Canceled))

	require.True(t, ShouldRetry(timeoutErr{}))
	require.True(t, ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
	require.True(t, ShouldRetry(&net.OpError{Op: "read", Err: timeoutErr{}}))
	require.False(t, ShouldRetry(&net.OpError{Op: "read", Err: errors.New("reset")}))
	require.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}))
}
