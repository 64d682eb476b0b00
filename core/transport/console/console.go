// Package console reads session input from a terminal or pipe and prints
// replies back to it.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/m3rciful/librarybot/core/config"
	"github.com/m3rciful/librarybot/core/logger"
)

// replyColor tints bot replies on color-capable terminals.
const replyColor = "#818cf8"

type inputResult struct {
	text string
	err  error
}

// Transport is a line-oriented console. Lines are read by a background pump
// so that GetLine can give up when its context is cancelled.
type Transport struct {
	reader      *bufio.Reader
	out         io.Writer
	styled      *termenv.Output
	prompt      string
	interactive bool

	mu        sync.Mutex
	startOnce sync.Once
	input     chan inputResult
}

// Option customises a Transport.
type Option func(*Transport)

// WithInteractive forces prompt printing on or off.
func WithInteractive(on bool) Option {
	return func(t *Transport) { t.interactive = on }
}

// New builds a console over in and out. Nil streams default to stdin and stdout.
// The prompt is printed only when in is a terminal; replies are colored
// according to cfg.Color.
func New(in io.Reader, out io.Writer, cfg config.ConsoleConfig, opts ...Option) *Transport {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = config.DefaultPrompt
	}
	t := &Transport{
		reader:      bufio.NewReader(in),
		out:         out,
		prompt:      prompt,
		interactive: isTerminal(in),
	}
	if p, ok := colorProfile(cfg.Color, out); ok {
		t.styled = termenv.NewOutput(out, termenv.WithProfile(p))
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func colorProfile(mode string, out io.Writer) (termenv.Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "never":
		return termenv.Ascii, false
	case "always":
		return termenv.ANSI256, true
	}
	if !isTerminal(out) {
		return termenv.Ascii, false
	}
	p := termenv.NewOutput(out).EnvColorProfile()
	return p, p != termenv.Ascii
}

func (t *Transport) startPump() {
	t.startOnce.Do(func() {
		t.input = make(chan inputResult)
		go t.pump()
	})
}

func (t *Transport) pump() {
	defer close(t.input)
	for {
		text, err := t.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			t.input <- inputResult{err: err}
			return
		}
		if text != "" {
			t.input <- inputResult{text: trimEOL(text)}
		}
		if err != nil {
			return
		}
	}
}

// trimEOL drops the line terminator only; everything else is kept verbatim.
func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// GetLine waits for the next input line. It returns io.EOF once the input is
// exhausted and ctx.Err() when ctx is done first.
func (t *Transport) GetLine(ctx context.Context) (string, error) {
	t.startPump()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.interactive {
		if err := t.write(t.prompt); err != nil {
			logger.Warn(ctx, logger.CompConsole, "console.prompt",
				slog.String("status", "fail"),
				slog.Any("err", err),
			)
		}
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-t.input:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			logger.Warn(ctx, logger.CompConsole, "console.read",
				slog.String("status", "fail"),
				slog.Any("err", res.err),
			)
			return "", fmt.Errorf("console: read: %w", res.err)
		}
		return res.text, nil
	}
}

// Output prints text followed by a newline.
func (t *Transport) Output(_ context.Context, text string) error {
	if t.styled != nil {
		text = t.styled.String(text).Foreground(t.styled.Color(replyColor)).String()
	}
	if err := t.write(text + "\n"); err != nil {
		return fmt.Errorf("console: write: %w", err)
	}
	return nil
}

func (t *Transport) write(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.out, s)
	return err
}
