// Package telegram carries the session over a Telegram bot bound to one chat.
// Text messages of the admin chat become input lines; replies go back to the
// same chat through an ordered outbox.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/librarybot/core/commands"
	"github.com/m3rciful/librarybot/core/config"
	"github.com/m3rciful/librarybot/core/logger"
	"github.com/m3rciful/librarybot/core/telegram/keyboard"
	"github.com/m3rciful/librarybot/core/telegram/middleware"
	"github.com/m3rciful/librarybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const inboxSize = 16

// botAPI is the part of *tele.Bot the transport sends through.
type botAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Transport implements the session transport over Telegram.
type Transport struct {
	api      botAPI
	chat     tele.ChatID
	username string
	markup   *tele.ReplyMarkup
	outbox   *sender.Outbox

	inbox     chan string
	stop      chan struct{}
	closeOnce sync.Once

	bot     *tele.Bot
	runDone chan struct{}
}

func newTransport(api botAPI, chatID int64, outbox *sender.Outbox, markup *tele.ReplyMarkup) *Transport {
	return &Transport{
		api:    api,
		chat:   tele.ChatID(chatID),
		markup: markup,
		outbox: outbox,
		inbox:  make(chan string, inboxSize),
		stop:   make(chan struct{}),
	}
}

// OutboxOptions maps the outbox config section.
func OutboxOptions(cfg config.OutboxConfig) sender.Options {
	return sender.Options{
		QueueSize:    cfg.QueueSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
		MaxDuration:  time.Duration(cfg.MaxDurationMS) * time.Millisecond,
	}
}

// Open connects the bot, installs the middleware chain, publishes the command
// menu and starts receiving updates. Close must be called to stop it.
func Open(ctx context.Context, cfg *config.Config, vocab *commands.Registry) (*Transport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}
	if vocab == nil {
		vocab = commands.Default()
	}

	pollerOpts := PollerOptionsFrom(cfg)
	poller := BuildPoller(pollerOpts)
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:       cfg.Telegram.Token,
		Poller:      poller,
		Client:      BuildHTTPClient(pollerOpts.longPollTimeout()),
		Synchronous: true,
		OnError: func(err error, c tele.Context) {
			logger.Error(middleware.ContextFrom(c), logger.CompTG, "update.fail",
				slog.String("status", "fail"),
				slog.Any("err", err),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, poller, time.Since(start))

	if _, ok := poller.(*tele.LongPoller); ok {
		err := bot.RemoveWebhook(false)
		attrs := []slog.Attr{slog.String("status", logger.Status(err)), slog.String("mode", config.RunModeLongpoll)}
		if err != nil {
			logger.Warn(ctx, logger.CompTGWire, "webhook.delete", append(attrs, slog.Any("err", err))...)
		} else {
			logger.Info(ctx, logger.CompTGWire, "webhook.delete", attrs...)
		}
	}

	for _, mw := range DefaultMiddlewares(cfg) {
		bot.Use(mw.Use)
		logger.Debug(ctx, logger.CompTGWire, "middleware.use", slog.String("status", "ok"), slog.String("handler", mw.Name))
	}

	t := newTransport(bot, cfg.Telegram.AdminID, sender.New(OutboxOptions(cfg.Outbox)), keyboard.Commands(vocab))
	t.bot = bot
	if bot.Me != nil {
		t.username = bot.Me.Username
	}
	bot.Handle(tele.OnText, t.handleText)
	SetupCommands(ctx, bot, vocab)

	t.runDone = make(chan struct{})
	go func() {
		defer close(t.runDone)
		bot.Start()
	}()
	return t, nil
}

func logMode(ctx context.Context, poller tele.Poller, took time.Duration) {
	switch p := poller.(type) {
	case *tele.Webhook:
		logger.Info(ctx, logger.CompTG, "mode",
			slog.String("status", "ok"),
			slog.String("mode", config.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(took)),
		)
	case *tele.LongPoller:
		logger.Info(ctx, logger.CompTG, "mode",
			slog.String("status", "ok"),
			slog.String("mode", config.RunModeLongpoll),
			slog.Duration("timeout", p.Timeout),
			slog.Duration("duration", logger.RoundMS(took)),
		)
	}
}

// handleText queues the message text as the next input line. It blocks while
// the session is busy, which keeps updates in order.
func (t *Transport) handleText(c tele.Context) error {
	line := normalizeCommand(c.Text(), t.username)
	select {
	case t.inbox <- line:
	case <-t.stop:
	}
	return nil
}

// normalizeCommand strips the "@bot" mention Telegram appends to commands in
// group chats, so "/list@librarybot" reads as "/list".
func normalizeCommand(text, username string) string {
	if username == "" || !strings.HasPrefix(text, "/") {
		return text
	}
	head, rest, hasRest := strings.Cut(text, " ")
	name, mention, ok := strings.Cut(head, "@")
	if !ok || !strings.EqualFold(mention, username) {
		return text
	}
	if hasRest {
		return name + " " + rest
	}
	return name
}

// GetLine returns the next text message of the admin chat. It reports io.EOF
// after Close or when the bot stops receiving updates.
func (t *Transport) GetLine(ctx context.Context) (string, error) {
	select {
	case line := <-t.inbox:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.stop:
		return "", io.EOF
	case <-t.runDone:
		return "", io.EOF
	}
}

// Output queues text for the admin chat. Delivery is asynchronous; the error
// only reports a rejected enqueue.
func (t *Transport) Output(ctx context.Context, text string) error {
	opts := []interface{}{}
	if t.markup != nil {
		opts = append(opts, t.markup)
	}
	err := t.outbox.Enqueue(ctx, "send.text", func(context.Context) error {
		_, err := t.api.Send(t.chat, text, opts...)
		return err
	})
	if err != nil {
		return fmt.Errorf("telegram: enqueue reply: %w", err)
	}
	return nil
}

// Close stops receiving updates and waits until queued replies are sent.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.stop)
		if t.bot != nil {
			t.bot.Stop()
			<-t.runDone
		}
		t.outbox.Close()
		logger.Info(context.Background(), logger.CompTG, "transport.closed",
			slog.String("status", "ok"),
			slog.Uint64("sent", t.outbox.Sent()),
			slog.Uint64("failed", t.outbox.ErrorCount()),
		)
	})
	return nil
}
