// Package cmd wires configuration, infrastructure and a transport into a
// running session.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/librarybot/core/bootstrap"
	"github.com/m3rciful/librarybot/core/commands"
	"github.com/m3rciful/librarybot/core/config"
	"github.com/m3rciful/librarybot/core/fsm"
	"github.com/m3rciful/librarybot/core/logger"
	"github.com/m3rciful/librarybot/core/session"
	"github.com/m3rciful/librarybot/core/telegram"
	"github.com/m3rciful/librarybot/core/transport/console"
)

// Transport is a session transport the runner closes on shutdown.
type Transport interface {
	session.Transport
	io.Closer
}

// Options describe how to load configuration, bootstrap and open the transport.
// Zero fields fall back to the production implementations.
type Options struct {
	ConfigEnvVar string

	LoadConfig     func(path string) (*config.Config, error)
	Bootstrap      func(bootstrap.Options) (*bootstrap.Result, error)
	OpenTransport  func(ctx context.Context, cfg *config.Config, vocab *commands.Registry) (Transport, error)
	ShutdownLogger func() error

	// Signals cancel the session; nil means SIGINT and SIGTERM.
	Signals []os.Signal
}

// Run loads configuration, bootstraps the infrastructure and runs one session
// until it ends by exit command, end of input or signal.
func Run(opts Options) error {
	startedAt := time.Now()

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = config.Load
	}
	cfgPath := os.Getenv(env)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	boot := opts.Bootstrap
	if boot == nil {
		boot = bootstrap.Run
	}
	infra, err := boot(bootstrap.Options{Config: cfg})
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	signals := opts.Signals
	if signals == nil {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := signal.NotifyContext(context.Background(), signals...)
	defer cancel()

	logger.Info(ctx, logger.CompApp, "config.loaded",
		slog.String("status", "ok"),
		slog.String("mode", cfg.Transport.Mode),
		slog.String("path", cfgPath),
	)

	metricsDone := make(chan error, 1)
	if infra.Server != nil {
		go func() { metricsDone <- infra.Server.Serve(ctx) }()
	} else {
		metricsDone <- nil
	}

	vocab := commands.Default()
	open := opts.OpenTransport
	if open == nil {
		open = OpenTransport
	}
	tr, err := open(ctx, cfg, vocab)
	if err != nil {
		cancel()
		<-metricsDone
		return fmt.Errorf("cmd: transport open failed: %w", err)
	}

	sess := session.New(tr,
		session.WithMachine(fsm.New(fsm.WithCommands(vocab))),
		session.WithMetrics(infra.Metrics),
	)
	logger.Info(ctx, logger.CompApp, "ready",
		slog.String("status", "ok"),
		slog.String("mode", cfg.Transport.Mode),
		slog.String("session_id", sess.ID()),
		slog.Duration("duration", logger.RoundMS(time.Since(startedAt))),
	)

	runErr := sess.Run(ctx)

	logger.Info(ctx, logger.CompApp, "shutdown", slog.String("status", "ok"))
	closeErr := tr.Close()
	cancel()
	metricsErr := <-metricsDone

	return errors.Join(runErr, closeErr, metricsErr)
}

// OpenTransport opens the transport selected by transport.mode.
func OpenTransport(ctx context.Context, cfg *config.Config, vocab *commands.Registry) (Transport, error) {
	switch cfg.Transport.Mode {
	case config.TransportTelegram:
		tr, err := telegram.Open(ctx, cfg, vocab)
		if err != nil {
			return nil, err
		}
		return tr, nil
	case config.TransportConsole, "":
		return nopCloser{console.New(os.Stdin, os.Stdout, cfg.Console)}, nil
	default:
		return nil, fmt.Errorf("cmd: unknown transport mode %q", cfg.Transport.Mode)
	}
}

type nopCloser struct {
	session.Transport
}

func (nopCloser) Close() error { return nil }
