package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathUsesConsoleDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, TransportConsole, cfg.Transport.Mode)
	require.Equal(t, DefaultPrompt, cfg.Console.Prompt)
	require.Equal(t, "auto", cfg.Console.Color)
	require.Equal(t, StreamStderr, cfg.Logging.Stream)
}

func TestLoadYAMLWithEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
transport:
  mode: telegram
telegram:
  token: from-file
  admin_id: 42
  run_mode: polling
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, TransportTelegram, cfg.Transport.Mode)
	require.Equal(t, "from-env", cfg.Telegram.Token)
	require.Equal(t, int64(42), cfg.Telegram.AdminID)
	require.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, StreamStdout, cfg.Logging.Stream)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestNormalizeRejectsInvalidSettings(t *testing.T) {
	cases := map[string]Config{
		"unknown transport": {Transport: TransportConfig{Mode: "smoke-signals"}},
		"telegram without token": {
			Transport: TransportConfig{Mode: TransportTelegram},
			Telegram:  TelegramConfig{AdminID: 1},
		},
		"telegram without admin": {
			Transport: TransportConfig{Mode: TransportTelegram},
			Telegram:  TelegramConfig{Token: "t"},
		},
		"webhook without url": {
			Transport: TransportConfig{Mode: TransportTelegram},
			Telegram:  TelegramConfig{Token: "t", AdminID: 1, RunMode: RunModeWebhook},
		},
		"bad color": {Console: ConsoleConfig{Color: "rainbow"}},
		"bad stream": {Logging: LoggingConfig{Stream: "pigeon"}},
		"negative rate limit": {RateLimit: RateLimitConfig{IntervalMS: -1}},
	}
	for name, cfg := range cases {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			require.Error(t, Normalize(&cfg))
		})
	}
}

func TestNormalizeAcceptsAliases(t *testing.T) {
	cfg := Config{Transport: TransportConfig{Mode: " CLI "}}
	require.NoError(t, Normalize(&cfg))
	require.Equal(t, TransportConsole, cfg.Transport.Mode)

	cfg = Config{
		Transport: TransportConfig{Mode: "bot"},
		Telegram:  TelegramConfig{Token: "t", AdminID: 7},
		Logging:   LoggingConfig{Stream: "NONE"},
	}
	require.NoError(t, Normalize(&cfg))
	require.Equal(t, TransportTelegram, cfg.Transport.Mode)
	require.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, StreamNone, cfg.Logging.Stream)
}

func TestNormalizeNil(t *testing.T) {
	require.Error(t, Normalize(nil))
}
