package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TransportConfig selects where session lines come from and where replies go.
type TransportConfig struct {
	Mode string `yaml:"mode" envconfig:"TRANSPORT_MODE"`
}

// ConsoleConfig holds settings of the terminal transport.
type ConsoleConfig struct {
	Prompt string `yaml:"prompt" envconfig:"CONSOLE_PROMPT"`
	// Color is one of "auto", "always", "never".
	Color string `yaml:"color" envconfig:"CONSOLE_COLOR"`
}

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// AdminID is the only chat the bot talks to; the session belongs to it.
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format    string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder string `yaml:"keys_order"`
	// Stream is the primary sink: "stdout", "stderr" or "none".
	Stream string `yaml:"stream" envconfig:"LOG_STREAM"`
	Dir    string `yaml:"dir"`
	File   string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds the minimum interval between two accepted Telegram messages.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// Listen is a host:port address; empty disables the HTTP endpoint.
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// OutboxConfig tunes the ordered Telegram reply sender.
type OutboxConfig struct {
	QueueSize      int `yaml:"queue_size"`
	MaxRetries     int `yaml:"max_retries"`
	RetryBackoffMS int `yaml:"retry_backoff_ms"`
	MaxDurationMS  int `yaml:"max_duration_ms"`
}

const (
	// TransportConsole reads lines from stdin and prints replies to stdout.
	TransportConsole = "console"
	// TransportTelegram talks to a single Telegram chat.
	TransportTelegram = "telegram"
)

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// StreamStdout writes logs to standard output.
	StreamStdout = "stdout"
	// StreamStderr writes logs to standard error.
	StreamStderr = "stderr"
	// StreamNone disables the stream sink; a log file may still be configured.
	StreamNone = "none"
)

// DefaultPrompt is printed before every console read on interactive terminals.
const DefaultPrompt = "> "

// Config aggregates the process configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Console   ConsoleConfig   `yaml:"console"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Outbox    OutboxConfig    `yaml:"outbox"`
}

// Load reads configuration from an optional YAML file and environment variables.
// An empty path means defaults overlaid by the environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Transport.Mode))
	switch mode {
	case "", "stdin", "cli":
		mode = TransportConsole
	case "tg", "bot":
		mode = TransportTelegram
	}
	cfg.Transport.Mode = mode

	switch mode {
	case TransportConsole:
		if err := normalizeConsole(&cfg.Console); err != nil {
			return err
		}
	case TransportTelegram:
		if err := normalizeTelegram(cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid transport.mode %q; allowed: console, telegram", cfg.Transport.Mode)
	}

	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	if cfg.Outbox.QueueSize < 0 || cfg.Outbox.MaxRetries < 0 {
		return fmt.Errorf("outbox.queue_size and outbox.max_retries must be >= 0")
	}

	return normalizeLogging(&cfg.Logging, mode)
}

func normalizeConsole(c *ConsoleConfig) error {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	color := strings.ToLower(strings.TrimSpace(c.Color))
	if color == "" {
		color = "auto"
	}
	switch color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid console.color %q; allowed: auto, always, never", c.Color)
	}
	c.Color = color
	return nil
}

func normalizeTelegram(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.AdminID == 0 {
		return fmt.Errorf("telegram.admin_id is required: the session is bound to a single chat")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizeLogging(l *LoggingConfig, mode string) error {
	stream := strings.ToLower(strings.TrimSpace(l.Stream))
	if stream == "" {
		// The console transport owns stdout.
		if mode == TransportConsole {
			stream = StreamStderr
		} else {
			stream = StreamStdout
		}
	}
	switch stream {
	case StreamStdout, StreamStderr, StreamNone:
	default:
		return fmt.Errorf("invalid logging.stream %q; allowed: stdout, stderr, none", l.Stream)
	}
	l.Stream = stream
	return nil
}
