// Package bootstrap initializes the infrastructure shared by every transport.
package bootstrap

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/m3rciful/librarybot/core/config"
	"github.com/m3rciful/librarybot/core/logger"
	"github.com/m3rciful/librarybot/core/metrics"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *config.Config

	LoggerInit func(*config.Config) error
	// Listen binds the metrics endpoint; it is called only when metrics.listen is set.
	Listen func(addr string, h http.Handler) (*metrics.Server, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Session
	// Server is nil when the metrics endpoint is disabled.
	Server *metrics.Server
}

// Run initializes the logger, registers the session metrics and binds the
// metrics endpoint when configured.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sess, err := metrics.NewSession(reg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: metrics registration failed: %w", err)
	}
	res := &Result{Registry: reg, Metrics: sess}

	addr := strings.TrimSpace(opts.Config.Metrics.Listen)
	if addr == "" {
		return res, nil
	}
	listen := opts.Listen
	if listen == nil {
		listen = metrics.Listen
	}
	srv, err := listen(addr, metrics.NewHandler(reg))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: metrics endpoint failed: %w", err)
	}
	res.Server = srv
	return res, nil
}
