// Command subdomains extracts the registrable domain from free text, one
// input at a time (parse) or one line at a time (scan).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/haukened/subdomains"
	"github.com/haukened/subdomains/internal/subdomains/common/clock"
	"github.com/haukened/subdomains/internal/subdomains/common/log"
	"github.com/haukened/subdomains/internal/subdomains/config"
	"github.com/haukened/subdomains/internal/subdomains/gateways/psl"
	"github.com/haukened/subdomains/internal/subdomains/gateways/uri"
	"github.com/haukened/subdomains/internal/subdomains/metrics"
	"github.com/haukened/subdomains/internal/subdomains/repos/index"
	"github.com/haukened/subdomains/internal/subdomains/repos/resultcache"
	"github.com/haukened/subdomains/internal/subdomains/repos/seen"
	"github.com/haukened/subdomains/internal/subdomains/services/parser"
	"github.com/haukened/subdomains/internal/subdomains/services/scanner"
)

const (
	appName = "subdomains"

	// configFileEnv names the config file when --config is not given.
	configFileEnv = config.EnvPrefix + "CONFIG_FILE"
)

// Application holds the components shared by every command.
type Application struct {
	config  *config.AppConfig
	parser  *parser.Parser
	cache   scanner.ResultCache
	metrics *metrics.Metrics
	clock   clock.Clock
	logger  log.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	p, err := parser.New(parser.Options{
		HostExtractor: uri.NewExtractor(),
		Segmenter:     psl.NewSegmenter(psl.Options{AllowUnlistedTLD: cfg.AllowUnlistedTLD}),
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	cache, err := resultcache.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	log.Debug(map[string]any{
		"version":            subdomains.Version,
		"env":                cfg.Env,
		"workers":            cfg.Workers,
		"cache_size":         cfg.CacheSize,
		"allow_unlisted_tld": cfg.AllowUnlistedTLD,
	}, "application configured")

	return &Application{
		config:  cfg,
		parser:  p,
		cache:   cache,
		metrics: metrics.New(),
		clock:   &clock.RealClock{},
		logger:  logger,
	}, nil
}

type scanSettings struct {
	unique      bool
	useIndex    bool
	inputFormat scanner.InputFormat
}

// scanRun is a scanner wired for one invocation of scan. close releases the
// index, if one was opened.
type scanRun struct {
	scanner *scanner.Scanner
	seen    *seen.Filter
	close   func() error
}

func (app *Application) newScanRun(s scanSettings) (*scanRun, error) {
	filter := seen.New(app.config.BloomCapacity, app.config.BloomFPRate)
	opts := scanner.Options{
		Parser:      app.parser,
		Cache:       app.cache,
		Metrics:     app.metrics,
		Logger:      app.logger,
		Clock:       app.clock,
		Workers:     app.config.Workers,
		Unique:      s.unique,
		InputFormat: s.inputFormat,
		Seen:        filter,
	}
	closer := func() error { return nil }
	if s.useIndex {
		store, err := index.Open(app.config.IndexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open index %s: %w", app.config.IndexPath, err)
		}
		opts.Index = store
		closer = store.Close
	}
	sc, err := scanner.New(opts)
	if err != nil {
		_ = closer()
		return nil, err
	}
	return &scanRun{scanner: sc, seen: filter, close: closer}, nil
}

func (app *Application) openIndex() (*index.Store, error) {
	store, err := index.Open(app.config.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", app.config.IndexPath, err)
	}
	return store, nil
}

// writeMetrics dumps the scan metrics when a metrics file is configured.
func (app *Application) writeMetrics() error {
	if app.config.MetricsFile == "" {
		return nil
	}
	if err := app.metrics.WriteTextfile(app.config.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
