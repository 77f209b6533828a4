package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"course-nlu/internal/cache"
	"course-nlu/internal/config"
	"course-nlu/internal/discovery"
	"course-nlu/internal/enrich"
	"course-nlu/internal/logging"
	"course-nlu/internal/nlu"
)

// analyzerFactory builds the analyzer used by a run and a func releasing it.
type analyzerFactory func(cfg config.Config, logger *slog.Logger) (enrich.Analyzer, func() error, error)

// uploaderFactory builds the Discovery client documents are added with.
type uploaderFactory func(cfg config.Config, logger *slog.Logger) (*discovery.Client, error)

type commandContext struct {
	envFile   string
	logLevel  string
	logFormat string

	newAnalyzer analyzerFactory
	newUploader uploaderFactory

	once   sync.Once
	cfg    config.Config
	logger *slog.Logger
	err    error
}

func newCommandContext() *commandContext {
	return &commandContext{newAnalyzer: newServiceAnalyzer, newUploader: newDiscoveryClient}
}

// ensure loads configuration and builds the logger once per process.
func (c *commandContext) ensure(logOut io.Writer) error {
	c.once.Do(func() {
		if strings.TrimSpace(c.envFile) != "" {
			if err := config.LoadDotEnv(c.envFile); err != nil {
				c.err = err
				return
			}
		}
		cfg := config.Load()
		if c.logLevel != "" {
			cfg.LogLevel = c.logLevel
		}
		if c.logFormat != "" {
			cfg.LogFormat = c.logFormat
		}

		logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: logOut})
		if err != nil {
			c.err = err
			return
		}
		c.cfg = cfg
		c.logger = logger.With("run", uuid.NewString())
	})
	return c.err
}

// analyzer returns the configured analyzer, wrapped in the response cache
// when NLU_CACHE_DIR is set.
func (c *commandContext) analyzer() (enrich.Analyzer, func() error, error) {
	return c.newAnalyzer(c.cfg, c.logger)
}

func newServiceAnalyzer(cfg config.Config, logger *slog.Logger) (enrich.Analyzer, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	httpClient := nlu.NewHTTPClient()
	tokens := nlu.NewIAMTokenSource(cfg.IAMURL, cfg.NLUAPIKey, httpClient)
	client, err := nlu.New(cfg.NLUURL, cfg.NLUVersion, tokens, httpClient)
	if err != nil {
		return nil, nil, err
	}
	client.Logger = logger

	if cfg.CacheDir == "" {
		return client, func() error { return nil }, nil
	}

	store, err := cache.Open(cfg.CacheDir, cfg.CacheTTL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open analysis cache: %w", err)
	}
	cached := cache.NewAnalyzer(store, client)
	release := func() error {
		hits, misses := cached.Stats()
		logger.Info("analysis cache", "hits", hits, "misses", misses)
		return store.Close()
	}
	return cached, release, nil
}

func newDiscoveryClient(cfg config.Config, logger *slog.Logger) (*discovery.Client, error) {
	if err := cfg.ValidateDiscovery(); err != nil {
		return nil, err
	}
	httpClient := nlu.NewHTTPClient()
	tokens := nlu.NewIAMTokenSource(cfg.IAMURL, cfg.DiscoveryAPIKey, httpClient)
	client, err := discovery.New(cfg.Discovery(), tokens, httpClient)
	if err != nil {
		return nil, err
	}
	client.Logger = logger
	return client, nil
}
