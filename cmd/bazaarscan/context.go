package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"bazaarscan/internal/catalog"
	"bazaarscan/internal/config"
	"bazaarscan/internal/logging"
	"bazaarscan/internal/services"
)

// maxScreenshotBytes caps images read from the command line.
const maxScreenshotBytes = 64 << 20

type commandContext struct {
	configFlag *string
	formatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, formatFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		formatFlag: formatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// catalogSource prefers the sqlite catalog when configured and falls back to
// the seeding manifest.
func (c *commandContext) catalogSource(cfg *config.Config) (catalog.Source, func(), error) {
	if cfg.Catalog.DatabasePath != "" {
		if _, err := os.Stat(cfg.Catalog.DatabasePath); err == nil {
			store, err := catalog.OpenStore(cfg.Catalog.DatabasePath)
			if err != nil {
				return nil, nil, err
			}
			return store, func() { _ = store.Close() }, nil
		}
	}
	if cfg.Catalog.ManifestPath != "" {
		return catalog.ManifestSource{Path: cfg.Catalog.ManifestPath}, func() {}, nil
	}
	return nil, nil, services.Wrap(services.ErrConfiguration, "catalog", "select source",
		"set catalog.manifest_path or import a manifest into catalog.database_path", nil)
}

// fingerprintCache opens the configured cache backend.
func (c *commandContext) fingerprintCache(cfg *config.Config) (catalog.Cache, func(), error) {
	if cfg.Catalog.CacheBackend == config.CacheBackendSQLite {
		cache, err := catalog.OpenSQLiteCache(cfg.CacheDatabasePath(), cfg.CacheTTL(), c.ensureLogger())
		if err != nil {
			return nil, nil, err
		}
		return cache, func() { _ = cache.Close() }, nil
	}
	return catalog.NewMemoryCache(cfg.CacheTTL()), func() {}, nil
}

// withCatalogLock runs fn while holding the catalog maintenance lock.
func withCatalogLock(cfg *config.Config, fn func() error) error {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another catalog operation is running (lock %s)", cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return fn()
}

func loadImage(ctx context.Context, path string) (image.Image, error) {
	fetcher := catalog.NewHTTPFetcher(catalog.WithMaxImageBytes(maxScreenshotBytes))
	img, err := fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidImage, "cli", "load image", path, err)
	}
	return img, nil
}

// wantJSON decides between table and JSON output. Auto picks tables for
// terminals and JSON for pipes.
func (c *commandContext) wantJSON(cmd *cobra.Command) bool {
	format := "auto"
	if c.formatFlag != nil {
		format = strings.ToLower(strings.TrimSpace(*c.formatFlag))
	}
	switch format {
	case "json":
		return true
	case "table":
		return false
	}
	return !isTerminal(cmd.OutOrStdout())
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
