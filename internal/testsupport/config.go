package testsupport

import (
	"path/filepath"
	"testing"

	"bazaarscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DebugDir = filepath.Join(base, "debug")
	cfgVal.Catalog.DatabasePath = filepath.Join(base, "catalog.db")
	cfgVal.Catalog.FetchTimeoutSeconds = 2
	cfgVal.Catalog.LoadTimeoutSeconds = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithManifest points the catalog at a manifest file.
func WithManifest(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.ManifestPath = path
	}
}

// WithCacheBackend selects the fingerprint cache backend.
func WithCacheBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.CacheBackend = backend
	}
}

// WithMatchingDisabled turns catalog matching off.
func WithMatchingDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
