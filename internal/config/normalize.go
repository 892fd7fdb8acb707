package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DebugDir) == "" {
		c.Paths.DebugDir = defaultDebugDir
	}
	if c.Paths.DebugDir, err = expandPath(c.Paths.DebugDir); err != nil {
		return fmt.Errorf("paths.debug_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() error {
	c.Catalog.ManifestPath = strings.TrimSpace(c.Catalog.ManifestPath)
	if c.Catalog.ManifestPath == "" {
		if value, ok := os.LookupEnv("BAZAARSCAN_CATALOG_MANIFEST"); ok {
			c.Catalog.ManifestPath = strings.TrimSpace(value)
		}
	}
	c.Catalog.DatabasePath = strings.TrimSpace(c.Catalog.DatabasePath)
	if c.Catalog.DatabasePath == "" {
		if value, ok := os.LookupEnv("BAZAARSCAN_CATALOG_DB"); ok {
			c.Catalog.DatabasePath = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Catalog.ManifestPath, err = expandPath(c.Catalog.ManifestPath); err != nil {
		return fmt.Errorf("catalog.manifest_path: %w", err)
	}
	if c.Catalog.DatabasePath, err = expandPath(c.Catalog.DatabasePath); err != nil {
		return fmt.Errorf("catalog.database_path: %w", err)
	}
	c.Catalog.CacheBackend = strings.ToLower(strings.TrimSpace(c.Catalog.CacheBackend))
	if c.Catalog.CacheBackend == "" {
		c.Catalog.CacheBackend = defaultCacheBackend
	}
	c.Catalog.UserAgent = strings.TrimSpace(c.Catalog.UserAgent)
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaultUserAgent
	}
	if c.Catalog.MaxImageBytes <= 0 {
		c.Catalog.MaxImageBytes = defaultMaxImageBytes
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
