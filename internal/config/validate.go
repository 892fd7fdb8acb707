package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Paths.DebugRetentionDays < 0 {
		return errors.New("paths.debug_retention_days must be zero or positive")
	}
	if err := ensurePositiveMap(map[string]int{
		"catalog.max_entries":           c.Catalog.MaxEntries,
		"catalog.workers":               c.Catalog.Workers,
		"catalog.fetch_timeout_seconds": c.Catalog.FetchTimeoutSeconds,
		"catalog.load_timeout_seconds":  c.Catalog.LoadTimeoutSeconds,
		"catalog.cache_ttl_minutes":     c.Catalog.CacheTTLMinutes,
	}); err != nil {
		return err
	}
	switch c.Catalog.CacheBackend {
	case CacheBackendMemory, CacheBackendSQLite:
	default:
		return fmt.Errorf("catalog.cache_backend: unsupported value %q (want %q or %q)", c.Catalog.CacheBackend, CacheBackendMemory, CacheBackendSQLite)
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	for _, check := range []struct {
		key   string
		value int
	}{
		{"matching.min_candidate_score", m.MinCandidateScore},
		{"matching.min_auto_detect_score", m.MinAutoDetectScore},
		{"matching.merge_distance", m.MergeDistance},
	} {
		if check.value < 0 || check.value > 64 {
			return fmt.Errorf("%s must be between 0 and 64", check.key)
		}
	}
	if m.MinAutoDetectScore < m.MinCandidateScore {
		return errors.New("matching.min_auto_detect_score must not be lower than matching.min_candidate_score")
	}
	if m.MinAutoDetectMargin < 0 {
		return errors.New("matching.min_auto_detect_margin must not be negative")
	}
	if m.DominanceMarginBonus < 0 {
		return errors.New("matching.dominance_margin_bonus must not be negative")
	}
	if m.DominanceCount < 2 {
		return errors.New("matching.dominance_count must be at least 2")
	}
	if m.TopN <= 0 {
		return errors.New("matching.top_n must be positive")
	}
	if m.WeightAHash < 0 || m.WeightDHash < 0 || m.WeightPHash < 0 {
		return errors.New("matching hash weights must not be negative")
	}
	if m.WeightAHash+m.WeightDHash+m.WeightPHash == 0 {
		return errors.New("matching hash weights must not all be zero")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
