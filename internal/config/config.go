package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
	DebugDir string `toml:"debug_dir"`

	// DebugRetentionDays prunes crop directories older than this many days. Zero keeps everything.
	DebugRetentionDays int `toml:"debug_retention_days"`
}

// Catalog contains configuration for the reference catalog and its fingerprint cache.
type Catalog struct {
	ManifestPath        string `toml:"manifest_path"`
	DatabasePath        string `toml:"database_path"`
	MaxEntries          int    `toml:"max_entries"`
	Workers             int    `toml:"workers"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	LoadTimeoutSeconds  int    `toml:"load_timeout_seconds"`
	CacheTTLMinutes     int    `toml:"cache_ttl_minutes"`
	CacheBackend        string `toml:"cache_backend"`
	UserAgent           string `toml:"user_agent"`
	MaxImageBytes       int64  `toml:"max_image_bytes"`
}

// Matching contains the scoring and disambiguation thresholds.
type Matching struct {
	Enabled              bool `toml:"enabled"`
	MergeDistance        int  `toml:"merge_distance"`
	MinCandidateScore    int  `toml:"min_candidate_score"`
	MinAutoDetectScore   int  `toml:"min_auto_detect_score"`
	MinAutoDetectMargin  int  `toml:"min_auto_detect_margin"`
	DominanceCount       int  `toml:"dominance_count"`
	DominanceMarginBonus int  `toml:"dominance_margin_bonus"`
	TopN                 int  `toml:"top_n"`
	CollapseAutoDetected bool `toml:"collapse_auto_detected"`
	WeightAHash          int  `toml:"weight_ahash"`
	WeightDHash          int  `toml:"weight_dhash"`
	WeightPHash          int  `toml:"weight_phash"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bazaarscan.
//
// Configuration sections by subsystem:
//   - Paths: cache, log, and debug crop directories
//   - Catalog: reference sources, fetch limits, fingerprint cache
//   - Matching: merge, candidate, auto-detect, and dominance thresholds
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Catalog  Catalog  `toml:"catalog"`
	Matching Matching `toml:"matching"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bazaarscan/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bazaarscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories. The debug directory
// is created lazily by whoever writes crops into it.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FetchTimeout returns the per-image fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Catalog.FetchTimeoutSeconds) * time.Second
}

// LoadTimeout returns the overall catalog hashing budget for one request.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.Catalog.LoadTimeoutSeconds) * time.Second
}

// CacheTTL returns the lifetime of cached catalog fingerprints.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Catalog.CacheTTLMinutes) * time.Minute
}

// CacheDatabasePath returns the sqlite file backing the persistent fingerprint cache.
func (c *Config) CacheDatabasePath() string {
	return filepath.Join(c.Paths.CacheDir, "fingerprints.db")
}

// LockPath returns the lock file guarding catalog maintenance commands.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.CacheDir, "catalog.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
