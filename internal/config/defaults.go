package config

const (
	defaultCacheDir             = "~/.cache/bazaarscan"
	defaultLogDir               = "~/.local/share/bazaarscan/logs"
	defaultDebugDir             = "~/.local/share/bazaarscan/debug"
	defaultDebugRetentionDays   = 7
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultMaxEntries           = 2000
	defaultWorkers              = 6
	defaultFetchTimeoutSeconds  = 8
	defaultLoadTimeoutSeconds   = 45
	defaultCacheTTLMinutes      = 360
	defaultCacheBackend         = CacheBackendMemory
	defaultUserAgent            = "Mozilla/5.0 (bazaarscan)"
	defaultMaxImageBytes        = 8 << 20
	defaultMergeDistance        = 10
	defaultMinCandidateScore    = 40
	defaultMinAutoDetectScore   = 52
	defaultMinAutoDetectMargin  = 6
	defaultDominanceCount       = 3
	defaultDominanceMarginBonus = 4
	defaultTopN                 = 5
)

// Cache backends accepted by catalog.cache_backend.
const (
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:           defaultCacheDir,
			LogDir:             defaultLogDir,
			DebugDir:           defaultDebugDir,
			DebugRetentionDays: defaultDebugRetentionDays,
		},
		Catalog: Catalog{
			MaxEntries:          defaultMaxEntries,
			Workers:             defaultWorkers,
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
			LoadTimeoutSeconds:  defaultLoadTimeoutSeconds,
			CacheTTLMinutes:     defaultCacheTTLMinutes,
			CacheBackend:        defaultCacheBackend,
			UserAgent:           defaultUserAgent,
			MaxImageBytes:       defaultMaxImageBytes,
		},
		Matching: Matching{
			Enabled:              true,
			MergeDistance:        defaultMergeDistance,
			MinCandidateScore:    defaultMinCandidateScore,
			MinAutoDetectScore:   defaultMinAutoDetectScore,
			MinAutoDetectMargin:  defaultMinAutoDetectMargin,
			DominanceCount:       defaultDominanceCount,
			DominanceMarginBonus: defaultDominanceMarginBonus,
			TopN:                 defaultTopN,
			CollapseAutoDetected: false,
			WeightAHash:          1,
			WeightDHash:          1,
			WeightPHash:          2,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
