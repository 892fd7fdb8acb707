package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/logging"
	"bazaarscan/internal/services"
)

// LoaderPolicy bounds how much work one catalog load may do.
type LoaderPolicy struct {
	MaxEntries   int
	Workers      int
	FetchTimeout time.Duration
	LoadTimeout  time.Duration
}

// DefaultLoaderPolicy returns the bounds used when nothing is configured.
func DefaultLoaderPolicy() LoaderPolicy {
	return LoaderPolicy{
		MaxEntries:   2000,
		Workers:      6,
		FetchTimeout: defaultFetchTimeout,
		LoadTimeout:  45 * time.Second,
	}
}

func (p LoaderPolicy) normalized() LoaderPolicy {
	d := DefaultLoaderPolicy()
	if p.MaxEntries <= 0 {
		p.MaxEntries = d.MaxEntries
	}
	if p.Workers <= 0 {
		p.Workers = d.Workers
	}
	if p.FetchTimeout <= 0 {
		p.FetchTimeout = d.FetchTimeout
	}
	if p.LoadTimeout < 0 {
		p.LoadTimeout = d.LoadTimeout
	}
	return p
}

// FetchResult is the outcome of resolving one entry.
type FetchResult struct {
	Entry       Entry                   `json:"entry"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Cached      bool                    `json:"cached"`
	Err         error                   `json:"-"`
}

// OK reports whether the entry produced a usable fingerprint.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// LoadReport lists one FetchResult per considered entry, in input order.
type LoadReport struct {
	Results   []FetchResult
	Truncated int
	Elapsed   time.Duration
}

// References returns the successfully resolved entries.
func (r LoadReport) References() []Reference {
	refs := make([]Reference, 0, len(r.Results))
	for _, res := range r.Results {
		if res.OK() {
			refs = append(refs, Reference{Entry: res.Entry, Fingerprint: res.Fingerprint})
		}
	}
	return refs
}

// Failures returns the entries that could not be resolved.
func (r LoadReport) Failures() []FetchResult {
	var out []FetchResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// CacheHits counts results served from the cache.
func (r LoadReport) CacheHits() int {
	hits := 0
	for _, res := range r.Results {
		if res.Cached {
			hits++
		}
	}
	return hits
}

// Loader resolves catalog entries to fingerprinted references.
type Loader struct {
	fetcher Fetcher
	cache   Cache
	policy  LoaderPolicy
	logger  *slog.Logger
}

// NewLoader wires a loader. A nil cache disables caching.
func NewLoader(fetcher Fetcher, cache Cache, policy LoaderPolicy, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cache == nil {
		cache = nopCache{}
	}
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		policy:  policy.normalized(),
		logger:  logging.NewComponentLogger(logger, "catalog"),
	}
}

// Load resolves entries with a bounded worker pool. Failed entries are
// reported, never retried, and never abort the batch. When ctx or the load
// budget expires, outstanding fetches are cancelled and unstarted entries are
// reported with the context error.
func (l *Loader) Load(ctx context.Context, entries []Entry) LoadReport {
	start := time.Now()
	report := LoadReport{}
	if len(entries) > l.policy.MaxEntries {
		report.Truncated = len(entries) - l.policy.MaxEntries
		entries = entries[:l.policy.MaxEntries]
	}
	if l.policy.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.policy.LoadTimeout)
		defer cancel()
	}
	logger := logging.WithContext(ctx, l.logger)

	l.cache.Expire()
	results := make([]FetchResult, len(entries))
	started := make([]bool, len(entries))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(l.policy.Workers, len(entries)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = l.resolve(ctx, entries[idx])
			}
		}()
	}

feed:
	for idx := range entries {
		select {
		case jobs <- idx:
			started[idx] = true
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for idx, ok := range started {
		if !ok {
			results[idx] = FetchResult{
				Entry: entries[idx],
				Err:   services.Wrap(services.ErrCatalogFetchFailed, "catalog", "fetch", entries[idx].ID, ctx.Err()),
			}
		}
	}

	report.Results = results
	report.Elapsed = time.Since(start)
	failures := report.Failures()
	for _, failure := range failures {
		logger.Debug("catalog entry skipped",
			logging.String("catalog_id", failure.Entry.ID),
			logging.String("image_url", failure.Entry.ImageURL),
			logging.Error(failure.Err))
	}
	if len(failures) > 0 {
		logging.WarnWithContext(logger, "catalog entries could not be fingerprinted", "catalog_fetch_degraded",
			logging.Int("failed", len(failures)),
			logging.Int("total", len(results)),
			logging.String(logging.FieldErrorHint, "check network access to the catalog image host"),
			logging.String(logging.FieldImpact, "skipped items cannot be matched in this request"),
		)
	}
	attrs := logging.DecisionAttrs("catalog_load", fmt.Sprintf("%d/%d", len(results)-len(failures), len(results)), "resolved references")
	attrs = append(attrs,
		logging.Int("cache_hits", report.CacheHits()),
		logging.Int("truncated", report.Truncated),
		logging.Duration("elapsed", report.Elapsed),
	)
	logger.Debug("catalog loaded", logging.Args(attrs...)...)
	return report
}

func (l *Loader) resolve(ctx context.Context, entry Entry) FetchResult {
	result := FetchResult{Entry: entry}
	key := entry.CacheKey()
	if fp, ok := l.cache.Get(key); ok {
		result.Fingerprint = fp
		result.Cached = true
		return result
	}
	if err := ctx.Err(); err != nil {
		result.Err = services.Wrap(services.ErrCatalogFetchFailed, "catalog", "fetch", entry.ID, err)
		return result
	}
	if l.fetcher == nil {
		result.Err = services.Wrap(services.ErrCatalogFetchFailed, "catalog", "fetch", "no fetcher configured", nil)
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, l.policy.FetchTimeout)
	defer cancel()
	img, err := l.fetcher.Fetch(fetchCtx, entry.ImageURL)
	if err != nil {
		result.Err = services.Wrap(services.ErrCatalogFetchFailed, "catalog", "fetch", entry.ID, err)
		return result
	}
	fp, err := fingerprint.ComputeImage(img)
	if err != nil {
		result.Err = services.Wrap(services.ErrCatalogFetchFailed, "catalog", "hash", entry.ID, err)
		return result
	}
	l.cache.Set(key, fp)
	result.Fingerprint = fp
	return result
}

type nopCache struct{}

func (nopCache) Get(string) (fingerprint.Fingerprint, bool) { return fingerprint.Fingerprint{}, false }
func (nopCache) Set(string, fingerprint.Fingerprint)        {}
func (nopCache) Expire() int                                { return 0 }
