package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"bazaarscan/internal/catalog"
	"bazaarscan/internal/config"
	"bazaarscan/internal/contract"
	"bazaarscan/internal/grouping"
	"bazaarscan/internal/logging"
	"bazaarscan/internal/resolve"
	"bazaarscan/internal/segment"
	"bazaarscan/internal/services"
)

// Engine is the production classification strategy.
type Engine struct {
	source   catalog.Source
	loader   *catalog.Loader
	matcher  *catalog.Matcher
	layout   segment.Layout
	grouping grouping.Policy
	resolve  resolve.Policy
	logger   *slog.Logger
}

// Option customises the Engine.
type Option func(*Engine)

// WithSource sets the catalog source.
func WithSource(src catalog.Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.source = src
		}
	}
}

// WithLoader overrides the catalog loader (fetcher, cache, bounds).
func WithLoader(loader *catalog.Loader) Option {
	return func(e *Engine) {
		if loader != nil {
			e.loader = loader
		}
	}
}

// WithLayout overrides the segmentation geometry.
func WithLayout(layout segment.Layout) Option {
	return func(e *Engine) {
		e.layout = layout
	}
}

// NewEngine builds an engine whose thresholds come from cfg. Without a
// WithLoader option the engine fetches over HTTP and caches in memory.
func NewEngine(cfg *config.Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	e := &Engine{
		source:   catalog.StaticSource(nil),
		matcher:  catalog.NewMatcher(MatchPolicy(cfg)),
		layout:   segment.DefaultLayout(),
		grouping: GroupingPolicy(cfg),
		resolve:  ResolvePolicy(cfg),
		logger:   logging.NewComponentLogger(logger, "classify"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loader == nil {
		e.loader = catalog.NewLoader(NewFetcher(cfg), catalog.NewMemoryCache(cfg.CacheTTL()), LoaderPolicy(cfg), logger)
	}
	return e
}

// Classify implements Strategy.
func (e *Engine) Classify(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, e.logger)
	requestID, _ := services.RequestIDFromContext(ctx)

	if !req.MatchingEnabled {
		logger.Debug("classification skipped", logging.Args(logging.DecisionAttrs("matching", "disabled", "matching disabled for request")...)...)
		return Result{Contract: contract.Disabled("catalog matching disabled for this request")}, nil
	}

	diag := &Diagnostics{RequestID: requestID, Anchor: -1}
	var (
		slots []segment.Slot
		err   error
	)
	if len(req.Regions) > 0 {
		slots, err = segment.FromRegions(req.Image, req.Regions)
	} else {
		var analysis segment.Analysis
		analysis, err = segment.Analyze(req.Image, e.layout)
		slots = analysis.Slots
		diag.Anchor = analysis.Anchor
	}
	if err != nil {
		return Result{}, err
	}
	diag.Slots = slots
	diag.AdjacentDistances = grouping.AdjacentDistances(slots)

	groups, err := grouping.Consolidate(req.Image, slots, e.grouping)
	if err != nil {
		return Result{}, err
	}
	diag.Groups = groups

	refs, stats, err := e.references(ctx)
	if err != nil {
		return Result{}, err
	}
	diag.Catalog = stats

	units := make([]resolve.Unit, len(groups))
	for i, g := range groups {
		units[i] = resolve.Unit{SlotIndex: g.Start, Span: g.Span, Candidates: e.matcher.Match(g.Fingerprint, refs)}
	}
	outcome := resolve.Resolve(units, e.resolve)
	diag.Units = outcome.Units

	c := e.buildContract(groups, stats, outcome)
	logger.Info("classification complete",
		logging.String("status", string(c.Status)),
		logging.Int("groups", len(groups)),
		logging.Int("item_candidates", len(c.Candidates.Items)),
		logging.Int("references", stats.References),
		logging.Duration("elapsed", time.Since(start)),
	)
	for _, u := range outcome.Units {
		attrs := logging.DecisionAttrs("group_match", decisionResult(u.Decision), fmt.Sprintf("best=%d second=%d margin=%d", u.Decision.BestScore, u.Decision.SecondScore, u.Decision.Margin))
		attrs = append(attrs, logging.Int("slot_index", u.SlotIndex), logging.Int("span", u.Span), logging.String("best_id", u.Decision.BestID))
		logger.Debug("group resolved", logging.Args(attrs...)...)
	}
	return Result{Contract: c, Diagnostics: diag}, nil
}

// references lists the whole catalog and keeps item entries. The loader caps
// the items at its MaxEntries and reports what it dropped as Truncated.
func (e *Engine) references(ctx context.Context) ([]catalog.Reference, CatalogStats, error) {
	entries, err := e.source.List(ctx, 0)
	if err != nil {
		if !errors.Is(err, services.ErrCatalogQueryFailed) {
			err = services.Wrap(services.ErrCatalogQueryFailed, "classify", "list catalog", "", err)
		}
		return nil, CatalogStats{}, err
	}
	items := catalog.FilterItems(entries)
	report := e.loader.Load(ctx, items)
	refs := report.References()
	return refs, CatalogStats{
		Listed:     len(entries),
		Considered: len(report.Results),
		References: len(refs),
		Failed:     len(report.Failures()),
		CacheHits:  report.CacheHits(),
		Truncated:  report.Truncated,
		Elapsed:    report.Elapsed,
	}, nil
}

func (e *Engine) buildContract(groups []grouping.Group, stats CatalogStats, outcome resolve.Outcome) contract.Contract {
	b := contract.NewBuilder()
	b.Signal(contract.Signal{Source: "mode", Type: "matching", Value: "enabled", Weight: 1})
	b.Signal(contract.Signal{
		Source: "catalog",
		Type:   "references",
		Value:  strconv.Itoa(stats.References),
		Weight: 1,
		Meta:   map[string]any{"considered": stats.Considered, "failed": stats.Failed},
	})
	if stats.References == 0 {
		b.Note("catalog has no usable references")
	}
	if stats.Failed > 0 {
		b.Note("%d catalog entries could not be fingerprinted", stats.Failed)
	}
	if stats.Truncated > 0 {
		b.Note("catalog truncated by %d entries", stats.Truncated)
	}

	for _, g := range groups {
		b.SlotSignal("grouping", "group", fmt.Sprintf("span=%d", g.Span), 1, g.Start, nil)
	}
	for _, s := range outcome.Suppressions {
		b.SlotSignal("resolver", "dominance_suppressed", s.CatalogID, 1, s.SlotIndex, map[string]any{"margin": s.Margin, "best_count": s.BestCount})
	}
	for _, slot := range outcome.Collapsed {
		b.SlotSignal("resolver", "collapsed", "auto_detected", 1, slot, nil)
	}
	for _, u := range outcome.Units {
		if u.Decision.HasBest {
			b.SlotSignal("resolver", "decision", decisionResult(u.Decision), contract.Confidence(u.Decision.BestScore), u.SlotIndex,
				map[string]any{"best_id": u.Decision.BestID, "margin": u.Decision.Margin})
		}
		for _, c := range u.Candidates {
			b.AddItem(u.SlotIndex, u.Span, c)
			b.SlotSignal(contract.SourceImageHash, "candidate", c.CatalogID, contract.Confidence(c.Score), u.SlotIndex, map[string]any{"score": c.Score})
		}
	}
	return b.Build()
}

func decisionResult(d resolve.Decision) string {
	switch {
	case !d.HasBest:
		return "none"
	case d.AutoDetected:
		return "auto_detected"
	case d.Ambiguous:
		return "ambiguous"
	default:
		return "low_confidence"
	}
}
