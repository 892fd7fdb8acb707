package classify

import (
	"bazaarscan/internal/catalog"
	"bazaarscan/internal/config"
	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/grouping"
	"bazaarscan/internal/resolve"
)

// MatchPolicy maps configuration onto candidate retention.
func MatchPolicy(cfg *config.Config) catalog.MatchPolicy {
	return catalog.MatchPolicy{
		MinCandidateScore: cfg.Matching.MinCandidateScore,
		TopN:              cfg.Matching.TopN,
		Weights: fingerprint.Weights{
			AHash: cfg.Matching.WeightAHash,
			DHash: cfg.Matching.WeightDHash,
			PHash: cfg.Matching.WeightPHash,
		},
	}
}

// GroupingPolicy maps configuration onto slot merging.
func GroupingPolicy(cfg *config.Config) grouping.Policy {
	return grouping.Policy{MergeDistance: cfg.Matching.MergeDistance, MaxSpan: grouping.MaxSpan}
}

// ResolvePolicy maps configuration onto auto-detect and dominance thresholds.
func ResolvePolicy(cfg *config.Config) resolve.Policy {
	return resolve.Policy{
		MinAutoDetectScore:   cfg.Matching.MinAutoDetectScore,
		MinAutoDetectMargin:  cfg.Matching.MinAutoDetectMargin,
		DominanceCount:       cfg.Matching.DominanceCount,
		DominanceMarginBonus: cfg.Matching.DominanceMarginBonus,
		CollapseAutoDetected: cfg.Matching.CollapseAutoDetected,
	}
}

// LoaderPolicy maps configuration onto catalog load bounds.
func LoaderPolicy(cfg *config.Config) catalog.LoaderPolicy {
	return catalog.LoaderPolicy{
		MaxEntries:   cfg.Catalog.MaxEntries,
		Workers:      cfg.Catalog.Workers,
		FetchTimeout: cfg.FetchTimeout(),
		LoadTimeout:  cfg.LoadTimeout(),
	}
}

// NewFetcher builds the reference image fetcher from configuration.
func NewFetcher(cfg *config.Config) *catalog.HTTPFetcher {
	return catalog.NewHTTPFetcher(
		catalog.WithUserAgent(cfg.Catalog.UserAgent),
		catalog.WithMaxImageBytes(cfg.Catalog.MaxImageBytes),
	)
}
