package catalog

import (
	"sort"

	"bazaarscan/internal/fingerprint"
)

// Candidate is one scored catalog match for a detection unit.
type Candidate struct {
	CatalogID string `json:"catalog_id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
}

// MatchPolicy controls candidate retention.
type MatchPolicy struct {
	MinCandidateScore int
	TopN              int
	Weights           fingerprint.Weights
}

// DefaultMatchPolicy keeps the five best references scoring at least 40.
func DefaultMatchPolicy() MatchPolicy {
	return MatchPolicy{
		MinCandidateScore: 40,
		TopN:              5,
		Weights:           fingerprint.DefaultWeights(),
	}
}

func (p MatchPolicy) normalized() MatchPolicy {
	d := DefaultMatchPolicy()
	if p.MinCandidateScore < 0 || p.MinCandidateScore > fingerprint.MaxScore {
		p.MinCandidateScore = d.MinCandidateScore
	}
	if p.TopN <= 0 {
		p.TopN = d.TopN
	}
	if p.Weights == (fingerprint.Weights{}) {
		p.Weights = d.Weights
	}
	return p
}

// Matcher ranks references against query fingerprints.
type Matcher struct {
	policy MatchPolicy
}

// NewMatcher returns a matcher using policy.
func NewMatcher(policy MatchPolicy) *Matcher {
	return &Matcher{policy: policy.normalized()}
}

// Policy returns the effective policy.
func (m *Matcher) Policy() MatchPolicy {
	return m.policy
}

// Match scores fp against every reference and returns the retained
// candidates, best first. Equal scores are ordered by catalog ID.
func (m *Matcher) Match(fp fingerprint.Fingerprint, refs []Reference) []Candidate {
	candidates := make([]Candidate, 0, len(refs))
	for _, ref := range refs {
		score := m.policy.Weights.Score(fp, ref.Fingerprint)
		if score < m.policy.MinCandidateScore {
			continue
		}
		candidates = append(candidates, Candidate{CatalogID: ref.ID, Name: ref.Name, Score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].CatalogID < candidates[j].CatalogID
	})
	if len(candidates) > m.policy.TopN {
		candidates = candidates[:m.policy.TopN]
	}
	return candidates
}
