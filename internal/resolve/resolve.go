// Package resolve turns ranked candidates into auto-detect decisions and
// removes matches that win too often with too little separation.
package resolve

import (
	"sort"

	"bazaarscan/internal/catalog"
)

// Policy centralizes the auto-detect and dominance thresholds.
type Policy struct {
	MinAutoDetectScore   int
	MinAutoDetectMargin  int
	DominanceCount       int
	DominanceMarginBonus int
	// CollapseAutoDetected trims an auto-detected unit to its winner. Off by
	// default: a unit with two retained candidates stays ambiguous.
	CollapseAutoDetected bool
}

// DefaultPolicy returns the thresholds tuned for board screenshots.
func DefaultPolicy() Policy {
	return Policy{
		MinAutoDetectScore:   52,
		MinAutoDetectMargin:  6,
		DominanceCount:       3,
		DominanceMarginBonus: 4,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MinAutoDetectScore <= 0 || p.MinAutoDetectScore > 64 {
		p.MinAutoDetectScore = d.MinAutoDetectScore
	}
	if p.MinAutoDetectMargin < 0 {
		p.MinAutoDetectMargin = d.MinAutoDetectMargin
	}
	if p.DominanceCount < 2 {
		p.DominanceCount = d.DominanceCount
	}
	if p.DominanceMarginBonus < 0 {
		p.DominanceMarginBonus = d.DominanceMarginBonus
	}
	return p
}

// Decision summarizes one unit's ranked candidates.
type Decision struct {
	BestID       string `json:"best_id,omitempty"`
	BestScore    int    `json:"best_score"`
	SecondScore  int    `json:"second_score"`
	Margin       int    `json:"margin"`
	HasBest      bool   `json:"has_best"`
	HasSecond    bool   `json:"has_second"`
	AutoDetected bool   `json:"auto_detected"`
	Ambiguous    bool   `json:"ambiguous"`
}

// Decide derives the decision for candidates ordered best first.
func Decide(candidates []catalog.Candidate, policy Policy) Decision {
	policy = policy.normalized()
	d := Decision{}
	if len(candidates) == 0 {
		d.Ambiguous = true
		return d
	}
	d.HasBest = true
	d.BestID = candidates[0].CatalogID
	d.BestScore = candidates[0].Score
	d.Margin = d.BestScore
	if len(candidates) > 1 {
		d.HasSecond = true
		d.SecondScore = candidates[1].Score
		d.Margin = d.BestScore - d.SecondScore
	}
	separated := !d.HasSecond || d.Margin >= policy.MinAutoDetectMargin
	d.AutoDetected = d.BestScore >= policy.MinAutoDetectScore && separated
	d.Ambiguous = !separated
	return d
}

// Unit is one detection unit: a slot group and its ranked candidates.
type Unit struct {
	SlotIndex  int                 `json:"slot_index"`
	Span       int                 `json:"span"`
	Candidates []catalog.Candidate `json:"candidates"`
	Decision   Decision            `json:"decision"`
}

// Suppression records one dominant candidate removed from a unit.
type Suppression struct {
	CatalogID string `json:"catalog_id"`
	SlotIndex int    `json:"slot_index"`
	Margin    int    `json:"margin"`
	BestCount int    `json:"best_count"`
}

// Outcome is the resolved state of every unit in a request.
type Outcome struct {
	Units        []Unit        `json:"units"`
	Suppressions []Suppression `json:"suppressions,omitempty"`
	Collapsed    []int         `json:"collapsed,omitempty"`
}

// Resolve decides every unit, suppresses dominant matches, and optionally
// collapses auto-detected units to their winner. The input is not modified.
func Resolve(units []Unit, policy Policy) Outcome {
	policy = policy.normalized()
	decided := make([]Unit, len(units))
	for i, u := range units {
		decided[i] = Unit{
			SlotIndex:  u.SlotIndex,
			Span:       u.Span,
			Candidates: append([]catalog.Candidate(nil), u.Candidates...),
			Decision:   Decide(u.Candidates, policy),
		}
	}

	out := Outcome{}
	out.Units, out.Suppressions = SuppressDominant(decided, policy)
	if policy.CollapseAutoDetected {
		for i := range out.Units {
			u := &out.Units[i]
			if u.Decision.AutoDetected && len(u.Candidates) > 1 {
				u.Candidates = u.Candidates[:1]
				out.Collapsed = append(out.Collapsed, u.SlotIndex)
			}
		}
	}
	return out
}

// SuppressDominant counts how many units share each best catalog ID. For IDs
// at or above the dominance count, the candidate is removed from every unit
// it wins unless that unit's margin exceeds MinAutoDetectMargin plus
// DominanceMarginBonus. Offenders are judged on the decisions passed in, so a
// removal never cascades into the next-best ID. Affected units get fresh
// decisions.
func SuppressDominant(units []Unit, policy Policy) ([]Unit, []Suppression) {
	policy = policy.normalized()
	counts := make(map[string]int)
	for _, u := range units {
		if u.Decision.HasBest {
			counts[u.Decision.BestID]++
		}
	}
	dominant := make([]string, 0)
	for id, n := range counts {
		if n >= policy.DominanceCount {
			dominant = append(dominant, id)
		}
	}
	sort.Strings(dominant)

	out := make([]Unit, len(units))
	copy(out, units)
	if len(dominant) == 0 {
		return out, nil
	}

	bound := policy.MinAutoDetectMargin + policy.DominanceMarginBonus
	var suppressed []Suppression
	for _, id := range dominant {
		for i := range out {
			tallied := units[i].Decision
			if !tallied.HasBest || tallied.BestID != id || tallied.Margin > bound {
				continue
			}
			u := &out[i]
			suppressed = append(suppressed, Suppression{
				CatalogID: id,
				SlotIndex: u.SlotIndex,
				Margin:    tallied.Margin,
				BestCount: counts[id],
			})
			u.Candidates = without(u.Candidates, id)
			u.Decision = Decide(u.Candidates, policy)
		}
	}
	sort.SliceStable(suppressed, func(i, j int) bool {
		if suppressed[i].SlotIndex != suppressed[j].SlotIndex {
			return suppressed[i].SlotIndex < suppressed[j].SlotIndex
		}
		return suppressed[i].CatalogID < suppressed[j].CatalogID
	})
	return out, suppressed
}

func without(candidates []catalog.Candidate, id string) []catalog.Candidate {
	out := make([]catalog.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.CatalogID != id {
			out = append(out, c)
		}
	}
	return out
}
