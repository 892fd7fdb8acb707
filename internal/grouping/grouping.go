// Package grouping merges runs of adjacent slots that show one physically
// larger item into a single detection unit.
package grouping

import (
	"fmt"
	"image"

	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/segment"
	"bazaarscan/internal/services"
)

// MaxSpan is the widest item the board can hold.
const MaxSpan = 4

// Policy controls when neighbouring slots are merged.
type Policy struct {
	// MergeDistance is the largest aHash distance between a slot and its left
	// neighbour that still counts as the same item.
	MergeDistance int
	MaxSpan       int
}

// DefaultPolicy returns the merge settings used for board screenshots.
func DefaultPolicy() Policy {
	return Policy{MergeDistance: 10, MaxSpan: MaxSpan}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MergeDistance < 0 || p.MergeDistance > fingerprint.HashBits {
		p.MergeDistance = d.MergeDistance
	}
	if p.MaxSpan <= 0 || p.MaxSpan > MaxSpan {
		p.MaxSpan = d.MaxSpan
	}
	return p
}

// Group is a contiguous run of slots treated as one item.
type Group struct {
	Start       int                     `json:"start"`
	Span        int                     `json:"span"`
	Slots       []segment.Slot          `json:"-"`
	Region      fingerprint.Region      `json:"region"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

// Indexes returns the slot indexes covered by the group.
func (g Group) Indexes() []int {
	out := make([]int, 0, len(g.Slots))
	for _, slot := range g.Slots {
		out = append(out, slot.Index)
	}
	return out
}

// Consolidate partitions slots into groups and fingerprints each merged region
// of img.
func Consolidate(img image.Image, slots []segment.Slot, policy Policy) ([]Group, error) {
	policy = policy.normalized()
	groups := make([]Group, 0, len(slots))
	for start := 0; start < len(slots); {
		span := 1
		for span < policy.MaxSpan && start+span < len(slots) {
			next := slots[start+span]
			prev := slots[start+span-1]
			if fingerprint.Distance(next.Fingerprint.AHash, prev.Fingerprint.AHash) > policy.MergeDistance {
				break
			}
			span++
		}

		members := slots[start : start+span]
		region := members[0].Region
		for _, slot := range members[1:] {
			region = region.Union(slot.Region)
		}
		fp, err := fingerprint.Compute(img, region)
		if err != nil {
			return nil, fmt.Errorf("group at slot %d: %w", members[0].Index, err)
		}
		groups = append(groups, Group{
			Start:       members[0].Index,
			Span:        span,
			Slots:       append([]segment.Slot(nil), members...),
			Region:      region,
			Fingerprint: fp,
		})
		start += span
	}
	return groups, nil
}

// AdjacentDistances returns the aHash distance between each slot and the one
// before it; entry i compares slots i and i+1.
func AdjacentDistances(slots []segment.Slot) []int {
	if len(slots) < 2 {
		return nil
	}
	out := make([]int, len(slots)-1)
	for i := 1; i < len(slots); i++ {
		out[i-1] = fingerprint.Distance(slots[i-1].Fingerprint.AHash, slots[i].Fingerprint.AHash)
	}
	return out
}

// Validate checks that groups cover slot indexes 0..n-1 exactly once, in
// order, with spans between 1 and MaxSpan.
func Validate(groups []Group, n int) error {
	next := 0
	for i, g := range groups {
		if g.Span < 1 || g.Span > MaxSpan {
			return services.Wrap(services.ErrValidation, "grouping", "validate", fmt.Sprintf("group %d has span %d", i, g.Span), nil)
		}
		if g.Start != next {
			return services.Wrap(services.ErrValidation, "grouping", "validate", fmt.Sprintf("group %d starts at %d, expected %d", i, g.Start, next), nil)
		}
		if len(g.Slots) != 0 && len(g.Slots) != g.Span {
			return services.Wrap(services.ErrValidation, "grouping", "validate", fmt.Sprintf("group %d holds %d slots for span %d", i, len(g.Slots), g.Span), nil)
		}
		next += g.Span
	}
	if next != n {
		return services.Wrap(services.ErrValidation, "grouping", "validate", fmt.Sprintf("groups cover %d of %d slots", next, n), nil)
	}
	return nil
}
