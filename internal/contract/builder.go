package contract

import (
	"fmt"
	"sort"

	"bazaarscan/internal/catalog"
)

// Builder accumulates candidates and evidence for one request. It is not safe
// for concurrent use.
type Builder struct {
	items   []Candidate
	class   []Candidate
	signals []Signal
	notes   []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddItem records an item candidate for the unit starting at slotIndex.
func (b *Builder) AddItem(slotIndex, span int, c catalog.Candidate) {
	slot := slotIndex
	b.items = append(b.items, Candidate{
		Kind:       KindItem,
		ID:         c.CatalogID,
		Label:      c.Name,
		Confidence: Confidence(c.Score),
		Source:     SourceImageHash,
		SlotIndex:  &slot,
		Meta:       CandidateMeta{Score: c.Score, GroupSpan: span},
	})
}

// AddClass records a class candidate.
func (b *Builder) AddClass(id, label string, score int, source string) {
	b.class = append(b.class, Candidate{
		Kind:       KindClass,
		ID:         id,
		Label:      label,
		Confidence: Confidence(score),
		Source:     source,
		Meta:       CandidateMeta{Score: score},
	})
}

// Signal records an evidence signal.
func (b *Builder) Signal(s Signal) {
	b.signals = append(b.signals, s)
}

// SlotSignal records an evidence signal tied to a slot position.
func (b *Builder) SlotSignal(source, typ, value string, weight float64, slotIndex int, meta map[string]any) {
	m := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		m[k] = v
	}
	m["slot_index"] = slotIndex
	b.signals = append(b.signals, Signal{Source: source, Type: typ, Value: value, Weight: weight, Meta: m})
}

// Note records a free-form note.
func (b *Builder) Note(format string, args ...any) {
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	b.notes = append(b.notes, format)
}

// Build returns the contract with derived status and canonical evidence.
func (b *Builder) Build() Contract {
	items := append([]Candidate{}, b.items...)
	sort.SliceStable(items, func(i, j int) bool {
		return slotOf(items[i]) < slotOf(items[j])
	})
	class := append([]Candidate{}, b.class...)

	signals := append([]Signal{}, b.signals...)
	SortSignals(signals)

	notes := append([]string{}, b.notes...)
	sort.Strings(notes)
	notes = dedupe(notes)

	return Contract{
		Version:    Version,
		Status:     DeriveStatus(items, class),
		Candidates: Candidates{Items: items, Class: class},
		Evidence:   Evidence{Signals: signals, Notes: notes},
	}
}

// SortSignals orders signals by source, type, slot position, value, then
// weight. Signals without a slot position sort before positioned ones.
func SortSignals(signals []Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if sa, sb := signalSlot(a), signalSlot(b); sa != sb {
			return sa < sb
		}
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		return a.Weight < b.Weight
	})
}

func signalSlot(s Signal) int {
	switch v := s.Meta["slot_index"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return -1
}

func slotOf(c Candidate) int {
	if c.SlotIndex == nil {
		return -1
	}
	return *c.SlotIndex
}

func dedupe(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
