package contract

import (
	"encoding/json"
	"math"
)

// Version is the contract schema version.
const Version = 1

// Status is the global classification outcome.
type Status string

const (
	StatusDisabled  Status = "disabled"
	StatusNoMatches Status = "no_matches"
	StatusMatches   Status = "matches"
	StatusAmbiguous Status = "ambiguous"
)

// Candidate kinds and sources.
const (
	KindItem        = "item"
	KindClass       = "class"
	SourceImageHash = "image_hash"
)

// Candidate is one scored match in the contract.
type Candidate struct {
	Kind       string        `json:"kind"`
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Confidence float64       `json:"confidence"`
	Source     string        `json:"source"`
	SlotIndex  *int          `json:"slot_index,omitempty"`
	Meta       CandidateMeta `json:"meta"`
}

// CandidateMeta carries the raw score behind a candidate.
type CandidateMeta struct {
	Score     int `json:"score"`
	GroupSpan int `json:"group_span,omitempty"`
}

// Signal is one evidence record.
type Signal struct {
	Source string         `json:"source"`
	Type   string         `json:"type"`
	Value  string         `json:"value"`
	Weight float64        `json:"weight"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Candidates groups item and class candidates.
type Candidates struct {
	Items []Candidate `json:"items"`
	Class []Candidate `json:"class"`
}

// Evidence is the ordered evidence trail.
type Evidence struct {
	Signals []Signal `json:"signals"`
	Notes   []string `json:"notes"`
}

// Contract is the classification output.
type Contract struct {
	Version    int        `json:"version"`
	Status     Status     `json:"status"`
	Candidates Candidates `json:"candidates"`
	Evidence   Evidence   `json:"evidence"`
}

// MarshalJSON guarantees empty lists serialize as [] rather than null.
func (c Contract) MarshalJSON() ([]byte, error) {
	type plain Contract
	out := plain(c)
	if out.Candidates.Items == nil {
		out.Candidates.Items = []Candidate{}
	}
	if out.Candidates.Class == nil {
		out.Candidates.Class = []Candidate{}
	}
	if out.Evidence.Signals == nil {
		out.Evidence.Signals = []Signal{}
	}
	if out.Evidence.Notes == nil {
		out.Evidence.Notes = []string{}
	}
	return json.Marshal(out)
}

// Confidence maps a 0..64 score onto 0..1, rounded to four decimals.
func Confidence(score int) float64 {
	return math.Round(float64(score)/64*10000) / 10000
}

// DeriveStatus computes the status from candidate shape. Item candidates are
// grouped into units by slot index; class candidates form one unit.
func DeriveStatus(items, class []Candidate) Status {
	if len(items)+len(class) == 0 {
		return StatusNoMatches
	}
	if len(class) > 1 {
		return StatusAmbiguous
	}
	perUnit := make(map[int]int, len(items))
	for _, c := range items {
		slot := -1
		if c.SlotIndex != nil {
			slot = *c.SlotIndex
		}
		perUnit[slot]++
		if perUnit[slot] > 1 {
			return StatusAmbiguous
		}
	}
	return StatusMatches
}

// Disabled returns the contract for an intentionally skipped classification.
func Disabled(reason string) Contract {
	b := NewBuilder()
	b.Signal(Signal{Source: "mode", Type: "matching", Value: "disabled", Weight: 1})
	if reason != "" {
		b.Note(reason)
	}
	c := b.Build()
	c.Status = StatusDisabled
	return c
}
