package classify

import (
	"context"
	"fmt"
	"image"
	"strings"

	"bazaarscan/internal/catalog"
	"bazaarscan/internal/contract"
	"bazaarscan/internal/fingerprint"
	"bazaarscan/internal/services"
)

// Request is one classification input.
type Request struct {
	Image image.Image
	// Regions optionally replaces band detection with known slot regions.
	Regions         []fingerprint.Region
	MatchingEnabled bool
}

// Result pairs the contract with non-contractual diagnostics.
type Result struct {
	Contract    contract.Contract `json:"contract"`
	Diagnostics *Diagnostics      `json:"diagnostics,omitempty"`
}

// Strategy produces a classification result for a request.
type Strategy interface {
	Classify(ctx context.Context, req Request) (Result, error)
}

// Outcome names a forced classification result.
type Outcome string

const (
	OutcomeDisabled        Outcome = "disabled"
	OutcomeNoMatches       Outcome = "no_matches"
	OutcomeAmbiguous       Outcome = "ambiguous"
	OutcomeClassCandidates Outcome = "class_candidates"
)

// Outcomes lists every forceable outcome.
func Outcomes() []Outcome {
	return []Outcome{OutcomeDisabled, OutcomeNoMatches, OutcomeAmbiguous, OutcomeClassCandidates}
}

// ParseOutcome validates a forced outcome name.
func ParseOutcome(value string) (Outcome, error) {
	normalized := Outcome(strings.ToLower(strings.TrimSpace(value)))
	for _, o := range Outcomes() {
		if o == normalized {
			return o, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "classify", "parse outcome", fmt.Sprintf("unknown outcome %q", value), nil)
}

// Forced returns a strategy that ignores its input and yields a fixed
// contract for outcome.
func Forced(outcome Outcome) Strategy {
	return forcedStrategy{outcome: outcome}
}

type forcedStrategy struct {
	outcome Outcome
}

func (f forcedStrategy) Classify(ctx context.Context, _ Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	marker := contract.Signal{Source: "mode", Type: "forced_outcome", Value: string(f.outcome), Weight: 1}
	switch f.outcome {
	case OutcomeDisabled:
		c := contract.Disabled("classification skipped by forced outcome")
		c.Evidence.Signals = append(c.Evidence.Signals, marker)
		contract.SortSignals(c.Evidence.Signals)
		return Result{Contract: c}, nil
	case OutcomeNoMatches:
		b := contract.NewBuilder()
		b.Signal(marker)
		return Result{Contract: b.Build()}, nil
	case OutcomeAmbiguous:
		b := contract.NewBuilder()
		b.Signal(marker)
		b.AddItem(0, 1, forcedCandidate("forced-item-a", "Forced Item A", 58))
		b.AddItem(0, 1, forcedCandidate("forced-item-b", "Forced Item B", 56))
		return Result{Contract: b.Build()}, nil
	case OutcomeClassCandidates:
		b := contract.NewBuilder()
		b.Signal(marker)
		b.AddClass("forced-class", "Forced Class", 60, "forced")
		return Result{Contract: b.Build()}, nil
	}
	return Result{}, services.Wrap(services.ErrValidation, "classify", "forced outcome", fmt.Sprintf("unknown outcome %q", f.outcome), nil)
}

func forcedCandidate(id, name string, score int) catalog.Candidate {
	return catalog.Candidate{CatalogID: id, Name: name, Score: score}
}
