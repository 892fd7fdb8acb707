package fingerprint

import "math"

// MaxScore is the similarity of two identical fingerprints.
const MaxScore = HashBits

// Weights sets how much each hash family contributes to the composite score.
// pHash is weighted double by default because it separates low-detail icon
// crops better than the other two.
type Weights struct {
	AHash int
	DHash int
	PHash int
}

// DefaultWeights returns the 1/1/2 weighting.
func DefaultWeights() Weights {
	return Weights{AHash: 1, DHash: 1, PHash: 2}
}

func (w Weights) normalized() Weights {
	if w.AHash < 0 || w.DHash < 0 || w.PHash < 0 || w.AHash+w.DHash+w.PHash == 0 {
		return DefaultWeights()
	}
	return w
}

// Score returns 64 minus the weighted mean distance, rounded half to even and
// clamped to [0,64].
func (w Weights) Score(a, b Fingerprint) int {
	w = w.normalized()
	d := Compare(a, b)
	total := w.AHash*d.AHash + w.DHash*d.DHash + w.PHash*d.PHash
	mean := float64(total) / float64(w.AHash+w.DHash+w.PHash)
	score := MaxScore - int(math.RoundToEven(mean))
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	}
	return score
}

// Score scores a fingerprint pair with DefaultWeights.
func Score(a, b Fingerprint) int {
	return DefaultWeights().Score(a, b)
}
