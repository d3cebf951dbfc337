package faceprint

import "math"

// Matcher decides whether two signatures belong to the same face.
type Matcher struct {
	// Threshold is the minimum score (exclusive) for a match, in [0,1].
	Threshold float64
}

// NewMatcher returns a Matcher with the given threshold, falling back
// to DefaultThreshold for out-of-range values.
func NewMatcher(threshold float64) Matcher {
	if threshold < 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

// Compare scores the similarity of two signatures and applies the
// threshold. For each of the three feature pairs it computes the
// Pearson correlation; undefined correlations (zero-variance vectors)
// are left out of the average, and negative correlations count as zero
// similarity rather than anti-similarity. The score is the mean of the
// remaining values, or 0 when none remain. Compare never fails:
// malformed signatures degrade to (false, 0).
func (m Matcher) Compare(a, b *Signature) (bool, float64) {
	if !a.Valid() || !b.Valid() {
		return false, 0
	}

	var sum float64
	included := 0
	for _, pair := range [3][2][]float64{
		{a.Pixels, b.Pixels},
		{a.Texture, b.Texture},
		{a.Gradient, b.Gradient},
	} {
		r := pearson(pair[0], pair[1])
		if math.IsNaN(r) {
			continue
		}
		if r < 0 {
			r = 0
		}
		if r > 1 {
			r = 1
		}
		sum += r
		included++
	}

	if included == 0 {
		return false, 0
	}
	score := sum / float64(included)
	return score > m.Threshold, score
}

// pearson returns the correlation coefficient of two equal-length
// vectors, or NaN when either side has zero variance.
func pearson(a, b []float64) float64 {
	n := float64(len(a))
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varA*varB)
}
