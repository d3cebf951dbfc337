package faceprint

const (
	// Side is the edge length every face is normalized to before
	// feature extraction.
	Side = 200
	// PixelLen is the length of the flattened pixel vector.
	PixelLen = Side * Side
	// HistLen is the number of bins in the texture and gradient
	// histograms.
	HistLen = 256
)

// DefaultThreshold is the similarity score above which two signatures
// are considered the same face.
const DefaultThreshold = 0.35

// Signature is the three-part numeric fingerprint of a single face.
// All three vectors are always present at their fixed lengths;
// signatures are immutable once produced.
type Signature struct {
	Pixels   []float64 // PixelLen values, row-major equalized intensities in [0,1]
	Texture  []float64 // HistLen-bin texture code histogram, sums to 1 unless degenerate
	Gradient []float64 // HistLen-bin gradient magnitude histogram, sums to 1 unless degenerate
}

// Valid reports whether all three vectors have their fixed lengths.
func (s *Signature) Valid() bool {
	return s != nil &&
		len(s.Pixels) == PixelLen &&
		len(s.Texture) == HistLen &&
		len(s.Gradient) == HistLen
}
