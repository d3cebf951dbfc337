package faceprint

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Extract converts a face-region bitmap into a Signature. The bitmap
// is resized to Side×Side, converted to grayscale and
// histogram-equalized; the three feature vectors are then derived from
// the equalized image. Extract is pure and total: it never fails on a
// decodable bitmap, and degenerate sub-features come back as
// zero-filled vectors of the correct length.
func Extract(img image.Image) *Signature {
	eq := normalize(img)

	pixels := make([]float64, PixelLen)
	for i, v := range eq {
		pixels[i] = float64(v) / 255.0
	}

	return &Signature{
		Pixels:   pixels,
		Texture:  textureHistogram(eq),
		Gradient: gradientHistogram(eq),
	}
}

// normalize produces the Side×Side equalized grayscale image as a
// row-major intensity buffer of length PixelLen.
func normalize(img image.Image) []uint8 {
	if img == nil || img.Bounds().Empty() {
		return make([]uint8, PixelLen)
	}
	resized := resizeImage(img, Side, Side)
	return equalize(toGrayscale(resized))
}

// resizeImage scales an image to the specified dimensions.
func resizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// toGrayscale converts an RGBA image to row-major 8-bit intensities.
func toGrayscale(img *image.RGBA) []uint8 {
	bounds := img.Bounds()
	out := make([]uint8, bounds.Dx()*bounds.Dy())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma formula.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			out[i] = uint8(math.Round(luma))
			i++
		}
	}
	return out
}

// equalize spreads the intensity distribution across [0,255] using the
// cumulative histogram. The first occupied bin maps to 0 and its mass
// is excluded from the scale; constant images pass through unchanged.
func equalize(px []uint8) []uint8 {
	var hist [256]int
	for _, v := range px {
		hist[v]++
	}
	total := len(px)

	first := 0
	for first < 256 && hist[first] == 0 {
		first++
	}
	out := make([]uint8, len(px))
	if first == 256 || hist[first] == total {
		copy(out, px)
		return out
	}

	scale := 255.0 / float64(total-hist[first])
	var lut [256]uint8
	sum := 0
	for i := first + 1; i < 256; i++ {
		sum += hist[i]
		v := math.Round(float64(sum) * scale)
		if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
	}
	for i, p := range px {
		out[i] = lut[p]
	}
	return out
}

// textureHistogram accumulates the per-pixel texture code over every
// interior pixel (1-pixel border excluded) and normalizes the
// HistLen-bin histogram to sum to 1.
//
// The code samples only the three neighbors in the column left of the
// pixel; each comparison bit is replicated across the bit positions of
// its row offset (224 / 24 / 7). Stored galleries depend on this exact
// encoding, so it must not be changed to a full 8-neighbor pattern.
func textureHistogram(eq []uint8) []float64 {
	hist := make([]float64, HistLen)
	count := 0
	for y := 1; y < Side-1; y++ {
		for x := 1; x < Side-1; x++ {
			center := eq[y*Side+x]
			code := 0
			if eq[(y-1)*Side+x-1] > center {
				code += 224
			}
			if eq[y*Side+x-1] > center {
				code += 24
			}
			if eq[(y+1)*Side+x-1] > center {
				code += 7
			}
			hist[code]++
			count++
		}
	}
	return normalizeHist(hist, float64(count))
}

// gradientHistogram bins Sobel gradient magnitudes over the full
// equalized image into a normalized HistLen-bin histogram. Borders use
// reflect-101 indexing; magnitudes are clamped to [0,255].
func gradientHistogram(eq []uint8) []float64 {
	at := func(x, y int) float64 {
		if x < 0 {
			x = -x
		}
		if x >= Side {
			x = 2*Side - 2 - x
		}
		if y < 0 {
			y = -y
		}
		if y >= Side {
			y = 2*Side - 2 - y
		}
		return float64(eq[y*Side+x])
	}

	hist := make([]float64, HistLen)
	for y := 0; y < Side; y++ {
		for x := 0; x < Side; x++ {
			dx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			dy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			mag := math.Sqrt(dx*dx + dy*dy)
			if mag > 255 {
				mag = 255
			}
			hist[int(mag)]++
		}
	}
	return normalizeHist(hist, float64(PixelLen))
}

// normalizeHist divides the histogram by total, leaving the zero
// vector in place when the histogram is empty.
func normalizeHist(hist []float64, total float64) []float64 {
	if total <= 0 {
		return hist
	}
	for i := range hist {
		hist[i] /= total
	}
	return hist
}
