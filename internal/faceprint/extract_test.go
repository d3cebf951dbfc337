package faceprint

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestExtractShapes(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"solid gray", createTestImage(100, 100, color.RGBA{128, 128, 128, 255})},
		{"gradient", createGradientImage(100, 100)},
		{"noise", createNoiseImage(200, 200, 1)},
		{"small", createTestImage(3, 7, color.White)},
		{"large", createGradientImage(640, 480)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := Extract(tc.img)

			if !sig.Valid() {
				t.Fatalf("signature has wrong shape: pixels=%d texture=%d gradient=%d",
					len(sig.Pixels), len(sig.Texture), len(sig.Gradient))
			}
			for i, v := range sig.Pixels {
				if v < 0 || v > 1 {
					t.Fatalf("pixel %d out of range: %f", i, v)
				}
			}
			assertHistogramSum(t, "texture", sig.Texture)
			assertHistogramSum(t, "gradient", sig.Gradient)
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	img := createNoiseImage(200, 200, 42)

	a := Extract(img)
	b := Extract(img)

	for i := range a.Pixels {
		if a.Pixels[i] != b.Pixels[i] {
			t.Fatalf("pixel %d differs between extractions: %f vs %f", i, a.Pixels[i], b.Pixels[i])
		}
	}
	for i := range a.Texture {
		if a.Texture[i] != b.Texture[i] || a.Gradient[i] != b.Gradient[i] {
			t.Fatalf("histogram bin %d differs between extractions", i)
		}
	}
}

func TestExtractFlatImage(t *testing.T) {
	// A flat image has no texture transitions and no gradient, so both
	// histograms collapse into bin 0 and the pixel vector is constant.
	sig := Extract(createTestImage(200, 200, color.RGBA{128, 128, 128, 255}))

	for i, v := range sig.Pixels {
		if v != sig.Pixels[0] {
			t.Fatalf("pixel %d = %f, expected constant %f", i, v, sig.Pixels[0])
		}
	}
	if math.Abs(sig.Texture[0]-1) > 1e-9 {
		t.Errorf("texture bin 0 = %f, want 1.0", sig.Texture[0])
	}
	if math.Abs(sig.Gradient[0]-1) > 1e-9 {
		t.Errorf("gradient bin 0 = %f, want 1.0", sig.Gradient[0])
	}
}

func TestExtractEmptyImage(t *testing.T) {
	sig := Extract(image.NewRGBA(image.Rect(0, 0, 0, 0)))

	if !sig.Valid() {
		t.Fatal("signature from empty image should still have fixed shape")
	}
	for _, v := range sig.Pixels {
		if v != 0 {
			t.Fatal("empty image should produce a zero pixel vector")
		}
	}
}

func TestEqualize(t *testing.T) {
	// A two-level image should be stretched to the full range.
	px := make([]uint8, 100)
	for i := 50; i < 100; i++ {
		px[i] = 100
	}

	eq := equalize(px)

	if eq[0] != 0 {
		t.Errorf("low level should map to 0, got %d", eq[0])
	}
	if eq[99] != 255 {
		t.Errorf("high level should map to 255, got %d", eq[99])
	}
}

func TestEqualizeConstant(t *testing.T) {
	px := make([]uint8, 100)
	for i := range px {
		px[i] = 77
	}

	eq := equalize(px)

	for i, v := range eq {
		if v != 77 {
			t.Fatalf("constant image should be unchanged, pixel %d = %d", i, v)
		}
	}
}

func TestTextureCodeEncoding(t *testing.T) {
	// The texture code only looks at the three left-column neighbors;
	// each comparison bit occupies a fixed group of bit positions.
	tests := []struct {
		name                  string
		upLeft, left, downLeft uint8
		want                  int
	}{
		{"no neighbor brighter", 10, 10, 10, 0},
		{"up-left brighter", 200, 10, 10, 224},
		{"left brighter", 10, 200, 10, 24},
		{"down-left brighter", 10, 10, 200, 7},
		{"all brighter", 200, 200, 200, 255},
		{"up-left and down-left", 200, 10, 200, 231},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Constant background with one probed interior pixel at (1,1)
			// keeps every other interior code at 0.
			eq := make([]uint8, PixelLen)
			for i := range eq {
				eq[i] = 10
			}
			eq[1*Side+1] = 10 // center
			eq[0*Side+0] = tc.upLeft
			eq[1*Side+0] = tc.left
			eq[2*Side+0] = tc.downLeft

			hist := textureHistogram(eq)

			if hist[tc.want] == 0 {
				t.Errorf("expected code %d to be populated", tc.want)
			}
		})
	}
}

func TestResizeImage(t *testing.T) {
	resized := resizeImage(createTestImage(100, 50, color.White), Side, Side)

	bounds := resized.Bounds()
	if bounds.Dx() != Side || bounds.Dy() != Side {
		t.Errorf("resized image should be %dx%d, got %dx%d", Side, Side, bounds.Dx(), bounds.Dy())
	}
}

func TestToGrayscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255}) // Red
		}
	}

	gray := toGrayscale(img)

	if len(gray) != 100 {
		t.Fatalf("grayscale buffer should have 100 pixels, got %d", len(gray))
	}
	// Red should convert to approximately 0.299 * 255 = 76.245
	if gray[0] < 75 || gray[0] > 77 {
		t.Errorf("red pixel luma should be ~76, got %d", gray[0])
	}
}

// Helper functions

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createGradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			gray := uint8((x + y) * 255 / (width + height))
			img.Set(x, y, color.RGBA{gray, gray, gray, 255})
		}
	}
	return img
}

// createNoiseImage produces a deterministic pseudo-random pattern from
// the given seed using an xorshift generator.
func createNoiseImage(width, height int, seed uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	state := seed*2685821657736338717 + 1
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			state ^= state << 13
			state ^= state >> 7
			state ^= state << 17
			gray := uint8(state >> 56)
			img.Set(x, y, color.RGBA{gray, gray, gray, 255})
		}
	}
	return img
}

func assertHistogramSum(t *testing.T, name string, hist []float64) {
	t.Helper()
	var sum float64
	for _, v := range hist {
		if v < 0 {
			t.Fatalf("%s histogram has negative bin: %f", name, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("%s histogram sums to %f, want 1.0", name, sum)
	}
}
