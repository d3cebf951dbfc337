package detect

import (
	"context"
	"image"
	"image/color"
	"testing"
)

func TestFullFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))

	boxes, err := FullFrame{}.Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) != 1 || boxes[0] != img.Bounds() {
		t.Errorf("full frame detector should return the image bounds, got %v", boxes)
	}

	if _, err := (FullFrame{}).Detect(context.Background(), nil); err != ErrNoFace {
		t.Errorf("nil image should yield ErrNoFace, got %v", err)
	}
}

func TestLargest(t *testing.T) {
	boxes := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(0, 0, 50, 40),
		image.Rect(5, 5, 20, 20),
	}
	if got := Largest(boxes); got != boxes[1] {
		t.Errorf("Largest = %v, want %v", got, boxes[1])
	}
}

func TestCrop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	img.Set(30, 30, color.RGBA{255, 0, 0, 255})

	cropped := Crop(img, image.Rect(20, 20, 60, 60))
	b := cropped.Bounds()
	if b.Dx() != 40 || b.Dy() != 40 {
		t.Errorf("cropped size = %dx%d, want 40x40", b.Dx(), b.Dy())
	}
	r, _, _, _ := cropped.At(30, 30).RGBA()
	if r>>8 != 255 {
		t.Error("cropped image lost pixel content")
	}
}

func TestCropOutOfBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	// A box entirely outside the image falls back to the full image.
	cropped := Crop(img, image.Rect(50, 50, 60, 60))
	if cropped.Bounds() != img.Bounds() {
		t.Errorf("out-of-bounds crop = %v, want full image", cropped.Bounds())
	}
}

type fakeDetector struct {
	boxes []image.Rectangle
	err   error
}

func (f fakeDetector) Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	return f.boxes, f.err
}

func TestFace(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	t.Run("no boxes", func(t *testing.T) {
		if _, err := Face(context.Background(), fakeDetector{}, img); err != ErrNoFace {
			t.Errorf("expected ErrNoFace, got %v", err)
		}
	})

	t.Run("largest wins", func(t *testing.T) {
		d := fakeDetector{boxes: []image.Rectangle{
			image.Rect(0, 0, 10, 10),
			image.Rect(10, 10, 90, 90),
		}}
		face, err := Face(context.Background(), d, img)
		if err != nil {
			t.Fatalf("Face failed: %v", err)
		}
		if b := face.Bounds(); b.Dx() != 80 || b.Dy() != 80 {
			t.Errorf("face size = %dx%d, want 80x80", b.Dx(), b.Dy())
		}
	})

	t.Run("detector error propagates", func(t *testing.T) {
		d := fakeDetector{err: ErrNoFace}
		if _, err := Face(context.Background(), d, img); err != ErrNoFace {
			t.Errorf("expected ErrNoFace, got %v", err)
		}
	})
}
