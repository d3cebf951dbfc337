// Package detect locates faces in images. Signature extraction works
// on whatever region it is given; this package decides which region
// that is.
package detect

import (
	"context"
	"errors"
	"image"
)

// ErrNoFace is returned when a detector finds no face in the image.
var ErrNoFace = errors.New("no face detected")

// Detector finds face bounding boxes in an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error)
}

// FullFrame treats the whole image as a single face. It is the
// fallback when no detection service is configured; authentication
// then relies on the comparator alone, as with pre-cropped portraits.
type FullFrame struct{}

func (FullFrame) Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	if img == nil {
		return nil, ErrNoFace
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrNoFace
	}
	return []image.Rectangle{b}, nil
}

// Largest returns the bounding box with the biggest area.
func Largest(boxes []image.Rectangle) image.Rectangle {
	var best image.Rectangle
	bestArea := -1
	for _, b := range boxes {
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = b, area
		}
	}
	return best
}

// Crop extracts the region from the image. SubImage is used when the
// source supports it; other image types are copied.
func Crop(img image.Image, box image.Rectangle) image.Image {
	box = box.Intersect(img.Bounds())
	if box.Empty() {
		return img
	}

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(box)
	}

	out := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			out.Set(x-box.Min.X, y-box.Min.Y, img.At(x, y))
		}
	}
	return out
}

// Face runs the detector and returns the image cropped to the largest
// detected face. ErrNoFace when the detector reports no boxes.
func Face(ctx context.Context, d Detector, img image.Image) (image.Image, error) {
	boxes, err := d.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		return nil, ErrNoFace
	}
	return Crop(img, Largest(boxes)), nil
}
