package imagediff

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/gxtest/uitest/pkg/core"
)

// Decode decodes PNG bytes.
func Decode(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, core.ErrComparisonIndeterminate.WithMessage("could not decode PNG").WithCause(err)
	}
	return img, nil
}

// Encode encodes an image as PNG.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ToRGBA returns img as an *image.RGBA whose bounds start at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Crop copies the part of img inside rect (in img coordinates), clipped to
// the image bounds.
func Crop(img image.Image, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)
	return dst
}

// CropPoints crops a screenshot to a frame given in points. The pixel scale
// is derived from the screenshot width and the window width in points.
func CropPoints(img image.Image, frame core.Bounds, windowWidth int) *image.RGBA {
	scale := 1.0
	if windowWidth > 0 {
		scale = float64(img.Bounds().Dx()) / float64(windowWidth)
	}
	origin := img.Bounds().Min
	rect := image.Rect(
		origin.X+int(float64(frame.X)*scale),
		origin.Y+int(float64(frame.Y)*scale),
		origin.X+int(float64(frame.X+frame.Width)*scale),
		origin.Y+int(float64(frame.Y+frame.Height)*scale),
	)
	return Crop(img, rect)
}

var (
	maskMatch = color.RGBA{A: 255}
	maskDiff  = color.RGBA{R: 255, A: 255}
)

// DiffMask renders differing pixels in red on black, for human review.
// Images of different sizes yield an indeterminate error.
func DiffMask(captured, reference image.Image, opts Options) (*image.RGBA, error) {
	a, b, err := prepare(captured, reference)
	if err != nil {
		return nil, err
	}
	threshold := opts.threshold()
	mask := image.NewRGBA(a.Bounds())
	draw.Draw(mask, mask.Bounds(), image.NewUniform(maskMatch), image.Point{}, draw.Src)
	forEachDelta(a, b, func(x, y int, dE float64) {
		if dE > threshold {
			mask.SetRGBA(x, y, maskDiff)
		}
	})
	return mask, nil
}
