// Package imagediff decides whether two screenshots are perceptually the
// same, using CIE94 color differences per pixel.
package imagediff

import (
	"image"

	"github.com/gxtest/uitest/pkg/core"
)

// Default precisions: at least 99.9% of pixels must match, and a pixel
// matches when its ΔE is below 1 (no difference perceptible to the eye).
const (
	DefaultPixelPrecision      = 1 - 0.001
	DefaultPerceptualPrecision = 1 - 0.01
)

// precisionEpsilon absorbs float error so an exact match is never rejected.
const precisionEpsilon = 1e-9

// Options holds the two precisions, each within [0, 1].
type Options struct {
	// PixelPrecision is the minimum fraction of matching pixels
	PixelPrecision float64
	// PerceptualPrecision is 1 - (ΔE tolerated per pixel)/100
	PerceptualPrecision float64
}

// DefaultOptions returns the default precisions.
func DefaultOptions() Options {
	return Options{PixelPrecision: DefaultPixelPrecision, PerceptualPrecision: DefaultPerceptualPrecision}
}

func (o Options) normalized() Options {
	return Options{PixelPrecision: clamp01(o.PixelPrecision), PerceptualPrecision: clamp01(o.PerceptualPrecision)}
}

// threshold is the ΔE above which a pixel counts as different.
func (o Options) threshold() float64 {
	return (1 - clamp01(o.PerceptualPrecision)) * 100
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Result describes one comparison.
type Result struct {
	Match bool
	// Pixels whose ΔE exceeded the threshold
	DifferentPixels int
	TotalPixels     int
	// 1 - DifferentPixels/TotalPixels
	ActualPixelPrecision float64
	// Largest raw ΔE over all pixels
	MaxDeltaE float64
	// 1 - MaxDeltaE/100
	ActualPerceptualPrecision float64
}

// Compare compares a captured image against a reference. Images of
// different sizes cannot be compared and yield core.ErrComparisonIndeterminate.
func Compare(captured, reference image.Image, opts Options) (Result, error) {
	a, b, err := prepare(captured, reference)
	if err != nil {
		return Result{}, err
	}
	opts = opts.normalized()
	threshold := opts.threshold()

	res := Result{TotalPixels: a.Bounds().Dx() * a.Bounds().Dy()}
	forEachDelta(a, b, func(_, _ int, dE float64) {
		if dE > threshold {
			res.DifferentPixels++
		}
		if dE > res.MaxDeltaE {
			res.MaxDeltaE = dE
		}
	})

	average := float64(res.DifferentPixels) / float64(res.TotalPixels)
	res.ActualPixelPrecision = 1 - average
	res.ActualPerceptualPrecision = 1 - res.MaxDeltaE/100

	switch {
	case res.DifferentPixels == 0:
		res.Match = true
	case res.ActualPixelPrecision+precisionEpsilon >= opts.PixelPrecision:
		res.Match = true
	default:
		res.Match = res.MaxDeltaE == 0 || res.ActualPerceptualPrecision+precisionEpsilon >= opts.PerceptualPrecision
	}
	return res, nil
}

// CompareBytes decodes two PNG images and compares their pixels. Buffers
// that do not decode are indeterminate even when they are identical.
func CompareBytes(captured, reference []byte, opts Options) (Result, error) {
	a, err := Decode(captured)
	if err != nil {
		return Result{}, err
	}
	b, err := Decode(reference)
	if err != nil {
		return Result{}, err
	}
	return Compare(a, b, opts)
}

func prepare(captured, reference image.Image) (*image.RGBA, *image.RGBA, error) {
	if captured == nil || reference == nil {
		return nil, nil, core.ErrComparisonIndeterminate.WithMessage("missing image")
	}
	ca, rb := captured.Bounds(), reference.Bounds()
	if ca.Dx() != rb.Dx() || ca.Dy() != rb.Dy() {
		return nil, nil, core.ErrComparisonIndeterminate.WithMessagef(
			"image sizes differ: captured %dx%d, reference %dx%d", ca.Dx(), ca.Dy(), rb.Dx(), rb.Dy())
	}
	if ca.Empty() {
		return nil, nil, core.ErrComparisonIndeterminate.WithMessage("images are empty")
	}
	return ToRGBA(captured), ToRGBA(reference), nil
}

// forEachDelta calls fn with the ΔE of every pixel pair. Both images share
// origin-based bounds of the same size.
func forEachDelta(captured, reference *image.RGBA, fn func(x, y int, dE float64)) {
	w, h := captured.Bounds().Dx(), captured.Bounds().Dy()
	cache := make(map[[3]uint8]lab)
	toLab := func(r, g, b uint8) lab {
		key := [3]uint8{r, g, b}
		if l, ok := cache[key]; ok {
			return l
		}
		l := labFromRGB(r, g, b)
		cache[key] = l
		return l
	}

	for y := 0; y < h; y++ {
		ci := captured.PixOffset(0, y)
		ri := reference.PixOffset(0, y)
		for x := 0; x < w; x++ {
			cp := captured.Pix[ci : ci+4 : ci+4]
			rp := reference.Pix[ri : ri+4 : ri+4]
			ci += 4
			ri += 4
			if cp[0] == rp[0] && cp[1] == rp[1] && cp[2] == rp[2] {
				fn(x, y, 0)
				continue
			}
			fn(x, y, deltaE94(toLab(rp[0], rp[1], rp[2]), toLab(cp[0], cp[1], cp[2])))
		}
	}
}
