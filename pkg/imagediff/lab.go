package imagediff

import "math"

// lab is a CIE L*a*b* color under a D65 white point.
type lab struct {
	L, A, B float64
}

// D65 reference white
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

// CIE94 graphic-arts weights
const (
	kL = 1.0
	k1 = 0.045
	k2 = 0.015
)

var linearTable = func() [256]float64 {
	var t [256]float64
	for i := range t {
		c := float64(i) / 255
		if c <= 0.04045 {
			t[i] = c / 12.92
		} else {
			t[i] = math.Pow((c+0.055)/1.055, 2.4)
		}
	}
	return t
}()

func labFromRGB(r, g, b uint8) lab {
	rl, gl, bl := linearTable[r], linearTable[g], linearTable[b]

	x := (0.4124564*rl + 0.3575761*gl + 0.1804375*bl) / whiteX
	y := (0.2126729*rl + 0.7151522*gl + 0.0721750*bl) / whiteY
	z := (0.0193339*rl + 0.1191920*gl + 0.9503041*bl) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)
	return lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

func labF(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

// deltaE94 returns the CIE94 color difference of sample against reference,
// clamped to [0, 100].
func deltaE94(reference, sample lab) float64 {
	dL := reference.L - sample.L
	c1 := math.Hypot(reference.A, reference.B)
	c2 := math.Hypot(sample.A, sample.B)
	dC := c1 - c2
	da := reference.A - sample.A
	db := reference.B - sample.B
	dH2 := da*da + db*db - dC*dC
	if dH2 < 0 {
		dH2 = 0
	}

	sC := 1 + k1*c1
	sH := 1 + k2*c1
	termL := dL / kL
	termC := dC / sC
	e := math.Sqrt(termL*termL + termC*termC + dH2/(sH*sH))
	switch {
	case e < 0 || math.IsNaN(e):
		return 0
	case e > 100:
		return 100
	}
	return e
}
