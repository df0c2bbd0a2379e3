// Package blend implements the color mix operators used by layer chains.
//
// Every operator takes a backdrop color a, a layer color b and a factor
// fac in [0,1], and returns the mixed RGB. Factors outside [0,1] are
// clamped. Alpha travels on a separate path and is not touched here.
//
// The formulas follow the MixRGB node of node-based shading editors so
// that baked output matches the live material pixel for pixel.
package blend

// Mode represents a mix operator.
//
// The order matches paintlayers.BlendMode so the two convert directly.
type Mode uint8

const (
	ModeMix Mode = iota
	ModeAdd
	ModeMultiply
	ModeSubtract
	ModeScreen
	ModeDivide
	ModeDifference
	ModeDarken
	ModeLighten
	ModeOverlay
	ModeDodge
	ModeBurn
	ModeHue
	ModeSaturation
	ModeValue
	ModeColor
	ModeSoftLight
	ModeLinearLight

	modeCount
)

// Valid reports whether m names a known operator.
func (m Mode) Valid() bool { return m < modeCount }

// RGB is a linear color triple.
type RGB = [3]float32

type mixFunc func(fac float32, a, b RGB) RGB

var mixers = [modeCount]mixFunc{
	ModeMix:         mixMix,
	ModeAdd:         mixAdd,
	ModeMultiply:    mixMultiply,
	ModeSubtract:    mixSubtract,
	ModeScreen:      mixScreen,
	ModeDivide:      mixDivide,
	ModeDifference:  mixDifference,
	ModeDarken:      mixDarken,
	ModeLighten:     mixLighten,
	ModeOverlay:     mixOverlay,
	ModeDodge:       mixDodge,
	ModeBurn:        mixBurn,
	ModeHue:         mixHue,
	ModeSaturation:  mixSaturation,
	ModeValue:       mixValue,
	ModeColor:       mixColor,
	ModeSoftLight:   mixSoftLight,
	ModeLinearLight: mixLinearLight,
}

// Mix applies operator m. Unknown modes fall back to ModeMix.
func Mix(m Mode, fac float32, a, b RGB) RGB {
	fac = clamp01(fac)
	if !m.Valid() {
		return mixMix(fac, a, b)
	}
	return mixers[m](fac, a, b)
}

// MixClamped applies Mix and clamps the result to [0,1].
func MixClamped(m Mode, fac float32, a, b RGB) RGB {
	out := Mix(m, fac, a, b)
	for i := range out {
		out[i] = clamp01(out[i])
	}
	return out
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func lerp3(a, b RGB, t float32) RGB {
	return RGB{lerp(a[0], b[0], t), lerp(a[1], b[1], t), lerp(a[2], b[2], t)}
}

// perChannel applies f to each channel pair.
func perChannel(a, b RGB, f func(a, b float32) float32) RGB {
	return RGB{f(a[0], b[0]), f(a[1], b[1]), f(a[2], b[2])}
}
