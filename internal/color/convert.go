package color

import "github.com/chewxy/math32"

// RGBToHSV converts an RGB triple to hue/saturation/value.
// Hue is expressed in turns ([0,1)), not degrees.
func RGBToHSV(r, g, b float32) HSV {
	cmax := max(r, g, b)
	cmin := min(r, g, b)
	delta := cmax - cmin

	hsv := HSV{V: cmax}
	if cmax != 0 {
		hsv.S = delta / cmax
	}
	if hsv.S == 0 {
		return hsv
	}

	var h float32
	switch cmax {
	case r:
		h = (g - b) / delta
	case g:
		h = 2 + (b-r)/delta
	default:
		h = 4 + (r-g)/delta
	}
	h /= 6
	if h < 0 {
		h++
	}
	hsv.H = h
	return hsv
}

// HSVToRGB converts hue/saturation/value back to RGB.
// Hue wraps, so values outside [0,1) are accepted.
func HSVToRGB(c HSV) (r, g, b float32) {
	if c.S <= 0 {
		return c.V, c.V, c.V
	}
	h := c.H - math32.Floor(c.H)
	h *= 6
	i := math32.Floor(h)
	f := h - i
	p := c.V * (1 - c.S)
	q := c.V * (1 - c.S*f)
	t := c.V * (1 - c.S*(1-f))

	switch int(i) % 6 {
	case 0:
		return c.V, t, p
	case 1:
		return q, c.V, p
	case 2:
		return p, c.V, t
	case 3:
		return p, q, c.V
	case 4:
		return t, p, c.V
	default:
		return c.V, p, q
	}
}

// U8ToF32 converts ColorU8 to ColorF32.
// Each uint8 component [0,255] is mapped to float32 [0,1].
func U8ToF32(c ColorU8) ColorF32 {
	return ColorF32{
		R: float32(c.R) / 255.0,
		G: float32(c.G) / 255.0,
		B: float32(c.B) / 255.0,
		A: float32(c.A) / 255.0,
	}
}

// F32ToU8 converts ColorF32 to ColorU8.
// Each float32 component [0,1] is mapped to uint8 [0,255] with rounding.
func F32ToU8(c ColorF32) ColorU8 {
	return ColorU8{
		R: ClampAndRound(c.R),
		G: ClampAndRound(c.G),
		B: ClampAndRound(c.B),
		A: ClampAndRound(c.A),
	}
}

// ClampAndRound clamps a float32 to [0,1] and converts to uint8 with rounding.
func ClampAndRound(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}

// Clamp01 clamps v to [0,1].
func Clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
