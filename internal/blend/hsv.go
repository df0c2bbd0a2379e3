package blend

import "github.com/gogpu/paintlayers/internal/color"

// The non-separable operators work in HSV space, not the HSL space of
// CSS compositing.

func toHSV(c RGB) color.HSV {
	return color.RGBToHSV(c[0], c[1], c[2])
}

func fromHSV(h color.HSV) RGB {
	r, g, b := color.HSVToRGB(h)
	return RGB{r, g, b}
}

// mixHue takes the hue of b. Achromatic layers leave a unchanged.
func mixHue(fac float32, a, b RGB) RGB {
	hb := toHSV(b)
	if hb.S == 0 {
		return a
	}
	ha := toHSV(a)
	ha.H = hb.H
	return lerp3(a, fromHSV(ha), fac)
}

// mixSaturation blends the saturation of a toward that of b.
// Achromatic backdrops have no hue to saturate and stay unchanged.
func mixSaturation(fac float32, a, b RGB) RGB {
	ha := toHSV(a)
	if ha.S == 0 {
		return a
	}
	hb := toHSV(b)
	ha.S = lerp(ha.S, hb.S, fac)
	return fromHSV(ha)
}

// mixValue blends the value of a toward that of b.
func mixValue(fac float32, a, b RGB) RGB {
	ha := toHSV(a)
	hb := toHSV(b)
	ha.V = lerp(ha.V, hb.V, fac)
	return fromHSV(ha)
}

// mixColor takes hue and saturation of b, keeping the value of a.
func mixColor(fac float32, a, b RGB) RGB {
	hb := toHSV(b)
	if hb.S == 0 {
		return a
	}
	ha := toHSV(a)
	ha.H = hb.H
	ha.S = hb.S
	return lerp3(a, fromHSV(ha), fac)
}
