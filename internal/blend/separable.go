package blend

import "github.com/chewxy/math32"

// mixMix: a + (b - a)*fac
func mixMix(fac float32, a, b RGB) RGB {
	return lerp3(a, b, fac)
}

// mixAdd: a + b*fac
func mixAdd(fac float32, a, b RGB) RGB {
	return perChannel(a, b, func(a, b float32) float32 { return a + b*fac })
}

// mixMultiply: lerp(a, a*b, fac)
func mixMultiply(fac float32, a, b RGB) RGB {
	return perChannel(a, b, func(a, b float32) float32 { return lerp(a, a*b, fac) })
}

// mixSubtract: a - b*fac
func mixSubtract(fac float32, a, b RGB) RGB {
	return perChannel(a, b, func(a, b float32) float32 { return a - b*fac })
}

// mixScreen: 1 - (1 - fac + fac*(1-b)) * (1-a)
func mixScreen(fac float32, a, b RGB) RGB {
	facm := 1 - fac
	return perChannel(a, b, func(a, b float32) float32 {
		return 1 - (facm+fac*(1-b))*(1-a)
	})
}

// mixDivide: lerp(a, a/b, fac), leaving channels where b == 0 untouched.
func mixDivide(fac float32, a, b RGB) RGB {
	facm := 1 - fac
	return perChannel(a, b, func(a, b float32) float32 {
		if b == 0 {
			return a
		}
		return facm*a + fac*a/b
	})
}

// mixDifference: lerp(a, |a-b|, fac)
func mixDifference(fac float32, a, b RGB) RGB {
	return perChannel(a, b, func(a, b float32) float32 { return lerp(a, math32.Abs(a-b), fac) })
}

// mixDarken: lerp(a, min(a,b), fac)
func mixDarken(fac float32, a, b RGB) RGB {
	return perChannel(a, b, func(a, b float32) float32 { return lerp(a, min(a, b), fac) })
}

// mixLighten: lerp(a, max(a,b), fac)
func mixLighten(fac float32, a, b RGB) RGB {
	return perChannel(a, b, func(a, b float32) float32 { return lerp(a, max(a, b), fac) })
}

// mixOverlay multiplies dark backdrops and screens light ones.
//
//	a < 0.5: a * (1 - fac + 2*fac*b)
//	else:    1 - (1 - fac + 2*fac*(1-b)) * (1-a)
func mixOverlay(fac float32, a, b RGB) RGB {
	facm := 1 - fac
	return perChannel(a, b, func(a, b float32) float32 {
		if a < 0.5 {
			return a * (facm + 2*fac*b)
		}
		return 1 - (facm+2*fac*(1-b))*(1-a)
	})
}

// mixDodge brightens the backdrop: a / (1 - fac*b), saturating at 1.
func mixDodge(fac float32, a, b RGB) RGB {
	return perChannel(a, b, func(a, b float32) float32 {
		if a == 0 {
			return 0
		}
		tmp := 1 - fac*b
		if tmp <= 0 {
			return 1
		}
		tmp = a / tmp
		if tmp > 1 {
			return 1
		}
		return tmp
	})
}

// mixBurn darkens the backdrop: 1 - (1-a) / (1 - fac + fac*b), kept in [0,1].
func mixBurn(fac float32, a, b RGB) RGB {
	facm := 1 - fac
	return perChannel(a, b, func(a, b float32) float32 {
		tmp := facm + fac*b
		if tmp <= 0 {
			return 0
		}
		return clamp01(1 - (1-a)/tmp)
	})
}

// mixSoftLight: (1-fac)*a + fac*((1-a)*b*a + a*screen(a,b))
func mixSoftLight(fac float32, a, b RGB) RGB {
	facm := 1 - fac
	return perChannel(a, b, func(a, b float32) float32 {
		scr := 1 - (1-b)*(1-a)
		return facm*a + fac*((1-a)*b*a+a*scr)
	})
}

// mixLinearLight: a + fac*(2b - 1)
func mixLinearLight(fac float32, a, b RGB) RGB {
	return perChannel(a, b, func(a, b float32) float32 { return a + fac*(2*b-1) })
}
