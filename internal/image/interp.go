package image

import "github.com/chewxy/math32"

// InterpolationMode defines how texture sampling is performed.
type InterpolationMode uint8

const (
	// InterpNearest selects the closest pixel.
	InterpNearest InterpolationMode = iota

	// InterpBilinear interpolates between 4 neighboring pixels.
	InterpBilinear

	// InterpBicubic uses Catmull-Rom weights over a 4x4 neighborhood.
	InterpBicubic
)

// String returns a string representation of the interpolation mode.
func (m InterpolationMode) String() string {
	switch m {
	case InterpNearest:
		return "Nearest"
	case InterpBilinear:
		return "Bilinear"
	case InterpBicubic:
		return "Bicubic"
	default:
		return "Unknown"
	}
}

// Sample samples the buffer at texture coordinates (u, v) with repeat wrapping.
func Sample(img *Buf, u, v float32, mode InterpolationMode) [4]float32 {
	switch mode {
	case InterpNearest:
		return SampleNearest(img, u, v)
	case InterpBilinear:
		return SampleBilinear(img, u, v)
	case InterpBicubic:
		return SampleBicubic(img, u, v)
	default:
		return [4]float32{}
	}
}

// texel maps texture coordinates to continuous pixel coordinates,
// flipping v so that v=0 is the bottom row.
func texel(img *Buf, u, v float32) (fx, fy float32) {
	return u * float32(img.width), (1 - v) * float32(img.height)
}

// SampleNearest performs nearest-neighbor sampling.
func SampleNearest(img *Buf, u, v float32) [4]float32 {
	fx, fy := texel(img, u, v)
	x := wrap(int(math32.Floor(fx)), img.width)
	y := wrap(int(math32.Floor(fy)), img.height)
	return img.At(x, y)
}

// SampleBilinear performs bilinear interpolation between pixel centers.
func SampleBilinear(img *Buf, u, v float32) [4]float32 {
	fx, fy := texel(img, u, v)
	fx -= 0.5
	fy -= 0.5

	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	x1 := wrap(x0+1, img.width)
	y1 := wrap(y0+1, img.height)
	x0 = wrap(x0, img.width)
	y0 = wrap(y0, img.height)

	c00 := img.At(x0, y0)
	c10 := img.At(x1, y0)
	c01 := img.At(x0, y1)
	c11 := img.At(x1, y1)

	var out [4]float32
	for i := range out {
		out[i] = lerp2D(c00[i], c10[i], c01[i], c11[i], tx, ty)
	}
	return out
}

// SampleBicubic performs Catmull-Rom interpolation over a 4x4 neighborhood.
func SampleBicubic(img *Buf, u, v float32) [4]float32 {
	fx, fy := texel(img, u, v)
	fx -= 0.5
	fy -= 0.5

	x := int(math32.Floor(fx))
	y := int(math32.Floor(fy))
	tx := fx - float32(x)
	ty := fy - float32(y)

	wx := [4]float32{cubicWeight(tx + 1), cubicWeight(tx), cubicWeight(tx - 1), cubicWeight(tx - 2)}
	wy := [4]float32{cubicWeight(ty + 1), cubicWeight(ty), cubicWeight(ty - 1), cubicWeight(ty - 2)}

	var out [4]float32
	for dy := -1; dy <= 2; dy++ {
		py := wrap(y+dy, img.height)
		for dx := -1; dx <= 2; dx++ {
			px := wrap(x+dx, img.width)
			c := img.At(px, py)
			w := wx[dx+1] * wy[dy+1]
			for i := range out {
				out[i] += c[i] * w
			}
		}
	}
	return out
}

// wrap maps an integer coordinate into [0, n) with repeat semantics.
func wrap(val, n int) int {
	val %= n
	if val < 0 {
		val += n
	}
	return val
}

func lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

func lerp2D(v00, v10, v01, v11, tx, ty float32) float32 {
	return lerp(lerp(v00, v10, tx), lerp(v01, v11, tx), ty)
}

// cubicWeight computes the Catmull-Rom cubic weight for distance t.
//
//	|t| < 1:     1.5|t|³ - 2.5|t|² + 1
//	1 ≤ |t| < 2: -0.5|t|³ + 2.5|t|² - 4|t| + 2
func cubicWeight(t float32) float32 {
	a := math32.Abs(t)
	if a < 1 {
		return 1.5*a*a*a - 2.5*a*a + 1.0
	}
	if a < 2 {
		return -0.5*a*a*a + 2.5*a*a - 4.0*a + 2.0
	}
	return 0
}
