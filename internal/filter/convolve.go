package filter

import (
	"github.com/gogpu/paintlayers/internal/image"
)

// Axis selects the direction of a 1D convolution.
type Axis uint8

const (
	// Horizontal convolves along rows.
	Horizontal Axis = iota
	// Vertical convolves along columns.
	Vertical
)

// Convolve applies a 1D kernel to a single-channel buffer along axis.
// Samples outside the buffer wrap around.
func Convolve(src *image.Buf, kernel []float32, axis Axis) *image.Buf {
	w, h := src.Bounds()
	dst := image.MustBuf(w, h, 1)
	in := src.Pix()
	out := dst.Pix()
	c := KernelCenter(len(kernel))

	for y := range h {
		for x := range w {
			var sum float32
			for k, weight := range kernel {
				if weight == 0 {
					continue
				}
				sx, sy := x, y
				if axis == Horizontal {
					sx = wrap(x+k-c, w)
				} else {
					sy = wrap(y+k-c, h)
				}
				sum += in[sy*w+sx] * weight
			}
			out[y*w+x] = sum
		}
	}
	return dst
}

// Blur applies a separable Gaussian blur with the given radius.
func Blur(src *image.Buf, radius float64) *image.Buf {
	if radius <= 0 {
		return src.Clone()
	}
	k := GaussianKernel(radius)
	return Convolve(Convolve(src, k, Horizontal), k, Vertical)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
