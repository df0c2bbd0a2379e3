package filter

import "github.com/gogpu/paintlayers/internal/image"

// GradientMethod selects the derivative estimator.
type GradientMethod uint8

const (
	// GradientCentral uses plain central differences.
	GradientCentral GradientMethod = iota
	// GradientSobel smooths across the derivative axis first.
	GradientSobel
)

// Gradient returns the per-pixel partial derivatives of a single-channel
// buffer. dy is measured in texture space, so it is positive when values
// grow toward the top of the image.
func Gradient(src *image.Buf, method GradientMethod) (dx, dy *image.Buf) {
	switch method {
	case GradientSobel:
		dx = Convolve(Convolve(src, SobelDerivative, Horizontal), SobelSmooth, Vertical)
		dy = Convolve(Convolve(src, SobelDerivative, Vertical), SobelSmooth, Horizontal)
	default:
		dx = Convolve(src, CentralDifference, Horizontal)
		dy = Convolve(src, CentralDifference, Vertical)
	}
	// Rows run top-down; flip to texture orientation.
	for i, v := range dy.Pix() {
		dy.Pix()[i] = -v
	}
	return dx, dy
}
