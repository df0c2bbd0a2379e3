package filter

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/gogpu/paintlayers/internal/cache"
)

var gaussians = cache.New[float64, []float32](32)

// GaussianKernel returns a normalized blur kernel with sigma = radius,
// reaching out to three sigma on each side. A radius <= 0 gives [1].
// The returned slice is shared and must not be modified.
func GaussianKernel(radius float64) []float32 {
	if radius <= 0 || math.IsNaN(radius) {
		return []float32{1}
	}
	k, _ := gaussians.GetOrCreate(radius, func() ([]float32, error) {
		half := int(math.Ceil(radius * 3))
		k := make([]float32, 2*half+1)
		inv := -1 / (2 * float32(radius) * float32(radius))
		var sum float32
		for i := range k {
			x := float32(i - half)
			k[i] = math32.Exp(x * x * inv)
			sum += k[i]
		}
		for i := range k {
			k[i] /= sum
		}
		return k, nil
	})
	return k
}

// One-axis derivative kernels, scaled so a unit ramp gives a unit slope.
// Sobel pairs SobelDerivative with SobelSmooth across the other axis.
var (
	CentralDifference = []float32{-0.5, 0, 0.5}
	SobelDerivative   = []float32{-0.5, 0, 0.5}
	SobelSmooth       = []float32{0.25, 0.5, 0.25}
)

// KernelCenter is the index of the center tap.
func KernelCenter(size int) int { return size / 2 }
