package config

// Texture size limits.
const (
	MinSize = 1
	MaxSize = 8192
)

// NextPowerOfTwo returns the smallest power of two >= x, and 1 for x <= 1.
func NextPowerOfTwo(x int) int {
	p := 1
	for p < x {
		p <<= 1
	}
	return p
}

// StepSize moves x to the next power of two up or down. Sizes that are
// not a power of two snap to the nearest one in the step direction.
// Results are kept within [MinSize, MaxSize].
func StepSize(x int, up bool) int {
	var n int
	if up {
		n = 2
		if x > 0 {
			n = NextPowerOfTwo(x + 1)
		}
	} else {
		n = NextPowerOfTwo(max(x-1, 1))
		if n >= x {
			n = NextPowerOfTwo(max(x/2, 1))
		}
	}
	return min(max(n, MinSize), MaxSize)
}

// StepSize steps both texture dimensions.
func (c *Config) StepSize(up bool) {
	c.Export.Width = StepSize(c.Export.Width, up)
	c.Export.Height = StepSize(c.Export.Height, up)
}
