// Package image provides float pixel buffers for paintlayers.
//
// Buffers store linear float32 channels in row-major order with the origin
// at the top-left corner. Texture coordinates address them with v growing
// upward, so v=0 is the bottom row.
package image

import (
	"errors"
	"slices"
)

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrInvalidChannels is returned for channel counts other than 1, 3 or 4.
	ErrInvalidChannels = errors.New("image: invalid channel count")

	// ErrOutOfBounds is returned when pixel coordinates are outside image bounds.
	ErrOutOfBounds = errors.New("image: coordinates out of bounds")

	// ErrSizeMismatch is returned when two buffers must share dimensions but do not.
	ErrSizeMismatch = errors.New("image: size mismatch")
)

// Buf is a float32 image buffer with 1, 3 or 4 channels.
//
// Thread safety: Buf is safe for concurrent read access. Writes require
// external synchronization.
type Buf struct {
	pix      []float32
	width    int
	height   int
	channels int
}

// NewBuf creates a zeroed buffer.
func NewBuf(width, height, channels int) (*Buf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if channels != 1 && channels != 3 && channels != 4 {
		return nil, ErrInvalidChannels
	}
	return &Buf{
		pix:      make([]float32, width*height*channels),
		width:    width,
		height:   height,
		channels: channels,
	}, nil
}

// MustBuf is like NewBuf but panics on invalid arguments.
func MustBuf(width, height, channels int) *Buf {
	b, err := NewBuf(width, height, channels)
	if err != nil {
		panic(err)
	}
	return b
}

// Width returns the buffer width in pixels.
func (b *Buf) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buf) Height() int { return b.height }

// Channels returns the number of channels per pixel.
func (b *Buf) Channels() int { return b.channels }

// Bounds returns width and height.
func (b *Buf) Bounds() (width, height int) { return b.width, b.height }

// Pix exposes the underlying samples.
func (b *Buf) Pix() []float32 { return b.pix }

// HasAlpha reports whether the buffer carries a fourth channel.
func (b *Buf) HasAlpha() bool { return b.channels == 4 }

func (b *Buf) offset(x, y int) int {
	return (y*b.width + x) * b.channels
}

// At returns the pixel at (x, y) expanded to RGBA.
// Single-channel buffers replicate the value into RGB; missing alpha is 1.
// Out-of-bounds reads return transparent black.
func (b *Buf) At(x, y int) [4]float32 {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return [4]float32{}
	}
	i := b.offset(x, y)
	switch b.channels {
	case 1:
		v := b.pix[i]
		return [4]float32{v, v, v, 1}
	case 3:
		return [4]float32{b.pix[i], b.pix[i+1], b.pix[i+2], 1}
	default:
		return [4]float32{b.pix[i], b.pix[i+1], b.pix[i+2], b.pix[i+3]}
	}
}

// Set writes an RGBA pixel. Channels the buffer lacks are dropped;
// single-channel buffers store the red component.
func (b *Buf) Set(x, y int, c [4]float32) error {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return ErrOutOfBounds
	}
	i := b.offset(x, y)
	switch b.channels {
	case 1:
		b.pix[i] = c[0]
	case 3:
		b.pix[i], b.pix[i+1], b.pix[i+2] = c[0], c[1], c[2]
	default:
		b.pix[i], b.pix[i+1], b.pix[i+2], b.pix[i+3] = c[0], c[1], c[2], c[3]
	}
	return nil
}

// Fill sets every pixel to c.
func (b *Buf) Fill(c [4]float32) {
	for y := range b.height {
		for x := range b.width {
			_ = b.Set(x, y, c)
		}
	}
}

// Clear zeroes all samples.
func (b *Buf) Clear() {
	clear(b.pix)
}

// Clone returns a deep copy.
func (b *Buf) Clone() *Buf {
	return &Buf{
		pix:      slices.Clone(b.pix),
		width:    b.width,
		height:   b.height,
		channels: b.channels,
	}
}

// Equal reports whether two buffers have the same shape and samples.
func (b *Buf) Equal(o *Buf) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.width == o.width && b.height == o.height &&
		b.channels == o.channels && slices.Equal(b.pix, o.pix)
}

// CopyFrom copies samples from src, which must have the same dimensions.
// Channel counts may differ; pixels are converted through At/Set.
func (b *Buf) CopyFrom(src *Buf) error {
	if src.width != b.width || src.height != b.height {
		return ErrSizeMismatch
	}
	if src.channels == b.channels {
		copy(b.pix, src.pix)
		return nil
	}
	for y := range b.height {
		for x := range b.width {
			_ = b.Set(x, y, src.At(x, y))
		}
	}
	return nil
}
