// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"

	"github.com/gogpu/paintlayers/internal/image"
	"github.com/gogpu/paintlayers/shadergraph"
)

// field is the value of one socket over the whole image: either a
// constant or a 4-channel buffer. Floats live in channel 0.
type field struct {
	buf *image.Buf
	c   [4]float32
}

func constant(c [4]float32) *field { return &field{c: c} }

func (f *field) at(i int) [4]float32 {
	if f.buf == nil {
		return f.c
	}
	p := f.buf.Pix()[i*4 : i*4+4 : i*4+4]
	return [4]float32{p[0], p[1], p[2], p[3]}
}

func (f *field) set(i int, v [4]float32) {
	copy(f.buf.Pix()[i*4:i*4+4], v[:])
}

// uvAt returns the texture coordinate of the center of pixel (x, y).
// Rows run top-down while v grows upward.
func uvAt(x, y, w, h int) ms2.Vec {
	return ms2.Vec{
		X: (float32(x) + 0.5) / float32(w),
		Y: 1 - (float32(y)+0.5)/float32(h),
	}
}

func luminance(c [4]float32) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

// convertValue applies implicit socket conversions.
func convertValue(v [4]float32, from, to shadergraph.SocketType) [4]float32 {
	// Shaders carry their surface color.
	if to == shadergraph.SocketShader {
		to = shadergraph.SocketColor
	}
	if from == shadergraph.SocketShader {
		from = shadergraph.SocketColor
	}
	if from == to {
		return v
	}
	switch {
	case from == shadergraph.SocketFloat && to == shadergraph.SocketColor:
		return [4]float32{v[0], v[0], v[0], 1}
	case from == shadergraph.SocketFloat && to == shadergraph.SocketVector:
		return [4]float32{v[0], v[0], v[0], 0}
	case from == shadergraph.SocketColor && to == shadergraph.SocketFloat:
		return [4]float32{luminance(v)}
	case from == shadergraph.SocketVector && to == shadergraph.SocketFloat:
		return [4]float32{(v[0] + v[1] + v[2]) / 3}
	case from == shadergraph.SocketVector && to == shadergraph.SocketColor:
		return [4]float32{v[0], v[1], v[2], 1}
	default:
		return [4]float32{v[0], v[1], v[2], 0}
	}
}

func vec3(v [4]float32) ms3.Vec { return ms3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func vec4(v ms3.Vec, w float32) [4]float32 { return [4]float32{v.X, v.Y, v.Z, w} }

// unit normalizes v; the zero vector stays zero.
func unit(v ms3.Vec) ms3.Vec {
	if ms3.Norm(v) == 0 {
		return ms3.Vec{}
	}
	return ms3.Unit(v)
}

func lerpVec(a, b ms3.Vec, t float32) ms3.Vec {
	return ms3.Add(ms3.Scale(1-t, a), ms3.Scale(t, b))
}

func clamp01(v float32) float32 { return math32.Min(math32.Max(v, 0), 1) }
