// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/internal/cache"
	"github.com/gogpu/paintlayers/internal/image"
	"github.com/gogpu/paintlayers/internal/parallel"
	"github.com/gogpu/paintlayers/shadergraph"
)

// SoftwareRenderer evaluates material graphs on the CPU.
//
// Every node output is computed once for the whole image, so nodes
// reading neighbors (bump) see their complete input. Scratch buffers come
// from a pool that is reused across renders, and layer images resampled
// to the target size are cached by content.
//
// Example:
//
//	renderer := render.NewSoftwareRenderer()
//	err := renderer.Render(ctx, plane, render.PassEmit, target)
type SoftwareRenderer struct {
	pool      *image.Pool
	bumpBlur  float64
	workers   *parallel.Pool
	resampled *cache.Cache[resampleKey, *image.Buf]
}

func logger() *slog.Logger { return paintlayers.Component("render") }

// DefaultResampleCache is the number of resampled images kept by default.
const DefaultResampleCache = 16

// SoftwareOption configures a SoftwareRenderer.
type SoftwareOption func(*SoftwareRenderer)

// WithBumpBlur pre-blurs height fields with a Gaussian of the given
// radius in pixels before bump mapping. Zero disables the blur.
func WithBumpBlur(radius float64) SoftwareOption {
	return func(r *SoftwareRenderer) {
		r.bumpBlur = radius
	}
}

// WithWorkers evaluates pixels on n goroutines. Values below 2 keep
// evaluation on the calling goroutine. Call Close to stop the workers.
func WithWorkers(n int) SoftwareOption {
	return func(r *SoftwareRenderer) {
		if n > 1 {
			r.workers = parallel.NewPool(n)
		}
	}
}

// WithResampleCache keeps up to n resampled layer images between renders.
// Zero disables the cache.
func WithResampleCache(n int) SoftwareOption {
	return func(r *SoftwareRenderer) {
		r.resampled = nil
		if n > 0 {
			r.resampled = cache.New[resampleKey, *image.Buf](n)
		}
	}
}

// NewSoftwareRenderer creates a new CPU renderer.
func NewSoftwareRenderer(opts ...SoftwareOption) *SoftwareRenderer {
	r := &SoftwareRenderer{
		pool:      image.NewPool(32),
		resampled: cache.New[resampleKey, *image.Buf](DefaultResampleCache),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close stops the worker goroutines, if any.
func (r *SoftwareRenderer) Close() {
	r.workers.Close()
}

// CacheStats reports resample cache traffic.
func (r *SoftwareRenderer) CacheStats() cache.Stats {
	if r.resampled == nil {
		return cache.Stats{}
	}
	return r.resampled.Stats()
}

// Render evaluates the material of obj and writes pass into dst.
//
// Four-channel targets receive RGB with alpha 1. Single-channel targets
// receive the luminance of the result.
func (r *SoftwareRenderer) Render(ctx context.Context, obj *Object, pass Pass, dst *Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dst == nil || dst.Image == nil || dst.Image.Removed() {
		return ErrNilTarget
	}
	if obj == nil || obj.Material == nil || obj.Material.Tree == nil {
		return ErrNoMaterial
	}
	tree := obj.Material.Tree
	out := tree.MaterialOutput()
	if out == nil {
		return fmt.Errorf("%w: %s", ErrNoOutput, obj.Material.Name)
	}

	w, h := dst.Width(), dst.Height()
	e := newEvaluator(w, h, obj, r)
	defer e.release()
	root := &frame{tree: tree}

	var result *field
	switch pass {
	case PassNormal:
		result = e.shadingNormal(root, out)
	default:
		result = e.input(root, out, 0)
	}

	buf := dst.Image.Buffer()
	for y := range h {
		for x := range w {
			v := result.at(y*w + x)
			switch pass {
			case PassNormal:
				v = [4]float32{v[0]*0.5 + 0.5, v[1]*0.5 + 0.5, v[2]*0.5 + 0.5, 1}
			default:
				v[3] = 1
			}
			if buf.Channels() == 1 {
				v[0] = luminance(v)
			}
			if err := buf.Set(x, y, v); err != nil {
				return fmt.Errorf("render: write %s: %w", dst.Image.Name(), err)
			}
		}
	}
	logger().Debug("rendered pass",
		"object", obj.Name, "material", obj.Material.Name, "pass", pass, "size", fmt.Sprintf("%dx%d", w, h))
	return nil
}

// shadingNormal returns the normal input of the shader feeding out, or
// the geometric normal when the surface is not a shader.
func (e *evaluator) shadingNormal(root *frame, out *shadergraph.Node) *field {
	l, ok := root.tree.Incoming(out, 0)
	if !ok {
		return constant(flatNormal)
	}
	switch l.From.Type {
	case shadergraph.TypePrincipled, shadergraph.TypeDiffuse:
		n := e.inputNamed(root, l.From, "Normal")
		return e.apply([]*field{n}, func(v [][4]float32) [4]float32 {
			return vec4(unit(vec3(v[0])), 0)
		})
	}
	return constant(flatNormal)
}
