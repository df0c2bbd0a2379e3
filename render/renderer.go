// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
)

var (
	// ErrNoOutput is returned when a material has no output node.
	ErrNoOutput = errors.New("render: material has no output node")
	// ErrNoMaterial is returned when an object has no material.
	ErrNoMaterial = errors.New("render: object has no material")
	// ErrNilTarget is returned when rendering to a nil target.
	ErrNilTarget = errors.New("render: nil target")
)

// Pass selects what a render writes.
type Pass uint8

const (
	// PassEmit writes the color reaching the material output.
	PassEmit Pass = iota
	// PassNormal writes the tangent-space shading normal.
	PassNormal
)

// String returns "EMIT" or "NORMAL".
func (p Pass) String() string {
	if p == PassNormal {
		return "NORMAL"
	}
	return "EMIT"
}

// Renderer rasterizes the material of an object into a target.
//
// Render blocks until the whole image is written. The context is only
// checked before work starts; a render in progress is not interrupted.
type Renderer interface {
	Render(ctx context.Context, obj *Object, pass Pass, dst *Target) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, obj *Object, pass Pass, dst *Target) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, obj *Object, pass Pass, dst *Target) error {
	return f(ctx, obj, pass, dst)
}
