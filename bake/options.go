// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import (
	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/render"
)

// Option configures a Pipeline.
//
// Example:
//
//	p := bake.New(compiler, store,
//	    bake.WithRenderer(render.NewSoftwareRenderer(render.WithBumpBlur(1))),
//	    bake.WithReporter(&msgs))
type Option func(*pipelineOptions)

type pipelineOptions struct {
	renderer render.Renderer
	reporter Reporter
	observe  func(kind paintlayers.ChannelKind, s State)
}

func defaultOptions() pipelineOptions {
	return pipelineOptions{
		renderer: nil, // set to a SoftwareRenderer by New
		reporter: LogReporter(),
	}
}

// WithRenderer sets the renderer that rasterizes bake materials.
func WithRenderer(r render.Renderer) Option {
	return func(o *pipelineOptions) {
		o.renderer = r
	}
}

// WithReporter sets where user-facing messages go.
func WithReporter(r Reporter) Option {
	return func(o *pipelineOptions) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithStateObserver registers fn to be called on every job state change.
func WithStateObserver(fn func(kind paintlayers.ChannelKind, s State)) Option {
	return func(o *pipelineOptions) {
		o.observe = fn
	}
}
