// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/compile"
)

// Merge-down errors.
var (
	// ErrNothingBelow is returned when merging the bottom layer.
	ErrNothingBelow = errors.New("bake: no layer below to merge into")
	// ErrNotMergeable is returned when the layer below is an adjustment.
	ErrNotMergeable = errors.New("bake: layer below is not a base layer")
)

// MergeDown bakes l together with the layer directly below it into the
// lower layer's image, at that image's size.
//
// While baking only the two layers are visible and the compiler's
// combine signal is active. The lower layer keeps its image name; the
// replaced image is renamed with an "_Result_old" suffix. The upper layer
// loses its image and is pruned from s. Visibility of the other layers is
// restored whether or not the merge succeeds, and a failed merge also
// restores the upper layer's channel kind. The stack is recompiled
// afterwards and the lower layer returned.
func (p *Pipeline) MergeDown(ctx context.Context, s *paintlayers.Stack, l *paintlayers.Layer) (*paintlayers.Layer, error) {
	if s.Material == nil {
		return nil, compile.ErrNoMaterial
	}
	below, err := p.mergeDown(ctx, s, l)
	if err != nil {
		p.opts.reporter.Error(err.Error())
		return nil, err
	}
	if _, err := p.compiler.Compile(s); err != nil {
		return below, fmt.Errorf("bake: recompile %s: %w", s.Name, err)
	}
	p.opts.reporter.Info(fmt.Sprintf("Merged into %s", below.Image().Name()))
	return below, nil
}

func (p *Pipeline) mergeDown(ctx context.Context, s *paintlayers.Stack, l *paintlayers.Layer) (below *paintlayers.Layer, err error) {
	i := s.Index(l)
	if i < 0 {
		return nil, paintlayers.ErrLayerNotFound
	}
	if i == 0 {
		return nil, ErrNothingBelow
	}
	below = s.At(i - 1)
	if !below.Kind.IsBase() {
		return nil, fmt.Errorf("%w: %s", ErrNotMergeable, below)
	}
	kind := l.Kind
	if l.Kind != below.Kind && l.Kind.Coercible() {
		l.Kind = below.Kind
	}

	restore := isolate(s, l, below)
	defer func() {
		restore(err == nil)
		if err != nil {
			l.Kind = kind
		}
	}()

	reset, err := p.combine(true)
	if err != nil {
		return nil, fmt.Errorf("bake: merge: %w", err)
	}
	defer reset()

	g, err := p.compiler.Channel(s, below.Kind)
	if err != nil {
		return nil, fmt.Errorf("bake: merge: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("bake: merge: no %s graph for %s", below.Kind, s.Name)
	}

	old := below.Image()
	j := &job{
		kind:      below.Kind,
		name:      old.Name(),
		policy:    AlphaCombined,
		group:     g.Tree,
		intensity: s.HeightIntensity,
		width:     old.Width(),
		height:    old.Height(),
		uvMap:     s.UVAttribute,
	}
	if below.Kind == paintlayers.Normal {
		j.normals, j.ngroup = true, g.Tree
	}
	cr := p.run(ctx, j)
	if cr.Err != nil {
		return nil, cr.Err
	}

	name := old.Name()
	p.store.Rename(old, name+"_Result_old")
	p.store.Rename(cr.Image, name)
	below.SetImage(cr.Image)
	l.SetImage(nil)
	s.Validate()
	logger().Info("merged layer down", "set", s.Name, "layer", below)
	return below, nil
}

// isolate makes keep the only visible layers of s. The returned function
// restores every other layer; after a failure it restores keep as well.
func isolate(s *paintlayers.Stack, keep ...*paintlayers.Layer) func(ok bool) {
	layers := s.Layers()
	visible := make([]bool, len(layers))
	for i, l := range layers {
		visible[i] = l.Visible
		l.Visible = slices.Contains(keep, l)
	}
	return func(ok bool) {
		for i, l := range layers {
			if ok && slices.Contains(keep, l) {
				continue
			}
			l.Visible = visible[i]
		}
	}
}
