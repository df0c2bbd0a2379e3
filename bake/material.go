// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import (
	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/shadergraph"
)

// builder wires a bake material. The first failed link sticks.
type builder struct {
	t   *shadergraph.Tree
	out *shadergraph.Node
	err error
}

// newBuilder clears t down to its material output node.
func newBuilder(t *shadergraph.Tree) *builder {
	out := t.MaterialOutput()
	t.Clear(func(n *shadergraph.Node) bool { return n == out })
	if out == nil {
		out = t.AddNode(shadergraph.TypeOutput, "")
	}
	return &builder{t: t, out: out}
}

func (b *builder) link(from *shadergraph.Node, out string, to *shadergraph.Node, in string) {
	if b.err != nil {
		return
	}
	b.err = b.t.Connect(from, out, to, in)
}

func (b *builder) set(n *shadergraph.Node, in string, v ...float32) {
	if b.err != nil {
		return
	}
	b.err = n.SetDefault(in, v...)
}

func (b *builder) math(op shadergraph.MathOp, name string) *shadergraph.Node {
	n := b.t.AddNode(shadergraph.TypeMath, name)
	n.Math = op
	n.Clamp = true
	return n
}

// colorMaterial routes a channel's Result to the output. Under the
// combined policy the color is divided by the squared alpha to undo the
// color fix applied along the mix chain.
func colorMaterial(t *shadergraph.Tree, group *shadergraph.Tree, policy AlphaPolicy) error {
	b := newBuilder(t)
	g := t.AddGroup(group, group.Name)
	if policy != AlphaCombined {
		b.link(g, "Result", b.out, "Surface")
		return b.err
	}
	sq := b.math(shadergraph.MathMultiply, "AlphaSquared")
	b.link(g, "Alpha", sq, "A")
	b.link(g, "Alpha", sq, "B")
	div := t.AddNode(shadergraph.TypeMix, "Unpremultiply")
	div.Blend = paintlayers.BlendDivide
	b.set(div, "Fac", 1)
	b.link(g, "Result", div, "Color1")
	b.link(sq, "Value", div, "Color2")
	b.link(div, "Color", b.out, "Surface")
	return b.err
}

// alphaMaterial routes a channel's accumulated alpha to the output.
func alphaMaterial(t *shadergraph.Tree, group *shadergraph.Tree) error {
	b := newBuilder(t)
	g := t.AddGroup(group, group.Name)
	clamp := b.math(shadergraph.MathMaximum, "Alpha")
	b.link(g, "Alpha", clamp, "A")
	b.set(clamp, "B", 0)
	b.link(clamp, "Value", b.out, "Surface")
	return b.err
}

// normalMaterial shades a diffuse surface whose normal combines the
// normal channel with bump from the height channel. Either group may be
// nil. The normal pass of the renderer reads the shading normal.
func normalMaterial(t *shadergraph.Tree, height, normal *shadergraph.Tree, intensity float32, invertGreen bool) error {
	b := newBuilder(t)
	shader := t.AddNode(shadergraph.TypeDiffuse, "")
	nm := t.AddNode(shadergraph.TypeNormalMap, "")
	bump := t.AddNode(shadergraph.TypeBump, "")
	b.set(bump, "Strength", intensity)
	flip := t.AddNode(shadergraph.TypeVectorMath, "FlipGreen")
	flip.Vector = shadergraph.VectorMultiply
	green := float32(1)
	if invertGreen {
		green = -1
	}
	b.set(flip, "B", 1, green, 1)

	if normal != nil {
		n := t.AddGroup(normal, normal.Name)
		b.link(n, "Result", nm, "Color")
	}
	if height != nil {
		h := t.AddGroup(height, height.Name)
		b.link(h, "Result", bump, "Height")
	}
	b.link(nm, "Normal", bump, "Normal")
	b.link(bump, "Normal", flip, "A")
	b.link(flip, "Vector", shader, "Normal")
	b.link(shader, "BSDF", b.out, "Surface")
	return b.err
}

// normalAlphaMaterial outputs the larger of the height and normal alphas.
func normalAlphaMaterial(t *shadergraph.Tree, height, normal *shadergraph.Tree) error {
	b := newBuilder(t)
	m := b.math(shadergraph.MathMaximum, "Alpha")
	b.set(m, "A", 0)
	b.set(m, "B", 0)
	if height != nil {
		h := t.AddGroup(height, height.Name)
		b.link(h, "Alpha", m, "A")
	}
	if normal != nil {
		n := t.AddGroup(normal, normal.Name)
		b.link(n, "Alpha", m, "B")
	}
	b.link(m, "Value", b.out, "Surface")
	return b.err
}
