// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/gogpu/paintlayers/internal/blend"
	"github.com/gogpu/paintlayers/internal/cache"
	"github.com/gogpu/paintlayers/internal/color"
	"github.com/gogpu/paintlayers/internal/filter"
	"github.com/gogpu/paintlayers/internal/image"
	"github.com/gogpu/paintlayers/internal/parallel"
	"github.com/gogpu/paintlayers/shadergraph"
)

// flatNormal is the geometric normal of the render plane.
var flatNormal = [4]float32{0, 0, 1, 0}

// frame is one level of group nesting.
type frame struct {
	tree   *shadergraph.Tree
	group  *shadergraph.Node // group node instancing tree; nil at the root
	parent *frame
}

type frameNode struct {
	f *frame
	n *shadergraph.Node
}

// evaluator computes socket fields of one material over one image.
type evaluator struct {
	w, h      int
	obj       *Object
	pool      *image.Pool
	bumpBlur  float64
	workers   *parallel.Pool
	resampled *cache.Cache[resampleKey, *image.Buf]

	uv     *field
	bufs   []*image.Buf
	memo   map[frameNode][]*field
	frames map[frameNode]*frame
}

func newEvaluator(w, h int, obj *Object, r *SoftwareRenderer) *evaluator {
	e := &evaluator{
		w: w, h: h,
		obj:       obj,
		pool:      r.pool,
		bumpBlur:  r.bumpBlur,
		workers:   r.workers,
		resampled: r.resampled,
		memo:      make(map[frameNode][]*field),
		frames:    make(map[frameNode]*frame),
	}
	e.uv = e.alloc()
	for y := range h {
		for x := range w {
			uv := uvAt(x, y, w, h)
			e.uv.set(y*w+x, [4]float32{uv.X, uv.Y, 0, 0})
		}
	}
	return e
}

// release returns every scratch buffer to the pool.
func (e *evaluator) release() {
	for _, b := range e.bufs {
		e.pool.Put(b)
	}
	e.bufs = nil
}

func (e *evaluator) alloc() *field {
	b := e.pool.Get(e.w, e.h, 4)
	e.bufs = append(e.bufs, b)
	return &field{buf: b}
}

// apply evaluates fn per pixel, in row bands when workers are set.
// Constant inputs give a constant result.
func (e *evaluator) apply(ins []*field, fn func(v [][4]float32) [4]float32) *field {
	vals := make([][4]float32, len(ins))
	varying := false
	for i, f := range ins {
		if f.buf != nil {
			varying = true
		}
		vals[i] = f.c
	}
	if !varying {
		return constant(fn(vals))
	}
	out := e.alloc()
	e.workers.Rows(e.h, func(y0, y1 int) {
		vals := make([][4]float32, len(ins))
		for p := y0 * e.w; p < y1*e.w; p++ {
			for i, f := range ins {
				vals[i] = f.at(p)
			}
			out.set(p, fn(vals))
		}
	})
	return out
}

func (e *evaluator) child(fr *frame, n *shadergraph.Node) *frame {
	key := frameNode{fr, n}
	if c, ok := e.frames[key]; ok {
		return c
	}
	c := &frame{tree: n.Group, group: n, parent: fr}
	e.frames[key] = c
	return c
}

// input returns the value reaching input i of n, converted to its type.
func (e *evaluator) input(fr *frame, n *shadergraph.Node, i int) *field {
	s := n.Inputs[i]
	if l, ok := fr.tree.Incoming(n, i); ok {
		src := e.outputs(fr, l.From)[l.Out]
		from := l.From.Outputs[l.Out].Type
		if from == s.Type {
			return src
		}
		if src.buf == nil {
			return constant(convertValue(src.c, from, s.Type))
		}
		return e.apply([]*field{src}, func(v [][4]float32) [4]float32 {
			return convertValue(v[0], from, s.Type)
		})
	}
	if s.Implicit {
		if s.Name == "Normal" {
			return constant(flatNormal)
		}
		return e.uv
	}
	return constant(s.Default)
}

// inputNamed is input by socket name; a missing socket reads as zero.
func (e *evaluator) inputNamed(fr *frame, n *shadergraph.Node, name string) *field {
	i := n.Input(name)
	if i < 0 {
		return constant([4]float32{})
	}
	return e.input(fr, n, i)
}

// outputs returns every output field of n, memoized per frame.
func (e *evaluator) outputs(fr *frame, n *shadergraph.Node) []*field {
	key := frameNode{fr, n}
	if outs, ok := e.memo[key]; ok {
		return outs
	}
	outs := e.compute(fr, n)
	for len(outs) < len(n.Outputs) {
		outs = append(outs, constant([4]float32{}))
	}
	e.memo[key] = outs
	return outs
}

func (e *evaluator) compute(fr *frame, n *shadergraph.Node) []*field {
	switch n.Type {
	case shadergraph.TypeImage:
		return e.image(fr, n)
	case shadergraph.TypeMix:
		return []*field{e.mix(fr, n)}
	case shadergraph.TypeMath:
		return []*field{e.math(fr, n)}
	case shadergraph.TypeVectorMath:
		return []*field{e.vectorMath(fr, n)}
	case shadergraph.TypeHueSat:
		return []*field{e.hueSat(fr, n)}
	case shadergraph.TypeRamp:
		return e.ramp(fr, n)
	case shadergraph.TypeInvert:
		return []*field{e.invert(fr, n)}
	case shadergraph.TypeGroup:
		return e.group(fr, n)
	case shadergraph.TypeGroupInput:
		return e.groupInput(fr, n)
	case shadergraph.TypeAttribute:
		return e.attribute(n)
	case shadergraph.TypeValue:
		return []*field{constant([4]float32{n.Outputs[0].Default[0]})}
	case shadergraph.TypeNormalMap:
		return []*field{e.normalMap(fr, n)}
	case shadergraph.TypeBump:
		return []*field{e.bump(fr, n)}
	case shadergraph.TypePrincipled:
		return []*field{e.inputNamed(fr, n, "Base Color")}
	case shadergraph.TypeDiffuse:
		return []*field{e.inputNamed(fr, n, "Color")}
	}
	return nil
}

func (e *evaluator) image(fr *frame, n *shadergraph.Node) []*field {
	if n.Image == nil || n.Image.Removed() {
		return []*field{constant([4]float32{0, 0, 0, 1}), constant([4]float32{})}
	}
	src := n.Image.Buffer()
	mode := n.Interpolation.Sampling()
	colorOut, alphaOut := e.alloc(), e.alloc()

	if _, linked := fr.tree.Incoming(n, 0); !linked {
		// Plain UVs sample every texel center, which is a resample.
		scaled, err := e.resample(src, mode)
		if err == nil {
			for y := range e.h {
				for x := range e.w {
					c := scaled.At(x, y)
					p := y*e.w + x
					colorOut.set(p, [4]float32{c[0], c[1], c[2], 1})
					alphaOut.set(p, [4]float32{c[3]})
				}
			}
			return []*field{colorOut, alphaOut}
		}
	}
	vec := e.input(fr, n, 0)
	e.workers.Rows(e.h, func(y0, y1 int) {
		for p := y0 * e.w; p < y1*e.w; p++ {
			uv := vec.at(p)
			c := image.Sample(src, uv[0], uv[1], mode)
			colorOut.set(p, [4]float32{c[0], c[1], c[2], 1})
			alphaOut.set(p, [4]float32{c[3]})
		}
	})
	return []*field{colorOut, alphaOut}
}

func (e *evaluator) mix(fr *frame, n *shadergraph.Node) *field {
	mode := blend.Mode(n.Blend)
	ins := []*field{e.input(fr, n, 0), e.input(fr, n, 1), e.input(fr, n, 2)}
	return e.apply(ins, func(v [][4]float32) [4]float32 {
		fac, a, b := clamp01(v[0][0]), v[1], v[2]
		var rgb blend.RGB
		if n.Clamp {
			rgb = blend.MixClamped(mode, fac, blend.RGB{a[0], a[1], a[2]}, blend.RGB{b[0], b[1], b[2]})
		} else {
			rgb = blend.Mix(mode, fac, blend.RGB{a[0], a[1], a[2]}, blend.RGB{b[0], b[1], b[2]})
		}
		return [4]float32{rgb[0], rgb[1], rgb[2], a[3] + (b[3]-a[3])*fac}
	})
}

func (e *evaluator) math(fr *frame, n *shadergraph.Node) *field {
	ins := []*field{e.input(fr, n, 0), e.input(fr, n, 1)}
	return e.apply(ins, func(v [][4]float32) [4]float32 {
		r := mathOp(n.Math, v[0][0], v[1][0])
		if n.Clamp {
			r = clamp01(r)
		}
		return [4]float32{r}
	})
}

func mathOp(op shadergraph.MathOp, a, b float32) float32 {
	switch op {
	case shadergraph.MathAdd:
		return a + b
	case shadergraph.MathSubtract:
		return a - b
	case shadergraph.MathMultiply:
		return a * b
	case shadergraph.MathDivide:
		if b == 0 {
			return 0
		}
		return a / b
	case shadergraph.MathPower:
		if a < 0 && b != math32.Floor(b) {
			return 0
		}
		return math32.Pow(a, b)
	case shadergraph.MathMinimum:
		return math32.Min(a, b)
	case shadergraph.MathMaximum:
		return math32.Max(a, b)
	}
	return 0
}

func (e *evaluator) vectorMath(fr *frame, n *shadergraph.Node) *field {
	ins := []*field{e.input(fr, n, 0), e.input(fr, n, 1)}
	return e.apply(ins, func(v [][4]float32) [4]float32 {
		a, b := vec3(v[0]), vec3(v[1])
		switch n.Vector {
		case shadergraph.VectorAdd:
			return vec4(ms3.Add(a, b), 0)
		case shadergraph.VectorMultiply:
			return vec4(ms3.MulElem(a, b), 0)
		default:
			return vec4(unit(a), 0)
		}
	})
}

func (e *evaluator) hueSat(fr *frame, n *shadergraph.Node) *field {
	ins := []*field{
		e.input(fr, n, 0), e.input(fr, n, 1), e.input(fr, n, 2),
		e.input(fr, n, 3), e.input(fr, n, 4),
	}
	return e.apply(ins, func(v [][4]float32) [4]float32 {
		hue, sat, val, fac, c := v[0][0], v[1][0], v[2][0], clamp01(v[3][0]), v[4]
		hsv := color.RGBToHSV(c[0], c[1], c[2])
		hsv.H += hue - 0.5
		hsv.S = clamp01(hsv.S * sat)
		hsv.V *= val
		r, g, b := color.HSVToRGB(hsv)
		return [4]float32{
			c[0] + (r-c[0])*fac,
			c[1] + (g-c[1])*fac,
			c[2] + (b-c[2])*fac,
			c[3],
		}
	})
}

func (e *evaluator) ramp(fr *frame, n *shadergraph.Node) []*field {
	r := n.Ramp
	if r == nil {
		r = shadergraph.NewRamp()
	}
	col := e.apply([]*field{e.input(fr, n, 0)}, func(v [][4]float32) [4]float32 {
		return r.Eval(v[0][0])
	})
	alpha := e.apply([]*field{col}, func(v [][4]float32) [4]float32 {
		return [4]float32{v[0][3]}
	})
	return []*field{col, alpha}
}

func (e *evaluator) invert(fr *frame, n *shadergraph.Node) *field {
	ins := []*field{e.input(fr, n, 0), e.input(fr, n, 1)}
	return e.apply(ins, func(v [][4]float32) [4]float32 {
		fac, c := v[0][0], v[1]
		for i := range 3 {
			c[i] += (1 - 2*c[i]) * fac
		}
		return c
	})
}

func (e *evaluator) group(fr *frame, n *shadergraph.Node) []*field {
	outs := make([]*field, len(n.Outputs))
	if n.Group == nil {
		return outs[:0]
	}
	c := e.child(fr, n)
	gout := n.Group.GroupOutput()
	for i := range outs {
		if gout == nil || i >= len(gout.Inputs) {
			outs[i] = constant([4]float32{})
			continue
		}
		outs[i] = e.input(c, gout, i)
	}
	return outs
}

func (e *evaluator) groupInput(fr *frame, n *shadergraph.Node) []*field {
	outs := make([]*field, len(n.Outputs))
	for i := range outs {
		if fr.group == nil || i >= len(fr.group.Inputs) {
			outs[i] = constant([4]float32{})
			continue
		}
		outs[i] = e.input(fr.parent, fr.group, i)
	}
	return outs
}

func (e *evaluator) attribute(n *shadergraph.Node) []*field {
	zero := constant([4]float32{})
	if !e.obj.HasUVMap(n.Attribute) {
		return []*field{constant([4]float32{0, 0, 0, 1}), zero, zero}
	}
	col := e.apply([]*field{e.uv}, func(v [][4]float32) [4]float32 {
		return [4]float32{v[0][0], v[0][1], 0, 1}
	})
	return []*field{col, e.uv, zero}
}

func (e *evaluator) normalMap(fr *frame, n *shadergraph.Node) *field {
	ins := []*field{e.input(fr, n, 0), e.input(fr, n, 1)}
	return e.apply(ins, func(v [][4]float32) [4]float32 {
		strength, c := v[0][0], v[1]
		decoded := unit(ms3.Vec{X: c[0]*2 - 1, Y: c[1]*2 - 1, Z: c[2]*2 - 1})
		return vec4(unit(lerpVec(vec3(flatNormal), decoded, strength)), 0)
	})
}

// bump perturbs the normal by the height gradient. The plane spans two
// units, so one texel is 2/w units wide.
func (e *evaluator) bump(fr *frame, n *shadergraph.Node) *field {
	strength := e.input(fr, n, 0)
	distance := e.input(fr, n, 1)
	height := e.input(fr, n, 2)
	normal := e.input(fr, n, 3)
	if height.buf == nil {
		return e.apply([]*field{normal}, func(v [][4]float32) [4]float32 {
			return vec4(unit(vec3(v[0])), 0)
		})
	}

	h1 := e.pool.Get(e.w, e.h, 1)
	defer e.pool.Put(h1)
	pix := h1.Pix()
	for p := range pix {
		pix[p] = height.at(p)[0]
	}
	src := h1
	if e.bumpBlur > 0 {
		src = filter.Blur(h1, e.bumpBlur)
	}
	dx, dy := filter.Gradient(src, filter.GradientCentral)
	gx, gy := dx.Pix(), dy.Pix()
	sx, sy := float32(e.w)/2, float32(e.h)/2
	sign := float32(1)
	if n.Invert {
		sign = -1
	}

	out := e.alloc()
	for p := range e.w * e.h {
		s, d := strength.at(p)[0], distance.at(p)[0]
		n0 := unit(vec3(normal.at(p)))
		g := ms3.Vec{X: gx[p] * sx * d * sign, Y: gy[p] * sy * d * sign}
		perturbed := unit(ms3.Sub(n0, g))
		out.set(p, vec4(unit(lerpVec(n0, perturbed, clamp01(s))), 0))
	}
	return out
}
