// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package preview

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/shadergraph"
)

// Generation errors.
var (
	// ErrNoOutput is returned for a material tree without an output node.
	ErrNoOutput = errors.New("preview: material has no output node")
	// ErrCycle is returned when links form a loop.
	ErrCycle = errors.New("preview: node graph contains a cycle")
)

const (
	zero4      = "vec4<f32>(0.0, 0.0, 0.0, 0.0)"
	flatNormal = "vec4<f32>(0.0, 0.0, 1.0, 0.0)"
)

type frame struct {
	tree   *shadergraph.Tree
	group  *shadergraph.Node
	parent *frame
}

type frameNode struct {
	f *frame
	n *shadergraph.Node
}

type textureKey struct {
	img    *paintlayers.Image
	filter gputypes.FilterMode
}

// generator emits the fragment body of one material. Every socket value
// is a vec4<f32>; floats live in x.
type generator struct {
	body  strings.Builder
	funcs strings.Builder
	vars  int
	ramps int

	memo     map[frameNode][]string
	frames   map[frameNode]*frame
	visiting map[frameNode]bool

	textures map[textureKey]int
	bindings []Binding
	err      error
}

// Generate emits the WGSL module previewing material tree t. The result
// carries the source and texture bindings but no SPIR-V.
func Generate(t *shadergraph.Tree) (*Shader, error) {
	out := t.MaterialOutput()
	if out == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoOutput, t.Name)
	}
	g := &generator{
		memo:     make(map[frameNode][]string),
		frames:   make(map[frameNode]*frame),
		visiting: make(map[frameNode]bool),
		textures: make(map[textureKey]int),
	}
	root := &frame{tree: t}
	surface := g.input(root, out, out.Input("Surface"))
	if g.err != nil {
		return nil, fmt.Errorf("preview: %s: %w", t.Name, g.err)
	}

	var src strings.Builder
	for _, b := range g.bindings {
		fmt.Fprintf(&src, "@group(%d) @binding(%d) var tex%d: texture_2d<f32>;\n", b.Group, b.Texture, b.Texture/2)
		fmt.Fprintf(&src, "@group(%d) @binding(%d) var samp%d: sampler;\n", b.Group, b.Sampler, b.Texture/2)
	}
	if len(g.bindings) > 0 {
		src.WriteString("\n")
	}
	src.WriteString(prelude)
	src.WriteString("\n")
	src.WriteString(g.funcs.String())
	src.WriteString(vertexStage)
	src.WriteString("\n@fragment\nfn fs_main(frag: VertexOutput) -> @location(0) vec4<f32> {\n")
	src.WriteString("    let uv = vec4<f32>(frag.uv.x, frag.uv.y, 0.0, 0.0);\n")
	src.WriteString("    let duv = vec2<f32>(dpdx(frag.uv.x), dpdy(frag.uv.y));\n")
	src.WriteString(g.body.String())
	fmt.Fprintf(&src, "    return vec4<f32>(%s.xyz, 1.0);\n}\n", surface)

	return &Shader{Material: t.Name, Source: src.String(), Bindings: g.bindings}, nil
}

// let binds expr to a fresh name.
func (g *generator) let(expr string) string {
	name := "v" + strconv.Itoa(g.vars)
	g.vars++
	fmt.Fprintf(&g.body, "    let %s = %s;\n", name, expr)
	return name
}

func (g *generator) child(fr *frame, n *shadergraph.Node) *frame {
	key := frameNode{fr, n}
	if c, ok := g.frames[key]; ok {
		return c
	}
	c := &frame{tree: n.Group, group: n, parent: fr}
	g.frames[key] = c
	return c
}

// input returns the expression reaching input i of n, converted to its
// socket type.
func (g *generator) input(fr *frame, n *shadergraph.Node, i int) string {
	if i < 0 || i >= len(n.Inputs) {
		return zero4
	}
	s := n.Inputs[i]
	if l, ok := fr.tree.Incoming(n, i); ok {
		src := g.outputs(fr, l.From)[l.Out]
		return convert(src, l.From.Outputs[l.Out].Type, s.Type)
	}
	if s.Implicit {
		if s.Name == "Normal" {
			return flatNormal
		}
		return "uv"
	}
	return vec4(s.Default)
}

func (g *generator) inputNamed(fr *frame, n *shadergraph.Node, name string) string {
	return g.input(fr, n, n.Input(name))
}

func (g *generator) outputs(fr *frame, n *shadergraph.Node) []string {
	key := frameNode{fr, n}
	if outs, ok := g.memo[key]; ok {
		return outs
	}
	if g.visiting[key] {
		if g.err == nil {
			g.err = fmt.Errorf("%w: at %s", ErrCycle, n)
		}
		return zeros(len(n.Outputs))
	}
	g.visiting[key] = true
	if name := comment(n); name != "" {
		fmt.Fprintf(&g.body, "    // %s\n", name)
	}
	outs := g.compute(fr, n)
	delete(g.visiting, key)
	for len(outs) < len(n.Outputs) {
		outs = append(outs, zero4)
	}
	g.memo[key] = outs
	return outs
}

func (g *generator) compute(fr *frame, n *shadergraph.Node) []string {
	switch n.Type {
	case shadergraph.TypeImage:
		return g.image(fr, n)
	case shadergraph.TypeMix:
		return []string{g.mix(fr, n)}
	case shadergraph.TypeMath:
		return []string{g.math(fr, n)}
	case shadergraph.TypeVectorMath:
		return []string{g.vectorMath(fr, n)}
	case shadergraph.TypeHueSat:
		return []string{g.let(fmt.Sprintf("hue_sat(%s.x, %s.x, %s.x, %s.x, %s)",
			g.input(fr, n, 0), g.input(fr, n, 1), g.input(fr, n, 2), g.input(fr, n, 3), g.input(fr, n, 4)))}
	case shadergraph.TypeRamp:
		return g.ramp(fr, n)
	case shadergraph.TypeInvert:
		return []string{g.let(fmt.Sprintf("invert(%s.x, %s)", g.input(fr, n, 0), g.input(fr, n, 1)))}
	case shadergraph.TypeGroup:
		return g.group(fr, n)
	case shadergraph.TypeGroupInput:
		return g.groupInput(fr, n)
	case shadergraph.TypeAttribute:
		return []string{g.let("vec4<f32>(uv.x, uv.y, 0.0, 1.0)"), "uv", zero4}
	case shadergraph.TypeValue:
		return []string{vec4([4]float32{n.Outputs[0].Default[0]})}
	case shadergraph.TypeNormalMap:
		return []string{g.let(fmt.Sprintf("normal_map(%s.x, %s)", g.input(fr, n, 0), g.input(fr, n, 1)))}
	case shadergraph.TypeBump:
		return []string{g.bump(fr, n)}
	case shadergraph.TypePrincipled:
		return []string{g.let(fmt.Sprintf("shade(%s, %s)", g.inputNamed(fr, n, "Base Color"), g.inputNamed(fr, n, "Normal")))}
	case shadergraph.TypeDiffuse:
		return []string{g.let(fmt.Sprintf("shade(%s, %s)", g.inputNamed(fr, n, "Color"), g.inputNamed(fr, n, "Normal")))}
	}
	return nil
}

func (g *generator) image(fr *frame, n *shadergraph.Node) []string {
	if n.Image.Removed() {
		return []string{"vec4<f32>(0.0, 0.0, 0.0, 1.0)", zero4}
	}
	k := g.texture(n.Image, n.Interpolation)
	coord := g.input(fr, n, 0)
	s := g.let(fmt.Sprintf("textureSample(tex%d, samp%d, vec2<f32>(%s.x, 1.0 - %s.y))", k, k, coord, coord))
	return []string{
		g.let(fmt.Sprintf("vec4<f32>(%s.xyz, 1.0)", s)),
		g.let(fmt.Sprintf("vec4<f32>(%s.w, 0.0, 0.0, 0.0)", s)),
	}
}

// texture returns the slot of img, assigning texture binding 2k and
// sampler binding 2k+1 on first use.
func (g *generator) texture(img *paintlayers.Image, interp paintlayers.Interpolation) int {
	key := textureKey{img, filterMode(interp)}
	if k, ok := g.textures[key]; ok {
		return k
	}
	k := len(g.bindings)
	g.textures[key] = k
	g.bindings = append(g.bindings, Binding{
		Texture: uint32(2 * k),
		Sampler: uint32(2*k + 1),
		Image:   img,
		Format:  gputypes.TextureFormatRGBA8Unorm,
		Filter:  key.filter,
	})
	return k
}

// filterMode maps sampler interpolation onto GPU filtering. Cubic has no
// fixed-function equivalent and samples linearly.
func filterMode(i paintlayers.Interpolation) gputypes.FilterMode {
	if i == paintlayers.InterpClosest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

func (g *generator) mix(fr *frame, n *shadergraph.Node) string {
	fac := g.let(fmt.Sprintf("clamp(%s.x, 0.0, 1.0)", g.input(fr, n, 0)))
	a, b := g.input(fr, n, 1), g.input(fr, n, 2)
	rgb := fmt.Sprintf("%s(%s, %s.xyz, %s.xyz)", blendFunc(n.Blend), fac, a, b)
	if n.Clamp {
		rgb = "clamp3(" + rgb + ")"
	}
	return g.let(fmt.Sprintf("vec4<f32>(%s, %s.w + (%s.w - %s.w) * %s)", rgb, a, b, a, fac))
}

func (g *generator) math(fr *frame, n *shadergraph.Node) string {
	a, b := g.input(fr, n, 0)+".x", g.input(fr, n, 1)+".x"
	var expr string
	switch n.Math {
	case shadergraph.MathAdd:
		expr = a + " + " + b
	case shadergraph.MathSubtract:
		expr = a + " - " + b
	case shadergraph.MathMultiply:
		expr = a + " * " + b
	case shadergraph.MathDivide:
		expr = "safe_div(" + a + ", " + b + ")"
	case shadergraph.MathPower:
		expr = "safe_pow(" + a + ", " + b + ")"
	case shadergraph.MathMinimum:
		expr = "min(" + a + ", " + b + ")"
	case shadergraph.MathMaximum:
		expr = "max(" + a + ", " + b + ")"
	default:
		expr = "0.0"
	}
	if n.Clamp {
		expr = "clamp(" + expr + ", 0.0, 1.0)"
	}
	return g.let("vec4<f32>(" + expr + ", 0.0, 0.0, 0.0)")
}

func (g *generator) vectorMath(fr *frame, n *shadergraph.Node) string {
	a, b := g.input(fr, n, 0), g.input(fr, n, 1)
	switch n.Vector {
	case shadergraph.VectorAdd:
		return g.let(fmt.Sprintf("vec4<f32>(%s.xyz + %s.xyz, 0.0)", a, b))
	case shadergraph.VectorMultiply:
		return g.let(fmt.Sprintf("vec4<f32>(%s.xyz * %s.xyz, 0.0)", a, b))
	default:
		return g.let(fmt.Sprintf("vec4<f32>(safe_normalize(%s.xyz), 0.0)", a))
	}
}

// bump differentiates the height in screen space. The plane spans two
// units across the unit uv square.
func (g *generator) bump(fr *frame, n *shadergraph.Node) string {
	strength := g.input(fr, n, 0)
	distance := g.input(fr, n, 1)
	h := g.let(g.input(fr, n, 2) + ".x")
	normal := g.input(fr, n, 3)
	scale := "0.5"
	if n.Invert {
		scale = "-0.5"
	}
	gx := g.let(fmt.Sprintf("safe_div(dpdx(%s), duv.x) * %s * %s.x", h, scale, distance))
	gy := g.let(fmt.Sprintf("safe_div(dpdy(%s), duv.y) * %s * %s.x", h, scale, distance))
	return g.let(fmt.Sprintf("bump(%s.x, vec2<f32>(%s, %s), %s)", strength, gx, gy, normal))
}

func (g *generator) ramp(fr *frame, n *shadergraph.Node) []string {
	r := n.Ramp
	if r == nil {
		r = shadergraph.NewRamp()
	}
	name := g.rampFunc(r)
	col := g.let(fmt.Sprintf("%s(%s.x)", name, g.input(fr, n, 0)))
	return []string{col, g.let(fmt.Sprintf("vec4<f32>(%s.w, 0.0, 0.0, 0.0)", col))}
}

// rampFunc emits a function evaluating r with its stops unrolled.
func (g *generator) rampFunc(r *shadergraph.Ramp) string {
	name := "ramp" + strconv.Itoa(g.ramps)
	g.ramps++
	w := &g.funcs
	fmt.Fprintf(w, "fn %s(t: f32) -> vec4<f32> {\n", name)
	stops := slices.Clone(r.Stops)
	slices.SortStableFunc(stops, func(a, b shadergraph.RampStop) int { return cmp.Compare(a.Pos, b.Pos) })
	if len(stops) == 0 {
		fmt.Fprintf(w, "    return %s;\n}\n\n", zero4)
		return name
	}
	first, last := stops[0], stops[len(stops)-1]
	fmt.Fprintf(w, "    if t <= %s {\n        return %s;\n    }\n", lit(first.Pos), vec4(first.Color))
	fmt.Fprintf(w, "    if t >= %s {\n        return %s;\n    }\n", lit(last.Pos), vec4(last.Color))
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		fmt.Fprintf(w, "    if t < %s {\n", lit(b.Pos))
		switch span := b.Pos - a.Pos; {
		case r.Constant:
			fmt.Fprintf(w, "        return %s;\n", vec4(a.Color))
		case span <= 0:
			fmt.Fprintf(w, "        return %s;\n", vec4(b.Color))
		default:
			fmt.Fprintf(w, "        return mix4(%s, %s, clamp((t - %s) / %s, 0.0, 1.0));\n",
				vec4(a.Color), vec4(b.Color), lit(a.Pos), lit(span))
		}
		w.WriteString("    }\n")
	}
	fmt.Fprintf(w, "    return %s;\n}\n\n", vec4(last.Color))
	return name
}

func (g *generator) group(fr *frame, n *shadergraph.Node) []string {
	if n.Group == nil {
		return nil
	}
	c := g.child(fr, n)
	gout := n.Group.GroupOutput()
	outs := make([]string, len(n.Outputs))
	for i := range outs {
		if gout == nil || i >= len(gout.Inputs) {
			outs[i] = zero4
			continue
		}
		outs[i] = g.input(c, gout, i)
	}
	return outs
}

func (g *generator) groupInput(fr *frame, n *shadergraph.Node) []string {
	outs := make([]string, len(n.Outputs))
	for i := range outs {
		if fr.group == nil || i >= len(fr.group.Inputs) {
			outs[i] = zero4
			continue
		}
		outs[i] = g.input(fr.parent, fr.group, i)
	}
	return outs
}

// convert applies implicit socket conversions. Shaders carry their
// surface color.
func convert(expr string, from, to shadergraph.SocketType) string {
	from, to = asColor(from), asColor(to)
	if from == to {
		return expr
	}
	return typeName(from) + "_to_" + typeName(to) + "(" + expr + ")"
}

func asColor(t shadergraph.SocketType) shadergraph.SocketType {
	if t == shadergraph.SocketShader {
		return shadergraph.SocketColor
	}
	return t
}

func typeName(t shadergraph.SocketType) string {
	switch t {
	case shadergraph.SocketFloat:
		return "float"
	case shadergraph.SocketVector:
		return "vector"
	default:
		return "color"
	}
}

// lit formats v as a WGSL f32 literal.
func lit(v float32) string {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0.0"
	}
	s := strconv.FormatFloat(f, 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func vec4(v [4]float32) string {
	return "vec4<f32>(" + lit(v[0]) + ", " + lit(v[1]) + ", " + lit(v[2]) + ", " + lit(v[3]) + ")"
}

func zeros(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = zero4
	}
	return out
}

// comment renders a node label safe for a line comment.
func comment(n *shadergraph.Node) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, n.Name)
	if name == "" {
		return ""
	}
	return name + " (" + n.Type.String() + ")"
}
