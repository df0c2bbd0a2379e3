// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package preview

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/compile"
	"github.com/gogpu/paintlayers/shadergraph"
)

const spirvMagic = 0x07230203

func newStack(t *testing.T, kinds ...paintlayers.ChannelKind) (*paintlayers.Stack, []*paintlayers.Layer) {
	t.Helper()
	store := paintlayers.NewImageStore()
	s := paintlayers.NewStack("Set_01", &paintlayers.Material{Name: "Mat", Users: 1})
	layers := make([]*paintlayers.Layer, len(kinds))
	for i, k := range kinds {
		img, err := store.New(store.NextName("Layer"), 4, 4, 4)
		if err != nil {
			t.Fatal(err)
		}
		layers[i] = paintlayers.NewLayer(img, k)
		s.Add(layers[i])
	}
	return s, layers
}

func installed(t *testing.T, s *paintlayers.Stack) *shadergraph.Tree {
	t.Helper()
	res, err := compile.New(shadergraph.NewLibrary()).Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Installed == nil {
		t.Fatal("no installed material")
	}
	return res.Installed
}

// fragment returns the body of the fragment entry point.
func fragment(t *testing.T, src string) string {
	t.Helper()
	i := strings.Index(src, "fn "+FragmentEntry)
	if i < 0 {
		t.Fatalf("no fragment entry in:\n%s", src)
	}
	return src[i:]
}

func TestGenerateStandard(t *testing.T) {
	s, layers := newStack(t, paintlayers.Diffuse, paintlayers.Diffuse, paintlayers.Normal, paintlayers.Height)
	layers[1].Blend = paintlayers.BlendOverlay
	sh, err := Generate(installed(t, s))
	if err != nil {
		t.Fatal(err)
	}
	if sh.Material != "Mat" {
		t.Errorf("Material = %q", sh.Material)
	}
	for _, want := range []string{
		"@vertex", "@fragment", "fn " + VertexEntry, "fn " + FragmentEntry,
		"@group(0) @binding(0) var tex0: texture_2d<f32>;",
		"@group(0) @binding(1) var samp0: sampler;",
		"@group(0) @binding(7) var samp3: sampler;",
	} {
		if !strings.Contains(sh.Source, want) {
			t.Errorf("source lacks %q", want)
		}
	}
	body := fragment(t, sh.Source)
	for _, want := range []string{"textureSample(tex3, samp3", "blend_overlay(", "= bump(", "dpdx(", "= shade("} {
		if !strings.Contains(body, want) {
			t.Errorf("fragment lacks %q", want)
		}
	}

	if len(sh.Bindings) != len(layers) {
		t.Fatalf("bindings = %d, want %d", len(sh.Bindings), len(layers))
	}
	for i, b := range sh.Bindings {
		if b.Texture != uint32(2*i) || b.Sampler != uint32(2*i+1) || b.Group != 0 {
			t.Errorf("binding %d = %+v", i, b)
		}
		if b.Format != gputypes.TextureFormatRGBA8Unorm {
			t.Errorf("binding %d format = %v", i, b.Format)
		}
	}
	for _, l := range layers {
		if !slices.ContainsFunc(sh.Bindings, func(b Binding) bool { return b.Image == l.Image() }) {
			t.Errorf("no binding samples %s", l.Image().Name())
		}
	}
}

func TestGenerateUnlit(t *testing.T) {
	s, _ := newStack(t, paintlayers.Diffuse)
	s.Shader = paintlayers.ShaderUnlit
	sh, err := Generate(installed(t, s))
	if err != nil {
		t.Fatal(err)
	}
	body := fragment(t, sh.Source)
	if strings.Contains(body, "= shade(") {
		t.Error("unlit material is shaded")
	}
	if !strings.Contains(body, "textureSample(tex0, samp0") {
		t.Error("diffuse layer not sampled")
	}
}

func TestGenerateBlendModes(t *testing.T) {
	tests := []struct {
		mode paintlayers.BlendMode
		want string
	}{
		{paintlayers.BlendMix, "blend_mix("},
		{paintlayers.BlendMultiply, "blend_multiply("},
		{paintlayers.BlendDivide, "blend_divide("},
		{paintlayers.BlendSoftLight, "blend_soft_light("},
		{paintlayers.BlendLinearLight, "blend_linear_light("},
		{paintlayers.BlendHue, "blend_hue("},
		{paintlayers.BlendColor, "blend_color("},
		{paintlayers.BlendMode(99), "blend_mix("},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			tr := shadergraph.NewTree("Mat")
			out := tr.AddNode(shadergraph.TypeOutput, "")
			mix := tr.AddNode(shadergraph.TypeMix, "")
			mix.Blend = tt.mode
			mix.Clamp = true
			if err := tr.Connect(mix, "Color", out, "Surface"); err != nil {
				t.Fatal(err)
			}
			sh, err := Generate(tr)
			if err != nil {
				t.Fatal(err)
			}
			body := fragment(t, sh.Source)
			if !strings.Contains(body, "clamp3("+tt.want) {
				t.Errorf("fragment lacks clamped %q:\n%s", tt.want, body)
			}
			if len(sh.Bindings) != 0 {
				t.Errorf("bindings = %v", sh.Bindings)
			}
		})
	}
}

func TestEveryBlendModeHasAFunction(t *testing.T) {
	for m := paintlayers.BlendMix; m <= paintlayers.BlendLinearLight; m++ {
		name := blendFunc(m)
		if !strings.Contains(prelude, "fn "+name+"(") {
			t.Errorf("%v maps to undefined %s", m, name)
		}
		if m != paintlayers.BlendMix && name == "blend_mix" {
			t.Errorf("%v falls back to blend_mix", m)
		}
	}
}

func TestGenerateConversions(t *testing.T) {
	tr := shadergraph.NewTree("Mat")
	out := tr.AddNode(shadergraph.TypeOutput, "")
	val := tr.AddNode(shadergraph.TypeValue, "")
	val.Outputs[0].Default[0] = 0.25
	inv := tr.AddNode(shadergraph.TypeInvert, "")
	// Float into a color input, color into the surface.
	if err := tr.Connect(val, "Value", inv, "Color"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Connect(inv, "Color", out, "Surface"); err != nil {
		t.Fatal(err)
	}
	sh, err := Generate(tr)
	if err != nil {
		t.Fatal(err)
	}
	body := fragment(t, sh.Source)
	if !strings.Contains(body, "invert(vec4<f32>(1.0, 0.0, 0.0, 0.0).x, float_to_color(vec4<f32>(0.25, 0.0, 0.0, 0.0)))") {
		t.Errorf("unexpected fragment:\n%s", body)
	}
}

func TestGenerateRamp(t *testing.T) {
	tr := shadergraph.NewTree("Mat")
	out := tr.AddNode(shadergraph.TypeOutput, "")
	ramp := tr.AddNode(shadergraph.TypeRamp, "")
	ramp.Ramp = &shadergraph.Ramp{Stops: []shadergraph.RampStop{
		{Pos: 1, Color: [4]float32{1, 1, 1, 1}},
		{Pos: 0.5, Color: [4]float32{1, 0, 0, 1}},
		{Pos: 0, Color: [4]float32{0, 0, 0, 1}},
	}}
	if err := tr.Connect(ramp, "Color", out, "Surface"); err != nil {
		t.Fatal(err)
	}
	sh, err := Generate(tr)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"fn ramp0(t: f32) -> vec4<f32> {",
		"if t <= 0.0 {",
		"if t >= 1.0 {",
		"return mix4(vec4<f32>(0.0, 0.0, 0.0, 1.0), vec4<f32>(1.0, 0.0, 0.0, 1.0), clamp((t - 0.0) / 0.5, 0.0, 1.0));",
		"= ramp0(",
	} {
		if !strings.Contains(sh.Source, want) {
			t.Errorf("source lacks %q", want)
		}
	}
	if i, j := strings.Index(sh.Source, "if t < 0.5"), strings.Index(sh.Source, "if t < 1.0"); i < 0 || j < i {
		t.Error("ramp stops not emitted in position order")
	}
}

func TestGenerateErrors(t *testing.T) {
	empty := shadergraph.NewTree("Empty")
	empty.AddNode(shadergraph.TypeMix, "")
	if _, err := Generate(empty); !errors.Is(err, ErrNoOutput) {
		t.Errorf("no output: error = %v", err)
	}

	loop := shadergraph.NewTree("Loop")
	out := loop.AddNode(shadergraph.TypeOutput, "")
	a := loop.AddNode(shadergraph.TypeMath, "A")
	b := loop.AddNode(shadergraph.TypeMath, "B")
	for _, c := range []struct {
		from, to *shadergraph.Node
		in       string
	}{{a, b, "A"}, {b, a, "A"}} {
		if err := loop.Connect(c.from, "Value", c.to, c.in); err != nil {
			t.Fatal(err)
		}
	}
	if err := loop.Connect(a, "Value", out, "Surface"); err != nil {
		t.Fatal(err)
	}
	if _, err := Generate(loop); !errors.Is(err, ErrCycle) {
		t.Errorf("cycle: error = %v", err)
	}
}

func TestLit(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{-2, "-2.0"},
		{0.25, "0.25"},
		{float32(math.NaN()), "0.0"},
		{float32(math.Inf(1)), "0.0"},
	}
	for _, tt := range tests {
		if got := lit(tt.in); got != tt.want {
			t.Errorf("lit(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWords(t *testing.T) {
	sh := &Shader{SPIRV: []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x03, 0x01, 0x00}}
	got := sh.Words()
	if len(got) != 2 || got[0] != spirvMagic || got[1] != 0x00010300 {
		t.Errorf("Words = %#x", got)
	}
}

func TestCompile(t *testing.T) {
	s, layers := newStack(t,
		paintlayers.Diffuse, paintlayers.AdjustHSV, paintlayers.AdjustRamp, paintlayers.Mask,
		paintlayers.Roughness, paintlayers.Normal, paintlayers.Height)
	layers[0].Blend = paintlayers.BlendHue
	sh, err := Compile(installed(t, s))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	words := sh.Words()
	if len(words) < 5 || words[0] != spirvMagic {
		t.Fatalf("not a SPIR-V module: %d words", len(words))
	}
}

func TestPublisher(t *testing.T) {
	s, layers := newStack(t, paintlayers.Diffuse, paintlayers.Diffuse)
	p := NewPublisher(compile.New(shadergraph.NewLibrary()))

	first, err := p.Publish(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.SPIRV) == 0 || p.Shader("Mat") != first {
		t.Fatal("shader not compiled and stored")
	}
	again, err := p.Publish(s)
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Error("unchanged stack recompiled")
	}

	layers[1].Blend = paintlayers.BlendScreen
	changed, err := p.Publish(s)
	if err != nil {
		t.Fatal(err)
	}
	if changed == first || !strings.Contains(changed.Source, "= vec4<f32>(blend_screen(") {
		t.Error("blend change not republished")
	}

	p.Forget("Mat")
	if p.Shader("Mat") != nil {
		t.Error("Forget kept the shader")
	}

	s.Shader = paintlayers.ShaderCustom
	if _, err := p.Publish(s); !errors.Is(err, ErrCustomShader) {
		t.Errorf("custom shader: error = %v", err)
	}
}
