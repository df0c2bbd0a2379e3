// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/compile"
	"github.com/gogpu/paintlayers/internal/cache"
	"github.com/gogpu/paintlayers/shadergraph"
)

type fixture struct {
	lib   *shadergraph.Library
	ws    *Workspace
	store *paintlayers.ImageStore
	mat   *Material
	plane *Object
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lib := shadergraph.NewLibrary()
	ws := NewWorkspace(lib)
	mat := ws.NewMaterial("Test")
	return &fixture{
		lib:   lib,
		ws:    ws,
		store: paintlayers.NewImageStore(),
		mat:   mat,
		plane: ws.NewPlane("Plane", ws.NewScene("Test"), mat),
	}
}

// image creates a w x h image whose pixels come from fn.
func (f *fixture) image(t *testing.T, w, h int, fn func(x, y int) [4]float32) *paintlayers.Image {
	t.Helper()
	img, err := f.store.New(f.store.NextName("Image"), w, h, 4)
	if err != nil {
		t.Fatal(err)
	}
	for y := range h {
		for x := range w {
			if err := img.Buffer().Set(x, y, fn(x, y)); err != nil {
				t.Fatal(err)
			}
		}
	}
	return img
}

func solid(c [4]float32) func(int, int) [4]float32 {
	return func(int, int) [4]float32 { return c }
}

func (f *fixture) render(t *testing.T, pass Pass, w, h, channels int) *paintlayers.Image {
	t.Helper()
	return f.renderWith(t, NewSoftwareRenderer(), pass, w, h, channels)
}

func (f *fixture) renderWith(t *testing.T, r *SoftwareRenderer, pass Pass, w, h, channels int) *paintlayers.Image {
	t.Helper()
	img, err := f.store.New(f.store.NextName("Target"), w, h, channels)
	if err != nil {
		t.Fatal(err)
	}
	format := gputypes.TextureFormatRGBA8Unorm
	if channels == 1 {
		format = gputypes.TextureFormatR8Unorm
	}
	tgt, err := NewTarget(img, format)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(context.Background(), f.plane, pass, tgt); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return img
}

func (f *fixture) connect(t *testing.T, from *shadergraph.Node, out string, to *shadergraph.Node, in string) {
	t.Helper()
	if err := f.mat.Tree.Connect(from, out, to, in); err != nil {
		t.Fatal(err)
	}
}

func near(a, b float32) bool { return math32.Abs(a-b) < 1e-3 }

func nearRGB(a, b [4]float32) bool { return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2]) }

func TestRenderImagePassThrough(t *testing.T) {
	f := newFixture(t)
	src := f.image(t, 4, 4, func(x, y int) [4]float32 {
		return [4]float32{float32(x) / 4, float32(y) / 4, 0.5, 0.25}
	})
	tr := f.mat.Tree
	n := tr.AddNode(shadergraph.TypeImage, "")
	n.Image = src
	f.connect(t, n, "Color", tr.MaterialOutput(), "Surface")

	got := f.render(t, PassEmit, 4, 4, 4)
	for y := range 4 {
		for x := range 4 {
			want := src.At(x, y)
			c := got.At(x, y)
			if !nearRGB(c, want) || c[3] != 1 {
				t.Fatalf("pixel (%d,%d) = %v, want %v with alpha 1", x, y, c, want)
			}
		}
	}
}

func TestRenderResamplesToTarget(t *testing.T) {
	f := newFixture(t)
	src := f.image(t, 2, 2, solid([4]float32{0.25, 0.5, 0.75, 1}))
	tr := f.mat.Tree
	n := tr.AddNode(shadergraph.TypeImage, "")
	n.Image = src
	n.Interpolation = paintlayers.InterpCubic
	f.connect(t, n, "Color", tr.MaterialOutput(), "Surface")

	got := f.render(t, PassEmit, 8, 8, 4)
	if c := got.At(5, 3); !nearRGB(c, [4]float32{0.25, 0.5, 0.75, 1}) {
		t.Errorf("resampled pixel = %v", c)
	}
}

// stackFixture compiles a diffuse stack and routes one output of its
// group to the material output.
func (f *fixture) compileStack(t *testing.T, s *paintlayers.Stack, output string) {
	t.Helper()
	res, err := compile.New(f.lib).Compile(s)
	if err != nil {
		t.Fatal(err)
	}
	g := res.Graph(paintlayers.Diffuse)
	if g == nil {
		t.Fatal("no diffuse graph")
	}
	tr := f.mat.Tree
	out := tr.MaterialOutput()
	tr.Clear(func(n *shadergraph.Node) bool { return n == out })
	gn := tr.AddGroup(g.Tree, "")
	f.connect(t, gn, output, out, "Surface")
}

func TestRenderMixChain(t *testing.T) {
	f := newFixture(t)
	s := paintlayers.NewStack("Set_01", &paintlayers.Material{Name: "Mat"})
	a := paintlayers.NewLayer(f.image(t, 4, 4, solid([4]float32{0.2, 0.4, 0.6, 1})), paintlayers.Diffuse)
	b := paintlayers.NewLayer(f.image(t, 4, 4, solid([4]float32{1, 0, 0, 1})), paintlayers.Diffuse)
	b.Opacity = 0.5
	s.Add(a)
	s.Add(b)
	f.compileStack(t, s, "Result")

	got := f.render(t, PassEmit, 4, 4, 4)
	if c := got.At(1, 2); !nearRGB(c, [4]float32{0.6, 0.2, 0.3}) {
		t.Errorf("mixed = %v, want {0.6 0.2 0.3}", c)
	}
}

func TestRenderAlphaMonotonic(t *testing.T) {
	modes := []paintlayers.BlendMode{
		paintlayers.BlendMix, paintlayers.BlendMultiply, paintlayers.BlendSubtract,
		paintlayers.BlendDarken, paintlayers.BlendDifference, paintlayers.BlendValue,
	}
	alphas := []func(x, y int) float32{
		func(x, y int) float32 { return float32(x) / 7 },
		func(x, y int) float32 { return 0.1 },
		func(x, y int) float32 { return float32(7-y) / 7 },
		func(x, y int) float32 { return 0 },
		func(x, y int) float32 { return float32((x+y)%3) / 2 },
		func(x, y int) float32 { return 0.95 },
	}
	f := newFixture(t)
	var layers []*paintlayers.Layer
	for i, alpha := range alphas {
		img := f.image(t, 8, 8, func(x, y int) [4]float32 {
			return [4]float32{0.3, float32(i) / 6, 0.9, alpha(x, y)}
		})
		l := paintlayers.NewLayer(img, paintlayers.Diffuse)
		l.Blend = modes[i%len(modes)]
		l.Opacity = float32(i+1) / float32(len(alphas))
		layers = append(layers, l)
	}

	var prev *paintlayers.Image
	for k := 1; k <= len(layers); k++ {
		s := paintlayers.NewStack("Set_01", &paintlayers.Material{Name: "Mat"})
		for _, l := range layers[:k] {
			s.Add(l)
		}
		f.compileStack(t, s, "Alpha")
		got := f.render(t, PassEmit, 8, 8, 4)
		if prev != nil {
			for y := range 8 {
				for x := range 8 {
					if got.At(x, y)[0] < prev.At(x, y)[0]-1e-6 {
						t.Fatalf("layer %d: alpha at (%d,%d) fell from %v to %v",
							k, x, y, prev.At(x, y)[0], got.At(x, y)[0])
					}
				}
			}
		}
		prev = got
	}
}

func TestRenderSingleChannelTarget(t *testing.T) {
	f := newFixture(t)
	tr := f.mat.Tree
	v := tr.AddNode(shadergraph.TypeValue, "")
	v.Outputs[0].Default[0] = 0.7
	f.connect(t, v, "Value", tr.MaterialOutput(), "Surface")

	got := f.render(t, PassEmit, 2, 2, 1)
	if c := got.At(1, 1); !near(c[0], 0.7) {
		t.Errorf("gray = %v, want 0.7", c[0])
	}
}

func TestRenderNormalPass(t *testing.T) {
	ramp := func(x, y int) [4]float32 {
		v := float32(x) / 8
		return [4]float32{v, v, v, 1}
	}
	tests := []struct {
		name   string
		height func(x, y int) [4]float32
		invert bool
		check  func(c [4]float32) bool
	}{
		{"flat", nil, false, func(c [4]float32) bool { return nearRGB(c, [4]float32{0.5, 0.5, 1}) }},
		{"constant height", solid([4]float32{0.3, 0.3, 0.3, 1}), false, func(c [4]float32) bool {
			return nearRGB(c, [4]float32{0.5, 0.5, 1})
		}},
		{"rising height", ramp, false, func(c [4]float32) bool { return c[0] < 0.4 && near(c[1], 0.5) && c[2] > 0.5 }},
		{"inverted", ramp, true, func(c [4]float32) bool { return c[0] > 0.6 && near(c[1], 0.5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tr := f.mat.Tree
			shader := tr.AddNode(shadergraph.TypePrincipled, "")
			f.connect(t, shader, "BSDF", tr.MaterialOutput(), "Surface")
			if tt.height != nil {
				bump := tr.AddNode(shadergraph.TypeBump, "")
				bump.Invert = tt.invert
				img := tr.AddNode(shadergraph.TypeImage, "")
				img.Image = f.image(t, 8, 8, tt.height)
				img.Interpolation = paintlayers.InterpClosest
				f.connect(t, img, "Color", bump, "Height")
				f.connect(t, bump, "Normal", shader, "Normal")
			}
			got := f.render(t, PassNormal, 8, 8, 4)
			if c := got.At(3, 4); !tt.check(c) {
				t.Errorf("encoded normal = %v", c)
			}
		})
	}
}

func TestRenderUVGroup(t *testing.T) {
	f := newFixture(t)
	shift := shadergraph.NewTree("Shift")
	shift.DeclareInput("Vector", shadergraph.SocketVector)
	shift.DeclareOutput("Vector", shadergraph.SocketVector)
	in := shift.AddNode(shadergraph.TypeGroupInput, "")
	out := shift.AddNode(shadergraph.TypeGroupOutput, "")
	add := shift.AddNode(shadergraph.TypeVectorMath, "")
	add.Inputs[1].Default = [4]float32{0.5, 0, 0, 0}
	if err := shift.Connect(in, "Vector", add, "A"); err != nil {
		t.Fatal(err)
	}
	if err := shift.Connect(add, "Vector", out, "Vector"); err != nil {
		t.Fatal(err)
	}
	f.lib.AddGroup(shift)

	tr := f.mat.Tree
	g := tr.AddGroup(shift, "")
	img := tr.AddNode(shadergraph.TypeImage, "")
	img.Interpolation = paintlayers.InterpClosest
	img.Image = f.image(t, 2, 1, func(x, y int) [4]float32 {
		if x == 0 {
			return [4]float32{1, 0, 0, 1}
		}
		return [4]float32{0, 0, 1, 1}
	})
	f.connect(t, g, "Vector", img, "Vector")
	f.connect(t, img, "Color", tr.MaterialOutput(), "Surface")

	got := f.render(t, PassEmit, 2, 1, 4)
	if c := got.At(0, 0); !nearRGB(c, [4]float32{0, 0, 1}) {
		t.Errorf("left pixel = %v, want blue", c)
	}
	if c := got.At(1, 0); !nearRGB(c, [4]float32{1, 0, 0}) {
		t.Errorf("right pixel = %v, want red", c)
	}
}

func TestRenderHueSatAndInvert(t *testing.T) {
	f := newFixture(t)
	tr := f.mat.Tree
	img := tr.AddNode(shadergraph.TypeImage, "")
	img.Image = f.image(t, 2, 2, solid([4]float32{1, 0, 0, 1}))
	hs := tr.AddNode(shadergraph.TypeHueSat, "")
	hs.Inputs[0].Default[0] = 0.5 + 1.0/3
	inv := tr.AddNode(shadergraph.TypeInvert, "")
	f.connect(t, img, "Color", hs, "Color")
	f.connect(t, hs, "Color", inv, "Color")
	f.connect(t, inv, "Color", tr.MaterialOutput(), "Surface")

	got := f.render(t, PassEmit, 2, 2, 4)
	// red -> green -> magenta
	if c := got.At(0, 0); !nearRGB(c, [4]float32{1, 0, 1}) {
		t.Errorf("pixel = %v, want {1 0 1}", c)
	}
}

func TestMathOp(t *testing.T) {
	tests := []struct {
		op   shadergraph.MathOp
		a, b float32
		want float32
	}{
		{shadergraph.MathAdd, 1, 2, 3},
		{shadergraph.MathSubtract, 1, 2, -1},
		{shadergraph.MathMultiply, 0.5, 0.5, 0.25},
		{shadergraph.MathDivide, 1, 4, 0.25},
		{shadergraph.MathDivide, 1, 0, 0},
		{shadergraph.MathPower, 0.5, 2, 0.25},
		{shadergraph.MathPower, -2, 0.5, 0},
		{shadergraph.MathMinimum, 0.3, 0.2, 0.2},
		{shadergraph.MathMaximum, 0.3, 0.2, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if got := mathOp(tt.op, tt.a, tt.b); !near(got, tt.want) {
				t.Errorf("%v(%v, %v) = %v, want %v", tt.op, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	f := newFixture(t)
	img, _ := f.store.New("t", 2, 2, 4)
	tgt, _ := NewTarget(img, gputypes.TextureFormatRGBA8Unorm)
	r := NewSoftwareRenderer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Render(ctx, f.plane, PassEmit, tgt); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled err = %v", err)
	}
	if err := r.Render(context.Background(), f.plane, PassEmit, nil); !errors.Is(err, ErrNilTarget) {
		t.Errorf("nil target err = %v", err)
	}
	if err := r.Render(context.Background(), &Object{Name: "bare"}, PassEmit, tgt); !errors.Is(err, ErrNoMaterial) {
		t.Errorf("no material err = %v", err)
	}
	f.mat.Tree.Clear(nil)
	if err := r.Render(context.Background(), f.plane, PassEmit, tgt); !errors.Is(err, ErrNoOutput) {
		t.Errorf("no output err = %v", err)
	}
}

func TestRendererFunc(t *testing.T) {
	called := false
	var r Renderer = RendererFunc(func(context.Context, *Object, Pass, *Target) error {
		called = true
		return nil
	})
	_ = r.Render(context.Background(), nil, PassNormal, nil)
	if !called || PassNormal.String() != "NORMAL" || PassEmit.String() != "EMIT" {
		t.Error("RendererFunc or Pass.String mismatch")
	}
}

func TestRenderWorkersMatchSerial(t *testing.T) {
	f := newFixture(t)
	s := paintlayers.NewStack("Set_01", &paintlayers.Material{Name: "Mat"})
	a := paintlayers.NewLayer(f.image(t, 16, 16, func(x, y int) [4]float32 {
		return [4]float32{float32(x) / 16, float32(y) / 16, 0.5, 1}
	}), paintlayers.Diffuse)
	b := paintlayers.NewLayer(f.image(t, 16, 16, func(x, y int) [4]float32 {
		return [4]float32{1, float32(x*y) / 256, 0, float32(y) / 16}
	}), paintlayers.Diffuse)
	b.Blend = paintlayers.BlendOverlay
	s.Add(a)
	s.Add(b)
	f.compileStack(t, s, "Result")

	r := NewSoftwareRenderer(WithWorkers(4))
	defer r.Close()
	serial := f.render(t, PassEmit, 40, 40, 4)
	banded := f.renderWith(t, r, PassEmit, 40, 40, 4)
	for y := range 40 {
		for x := range 40 {
			if a, b := serial.At(x, y), banded.At(x, y); a != b {
				t.Fatalf("pixel (%d,%d): serial %v, workers %v", x, y, a, b)
			}
		}
	}
}

func TestRenderResampleCache(t *testing.T) {
	f := newFixture(t)
	src := f.image(t, 2, 2, solid([4]float32{0.25, 0.5, 0.75, 1}))
	tr := f.mat.Tree
	n := tr.AddNode(shadergraph.TypeImage, "")
	n.Image = src
	f.connect(t, n, "Color", tr.MaterialOutput(), "Surface")

	r := NewSoftwareRenderer()
	f.renderWith(t, r, PassEmit, 8, 8, 4)
	f.renderWith(t, r, PassEmit, 8, 8, 4)
	if st := r.CacheStats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("after repeat render: %+v", st)
	}

	// In-place edits change the content key.
	src.Buffer().Fill([4]float32{1, 0, 0, 1})
	got := f.renderWith(t, r, PassEmit, 8, 8, 4)
	if c := got.At(3, 3); !nearRGB(c, [4]float32{1, 0, 0, 1}) {
		t.Errorf("stale resample after edit: %v", c)
	}
	if st := r.CacheStats(); st.Misses != 2 {
		t.Errorf("edit did not miss: %+v", st)
	}

	off := NewSoftwareRenderer(WithResampleCache(0))
	f.renderWith(t, off, PassEmit, 8, 8, 4)
	if st := off.CacheStats(); st != (cache.Stats{}) {
		t.Errorf("disabled cache stats = %+v", st)
	}
}
