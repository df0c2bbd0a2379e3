// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/compile"
	"github.com/gogpu/paintlayers/internal/image"
	"github.com/gogpu/paintlayers/render"
	"github.com/gogpu/paintlayers/shadergraph"
)

type fixture struct {
	store *paintlayers.ImageStore
	stack *paintlayers.Stack
	msgs  *Messages
	p     *Pipeline
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	msgs := &Messages{}
	c := compile.New(shadergraph.NewLibrary())
	store := paintlayers.NewImageStore()
	return &fixture{
		store: store,
		stack: paintlayers.NewStack("Set_01", &paintlayers.Material{Name: "Iron", Users: 1}),
		msgs:  msgs,
		p:     New(c, store, append([]Option{WithReporter(msgs)}, opts...)...),
	}
}

// layer adds a layer of kind whose image is filled with fn.
func (f *fixture) layer(t *testing.T, kind paintlayers.ChannelKind, w, h int, fn func(x, y int) [4]float32) *paintlayers.Layer {
	t.Helper()
	img, err := f.store.New(f.store.NextName("Layer"), w, h, 4)
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
	l := paintlayers.NewLayer(img, kind)
	f.stack.Add(l)
	return l
}

func solid(c [4]float32) func(int, int) [4]float32 {
	return func(int, int) [4]float32 { return c }
}

func settings(dir string, w, h int) Settings {
	s := DefaultSettings()
	s.SavePath = dir
	s.Width, s.Height = w, h
	s.Object = "Sword"
	return s
}

// fakeRenderer writes a three-channel color pass and a constant alpha
// pass without evaluating the material.
func fakeRenderer(rgb [3]float32, alpha float32) render.Renderer {
	return render.RendererFunc(func(_ context.Context, _ *render.Object, _ render.Pass, dst *render.Target) error {
		if dst.Image.Channels() == 1 {
			dst.Image.Buffer().Fill([4]float32{alpha})
			return nil
		}
		buf := image.MustBuf(dst.Width(), dst.Height(), 3)
		buf.Fill([4]float32{rgb[0], rgb[1], rgb[2]})
		dst.Image.SetBuffer(buf)
		return nil
	})
}

func near(a, b, tol float32) bool {
	d := a - b
	return d <= tol && d >= -tol
}

func TestExportCombinedAlpha(t *testing.T) {
	f := newFixture(t, WithRenderer(fakeRenderer([3]float32{0.2, 0.4, 0.6}, 0.7)))
	f.layer(t, paintlayers.Diffuse, 4, 4, solid([4]float32{1, 1, 1, 1}))
	dir := t.TempDir()

	rep, err := f.p.Export(context.Background(), f.stack, settings(dir, 4, 4))
	if err != nil {
		t.Fatal(err)
	}
	if err := rep.Err(); err != nil {
		t.Fatal(err)
	}
	cr := rep.Channel(paintlayers.Diffuse)
	if cr == nil || cr.Image == nil {
		t.Fatalf("diffuse report = %+v", cr)
	}
	if cr.Image.Channels() != 4 {
		t.Fatalf("channels = %d, want 4", cr.Image.Channels())
	}
	if got := cr.Image.At(2, 3); got != [4]float32{0.2, 0.4, 0.6, 0.7} {
		t.Errorf("baked pixel = %v", got)
	}

	path := filepath.Join(dir, "DIFFUSE.png")
	if !reflect.DeepEqual(cr.Files, []string{path}) {
		t.Fatalf("files = %v", cr.Files)
	}
	saved, err := image.LoadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	for y := range 4 {
		for x := range 4 {
			c := saved.At(x, y)
			if !near(c[0], 0.2, 0.01) || !near(c[1], 0.4, 0.01) || !near(c[2], 0.6, 0.01) || !near(c[3], 0.7, 0.01) {
				t.Fatalf("saved (%d,%d) = %v", x, y, c)
			}
		}
	}
	if f.store.Get("DIFFUSE_a") != nil {
		t.Error("combined alpha image left in the store")
	}
}

func TestExportSoftwareRenderer(t *testing.T) {
	f := newFixture(t)
	f.layer(t, paintlayers.Diffuse, 8, 8, solid([4]float32{0.2, 0.4, 0.6, 1}))
	f.layer(t, paintlayers.Roughness, 8, 8, solid([4]float32{0.3, 0.3, 0.3, 1}))

	rep, err := f.p.Export(context.Background(), f.stack, settings(t.TempDir(), 8, 8))
	if err != nil {
		t.Fatal(err)
	}
	if err := rep.Err(); err != nil {
		t.Fatal(err)
	}
	d := rep.Channel(paintlayers.Diffuse).Image.At(4, 4)
	if !near(d[0], 0.2, 1e-3) || !near(d[1], 0.4, 1e-3) || !near(d[2], 0.6, 1e-3) || !near(d[3], 1, 1e-3) {
		t.Errorf("diffuse = %v", d)
	}
	r := rep.Channel(paintlayers.Roughness).Image.At(0, 0)
	if !near(r[0], 0.3, 1e-3) {
		t.Errorf("roughness = %v", r)
	}

	want := []string{"Done 1/2", "Done 2/2"}
	if got := f.msgs.Texts(slog.LevelInfo); !reflect.DeepEqual(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
	if c := f.p.Workspace().Counts(); !c.Zero() {
		t.Errorf("scratch resources left: %+v", c)
	}
}

func TestExportTemplateName(t *testing.T) {
	f := newFixture(t, WithRenderer(fakeRenderer([3]float32{1, 0, 0}, 1)))
	f.layer(t, paintlayers.Diffuse, 2, 2, solid([4]float32{1, 0, 0, 1}))
	dir := t.TempDir()
	set := settings(dir, 2, 2)
	set.Channels = map[paintlayers.ChannelKind]ChannelSettings{
		paintlayers.Diffuse: {Name: "(set)_(mtl)_(obj)"},
	}

	rep, err := f.p.Export(context.Background(), f.stack, set)
	if err != nil {
		t.Fatal(err)
	}
	if err := rep.Err(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Set_01_Iron_Sword.png")); err != nil {
		t.Errorf("templated file: %v", err)
	}
}

func TestExportSeparateAlpha(t *testing.T) {
	f := newFixture(t, WithRenderer(fakeRenderer([3]float32{0, 1, 0}, 0.5)))
	f.layer(t, paintlayers.Diffuse, 2, 2, solid([4]float32{0, 1, 0, 1}))
	dir := t.TempDir()
	set := settings(dir, 2, 2)
	set.Channels = map[paintlayers.ChannelKind]ChannelSettings{
		paintlayers.Diffuse: {Name: "albedo", Alpha: AlphaSeparate},
	}

	rep, err := f.p.Export(context.Background(), f.stack, set)
	if err != nil {
		t.Fatal(err)
	}
	cr := rep.Channel(paintlayers.Diffuse)
	want := []string{filepath.Join(dir, "albedo.png"), filepath.Join(dir, "albedo_a.png")}
	if !reflect.DeepEqual(cr.Files, want) {
		t.Fatalf("files = %v, want %v", cr.Files, want)
	}
	if cr.Alpha == nil || cr.Alpha.Removed() {
		t.Fatal("separate alpha image was removed")
	}
	if got := cr.Image.At(0, 0)[3]; got != 1 {
		t.Errorf("color alpha = %v, want 1 under separate policy", got)
	}
	alpha, err := image.LoadImage(want[1])
	if err != nil {
		t.Fatal(err)
	}
	if got := alpha.At(1, 1)[0]; !near(got, 0.5, 0.01) {
		t.Errorf("saved alpha = %v", got)
	}
}

func TestExportMissingSavePath(t *testing.T) {
	for _, dir := range []string{"", filepath.Join(t.TempDir(), "missing")} {
		t.Run(dir, func(t *testing.T) {
			f := newFixture(t, WithRenderer(fakeRenderer([3]float32{1, 1, 1}, 1)))
			f.layer(t, paintlayers.Diffuse, 2, 2, solid([4]float32{1, 1, 1, 1}))

			rep, err := f.p.Export(context.Background(), f.stack, settings(dir, 2, 2))
			if err != nil {
				t.Fatal(err)
			}
			cr := rep.Channel(paintlayers.Diffuse)
			if cr.Err != nil || cr.Image == nil {
				t.Fatalf("report = %+v", cr)
			}
			if len(cr.Files) != 0 {
				t.Errorf("files = %v", cr.Files)
			}
			if len(cr.Warnings) != 1 || !errors.Is(cr.Warnings[0], ErrNoSavePath) {
				t.Errorf("warnings = %v", cr.Warnings)
			}
			if len(f.msgs.Texts(slog.LevelWarn)) != 1 {
				t.Errorf("warn messages = %v", f.msgs.Texts(slog.LevelWarn))
			}
		})
	}
}

func TestExportTeardownOnFailure(t *testing.T) {
	boom := errors.New("device lost")
	failing := render.RendererFunc(func(context.Context, *render.Object, render.Pass, *render.Target) error {
		return boom
	})
	var states []State
	f := newFixture(t,
		WithRenderer(failing),
		WithStateObserver(func(_ paintlayers.ChannelKind, s State) { states = append(states, s) }))
	f.layer(t, paintlayers.Diffuse, 2, 2, solid([4]float32{1, 1, 1, 1}))
	f.layer(t, paintlayers.Metallic, 2, 2, solid([4]float32{1, 1, 1, 1}))
	images := f.store.Len()

	rep, err := f.p.Export(context.Background(), f.stack, settings(t.TempDir(), 2, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Channels) != 2 {
		t.Fatalf("channels = %d, want both attempted", len(rep.Channels))
	}
	for _, cr := range rep.Channels {
		if !errors.Is(cr.Err, boom) {
			t.Errorf("%v error = %v", cr.Kind, cr.Err)
		}
	}
	if c := f.p.Workspace().Counts(); !c.Zero() {
		t.Errorf("scratch resources left: %+v", c)
	}
	if got := f.store.Len(); got != images {
		t.Errorf("store holds %d images, want %d", got, images)
	}
	if f.p.State() != Failed {
		t.Errorf("state = %v, want Failed", f.p.State())
	}
	want := []State{PreparingContext, Rendering, TearingDown, Failed}
	if !reflect.DeepEqual(states[:4], want) {
		t.Errorf("states = %v, want prefix %v", states, want)
	}
	if len(f.msgs.Texts(slog.LevelError)) != 2 {
		t.Errorf("errors reported = %v", f.msgs.Texts(slog.LevelError))
	}
}

func TestExportHeightToNormal(t *testing.T) {
	flat := [4]float32{0.5, 0.5, 1, 1}
	tests := []struct {
		name      string
		kinds     []paintlayers.ChannelKind
		wantKinds []paintlayers.ChannelKind
		wantName  string
	}{
		{"folded into normal", []paintlayers.ChannelKind{paintlayers.Normal, paintlayers.Height},
			[]paintlayers.ChannelKind{paintlayers.Normal}, "NORMAL"},
		{"height alone", []paintlayers.ChannelKind{paintlayers.Height},
			[]paintlayers.ChannelKind{paintlayers.Height}, "NORMAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, k := range tt.kinds {
				c := flat
				if k == paintlayers.Height {
					c = [4]float32{0.5, 0.5, 0.5, 1}
				}
				f.layer(t, k, 4, 4, solid(c))
			}
			set := settings(t.TempDir(), 4, 4)
			set.HeightToNormal = true

			rep, err := f.p.Export(context.Background(), f.stack, set)
			if err != nil {
				t.Fatal(err)
			}
			var kinds []paintlayers.ChannelKind
			for _, cr := range rep.Channels {
				kinds = append(kinds, cr.Kind)
			}
			if !reflect.DeepEqual(kinds, tt.wantKinds) {
				t.Fatalf("baked kinds = %v, want %v", kinds, tt.wantKinds)
			}
			cr := rep.Channels[0]
			if cr.Err != nil {
				t.Fatal(cr.Err)
			}
			if cr.Name != tt.wantName {
				t.Errorf("name = %q, want %q", cr.Name, tt.wantName)
			}
			// Flat height under any normal bakes to a mostly-up normal.
			if b := cr.Image.At(2, 2)[2]; b < 0.75 {
				t.Errorf("normal blue = %v", b)
			}
		})
	}
}

func TestExportInvalidTemplate(t *testing.T) {
	f := newFixture(t, WithRenderer(fakeRenderer([3]float32{1, 1, 1}, 1)))
	f.layer(t, paintlayers.Diffuse, 2, 2, solid([4]float32{1, 1, 1, 1}))
	f.layer(t, paintlayers.Roughness, 2, 2, solid([4]float32{1, 1, 1, 1}))
	set := settings(t.TempDir(), 2, 2)
	set.Channels = map[paintlayers.ChannelKind]ChannelSettings{
		paintlayers.Diffuse: {Name: "(material)"},
	}

	rep, err := f.p.Export(context.Background(), f.stack, set)
	if err != nil {
		t.Fatal(err)
	}
	if err := rep.Channel(paintlayers.Diffuse).Err; !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("diffuse error = %v", err)
	}
	if cr := rep.Channel(paintlayers.Roughness); cr.Err != nil || len(cr.Files) != 1 {
		t.Errorf("roughness report = %+v", cr)
	}
}

func TestExportErrors(t *testing.T) {
	f := newFixture(t)
	f.layer(t, paintlayers.Diffuse, 2, 2, solid([4]float32{1, 1, 1, 1}))

	if _, err := f.p.Export(context.Background(), f.stack, settings("", 0, 4)); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero width error = %v", err)
	}
	f.stack.Material = nil
	if _, err := f.p.Export(context.Background(), f.stack, settings("", 4, 4)); !errors.Is(err, compile.ErrNoMaterial) {
		t.Errorf("no material error = %v", err)
	}
}

func TestExportDisabledChannel(t *testing.T) {
	f := newFixture(t, WithRenderer(fakeRenderer([3]float32{1, 1, 1}, 1)))
	f.layer(t, paintlayers.Diffuse, 2, 2, solid([4]float32{1, 1, 1, 1}))
	f.layer(t, paintlayers.Emission, 2, 2, solid([4]float32{1, 1, 1, 1}))
	set := settings(t.TempDir(), 2, 2)
	set.Channels = map[paintlayers.ChannelKind]ChannelSettings{
		paintlayers.Emission: {Disabled: true},
	}

	rep, err := f.p.Export(context.Background(), f.stack, set)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Channels) != 1 || rep.Channels[0].Kind != paintlayers.Diffuse {
		t.Errorf("channels = %+v", rep.Channels)
	}
}

func TestExportHeightWithAlpha(t *testing.T) {
	tests := []struct {
		policy AlphaPolicy
		want   [4]float32
	}{
		{AlphaCombined, [4]float32{0.2, 0.2, 0.2, 0.5}},
		{AlphaSeparate, [4]float32{0.05, 0.05, 0.05, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			f := newFixture(t)
			f.layer(t, paintlayers.Height, 4, 4, solid([4]float32{0.2, 0.2, 0.2, 0.5}))
			set := settings(t.TempDir(), 4, 4)
			set.Channels = map[paintlayers.ChannelKind]ChannelSettings{
				paintlayers.Height: {Alpha: tt.policy},
			}

			rep, err := f.p.Export(context.Background(), f.stack, set)
			if err != nil {
				t.Fatal(err)
			}
			if err := rep.Err(); err != nil {
				t.Fatal(err)
			}
			got := rep.Channel(paintlayers.Height).Image.At(1, 2)
			for i := range got {
				if !near(got[i], tt.want[i], 1e-3) {
					t.Fatalf("height pixel = %v, want %v", got, tt.want)
				}
			}
			if f.p.Compiler().CombineActive() {
				t.Error("combine signal left active")
			}
		})
	}
}

func TestExportWriteFailureKeepsOtherFile(t *testing.T) {
	f := newFixture(t, WithRenderer(fakeRenderer([3]float32{0, 1, 0}, 0.5)))
	f.layer(t, paintlayers.Diffuse, 2, 2, solid([4]float32{0, 1, 0, 1}))
	dir := t.TempDir()
	// A directory in the way of the color file.
	if err := os.Mkdir(filepath.Join(dir, "albedo.png"), 0o755); err != nil {
		t.Fatal(err)
	}
	set := settings(dir, 2, 2)
	set.Channels = map[paintlayers.ChannelKind]ChannelSettings{
		paintlayers.Diffuse: {Name: "albedo", Alpha: AlphaSeparate},
	}

	rep, err := f.p.Export(context.Background(), f.stack, set)
	if err != nil {
		t.Fatal(err)
	}
	cr := rep.Channel(paintlayers.Diffuse)
	if cr.Err == nil {
		t.Error("color write failure not reported")
	}
	want := []string{filepath.Join(dir, "albedo_a.png")}
	if !reflect.DeepEqual(cr.Files, want) {
		t.Errorf("files = %v, want %v", cr.Files, want)
	}
	if _, err := os.Stat(want[0]); err != nil {
		t.Errorf("alpha file: %v", err)
	}
	if len(f.msgs.Texts(slog.LevelError)) != 1 {
		t.Errorf("error messages = %v", f.msgs.Texts(slog.LevelError))
	}
}
