package compile

import (
	"errors"
	"testing"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/shadergraph"
)

func compileStack(t *testing.T, c *Compiler, s *paintlayers.Stack) *Result {
	t.Helper()
	res, err := c.Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

func TestCompileGroupInterface(t *testing.T) {
	s, _ := testStack(t, paintlayers.Diffuse, paintlayers.Normal)
	lib := shadergraph.NewLibrary()
	res := compileStack(t, New(lib), s)

	if len(res.Graphs) != 2 {
		t.Fatalf("graphs = %d", len(res.Graphs))
	}
	d := lib.Group("DIFFUSE_Group_Mat")
	n := lib.Group("NORMAL_Group_Mat")
	if d == nil || n == nil || res.Graph(paintlayers.Diffuse).Tree != d {
		t.Fatal("group trees not registered")
	}
	if _, outs := d.Interface(); len(outs) != 2 {
		t.Errorf("diffuse outputs = %v", outs)
	}
	if n.OutputIndex("Normal") != 2 {
		t.Errorf("normal group lacks Normal output")
	}
	if lib.Group(BlendNormalsGroup) == nil || lib.Group(ScenePropertiesGroup) == nil {
		t.Error("helper groups missing")
	}
}

func TestCompileMixChain(t *testing.T) {
	s, l := testStack(t, paintlayers.Diffuse, paintlayers.Diffuse)
	l[1].Blend = paintlayers.BlendMultiply
	l[1].Opacity = 0.25
	lib := shadergraph.NewLibrary()
	compileStack(t, New(lib), s)
	tr := lib.Group("DIFFUSE_Group_Mat")

	mixes := tr.NodesOf(shadergraph.TypeMix)
	if len(mixes) != 2 {
		t.Fatalf("mix nodes = %d, want 2", len(mixes))
	}
	bottom, top := mixes[0], mixes[1]
	if top.Blend != paintlayers.BlendMultiply {
		t.Errorf("top blend = %v", top.Blend)
	}
	if bottom.Inputs[1].Default != [4]float32{} {
		t.Errorf("bottom background = %v, want transparent black", bottom.Inputs[1].Default)
	}
	if link, ok := tr.Incoming(top, top.Input("Color1")); !ok || link.From != bottom {
		t.Error("top mix not chained to bottom mix")
	}
	out := tr.GroupOutput()
	if link, ok := tr.Incoming(out, 0); !ok || link.From != top {
		t.Error("Result not fed by top mix")
	}

	var opacities []float32
	for _, m := range tr.NodesOf(shadergraph.TypeMath) {
		if m.Math == shadergraph.MathMultiply {
			opacities = append(opacities, m.Inputs[1].Default[0])
		}
	}
	if len(opacities) != 2 || opacities[1] != 0.25 {
		t.Errorf("opacity factors = %v", opacities)
	}
	var maxes, powers int
	for _, m := range tr.NodesOf(shadergraph.TypeMath) {
		switch m.Math {
		case shadergraph.MathMaximum:
			maxes++
		case shadergraph.MathPower:
			powers++
		}
	}
	if maxes != 2 || powers != 2 {
		t.Errorf("maximum nodes = %d, power nodes = %d; want 2, 2", maxes, powers)
	}
}

func TestCompileHeightUsesCombineSignal(t *testing.T) {
	s, _ := testStack(t, paintlayers.Height)
	lib := shadergraph.NewLibrary()
	c := New(lib, WithFiltering(paintlayers.InterpLinear))
	compileStack(t, c, s)
	tr := lib.Group("HEIGHT_Group_Mat")

	mix := tr.NodesOf(shadergraph.TypeMix)[0]
	link, ok := tr.Incoming(mix, mix.Input("Color1"))
	if !ok || link.From.Group != lib.Group(ScenePropertiesGroup) {
		t.Fatal("height background not driven by scene properties")
	}
	if img := tr.NodesOf(shadergraph.TypeImage)[0]; img.Interpolation != paintlayers.InterpCubic {
		t.Errorf("height interpolation = %v, want Cubic", img.Interpolation)
	}

	v := lib.Group(ScenePropertiesGroup).NodesOf(shadergraph.TypeValue)[0]
	if v.Outputs[0].Default[0] != 0.5 {
		t.Errorf("inactive combine value = %v", v.Outputs[0].Default[0])
	}
	if err := c.SetCombineActive(true); err != nil {
		t.Fatal(err)
	}
	if v.Outputs[0].Default[0] != 0 || !c.CombineActive() {
		t.Errorf("active combine value = %v", v.Outputs[0].Default[0])
	}
}

func TestCompileNormalChannel(t *testing.T) {
	s, l := testStack(t, paintlayers.Normal, paintlayers.Normal)
	l[1].Opacity = 0.5
	lib := shadergraph.NewLibrary()
	compileStack(t, New(lib), s)
	tr := lib.Group("NORMAL_Group_Mat")

	if n := len(tr.NodesOf(shadergraph.TypeMix)); n != 0 {
		t.Errorf("normal channel has %d mix nodes", n)
	}
	var blends []*shadergraph.Node
	for _, n := range tr.NodesOf(shadergraph.TypeGroup) {
		if n.Group == lib.Group(BlendNormalsGroup) {
			blends = append(blends, n)
		}
	}
	if len(blends) != 2 {
		t.Fatalf("blend normals nodes = %d, want 2", len(blends))
	}
	if got := blends[0].Inputs[blends[0].Input("Normal A")].Default; got != flatNormal {
		t.Errorf("bottom Normal A = %v", got)
	}
	for _, m := range tr.NodesOf(shadergraph.TypeMath) {
		if m.Math == shadergraph.MathPower {
			t.Error("normal channel squares alpha")
		}
	}
	if len(tr.NodesOf(shadergraph.TypeNormalMap)) != 1 {
		t.Error("missing normal map decode")
	}
}

func TestCompileIdentityPreservation(t *testing.T) {
	s, l := testStack(t, paintlayers.Diffuse, paintlayers.AdjustRamp)
	lib := shadergraph.NewLibrary()
	c := New(lib)
	compileStack(t, c, s)
	tr := lib.Group("DIFFUSE_Group_Mat")
	if got := tr.CreatedCount(shadergraph.TypeRamp); got != 1 {
		t.Fatalf("first build created %d ramps, want 1", got)
	}
	tok := l[1].Token
	if tok == "" {
		t.Fatal("ramp layer has no token")
	}
	ramp := tr.NodesOf(shadergraph.TypeRamp)[0]
	ramp.Ramp.Stops[1].Color = [4]float32{1, 0, 0, 1}

	for i := 0; i < 3; i++ {
		c.Invalidate("Mat")
		res := compileStack(t, c, s)
		if res.Rebuilt != 1 {
			t.Fatalf("rebuild %d: Rebuilt = %d", i, res.Rebuilt)
		}
	}
	if got := tr.CreatedCount(shadergraph.TypeRamp); got != 1 {
		t.Errorf("rebuilds created %d ramps in total, want 1", got)
	}
	if l[1].Token != tok || tr.NodesOf(shadergraph.TypeRamp)[0] != ramp {
		t.Error("ramp identity changed")
	}
	if ramp.Ramp.Stops[1].Color != [4]float32{1, 0, 0, 1} {
		t.Error("ramp state lost")
	}

	// Removing the layer deletes the stale node.
	if err := s.Remove(l[1]); err != nil {
		t.Fatal(err)
	}
	compileStack(t, c, s)
	if n := len(tr.NodesOf(shadergraph.TypeRamp)); n != 0 {
		t.Errorf("stale ramps = %d", n)
	}
}

func TestCompileCache(t *testing.T) {
	s, l := testStack(t, paintlayers.Diffuse, paintlayers.Roughness)
	c := New(shadergraph.NewLibrary())
	if res := compileStack(t, c, s); res.Rebuilt != 2 {
		t.Fatalf("first compile rebuilt %d", res.Rebuilt)
	}
	if res := compileStack(t, c, s); res.Rebuilt != 0 {
		t.Errorf("unchanged compile rebuilt %d", res.Rebuilt)
	}
	l[1].Opacity = 0.3
	if res := compileStack(t, c, s); res.Rebuilt != 1 {
		t.Errorf("opacity edit rebuilt %d, want 1", res.Rebuilt)
	}
	c.SetFiltering(paintlayers.InterpClosest)
	if res := compileStack(t, c, s); res.Rebuilt != 2 {
		t.Errorf("filter change rebuilt %d, want 2", res.Rebuilt)
	}
}

func TestCompileAdjustments(t *testing.T) {
	s, l := testStack(t, paintlayers.Diffuse, paintlayers.AdjustHSV, paintlayers.Mask)
	l[1].Hue = 0.7
	lib := shadergraph.NewLibrary()
	compileStack(t, New(lib), s)
	tr := lib.Group("DIFFUSE_Group_Mat")

	hs := tr.NodesOf(shadergraph.TypeHueSat)
	if len(hs) != 1 || hs[0].Inputs[0].Default[0] != 0.7 {
		t.Fatalf("hue/sat nodes = %v", hs)
	}
	if link, ok := tr.Incoming(hs[0], hs[0].Input("Fac")); !ok || link.From.Type != shadergraph.TypeInvert {
		t.Error("tone factor not driven by inverted mask")
	}
	var top *shadergraph.Node
	for _, m := range tr.NodesOf(shadergraph.TypeMix) {
		if m.Name != "Mask" {
			top = m
		}
	}
	if link, ok := tr.Incoming(top, top.Input("Color2")); !ok || link.From != hs[0] {
		t.Error("adjusted color not fed into mix")
	}
	mask := tr.Node("Mask")
	if mask == nil {
		t.Fatal("mask stage missing")
	}
	if link, ok := tr.Incoming(mask, mask.Input("Color1")); !ok || link.From.Type != shadergraph.TypeImage {
		t.Error("mask stage not on the alpha path")
	}
}

func TestCompileCustomStages(t *testing.T) {
	s, l := testStack(t, paintlayers.Diffuse, paintlayers.Custom, paintlayers.Custom)
	lib := shadergraph.NewLibrary()
	warp := shadergraph.NewTree("Warp")
	warp.DeclareInput("UV", shadergraph.SocketVector)
	warp.DeclareOutput("UV", shadergraph.SocketVector)
	lib.AddGroup(warp)
	tint := shadergraph.NewTree("Tint")
	tint.DeclareInput("Color", shadergraph.SocketColor)
	tint.DeclareOutput("Color", shadergraph.SocketColor)
	lib.AddGroup(tint)

	l[1].CustomGraph, l[1].CustomRole = "Warp", paintlayers.RoleUV
	l[2].CustomGraph, l[2].CustomRole = "Tint", paintlayers.RoleColor
	l[2].CustomOutput = 5
	s.UVAttribute = "UVMap"

	res := compileStack(t, New(lib), s)
	if w := res.Warnings(); len(w) != 0 {
		t.Fatalf("warnings = %v", w)
	}
	if l[2].CustomOutput != 0 {
		t.Errorf("output index not clamped: %d", l[2].CustomOutput)
	}
	tr := lib.Group("DIFFUSE_Group_Mat")
	img := tr.NodesOf(shadergraph.TypeImage)[0]
	link, ok := tr.Incoming(img, img.Input("Vector"))
	if !ok || link.From.Group != warp {
		t.Fatal("sampler coordinates not fed by uv stage")
	}
	if in, ok := tr.Incoming(link.From, 0); !ok || in.From.Type != shadergraph.TypeAttribute {
		t.Error("uv stage not fed by attribute")
	}
	mix := tr.NodesOf(shadergraph.TypeMix)[0]
	if link, ok := tr.Incoming(mix, mix.Input("Color2")); !ok || link.From.Group != tint {
		t.Error("color stage not fed into mix")
	}
}

func TestCompileMissingSubgraph(t *testing.T) {
	s, l := testStack(t, paintlayers.Diffuse, paintlayers.Custom)
	l[1].CustomGraph = "Gone"
	res := compileStack(t, New(shadergraph.NewLibrary()), s)

	w := res.Warnings()
	if len(w) != 1 || !errors.Is(w[0], ErrMissingSubgraph) {
		t.Fatalf("warnings = %v", w)
	}
	tr := res.Graph(paintlayers.Diffuse).Tree
	mix := tr.NodesOf(shadergraph.TypeMix)[0]
	if link, ok := tr.Incoming(mix, mix.Input("Color2")); !ok || link.From.Type != shadergraph.TypeImage {
		t.Error("dropped stage left the color path broken")
	}
}

func TestInstall(t *testing.T) {
	tests := []struct {
		name   string
		mode   paintlayers.ShaderMode
		check  func(t *testing.T, m *shadergraph.Tree)
		custom bool
	}{
		{
			name: "standard",
			mode: paintlayers.ShaderStandard,
			check: func(t *testing.T, m *shadergraph.Tree) {
				p := m.NodesOf(shadergraph.TypePrincipled)
				b := m.NodesOf(shadergraph.TypeBump)
				if len(p) != 1 || len(b) != 1 {
					t.Fatalf("principled %d, bump %d", len(p), len(b))
				}
				if b[0].Inputs[0].Default[0] != 2 {
					t.Errorf("bump strength = %v", b[0].Inputs[0].Default[0])
				}
				if l, ok := m.Incoming(p[0], p[0].Input("Roughness")); !ok || l.From.Name != "ROUGHNESS_Group_Mat" {
					t.Error("roughness not wired")
				}
				if l, ok := m.Incoming(b[0], b[0].Input("Height")); !ok || l.From.Name != "HEIGHT_Group_Mat" {
					t.Error("height not wired to bump")
				}
				if l, ok := m.Incoming(b[0], b[0].Input("Normal")); !ok || l.From.Outputs[l.Out].Name != "Normal" {
					t.Error("normal not wired to bump")
				}
				if l, ok := m.Incoming(m.MaterialOutput(), 0); !ok || l.From != p[0] {
					t.Error("shader not wired to output")
				}
			},
		},
		{
			name: "unlit",
			mode: paintlayers.ShaderUnlit,
			check: func(t *testing.T, m *shadergraph.Tree) {
				if n := len(m.NodesOf(shadergraph.TypePrincipled)); n != 0 {
					t.Errorf("unlit has %d shaders", n)
				}
				if l, ok := m.Incoming(m.MaterialOutput(), 0); !ok || l.From.Name != "DIFFUSE_Group_Mat" {
					t.Error("diffuse not wired to output")
				}
			},
		},
		{name: "custom", mode: paintlayers.ShaderCustom, custom: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := testStack(t, paintlayers.Diffuse, paintlayers.Roughness, paintlayers.Normal, paintlayers.Height)
			s.Shader = tt.mode
			s.HeightIntensity = 2
			lib := shadergraph.NewLibrary()
			c := New(lib)
			res := compileStack(t, c, s)
			if tt.custom {
				if res.Installed != nil || lib.Material("Mat") != nil {
					t.Error("custom mode touched the material tree")
				}
				return
			}
			tt.check(t, res.Installed)
			// Reinstalling keeps a single output node.
			c.Invalidate("Mat")
			res = compileStack(t, c, s)
			if n := len(res.Installed.NodesOf(shadergraph.TypeOutput)); n != 1 {
				t.Errorf("output nodes = %d", n)
			}
		})
	}
}

func TestCompileNoMaterial(t *testing.T) {
	s := paintlayers.NewStack("Set_01", nil)
	if _, err := New(shadergraph.NewLibrary()).Compile(s); !errors.Is(err, ErrNoMaterial) {
		t.Errorf("err = %v", err)
	}
}
