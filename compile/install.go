package compile

import (
	"fmt"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/shadergraph"
)

// install rewires the material tree of s around the compiled graphs.
// Everything except the material output node is regenerated.
func install(lib *shadergraph.Library, s *paintlayers.Stack, graphs []*Graph) (*shadergraph.Tree, error) {
	t := lib.EnsureMaterial(s.Material.Name)
	output := t.MaterialOutput()
	t.Clear(func(n *shadergraph.Node) bool { return n == output })
	if output == nil {
		output = t.AddNode(shadergraph.TypeOutput, "")
	}
	w := wiring{tree: t}

	var shader, bump *shadergraph.Node
	if s.Shader == paintlayers.ShaderStandard {
		shader = t.AddNode(shadergraph.TypePrincipled, "")
		bump = t.AddNode(shadergraph.TypeBump, "")
		bump.Inputs[0].Default[0] = s.HeightIntensity
		w.connect(bump, "Normal", shader, "Normal")
	}

	for _, g := range graphs {
		group := t.AddGroup(g.Tree, g.Tree.Name)
		if shader == nil {
			if g.Kind == paintlayers.Diffuse {
				w.connect(group, "Result", output, "Surface")
			}
			continue
		}
		switch g.Kind {
		case paintlayers.Normal:
			w.connect(group, "Normal", bump, "Normal")
		case paintlayers.Height:
			w.connect(group, "Result", bump, "Height")
		default:
			if in := g.Kind.ShaderInput(); in != "" {
				w.connect(group, "Result", shader, in)
			}
		}
		w.connect(shader, "BSDF", output, "Surface")
	}
	if w.err != nil {
		return nil, fmt.Errorf("compile: install %s: %w", t.Name, w.err)
	}
	return t, nil
}
