package compile

import "github.com/gogpu/paintlayers/shadergraph"

// Names of the helper groups shared by every material.
const (
	BlendNormalsGroup    = "BlendNormals"
	ScenePropertiesGroup = "SceneProperties"

	// CombineActiveOutput is the SceneProperties output holding the
	// height background used while a combine is in progress.
	CombineActiveOutput = "LayerCombineActiveH"
)

// combineValue returns the height background for the combine signal:
// 0 reveals the background, 0.5 hides it behind neutral height.
func combineValue(active bool) float32 {
	if active {
		return 0
	}
	return 0.5
}

// ensureBlendNormals builds the normal combine group:
// Result = normalize(Normal A + Normal B * Fac).
func ensureBlendNormals(lib *shadergraph.Library) (*shadergraph.Tree, error) {
	t, created := lib.EnsureGroup(BlendNormalsGroup)
	if !created && t.Len() > 0 {
		return t, nil
	}
	t.Clear(nil)
	t.DeclareInput("Fac", shadergraph.SocketFloat)
	t.DeclareInput("Normal A", shadergraph.SocketColor)
	t.DeclareInput("Normal B", shadergraph.SocketColor)
	t.DeclareOutput("Result", shadergraph.SocketColor)

	in := t.AddNode(shadergraph.TypeGroupInput, "")
	out := t.AddNode(shadergraph.TypeGroupOutput, "")
	mul := t.AddNode(shadergraph.TypeVectorMath, "Scale")
	mul.Vector = shadergraph.VectorMultiply
	add := t.AddNode(shadergraph.TypeVectorMath, "Add")
	add.Vector = shadergraph.VectorAdd
	norm := t.AddNode(shadergraph.TypeVectorMath, "Normalize")
	norm.Vector = shadergraph.VectorNormalize

	w := wiring{tree: t}
	w.connect(in, "Normal B", mul, "A")
	w.connect(in, "Fac", mul, "B")
	w.connect(in, "Normal A", add, "A")
	w.connect(mul, "Vector", add, "B")
	w.connect(add, "Vector", norm, "A")
	w.connect(norm, "Vector", out, "Result")
	return t, w.err
}

// ensureSceneProperties builds the group exposing the combine signal and
// returns the value node driving it.
func ensureSceneProperties(lib *shadergraph.Library, active bool) (*shadergraph.Tree, *shadergraph.Node, error) {
	t, created := lib.EnsureGroup(ScenePropertiesGroup)
	if !created {
		if vs := t.NodesOf(shadergraph.TypeValue); len(vs) > 0 {
			return t, vs[0], nil
		}
	}
	t.Clear(nil)
	t.DeclareOutput(CombineActiveOutput, shadergraph.SocketFloat)
	out := t.AddNode(shadergraph.TypeGroupOutput, "")
	v := t.AddNode(shadergraph.TypeValue, "CombineActive")
	v.Outputs[0].Default[0] = combineValue(active)

	w := wiring{tree: t}
	w.connect(v, "Value", out, CombineActiveOutput)
	return t, v, w.err
}

// wiring records the first connection error of a sequence of links.
type wiring struct {
	tree *shadergraph.Tree
	err  error
}

func (w *wiring) connect(from *shadergraph.Node, out string, to *shadergraph.Node, in string) {
	if w.err != nil {
		return
	}
	w.err = w.tree.Connect(from, out, to, in)
}

func (w *wiring) connectIndex(from *shadergraph.Node, out int, to *shadergraph.Node, in int) {
	if w.err != nil {
		return
	}
	w.err = w.tree.ConnectIndex(from, out, to, in)
}

// port is one output socket.
type port struct {
	node *shadergraph.Node
	out  int
}

func (w *wiring) feed(p port, to *shadergraph.Node, in string) {
	if w.err != nil || p.node == nil {
		return
	}
	i := to.Input(in)
	if i < 0 {
		w.err = w.tree.Connect(p.node, p.node.Outputs[p.out].Name, to, in)
		return
	}
	w.err = w.tree.ConnectIndex(p.node, p.out, to, i)
}

func outPort(n *shadergraph.Node, name string) port {
	return port{node: n, out: n.Output(name)}
}
