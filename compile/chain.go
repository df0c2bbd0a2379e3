package compile

import (
	"fmt"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/shadergraph"
)

// flatNormal is the unit-color encoding of an unperturbed normal.
var flatNormal = [4]float32{0.50196, 0.50196, 1, 1}

// chain builds one channel group tree.
type chain struct {
	wiring
	lib      *shadergraph.Library
	ids      *IdentityMap
	kind     paintlayers.ChannelKind
	filter   paintlayers.Interpolation
	blendNrm *shadergraph.Tree
	props    *shadergraph.Node
	attr     *shadergraph.Node
	warnings []error
}

// liveTokens assigns missing tokens to stateful adjustments of g and
// returns the tokens whose nodes should survive a rebuild.
func liveTokens(lib *shadergraph.Library, g Group) map[paintlayers.NodeToken]bool {
	live := make(map[paintlayers.NodeToken]bool)
	for _, e := range g.Entries {
		for _, a := range e.Adjustments {
			switch a.Kind {
			case paintlayers.AdjustRamp:
			case paintlayers.Custom:
				if lib.Group(a.CustomGraph) == nil {
					continue
				}
			default:
				continue
			}
			if a.Token == "" {
				a.Token = NewToken()
			}
			live[a.Token] = true
		}
	}
	return live
}

// build clears the tree down to the nodes held for live tokens and emits
// the chain for g into it.
func (c *chain) build(stack *paintlayers.Stack, g Group, live map[paintlayers.NodeToken]bool) error {
	t := c.tree
	c.ids.Retain(live)
	t.Clear(c.ids.Holds)

	t.DeclareOutput("Result", shadergraph.SocketColor)
	t.DeclareOutput("Alpha", shadergraph.SocketFloat)
	if c.kind == paintlayers.Normal {
		t.DeclareOutput("Normal", shadergraph.SocketVector)
	}
	if props := c.lib.Group(ScenePropertiesGroup); props != nil {
		c.props = t.AddGroup(props, ScenePropertiesGroup)
	}
	output := t.AddNode(shadergraph.TypeGroupOutput, "")
	if stack.UVAttribute != "" {
		c.attr = t.AddNode(shadergraph.TypeAttribute, "UV")
		c.attr.Attribute = stack.UVAttribute
	}

	var prev, acc port
	for _, e := range g.Entries {
		prev, acc = c.layer(e, prev, acc)
	}
	if prev.node == nil {
		return c.err
	}
	c.feed(prev, output, "Result")
	c.feed(acc, output, "Alpha")
	if c.kind == paintlayers.Normal {
		nm := t.AddNode(shadergraph.TypeNormalMap, "")
		c.feed(prev, nm, "Color")
		c.connect(nm, "Normal", output, "Normal")
	}
	return c.err
}

func (c *chain) sampler(img *paintlayers.Image, name string) *shadergraph.Node {
	n := c.tree.AddNode(shadergraph.TypeImage, name)
	n.Image = img
	n.Interpolation = c.filter
	if c.kind == paintlayers.Height && c.filter == paintlayers.InterpLinear {
		n.Interpolation = paintlayers.InterpCubic
	}
	if c.attr != nil {
		c.connect(c.attr, "Vector", n, "Vector")
	}
	return n
}

func (c *chain) math(op shadergraph.MathOp, name string) *shadergraph.Node {
	n := c.tree.AddNode(shadergraph.TypeMath, name)
	n.Math = op
	return n
}

// layer emits the nodes of one entry on top of the running color prev and
// running alpha acc and returns the new running pair.
func (c *chain) layer(e Entry, prev, acc port) (port, port) {
	t := c.tree
	l := e.Base
	img := c.sampler(l.Image(), l.Image().Name())
	color := outPort(img, "Color")
	alpha := outPort(img, "Alpha")

	color = c.adjustColor(e.Adjustments, img, color)
	alpha = c.adjustAlpha(e.Adjustments, alpha)

	opacity := c.math(shadergraph.MathMultiply, "Opacity")
	opacity.Inputs[1].Default[0] = l.EffectiveOpacity()

	var mixed port
	if c.kind == paintlayers.Normal {
		bn := t.AddGroup(c.blendNrm, "")
		c.feed(alpha, opacity, "A")
		c.connect(opacity, "Value", bn, "Fac")
		c.feed(color, bn, "Normal B")
		if prev.node != nil {
			c.feed(prev, bn, "Normal A")
		} else if err := bn.SetDefault("Normal A", flatNormal[:]...); err != nil && c.err == nil {
			c.err = err
		}
		mixed = outPort(bn, "Result")
	} else {
		fix := c.math(shadergraph.MathPower, "ColorFix")
		fix.Inputs[1].Default[0] = 2
		mix := t.AddNode(shadergraph.TypeMix, "")
		mix.Blend = l.Blend
		c.feed(alpha, fix, "A")
		c.connect(fix, "Value", opacity, "A")
		c.connect(opacity, "Value", mix, "Fac")
		c.feed(color, mix, "Color2")
		switch {
		case prev.node != nil:
			c.feed(prev, mix, "Color1")
		case c.kind == paintlayers.Height && c.props != nil:
			c.connect(c.props, CombineActiveOutput, mix, "Color1")
		default:
			mix.Inputs[1].Default = [4]float32{}
		}
		mixed = outPort(mix, "Color")
	}

	cov := c.math(shadergraph.MathMaximum, "Coverage")
	if acc.node != nil {
		c.feed(acc, cov, "A")
	} else {
		cov.Inputs[0].Default[0] = 0
	}
	c.feed(alpha, cov, "B")
	return mixed, outPort(cov, "Value")
}

// adjustColor splices tone, ramp and custom stages into the color path
// and custom UV stages into the sampler coordinates.
func (c *chain) adjustColor(run []*paintlayers.Layer, img *shadergraph.Node, color port) port {
	t := c.tree
	var uv port
	if c.attr != nil {
		uv = outPort(c.attr, "Vector")
	}
	for _, a := range run {
		switch a.Kind {
		case paintlayers.AdjustHSV:
			hs := t.AddNode(shadergraph.TypeHueSat, "")
			hs.Inputs[0].Default[0] = a.Hue
			hs.Inputs[1].Default[0] = a.Saturation
			hs.Inputs[2].Default[0] = a.Value
			c.feed(color, hs, "Color")
			mask := c.sampler(a.Image(), a.Image().Name())
			inv := t.AddNode(shadergraph.TypeInvert, "")
			c.connect(mask, "Color", inv, "Color")
			c.connect(inv, "Color", hs, "Fac")
			color = outPort(hs, "Color")

		case paintlayers.AdjustRamp:
			ramp, created := c.ids.InsertOrFetch(a.Token,
				func(n *shadergraph.Node) bool { return n.Type == shadergraph.TypeRamp },
				func() *shadergraph.Node {
					n := t.AddNode(shadergraph.TypeRamp, "Ramp")
					n.Ramp = shadergraph.NewRamp()
					return n
				})
			if !created {
				logger().Debug("reused ramp node", "tree", t.Name, "node", ramp.Name)
			}
			c.feed(color, ramp, "Fac")
			color = outPort(ramp, "Color")

		case paintlayers.Custom:
			sub := c.custom(a)
			if sub == nil {
				continue
			}
			if a.CustomRole == paintlayers.RoleUV {
				if uv.node != nil {
					c.connectIndex(uv.node, uv.out, sub, a.CustomInput)
				}
				uv = port{node: sub, out: a.CustomOutput}
				c.feed(uv, img, "Vector")
				continue
			}
			c.connectIndex(color.node, color.out, sub, a.CustomInput)
			color = port{node: sub, out: a.CustomOutput}
		}
	}
	return color
}

// custom returns the group node instancing a's sub-graph, or nil with a
// warning when the sub-graph is missing or has no sockets.
func (c *chain) custom(a *paintlayers.Layer) *shadergraph.Node {
	g := c.lib.Group(a.CustomGraph)
	if g == nil {
		c.warn(fmt.Errorf("%w: %q", ErrMissingSubgraph, a.CustomGraph))
		return nil
	}
	ins, outs := g.Interface()
	if len(ins) == 0 || len(outs) == 0 {
		c.warn(fmt.Errorf("%w: %q has no sockets", ErrMissingSubgraph, a.CustomGraph))
		return nil
	}
	a.ClampCustomSockets(len(ins), len(outs))
	n, _ := c.ids.InsertOrFetch(a.Token,
		func(n *shadergraph.Node) bool { return n.Type == shadergraph.TypeGroup && n.Group == g },
		func() *shadergraph.Node { return c.tree.AddGroup(g, a.CustomGraph) })
	n.SyncGroup()
	return n
}

// adjustAlpha applies mask stages: alpha becomes alpha * (1 - mask).
func (c *chain) adjustAlpha(run []*paintlayers.Layer, alpha port) port {
	for _, a := range run {
		if a.Kind != paintlayers.Mask {
			continue
		}
		mask := c.sampler(a.Image(), a.Image().Name())
		mix := c.tree.AddNode(shadergraph.TypeMix, "Mask")
		mix.Blend = paintlayers.BlendMix
		mix.Inputs[2].Default = [4]float32{}
		c.feed(alpha, mix, "Color1")
		c.connect(mask, "Color", mix, "Fac")
		alpha = outPort(mix, "Color")
	}
	return alpha
}

func (c *chain) warn(err error) {
	c.warnings = append(c.warnings, err)
	logger().Warn("dropped optional stage", "tree", c.tree.Name, "err", err)
}
