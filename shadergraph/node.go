package shadergraph

import (
	"fmt"

	"github.com/gogpu/paintlayers"
)

// NodeType identifies the operation a node performs.
type NodeType uint8

const (
	// TypeImage samples an image at the Vector input (UV when unlinked).
	TypeImage NodeType = iota
	// TypeMix blends Color1 and Color2 by Fac with a blend mode.
	TypeMix
	// TypeMath applies a scalar MathOp to A and B.
	TypeMath
	// TypeVectorMath applies a VectorOp to A and B.
	TypeVectorMath
	// TypeHueSat shifts hue, saturation and value of Color, blended by Fac.
	TypeHueSat
	// TypeRamp maps Fac through a color ramp.
	TypeRamp
	// TypeInvert mixes Color with 1-Color by Fac.
	TypeInvert
	// TypeGroup instances another tree.
	TypeGroup
	// TypeGroupInput exposes the enclosing group's inputs.
	TypeGroupInput
	// TypeGroupOutput receives the enclosing group's outputs.
	TypeGroupOutput
	// TypeAttribute reads a named surface attribute such as a UV map.
	TypeAttribute
	// TypeValue outputs a constant.
	TypeValue
	// TypeNormalMap decodes a unit-color normal.
	TypeNormalMap
	// TypeBump perturbs Normal by the gradient of Height.
	TypeBump
	// TypePrincipled is the standard surface shader.
	TypePrincipled
	// TypeDiffuse is a plain diffuse shader.
	TypeDiffuse
	// TypeOutput is the material output.
	TypeOutput

	nodeTypeCount
)

var nodeTypeNames = [nodeTypeCount]string{
	TypeImage:       "Image Texture",
	TypeMix:         "Mix",
	TypeMath:        "Math",
	TypeVectorMath:  "Vector Math",
	TypeHueSat:      "Hue Saturation Value",
	TypeRamp:        "Color Ramp",
	TypeInvert:      "Invert",
	TypeGroup:       "Group",
	TypeGroupInput:  "Group Input",
	TypeGroupOutput: "Group Output",
	TypeAttribute:   "Attribute",
	TypeValue:       "Value",
	TypeNormalMap:   "Normal Map",
	TypeBump:        "Bump",
	TypePrincipled:  "Principled BSDF",
	TypeDiffuse:     "Diffuse BSDF",
	TypeOutput:      "Material Output",
}

func (t NodeType) String() string {
	if t < nodeTypeCount {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// Stateful reports whether nodes of this type carry artist-authored state
// that must survive a rebuild.
func (t NodeType) Stateful() bool {
	return t == TypeRamp || t == TypeGroup
}

// MathOp is a scalar operation.
type MathOp uint8

const (
	MathAdd MathOp = iota
	MathSubtract
	MathMultiply
	MathDivide
	MathPower
	MathMinimum
	MathMaximum
)

var mathOpNames = []string{"ADD", "SUBTRACT", "MULTIPLY", "DIVIDE", "POWER", "MINIMUM", "MAXIMUM"}

func (op MathOp) String() string {
	if int(op) < len(mathOpNames) {
		return mathOpNames[op]
	}
	return fmt.Sprintf("MathOp(%d)", uint8(op))
}

// VectorOp is a vector operation.
type VectorOp uint8

const (
	VectorAdd VectorOp = iota
	VectorMultiply
	VectorNormalize
)

var vectorOpNames = []string{"ADD", "MULTIPLY", "NORMALIZE"}

func (op VectorOp) String() string {
	if int(op) < len(vectorOpNames) {
		return vectorOpNames[op]
	}
	return fmt.Sprintf("VectorOp(%d)", uint8(op))
}

// Node is a vertex of a Tree. Parameter fields apply to the node types
// named in their comments and are ignored otherwise.
type Node struct {
	Name    string
	Type    NodeType
	Inputs  []*Socket
	Outputs []*Socket

	// Image and Interpolation configure TypeImage.
	Image         *paintlayers.Image
	Interpolation paintlayers.Interpolation
	// Blend configures TypeMix.
	Blend paintlayers.BlendMode
	// Math configures TypeMath; Vector configures TypeVectorMath.
	Math   MathOp
	Vector VectorOp
	// Clamp limits TypeMix and TypeMath results to [0,1].
	Clamp bool
	// Ramp configures TypeRamp.
	Ramp *Ramp
	// Group is the tree instanced by TypeGroup.
	Group *Tree
	// Attribute names the attribute read by TypeAttribute.
	Attribute string
	// Invert flips the bump direction of TypeBump.
	Invert bool

	tree *Tree
}

// Tree returns the tree the node belongs to, or nil once removed.
func (n *Node) Tree() *Tree { return n.tree }

// Input returns the index of the named input, or -1.
func (n *Node) Input(name string) int { return find(n.Inputs, name) }

// Output returns the index of the named output, or -1.
func (n *Node) Output(name string) int { return find(n.Outputs, name) }

// SetDefault sets the default value of the named input.
func (n *Node) SetDefault(input string, v ...float32) error {
	i := n.Input(input)
	if i < 0 {
		return fmt.Errorf("%w: %s has no input %q", ErrNoSocket, n.Name, input)
	}
	copy(n.Inputs[i].Default[:], v)
	return nil
}

// SyncGroup refreshes the sockets of a group node from its tree's
// interface, keeping defaults of inputs whose names survive.
func (n *Node) SyncGroup() {
	if n.Type != TypeGroup || n.Group == nil {
		return
	}
	old := n.Inputs
	n.Inputs = cloneSockets(n.Group.inputs)
	for _, s := range n.Inputs {
		// Unlinked vector inputs read surface coordinates.
		s.Implicit = s.Type == SocketVector
		if i := find(old, s.Name); i >= 0 {
			s.Default = old[i].Default
		}
	}
	n.Outputs = cloneSockets(n.Group.outputs)
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Name, n.Type)
}

// template returns the sockets of a fresh node of type t.
func template(t NodeType) (in, out []Socket) {
	switch t {
	case TypeImage:
		return []Socket{implicit(vsock("Vector"))},
			[]Socket{csock("Color", 0, 0, 0, 1), fsock("Alpha", 1)}
	case TypeMix:
		return []Socket{fsock("Fac", 0.5), csock("Color1", 0.5, 0.5, 0.5, 1), csock("Color2", 0.5, 0.5, 0.5, 1)},
			[]Socket{csock("Color", 0, 0, 0, 1)}
	case TypeMath:
		return []Socket{fsock("A", 0.5), fsock("B", 0.5)}, []Socket{fsock("Value", 0)}
	case TypeVectorMath:
		return []Socket{vsock("A"), vsock("B")}, []Socket{vsock("Vector")}
	case TypeHueSat:
		return []Socket{fsock("Hue", 0.5), fsock("Saturation", 1), fsock("Value", 1), fsock("Fac", 1), csock("Color", 0.8, 0.8, 0.8, 1)},
			[]Socket{csock("Color", 0, 0, 0, 1)}
	case TypeRamp:
		return []Socket{fsock("Fac", 0.5)}, []Socket{csock("Color", 0, 0, 0, 1), fsock("Alpha", 1)}
	case TypeInvert:
		return []Socket{fsock("Fac", 1), csock("Color", 0, 0, 0, 1)}, []Socket{csock("Color", 0, 0, 0, 1)}
	case TypeAttribute:
		return nil, []Socket{csock("Color", 0, 0, 0, 1), vsock("Vector"), fsock("Fac", 0)}
	case TypeValue:
		return nil, []Socket{fsock("Value", 0)}
	case TypeNormalMap:
		return []Socket{fsock("Strength", 1), csock("Color", 0.5, 0.5, 1, 1)}, []Socket{vsock("Normal")}
	case TypeBump:
		return []Socket{fsock("Strength", 1), fsock("Distance", 1), fsock("Height", 1), implicit(vsock("Normal"))},
			[]Socket{vsock("Normal")}
	case TypePrincipled:
		return []Socket{
				csock("Base Color", 0.8, 0.8, 0.8, 1),
				fsock("Metallic", 0),
				fsock("Roughness", 0.5),
				csock("Emission Color", 0, 0, 0, 1),
				fsock("Alpha", 1),
				implicit(vsock("Normal")),
			},
			[]Socket{shsock("BSDF")}
	case TypeDiffuse:
		return []Socket{csock("Color", 0.8, 0.8, 0.8, 1), implicit(vsock("Normal"))}, []Socket{shsock("BSDF")}
	case TypeOutput:
		return []Socket{shsock("Surface")}, nil
	}
	return nil, nil
}
