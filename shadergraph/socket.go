package shadergraph

import "fmt"

// SocketType is the data type carried by a socket.
type SocketType uint8

const (
	SocketFloat SocketType = iota
	SocketColor
	SocketVector
	SocketShader
)

func (t SocketType) String() string {
	switch t {
	case SocketFloat:
		return "Float"
	case SocketColor:
		return "Color"
	case SocketVector:
		return "Vector"
	case SocketShader:
		return "Shader"
	default:
		return fmt.Sprintf("SocketType(%d)", uint8(t))
	}
}

// Socket is one input or output of a node, or one entry of a tree interface.
type Socket struct {
	Name string
	Type SocketType
	// Default is used when an input is unlinked. Floats use Default[0].
	Default [4]float32
	// Implicit inputs take their value from the surface when unlinked:
	// texture coordinates for samplers, the geometric normal for shaders.
	Implicit bool
}

func fsock(name string, v float32) Socket {
	return Socket{Name: name, Type: SocketFloat, Default: [4]float32{v}}
}

func csock(name string, r, g, b, a float32) Socket {
	return Socket{Name: name, Type: SocketColor, Default: [4]float32{r, g, b, a}}
}

func vsock(name string) Socket {
	return Socket{Name: name, Type: SocketVector}
}

func implicit(s Socket) Socket {
	s.Implicit = true
	return s
}

func shsock(name string) Socket {
	return Socket{Name: name, Type: SocketShader}
}

// find returns the index of the first socket named name, or -1.
func find(sockets []*Socket, name string) int {
	for i, s := range sockets {
		if s.Name == name {
			return i
		}
	}
	return -1
}

func cloneSockets(src []Socket) []*Socket {
	out := make([]*Socket, len(src))
	for i := range src {
		s := src[i]
		out[i] = &s
	}
	return out
}
