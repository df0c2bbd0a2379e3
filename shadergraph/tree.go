package shadergraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSocket is returned when a socket name or index does not exist.
	ErrNoSocket = errors.New("shadergraph: no such socket")
	// ErrForeignNode is returned when a node does not belong to the tree.
	ErrForeignNode = errors.New("shadergraph: node not in tree")
)

// Link connects output Out of From to input In of To.
type Link struct {
	From *Node
	Out  int
	To   *Node
	In   int
}

func (l Link) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", l.From.Name, l.From.Outputs[l.Out].Name, l.To.Name, l.To.Inputs[l.In].Name)
}

// Tree is a node graph. A Tree is not safe for concurrent mutation.
type Tree struct {
	Name string

	nodes   []*Node
	links   []Link
	inputs  []Socket
	outputs []Socket
	names   map[string]*Node
	created map[NodeType]int
}

// NewTree returns an empty tree.
func NewTree(name string) *Tree {
	return &Tree{
		Name:    name,
		names:   make(map[string]*Node),
		created: make(map[NodeType]int),
	}
}

// AddNode creates a node of type t. An empty or taken name is replaced
// by a unique one derived from it.
func (t *Tree) AddNode(typ NodeType, name string) *Node {
	if name == "" {
		name = typ.String()
	}
	n := &Node{Name: t.unique(name), Type: typ, tree: t}
	in, out := template(typ)
	switch typ {
	case TypeGroupInput:
		out = t.inputs
	case TypeGroupOutput:
		in = t.outputs
	}
	n.Inputs = cloneSockets(in)
	n.Outputs = cloneSockets(out)
	t.nodes = append(t.nodes, n)
	t.names[n.Name] = n
	t.created[typ]++
	return n
}

// AddGroup creates a group node instancing g.
func (t *Tree) AddGroup(g *Tree, name string) *Node {
	n := t.AddNode(TypeGroup, name)
	n.Group = g
	n.SyncGroup()
	return n
}

func (t *Tree) unique(name string) string {
	if _, taken := t.names[name]; !taken {
		return name
	}
	base := name
	if i := strings.LastIndexByte(name, '.'); i > 0 && isDigits(name[i+1:]) {
		base = name[:i]
	}
	for k := 1; ; k++ {
		cand := fmt.Sprintf("%s.%03d", base, k)
		if _, taken := t.names[cand]; !taken {
			return cand
		}
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Node returns the node with the given name, or nil.
func (t *Tree) Node(name string) *Node { return t.names[name] }

// Nodes returns the nodes in creation order.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// NodesOf returns the nodes of type typ in creation order.
func (t *Tree) NodesOf(typ NodeType) []*Node {
	var out []*Node
	for _, n := range t.nodes {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Contains reports whether n belongs to t.
func (t *Tree) Contains(n *Node) bool { return n != nil && n.tree == t }

// CreatedCount returns how many nodes of type typ were ever created in t.
func (t *Tree) CreatedCount(typ NodeType) int { return t.created[typ] }

// Links returns a copy of all links.
func (t *Tree) Links() []Link {
	out := make([]Link, len(t.links))
	copy(out, t.links)
	return out
}

// Connect links the named output of from to the named input of to,
// replacing any link already feeding that input.
func (t *Tree) Connect(from *Node, out string, to *Node, in string) error {
	if !t.Contains(from) || !t.Contains(to) {
		return ErrForeignNode
	}
	o := from.Output(out)
	if o < 0 {
		return fmt.Errorf("%w: %s has no output %q", ErrNoSocket, from.Name, out)
	}
	i := to.Input(in)
	if i < 0 {
		return fmt.Errorf("%w: %s has no input %q", ErrNoSocket, to.Name, in)
	}
	return t.ConnectIndex(from, o, to, i)
}

// ConnectIndex is Connect with socket indices.
func (t *Tree) ConnectIndex(from *Node, out int, to *Node, in int) error {
	if !t.Contains(from) || !t.Contains(to) {
		return ErrForeignNode
	}
	if out < 0 || out >= len(from.Outputs) {
		return fmt.Errorf("%w: %s output %d", ErrNoSocket, from.Name, out)
	}
	if in < 0 || in >= len(to.Inputs) {
		return fmt.Errorf("%w: %s input %d", ErrNoSocket, to.Name, in)
	}
	t.Disconnect(to, in)
	t.links = append(t.links, Link{From: from, Out: out, To: to, In: in})
	return nil
}

// Disconnect removes the link feeding input in of to, if any.
func (t *Tree) Disconnect(to *Node, in int) {
	for i, l := range t.links {
		if l.To == to && l.In == in {
			t.links = append(t.links[:i], t.links[i+1:]...)
			return
		}
	}
}

// Incoming returns the link feeding input in of to.
func (t *Tree) Incoming(to *Node, in int) (Link, bool) {
	for _, l := range t.links {
		if l.To == to && l.In == in {
			return l, true
		}
	}
	return Link{}, false
}

// Outgoing returns the links leaving n.
func (t *Tree) Outgoing(n *Node) []Link {
	var out []Link
	for _, l := range t.links {
		if l.From == n {
			out = append(out, l)
		}
	}
	return out
}

// RemoveNode deletes n and every link touching it.
func (t *Tree) RemoveNode(n *Node) {
	if !t.Contains(n) {
		return
	}
	for i, m := range t.nodes {
		if m == n {
			t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
			break
		}
	}
	t.dropLinks(func(l Link) bool { return l.From == n || l.To == n })
	delete(t.names, n.Name)
	n.tree = nil
}

// Clear removes every link and every node for which keep returns false.
// A nil keep removes all nodes.
func (t *Tree) Clear(keep func(*Node) bool) {
	t.links = t.links[:0]
	kept := t.nodes[:0]
	for _, n := range t.nodes {
		if keep != nil && keep(n) {
			kept = append(kept, n)
			continue
		}
		delete(t.names, n.Name)
		n.tree = nil
	}
	for i := len(kept); i < len(t.nodes); i++ {
		t.nodes[i] = nil
	}
	t.nodes = kept
}

func (t *Tree) dropLinks(drop func(Link) bool) {
	kept := t.links[:0]
	for _, l := range t.links {
		if !drop(l) {
			kept = append(kept, l)
		}
	}
	t.links = kept
}

// DeclareInput adds an input to the tree interface and returns its index.
// Declaring an existing name returns the existing index.
func (t *Tree) DeclareInput(name string, typ SocketType) int {
	for i, s := range t.inputs {
		if s.Name == name {
			return i
		}
	}
	s := Socket{Name: name, Type: typ}
	t.inputs = append(t.inputs, s)
	for _, n := range t.NodesOf(TypeGroupInput) {
		c := s
		n.Outputs = append(n.Outputs, &c)
	}
	return len(t.inputs) - 1
}

// DeclareOutput adds an output to the tree interface and returns its index.
func (t *Tree) DeclareOutput(name string, typ SocketType) int {
	for i, s := range t.outputs {
		if s.Name == name {
			return i
		}
	}
	s := Socket{Name: name, Type: typ}
	t.outputs = append(t.outputs, s)
	for _, n := range t.NodesOf(TypeGroupOutput) {
		c := s
		n.Inputs = append(n.Inputs, &c)
	}
	return len(t.outputs) - 1
}

// Interface returns copies of the declared inputs and outputs.
func (t *Tree) Interface() (inputs, outputs []Socket) {
	inputs = append([]Socket(nil), t.inputs...)
	outputs = append([]Socket(nil), t.outputs...)
	return inputs, outputs
}

// OutputIndex returns the index of the named interface output, or -1.
func (t *Tree) OutputIndex(name string) int {
	for i, s := range t.outputs {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// GroupOutput returns the first group output node, or nil.
func (t *Tree) GroupOutput() *Node {
	if ns := t.NodesOf(TypeGroupOutput); len(ns) > 0 {
		return ns[0]
	}
	return nil
}

// MaterialOutput returns the first material output node, or nil.
func (t *Tree) MaterialOutput() *Node {
	if ns := t.NodesOf(TypeOutput); len(ns) > 0 {
		return ns[0]
	}
	return nil
}
