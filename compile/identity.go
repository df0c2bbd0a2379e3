package compile

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/shadergraph"
)

// NewToken returns a random node identity token.
func NewToken() paintlayers.NodeToken {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return paintlayers.NodeToken(hex.EncodeToString(b[:]))
}

// IdentityMap maps layer tokens to the stateful nodes created for them in
// one tree.
type IdentityMap struct {
	nodes map[paintlayers.NodeToken]*shadergraph.Node
	owner map[*shadergraph.Node]paintlayers.NodeToken
}

// NewIdentityMap returns an empty map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		nodes: make(map[paintlayers.NodeToken]*shadergraph.Node),
		owner: make(map[*shadergraph.Node]paintlayers.NodeToken),
	}
}

// Fetch returns the node held for tok if it is still attached to a tree.
func (m *IdentityMap) Fetch(tok paintlayers.NodeToken) (*shadergraph.Node, bool) {
	n, ok := m.nodes[tok]
	if !ok || n.Tree() == nil {
		return nil, false
	}
	return n, true
}

// InsertOrFetch returns the node held for tok when match accepts it.
// Otherwise any held node is removed from its tree, create is called and
// its result is stored under tok. The bool reports whether create ran.
func (m *IdentityMap) InsertOrFetch(tok paintlayers.NodeToken, match func(*shadergraph.Node) bool, create func() *shadergraph.Node) (*shadergraph.Node, bool) {
	if n, ok := m.Fetch(tok); ok {
		if match == nil || match(n) {
			return n, false
		}
		n.Tree().RemoveNode(n)
	}
	m.drop(tok)
	n := create()
	m.nodes[tok] = n
	m.owner[n] = tok
	return n, true
}

// Holds reports whether n is held under some token.
func (m *IdentityMap) Holds(n *shadergraph.Node) bool {
	_, ok := m.owner[n]
	return ok
}

// Retain drops every token not in live, removing its node from its tree.
// It returns the number of tokens dropped.
func (m *IdentityMap) Retain(live map[paintlayers.NodeToken]bool) int {
	dropped := 0
	for tok, n := range m.nodes {
		if live[tok] && n.Tree() != nil {
			continue
		}
		if t := n.Tree(); t != nil {
			t.RemoveNode(n)
		}
		m.drop(tok)
		dropped++
	}
	return dropped
}

// Len returns the number of held tokens.
func (m *IdentityMap) Len() int { return len(m.nodes) }

func (m *IdentityMap) drop(tok paintlayers.NodeToken) {
	if n, ok := m.nodes[tok]; ok {
		delete(m.owner, n)
		delete(m.nodes, tok)
	}
}
