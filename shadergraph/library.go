package shadergraph

import "sort"

// Library owns named group trees and per-material trees.
type Library struct {
	groups    map[string]*Tree
	materials map[string]*Tree
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		groups:    make(map[string]*Tree),
		materials: make(map[string]*Tree),
	}
}

// Group returns the named group tree, or nil.
func (l *Library) Group(name string) *Tree { return l.groups[name] }

// EnsureGroup returns the named group tree, creating it if needed.
// The second result reports whether it was created.
func (l *Library) EnsureGroup(name string) (*Tree, bool) {
	if t, ok := l.groups[name]; ok {
		return t, false
	}
	t := NewTree(name)
	l.groups[name] = t
	return t, true
}

// AddGroup registers t under its name, replacing any previous tree.
func (l *Library) AddGroup(t *Tree) { l.groups[t.Name] = t }

// RemoveGroup deletes the named group tree.
func (l *Library) RemoveGroup(name string) bool {
	_, ok := l.groups[name]
	delete(l.groups, name)
	return ok
}

// GroupNames returns the registered group names, sorted.
func (l *Library) GroupNames() []string { return keys(l.groups) }

// Material returns the tree of the named material, or nil.
func (l *Library) Material(name string) *Tree { return l.materials[name] }

// EnsureMaterial returns the tree of the named material, creating an
// empty one if needed.
func (l *Library) EnsureMaterial(name string) *Tree {
	if t, ok := l.materials[name]; ok {
		return t
	}
	t := NewTree(name)
	l.materials[name] = t
	return t
}

// RemoveMaterial deletes the named material tree.
func (l *Library) RemoveMaterial(name string) bool {
	_, ok := l.materials[name]
	delete(l.materials, name)
	return ok
}

// MaterialNames returns the registered material names, sorted.
func (l *Library) MaterialNames() []string { return keys(l.materials) }

func keys(m map[string]*Tree) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
