package paintlayers

import (
	"fmt"
	"slices"
)

// Registry keeps at most one Stack per material.
type Registry struct {
	stacks []*Stack
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Lookup returns the stack bound to mat, or nil.
func (r *Registry) Lookup(mat *Material) *Stack {
	for _, s := range r.stacks {
		if s.Material == mat {
			return s
		}
	}
	return nil
}

// Bind returns the stack bound to mat, creating one named Set_NN if needed.
func (r *Registry) Bind(mat *Material) *Stack {
	if s := r.Lookup(mat); s != nil {
		return s
	}
	s := NewStack(r.nextSetName(), mat)
	r.stacks = append(r.stacks, s)
	Logger().Debug("stack bound", "set", s.Name, "material", materialName(mat))
	return s
}

// Stacks returns a copy of all registered stacks.
func (r *Registry) Stacks() []*Stack {
	return slices.Clone(r.stacks)
}

// Collect drops empty stacks that nothing else uses: those whose material
// has a single user, and those with no material at all. The stack bound
// to active is always kept. It returns the number of stacks removed.
func (r *Registry) Collect(active *Material) int {
	before := len(r.stacks)
	r.stacks = slices.DeleteFunc(r.stacks, func(s *Stack) bool {
		if s.Material != nil && s.Material == active {
			return false
		}
		if s.Len() != 0 {
			return false
		}
		return s.Material == nil || s.Material.Users == 1
	})
	return before - len(r.stacks)
}

func (r *Registry) nextSetName() string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("Set_%02d", n)
		if !slices.ContainsFunc(r.stacks, func(s *Stack) bool { return s.Name == name }) {
			return name
		}
	}
}

func materialName(m *Material) string {
	if m == nil {
		return ""
	}
	return m.Name
}
