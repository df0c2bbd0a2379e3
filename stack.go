package paintlayers

import (
	"errors"
	"fmt"
	"slices"
)

// ErrLayerNotFound is returned when a layer does not belong to the stack.
var ErrLayerNotFound = errors.New("paintlayers: layer not in stack")

// ShaderMode selects how compiled channels are wired into the material.
type ShaderMode uint8

const (
	// ShaderStandard drives a principled-style shader with bump mapping.
	ShaderStandard ShaderMode = iota
	// ShaderUnlit sends the diffuse channel straight to the output.
	ShaderUnlit
	// ShaderCustom leaves the material untouched; channels are wired by hand.
	ShaderCustom
)

var shaderModeNames = []string{"PRINCIPLED", "UNLIT", "CUSTOM"}

// String returns the mode name.
func (m ShaderMode) String() string {
	if int(m) < len(shaderModeNames) {
		return shaderModeNames[m]
	}
	return fmt.Sprintf("ShaderMode(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m ShaderMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ShaderMode) UnmarshalText(b []byte) error {
	for i, name := range shaderModeNames {
		if name == string(b) {
			*m = ShaderMode(i)
			return nil
		}
	}
	return fmt.Errorf("paintlayers: unknown shader mode %q", b)
}

// Material is the host material a stack is bound to.
type Material struct {
	Name string
	// Users counts the objects and stacks referencing the material.
	Users int
}

// Direction for Stack.Move.
type Direction int

const (
	Down Direction = -1
	Up   Direction = 1
)

// Stack is the ordered list of layers bound to one material.
// Index 0 is the bottom layer.
//
// Stacks are not safe for concurrent mutation; edits and compilation run
// on the caller's goroutine.
type Stack struct {
	// Name is the set name, e.g. "Set_01".
	Name     string
	Material *Material

	Shader ShaderMode
	// UVAttribute names the UV map every image sampler reads. Empty means
	// the default coordinates.
	UVAttribute     string
	HeightIntensity float32

	layers []*Layer
}

// NewStack returns an empty stack bound to mat.
func NewStack(name string, mat *Material) *Stack {
	return &Stack{
		Name:            name,
		Material:        mat,
		HeightIntensity: 1,
	}
}

// Validate removes layers without a backing image and returns how many
// were removed. A second call on an unmodified stack removes nothing.
func (s *Stack) Validate() int {
	before := len(s.layers)
	s.layers = slices.DeleteFunc(s.layers, func(l *Layer) bool { return !l.Valid() })
	removed := before - len(s.layers)
	if removed > 0 {
		Logger().Debug("pruned layers without image", "stack", s.Name, "count", removed)
	}
	return removed
}

// Layers prunes invalid layers and returns a copy of the layer list,
// bottom first.
func (s *Stack) Layers() []*Layer {
	s.Validate()
	return slices.Clone(s.layers)
}

// Len returns the number of layers after pruning.
func (s *Stack) Len() int {
	s.Validate()
	return len(s.layers)
}

// At returns the layer at index i after pruning, or nil.
func (s *Stack) At(i int) *Layer {
	s.Validate()
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return s.layers[i]
}

// Index returns the position of l, or -1.
func (s *Stack) Index(l *Layer) int {
	return slices.Index(s.layers, l)
}

// Add appends l on top of the stack.
func (s *Stack) Add(l *Layer) {
	s.layers = append(s.layers, l)
}

// Insert places l at index i, clamped to the stack bounds.
func (s *Stack) Insert(i int, l *Layer) {
	i = min(max(i, 0), len(s.layers))
	s.layers = slices.Insert(s.layers, i, l)
}

// Remove deletes l from the stack.
func (s *Stack) Remove(l *Layer) error {
	i := s.Index(l)
	if i < 0 {
		return ErrLayerNotFound
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	return nil
}

// Move swaps l with its neighbor in direction dir. Moving past either
// end is a no-op. It reports whether the layer moved.
func (s *Stack) Move(l *Layer, dir Direction) bool {
	i := s.Index(l)
	j := i + int(dir)
	if i < 0 || j < 0 || j >= len(s.layers) {
		return false
	}
	s.layers[i], s.layers[j] = s.layers[j], s.layers[i]
	return true
}

// ToggleByImageName flips the visibility of the first layer whose image
// has the given name. It reports whether a layer was found.
func (s *Stack) ToggleByImageName(name string) bool {
	for _, l := range s.Layers() {
		if l.Image().Name() == name {
			l.Visible = !l.Visible
			return true
		}
	}
	return false
}

// Clear removes every layer. Images stay in their store.
func (s *Stack) Clear() {
	s.layers = nil
}

// NewImageLayer creates a transparent width x height image named Layer_NN
// in store and adds a diffuse layer for it on top of the stack.
func (s *Stack) NewImageLayer(store *ImageStore, width, height int) (*Layer, error) {
	img, err := store.New(store.NextName("Layer"), width, height, 4)
	if err != nil {
		return nil, err
	}
	l := NewLayer(img, Diffuse)
	s.Add(l)
	Logger().Debug("layer created", "stack", s.Name, "layer", l)
	return l, nil
}

// NewLayerFromImage adds a diffuse layer for an existing image. With
// duplicate set the layer gets its own copy named <name>_copy.
func (s *Stack) NewLayerFromImage(store *ImageStore, img *Image, duplicate bool) (*Layer, error) {
	if img.Removed() {
		return nil, ErrImageRemoved
	}
	if duplicate {
		var err error
		img, err = store.Copy(img, img.Name()+"_copy")
		if err != nil {
			return nil, err
		}
	}
	l := NewLayer(img, Diffuse)
	s.Add(l)
	return l, nil
}

// UsedKinds returns the base kinds present among visible layers, in the
// order they first appear in the stack.
func (s *Stack) UsedKinds() []ChannelKind {
	var kinds []ChannelKind
	for _, l := range s.Layers() {
		if l.Visible && l.Kind.IsBase() && !slices.Contains(kinds, l.Kind) {
			kinds = append(kinds, l.Kind)
		}
	}
	return kinds
}
