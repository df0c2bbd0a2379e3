package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/paintlayers"
)

// ErrNoLayers is returned when a project lists no layers.
var ErrNoLayers = errors.New("config: project has no layers")

// Project describes one layer set.
type Project struct {
	Set             string                 `toml:"set"`
	Object          string                 `toml:"object"`
	Material        string                 `toml:"material"`
	Shader          paintlayers.ShaderMode `toml:"shader"`
	UVAttribute     string                 `toml:"uv_attribute,omitempty"`
	HeightIntensity *float32               `toml:"height_intensity,omitempty"`
	Layers          []Layer                `toml:"layer"`

	// dir resolves relative image paths.
	dir string
}

// Layer is one layer of a project, bottom first.
type Layer struct {
	Image   string                  `toml:"image"`
	Kind    paintlayers.ChannelKind `toml:"kind"`
	Blend   paintlayers.BlendMode   `toml:"blend"`
	Opacity *float32                `toml:"opacity,omitempty"`
	Hidden  bool                    `toml:"hidden,omitempty"`

	Hue        *float32 `toml:"hue,omitempty"`
	Saturation *float32 `toml:"saturation,omitempty"`
	Value      *float32 `toml:"value,omitempty"`

	CustomGraph  string                 `toml:"custom_graph,omitempty"`
	CustomInput  int                    `toml:"custom_input,omitempty"`
	CustomOutput int                    `toml:"custom_output,omitempty"`
	CustomRole   paintlayers.CustomRole `toml:"custom_role,omitempty"`
}

// LoadProject reads the project at path.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: read project: %w", err)
	}
	p := &Project{}
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	if len(p.Layers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLayers, path)
	}
	if p.Material == "" {
		p.Material = "Material"
	}
	return p, nil
}

// Save writes p to path. Image paths are written as stored.
func (p *Project) Save(path string) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("config: marshal project: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ImagePath resolves an image path against the project directory.
func (p *Project) ImagePath(image string) string {
	if filepath.IsAbs(image) || p.dir == "" {
		return image
	}
	return filepath.Join(p.dir, image)
}

// Build loads every layer image into store and returns the stack.
func (p *Project) Build(store *paintlayers.ImageStore) (*paintlayers.Stack, error) {
	set := p.Set
	if set == "" {
		set = "Set_01"
	}
	s := paintlayers.NewStack(set, &paintlayers.Material{Name: p.Material, Users: 1})
	s.Shader = p.Shader
	s.UVAttribute = p.UVAttribute
	if p.HeightIntensity != nil {
		s.HeightIntensity = *p.HeightIntensity
	}
	for i, lc := range p.Layers {
		img, err := store.Load(p.ImagePath(lc.Image))
		if err != nil {
			return nil, fmt.Errorf("config: layer %d: %w", i, err)
		}
		s.Add(lc.layer(img))
	}
	return s, nil
}

func (lc Layer) layer(img *paintlayers.Image) *paintlayers.Layer {
	l := paintlayers.NewLayer(img, lc.Kind)
	l.Blend = lc.Blend
	l.Visible = !lc.Hidden
	if lc.Opacity != nil {
		l.Opacity = *lc.Opacity
	}
	if lc.Hue != nil {
		l.Hue = *lc.Hue
	}
	if lc.Saturation != nil {
		l.Saturation = *lc.Saturation
	}
	if lc.Value != nil {
		l.Value = *lc.Value
	}
	l.CustomGraph = lc.CustomGraph
	l.CustomInput = lc.CustomInput
	l.CustomOutput = lc.CustomOutput
	l.CustomRole = lc.CustomRole
	return l
}

// Sync rewrites the layer list of p from s. Images without a file path
// keep the path of the project layer they replaced, matched by position.
func (p *Project) Sync(s *paintlayers.Stack) {
	old := p.Layers
	p.Layers = p.Layers[:0:0]
	for i, l := range s.Layers() {
		lc := Layer{
			Kind:         l.Kind,
			Blend:        l.Blend,
			Hidden:       !l.Visible,
			CustomGraph:  l.CustomGraph,
			CustomInput:  l.CustomInput,
			CustomOutput: l.CustomOutput,
			CustomRole:   l.CustomRole,
		}
		if path := l.Image().Path; path != "" {
			lc.Image = p.relative(path)
		} else if i < len(old) {
			lc.Image = old[i].Image
		}
		if l.Opacity != 1 {
			lc.Opacity = ptr(l.Opacity)
		}
		if l.Hue != 0.5 {
			lc.Hue = ptr(l.Hue)
		}
		if l.Saturation != 1 {
			lc.Saturation = ptr(l.Saturation)
		}
		if l.Value != 1 {
			lc.Value = ptr(l.Value)
		}
		p.Layers = append(p.Layers, lc)
	}
}

func (p *Project) relative(path string) string {
	if p.dir == "" {
		return path
	}
	if rel, err := filepath.Rel(p.dir, path); err == nil {
		return rel
	}
	return path
}

func ptr[T any](v T) *T { return &v }
