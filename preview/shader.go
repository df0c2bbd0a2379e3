// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package preview

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/shadergraph"
)

// ErrCompile wraps WGSL compilation failures.
var ErrCompile = errors.New("preview: shader compilation failed")

// Entry points of every generated module.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Binding is one texture and its sampler in the fragment stage.
type Binding struct {
	Group   uint32
	Texture uint32
	Sampler uint32
	Image   *paintlayers.Image
	Format  gputypes.TextureFormat
	Filter  gputypes.FilterMode
}

// Shader is a generated preview module.
type Shader struct {
	Material string
	Source   string
	Bindings []Binding
	// SPIRV is the compiled module; nil until compiled.
	SPIRV []byte
}

// Words returns the SPIR-V module as little-endian 32-bit words.
func (s *Shader) Words() []uint32 {
	words := make([]uint32, len(s.SPIRV)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(s.SPIRV[i*4:])
	}
	return words
}

// Compile generates and compiles the preview module of material tree t.
func Compile(t *shadergraph.Tree, opts ...Option) (*Shader, error) {
	sh, err := Generate(t)
	if err != nil {
		return nil, err
	}
	if err := sh.compile(collect(opts)); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Shader) compile(o options) error {
	spv, err := naga.CompileWithOptions(s.Source, o.naga)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCompile, s.Material, err)
	}
	s.SPIRV = spv
	return nil
}
