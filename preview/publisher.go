// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package preview

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/compile"
)

// ErrCustomShader is returned when publishing a stack whose material is
// wired by hand.
var ErrCustomShader = errors.New("preview: stack uses a custom shader")

func logger() *slog.Logger { return paintlayers.Component("preview") }

// Publisher keeps the preview shader of every published material current.
// A module is recompiled only when its generated source changes.
//
// A Publisher is not safe for concurrent use.
type Publisher struct {
	compiler *compile.Compiler
	opts     options
	shaders  map[string]*Shader
}

// NewPublisher returns a Publisher compiling stacks with c.
func NewPublisher(c *compile.Compiler, opts ...Option) *Publisher {
	return &Publisher{
		compiler: c,
		opts:     collect(opts),
		shaders:  make(map[string]*Shader),
	}
}

// Publish compiles s, installs its graphs and returns the material's
// preview shader.
func (p *Publisher) Publish(s *paintlayers.Stack) (*Shader, error) {
	res, err := p.compiler.Compile(s)
	if err != nil {
		return nil, err
	}
	if res.Installed == nil {
		return nil, fmt.Errorf("%w: %s", ErrCustomShader, res.Material)
	}
	sh, err := Generate(res.Installed)
	if err != nil {
		return nil, err
	}
	if prev := p.shaders[res.Material]; prev != nil && prev.Source == sh.Source {
		prev.Bindings = sh.Bindings
		return prev, nil
	}
	if err := sh.compile(p.opts); err != nil {
		return nil, err
	}
	p.shaders[res.Material] = sh
	logger().Debug("published preview shader",
		"material", res.Material, "textures", len(sh.Bindings), "bytes", len(sh.SPIRV))
	return sh, nil
}

// Shader returns the last shader published for material, or nil.
func (p *Publisher) Shader(material string) *Shader { return p.shaders[material] }

// Forget drops the shader of material.
func (p *Publisher) Forget(material string) { delete(p.shaders, material) }
