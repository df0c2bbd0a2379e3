// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/paintlayers/shadergraph"
)

// ErrNotFound is returned when removing a resource the workspace does not own.
var ErrNotFound = errors.New("render: resource not found")

// DefaultUVMap is the UV map every plane carries.
const DefaultUVMap = "UVMap"

// Scene is a scratch scene holding render objects.
type Scene struct {
	Name string
}

// Material is a scratch material with its own node tree.
type Material struct {
	Name string
	Tree *shadergraph.Tree
}

// Object is a render target object: a unit plane facing +Z with one or
// more UV maps, all equal to the plane's 0..1 parametrization.
type Object struct {
	Name     string
	Scene    *Scene
	Material *Material
	UVMaps   []string
}

// HasUVMap reports whether the object carries the named UV map.
func (o *Object) HasUVMap(name string) bool {
	for _, m := range o.UVMaps {
		if m == name {
			return true
		}
	}
	return false
}

// Counts is the number of live scratch resources of a Workspace.
type Counts struct {
	Scenes    int
	Materials int
	Objects   int
}

// Zero reports whether nothing is alive.
func (c Counts) Zero() bool { return c == Counts{} }

// Workspace owns scratch render resources. Material trees are registered
// in the shadergraph library so group trees resolve against it.
type Workspace struct {
	lib       *shadergraph.Library
	scenes    map[*Scene]struct{}
	materials map[*Material]struct{}
	objects   map[*Object]struct{}
	serial    int
}

// NewWorkspace returns an empty workspace over lib.
func NewWorkspace(lib *shadergraph.Library) *Workspace {
	return &Workspace{
		lib:       lib,
		scenes:    make(map[*Scene]struct{}),
		materials: make(map[*Material]struct{}),
		objects:   make(map[*Object]struct{}),
	}
}

// Library returns the library material trees live in.
func (w *Workspace) Library() *shadergraph.Library { return w.lib }

// NewScene creates a scratch scene.
func (w *Workspace) NewScene(name string) *Scene {
	s := &Scene{Name: name}
	w.scenes[s] = struct{}{}
	return s
}

// NewMaterial creates a scratch material with an empty tree holding only
// a material output node. Names are made unique within the library.
func (w *Workspace) NewMaterial(name string) *Material {
	unique := name
	for w.lib.Material(unique) != nil {
		w.serial++
		unique = fmt.Sprintf("%s.%03d", name, w.serial)
	}
	t := w.lib.EnsureMaterial(unique)
	t.AddNode(shadergraph.TypeOutput, "")
	m := &Material{Name: unique, Tree: t}
	w.materials[m] = struct{}{}
	return m
}

// NewPlane creates a plane object in scene using mat. The plane always
// carries DefaultUVMap plus any extra UV map names.
func (w *Workspace) NewPlane(name string, scene *Scene, mat *Material, uvMaps ...string) *Object {
	maps := []string{DefaultUVMap}
	for _, m := range uvMaps {
		if m != "" && m != DefaultUVMap {
			maps = append(maps, m)
		}
	}
	o := &Object{Name: name, Scene: scene, Material: mat, UVMaps: maps}
	w.objects[o] = struct{}{}
	return o
}

// RemoveScene deletes a scene.
func (w *Workspace) RemoveScene(s *Scene) error {
	if _, ok := w.scenes[s]; !ok {
		return fmt.Errorf("%w: scene", ErrNotFound)
	}
	delete(w.scenes, s)
	return nil
}

// RemoveMaterial deletes a material and its tree.
func (w *Workspace) RemoveMaterial(m *Material) error {
	if _, ok := w.materials[m]; !ok {
		return fmt.Errorf("%w: material", ErrNotFound)
	}
	delete(w.materials, m)
	w.lib.RemoveMaterial(m.Name)
	return nil
}

// RemoveObject deletes an object.
func (w *Workspace) RemoveObject(o *Object) error {
	if _, ok := w.objects[o]; !ok {
		return fmt.Errorf("%w: object", ErrNotFound)
	}
	delete(w.objects, o)
	return nil
}

// Counts returns the number of live resources.
func (w *Workspace) Counts() Counts {
	return Counts{
		Scenes:    len(w.scenes),
		Materials: len(w.materials),
		Objects:   len(w.objects),
	}
}
