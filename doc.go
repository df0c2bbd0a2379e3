// Package paintlayers models non-destructive texture paint layers.
//
// # Overview
//
// A Stack holds an ordered list of Layers bound to one material. Each
// layer references an Image and targets one output channel (diffuse,
// roughness, normal, height, ...) or adjusts the base layer beneath it
// (tone, ramp, mask, custom operator). The stack is the source of truth;
// everything else is derived from it:
//
//   - compile turns the visible layers of each channel into a node graph
//     and installs it into the material's shading tree
//   - render executes shading graphs offline on a flat plane
//   - bake flattens channels into PNG textures and merges layers down
//   - preview emits a WGSL fragment shader for live display
//
// # Quick Start
//
//	store := paintlayers.NewImageStore()
//	reg := paintlayers.NewRegistry()
//	stack := reg.Bind(&paintlayers.Material{Name: "Iron", Users: 1})
//
//	base, _ := stack.NewImageLayer(store, 1024, 1024)
//	base.Kind = paintlayers.Diffuse
//
// # Coordinate System
//
// Images are stored top row first. Texture coordinates have their origin
// at the bottom-left corner, so v=0 addresses the last row.
//
// # Conventions
//
// Index 0 of a stack is the bottom layer. Layers whose image is missing
// or has been removed from its ImageStore are invalid and are pruned
// whenever the stack is inspected.
package paintlayers

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"
)
