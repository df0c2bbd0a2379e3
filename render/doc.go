// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render executes shading graphs offline.
//
// It stands in for the host render API: a Workspace owns scratch scenes,
// materials and target objects, and a Renderer rasterizes the material of
// an object into a Target image in one blocking call.
//
// # Key Principle
//
// Scratch resources are owned by whoever created them. The bake pipeline
// creates them per job and removes them on teardown; Workspace.Counts
// exposes what is still alive so leaks are observable.
//
// # Renderer Implementations
//
//   - SoftwareRenderer: evaluates the node graph on the CPU, one whole
//     image per node output, over a unit plane facing +Z.
//
// # Passes
//
//   - PassEmit: the color reaching the material output, alpha forced to 1.
//   - PassNormal: the shading normal of the output shader, encoded as
//     n*0.5+0.5.
//
// # Usage
//
//	ws := render.NewWorkspace(lib)
//	scene := ws.NewScene("Bake")
//	mat := ws.NewMaterial("Bake")
//	plane := ws.NewPlane("Plane", scene, mat)
//	// build mat.Tree ...
//	target, _ := render.NewTarget(img, gputypes.TextureFormatRGBA8Unorm)
//	err := render.NewSoftwareRenderer().Render(ctx, plane, render.PassEmit, target)
//
// # Thread Safety
//
// Renderers are NOT thread-safe. Each renderer should be used from a single
// goroutine, or external synchronization must be used.
package render
