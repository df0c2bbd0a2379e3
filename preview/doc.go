// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package preview publishes installed materials as GPU shaders.
//
// Generate walks a material tree from its output node and emits one WGSL
// module: a full-screen vertex stage and a fragment stage in which every
// reachable node becomes a straight-line let binding. Group nodes are
// inlined, so a channel graph used by the material appears once per
// instance. Image nodes become texture/sampler binding pairs in group 0.
//
// The fragment stage follows the semantics of the software renderer:
// socket conversions, blend modes, math edge cases and ramp evaluation
// match, so a preview and a bake of the same tree agree up to texture
// filtering. Shader nodes add a single-light Lambert term on top of their
// surface color.
//
// Compile runs the generated source through naga and keeps the SPIR-V
// binary. A Publisher ties the two to a compile.Compiler:
//
//	pub := preview.NewPublisher(compiler)
//	sh, err := pub.Publish(stack)
//	if err != nil {
//		return err
//	}
//	module := sh.Words() // SPIR-V for the host device
package preview
