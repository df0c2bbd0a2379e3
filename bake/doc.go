// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bake rasterizes compiled layer stacks into images.
//
// A [Pipeline] runs one job per channel of a stack. Each job builds a
// scratch scene, material and plane, renders the channel's color pass
// and, depending on the channel's [AlphaPolicy], an alpha pass,
// composites the two and writes PNG files named from a save-name
// template. Scratch resources are removed when the job returns, whether
// it succeeded or not.
//
// [Pipeline.MergeDown] is a restricted bake that collapses a layer into
// the layer below it.
//
// # Save-name templates
//
// Templates substitute parenthesized tokens:
//
//	(obj)   object name
//	(mtl)   material name
//	(file)  project file name, "untitled" when unset
//	(set)   layer set name
//
// so "(set)_(mtl)_(obj)" expands to "Set_01_Iron_Sword".
package bake
