// Package config reads and writes paintlayers settings and project files.
//
// Both are TOML. A settings file holds the export surface:
//
//	[export]
//	save_path = "textures"
//	width = 2048
//	height = 2048
//	filtering = "Cubic"
//	height_to_normal = true
//
//	[[channel]]
//	kind = "DIFFUSE"
//	enabled = true
//	alpha = "combined"
//	name = "(set)_(mtl)_albedo"
//
// A project file describes one layer set and its layers. Image paths are
// resolved relative to the project file.
package config
