// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import "github.com/gogpu/paintlayers"

// DefaultSize is the default texture size in pixels.
const DefaultSize = 1024

// ChannelSettings configures the export of one channel kind.
type ChannelSettings struct {
	// Name is the save-name template. Empty means the kind name.
	Name     string
	Alpha    AlphaPolicy
	Disabled bool
}

// Settings configures an export.
type Settings struct {
	// SavePath is the folder files are written to. It must exist.
	SavePath string
	Width    int
	Height   int
	// HeightToNormal bakes height as bump into the normal map instead of
	// as its own image.
	HeightToNormal bool
	InvertGreen    bool
	// Channels overrides the defaults per kind.
	Channels map[paintlayers.ChannelKind]ChannelSettings
	// Object and File fill the (obj) and (file) template tokens.
	Object string
	File   string
}

// DefaultSettings returns settings for a square DefaultSize export with
// default channel settings and no save path.
func DefaultSettings() Settings {
	return Settings{Width: DefaultSize, Height: DefaultSize}
}

// Channel returns the effective settings of kind.
func (s Settings) Channel(kind paintlayers.ChannelKind) ChannelSettings {
	cs, ok := s.Channels[kind]
	if !ok {
		cs = ChannelSettings{Alpha: DefaultPolicy(kind)}
	}
	if cs.Name == "" {
		cs.Name = kind.String()
	}
	return cs
}

func (s Settings) vars(st *paintlayers.Stack) Vars {
	v := Vars{Object: s.Object, File: s.File, Set: st.Name}
	if st.Material != nil {
		v.Material = st.Material.Name
	}
	return v
}
