// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/paintlayers"
)

// Target is the image a render writes into.
//
// The format fixes how many channels the image buffer must carry:
// RGBA8Unorm and BGRA8Unorm need 4, R8Unorm needs 1. Values are stored
// as floats and quantized to the format when the image is saved.
type Target struct {
	Image  *paintlayers.Image
	Format gputypes.TextureFormat
}

// NewTarget wraps img as a render target of the given format.
func NewTarget(img *paintlayers.Image, format gputypes.TextureFormat) (*Target, error) {
	if img == nil || img.Removed() {
		return nil, ErrNilTarget
	}
	want := Channels(format)
	if want == 0 {
		return nil, fmt.Errorf("render: unsupported target format %v", format)
	}
	if img.Channels() != want {
		return nil, fmt.Errorf("render: %s has %d channels, format %v needs %d",
			img.Name(), img.Channels(), format, want)
	}
	return &Target{Image: img, Format: format}, nil
}

// Channels returns the channel count of format, or 0 if unsupported.
func Channels(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 0
	}
}

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.Image.Width() }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.Image.Height() }
