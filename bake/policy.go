// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import (
	"fmt"
	"strings"

	"github.com/gogpu/paintlayers"
)

// AlphaPolicy selects what happens to a channel's alpha pass.
type AlphaPolicy uint8

const (
	// AlphaCombined writes the alpha pass into the color image.
	AlphaCombined AlphaPolicy = iota
	// AlphaSeparate keeps the alpha pass as its own image and file.
	AlphaSeparate
	// AlphaNone skips the alpha pass; the color image is opaque.
	AlphaNone
)

var alphaPolicyNames = []string{"combined", "separate", "none"}

func (p AlphaPolicy) String() string {
	if int(p) < len(alphaPolicyNames) {
		return alphaPolicyNames[p]
	}
	return fmt.Sprintf("AlphaPolicy(%d)", p)
}

// ParseAlphaPolicy parses a policy name, ignoring case.
func ParseAlphaPolicy(s string) (AlphaPolicy, error) {
	for i, n := range alphaPolicyNames {
		if strings.EqualFold(s, n) {
			return AlphaPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("bake: unknown alpha policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p AlphaPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *AlphaPolicy) UnmarshalText(b []byte) error {
	v, err := ParseAlphaPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// DefaultPolicy returns the policy used for kind when none is configured:
// none for height and normal, combined for everything else.
func DefaultPolicy(kind paintlayers.ChannelKind) AlphaPolicy {
	switch kind {
	case paintlayers.Height, paintlayers.Normal:
		return AlphaNone
	}
	return AlphaCombined
}
