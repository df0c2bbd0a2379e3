package paintlayers

import "fmt"

// ChannelKind identifies what a layer contributes to.
//
// Base kinds produce a material channel of their own. Adjustment kinds
// modify the output of the nearest base layer below them.
type ChannelKind uint8

const (
	// Diffuse is the base color channel.
	Diffuse ChannelKind = iota
	Metallic
	Roughness
	Emission
	Alpha
	// Normal holds tangent-space normals in unit-color encoding.
	Normal
	// Height holds scalar displacement consumed by bump mapping.
	Height

	// AdjustHSV shifts hue, saturation and value of the base layer.
	AdjustHSV
	// AdjustRamp remaps the base layer through a color ramp.
	AdjustRamp
	// Mask multiplies the base layer's alpha by the inverse of its image.
	Mask
	// Custom splices an artist-authored sub-graph into the base layer.
	Custom

	channelKindCount
)

var channelKindNames = [channelKindCount]string{
	Diffuse:    "DIFFUSE",
	Metallic:   "METALLIC",
	Roughness:  "ROUGHNESS",
	Emission:   "EMISSION",
	Alpha:      "ALPHA",
	Normal:     "NORMAL",
	Height:     "HEIGHT",
	AdjustHSV:  "ADJUSTHSV",
	AdjustRamp: "COLORRAMP",
	Mask:       "MASK",
	Custom:     "CUSTOM",
}

// shaderInputs names the standard shader input each base kind drives.
// Normal and height feed the bump node instead.
var shaderInputs = [channelKindCount]string{
	Diffuse:   "Base Color",
	Metallic:  "Metallic",
	Roughness: "Roughness",
	Emission:  "Emission Color",
	Alpha:     "Alpha",
}

// String returns the canonical upper-case name of the kind.
func (k ChannelKind) String() string {
	if k < channelKindCount {
		return channelKindNames[k]
	}
	return fmt.Sprintf("ChannelKind(%d)", uint8(k))
}

// ParseChannelKind parses a canonical kind name.
func ParseChannelKind(s string) (ChannelKind, error) {
	for k, name := range channelKindNames {
		if name == s {
			return ChannelKind(k), nil
		}
	}
	return 0, fmt.Errorf("paintlayers: unknown channel kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k ChannelKind) MarshalText() ([]byte, error) {
	if k >= channelKindCount {
		return nil, fmt.Errorf("paintlayers: invalid channel kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ChannelKind) UnmarshalText(b []byte) error {
	v, err := ParseChannelKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// IsBase reports whether the kind produces its own material channel.
func (k ChannelKind) IsBase() bool { return k <= Height }

// IsAdjustment reports whether the kind modifies the base layer below it.
func (k ChannelKind) IsAdjustment() bool { return k >= AdjustHSV && k < channelKindCount }

// Coercible reports whether a layer of this kind may be retargeted to
// another base kind, as merge-down does.
func (k ChannelKind) Coercible() bool { return k.IsBase() }

// ShaderInput returns the standard shader input name driven by the kind,
// or "" when the kind has no direct input.
func (k ChannelKind) ShaderInput() string {
	if k < channelKindCount {
		return shaderInputs[k]
	}
	return ""
}

// BaseKinds returns every base kind in canonical order.
func BaseKinds() []ChannelKind {
	return []ChannelKind{Diffuse, Metallic, Roughness, Emission, Alpha, Normal, Height}
}
