package paintlayers

import "fmt"

// BlendMode selects how a layer's color combines with the layers below.
type BlendMode uint8

// Blend modes. The order matches internal/blend.Mode.
const (
	BlendMix BlendMode = iota
	BlendAdd
	BlendMultiply
	BlendSubtract
	BlendScreen
	BlendDivide
	BlendDifference
	BlendDarken
	BlendLighten
	BlendOverlay
	BlendDodge
	BlendBurn
	BlendHue
	BlendSaturation
	BlendValue
	BlendColor
	BlendSoftLight
	BlendLinearLight

	blendModeCount
)

var blendModeNames = [blendModeCount]string{
	"MIX", "ADD", "MULTIPLY", "SUBTRACT", "SCREEN", "DIVIDE", "DIFFERENCE",
	"DARKEN", "LIGHTEN", "OVERLAY", "DODGE", "BURN", "HUE", "SATURATION",
	"VALUE", "COLOR", "SOFT_LIGHT", "LINEAR_LIGHT",
}

// String returns the canonical upper-case name of the mode.
func (m BlendMode) String() string {
	if m < blendModeCount {
		return blendModeNames[m]
	}
	return fmt.Sprintf("BlendMode(%d)", uint8(m))
}

// Valid reports whether m is a known mode.
func (m BlendMode) Valid() bool { return m < blendModeCount }

// ParseBlendMode parses a canonical mode name.
func ParseBlendMode(s string) (BlendMode, error) {
	for m, name := range blendModeNames {
		if name == s {
			return BlendMode(m), nil
		}
	}
	return 0, fmt.Errorf("paintlayers: unknown blend mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("paintlayers: invalid blend mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(b []byte) error {
	v, err := ParseBlendMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
