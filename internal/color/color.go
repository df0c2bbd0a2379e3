// Package color provides float color types and conversions for paintlayers.
package color

// ColorF32 represents a color with float32 components.
// Components are nominally in [0,1] but shading math may push them outside;
// only quantisation clamps.
type ColorF32 struct {
	R, G, B, A float32
}

// ColorU8 represents a color with uint8 components in [0,255].
type ColorU8 struct {
	R, G, B, A uint8
}

// HSV is a hue/saturation/value triple. Hue is in [0,1) turns.
type HSV struct {
	H, S, V float32
}
