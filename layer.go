package paintlayers

import "fmt"

// CustomRole selects where a custom sub-graph is spliced into a layer chain.
type CustomRole uint8

const (
	// RoleColor feeds the layer color through the sub-graph.
	RoleColor CustomRole = iota
	// RoleUV feeds the sub-graph output into the image sampler's coordinates.
	RoleUV
)

// String returns "COLOR" or "UV".
func (r CustomRole) String() string {
	if r == RoleUV {
		return "UV"
	}
	return "COLOR"
}

// MarshalText implements encoding.TextMarshaler.
func (r CustomRole) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *CustomRole) UnmarshalText(b []byte) error {
	switch string(b) {
	case "COLOR", "":
		*r = RoleColor
	case "UV":
		*r = RoleUV
	default:
		return fmt.Errorf("paintlayers: unknown custom role %q", b)
	}
	return nil
}

// NodeToken is the stable identity of a stateful node created for a layer.
// The compiler assigns it on first use; an empty token means none yet.
type NodeToken string

// Layer is one entry of a Stack.
type Layer struct {
	// Name is a display label; images carry the unique name.
	Name string

	Kind    ChannelKind
	Blend   BlendMode
	Opacity float32
	Visible bool

	// Tone adjustment parameters. Hue is a turn offset centered on 0.5;
	// saturation and value are multipliers in [0,2].
	Hue, Saturation, Value float32

	// Custom operator parameters.
	CustomGraph  string
	CustomInput  int
	CustomOutput int
	CustomRole   CustomRole

	// Token identifies the stateful ramp or custom node of this layer.
	Token NodeToken

	image *Image
}

// NewLayer returns a visible MIX layer at full opacity.
func NewLayer(img *Image, kind ChannelKind) *Layer {
	l := &Layer{
		Kind:       kind,
		Blend:      BlendMix,
		Opacity:    1,
		Visible:    true,
		Hue:        0.5,
		Saturation: 1,
		Value:      1,
		image:      img,
	}
	if img != nil {
		l.Name = img.Name()
	}
	return l
}

// Image returns the backing image, or nil if it is unset or was removed.
func (l *Layer) Image() *Image {
	if l.image.Removed() {
		return nil
	}
	return l.image
}

// SetImage replaces the backing image. Passing nil invalidates the layer.
func (l *Layer) SetImage(img *Image) { l.image = img }

// Valid reports whether the layer has a backing image.
func (l *Layer) Valid() bool { return l.Image() != nil }

// EffectiveOpacity returns Opacity clamped to [0,1].
func (l *Layer) EffectiveOpacity() float32 {
	return min(max(l.Opacity, 0), 1)
}

// ClampCustomSockets keeps CustomInput and CustomOutput inside
// [0, inputs-1] and [0, outputs-1]. Counts of zero clamp to 0.
func (l *Layer) ClampCustomSockets(inputs, outputs int) {
	l.CustomInput = clampIndex(l.CustomInput, inputs)
	l.CustomOutput = clampIndex(l.CustomOutput, outputs)
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (l *Layer) String() string {
	name := "<nil>"
	if img := l.Image(); img != nil {
		name = img.Name()
	}
	return fmt.Sprintf("Layer{%s %s %s %.2f}", name, l.Kind, l.Blend, l.Opacity)
}
