// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package preview

import (
	"fmt"
	"strings"

	"github.com/gogpu/paintlayers"
)

// separable lists the per-channel blend operators as WGSL bodies over
// scalars fac, a and b.
var separable = []struct {
	mode paintlayers.BlendMode
	name string
	body string
}{
	{paintlayers.BlendMix, "mix", "return a + (b - a) * fac;"},
	{paintlayers.BlendAdd, "add", "return a + b * fac;"},
	{paintlayers.BlendMultiply, "multiply", "return a + (a * b - a) * fac;"},
	{paintlayers.BlendSubtract, "subtract", "return a - b * fac;"},
	{paintlayers.BlendScreen, "screen", "return 1.0 - (1.0 - fac + fac * (1.0 - b)) * (1.0 - a);"},
	{paintlayers.BlendDivide, "divide", `if b == 0.0 {
        return a;
    }
    return (1.0 - fac) * a + fac * a / b;`},
	{paintlayers.BlendDifference, "difference", "return a + (abs(a - b) - a) * fac;"},
	{paintlayers.BlendDarken, "darken", "return a + (min(a, b) - a) * fac;"},
	{paintlayers.BlendLighten, "lighten", "return a + (max(a, b) - a) * fac;"},
	{paintlayers.BlendOverlay, "overlay", `if a < 0.5 {
        return a * (1.0 - fac + 2.0 * fac * b);
    }
    return 1.0 - (1.0 - fac + 2.0 * fac * (1.0 - b)) * (1.0 - a);`},
	{paintlayers.BlendDodge, "dodge", `if a == 0.0 {
        return 0.0;
    }
    let t = 1.0 - fac * b;
    if t <= 0.0 {
        return 1.0;
    }
    return min(a / t, 1.0);`},
	{paintlayers.BlendBurn, "burn", `let t = 1.0 - fac + fac * b;
    if t <= 0.0 {
        return 0.0;
    }
    return clamp(1.0 - (1.0 - a) / t, 0.0, 1.0);`},
	{paintlayers.BlendSoftLight, "soft_light", `let scr = 1.0 - (1.0 - b) * (1.0 - a);
    return (1.0 - fac) * a + fac * ((1.0 - a) * b * a + a * scr);`},
	{paintlayers.BlendLinearLight, "linear_light", "return a + fac * (2.0 * b - 1.0);"},
}

// Hue, saturation, value and color work in HSV space.
const hsvBlends = `fn blend_hue(fac: f32, a: vec3<f32>, b: vec3<f32>) -> vec3<f32> {
    let hb = rgb_to_hsv(b);
    if hb.y == 0.0 {
        return a;
    }
    let ha = rgb_to_hsv(a);
    let c = hsv_to_rgb(vec3<f32>(hb.x, ha.y, ha.z));
    return a + (c - a) * fac;
}

fn blend_saturation(fac: f32, a: vec3<f32>, b: vec3<f32>) -> vec3<f32> {
    let ha = rgb_to_hsv(a);
    if ha.y == 0.0 {
        return a;
    }
    let hb = rgb_to_hsv(b);
    return hsv_to_rgb(vec3<f32>(ha.x, ha.y + (hb.y - ha.y) * fac, ha.z));
}

fn blend_value(fac: f32, a: vec3<f32>, b: vec3<f32>) -> vec3<f32> {
    let ha = rgb_to_hsv(a);
    let hb = rgb_to_hsv(b);
    return hsv_to_rgb(vec3<f32>(ha.x, ha.y, ha.z + (hb.z - ha.z) * fac));
}

fn blend_color(fac: f32, a: vec3<f32>, b: vec3<f32>) -> vec3<f32> {
    let hb = rgb_to_hsv(b);
    if hb.y == 0.0 {
        return a;
    }
    let ha = rgb_to_hsv(a);
    let c = hsv_to_rgb(vec3<f32>(hb.x, hb.y, ha.z));
    return a + (c - a) * fac;
}
`

const helpers = `fn luminance(c: vec4<f32>) -> f32 {
    return 0.2126 * c.x + 0.7152 * c.y + 0.0722 * c.z;
}

fn float_to_color(v: vec4<f32>) -> vec4<f32> {
    return vec4<f32>(v.x, v.x, v.x, 1.0);
}

fn float_to_vector(v: vec4<f32>) -> vec4<f32> {
    return vec4<f32>(v.x, v.x, v.x, 0.0);
}

fn color_to_float(v: vec4<f32>) -> vec4<f32> {
    return vec4<f32>(luminance(v), 0.0, 0.0, 0.0);
}

fn vector_to_float(v: vec4<f32>) -> vec4<f32> {
    return vec4<f32>((v.x + v.y + v.z) / 3.0, 0.0, 0.0, 0.0);
}

fn vector_to_color(v: vec4<f32>) -> vec4<f32> {
    return vec4<f32>(v.x, v.y, v.z, 1.0);
}

fn color_to_vector(v: vec4<f32>) -> vec4<f32> {
    return vec4<f32>(v.x, v.y, v.z, 0.0);
}

fn clamp3(v: vec3<f32>) -> vec3<f32> {
    return clamp(v, vec3<f32>(0.0, 0.0, 0.0), vec3<f32>(1.0, 1.0, 1.0));
}

fn mix4(a: vec4<f32>, b: vec4<f32>, f: f32) -> vec4<f32> {
    return a + (b - a) * f;
}

fn safe_div(a: f32, b: f32) -> f32 {
    if b == 0.0 {
        return 0.0;
    }
    return a / b;
}

// Negative bases only take integer exponents.
fn safe_pow(a: f32, b: f32) -> f32 {
    if b == 0.0 {
        return 1.0;
    }
    if a == 0.0 {
        return 0.0;
    }
    if a < 0.0 {
        if b != floor(b) {
            return 0.0;
        }
        let r = pow(-a, b);
        if b - 2.0 * floor(b * 0.5) != 0.0 {
            return -r;
        }
        return r;
    }
    return pow(a, b);
}

fn safe_normalize(v: vec3<f32>) -> vec3<f32> {
    let l = length(v);
    if l == 0.0 {
        return vec3<f32>(0.0, 0.0, 0.0);
    }
    return v / l;
}

fn rgb_to_hsv(c: vec3<f32>) -> vec3<f32> {
    let cmax = max(c.x, max(c.y, c.z));
    let cmin = min(c.x, min(c.y, c.z));
    let delta = cmax - cmin;
    if cmax == 0.0 || delta == 0.0 {
        return vec3<f32>(0.0, 0.0, cmax);
    }
    var h: f32 = 0.0;
    if cmax == c.x {
        h = (c.y - c.z) / delta;
    } else if cmax == c.y {
        h = 2.0 + (c.z - c.x) / delta;
    } else {
        h = 4.0 + (c.x - c.y) / delta;
    }
    h = h / 6.0;
    if h < 0.0 {
        h = h + 1.0;
    }
    return vec3<f32>(h, delta / cmax, cmax);
}

fn hsv_to_rgb(c: vec3<f32>) -> vec3<f32> {
    let v = c.z;
    if c.y <= 0.0 {
        return vec3<f32>(v, v, v);
    }
    let h = (c.x - floor(c.x)) * 6.0;
    let i = floor(h);
    let f = h - i;
    let p = v * (1.0 - c.y);
    let q = v * (1.0 - c.y * f);
    let t = v * (1.0 - c.y * (1.0 - f));
    if i < 1.0 {
        return vec3<f32>(v, t, p);
    }
    if i < 2.0 {
        return vec3<f32>(q, v, p);
    }
    if i < 3.0 {
        return vec3<f32>(p, v, t);
    }
    if i < 4.0 {
        return vec3<f32>(p, q, v);
    }
    if i < 5.0 {
        return vec3<f32>(t, p, v);
    }
    return vec3<f32>(v, p, q);
}

fn hue_sat(hue: f32, sat: f32, val: f32, fac: f32, c: vec4<f32>) -> vec4<f32> {
    let hsv = rgb_to_hsv(c.xyz);
    let rgb = hsv_to_rgb(vec3<f32>(hsv.x + hue - 0.5, clamp(hsv.y * sat, 0.0, 1.0), hsv.z * val));
    let f = clamp(fac, 0.0, 1.0);
    return vec4<f32>(c.xyz + (rgb - c.xyz) * f, c.w);
}

fn invert(fac: f32, c: vec4<f32>) -> vec4<f32> {
    let d = vec3<f32>(1.0 - 2.0 * c.x, 1.0 - 2.0 * c.y, 1.0 - 2.0 * c.z);
    return vec4<f32>(c.xyz + d * fac, c.w);
}

fn normal_map(strength: f32, c: vec4<f32>) -> vec4<f32> {
    let flat_n = vec3<f32>(0.0, 0.0, 1.0);
    let decoded = safe_normalize(vec3<f32>(c.x * 2.0 - 1.0, c.y * 2.0 - 1.0, c.z * 2.0 - 1.0));
    return vec4<f32>(safe_normalize(flat_n + (decoded - flat_n) * strength), 0.0);
}

// grad is the height gradient in plane units, already scaled by distance.
fn bump(strength: f32, grad: vec2<f32>, normal: vec4<f32>) -> vec4<f32> {
    let n0 = safe_normalize(normal.xyz);
    let perturbed = safe_normalize(n0 - vec3<f32>(grad.x, grad.y, 0.0));
    let s = clamp(strength, 0.0, 1.0);
    return vec4<f32>(safe_normalize(n0 + (perturbed - n0) * s), 0.0);
}

fn shade(c: vec4<f32>, n: vec4<f32>) -> vec4<f32> {
    let l = normalize(vec3<f32>(0.3, 0.4, 0.85));
    let lambert = max(dot(safe_normalize(n.xyz), l), 0.0);
    return vec4<f32>(c.xyz * (0.25 + 0.75 * lambert), c.w);
}
`

const vertexStage = `struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

// One oversized triangle covers the viewport; uv grows right and up.
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> VertexOutput {
    let x = select(-1.0, 3.0, idx == 1u);
    let y = select(-1.0, 3.0, idx == 2u);
    var output: VertexOutput;
    output.position = vec4<f32>(x, y, 0.0, 1.0);
    output.uv = vec2<f32>((x + 1.0) * 0.5, (y + 1.0) * 0.5);
    return output;
}
`

// prelude is the fixed helper library shared by every generated module.
var prelude = buildPrelude()

func buildPrelude() string {
	var b strings.Builder
	b.WriteString(helpers)
	for _, op := range separable {
		fmt.Fprintf(&b, "\nfn %s1(fac: f32, a: f32, b: f32) -> f32 {\n    %s\n}\n", op.name, op.body)
		fmt.Fprintf(&b, "\nfn blend_%[1]s(fac: f32, a: vec3<f32>, b: vec3<f32>) -> vec3<f32> {\n"+
			"    return vec3<f32>(%[1]s1(fac, a.x, b.x), %[1]s1(fac, a.y, b.y), %[1]s1(fac, a.z, b.z));\n}\n", op.name)
	}
	b.WriteString("\n")
	b.WriteString(hsvBlends)
	return b.String()
}

// blendFunc returns the WGSL function implementing m.
func blendFunc(m paintlayers.BlendMode) string {
	switch m {
	case paintlayers.BlendHue:
		return "blend_hue"
	case paintlayers.BlendSaturation:
		return "blend_saturation"
	case paintlayers.BlendValue:
		return "blend_value"
	case paintlayers.BlendColor:
		return "blend_color"
	}
	for _, op := range separable {
		if op.mode == m {
			return "blend_" + op.name
		}
	}
	return "blend_mix"
}
