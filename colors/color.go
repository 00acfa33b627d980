package colors

import (
	"image/color"
	"math"
)

// Color4 is an RGBA color with float64 components in [0,1].
// Alpha is straight (not premultiplied) unless a method says otherwise.
type Color4 struct {
	R, G, B, A float64
}

func New(r, g, b, a float64) Color4 {
	return Color4{R: r, G: g, B: b, A: a}
}

// FromHex builds an opaque color from a 0xRRGGBB value.
func FromHex(hex uint32) Color4 {
	return From8BitRgb(byte(hex>>16), byte(hex>>8), byte(hex), 255)
}

func (c Color4) RGBA() (r, g, b, a uint32) {
	rf := clamp01(c.R)
	gf := clamp01(c.G)
	bf := clamp01(c.B)
	af := clamp01(c.A)

	// Convert to pre-multiplied 16-bit values
	return uint32(rf * af * 65535),
		uint32(gf * af * 65535),
		uint32(bf * af * 65535),
		uint32(af * 65535)
}

func FromStandardColor(c color.Color) Color4 {
	// Fast path: already a Color4
	if c4, ok := c.(Color4); ok {
		return c4
	}

	r16, g16, b16, a16 := c.RGBA()
	if a16 == 0 {
		return Color4{}
	}

	// De-premultiply and normalize to [0,1]
	invA := float64(0xFFFF) / float64(a16)
	return Color4{
		R: float64(r16) * invA / 65535.0,
		G: float64(g16) * invA / 65535.0,
		B: float64(b16) * invA / 65535.0,
		A: float64(a16) / 65535.0,
	}
}

func From8BitRgb(r, g, b, a byte) Color4 {
	return Color4{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
		A: float64(a) / 255.0,
	}
}

func White() Color4 {
	return Color4{R: 1, G: 1, B: 1, A: 1}
}

func Black() Color4 {
	return Color4{R: 0, G: 0, B: 0, A: 1}
}

func Transparent() Color4 {
	return Color4{}
}

// Add returns c + o (component-wise).
func (c Color4) Add(o Color4) Color4 {
	return Color4{c.R + o.R, c.G + o.G, c.B + o.B, c.A + o.A}
}

// Mul returns c * o (component-wise).
func (c Color4) Mul(o Color4) Color4 {
	return Color4{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// Scale returns c * s (scalar).
func (c Color4) Scale(s float64) Color4 {
	return Color4{c.R * s, c.G * s, c.B * s, c.A * s}
}

// ScaleRGB returns c with only the color channels scaled.
func (c Color4) ScaleRGB(s float64) Color4 {
	return Color4{c.R * s, c.G * s, c.B * s, c.A}
}

// Mix returns lerp(c, o, t) = c*(1-t) + o*t.
func (c Color4) Mix(o Color4, t float64) Color4 {
	return Color4{
		R: c.R*(1-t) + o.R*t,
		G: c.G*(1-t) + o.G*t,
		B: c.B*(1-t) + o.B*t,
		A: c.A*(1-t) + o.A*t,
	}
}

func (c Color4) WithAlpha(a float64) Color4 {
	return Color4{R: c.R, G: c.G, B: c.B, A: a}
}

// Under composites a straight-alpha layer behind the premultiplied
// accumulator c (front-to-back "under" operator). The result stays
// premultiplied.
func (c Color4) Under(layer Color4) Color4 {
	w := (1 - c.A) * layer.A
	return Color4{
		R: c.R + layer.R*w,
		G: c.G + layer.G*w,
		B: c.B + layer.B*w,
		A: c.A + w,
	}
}

// Unpremultiply converts a premultiplied color back to straight alpha.
func (c Color4) Unpremultiply() Color4 {
	if c.A <= 0 {
		return Color4{}
	}
	inv := 1 / c.A
	return Color4{c.R * inv, c.G * inv, c.B * inv, c.A}
}

// Over composites c (straight alpha) on top of dst (straight alpha).
func (c Color4) Over(dst Color4) Color4 {
	a := c.A + dst.A*(1-c.A)
	if a <= 0 {
		return Color4{}
	}
	return Color4{
		R: (c.R*c.A + dst.R*dst.A*(1-c.A)) / a,
		G: (c.G*c.A + dst.G*dst.A*(1-c.A)) / a,
		B: (c.B*c.A + dst.B*dst.A*(1-c.A)) / a,
		A: a,
	}
}

// Clamp01 clamps each component into [0,1].
func (c Color4) Clamp01() Color4 {
	return Color4{
		R: clamp01(c.R),
		G: clamp01(c.G),
		B: clamp01(c.B),
		A: clamp01(c.A),
	}
}

// Linear converts sRGB-encoded color channels to linear light.
func (c Color4) Linear() Color4 {
	return Color4{srgbToLinear(c.R), srgbToLinear(c.G), srgbToLinear(c.B), c.A}
}

// SRGB converts linear color channels back to sRGB encoding.
func (c Color4) SRGB() Color4 {
	return Color4{linearToSrgb(c.R), linearToSrgb(c.G), linearToSrgb(c.B), c.A}
}

// ToNRGBA returns the 8-bit non-premultiplied form, truncating like int().
func (c Color4) ToNRGBA() color.NRGBA {
	return color.NRGBA{
		to8bit(c.R),
		to8bit(c.G),
		to8bit(c.B),
		to8bit(c.A),
	}
}

// --- helpers ---

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func to8bit(x float64) uint8 {
	return uint8(255.0 * clamp01(x))
}

func srgbToLinear(c float64) float64 {
	c = clamp01(c)
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func linearToSrgb(c float64) float64 {
	c = clamp01(c)
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}
