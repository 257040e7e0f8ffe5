package viewtree

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 32-bit ARGB color laid out as 0xAARRGGBB. Not premultiplied.
type Color uint32

// ColorWhite is the default corner color (no tint).
const ColorWhite Color = 0xFFFFFFFF

// ColorFromFloats packs components in [0, 1] into a Color. Out-of-range
// components are clamped.
func ColorFromFloats(r, g, b, a float64) Color {
	return Color(uint32(clamp01(a)*255+0.5)<<24 |
		uint32(clamp01(r)*255+0.5)<<16 |
		uint32(clamp01(g)*255+0.5)<<8 |
		uint32(clamp01(b)*255+0.5))
}

// Floats returns the components in [0, 1].
func (c Color) Floats() (r, g, b, a float64) {
	return float64(c>>16&0xFF) / 255, float64(c>>8&0xFF) / 255,
		float64(c&0xFF) / 255, float64(c>>24) / 255
}

// RGBA implements color.Color. The returned values are premultiplied.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(c>>24) * 0x101
	r = uint32(c>>16&0xFF) * 0x101 * a / 0xFFFF
	g = uint32(c>>8&0xFF) * 0x101 * a / 0xFFFF
	b = uint32(c&0xFF) * 0x101 * a / 0xFFFF
	return
}

// Hex returns the lowercase hexadecimal form without prefix or padding,
// which is the form used by settings serialization.
func (c Color) Hex() string {
	return strconv.FormatUint(uint64(c), 16)
}

// ParseColor parses a hexadecimal color string. An optional "0x" or "#"
// prefix is accepted.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#"), "0x")
	if h == "" {
		return 0, fmt.Errorf("viewtree: empty color string")
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("viewtree: invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// mergeColors blends c1 and c2 per channel; p is the weight of c1.
func mergeColors(c1, c2 Color, p float64) Color {
	r1, g1, b1, a1 := c1.Floats()
	r2, g2, b2, a2 := c2.Floats()
	q := 1 - p
	return ColorFromFloats(r1*p+r2*q, g1*p+g2*q, b1*p+b2*q, a1*p+a2*q)
}

// mergeNumbers blends v1 and v2; p is the weight of v1.
func mergeNumbers(v1, v2, p float64) float64 {
	return v1*p + v2*(1-p)
}

// Vec2 is a 2D vector used for positions and sizes.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Expand grows the rectangle by the given top, right, bottom and left margins.
func (r Rect) Expand(m [4]float64) Rect {
	return Rect{
		X:      r.X - m[3],
		Y:      r.Y - m[0],
		Width:  r.Width + m[1] + m[3],
		Height: r.Height + m[0] + m[2],
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
