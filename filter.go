package viewtree

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Filter is a post-processing pass applied to a texturized view's captured
// output. Filters are shared resources: enabled views register their core
// with every filter in their texturizer's chain.
type Filter interface {
	Shader
	// Apply renders src into dst with the filter effect.
	Apply(src, dst *ebiten.Image)
	// Padding returns the extra pixels needed around the source to
	// accommodate the effect. Zero means no padding.
	Padding() int
}

// filterGroup is implemented by filters that expand into a chain.
type filterGroup interface {
	Filters() []Filter
}

// Kage sources use //kage:unit pixels. Ebitengine images are premultiplied,
// so shaders un-premultiply before processing and re-premultiply output.

const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	r = clamp(r, 0, 1)
	g = clamp(g, 0, 1)
	b = clamp(b, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a)
}
`

// Compiled lazily on first Apply. Single-threaded, so no sync.Once.
var colorMatrixShader *ebiten.Shader

func ensureColorMatrixShader() *ebiten.Shader {
	if colorMatrixShader == nil {
		s, err := ebiten.NewShader([]byte(colorMatrixShaderSrc))
		if err != nil {
			panic("viewtree: failed to compile color matrix shader: " + err.Error())
		}
		colorMatrixShader = s
	}
	return colorMatrixShader
}

// identityColorMatrix has ones on the diagonal of the 4x4 part.
var identityColorMatrix = [20]float64{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// --- ColorMatrixFilter ---

// ColorMatrixFilter applies a 4x5 row-major color matrix
// [R_r, R_g, R_b, R_a, R_offset, G_r, ...]. It has no effect, and reports
// UseDefault, while the matrix is the identity.
type ColorMatrixFilter struct {
	ViewRegistry
	Matrix [20]float64

	uniforms  map[string]any
	matrixF32 [20]float32
	shaderOp  ebiten.DrawRectShaderOptions
}

// NewColorMatrixFilter creates a color matrix filter initialized to the identity.
func NewColorMatrixFilter() *ColorMatrixFilter {
	f := &ColorMatrixFilter{Matrix: identityColorMatrix, uniforms: make(map[string]any, 1)}
	f.uniforms["Matrix"] = f.matrixF32[:]
	return f
}

// UseDefault reports whether the matrix is the identity.
func (f *ColorMatrixFilter) UseDefault() bool { return f.Matrix == identityColorMatrix }

// SetBrightness offsets each color channel by b in [-1, 1].
func (f *ColorMatrixFilter) SetBrightness(b float64) {
	f.Matrix = [20]float64{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// SetContrast scales contrast. 1 is unchanged, 0 is flat gray.
func (f *ColorMatrixFilter) SetContrast(c float64) {
	t := (1.0 - c) / 2.0
	f.Matrix = [20]float64{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// SetSaturation scales saturation. 1 is unchanged, 0 is grayscale.
func (f *ColorMatrixFilter) SetSaturation(s float64) {
	sr := (1 - s) * 0.299
	sg := (1 - s) * 0.587
	sb := (1 - s) * 0.114
	f.Matrix = [20]float64{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Apply renders the color matrix transformation from src into dst.
func (f *ColorMatrixFilter) Apply(src, dst *ebiten.Image) {
	shader := ensureColorMatrixShader()
	for i, v := range f.Matrix {
		f.matrixF32[i] = float32(v)
	}
	b := src.Bounds()
	f.shaderOp.Images[0] = src
	f.shaderOp.Uniforms = f.uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), shader, &f.shaderOp)
}

// Padding returns 0.
func (f *ColorMatrixFilter) Padding() int { return 0 }

// --- BlurFilter ---

// BlurFilter applies a Kawase blur with downscale/upscale passes. Bilinear
// filtering in DrawImage does the work, no shader is needed.
type BlurFilter struct {
	ViewRegistry
	Radius int

	temps []*ebiten.Image
	imgOp ebiten.DrawImageOptions
}

// NewBlurFilter creates a blur filter with the given radius in pixels.
func NewBlurFilter(radius int) *BlurFilter {
	return &BlurFilter{Radius: max(radius, 0)}
}

// UseDefault reports whether the radius is zero.
func (f *BlurFilter) UseDefault() bool { return f.Radius <= 0 }

// RemoveView deregisters c and frees scratch images once unused.
func (f *BlurFilter) RemoveView(c *ViewCore) {
	f.ViewRegistry.RemoveView(c)
	if f.ViewCount() == 0 {
		for i, t := range f.temps {
			if t != nil {
				t.Deallocate()
			}
			f.temps[i] = nil
		}
		f.temps = f.temps[:0]
	}
}

// Apply renders the blurred src into dst.
func (f *BlurFilter) Apply(src, dst *ebiten.Image) {
	op := &f.imgOp
	if f.Radius <= 0 {
		op.GeoM.Reset()
		op.ColorScale.Reset()
		op.Filter = ebiten.FilterNearest
		dst.DrawImage(src, op)
		return
	}

	passes := max(int(math.Ceil(math.Log2(float64(f.Radius)))), 1)
	for len(f.temps) < passes {
		f.temps = append(f.temps, nil)
	}
	for i := passes; i < len(f.temps); i++ {
		if f.temps[i] != nil {
			f.temps[i].Deallocate()
			f.temps[i] = nil
		}
	}
	f.temps = f.temps[:passes]

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	current := src
	for i := 0; i < passes; i++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		if t := f.temps[i]; t == nil || t.Bounds().Dx() != w || t.Bounds().Dy() != h {
			if t != nil {
				t.Deallocate()
			}
			f.temps[i] = ebiten.NewImage(w, h)
		} else {
			t.Clear()
		}
		f.drawScaled(current, f.temps[i])
		current = f.temps[i]
	}
	for i := passes - 2; i >= 0; i-- {
		f.temps[i].Clear()
		f.drawScaled(current, f.temps[i])
		current = f.temps[i]
	}
	f.drawScaled(current, dst)
}

func (f *BlurFilter) drawScaled(src, dst *ebiten.Image) {
	op := &f.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.GeoM.Scale(
		float64(dst.Bounds().Dx())/float64(src.Bounds().Dx()),
		float64(dst.Bounds().Dy())/float64(src.Bounds().Dy()),
	)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(src, op)
}

// Padding returns the blur radius.
func (f *BlurFilter) Padding() int { return f.Radius }

// --- OutlineFilter ---

// OutlineFilter draws the source at 8 offsets tinted with the outline
// color, then the original on top.
type OutlineFilter struct {
	ViewRegistry
	Thickness int
	Color     Color

	imgOp ebiten.DrawImageOptions
}

// NewOutlineFilter creates an outline filter.
func NewOutlineFilter(thickness int, c Color) *OutlineFilter {
	return &OutlineFilter{Thickness: thickness, Color: c}
}

// UseDefault reports whether the outline is invisible.
func (f *OutlineFilter) UseDefault() bool { return f.Thickness <= 0 || f.Color>>24 == 0 }

// Apply draws the outline behind the source image.
func (f *OutlineFilter) Apply(src, dst *ebiten.Image) {
	t := float64(f.Thickness)
	offsets := [8][2]float64{
		{-t, 0}, {t, 0}, {0, -t}, {0, t},
		{-t, -t}, {t, -t}, {-t, t}, {t, t},
	}
	r, g, b, a := f.Color.Floats()
	op := &f.imgOp
	for _, off := range offsets {
		op.GeoM.Reset()
		op.ColorScale.Reset()
		op.GeoM.Translate(off[0], off[1])
		op.ColorScale.Scale(float32(r*a), float32(g*a), float32(b*a), float32(a))
		dst.DrawImage(src, op)
	}
	op.GeoM.Reset()
	op.ColorScale.Reset()
	dst.DrawImage(src, op)
}

// Padding returns the outline thickness.
func (f *OutlineFilter) Padding() int { return f.Thickness }

// --- CustomShaderFilter ---

// CustomShaderFilter runs a KageShader as a filter pass. Images[0] is the
// source texture; Images[1] and Images[2] may be set by the caller.
type CustomShaderFilter struct {
	Shader  *KageShader
	Images  [3]*ebiten.Image
	padding int

	shaderOp ebiten.DrawRectShaderOptions
}

// NewCustomShaderFilter creates a filter around a Kage shader.
func NewCustomShaderFilter(shader *KageShader, padding int) *CustomShaderFilter {
	return &CustomShaderFilter{Shader: shader, padding: padding}
}

// AddView registers c with the wrapped shader so it stays compiled.
func (f *CustomShaderFilter) AddView(c *ViewCore) {
	if f.Shader != nil {
		f.Shader.AddView(c)
	}
}

// RemoveView deregisters c from the wrapped shader.
func (f *CustomShaderFilter) RemoveView(c *ViewCore) {
	if f.Shader != nil {
		f.Shader.RemoveView(c)
	}
}

// UseDefault reports whether there is no shader to run.
func (f *CustomShaderFilter) UseDefault() bool { return f.Shader == nil || f.Shader.UseDefault() }

// Apply runs the shader with src as Images[0]. Compile failures are logged
// and src is copied through unchanged.
func (f *CustomShaderFilter) Apply(src, dst *ebiten.Image) {
	if f.Shader == nil {
		dst.DrawImage(src, nil)
		return
	}
	sh, err := f.Shader.Compile()
	if err != nil || sh == nil {
		if err != nil {
			logger.Error("custom shader filter", "err", err)
		}
		dst.DrawImage(src, nil)
		return
	}
	b := src.Bounds()
	f.shaderOp.Images[0] = src
	f.shaderOp.Images[1] = f.Images[1]
	f.shaderOp.Images[2] = f.Images[2]
	f.shaderOp.Uniforms = f.Shader.Uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), sh, &f.shaderOp)
}

// Padding returns the padding set at construction time.
func (f *CustomShaderFilter) Padding() int { return f.padding }

// --- FilterChain ---

// FilterChain groups filters into one shareable entry. Texturizers expand
// it in place, so Apply only runs when the chain is used on its own.
type FilterChain struct {
	Chain []Filter

	temps [2]*ebiten.Image
}

// NewFilterChain creates a chain of filters applied in order.
func NewFilterChain(filters ...Filter) *FilterChain {
	return &FilterChain{Chain: filters}
}

// Filters returns the members.
func (c *FilterChain) Filters() []Filter { return c.Chain }

// AddView registers v with every member.
func (c *FilterChain) AddView(v *ViewCore) {
	for _, f := range flattenFilters(c.Chain) {
		f.AddView(v)
	}
}

// RemoveView deregisters v from every member.
func (c *FilterChain) RemoveView(v *ViewCore) {
	for _, f := range flattenFilters(c.Chain) {
		f.RemoveView(v)
	}
}

// UseDefault reports whether no member has an effect.
func (c *FilterChain) UseDefault() bool {
	for _, f := range flattenFilters(c.Chain) {
		if !f.UseDefault() {
			return false
		}
	}
	return true
}

// Apply runs the active members from src into dst.
func (c *FilterChain) Apply(src, dst *ebiten.Image) {
	var active []Filter
	for _, f := range flattenFilters(c.Chain) {
		if !f.UseDefault() {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		dst.DrawImage(src, nil)
		return
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	current := src
	for i, f := range active {
		if i == len(active)-1 {
			f.Apply(current, dst)
			return
		}
		t := c.temps[i%2]
		if t == nil || t.Bounds().Dx() != w || t.Bounds().Dy() != h {
			if t != nil {
				t.Deallocate()
			}
			t = ebiten.NewImage(w, h)
			c.temps[i%2] = t
		} else {
			t.Clear()
		}
		f.Apply(current, t)
		current = t
	}
}

// Padding returns the cumulative padding of the members.
func (c *FilterChain) Padding() int { return filterChainPadding(flattenFilters(c.Chain)) }

// --- Chain helpers ---

// flattenFilters expands filter groups and drops nil entries.
func flattenFilters(filters []Filter) []Filter {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f == nil {
			continue
		}
		if g, ok := f.(filterGroup); ok {
			out = append(out, flattenFilters(g.Filters())...)
			continue
		}
		out = append(out, f)
	}
	return out
}

// filterChainPadding returns the cumulative padding of a chain.
func filterChainPadding(filters []Filter) int {
	pad := 0
	for _, f := range filters {
		pad += f.Padding()
	}
	return pad
}
