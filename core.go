package viewtree

// ViewCore is the render-side companion of a View. The View owns all
// semantic state; the core mirrors what a draw pass needs: the local
// transform, render dimensions, colors, texture coordinates, z-ordering
// hints, the shader and texturizer, and a mirror of the child structure.
//
// The within-bounds predicate lives here because it is computed by the
// render pass (see Stage.Update) and reported back to the view.
type ViewCore struct {
	view     *View
	parent   *ViewCore
	children []*ViewCore
	isRoot   bool

	// Local transform: x' = ta*x + tb*y + px, y' = tc*x + td*y + py.
	localTa, localTb, localTc, localTd float64
	localPx, localPy                   float64
	localAlpha                         float64

	rw, rh float64

	colorUl, colorUr, colorBl, colorBr Color

	zIndex             int
	forceZIndexContext bool
	clipping           bool
	clipbox            bool

	tx1, ty1, tx2, ty2     float64
	displayedTextureSource *TextureSource

	shader     Shader
	texturizer *Texturizer

	renderToTextureEnabled bool

	withinBoundsMargin bool
	boundsMargin       *[4]float64

	// hasRenderUpdates is the render-update level for the current frame
	// (0 none, 1 quad only, 2 texture, 3 content). lastRenderUpdates holds
	// the level of the previous completed frame.
	hasRenderUpdates  int
	lastRenderUpdates int

	worldTransform [6]float64
	worldAlpha     float64
	transformDirty bool
}

func newViewCore(v *View) *ViewCore {
	return &ViewCore{
		view:           v,
		localTa:        1,
		localTd:        1,
		localAlpha:     1,
		colorUl:        ColorWhite,
		colorUr:        ColorWhite,
		colorBl:        ColorWhite,
		colorBr:        ColorWhite,
		tx2:            1,
		ty2:            1,
		worldTransform: identityTransform,
		transformDirty: true,
	}
}

// View returns the view this core belongs to.
func (c *ViewCore) View() *View { return c.view }

// Children returns the mirrored child cores. MUST NOT be mutated.
func (c *ViewCore) Children() []*ViewCore { return c.children }

// IsRoot reports whether this core belongs to the stage root.
func (c *ViewCore) IsRoot() bool { return c.isRoot }

func (c *ViewCore) setAsRoot() {
	c.isRoot = true
	c.setHasRenderUpdates(3)
}

// --- Child mirror ---

func (c *ViewCore) addChildAt(index int, child *ViewCore) {
	child.parent = c
	c.children = append(c.children, nil)
	copy(c.children[index+1:], c.children[index:])
	c.children[index] = child
	child.transformDirty = true
	c.setHasRenderUpdates(3)
}

func (c *ViewCore) removeChildAt(index int) {
	child := c.children[index]
	copy(c.children[index:], c.children[index+1:])
	c.children[len(c.children)-1] = nil
	c.children = c.children[:len(c.children)-1]
	child.parent = nil
	c.setHasRenderUpdates(3)
}

func (c *ViewCore) moveChild(from, to int) {
	child := c.children[from]
	if from < to {
		copy(c.children[from:], c.children[from+1:to+1])
	} else {
		copy(c.children[to+1:], c.children[to:from])
	}
	c.children[to] = child
	c.setHasRenderUpdates(3)
}

func (c *ViewCore) removeChildren() {
	for i, child := range c.children {
		child.parent = nil
		c.children[i] = nil
	}
	c.children = c.children[:0]
	c.setHasRenderUpdates(3)
}

// --- Transform ---

func (c *ViewCore) setLocalTransform(a, b, cc, d float64) {
	c.localTa, c.localTb, c.localTc, c.localTd = a, b, cc, d
	c.transformDirty = true
	c.setHasRenderUpdates(1)
}

func (c *ViewCore) setLocalTranslate(x, y float64) {
	c.localPx, c.localPy = x, y
	c.transformDirty = true
	c.setHasRenderUpdates(1)
}

func (c *ViewCore) addLocalTranslate(dx, dy float64) {
	c.setLocalTranslate(c.localPx+dx, c.localPy+dy)
}

func (c *ViewCore) setLocalAlpha(a float64) {
	c.localAlpha = a
	c.transformDirty = true
	c.setHasRenderUpdates(1)
}

func (c *ViewCore) setDimensions(w, h float64) {
	c.rw, c.rh = w, h
	c.setHasRenderUpdates(3)
}

// LocalTransform returns the local affine matrix [a, b, c, d, tx, ty] in
// the column layout used by the world transform helpers.
func (c *ViewCore) LocalTransform() [6]float64 {
	return [6]float64{c.localTa, c.localTc, c.localTb, c.localTd, c.localPx, c.localPy}
}

// WorldTransform returns the world matrix computed by the last update pass.
func (c *ViewCore) WorldTransform() [6]float64 { return c.worldTransform }

// WorldAlpha returns the accumulated alpha from the last update pass.
func (c *ViewCore) WorldAlpha() float64 { return c.worldAlpha }

// RenderWidth returns the width the core renders with.
func (c *ViewCore) RenderWidth() float64 { return c.rw }

// RenderHeight returns the height the core renders with.
func (c *ViewCore) RenderHeight() float64 { return c.rh }

// CornerPoints returns the world-space corners ul, ur, br, bl as
// x0, y0, x1, y1, x2, y2, x3, y3.
func (c *ViewCore) CornerPoints() [8]float64 {
	m := c.worldTransform
	var out [8]float64
	pts := [4][2]float64{{0, 0}, {c.rw, 0}, {c.rw, c.rh}, {0, c.rh}}
	for i, p := range pts {
		out[i*2], out[i*2+1] = transformPoint(m, p[0], p[1])
	}
	return out
}

// worldBounds returns the axis-aligned bounds of the corner points.
func (c *ViewCore) worldBounds() Rect {
	pts := c.CornerPoints()
	minX, minY := pts[0], pts[1]
	maxX, maxY := minX, minY
	for i := 2; i < 8; i += 2 {
		minX = min(minX, pts[i])
		maxX = max(maxX, pts[i])
		minY = min(minY, pts[i+1])
		maxY = max(maxY, pts[i+1])
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// --- Texture coordinates ---

func (c *ViewCore) setTextureCoords(tx1, ty1, tx2, ty2 float64) {
	c.tx1, c.ty1, c.tx2, c.ty2 = tx1, ty1, tx2, ty2
	c.setHasRenderUpdates(3)
}

// TextureCoords returns the normalized texture rectangle of the displayed
// texture.
func (c *ViewCore) TextureCoords() (tx1, ty1, tx2, ty2 float64) {
	return c.tx1, c.ty1, c.tx2, c.ty2
}

func (c *ViewCore) setDisplayedTextureSource(s *TextureSource) {
	c.displayedTextureSource = s
	c.setHasRenderUpdates(3)
}

// DisplayedTextureSource returns the source currently drawn, or nil.
func (c *ViewCore) DisplayedTextureSource() *TextureSource { return c.displayedTextureSource }

// --- Colors and ordering ---

func (c *ViewCore) setColors(ul, ur, bl, br Color) {
	if c.colorUl == ul && c.colorUr == ur && c.colorBl == bl && c.colorBr == br {
		return
	}
	c.colorUl, c.colorUr, c.colorBl, c.colorBr = ul, ur, bl, br
	c.setHasRenderUpdates(1)
}

// Colors returns the corner colors ul, ur, bl, br.
func (c *ViewCore) Colors() (ul, ur, bl, br Color) {
	return c.colorUl, c.colorUr, c.colorBl, c.colorBr
}

// ZIndex returns the z-index used by the render layer.
func (c *ViewCore) ZIndex() int { return c.zIndex }

// ZContext reports whether this core opens a z-index context.
func (c *ViewCore) ZContext() bool {
	return c.isRoot || c.forceZIndexContext || c.zIndex != 0 || c.renderToTextureEnabled
}

// Clipping reports whether descendants are clipped to this core's bounds.
func (c *ViewCore) Clipping() bool { return c.clipping }

// --- Shader and texturizer ---

// Shader returns the shader registered for this core, or nil.
func (c *ViewCore) Shader() Shader { return c.shader }

// Texturizer returns the texturizer, creating it on first use.
func (c *ViewCore) Texturizer() *Texturizer {
	if c.texturizer == nil {
		c.texturizer = newTexturizer(c)
	}
	return c.texturizer
}

func (c *ViewCore) hasTexturizer() bool { return c.texturizer != nil }

// RenderToTextureEnabled reports whether the subtree is drawn through the
// texturizer.
func (c *ViewCore) RenderToTextureEnabled() bool { return c.renderToTextureEnabled }

func (c *ViewCore) updateRenderToTextureEnabled() {
	t := c.texturizer
	v := t != nil && (t.enabled || t.HasActiveFilters())
	if v == c.renderToTextureEnabled {
		return
	}
	c.renderToTextureEnabled = v
	if !v {
		t.Release()
	}
	c.setHasRenderUpdates(3)
}

// --- Render updates ---

// setHasRenderUpdates raises the render-update level. Ancestors are marked
// with level 3 because their captured content is now stale.
func (c *ViewCore) setHasRenderUpdates(level int) {
	if level > c.hasRenderUpdates {
		c.hasRenderUpdates = level
	}
	for p := c.parent; p != nil && p.hasRenderUpdates != 3; p = p.parent {
		p.hasRenderUpdates = 3
	}
}

// HasRenderUpdates returns the render-update level of the current frame.
func (c *ViewCore) HasRenderUpdates() int { return c.hasRenderUpdates }

// --- Bounds ---

// WithinBoundsMargin reports the last culling result for this core.
func (c *ViewCore) WithinBoundsMargin() bool { return c.withinBoundsMargin }

// SetWithinBoundsMargin is called by the render pass with the culling
// result. Entering the margin activates an enabled view; leaving it
// deactivates an active view.
func (c *ViewCore) SetWithinBoundsMargin(within bool) {
	if c.withinBoundsMargin == within {
		return
	}
	c.withinBoundsMargin = within
	if within {
		c.view.enableWithinBoundsMargin()
	} else {
		c.view.disableWithinBoundsMargin()
	}
}

// BoundsMargin returns the explicit margin (top, right, bottom, left) or
// nil when the margin is inherited.
func (c *ViewCore) BoundsMargin() *[4]float64 { return c.boundsMargin }

// update recomputes world transforms and within-bounds flags for the
// enabled part of the subtree. Adapted from the per-frame transform walk:
// a recomputed parent forces recomputation of its children.
func (c *ViewCore) update(parentTransform [6]float64, parentAlpha float64, viewport Rect, margin [4]float64, parentRecomputed bool) {
	recompute := c.transformDirty || parentRecomputed
	if recompute {
		c.worldTransform = multiplyAffine(parentTransform, c.LocalTransform())
		c.worldAlpha = parentAlpha * c.localAlpha
		c.transformDirty = false
	}

	if c.boundsMargin != nil {
		margin = *c.boundsMargin
	}

	if c.view.enabled {
		c.SetWithinBoundsMargin(c.worldBounds().Intersects(viewport.Expand(margin)))
	}

	for _, child := range c.children {
		if child.view.enabled {
			child.update(c.worldTransform, c.worldAlpha, viewport, margin, recompute)
		} else if recompute {
			child.transformDirty = true
		}
	}

	c.lastRenderUpdates = c.hasRenderUpdates
	c.hasRenderUpdates = 0
}
