package viewtree

import (
	"math"
	"strconv"
	"strings"
)

// viewIDCounter hands out view ids. Single-threaded, so a plain counter.
var viewIDCounter uint32

// View is a node of the render tree. A view owns its children through a
// ChildList, carries local transform, color and texture state, and keeps
// the attached, enabled and active flags consistent with its ancestors.
//
// Views are created by a Stage and are not safe for concurrent use.
type View struct {
	id       uint32
	stage    *Stage
	core     *ViewCore
	typeName string
	ref      string

	attached bool
	enabled  bool
	active   bool
	disposed bool

	parent    *View
	childList *ChildList

	texture          *Texture
	displayedTexture *Texture
	text             *ViewText

	// Tag index, see tags.go.
	tags         []string
	treeTags     map[string]*viewSet
	tagsCache    map[string][]*View
	tagToComplex map[string][]string
	tagRoot      bool

	x, y, w, h     float64
	scaleX, scaleY float64
	pivotX, pivotY float64
	mountX, mountY float64
	alpha          float64
	rotation       float64
	visible        bool

	listeners   *listenerList
	transitions map[string]*Transition

	// UserData is an arbitrary value for the caller's use.
	UserData any
}

func newView(s *Stage) *View {
	if s == nil {
		panic("viewtree: a view requires a stage")
	}
	viewIDCounter++
	v := &View{
		id:      viewIDCounter,
		stage:   s,
		scaleX:  1,
		scaleY:  1,
		pivotX:  0.5,
		pivotY:  0.5,
		alpha:   1,
		visible: true,
	}
	v.core = newViewCore(v)
	return v
}

// ID returns the view's unique id.
func (v *View) ID() uint32 { return v.id }

// Stage returns the stage the view belongs to.
func (v *View) Stage() *Stage { return v.stage }

// Core returns the render-side companion.
func (v *View) Core() *ViewCore { return v.core }

// Type returns the registered type name, or "" for plain views.
func (v *View) Type() string { return v.typeName }

// Parent returns the parent view, or nil.
func (v *View) Parent() *View { return v.parent }

// IsRoot reports whether v is the stage root.
func (v *View) IsRoot() bool { return v.stage.root == v }

// Attached reports whether v is reachable from the stage root.
func (v *View) Attached() bool { return v.attached }

// Enabled reports whether v is attached, visible, non-transparent and all
// its ancestors are enabled.
func (v *View) Enabled() bool { return v.enabled }

// Active reports whether v is enabled and within the bounds margin.
func (v *View) Active() bool { return v.active }

// Disposed reports whether Dispose was called.
func (v *View) Disposed() bool { return v.disposed }

// WithinBoundsMargin reports the last culling result from the render pass.
func (v *View) WithinBoundsMargin() bool { return v.core.withinBoundsMargin }

// --- Children ---

// ChildList returns the child list, creating it on first use.
func (v *View) ChildList() *ChildList {
	if v.childList == nil {
		v.childList = newChildList(v)
	}
	return v.childList
}

// Children returns the children. MUST NOT be mutated.
func (v *View) Children() []*View {
	if v.childList == nil {
		return nil
	}
	return v.childList.children
}

// ChildCount returns the number of children.
func (v *View) ChildCount() int {
	if v.childList == nil {
		return 0
	}
	return len(v.childList.children)
}

func (v *View) setParent(parent *View) {
	if v.parent == parent {
		return
	}
	if v.parent != nil {
		v.unsetTagsParent()
	}
	v.parent = parent
	if parent != nil {
		v.setTagsParent()
	}
	v.updateAttachedFlag()
	v.updateEnabledFlag()
}

// --- Ancestry ---

// Depth returns the number of ancestors.
func (v *View) Depth() int {
	d := 0
	for p := v.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Ancestor returns the ancestor the given number of levels up, or nil.
// Ancestor(1) is the parent.
func (v *View) Ancestor(levels int) *View {
	p := v
	for i := 0; i < levels && p != nil; i++ {
		p = p.parent
	}
	return p
}

// AncestorAtDepth returns the ancestor at absolute depth d, or nil.
func (v *View) AncestorAtDepth(d int) *View {
	levels := v.Depth() - d
	if levels < 0 {
		return nil
	}
	return v.Ancestor(levels)
}

// IsAncestorOf reports whether v is a strict ancestor of c.
func (v *View) IsAncestorOf(c *View) bool {
	for p := c.parent; p != nil; p = p.parent {
		if p == v {
			return true
		}
	}
	return false
}

// SharedAncestor returns the deepest common ancestor of v and o, including
// either view itself, or nil if they are in different trees.
func (v *View) SharedAncestor(o *View) *View {
	a, b := v, o
	da, db := a.Depth(), b.Depth()
	for ; da > db; da-- {
		a = a.parent
	}
	for ; db > da; db-- {
		b = b.parent
	}
	for a != b {
		a, b = a.parent, b.parent
		if a == nil || b == nil {
			return nil
		}
	}
	return a
}

// LocationString describes v's position in the tree, e.g.
// "R:[0]Menu:[2]item,focus:[1]#14".
func (v *View) LocationString() string {
	i := "R"
	str := ""
	if v.parent != nil {
		i = strconv.Itoa(v.parent.ChildList().GetIndex(v))
		str = v.parent.LocationString()
	}
	switch {
	case v.ref != "":
		str += ":[" + i + "]" + v.ref
	case len(v.Tags()) > 0:
		str += ":[" + i + "]" + strings.Join(v.Tags(), ",")
	default:
		str += ":[" + i + "]#" + strconv.FormatUint(uint64(v.id), 10)
	}
	return str
}

// String returns the view's settings in a readable, indented form.
func (v *View) String() string {
	return settingsString(v.GetSettings())
}

// --- Ref ---

// Ref returns the ref name, or "".
func (v *View) Ref() string { return v.ref }

// SetRef sets the ref name. Refs must start with an uppercase letter. The
// ref is indexed as a tag so selectors can find it.
func (v *View) SetRef(ref string) error {
	if ref == v.ref {
		return nil
	}
	if ref != "" && !isUcFirst(ref) {
		return viewError(v, ErrCodeNaming, "ref %q must start with an upper case character", ref)
	}
	if v.ref != "" {
		v.removeTag(v.ref)
	}
	v.ref = ref
	if ref != "" {
		v.addTag(ref)
	}
	return nil
}

// --- Position and size ---

// X returns the x position.
func (v *View) X() float64 { return v.x }

// SetX sets the x position.
func (v *View) SetX(x float64) {
	if x == v.x {
		return
	}
	dx := x - v.x
	v.x = x
	v.updateLocalTranslateDelta(dx, 0)
}

// Y returns the y position.
func (v *View) Y() float64 { return v.y }

// SetY sets the y position.
func (v *View) SetY(y float64) {
	if y == v.y {
		return
	}
	dy := y - v.y
	v.y = y
	v.updateLocalTranslateDelta(0, dy)
}

// W returns the explicit width; 0 derives it from the texture.
func (v *View) W() float64 { return v.w }

// SetW sets the explicit width.
func (v *View) SetW(w float64) {
	if w == v.w {
		return
	}
	v.w = w
	v.updateDimensions()
	if v.HasText() && v.text.settings.W == 0 {
		v.text.updateTexture()
	}
}

// H returns the explicit height; 0 derives it from the texture.
func (v *View) H() float64 { return v.h }

// SetH sets the explicit height.
func (v *View) SetH(h float64) {
	if h == v.h {
		return
	}
	v.h = h
	v.updateDimensions()
	if v.HasText() && v.text.settings.H == 0 {
		v.text.updateTexture()
	}
}

// RenderWidth returns the width used for rendering: the explicit width,
// else the texture's render width.
func (v *View) RenderWidth() float64 {
	if v.enabled {
		return v.core.rw
	}
	return v.getRenderWidth()
}

// RenderHeight returns the height used for rendering.
func (v *View) RenderHeight() float64 {
	if v.enabled {
		return v.core.rh
	}
	return v.getRenderHeight()
}

// FinalX returns the x position with the mount offset applied.
func (v *View) FinalX() float64 { return v.core.localPx }

// FinalY returns the y position with the mount offset applied.
func (v *View) FinalY() float64 { return v.core.localPy }

// --- Scale, pivot, mount, rotation ---

// ScaleX returns the horizontal scale.
func (v *View) ScaleX() float64 { return v.scaleX }

// ScaleY returns the vertical scale.
func (v *View) ScaleY() float64 { return v.scaleY }

// Scale returns the horizontal scale, which equals the vertical scale when
// set through SetScale.
func (v *View) Scale() float64 { return v.scaleX }

// SetScale sets both scale factors.
func (v *View) SetScale(s float64) {
	if v.scaleX == s && v.scaleY == s {
		return
	}
	v.scaleX, v.scaleY = s, s
	v.updateLocalTransform()
}

// SetScaleX sets the horizontal scale.
func (v *View) SetScaleX(s float64) {
	if v.scaleX == s {
		return
	}
	v.scaleX = s
	v.updateLocalTransform()
}

// SetScaleY sets the vertical scale.
func (v *View) SetScaleY(s float64) {
	if v.scaleY == s {
		return
	}
	v.scaleY = s
	v.updateLocalTransform()
}

// PivotX returns the horizontal pivot in [0, 1] of the render width.
func (v *View) PivotX() float64 { return v.pivotX }

// PivotY returns the vertical pivot.
func (v *View) PivotY() float64 { return v.pivotY }

// SetPivot sets both pivot coordinates.
func (v *View) SetPivot(p float64) {
	if v.pivotX == p && v.pivotY == p {
		return
	}
	v.pivotX, v.pivotY = p, p
	v.updateLocalTranslate()
}

// SetPivotX sets the horizontal pivot.
func (v *View) SetPivotX(p float64) {
	if v.pivotX == p {
		return
	}
	v.pivotX = p
	v.updateLocalTranslate()
}

// SetPivotY sets the vertical pivot.
func (v *View) SetPivotY(p float64) {
	if v.pivotY == p {
		return
	}
	v.pivotY = p
	v.updateLocalTranslate()
}

// MountX returns the horizontal mount point.
func (v *View) MountX() float64 { return v.mountX }

// MountY returns the vertical mount point.
func (v *View) MountY() float64 { return v.mountY }

// SetMount sets both mount coordinates.
func (v *View) SetMount(m float64) {
	if v.mountX == m && v.mountY == m {
		return
	}
	v.mountX, v.mountY = m, m
	v.updateLocalTranslate()
}

// SetMountX sets the horizontal mount point.
func (v *View) SetMountX(m float64) {
	if v.mountX == m {
		return
	}
	v.mountX = m
	v.updateLocalTranslate()
}

// SetMountY sets the vertical mount point.
func (v *View) SetMountY(m float64) {
	if v.mountY == m {
		return
	}
	v.mountY = m
	v.updateLocalTranslate()
}

// Rotation returns the rotation in radians.
func (v *View) Rotation() float64 { return v.rotation }

// SetRotation sets the rotation in radians around the pivot.
func (v *View) SetRotation(r float64) {
	if v.rotation == r {
		return
	}
	v.rotation = r
	v.updateLocalTransform()
}

// --- Alpha and visibility ---

// Alpha returns the local alpha.
func (v *View) Alpha() float64 { return v.alpha }

// SetAlpha sets the local alpha. Values are clamped to [0, 1] and values
// below 1e-14 become 0. Crossing zero changes the enabled flag.
func (v *View) SetAlpha(a float64) {
	if a > 1 {
		a = 1
	} else if a < 1e-14 || math.IsNaN(a) {
		a = 0
	}
	if v.alpha == a {
		return
	}
	prev := v.alpha
	v.alpha = a
	v.updateLocalAlpha()
	if (prev == 0) != (a == 0) {
		v.updateEnabledFlag()
	}
}

// Visible returns the visibility switch.
func (v *View) Visible() bool { return v.visible }

// SetVisible shows or hides the view and its subtree.
func (v *View) SetVisible(b bool) {
	if v.visible == b {
		return
	}
	v.visible = b
	v.updateLocalAlpha()
	v.updateEnabledFlag()
}

// --- Colors ---

// Color returns the upper-left color, which is the uniform color when set
// through SetColor.
func (v *View) Color() Color { return v.core.colorUl }

// SetColor sets all four corner colors.
func (v *View) SetColor(c Color) { v.core.setColors(c, c, c, c) }

// ColorUl returns the upper-left color.
func (v *View) ColorUl() Color { return v.core.colorUl }

// ColorUr returns the upper-right color.
func (v *View) ColorUr() Color { return v.core.colorUr }

// ColorBl returns the bottom-left color.
func (v *View) ColorBl() Color { return v.core.colorBl }

// ColorBr returns the bottom-right color.
func (v *View) ColorBr() Color { return v.core.colorBr }

// SetColorUl sets the upper-left color.
func (v *View) SetColorUl(c Color) {
	cc := v.core
	cc.setColors(c, cc.colorUr, cc.colorBl, cc.colorBr)
}

// SetColorUr sets the upper-right color.
func (v *View) SetColorUr(c Color) {
	cc := v.core
	cc.setColors(cc.colorUl, c, cc.colorBl, cc.colorBr)
}

// SetColorBl sets the bottom-left color.
func (v *View) SetColorBl(c Color) {
	cc := v.core
	cc.setColors(cc.colorUl, cc.colorUr, c, cc.colorBr)
}

// SetColorBr sets the bottom-right color.
func (v *View) SetColorBr(c Color) {
	cc := v.core
	cc.setColors(cc.colorUl, cc.colorUr, cc.colorBl, c)
}

// SetColorTop sets both upper colors.
func (v *View) SetColorTop(c Color) {
	cc := v.core
	cc.setColors(c, c, cc.colorBl, cc.colorBr)
}

// SetColorBottom sets both bottom colors.
func (v *View) SetColorBottom(c Color) {
	cc := v.core
	cc.setColors(cc.colorUl, cc.colorUr, c, c)
}

// SetColorLeft sets both left colors.
func (v *View) SetColorLeft(c Color) {
	cc := v.core
	cc.setColors(c, cc.colorUr, c, cc.colorBr)
}

// SetColorRight sets both right colors.
func (v *View) SetColorRight(c Color) {
	cc := v.core
	cc.setColors(cc.colorUl, c, cc.colorBl, c)
}

// --- Z-ordering and clipping ---

// ZIndex returns the z-index.
func (v *View) ZIndex() int { return v.core.zIndex }

// SetZIndex sets the z-index within the nearest z-context.
func (v *View) SetZIndex(z int) {
	if v.core.zIndex == z {
		return
	}
	v.core.zIndex = z
	v.core.setHasRenderUpdates(1)
	if v.core.parent != nil {
		v.core.parent.setHasRenderUpdates(3)
	}
}

// ForceZIndexContext reports whether v opens a z-context without a z-index.
func (v *View) ForceZIndexContext() bool { return v.core.forceZIndexContext }

// SetForceZIndexContext forces a z-context.
func (v *View) SetForceZIndexContext(b bool) {
	if v.core.forceZIndexContext == b {
		return
	}
	v.core.forceZIndexContext = b
	v.core.setHasRenderUpdates(3)
}

// Clipping reports whether descendants are clipped to v's bounds.
func (v *View) Clipping() bool { return v.core.clipping }

// SetClipping enables scissor clipping of descendants.
func (v *View) SetClipping(b bool) {
	if v.core.clipping == b {
		return
	}
	v.core.clipping = b
	v.core.setHasRenderUpdates(3)
}

// Clipbox reports whether v's bounds are used for culling descendants
// without clipping them.
func (v *View) Clipbox() bool { return v.core.clipbox }

// SetClipbox sets the clipbox flag.
func (v *View) SetClipbox(b bool) {
	if v.core.clipbox == b {
		return
	}
	v.core.clipbox = b
	v.core.setHasRenderUpdates(3)
}

// BoundsMargin returns the explicit bounds margin, or nil if inherited.
func (v *View) BoundsMargin() *[4]float64 { return v.core.boundsMargin }

// SetBoundsMargin sets the margin (top, right, bottom, left) added to the
// viewport when culling this subtree. nil inherits from the parent.
func (v *View) SetBoundsMargin(m *[4]float64) {
	if m != nil {
		cp := *m
		m = &cp
	}
	v.core.boundsMargin = m
	v.core.setHasRenderUpdates(3)
}

// ForceRenderUpdate marks the view's content as changed.
func (v *View) ForceRenderUpdate() { v.core.setHasRenderUpdates(3) }

// --- Text ---

// Text returns the text sub-object, creating it on first use. Creating it
// does not change the texture until a text setting is applied.
func (v *View) Text() *ViewText {
	if v.text == nil {
		v.text = newViewText(v)
	}
	return v.text
}

// HasText reports whether the view's texture was produced by its text
// sub-object.
func (v *View) HasText() bool { return v.text != nil && v.text.applied }

// SetText sets the text content, creating a text texture.
func (v *View) SetText(s string) {
	t := v.Text()
	if t.settings.Text == s && v.texture != nil {
		return
	}
	t.settings.Text = s
	t.updateTexture()
}

// --- Texturizer shortcuts ---

// Texturizer returns the texturizer, creating it on first use.
func (v *View) Texturizer() *Texturizer { return v.core.Texturizer() }

// RenderToTexture reports whether the subtree is rendered to texture.
func (v *View) RenderToTexture() bool {
	return v.core.hasTexturizer() && v.core.texturizer.enabled
}

// SetRenderToTexture enables render-to-texture for the subtree.
func (v *View) SetRenderToTexture(b bool) { v.Texturizer().SetEnabled(b) }

// ResultTexture returns a texture showing the texturizer output, for use by
// other views.
func (v *View) ResultTexture() *Texture { return v.Texturizer().Texture() }

// --- Disposal ---

// Dispose removes v from its parent, releases every registration held by
// the subtree and drops listeners and transitions. A disposed view must not
// be reused.
func (v *View) Dispose() {
	if v.disposed {
		return
	}
	if v.parent != nil {
		v.parent.ChildList().Remove(v)
	} else if v.IsRoot() {
		v.stage.SetRoot(nil)
	}
	v.dispose()
}

func (v *View) dispose() {
	if v.childList != nil {
		for _, c := range v.childList.children {
			c.dispose()
		}
	}
	if v.core.texturizer != nil {
		v.core.texturizer.Release()
	}
	for _, t := range v.transitions {
		t.Stop()
	}
	v.transitions = nil
	v.listeners = nil
	v.disposed = true
}
