package viewtree

import "github.com/hajimehoshi/ebiten/v2"

// Texturizer renders a view's subtree into an offscreen texture, optionally
// through a filter chain. The result can be displayed in place of the
// subtree or used as the texture of other views.
//
// Render and filter textures come from the stage pool. They are allocated
// on first use and released when the view is deactivated or render-to-
// texture is switched off.
type Texturizer struct {
	core *ViewCore

	enabled    bool
	lazy       bool
	colorize   bool
	hideResult bool

	filters []Filter

	renderTexture       *ebiten.Image
	renderTextureReused bool
	filterTexture       *ebiten.Image

	resultSource  *TextureSource
	resultTexture *Texture

	// FilterResultCached is set by the render layer once the filter texture
	// holds the output for the current render texture.
	FilterResultCached bool
	// Empty is set by the render layer when the captured subtree drew nothing.
	Empty bool
}

func newTexturizer(c *ViewCore) *Texturizer {
	return &Texturizer{core: c}
}

func (t *Texturizer) stage() *Stage { return t.core.view.stage }

// Enabled reports whether the subtree is rendered to texture.
func (t *Texturizer) Enabled() bool { return t.enabled }

// SetEnabled switches render-to-texture on or off.
func (t *Texturizer) SetEnabled(v bool) {
	t.enabled = v
	t.core.updateRenderToTextureEnabled()
}

// Lazy reports whether captures are only refreshed when content changed.
func (t *Texturizer) Lazy() bool { return t.lazy }

// SetLazy sets lazy capture mode.
func (t *Texturizer) SetLazy(v bool) { t.lazy = v }

// Colorize reports whether the view's colors tint the result quad.
func (t *Texturizer) Colorize() bool { return t.colorize }

// SetColorize sets whether the view's colors tint the result quad.
func (t *Texturizer) SetColorize(v bool) {
	if t.colorize == v {
		return
	}
	t.colorize = v
	t.core.setHasRenderUpdates(1)
}

// HideResult reports whether the result is captured without being drawn.
func (t *Texturizer) HideResult() bool { return t.hideResult }

// SetHideResult sets whether the result is captured without being drawn.
func (t *Texturizer) SetHideResult(v bool) {
	t.hideResult = v
	t.core.setHasRenderUpdates(1)
}

// Filters returns the filter chain. MUST NOT be mutated.
func (t *Texturizer) Filters() []Filter { return t.filters }

// setFilters replaces the chain. View registration is handled by the
// caller (View.SetFilters) because it depends on the enabled flag.
func (t *Texturizer) setFilters(filters []Filter) {
	t.filters = nil
	t.FilterResultCached = false
	for _, f := range filters {
		if f == nil {
			logger.Warn("ignoring nil filter", "view", t.core.view.LocationString())
			continue
		}
		t.filters = append(t.filters, f)
	}
	t.core.updateRenderToTextureEnabled()
	t.core.setHasRenderUpdates(2)
}

// HasFilters reports whether any filter is set.
func (t *Texturizer) HasFilters() bool { return len(t.filters) > 0 }

// HasActiveFilters reports whether any filter has an effect.
func (t *Texturizer) HasActiveFilters() bool {
	for _, f := range t.filters {
		if !f.UseDefault() {
			return true
		}
	}
	return false
}

// ActiveFilters returns the filters with an effect, with filter groups
// expanded.
func (t *Texturizer) ActiveFilters() []Filter {
	var out []Filter
	for _, f := range flattenFilters(t.filters) {
		if !f.UseDefault() {
			out = append(out, f)
		}
	}
	return out
}

// MustRenderToTexture reports whether the subtree has to be (re)captured
// this frame: always when enabled and not lazy; when lazy only if content
// changed during the previous frame or nothing was captured yet; and
// whenever an active filter is set.
func (t *Texturizer) MustRenderToTexture() bool {
	switch {
	case t.enabled && !t.lazy:
		return true
	case t.enabled && t.lazy && (t.core.lastRenderUpdates >= 3 || t.renderTexture == nil):
		return true
	case t.HasActiveFilters():
		return true
	}
	return false
}

// Texture returns a texture over the result, for use as another view's
// texture.
func (t *Texturizer) Texture() *Texture {
	if t.resultTexture == nil {
		t.resultTexture = NewTexture(t.resultTextureSource())
	}
	return t.resultTexture
}

func (t *Texturizer) resultTextureSource() *TextureSource {
	if t.resultSource == nil {
		t.resultSource = newTextureSource(t.stage(), "", nil)
		t.resultSource.permanent = true
		t.updateResultTexture()
	}
	return t.resultSource
}

// updateResultTexture publishes the current result image through the result
// source and flags its viewers for re-render.
func (t *Texturizer) updateResultTexture() {
	if t.resultSource == nil {
		return
	}
	img := t.ResultTexture()
	if t.resultSource.image != img {
		t.resultSource.replaceImage(img)
	}
	for _, v := range t.resultSource.views.slice() {
		v.updateDimensions()
		v.core.setHasRenderUpdates(3)
	}
}

// Deactivate releases offscreen textures. Called when the view becomes
// inactive.
func (t *Texturizer) Deactivate() { t.Release() }

// RenderTextureReused reports whether the render texture was handed in
// with ReuseTextureAsRenderTexture.
func (t *Texturizer) RenderTextureReused() bool { return t.renderTextureReused }

// Release returns the render and filter textures to the pool.
func (t *Texturizer) Release() {
	t.ReleaseRenderTexture()
	t.ReleaseFilterTexture()
}

// ReleaseRenderTexture returns the render texture to the pool. A reused
// texture is only dropped, never released.
func (t *Texturizer) ReleaseRenderTexture() {
	if t.renderTexture == nil {
		return
	}
	if !t.renderTextureReused {
		t.stage().ReleaseRenderTexture(t.renderTexture)
	}
	t.renderTexture = nil
	t.renderTextureReused = false
	t.updateResultTexture()
}

// ReuseTextureAsRenderTexture captures into img instead of a pooled
// texture. The caller keeps ownership of img.
func (t *Texturizer) ReuseTextureAsRenderTexture(img *ebiten.Image) {
	if t.renderTexture == img {
		return
	}
	t.ReleaseRenderTexture()
	t.renderTexture = img
	t.renderTextureReused = true
	t.updateResultTexture()
}

// HasRenderTexture reports whether a render texture is held.
func (t *Texturizer) HasRenderTexture() bool { return t.renderTexture != nil }

// RenderTexture returns the render texture, allocating it from the pool
// with the core's render size on first use.
func (t *Texturizer) RenderTexture() *ebiten.Image {
	if t.renderTexture == nil {
		t.renderTexture = t.stage().AllocateRenderTexture(t.core.rw, t.core.rh)
		t.renderTextureReused = false
		t.updateResultTexture()
	}
	return t.renderTexture
}

// FilterTexture returns the filter output texture, allocating it on first
// use.
func (t *Texturizer) FilterTexture() *ebiten.Image {
	if t.filterTexture == nil {
		t.filterTexture = t.stage().AllocateRenderTexture(t.core.rw, t.core.rh)
		t.updateResultTexture()
	}
	return t.filterTexture
}

// ReleaseFilterTexture returns the filter texture to the pool.
func (t *Texturizer) ReleaseFilterTexture() {
	if t.filterTexture == nil {
		return
	}
	t.stage().ReleaseRenderTexture(t.filterTexture)
	t.filterTexture = nil
	t.FilterResultCached = false
	t.updateResultTexture()
}

// ResultTexture returns the filter texture when filters are active, the
// render texture otherwise. Either may be nil.
func (t *Texturizer) ResultTexture() *ebiten.Image {
	if t.HasActiveFilters() {
		return t.filterTexture
	}
	return t.renderTexture
}

// ApplyFilters runs the active chain from the render texture into the
// filter texture. It is a no-op when no filter is active or the result is
// already cached.
func (t *Texturizer) ApplyFilters() {
	active := t.ActiveFilters()
	if len(active) == 0 || t.FilterResultCached || t.renderTexture == nil {
		return
	}
	dst := t.FilterTexture()
	s := t.stage()
	out := applyFilters(s, active, t.renderTexture)
	dst.Clear()
	dst.DrawImage(out, nil)
	if out != t.renderTexture {
		s.ReleaseRenderTexture(out)
	}
	t.FilterResultCached = true
}
