package viewtree

// Texture, shader and filter bindings. A view requests a texture with
// SetTexture; it displays it only while active and once its source is
// loaded. While a newly requested texture loads, the previous one stays
// displayed and the view is registered with both sources.

// Texture returns the requested texture, or nil.
func (v *View) Texture() *Texture { return v.texture }

// DisplayedTexture returns the texture currently drawn, or nil. It is only
// set while the view is active.
func (v *View) DisplayedTexture() *Texture { return v.displayedTexture }

// SetTexture requests a texture. nil clears both the requested and the
// displayed texture.
func (v *View) SetTexture(t *Texture) {
	prev := v.texture
	if t == prev {
		return
	}
	v.texture = t

	if v.enabled {
		if prev != nil && (t == nil || prev.source != t.source) &&
			(v.displayedTexture == nil || v.displayedTexture.source != prev.source) {
			prev.source.RemoveView(v)
		}
		if v.active {
			if prev != nil {
				prev.source.DecWithinBoundsCount()
			}
			if t != nil {
				t.source.IncWithinBoundsCount()
			}
		}
		if t != nil {
			t.source.AddView(v)
		}
	}

	if t != nil {
		if t.source.IsLoaded() && v.active {
			v.setDisplayedTexture(t)
		}
	} else {
		v.setDisplayedTexture(nil)
	}

	v.updateDimensions()
}

// setTextureValue applies a settings value to the texture: a *Texture, a
// *TextureSource, a Settings patch of the current texture, or nil. Other
// types are logged and ignored.
func (v *View) setTextureValue(val any) {
	switch t := val.(type) {
	case nil:
		v.SetTexture(nil)
	case *Texture:
		v.SetTexture(t)
	case *TextureSource:
		v.SetTexture(NewTexture(t))
	case Settings:
		v.patchTexture(t)
	case map[string]any:
		v.patchTexture(Settings(t))
	default:
		logger.Warn("incorrect value for texture", "view", v.LocationString(), "type", typeName(val))
	}
}

func (v *View) patchTexture(s Settings) {
	if v.texture == nil {
		logger.Warn("setting texture properties, but there is no texture", "view", v.LocationString())
		return
	}
	if err := v.texture.Patch(s); err != nil {
		logger.Warn("texture patch", "view", v.LocationString(), "err", err)
	}
}

func (v *View) enableTexture() {
	var dt *Texture
	if v.texture != nil && v.texture.source.IsLoaded() {
		dt = v.texture
	}
	// Forced: the source may have been replaced while inactive.
	v.setDisplayedTexture(dt)
}

func (v *View) disableTexture() {
	// Cleared so that bounds checks use the requested texture's dimensions
	// while inactive.
	v.setDisplayedTexture(nil)
}

func (v *View) setDisplayedTexture(d *Texture) {
	prev := v.displayedTexture
	changed := d != prev

	if prev != nil && prev != v.texture &&
		(v.texture == nil || prev.source != v.texture.source) &&
		(d == nil || prev.source != d.source) {
		prev.source.RemoveView(v)
	}

	v.displayedTexture = d
	if d != nil {
		d.source.AddView(v)
	}

	v.updateDimensions()

	if d != nil {
		v.updateTextureCoords()
		v.core.setDisplayedTextureSource(d.source)
	} else {
		v.core.setDisplayedTextureSource(nil)
	}

	if changed {
		if d != nil {
			v.emit(Event{Kind: EventTextureLoaded, Texture: d})
		} else {
			v.emit(Event{Kind: EventTextureUnloaded, Texture: prev})
		}
	}
}

// onTextureSourceLoaded is called by a source for every registered view
// when its image arrives. Completions for a source the view no longer
// requests are ignored.
func (v *View) onTextureSourceLoaded(src *TextureSource) {
	if v.texture == nil || v.texture.source != src {
		if d := v.displayedTexture; d != nil && d.source == src {
			if src.IsLoaded() {
				v.onDisplayedTextureClippingChanged()
			} else {
				v.setDisplayedTexture(nil)
			}
		}
		return
	}
	if !v.active {
		v.updateDimensions()
		return
	}
	if !src.IsLoaded() {
		v.setDisplayedTexture(nil)
		return
	}
	v.setDisplayedTexture(v.texture)
}

// onTextureSourceLoadError keeps the displayed texture and reports the
// failure as an event.
func (v *View) onTextureSourceLoadError(src *TextureSource, err error) {
	if v.texture == nil || v.texture.source != src {
		return
	}
	v.emit(Event{Kind: EventTextureError, Texture: v.texture, Source: src, Err: err})
}

func (v *View) onDisplayedTextureClippingChanged() {
	v.updateDimensions()
	v.updateTextureCoords()
}

// onPrecisionChanged is called by the stage when the render precision
// changes.
func (v *View) onPrecisionChanged() {
	if v.HasText() {
		v.text.updateTexture()
	}
	v.updateDimensions()
}

// TextureIsLoaded reports whether the requested texture's source is ready.
func (v *View) TextureIsLoaded() bool {
	return v.texture != nil && v.texture.source.IsLoaded()
}

// LoadTexture starts loading the requested texture without waiting for the
// view to be enabled.
func (v *View) LoadTexture() {
	if v.texture != nil {
		v.texture.source.Load()
	}
}

func (v *View) getRenderWidth() float64 {
	switch {
	case v.w != 0:
		return v.w
	case v.displayedTexture != nil:
		return v.displayedTexture.RenderWidth()
	case v.texture != nil:
		return v.texture.RenderWidth()
	}
	return 0
}

func (v *View) getRenderHeight() float64 {
	switch {
	case v.h != 0:
		return v.h
	case v.displayedTexture != nil:
		return v.displayedTexture.RenderHeight()
	case v.texture != nil:
		return v.texture.RenderHeight()
	}
	return 0
}

// updateDimensions pushes the render size into the core. It reports
// whether the size changed.
func (v *View) updateDimensions() bool {
	rw, rh := v.getRenderWidth(), v.getRenderHeight()
	if v.core.rw == rw && v.core.rh == rh {
		return false
	}
	v.core.setDimensions(rw, rh)
	v.updateLocalTranslate()
	return true
}

// updateTextureCoords computes the normalized texture rectangle of the
// displayed texture, clamped to [0, 1].
func (v *View) updateTextureCoords() {
	d := v.displayedTexture
	if d == nil || !d.source.IsLoaded() {
		return
	}
	sw, sh := float64(d.source.w), float64(d.source.h)
	if sw == 0 || sh == 0 {
		return
	}
	tx1, ty1, tx2, ty2 := 0.0, 0.0, 1.0, 1.0
	if d.Clipping() {
		iw, ih := 1/sw, 1/sh
		if d.w != 0 {
			tx1 = d.x * iw
			tx2 = min(1, (d.x+d.w)*iw)
		} else {
			tx1 = d.x * iw
		}
		if d.h != 0 {
			ty1 = d.y * ih
			ty2 = min(1, (d.y+d.h)*ih)
		} else {
			ty1 = d.y * ih
		}
	}
	v.core.setTextureCoords(clamp01(tx1), clamp01(ty1), clamp01(tx2), clamp01(ty2))
}

// --- Shader ---

// Shader returns the assigned shader, or nil.
func (v *View) Shader() Shader { return v.core.shader }

// SetShader assigns a shader. Enabled views move their registration.
func (v *View) SetShader(s Shader) {
	if v.core.shader == s {
		return
	}
	if v.enabled && v.core.shader != nil {
		v.core.shader.RemoveView(v.core)
	}
	v.core.shader = s
	if v.enabled && s != nil {
		s.AddView(v.core)
	}
	v.core.setHasRenderUpdates(1)
}

func (v *View) setShaderValue(val any) {
	switch s := val.(type) {
	case nil:
		v.SetShader(nil)
	case Shader:
		v.SetShader(s)
	default:
		logger.Warn("incorrect value for shader", "view", v.LocationString(), "type", typeName(val))
	}
}

// --- Filters ---

// Filters returns the texturizer's filter chain.
func (v *View) Filters() []Filter {
	if v.core.texturizer == nil {
		return nil
	}
	return v.core.texturizer.filters
}

// SetFilters replaces the filter chain. Enabled views move their
// registrations from the old filters to the new ones.
func (v *View) SetFilters(filters []Filter) {
	t := v.Texturizer()
	if v.enabled {
		for _, f := range t.filters {
			f.RemoveView(v.core)
		}
	}
	t.setFilters(filters)
	if v.enabled {
		for _, f := range t.filters {
			f.AddView(v.core)
		}
	}
}

func (v *View) setFiltersValue(val any) {
	switch fs := val.(type) {
	case nil:
		v.SetFilters(nil)
	case []Filter:
		v.SetFilters(fs)
	case []any:
		out := make([]Filter, 0, len(fs))
		for _, e := range fs {
			f, ok := e.(Filter)
			if !ok {
				logger.Warn("incorrect value for filter", "view", v.LocationString(), "type", typeName(e))
				continue
			}
			out = append(out, f)
		}
		v.SetFilters(out)
	default:
		logger.Warn("incorrect value for filters", "view", v.LocationString(), "type", typeName(val))
	}
}

// --- Src and rect ---

// Src returns the source id of a stage-managed texture, or "".
func (v *View) Src() string {
	if v.texture != nil && v.texture.source.stage == v.stage && !v.texture.source.permanent && !v.HasText() {
		return v.texture.source.lookupID
	}
	return ""
}

// SetSrc sets the texture to the stage-managed texture for src. An empty
// src clears the texture.
func (v *View) SetSrc(src string) {
	if src == "" {
		v.SetTexture(nil)
		return
	}
	if v.text != nil {
		v.text.applied = false
	}
	v.SetTexture(v.stage.GetTexture(src))
}

// Rect reports whether the view displays the shared rectangle texture.
func (v *View) Rect() bool {
	return v.texture != nil && v.texture.source == v.stage.rectSource
}

// SetRect switches the shared white rectangle texture on or off.
func (v *View) SetRect(b bool) {
	if b == v.Rect() {
		return
	}
	if b {
		if v.text != nil {
			v.text.applied = false
		}
		v.SetTexture(v.stage.RectangleTexture())
	} else {
		v.SetTexture(nil)
	}
}
