package viewtree

// Flag propagation. Each update function sets the flag and applies its side
// effects before recursing into the children, and emits its event after the
// whole subtree has been processed.

func (v *View) isAttachedCandidate() bool {
	if v.parent != nil {
		return v.parent.attached
	}
	return v.IsRoot()
}

func (v *View) isEnabledCandidate() bool {
	if !v.visible || v.alpha <= 0 {
		return false
	}
	if v.parent != nil {
		return v.parent.enabled
	}
	return v.IsRoot()
}

func (v *View) updateAttachedFlag() {
	newAttached := v.isAttachedCandidate()
	if v.attached == newAttached {
		return
	}
	v.attached = newAttached

	for _, c := range v.Children() {
		c.updateAttachedFlag()
	}

	if newAttached {
		v.emit(Event{Kind: EventAttach})
	} else {
		v.emit(Event{Kind: EventDetach})
	}
}

func (v *View) updateEnabledFlag() {
	newEnabled := v.isEnabledCandidate()
	if v.enabled == newEnabled {
		return
	}
	if newEnabled {
		v.setEnabledFlag()
	} else {
		v.unsetEnabledFlag()
	}

	for _, c := range v.Children() {
		c.updateEnabledFlag()
	}

	if newEnabled {
		v.emit(Event{Kind: EventEnabled})
	} else {
		v.emit(Event{Kind: EventDisabled})
	}
}

func (v *View) setEnabledFlag() {
	v.updateDimensions()
	v.updateTextureCoords()

	v.enabled = true

	if v.texture != nil {
		// Registered before activation: registering may start a synchronous
		// load that has to reach this view.
		v.texture.source.AddView(v)
	}

	if v.core.withinBoundsMargin {
		v.setActiveFlag()
	}

	if v.core.shader != nil {
		v.core.shader.AddView(v.core)
	}

	if t := v.core.texturizer; t != nil {
		for _, f := range t.filters {
			f.AddView(v.core)
		}
	}
}

func (v *View) unsetEnabledFlag() {
	if v.active {
		v.unsetActiveFlag()
	}

	if v.texture != nil {
		v.texture.source.RemoveView(v)
	}

	if v.core.shader != nil {
		v.core.shader.RemoveView(v.core)
	}

	if t := v.core.texturizer; t != nil {
		for _, f := range t.filters {
			f.RemoveView(v.core)
		}
	}

	v.enabled = false
}

func (v *View) setActiveFlag() {
	v.active = true
	if v.texture != nil {
		v.enableTexture()
		v.texture.source.IncWithinBoundsCount()
	}
	v.emit(Event{Kind: EventActive})
}

func (v *View) unsetActiveFlag() {
	v.active = false
	if v.texture != nil {
		v.disableTexture()
		v.texture.source.DecWithinBoundsCount()
	}
	if t := v.core.texturizer; t != nil {
		t.Deactivate()
	}
	v.emit(Event{Kind: EventInactive})
}

// enableWithinBoundsMargin is called by the core when the view enters the
// bounds margin.
func (v *View) enableWithinBoundsMargin() {
	if v.enabled {
		v.setActiveFlag()
	}
}

// disableWithinBoundsMargin is called by the core when the view leaves the
// bounds margin.
func (v *View) disableWithinBoundsMargin() {
	if v.active {
		v.unsetActiveFlag()
	}
}
