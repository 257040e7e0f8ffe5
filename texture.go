package viewtree

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// TextureSource is the shared backing resource of one or more textures. It
// is loaded when the first enabled view registers with it and keeps an
// ordered set of the registered views.
type TextureSource struct {
	stage    *Stage
	lookupID string
	loader   Loader

	image *ebiten.Image
	w, h  int

	loading bool
	loadErr error
	// gen invalidates in-flight loads when the source is freed.
	gen uint64

	views             *viewSet
	withinBoundsCount int

	// permanent sources (rectangle texture, in-memory images) are never freed.
	permanent bool
}

func newTextureSource(s *Stage, lookupID string, l Loader) *TextureSource {
	return &TextureSource{stage: s, lookupID: lookupID, loader: l, views: newViewSet()}
}

// ID returns the lookup id (the src for file-backed sources).
func (s *TextureSource) ID() string { return s.lookupID }

// Image returns the ready image, or nil while not loaded.
func (s *TextureSource) Image() *ebiten.Image { return s.image }

// Width returns the pixel width of the loaded image.
func (s *TextureSource) Width() int { return s.w }

// Height returns the pixel height of the loaded image.
func (s *TextureSource) Height() int { return s.h }

// IsLoaded reports whether the image is ready.
func (s *TextureSource) IsLoaded() bool { return s.image != nil }

// IsLoading reports whether a load is in flight.
func (s *TextureSource) IsLoading() bool { return s.loading }

// Err returns the error of the last failed load.
func (s *TextureSource) Err() error { return s.loadErr }

// AddView registers v. The first registration of an unloaded source starts
// a load; v is already registered when the load is dispatched so a
// synchronous completion reaches it.
func (s *TextureSource) AddView(v *View) {
	if !s.views.add(v) {
		return
	}
	if !s.IsLoaded() && !s.loading {
		s.Load()
	}
}

// RemoveView deregisters v.
func (s *TextureSource) RemoveView(v *View) {
	s.views.remove(v)
}

// ViewCount returns the number of registered views.
func (s *TextureSource) ViewCount() int { return s.views.len() }

// Views returns a copy of the registered views in registration order.
func (s *TextureSource) Views() []*View { return s.views.slice() }

// IncWithinBoundsCount records an active view displaying or requesting the
// source.
func (s *TextureSource) IncWithinBoundsCount() { s.withinBoundsCount++ }

// DecWithinBoundsCount reverses IncWithinBoundsCount.
func (s *TextureSource) DecWithinBoundsCount() { s.withinBoundsCount-- }

// WithinBoundsCount returns the number of active views using the source.
func (s *TextureSource) WithinBoundsCount() int { return s.withinBoundsCount }

// Load dispatches a load through the loader unless the source is already
// loaded or loading, or has no loader.
func (s *TextureSource) Load() {
	if s.IsLoaded() || s.loading {
		return
	}
	s.dispatch()
}

// Reload loads the image again. The current image stays in place until the
// new one arrives.
func (s *TextureSource) Reload() {
	s.dispatch()
}

func (s *TextureSource) dispatch() {
	if s.loader == nil {
		return
	}
	s.loading = true
	s.loadErr = nil
	s.gen++
	gen := s.gen
	logger.Debug("texture load", "src", s.lookupID)
	s.loader.Load(s, func(img *ebiten.Image, err error) {
		if gen != s.gen {
			return
		}
		s.loading = false
		if err != nil {
			s.setError(err)
			return
		}
		s.setImage(img)
	})
}

// Free releases the image of an unreferenced source and invalidates any
// in-flight load. It returns false if views are still registered or the
// source is permanent.
func (s *TextureSource) Free() bool {
	if s.permanent || s.views.len() > 0 {
		return false
	}
	s.gen++
	s.loading = false
	if s.image != nil {
		s.image.Deallocate()
		s.image = nil
	}
	if s.stage != nil {
		s.stage.forgetTextureSource(s)
	}
	return true
}

func (s *TextureSource) setImage(img *ebiten.Image) {
	s.image = img
	s.w, s.h = 0, 0
	if img != nil {
		b := img.Bounds()
		s.w, s.h = b.Dx(), b.Dy()
	}
	for _, v := range s.views.slice() {
		v.onTextureSourceLoaded(s)
	}
}

func (s *TextureSource) setError(err error) {
	s.loadErr = wrapError(ErrCodeResource, err, "load texture %q", s.lookupID)
	logger.Error("texture load failed", "src", s.lookupID, "err", err)
	for _, v := range s.views.slice() {
		v.onTextureSourceLoadError(s, s.loadErr)
	}
}

// replaceImage swaps the backing image in place, used for texturizer
// result textures whose render texture is reallocated.
func (s *TextureSource) replaceImage(img *ebiten.Image) {
	s.gen++
	s.loading = false
	s.setImage(img)
}

// Texture is a (possibly clipped) view onto a TextureSource. Several
// textures may share one source.
type Texture struct {
	source *TextureSource

	// Clipping rectangle in source pixels. w/h of 0 extend to the edge.
	x, y, w, h float64
	precision  float64
}

// NewTexture creates a texture over src.
func NewTexture(src *TextureSource) *Texture {
	return &Texture{source: src, precision: 1}
}

// Source returns the backing source.
func (t *Texture) Source() *TextureSource { return t.source }

// Clipping reports whether a clipping rectangle is set.
func (t *Texture) Clipping() bool {
	return t.x != 0 || t.y != 0 || t.w != 0 || t.h != 0
}

// ClipRect returns the clipping rectangle in source pixels.
func (t *Texture) ClipRect() (x, y, w, h float64) { return t.x, t.y, t.w, t.h }

// SetClipping sets the clipping rectangle and updates every view that
// requests or displays this texture.
func (t *Texture) SetClipping(x, y, w, h float64) {
	if t.x == x && t.y == y && t.w == w && t.h == h {
		return
	}
	t.x, t.y, t.w, t.h = x, y, w, h
	t.updateClipping()
}

// ClearClipping removes the clipping rectangle.
func (t *Texture) ClearClipping() { t.SetClipping(0, 0, 0, 0) }

// Precision returns the pixel density of the texture.
func (t *Texture) Precision() float64 { return t.precision }

// SetPrecision sets the pixel density. Render sizes are divided by it.
func (t *Texture) SetPrecision(p float64) {
	if p <= 0 || p == t.precision {
		return
	}
	t.precision = p
	t.updateClipping()
}

func (t *Texture) updateClipping() {
	if t.source == nil {
		return
	}
	for _, v := range t.source.views.slice() {
		if v.displayedTexture == t {
			v.onDisplayedTextureClippingChanged()
		} else if v.texture == t {
			v.updateDimensions()
		}
	}
}

// RenderWidth returns the width a view renders this texture with.
func (t *Texture) RenderWidth() float64 {
	w := t.w
	if w == 0 && t.source != nil && t.source.IsLoaded() {
		w = float64(t.source.w) - t.x
	}
	return w / t.precision
}

// RenderHeight returns the height a view renders this texture with.
func (t *Texture) RenderHeight() float64 {
	h := t.h
	if h == 0 && t.source != nil && t.source.IsLoaded() {
		h = float64(t.source.h) - t.y
	}
	return h / t.precision
}

// NonDefaults returns the clipping and precision settings that differ from
// the defaults.
func (t *Texture) NonDefaults() Settings {
	s := Settings{}
	if t.x != 0 {
		s["x"] = t.x
	}
	if t.y != 0 {
		s["y"] = t.y
	}
	if t.w != 0 {
		s["w"] = t.w
	}
	if t.h != 0 {
		s["h"] = t.h
	}
	if t.precision != 1 {
		s["precision"] = t.precision
	}
	return s
}

// Patch applies clipping and precision settings.
func (t *Texture) Patch(s Settings) error {
	x, y, w, h := t.x, t.y, t.w, t.h
	for key, val := range s {
		f, ok := toFloat(val)
		if !ok {
			return newError(ErrCodeType, "texture %s: expected number, got %T", key, val)
		}
		switch key {
		case "x":
			x = f
		case "y":
			y = f
		case "w":
			w = f
		case "h":
			h = f
		case "precision":
			t.SetPrecision(f)
		default:
			return newError(ErrCodeInvalidSettings, "unknown texture setting %q", key)
		}
	}
	t.SetClipping(x, y, w, h)
	return nil
}
