package viewtree

import (
	"image/color"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
)

// TypeFactory creates a view of a registered type. The stage sets the type
// name on the returned view.
type TypeFactory func(s *Stage) *View

// Stage owns a render tree: the root designation, the texture manager, the
// render-texture pool, running transitions and stage-wide observers.
//
// All methods must be called from the control goroutine, except Post.
type Stage struct {
	opts Options
	root *View

	textures   map[string]*TextureSource
	loader     Loader
	rectSource *TextureSource
	rectTex    *Texture

	rtPool renderTexturePool

	transitions []*Transition
	types       map[string]TypeFactory

	// DefaultTransition is used by properties without transition settings.
	DefaultTransition TransitionSettings

	observers      []*observerEntry
	nextObserverID ListenerID

	mu      sync.Mutex
	pending []func()

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir   string
	screenshotQueue []string
}

type observerEntry struct {
	id      ListenerID
	fn      Listener
	removed bool
}

// NewStage creates a stage with a pre-created, designated root view.
// Options.LogLevel and Options.Debug set the level of the shared package
// logger.
func NewStage(opts Options) *Stage {
	opts = opts.withDefaults()
	if opts.LogLevel != "" {
		if lvl, err := log.ParseLevel(opts.LogLevel); err == nil {
			logger.SetLevel(lvl)
		} else {
			logger.Warn("unknown log level", "level", opts.LogLevel)
		}
	}
	if opts.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	s := &Stage{
		opts:     opts,
		textures: make(map[string]*TextureSource),
		types:    make(map[string]TypeFactory),

		DefaultTransition: DefaultTransitionSettings(),
		ScreenshotDir:     "screenshots",
	}
	s.loader = NewFileLoader(s, opts.TextureDir)
	s.SetRoot(s.NewView())
	return s
}

// Options returns the stage options with defaults applied.
func (s *Stage) Options() Options { return s.opts }

// Root returns the root view, or nil.
func (s *Stage) Root() *View { return s.root }

// SetRoot designates v as the root. v must not have a parent. The previous
// root becomes detached. nil leaves the stage without a root.
func (s *Stage) SetRoot(v *View) {
	if v != nil && v.parent != nil {
		panic(viewError(v, ErrCodeStructural, "root must not have a parent"))
	}
	if v != nil && v.stage != s {
		panic(newError(ErrCodeStructural, "root belongs to another stage"))
	}
	old := s.root
	if old == v {
		return
	}
	s.root = v
	if old != nil {
		old.core.isRoot = false
		old.updateAttachedFlag()
		old.updateEnabledFlag()
	}
	if v != nil {
		v.updateAttachedFlag()
		v.updateEnabledFlag()
		v.core.setAsRoot()
	}
}

// NewView creates a detached view owned by the stage.
func (s *Stage) NewView() *View { return newView(s) }

// Viewport returns the stage rectangle used for bounds checks.
func (s *Stage) Viewport() Rect {
	return Rect{Width: s.opts.Width, Height: s.opts.Height}
}

// RenderPrecision returns the pixel density used for text textures.
func (s *Stage) RenderPrecision() float64 { return s.opts.RenderPrecision }

// SetRenderPrecision changes the render precision and notifies every view
// in the tree.
func (s *Stage) SetRenderPrecision(p float64) {
	if p <= 0 || p == s.opts.RenderPrecision {
		return
	}
	s.opts.RenderPrecision = p
	if s.root != nil {
		walkViews(s.root, func(v *View) { v.onPrecisionChanged() })
	}
}

func walkViews(v *View, fn func(*View)) {
	fn(v)
	for _, c := range v.Children() {
		walkViews(c, fn)
	}
}

// --- Types ---

// RegisterType registers a factory for the "type" setting.
func (s *Stage) RegisterType(name string, f TypeFactory) {
	s.types[name] = f
}

// CreateView creates a view of a registered type. An empty name creates a
// plain view.
func (s *Stage) CreateView(typeName string) (*View, error) {
	if typeName == "" {
		return s.NewView(), nil
	}
	f, ok := s.types[typeName]
	if !ok {
		return nil, newError(ErrCodeInvalidSettings, "unknown view type %q", typeName)
	}
	v := f(s)
	v.typeName = typeName
	return v, nil
}

// --- Textures ---

// SetLoader replaces the loader used for src textures created afterwards.
func (s *Stage) SetLoader(l Loader) { s.loader = l }

// GetTexture returns a new texture over the stage-managed source for src,
// creating the source on first use. Sources are shared per src.
func (s *Stage) GetTexture(src string) *Texture {
	return NewTexture(s.textureSource(src, s.loader))
}

// TextureSourceByID returns the managed source for id, or nil.
func (s *Stage) TextureSourceByID(id string) *TextureSource { return s.textures[id] }

func (s *Stage) textureSource(id string, l Loader) *TextureSource {
	if src, ok := s.textures[id]; ok {
		return src
	}
	src := newTextureSource(s, id, l)
	s.textures[id] = src
	return src
}

func (s *Stage) forgetTextureSource(src *TextureSource) {
	if s.textures[src.lookupID] == src {
		delete(s.textures, src.lookupID)
	}
}

// TextureFromImage returns a texture over an in-memory image. The source is
// ready immediately and never freed.
func (s *Stage) TextureFromImage(img *ebiten.Image) *Texture {
	src := newTextureSource(s, "", ImageLoader(img))
	src.permanent = true
	src.Load()
	return NewTexture(src)
}

// FreeUnusedTextures frees every managed source without registered views.
// It returns the number of sources freed.
func (s *Stage) FreeUnusedTextures() int {
	n := 0
	for _, src := range s.textures {
		if src.Free() {
			n++
		}
	}
	return n
}

func (s *Stage) rectangleSource() *TextureSource {
	if s.rectSource == nil {
		img := ebiten.NewImage(1, 1)
		img.Fill(color.White)
		s.rectSource = newTextureSource(s, "rectangle", ImageLoader(img))
		s.rectSource.permanent = true
		s.rectSource.Load()
	}
	return s.rectSource
}

// RectangleTexture returns the shared 1x1 white texture used by rect views.
func (s *Stage) RectangleTexture() *Texture {
	if s.rectTex == nil {
		s.rectTex = NewTexture(s.rectangleSource())
	}
	return s.rectTex
}

// --- Observers ---

// AddObserver registers fn for every event emitted by views of this stage.
func (s *Stage) AddObserver(fn Listener) ListenerID {
	s.nextObserverID++
	s.observers = append(s.observers, &observerEntry{id: s.nextObserverID, fn: fn})
	return s.nextObserverID
}

// RemoveObserver removes an observer added with AddObserver.
func (s *Stage) RemoveObserver(id ListenerID) bool {
	for i, o := range s.observers {
		if o.id == id {
			o.removed = true
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Stage) notify(e Event) {
	for _, o := range s.observers {
		if !o.removed {
			o.fn(e)
		}
	}
}

// --- Frame ---

// Post queues fn to run on the control goroutine during the next Update.
// It is safe to call from any goroutine.
func (s *Stage) Post(fn func()) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

func (s *Stage) drainPending() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Update runs one frame of tree maintenance: it delivers completed
// asynchronous loads, advances transitions by dt seconds, then recomputes
// world transforms and within-bounds flags for the enabled tree.
func (s *Stage) Update(dt float32) {
	s.drainPending()
	s.updateTransitions(dt)
	if s.root != nil && s.root.enabled {
		s.root.core.update(identityTransform, 1, s.Viewport(), s.opts.BoundsMargin, false)
	}
	if s.opts.Debug && s.root != nil {
		if err := checkFlags(s.root); err != nil {
			logger.Error("flag check failed", "err", err)
		}
	}
}
