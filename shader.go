package viewtree

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// Shader is a render program assigned to a view core. Enabled views register
// their core with the shader; the registration count is what keeps compiled
// GPU programs alive.
type Shader interface {
	AddView(c *ViewCore)
	RemoveView(c *ViewCore)
	// UseDefault reports whether the shader currently has no effect, so the
	// render layer may fall back to the default program.
	UseDefault() bool
}

// ViewRegistry tracks the view cores registered with a shared resource.
// Embed it to implement the registration half of Shader and Filter.
type ViewRegistry struct {
	cores []*ViewCore
}

// AddView registers c. Registering the same core twice is a no-op.
func (r *ViewRegistry) AddView(c *ViewCore) {
	for _, e := range r.cores {
		if e == c {
			return
		}
	}
	r.cores = append(r.cores, c)
}

// RemoveView deregisters c.
func (r *ViewRegistry) RemoveView(c *ViewCore) {
	for i, e := range r.cores {
		if e == c {
			copy(r.cores[i:], r.cores[i+1:])
			r.cores[len(r.cores)-1] = nil
			r.cores = r.cores[:len(r.cores)-1]
			return
		}
	}
}

// ViewCount returns the number of registered cores.
func (r *ViewRegistry) ViewCount() int { return len(r.cores) }

// Views returns the registered cores. MUST NOT be mutated.
func (r *ViewRegistry) Views() []*ViewCore { return r.cores }

// KageShader is a Kage program compiled on first use and released when the
// last registered view goes away.
type KageShader struct {
	ViewRegistry
	Source   []byte
	Uniforms map[string]any

	compiled *ebiten.Shader
}

// NewKageShader creates a shader from Kage source. Compilation is deferred
// until Compile is called.
func NewKageShader(src []byte) *KageShader {
	return &KageShader{Source: src, Uniforms: make(map[string]any)}
}

// UseDefault reports whether the shader has no source.
func (s *KageShader) UseDefault() bool { return len(s.Source) == 0 }

// Compile returns the compiled program, compiling it if necessary.
func (s *KageShader) Compile() (*ebiten.Shader, error) {
	if s.compiled != nil {
		return s.compiled, nil
	}
	if s.UseDefault() {
		return nil, nil
	}
	sh, err := ebiten.NewShader(s.Source)
	if err != nil {
		return nil, fmt.Errorf("viewtree: compile shader: %w", err)
	}
	s.compiled = sh
	return sh, nil
}

// RemoveView deregisters c and deallocates the compiled program once no
// views remain.
func (s *KageShader) RemoveView(c *ViewCore) {
	s.ViewRegistry.RemoveView(c)
	if s.ViewCount() == 0 && s.compiled != nil {
		s.compiled.Deallocate()
		s.compiled = nil
	}
}

// Draw renders src into dst with the program. Images[0] is src.
func (s *KageShader) Draw(src, dst *ebiten.Image) error {
	sh, err := s.Compile()
	if err != nil {
		return err
	}
	if sh == nil {
		dst.DrawImage(src, nil)
		return nil
	}
	var op ebiten.DrawRectShaderOptions
	op.Images[0] = src
	op.Uniforms = s.Uniforms
	b := src.Bounds()
	dst.DrawRectShader(b.Dx(), b.Dy(), sh, &op)
	return nil
}
