package viewtree

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestFilterUseDefault(t *testing.T) {
	cm := NewColorMatrixFilter()
	if !cm.UseDefault() {
		t.Error("identity color matrix should be a no-op")
	}
	cm.SetSaturation(0)
	if cm.UseDefault() {
		t.Error("grayscale matrix has an effect")
	}
	cm.SetContrast(1)
	if !cm.UseDefault() {
		t.Error("contrast 1 is the identity")
	}

	if !NewBlurFilter(-4).UseDefault() || NewBlurFilter(3).UseDefault() {
		t.Error("blur UseDefault mismatch")
	}
	if !NewOutlineFilter(2, 0x00FF0000).UseDefault() {
		t.Error("transparent outline should be a no-op")
	}
	if NewOutlineFilter(2, 0xFFFF0000).UseDefault() {
		t.Error("opaque outline has an effect")
	}
	if !NewCustomShaderFilter(nil, 0).UseDefault() || !NewCustomShaderFilter(NewKageShader(nil), 0).UseDefault() {
		t.Error("custom filter without source should be a no-op")
	}
}

func TestFlattenFilters(t *testing.T) {
	blur := NewBlurFilter(2)
	outline := NewOutlineFilter(3, 0xFF000000)
	inner := NewFilterChain(outline, nil)
	chain := NewFilterChain(blur, inner)

	got := flattenFilters([]Filter{nil, chain})
	if len(got) != 2 || got[0] != blur || got[1] != outline {
		t.Errorf("flattenFilters = %v", got)
	}
	if p := chain.Padding(); p != 5 {
		t.Errorf("Padding = %d, want 5", p)
	}
	if chain.UseDefault() {
		t.Error("chain with active members has an effect")
	}
	if !NewFilterChain(NewBlurFilter(0)).UseDefault() {
		t.Error("chain of no-ops is a no-op")
	}
}

func TestFilterChainOnView(t *testing.T) {
	s := newTestStage()
	v := newChild(t, s.Root(), "V")
	blur := NewBlurFilter(2)
	idle := NewBlurFilter(0)
	v.SetFilters([]Filter{NewFilterChain(blur, idle)})

	if blur.ViewCount() != 1 || idle.ViewCount() != 1 {
		t.Errorf("member registrations = %d/%d, want 1/1", blur.ViewCount(), idle.ViewCount())
	}
	got := v.Texturizer().ActiveFilters()
	if len(got) != 1 || got[0] != blur {
		t.Errorf("ActiveFilters = %v, want the active member only", got)
	}

	v.SetFilters(nil)
	if blur.ViewCount() != 0 || v.Core().RenderToTextureEnabled() {
		t.Error("clearing filters should deregister and disable render to texture")
	}
}

func TestApplyFiltersPool(t *testing.T) {
	s := newTestStage()
	src := ebiten.NewImage(16, 16)
	src.Fill(ColorWhite)

	if out := applyFilters(s, nil, src); out != src {
		t.Error("empty chain should return src")
	}

	out := applyFilters(s, []Filter{NewBlurFilter(2), NewOutlineFilter(1, 0xFF000000)}, src)
	if out == src {
		t.Fatal("filtered output should be a pooled image")
	}
	if s.RenderTexturesInUse() != 1 {
		t.Errorf("in use = %d, want only the result", s.RenderTexturesInUse())
	}
	s.ReleaseRenderTexture(out)
	if s.RenderTexturesInUse() != 0 {
		t.Errorf("in use = %d, want 0", s.RenderTexturesInUse())
	}
}

func TestFilterChainApply(t *testing.T) {
	src := ebiten.NewImage(8, 8)
	dst := ebiten.NewImage(8, 8)
	c := NewFilterChain(NewBlurFilter(2), NewOutlineFilter(1, 0xFF000000), NewBlurFilter(2))
	c.Apply(src, dst)
	if c.temps[0] == nil || c.temps[1] == nil {
		t.Error("three active members need both scratch images")
	}
}
