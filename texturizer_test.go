package viewtree

import "testing"

func newTexturizedView(t *testing.T, s *Stage) (*View, *View) {
	t.Helper()
	err := s.Root().Patch(Settings{
		"Capture": Settings{
			"w": 100, "h": 60, "renderToTexture": true,
			"Dot": Settings{"rect": true, "x": 10, "y": 10, "w": 10, "h": 10},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	v := s.Root().GetByRef("Capture")
	return v, v.GetByRef("Dot")
}

func TestTexturizerCapture(t *testing.T) {
	s := newTestStage()
	v, _ := newTexturizedView(t, s)
	tz := v.Texturizer()
	if !v.Core().RenderToTextureEnabled() || !v.Core().ZContext() {
		t.Fatal("render to texture should be enabled and open a z-context")
	}
	s.Update(0)

	cmds := flatten(s.drawCommands())
	if len(cmds) != 1 {
		t.Fatalf("commands = %d, want the result quad only", len(cmds))
	}
	if !tz.HasRenderTexture() || cmds[0].image != tz.RenderTexture() {
		t.Error("result quad should draw the render texture")
	}
	if b := tz.RenderTexture().Bounds(); b.Dx() != 128 || b.Dy() != 64 {
		t.Errorf("render texture = %v, want 128x64", b)
	}
	if tz.Empty {
		t.Error("capture drew the child, Empty should be false")
	}
	if tz.ResultTexture() != tz.RenderTexture() {
		t.Error("without filters the result is the render texture")
	}
	if s.RenderTexturesInUse() != 1 {
		t.Errorf("in use = %d, want 1", s.RenderTexturesInUse())
	}
}

func TestTexturizerReleasedWhenInactive(t *testing.T) {
	s := newTestStage()
	v, _ := newTexturizedView(t, s)
	s.Update(0)
	s.drawCommands()

	v.SetX(5000)
	s.Update(0)
	if v.Texturizer().HasRenderTexture() {
		t.Error("inactive view should release its render texture")
	}
	if s.RenderTexturesInUse() != 0 {
		t.Errorf("in use = %d, want 0", s.RenderTexturesInUse())
	}

	v.SetX(0)
	s.Update(0)
	s.drawCommands()
	v.SetRenderToTexture(false)
	if v.Texturizer().HasRenderTexture() || s.RenderTexturesInUse() != 0 {
		t.Error("disabling render to texture should release the texture")
	}
}

func TestTexturizerLazy(t *testing.T) {
	s := newTestStage()
	v, dot := newTexturizedView(t, s)
	tz := v.Texturizer()
	tz.SetLazy(true)

	s.Update(0)
	if !tz.MustRenderToTexture() {
		t.Fatal("first frame must capture")
	}
	s.drawCommands()

	s.Update(0)
	if tz.MustRenderToTexture() {
		t.Error("unchanged lazy capture should be skipped")
	}

	dot.SetX(20)
	s.Update(0)
	if !tz.MustRenderToTexture() {
		t.Error("changed content must be captured again")
	}

	tz.SetLazy(false)
	if !tz.MustRenderToTexture() {
		t.Error("non-lazy captures every frame")
	}
}

func TestTexturizerFilters(t *testing.T) {
	s := newTestStage()
	v := newChild(t, s.Root(), "V")
	v.Patch(Settings{"w": 10, "h": 10})

	blur := NewBlurFilter(0)
	v.SetFilters([]Filter{blur, nil})
	tz := v.Texturizer()
	if len(tz.Filters()) != 1 {
		t.Errorf("Filters = %d, want nil dropped", len(tz.Filters()))
	}
	if tz.HasActiveFilters() || v.Core().RenderToTextureEnabled() {
		t.Error("a zero-radius blur has no effect")
	}
	if blur.ViewCount() != 1 {
		t.Errorf("filter views = %d, want 1", blur.ViewCount())
	}

	blur.Radius = 2
	v.SetFilters([]Filter{blur})
	if !v.Core().RenderToTextureEnabled() || !tz.MustRenderToTexture() {
		t.Error("an active filter should force render to texture")
	}
	if got := tz.ActiveFilters(); len(got) != 1 || got[0] != blur {
		t.Errorf("ActiveFilters = %v", got)
	}

	v.SetVisible(false)
	if blur.ViewCount() != 0 {
		t.Errorf("disabled view still registered with filter: %d", blur.ViewCount())
	}
}

func TestResultTextureSharedWithOtherView(t *testing.T) {
	s := newTestStage()
	v, _ := newTexturizedView(t, s)
	v.Texturizer().SetHideResult(true)
	mirror := newChild(t, s.Root(), "Mirror")
	mirror.SetTexture(v.ResultTexture())

	s.Update(0)
	s.drawCommands()
	img := v.Texturizer().RenderTexture()
	if mirror.Texture().Source().Image() != img {
		t.Error("result source should publish the render texture")
	}
	s.Update(0)
	if mirror.DisplayedTexture() == nil {
		t.Error("mirror should display the result once loaded")
	}
	cmds := flatten(s.drawCommands())
	if len(cmds) != 1 || cmds[0].image != img {
		t.Errorf("commands = %d, want only the mirror quad", len(cmds))
	}
}
