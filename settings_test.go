package viewtree

import (
	"encoding/json"
	"strings"
	"testing"
)

// --- Patch ---

func TestPatchCreatesRefChildren(t *testing.T) {
	s := newTestStage()
	r := s.Root()
	err := r.Patch(Settings{
		"x": 10,
		"Header": Settings{
			"y":     20,
			"Title": Settings{"alpha": 0.5},
		},
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	title := r.Sel("Header>Title")
	if title == nil {
		t.Fatal("Header>Title not created")
	}
	if title.Alpha() != 0.5 || title.Parent().Y() != 20 || r.X() != 10 {
		t.Errorf("properties not applied: alpha=%v y=%v x=%v", title.Alpha(), title.Parent().Y(), r.X())
	}
	if !title.Attached() {
		t.Error("created child should be attached")
	}

	// A second patch updates in place.
	if err := r.Patch(Settings{"Header": Settings{"Title": Settings{"alpha": 1}}}); err != nil {
		t.Fatal(err)
	}
	if r.Sel("Header>Title") != title || title.Alpha() != 1 {
		t.Error("existing child should be patched, not recreated")
	}
}

func TestPatchCreateModes(t *testing.T) {
	s := newTestStage()
	r := s.Root()

	err := r.Patch(Settings{"__create": false, "Missing": Settings{"x": 1}})
	if !IsCode(err, ErrCodeStructural) {
		t.Errorf("forbid err = %v, want structural", err)
	}
	if r.GetByRef("Missing") != nil {
		t.Error("forbid mode created a child")
	}

	if err := r.Patch(Settings{"__create": nil, "Missing": Settings{"x": 1}}); err != nil {
		t.Errorf("ignore err = %v, want nil", err)
	}
	if r.GetByRef("Missing") != nil {
		t.Error("ignore mode created a child")
	}

	// A child document can override the inherited mode.
	err = r.Patch(Settings{"__create": false, "Local": Settings{"__create": true}})
	if err != nil {
		t.Errorf("override err = %v", err)
	}
	if r.GetByRef("Local") == nil {
		t.Error("override should create the child")
	}

	// Existing children are patched in every mode.
	if err := r.Patch(Settings{"__create": false, "Local": Settings{"x": 3}}); err != nil {
		t.Fatal(err)
	}
	if r.GetByRef("Local").X() != 3 {
		t.Error("existing child not patched in forbid mode")
	}
}

func TestPatchRemoveAndReplace(t *testing.T) {
	s := newTestStage()
	r := s.Root()
	r.Patch(Settings{"A": Settings{}, "B": Settings{}})
	a := r.GetByRef("A")

	if err := r.Patch(Settings{"A": Remove, "Z": Remove}); err != nil {
		t.Fatal(err)
	}
	if r.GetByRef("A") != nil || a.Parent() != nil {
		t.Error("A should be detached")
	}

	b := r.GetByRef("B")
	nb := s.NewView()
	if err := r.Patch(Settings{"B": nb}); err != nil {
		t.Fatal(err)
	}
	if r.GetByRef("B") != nb || nb.Ref() != "B" || b.Parent() != nil {
		t.Error("B should be replaced by the given view")
	}
}

func TestPatchSelector(t *testing.T) {
	s, menu, first, second, _, other := buildMenu(t)
	r := s.Root()

	if err := r.Patch(Settings{"Menu.item": Settings{"alpha": 0.25}}); err != nil {
		t.Fatal(err)
	}
	if first.Alpha() != 0.25 || second.Alpha() != 0.25 {
		t.Error("selector patch missed matches")
	}
	if other.Alpha() != 1 {
		t.Error("selector patch reached outside Menu")
	}

	if err := r.Patch(Settings{"Menu>Second": Remove}); err != nil {
		t.Fatal(err)
	}
	assertViews(t, menu.Children(), first)

	if err := r.Patch(Settings{"Menu>First": 5}); !IsCode(err, ErrCodeType) {
		t.Errorf("err = %v, want type error", err)
	}
}

func TestPatchErrors(t *testing.T) {
	s := newTestStage()
	v := s.NewView()

	if err := v.Patch(Settings{"bogus": 1}); !IsCode(err, ErrCodeInvalidSettings) {
		t.Errorf("unknown key err = %v, want invalid settings", err)
	}
	if err := v.Patch(Settings{"Child": 5}); !IsCode(err, ErrCodeType) {
		t.Errorf("bad ref value err = %v, want type error", err)
	}
	if err := v.Patch(Settings{"ref": "lower"}); !IsCode(err, ErrCodeNaming) {
		t.Errorf("lower case ref err = %v, want naming error", err)
	}
	if err := v.Patch(Settings{"children": Settings{"lower": Settings{}}}); !IsCode(err, ErrCodeNaming) {
		t.Errorf("lower case child ref err = %v, want naming error", err)
	}
}

func TestPatchSkipsWrongTypes(t *testing.T) {
	s := newTestStage()
	v := s.NewView()
	err := v.Patch(Settings{"x": "abc", "y": 5, "visible": "no", "color": "zz"})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if v.X() != 0 || v.Y() != 5 || !v.Visible() || v.Color() != ColorWhite {
		t.Errorf("x=%v y=%v visible=%v color=%v", v.X(), v.Y(), v.Visible(), v.Color())
	}
}

func TestPatchKeyOrder(t *testing.T) {
	keys := patchKeys(Settings{
		"children": nil, "Zed": nil, "texture": nil, "src": nil,
		"x": nil, "Alpha": nil, "a.b": nil, "__create": false,
	})
	want := []string{"x", "src", "texture", "children", "Alpha", "Zed", "a.b"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("patchKeys = %v, want %v", keys, want)
	}
}

func TestPatchChildrenList(t *testing.T) {
	s := newTestStage()
	r := s.Root()
	keep := newChild(t, r, "Keep")
	drop := newChild(t, r, "Drop")

	err := r.Patch(Settings{"children": []any{keep, Settings{"x": 4}}})
	if err != nil {
		t.Fatal(err)
	}
	if r.ChildCount() != 2 || r.ChildList().At(0) != keep || r.ChildList().At(1).X() != 4 {
		t.Errorf("children = %v", labels(r.Children()))
	}
	if drop.Parent() != nil {
		t.Error("unlisted child should be detached")
	}

	if err := r.Patch(Settings{"children": nil}); err != nil {
		t.Fatal(err)
	}
	if r.ChildCount() != 0 {
		t.Error("children nil should clear")
	}
}

func TestPatchRefChildrenOrder(t *testing.T) {
	s := newTestStage()
	r := s.Root()
	r.Patch(Settings{"A": Settings{}, "B": Settings{}})
	a, b := r.GetByRef("A"), r.GetByRef("B")

	err := r.Patch(Settings{"children": RefChildren{
		{Ref: "C", Settings: Settings{"x": 1}},
		{Ref: "B"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	c := r.GetByRef("C")
	assertViews(t, r.Children(), c, b)
	if a.Parent() != nil {
		t.Error("A absent from the mapping should be detached")
	}
}

// --- Serialization ---

func TestGetNonDefaults(t *testing.T) {
	s := newTestStage()
	v := s.NewView()
	if nd := v.GetNonDefaults(); len(nd) != 0 {
		t.Errorf("fresh view non-defaults = %v, want empty", nd)
	}

	v.Patch(Settings{
		"ref":      "Box",
		"x":        10,
		"scaleX":   2,
		"mount":    0.5,
		"alpha":    0.5,
		"visible":  false,
		"zIndex":   3,
		"colorTop": "ffff0000",
	})
	nd := v.GetNonDefaults()
	checks := map[string]any{
		"ref":     "Box",
		"x":       10.0,
		"scaleX":  2.0,
		"mount":   0.5,
		"alpha":   0.5,
		"visible": false,
		"zIndex":  3,
		"colorUl": "ffff0000",
		"colorUr": "ffff0000",
	}
	for k, want := range checks {
		if nd[k] != want {
			t.Errorf("%s = %v (%T), want %v", k, nd[k], nd[k], want)
		}
	}
	for _, k := range []string{"scaleY", "scale", "colorBl", "colorBr", "color", "pivot"} {
		if _, ok := nd[k]; ok {
			t.Errorf("%s should be omitted", k)
		}
	}
}

func TestGetSettingsRoundTrip(t *testing.T) {
	s := newTestStage()
	src := s.NewView()
	err := src.Patch(Settings{
		"tags":         []any{"box", "focus"},
		"x":            12,
		"y":            -4,
		"w":            100,
		"h":            50,
		"scale":        1.5,
		"pivotX":       0,
		"rotation":     0.25,
		"color":        "ff00ff00",
		"clipping":     true,
		"boundsMargin": []any{1, 2, 3, 4},
		"rect":         true,
		"Inner": Settings{
			"alpha":   0.5,
			"visible": false,
			"Leaf":    Settings{"tagRoot": true, "zIndex": 2},
		},
		"Other": Settings{"renderToTexture": true, "renderToTextureLazy": true},
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}

	settings := src.GetSettings()
	if _, ok := settings["children"].(RefChildren); !ok {
		t.Fatalf("children = %T, want RefChildren", settings["children"])
	}

	dst := newTestStage().NewView()
	if err := dst.Patch(settings); err != nil {
		t.Fatalf("Patch(GetSettings()): %v", err)
	}
	if got, want := dst.String(), src.String(); got != want {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestGetSettingsChildrenList(t *testing.T) {
	s := newTestStage()
	v := s.NewView()
	v.ChildList().Add(s.NewView())
	newChild(t, v, "Named")

	list, ok := v.GetSettings()["children"].([]Settings)
	if !ok {
		t.Fatalf("children = %T, want []Settings", v.GetSettings()["children"])
	}
	if len(list) != 2 || list[1]["ref"] != "Named" {
		t.Errorf("children = %v", list)
	}
}

func TestStringIsJSON(t *testing.T) {
	s := newTestStage()
	v := s.NewView()
	v.Patch(Settings{"A": Settings{"x": 1}, "B": Settings{"y": 2}})

	str := v.String()
	if !strings.Contains(str, "\n  ") {
		t.Errorf("String should be indented: %s", str)
	}
	if strings.Index(str, `"A"`) > strings.Index(str, `"B"`) {
		t.Errorf("children out of order: %s", str)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(str), &out); err != nil {
		t.Errorf("String is not valid JSON: %v", err)
	}
}

// --- Build ---

func TestBuildRegisteredType(t *testing.T) {
	s := newTestStage()
	s.RegisterType("button", func(s *Stage) *View {
		v := s.NewView()
		v.Patch(Settings{"w": 200, "h": 40, "Label": Settings{}})
		return v
	})

	v, err := s.Build(Settings{"type": "button", "x": 5})
	if err != nil {
		t.Fatal(err)
	}
	if v.Type() != "button" || v.W() != 200 || v.X() != 5 || v.GetByRef("Label") == nil {
		t.Errorf("built view type=%q w=%v x=%v", v.Type(), v.W(), v.X())
	}
	if v.GetNonDefaults()["type"] != "button" {
		t.Error("type should be serialized")
	}

	if _, err := s.Build(Settings{"type": 3}); !IsCode(err, ErrCodeType) {
		t.Errorf("err = %v, want type error", err)
	}
	if _, err := s.Build(Settings{"type": "nope"}); !IsCode(err, ErrCodeInvalidSettings) {
		t.Errorf("err = %v, want invalid settings", err)
	}

	// Children documents honor the type key too.
	if err := s.Root().Patch(Settings{"Ok": Settings{"type": "button"}}); err != nil {
		t.Fatal(err)
	}
	if s.Root().GetByRef("Ok").Type() != "button" {
		t.Error("ref child type not applied")
	}
}
