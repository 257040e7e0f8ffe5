package viewtree

import (
	"os"
	"path/filepath"
	"testing"
)

const menuJSON = `{
  "x": 10,
  "tags": ["screen"],
  "children": {
    "Zeta": {"y": 1},
    "Alpha": {
      "rect": true,
      "children": {"B": {}, "A": {"alpha": 0.5}}
    }
  }
}`

func TestParseSettingsJSONKeepsChildOrder(t *testing.T) {
	s, err := ParseSettingsJSON([]byte(menuJSON))
	if err != nil {
		t.Fatal(err)
	}
	if s["x"] != 10.0 {
		t.Errorf("x = %v (%T), want float64 10", s["x"], s["x"])
	}
	rc, ok := s["children"].(RefChildren)
	if !ok {
		t.Fatalf("children = %T, want RefChildren", s["children"])
	}
	if len(rc) != 2 || rc[0].Ref != "Zeta" || rc[1].Ref != "Alpha" {
		t.Fatalf("children = %+v, want [Zeta Alpha]", rc)
	}
	inner, ok := rc[1].Settings["children"].(RefChildren)
	if !ok || len(inner) != 2 || inner[0].Ref != "B" {
		t.Errorf("nested children = %+v", rc[1].Settings["children"])
	}
	if _, ok := s["tags"].([]any); !ok {
		t.Errorf("tags = %T, want []any", s["tags"])
	}
}

func TestParseSettingsJSONErrors(t *testing.T) {
	tests := []string{
		`[1, 2]`,
		`{"x": 1} {"y": 2}`,
		`{"x": `,
	}
	for _, in := range tests {
		if _, err := ParseSettingsJSON([]byte(in)); !IsCode(err, ErrCodeInvalidSettings) {
			t.Errorf("ParseSettingsJSON(%q) err = %v, want invalid settings", in, err)
		}
	}
}

func TestPatchFromJSON(t *testing.T) {
	st := newTestStage()
	s, err := ParseSettingsJSON([]byte(menuJSON))
	if err != nil {
		t.Fatal(err)
	}
	r := st.Root()
	if err := r.Patch(s); err != nil {
		t.Fatal(err)
	}
	if got := labels(r.Children()); len(got) != 2 || got[0] != "Zeta" || got[1] != "Alpha" {
		t.Errorf("children = %v, want [Zeta Alpha]", got)
	}
	if a := r.Sel("Alpha>A"); a == nil || a.Alpha() != 0.5 {
		t.Error("Alpha>A not patched")
	}
	if !r.GetByRef("Alpha").Rect() {
		t.Error("rect not applied")
	}
}

func TestSettingsJSONRoundTrip(t *testing.T) {
	st := newTestStage()
	s, err := ParseSettingsJSON([]byte(menuJSON))
	if err != nil {
		t.Fatal(err)
	}
	v := st.NewView()
	if err := v.Patch(s); err != nil {
		t.Fatal(err)
	}

	again, err := ParseSettingsJSON([]byte(v.String()))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	w := newTestStage().NewView()
	if err := w.Patch(again); err != nil {
		t.Fatal(err)
	}
	if v.String() != w.String() {
		t.Errorf("mismatch:\n%s\n%s", v.String(), w.String())
	}
}

const menuTOML = `
x = 10
tags = ["screen"]

[children.Zeta]
y = 1

[children.Alpha]
rect = true

[children.Alpha.children.B]

[children.Alpha.children.A]
alpha = 0.5
`

func TestParseSettingsTOMLKeepsChildOrder(t *testing.T) {
	s, err := ParseSettingsTOML([]byte(menuTOML))
	if err != nil {
		t.Fatal(err)
	}
	if s["x"] != 10.0 {
		t.Errorf("x = %v (%T), want float64 10", s["x"], s["x"])
	}
	rc, ok := s["children"].(RefChildren)
	if !ok {
		t.Fatalf("children = %T, want RefChildren", s["children"])
	}
	if len(rc) != 2 || rc[0].Ref != "Zeta" || rc[1].Ref != "Alpha" {
		t.Fatalf("children = %+v, want [Zeta Alpha]", rc)
	}
	inner, ok := rc[1].Settings["children"].(RefChildren)
	if !ok || len(inner) != 2 || inner[0].Ref != "B" || inner[1].Ref != "A" {
		t.Errorf("nested children = %+v", rc[1].Settings["children"])
	}
	if inner[1].Settings["alpha"] != 0.5 {
		t.Errorf("alpha = %v", inner[1].Settings["alpha"])
	}
}

func TestParseSettingsTOMLError(t *testing.T) {
	if _, err := ParseSettingsTOML([]byte("x = = 1")); !IsCode(err, ErrCodeInvalidSettings) {
		t.Errorf("err = %v, want invalid settings", err)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	for _, p := range []string{write("tree.json", menuJSON), write("tree.toml", menuTOML)} {
		s, err := LoadSettingsFile(p)
		if err != nil {
			t.Errorf("%s: %v", p, err)
			continue
		}
		if rc, _ := s["children"].(RefChildren); len(rc) != 2 {
			t.Errorf("%s: children = %v", p, s["children"])
		}
	}

	if _, err := LoadSettingsFile(write("tree.yaml", "x: 1")); !IsCode(err, ErrCodeInvalidSettings) {
		t.Errorf("yaml err = %v, want invalid settings", err)
	}
	if _, err := LoadSettingsFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}
