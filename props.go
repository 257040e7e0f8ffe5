package viewtree

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Property is an animatable numeric view property addressed by path, such
// as "x", "colorUl" or "texture.w". Colors are carried as their 32-bit
// value and blended per channel.
type Property struct {
	Path  string
	Color bool
	Get   func(v *View) float64
	Set   func(v *View, val float64)
}

// Merge blends from and to; progress is the weight of to.
func (p *Property) Merge(from, to, progress float64) float64 {
	if p.Color {
		return float64(mergeColors(Color(uint32(to)), Color(uint32(from)), progress))
	}
	return mergeNumbers(to, from, progress)
}

var properties = map[string]*Property{}

func registerProperty(path string, get func(*View) float64, set func(*View, float64)) {
	properties[path] = &Property{Path: path, Get: get, Set: set}
}

func registerColorProperty(path string, get func(*View) Color, set func(*View, Color)) {
	properties[path] = &Property{
		Path:  path,
		Color: true,
		Get:   func(v *View) float64 { return float64(get(v)) },
		Set:   func(v *View, val float64) { set(v, Color(uint32(val))) },
	}
}

func init() {
	registerProperty("x", (*View).X, (*View).SetX)
	registerProperty("y", (*View).Y, (*View).SetY)
	registerProperty("w", (*View).W, (*View).SetW)
	registerProperty("h", (*View).H, (*View).SetH)
	registerProperty("scale", (*View).Scale, (*View).SetScale)
	registerProperty("scaleX", (*View).ScaleX, (*View).SetScaleX)
	registerProperty("scaleY", (*View).ScaleY, (*View).SetScaleY)
	registerProperty("pivot", (*View).PivotX, (*View).SetPivot)
	registerProperty("pivotX", (*View).PivotX, (*View).SetPivotX)
	registerProperty("pivotY", (*View).PivotY, (*View).SetPivotY)
	registerProperty("mount", (*View).MountX, (*View).SetMount)
	registerProperty("mountX", (*View).MountX, (*View).SetMountX)
	registerProperty("mountY", (*View).MountY, (*View).SetMountY)
	registerProperty("alpha", (*View).Alpha, (*View).SetAlpha)
	registerProperty("rotation", (*View).Rotation, (*View).SetRotation)
	registerProperty("zIndex",
		func(v *View) float64 { return float64(v.ZIndex()) },
		func(v *View, f float64) { v.SetZIndex(int(f)) })

	registerColorProperty("color", (*View).Color, (*View).SetColor)
	registerColorProperty("colorUl", (*View).ColorUl, (*View).SetColorUl)
	registerColorProperty("colorUr", (*View).ColorUr, (*View).SetColorUr)
	registerColorProperty("colorBl", (*View).ColorBl, (*View).SetColorBl)
	registerColorProperty("colorBr", (*View).ColorBr, (*View).SetColorBr)
	registerColorProperty("colorTop", (*View).ColorUl, (*View).SetColorTop)
	registerColorProperty("colorBottom", (*View).ColorBl, (*View).SetColorBottom)
	registerColorProperty("colorLeft", (*View).ColorUl, (*View).SetColorLeft)
	registerColorProperty("colorRight", (*View).ColorUr, (*View).SetColorRight)

	clip := func(idx int) (func(*View) float64, func(*View, float64)) {
		get := func(v *View) float64 {
			t := v.texture
			if t == nil {
				return 0
			}
			return [4]float64{t.x, t.y, t.w, t.h}[idx]
		}
		set := func(v *View, f float64) {
			t := v.texture
			if t == nil {
				return
			}
			r := [4]float64{t.x, t.y, t.w, t.h}
			r[idx] = f
			t.SetClipping(r[0], r[1], r[2], r[3])
		}
		return get, set
	}
	for i, name := range []string{"texture.x", "texture.y", "texture.w", "texture.h"} {
		get, set := clip(i)
		registerProperty(name, get, set)
	}
	registerProperty("text.fontSize",
		func(v *View) float64 { return v.Text().settings.FontSize },
		func(v *View, f float64) {
			ts := v.Text().Settings()
			ts.FontSize = f
			v.Text().SetSettings(ts)
		})
}

// LookupProperty returns the registered property for path.
func LookupProperty(path string) (*Property, bool) {
	p, ok := properties[path]
	return p, ok
}

// PropertyPaths returns every registered property path, sorted.
func PropertyPaths() []string {
	paths := make([]string, 0, len(properties))
	for k := range properties {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

// GetProperty returns the value of a registered property.
func (v *View) GetProperty(path string) (float64, error) {
	p, ok := properties[path]
	if !ok {
		return 0, viewError(v, ErrCodeNotFound, "unknown property %q", path)
	}
	return p.Get(v), nil
}

// SetProperty assigns a registered property.
func (v *View) SetProperty(path string, val float64) error {
	p, ok := properties[path]
	if !ok {
		return viewError(v, ErrCodeNotFound, "unknown property %q", path)
	}
	p.Set(v, val)
	return nil
}

// --- Value coercion for settings ---

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toColor accepts a Color, a hex string ("ff00ff00", "0xff00ff00",
// "#ff00ff00") or a number.
func toColor(v any) (Color, bool) {
	switch c := v.(type) {
	case Color:
		return c, true
	case string:
		col, err := ParseColor(c)
		return col, err == nil
	}
	if f, ok := toFloat(v); ok && f >= 0 && f <= 0xFFFFFFFF {
		return Color(uint32(f)), true
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// toStrings accepts a string or a list of strings.
func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case string:
		return []string{s}, true
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// toMargin accepts a list of four numbers or nil.
func toMargin(v any) (*[4]float64, bool) {
	switch m := v.(type) {
	case nil:
		return nil, true
	case [4]float64:
		return &m, true
	case *[4]float64:
		return m, true
	case []float64:
		if len(m) != 4 {
			return nil, false
		}
		return &[4]float64{m[0], m[1], m[2], m[3]}, true
	case []any:
		if len(m) != 4 {
			return nil, false
		}
		var out [4]float64
		for i, e := range m {
			f, ok := toFloat(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return &out, true
	}
	return nil, false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*viewtree.")
}

func sortedKeys(s Settings) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
