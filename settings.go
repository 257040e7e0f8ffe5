package viewtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Settings is a tree description: property names mapped to values, ref
// names mapped to child settings, and selector paths mapped to patches.
type Settings map[string]any

type removeMarker struct{}

// Remove, used as a value under a ref or selector key in Patch, detaches the
// matched views.
var Remove = removeMarker{}

// RefChild is one entry of a ref-keyed children mapping. View, when set,
// takes the place of Settings.
type RefChild struct {
	Ref      string
	Settings Settings
	View     *View
}

// RefChildren is a ref-keyed children mapping that keeps its order.
type RefChildren []RefChild

// MarshalJSON encodes the mapping as a JSON object in order.
func (rc RefChildren) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range rc {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Ref)
		if err != nil {
			return nil, err
		}
		s := c.Settings
		if c.View != nil {
			s = c.View.GetSettings()
		}
		val, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (rc *RefChildren) UnmarshalJSON(data []byte) error {
	v, err := decodeJSONDocument(data, "children")
	if err != nil {
		return err
	}
	out, ok := v.(RefChildren)
	if !ok {
		return newError(ErrCodeInvalidSettings, "children: expected object, got %s", typeName(v))
	}
	*rc = out
	return nil
}

// UnmarshalJSON decodes a JSON tree description. Ref-keyed children keep
// their order.
func (s *Settings) UnmarshalJSON(data []byte) error {
	v, err := decodeJSONDocument(data, "")
	if err != nil {
		return err
	}
	out, ok := v.(Settings)
	if !ok {
		return newError(ErrCodeInvalidSettings, "expected object, got %s", typeName(v))
	}
	*s = out
	return nil
}

// --- Serialization ---

// GetSettings returns the non-default properties of v and its subtree.
// Children are a ref-keyed RefChildren when every child has a ref, else a
// []Settings list.
func (v *View) GetSettings() Settings {
	s := v.GetNonDefaults()
	children := v.Children()
	if len(children) == 0 {
		return s
	}
	list := make([]Settings, len(children))
	allRefs := true
	for i, c := range children {
		list[i] = c.GetSettings()
		if c.ref == "" {
			allRefs = false
		}
	}
	if allRefs {
		rc := make(RefChildren, len(children))
		for i, c := range children {
			rc[i] = RefChild{Ref: c.ref, Settings: list[i]}
		}
		s["children"] = rc
	} else {
		s["children"] = list
	}
	return s
}

// GetNonDefaults returns the properties of v that differ from the defaults,
// without children.
func (v *View) GetNonDefaults() Settings {
	s := Settings{}
	c := v.core

	if v.typeName != "" {
		s["type"] = v.typeName
	}
	if v.ref != "" {
		s["ref"] = v.ref
	}
	if tags := v.Tags(); len(tags) > 0 {
		s["tags"] = append([]string(nil), tags...)
	}
	if v.tagRoot {
		s["tagRoot"] = true
	}

	if v.x != 0 {
		s["x"] = v.x
	}
	if v.y != 0 {
		s["y"] = v.y
	}
	if v.w != 0 {
		s["w"] = v.w
	}
	if v.h != 0 {
		s["h"] = v.h
	}

	pairDefaults(s, "scale", v.scaleX, v.scaleY, 1)
	pairDefaults(s, "pivot", v.pivotX, v.pivotY, 0.5)
	pairDefaults(s, "mount", v.mountX, v.mountY, 0)

	if v.alpha != 1 {
		s["alpha"] = v.alpha
	}
	if v.rotation != 0 {
		s["rotation"] = v.rotation
	}

	if c.colorUl == c.colorUr && c.colorBl == c.colorBr && c.colorUl == c.colorBl {
		if c.colorUl != ColorWhite {
			s["color"] = c.colorUl.Hex()
		}
	} else {
		for key, col := range map[string]Color{
			"colorUl": c.colorUl, "colorUr": c.colorUr,
			"colorBl": c.colorBl, "colorBr": c.colorBr,
		} {
			if col != ColorWhite {
				s[key] = col.Hex()
			}
		}
	}

	if !v.visible {
		s["visible"] = false
	}
	if c.zIndex != 0 {
		s["zIndex"] = c.zIndex
	}
	if c.forceZIndexContext {
		s["forceZIndexContext"] = true
	}
	if c.clipping {
		s["clipping"] = true
	}
	if c.clipbox {
		s["clipbox"] = true
	}
	if c.boundsMargin != nil {
		s["boundsMargin"] = []float64{c.boundsMargin[0], c.boundsMargin[1], c.boundsMargin[2], c.boundsMargin[3]}
	}

	switch {
	case v.Rect():
		s["rect"] = true
	case v.Src() != "":
		s["src"] = v.Src()
	case v.HasText():
		s["text"] = v.text.settings.NonDefaults()
	}
	if v.texture != nil {
		if tnd := v.texture.NonDefaults(); len(tnd) > 0 {
			s["texture"] = tnd
		}
	}

	if t := c.texturizer; t != nil {
		if t.enabled {
			s["renderToTexture"] = true
		}
		if t.lazy {
			s["renderToTextureLazy"] = true
		}
		if t.colorize {
			s["colorizeResultTexture"] = true
		}
		if t.hideResult {
			s["hideResultTexture"] = true
		}
	}
	return s
}

func pairDefaults(s Settings, key string, x, y, def float64) {
	if x == y {
		if x != def {
			s[key] = x
		}
		return
	}
	if x != def {
		s[key+"X"] = x
	}
	if y != def {
		s[key+"Y"] = y
	}
}

// settingsString renders settings as indented JSON.
func settingsString(s Settings) string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Sprint(map[string]any(s))
	}
	return string(b)
}

// --- Patch ---

type createMode uint8

const (
	createAllow  createMode = iota // missing refs are created
	createForbid                   // missing refs are a structural error
	createIgnore                   // missing refs are skipped
)

func toCreateMode(v any) createMode {
	switch v {
	case nil:
		return createIgnore
	case false:
		return createForbid
	}
	return createAllow
}

// SetSettings applies a settings document to v. It is Patch with missing
// refs created.
func (v *View) SetSettings(s Settings) error {
	return v.patch(s, createAllow)
}

// Patch applies s to v. Property keys set properties. Ref keys patch the
// child with that ref, create it when missing, or detach it when the value
// is Remove. Selector keys ("a.b", "A>b") patch or detach every match.
//
// A "__create" key set to false turns missing refs into structural errors;
// set to nil it skips them. Wrong value types are logged and skipped.
// Unknown property keys, structural and naming errors abort the patch.
func (v *View) Patch(s Settings) error {
	return v.patch(s, createAllow)
}

func (v *View) patch(s Settings, mode createMode) error {
	if c, ok := s["__create"]; ok {
		mode = toCreateMode(c)
	}
	for _, key := range patchKeys(s) {
		val := s[key]
		var err error
		switch {
		case strings.ContainsAny(key, ".>"):
			err = v.patchSelector(key, val, mode)
		case isUcFirst(key):
			err = v.patchRef(key, val, mode)
		case key == "children":
			err = v.ChildList().patch(val, mode)
		default:
			err = v.setSetting(key, val)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *View) patchRef(ref string, val any, mode createMode) error {
	child := v.GetByRef(ref)
	if child == nil {
		if val == Remove {
			return nil
		}
		sub := mode
		if m, ok := asSettings(val); ok {
			if c, ok := m["__create"]; ok {
				sub = toCreateMode(c)
			}
		}
		switch sub {
		case createIgnore:
			return nil
		case createForbid:
			return viewError(v, ErrCodeStructural, "can't find path %q", ref)
		}
		var c *View
		if m, ok := asSettings(val); ok {
			var err error
			if c, err = v.ChildList().createItem(m); err != nil {
				return err
			}
			if err := c.SetRef(ref); err != nil {
				return err
			}
			if err := c.patch(m, sub); err != nil {
				return err
			}
		} else if cv, ok := val.(*View); ok {
			c = cv
			if err := c.SetRef(ref); err != nil {
				return err
			}
		} else {
			return viewError(v, ErrCodeType, "unexpected value for path %q: %s", ref, typeName(val))
		}
		v.ChildList().Add(c)
		return nil
	}

	if val == Remove {
		v.ChildList().Remove(child)
		return nil
	}
	if m, ok := asSettings(val); ok {
		return child.patch(m, mode)
	}
	if cv, ok := val.(*View); ok {
		if err := cv.SetRef(ref); err != nil {
			return err
		}
		v.ChildList().Replace(cv, child)
		return nil
	}
	return viewError(v, ErrCodeType, "unexpected value for path %q: %s", ref, typeName(val))
}

func (v *View) patchSelector(path string, val any, mode createMode) error {
	views := v.Select(path)
	if val == Remove {
		for _, m := range views {
			if m.parent != nil {
				m.parent.ChildList().Remove(m)
			}
		}
		return nil
	}
	m, ok := asSettings(val)
	if !ok {
		return viewError(v, ErrCodeType, "unexpected value for path %q: %s", path, typeName(val))
	}
	for _, sel := range views {
		if err := sel.patch(m, mode); err != nil {
			return err
		}
	}
	return nil
}

func asSettings(v any) (Settings, bool) {
	switch m := v.(type) {
	case Settings:
		return m, true
	case map[string]any:
		return Settings(m), true
	}
	return nil, false
}

// settingKeyOrder fixes the order in which properties are applied, so that
// textures exist before they are clipped and children come last.
var settingKeyOrder = []string{
	"type", "ref", "tags", "tagRoot",
	"x", "y", "w", "h",
	"scale", "scaleX", "scaleY", "pivot", "pivotX", "pivotY",
	"mount", "mountX", "mountY", "alpha", "rotation", "visible",
	"color", "colorTop", "colorBottom", "colorLeft", "colorRight",
	"colorUl", "colorUr", "colorBl", "colorBr",
	"zIndex", "forceZIndexContext", "clipping", "clipbox", "boundsMargin",
	"rect", "src", "text", "texture", "shader", "filters",
	"renderToTexture", "renderToTextureLazy", "colorizeResultTexture", "hideResultTexture",
	"transitions", "smooth", "children",
}

var settingKeyRank = func() map[string]int {
	m := make(map[string]int, len(settingKeyOrder))
	for i, k := range settingKeyOrder {
		m[k] = i
	}
	return m
}()

// patchKeys returns the keys of s in application order: known properties
// first, then the remaining keys sorted.
func patchKeys(s Settings) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		if k != "__create" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := settingKeyRank[keys[i]]
		rj, jok := settingKeyRank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return keys[i] < keys[j]
	})
	return keys
}

// --- Property setters ---

type settingSetter func(v *View, key string, val any) error

func (v *View) warnValue(key string, val any) error {
	logger.Warn("incorrect value for "+key, "view", v.LocationString(), "type", typeName(val))
	return nil
}

func floatSetting(set func(*View, float64)) settingSetter {
	return func(v *View, key string, val any) error {
		f, ok := toFloat(val)
		if !ok {
			return v.warnValue(key, val)
		}
		set(v, f)
		return nil
	}
}

func boolSetting(set func(*View, bool)) settingSetter {
	return func(v *View, key string, val any) error {
		b, ok := toBool(val)
		if !ok {
			return v.warnValue(key, val)
		}
		set(v, b)
		return nil
	}
}

func colorSetting(set func(*View, Color)) settingSetter {
	return func(v *View, key string, val any) error {
		c, ok := toColor(val)
		if !ok {
			return v.warnValue(key, val)
		}
		set(v, c)
		return nil
	}
}

var settingSetters map[string]settingSetter

func init() {
	settingSetters = map[string]settingSetter{
		"x":        floatSetting((*View).SetX),
		"y":        floatSetting((*View).SetY),
		"w":        floatSetting((*View).SetW),
		"h":        floatSetting((*View).SetH),
		"scale":    floatSetting((*View).SetScale),
		"scaleX":   floatSetting((*View).SetScaleX),
		"scaleY":   floatSetting((*View).SetScaleY),
		"pivot":    floatSetting((*View).SetPivot),
		"pivotX":   floatSetting((*View).SetPivotX),
		"pivotY":   floatSetting((*View).SetPivotY),
		"mount":    floatSetting((*View).SetMount),
		"mountX":   floatSetting((*View).SetMountX),
		"mountY":   floatSetting((*View).SetMountY),
		"alpha":    floatSetting((*View).SetAlpha),
		"rotation": floatSetting((*View).SetRotation),
		"zIndex":   floatSetting(func(v *View, f float64) { v.SetZIndex(int(f)) }),

		"visible":               boolSetting((*View).SetVisible),
		"forceZIndexContext":    boolSetting((*View).SetForceZIndexContext),
		"clipping":              boolSetting((*View).SetClipping),
		"clipbox":               boolSetting((*View).SetClipbox),
		"tagRoot":               boolSetting((*View).SetTagRoot),
		"rect":                  boolSetting((*View).SetRect),
		"renderToTexture":       boolSetting(func(v *View, b bool) { v.Texturizer().SetEnabled(b) }),
		"renderToTextureLazy":   boolSetting(func(v *View, b bool) { v.Texturizer().SetLazy(b) }),
		"colorizeResultTexture": boolSetting(func(v *View, b bool) { v.Texturizer().SetColorize(b) }),
		"hideResultTexture":     boolSetting(func(v *View, b bool) { v.Texturizer().SetHideResult(b) }),

		"color":       colorSetting((*View).SetColor),
		"colorUl":     colorSetting((*View).SetColorUl),
		"colorUr":     colorSetting((*View).SetColorUr),
		"colorBl":     colorSetting((*View).SetColorBl),
		"colorBr":     colorSetting((*View).SetColorBr),
		"colorTop":    colorSetting((*View).SetColorTop),
		"colorBottom": colorSetting((*View).SetColorBottom),
		"colorLeft":   colorSetting((*View).SetColorLeft),
		"colorRight":  colorSetting((*View).SetColorRight),

		"type":         setTypeSetting,
		"ref":          setRefSetting,
		"tags":         setTagsSetting,
		"boundsMargin": setBoundsMarginSetting,
		"src":          setSrcSetting,
		"text":         setTextSetting,
		"texture":      func(v *View, _ string, val any) error { v.setTextureValue(val); return nil },
		"shader":       func(v *View, _ string, val any) error { v.setShaderValue(val); return nil },
		"filters":      func(v *View, _ string, val any) error { v.setFiltersValue(val); return nil },
		"transitions":  setTransitionsSetting,
		"smooth":       setSmoothSetting,
	}
}

func (v *View) setSetting(key string, val any) error {
	set, ok := settingSetters[key]
	if !ok {
		return viewError(v, ErrCodeInvalidSettings, "unknown setting %q", key)
	}
	return set(v, key, val)
}

func setTypeSetting(v *View, key string, val any) error {
	name, ok := toString(val)
	if !ok {
		return v.warnValue(key, val)
	}
	if name != v.typeName {
		logger.Warn("type cannot change after creation", "view", v.LocationString(), "type", name)
	}
	return nil
}

func setRefSetting(v *View, key string, val any) error {
	if val == nil {
		return v.SetRef("")
	}
	ref, ok := toString(val)
	if !ok {
		return v.warnValue(key, val)
	}
	return v.SetRef(ref)
}

func setTagsSetting(v *View, key string, val any) error {
	if val == nil {
		return v.SetTags(nil)
	}
	tags, ok := toStrings(val)
	if !ok {
		return v.warnValue(key, val)
	}
	return v.SetTags(tags)
}

func setBoundsMarginSetting(v *View, key string, val any) error {
	m, ok := toMargin(val)
	if !ok {
		return v.warnValue(key, val)
	}
	v.SetBoundsMargin(m)
	return nil
}

func setSrcSetting(v *View, key string, val any) error {
	if val == nil {
		v.SetSrc("")
		return nil
	}
	src, ok := toString(val)
	if !ok {
		return v.warnValue(key, val)
	}
	v.SetSrc(src)
	return nil
}

func setTextSetting(v *View, key string, val any) error {
	switch t := val.(type) {
	case string:
		v.SetText(t)
		return nil
	case TextSettings:
		v.Text().SetSettings(t)
		return nil
	}
	m, ok := asSettings(val)
	if !ok {
		return v.warnValue(key, val)
	}
	err := v.Text().Patch(m)
	if IsCode(err, ErrCodeType) {
		logger.Warn("text setting", "view", v.LocationString(), "err", err)
		return nil
	}
	return err
}

func setTransitionsSetting(v *View, key string, val any) error {
	m, ok := asSettings(val)
	if !ok {
		return v.warnValue(key, val)
	}
	for _, path := range sortedKeys(m) {
		ts, ok := toTransitionSettings(v.stage.DefaultTransition, m[path])
		if !ok {
			v.warnValue(key+"."+path, m[path])
			continue
		}
		if err := v.SetTransition(path, ts); err != nil {
			return err
		}
	}
	return nil
}

func setSmoothSetting(v *View, key string, val any) error {
	m, ok := asSettings(val)
	if !ok {
		return v.warnValue(key, val)
	}
	for _, path := range sortedKeys(m) {
		target := m[path]
		if pair, ok := target.([]any); ok && len(pair) == 2 {
			ts, ok := toTransitionSettings(v.stage.DefaultTransition, pair[1])
			if !ok || ts == nil {
				v.warnValue(key+"."+path, pair[1])
				continue
			}
			if err := v.SetTransition(path, ts); err != nil {
				return err
			}
			target = pair[0]
		}
		f, ok := toFloat(target)
		if !ok {
			if c, isColor := toColor(target); isColor {
				f, ok = float64(c), true
			}
		}
		if !ok {
			v.warnValue(key+"."+path, target)
			continue
		}
		if err := v.SetSmooth(path, f); err != nil {
			return err
		}
	}
	return nil
}
