package viewtree

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// TextSettings describes a text texture. Identical settings share one
// texture source through TextureID.
type TextSettings struct {
	Text           string
	W, H           float64
	FontSize       float64
	WordWrap       bool
	WordWrapWidth  float64
	LineHeight     float64 // 0 uses the font metrics
	TextAlign      string  // "left", "center", "right"
	MaxLines       int
	MaxLinesSuffix string
	TextColor      Color
	PaddingLeft    float64
	PaddingRight   float64
	Precision      float64 // 0 uses the stage render precision
}

const defaultFontSize = 40

// DefaultTextSettings returns the defaults for a new text sub-object.
func DefaultTextSettings() TextSettings {
	return TextSettings{
		FontSize:       defaultFontSize,
		WordWrap:       true,
		TextAlign:      "left",
		MaxLinesSuffix: "..",
		TextColor:      ColorWhite,
	}
}

// TextureID returns a key that is equal for settings rendering the same
// pixels.
func (ts TextSettings) TextureID() string {
	var parts []string
	add := func(k string, v float64, def float64) {
		if v != def {
			parts = append(parts, k+strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	add("w ", ts.W, 0)
	add("h ", ts.H, 0)
	add("fs", ts.FontSize, defaultFontSize)
	if !ts.WordWrap {
		parts = append(parts, "wr0")
	}
	add("ww", ts.WordWrapWidth, 0)
	add("lh", ts.LineHeight, 0)
	if ts.TextAlign != "left" {
		parts = append(parts, "ta"+ts.TextAlign)
	}
	add("ml", float64(ts.MaxLines), 0)
	if ts.MaxLinesSuffix != ".." {
		parts = append(parts, "ms"+ts.MaxLinesSuffix)
	}
	add("pc", ts.Precision, 0)
	if ts.TextColor != ColorWhite {
		parts = append(parts, "co"+ts.TextColor.Hex())
	}
	add("pl", ts.PaddingLeft, 0)
	add("pr", ts.PaddingRight, 0)
	return "TX$" + strings.Join(parts, "|") + ":" + ts.Text
}

// NonDefaults returns the settings that differ from DefaultTextSettings.
func (ts TextSettings) NonDefaults() Settings {
	d := DefaultTextSettings()
	s := Settings{}
	if ts.Text != "" {
		s["text"] = ts.Text
	}
	if ts.W != 0 {
		s["w"] = ts.W
	}
	if ts.H != 0 {
		s["h"] = ts.H
	}
	if ts.FontSize != d.FontSize {
		s["fontSize"] = ts.FontSize
	}
	if !ts.WordWrap {
		s["wordWrap"] = false
	}
	if ts.WordWrapWidth != 0 {
		s["wordWrapWidth"] = ts.WordWrapWidth
	}
	if ts.LineHeight != 0 {
		s["lineHeight"] = ts.LineHeight
	}
	if ts.TextAlign != d.TextAlign {
		s["textAlign"] = ts.TextAlign
	}
	if ts.MaxLines != 0 {
		s["maxLines"] = ts.MaxLines
	}
	if ts.MaxLinesSuffix != d.MaxLinesSuffix {
		s["maxLinesSuffix"] = ts.MaxLinesSuffix
	}
	if ts.TextColor != d.TextColor {
		s["textColor"] = ts.TextColor.Hex()
	}
	if ts.PaddingLeft != 0 {
		s["paddingLeft"] = ts.PaddingLeft
	}
	if ts.PaddingRight != 0 {
		s["paddingRight"] = ts.PaddingRight
	}
	if ts.Precision != 0 {
		s["precision"] = ts.Precision
	}
	return s
}

// patch applies settings keys onto ts.
func (ts *TextSettings) patch(s Settings) error {
	for _, key := range sortedKeys(s) {
		val := s[key]
		var ok bool
		switch key {
		case "text":
			ts.Text, ok = val.(string)
		case "w":
			ts.W, ok = toFloat(val)
		case "h":
			ts.H, ok = toFloat(val)
		case "fontSize":
			ts.FontSize, ok = toFloat(val)
		case "wordWrap":
			ts.WordWrap, ok = val.(bool)
		case "wordWrapWidth":
			ts.WordWrapWidth, ok = toFloat(val)
		case "lineHeight":
			ts.LineHeight, ok = toFloat(val)
		case "textAlign":
			ts.TextAlign, ok = val.(string)
		case "maxLines":
			var f float64
			f, ok = toFloat(val)
			ts.MaxLines = int(f)
		case "maxLinesSuffix":
			ts.MaxLinesSuffix, ok = val.(string)
		case "textColor":
			ts.TextColor, ok = toColor(val)
		case "paddingLeft":
			ts.PaddingLeft, ok = toFloat(val)
		case "paddingRight":
			ts.PaddingRight, ok = toFloat(val)
		case "precision":
			ts.Precision, ok = toFloat(val)
		default:
			return newError(ErrCodeInvalidSettings, "unknown text setting %q", key)
		}
		if !ok {
			return newError(ErrCodeType, "text %s: unexpected value %v (%T)", key, val, val)
		}
	}
	return nil
}

// ViewText is the text sub-object of a view. Changing it replaces the
// view's texture with a text texture shared by all views with identical
// settings.
type ViewText struct {
	view     *View
	settings TextSettings
	applied  bool
}

func newViewText(v *View) *ViewText {
	return &ViewText{view: v, settings: DefaultTextSettings()}
}

// Settings returns a copy of the current text settings.
func (t *ViewText) Settings() TextSettings { return t.settings }

// Text returns the text content.
func (t *ViewText) Text() string { return t.settings.Text }

// SetText sets the text content.
func (t *ViewText) SetText(s string) {
	if t.settings.Text == s {
		return
	}
	t.settings.Text = s
	t.updateTexture()
}

// SetSettings replaces all text settings.
func (t *ViewText) SetSettings(ts TextSettings) {
	t.settings = ts
	t.updateTexture()
}

// Patch applies settings keys and refreshes the texture.
func (t *ViewText) Patch(s Settings) error {
	if err := t.settings.patch(s); err != nil {
		return err
	}
	t.updateTexture()
	return nil
}

// finalized resolves settings that depend on the view and stage.
func (t *ViewText) finalized() TextSettings {
	ts := t.settings
	v := t.view
	if ts.W == 0 {
		ts.W = v.w
	}
	if ts.H == 0 {
		ts.H = v.h
	}
	if ts.Precision == 0 {
		ts.Precision = v.stage.RenderPrecision()
	}
	if ts.FontSize == defaultFontSize && v.stage.opts.DefaultFontSize != defaultFontSize {
		ts.FontSize = v.stage.opts.DefaultFontSize
	}
	return ts
}

func (t *ViewText) updateTexture() {
	ts := t.finalized()
	src := t.view.stage.textureSource(ts.TextureID(), textLoader(ts))
	tex := NewTexture(src)
	tex.precision = ts.Precision
	t.applied = true
	t.view.SetTexture(tex)
}

// --- Rendering ---

// Parsed on first use. Single-threaded, so no sync.Once.
var defaultFaceSource *text.GoTextFaceSource

func ensureDefaultFaceSource() (*text.GoTextFaceSource, error) {
	if defaultFaceSource == nil {
		src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
		if err != nil {
			return nil, fmt.Errorf("parse default font: %w", err)
		}
		defaultFaceSource = src
	}
	return defaultFaceSource, nil
}

// textLoader renders ts synchronously when the source is first loaded.
func textLoader(ts TextSettings) Loader {
	return LoaderFunc(func(_ *TextureSource, done LoadCallback) {
		img, err := renderText(ts)
		done(img, err)
	})
}

// renderText rasterizes ts at its precision.
func renderText(ts TextSettings) (*ebiten.Image, error) {
	src, err := ensureDefaultFaceSource()
	if err != nil {
		return nil, err
	}
	p := ts.Precision
	if p <= 0 {
		p = 1
	}
	face := &text.GoTextFace{Source: src, Size: ts.FontSize * p}
	m := face.Metrics()
	lh := ts.LineHeight * p
	if lh == 0 {
		lh = m.HAscent + m.HDescent + m.HLineGap
	}

	padL, padR := ts.PaddingLeft*p, ts.PaddingRight*p
	wrapWidth := 0.0
	if ts.WordWrap {
		wrapWidth = ts.WordWrapWidth
		if wrapWidth == 0 {
			wrapWidth = ts.W
		}
		wrapWidth = wrapWidth*p - padL - padR
	}

	lines := wrapText(ts.Text, face, wrapWidth)
	if ts.MaxLines > 0 && len(lines) > ts.MaxLines {
		lines = lines[:ts.MaxLines]
		last := lines[len(lines)-1] + ts.MaxLinesSuffix
		for wrapWidth > 0 && len(last) > len(ts.MaxLinesSuffix) && text.Advance(last, face) > wrapWidth {
			r := []rune(strings.TrimSuffix(last, ts.MaxLinesSuffix))
			last = string(r[:len(r)-1]) + ts.MaxLinesSuffix
		}
		lines[len(lines)-1] = last
	}

	widths := make([]float64, len(lines))
	maxW := 0.0
	for i, l := range lines {
		widths[i] = text.Advance(l, face)
		maxW = max(maxW, widths[i])
	}
	innerW := maxW
	if ts.W > 0 {
		innerW = ts.W*p - padL - padR
	}
	w := innerW + padL + padR
	h := float64(len(lines)) * lh
	if ts.H > 0 {
		h = ts.H * p
	}

	img := ebiten.NewImage(max(int(math.Ceil(w)), 1), max(int(math.Ceil(h)), 1))
	r, g, b, a := ts.TextColor.Floats()
	for i, l := range lines {
		x := padL
		switch ts.TextAlign {
		case "center":
			x += (innerW - widths[i]) / 2
		case "right":
			x += innerW - widths[i]
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(x, float64(i)*lh)
		op.ColorScale.Scale(float32(r*a), float32(g*a), float32(b*a), float32(a))
		text.Draw(img, l, face, op)
	}
	return img, nil
}

// wrapText splits s on newlines and greedily wraps words to width. A width
// of 0 disables wrapping.
func wrapText(s string, face text.Face, width float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		if width <= 0 {
			lines = append(lines, para)
			continue
		}
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			next := cur + " " + w
			if text.Advance(next, face) > width {
				lines = append(lines, cur)
				cur = w
			} else {
				cur = next
			}
		}
		lines = append(lines, cur)
	}
	return lines
}
