package viewtree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Tree documents.
//
// A tree document is a Settings value stored as JSON or TOML. Objects under
// a "children" key are ref-keyed children and keep their document order.
// Numbers are decoded as float64.

// ParseSettingsJSON decodes a JSON tree document.
func ParseSettingsJSON(data []byte) (Settings, error) {
	var s Settings
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeJSONDocument(data []byte, key string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeJSON(dec, key)
	if err != nil {
		return nil, wrapError(ErrCodeInvalidSettings, err, "decode json")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, newError(ErrCodeInvalidSettings, "decode json: trailing data")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder, key string) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		if key == "children" {
			var rc RefChildren
			for dec.More() {
				ref, val, err := decodeJSONMember(dec)
				if err != nil {
					return nil, err
				}
				if c, ok := refChildFromValue(ref, val); ok {
					rc = append(rc, c)
				}
			}
			_, err := dec.Token()
			return rc, err
		}
		s := Settings{}
		for dec.More() {
			k, val, err := decodeJSONMember(dec)
			if err != nil {
				return nil, err
			}
			s[k] = val
		}
		_, err := dec.Token()
		return s, err
	case '[':
		list := []any{}
		for dec.More() {
			val, err := decodeJSON(dec, "")
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		_, err := dec.Token()
		return list, err
	}
	return nil, fmt.Errorf("unexpected delimiter %v", d)
}

func decodeJSONMember(dec *json.Decoder) (string, any, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", nil, err
	}
	k, ok := tok.(string)
	if !ok {
		return "", nil, fmt.Errorf("unexpected key %v", tok)
	}
	val, err := decodeJSON(dec, k)
	return k, val, err
}

func refChildFromValue(ref string, val any) (RefChild, bool) {
	s, ok := asSettings(val)
	if !ok {
		logger.Warn("incorrect value for child", "ref", ref, "type", typeName(val))
		return RefChild{}, false
	}
	return RefChild{Ref: ref, Settings: s}, true
}

// ParseSettingsTOML decodes a TOML tree document. Ref-keyed children keep
// the order in which their tables first appear.
func ParseSettingsTOML(data []byte) (Settings, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, wrapError(ErrCodeInvalidSettings, err, "decode toml")
	}
	order := make(map[string]int)
	for _, k := range md.Keys() {
		for j := 1; j <= len(k); j++ {
			p := strings.Join(k[:j], "\x00")
			if _, ok := order[p]; !ok {
				order[p] = len(order)
			}
		}
	}
	return convertTOMLTable(raw, nil, order), nil
}

func convertTOMLTable(m map[string]any, path []string, order map[string]int) Settings {
	s := make(Settings, len(m))
	for k, val := range m {
		sub := append(append([]string(nil), path...), k)
		if k == "children" {
			if tbl, ok := val.(map[string]any); ok {
				s[k] = convertTOMLChildren(tbl, sub, order)
				continue
			}
		}
		s[k] = convertTOMLValue(val, sub, order)
	}
	return s
}

func convertTOMLChildren(m map[string]any, path []string, order map[string]int) RefChildren {
	rank := func(ref string) int {
		if i, ok := order[strings.Join(append(path[:len(path):len(path)], ref), "\x00")]; ok {
			return i
		}
		return math.MaxInt
	}
	refs := make([]string, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		ri, rj := rank(refs[i]), rank(refs[j])
		if ri != rj {
			return ri < rj
		}
		return refs[i] < refs[j]
	})
	rc := make(RefChildren, 0, len(refs))
	for _, ref := range refs {
		val := convertTOMLValue(m[ref], append(path[:len(path):len(path)], ref), order)
		if c, ok := refChildFromValue(ref, val); ok {
			rc = append(rc, c)
		}
	}
	return rc
}

func convertTOMLValue(val any, path []string, order map[string]int) any {
	switch x := val.(type) {
	case map[string]any:
		return convertTOMLTable(x, path, order)
	case []map[string]any:
		list := make([]any, len(x))
		for i, e := range x {
			list[i] = convertTOMLTable(e, path, order)
		}
		return list
	case []any:
		list := make([]any, len(x))
		for i, e := range x {
			list[i] = convertTOMLValue(e, path, order)
		}
		return list
	case int64:
		return float64(x)
	}
	return val
}

// LoadSettingsFile reads a tree document, choosing the format by extension
// (.json or .toml).
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("viewtree: read tree: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseSettingsJSON(data)
	case ".toml":
		return ParseSettingsTOML(data)
	}
	return nil, newError(ErrCodeInvalidSettings, "unsupported tree format %q", filepath.Ext(path))
}

// Build creates a detached view from s. The "type" key selects a registered
// type; the rest of s is applied with Patch.
func (s *Stage) Build(settings Settings) (*View, error) {
	var name string
	if t, ok := settings["type"]; ok {
		n, ok := t.(string)
		if !ok {
			return nil, newError(ErrCodeType, "type must be a string, got %s", typeName(t))
		}
		name = n
	}
	v, err := s.CreateView(name)
	if err != nil {
		return nil, err
	}
	if err := v.Patch(settings); err != nil {
		return nil, err
	}
	return v, nil
}
