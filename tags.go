package viewtree

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tag index.
//
// Every view keeps treeTags: for each tag, the ordered set of views in its
// own subtree (itself included) carrying that tag. A tag is propagated from
// its owner upward through the ancestors, up to and including the first
// tag-root ancestor. A tag-root therefore sees its whole subtree, while
// views above it only see the tag-root's own tags.
//
// Query results are cached per view and per literal query. Every change to
// treeTags[T] at a view clears the cached result for T and for every dotted
// query at that view that mentions T.

func isUcFirst(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

func splitTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		out = append(out, strings.Fields(t)...)
	}
	return out
}

func checkTagName(v *View, tag string) error {
	if isUcFirst(tag) {
		return viewError(v, ErrCodeNaming, "tag %q may not start with an upper case character", tag)
	}
	return nil
}

// Tags returns the local tags, excluding the ref.
func (v *View) Tags() []string {
	if v.ref == "" {
		return v.tags
	}
	out := make([]string, 0, len(v.tags))
	for _, t := range v.tags {
		if t != v.ref {
			out = append(out, t)
		}
	}
	return out
}

// HasTag reports whether tag is a local tag.
func (v *View) HasTag(tag string) bool {
	for _, t := range v.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag adds one or more space-separated tags.
func (v *View) AddTag(tag string) error {
	tags := strings.Fields(tag)
	for _, t := range tags {
		if err := checkTagName(v, t); err != nil {
			return err
		}
	}
	for _, t := range tags {
		v.addTag(t)
	}
	return nil
}

// RemoveTag removes one or more space-separated tags.
func (v *View) RemoveTag(tag string) {
	for _, t := range strings.Fields(tag) {
		if t != v.ref {
			v.removeTag(t)
		}
	}
}

// SetTags replaces the local tags. Entries may contain several
// space-separated tags. The ref stays indexed.
func (v *View) SetTags(tags []string) error {
	want := splitTags(tags)
	for _, t := range want {
		if err := checkTagName(v, t); err != nil {
			return err
		}
	}
	if v.ref != "" {
		want = append(want, v.ref)
	}
	var removes []string
	for _, t := range v.tags {
		if !containsString(want, t) {
			removes = append(removes, t)
		}
	}
	for _, t := range removes {
		v.removeTag(t)
	}
	for _, t := range want {
		v.addTag(t)
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func (v *View) addTag(tag string) {
	if v.HasTag(tag) {
		return
	}
	v.tags = append(v.tags, tag)
	for p := v; p != nil; p = p.parent {
		p.treeTagSet(tag).add(v)
		p.clearTagsCache(tag)
		if p != v && p.tagRoot {
			break
		}
	}
}

func (v *View) removeTag(tag string) {
	i := -1
	for j, t := range v.tags {
		if t == tag {
			i = j
			break
		}
	}
	if i < 0 {
		return
	}
	v.tags = append(v.tags[:i], v.tags[i+1:]...)
	for p := v; p != nil; p = p.parent {
		p.treeTagRemove(tag, v)
		if p != v && p.tagRoot {
			break
		}
	}
}

func (v *View) treeTagSet(tag string) *viewSet {
	if v.treeTags == nil {
		v.treeTags = make(map[string]*viewSet)
	}
	s, ok := v.treeTags[tag]
	if !ok {
		s = newViewSet()
		v.treeTags[tag] = s
	}
	return s
}

func (v *View) treeTagRemove(tag string, members ...*View) {
	s, ok := v.treeTags[tag]
	if !ok {
		return
	}
	for _, m := range members {
		s.remove(m)
	}
	if s.len() == 0 {
		delete(v.treeTags, tag)
	}
	v.clearTagsCache(tag)
}

// TagRoot reports whether v bounds tag propagation.
func (v *View) TagRoot() bool { return v.tagRoot }

// SetTagRoot makes v a tag-root: tags in its subtree are no longer found by
// queries issued above it, except for v's own tags.
func (v *View) SetTagRoot(b bool) {
	if v.tagRoot == b {
		return
	}
	if v.parent != nil {
		v.unsetTagsParent()
	}
	v.tagRoot = b
	if v.parent != nil {
		v.setTagsParent()
	}
}

// setTagsParent propagates v's visible tags to its new ancestors. Called
// after the parent pointer is set.
func (v *View) setTagsParent() {
	if len(v.treeTags) == 0 {
		return
	}
	if v.tagRoot {
		for _, tag := range v.tags {
			for p := v.parent; p != nil; p = p.parent {
				p.treeTagSet(tag).add(v)
				p.clearTagsCache(tag)
				if p.tagRoot {
					break
				}
			}
		}
		return
	}
	for _, tag := range v.treeTagKeys() {
		members := v.treeTags[tag].items
		for p := v.parent; p != nil; p = p.parent {
			s := p.treeTagSet(tag)
			for _, m := range members {
				s.add(m)
			}
			p.clearTagsCache(tag)
			if p.tagRoot {
				break
			}
		}
	}
}

// unsetTagsParent removes v's visible tags from its current ancestors.
// Called before the parent pointer changes.
func (v *View) unsetTagsParent() {
	if len(v.treeTags) == 0 {
		return
	}
	if v.tagRoot {
		for _, tag := range v.tags {
			for p := v.parent; p != nil; p = p.parent {
				p.treeTagRemove(tag, v)
				if p.tagRoot {
					break
				}
			}
		}
		return
	}
	for _, tag := range v.treeTagKeys() {
		members := v.treeTags[tag].items
		for p := v.parent; p != nil; p = p.parent {
			p.treeTagRemove(tag, members...)
			if p.tagRoot {
				break
			}
		}
	}
}

// treeTagKeys returns the indexed tags in a stable order.
func (v *View) treeTagKeys() []string {
	keys := make([]string, 0, len(v.treeTags))
	for k := range v.treeTags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *View) clearTagsCache(tag string) {
	if v.tagsCache == nil {
		return
	}
	delete(v.tagsCache, tag)
	if complexes, ok := v.tagToComplex[tag]; ok {
		for _, q := range complexes {
			delete(v.tagsCache, q)
		}
		delete(v.tagToComplex, tag)
	}
}

func (v *View) getByTag(tag string) []*View {
	s, ok := v.treeTags[tag]
	if !ok {
		return nil
	}
	return s.items
}

// MTag returns every view in v's tag scope (v included) carrying tag. A
// dotted query "a.b" returns the views tagged b in the scopes of the views
// tagged a, without duplicates. The result MUST NOT be mutated.
func (v *View) MTag(query string) []*View {
	if res, ok := v.tagsCache[query]; ok {
		return res
	}

	var res []*View
	cacheable := true
	if !strings.Contains(query, ".") {
		res = v.getByTag(query)
		if len(res) > 0 {
			res = append([]*View(nil), res...)
		}
	} else {
		parts := strings.Split(query, ".")
		res = v.getByTag(parts[0])
		for level := 1; level < len(parts) && len(res) > 0; level++ {
			seen := make(map[*View]struct{})
			var next []*View
			for _, m := range res {
				// A tag-root member does not report changes in its scope
				// past itself, so the result cannot be invalidated here.
				if m != v && m.tagRoot {
					cacheable = false
				}
				for _, c := range m.getByTag(parts[level]) {
					if _, dup := seen[c]; !dup {
						seen[c] = struct{}{}
						next = append(next, c)
					}
				}
			}
			res = next
		}
		if cacheable {
			if v.tagToComplex == nil {
				v.tagToComplex = make(map[string][]string)
			}
			for _, p := range uniqueStrings(parts) {
				if !containsString(v.tagToComplex[p], query) {
					v.tagToComplex[p] = append(v.tagToComplex[p], query)
				}
			}
		}
	}

	if cacheable {
		if v.tagsCache == nil {
			v.tagsCache = make(map[string][]*View)
		}
		v.tagsCache[query] = res
	}
	return res
}

func uniqueStrings(s []string) []string {
	var out []string
	for _, e := range s {
		if !containsString(out, e) {
			out = append(out, e)
		}
	}
	return out
}

// Tag returns the first view matched by MTag, or nil.
func (v *View) Tag(query string) *View {
	res := v.MTag(query)
	if len(res) == 0 {
		return nil
	}
	return res[0]
}

// STag patches every view matched by MTag.
func (v *View) STag(query string, s Settings) error {
	for _, m := range v.MTag(query) {
		if err := m.Patch(s); err != nil {
			return err
		}
	}
	return nil
}
