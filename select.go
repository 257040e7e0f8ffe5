package viewtree

import "strings"

// Selectors.
//
// A selector is a comma-separated list of alternatives. Each alternative is
// a sequence of segments joined by "." (descendant-or-self, resolved through
// the tag index) or ">" (direct child). A segment starting with an upper
// case character names a ref, any other segment names a tag. A leading ">"
// or "." sets the first combinator; otherwise a leading ref implies ">".
//
//	"item"            views tagged item
//	"Menu>Item"       child Item of child Menu
//	"list.item"       views tagged item under views tagged list
//	"Menu.item>Icon"  child Icon of items under child Menu

// Select returns the views matched by path, in match order. An empty path
// selects v itself.
func (v *View) Select(path string) []*View {
	if !strings.Contains(path, ",") {
		return v.selectOne(path)
	}
	var res []*View
	for _, p := range strings.Split(path, ",") {
		res = append(res, v.selectOne(strings.TrimSpace(p))...)
	}
	return res
}

// Sel returns the first view matched by path, or nil.
func (v *View) Sel(path string) *View {
	res := v.Select(path)
	if len(res) == 0 {
		return nil
	}
	return res[0]
}

func (v *View) selectOne(path string) []*View {
	if path == "" {
		return []*View{v}
	}
	if !strings.ContainsAny(path, ".>") {
		return v.selectSegment(path)
	}
	var isChild bool
	switch path[0] {
	case '>':
		isChild, path = true, path[1:]
	case '.':
		isChild, path = false, path[1:]
	default:
		isChild = isUcFirst(path)
	}
	if isChild {
		return v.selectChilds(path)
	}
	return v.selectDescs(path)
}

// selectSegment resolves a single segment: a ref among the children, or a
// tag query.
func (v *View) selectSegment(seg string) []*View {
	if isUcFirst(seg) {
		if c := v.GetByRef(seg); c != nil {
			return []*View{c}
		}
		return nil
	}
	return v.MTag(seg)
}

func (v *View) selectChilds(path string) []*View {
	dot := strings.IndexByte(path, '.')
	arrow := strings.IndexByte(path, '>')
	if dot < 0 && arrow < 0 {
		return v.selectSegment(path)
	}

	var (
		next  []*View
		sub   string
		descs bool
	)
	if arrow < 0 || (dot >= 0 && dot < arrow) {
		next, sub, descs = v.selectSegment(path[:dot]), path[dot+1:], true
	} else {
		next, sub = v.selectSegment(path[:arrow]), path[arrow+1:]
	}

	var total []*View
	for _, n := range next {
		if descs {
			total = append(total, n.selectDescs(sub)...)
		} else {
			total = append(total, n.selectChilds(sub)...)
		}
	}
	return total
}

func (v *View) selectDescs(path string) []*View {
	arrow := strings.IndexByte(path, '>')
	if arrow < 0 {
		// Dotted tag paths are answered by the tag index directly.
		return v.MTag(path)
	}
	var total []*View
	for _, n := range v.MTag(path[:arrow]) {
		total = append(total, n.selectChilds(path[arrow+1:])...)
	}
	return total
}
