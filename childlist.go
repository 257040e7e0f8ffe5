package viewtree

import "sort"

// ChildList owns the ordered children of a view. Every mutation updates the
// child array, the child's parent pointer (with the resulting flag cascade)
// and the mirrored core children together.
type ChildList struct {
	view     *View
	children []*View
}

func newChildList(v *View) *ChildList {
	return &ChildList{view: v}
}

// Get returns the children. The returned slice MUST NOT be mutated.
func (l *ChildList) Get() []*View { return l.children }

// Len returns the number of children.
func (l *ChildList) Len() int { return len(l.children) }

// At returns the child at index.
func (l *ChildList) At(index int) *View { return l.children[index] }

// GetIndex returns the index of c, or -1.
func (l *ChildList) GetIndex(c *View) int {
	for i, e := range l.children {
		if e == c {
			return i
		}
	}
	return -1
}

// GetByRef returns the child with the given ref, or nil.
func (l *ChildList) GetByRef(ref string) *View {
	for _, c := range l.children {
		if c.ref == ref {
			return c
		}
	}
	return nil
}

// Add appends c. A child already in the list moves to the end; it is a
// no-op when c is already the last child.
func (l *ChildList) Add(c *View) {
	if c != nil && c.parent == l.view && l.GetIndex(c) == len(l.children)-1 {
		return
	}
	l.AddAt(c, len(l.children))
}

// AddAt inserts c at index, detaching it from its previous parent first.
// Adding the list's own view is a no-op. AddAt panics with a structural
// *Error when index is out of range, c is the stage root, c is an ancestor
// of the list's view or c belongs to another stage.
func (l *ChildList) AddAt(c *View, index int) {
	if c == nil {
		panic(viewError(l.view, ErrCodeStructural, "cannot add nil child"))
	}
	if c == l.view {
		return
	}
	if l.view.stage.opts.Debug {
		debugCheckDisposed(l.view, "AddAt (parent)")
		debugCheckDisposed(c, "AddAt (child)")
	}
	if c.stage != l.view.stage {
		panic(viewError(l.view, ErrCodeStructural, "child belongs to another stage"))
	}
	if c.IsRoot() {
		panic(viewError(l.view, ErrCodeStructural, "the root view cannot be added as a child"))
	}
	if c.IsAncestorOf(l.view) {
		panic(viewError(l.view, ErrCodeStructural, "adding child would create a cycle"))
	}
	if index < 0 || index > len(l.children) {
		panic(viewError(l.view, ErrCodeStructural, "child index %d out of range [0, %d]", index, len(l.children)))
	}

	if c.parent == l.view {
		l.move(c, index)
		return
	}

	if c.parent != nil {
		old := c.parent.ChildList()
		if i := old.GetIndex(c); i >= 0 {
			old.splice(i)
		}
	}

	l.children = append(l.children, nil)
	copy(l.children[index+1:], l.children[index:])
	l.children[index] = c
	l.view.core.addChildAt(index, c.core)

	c.setParent(l.view)

	if l.view.stage.opts.Debug {
		debugCheckTreeDepth(c)
		debugCheckChildCount(l.view)
	}
}

// move reorders an existing child. index is interpreted as in AddAt and
// refers to the list after c is taken out.
func (l *ChildList) move(c *View, index int) {
	from := l.GetIndex(c)
	to := min(index, len(l.children)-1)
	if from == to {
		return
	}
	if from < to {
		copy(l.children[from:], l.children[from+1:to+1])
	} else {
		copy(l.children[to+1:], l.children[to:from])
	}
	l.children[to] = c
	l.view.core.moveChild(from, to)
}

// splice takes the child at index out of the arrays without touching its
// parent pointer.
func (l *ChildList) splice(index int) *View {
	c := l.children[index]
	copy(l.children[index:], l.children[index+1:])
	l.children[len(l.children)-1] = nil
	l.children = l.children[:len(l.children)-1]
	l.view.core.removeChildAt(index)
	return c
}

// Remove detaches c. It is a no-op when c is not a child of this list.
func (l *ChildList) Remove(c *View) {
	if i := l.GetIndex(c); i >= 0 {
		l.RemoveAt(i)
	}
}

// RemoveAt detaches and returns the child at index. It panics with a
// structural *Error when index is out of range.
func (l *ChildList) RemoveAt(index int) *View {
	if index < 0 || index >= len(l.children) {
		panic(viewError(l.view, ErrCodeStructural, "child index %d out of range [0, %d)", index, len(l.children)))
	}
	c := l.splice(index)
	c.setParent(nil)
	return c
}

// Clear detaches every child.
func (l *ChildList) Clear() {
	if len(l.children) == 0 {
		return
	}
	old := l.children
	l.children = nil
	l.view.core.removeChildren()
	for _, c := range old {
		c.setParent(nil)
	}
}

// Set replaces the children with items, in order. Current children absent
// from items are detached; children present in both keep their flags.
// The list's own view is skipped.
func (l *ChildList) Set(items []*View) {
	keep := make(map[*View]struct{}, len(items))
	placed := make([]*View, 0, len(items))
	for _, c := range items {
		if c == l.view {
			continue
		}
		keep[c] = struct{}{}
		placed = append(placed, c)
	}
	for i := len(l.children) - 1; i >= 0; i-- {
		if _, ok := keep[l.children[i]]; !ok {
			l.RemoveAt(i)
		}
	}
	for i, c := range placed {
		l.AddAt(c, i)
	}
}

// Replace puts c in the position of old. It panics with a structural *Error
// when old is not a child of this list.
func (l *ChildList) Replace(c, old *View) {
	i := l.GetIndex(old)
	if i < 0 {
		panic(viewError(l.view, ErrCodeStructural, "replaced view is not a child"))
	}
	if c == old {
		return
	}
	l.RemoveAt(i)
	l.AddAt(c, min(i, len(l.children)))
}

// A adds children described by o: a *View, a Settings document (creating a
// view of its "type"), or a list of those. It returns the added view for
// single items.
func (l *ChildList) A(o any) (*View, error) {
	switch x := o.(type) {
	case *View:
		l.Add(x)
		return x, nil
	case Settings:
		c, err := l.createItem(x)
		if err != nil {
			return nil, err
		}
		if err := c.Patch(x); err != nil {
			return nil, err
		}
		l.Add(c)
		return c, nil
	case map[string]any:
		return l.A(Settings(x))
	case []Settings:
		for _, e := range x {
			if _, err := l.A(e); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case []any:
		for _, e := range x {
			if _, err := l.A(e); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	return nil, viewError(l.view, ErrCodeType, "cannot add %s as a child", typeName(o))
}

func (l *ChildList) createItem(s Settings) (*View, error) {
	var name string
	if t, ok := s["type"]; ok {
		n, ok := t.(string)
		if !ok {
			return nil, viewError(l.view, ErrCodeType, "type must be a string, got %s", typeName(t))
		}
		name = n
	}
	c, err := l.view.stage.CreateView(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// item converts one list entry of a children setting into a view.
func (l *ChildList) item(o any, mode createMode) (*View, error) {
	switch x := o.(type) {
	case *View:
		return x, nil
	case Settings:
		c, err := l.createItem(x)
		if err != nil {
			return nil, err
		}
		return c, c.patch(x, mode)
	case map[string]any:
		return l.item(Settings(x), mode)
	}
	return nil, viewError(l.view, ErrCodeType, "unexpected child value %s", typeName(o))
}

// patch applies a children setting. A list replaces the children. A
// ref-keyed mapping patches children by ref, creates missing ones and
// detaches the rest. nil clears the list.
func (l *ChildList) patch(val any, mode createMode) error {
	var items []*View
	switch x := val.(type) {
	case nil:
		l.Clear()
		return nil
	case []*View:
		items = x
	case []Settings:
		for _, e := range x {
			c, err := l.item(e, mode)
			if err != nil {
				return err
			}
			items = append(items, c)
		}
	case []any:
		for _, e := range x {
			c, err := l.item(e, mode)
			if err != nil {
				return err
			}
			items = append(items, c)
		}
	case Settings:
		return l.patch(refChildrenFromMap(x), mode)
	case map[string]any:
		return l.patch(refChildrenFromMap(Settings(x)), mode)
	case RefChildren:
		for _, rc := range x {
			c, err := l.refItem(rc, mode)
			if err != nil {
				return err
			}
			if c != nil {
				items = append(items, c)
			}
		}
	default:
		logger.Warn("incorrect value for children", "view", l.view.LocationString(), "type", typeName(val))
		return nil
	}
	l.Set(items)
	return nil
}

func (l *ChildList) refItem(rc RefChild, mode createMode) (*View, error) {
	if !isUcFirst(rc.Ref) {
		return nil, viewError(l.view, ErrCodeNaming, "ref %q must start with an upper case character", rc.Ref)
	}
	if c := l.GetByRef(rc.Ref); c != nil {
		if rc.View != nil {
			if err := rc.View.SetRef(rc.Ref); err != nil {
				return nil, err
			}
			return rc.View, nil
		}
		return c, c.patch(rc.Settings, mode)
	}
	c := rc.View
	if c == nil {
		var err error
		if c, err = l.createItem(rc.Settings); err != nil {
			return nil, err
		}
		if err := c.patch(rc.Settings, mode); err != nil {
			return nil, err
		}
	}
	if err := c.SetRef(rc.Ref); err != nil {
		return nil, err
	}
	return c, nil
}

// refChildrenFromMap orders an unordered ref mapping by ref.
func refChildrenFromMap(m Settings) RefChildren {
	refs := make([]string, 0, len(m))
	for k := range m {
		refs = append(refs, k)
	}
	sort.Strings(refs)
	out := make(RefChildren, 0, len(refs))
	for _, ref := range refs {
		rc := RefChild{Ref: ref}
		switch x := m[ref].(type) {
		case *View:
			rc.View = x
		case Settings:
			rc.Settings = x
		case map[string]any:
			rc.Settings = Settings(x)
		case removeMarker:
			continue
		default:
			logger.Warn("incorrect value for child", "ref", ref, "type", typeName(x))
			continue
		}
		out = append(out, rc)
	}
	return out
}

// --- View shortcuts ---

// Add adds children described by o, see ChildList.A.
func (v *View) Add(o any) (*View, error) { return v.ChildList().A(o) }

// GetByRef returns the direct child with the given ref, or nil.
func (v *View) GetByRef(ref string) *View {
	if v.childList == nil {
		return nil
	}
	return v.childList.GetByRef(ref)
}
