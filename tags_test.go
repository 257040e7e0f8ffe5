package viewtree

import (
	"errors"
	"testing"
)

func TestMTagRemoveAt(t *testing.T) {
	s := newTestStage()
	r := s.Root()
	r.Patch(Settings{"w": 900, "h": 900})

	a := s.NewView()
	a.Patch(Settings{"tags": "t1", "w": 450, "h": 300, "x": 300, "y": 300})
	r.ChildList().Add(a)
	b := s.NewView()
	b.Patch(Settings{"tags": "t1", "w": 450, "h": 300, "x": 600, "y": 600})
	r.ChildList().Add(b)

	assertViews(t, r.MTag("t1"), a, b)

	r.ChildList().RemoveAt(0)
	assertViews(t, r.MTag("t1"), b)
	if a.Parent() != nil {
		t.Error("A keeps its parent after RemoveAt")
	}
	// A still sees its own tag.
	assertViews(t, a.MTag("t1"), a)
}

func TestTagNaming(t *testing.T) {
	s := newTestStage()
	v := s.NewView()

	err := v.AddTag("Upper")
	if !errors.Is(err, &Error{Code: ErrCodeNaming}) {
		t.Errorf("AddTag(Upper) err = %v, want naming error", err)
	}
	if err := v.SetRef("lower"); !IsCode(err, ErrCodeNaming) {
		t.Errorf("SetRef(lower) err = %v, want naming error", err)
	}
	if err := v.SetTags([]string{"ok", "Bad"}); !IsCode(err, ErrCodeNaming) {
		t.Errorf("SetTags err = %v, want naming error", err)
	}
	if len(v.Tags()) != 0 {
		t.Errorf("Tags = %v, want none after failed calls", v.Tags())
	}
}

func TestRefIsIndexedButNotListed(t *testing.T) {
	s := newTestStage()
	v := newChild(t, s.Root(), "Menu")
	if err := v.AddTag("menu focus"); err != nil {
		t.Fatal(err)
	}
	tags := v.Tags()
	if len(tags) != 2 || tags[0] != "menu" || tags[1] != "focus" {
		t.Errorf("Tags = %v, want [menu focus]", tags)
	}
	assertViews(t, s.Root().MTag("Menu"), v)

	if err := v.SetRef("Nav"); err != nil {
		t.Fatal(err)
	}
	if len(s.Root().MTag("Menu")) != 0 {
		t.Error("old ref still indexed")
	}
	assertViews(t, s.Root().MTag("Nav"), v)

	v.RemoveTag("Nav")
	assertViews(t, s.Root().MTag("Nav"), v)
}

func TestSetTagsReplaces(t *testing.T) {
	s := newTestStage()
	v := newChild(t, s.Root(), "V")
	v.SetTags([]string{"a b"})
	if err := v.SetTags([]string{"b", "c"}); err != nil {
		t.Fatal(err)
	}
	if v.HasTag("a") || !v.HasTag("b") || !v.HasTag("c") {
		t.Errorf("Tags = %v, want [b c]", v.Tags())
	}
	if len(s.Root().MTag("a")) != 0 {
		t.Error("removed tag still indexed at root")
	}
	assertViews(t, s.Root().MTag("V"), v)
}

// buildTagTree creates root > List(list) > Item(item), root > Other(item).
func buildTagTree(t *testing.T) (s *Stage, list, item, other *View) {
	t.Helper()
	s = newTestStage()
	list = newChild(t, s.Root(), "List")
	list.AddTag("list")
	item = newChild(t, list, "Item")
	item.AddTag("item")
	other = newChild(t, s.Root(), "Other")
	other.AddTag("item")
	return s, list, item, other
}

func TestMTagScopes(t *testing.T) {
	s, list, item, other := buildTagTree(t)
	r := s.Root()

	assertViews(t, r.MTag("item"), item, other)
	assertViews(t, list.MTag("item"), item)
	assertViews(t, r.MTag("list.item"), item)
	assertViews(t, list.MTag("list"), list)
	if r.Tag("item") != item {
		t.Error("Tag should return the first match")
	}
	if r.Tag("nothing") != nil {
		t.Error("Tag(nothing) should be nil")
	}
}

func TestMTagDottedDeduplicates(t *testing.T) {
	s := newTestStage()
	l1 := newChild(t, s.Root(), "L1")
	l1.AddTag("list")
	l2 := newChild(t, l1, "L2")
	l2.AddTag("list")
	i := newChild(t, l2, "I")
	i.AddTag("item")

	assertViews(t, s.Root().MTag("list.item"), i)
}

func TestTagRoot(t *testing.T) {
	s, list, item, other := buildTagTree(t)
	r := s.Root()

	list.SetTagRoot(true)
	assertViews(t, r.MTag("item"), other)
	assertViews(t, r.MTag("list"), list)
	assertViews(t, list.MTag("item"), item)

	// Tags added below a tag root stay inside its scope.
	deep := newChild(t, item, "Deep")
	deep.AddTag("item")
	assertViews(t, r.MTag("item"), other)
	assertViews(t, list.MTag("item"), item, deep)

	list.SetTagRoot(false)
	if got := r.MTag("item"); len(got) != 3 {
		t.Errorf("MTag(item) = %v, want 3 views", labels(got))
	}
}

func TestTagCacheInvalidation(t *testing.T) {
	s, list, item, other := buildTagTree(t)
	r := s.Root()

	assertViews(t, r.MTag("item"), item, other)
	assertViews(t, r.MTag("list.item"), item)

	extra := newChild(t, list, "Extra")
	extra.AddTag("item")
	assertViews(t, r.MTag("item"), item, other, extra)
	assertViews(t, r.MTag("list.item"), item, extra)

	item.RemoveTag("item")
	assertViews(t, r.MTag("item"), other, extra)
	assertViews(t, r.MTag("list.item"), extra)

	list.RemoveTag("list")
	if got := r.MTag("list.item"); len(got) != 0 {
		t.Errorf("MTag(list.item) = %v, want none", labels(got))
	}

	r.ChildList().Remove(other)
	assertViews(t, r.MTag("item"), extra)
}

func TestDottedQueryIndexedOnce(t *testing.T) {
	s, list, _, _ := buildTagTree(t)
	r := s.Root()

	for i := 0; i < 3; i++ {
		r.MTag("list.item")
		extra := newChild(t, list, "")
		extra.AddTag("item")
		if _, cached := r.tagsCache["list.item"]; cached {
			t.Fatal("adding an item should invalidate list.item")
		}
	}
	r.MTag("list.item")
	if got := r.tagToComplex["list"]; len(got) != 1 {
		t.Errorf("tagToComplex[list] = %v, want one entry", got)
	}
	if got := r.tagToComplex["item"]; len(got) != 1 {
		t.Errorf("tagToComplex[item] = %v, want one entry", got)
	}
}

func TestSTag(t *testing.T) {
	s, _, item, other := buildTagTree(t)
	if err := s.Root().STag("item", Settings{"alpha": 0.5}); err != nil {
		t.Fatal(err)
	}
	if item.Alpha() != 0.5 || other.Alpha() != 0.5 {
		t.Errorf("alpha = %v/%v, want 0.5", item.Alpha(), other.Alpha())
	}
}

// --- Selectors ---

func buildMenu(t *testing.T) (s *Stage, menu, first, second, icon, other *View) {
	t.Helper()
	s = newTestStage()
	err := s.Root().Patch(Settings{
		"Menu": Settings{
			"tags": "menu",
			"First": Settings{
				"tags": "item",
				"Icon": Settings{},
			},
			"Second": Settings{"tags": "item", "visible": false},
		},
		"Other": Settings{"tags": "item"},
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	menu = s.Root().GetByRef("Menu")
	first = menu.GetByRef("First")
	second = menu.GetByRef("Second")
	icon = first.GetByRef("Icon")
	other = s.Root().GetByRef("Other")
	return
}

func TestSelect(t *testing.T) {
	s, menu, first, second, icon, other := buildMenu(t)
	r := s.Root()

	tests := []struct {
		path string
		want []*View
	}{
		{"", []*View{r}},
		{"Menu", []*View{menu}},
		{"item", []*View{first, second, other}},
		{"Menu>First", []*View{first}},
		{"Menu.item", []*View{first, second}},
		{"Menu.item>Icon", []*View{icon}},
		{"menu.item", []*View{first, second}},
		{">Other", []*View{other}},
		{".Icon", []*View{icon}},
		{"Menu>Missing", nil},
		{"Menu>First, Other", []*View{first, other}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assertViews(t, r.Select(tt.path), tt.want...)
		})
	}

	if r.Sel("Menu>Second") != second {
		t.Error("Sel(Menu>Second) failed")
	}
	if r.Sel("Nope") != nil {
		t.Error("Sel(Nope) should be nil")
	}
}

func TestSelectRefIsChildOnly(t *testing.T) {
	s, _, _, _, _, _ := buildMenu(t)
	// Icon is a grandchild; a bare ref segment only looks at children.
	if got := s.Root().Select("Icon"); len(got) != 0 {
		t.Errorf("Select(Icon) = %v, want none", labels(got))
	}
}
