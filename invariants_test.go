package viewtree

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// treeFixture is a stage with a fixed pool of views that random operations
// move around, tag and texture.
type treeFixture struct {
	s      *Stage
	loader *manualLoader
	views  []*View // views[0] is the root
	srcIDs []string
	tags   []string
	refs   []string
}

func newTreeFixture(n int) *treeFixture {
	s, l := newLoaderStage()
	f := &treeFixture{
		s:      s,
		loader: l,
		views:  []*View{s.Root()},
		srcIDs: []string{"a.png", "b.png", "c.png"},
		tags:   []string{"t0", "t1", "t2"},
		refs:   []string{"", "Ra", "Rb"},
	}
	for i := 0; i < n; i++ {
		f.views = append(f.views, s.NewView())
	}
	return f
}

// step applies one random operation and returns its description.
func (f *treeFixture) step(rng *rand.Rand) string {
	v := f.views[rng.Intn(len(f.views))]
	c := f.views[1+rng.Intn(len(f.views)-1)]
	switch rng.Intn(12) {
	case 0, 1:
		p := f.views[rng.Intn(len(f.views))]
		if p == c || c.IsAncestorOf(p) {
			return "skip"
		}
		n := p.ChildCount()
		if c.Parent() == p {
			n--
		}
		p.ChildList().AddAt(c, rng.Intn(n+1))
		return fmt.Sprintf("AddAt(%s -> %s)", viewLabel(c), viewLabel(p))
	case 2:
		p := f.views[rng.Intn(len(f.views))]
		if p == c || c.IsAncestorOf(p) {
			return "skip"
		}
		p.ChildList().Add(c)
		return fmt.Sprintf("Add(%s -> %s)", viewLabel(c), viewLabel(p))
	case 3:
		if c.Parent() != nil {
			c.Parent().ChildList().Remove(c)
		}
		return fmt.Sprintf("Remove(%s)", viewLabel(c))
	case 4:
		tag := f.tags[rng.Intn(len(f.tags))]
		if rng.Intn(2) == 0 {
			v.AddTag(tag)
			return fmt.Sprintf("AddTag(%s, %s)", viewLabel(v), tag)
		}
		v.RemoveTag(tag)
		return fmt.Sprintf("RemoveTag(%s, %s)", viewLabel(v), tag)
	case 5:
		b := rng.Intn(2) == 0
		v.SetTagRoot(b)
		return fmt.Sprintf("SetTagRoot(%s, %v)", viewLabel(v), b)
	case 6:
		ref := f.refs[rng.Intn(len(f.refs))]
		v.SetRef(ref)
		return fmt.Sprintf("SetRef(%s, %q)", viewLabel(v), ref)
	case 7:
		b := rng.Intn(3) != 0
		c.SetVisible(b)
		return fmt.Sprintf("SetVisible(%s, %v)", viewLabel(c), b)
	case 8:
		a := []float64{0, 0.5, 1}[rng.Intn(3)]
		c.SetAlpha(a)
		return fmt.Sprintf("SetAlpha(%s, %v)", viewLabel(c), a)
	case 9:
		if rng.Intn(4) == 0 {
			v.SetTexture(nil)
			return fmt.Sprintf("SetTexture(%s, nil)", viewLabel(v))
		}
		id := f.srcIDs[rng.Intn(len(f.srcIDs))]
		v.SetTexture(f.s.GetTexture(id))
		return fmt.Sprintf("SetTexture(%s, %s)", viewLabel(v), id)
	case 10:
		b := rng.Intn(2) == 0
		v.Core().SetWithinBoundsMargin(b)
		return fmt.Sprintf("SetWithinBoundsMargin(%s, %v)", viewLabel(v), b)
	default:
		id := f.srcIDs[rng.Intn(len(f.srcIDs))]
		if rng.Intn(5) == 0 {
			f.loader.complete(id, nil, errors.New("broken"))
			return fmt.Sprintf("fail(%s)", id)
		}
		f.loader.complete(id, ebiten.NewImage(4, 4), nil)
		return fmt.Sprintf("complete(%s)", id)
	}
}

// expectedTreeTags returns, for each tag, the views in a's subtree carrying
// it with no tag-root strictly between a and them.
func expectedTreeTags(a *View) map[string]map[*View]bool {
	out := make(map[string]map[*View]bool)
	var visit func(n *View)
	visit = func(n *View) {
		for _, tag := range n.tags {
			if out[tag] == nil {
				out[tag] = make(map[*View]bool)
			}
			out[tag][n] = true
		}
		if n != a && n.tagRoot {
			return
		}
		for _, c := range n.Children() {
			visit(c)
		}
	}
	visit(a)
	return out
}

func viewSetLabels(m map[*View]bool) []string {
	var out []string
	for v := range m {
		out = append(out, viewLabel(v))
	}
	sort.Strings(out)
	return out
}

func sameViews(got []*View, want map[*View]bool) bool {
	if len(got) != len(want) {
		return false
	}
	for _, v := range got {
		if !want[v] {
			return false
		}
	}
	return true
}

func (f *treeFixture) checkTags() error {
	for _, a := range f.views {
		want := expectedTreeTags(a)
		if len(a.treeTags) != len(want) {
			return fmt.Errorf("%s: indexed tags = %d, want %d", viewLabel(a), len(a.treeTags), len(want))
		}
		for tag, members := range want {
			set, ok := a.treeTags[tag]
			if !ok || !sameViews(set.items, members) {
				return fmt.Errorf("%s: treeTags[%s] wrong, want %v", viewLabel(a), tag, viewSetLabels(members))
			}
			if !sameViews(a.MTag(tag), members) {
				return fmt.Errorf("%s: MTag(%s) = %v, want %v", viewLabel(a), tag, labels(a.MTag(tag)), viewSetLabels(members))
			}
		}

		// Dotted query: t1 in the scopes of every t0 view.
		dotted := make(map[*View]bool)
		for m := range want["t0"] {
			for x := range expectedTreeTags(m)["t1"] {
				dotted[x] = true
			}
		}
		if got := a.MTag("t0.t1"); !sameViews(got, dotted) {
			return fmt.Errorf("%s: MTag(t0.t1) = %v, want %v", viewLabel(a), labels(got), viewSetLabels(dotted))
		}
	}
	return nil
}

func (f *treeFixture) checkFlags() error {
	for _, v := range f.views {
		if v.Parent() == nil {
			if err := checkFlags(v); err != nil {
				return err
			}
		}
		if v.active != (v.enabled && v.core.withinBoundsMargin) {
			return fmt.Errorf("%s: active=%v enabled=%v within=%v", viewLabel(v), v.active, v.enabled, v.core.withinBoundsMargin)
		}
		if v.displayedTexture != nil && !v.active {
			return fmt.Errorf("%s: inactive view displays a texture", viewLabel(v))
		}
	}
	return nil
}

func (f *treeFixture) checkTextureCounts() error {
	for _, id := range f.srcIDs {
		src := f.s.TextureSourceByID(id)
		if src == nil {
			continue
		}
		users, within := 0, 0
		for _, v := range f.views {
			requested := v.texture != nil && v.texture.source == src
			displayed := v.displayedTexture != nil && v.displayedTexture.source == src
			if v.enabled && (requested || displayed) {
				users++
			}
			if v.active && requested {
				within++
			}
		}
		if src.ViewCount() != users {
			return fmt.Errorf("%s: ViewCount = %d, want %d", id, src.ViewCount(), users)
		}
		if src.WithinBoundsCount() != within {
			return fmt.Errorf("%s: WithinBoundsCount = %d, want %d", id, src.WithinBoundsCount(), within)
		}
	}
	return nil
}

// --- Randomized invariants ---

func TestRandomMutationsKeepInvariants(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		t.Run(fmt.Sprintf("seed%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			f := newTreeFixture(12)
			var history []string
			for i := 0; i < 1500; i++ {
				op := f.step(rng)
				history = append(history, op)
				var err error
				if err = f.checkTags(); err == nil {
					if err = f.checkFlags(); err == nil {
						err = f.checkTextureCounts()
					}
				}
				if err != nil {
					from := max(0, len(history)-8)
					t.Fatalf("step %d: %v\nlast ops: %v", i, err, history[from:])
				}
			}
		})
	}
}
