package viewtree

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

const epsilon = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func newTestStage() *Stage {
	return NewStage(Options{Width: 800, Height: 600, BoundsMargin: [4]float64{10, 10, 10, 10}})
}

// newChild creates a view with ref and adds it to parent.
func newChild(t *testing.T, parent *View, ref string) *View {
	t.Helper()
	v := parent.Stage().NewView()
	if ref != "" {
		if err := v.SetRef(ref); err != nil {
			t.Fatalf("SetRef(%q): %v", ref, err)
		}
	}
	parent.ChildList().Add(v)
	return v
}

func viewLabel(v *View) string {
	if v.Ref() != "" {
		return v.Ref()
	}
	return fmt.Sprintf("#%d", v.ID())
}

// eventLog records every event of a stage as "kind:label".
type eventLog struct {
	events []string
}

func recordEvents(s *Stage) *eventLog {
	l := &eventLog{}
	s.AddObserver(func(e Event) {
		l.events = append(l.events, e.Kind.String()+":"+viewLabel(e.View))
	})
	return l
}

func (l *eventLog) reset() { l.events = nil }

func (l *eventLog) count(entry string) int {
	n := 0
	for _, e := range l.events {
		if e == entry {
			n++
		}
	}
	return n
}

func assertEvents(t *testing.T, l *eventLog, want ...string) {
	t.Helper()
	if len(l.events) != len(want) {
		t.Fatalf("events = %v, want %v", l.events, want)
	}
	for i := range want {
		if l.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", l.events, want)
		}
	}
}

func assertViews(t *testing.T, got []*View, want ...*View) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("views = %v, want %v", labels(got), labels(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("views = %v, want %v", labels(got), labels(want))
		}
	}
}

func labels(views []*View) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = viewLabel(v)
	}
	return out
}

// expectPanicCode runs fn and checks that it panics with an *Error of code.
func expectPanicCode(t *testing.T, code Code, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %s", code)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value = %v, want error", r)
		}
		var e *Error
		if !errors.As(err, &e) || e.Code != code {
			t.Fatalf("panic = %v, want code %s", err, code)
		}
	}()
	fn()
}

// manualLoader holds load callbacks until the test completes them.
type manualLoader struct {
	calls   int
	pending map[string][]LoadCallback
}

func newManualLoader() *manualLoader {
	return &manualLoader{pending: make(map[string][]LoadCallback)}
}

func (l *manualLoader) Load(src *TextureSource, done LoadCallback) {
	l.calls++
	l.pending[src.ID()] = append(l.pending[src.ID()], done)
}

func (l *manualLoader) complete(id string, img *ebiten.Image, err error) {
	cbs := l.pending[id]
	delete(l.pending, id)
	for _, cb := range cbs {
		cb(img, err)
	}
}
