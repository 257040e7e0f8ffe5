package viewtree

import (
	"image"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// flatten returns the leaf commands in submission order.
func flatten(cmds []drawCommand) []drawCommand {
	var out []drawCommand
	for _, c := range cmds {
		if c.group != nil {
			out = append(out, flatten(c.group)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// leftEdges returns the x of the upper-left vertex of every leaf command.
func leftEdges(cmds []drawCommand) []float32 {
	var xs []float32
	for _, c := range flatten(cmds) {
		xs = append(xs, c.vertices[0].DstX)
	}
	return xs
}

func assertEdges(t *testing.T, got []float32, want ...float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("edges = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("edges = %v, want %v", got, want)
		}
	}
}

// --- Draw walk ---

func TestDrawCommandsZOrder(t *testing.T) {
	s := newTestStage()
	err := s.Root().Patch(Settings{
		"A": Settings{"rect": true, "x": 0, "w": 10, "h": 10, "zIndex": 2},
		"B": Settings{"rect": true, "x": 20, "w": 10, "h": 10},
		"C": Settings{"rect": true, "x": 40, "w": 10, "h": 10, "zIndex": -1},
		"D": Settings{"rect": true, "x": 60, "w": 10, "h": 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	s.Update(0)
	assertEdges(t, leftEdges(s.drawCommands()), 40, 20, 60, 0)
}

func TestDrawCommandsNestedInContext(t *testing.T) {
	s := newTestStage()
	err := s.Root().Patch(Settings{
		"P": Settings{
			"Low":  Settings{"rect": true, "x": 1, "w": 5, "h": 5},
			"High": Settings{"rect": true, "x": 2, "w": 5, "h": 5, "zIndex": 1},
		},
		"Q": Settings{"rect": true, "x": 3, "w": 5, "h": 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	s.Update(0)
	// P opens no context, so its children are sorted in the root context.
	assertEdges(t, leftEdges(s.drawCommands()), 1, 3, 2)
}

func TestDrawCommandsSkipHiddenAndInactive(t *testing.T) {
	s := newTestStage()
	s.Root().Patch(Settings{
		"Shown":  Settings{"rect": true, "x": 5, "w": 5, "h": 5},
		"Hidden": Settings{"rect": true, "x": 15, "w": 5, "h": 5, "visible": false},
		"Far":    Settings{"rect": true, "x": 5000, "w": 5, "h": 5},
		"Clear":  Settings{"rect": true, "x": 25, "w": 5, "h": 5, "alpha": 0},
	})
	s.Update(0)
	assertEdges(t, leftEdges(s.drawCommands()), 5)

	s.Root().SetVisible(false)
	if cmds := s.drawCommands(); cmds != nil {
		t.Errorf("disabled root drew %d commands", len(cmds))
	}
}

func TestDrawCommandVertices(t *testing.T) {
	s := newTestStage()
	s.Root().Patch(Settings{
		"A": Settings{"rect": true, "x": 10, "y": 20, "w": 30, "h": 40, "alpha": 0.5, "colorTop": "ffff0000"},
	})
	s.Update(0)
	cmds := flatten(s.drawCommands())
	if len(cmds) != 1 {
		t.Fatalf("commands = %d, want 1", len(cmds))
	}
	v := cmds[0].vertices
	if v[0].DstX != 10 || v[0].DstY != 20 || v[3].DstX != 40 || v[3].DstY != 60 {
		t.Errorf("corners = (%v,%v) (%v,%v)", v[0].DstX, v[0].DstY, v[3].DstX, v[3].DstY)
	}
	if v[0].ColorG != 0 || v[2].ColorG != 1 {
		t.Errorf("corner colors: top g=%v bottom g=%v", v[0].ColorG, v[2].ColorG)
	}
	if v[1].ColorA != 0.5 {
		t.Errorf("alpha = %v, want 0.5", v[1].ColorA)
	}
	if v[3].SrcX != 1 || v[3].SrcY != 1 {
		t.Errorf("src = (%v,%v), want (1,1)", v[3].SrcX, v[3].SrcY)
	}
}

func TestDrawCommandsClipping(t *testing.T) {
	s := newTestStage()
	s.Root().Patch(Settings{
		"Box": Settings{
			"x": 10, "y": 10, "w": 50, "h": 50, "clipping": true,
			"Inner": Settings{"rect": true, "w": 100, "h": 100},
		},
		"Free": Settings{"rect": true, "x": 100, "w": 5, "h": 5},
	})
	s.Update(0)
	cmds := flatten(s.drawCommands())
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want 2", len(cmds))
	}
	if !cmds[0].clipped || cmds[0].clip != image.Rect(10, 10, 60, 60) {
		t.Errorf("inner clip = %v (clipped %v)", cmds[0].clip, cmds[0].clipped)
	}
	if cmds[1].clipped {
		t.Error("sibling of a clipping view should not be clipped")
	}
}

func TestSortCommandsStable(t *testing.T) {
	cmds := []drawCommand{
		{zIndex: 1, treeOrder: 1},
		{zIndex: 0, treeOrder: 2},
		{zIndex: 1, treeOrder: 3},
		{zIndex: -2, treeOrder: 4},
		{zIndex: 0, treeOrder: 5},
	}
	var d drawContext
	d.sortCommands(cmds)
	want := []int{4, 2, 5, 1, 3}
	for i, c := range cmds {
		if c.treeOrder != want[i] {
			t.Fatalf("order = %v, want %v", cmds, want)
		}
	}
}

func TestDrawToImage(t *testing.T) {
	s := newTestStage()
	s.Root().Patch(Settings{
		"A": Settings{"rect": true, "w": 20, "h": 20, "color": "ff00ff00"},
		"B": Settings{"rect": true, "x": 10, "w": 20, "h": 20, "zIndex": 1, "clipping": true},
	})
	s.Update(0)
	screen := ebiten.NewImage(800, 600)
	s.Draw(screen)
}
