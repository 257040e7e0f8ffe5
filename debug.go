package viewtree

import "fmt"

// Tree diagnostics. Only called when the stage runs with Options.Debug; in
// release mode callers skip these entirely.

// debugCheckDisposed panics when a disposed view is used in a tree
// operation.
func debugCheckDisposed(v *View, op string) {
	if v.disposed {
		panic(fmt.Sprintf("viewtree debug: %s on disposed view #%d", op, v.id))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(v *View) {
	if d := v.Depth() + 1; d > debugMaxTreeDepth {
		logger.Warn("tree depth exceeds threshold",
			"depth", d, "threshold", debugMaxTreeDepth, "view", v.LocationString())
	}
}

// debugCheckChildCount warns if a view has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(v *View) {
	if n := v.ChildCount(); n > debugMaxChildCount {
		logger.Warn("child count exceeds threshold",
			"children", n, "threshold", debugMaxChildCount, "view", v.LocationString())
	}
}

// TreeStats summarizes the flags of a subtree.
type TreeStats struct {
	Views    int
	Attached int
	Enabled  int
	Active   int
	MaxDepth int
}

// Stats walks the subtree of v and counts views per flag.
func (v *View) Stats() TreeStats {
	var st TreeStats
	base := v.Depth()
	walkViews(v, func(c *View) {
		st.Views++
		if c.attached {
			st.Attached++
		}
		if c.enabled {
			st.Enabled++
		}
		if c.active {
			st.Active++
		}
		if d := c.Depth() - base; d > st.MaxDepth {
			st.MaxDepth = d
		}
	})
	return st
}

// checkFlags verifies the flag implications for a subtree and returns the
// first violation. Used by tests and the debug update pass.
func checkFlags(v *View) error {
	var err error
	walkViews(v, func(c *View) {
		if err != nil {
			return
		}
		switch {
		case c.enabled && !c.attached:
			err = viewError(c, ErrCodeStructural, "enabled view is not attached")
		case c.active && !c.enabled:
			err = viewError(c, ErrCodeStructural, "active view is not enabled")
		case c.attached != c.isAttachedCandidate():
			err = viewError(c, ErrCodeStructural, "attached flag out of date")
		case c.enabled != c.isEnabledCandidate():
			err = viewError(c, ErrCodeStructural, "enabled flag out of date")
		}
	})
	return err
}
