package viewtree

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TransitionSettings configures how a property moves to a new value.
type TransitionSettings struct {
	// Duration in seconds. 0 applies new values immediately.
	Duration float32
	// Delay in seconds before the value starts moving.
	Delay float32
	// Easing curve; nil uses ease.Linear.
	Easing ease.TweenFunc
}

// DefaultTransitionSettings returns the settings used for properties without
// explicit transition settings.
func DefaultTransitionSettings() TransitionSettings {
	return TransitionSettings{Duration: 0.2, Easing: ease.OutCubic}
}

// Transition smoothly moves one property of a view to a target value. It is
// driven by Stage.Update. Views that are not attached jump to the target.
type Transition struct {
	view     *View
	prop     *Property
	settings TransitionSettings

	tween    *gween.Tween
	from, to float64
	delay    float32
	running  bool
	queued   bool

	// OnFinish is called when the transition reaches its target.
	OnFinish func(t *Transition)
}

func newTransition(v *View, p *Property, s TransitionSettings) *Transition {
	return &Transition{view: v, prop: p, settings: s}
}

// Property returns the animated property path.
func (t *Transition) Property() string { return t.prop.Path }

// Settings returns the transition settings.
func (t *Transition) Settings() TransitionSettings { return t.settings }

// SetSettings replaces the settings. A running transition keeps its current
// tween and uses the new settings from its next start.
func (t *Transition) SetSettings(s TransitionSettings) { t.settings = s }

// Running reports whether the transition is moving.
func (t *Transition) Running() bool { return t.running }

// TargetValue returns the value the property is moving to.
func (t *Transition) TargetValue() float64 { return t.to }

// Start moves the property from its current value to target.
func (t *Transition) Start(target float64) {
	t.to = target
	if !t.view.attached || t.settings.Duration <= 0 {
		t.Finish()
		return
	}
	t.from = t.prop.Get(t.view)
	if t.from == target {
		t.Stop()
		return
	}
	easing := t.settings.Easing
	if easing == nil {
		easing = ease.Linear
	}
	t.tween = gween.New(0, 1, t.settings.Duration, easing)
	t.delay = t.settings.Delay
	t.running = true
	if !t.queued {
		t.queued = true
		t.view.stage.transitions = append(t.view.stage.transitions, t)
	}
}

// Finish jumps to the target value and stops.
func (t *Transition) Finish() {
	t.prop.Set(t.view, t.to)
	wasRunning := t.running
	t.Stop()
	if wasRunning && t.OnFinish != nil {
		t.OnFinish(t)
	}
}

// Stop halts the transition, leaving the property at its current value.
func (t *Transition) Stop() {
	t.running = false
	t.tween = nil
}

// update advances the transition and reports whether it is done.
func (t *Transition) update(dt float32) bool {
	if !t.running {
		return true
	}
	if t.view.disposed {
		t.Stop()
		return true
	}
	if t.delay > 0 {
		t.delay -= dt
		if t.delay > 0 {
			return false
		}
		dt = -t.delay
		t.delay = 0
	}
	p, finished := t.tween.Update(dt)
	if finished {
		t.Finish()
		return true
	}
	t.prop.Set(t.view, t.prop.Merge(t.from, t.to, float64(p)))
	return false
}

func (s *Stage) updateTransitions(dt float32) {
	if len(s.transitions) == 0 {
		return
	}
	// Transitions started during this pass are advanced next frame.
	running := s.transitions
	s.transitions = nil
	kept := running[:0]
	for _, t := range running {
		if t.update(dt) {
			t.queued = false
		} else {
			kept = append(kept, t)
		}
	}
	s.transitions = append(kept, s.transitions...)
}

// RunningTransitions returns the number of transitions queued for the next
// Update.
func (s *Stage) RunningTransitions() int { return len(s.transitions) }

// --- View API ---

// Transition returns the transition for a property path, creating one with
// the stage defaults on first use.
func (v *View) Transition(path string) (*Transition, error) {
	if t, ok := v.transitions[path]; ok {
		return t, nil
	}
	p, ok := LookupProperty(path)
	if !ok {
		return nil, viewError(v, ErrCodeNotFound, "unknown property %q", path)
	}
	t := newTransition(v, p, v.stage.DefaultTransition)
	if v.transitions == nil {
		v.transitions = make(map[string]*Transition)
	}
	v.transitions[path] = t
	return t, nil
}

// SetTransition sets the transition settings for a property path. nil
// removes the transition, stopping it if running.
func (v *View) SetTransition(path string, s *TransitionSettings) error {
	if s == nil {
		if t, ok := v.transitions[path]; ok {
			t.Stop()
			delete(v.transitions, path)
		}
		return nil
	}
	t, err := v.Transition(path)
	if err != nil {
		return err
	}
	t.SetSettings(*s)
	return nil
}

// SetSmooth moves a property to val using its transition.
func (v *View) SetSmooth(path string, val float64) error {
	t, err := v.Transition(path)
	if err != nil {
		return err
	}
	t.Start(val)
	return nil
}

// GetSmooth returns the target of a running transition for path, or def.
func (v *View) GetSmooth(path string, def float64) float64 {
	if t, ok := v.transitions[path]; ok && t.running {
		return t.to
	}
	return def
}

// FastForward finishes a running transition immediately.
func (v *View) FastForward(path string) {
	if t, ok := v.transitions[path]; ok && t.running {
		t.Finish()
	}
}

var easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
	"inExpo":     ease.InExpo,
	"outExpo":    ease.OutExpo,
	"inBack":     ease.InBack,
	"outBack":    ease.OutBack,
	"inOutBack":  ease.InOutBack,
	"outBounce":  ease.OutBounce,
	"outElastic": ease.OutElastic,
}

// EasingByName returns the easing function registered under name, such as
// "outCubic" or "inOutSine".
func EasingByName(name string) (ease.TweenFunc, bool) {
	f, ok := easings[name]
	return f, ok
}

// toTransitionSettings converts a settings value into transition settings
// starting from def. nil yields nil (no transition). Accepted forms are
// TransitionSettings, a duration number, or a map with duration, delay and
// timingFunction keys.
func toTransitionSettings(def TransitionSettings, val any) (*TransitionSettings, bool) {
	if val == nil {
		return nil, true
	}
	switch x := val.(type) {
	case TransitionSettings:
		return &x, true
	case *TransitionSettings:
		return x, true
	}
	if d, ok := toFloat(val); ok {
		def.Duration = float32(d)
		return &def, true
	}
	m, ok := asSettings(val)
	if !ok {
		return nil, false
	}
	for k, e := range m {
		switch k {
		case "duration", "delay":
			f, ok := toFloat(e)
			if !ok {
				return nil, false
			}
			if k == "duration" {
				def.Duration = float32(f)
			} else {
				def.Delay = float32(f)
			}
		case "timingFunction", "easing":
			name, ok := toString(e)
			if !ok {
				return nil, false
			}
			if def.Easing, ok = EasingByName(name); !ok {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return &def, true
}
