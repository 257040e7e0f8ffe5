package viewtree

// EventKind identifies a view lifecycle event.
type EventKind uint8

const (
	EventAttach          EventKind = iota // view became reachable from the root
	EventDetach                           // view is no longer reachable from the root
	EventEnabled                          // view became attached, visible and non-transparent
	EventDisabled                         // view stopped being enabled
	EventActive                           // enabled view entered the bounds margin
	EventInactive                         // view left the active state
	EventTextureLoaded                    // displayed texture changed to a ready texture
	EventTextureUnloaded                  // displayed texture was cleared
	EventTextureError                     // requested texture failed to load
)

var eventKindNames = [...]string{
	EventAttach:          "attach",
	EventDetach:          "detach",
	EventEnabled:         "enabled",
	EventDisabled:        "disabled",
	EventActive:          "active",
	EventInactive:        "inactive",
	EventTextureLoaded:   "txLoaded",
	EventTextureUnloaded: "txUnloaded",
	EventTextureError:    "txError",
}

// String returns the event name.
func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event carries a lifecycle notification. Texture is set for texture events;
// Source and Err are set for EventTextureError.
type Event struct {
	Kind    EventKind
	View    *View
	Texture *Texture
	Source  *TextureSource
	Err     error
}

// Listener receives view events.
type Listener func(Event)

// ListenerID identifies a registration for removal with Off.
type ListenerID uint32

type listenerEntry struct {
	id      ListenerID
	kind    EventKind
	fn      Listener
	removed bool
}

// listenerList is a per-view observer list. Nil until the first On.
// Removal never writes into the current backing array, so a delivery loop
// holding the old slice stays valid.
type listenerList struct {
	entries []*listenerEntry
	nextID  ListenerID
}

func (l *listenerList) add(kind EventKind, fn Listener) ListenerID {
	l.nextID++
	l.entries = append(l.entries, &listenerEntry{id: l.nextID, kind: kind, fn: fn})
	return l.nextID
}

func (l *listenerList) remove(id ListenerID) bool {
	for i, e := range l.entries {
		if e.id == id {
			e.removed = true
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// On registers fn for events of the given kind and returns an id for Off.
func (v *View) On(kind EventKind, fn Listener) ListenerID {
	if v.listeners == nil {
		v.listeners = &listenerList{}
	}
	return v.listeners.add(kind, fn)
}

// Off removes a listener registered with On. Returns false if the id is
// unknown.
func (v *View) Off(id ListenerID) bool {
	if v.listeners == nil {
		return false
	}
	return v.listeners.remove(id)
}

// emit delivers an event to the view's listeners and then to the stage
// observers. Listeners added during delivery do not see the current event;
// listeners removed during delivery are not called.
func (v *View) emit(e Event) {
	e.View = v
	if v.listeners != nil {
		for _, l := range v.listeners.entries {
			if l.kind == e.Kind && !l.removed {
				l.fn(e)
			}
		}
	}
	if v.stage != nil {
		v.stage.notify(e)
	}
}
