package ecs

import (
	"github.com/phanxgames/viewtree"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ViewEvent is the Donburi payload for a view lifecycle event.
type ViewEvent struct {
	Kind     viewtree.EventKind
	ViewID   uint32
	Ref      string
	Location string
	Err      error
}

// ViewEventType is the Donburi event type for view lifecycle events.
// Events are queued; call ProcessEvents to deliver them.
var ViewEventType = events.NewEventType[ViewEvent]()

// ViewData is the component attached to the entity mirroring a view.
type ViewData struct {
	View   *viewtree.View
	Active bool
}

// ViewComponent marks entities that mirror attached views.
var ViewComponent = donburi.NewComponentType[ViewData]()

// DonburiObserver publishes stage events into a Donburi world and keeps one
// entity per attached view.
type DonburiObserver struct {
	world    donburi.World
	stage    *viewtree.Stage
	id       viewtree.ListenerID
	entities map[*viewtree.View]donburi.Entity
}

// NewDonburiObserver registers an observer on stage. Views attached at the
// time of the call get their entities immediately.
func NewDonburiObserver(world donburi.World, stage *viewtree.Stage) *DonburiObserver {
	o := &DonburiObserver{
		world:    world,
		stage:    stage,
		entities: make(map[*viewtree.View]donburi.Entity),
	}
	if root := stage.Root(); root != nil {
		o.seed(root)
	}
	o.id = stage.AddObserver(o.handle)
	return o
}

func (o *DonburiObserver) seed(v *viewtree.View) {
	if !v.Attached() {
		return
	}
	o.track(v)
	for _, c := range v.Children() {
		o.seed(c)
	}
}

// Close removes the observer and the mirrored entities.
func (o *DonburiObserver) Close() {
	o.stage.RemoveObserver(o.id)
	for v := range o.entities {
		o.untrack(v)
	}
}

// Entity returns the entity mirroring v.
func (o *DonburiObserver) Entity(v *viewtree.View) (donburi.Entity, bool) {
	e, ok := o.entities[v]
	return e, ok
}

func (o *DonburiObserver) handle(e viewtree.Event) {
	switch e.Kind {
	case viewtree.EventAttach:
		o.track(e.View)
	case viewtree.EventDetach:
		o.untrack(e.View)
	case viewtree.EventActive, viewtree.EventInactive:
		if ent, ok := o.entities[e.View]; ok && o.world.Valid(ent) {
			ViewComponent.Get(o.world.Entry(ent)).Active = e.Kind == viewtree.EventActive
		}
	}
	ViewEventType.Publish(o.world, ViewEvent{
		Kind:     e.Kind,
		ViewID:   e.View.ID(),
		Ref:      e.View.Ref(),
		Location: e.View.LocationString(),
		Err:      e.Err,
	})
}

func (o *DonburiObserver) track(v *viewtree.View) {
	if _, ok := o.entities[v]; ok {
		return
	}
	ent := o.world.Create(ViewComponent)
	ViewComponent.SetValue(o.world.Entry(ent), ViewData{View: v, Active: v.Active()})
	o.entities[v] = ent
}

func (o *DonburiObserver) untrack(v *viewtree.View) {
	ent, ok := o.entities[v]
	if !ok {
		return
	}
	if o.world.Valid(ent) {
		o.world.Remove(ent)
	}
	delete(o.entities, v)
}
