// Package ecs provides ECS adapters for viewtree's lifecycle events.
//
// The primary adapter is [NewDonburiObserver], which bridges view events
// (attach, detach, enabled, active, texture) into a [Donburi] world as typed
// events, and mirrors attached views as entities carrying [ViewComponent].
// Subscribe to [ViewEventType] in your ECS systems to receive the events.
//
// Usage:
//
//	obs := ecs.NewDonburiObserver(world, stage)
//	defer obs.Close()
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
