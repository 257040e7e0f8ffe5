// Package viewtree is a retained-mode view tree for [Ebitengine].
//
// A [Stage] owns a tree of [View] values rooted at [Stage.Root]. Views carry
// layout (position, size, scale, pivot, mount, rotation), colors, alpha,
// visibility and an optional texture: an image, text or a plain rectangle.
// Every update the stage recomputes world transforms and alpha for the
// subtree whose properties changed.
//
// # Quick start
//
//	stage := viewtree.NewStage(viewtree.DefaultOptions())
//	root := stage.Root()
//	err := root.Patch(viewtree.Settings{
//		"Background": viewtree.Settings{"rect": true, "w": 1920, "h": 1080, "color": "ff101010"},
//		"Title":      viewtree.Settings{"x": 100, "y": 80, "text": "Hello"},
//	})
//
// In an [ebiten.Game], call [Stage.Update] from Update and [Stage.Draw] from
// Draw.
//
// # Flags
//
// Each view has three derived flags. A view is attached when its parent is
// attached or it is the root. It is enabled when attached, visible and its
// alpha is above zero. It is active when enabled and within the bounds
// margin of the viewport. Textures load when a view becomes active and are
// released by [Stage.FreeUnusedTextures] once no active view uses them.
// Listeners registered with [View.On] receive attach, detach, enable,
// disable, activate, inactivate and texture events.
//
// # Refs, tags and selectors
//
// A ref is an upper case name unique among siblings ("Menu"). Tags are
// lower case labels ("item"). Every view indexes the tags of its subtree;
// [View.SetTagRoot] stops views above it from seeing deeper tags.
//
//	items := root.MTag("item")          // all views tagged item
//	icon := root.Sel("Menu.item>Icon")  // first match of a selector
//
// # Settings
//
// [Settings] documents describe trees. [View.Patch] applies property keys,
// patches children by ref, creates missing ones and detaches children whose
// value is [Remove]. [View.GetSettings] serializes a subtree so that
// patching a fresh view with the result recreates it. Documents load from
// JSON or TOML with [LoadSettingsFile].
//
// # Render to texture
//
// [View.Texturizer] renders a subtree to an offscreen image, optionally
// through [Filter] passes, and can use the result as the view's displayed
// texture. Lazy mode keeps the last result until the subtree changes.
//
// # Transitions
//
// [View.SetSmooth] moves numeric and color properties with easing from
// [github.com/tanema/gween].
//
// [Ebitengine]: https://ebitengine.org
package viewtree
