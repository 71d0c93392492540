// Package compositor defines the capability interfaces the panel space
// consumes from the windowing compositor: layer surfaces, output lifecycle
// events, and pointer events. Backends live in subpackages; the core never
// imports a toolkit.
package compositor

import (
	"fmt"

	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
)

// Output is one display output as reported by the compositor.
type Output struct {
	// ID is the compositor-assigned identity, stable for the output's
	// lifetime and never reused while it is alive.
	ID string
	// Name is the connector name (e.g. "DP-1"), used by config selectors.
	Name string
	// Size is the current logical resolution.
	Size geometry.Size
	// Scale is the output scale factor.
	Scale float64
	// Position is the output's logical position in global space.
	Position geometry.Point
}

// Surface is one live layer surface owned by a panel binding.
//
// Declarations (anchor, layer, margins, exclusive zone, size) accumulate
// until Commit applies them atomically, matching the layer-shell protocol's
// configure/commit model.
type Surface interface {
	SetAnchor(a config.Anchor, expand bool)
	SetLayer(l config.Layer)
	SetKeyboardInteractivity(k config.KeyboardInteractivity)
	SetExclusiveZone(px int)
	SetMargins(m geometry.Margins)
	SetSize(s geometry.Size)
	Commit() error
	Destroy()
}

// SurfaceOptions carries the initial declarations for a new surface.
type SurfaceOptions struct {
	// Namespace identifies the surface role to the compositor.
	Namespace string
	// Panel is the owning panel's configured name.
	Panel    string
	Output   Output
	Layer    config.Layer
	Anchor   config.Anchor
	Keyboard config.KeyboardInteractivity
}

// Compositor creates layer surfaces. Creation may be refused; the failure is
// local to the requesting binding.
type Compositor interface {
	CreateSurface(opts SurfaceOptions) (Surface, error)
}

// Event is a compositor-originated event. The concrete types below are the
// only implementations.
type Event interface {
	compositorEvent()
}

// OutputAdded announces a new output.
type OutputAdded struct {
	Output Output
}

// OutputRemoved announces an output disappearing. Only the identity
// survives; the output's geometry is gone.
type OutputRemoved struct {
	ID string
}

// OutputChanged announces a resolution, scale, or position change.
type OutputChanged struct {
	Output Output
}

// PointerEnter reports the pointer entering a panel surface, with surface
// local coordinates.
type PointerEnter struct {
	Surface Surface
	Pos     geometry.Point
}

// PointerLeave reports the pointer leaving a panel surface.
type PointerLeave struct {
	Surface Surface
}

// PointerMotion reports pointer movement within a panel surface.
type PointerMotion struct {
	Surface Surface
	Pos     geometry.Point
}

func (OutputAdded) compositorEvent()   {}
func (OutputRemoved) compositorEvent() {}
func (OutputChanged) compositorEvent() {}
func (PointerEnter) compositorEvent()  {}
func (PointerLeave) compositorEvent()  {}
func (PointerMotion) compositorEvent() {}

// EventSink receives compositor events. Backends may call it from any
// goroutine; the panel space serializes delivery.
type EventSink func(Event)

// SurfaceError reports a refused surface creation for one output.
type SurfaceError struct {
	Output string
	Err    error
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("create surface on output %s: %v", e.Output, e.Err)
}

func (e *SurfaceError) Unwrap() error {
	return e.Err
}
