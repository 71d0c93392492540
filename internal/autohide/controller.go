// Package autohide implements the hide-on-idle state machine for a single
// panel binding.
//
// The controller holds no timers of its own: every method takes the current
// time and returns a Command telling the owner what to schedule, cancel, or
// commit. Rendered thickness is a pure interpolation of elapsed time since
// the last transition, so repeated queries never drift.
package autohide

import (
	"time"

	"github.com/jmylchreest/ledge/internal/config"
)

// State is the visibility state of an autohidden panel.
type State string

// States.
const (
	StateShown   State = "shown"
	StateHiding  State = "hiding"
	StateHidden  State = "hidden"
	StateShowing State = "showing"
)

// Command tells the controller's owner what changed and what to do next.
type Command struct {
	// ScheduleWait requests a one-shot timer of WaitDelay carrying Gen.
	ScheduleWait bool
	WaitDelay    time.Duration
	Gen          uint64
	// Animate requests frame ticks while a transition is in flight.
	Animate bool
	// Settled is set when the state just reached Shown or Hidden; the
	// exclusive zone flips only on these boundaries.
	Settled bool
	// Changed is set on any state change; the owner should recommit.
	Changed bool
}

// Controller drives autohide for one panel-output binding.
// A controller built without autohide config stays Shown forever.
type Controller struct {
	cfg   *config.AutoHide
	state State
	// gen invalidates outstanding wait timers on every state change.
	gen uint64

	pointerInside   bool
	lastLeave       time.Time
	transitionStart time.Time
}

// New creates a controller. When ah is nil autohide is disabled and the
// panel is permanently shown. When configured the panel starts Hidden until
// the pointer proves otherwise.
func New(ah *config.AutoHide) *Controller {
	c := &Controller{cfg: ah, state: StateShown}
	if ah != nil {
		c.state = StateHidden
	}
	return c
}

// Enabled reports whether autohide is configured.
func (c *Controller) Enabled() bool {
	return c.cfg != nil
}

// State returns the current visibility state.
func (c *Controller) State() State {
	return c.state
}

// Gen returns the current timer generation token.
func (c *Controller) Gen() uint64 {
	return c.gen
}

// PointerEnter handles the pointer entering the surface or its handle strip.
func (c *Controller) PointerEnter(now time.Time) Command {
	c.pointerInside = true
	if !c.Enabled() {
		return Command{}
	}

	switch c.state {
	case StateShown:
		// A pending hide timer is now stale; bumping the generation
		// makes its eventual fire a no-op.
		c.gen++
		return Command{}
	case StateHidden:
		return c.beginShowing(now, 0)
	case StateHiding:
		// Reverse mid-flight, mirroring visual progress so the bar
		// animates back from where it is now.
		return c.beginShowing(now, 1-c.progress(now))
	default: // already showing
		return Command{}
	}
}

// PointerLeave handles the pointer leaving both the surface and the handle.
func (c *Controller) PointerLeave(now time.Time) Command {
	c.pointerInside = false
	if !c.Enabled() {
		return Command{}
	}
	c.lastLeave = now

	switch c.state {
	case StateShown:
		c.gen++
		return Command{ScheduleWait: true, WaitDelay: c.cfg.Wait(), Gen: c.gen}
	case StateShowing:
		return c.beginHiding(now, 1-c.progress(now))
	default:
		return Command{}
	}
}

// WaitTimerFired handles the hide wait timer. Fires carrying a stale
// generation are discarded silently.
func (c *Controller) WaitTimerFired(gen uint64, now time.Time) Command {
	if !c.Enabled() || gen != c.gen {
		return Command{}
	}
	if c.state != StateShown || c.pointerInside {
		return Command{}
	}
	return c.beginHiding(now, 0)
}

// Tick advances an in-flight transition. Outside of Hiding/Showing it is a
// no-op.
func (c *Controller) Tick(now time.Time) Command {
	switch c.state {
	case StateHiding:
		if c.progress(now) >= 1 {
			return c.settle(StateHidden)
		}
		return Command{Animate: true}
	case StateShowing:
		if c.progress(now) >= 1 {
			return c.settle(StateShown)
		}
		return Command{Animate: true}
	default:
		return Command{}
	}
}

// RenderedThickness returns the thickness to draw right now, interpolating
// linearly between full and the handle size during transitions.
func (c *Controller) RenderedThickness(now time.Time, full int) int {
	if !c.Enabled() {
		return full
	}
	handle := c.cfg.HandlePX
	switch c.state {
	case StateShown:
		return full
	case StateHidden:
		return handle
	case StateHiding:
		return full - int(c.progress(now)*float64(full-handle)+0.5)
	default: // showing
		return handle + int(c.progress(now)*float64(full-handle)+0.5)
	}
}

// ExclusiveThickness returns the thickness the compositor should reserve.
// It flips only at the Shown/Hidden boundaries, never per animation frame.
func (c *Controller) ExclusiveThickness(full int) int {
	if !c.Enabled() {
		return full
	}
	switch c.state {
	case StateHidden, StateShowing:
		return c.cfg.HandlePX
	default:
		return full
	}
}

// progress returns the normalized [0,1] transition fraction.
func (c *Controller) progress(now time.Time) float64 {
	total := c.cfg.Transition()
	if total <= 0 {
		return 1
	}
	f := float64(now.Sub(c.transitionStart)) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// beginHiding enters Hiding with the given starting fraction. A zero
// transition time passes through the state and settles in the same call.
func (c *Controller) beginHiding(now time.Time, startFraction float64) Command {
	c.state = StateHiding
	c.gen++
	c.transitionStart = now.Add(-time.Duration(startFraction * float64(c.cfg.Transition())))
	if c.cfg.Transition() <= 0 {
		cmd := c.settle(StateHidden)
		cmd.Changed = true
		return cmd
	}
	return Command{Changed: true, Animate: true}
}

func (c *Controller) beginShowing(now time.Time, startFraction float64) Command {
	c.state = StateShowing
	c.gen++
	c.transitionStart = now.Add(-time.Duration(startFraction * float64(c.cfg.Transition())))
	if c.cfg.Transition() <= 0 {
		cmd := c.settle(StateShown)
		cmd.Changed = true
		return cmd
	}
	return Command{Changed: true, Animate: true}
}

func (c *Controller) settle(s State) Command {
	c.state = s
	c.gen++
	return Command{Changed: true, Settled: true}
}
