package space

import (
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/ledge/internal/applet"
	"github.com/jmylchreest/ledge/internal/autohide"
	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
	"github.com/jmylchreest/ledge/internal/layout"
	"github.com/jmylchreest/ledge/internal/render"
)

// frameInterval paces autohide animation ticks.
const frameInterval = 16 * time.Millisecond

// Scheduler schedules callbacks onto the event loop. Callbacks run
// serialized with all other event handling.
type Scheduler interface {
	Schedule(d time.Duration, fn func(now time.Time)) int
	Cancel(id int)
}

// Binding owns one live compositor surface for one (panel, output) pair: it
// applies layout results, drives autohide, hosts the embedded applets, and
// keeps the committed geometry consistent with what the compositor saw.
type Binding struct {
	// ID is a ULID minted at construction, used in logs and status
	// reporting.
	ID string

	logger   *slog.Logger
	cfg      config.PanelConfig
	output   compositor.Output
	surface  compositor.Surface
	embedder applet.Embedder
	bridge   render.Bridge
	sched    Scheduler
	clock    func() time.Time

	hide *autohide.Controller

	handles map[string]applet.Handle
	sizes   map[string]geometry.Size
	// failed holds applet ids whose embed was refused; their slots stay
	// empty but layout proceeds for the rest.
	failed map[string]bool
	// droppedWings counts wing slots shed to resolve a layout overflow.
	droppedWings int

	committed    geometry.Rect
	slots        []layout.Slot
	lastMargins  geometry.Margins
	lastExcl     int
	hasCommitted bool

	waitTimer int
	tickTimer int
	destroyed bool
}

// NewBinding creates the surface and performs the initial layout pass.
// Surface creation failure is fatal only to this binding.
func NewBinding(
	cfg config.PanelConfig,
	output compositor.Output,
	comp compositor.Compositor,
	embedder applet.Embedder,
	bridge BridgeFactory,
	sched Scheduler,
	clock func() time.Time,
	logger *slog.Logger,
) (*Binding, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = time.Now
	}

	surface, err := comp.CreateSurface(compositor.SurfaceOptions{
		Namespace: "ledge-" + cfg.Name,
		Panel:     cfg.Name,
		Output:    output,
		Layer:     cfg.Layer,
		Anchor:    cfg.Anchor,
		Keyboard:  cfg.KeyboardInteractivity,
	})
	if err != nil {
		return nil, &compositor.SurfaceError{Output: output.ID, Err: err}
	}

	id := ulid.MustNew(ulid.Timestamp(clock()), rand.Reader).String()
	b := &Binding{
		ID:       id,
		logger:   logger.With("binding", id, "panel", cfg.Name, "output", output.Name),
		cfg:      cfg,
		output:   output,
		surface:  surface,
		embedder: embedder,
		sched:    sched,
		clock:    clock,
		hide:     autohide.New(cfg.AutoHide),
		handles:  make(map[string]applet.Handle),
		sizes:    make(map[string]geometry.Size),
		failed:   make(map[string]bool),
	}

	if bridge != nil {
		b.bridge = bridge(surface)
	}

	surface.SetLayer(cfg.Layer)
	surface.SetAnchor(cfg.Anchor, cfg.Expanded())
	surface.SetKeyboardInteractivity(cfg.KeyboardInteractivity)

	b.embedAll()
	b.recompute()

	b.logger.Info("binding created",
		"anchor", cfg.Anchor,
		"size", cfg.Size,
		"applets", len(b.handles),
		"autohide", b.hide.Enabled(),
	)
	return b, nil
}

// Config returns the bound panel configuration.
func (b *Binding) Config() config.PanelConfig {
	return b.cfg
}

// Output returns the bound output.
func (b *Binding) Output() compositor.Output {
	return b.output
}

// Surface returns the owned compositor surface.
func (b *Binding) Surface() compositor.Surface {
	return b.surface
}

// Committed returns the last committed surface rectangle.
func (b *Binding) Committed() geometry.Rect {
	return b.committed
}

// Slots returns the current slot rectangles.
func (b *Binding) Slots() []layout.Slot {
	return b.slots
}

// HideState returns the autohide state.
func (b *Binding) HideState() autohide.State {
	return b.hide.State()
}

// embedAll requests embedding for every configured applet. Refused embeds
// leave their slot empty; the rest proceed.
func (b *Binding) embedAll() {
	for _, id := range b.cfg.Applets() {
		req := applet.Request{Applet: id, Panel: b.cfg.Name, Output: b.output.ID}
		h, err := b.embedder.Embed(req)
		if err != nil {
			b.failed[id] = true
			b.logger.Warn("applet embed refused, slot left empty", "applet", id, "error", err)
			continue
		}
		b.handles[id] = h
	}
}

// UpdateOutput applies new output geometry and recomputes.
func (b *Binding) UpdateOutput(out compositor.Output) {
	if b.destroyed {
		return
	}
	b.output = out
	b.recompute()
}

// ReportSize records an applet's advertised size and recomputes.
func (b *Binding) ReportSize(id string, size geometry.Size) {
	if b.destroyed {
		return
	}
	if _, ok := b.handles[id]; !ok {
		b.logger.Debug("size report for unembedded applet dropped", "applet", id)
		return
	}
	if b.sizes[id] == size {
		return
	}
	b.sizes[id] = size
	b.recompute()
}

// PointerEnter forwards a pointer entry to the autohide controller.
func (b *Binding) PointerEnter(pos geometry.Point) {
	if b.destroyed {
		return
	}
	b.apply(b.hide.PointerEnter(b.clock()))
}

// PointerLeave forwards a pointer exit to the autohide controller.
func (b *Binding) PointerLeave() {
	if b.destroyed {
		return
	}
	b.apply(b.hide.PointerLeave(b.clock()))
}

// effectiveConfig returns the config minus refused embeds and slots shed by
// overflow fallback. Wing end sheds before wing start; the center group is
// never dropped.
func (b *Binding) effectiveConfig() config.PanelConfig {
	cfg := b.cfg
	cfg.PluginsWingStart = filterIDs(cfg.PluginsWingStart, b.failed)
	cfg.PluginsCenter = filterIDs(cfg.PluginsCenter, b.failed)
	cfg.PluginsWingEnd = filterIDs(cfg.PluginsWingEnd, b.failed)

	drop := b.droppedWings
	for drop > 0 && len(cfg.PluginsWingEnd) > 0 {
		cfg.PluginsWingEnd = cfg.PluginsWingEnd[:len(cfg.PluginsWingEnd)-1]
		drop--
	}
	for drop > 0 && len(cfg.PluginsWingStart) > 0 {
		cfg.PluginsWingStart = cfg.PluginsWingStart[:len(cfg.PluginsWingStart)-1]
		drop--
	}
	return cfg
}

func filterIDs(ids []string, skip map[string]bool) []string {
	if len(skip) == 0 {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out
}

// recompute runs the layout engine and commits on any geometry delta. A
// layout overflow sheds wing slots until the bar fits.
func (b *Binding) recompute() {
	for {
		cfg := b.effectiveConfig()
		res, err := layout.Compute(&cfg, b.output.Size, b.sizes)
		if err == nil {
			b.slots = res.Slots
			b.commit(res)
			return
		}

		wings := len(cfg.PluginsWingStart) + len(cfg.PluginsWingEnd)
		if wings == 0 {
			b.logger.Error("layout does not fit and no wing slots left to drop", "error", err)
			// The previous slot rectangles no longer describe a valid
			// layout; drop them so applets stop being placed against them.
			b.slots = nil
			return
		}
		b.droppedWings++
		b.logger.Warn("layout overflow, dropping a wing slot", "error", err, "dropped", b.droppedWings)
	}
}

// commit pushes the computed geometry to the compositor, but only the parts
// that changed since the last commit.
func (b *Binding) commit(res layout.Result) {
	full := b.thickness()
	now := b.clock()
	rendered := b.hide.RenderedThickness(now, full)

	margins := b.margins(full, rendered)
	excl := 0
	if b.cfg.ExclusiveZone {
		excl = b.hide.ExclusiveThickness(full)
		if excl == full {
			excl += b.cfg.EffectiveGap()
		}
	}

	sizeChanged := !b.hasCommitted || res.Surface != b.committed
	marginsChanged := margins != b.lastMargins
	exclChanged := excl != b.lastExcl
	if !sizeChanged && !marginsChanged && !exclChanged {
		b.position()
		return
	}

	if sizeChanged {
		b.surface.SetSize(res.Surface.Size())
	}
	b.surface.SetMargins(margins)
	b.surface.SetExclusiveZone(excl)
	if err := b.surface.Commit(); err != nil {
		b.logger.Warn("surface commit failed", "error", err)
		return
	}

	b.committed = res.Surface
	b.lastMargins = margins
	b.lastExcl = excl
	b.hasCommitted = true
	b.position()

	if sizeChanged {
		b.draw(res.Surface.Size())
	}
}

// position moves every embedded applet sub-surface into its slot.
func (b *Binding) position() {
	for _, s := range b.slots {
		if h, ok := b.handles[s.Applet]; ok {
			h.SetRegion(s.Rect)
		}
	}
}

// thickness is the full bar thickness on the anchor axis.
func (b *Binding) thickness() int {
	cross := b.output.Size.H
	if !b.cfg.Anchor.Horizontal() {
		cross = b.output.Size.W
	}
	return geometry.Clamp(b.cfg.Thickness(), 1, cross)
}

// margins computes the layer-surface margins: the anchor gap, minus the
// hidden portion of the bar while autohide is active.
func (b *Binding) margins(full, rendered int) geometry.Margins {
	offset := b.cfg.EffectiveGap() - (full - rendered)
	switch b.cfg.Anchor {
	case config.AnchorTop:
		return geometry.Margins{Top: offset}
	case config.AnchorBottom:
		return geometry.Margins{Bottom: offset}
	case config.AnchorLeft:
		return geometry.Margins{Left: offset}
	default:
		return geometry.Margins{Right: offset}
	}
}

// draw asks the render bridge for a fresh background frame. Failure keeps
// the previous frame and is only logged.
func (b *Binding) draw(size geometry.Size) {
	if b.bridge == nil {
		return
	}
	p := render.Params{
		Size:    size,
		Radius:  b.cfg.BorderRadius,
		Corners: render.CornersFor(b.cfg.Anchor, b.cfg.AnchorGap),
		Opacity: b.cfg.Opacity,
		Shadow:  b.cfg.AnchorGap,
	}
	// Floating bars get a hairline border so they read against the
	// wallpaper.
	if b.cfg.AnchorGap {
		p.BorderWidth = 1
		p.BorderColor = render.Color{R: 1, G: 1, B: 1, A: 0.12}
	}
	if b.cfg.Background.Style == config.BackgroundColor {
		p.Color = render.Color{
			R: b.cfg.Background.Red,
			G: b.cfg.Background.Green,
			B: b.cfg.Background.Blue,
			A: b.cfg.Background.Alpha,
		}
	}
	if err := b.bridge.DrawBackground(p); err != nil {
		b.logger.Warn("background draw failed, keeping previous frame", "error", err)
	}
}

// apply executes an autohide command: timers, animation ticks, and commits.
func (b *Binding) apply(cmd autohide.Command) {
	if cmd.ScheduleWait {
		if b.waitTimer != 0 {
			b.sched.Cancel(b.waitTimer)
		}
		gen := cmd.Gen
		b.waitTimer = b.sched.Schedule(cmd.WaitDelay, func(now time.Time) {
			b.waitTimer = 0
			if b.destroyed {
				return
			}
			b.apply(b.hide.WaitTimerFired(gen, now))
		})
	}

	// Every animation frame moves the margin, so recommit on those too.
	if cmd.Changed || cmd.Settled || cmd.Animate {
		b.recompute()
	}

	if cmd.Animate {
		b.ensureTicking()
	} else if cmd.Settled && b.tickTimer != 0 {
		b.sched.Cancel(b.tickTimer)
		b.tickTimer = 0
	}
}

// ensureTicking keeps one frame timer alive while a transition runs.
func (b *Binding) ensureTicking() {
	if b.tickTimer != 0 {
		return
	}
	b.tickTimer = b.sched.Schedule(frameInterval, func(now time.Time) {
		b.tickTimer = 0
		if b.destroyed {
			return
		}
		b.apply(b.hide.Tick(now))
	})
}

// Destroy tears the binding down: timers cancelled, applets withdrawn,
// surface destroyed. Safe to call once; the binding is unusable after.
func (b *Binding) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true

	if b.waitTimer != 0 {
		b.sched.Cancel(b.waitTimer)
		b.waitTimer = 0
	}
	if b.tickTimer != 0 {
		b.sched.Cancel(b.tickTimer)
		b.tickTimer = 0
	}
	for id, h := range b.handles {
		b.embedder.Withdraw(h)
		delete(b.handles, id)
	}
	b.surface.Destroy()
	b.logger.Info("binding destroyed")
}
