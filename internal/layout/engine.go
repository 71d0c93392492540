// Package layout computes panel surface and applet slot geometry.
//
// The engine is a pure function of (panel config, output size, reported
// applet sizes): no I/O, no retained state. Identical inputs always yield
// identical rectangles.
package layout

import (
	"fmt"

	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
)

// Slot is one applet's computed rectangle within the panel surface.
type Slot struct {
	Applet string
	Rect   geometry.Rect
	// Provisional marks a slot laid out with the placeholder size because
	// the applet has not reported its real size yet.
	Provisional bool
}

// Result is the output of a layout pass.
type Result struct {
	// Surface is the panel rectangle relative to the output. Along the
	// layout axis a non-expanded bar is positioned by the compositor's
	// anchor centering, so that coordinate is always zero here.
	Surface geometry.Rect
	Slots   []Slot
	// Provisional is set when any slot used a placeholder size; the
	// layout should be recomputed once real size reports arrive.
	Provisional bool
}

// OverflowError reports that the configured applets do not fit on the output
// even at minimum sizes. Callers decide whether to drop wing slots or fail
// the panel.
type OverflowError struct {
	Panel     string
	Needed    int
	Available int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("panel %q: applets need %dpx but only %dpx available", e.Panel, e.Needed, e.Available)
}

// Compute lays out one panel for one output.
//
// Thickness along the anchor axis comes from the size class, clamped to the
// output. Extent along the layout axis is the full output dimension when the
// panel expands to the edges, otherwise the content length. Slots are walked
// wing start, center, wing end; when expanded, the end wing is pinned flush
// to the far edge and the center group is mid-justified.
func Compute(cfg *config.PanelConfig, output geometry.Size, sizes map[string]geometry.Size) (Result, error) {
	horizontal := cfg.Anchor.Horizontal()

	outLen, outCross := output.W, output.H
	if !horizontal {
		outLen, outCross = output.H, output.W
	}

	thickness := geometry.Clamp(cfg.Thickness(), 1, outCross)

	start := measure(cfg, cfg.PluginsWingStart, thickness, sizes)
	center := measure(cfg, cfg.PluginsCenter, thickness, sizes)
	end := measure(cfg, cfg.PluginsWingEnd, thickness, sizes)

	groups := 0
	for _, g := range [...]group{start, center, end} {
		if len(g.items) > 0 {
			groups++
		}
	}

	content := start.length + center.length + end.length
	needed := content + 2*cfg.Padding
	if groups > 1 {
		needed += cfg.Spacing * (groups - 1)
	}
	if needed > outLen {
		return Result{}, &OverflowError{Panel: cfg.Name, Needed: needed, Available: outLen}
	}

	extent := needed
	if cfg.Expanded() {
		extent = outLen
	}

	slots := make([]Slot, 0, len(start.items)+len(center.items)+len(end.items))

	// Wing start flows from the near edge.
	offset := cfg.Padding
	offset = place(&slots, start, offset, cfg.Spacing, thickness)

	// The center group is mid-justified across the whole extent, pushed
	// aside only if it would collide with a wing.
	centerOffset := (extent - center.length) / 2
	if len(start.items) > 0 && centerOffset < offset+cfg.Spacing {
		centerOffset = offset + cfg.Spacing
	}
	endOffset := extent - cfg.Padding - end.length
	if len(end.items) > 0 && centerOffset+center.length+cfg.Spacing > endOffset {
		centerOffset = endOffset - cfg.Spacing - center.length
	}
	if !cfg.Expanded() {
		// Non-expanded bars flow all groups sequentially.
		centerOffset = offset
		if len(start.items) > 0 && len(center.items) > 0 {
			centerOffset += cfg.Spacing
		}
	}
	centerEnd := place(&slots, center, centerOffset, cfg.Spacing, thickness)

	// Wing end is pinned flush to the far edge when expanded.
	if !cfg.Expanded() {
		endOffset = centerEnd
		if len(end.items) > 0 && (len(center.items) > 0 || len(start.items) > 0) {
			endOffset += cfg.Spacing
		}
	}
	place(&slots, end, endOffset, cfg.Spacing, thickness)

	result := Result{
		Surface:     surfaceRect(cfg, output, extent, thickness),
		Slots:       orient(slots, horizontal),
		Provisional: start.provisional || center.provisional || end.provisional,
	}
	return result, nil
}

// group is one measured applet run in axis-neutral coordinates.
type group struct {
	items       []item
	length      int
	provisional bool
}

type item struct {
	applet      string
	length      int
	cross       int
	provisional bool
}

// measure resolves each applet's requested size, substituting the
// conservative placeholder for applets that have not reported yet.
func measure(cfg *config.PanelConfig, applets []string, thickness int, sizes map[string]geometry.Size) group {
	g := group{items: make([]item, 0, len(applets))}
	innerMax := thickness - 2*cfg.Padding
	if innerMax < 1 {
		innerMax = 1
	}
	placeholder := geometry.Clamp(cfg.Size.IconSize(), 1, innerMax)

	for _, id := range applets {
		it := item{applet: id}
		if sz, ok := sizes[id]; ok && !sz.IsZero() {
			if cfg.Anchor.Horizontal() {
				it.length, it.cross = sz.W, sz.H
			} else {
				it.length, it.cross = sz.H, sz.W
			}
			it.cross = geometry.Clamp(it.cross, 1, innerMax)
			if it.length < 1 {
				it.length = 1
			}
		} else {
			it.length, it.cross = placeholder, placeholder
			it.provisional = true
			g.provisional = true
		}
		g.items = append(g.items, it)
	}

	for i, it := range g.items {
		g.length += it.length
		if i > 0 {
			g.length += cfg.Spacing
		}
	}
	return g
}

// place appends the group's slots starting at offset and returns the offset
// just past the group's last item. Slots are built axis-neutral with the
// layout axis in X; orient flips them afterwards for vertical panels.
func place(slots *[]Slot, g group, offset, spacing, thickness int) int {
	for i, it := range g.items {
		if i > 0 {
			offset += spacing
		}
		cross := (thickness - it.cross) / 2
		*slots = append(*slots, Slot{
			Applet:      it.applet,
			Rect:        geometry.Rect{X: offset, Y: cross, W: it.length, H: it.cross},
			Provisional: it.provisional,
		})
		offset += it.length
	}
	return offset
}

// orient maps axis-neutral slots onto output coordinates.
func orient(slots []Slot, horizontal bool) []Slot {
	if horizontal {
		return slots
	}
	for i, s := range slots {
		slots[i].Rect = geometry.Rect{X: s.Rect.Y, Y: s.Rect.X, W: s.Rect.H, H: s.Rect.W}
	}
	return slots
}

// surfaceRect positions the bar against its anchored edge, offset by the
// anchor gap. The layout-axis coordinate stays zero; anchoring centers a
// non-expanded bar on that axis.
func surfaceRect(cfg *config.PanelConfig, output geometry.Size, extent, thickness int) geometry.Rect {
	gap := cfg.EffectiveGap()
	switch cfg.Anchor {
	case config.AnchorTop:
		return geometry.Rect{X: 0, Y: gap, W: extent, H: thickness}
	case config.AnchorBottom:
		return geometry.Rect{X: 0, Y: output.H - thickness - gap, W: extent, H: thickness}
	case config.AnchorLeft:
		return geometry.Rect{X: gap, Y: 0, W: thickness, H: extent}
	default: // right
		return geometry.Rect{X: output.W - thickness - gap, Y: 0, W: thickness, H: extent}
	}
}
