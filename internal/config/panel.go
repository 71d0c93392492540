package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/ledge/internal/geometry"
)

// Anchor is the output edge a panel is locked to.
type Anchor string

// Anchor values.
const (
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
)

// Horizontal reports whether the panel's layout axis runs left to right.
func (a Anchor) Horizontal() bool {
	return a == AnchorTop || a == AnchorBottom
}

// Valid reports whether a is a known anchor edge.
func (a Anchor) Valid() bool {
	switch a {
	case AnchorTop, AnchorBottom, AnchorLeft, AnchorRight:
		return true
	}
	return false
}

// Layer is the compositor stacking layer a panel surface is placed on.
type Layer string

// Layer values, matching the layer-shell protocol.
const (
	LayerBackground Layer = "background"
	LayerBottom     Layer = "bottom"
	LayerTop        Layer = "top"
	LayerOverlay    Layer = "overlay"
)

// Valid reports whether l is a known stacking layer.
func (l Layer) Valid() bool {
	switch l {
	case LayerBackground, LayerBottom, LayerTop, LayerOverlay:
		return true
	}
	return false
}

// KeyboardInteractivity controls how a panel surface takes keyboard focus.
type KeyboardInteractivity string

// KeyboardInteractivity values, matching the layer-shell protocol.
const (
	KeyboardNone      KeyboardInteractivity = "none"
	KeyboardExclusive KeyboardInteractivity = "exclusive"
	KeyboardOnDemand  KeyboardInteractivity = "on_demand"
)

// Valid reports whether k is a known interactivity mode.
func (k KeyboardInteractivity) Valid() bool {
	switch k {
	case KeyboardNone, KeyboardExclusive, KeyboardOnDemand:
		return true
	}
	return false
}

// PanelSize is the discrete sizing class of a panel.
type PanelSize string

// PanelSize values.
const (
	SizeXS PanelSize = "xs"
	SizeS  PanelSize = "s"
	SizeM  PanelSize = "m"
	SizeL  PanelSize = "l"
	SizeXL PanelSize = "xl"
)

// Valid reports whether s is a known size class.
func (s PanelSize) Valid() bool {
	switch s {
	case SizeXS, SizeS, SizeM, SizeL, SizeXL:
		return true
	}
	return false
}

// Thickness returns the bar thickness in logical pixels for the size class.
func (s PanelSize) Thickness() int {
	switch s {
	case SizeXS:
		return 24
	case SizeS:
		return 32
	case SizeM:
		return 36
	case SizeL:
		return 48
	case SizeXL:
		return 64
	default:
		return 36
	}
}

// IconSize returns the applet icon size in logical pixels for the size class.
func (s PanelSize) IconSize() int {
	switch s {
	case SizeXS:
		return 18
	case SizeS:
		return 24
	case SizeM:
		return 36
	case SizeL:
		return 48
	case SizeXL:
		return 64
	default:
		return 36
	}
}

// MaxThickness returns the upper bound on the bar thickness for the size
// class, before padding is subtracted. Applets reporting a larger thickness
// are clamped.
func (s PanelSize) MaxThickness() int {
	switch s {
	case SizeXS:
		return 60
	case SizeS:
		return 80
	case SizeM:
		return 100
	case SizeL:
		return 120
	case SizeXL:
		return 140
	default:
		return 100
	}
}

// Output selector well-known values. Anything else names a specific output.
const (
	OutputAll    = "all"
	OutputActive = "active"
)

// OutputSelector chooses which outputs a panel appears on: "all", "active",
// or the name of a specific output.
type OutputSelector string

// MatchesName reports whether the selector matches the named output.
// The "active" selector is resolved by the space manager, not here.
func (o OutputSelector) MatchesName(name string) bool {
	switch string(o) {
	case OutputAll:
		return true
	case OutputActive:
		return false
	default:
		return string(o) == name
	}
}

// Background describes how a panel's backdrop is painted.
type Background struct {
	// Style is "theme" for the desktop style manager's color, or "color"
	// for the explicit RGBA below.
	Style string  `toml:"style" yaml:"style"`
	Red   float64 `toml:"red" yaml:"red"`
	Green float64 `toml:"green" yaml:"green"`
	Blue  float64 `toml:"blue" yaml:"blue"`
	Alpha float64 `toml:"alpha" yaml:"alpha"`
}

// Background style values.
const (
	BackgroundTheme = "theme"
	BackgroundColor = "color"
)

// AutoHide configures the hide-on-idle behavior of a panel.
type AutoHide struct {
	// WaitMS is how long the pointer must stay away before hiding starts.
	WaitMS int `toml:"wait_ms" yaml:"wait_ms"`
	// TransitionMS is the duration of the hide/show animation.
	TransitionMS int `toml:"transition_ms" yaml:"transition_ms"`
	// HandlePX is the strip left visible at the anchor edge while hidden.
	HandlePX int `toml:"handle_px" yaml:"handle_px"`
}

// Wait returns the hide delay as a duration.
func (a AutoHide) Wait() time.Duration {
	return time.Duration(a.WaitMS) * time.Millisecond
}

// Transition returns the animation duration.
func (a AutoHide) Transition() time.Duration {
	return time.Duration(a.TransitionMS) * time.Millisecond
}

// PanelConfig describes one named panel or dock instance.
type PanelConfig struct {
	Name                  string                `toml:"name" yaml:"name"`
	Anchor                Anchor                `toml:"anchor" yaml:"anchor"`
	AnchorGap             bool                  `toml:"anchor_gap" yaml:"anchor_gap"`
	Layer                 Layer                 `toml:"layer" yaml:"layer"`
	KeyboardInteractivity KeyboardInteractivity `toml:"keyboard_interactivity" yaml:"keyboard_interactivity"`
	Size                  PanelSize             `toml:"size" yaml:"size"`
	Output                OutputSelector        `toml:"output" yaml:"output"`
	Background            Background            `toml:"background" yaml:"background"`
	PluginsCenter         []string              `toml:"plugins_center" yaml:"plugins_center"`
	PluginsWingStart      []string              `toml:"plugins_wing_start" yaml:"plugins_wing_start"`
	PluginsWingEnd        []string              `toml:"plugins_wing_end" yaml:"plugins_wing_end"`
	ExpandToEdges         bool                  `toml:"expand_to_edges" yaml:"expand_to_edges"`
	Padding               int                   `toml:"padding" yaml:"padding"`
	Spacing               int                   `toml:"spacing" yaml:"spacing"`
	ExclusiveZone         bool                  `toml:"exclusive_zone" yaml:"exclusive_zone"`
	AutoHide              *AutoHide             `toml:"autohide" yaml:"autohide"`
	BorderRadius          int                   `toml:"border_radius" yaml:"border_radius"`
	Margin                int                   `toml:"margin" yaml:"margin"`
	Opacity               float64               `toml:"opacity" yaml:"opacity"`
}

// HasWings reports whether either wing carries applets.
func (p *PanelConfig) HasWings() bool {
	return len(p.PluginsWingStart) > 0 || len(p.PluginsWingEnd) > 0
}

// Expanded reports whether the panel stretches along the whole output edge.
// A panel with wings always expands, since the wings are pinned to the two
// ends of the edge.
func (p *PanelConfig) Expanded() bool {
	return p.ExpandToEdges || p.HasWings()
}

// Applets returns every configured applet id in layout order:
// wing start, center, wing end.
func (p *PanelConfig) Applets() []string {
	out := make([]string, 0, len(p.PluginsWingStart)+len(p.PluginsCenter)+len(p.PluginsWingEnd))
	out = append(out, p.PluginsWingStart...)
	out = append(out, p.PluginsCenter...)
	out = append(out, p.PluginsWingEnd...)
	return out
}

// EffectiveGap returns the pixel gap between the bar and its anchored edge.
func (p *PanelConfig) EffectiveGap() int {
	if !p.AnchorGap {
		return 0
	}
	return p.Margin
}

// Thickness returns the configured bar thickness clamped to the size class
// ceiling after padding.
func (p *PanelConfig) Thickness() int {
	t := p.Size.Thickness()
	max := p.Size.MaxThickness() - 2*p.Padding
	if max < 1 {
		max = 1
	}
	return geometry.Clamp(t, 1, max)
}

// Validate checks a single panel entry for schema violations. A failed panel
// is skipped by the space manager; it never aborts sibling panels.
func (p *PanelConfig) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Panel: p.Name, Field: "name", Reason: "must not be empty"}
	}
	if !p.Anchor.Valid() {
		return &ValidationError{Panel: p.Name, Field: "anchor", Reason: fmt.Sprintf("unknown edge %q", p.Anchor)}
	}
	if !p.Layer.Valid() {
		return &ValidationError{Panel: p.Name, Field: "layer", Reason: fmt.Sprintf("unknown layer %q", p.Layer)}
	}
	if !p.KeyboardInteractivity.Valid() {
		return &ValidationError{Panel: p.Name, Field: "keyboard_interactivity", Reason: fmt.Sprintf("unknown mode %q", p.KeyboardInteractivity)}
	}
	if !p.Size.Valid() {
		return &ValidationError{Panel: p.Name, Field: "size", Reason: fmt.Sprintf("unknown size class %q", p.Size)}
	}
	if p.Output == "" {
		return &ValidationError{Panel: p.Name, Field: "output", Reason: "must not be empty"}
	}
	if p.Padding < 0 {
		return &ValidationError{Panel: p.Name, Field: "padding", Reason: "must not be negative"}
	}
	if p.Spacing < 0 {
		return &ValidationError{Panel: p.Name, Field: "spacing", Reason: "must not be negative"}
	}
	if p.BorderRadius < 0 {
		return &ValidationError{Panel: p.Name, Field: "border_radius", Reason: "must not be negative"}
	}
	if p.Margin < 0 {
		return &ValidationError{Panel: p.Name, Field: "margin", Reason: "must not be negative"}
	}
	if p.Opacity < 0 || p.Opacity > 1 {
		return &ValidationError{Panel: p.Name, Field: "opacity", Reason: "must be within [0, 1]"}
	}
	if ah := p.AutoHide; ah != nil {
		if ah.WaitMS < 0 || ah.TransitionMS < 0 {
			return &ValidationError{Panel: p.Name, Field: "autohide", Reason: "durations must not be negative"}
		}
		if ah.HandlePX <= 0 {
			return &ValidationError{Panel: p.Name, Field: "autohide.handle_px", Reason: "must be positive"}
		}
	}

	// One applet id may govern at most one slot across center and wings.
	seen := make(map[string]bool)
	for _, id := range p.Applets() {
		if seen[id] {
			return &ConflictError{Panel: p.Name, Applet: id}
		}
		seen[id] = true
	}
	return nil
}

// ValidationError reports a schema violation in one panel entry.
type ValidationError struct {
	Panel  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("panel %q: field %s %s", e.Panel, e.Field, e.Reason)
}

// ConflictError reports an applet id appearing in more than one slot of the
// same panel.
type ConflictError struct {
	Panel  string
	Applet string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("panel %q: applet %q configured more than once", e.Panel, e.Applet)
}
