package space

import (
	"log/slog"
	"reflect"
	"sort"
	"time"

	"github.com/jmylchreest/ledge/internal/applet"
	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
	"github.com/jmylchreest/ledge/internal/render"
)

// Key identifies one binding: a panel name paired with an output ID.
type Key struct {
	Panel  string
	Output string
}

// BridgeFactory produces a render bridge for one binding's surface. May be
// nil, in which case bindings skip background drawing.
type BridgeFactory func(surface compositor.Surface) render.Bridge

// Manager owns the registry of live bindings, keyed by (panel, output). All
// methods must be called from the event loop goroutine.
type Manager struct {
	logger *slog.Logger
	comp   compositor.Compositor
	embed  applet.Embedder
	bridge BridgeFactory
	sched  Scheduler
	clock  func() time.Time

	panels  []config.PanelConfig
	outputs map[string]compositor.Output
	// active is the output currently holding focus, targeted by the
	// "active" selector. Defaults to the first output that appears.
	active string

	bindings  map[Key]*Binding
	bySurface map[compositor.Surface]*Binding
}

// ManagerOptions carries the collaborators a Manager needs.
type ManagerOptions struct {
	Compositor compositor.Compositor
	Embedder   applet.Embedder
	Bridge     BridgeFactory
	Scheduler  Scheduler
	Clock      func() time.Time
	Logger     *slog.Logger
}

// NewManager creates an empty registry for the given panel set. Panels that
// fail validation are skipped with a diagnostic; their siblings are kept.
func NewManager(cfg *config.Config, opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	m := &Manager{
		logger:    logger,
		comp:      opts.Compositor,
		embed:     opts.Embedder,
		bridge:    opts.Bridge,
		sched:     opts.Scheduler,
		clock:     clock,
		outputs:   make(map[string]compositor.Output),
		bindings:  make(map[Key]*Binding),
		bySurface: make(map[compositor.Surface]*Binding),
	}
	m.panels = m.admit(cfg)
	return m
}

// admit validates the configured panels and returns the usable ones.
func (m *Manager) admit(cfg *config.Config) []config.PanelConfig {
	out := make([]config.PanelConfig, 0, len(cfg.Panels))
	seen := make(map[string]bool)
	for _, p := range cfg.Panels {
		if err := p.Validate(); err != nil {
			m.logger.Error("panel rejected", "panel", p.Name, "error", err)
			continue
		}
		if seen[p.Name] {
			m.logger.Error("panel rejected, duplicate name", "panel", p.Name)
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out
}

// Panels returns the names of the admitted panels, sorted.
func (m *Manager) Panels() []string {
	names := make([]string, 0, len(m.panels))
	for _, p := range m.panels {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Bindings returns the live bindings, ordered by key for stable iteration.
func (m *Manager) Bindings() []*Binding {
	keys := make([]Key, 0, len(m.bindings))
	for k := range m.bindings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Panel != keys[j].Panel {
			return keys[i].Panel < keys[j].Panel
		}
		return keys[i].Output < keys[j].Output
	})
	out := make([]*Binding, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.bindings[k])
	}
	return out
}

// Binding returns the binding for the key, or nil.
func (m *Manager) Binding(k Key) *Binding {
	return m.bindings[k]
}

// SetActiveOutput moves the "active" selector target and rebinds panels that
// follow it.
func (m *Manager) SetActiveOutput(id string) {
	if m.active == id {
		return
	}
	if _, ok := m.outputs[id]; !ok {
		m.logger.Warn("active output unknown, ignoring", "output", id)
		return
	}
	m.active = id
	m.sync()
}

// HandleOutputAdded registers a new output and creates the bindings whose
// selectors match it.
func (m *Manager) HandleOutputAdded(out compositor.Output) {
	m.outputs[out.ID] = out
	if m.active == "" {
		m.active = out.ID
	}
	m.logger.Info("output added", "output", out.Name, "id", out.ID, "size", out.Size)
	m.sync()
}

// HandleOutputRemoved destroys every binding on the output, synchronously:
// exactly one surface destruction per binding, before any later event is
// processed.
func (m *Manager) HandleOutputRemoved(id string) {
	out, ok := m.outputs[id]
	if !ok {
		return
	}
	delete(m.outputs, id)
	m.logger.Info("output removed", "output", out.Name, "id", id)

	for k, b := range m.bindings {
		if k.Output == id {
			m.dropBinding(k, b)
		}
	}
	if m.active == id {
		m.active = ""
		for oid := range m.outputs {
			if m.active == "" || oid < m.active {
				m.active = oid
			}
		}
		if m.active != "" {
			m.sync()
		}
	}
}

// HandleOutputChanged applies new output geometry: existing bindings on the
// output recompute, and surface creations that previously failed get
// retried.
func (m *Manager) HandleOutputChanged(out compositor.Output) {
	if _, ok := m.outputs[out.ID]; !ok {
		m.HandleOutputAdded(out)
		return
	}
	m.outputs[out.ID] = out
	for k, b := range m.bindings {
		if k.Output == out.ID {
			b.UpdateOutput(out)
		}
	}
	m.sync()
}

// HandlePointerEnter routes a pointer entry to the owning binding.
func (m *Manager) HandlePointerEnter(s compositor.Surface, pos geometry.Point) {
	if b := m.bySurface[s]; b != nil {
		b.PointerEnter(pos)
	}
}

// HandlePointerLeave routes a pointer exit to the owning binding.
func (m *Manager) HandlePointerLeave(s compositor.Surface) {
	if b := m.bySurface[s]; b != nil {
		b.PointerLeave()
	}
}

// HandleSizeReport routes an applet size report to the binding it names.
// Reports for bindings that no longer exist are dropped.
func (m *Manager) HandleSizeReport(r applet.SizeReport) {
	b := m.bindings[Key{Panel: r.Request.Panel, Output: r.Request.Output}]
	if b == nil {
		m.logger.Debug("size report for dead binding dropped",
			"panel", r.Request.Panel, "output", r.Request.Output, "applet", r.Request.Applet)
		return
	}
	b.ReportSize(r.Request.Applet, r.Size)
}

// Reload diffs the new configuration against the running panels, keyed by
// panel name. Unchanged panels keep their bindings untouched; changed or
// removed panels have theirs destroyed, and changed or added panels are
// bound fresh on matching outputs.
func (m *Manager) Reload(cfg *config.Config) {
	next := m.admit(cfg)

	prev := make(map[string]config.PanelConfig, len(m.panels))
	for _, p := range m.panels {
		prev[p.Name] = p
	}
	keep := make(map[string]bool, len(next))
	for _, p := range next {
		if old, ok := prev[p.Name]; ok && reflect.DeepEqual(old, p) {
			keep[p.Name] = true
		}
	}

	for k, b := range m.bindings {
		if !keep[k.Panel] {
			m.dropBinding(k, b)
		}
	}
	m.panels = next
	m.logger.Info("configuration reloaded", "panels", len(next), "kept", len(keep))
	m.sync()
}

// Shutdown destroys every binding.
func (m *Manager) Shutdown() {
	for k, b := range m.bindings {
		m.dropBinding(k, b)
	}
}

// matches resolves a panel's output selector against one output.
func (m *Manager) matches(p *config.PanelConfig, out compositor.Output) bool {
	if string(p.Output) == config.OutputActive {
		return out.ID == m.active
	}
	return p.Output.MatchesName(out.Name)
}

// sync reconciles the registry with the current panel and output sets:
// bindings that should exist but don't are created, and bindings whose
// selector no longer matches are destroyed. Creation failures are logged
// and retried on the next output event.
func (m *Manager) sync() {
	for k, b := range m.bindings {
		out, ok := m.outputs[k.Output]
		if !ok {
			m.dropBinding(k, b)
			continue
		}
		if p := m.panel(k.Panel); p == nil || !m.matches(p, out) {
			m.dropBinding(k, b)
		}
	}

	for i := range m.panels {
		p := &m.panels[i]
		for _, out := range m.outputs {
			if !m.matches(p, out) {
				continue
			}
			k := Key{Panel: p.Name, Output: out.ID}
			if _, ok := m.bindings[k]; ok {
				continue
			}
			b, err := NewBinding(*p, out, m.comp, m.embed, m.bridge, m.sched, m.clock, m.logger)
			if err != nil {
				m.logger.Warn("surface creation refused, will retry on next output event",
					"panel", p.Name, "output", out.Name, "error", err)
				continue
			}
			m.bindings[k] = b
			m.bySurface[b.surface] = b
		}
	}
}

func (m *Manager) panel(name string) *config.PanelConfig {
	for i := range m.panels {
		if m.panels[i].Name == name {
			return &m.panels[i]
		}
	}
	return nil
}

func (m *Manager) dropBinding(k Key, b *Binding) {
	delete(m.bindings, k)
	delete(m.bySurface, b.surface)
	b.Destroy()
}
