package layershell

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/geometry"
)

// Backend implements compositor.Compositor on top of GTK4 layer-shell
// windows. One Backend serves every panel surface in the process.
type Backend struct {
	app    *gtk.Application
	logger *slog.Logger
	sink   compositor.EventSink

	display *gdk.Display
	model   gio.ListModeller

	mu       sync.Mutex
	outputs  map[string]compositor.Output
	monitors map[string]*gdk.Monitor
	surfaces map[surfaceKey]*Surface
}

type surfaceKey struct {
	panel  string
	output string
}

// New creates a backend delivering compositor events to sink.
func New(app *gtk.Application, sink compositor.EventSink, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		app:      app,
		logger:   logger,
		sink:     sink,
		outputs:  make(map[string]compositor.Output),
		monitors: make(map[string]*gdk.Monitor),
		surfaces: make(map[surfaceKey]*Surface),
	}
}

// Start attaches to the default display and begins tracking monitors as
// outputs. Must run on the GTK main thread, after gtk.Init.
func (b *Backend) Start() error {
	b.display = gdk.DisplayGetDefault()
	if b.display == nil {
		return fmt.Errorf("no display available")
	}
	b.model = b.display.Monitors()
	if b.model == nil {
		return fmt.Errorf("no monitor list available")
	}

	type itemsChangedConnector interface {
		ConnectItemsChanged(func(position, removed, added uint)) coreglib.SignalHandle
	}
	if c, ok := b.model.(itemsChangedConnector); ok {
		c.ConnectItemsChanged(func(_, _, _ uint) {
			b.syncMonitors()
		})
	} else {
		b.logger.Warn("monitor list does not signal changes, hotplug disabled")
	}

	b.syncMonitors()
	b.logger.Info("layer-shell backend started", "outputs", len(b.outputs))
	return nil
}

// syncMonitors reconciles the output set against the gdk monitor list and
// emits add/remove/change events. GTK main thread only.
func (b *Backend) syncMonitors() {
	seen := make(map[string]bool)
	for i := uint(0); i < b.model.NItems(); i++ {
		mon := wrapMonitor(b.model.Item(i))
		if mon == nil {
			continue
		}
		out := outputFromMonitor(mon, int(i))
		seen[out.ID] = true

		b.mu.Lock()
		prev, known := b.outputs[out.ID]
		b.outputs[out.ID] = out
		b.monitors[out.ID] = mon
		b.mu.Unlock()

		if !known {
			id := out.ID
			mon.NotifyProperty("geometry", func() {
				b.monitorChanged(id)
			})
			mon.NotifyProperty("scale-factor", func() {
				b.monitorChanged(id)
			})
			b.logger.Debug("output added", "output", out.Name, "size", out.Size)
			b.sink(compositor.OutputAdded{Output: out})
		} else if prev != out {
			b.sink(compositor.OutputChanged{Output: out})
		}
	}

	b.mu.Lock()
	var gone []string
	for id := range b.outputs {
		if !seen[id] {
			gone = append(gone, id)
			delete(b.outputs, id)
			delete(b.monitors, id)
		}
	}
	b.mu.Unlock()

	for _, id := range gone {
		b.logger.Debug("output removed", "output", id)
		b.sink(compositor.OutputRemoved{ID: id})
	}
}

// monitorChanged re-reads one monitor's geometry and emits OutputChanged.
func (b *Backend) monitorChanged(id string) {
	b.mu.Lock()
	mon, ok := b.monitors[id]
	b.mu.Unlock()
	if !ok {
		return
	}

	out := outputFromMonitor(mon, 0)
	out.ID = id

	b.mu.Lock()
	prev := b.outputs[id]
	b.outputs[id] = out
	b.mu.Unlock()

	if prev != out {
		b.sink(compositor.OutputChanged{Output: out})
	}
}

// CreateSurface builds a layer-shell window on the GTK main thread and
// blocks until it exists. Safe to call from the event loop goroutine.
func (b *Backend) CreateSurface(opts compositor.SurfaceOptions) (compositor.Surface, error) {
	type result struct {
		s   *Surface
		err error
	}
	ch := make(chan result, 1)
	glib.IdleAdd(func() {
		s, err := b.createOnMain(opts)
		ch <- result{s: s, err: err}
	})
	r := <-ch
	if r.err != nil {
		return nil, r.err
	}
	return r.s, nil
}

// createOnMain does the actual window construction. GTK main thread only.
func (b *Backend) createOnMain(opts compositor.SurfaceOptions) (*Surface, error) {
	b.mu.Lock()
	mon, ok := b.monitors[opts.Output.ID]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("output %s has no monitor", opts.Output.ID)
	}

	s := newSurface(b, opts, mon)

	b.mu.Lock()
	b.surfaces[surfaceKey{panel: opts.Panel, output: opts.Output.ID}] = s
	b.mu.Unlock()
	return s, nil
}

// surfaceFor returns the live surface for a (panel, output) pair, or nil.
// Used by the applet host to find the container to embed into.
func (b *Backend) surfaceFor(panel, output string) *Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaces[surfaceKey{panel: panel, output: output}]
}

func (b *Backend) forgetSurface(s *Surface) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range b.surfaces {
		if v == s {
			delete(b.surfaces, k)
		}
	}
}

// outputFromMonitor translates a gdk monitor into an output descriptor.
// The connector name doubles as the stable identity; gdk never reuses a
// live monitor object for a different connector.
func outputFromMonitor(mon *gdk.Monitor, index int) compositor.Output {
	geo := mon.Geometry()
	id := mon.Connector()
	if id == "" {
		id = fmt.Sprintf("monitor-%d", index)
	}
	return compositor.Output{
		ID:       id,
		Name:     id,
		Size:     geometry.Size{W: geo.Width(), H: geo.Height()},
		Scale:    float64(mon.ScaleFactor()),
		Position: geometry.Point{X: geo.X(), Y: geo.Y()},
	}
}

// wrapMonitor wraps a coreglib.Object as a gdk.Monitor.
// gotk4 does not export its internal wrap function, so mirror its layout.
func wrapMonitor(obj *coreglib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*coreglib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
