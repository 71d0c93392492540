package layershell

import (
	"sync"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
)

// pendingState accumulates surface declarations between commits, mirroring
// the layer-shell configure/commit model.
type pendingState struct {
	anchor    config.Anchor
	expand    bool
	layer     config.Layer
	keyboard  config.KeyboardInteractivity
	exclusive int
	margins   geometry.Margins
	size      geometry.Size
}

// Surface is one layer-shell window. The panel space mutates it through the
// compositor.Surface interface from the event loop goroutine; every GTK
// touch is marshalled to the main thread.
type Surface struct {
	backend *Backend
	opts    compositor.SurfaceOptions
	win     *gtk.Window
	fixed   *gtk.Fixed

	mu        sync.Mutex
	pending   pendingState
	shown     bool
	destroyed bool
}

// newSurface builds the window. GTK main thread only.
func newSurface(b *Backend, opts compositor.SurfaceOptions, mon *gdk.Monitor) *Surface {
	s := &Surface{backend: b, opts: opts}

	s.win = gtk.NewWindow()
	if b.app != nil {
		s.win.SetApplication(b.app)
	}
	s.win.SetDecorated(false)
	s.win.SetResizable(false)
	s.win.AddCSSClass("ledge-panel")

	layershell.InitForWindow(s.win)
	layershell.SetNamespace(s.win, opts.Namespace)
	layershell.SetMonitor(s.win, mon)

	s.fixed = gtk.NewFixed()
	s.win.SetChild(s.fixed)

	motion := gtk.NewEventControllerMotion()
	motion.ConnectEnter(func(x, y float64) {
		b.sink(compositor.PointerEnter{Surface: s, Pos: geometry.Point{X: int(x), Y: int(y)}})
	})
	motion.ConnectLeave(func() {
		b.sink(compositor.PointerLeave{Surface: s})
	})
	motion.ConnectMotion(func(x, y float64) {
		b.sink(compositor.PointerMotion{Surface: s, Pos: geometry.Point{X: int(x), Y: int(y)}})
	})
	s.win.AddController(motion)

	s.pending = pendingState{
		anchor:   opts.Anchor,
		layer:    opts.Layer,
		keyboard: opts.Keyboard,
	}
	return s
}

// SetAnchor declares the anchored edge. An expanded bar also anchors the
// two perpendicular edges so it spans the output.
func (s *Surface) SetAnchor(a config.Anchor, expand bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.anchor = a
	s.pending.expand = expand
}

// SetLayer declares the stacking layer.
func (s *Surface) SetLayer(l config.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.layer = l
}

// SetKeyboardInteractivity declares the keyboard mode.
func (s *Surface) SetKeyboardInteractivity(k config.KeyboardInteractivity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.keyboard = k
}

// SetExclusiveZone declares the reserved thickness in pixels.
func (s *Surface) SetExclusiveZone(px int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.exclusive = px
}

// SetMargins declares the edge margins.
func (s *Surface) SetMargins(m geometry.Margins) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.margins = m
}

// SetSize declares the surface size in logical pixels.
func (s *Surface) SetSize(size geometry.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.size = size
}

// Commit applies the accumulated declarations on the GTK main thread. The
// window is mapped on the first commit.
func (s *Surface) Commit() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	st := s.pending
	first := !s.shown
	s.shown = true
	s.mu.Unlock()

	glib.IdleAdd(func() {
		s.applyOnMain(st, first)
	})
	return nil
}

func (s *Surface) applyOnMain(st pendingState, first bool) {
	layershell.SetLayer(s.win, gtkLayer(st.layer))
	layershell.SetKeyboardMode(s.win, gtkKeyboardMode(st.keyboard))

	layershell.SetAnchor(s.win, layershell.LayerShellEdgeTop, false)
	layershell.SetAnchor(s.win, layershell.LayerShellEdgeBottom, false)
	layershell.SetAnchor(s.win, layershell.LayerShellEdgeLeft, false)
	layershell.SetAnchor(s.win, layershell.LayerShellEdgeRight, false)
	switch st.anchor {
	case config.AnchorTop:
		layershell.SetAnchor(s.win, layershell.LayerShellEdgeTop, true)
		if st.expand {
			layershell.SetAnchor(s.win, layershell.LayerShellEdgeLeft, true)
			layershell.SetAnchor(s.win, layershell.LayerShellEdgeRight, true)
		}
	case config.AnchorBottom:
		layershell.SetAnchor(s.win, layershell.LayerShellEdgeBottom, true)
		if st.expand {
			layershell.SetAnchor(s.win, layershell.LayerShellEdgeLeft, true)
			layershell.SetAnchor(s.win, layershell.LayerShellEdgeRight, true)
		}
	case config.AnchorLeft:
		layershell.SetAnchor(s.win, layershell.LayerShellEdgeLeft, true)
		if st.expand {
			layershell.SetAnchor(s.win, layershell.LayerShellEdgeTop, true)
			layershell.SetAnchor(s.win, layershell.LayerShellEdgeBottom, true)
		}
	case config.AnchorRight:
		layershell.SetAnchor(s.win, layershell.LayerShellEdgeRight, true)
		if st.expand {
			layershell.SetAnchor(s.win, layershell.LayerShellEdgeTop, true)
			layershell.SetAnchor(s.win, layershell.LayerShellEdgeBottom, true)
		}
	}

	layershell.SetMargin(s.win, layershell.LayerShellEdgeTop, st.margins.Top)
	layershell.SetMargin(s.win, layershell.LayerShellEdgeBottom, st.margins.Bottom)
	layershell.SetMargin(s.win, layershell.LayerShellEdgeLeft, st.margins.Left)
	layershell.SetMargin(s.win, layershell.LayerShellEdgeRight, st.margins.Right)
	layershell.SetExclusiveZone(s.win, st.exclusive)

	if st.size.W > 0 && st.size.H > 0 {
		s.win.SetDefaultSize(st.size.W, st.size.H)
		s.win.SetSizeRequest(st.size.W, st.size.H)
	}
	if first {
		s.win.SetVisible(true)
	}
}

// Destroy tears the window down on the GTK main thread.
func (s *Surface) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.mu.Unlock()

	s.backend.forgetSurface(s)
	glib.IdleAdd(func() {
		s.win.Destroy()
	})
}

// place positions an applet widget inside the surface. Main thread only.
func (s *Surface) place(w gtk.Widgetter, r geometry.Rect) {
	s.fixed.Move(w, float64(r.X), float64(r.Y))
	widget := gtk.BaseWidget(w)
	widget.SetSizeRequest(r.W, r.H)
}

// attach adds an applet widget at an initial position. Main thread only.
func (s *Surface) attach(w gtk.Widgetter) {
	s.fixed.Put(w, 0, 0)
}

// detach removes an applet widget. Main thread only.
func (s *Surface) detach(w gtk.Widgetter) {
	s.fixed.Remove(w)
}

func gtkLayer(l config.Layer) layershell.LayerShellLayer {
	switch l {
	case config.LayerBackground:
		return layershell.LayerShellLayerBackground
	case config.LayerBottom:
		return layershell.LayerShellLayerBottom
	case config.LayerOverlay:
		return layershell.LayerShellLayerOverlay
	default:
		return layershell.LayerShellLayerTop
	}
}

func gtkKeyboardMode(k config.KeyboardInteractivity) layershell.LayerShellKeyboardMode {
	switch k {
	case config.KeyboardExclusive:
		return layershell.LayerShellKeyboardModeExclusive
	case config.KeyboardOnDemand:
		return layershell.LayerShellKeyboardModeOnDemand
	default:
		return layershell.LayerShellKeyboardModeNone
	}
}
