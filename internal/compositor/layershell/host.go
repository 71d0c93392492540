package layershell

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/ledge/internal/applet"
	"github.com/jmylchreest/ledge/internal/geometry"
)

// Host implements applet.Embedder with GTK widgets placed inside the panel
// surfaces' fixed containers.
type Host struct {
	backend *Backend
	logger  *slog.Logger
	report  applet.ReportSink
}

// NewHost creates an applet host. Size reports go to report, which must be
// safe to call from the GTK main thread.
func NewHost(backend *Backend, report applet.ReportSink, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{backend: backend, logger: logger, report: report}
}

// Embed realizes a widget for the applet and attaches it to the owning
// panel surface. Fails when the surface is not live.
func (h *Host) Embed(req applet.Request) (applet.Handle, error) {
	s := h.backend.surfaceFor(req.Panel, req.Output)
	if s == nil {
		return nil, &applet.EmbedError{
			Request: req,
			Err:     fmt.Errorf("no live surface for panel %q on output %s", req.Panel, req.Output),
		}
	}

	hh := &hostHandle{host: h, surface: s, req: req}
	done := make(chan struct{})
	glib.IdleAdd(func() {
		defer close(done)
		hh.widget = buildAppletWidget(req.Applet)
		s.attach(hh.widget)

		// Advertise the widget's natural size so layout can fit it.
		if h.report != nil {
			_, nat := gtk.BaseWidget(hh.widget).PreferredSize()
			h.report(applet.SizeReport{
				Request: req,
				Size:    geometry.Size{W: nat.Width(), H: nat.Height()},
			})
		}
	})
	<-done

	h.logger.Debug("applet embedded", "applet", req.Applet, "panel", req.Panel, "output", req.Output)
	return hh, nil
}

// Withdraw removes the applet's widget from its surface.
func (h *Host) Withdraw(handle applet.Handle) {
	hh, ok := handle.(*hostHandle)
	if !ok {
		return
	}
	glib.IdleAdd(func() {
		hh.surface.detach(hh.widget)
	})
}

type hostHandle struct {
	host    *Host
	surface *Surface
	req     applet.Request
	widget  gtk.Widgetter
}

func (h *hostHandle) Request() applet.Request {
	return h.req
}

// SetRegion moves the widget into its slot rectangle.
func (h *hostHandle) SetRegion(r geometry.Rect) {
	glib.IdleAdd(func() {
		h.surface.place(h.widget, r)
	})
}

// buildAppletWidget realizes the widget for a well-known applet id. Unknown
// ids fall back to a themed icon so misconfigured slots stay visible.
// GTK main thread only.
func buildAppletWidget(id string) gtk.Widgetter {
	switch id {
	case "clock":
		lbl := gtk.NewLabel(time.Now().Format("15:04"))
		lbl.AddCSSClass("ledge-applet")
		lbl.AddCSSClass("ledge-clock")
		glib.TimeoutSecondsAdd(30, func() bool {
			lbl.SetText(time.Now().Format("15:04"))
			return true
		})
		return lbl
	default:
		img := gtk.NewImageFromIconName(appletIconName(id))
		img.AddCSSClass("ledge-applet")
		return img
	}
}

func appletIconName(id string) string {
	switch id {
	case "workspaces":
		return "view-grid-symbolic"
	case "launcher":
		return "view-app-grid-symbolic"
	case "tray":
		return "application-menu-symbolic"
	case "battery":
		return "battery-symbolic"
	default:
		return id + "-symbolic"
	}
}
