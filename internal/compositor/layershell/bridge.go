package layershell

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/render"
	"github.com/jmylchreest/ledge/internal/space"
)

var bridgeSeq atomic.Uint64

// NewBridgeFactory returns a factory producing a CSS-based render bridge
// per panel surface. Each bridge owns one provider keyed by a unique CSS
// class on its window, so repainting one panel never touches the others.
func NewBridgeFactory(logger *slog.Logger) space.BridgeFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(cs compositor.Surface) render.Bridge {
		s, ok := cs.(*Surface)
		if !ok {
			return nil
		}
		br := &cssBridge{
			logger:  logger,
			surface: s,
			class:   fmt.Sprintf("ledge-surface-%d", bridgeSeq.Add(1)),
		}
		glib.IdleAdd(func() {
			br.provider = gtk.NewCSSProvider()
			s.win.AddCSSClass(br.class)

			display := s.backend.display
			if display == nil {
				display = gdk.DisplayGetDefault()
			}
			if display == nil {
				logger.Warn("no display for background provider")
				return
			}
			gtk.StyleContextAddProviderForDisplay(
				display,
				br.provider,
				gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
			)
		})
		return br
	}
}

type cssBridge struct {
	logger   *slog.Logger
	surface  *Surface
	provider *gtk.CSSProvider
	class    string
}

// DrawBackground loads a fresh stylesheet for the surface's window.
func (b *cssBridge) DrawBackground(p render.Params) error {
	css := backgroundCSS(b.class, p)
	glib.IdleAdd(func() {
		if b.provider == nil {
			b.logger.Warn("background provider not ready, frame dropped")
			return
		}
		b.provider.LoadFromString(css)
	})
	return nil
}

// backgroundCSS renders the frame parameters as a window stylesheet. The
// zero color means the desktop style manager's window background.
func backgroundCSS(class string, p render.Params) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "window.%s {\n", class)

	if (p.Color == render.Color{}) {
		fmt.Fprintf(&sb, "  background-color: alpha(@window_bg_color, %.2f);\n", p.Opacity)
	} else {
		fmt.Fprintf(&sb, "  background-color: rgba(%d, %d, %d, %.2f);\n",
			channel(p.Color.R), channel(p.Color.G), channel(p.Color.B), p.Color.A*p.Opacity)
	}

	fmt.Fprintf(&sb, "  border-top-left-radius: %dpx;\n", cornerRadius(p.Corners.TopLeft, p.Radius))
	fmt.Fprintf(&sb, "  border-top-right-radius: %dpx;\n", cornerRadius(p.Corners.TopRight, p.Radius))
	fmt.Fprintf(&sb, "  border-bottom-left-radius: %dpx;\n", cornerRadius(p.Corners.BottomLeft, p.Radius))
	fmt.Fprintf(&sb, "  border-bottom-right-radius: %dpx;\n", cornerRadius(p.Corners.BottomRight, p.Radius))

	if p.BorderWidth > 0 {
		fmt.Fprintf(&sb, "  border: %dpx solid rgba(%d, %d, %d, %.2f);\n",
			p.BorderWidth,
			channel(p.BorderColor.R), channel(p.BorderColor.G), channel(p.BorderColor.B), p.BorderColor.A)
	}
	if p.Shadow {
		sb.WriteString("  box-shadow: 0 2px 6px rgba(0, 0, 0, 0.35);\n")
	}

	sb.WriteString("}\n")
	return sb.String()
}

func cornerRadius(rounded bool, radius int) int {
	if !rounded {
		return 0
	}
	return radius
}

func channel(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(v*255 + 0.5)
}
