// Package render paints panel backgrounds: a rounded-corner, bordered,
// translucent backdrop produced as an alpha-masked RGBA frame.
package render

import (
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
)

// Color is an unpremultiplied RGBA color with components in [0,1].
type Color struct {
	R, G, B, A float64
}

// Corners selects which corners of the backdrop are rounded.
type Corners struct {
	TopLeft     bool
	TopRight    bool
	BottomLeft  bool
	BottomRight bool
}

// CornersFor returns the rounded corners for a panel: the two corners away
// from the anchored edge, or all four when an anchor gap floats the bar off
// its edge.
func CornersFor(anchor config.Anchor, gap bool) Corners {
	if gap {
		return Corners{TopLeft: true, TopRight: true, BottomLeft: true, BottomRight: true}
	}
	switch anchor {
	case config.AnchorTop:
		return Corners{BottomLeft: true, BottomRight: true}
	case config.AnchorBottom:
		return Corners{TopLeft: true, TopRight: true}
	case config.AnchorLeft:
		return Corners{TopRight: true, BottomRight: true}
	default: // right
		return Corners{TopLeft: true, BottomLeft: true}
	}
}

// Params describes one background frame.
type Params struct {
	// Size is the surface size in device pixels.
	Size geometry.Size
	// Radius is the corner radius in device pixels, clamped to half the
	// smaller dimension.
	Radius  int
	Corners Corners
	Color   Color
	// Opacity multiplies the color's alpha for the whole frame.
	Opacity float64
	// BorderWidth draws an inset ring in BorderColor when positive.
	BorderWidth int
	BorderColor Color
	// Shadow requests a drop shadow; backends without one ignore it.
	Shadow bool
}

// Bridge is the background-drawing collaborator. A failed frame is logged
// by the caller and the previous frame persists; it is never a layout
// error.
type Bridge interface {
	DrawBackground(p Params) error
}
