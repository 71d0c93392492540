package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
)

func opaque() Params {
	return Params{
		Size:    geometry.Size{W: 64, H: 32},
		Color:   Color{R: 0.2, G: 0.2, B: 0.2, A: 1},
		Opacity: 1,
	}
}

func TestCornersFor(t *testing.T) {
	tests := []struct {
		anchor config.Anchor
		gap    bool
		want   Corners
	}{
		{config.AnchorTop, false, Corners{BottomLeft: true, BottomRight: true}},
		{config.AnchorBottom, false, Corners{TopLeft: true, TopRight: true}},
		{config.AnchorLeft, false, Corners{TopRight: true, BottomRight: true}},
		{config.AnchorRight, false, Corners{TopLeft: true, BottomLeft: true}},
		{config.AnchorTop, true, Corners{TopLeft: true, TopRight: true, BottomLeft: true, BottomRight: true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CornersFor(tt.anchor, tt.gap))
	}
}

func TestPaint_NoRadiusFillsEverything(t *testing.T) {
	img := Paint(opaque())
	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 32, img.Bounds().Dy())

	for _, pt := range []geometry.Point{{X: 0, Y: 0}, {X: 63, Y: 0}, {X: 0, Y: 31}, {X: 63, Y: 31}, {X: 32, Y: 16}} {
		assert.NotZero(t, img.RGBAAt(pt.X, pt.Y).A, "pixel %v should be painted", pt)
	}
}

func TestPaint_RoundedCornersAreTransparent(t *testing.T) {
	p := opaque()
	p.Radius = 10
	p.Corners = Corners{TopLeft: true, TopRight: true}
	img := Paint(p)

	// The extreme corner pixel lies well outside the quarter circle.
	assert.Zero(t, img.RGBAAt(0, 0).A)
	assert.Zero(t, img.RGBAAt(63, 0).A)
	// Bottom corners are square and stay filled.
	assert.NotZero(t, img.RGBAAt(0, 31).A)
	assert.NotZero(t, img.RGBAAt(63, 31).A)
	// The circle center pixel is fully covered.
	assert.Equal(t, uint8(255), img.RGBAAt(10, 10).A)
}

func TestPaint_OpacityScalesAlpha(t *testing.T) {
	p := opaque()
	p.Opacity = 0.5
	img := Paint(p)

	a := img.RGBAAt(32, 16).A
	assert.InDelta(t, 128, int(a), 2)
}

func TestPaint_ZeroOpacityIsEmpty(t *testing.T) {
	p := opaque()
	p.Opacity = 0
	img := Paint(p)
	assert.Zero(t, img.RGBAAt(32, 16).A)
}

func TestPaint_BorderRing(t *testing.T) {
	p := opaque()
	p.BorderWidth = 2
	p.BorderColor = Color{R: 1, G: 1, B: 1, A: 1}
	img := Paint(p)

	// Border pixels are white, interior pixels keep the fill color.
	edge := img.RGBAAt(0, 16)
	assert.Equal(t, uint8(255), edge.R)
	inner := img.RGBAAt(32, 16)
	assert.Less(t, inner.R, uint8(128))
}

func TestPaint_RadiusClampedToHalfExtent(t *testing.T) {
	p := opaque()
	p.Size = geometry.Size{W: 10, H: 10}
	p.Radius = 100
	p.Corners = Corners{TopLeft: true, TopRight: true, BottomLeft: true, BottomRight: true}
	img := Paint(p)

	// Clamped to 5; the exact center survives.
	assert.NotZero(t, img.RGBAAt(5, 5).A)
	assert.Zero(t, img.RGBAAt(0, 0).A)
}

func TestPaint_Deterministic(t *testing.T) {
	p := opaque()
	p.Radius = 8
	p.Corners = CornersFor(config.AnchorBottom, false)

	first := Paint(p)
	second := Paint(p)
	assert.Equal(t, first.Pix, second.Pix)
}
