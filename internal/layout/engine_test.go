package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
)

func barConfig(anchor config.Anchor, size config.PanelSize) *config.PanelConfig {
	return &config.PanelConfig{
		Name:                  "Panel",
		Anchor:                anchor,
		Layer:                 config.LayerTop,
		KeyboardInteractivity: config.KeyboardNone,
		Size:                  size,
		Output:                config.OutputAll,
		Padding:               2,
		Spacing:               2,
		Opacity:               1,
	}
}

var fullHD = geometry.Size{W: 1920, H: 1080}

func TestCompute_CenteredSingleApplet(t *testing.T) {
	cfg := barConfig(config.AnchorTop, config.SizeS)
	cfg.PluginsCenter = []string{"clock"}

	res, err := Compute(cfg, fullHD, map[string]geometry.Size{
		"clock": {W: 200, H: 28},
	})
	require.NoError(t, err)

	assert.Equal(t, geometry.Rect{X: 0, Y: 0, W: 204, H: 32}, res.Surface)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, geometry.Rect{X: 2, Y: 2, W: 200, H: 28}, res.Slots[0].Rect)
	assert.False(t, res.Provisional)
}

func TestCompute_Deterministic(t *testing.T) {
	cfg := barConfig(config.AnchorTop, config.SizeM)
	cfg.ExpandToEdges = true
	cfg.PluginsWingStart = []string{"workspaces"}
	cfg.PluginsCenter = []string{"clock"}
	cfg.PluginsWingEnd = []string{"tray", "battery"}

	sizes := map[string]geometry.Size{
		"workspaces": {W: 120, H: 30},
		"clock":      {W: 90, H: 24},
		"tray":       {W: 60, H: 30},
		"battery":    {W: 28, H: 30},
	}

	first, err := Compute(cfg, fullHD, sizes)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Compute(cfg, fullHD, sizes)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompute_NoOverlap(t *testing.T) {
	tests := []struct {
		name   string
		anchor config.Anchor
		expand bool
	}{
		{"top expanded", config.AnchorTop, true},
		{"bottom dock", config.AnchorBottom, false},
		{"left expanded", config.AnchorLeft, true},
		{"right dock", config.AnchorRight, false},
	}

	sizes := map[string]geometry.Size{
		"a": {W: 100, H: 30}, "b": {W: 40, H: 20}, "c": {W: 90, H: 24},
		"d": {W: 60, H: 30}, "e": {W: 28, H: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := barConfig(tt.anchor, config.SizeM)
			cfg.ExpandToEdges = tt.expand
			cfg.PluginsWingStart = []string{"a", "b"}
			cfg.PluginsCenter = []string{"c"}
			cfg.PluginsWingEnd = []string{"d", "e"}

			res, err := Compute(cfg, fullHD, sizes)
			require.NoError(t, err)
			require.Len(t, res.Slots, 5)

			for i := range res.Slots {
				for j := i + 1; j < len(res.Slots); j++ {
					assert.False(t, res.Slots[i].Rect.Intersects(res.Slots[j].Rect),
						"slots %s and %s overlap: %v vs %v",
						res.Slots[i].Applet, res.Slots[j].Applet,
						res.Slots[i].Rect, res.Slots[j].Rect)
				}
			}
		})
	}
}

func TestCompute_EndWingPinnedToFarEdge(t *testing.T) {
	cfg := barConfig(config.AnchorTop, config.SizeM)
	cfg.ExpandToEdges = true
	cfg.PluginsWingEnd = []string{"tray", "battery"}

	sizes := map[string]geometry.Size{
		"tray":    {W: 60, H: 30},
		"battery": {W: 28, H: 30},
	}

	// The far edge position must hold regardless of center content.
	for _, center := range [][]string{nil, {"clock"}} {
		cfg.PluginsCenter = center
		sizes["clock"] = geometry.Size{W: 400, H: 24}

		res, err := Compute(cfg, fullHD, sizes)
		require.NoError(t, err)

		last := res.Slots[len(res.Slots)-1]
		assert.Equal(t, "battery", last.Applet)
		assert.Equal(t, 1920-cfg.Padding, last.Rect.X+last.Rect.W)

		// Wing total: 60 + 2 spacing + 28 = 90.
		tray := res.Slots[len(res.Slots)-2]
		assert.Equal(t, "tray", tray.Applet)
		assert.Equal(t, 1920-cfg.Padding-90, tray.Rect.X)
	}
}

func TestCompute_CenterMidJustifiedWhenExpanded(t *testing.T) {
	cfg := barConfig(config.AnchorTop, config.SizeM)
	cfg.ExpandToEdges = true
	cfg.PluginsCenter = []string{"clock"}

	res, err := Compute(cfg, fullHD, map[string]geometry.Size{
		"clock": {W: 100, H: 24},
	})
	require.NoError(t, err)

	assert.Equal(t, 1920, res.Surface.W)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, (1920-100)/2, res.Slots[0].Rect.X)
}

func TestCompute_VerticalOrientation(t *testing.T) {
	cfg := barConfig(config.AnchorLeft, config.SizeS)
	cfg.PluginsCenter = []string{"launcher"}

	res, err := Compute(cfg, fullHD, map[string]geometry.Size{
		"launcher": {W: 28, H: 200},
	})
	require.NoError(t, err)

	// Thickness on X, content length on Y.
	assert.Equal(t, geometry.Rect{X: 0, Y: 0, W: 32, H: 204}, res.Surface)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, geometry.Rect{X: 2, Y: 2, W: 28, H: 200}, res.Slots[0].Rect)
}

func TestCompute_ProvisionalPlaceholder(t *testing.T) {
	cfg := barConfig(config.AnchorTop, config.SizeM)
	cfg.PluginsCenter = []string{"clock", "tray"}

	res, err := Compute(cfg, fullHD, map[string]geometry.Size{
		"clock": {W: 90, H: 24},
	})
	require.NoError(t, err)

	assert.True(t, res.Provisional)
	require.Len(t, res.Slots, 2)
	assert.False(t, res.Slots[0].Provisional)
	assert.True(t, res.Slots[1].Provisional)
	// Placeholder is the icon size square, clamped inside the bar.
	assert.Equal(t, 32, res.Slots[1].Rect.W)
}

func TestCompute_Overflow(t *testing.T) {
	cfg := barConfig(config.AnchorTop, config.SizeM)
	cfg.PluginsCenter = []string{"wide"}

	_, err := Compute(cfg, geometry.Size{W: 300, H: 200}, map[string]geometry.Size{
		"wide": {W: 400, H: 24},
	})
	require.Error(t, err)

	var overflow *OverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 404, overflow.Needed)
	assert.Equal(t, 300, overflow.Available)
}

func TestCompute_AnchorGapOffsetsSurface(t *testing.T) {
	cfg := barConfig(config.AnchorBottom, config.SizeL)
	cfg.AnchorGap = true
	cfg.Margin = 6
	cfg.PluginsCenter = []string{"launcher"}

	res, err := Compute(cfg, fullHD, map[string]geometry.Size{
		"launcher": {W: 300, H: 44},
	})
	require.NoError(t, err)

	assert.Equal(t, 1080-48-6, res.Surface.Y)
	assert.Equal(t, 48, res.Surface.H)
}

func TestCompute_ThicknessClampedToOutput(t *testing.T) {
	cfg := barConfig(config.AnchorTop, config.SizeXL)
	cfg.PluginsCenter = []string{"clock"}

	res, err := Compute(cfg, geometry.Size{W: 400, H: 40}, map[string]geometry.Size{
		"clock": {W: 90, H: 24},
	})
	require.NoError(t, err)
	assert.Equal(t, 40, res.Surface.H)
}
