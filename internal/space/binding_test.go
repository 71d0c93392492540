package space

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ledge/internal/autohide"
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
)

type bindingHarness struct {
	comp  *fakeCompositor
	embed *fakeEmbedder
	sched *fakeSched
	clock *testClock
}

func newBindingHarness() *bindingHarness {
	return &bindingHarness{
		comp:  newFakeCompositor(),
		embed: newFakeEmbedder(),
		sched: newFakeSched(),
		clock: newTestClock(),
	}
}

func (h *bindingHarness) bind(t *testing.T, cfg config.PanelConfig) *Binding {
	t.Helper()
	b, err := NewBinding(cfg, testOutput("out-1", "DP-1"), h.comp, h.embed, nil,
		h.sched, h.clock.Now, discardLogger())
	require.NoError(t, err)
	return b
}

func (h *bindingHarness) surface() *fakeSurface {
	return h.comp.surfaces[0]
}

func TestNewBindingCommitsInitialGeometry(t *testing.T) {
	h := newBindingHarness()
	b := h.bind(t, testPanel("panel"))

	s := h.surface().snapshot()
	assert.Equal(t, config.AnchorTop, s.anchor)
	assert.False(t, s.expand)
	assert.Equal(t, config.LayerTop, s.layer)
	assert.Equal(t, 1, s.commits)

	// One provisional icon-sized slot plus padding on both sides.
	assert.Equal(t, geometry.Size{W: 28, H: 32}, s.size)
	assert.Equal(t, 32, s.exclusive)
	assert.Equal(t, geometry.Margins{}, s.margins)
	assert.Equal(t, geometry.Rect{W: 28, H: 32}, b.Committed())
}

func TestBindingRecommitsOnSizeReport(t *testing.T) {
	h := newBindingHarness()
	b := h.bind(t, testPanel("panel"))

	b.ReportSize("clock", geometry.Size{W: 200, H: 28})

	s := h.surface().snapshot()
	assert.Equal(t, 2, s.commits)
	assert.Equal(t, geometry.Size{W: 204, H: 32}, s.size)
	require.Len(t, b.Slots(), 1)
	assert.Equal(t, geometry.Rect{X: 2, Y: 2, W: 200, H: 28}, b.Slots()[0].Rect)
}

func TestBindingCommitsOnlyOnDelta(t *testing.T) {
	h := newBindingHarness()
	b := h.bind(t, testPanel("panel"))

	b.ReportSize("clock", geometry.Size{W: 200, H: 28})
	commits := h.surface().snapshot().commits

	// Identical report, identical geometry: nothing to commit.
	b.ReportSize("clock", geometry.Size{W: 200, H: 28})
	b.UpdateOutput(testOutput("out-1", "DP-1"))

	assert.Equal(t, commits, h.surface().snapshot().commits)
}

func TestBindingEmbedFailureLeavesSlotEmpty(t *testing.T) {
	h := newBindingHarness()
	h.embed.failFor["clock"] = errors.New("no host for applet")

	cfg := testPanel("panel")
	cfg.PluginsCenter = []string{"clock", "cpu"}
	b := h.bind(t, cfg)

	require.Len(t, h.embed.handles, 1)
	assert.Equal(t, "cpu", h.embed.handles[0].req.Applet)

	require.Len(t, b.Slots(), 1)
	assert.Equal(t, "cpu", b.Slots()[0].Applet)

	// A report for the failed applet must not resurrect it.
	b.ReportSize("clock", geometry.Size{W: 400, H: 28})
	require.Len(t, b.Slots(), 1)
}

func TestBindingOverflowShedsWingSlots(t *testing.T) {
	h := newBindingHarness()

	cfg := testPanel("panel")
	cfg.PluginsWingStart = []string{"workspaces"}
	cfg.PluginsCenter = []string{"clock"}
	cfg.PluginsWingEnd = []string{"tray"}
	cfg.Padding = 0
	cfg.Spacing = 0

	b, err := NewBinding(cfg, compositor100(), h.comp, h.embed, nil,
		h.sched, h.clock.Now, discardLogger())
	require.NoError(t, err)
	require.Len(t, b.Slots(), 3)

	// The end wing goes first.
	b.ReportSize("workspaces", geometry.Size{W: 60, H: 28})
	require.Len(t, b.Slots(), 2)
	assert.Equal(t, "workspaces", b.Slots()[0].Applet)
	assert.Equal(t, "clock", b.Slots()[1].Applet)

	// Then the start wing. The center group is never dropped.
	b.ReportSize("clock", geometry.Size{W: 60, H: 28})
	require.Len(t, b.Slots(), 1)
	assert.Equal(t, "clock", b.Slots()[0].Applet)
}

func TestBindingOverflowWithoutWingsClearsSlots(t *testing.T) {
	h := newBindingHarness()

	cfg := testPanel("panel")
	cfg.Padding = 0
	cfg.Spacing = 0

	b, err := NewBinding(cfg, compositor100(), h.comp, h.embed, nil,
		h.sched, h.clock.Now, discardLogger())
	require.NoError(t, err)
	require.Len(t, b.Slots(), 1)
	committed := b.Committed()

	// The center group cannot be shed, so an unresolvable overflow must
	// not leave the old slot rectangles behind.
	b.ReportSize("clock", geometry.Size{W: 120, H: 28})
	assert.Empty(t, b.Slots())
	assert.Equal(t, committed, b.Committed())

	// A report that fits again restores the layout.
	b.ReportSize("clock", geometry.Size{W: 40, H: 28})
	require.Len(t, b.Slots(), 1)
	assert.Equal(t, "clock", b.Slots()[0].Applet)
}

func autohidePanel(name string) config.PanelConfig {
	cfg := testPanel(name)
	cfg.AutoHide = &config.AutoHide{WaitMS: 500, TransitionMS: 200, HandlePX: 4}
	return cfg
}

func TestBindingAutohideStartsHidden(t *testing.T) {
	h := newBindingHarness()
	b := h.bind(t, autohidePanel("dock"))

	assert.Equal(t, autohide.StateHidden, b.HideState())

	s := h.surface().snapshot()
	assert.Equal(t, 4, s.exclusive)
	assert.Equal(t, -28, s.margins.Top)
}

func TestBindingAutohideShowAndHideCycle(t *testing.T) {
	h := newBindingHarness()
	b := h.bind(t, autohidePanel("dock"))

	// Pointer arrives on the handle: the bar animates out.
	b.PointerEnter(geometry.Point{})
	assert.Equal(t, autohide.StateShowing, b.HideState())
	assert.Equal(t, 1, h.sched.pending())

	h.clock.Advance(100 * time.Millisecond)
	h.sched.fireAll(h.clock.Now())
	assert.Equal(t, autohide.StateShowing, b.HideState())
	assert.Equal(t, -14, h.surface().snapshot().margins.Top)
	// Exclusive zone holds at the handle until the transition settles.
	assert.Equal(t, 4, h.surface().snapshot().exclusive)

	h.clock.Advance(100 * time.Millisecond)
	h.sched.fireAll(h.clock.Now())
	assert.Equal(t, autohide.StateShown, b.HideState())
	assert.Equal(t, 0, h.surface().snapshot().margins.Top)
	assert.Equal(t, 32, h.surface().snapshot().exclusive)
	assert.Equal(t, 0, h.sched.pending())

	// Pointer leaves: nothing moves until the wait elapses.
	b.PointerLeave()
	assert.Equal(t, autohide.StateShown, b.HideState())
	require.Equal(t, 1, h.sched.pending())

	h.clock.Advance(500 * time.Millisecond)
	h.sched.fireAll(h.clock.Now())
	assert.Equal(t, autohide.StateHiding, b.HideState())
	// Still reserving full thickness while hiding.
	assert.Equal(t, 32, h.surface().snapshot().exclusive)

	h.clock.Advance(200 * time.Millisecond)
	h.sched.fireAll(h.clock.Now())
	assert.Equal(t, autohide.StateHidden, b.HideState())
	assert.Equal(t, 4, h.surface().snapshot().exclusive)
	assert.Equal(t, -28, h.surface().snapshot().margins.Top)
}

func TestBindingStaleWaitTimerIsNoop(t *testing.T) {
	h := newBindingHarness()
	b := h.bind(t, autohidePanel("dock"))

	b.PointerEnter(geometry.Point{})
	h.clock.Advance(200 * time.Millisecond)
	h.sched.fireAll(h.clock.Now())
	require.Equal(t, autohide.StateShown, b.HideState())

	b.PointerLeave()
	require.Equal(t, 1, h.sched.pending())

	// Pointer returns before the wait elapses. The armed timer is now
	// stale; its fire must change nothing.
	h.clock.Advance(250 * time.Millisecond)
	b.PointerEnter(geometry.Point{})
	commits := h.surface().snapshot().commits

	h.clock.Advance(250 * time.Millisecond)
	h.sched.fireAll(h.clock.Now())
	assert.Equal(t, autohide.StateShown, b.HideState())
	assert.Equal(t, commits, h.surface().snapshot().commits)
}

func TestBindingDestroyReleasesEverything(t *testing.T) {
	h := newBindingHarness()
	b := h.bind(t, autohidePanel("dock"))

	b.PointerEnter(geometry.Point{})
	require.NotZero(t, h.sched.pending())

	b.Destroy()

	assert.Equal(t, 0, h.sched.pending())
	assert.Equal(t, 1, h.embed.withdrawn)
	assert.True(t, h.surface().snapshot().destroyed)

	// Late events against a destroyed binding are dropped.
	b.ReportSize("clock", geometry.Size{W: 300, H: 28})
	b.PointerLeave()
	assert.Zero(t, h.surface().snapshot().commitsAfterDestroy)
}
