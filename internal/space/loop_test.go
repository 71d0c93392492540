package space

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ledge/internal/applet"
	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
)

func newTestLoop(t *testing.T, panels ...config.PanelConfig) (*Loop, *fakeCompositor, *fakeEmbedder) {
	t.Helper()
	comp := newFakeCompositor()
	embed := newFakeEmbedder()
	mgr := NewManager(&config.Config{Panels: panels}, ManagerOptions{
		Compositor: comp,
		Embedder:   embed,
		Logger:     discardLogger(),
	})
	l := NewLoop(mgr, discardLogger())
	return l, comp, embed
}

func runLoop(t *testing.T, l *Loop) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("loop did not stop")
		}
	})
	return cancel
}

func TestLoopProcessesCompositorEvents(t *testing.T) {
	l, comp, _ := newTestLoop(t, testPanel("panel"))
	runLoop(t, l)

	l.PostCompositor(compositor.OutputAdded{Output: testOutput("out-1", "DP-1")})

	var n int
	l.Call(func(m *Manager) { n = len(m.Bindings()) })
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, comp.created())
}

func TestLoopDrainsOutputRemovalBeforeGeometryWork(t *testing.T) {
	l, comp, _ := newTestLoop(t, testPanel("panel"))

	// Queue everything before the loop starts so it all lands in one
	// batch: the removal must win over the size report even though the
	// report was posted first.
	l.PostCompositor(compositor.OutputAdded{Output: testOutput("out-1", "DP-1")})
	l.PostSizeReport(applet.SizeReport{
		Request: applet.Request{Applet: "clock", Panel: "panel", Output: "out-1"},
		Size:    geometry.Size{W: 200, H: 28},
	})
	l.PostCompositor(compositor.OutputRemoved{ID: "out-1"})

	runLoop(t, l)

	var n int
	l.Call(func(m *Manager) { n = len(m.Bindings()) })
	assert.Zero(t, n)

	require.Len(t, comp.surfaces, 1)
	s := comp.surfaces[0].snapshot()
	assert.True(t, s.destroyed)
	assert.Zero(t, s.commitsAfterDestroy)
}

func TestLoopReloadSwapsConfiguration(t *testing.T) {
	l, _, _ := newTestLoop(t, testPanel("panel"))
	runLoop(t, l)

	l.PostCompositor(compositor.OutputAdded{Output: testOutput("out-1", "DP-1")})
	l.PostReload(&config.Config{Panels: []config.PanelConfig{
		testPanel("panel"),
		testPanel("dock"),
	}})

	var names []string
	l.Call(func(m *Manager) { names = m.Panels() })
	assert.Equal(t, []string{"dock", "panel"}, names)
}

func TestLoopTimersFireOnLoopGoroutine(t *testing.T) {
	l, _, _ := newTestLoop(t)
	runLoop(t, l)

	fired := make(chan struct{})
	l.Call(func(m *Manager) {
		l.Schedule(time.Millisecond, func(now time.Time) {
			close(fired)
		})
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestLoopCancelledTimerNeverFires(t *testing.T) {
	l, _, _ := newTestLoop(t)
	runLoop(t, l)

	fired := make(chan struct{})
	l.Call(func(m *Manager) {
		id := l.Schedule(5*time.Millisecond, func(now time.Time) {
			close(fired)
		})
		l.Cancel(id)
	})

	time.Sleep(30 * time.Millisecond)
	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	default:
	}
}
