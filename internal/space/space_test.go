package space

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/ledge/internal/applet"
	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/geometry"
	"github.com/jmylchreest/ledge/internal/render"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSurface struct {
	mu        sync.Mutex
	anchor    config.Anchor
	expand    bool
	layer     config.Layer
	keyboard  config.KeyboardInteractivity
	size      geometry.Size
	margins   geometry.Margins
	exclusive int
	commits   int
	commitErr error
	destroyed bool
	// commitsAfterDestroy counts commits issued against a dead surface,
	// which must never happen.
	commitsAfterDestroy int
}

func (s *fakeSurface) SetAnchor(a config.Anchor, expand bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchor, s.expand = a, expand
}

func (s *fakeSurface) SetLayer(l config.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layer = l
}

func (s *fakeSurface) SetKeyboardInteractivity(k config.KeyboardInteractivity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyboard = k
}

func (s *fakeSurface) SetExclusiveZone(px int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exclusive = px
}

func (s *fakeSurface) SetMargins(m geometry.Margins) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.margins = m
}

func (s *fakeSurface) SetSize(sz geometry.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = sz
}

func (s *fakeSurface) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}
	if s.destroyed {
		s.commitsAfterDestroy++
		return nil
	}
	s.commits++
	return nil
}

func (s *fakeSurface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

func (s *fakeSurface) snapshot() fakeSurface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fakeSurface{
		anchor: s.anchor, expand: s.expand, layer: s.layer, keyboard: s.keyboard,
		size: s.size, margins: s.margins, exclusive: s.exclusive,
		commits: s.commits, destroyed: s.destroyed,
		commitsAfterDestroy: s.commitsAfterDestroy,
	}
}

type fakeCompositor struct {
	mu       sync.Mutex
	surfaces []*fakeSurface
	// failFor refuses surface creation per output ID.
	failFor map[string]error
}

func newFakeCompositor() *fakeCompositor {
	return &fakeCompositor{failFor: make(map[string]error)}
}

func (c *fakeCompositor) CreateSurface(opts compositor.SurfaceOptions) (compositor.Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failFor[opts.Output.ID]; err != nil {
		return nil, err
	}
	s := &fakeSurface{}
	c.surfaces = append(c.surfaces, s)
	return s, nil
}

func (c *fakeCompositor) created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.surfaces)
}

type fakeHandle struct {
	req     applet.Request
	regions []geometry.Rect
}

func (h *fakeHandle) Request() applet.Request   { return h.req }
func (h *fakeHandle) SetRegion(r geometry.Rect) { h.regions = append(h.regions, r) }

type fakeEmbedder struct {
	mu        sync.Mutex
	handles   []*fakeHandle
	withdrawn int
	// failFor refuses embedding per applet id.
	failFor map[string]error
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{failFor: make(map[string]error)}
}

func (e *fakeEmbedder) Embed(req applet.Request) (applet.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failFor[req.Applet]; err != nil {
		return nil, &applet.EmbedError{Request: req, Err: err}
	}
	h := &fakeHandle{req: req}
	e.handles = append(e.handles, h)
	return h, nil
}

func (e *fakeEmbedder) Withdraw(h applet.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.withdrawn++
}

type fakeBridge struct {
	draws []render.Params
	err   error
}

func (b *fakeBridge) DrawBackground(p render.Params) error {
	if b.err != nil {
		return b.err
	}
	b.draws = append(b.draws, p)
	return nil
}

// fakeSched is a hand-cranked Scheduler: nothing fires until the test says
// so.
type fakeSched struct {
	next   int
	timers map[int]fakeTimer
}

type fakeTimer struct {
	d  time.Duration
	fn func(now time.Time)
}

func newFakeSched() *fakeSched {
	return &fakeSched{timers: make(map[int]fakeTimer)}
}

func (s *fakeSched) Schedule(d time.Duration, fn func(now time.Time)) int {
	s.next++
	s.timers[s.next] = fakeTimer{d: d, fn: fn}
	return s.next
}

func (s *fakeSched) Cancel(id int) {
	delete(s.timers, id)
}

// fireAll fires every currently pending timer in schedule order. Timers
// re-armed by a callback wait for the next crank.
func (s *fakeSched) fireAll(now time.Time) {
	ids := make([]int, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t, ok := s.timers[id]
		if !ok {
			continue
		}
		delete(s.timers, id)
		t.fn(now)
	}
}

func (s *fakeSched) pending() int {
	return len(s.timers)
}

// testClock is an adjustable time source.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testPanel(name string) config.PanelConfig {
	return config.PanelConfig{
		Name:                  name,
		Anchor:                config.AnchorTop,
		Layer:                 config.LayerTop,
		KeyboardInteractivity: config.KeyboardNone,
		Size:                  config.SizeS,
		Output:                config.OutputSelector(config.OutputAll),
		Background:            config.Background{Style: config.BackgroundColor, Alpha: 0.8},
		PluginsCenter:         []string{"clock"},
		Padding:               2,
		Spacing:               4,
		ExclusiveZone:         true,
		Opacity:               1,
	}
}

// compositor100 is a deliberately narrow output for overflow scenarios.
func compositor100() compositor.Output {
	return compositor.Output{
		ID:    "out-narrow",
		Name:  "DP-9",
		Size:  geometry.Size{W: 100, H: 1080},
		Scale: 1,
	}
}

func testOutput(id, name string) compositor.Output {
	return compositor.Output{
		ID:    id,
		Name:  name,
		Size:  geometry.Size{W: 1920, H: 1080},
		Scale: 1,
	}
}
