package space

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/ledge/internal/applet"
	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/sched"
)

// eventQueueDepth bounds how many posted events can be pending. The backend
// blocks once the queue is full, which back-pressures pointer motion floods.
const eventQueueDepth = 256

type event interface{}

type compositorEvent struct{ ev compositor.Event }
type sizeReportEvent struct{ report applet.SizeReport }
type timerEvent struct{ id int }
type reloadEvent struct{ cfg *config.Config }
type callEvent struct{ fn func(m *Manager) }

// Loop serializes every mutation of the panel space onto one goroutine. The
// compositor backend, the applet host, timers, and the control surface all
// feed it through Post-style methods; handlers run strictly one at a time.
//
// Within each batch of pending events, output additions and removals are
// applied before anything else, so geometry work never runs against an
// output that is already gone.
type Loop struct {
	logger *slog.Logger
	mgr    *Manager

	events chan event
	timers *sched.Service
	fns    map[int]func(now time.Time)
}

// NewLoop wires a loop around the manager.
func NewLoop(mgr *Manager, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		logger: logger,
		mgr:    mgr,
		events: make(chan event, eventQueueDepth),
		fns:    make(map[int]func(now time.Time)),
	}
	l.timers = sched.NewService(func(ev sched.Event) {
		l.events <- timerEvent{id: ev.ID}
	})
	// The loop is the natural scheduler for the manager's bindings: fires
	// land on the loop goroutine like every other event.
	if mgr.sched == nil {
		mgr.sched = l
	}
	return l
}

// PostCompositor enqueues a compositor event. Satisfies compositor.EventSink.
func (l *Loop) PostCompositor(ev compositor.Event) {
	l.events <- compositorEvent{ev: ev}
}

// PostSizeReport enqueues an applet size report. Satisfies applet.ReportSink.
func (l *Loop) PostSizeReport(r applet.SizeReport) {
	l.events <- sizeReportEvent{report: r}
}

// PostReload enqueues a configuration swap.
func (l *Loop) PostReload(cfg *config.Config) {
	l.events <- reloadEvent{cfg: cfg}
}

// Call runs fn on the loop goroutine with the manager. Used by the control
// surface to read state without racing the handlers.
func (l *Loop) Call(fn func(m *Manager)) {
	done := make(chan struct{})
	l.events <- callEvent{fn: func(m *Manager) {
		fn(m)
		close(done)
	}}
	<-done
}

// Schedule arms a one-shot timer whose callback runs on the loop goroutine.
// Must be called from the loop goroutine (i.e. from within a handler).
func (l *Loop) Schedule(d time.Duration, fn func(now time.Time)) int {
	id := l.timers.After(d)
	l.fns[id] = fn
	return id
}

// Cancel disarms a scheduled timer. A fire already in flight becomes a
// no-op because its callback is gone.
func (l *Loop) Cancel(id int) {
	l.timers.Cancel(id)
	delete(l.fns, id)
}

// Run processes events until the context is cancelled, then tears the
// manager down.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("event loop running")
	defer func() {
		l.timers.CancelAll()
		l.mgr.Shutdown()
		l.logger.Debug("event loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-l.events:
			l.process(l.drain(ev))
		}
	}
}

// drain collects everything already queued behind the first event so the
// batch can be reordered as one unit.
func (l *Loop) drain(first event) []event {
	batch := []event{first}
	for {
		select {
		case ev := <-l.events:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
}

// process applies one batch: output lifecycle first, then the rest. Events
// aimed at bindings the first pass destroyed fall through harmlessly, since
// the registry lookup no longer finds them.
func (l *Loop) process(batch []event) {
	for _, ev := range batch {
		ce, ok := ev.(compositorEvent)
		if !ok {
			continue
		}
		switch e := ce.ev.(type) {
		case compositor.OutputAdded:
			l.mgr.HandleOutputAdded(e.Output)
		case compositor.OutputRemoved:
			l.mgr.HandleOutputRemoved(e.ID)
		case compositor.OutputChanged:
			l.mgr.HandleOutputChanged(e.Output)
		}
	}

	for _, ev := range batch {
		switch e := ev.(type) {
		case compositorEvent:
			switch ce := e.ev.(type) {
			case compositor.PointerEnter:
				l.mgr.HandlePointerEnter(ce.Surface, ce.Pos)
			case compositor.PointerLeave:
				l.mgr.HandlePointerLeave(ce.Surface)
			case compositor.PointerMotion:
				// Motion inside the bar keeps it shown; entry and exit
				// carry the state changes.
			}
		case sizeReportEvent:
			l.mgr.HandleSizeReport(e.report)
		case timerEvent:
			if fn := l.fns[e.id]; fn != nil {
				delete(l.fns, e.id)
				fn(time.Now())
			}
		case reloadEvent:
			l.mgr.Reload(e.cfg)
		case callEvent:
			e.fn(l.mgr)
		}
	}
}
