package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/ledge/internal/applet"
	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/config"
	"github.com/jmylchreest/ledge/internal/dbus"
	"github.com/jmylchreest/ledge/internal/space"
)

// Options configures a Daemon. Compositor and Embedder are required; the
// rest have working defaults.
type Options struct {
	// ConfigPath overrides the default config location when non-empty.
	ConfigPath string
	Version    string

	Compositor compositor.Compositor
	Embedder   applet.Embedder
	Bridge     space.BridgeFactory

	// DisableDBus skips the control server, e.g. for nested test sessions.
	DisableDBus bool
	// DisableWatcher skips config file watching.
	DisableWatcher bool

	Logger *slog.Logger
}

// Daemon ties the panel space to its inputs: the configuration on disk, the
// compositor backend, and the control surface on the session bus.
type Daemon struct {
	logger  *slog.Logger
	opts    Options
	path    string
	mgr     *space.Manager
	loop    *space.Loop
	control *dbus.ControlServer
	watcher *config.Watcher
}

// New loads the configuration and assembles the daemon. Invalid panel
// entries are diagnosed and skipped; only an unreadable config file is
// fatal.
func New(opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Compositor == nil {
		return nil, fmt.Errorf("daemon needs a compositor backend")
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("daemon needs an applet embedder")
	}

	path := opts.ConfigPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, verr := range cfg.Validate() {
		logger.Warn("config problem", "error", verr)
	}

	d := &Daemon{
		logger: logger,
		opts:   opts,
		path:   path,
	}
	d.mgr = space.NewManager(cfg, space.ManagerOptions{
		Compositor: opts.Compositor,
		Embedder:   opts.Embedder,
		Bridge:     opts.Bridge,
		Logger:     logger,
	})
	d.loop = space.NewLoop(d.mgr, logger)

	if !opts.DisableDBus {
		d.control = dbus.NewControlServer(logger)
		d.control.SetServerInfo(dbus.ServerInfo{
			Name:    "ledge",
			Vendor:  "jmylchreest",
			Version: opts.Version,
		})
		d.control.SetReloadHandler(d.Reload)
		d.control.SetStatusHandler(d.status)
	}

	if !opts.DisableWatcher {
		w, err := config.NewWatcher(path, logger)
		if err != nil {
			logger.Warn("config watcher unavailable, hot reload disabled", "error", err)
		} else {
			w.SetChangeCallback(func(cfg *config.Config) {
				d.loop.PostReload(cfg)
			})
			d.watcher = w
		}
	}
	return d, nil
}

// Loop exposes the event loop for the compositor backend to post into.
func (d *Daemon) Loop() *space.Loop {
	return d.loop
}

// Run starts the control surface and the watcher, then blocks in the event
// loop until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("ledged starting", "version", d.opts.Version, "config", d.path)

	if d.control != nil {
		if err := d.control.Start(); err != nil {
			// A second instance or a broken session bus: keep running,
			// just without remote control.
			d.logger.Warn("control server unavailable", "error", err)
			d.control = nil
		}
	}
	if d.watcher != nil {
		if err := d.watcher.Start(); err != nil {
			d.logger.Warn("config watcher failed to start", "error", err)
			d.watcher = nil
		}
	}

	defer func() {
		if d.watcher != nil {
			if err := d.watcher.Stop(); err != nil {
				d.logger.Warn("config watcher stop failed", "error", err)
			}
		}
		if d.control != nil {
			if err := d.control.Stop(); err != nil {
				d.logger.Warn("control server stop failed", "error", err)
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.loop.Run(ctx)
	})
	return g.Wait()
}

// Reload rereads the configuration file and posts the swap to the loop.
// Called from the D-Bus control surface.
func (d *Daemon) Reload() error {
	cfg, err := config.Load(d.path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	d.loop.PostReload(cfg)
	return nil
}

// status snapshots the panel space for the control surface.
func (d *Daemon) status() ([]string, []dbus.BindingInfo) {
	var panels []string
	var bindings []dbus.BindingInfo
	d.loop.Call(func(m *space.Manager) {
		panels = m.Panels()
		for _, b := range m.Bindings() {
			r := b.Committed()
			bindings = append(bindings, dbus.BindingInfo{
				ID:     b.ID,
				Panel:  b.Config().Name,
				Output: b.Output().Name,
				Anchor: string(b.Config().Anchor),
				State:  string(b.HideState()),
				Width:  int32(r.W),
				Height: int32(r.H),
			})
		}
	})
	return panels, bindings
}
