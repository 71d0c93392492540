// Package main is the entry point for the ledged panel daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/ledge/internal/applet"
	"github.com/jmylchreest/ledge/internal/compositor"
	"github.com/jmylchreest/ledge/internal/compositor/layershell"
	"github.com/jmylchreest/ledge/internal/daemon"
	"github.com/jmylchreest/ledge/internal/theme"
)

const (
	appID   = "io.github.jmylchreest.ledged"
	appName = "ledged"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to the config file (default: XDG config dir)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ledged", "version", version)

	app := adw.NewApplication(appID, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		// The daemon exists before the backend starts, so the closures
		// below never observe a nil loop once events begin to flow.
		var d *daemon.Daemon

		backend := layershell.New(&app.Application, func(ev compositor.Event) {
			d.Loop().PostCompositor(ev)
		}, logger)
		host := layershell.NewHost(backend, func(r applet.SizeReport) {
			d.Loop().PostSizeReport(r)
		}, logger)

		var err error
		d, err = daemon.New(daemon.Options{
			ConfigPath: *configPath,
			Version:    version,
			Compositor: backend,
			Embedder:   host,
			Bridge:     layershell.NewBridgeFactory(logger),
			Logger:     logger,
		})
		if err != nil {
			logger.Error("failed to assemble daemon", "error", err)
			app.Quit()
			return
		}

		// The panel space runs off the GTK thread; the backend marshals
		// its GTK work back with IdleAdd.
		go func() {
			if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("daemon stopped", "error", err)
			}
			glib.IdleAdd(func() {
				app.Quit()
			})
		}()

		if err := backend.Start(); err != nil {
			logger.Error("failed to start compositor backend", "error", err)
			cancel()
			return
		}

		styles := theme.NewLoader(logger)
		styles.Load()
		styles.Apply(nil)
		styles.StartHotReload(ctx)

		logger.Info("ledged ready")

		// A hidden window keeps the application alive while no panel
		// surface is mapped (GTK apps quit when all windows close).
		keepAlive := adw.NewApplicationWindow(&app.Application)
		keepAlive.SetDefaultSize(1, 1)
		keepAlive.SetVisible(false)
	})

	status := app.Run(os.Args)
	cancel()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		os.Exit(status)
	}
	logger.Info("ledged stopped")
}
