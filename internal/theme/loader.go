package theme

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader owns the CSS provider carrying the user stylesheet and keeps it
// in sync with the file on disk.
type Loader struct {
	mu       sync.Mutex
	logger   *slog.Logger
	provider *gtk.CSSProvider
	sheet    *Stylesheet
	watcher  *Watcher
}

// NewLoader creates a loader with no stylesheet applied yet.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
	}
}

// Load reads the user stylesheet, falling back to the embedded default
// when none exists. Must run on the GTK main thread.
func (l *Loader) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	path, err := StylePath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			sheet, loadErr := LoadStylesheet(path)
			if loadErr != nil {
				l.logger.Warn("failed to load user stylesheet, using default", "path", path, "error", loadErr)
			} else {
				l.sheet = sheet
				l.provider.LoadFromString(sheet.CSS)
				l.logger.Info("loaded user stylesheet", "path", path)
				return
			}
		}
	}

	l.sheet = DefaultStylesheet()
	l.provider.LoadFromString(l.sheet.CSS)
	l.logger.Debug("loaded default stylesheet")
}

// Apply attaches the provider to the display. Must run on the GTK main
// thread after the application is initialized.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply stylesheet")
		return
	}
	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_USER,
	)
}

// StartHotReload watches the user stylesheet and re-applies it on change.
// The embedded default is never watched.
func (l *Loader) StartHotReload(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sheet == nil || l.sheet.Embedded {
		return
	}
	if l.watcher != nil {
		l.watcher.Stop()
	}

	l.watcher = NewWatcher(l.sheet, l.logger)
	l.watcher.SetChangeCallback(func(css string) {
		// Provider mutation belongs on the GTK main thread.
		glib.IdleAdd(func() {
			l.provider.LoadFromString(css)
		})
		l.logger.Info("reloaded user stylesheet")
	})
	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start stylesheet watcher", "error", err)
	}
}

// StopHotReload stops the stylesheet watcher.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
}

// Provider returns the underlying CSS provider.
func (l *Loader) Provider() *gtk.CSSProvider {
	return l.provider
}
