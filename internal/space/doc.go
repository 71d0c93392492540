// Package space is the core of the panel daemon: it owns the registry of
// live panel surfaces and the single event loop that mutates them.
//
// A Binding pairs one panel configuration with one output and owns the
// resulting layer surface: layout, autohide, applet hosting, and committed
// geometry. The Manager reconciles the binding registry against the
// configured panels and the outputs the compositor reports. The Loop
// serializes everything onto one goroutine, applying output lifecycle
// events ahead of any geometry work queued behind them.
package space
