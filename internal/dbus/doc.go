// Package dbus exposes the panel daemon's control surface on the session
// bus. It provides a server with methods for Reload, ListPanels, and
// ListBindings, the ConfigReloaded signal, and a client the CLI uses to
// reach a running daemon.
package dbus
