// Package daemon provides the main orchestration for ledged.
// It coordinates the panel space event loop, the D-Bus control server,
// and configuration hot-reload.
package daemon
