// Package layershell is the GTK4 compositor backend. It realizes panel
// surfaces as layer-shell windows, tracks gdk monitors as outputs, hosts
// applet widgets, and paints backgrounds through per-surface CSS providers.
//
// Everything GTK happens on the GTK main thread; calls arriving from the
// panel space event loop are marshalled over with glib.IdleAdd.
package layershell
