// Package applet defines the embedding collaborator interface between the
// panel space and applet widgets. Applets render themselves; the panel only
// sees their advertised sizes and places their sub-surfaces into slots.
package applet

import (
	"fmt"

	"github.com/jmylchreest/ledge/internal/geometry"
)

// Request identifies one applet instance to embed: the applet id plus the
// panel-output pair hosting it. The triple routes size reports back to the
// owning binding.
type Request struct {
	Applet string
	Panel  string
	Output string
}

// Handle is a live embedded applet instance.
type Handle interface {
	Request() Request
	// SetRegion positions the applet's sub-surface inside its host
	// surface.
	SetRegion(r geometry.Rect)
}

// Embedder is the applet-embedding collaborator. Embed failures are local
// to one slot; the panel keeps laying out the rest.
type Embedder interface {
	Embed(req Request) (Handle, error)
	Withdraw(h Handle)
}

// SizeReport is an asynchronous size advertisement from an embedded applet.
type SizeReport struct {
	Request Request
	Size    geometry.Size
}

// ReportSink receives size reports. Implementations may call it from any
// goroutine; the panel space serializes delivery.
type ReportSink func(SizeReport)

// EmbedError reports a failed embed for one slot.
type EmbedError struct {
	Request Request
	Err     error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embed applet %q for panel %q on output %s: %v",
		e.Request.Applet, e.Request.Panel, e.Request.Output, e.Err)
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}
