package ports

import (
	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/paint"
	"github.com/gomotopia/districtr/domain/unassigned"
)

// PaintSink applies a paint property to the unit borders layer. Calls are
// idempotent and the last one wins.
type PaintSink interface {
	SetPaintProperties(p paint.Property)
}

// Viewport moves the map camera
type Viewport interface {
	FitBounds(bounds unassigned.Bounds)
}

// StatusListener is told whenever the contiguity status changes
type StatusListener interface {
	ContiguityChanged(status contiguity.Status)
}
