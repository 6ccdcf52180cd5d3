package api

import (
	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/paint"
	"github.com/gomotopia/districtr/domain/unassigned"
	"github.com/gomotopia/districtr/ports"
)

// MapEventSink forwards paint, viewport and status changes of one session
// to the browser over the hub
type MapEventSink struct {
	hub       *SSEHub
	sessionID string
}

var (
	_ ports.PaintSink      = (*MapEventSink)(nil)
	_ ports.Viewport       = (*MapEventSink)(nil)
	_ ports.StatusListener = (*MapEventSink)(nil)
)

// NewMapEventSink creates a sink bound to one session
func NewMapEventSink(hub *SSEHub, sessionID string) *MapEventSink {
	return &MapEventSink{hub: hub, sessionID: sessionID}
}

// SetPaintProperties asks the editor to restyle the unit borders layer
func (s *MapEventSink) SetPaintProperties(p paint.Property) {
	s.hub.Broadcast(PanelEvent{SessionID: s.sessionID, EventType: EventPaint, Data: p})
}

// FitBounds asks the editor to move the camera
func (s *MapEventSink) FitBounds(bounds unassigned.Bounds) {
	s.hub.Broadcast(PanelEvent{SessionID: s.sessionID, EventType: EventFitBounds, Data: bounds})
}

// ContiguityChanged tells the editor to refresh the contiguity section
func (s *MapEventSink) ContiguityChanged(status contiguity.Status) {
	s.hub.Broadcast(PanelEvent{
		SessionID: s.sessionID,
		EventType: EventContiguity,
		Data: map[string]interface{}{
			"header":   status.Header,
			"has_gaps": status.HasGaps,
		},
	})
}
