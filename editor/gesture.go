package editor

import "github.com/meikuraledutech/canvas"

// Gesture is the drag-to-connect interaction in progress. The zero value is
// the idle state.
type Gesture struct {
	Connecting bool             `json:"isConnecting"`
	NodeID     string           `json:"sourceNode,omitempty"`
	PortID     string           `json:"sourcePort,omitempty"`
	Direction  canvas.Direction `json:"sourcePortType,omitempty"`
	Preview    *canvas.Segment  `json:"tempConnection,omitempty"`
}

// PortState classifies a port against the gesture in progress.
type PortState int

const (
	// PortIdle means no gesture is active.
	PortIdle PortState = iota
	// PortSource is the port the gesture started from.
	PortSource
	// PortCompatible would accept the connection if clicked.
	PortCompatible
	// PortIncompatible would reject it.
	PortIncompatible
)

func (s PortState) String() string {
	switch s {
	case PortSource:
		return "source"
	case PortCompatible:
		return "compatible"
	case PortIncompatible:
		return "incompatible"
	}
	return "idle"
}

// ResolveEndpoints orders a gesture's start port and the port it finished on
// into an output-to-input connection. A gesture started on an output keeps
// its start as the source; one started on an input becomes the target and
// the finishing port the source.
func ResolveEndpoints(g Gesture, nodeID, portID string) canvas.Connection {
	if g.Direction == canvas.Output {
		return canvas.Connection{
			SourceNodeID: g.NodeID,
			SourcePortID: g.PortID,
			TargetNodeID: nodeID,
			TargetPortID: portID,
		}
	}
	return canvas.Connection{
		SourceNodeID: nodeID,
		SourcePortID: portID,
		TargetNodeID: g.NodeID,
		TargetPortID: g.PortID,
	}
}

// ConnectionState returns the current gesture.
func (e *Editor) ConnectionState() Gesture {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gesture.copy()
}

func (g Gesture) copy() Gesture {
	if g.Preview != nil {
		p := *g.Preview
		g.Preview = &p
	}
	return g
}

// StartConnection begins a gesture from a port, anchoring the preview line
// at pos. It returns false if a gesture is already active, dir is neither
// input nor output, or the port does not exist.
func (e *Editor) StartConnection(nodeID, portID string, dir canvas.Direction, pos canvas.Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gesture.Connecting {
		return false
	}
	if dir != canvas.Input && dir != canvas.Output {
		return false
	}
	n, ok := e.graph.Node(nodeID)
	if !ok {
		return false
	}
	if _, ok := n.Port(dir, portID); !ok {
		return false
	}

	e.gesture = Gesture{
		Connecting: true,
		NodeID:     nodeID,
		PortID:     portID,
		Direction:  dir,
		Preview:    &canvas.Segment{StartX: pos.X, StartY: pos.Y, EndX: pos.X, EndY: pos.Y},
	}
	return true
}

// UpdateTempConnection moves the free end of the preview line.
func (e *Editor) UpdateTempConnection(pos canvas.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gesture.Preview == nil {
		return
	}
	e.gesture.Preview.EndX = pos.X
	e.gesture.Preview.EndY = pos.Y
}

// CompleteConnection finishes the gesture on the given port. The editor
// returns to idle whatever the outcome; the result reports whether a
// connection was added.
func (e *Editor) CompleteConnection(nodeID, portID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.gesture
	if !g.Connecting {
		return false
	}
	e.gesture = Gesture{}

	c := ResolveEndpoints(g, nodeID, portID)
	return e.addConnection(c)
}

// CancelConnection abandons the gesture. It is a no-op when idle.
func (e *Editor) CancelConnection() {
	e.mu.Lock()
	e.gesture = Gesture{}
	e.mu.Unlock()
}

// HandleKey maps keyboard shortcuts onto editor actions and reports whether
// the key was consumed.
func (e *Editor) HandleKey(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch key {
	case "Escape", "Esc":
		if e.gesture.Connecting {
			e.gesture = Gesture{}
			return true
		}
	}
	return false
}

// PortState classifies a port for highlighting while a gesture is active.
func (e *Editor) PortState(nodeID, portID string, dir canvas.Direction) PortState {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.gesture
	switch {
	case !g.Connecting:
		return PortIdle
	case g.NodeID == nodeID && g.PortID == portID && g.Direction == dir:
		return PortSource
	case g.Direction == dir:
		return PortIncompatible
	}

	c := ResolveEndpoints(g, nodeID, portID)
	if e.graph.CheckConnection(c.SourceNodeID, c.SourcePortID, c.TargetNodeID, c.TargetPortID) != nil {
		return PortIncompatible
	}
	return PortCompatible
}
