// Package editor holds the state of a module canvas: the node and connection
// graph, the current selection, the undo history, and the in-progress
// drag-to-connect gesture.
//
// Every mutation that changes nodes or connections records a snapshot in the
// history before it returns, under the editor's lock, so observers never see
// a mutation without its snapshot.
package editor

import (
	"log/slog"
	"sync"

	"github.com/meikuraledutech/canvas"
)

// History action labels.
const (
	ActionInitial          = "Initial"
	ActionLoad             = "Load Project"
	ActionAddNode          = "Add Node"
	ActionUpdateNode       = "Update Node"
	ActionMoveNode         = "Move Node"
	ActionResizeNode       = "Resize Node"
	ActionDeleteNode       = "Delete Node"
	ActionAddConnection    = "Add Connection"
	ActionDeleteConnection = "Delete Connection"
	ActionClearCanvas      = "Clear Canvas"
)

// Editor is the state container behind a canvas. It is safe for concurrent
// use.
type Editor struct {
	mu       sync.Mutex
	graph    canvas.Graph
	selected string
	history  *History
	gesture  Gesture

	log      *slog.Logger
	capacity int
	newID    func() string
}

// New returns an empty editor. The history starts with one entry for the
// empty canvas so the first mutation can be undone.
func New(opts ...Option) *Editor {
	e := &Editor{}
	defaults(e)
	for _, opt := range opts {
		opt(e)
	}
	e.history = NewHistory(e.capacity)
	e.history.Push(ActionInitial, e.graph)
	return e
}

// NodeUpdate is a partial node update. Nil fields are left unchanged.
type NodeUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Type        *canvas.NodeType `json:"type,omitempty"`
	X           *float64         `json:"x,omitempty"`
	Y           *float64         `json:"y,omitempty"`
	Width       *float64         `json:"width,omitempty"`
	Height      *float64         `json:"height,omitempty"`
	Inputs      *[]canvas.Port   `json:"inputs,omitempty"`
	Outputs     *[]canvas.Port   `json:"outputs,omitempty"`
	Code        *string          `json:"code,omitempty"`
	Color       *string          `json:"color,omitempty"`
	AIGenerated *bool            `json:"aiGenerated,omitempty"`
}

func (u NodeUpdate) apply(n *canvas.Node) (portsChanged bool) {
	if u.Name != nil {
		n.Name = *u.Name
	}
	if u.Type != nil {
		n.Type = *u.Type
	}
	if u.X != nil {
		n.X = *u.X
	}
	if u.Y != nil {
		n.Y = *u.Y
	}
	if u.Width != nil {
		n.Width = *u.Width
	}
	if u.Height != nil {
		n.Height = *u.Height
	}
	if u.Inputs != nil {
		n.Inputs = append([]canvas.Port(nil), (*u.Inputs)...)
		portsChanged = true
	}
	if u.Outputs != nil {
		n.Outputs = append([]canvas.Port(nil), (*u.Outputs)...)
		portsChanged = true
	}
	if u.Code != nil {
		n.Code = *u.Code
	}
	if u.Color != nil {
		n.Color = *u.Color
	}
	if u.AIGenerated != nil {
		n.AIGenerated = *u.AIGenerated
	}
	return portsChanged
}

// snapshot must be called with e.mu held.
func (e *Editor) snapshot(action string) {
	e.history.Push(action, e.graph)
}

// AddNode places n on the canvas. It returns false, recording nothing, if a
// node with the same id is already present.
func (e *Editor) AddNode(n canvas.Node) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.graph.Node(n.ID); ok {
		e.log.Debug("node id already in use", "node", n.ID)
		return false
	}
	e.graph.Nodes = append(e.graph.Nodes, n.Clone())
	e.snapshot(ActionAddNode)
	return true
}

// UpdateNode merges u into the node with the given id. Replacing a node's
// ports drops any connection that referenced a removed port. It returns
// false, recording nothing, if the node does not exist.
func (e *Editor) UpdateNode(id string, u NodeUpdate) bool {
	return e.updateNode(id, u, ActionUpdateNode)
}

// MoveNode sets a node's position.
func (e *Editor) MoveNode(id string, x, y float64) bool {
	return e.updateNode(id, NodeUpdate{X: &x, Y: &y}, ActionMoveNode)
}

// ResizeNode sets a node's size.
func (e *Editor) ResizeNode(id string, width, height float64) bool {
	return e.updateNode(id, NodeUpdate{Width: &width, Height: &height}, ActionResizeNode)
}

func (e *Editor) updateNode(id string, u NodeUpdate, action string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.graph.Node(id)
	if !ok {
		e.log.Debug("update of unknown node ignored", "node", id)
		return false
	}
	if u.apply(n) {
		if dropped := e.graph.Prune(); dropped > 0 {
			e.log.Debug("dropped connections to removed ports", "node", id, "count", dropped)
		}
	}
	e.snapshot(action)
	return true
}

// DeleteNode removes a node together with every connection touching it and
// clears the selection if it pointed at the node.
func (e *Editor) DeleteNode(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.graph.Node(id); !ok {
		e.log.Debug("delete of unknown node ignored", "node", id)
		return false
	}

	nodes := e.graph.Nodes[:0:0]
	for _, n := range e.graph.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	conns := e.graph.Connections[:0:0]
	for _, c := range e.graph.Connections {
		if !c.Touches(id) {
			conns = append(conns, c)
		}
	}
	e.graph.Nodes = nodes
	e.graph.Connections = conns
	if e.selected == id {
		e.selected = ""
	}
	e.snapshot(ActionDeleteNode)
	return true
}

// CheckConnection reports why the given endpoints cannot be connected, or
// nil. It does not modify the editor.
func (e *Editor) CheckConnection(sourceNodeID, sourcePortID, targetNodeID, targetPortID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.CheckConnection(sourceNodeID, sourcePortID, targetNodeID, targetPortID)
}

// ValidateConnection reports whether a connection between the given
// endpoints would be accepted. It does not modify the editor.
func (e *Editor) ValidateConnection(sourceNodeID, sourcePortID, targetNodeID, targetPortID string) bool {
	return e.CheckConnection(sourceNodeID, sourcePortID, targetNodeID, targetPortID) == nil
}

// AddConnection adds c if it passes validation. An empty or already used id
// is replaced with a fresh one. A rejected connection leaves the editor and
// its history untouched.
func (e *Editor) AddConnection(c canvas.Connection) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addConnection(c)
}

func (e *Editor) addConnection(c canvas.Connection) bool {
	if err := e.graph.CheckConnection(c.SourceNodeID, c.SourcePortID, c.TargetNodeID, c.TargetPortID); err != nil {
		e.log.Debug("connection rejected", "error", err)
		return false
	}
	for c.ID == "" || e.connectionExists(c.ID) {
		c.ID = e.newID()
	}
	e.graph.Connections = append(e.graph.Connections, c)
	e.snapshot(ActionAddConnection)
	return true
}

func (e *Editor) connectionExists(id string) bool {
	for _, c := range e.graph.Connections {
		if c.ID == id {
			return true
		}
	}
	return false
}

// DeleteConnection removes the connection with the given id.
func (e *Editor) DeleteConnection(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, c := range e.graph.Connections {
		if c.ID == id {
			e.graph.Connections = append(e.graph.Connections[:i:i], e.graph.Connections[i+1:]...)
			e.snapshot(ActionDeleteConnection)
			return true
		}
	}
	e.log.Debug("delete of unknown connection ignored", "connection", id)
	return false
}

// SelectNode marks a node as selected. Selection is not recorded in history.
func (e *Editor) SelectNode(id string) {
	e.mu.Lock()
	e.selected = id
	e.mu.Unlock()
}

// ClearSelection deselects any node.
func (e *Editor) ClearSelection() { e.SelectNode("") }

// Selected returns the selected node id.
func (e *Editor) Selected() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected, e.selected != ""
}

// ClearCanvas removes every node and connection in one snapshot and abandons
// any gesture in progress.
func (e *Editor) ClearCanvas() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph = canvas.Graph{}
	e.selected = ""
	e.gesture = Gesture{}
	e.snapshot(ActionClearCanvas)
}

// Load replaces the canvas with g and starts a fresh history from it.
func (e *Editor) Load(g canvas.Graph) error {
	if err := g.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph = g.Clone()
	e.selected = ""
	e.gesture = Gesture{}
	e.history.Reset(ActionLoad, e.graph)
	return nil
}

// Undo restores the previous snapshot. The selection is left alone.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.history.Undo()
	if ok {
		e.graph = g
	}
	return ok
}

// Redo reapplies the next snapshot.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.history.Redo()
	if ok {
		e.graph = g
	}
	return ok
}

// CanUndo reports whether an earlier snapshot exists.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether an undone snapshot can be reapplied.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// History returns the recorded entries and the index of the current one.
func (e *Editor) History() ([]Entry, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Entries(), e.history.Index()
}

// State is a consistent view of the editor at one instant.
type State struct {
	Nodes           []canvas.Node       `json:"nodes"`
	Connections     []canvas.Connection `json:"connections"`
	SelectedNode    string              `json:"selectedNode,omitempty"`
	ConnectionState Gesture             `json:"connectionState"`
	CanUndo         bool                `json:"canUndo"`
	CanRedo         bool                `json:"canRedo"`
}

// State returns the graph, selection, gesture and undo flags taken under a
// single lock. Node and connection lists are never nil.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.graph.Clone()
	if g.Nodes == nil {
		g.Nodes = []canvas.Node{}
	}
	if g.Connections == nil {
		g.Connections = []canvas.Connection{}
	}
	return State{
		Nodes:           g.Nodes,
		Connections:     g.Connections,
		SelectedNode:    e.selected,
		ConnectionState: e.gesture.copy(),
		CanUndo:         e.history.CanUndo(),
		CanRedo:         e.history.CanRedo(),
	}
}

// Graph returns a copy of the current nodes and connections.
func (e *Editor) Graph() canvas.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Clone()
}

// Nodes returns a copy of the current nodes.
func (e *Editor) Nodes() []canvas.Node { return e.Graph().Nodes }

// Connections returns a copy of the current connections.
func (e *Editor) Connections() []canvas.Connection { return e.Graph().Connections }
