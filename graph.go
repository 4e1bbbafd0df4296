package canvas

import (
	"encoding/json"
	"fmt"
)

// Graph is the node and connection content of an editor. It is also the
// shape stored as a project's project_data payload.
type Graph struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Clone returns a deep copy of g. Edits to either copy never show through
// to the other.
func (g Graph) Clone() Graph {
	var out Graph
	if g.Nodes != nil {
		out.Nodes = make([]Node, len(g.Nodes))
		for i, n := range g.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if g.Connections != nil {
		out.Connections = make([]Connection, len(g.Connections))
		copy(out.Connections, g.Connections)
	}
	return out
}

// Node returns a pointer into g.Nodes for id.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Validate checks that every connection resolves to live nodes and ports on
// the correct sides, and that node and connection ids are unique.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("%w: node %q", ErrDuplicateID, n.ID)
		}
		seen[n.ID] = true
	}

	conns := make(map[string]bool, len(g.Connections))
	for _, c := range g.Connections {
		if conns[c.ID] {
			return fmt.Errorf("%w: connection %q", ErrDuplicateID, c.ID)
		}
		conns[c.ID] = true

		if !g.resolves(c) {
			return fmt.Errorf("%w: %s", ErrDanglingConnection, c.ID)
		}
	}
	return nil
}

func (g *Graph) resolves(c Connection) bool {
	src, ok := g.Node(c.SourceNodeID)
	if !ok {
		return false
	}
	dst, ok := g.Node(c.TargetNodeID)
	if !ok {
		return false
	}
	if _, ok := src.Port(Output, c.SourcePortID); !ok {
		return false
	}
	_, ok = dst.Port(Input, c.TargetPortID)
	return ok
}

// Prune drops every connection that no longer resolves and reports how many
// were removed.
func (g *Graph) Prune() int {
	kept := g.Connections[:0]
	for _, c := range g.Connections {
		if g.resolves(c) {
			kept = append(kept, c)
		}
	}
	removed := len(g.Connections) - len(kept)
	g.Connections = kept
	return removed
}

// CheckConnection reports why a connection between the given endpoints
// cannot be created, or nil if it can. Checks run in a fixed order and the
// first failure wins: both nodes exist and differ, the source port is an
// output and the target port an input, the port types are compatible, and
// no identical connection already exists.
func (g *Graph) CheckConnection(sourceNodeID, sourcePortID, targetNodeID, targetPortID string) error {
	src, ok := g.Node(sourceNodeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, sourceNodeID)
	}
	dst, ok := g.Node(targetNodeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, targetNodeID)
	}
	if sourceNodeID == targetNodeID {
		return ErrSelfLoop
	}

	out, ok := src.Port(Output, sourcePortID)
	if !ok {
		return fmt.Errorf("%w: output %s on %s", ErrPortNotFound, sourcePortID, sourceNodeID)
	}
	in, ok := dst.Port(Input, targetPortID)
	if !ok {
		return fmt.Errorf("%w: input %s on %s", ErrPortNotFound, targetPortID, targetNodeID)
	}

	if !out.Type.Compatible(in.Type) {
		return fmt.Errorf("%w: %s -> %s", ErrIncompatiblePorts, out.Type, in.Type)
	}

	want := Connection{
		SourceNodeID: sourceNodeID,
		SourcePortID: sourcePortID,
		TargetNodeID: targetNodeID,
		TargetPortID: targetPortID,
	}
	for _, c := range g.Connections {
		if c.SameEndpoints(want) {
			return ErrDuplicateConnection
		}
	}
	return nil
}

// EncodeGraph serializes g for storage as project data.
func EncodeGraph(g Graph) (json.RawMessage, error) {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Connections == nil {
		g.Connections = []Connection{}
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("canvas: encode graph: %w", err)
	}
	return data, nil
}

// DecodeGraph parses project data back into a Graph. Empty data yields an
// empty graph.
func DecodeGraph(data json.RawMessage) (Graph, error) {
	var g Graph
	if len(data) == 0 || string(data) == "null" {
		return g, nil
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("canvas: decode graph: %w", err)
	}
	return g, nil
}
