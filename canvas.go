package canvas

// PortType is the data type carried by a port. The set is open: values
// outside the constants below are accepted and only match themselves or a
// wildcard.
type PortType string

const (
	PortData        PortType = "data"
	PortControl     PortType = "control"
	PortEvent       PortType = "event"
	PortAccount     PortType = "account"
	PortToken       PortType = "token"
	PortNFT         PortType = "nft"
	PortInstruction PortType = "instruction"
	PortAny         PortType = "any"
)

// Wildcard reports whether t mates with every other port type.
func (t PortType) Wildcard() bool {
	switch t {
	case PortAny, PortData, PortControl, PortEvent:
		return true
	}
	return false
}

// Compatible reports whether a port of type t may feed a port of type other.
func (t PortType) Compatible(other PortType) bool {
	return t == other || t.Wildcard() || other.Wildcard()
}

// Direction tells which side of a node a port sits on.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Input {
		return Output
	}
	return Input
}

// NodeType tags what kind of program block a node is.
type NodeType string

const (
	NodeInstruction NodeType = "instruction"
	NodeAccount     NodeType = "account"
	NodeValidator   NodeType = "validator"
	NodeProcessor   NodeType = "processor"
	NodeCustom      NodeType = "custom"
)

// Port is a typed attachment point. Its ID is only unique within the owning
// node and direction.
type Port struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        PortType `json:"type"`
	Required    bool     `json:"required"`
	Description string   `json:"description"`
}

// Node is a module instance placed on the canvas.
type Node struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        NodeType `json:"type"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Width       float64  `json:"width"`
	Height      float64  `json:"height"`
	Inputs      []Port   `json:"inputs"`
	Outputs     []Port   `json:"outputs"`
	Code        string   `json:"code,omitempty"`
	Color       string   `json:"color,omitempty"`
	AIGenerated bool     `json:"aiGenerated,omitempty"`
}

// Configured reports whether code has been attached to the node.
func (n *Node) Configured() bool { return n.Code != "" }

// Port finds a port by direction and id.
func (n *Node) Port(dir Direction, id string) (*Port, bool) {
	ports := n.Inputs
	if dir == Output {
		ports = n.Outputs
	}
	for i := range ports {
		if ports[i].ID == id {
			return &ports[i], true
		}
	}
	return nil, false
}

// Clone returns a copy of n that shares no port storage with it.
func (n Node) Clone() Node {
	n.Inputs = clonePorts(n.Inputs)
	n.Outputs = clonePorts(n.Outputs)
	return n
}

func clonePorts(ports []Port) []Port {
	if ports == nil {
		return nil
	}
	out := make([]Port, len(ports))
	copy(out, ports)
	return out
}

// Connection is a directed link from an output port to an input port.
type Connection struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"sourceNodeId"`
	SourcePortID string `json:"sourcePortId"`
	TargetNodeID string `json:"targetNodeId"`
	TargetPortID string `json:"targetPortId"`
}

// Touches reports whether nodeID is either endpoint of c.
func (c Connection) Touches(nodeID string) bool {
	return c.SourceNodeID == nodeID || c.TargetNodeID == nodeID
}

// SameEndpoints reports whether c and other link the same four endpoints.
func (c Connection) SameEndpoints(other Connection) bool {
	return c.SourceNodeID == other.SourceNodeID &&
		c.SourcePortID == other.SourcePortID &&
		c.TargetNodeID == other.TargetNodeID &&
		c.TargetPortID == other.TargetPortID
}

// Point is a screen-space position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is the preview line drawn while a connection is being dragged.
type Segment struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}
