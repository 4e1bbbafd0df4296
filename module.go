package canvas

import (
	"context"

	"github.com/google/uuid"
)

// Default size of a node created from a module spec.
const (
	DefaultNodeWidth  = 200
	DefaultNodeHeight = 120
)

// PortSpec describes a port in a generated module. ID may be empty.
type PortSpec struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Type        PortType `json:"type"`
	Required    bool     `json:"required"`
	Description string   `json:"description"`
}

// Parameter is a configurable value a generated module expects.
type Parameter struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Required     bool   `json:"required"`
	DefaultValue any    `json:"defaultValue,omitempty"`
}

// ModuleSpec is a candidate module returned by a Generator.
type ModuleSpec struct {
	Name        string      `json:"name"`
	Type        NodeType    `json:"type"`
	Description string      `json:"description"`
	Inputs      []PortSpec  `json:"inputs"`
	Outputs     []PortSpec  `json:"outputs"`
	Parameters  []Parameter `json:"parameters"`
}

// Generator produces a module spec from a free-text description and a
// module type hint.
type Generator interface {
	Generate(ctx context.Context, description string, hint NodeType) (*ModuleSpec, error)
}

var typeColors = map[NodeType]string{
	NodeInstruction: "from-blue-500 to-blue-600",
	NodeAccount:     "from-green-500 to-green-600",
	NodeValidator:   "from-purple-500 to-purple-600",
	NodeProcessor:   "from-orange-500 to-orange-600",
}

// ColorFor returns the display color for a node type, falling back to the
// instruction color.
func ColorFor(t NodeType) string {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return typeColors[NodeInstruction]
}

// NodeFromSpec builds a fresh node from a generated spec, placed at pos.
// Ports without an id get a generated one.
func NodeFromSpec(spec *ModuleSpec, pos Point) Node {
	typ := spec.Type
	if typ == "" {
		typ = NodeInstruction
	}
	return Node{
		ID:          uuid.NewString(),
		Name:        spec.Name,
		Type:        typ,
		X:           pos.X,
		Y:           pos.Y,
		Width:       DefaultNodeWidth,
		Height:      DefaultNodeHeight,
		Inputs:      portsFromSpecs(spec.Inputs),
		Outputs:     portsFromSpecs(spec.Outputs),
		Color:       ColorFor(typ),
		AIGenerated: true,
	}
}

func portsFromSpecs(specs []PortSpec) []Port {
	ports := make([]Port, 0, len(specs))
	for _, s := range specs {
		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}
		typ := s.Type
		if typ == "" {
			typ = PortData
		}
		ports = append(ports, Port{
			ID:          id,
			Name:        s.Name,
			Type:        typ,
			Required:    s.Required,
			Description: s.Description,
		})
	}
	return ports
}
