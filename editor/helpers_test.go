package editor

import (
	"fmt"
	"testing"

	"github.com/meikuraledutech/canvas"
)

func node(id string, in, out []canvas.Port) canvas.Node {
	return canvas.Node{ID: id, Name: id, Type: canvas.NodeInstruction, Width: 200, Height: 120, Inputs: in, Outputs: out}
}

func port(id string, t canvas.PortType) canvas.Port {
	return canvas.Port{ID: id, Name: id, Type: t}
}

// sequentialIDs returns an id generator yielding conn-1, conn-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("conn-%d", n)
	}
}

// newPair returns an editor holding node a (output out1) and node b
// (input in1) with the given port types.
func newPair(t *testing.T, outType, inType canvas.PortType) *Editor {
	t.Helper()
	e := New(WithIDGenerator(sequentialIDs()))
	e.AddNode(node("a", nil, []canvas.Port{port("out1", outType)}))
	e.AddNode(node("b", []canvas.Port{port("in1", inType)}, nil))
	return e
}

func link(id, src, srcPort, dst, dstPort string) canvas.Connection {
	return canvas.Connection{ID: id, SourceNodeID: src, SourcePortID: srcPort, TargetNodeID: dst, TargetPortID: dstPort}
}
