// Package flow derives program structure from a canvas graph: the order in
// which modules execute, the cycles that prevent a full order, and the
// modules not wired to anything.
package flow

import (
	"slices"

	"github.com/meikuraledutech/canvas"
)

// UnknownPortType counts connections whose source port cannot be resolved.
const UnknownPortType canvas.PortType = "unknown"

// Analysis is the result of Analyze.
type Analysis struct {
	// ExecutionOrder lists node ids so that every connection's source comes
	// before its target. Nodes on or downstream of a cycle are left out.
	ExecutionOrder []string `json:"executionOrder"`
	// Cycles holds one entry per strongly connected group of nodes that
	// feed back into themselves, members in node order.
	Cycles [][]string `json:"cycles"`
	// IsolatedNodes lists nodes with no connections at all.
	IsolatedNodes []string `json:"isolatedNodes"`
	// ConnectionTypes counts connections by source port type.
	ConnectionTypes map[canvas.PortType]int `json:"connectionTypes"`
}

// Acyclic reports whether the graph has a complete execution order.
func (a Analysis) Acyclic() bool { return len(a.Cycles) == 0 }

// graph is an adjacency view over node indexes in insertion order.
type graph struct {
	ids  []string
	succ [][]int
}

func build(nodes []canvas.Node, conns []canvas.Connection) *graph {
	g := &graph{ids: make([]string, 0, len(nodes))}
	index := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if _, dup := index[n.ID]; dup {
			continue
		}
		index[n.ID] = len(g.ids)
		g.ids = append(g.ids, n.ID)
	}

	g.succ = make([][]int, len(g.ids))
	for _, c := range conns {
		from, ok := index[c.SourceNodeID]
		if !ok {
			continue
		}
		to, ok := index[c.TargetNodeID]
		if !ok {
			continue
		}
		g.succ[from] = append(g.succ[from], to)
	}
	return g
}

// Analyze inspects nodes and connections. It never fails: a cyclic graph
// yields a partial order alongside the cycles found.
func Analyze(nodes []canvas.Node, conns []canvas.Connection) Analysis {
	g := build(nodes, conns)
	return Analysis{
		ExecutionOrder:  g.order(),
		Cycles:          g.cycles(),
		IsolatedNodes:   isolated(g.ids, conns),
		ConnectionTypes: tally(nodes, conns),
	}
}

// order is Kahn's algorithm. Among nodes that are ready at the same time the
// earliest placed runs first.
func (g *graph) order() []string {
	indeg := make([]int, len(g.ids))
	for _, next := range g.succ {
		for _, to := range next {
			indeg[to]++
		}
	}

	var ready []int
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	out := make([]string, 0, len(g.ids))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		out = append(out, g.ids[i])
		for _, to := range g.succ[i] {
			indeg[to]--
			if indeg[to] == 0 {
				pos, _ := slices.BinarySearch(ready, to)
				ready = slices.Insert(ready, pos, to)
			}
		}
	}
	return out
}

// cycles returns the strongly connected components that contain a cycle,
// using Tarjan's algorithm.
func (g *graph) cycles() [][]string {
	const unvisited = -1

	var (
		index   = make([]int, len(g.ids))
		low     = make([]int, len(g.ids))
		onStack = make([]bool, len(g.ids))
		stack   []int
		counter int
		found   [][]int
	)
	for i := range index {
		index[i] = unvisited
	}

	var visit func(v int)
	visit = func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.succ[v] {
			switch {
			case index[w] == unvisited:
				visit(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] != index[v] {
			return
		}
		var comp []int
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		if len(comp) > 1 || slices.Contains(g.succ[v], v) {
			found = append(found, comp)
		}
	}

	for v := range g.ids {
		if index[v] == unvisited {
			visit(v)
		}
	}

	for _, comp := range found {
		slices.Sort(comp)
	}
	slices.SortFunc(found, func(a, b []int) int { return a[0] - b[0] })

	out := make([][]string, 0, len(found))
	for _, comp := range found {
		ids := make([]string, len(comp))
		for i, v := range comp {
			ids[i] = g.ids[v]
		}
		out = append(out, ids)
	}
	return out
}

func isolated(ids []string, conns []canvas.Connection) []string {
	linked := make(map[string]bool, len(conns)*2)
	for _, c := range conns {
		linked[c.SourceNodeID] = true
		linked[c.TargetNodeID] = true
	}
	out := []string{}
	for _, id := range ids {
		if !linked[id] {
			out = append(out, id)
		}
	}
	return out
}

func tally(nodes []canvas.Node, conns []canvas.Connection) map[canvas.PortType]int {
	byID := make(map[string]*canvas.Node, len(nodes))
	for i := range nodes {
		if _, dup := byID[nodes[i].ID]; !dup {
			byID[nodes[i].ID] = &nodes[i]
		}
	}
	out := make(map[canvas.PortType]int)
	for _, c := range conns {
		typ := UnknownPortType
		if n, ok := byID[c.SourceNodeID]; ok {
			if p, ok := n.Port(canvas.Output, c.SourcePortID); ok {
				typ = p.Type
			}
		}
		out[typ]++
	}
	return out
}
