package osm2edits

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// borderVertex joins lanes entering and leaving the map through border intersections
var borderVertex = LaneID{Road: -1, Offset: 0}

// laneGraph is directed graph of lanes connected by turns
type laneGraph struct {
	graph    *simple.DirectedGraph
	vertices []LaneID
	nodes    map[LaneID]int64
}

func newLaneGraph() *laneGraph {
	return &laneGraph{
		graph: simple.NewDirectedGraph(),
		nodes: make(map[LaneID]int64),
	}
}

func (lg *laneGraph) addVertex(laneID LaneID) {
	if _, ok := lg.nodes[laneID]; ok {
		return
	}
	id := int64(len(lg.vertices))
	lg.nodes[laneID] = id
	lg.vertices = append(lg.vertices, laneID)
	lg.graph.AddNode(simple.Node(id))
}

func (lg *laneGraph) hasVertex(laneID LaneID) bool {
	_, ok := lg.nodes[laneID]
	return ok
}

// addEdge connects two known vertices. Unknown vertices and self loops are ignored
func (lg *laneGraph) addEdge(from, to LaneID) {
	fromID, okFrom := lg.nodes[from]
	toID, okTo := lg.nodes[to]
	if !okFrom || !okTo || fromID == toID {
		return
	}
	lg.graph.SetEdge(lg.graph.NewEdge(simple.Node(fromID), simple.Node(toID)))
}

// components returns strongly connected components as lane identifiers
func (lg *laneGraph) components() [][]LaneID {
	sccs := topo.TarjanSCC(lg.graph)
	components := make([][]LaneID, 0, len(sccs))
	for _, scc := range sccs {
		component := make([]LaneID, 0, len(scc))
		for _, node := range scc {
			component = append(component, lg.vertices[node.ID()])
		}
		components = append(components, component)
	}
	return components
}

// findSCC returns lanes of the largest strongly connected component and lanes outside of it (blackholes)
func findSCC(m *Map, mode PathConstraints) (map[LaneID]struct{}, []LaneID) {
	lg := newLaneGraph()
	for _, road := range m.roads {
		for _, lane := range road.Lanes {
			if mode.CanUse(lane, m.config) {
				lg.addVertex(lane.ID)
			}
		}
	}
	if len(lg.vertices) == 0 {
		return map[LaneID]struct{}{}, nil
	}
	for _, intersection := range m.intersections {
		for _, turn := range intersection.Turns {
			lg.addEdge(turn.ID.Src, turn.ID.Dst)
		}
		if !intersection.IsBorder() {
			continue
		}
		for _, lane := range intersection.IncomingLanes(m) {
			if lg.hasVertex(lane.ID) {
				lg.addVertex(borderVertex)
				lg.addEdge(lane.ID, borderVertex)
			}
		}
		for _, lane := range intersection.OutgoingLanes(m) {
			if lg.hasVertex(lane.ID) {
				lg.addVertex(borderVertex)
				lg.addEdge(borderVertex, lane.ID)
			}
		}
	}

	components := lg.components()
	largest := 0
	for i, component := range components {
		if len(component) > len(components[largest]) {
			largest = i
		}
	}
	largestSet := make(map[LaneID]struct{}, len(components[largest]))
	for _, laneID := range components[largest] {
		if laneID != borderVertex {
			largestSet[laneID] = struct{}{}
		}
	}
	disconnected := make(map[LaneID]struct{})
	for _, laneID := range lg.vertices {
		if _, ok := largestSet[laneID]; !ok && laneID != borderVertex {
			disconnected[laneID] = struct{}{}
		}
	}
	return largestSet, sortedLaneIDs(disconnected)
}
