package osm2edits

import (
	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

const (
	// Meters per second
	walkingSpeed = 1.34
	bikingSpeed  = 4.5
	minSpeed     = 1.0
)

// Pathfinder holds contraction hierarchy per travel mode. Lanes are vertices, turns are edges
type Pathfinder struct {
	graphs map[PathConstraints]*modeGraph
}

type modeGraph struct {
	graph    *ch.Graph
	vertices map[LaneID]struct{}
	edges    int
}

// travelSpeed returns speed in m/s for the mode on given lane
func travelSpeed(mode PathConstraints, road *Road) float64 {
	switch mode {
	case CONSTRAINT_PEDESTRIAN:
		return walkingSpeed
	case CONSTRAINT_BIKE:
		return min(bikingSpeed, max(minSpeed, road.SpeedLimit/3.6))
	default:
		return max(minSpeed, road.SpeedLimit/3.6)
	}
}

// newPathfinder builds graphs for every travel mode from current lanes and turns
func newPathfinder(m *Map) (*Pathfinder, error) {
	pf := &Pathfinder{
		graphs: make(map[PathConstraints]*modeGraph, len(constraintsAll)),
	}
	for _, mode := range constraintsAll {
		mg, err := buildModeGraph(m, mode)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't build graph for %s", mode)
		}
		pf.graphs[mode] = mg
	}
	return pf, nil
}

func buildModeGraph(m *Map, mode PathConstraints) (*modeGraph, error) {
	mg := &modeGraph{
		graph:    &ch.Graph{},
		vertices: make(map[LaneID]struct{}),
	}
	for _, road := range m.roads {
		for _, lane := range road.Lanes {
			if !mode.CanUse(lane, m.config) {
				continue
			}
			if err := mg.graph.CreateVertex(lane.ID.encode()); err != nil {
				return nil, errors.Wrapf(err, "Can't create vertex for %s", lane.ID)
			}
			mg.vertices[lane.ID] = struct{}{}
		}
	}
	for _, intersection := range m.intersections {
		for _, turn := range intersection.Turns {
			if _, ok := mg.vertices[turn.ID.Src]; !ok {
				continue
			}
			if _, ok := mg.vertices[turn.ID.Dst]; !ok {
				continue
			}
			src := m.GetLane(turn.ID.Src)
			cost := src.Length() / travelSpeed(mode, m.GetRoad(src.ID.Road))
			if err := mg.graph.AddEdge(turn.ID.Src.encode(), turn.ID.Dst.encode(), cost); err != nil {
				return nil, errors.Wrapf(err, "Can't add edge for %s", turn.ID)
			}
			mg.edges++
		}
	}
	if mg.edges > 0 {
		mg.graph.PrepareContractionHierarchies()
	}
	return mg, nil
}

// Pathfind returns sequence of lanes between two lanes and its cost in seconds
func (pf *Pathfinder) Pathfind(from, to LaneID, mode PathConstraints) ([]LaneID, float64, bool) {
	mg, ok := pf.graphs[mode]
	if !ok {
		return nil, -1, false
	}
	if _, ok := mg.vertices[from]; !ok {
		return nil, -1, false
	}
	if _, ok := mg.vertices[to]; !ok {
		return nil, -1, false
	}
	if from == to {
		return []LaneID{from}, 0, true
	}
	if mg.edges == 0 {
		return nil, -1, false
	}
	cost, path := mg.graph.ShortestPath(from.encode(), to.encode())
	if cost < 0 || len(path) == 0 {
		return nil, -1, false
	}
	lanes := make([]LaneID, len(path))
	for i, label := range path {
		lanes[i] = decodeLaneID(label)
	}
	return lanes, cost, true
}

// VerticesNum returns number of lanes in graph of given mode
func (pf *Pathfinder) VerticesNum(mode PathConstraints) int {
	if mg, ok := pf.graphs[mode]; ok {
		return len(mg.vertices)
	}
	return 0
}
