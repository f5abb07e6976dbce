package osm2edits

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// InputRoad is road meeting an intersection. Center line must end at the intersection
type InputRoad struct {
	ID        RoadID
	Center    orb.LineString
	HalfWidth float64
	Tags      osm.Tags
}

// IntersectionGeometry is result of intersection polygon evaluation.
// Trimmed center lines still end at the intersection
type IntersectionGeometry struct {
	Polygon        orb.Polygon
	TrimmedCenters map[RoadID]orb.LineString
}

// IntersectionGeometer computes intersection polygon and re-trims incident roads
type IntersectionGeometer interface {
	IntersectionPolygon(id osm.NodeID, roads []InputRoad) (*IntersectionGeometry, error)
}

const (
	defaultCornerBuffer = 1.0
	minTrimmedLength    = 1.0
)

// DefaultGeometer trims every road by the largest half-width at the intersection plus a corner buffer
type DefaultGeometer struct {
	CornerBuffer float64
}

func NewDefaultGeometer() DefaultGeometer {
	return DefaultGeometer{CornerBuffer: defaultCornerBuffer}
}

func (g DefaultGeometer) IntersectionPolygon(id osm.NodeID, roads []InputRoad) (*IntersectionGeometry, error) {
	if len(roads) == 0 {
		return nil, errors.Errorf("No roads at intersection %d", id)
	}
	maxHalfWidth := 0.0
	for _, road := range roads {
		if road.HalfWidth > maxHalfWidth {
			maxHalfWidth = road.HalfWidth
		}
	}
	trim := maxHalfWidth + g.CornerBuffer

	result := &IntersectionGeometry{
		TrimmedCenters: make(map[RoadID]orb.LineString, len(roads)),
	}
	corners := make([]orb.Point, 0, 2*len(roads)+2)
	for _, road := range roads {
		if len(road.Center) < 2 {
			return nil, errors.Errorf("Road %d at intersection %d has degenerate center line", road.ID, id)
		}
		length := lineLength(road.Center)
		if length-trim < minTrimmedLength {
			return nil, errors.Errorf("Road %d is too short (%f) to be trimmed by %f at intersection %d", road.ID, length, trim, id)
		}
		trimmed := lineSubstring(road.Center, 0, length-trim)
		result.TrimmedCenters[road.ID] = trimmed

		end := trimmed[len(trimmed)-1]
		dir := lastDirection(trimmed)
		normal := orb.Point{-dir.Y() * road.HalfWidth, dir.X() * road.HalfWidth}
		corners = append(corners,
			orb.Point{end.X() + normal.X(), end.Y() + normal.Y()},
			orb.Point{end.X() - normal.X(), end.Y() - normal.Y()},
		)
		if len(roads) == 1 {
			// Dead end: cap the road with trimmed part
			tip := road.Center[len(road.Center)-1]
			corners = append(corners,
				orb.Point{tip.X() + normal.X(), tip.Y() + normal.Y()},
				orb.Point{tip.X() - normal.X(), tip.Y() - normal.Y()},
			)
		}
	}
	if len(corners) < 3 {
		return nil, errors.Errorf("Not enough corners (%d) for polygon of intersection %d", len(corners), id)
	}

	centroid := orb.Point{}
	for _, pt := range corners {
		centroid[0] += pt[0]
		centroid[1] += pt[1]
	}
	centroid[0] /= float64(len(corners))
	centroid[1] /= float64(len(corners))
	sort.SliceStable(corners, func(i, j int) bool {
		return angleAround(centroid, corners[i]) < angleAround(centroid, corners[j])
	})

	ring := make(orb.Ring, 0, len(corners)+1)
	ring = append(ring, corners...)
	ring = append(ring, corners[0])
	result.Polygon = orb.Polygon{ring}
	return result, nil
}
