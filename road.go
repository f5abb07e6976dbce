package osm2edits

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/osm"
)

// OriginalRoad identifies road by OSM way and two OSM nodes it spans. Stable between imports
type OriginalRoad struct {
	OsmWayID osm.WayID  `json:"osm_way_id"`
	I1       osm.NodeID `json:"i1"`
	I2       osm.NodeID `json:"i2"`
}

func (id OriginalRoad) String() string {
	return fmt.Sprintf("OriginalRoad(way %d: node %d -> node %d)", id.OsmWayID, id.I1, id.I2)
}

// Road is a graph edge between two intersections with left-to-right lanes layout
type Road struct {
	ID     RoadID
	OrigID OriginalRoad
	Tags   osm.Tags
	SrcI   IntersectionID
	DstI   IntersectionID
	// Center line before clipping by intersections polygons
	UntrimmedCenter orb.LineString
	Center          orb.LineString
	Lanes           []*Lane
	// km/h
	SpeedLimit         float64
	AccessRestrictions AccessRestrictions
	TransitStops       map[TransitStopID]struct{}

	linkType LinkType
}

func (road *Road) String() string {
	return fmt.Sprintf("Road #%d (%s): %s", road.ID, road.OrigID, wkt.MarshalString(road.Center))
}

// LaneSpecs returns current left-to-right lanes layout
func (road *Road) LaneSpecs() []LaneSpec {
	specs := make([]LaneSpec, len(road.Lanes))
	for i, lane := range road.Lanes {
		specs[i] = LaneSpec{LaneType: lane.Type, Dir: lane.Dir, Width: lane.Width}
	}
	return specs
}

func (road *Road) Width() float64 {
	sum := 0.0
	for _, lane := range road.Lanes {
		sum += lane.Width
	}
	return sum
}

func (road *Road) HalfWidth() float64 {
	return road.Width() / 2.0
}

func (road *Road) Length() float64 {
	return lineLength(road.Center)
}

// OtherEndpoint returns intersection on the opposite end of the road
func (road *Road) OtherEndpoint(i IntersectionID) IntersectionID {
	if road.SrcI == i {
		return road.DstI
	}
	return road.SrcI
}

// recreateLanes builds lanes geometry for given layout against current center line
func (road *Road) recreateLanes(specs []LaneSpec) {
	width := totalWidth(specs)
	lanes := make([]*Lane, len(specs))
	before := 0.0
	for i, spec := range specs {
		// Positive offset is left side of the center line
		offset := width/2.0 - before - spec.Width/2.0
		geom := offsetCurve(road.Center, offset)
		lane := &Lane{
			ID:    LaneID{Road: road.ID, Offset: i},
			Type:  spec.LaneType,
			Dir:   spec.Dir,
			Width: spec.Width,
			SrcI:  road.SrcI,
			DstI:  road.DstI,
			Geom:  geom,
		}
		if spec.Dir == DIRECTION_BACKWARD {
			lane.Geom = reversedLine(geom)
			lane.SrcI, lane.DstI = road.DstI, road.SrcI
		}
		lanes[i] = lane
		before += spec.Width
	}
	road.Lanes = lanes
}

// FindClosestLane returns lane satisfying the predicate nearest (by position in layout) to given one
func (road *Road) FindClosestLane(from LaneID, pred func(*Lane) bool) (LaneID, bool) {
	best, bestDist := LaneID{}, math.MaxInt32
	for _, lane := range road.Lanes {
		if lane.ID == from || !pred(lane) {
			continue
		}
		dist := lane.ID.Offset - from.Offset
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = lane.ID, dist
		}
	}
	return best, bestDist != math.MaxInt32
}

// Lane is one traversable strip within a road
type Lane struct {
	ID    LaneID
	Type  LaneType
	Dir   Direction
	Width float64
	// Oriented in direction of travel
	Geom orb.LineString
	SrcI IntersectionID
	DstI IntersectionID

	DrivingBlackhole bool
	BikingBlackhole  bool
}

func (lane *Lane) Length() float64 {
	return lineLength(lane.Geom)
}

// endpointAt returns end of lane touching given intersection
func (lane *Lane) endpointAt(i IntersectionID) orb.Point {
	if lane.DstI == i {
		return lane.Geom[len(lane.Geom)-1]
	}
	return lane.Geom[0]
}

// Position is a point on a lane defined by distance from lane start
type Position struct {
	Lane      LaneID  `json:"lane"`
	DistAlong float64 `json:"dist_along"`
}

func (pos Position) Pt(m *Map) orb.Point {
	return pointAlongLine(m.GetLane(pos.Lane).Geom, pos.DistAlong)
}

// EquivPos returns equivalent position on another lane of the same road
func (pos Position) EquivPos(other LaneID, m *Map) Position {
	src := m.GetLane(pos.Lane)
	dst := m.GetLane(other)
	dist := pos.DistAlong
	if src.Dir != dst.Dir {
		dist = src.Length() - dist
	}
	return Position{
		Lane:      other,
		DistAlong: math.Max(0, math.Min(dist, dst.Length())),
	}
}
