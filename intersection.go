package osm2edits

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/osm"
)

// IntersectionType is control type of an intersection
type IntersectionType uint16

const (
	INTERSECTION_STOP_SIGN = IntersectionType(iota + 1)
	INTERSECTION_UNCONTROLLED
	INTERSECTION_TRAFFIC_SIGNAL
	INTERSECTION_BORDER
	INTERSECTION_CONSTRUCTION

	INTERSECTION_UNDEFINED = IntersectionType(0)
)

func (iotaIdx IntersectionType) String() string {
	return [...]string{"undefined", "stop_sign", "uncontrolled", "traffic_signal", "border", "construction"}[iotaIdx]
}

var (
	intersectionTypesTxt = map[string]IntersectionType{
		"stop_sign":      INTERSECTION_STOP_SIGN,
		"uncontrolled":   INTERSECTION_UNCONTROLLED,
		"traffic_signal": INTERSECTION_TRAFFIC_SIGNAL,
		"border":         INTERSECTION_BORDER,
		"construction":   INTERSECTION_CONSTRUCTION,
	}
)

// Intersection is a graph node. Turns and movements are owned by the intersection
type Intersection struct {
	ID        IntersectionID
	OrigID    osm.NodeID
	Point     orb.Point
	Polygon   orb.Polygon
	Type      IntersectionType
	Tags      osm.Tags
	Roads     []RoadID
	Turns     []*Turn
	Movements map[MovementID]*Movement
}

func (intersection *Intersection) String() string {
	return fmt.Sprintf("Intersection #%d (node %d, %s): %s", intersection.ID, intersection.OrigID, intersection.Type, wkt.MarshalString(intersection.Polygon))
}

func (intersection *Intersection) IsBorder() bool {
	return intersection.Type == INTERSECTION_BORDER
}

func (intersection *Intersection) IsClosed() bool {
	return intersection.Type == INTERSECTION_CONSTRUCTION
}

// IncomingLanes returns lanes ending at the intersection
func (intersection *Intersection) IncomingLanes(m *Map) []*Lane {
	lanes := []*Lane{}
	for _, roadID := range intersection.Roads {
		for _, lane := range m.GetRoad(roadID).Lanes {
			if lane.DstI == intersection.ID {
				lanes = append(lanes, lane)
			}
		}
	}
	return lanes
}

// OutgoingLanes returns lanes starting at the intersection
func (intersection *Intersection) OutgoingLanes(m *Map) []*Lane {
	lanes := []*Lane{}
	for _, roadID := range intersection.Roads {
		for _, lane := range m.GetRoad(roadID).Lanes {
			if lane.SrcI == intersection.ID {
				lanes = append(lanes, lane)
			}
		}
	}
	return lanes
}

func (intersection *Intersection) findTurn(id TurnID) (*Turn, bool) {
	idx := sort.Search(len(intersection.Turns), func(i int) bool {
		return !intersection.Turns[i].ID.less(id)
	})
	if idx < len(intersection.Turns) && intersection.Turns[idx].ID == id {
		return intersection.Turns[idx], true
	}
	return nil, false
}

// sortedMovementIDs returns movements identifiers in stable order
func (intersection *Intersection) sortedMovementIDs() []MovementID {
	ids := make([]MovementID, 0, len(intersection.Movements))
	for id := range intersection.Movements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })
	return ids
}
