package osm2edits

import (
	"fmt"
	"sort"
)

type RoadID int

type IntersectionID int

type BuildingID int

type ParkingLotID int

type TransitRouteID int

type TransitStopID int

// LaneID identifies a lane by its road and its left-to-right offset inside that road.
// Lanes are recreated on every lane edit, so the same LaneID may refer to a different lane type afterwards.
type LaneID struct {
	Road   RoadID `json:"road"`
	Offset int    `json:"offset"`
}

const laneIDFactor = 1000

func (id LaneID) String() string {
	return fmt.Sprintf("Lane #%d/%d", id.Road, id.Offset)
}

// encode packs LaneID into a single vertex label for the pathfinding graphs
func (id LaneID) encode() int64 {
	return int64(id.Road)*laneIDFactor + int64(id.Offset)
}

func decodeLaneID(label int64) LaneID {
	return LaneID{
		Road:   RoadID(label / laneIDFactor),
		Offset: int(label % laneIDFactor),
	}
}

func (id LaneID) less(other LaneID) bool {
	if id.Road != other.Road {
		return id.Road < other.Road
	}
	return id.Offset < other.Offset
}

// TurnID identifies lane-to-lane movement through one intersection
type TurnID struct {
	Parent IntersectionID `json:"parent"`
	Src    LaneID         `json:"src"`
	Dst    LaneID         `json:"dst"`
}

func (id TurnID) String() string {
	return fmt.Sprintf("Turn(%d, %s -> %s)", id.Parent, id.Src, id.Dst)
}

func (id TurnID) less(other TurnID) bool {
	if id.Parent != other.Parent {
		return id.Parent < other.Parent
	}
	if id.Src != other.Src {
		return id.Src.less(other.Src)
	}
	return id.Dst.less(other.Dst)
}

// DirectedRoadID is a road traversed in one direction
type DirectedRoadID struct {
	Road RoadID
	Dir  Direction
}

func (id DirectedRoadID) less(other DirectedRoadID) bool {
	if id.Road != other.Road {
		return id.Road < other.Road
	}
	return id.Dir < other.Dir
}

// MovementID groups turns sharing the same pair of directed roads
type MovementID struct {
	From      DirectedRoadID
	To        DirectedRoadID
	Parent    IntersectionID
	Crosswalk bool
}

func (id MovementID) String() string {
	if id.Crosswalk {
		return fmt.Sprintf("Crosswalk(%d, road #%d)", id.Parent, id.From.Road)
	}
	return fmt.Sprintf("Movement(%d, road #%d %s -> road #%d %s)", id.Parent, id.From.Road, id.From.Dir, id.To.Road, id.To.Dir)
}

func (id MovementID) less(other MovementID) bool {
	if id.Parent != other.Parent {
		return id.Parent < other.Parent
	}
	if id.From != other.From {
		return id.From.less(other.From)
	}
	if id.To != other.To {
		return id.To.less(other.To)
	}
	return !id.Crosswalk && other.Crosswalk
}

func sortedRoadIDs(set map[RoadID]struct{}) []RoadID {
	ids := make([]RoadID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedIntersectionIDs(set map[IntersectionID]struct{}) []IntersectionID {
	ids := make([]IntersectionID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedTurnIDs(set map[TurnID]struct{}) []TurnID {
	ids := make([]TurnID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })
	return ids
}

func sortedLaneIDs(set map[LaneID]struct{}) []LaneID {
	ids := make([]LaneID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })
	return ids
}
