package osm2edits

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// TurnType is kind of lane-to-lane movement
type TurnType uint16

const (
	TURN_STRAIGHT = TurnType(iota + 1)
	TURN_LEFT
	TURN_RIGHT
	TURN_UTURN
	TURN_CROSSWALK
	TURN_UNMARKED_CROSSING
	TURN_SHARED_SIDEWALK_CORNER

	TURN_UNDEFINED = TurnType(0)
)

func (iotaIdx TurnType) String() string {
	return [...]string{"undefined", "straight", "left", "right", "uturn", "crosswalk", "unmarked_crossing", "shared_sidewalk_corner"}[iotaIdx]
}

var (
	turnTypesTxt = map[string]TurnType{
		"straight":               TURN_STRAIGHT,
		"left":                   TURN_LEFT,
		"right":                  TURN_RIGHT,
		"uturn":                  TURN_UTURN,
		"crosswalk":              TURN_CROSSWALK,
		"unmarked_crossing":      TURN_UNMARKED_CROSSING,
		"shared_sidewalk_corner": TURN_SHARED_SIDEWALK_CORNER,
	}
	turnTypeByMovement = map[MovementType]TurnType{
		MOVEMENT_THRU:   TURN_STRAIGHT,
		MOVEMENT_RIGHT:  TURN_RIGHT,
		MOVEMENT_LEFT:   TURN_LEFT,
		MOVEMENT_U_TURN: TURN_UTURN,
	}
)

func (iotaIdx TurnType) MarshalText() ([]byte, error) {
	if iotaIdx == TURN_UNDEFINED || int(iotaIdx) > len(turnTypesTxt) {
		return nil, errors.Errorf("Can't marshal turn type %d", iotaIdx)
	}
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *TurnType) UnmarshalText(text []byte) error {
	found, ok := turnTypesTxt[string(text)]
	if !ok {
		return errors.Errorf("Unknown turn type '%s'", string(text))
	}
	*iotaIdx = found
	return nil
}

// IsPedestrianCrossing returns true for turns crossing the road
func (iotaIdx TurnType) IsPedestrianCrossing() bool {
	return iotaIdx == TURN_CROSSWALK || iotaIdx == TURN_UNMARKED_CROSSING
}

func (iotaIdx TurnType) IsWalking() bool {
	return iotaIdx.IsPedestrianCrossing() || iotaIdx == TURN_SHARED_SIDEWALK_CORNER
}

// Turn is permitted lane-to-lane movement through one intersection
type Turn struct {
	ID   TurnID
	Type TurnType
	Geom orb.LineString
}

const (
	// Meters. Length of lane part used for evaluating angles near intersection
	approachLength = 10.0
)

// approachSegment returns short segment of the lane near the intersection oriented in direction of travel
func approachSegment(lane *Lane, i IntersectionID) orb.LineString {
	length := lane.Length()
	dist := min(length, approachLength)
	if lane.DstI == i {
		return orb.LineString{pointAlongLine(lane.Geom, length-dist), lane.Geom[len(lane.Geom)-1]}
	}
	return orb.LineString{lane.Geom[0], pointAlongLine(lane.Geom, dist)}
}

// makeAllTurns generates full set of turns for the intersection from current lanes connectivity
func makeAllTurns(m *Map, intersection *Intersection) []*Turn {
	if intersection.IsBorder() || intersection.IsClosed() {
		return nil
	}
	turns := make(map[TurnID]*Turn)
	makeVehicleTurns(m, intersection, motorLanesClass, turns)
	makeVehicleTurns(m, intersection, bikeLanesClass, turns)
	makeWalkingTurns(m, intersection, turns)

	result := make([]*Turn, 0, len(turns))
	for _, turn := range turns {
		result = append(result, turn)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.less(result[j].ID) })
	return result
}

// laneClass picks lanes of one road and one direction which are connected with each other through intersections
type laneClass func(lanes []*Lane) []*Lane

func motorLanesClass(lanes []*Lane) []*Lane {
	result := []*Lane{}
	for _, lane := range lanes {
		if lane.Type.IsForMotorVehicles() {
			result = append(result, lane)
		}
	}
	return result
}

// bikeLanesClass uses bike lanes, cyclists share driving lanes otherwise
func bikeLanesClass(lanes []*Lane) []*Lane {
	result := []*Lane{}
	for _, lane := range lanes {
		if lane.Type == LANE_BIKING {
			result = append(result, lane)
		}
	}
	if len(result) > 0 {
		return result
	}
	for _, lane := range lanes {
		if lane.Type == LANE_DRIVING {
			result = append(result, lane)
		}
	}
	return result
}

// vehicleGroups returns incoming and outgoing lane groups for given class
func vehicleGroups(m *Map, intersection *Intersection, class laneClass) ([]laneGroup, []laneGroup) {
	incoming, outgoing := []laneGroup{}, []laneGroup{}
	for _, roadID := range intersection.Roads {
		road := m.GetRoad(roadID)
		in, out := []*Lane{}, []*Lane{}
		for _, lane := range road.Lanes {
			if lane.DstI == intersection.ID {
				in = append(in, lane)
			}
			if lane.SrcI == intersection.ID {
				out = append(out, lane)
			}
		}
		if group, ok := newLaneGroup(roadID, class(in), intersection.ID); ok {
			incoming = append(incoming, group)
		}
		if group, ok := newLaneGroup(roadID, class(out), intersection.ID); ok {
			outgoing = append(outgoing, group)
		}
	}
	return incoming, outgoing
}

func newLaneGroup(roadID RoadID, lanes []*Lane, i IntersectionID) (laneGroup, bool) {
	if len(lanes) == 0 {
		return laneGroup{}, false
	}
	// Left-to-right in direction of travel: forward lanes keep road's layout order
	sort.Slice(lanes, func(a, b int) bool {
		if lanes[a].Dir == DIRECTION_BACKWARD {
			return lanes[a].ID.Offset > lanes[b].ID.Offset
		}
		return lanes[a].ID.Offset < lanes[b].ID.Offset
	})
	group := laneGroup{
		road:  roadID,
		geom:  approachSegment(lanes[len(lanes)/2], i),
		lanes: make([]LaneID, len(lanes)),
	}
	for k, lane := range lanes {
		group.lanes[k] = lane.ID
	}
	return group, true
}

func makeVehicleTurns(m *Map, intersection *Intersection, class laneClass, turns map[TurnID]*Turn) {
	incoming, outgoing := vehicleGroups(m, intersection, class)
	if len(incoming) == 0 || len(outgoing) == 0 {
		return
	}
	pairs := [][2]LaneID{}
	if len(outgoing) == 1 {
		// Merge
		out := outgoing[0]
		ins := []laneGroup{}
		for _, in := range incoming {
			if in.road != out.road { // Ignore reverse direction
				ins = append(ins, in)
			}
		}
		if len(ins) > 0 {
			connections := getSpansConnections(out, ins)
			for k, in := range ins {
				pairs = append(pairs, expandConnection(in, connections[k][0], out, connections[k][1])...)
			}
		} else {
			// Dead end: turning back is the only option
			connections := getIntersectionsConnections(incoming[0], outgoing)
			pairs = append(pairs, expandConnection(incoming[0], connections[0][0], out, connections[0][1])...)
		}
	} else {
		// Diverge
		for _, in := range incoming {
			outs := []laneGroup{}
			for _, out := range outgoing {
				if in.road != out.road { // Ignore reverse direction
					outs = append(outs, out)
				}
			}
			if len(outs) == 0 {
				continue
			}
			connections := getIntersectionsConnections(in, outs)
			for k, out := range outs {
				pairs = append(pairs, expandConnection(in, connections[k][0], out, connections[k][1])...)
			}
		}
	}

	for _, pair := range pairs {
		id := TurnID{Parent: intersection.ID, Src: pair[0], Dst: pair[1]}
		if _, ok := turns[id]; ok {
			continue
		}
		src, dst := m.GetLane(pair[0]), m.GetLane(pair[1])
		_, movementType := movementBetweenLines(approachSegment(src, intersection.ID), approachSegment(dst, intersection.ID))
		turnType := turnTypeByMovement[movementType]
		if src.ID.Road == dst.ID.Road {
			turnType = TURN_UTURN
		}
		turns[id] = &Turn{
			ID:   id,
			Type: turnType,
			Geom: orb.LineString{src.endpointAt(intersection.ID), dst.endpointAt(intersection.ID)},
		}
	}
}

// roadSides holds outermost walkable lanes of the road as seen looking outward from the intersection
type roadSides struct {
	road  RoadID
	angle float64
	left  *Lane
	right *Lane
	count int
}

func makeWalkingTurns(m *Map, intersection *Intersection, turns map[TurnID]*Turn) {
	sides := make([]roadSides, 0, len(intersection.Roads))
	for _, roadID := range intersection.Roads {
		road := m.GetRoad(roadID)
		walkable := []*Lane{}
		for _, lane := range road.Lanes {
			if lane.Type.IsWalkable() {
				walkable = append(walkable, lane)
			}
		}
		if len(walkable) == 0 {
			continue
		}
		outward := road.Center.Clone()
		if road.DstI == intersection.ID {
			outward = reversedLine(road.Center)
		}
		side := roadSides{
			road:  roadID,
			angle: angleAround(outward[0], pointAlongLine(outward, approachLength)),
			count: len(walkable),
		}
		// Layout order is left to right along the center line
		side.left, side.right = walkable[0], walkable[len(walkable)-1]
		if road.DstI == intersection.ID {
			side.left, side.right = side.right, side.left
		}
		sides = append(sides, side)
	}

	crossingType := TURN_CROSSWALK
	if intersection.Tags.Find("crossing") == "unmarked" {
		crossingType = TURN_UNMARKED_CROSSING
	}
	if len(intersection.Roads) >= 3 {
		for _, side := range sides {
			if side.count < 2 {
				continue
			}
			addWalkingTurn(intersection.ID, side.left, side.right, crossingType, turns)
			addWalkingTurn(intersection.ID, side.right, side.left, crossingType, turns)
		}
	}

	if len(sides) < 2 {
		return
	}
	sort.SliceStable(sides, func(a, b int) bool { return sides[a].angle < sides[b].angle })
	for k := range sides {
		current, next := sides[k], sides[(k+1)%len(sides)]
		addWalkingTurn(intersection.ID, current.left, next.right, TURN_SHARED_SIDEWALK_CORNER, turns)
		addWalkingTurn(intersection.ID, next.right, current.left, TURN_SHARED_SIDEWALK_CORNER, turns)
	}
}

func addWalkingTurn(i IntersectionID, src, dst *Lane, turnType TurnType, turns map[TurnID]*Turn) {
	if src.ID == dst.ID {
		return
	}
	id := TurnID{Parent: i, Src: src.ID, Dst: dst.ID}
	if _, ok := turns[id]; ok {
		return
	}
	turns[id] = &Turn{
		ID:   id,
		Type: turnType,
		Geom: orb.LineString{src.endpointAt(i), dst.endpointAt(i)},
	}
}
