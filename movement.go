package osm2edits

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Movement aggregates turns sharing the same pair of directed roads
type Movement struct {
	ID      MovementID
	Members []TurnID

	movementCompositeType MovementCompositeType
	movementType          MovementType
	geom                  orb.LineString
}

func (mvmt *Movement) CompositeType() MovementCompositeType {
	return mvmt.movementCompositeType
}

func (mvmt *Movement) Type() MovementType {
	return mvmt.movementType
}

func (mvmt *Movement) Geom() orb.LineString {
	return mvmt.geom
}

// movementBetweenLines returns movement information for given lines pair
//
// Note: panics if number of points in any line is less than 2
//
func movementBetweenLines(l1 orb.LineString, l2 orb.LineString) (MovementCompositeType, MovementType) {
	startL1, endL1 := l1[0], l1[len(l1)-1]
	endL2 := l2[len(l2)-1]

	var direction string

	angle1 := math.Atan2(endL1.Y()-startL1.Y(), endL1.X()-startL1.X())
	if -0.75*math.Pi <= angle1 && angle1 < -0.25*math.Pi {
		direction = "SB"
	} else if -0.25*math.Pi <= angle1 && angle1 < 0.25*math.Pi {
		direction = "EB"
	} else if 0.25*math.Pi <= angle1 && angle1 < 0.75*math.Pi {
		direction = "NB"
	} else {
		direction = "WB"
	}

	angle2 := math.Atan2(endL2.Y()-endL1.Y(), endL2.X()-endL1.X())

	angleDiff := angle2 - angle1
	if angleDiff < -1*math.Pi {
		angleDiff += 2 * math.Pi
	}
	if angleDiff > math.Pi {
		angleDiff -= 2 * math.Pi
	}

	var movement string
	var movementType MovementType
	if -0.25*math.Pi <= angleDiff && angleDiff <= 0.25*math.Pi {
		movement = "T"
		movementType = MOVEMENT_THRU
	} else if angleDiff < -0.25*math.Pi {
		movement = "R"
		movementType = MOVEMENT_RIGHT
	} else if angleDiff <= 0.75*math.Pi {
		movement = "L"
		movementType = MOVEMENT_LEFT
	} else {
		movement = "U"
		movementType = MOVEMENT_U_TURN
	}

	return movementTxt[direction+movement], movementType
}

// movementGeomBetweenLines returns movement geometry for given lines pair
//
// Note: panics if number of points in any line is less than 2
//
func movementGeomBetweenLines(l1 orb.LineString, l2 orb.LineString) orb.LineString {
	indent1 := indentationThreshold
	length1 := lineLength(l1)
	if length1 <= indent1 {
		indent1 = length1 / 2.0
	}
	point1 := pointAlongLine(l1, length1-indent1) // Ident from lane end

	indent2 := indentationThreshold
	length2 := lineLength(l2)
	if length2 <= indent2 {
		indent2 = length2 / 2.0
	}

	point2 := pointAlongLine(l2, indent2)
	return orb.LineString{point1, point2}
}

const (
	indentationThreshold = 8.0
)

type MovementType uint16

const (
	MOVEMENT_THRU = MovementType(iota + 1)
	MOVEMENT_RIGHT
	MOVEMENT_LEFT
	MOVEMENT_U_TURN

	MOVEMENT_UNDEFINED = MovementType(0)
)

func (iotaIdx MovementType) String() string {
	return [...]string{"undefined", "thru", "right", "left", "uturn"}[iotaIdx]
}

type MovementCompositeType uint16

const (
	MOVEMENT_SBT = MovementCompositeType(iota + 1)
	MOVEMENT_SBR
	MOVEMENT_SBL
	MOVEMENT_SBU
	MOVEMENT_EBT
	MOVEMENT_EBR
	MOVEMENT_EBL
	MOVEMENT_EBU
	MOVEMENT_NBT
	MOVEMENT_NBR
	MOVEMENT_NBL
	MOVEMENT_NBU
	MOVEMENT_WBT
	MOVEMENT_WBR
	MOVEMENT_WBL
	MOVEMENT_WBU
	MOVEMENT_NONE = MovementCompositeType(0)
)

var (
	movementTxt = map[string]MovementCompositeType{
		"SBT": MOVEMENT_SBT,
		"SBR": MOVEMENT_SBR,
		"SBL": MOVEMENT_SBL,
		"SBU": MOVEMENT_SBU,
		"EBT": MOVEMENT_EBT,
		"EBR": MOVEMENT_EBR,
		"EBL": MOVEMENT_EBL,
		"EBU": MOVEMENT_EBU,
		"NBT": MOVEMENT_NBT,
		"NBR": MOVEMENT_NBR,
		"NBL": MOVEMENT_NBL,
		"NBU": MOVEMENT_NBU,
		"WBT": MOVEMENT_WBT,
		"WBR": MOVEMENT_WBR,
		"WBL": MOVEMENT_WBL,
		"WBU": MOVEMENT_WBU,
	}
)

func (iotaIdx MovementCompositeType) String() string {
	return [...]string{"undefined", "SBT", "SBR", "SBL", "SBU", "EBT", "EBR", "EBL", "EBU", "NBT", "NBR", "NBL", "NBU", "WBT", "WBR", "WBL", "WBU"}[iotaIdx]
}

// movementsForIntersection aggregates turns of the intersection. Sidewalk corners are not movements
func movementsForIntersection(m *Map, intersection *Intersection) map[MovementID]*Movement {
	movements := make(map[MovementID]*Movement)
	for _, turn := range intersection.Turns {
		if turn.Type == TURN_SHARED_SIDEWALK_CORNER {
			continue
		}
		src, dst := m.GetLane(turn.ID.Src), m.GetLane(turn.ID.Dst)
		id := MovementID{
			From:      DirectedRoadID{Road: src.ID.Road, Dir: src.Dir},
			To:        DirectedRoadID{Road: dst.ID.Road, Dir: dst.Dir},
			Parent:    intersection.ID,
			Crosswalk: turn.Type.IsPedestrianCrossing(),
		}
		mvmt, ok := movements[id]
		if !ok {
			srcApproach := approachSegment(src, intersection.ID)
			dstApproach := approachSegment(dst, intersection.ID)
			mvmt = &Movement{ID: id}
			if id.Crosswalk {
				mvmt.geom = turn.Geom.Clone()
			} else {
				mvmt.movementCompositeType, mvmt.movementType = movementBetweenLines(srcApproach, dstApproach)
				mvmt.geom = movementGeomBetweenLines(src.Geom, dst.Geom)
			}
			movements[id] = mvmt
		}
		mvmt.Members = append(mvmt.Members, turn.ID)
	}
	for _, mvmt := range movements {
		sort.Slice(mvmt.Members, func(i, j int) bool { return mvmt.Members[i].less(mvmt.Members[j]) })
	}
	return movements
}
