package osm2edits

// ControlStopSign holds roads whose incoming traffic must stop before entering the intersection
type ControlStopSign struct {
	ID       IntersectionID
	MustStop map[RoadID]struct{}

	// Intersection had no signs at all. Stays so until some road must stop
	Uncontrolled bool
}

// newControlStopSign generates stop sign configuration from road classes.
// Roads of the most important class keep going unless every road has the same class
func newControlStopSign(m *Map, id IntersectionID) *ControlStopSign {
	intersection := m.GetIntersection(id)
	ss := &ControlStopSign{
		ID:           id,
		MustStop:     make(map[RoadID]struct{}),
		Uncontrolled: intersection.Type == INTERSECTION_UNCONTROLLED,
	}
	if ss.Uncontrolled {
		return ss
	}
	incoming := []RoadID{}
	for _, roadID := range intersection.Roads {
		for _, lane := range m.GetRoad(roadID).Lanes {
			if lane.DstI == id && (lane.Type.IsForMotorVehicles() || lane.Type == LANE_BIKING) {
				incoming = append(incoming, roadID)
				break
			}
		}
	}
	if len(incoming) <= 2 {
		return ss
	}
	highestRank := 0
	for _, roadID := range incoming {
		highestRank = max(highestRank, m.GetRoad(roadID).linkType.rank())
	}
	allSame := true
	for _, roadID := range incoming {
		if m.GetRoad(roadID).linkType.rank() != highestRank {
			allSame = false
			break
		}
	}
	for _, roadID := range incoming {
		if allSame || m.GetRoad(roadID).linkType.rank() < highestRank {
			ss.MustStop[roadID] = struct{}{}
		}
	}
	return ss
}

func (ss *ControlStopSign) Clone() *ControlStopSign {
	cp := &ControlStopSign{
		ID:           ss.ID,
		MustStop:     make(map[RoadID]struct{}, len(ss.MustStop)),
		Uncontrolled: ss.Uncontrolled,
	}
	for roadID := range ss.MustStop {
		cp.MustStop[roadID] = struct{}{}
	}
	return cp
}

func (ss *ControlStopSign) Equal(other *ControlStopSign) bool {
	if ss == nil || other == nil {
		return ss == other
	}
	if ss.ID != other.ID || ss.Uncontrolled != other.Uncontrolled || len(ss.MustStop) != len(other.MustStop) {
		return false
	}
	for roadID := range ss.MustStop {
		if _, ok := other.MustStop[roadID]; !ok {
			return false
		}
	}
	return true
}

// intersectionType returns type of the intersection controlled by these signs
func (ss *ControlStopSign) intersectionType() IntersectionType {
	if ss.Uncontrolled && len(ss.MustStop) == 0 {
		return INTERSECTION_UNCONTROLLED
	}
	return INTERSECTION_STOP_SIGN
}

// StoppingRoads returns sorted roads which must stop
func (ss *ControlStopSign) StoppingRoads() []RoadID {
	return sortedRoadIDs(ss.MustStop)
}

// FlipSign toggles stop sign for given road
func (ss *ControlStopSign) FlipSign(roadID RoadID) {
	if _, ok := ss.MustStop[roadID]; ok {
		delete(ss.MustStop, roadID)
		return
	}
	ss.MustStop[roadID] = struct{}{}
}
