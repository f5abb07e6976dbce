package osm2edits

import (
	"testing"
)

// closeDrivingLanes turns every lane usable by buses on the road into construction
func closeDrivingLanes(m *Map, roadID RoadID) ChangeRoad {
	return m.EditRoadCmd(roadID, func(er *EditRoad) {
		for i := range er.LanesLTR {
			if er.LanesLTR[i].LaneType == LANE_DRIVING || er.LanesLTR[i].LaneType == LANE_BUS {
				er.LanesLTR[i].LaneType = LANE_CONSTRUCTION
			}
		}
	})
}

func TestTransitStopRerouted(t *testing.T) {
	m := testMap(t)
	// Driving lane next to the stop becomes a bus lane, stop must follow the closest one
	applyCommands(m, m.EditRoadCmd(1, func(er *EditRoad) {
		er.LanesLTR[3].LaneType = LANE_BUS
	}))
	stop := m.GetTransitStop(0)
	correctLane := LaneID{Road: 1, Offset: 3}
	if stop.DrivingPos.Lane != correctLane {
		t.Errorf("Driving position of stop must be on %s, but got %s", correctLane, stop.DrivingPos.Lane)
	}
	if !CONSTRAINT_BUS.CanUse(m.GetLane(stop.DrivingPos.Lane), m.Config()) {
		t.Errorf("Driving position of stop must be usable by buses")
	}
}

func TestOrphanedTransitStopPanics(t *testing.T) {
	m := testMap(t)
	cmd := closeDrivingLanes(m, 1)
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Strict edits must panic when transit stop loses every lane usable by buses")
		}
	}()
	applyCommands(m, cmd)
}

func TestOrphanedTransitStopPermissive(t *testing.T) {
	m := testMap(t)
	stop := m.GetTransitStop(0)
	drivingPos := stop.DrivingPos
	sidewalkPos := stop.SidewalkPos

	edits := m.GetEdits().Clone()
	edits.Commands = append(edits.Commands, closeDrivingLanes(m, 1))
	effects := m.TryApplyEdits(edits)
	if _, ok := effects.ChangedRoads[1]; !ok {
		t.Errorf("Road 1 must be changed")
	}
	if m.GetLane(LaneID{Road: 1, Offset: 2}).Type != LANE_CONSTRUCTION {
		t.Errorf("Lane %s must be %s, but got %s", LaneID{Road: 1, Offset: 2}, LANE_CONSTRUCTION, m.GetLane(LaneID{Road: 1, Offset: 2}).Type)
	}
	if stop.DrivingPos != drivingPos {
		t.Errorf("Permissive edits must leave driving position of stop as %+v, but got %+v", drivingPos, stop.DrivingPos)
	}
	if stop.SidewalkPos != sidewalkPos {
		t.Errorf("Permissive edits must leave sidewalk position of stop as %+v, but got %+v", sidewalkPos, stop.SidewalkPos)
	}
}
