package osm2edits

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// TransitStop is connected both to a sidewalk and to a lane usable by buses
type TransitStop struct {
	ID          TransitStopID
	GtfsID      string
	Name        string
	SidewalkPos Position
	DrivingPos  Position
}

// TransitRoute is sequence of stops with a schedule
type TransitRoute struct {
	ID        TransitRouteID
	GtfsID    string
	ShortName string
	Stops     []TransitStopID
	// Offsets since midnight
	SpawnTimes     []time.Duration
	OrigSpawnTimes []time.Duration
}

func (route *TransitRoute) String() string {
	return fmt.Sprintf("TransitRoute #%d (%s)", route.ID, route.ShortName)
}

func spawnTimesEqual(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneSpawnTimes(times []time.Duration) []time.Duration {
	cp := make([]time.Duration, len(times))
	copy(cp, times)
	return cp
}

// rerouteTransitStops moves driving connections of stops along changed roads onto a lane usable by buses.
// Orphaned stop means an edit which should never be accepted
func rerouteTransitStops(m *Map, changedRoads []RoadID) {
	for _, roadID := range changedRoads {
		road := m.GetRoad(roadID)
		for _, stopID := range sortedTransitStopIDs(road.TransitStops) {
			stop := m.transitStops[stopID]
			if stop.SidewalkPos.Lane.Offset >= len(road.Lanes) || !road.Lanes[stop.SidewalkPos.Lane.Offset].Type.IsWalkable() {
				// Layout shifted, stay on the same side of the road
				sidewalk, ok := road.FindClosestLane(stop.SidewalkPos.Lane, isWalkableLane)
				if !ok {
					panic(fmt.Sprintf("Transit stop %d lost its sidewalk %s", stopID, stop.SidewalkPos.Lane))
				}
				stop.SidewalkPos = Position{
					Lane:      sidewalk,
					DistAlong: math.Min(stop.SidewalkPos.DistAlong, m.GetLane(sidewalk).Length()),
				}
			}
			drivingLane, ok := road.FindClosestLane(stop.SidewalkPos.Lane, func(lane *Lane) bool {
				return CONSTRAINT_BUS.CanUse(lane, m.config)
			})
			if !ok {
				panic(fmt.Sprintf("Transit stop %d on road %d is orphaned: no lane usable by buses", stopID, roadID))
			}
			stop.DrivingPos = stop.SidewalkPos.EquivPos(drivingLane, m)
		}
	}
}

func sortedTransitStopIDs(set map[TransitStopID]struct{}) []TransitStopID {
	ids := make([]TransitStopID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
