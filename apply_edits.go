package osm2edits

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// MustApplyEdits replaces current edits with given ones. Transit stops along changed roads are re-routed
// and orphaning a stop panics. The map takes ownership of the edits
func (m *Map) MustApplyEdits(edits *MapEdits) *EditEffects {
	return m.applyEdits(edits, true)
}

// TryApplyEdits is MustApplyEdits for speculative edits: transit stops are left as they are
func (m *Map) TryApplyEdits(edits *MapEdits) *EditEffects {
	return m.applyEdits(edits, false)
}

func (m *Map) applyEdits(newEdits *MapEdits, enforceValid bool) *EditEffects {
	st := time.Now()
	effects := newEditEffects()
	if m.edits.Equal(newEdits) {
		return effects
	}
	m.editsGeneration++

	// New edits are usually current ones with a few commands at the end
	startAt := 0
	for startAt < len(m.edits.Commands) && startAt < len(newEdits.Commands) && m.edits.Commands[startAt].Equal(newEdits.Commands[startAt]) {
		startAt++
	}
	for idx := len(m.edits.Commands) - 1; idx >= startAt; idx-- {
		m.edits.Commands[idx].Undo().apply(effects, m)
	}
	for _, cmd := range newEdits.Commands[startAt:] {
		cmd.apply(effects, m)
	}
	if m.verbose {
		m.logger.Info("Commands applied", slog.Int("undone", len(m.edits.Commands)-startAt), slog.Int("applied", len(newEdits.Commands)-startAt))
	}

	if len(effects.modifiedLanes) > 0 {
		if err := m.snapper.Index(m.AllLanes()); err != nil {
			panic(fmt.Sprintf("Can't index lanes after edits: %s", err))
		}
	}
	recalcBuildings := []BuildingID{}
	for _, b := range m.buildings {
		if _, ok := effects.modifiedLanes[b.SidewalkPos.Lane]; ok {
			recalcBuildings = append(recalcBuildings, b.ID)
		}
	}
	fixBuildingDriveways(m, recalcBuildings, effects)

	recalcParkingLots := []ParkingLotID{}
	for _, pl := range m.parkingLots {
		_, drivingModified := effects.modifiedLanes[pl.DrivingPos.Lane]
		_, sidewalkModified := effects.modifiedLanes[pl.SidewalkPos.Lane]
		if drivingModified || sidewalkModified {
			recalcParkingLots = append(recalcParkingLots, pl.ID)
			effects.ChangedParkingLots[pl.ID] = struct{}{}
		}
	}
	fixParkingLotDriveways(m, recalcParkingLots)

	if enforceValid {
		rerouteTransitStops(m, sortedRoadIDs(effects.ChangedRoads))
	}

	mergeZonesChanged := m.edits.MergeZones != newEdits.MergeZones
	newEdits.updateDerived(m)
	m.edits = newEdits
	m.pathfinderDirty = true

	// Zones read merge setting from the new edits
	if len(effects.ChangedRoads) > 0 || mergeZonesChanged {
		m.zones = makeAllZones(m)
	}

	// Some turns could be added and then deleted by later commands
	for turnID := range effects.AddedTurns {
		if _, ok := m.MaybeGetTurn(turnID); !ok {
			delete(effects.AddedTurns, turnID)
		}
	}
	for _, set := range []map[TurnID]struct{}{effects.DeletedTurns, effects.AddedTurns} {
		for turnID := range set {
			effects.ChangedIntersections[turnID.Parent] = struct{}{}
		}
	}
	m.recalculateRoadToBuildings()

	if m.verbose {
		m.logger.Info(fmt.Sprintf("Edits '%s' applied. Done in %v", newEdits.EditsName, time.Since(st)),
			slog.Int("changed_roads", len(effects.ChangedRoads)),
			slog.Int("changed_intersections", len(effects.ChangedIntersections)),
			slog.Int("added_turns", len(effects.AddedTurns)),
			slog.Int("deleted_turns", len(effects.DeletedTurns)),
		)
	}
	return effects
}

// recalculateTurns regenerates turns, movements and default control of the intersection.
// Custom traffic signal timing is replaced by default one
func recalculateTurns(m *Map, id IntersectionID, effects *EditEffects) {
	intersection := m.GetIntersection(id)
	if intersection.IsBorder() {
		if len(intersection.Turns) != 0 {
			panic(fmt.Sprintf("Border intersection %d has %d turns", id, len(intersection.Turns)))
		}
		return
	}

	for _, turn := range intersection.Turns {
		effects.deleteTurn(turn.ID)
	}
	intersection.Turns = nil
	intersection.Movements = make(map[MovementID]*Movement)
	delete(m.stopSigns, id)
	delete(m.trafficSignals, id)
	if intersection.IsClosed() {
		return
	}

	intersection.Turns = makeAllTurns(m, intersection)
	for _, turn := range intersection.Turns {
		effects.AddedTurns[turn.ID] = struct{}{}
	}
	intersection.Movements = movementsForIntersection(m, intersection)

	switch intersection.Type {
	case INTERSECTION_STOP_SIGN, INTERSECTION_UNCONTROLLED:
		m.stopSigns[id] = newControlStopSign(m, id)
	case INTERSECTION_TRAFFIC_SIGNAL:
		m.trafficSignals[id] = newControlTrafficSignal(m, id)
	default:
		panic(fmt.Sprintf("Unhandled intersection type %s at intersection %d", intersection.Type, id))
	}
}

// deleteTurn records removal of the turn. Turn which was added during the same transaction is just forgotten
func (effects *EditEffects) deleteTurn(id TurnID) {
	if _, ok := effects.AddedTurns[id]; ok {
		delete(effects.AddedTurns, id)
		return
	}
	effects.DeletedTurns[id] = struct{}{}
}

// modifyLanes re-trims roads at both ends of the road for the new width and re-creates lanes
func modifyLanes(m *Map, roadID RoadID, specs []LaneSpec, effects *EditEffects) {
	road := m.GetRoad(roadID)
	halfWidth := totalWidth(specs) / 2.0
	affected := make(map[RoadID]struct{})
	for _, i := range []IntersectionID{road.SrcI, road.DstI} {
		for _, other := range recalculateIntersectionPolygon(m, roadID, halfWidth, i) {
			affected[other] = struct{}{}
		}
	}

	for _, lane := range road.Lanes {
		effects.DeletedLanes[lane.ID] = struct{}{}
	}
	road.recreateLanes(specs)

	// Geometry of nearby roads could change too
	for _, otherID := range sortedRoadIDs(affected) {
		effects.ChangedRoads[otherID] = struct{}{}
		other := m.GetRoad(otherID)
		other.recreateLanes(other.LaneSpecs())
		for _, lane := range other.Lanes {
			effects.modifiedLanes[lane.ID] = struct{}{}
		}
	}
	for laneID := range effects.DeletedLanes {
		effects.modifiedLanes[laneID] = struct{}{}
	}
}

// recalculateIntersectionPolygon re-evaluates polygon of the intersection and re-trims its roads.
// Returns roads with changed center lines except the changed road itself
func recalculateIntersectionPolygon(m *Map, changedRoad RoadID, changedHalfWidth float64, i IntersectionID) []RoadID {
	intersection := m.GetIntersection(i)
	inputs := make([]InputRoad, 0, len(intersection.Roads))
	for _, roadID := range intersection.Roads {
		road := m.GetRoad(roadID)
		halfWidth := road.HalfWidth()
		if roadID == changedRoad {
			halfWidth = changedHalfWidth
		}
		inputs = append(inputs, InputRoad{
			ID:        roadID,
			Center:    untrimAt(road, i),
			HalfWidth: halfWidth,
			Tags:      road.Tags,
		})
	}

	geom, err := m.geometer.IntersectionPolygon(intersection.OrigID, inputs)
	if err != nil {
		panic(fmt.Sprintf("Can't recalculate polygon of intersection %d: %s", i, err))
	}
	intersection.Polygon = geom.Polygon

	affected := []RoadID{}
	for _, roadID := range intersection.Roads {
		trimmed, ok := geom.TrimmedCenters[roadID]
		if !ok {
			continue
		}
		road := m.GetRoad(roadID)
		if road.SrcI == i {
			trimmed = reversedLine(trimmed)
		}
		road.Center = trimmed
		if roadID != changedRoad {
			affected = append(affected, roadID)
		}
	}
	return affected
}

// untrimAt extends current center line of the road all the way into the intersection.
// Result is oriented towards the intersection
func untrimAt(road *Road, i IntersectionID) orb.LineString {
	if road.SrcI == i {
		dist, _, _ := projectOnLine(road.UntrimmedCenter, road.Center[len(road.Center)-1])
		return reversedLine(lineSubstring(road.UntrimmedCenter, 0, dist))
	}
	dist, _, _ := projectOnLine(road.UntrimmedCenter, road.Center[0])
	return lineSubstring(road.UntrimmedCenter, dist, lineLength(road.UntrimmedCenter))
}

// EditsPath returns file name for edits with given name
func (m *Map) EditsPath(editsName string) string {
	return filepath.Join(m.editsDir, m.name.City, m.name.Map, editsName+".json")
}

// NewEdits returns empty edits named after the first unused "Untitled Proposal N"
func (m *Map) NewEdits() *MapEdits {
	edits := newMapEdits()
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s %d", untitledPrefix, i)
		if _, err := os.Stat(m.EditsPath(name)); os.IsNotExist(err) {
			edits.EditsName = name
			return edits
		}
	}
}

// UnsavedEdits returns true when current edits have commands but no name picked by user
func (m *Map) UnsavedEdits() bool {
	return m.edits.isUntitled() && len(m.edits.Commands) > 0
}

// SaveEdits writes compressed copy of current edits. Current commands are kept as they are for undo
func (m *Map) SaveEdits() error {
	edits := m.edits.Clone()
	edits.Commands = []EditCmd{}
	edits.Compress(m)
	return edits.save(m)
}

// ClearEditsBeforeSave makes applied edits look like part of the source data
func (m *Map) ClearEditsBeforeSave() {
	m.edits = m.NewEdits()
}

// RecalculatePathfindingAfterEdits rebuilds pathfinder and blackhole flags if edits changed since the last call
func (m *Map) RecalculatePathfindingAfterEdits() error {
	if !m.pathfinderDirty {
		return nil
	}
	st := time.Now()
	pf, err := newPathfinder(m)
	if err != nil {
		return errors.Wrap(err, "Can't rebuild pathfinder")
	}
	m.pathfinder = pf

	for _, road := range m.roads {
		for _, lane := range road.Lanes {
			lane.DrivingBlackhole = false
			lane.BikingBlackhole = false
		}
	}
	_, drivingBlackholes := findSCC(m, CONSTRAINT_CAR)
	for _, laneID := range drivingBlackholes {
		m.GetLane(laneID).DrivingBlackhole = true
	}
	_, bikingBlackholes := findSCC(m, CONSTRAINT_BIKE)
	for _, laneID := range bikingBlackholes {
		m.GetLane(laneID).BikingBlackhole = true
	}
	m.pathfinderDirty = false
	if m.verbose {
		m.logger.Info(fmt.Sprintf("Pathfinding recalculated. Done in %v", time.Since(st)),
			slog.Int("driving_blackholes", len(drivingBlackholes)),
			slog.Int("biking_blackholes", len(bikingBlackholes)),
		)
	}
	return nil
}

// IncrementalEditTrafficSignal installs signal timing bypassing the edits flow. Signal may be invalid while being edited
func (m *Map) IncrementalEditTrafficSignal(ts *ControlTrafficSignal) {
	if m.GetIntersection(ts.ID).Type != INTERSECTION_TRAFFIC_SIGNAL {
		panic(fmt.Sprintf("Intersection %d is not a traffic signal", ts.ID))
	}
	m.trafficSignals[ts.ID] = ts
}

// GetEditsChangeKey changes every time the edits are replaced
func (m *Map) GetEditsChangeKey() int {
	return m.editsGeneration
}
