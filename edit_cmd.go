package osm2edits

import (
	"fmt"
	"time"
)

// EditCmd is a single reversible change of the map. Implemented by ChangeRoad, ChangeIntersection,
// ChangeRouteSchedule and ChangeCrosswalks only
type EditCmd interface {
	// apply must be idempotent: applying already matching state changes nothing
	apply(effects *EditEffects, m *Map)
	// Undo returns command with swapped old and new states
	Undo() EditCmd
	// Describe returns short summary and list of details
	Describe(m *Map) (string, []string)
	Equal(other EditCmd) bool
}

// ChangeRoad replaces lanes layout, speed limit and access restrictions of one road
type ChangeRoad struct {
	Road RoadID
	Old  EditRoad
	New  EditRoad
}

// ChangeIntersection replaces control of one intersection
type ChangeIntersection struct {
	Intersection IntersectionID
	Old          EditIntersection
	New          EditIntersection
}

// ChangeRouteSchedule replaces spawn times of one transit route
type ChangeRouteSchedule struct {
	Route TransitRouteID
	Old   []time.Duration
	New   []time.Duration
}

// ChangeCrosswalks replaces types of crossings at one intersection
type ChangeCrosswalks struct {
	Intersection IntersectionID
	Old          EditCrosswalks
	New          EditCrosswalks
}

func (cmd ChangeRoad) apply(effects *EditEffects, m *Map) {
	if m.GetREdit(cmd.Road).Equal(cmd.New) {
		return
	}
	modifyLanes(m, cmd.Road, cmd.New.LanesLTR, effects)
	road := m.GetRoad(cmd.Road)
	road.SpeedLimit = cmd.New.SpeedLimit
	road.AccessRestrictions = cmd.New.AccessRestrictions

	effects.ChangedRoads[road.ID] = struct{}{}
	for _, i := range []IntersectionID{road.SrcI, road.DstI} {
		effects.ChangedIntersections[i] = struct{}{}
		recalculateTurns(m, i, effects)
	}
}

func (cmd ChangeRoad) Undo() EditCmd {
	return ChangeRoad{Road: cmd.Road, Old: cmd.New, New: cmd.Old}
}

func (cmd ChangeRoad) Describe(m *Map) (string, []string) {
	return fmt.Sprintf("road #%d", cmd.Road), cmd.New.Diff(cmd.Old)
}

func (cmd ChangeRoad) Equal(other EditCmd) bool {
	o, ok := other.(ChangeRoad)
	return ok && cmd.Road == o.Road && cmd.Old.Equal(o.Old) && cmd.New.Equal(o.New)
}

func (cmd ChangeIntersection) apply(effects *EditEffects, m *Map) {
	if m.GetIEdit(cmd.Intersection).Equal(cmd.New) {
		return
	}
	id := cmd.Intersection
	intersection := m.GetIntersection(id)
	delete(m.stopSigns, id)
	delete(m.trafficSignals, id)
	effects.ChangedIntersections[id] = struct{}{}

	// Opening or closing changes the set of turns. Controls below refer the regenerated movements
	if cmd.Old.Kind == EDIT_CLOSED || cmd.New.Kind == EDIT_CLOSED {
		switch cmd.New.Kind {
		case EDIT_STOP_SIGN:
			intersection.Type = cmd.New.StopSign.intersectionType()
		case EDIT_TRAFFIC_SIGNAL:
			intersection.Type = INTERSECTION_TRAFFIC_SIGNAL
		case EDIT_CLOSED:
			intersection.Type = INTERSECTION_CONSTRUCTION
		}
		recalculateTurns(m, id, effects)
	}

	switch cmd.New.Kind {
	case EDIT_STOP_SIGN:
		intersection.Type = cmd.New.StopSign.intersectionType()
		delete(m.trafficSignals, id)
		m.stopSigns[id] = cmd.New.StopSign.Clone()
	case EDIT_TRAFFIC_SIGNAL:
		intersection.Type = INTERSECTION_TRAFFIC_SIGNAL
		ts, err := importTrafficSignal(*cmd.New.TrafficSignal, id, m)
		if err != nil {
			panic(fmt.Sprintf("Can't install traffic signal at intersection %d: %s", id, err))
		}
		delete(m.stopSigns, id)
		m.trafficSignals[id] = ts
	case EDIT_CLOSED:
		intersection.Type = INTERSECTION_CONSTRUCTION
	default:
		panic(fmt.Sprintf("Unhandled intersection edit kind %d", cmd.New.Kind))
	}
}

func (cmd ChangeIntersection) Undo() EditCmd {
	return ChangeIntersection{Intersection: cmd.Intersection, Old: cmd.New, New: cmd.Old}
}

func (cmd ChangeIntersection) Describe(m *Map) (string, []string) {
	switch cmd.New.Kind {
	case EDIT_STOP_SIGN:
		return fmt.Sprintf("stop sign #%d", cmd.Intersection), []string{}
	case EDIT_TRAFFIC_SIGNAL:
		return fmt.Sprintf("traffic signal #%d", cmd.Intersection), []string{}
	case EDIT_CLOSED:
		return fmt.Sprintf("close intersection #%d (node %d)", cmd.Intersection, m.GetIntersection(cmd.Intersection).OrigID), []string{}
	default:
		panic(fmt.Sprintf("Unhandled intersection edit kind %d", cmd.New.Kind))
	}
}

func (cmd ChangeIntersection) Equal(other EditCmd) bool {
	o, ok := other.(ChangeIntersection)
	return ok && cmd.Intersection == o.Intersection && cmd.Old.Equal(o.Old) && cmd.New.Equal(o.New)
}

func (cmd ChangeRouteSchedule) apply(effects *EditEffects, m *Map) {
	m.GetTransitRoute(cmd.Route).SpawnTimes = cloneSpawnTimes(cmd.New)
}

func (cmd ChangeRouteSchedule) Undo() EditCmd {
	return ChangeRouteSchedule{Route: cmd.Route, Old: cmd.New, New: cmd.Old}
}

func (cmd ChangeRouteSchedule) Describe(m *Map) (string, []string) {
	return fmt.Sprintf("reschedule route %s", m.GetTransitRoute(cmd.Route).ShortName), []string{}
}

func (cmd ChangeRouteSchedule) Equal(other EditCmd) bool {
	o, ok := other.(ChangeRouteSchedule)
	return ok && cmd.Route == o.Route && spawnTimesEqual(cmd.Old, o.Old) && spawnTimesEqual(cmd.New, o.New)
}

func (cmd ChangeCrosswalks) apply(effects *EditEffects, m *Map) {
	if m.GetICrosswalksEdit(cmd.Intersection).Equal(cmd.New) {
		return
	}
	effects.ChangedIntersections[cmd.Intersection] = struct{}{}
	intersection := m.GetIntersection(cmd.Intersection)
	for _, turnID := range cmd.New.sortedTurnIDs() {
		turn, ok := intersection.findTurn(turnID)
		if !ok {
			panic(fmt.Sprintf("Can't find %s at intersection %d", turnID, cmd.Intersection))
		}
		turn.Type = cmd.New[turnID]
	}
}

func (cmd ChangeCrosswalks) Undo() EditCmd {
	return ChangeCrosswalks{Intersection: cmd.Intersection, Old: cmd.New, New: cmd.Old}
}

func (cmd ChangeCrosswalks) Describe(m *Map) (string, []string) {
	return fmt.Sprintf("crosswalks at intersection #%d", cmd.Intersection), []string{}
}

func (cmd ChangeCrosswalks) Equal(other EditCmd) bool {
	o, ok := other.(ChangeCrosswalks)
	return ok && cmd.Intersection == o.Intersection && cmd.Old.Equal(o.Old) && cmd.New.Equal(o.New)
}
