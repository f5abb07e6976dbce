package osm2edits

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/osm"
)

// MapName identifies map within a city
type MapName struct {
	City string `json:"city"`
	Map  string `json:"map"`
}

func (name MapName) String() string {
	return fmt.Sprintf("%s/%s", name.City, name.Map)
}

// Map is road network with everything derived from it. The map owns the single current edits
// and keeps derived state consistent with them
type Map struct {
	name   MapName
	config MapConfig

	roads         []*Road
	intersections []*Intersection
	buildings     []*Building
	parkingLots   []*ParkingLot
	transitStops  []*TransitStop
	transitRoutes []*TransitRoute

	stopSigns      map[IntersectionID]*ControlStopSign
	trafficSignals map[IntersectionID]*ControlTrafficSignal
	zones          []Zone

	edits           *MapEdits
	editsGeneration int
	pathfinderDirty bool
	pathfinder      *Pathfinder

	roadsByOrig         map[OriginalRoad]RoadID
	intersectionsByOrig map[osm.NodeID]IntersectionID
	routesByGtfs        map[string]TransitRouteID
	roadToBuildings     map[RoadID][]BuildingID
	staleBuildings      map[BuildingID]struct{}
	staleParkingLots    map[ParkingLotID]struct{}

	geometer IntersectionGeometer
	snapper  LaneSnapper
	baseline BaselineDeriver
	editsDir string
	logger   *slog.Logger
	verbose  bool
}

func (m *Map) Name() MapName {
	return m.name
}

func (m *Map) Config() MapConfig {
	return m.config
}

func (m *Map) GetRoad(id RoadID) *Road {
	return m.roads[id]
}

func (m *Map) GetLane(id LaneID) *Lane {
	return m.roads[id.Road].Lanes[id.Offset]
}

// MaybeGetLane returns lane if it still exists
func (m *Map) MaybeGetLane(id LaneID) (*Lane, bool) {
	if id.Road < 0 || int(id.Road) >= len(m.roads) {
		return nil, false
	}
	road := m.roads[id.Road]
	if id.Offset < 0 || id.Offset >= len(road.Lanes) {
		return nil, false
	}
	return road.Lanes[id.Offset], true
}

func (m *Map) GetIntersection(id IntersectionID) *Intersection {
	return m.intersections[id]
}

func (m *Map) GetTurn(id TurnID) *Turn {
	turn, ok := m.MaybeGetTurn(id)
	if !ok {
		panic(fmt.Sprintf("Can't find %s", id))
	}
	return turn
}

// MaybeGetTurn returns turn if it still exists
func (m *Map) MaybeGetTurn(id TurnID) (*Turn, bool) {
	if id.Parent < 0 || int(id.Parent) >= len(m.intersections) {
		return nil, false
	}
	return m.intersections[id.Parent].findTurn(id)
}

func (m *Map) GetBuilding(id BuildingID) *Building {
	return m.buildings[id]
}

func (m *Map) GetParkingLot(id ParkingLotID) *ParkingLot {
	return m.parkingLots[id]
}

func (m *Map) GetTransitStop(id TransitStopID) *TransitStop {
	return m.transitStops[id]
}

func (m *Map) GetTransitRoute(id TransitRouteID) *TransitRoute {
	return m.transitRoutes[id]
}

func (m *Map) AllRoads() []*Road {
	return m.roads
}

func (m *Map) AllIntersections() []*Intersection {
	return m.intersections
}

func (m *Map) AllBuildings() []*Building {
	return m.buildings
}

func (m *Map) AllParkingLots() []*ParkingLot {
	return m.parkingLots
}

func (m *Map) AllTransitRoutes() []*TransitRoute {
	return m.transitRoutes
}

// AllLanes returns lanes of every road in order of roads
func (m *Map) AllLanes() []*Lane {
	lanes := []*Lane{}
	for _, road := range m.roads {
		lanes = append(lanes, road.Lanes...)
	}
	return lanes
}

func (m *Map) Zones() []Zone {
	return m.zones
}

// GetStopSign returns stop sign configuration. Panics if intersection is not controlled by stop sign
func (m *Map) GetStopSign(id IntersectionID) *ControlStopSign {
	ss, ok := m.stopSigns[id]
	if !ok {
		panic(fmt.Sprintf("Intersection %d has no stop sign", id))
	}
	return ss
}

// GetTrafficSignal returns signal timing. Panics if intersection is not signalized
func (m *Map) GetTrafficSignal(id IntersectionID) *ControlTrafficSignal {
	ts, ok := m.trafficSignals[id]
	if !ok {
		panic(fmt.Sprintf("Intersection %d has no traffic signal", id))
	}
	return ts
}

func (m *Map) FindRoadByOrig(orig OriginalRoad) (RoadID, bool) {
	id, ok := m.roadsByOrig[orig]
	return id, ok
}

func (m *Map) FindIntersectionByOrig(orig osm.NodeID) (IntersectionID, bool) {
	id, ok := m.intersectionsByOrig[orig]
	return id, ok
}

func (m *Map) FindRouteByGtfs(gtfsID string) (TransitRouteID, bool) {
	id, ok := m.routesByGtfs[gtfsID]
	return id, ok
}

// GetEdits returns current edits. Callers must clone them before modifying
func (m *Map) GetEdits() *MapEdits {
	return m.edits
}

func (m *Map) PathfinderDirty() bool {
	return m.pathfinderDirty
}

// Pathfinder returns pathfinder built for the last edits passed to RecalculatePathfindingAfterEdits
func (m *Map) Pathfinder() *Pathfinder {
	return m.pathfinder
}

// GetREdit returns current editable state of the road
func (m *Map) GetREdit(id RoadID) EditRoad {
	road := m.GetRoad(id)
	return EditRoad{
		LanesLTR:           road.LaneSpecs(),
		SpeedLimit:         road.SpeedLimit,
		AccessRestrictions: road.AccessRestrictions,
	}
}

// originalREdit returns state of the road derived from its tags only
func (m *Map) originalREdit(id RoadID) EditRoad {
	return m.baseline.DeriveBaseline(m.GetRoad(id).Tags, m.config)
}

// EditRoadCmd builds ChangeRoad from current state of the road modified by the callback
func (m *Map) EditRoadCmd(id RoadID, modify func(*EditRoad)) ChangeRoad {
	old := m.GetREdit(id)
	edited := old.Clone()
	modify(&edited)
	return ChangeRoad{Road: id, Old: old, New: edited}
}

// GetIEdit returns current control of the intersection. Panics on borders
func (m *Map) GetIEdit(id IntersectionID) EditIntersection {
	switch m.GetIntersection(id).Type {
	case INTERSECTION_STOP_SIGN, INTERSECTION_UNCONTROLLED:
		return EditStopSign(m.GetStopSign(id))
	case INTERSECTION_TRAFFIC_SIGNAL:
		return EditTrafficSignal(m.GetTrafficSignal(id).Export(m))
	case INTERSECTION_CONSTRUCTION:
		return EditClosed()
	default:
		panic(fmt.Sprintf("Intersection %d of type %s can't be edited", id, m.GetIntersection(id).Type))
	}
}

// GetICrosswalksEdit returns types of every crossing at the intersection
func (m *Map) GetICrosswalksEdit(id IntersectionID) EditCrosswalks {
	crosswalks := make(EditCrosswalks)
	for _, turn := range m.GetIntersection(id).Turns {
		if turn.Type.IsPedestrianCrossing() {
			crosswalks[turn.ID] = turn.Type
		}
	}
	return crosswalks
}
