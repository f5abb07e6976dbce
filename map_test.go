package osm2edits

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

const (
	testEps = 1e-6
)

func residentialTags() osm.Tags {
	return osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "lanes", Value: "2"},
		{Key: "parking:lane:both", Value: "parallel"},
		{Key: "sidewalk", Value: "both"},
	}
}

func squarePolygon(center orb.Point, half float64) orb.Polygon {
	x, y := center.X(), center.Y()
	return orb.Polygon{orb.Ring{
		{x - half, y - half}, {x + half, y - half}, {x + half, y + half}, {x - half, y + half}, {x - half, y - half},
	}}
}

// testRawMap is a small network:
//
//	            I4     I6
//	            |      |
//	I0 ---R0--- I1 -R1- I2 ---R2--- I3
//	            |
//	            I5
//
// I1 is a stop sign, I2 is a traffic signal, others are borders
func testRawMap() *RawMap {
	node := func(id int64, x, y float64, intersectionType IntersectionType) RawIntersection {
		return RawIntersection{OrigID: osm.NodeID(id), Point: orb.Point{x, y}, Type: intersectionType, Tags: osm.Tags{}}
	}
	road := func(wayID, i1, i2 int64, from, to orb.Point) RawRoad {
		return RawRoad{
			OrigID: OriginalRoad{OsmWayID: osm.WayID(wayID), I1: osm.NodeID(i1), I2: osm.NodeID(i2)},
			Tags:   residentialTags(),
			Center: orb.LineString{from, to},
		}
	}
	return &RawMap{
		Name: MapName{City: "test_city", Map: "test_map"},
		Intersections: []RawIntersection{
			node(100, -100, 0, INTERSECTION_BORDER),
			node(101, 0, 0, INTERSECTION_STOP_SIGN),
			node(102, 100, 0, INTERSECTION_TRAFFIC_SIGNAL),
			node(103, 200, 0, INTERSECTION_BORDER),
			node(104, 0, 100, INTERSECTION_BORDER),
			node(105, 0, -100, INTERSECTION_BORDER),
			node(106, 100, 100, INTERSECTION_BORDER),
		},
		Roads: []RawRoad{
			road(1000, 100, 101, orb.Point{-100, 0}, orb.Point{0, 0}),
			road(1001, 101, 102, orb.Point{0, 0}, orb.Point{100, 0}),
			road(1002, 102, 103, orb.Point{100, 0}, orb.Point{200, 0}),
			road(1003, 101, 104, orb.Point{0, 0}, orb.Point{0, 100}),
			road(1004, 105, 101, orb.Point{0, -100}, orb.Point{0, 0}),
			road(1005, 102, 106, orb.Point{100, 0}, orb.Point{100, 100}),
		},
		Buildings: []RawArea{
			{OrigID: 2000, Polygon: squarePolygon(orb.Point{50, 25}, 5)},
		},
		ParkingLots: []RawArea{
			{OrigID: 3000, Polygon: squarePolygon(orb.Point{50, -25}, 5)},
		},
		TransitStops: []RawTransitStop{
			{GtfsID: "stop_1", Name: "Main st", Point: orb.Point{30, -10}},
		},
		TransitRoutes: []RawTransitRoute{
			{GtfsID: "route_1", ShortName: "1", Stops: []string{"stop_1"}, SpawnTimes: []time.Duration{6 * time.Hour, 7 * time.Hour}},
		},
	}
}

func testMap(t *testing.T, options ...MapOption) *Map {
	t.Helper()
	return testMapFromRaw(t, testRawMap(), options...)
}

func testMapFromRaw(t *testing.T, raw *RawMap, options ...MapOption) *Map {
	t.Helper()
	opts := []MapOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEditsDir(t.TempDir()),
		WithStrictMode(true),
	}
	m, err := NewMap(raw, append(opts, options...)...)
	if err != nil {
		t.Fatalf("Can't prepare test map: %s", err)
	}
	return m
}

func pointsClose(a, b orb.Point) bool {
	return math.Abs(a.X()-b.X()) < testEps && math.Abs(a.Y()-b.Y()) < testEps
}

func TestNewMap(t *testing.T) {
	m := testMap(t)
	if len(m.AllRoads()) != 6 {
		t.Errorf("Number of roads must be %d, but got %d", 6, len(m.AllRoads()))
	}
	correctLayout := []LaneType{LANE_SIDEWALK, LANE_PARKING, LANE_DRIVING, LANE_DRIVING, LANE_PARKING, LANE_SIDEWALK}
	for _, road := range m.AllRoads() {
		if len(road.Lanes) != len(correctLayout) {
			t.Errorf("Number of lanes of road %d must be %d, but got %d", road.ID, len(correctLayout), len(road.Lanes))
			continue
		}
		for i, lane := range road.Lanes {
			if lane.Type != correctLayout[i] {
				t.Errorf("Lane %s must be %s, but got %s", lane.ID, correctLayout[i], lane.Type)
			}
		}
		// Total width 15, so every end is trimmed by half width plus corner buffer
		if math.Abs(road.Length()-83.0) > testEps {
			t.Errorf("Length of trimmed road %d must be %f, but got %f", road.ID, 83.0, road.Length())
		}
	}
	if !pointsClose(m.GetRoad(1).Center[0], orb.Point{8.5, 0}) {
		t.Errorf("Road 1 must start at %v, but got %v", orb.Point{8.5, 0}, m.GetRoad(1).Center[0])
	}
	if m.PathfinderDirty() {
		t.Errorf("Pathfinder of new map must be clean")
	}
	if len(m.AllBuildings()) != 1 || len(m.AllParkingLots()) != 1 {
		t.Errorf("Map must have 1 building and 1 parking lot, but got %d and %d", len(m.AllBuildings()), len(m.AllParkingLots()))
	}
	b := m.GetBuilding(0)
	if b.SidewalkPos.Lane != (LaneID{Road: 1, Offset: 0}) {
		t.Errorf("Building must be connected to %s, but got %s", LaneID{Road: 1, Offset: 0}, b.SidewalkPos.Lane)
	}
	pl := m.GetParkingLot(0)
	if pl.SidewalkPos.Lane != (LaneID{Road: 1, Offset: 5}) || pl.DrivingPos.Lane != (LaneID{Road: 1, Offset: 3}) {
		t.Errorf("Parking lot must be connected to %s and %s, but got %s and %s", LaneID{Road: 1, Offset: 5}, LaneID{Road: 1, Offset: 3}, pl.SidewalkPos.Lane, pl.DrivingPos.Lane)
	}
	stop := m.GetTransitStop(0)
	if stop.DrivingPos.Lane != (LaneID{Road: 1, Offset: 3}) {
		t.Errorf("Transit stop must be served from %s, but got %s", LaneID{Road: 1, Offset: 3}, stop.DrivingPos.Lane)
	}
	if len(m.Zones()) != 0 {
		t.Errorf("Map without restrictions must have no zones, but got %d", len(m.Zones()))
	}
}

func TestBorderIntersectionsHaveNoTurns(t *testing.T) {
	m := testMap(t)
	for _, intersection := range m.AllIntersections() {
		if intersection.IsBorder() && len(intersection.Turns) != 0 {
			t.Errorf("Border intersection %d must have no turns, but got %d", intersection.ID, len(intersection.Turns))
		}
		if !intersection.IsBorder() && len(intersection.Turns) == 0 {
			t.Errorf("Intersection %d must have turns", intersection.ID)
		}
	}
	if m.GetIntersection(1).Type != INTERSECTION_STOP_SIGN {
		t.Errorf("Intersection 1 must be %s, but got %s", INTERSECTION_STOP_SIGN, m.GetIntersection(1).Type)
	}
	// All incoming roads have the same class
	if len(m.GetStopSign(1).StoppingRoads()) != 4 {
		t.Errorf("Number of stopping roads must be %d, but got %d", 4, len(m.GetStopSign(1).StoppingRoads()))
	}
	if err := m.GetTrafficSignal(2).Validate(m); err != nil {
		t.Errorf("Generated traffic signal must be valid, but got error: %s", err)
	}
}

func TestGetIEditPanicsOnBorder(t *testing.T) {
	m := testMap(t)
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("GetIEdit must panic on border intersection")
		}
	}()
	m.GetIEdit(0)
}

func TestFindByOrig(t *testing.T) {
	m := testMap(t)
	roadID, ok := m.FindRoadByOrig(OriginalRoad{OsmWayID: 1003, I1: 101, I2: 104})
	if !ok || roadID != 3 {
		t.Errorf("Road must be %d, but got %d (found: %t)", 3, roadID, ok)
	}
	if _, ok := m.FindRoadByOrig(OriginalRoad{OsmWayID: 1003, I1: 104, I2: 101}); ok {
		t.Errorf("Road with swapped nodes must not be found")
	}
	intersectionID, ok := m.FindIntersectionByOrig(102)
	if !ok || intersectionID != 2 {
		t.Errorf("Intersection must be %d, but got %d (found: %t)", 2, intersectionID, ok)
	}
	routeID, ok := m.FindRouteByGtfs("route_1")
	if !ok || routeID != 0 {
		t.Errorf("Route must be %d, but got %d (found: %t)", 0, routeID, ok)
	}
}
