package osm2edits

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
)

const testGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [-100, 0]}, "properties": {"kind": "intersection", "osm_id": 1, "type": "border"}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"kind": "intersection", "osm_id": 2, "type": "stop_sign", "tags": {"crossing": "unmarked"}}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [100, 0]}, "properties": {"kind": "intersection", "osm_id": 3, "type": "border"}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 100]}, "properties": {"kind": "intersection", "osm_id": 4, "type": "border"}},
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[-100, 0], [0, 0]]}, "properties": {"kind": "road", "osm_way_id": 10, "i1": 1, "i2": 2, "tags": {"highway": "residential", "sidewalk": "both"}}},
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [100, 0]]}, "properties": {"kind": "road", "osm_way_id": 11, "i1": 2, "i2": 3, "tags": {"highway": "residential", "sidewalk": "both"}}},
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [0, 100]]}, "properties": {"kind": "road", "osm_way_id": 12, "i1": 2, "i2": 4, "tags": {"highway": "residential", "sidewalk": "both", "maxspeed": "20"}}},
		{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[45, 20], [55, 20], [55, 30], [45, 30], [45, 20]]]}, "properties": {"kind": "building", "osm_id": 20}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [50, -8]}, "properties": {"kind": "transit_stop", "gtfs_id": "s1", "name": "Central"}},
		{"type": "Feature", "geometry": null, "properties": {"kind": "transit_route", "gtfs_id": "r1", "short_name": "7", "stops": ["s1"], "spawn_times": [21600, 25200]}}
	]
}`

func TestRawMapFromGeoJSON(t *testing.T) {
	name := MapName{City: "geo_city", Map: "center"}
	raw, err := RawMapFromGeoJSON([]byte(testGeoJSON), name, false)
	if err != nil {
		t.Fatalf("Can't read GeoJSON: %s", err)
	}
	if len(raw.Intersections) != 4 || len(raw.Roads) != 3 || len(raw.Buildings) != 1 || len(raw.TransitStops) != 1 || len(raw.TransitRoutes) != 1 {
		t.Fatalf("Raw map must have 4 intersections, 3 roads, 1 building, 1 stop and 1 route, but got %d, %d, %d, %d and %d",
			len(raw.Intersections), len(raw.Roads), len(raw.Buildings), len(raw.TransitStops), len(raw.TransitRoutes))
	}
	if raw.Intersections[1].Type != INTERSECTION_STOP_SIGN || raw.Intersections[1].Tags.Find("crossing") != "unmarked" {
		t.Errorf("Intersection must be %s with unmarked crossing, but got %s with tags %v", INTERSECTION_STOP_SIGN, raw.Intersections[1].Type, raw.Intersections[1].Tags)
	}
	correctRoad := OriginalRoad{OsmWayID: 12, I1: 2, I2: 4}
	if raw.Roads[2].OrigID != correctRoad {
		t.Errorf("Road must be %s, but got %s", correctRoad, raw.Roads[2].OrigID)
	}
	route := raw.TransitRoutes[0]
	if route.ShortName != "7" || len(route.Stops) != 1 || route.Stops[0] != "s1" || len(route.SpawnTimes) != 2 || route.SpawnTimes[0].Hours() != 6 {
		t.Errorf("Route must be '7' via [s1] spawned at 6:00 and 7:00, but got %+v", route)
	}

	m, err := NewMap(raw, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithEditsDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Can't prepare map: %s", err)
	}
	if m.Name() != name {
		t.Errorf("Map name must be %s, but got %s", name, m.Name())
	}
	if m.GetRoad(2).SpeedLimit != 20 {
		t.Errorf("Speed limit must be %f, but got %f", 20.0, m.GetRoad(2).SpeedLimit)
	}
	for _, crosswalkType := range m.GetICrosswalksEdit(1) {
		if crosswalkType != TURN_UNMARKED_CROSSING {
			t.Errorf("Crossing must be %s, but got %s", TURN_UNMARKED_CROSSING, crosswalkType)
		}
	}

	projected, err := RawMapFromGeoJSON([]byte(testGeoJSON), name, true)
	if err != nil {
		t.Fatalf("Can't read GeoJSON: %s", err)
	}
	x, y := epsg4326To3857(100, 0)
	pt := projected.Intersections[2].Point
	if math.Abs(pt.X()-x) > testEps || math.Abs(pt.Y()-y) > testEps {
		t.Errorf("Projected point must be (%f, %f), but got %v", x, y, pt)
	}
	ring := projected.Buildings[0].Polygon[0]
	x, y = epsg4326To3857(45, 20)
	if math.Abs(ring[0].X()-x) > testEps || math.Abs(ring[0].Y()-y) > testEps {
		t.Errorf("Projected polygon must start at (%f, %f), but got %v", x, y, ring[0])
	}

	for _, bad := range []string{
		`{"type": "FeatureCollection", "features": [{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {}}]}`,
		`{"type": "FeatureCollection", "features": [{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"kind": "lake"}}]}`,
		`{"type": "FeatureCollection", "features": [{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"kind": "road", "osm_way_id": 1}}]}`,
		`{"type": "FeatureCollection", "features": [{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"kind": "intersection", "osm_id": 1, "type": "roundabout"}}]}`,
		`not a json`,
	} {
		if _, err := RawMapFromGeoJSON([]byte(bad), name, false); err == nil {
			t.Errorf("GeoJSON '%s' must be rejected", bad)
		}
	}
}

func TestEffectsExport(t *testing.T) {
	m := testMap(t)
	effects := applyCommands(m, parkingToBiking(m, 1, 1))

	data, err := EffectsToGeoJSON(m, effects)
	if err != nil {
		t.Fatalf("Can't export effects: %s", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatalf("Can't parse exported effects: %s", err)
	}
	counts := make(map[string]int)
	for _, feature := range fc.Features {
		counts[feature.PropertyMustString("kind", "")]++
	}
	if counts["lane"] != 6*len(effects.ChangedRoads) {
		t.Errorf("Number of lane features must be %d, but got %d", 6*len(effects.ChangedRoads), counts["lane"])
	}
	if counts[featureIntersection] != len(effects.ChangedIntersections) {
		t.Errorf("Number of intersection features must be %d, but got %d", len(effects.ChangedIntersections), counts[featureIntersection])
	}
	if counts["turn"] != len(effects.AddedTurns) {
		t.Errorf("Number of turn features must be %d, but got %d", len(effects.AddedTurns), counts["turn"])
	}
	if counts["driveway"] != 1 {
		t.Errorf("Number of driveway features must be %d, but got %d", 1, counts["driveway"])
	}

	table := EffectsToWKT(m, effects)
	lines := strings.Split(strings.TrimSpace(table), "\n")
	if lines[0] != "kind;id;osm_id;geom" {
		t.Errorf("Header must be '%s', but got '%s'", "kind;id;osm_id;geom", lines[0])
	}
	if len(lines) != 1+len(effects.ChangedRoads)+len(effects.ChangedIntersections) {
		t.Errorf("Number of rows must be %d, but got %d", 1+len(effects.ChangedRoads)+len(effects.ChangedIntersections), len(lines))
	}
	if !strings.Contains(table, "road;1;1001;LINESTRING(") {
		t.Errorf("Table must contain road 1, but got:\n%s", table)
	}
	if !strings.Contains(table, "intersection;1;101;POLYGON(") {
		t.Errorf("Table must contain intersection 1, but got:\n%s", table)
	}
}
