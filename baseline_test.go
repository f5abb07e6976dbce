package osm2edits

import (
	"math"
	"testing"

	"github.com/paulmach/osm"
)

func compareLayouts(t *testing.T, name string, correct, actual []LaneSpec) {
	t.Helper()
	if len(correct) != len(actual) {
		t.Errorf("[%s] Number of lanes must be %d, but got %d: %v", name, len(correct), len(actual), actual)
		return
	}
	for i := range correct {
		if correct[i] != actual[i] {
			t.Errorf("[%s] Lane %d must be %+v, but got %+v", name, i, correct[i], actual[i])
		}
	}
}

func TestLaneSpecsFromTags(t *testing.T) {
	cfg := DefaultMapConfig()
	S, P, D, B := LANE_SIDEWALK, LANE_PARKING, LANE_DRIVING, LANE_BIKING
	fwd, back := DIRECTION_FORWARD, DIRECTION_BACKWARD

	compareLayouts(t, "residential", []LaneSpec{
		NewLaneSpec(S, back), NewLaneSpec(P, back), NewLaneSpec(D, back),
		NewLaneSpec(D, fwd), NewLaneSpec(P, fwd), NewLaneSpec(S, fwd),
	}, laneSpecsFromTags(residentialTags(), cfg))

	oneway := osm.Tags{
		{Key: "highway", Value: "secondary"},
		{Key: "oneway", Value: "yes"},
		{Key: "lanes", Value: "2"},
		{Key: "cycleway:right", Value: "lane"},
		{Key: "sidewalk", Value: "right"},
	}
	compareLayouts(t, "oneway", []LaneSpec{
		NewLaneSpec(D, fwd), NewLaneSpec(D, fwd), NewLaneSpec(B, fwd), NewLaneSpec(S, fwd),
	}, laneSpecsFromTags(oneway, cfg))

	reversed := osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "oneway", Value: "-1"},
		{Key: "sidewalk", Value: "no"},
	}
	compareLayouts(t, "reversed oneway", []LaneSpec{
		NewLaneSpec(LANE_SHOULDER, back), NewLaneSpec(D, back), NewLaneSpec(LANE_SHOULDER, fwd),
	}, laneSpecsFromTags(reversed, cfg))

	footway := osm.Tags{{Key: "highway", Value: "footway"}}
	compareLayouts(t, "footway", []LaneSpec{NewLaneSpec(S, fwd)}, laneSpecsFromTags(footway, cfg))

	leftCfg := DefaultMapConfig()
	leftCfg.DrivingSide = DRIVING_SIDE_LEFT
	compareLayouts(t, "left hand traffic", []LaneSpec{
		NewLaneSpec(S, fwd), NewLaneSpec(P, fwd), NewLaneSpec(D, fwd),
		NewLaneSpec(D, back), NewLaneSpec(P, back), NewLaneSpec(S, back),
	}, laneSpecsFromTags(residentialTags(), leftCfg))

	narrowCfg := DefaultMapConfig()
	narrowCfg.LaneWidths = map[string]float64{"driving": 3.0}
	narrow := laneSpecsFromTags(residentialTags(), narrowCfg)
	if narrow[2].Width != 3.0 || narrow[1].Width != P.DefaultWidth() {
		t.Errorf("Configured driving width must be %f with parking kept at %f, but got %f and %f", 3.0, P.DefaultWidth(), narrow[2].Width, narrow[1].Width)
	}
}

func TestSpeedLimitFromTags(t *testing.T) {
	tags := osm.Tags{{Key: "highway", Value: "residential"}}
	if speed := speedLimitFromTags(tags); speed != 30 {
		t.Errorf("Default speed must be %f, but got %f", 30.0, speed)
	}
	tags = osm.Tags{{Key: "highway", Value: "residential"}, {Key: "maxspeed", Value: "50"}}
	if speed := speedLimitFromTags(tags); speed != 50 {
		t.Errorf("Speed must be %f, but got %f", 50.0, speed)
	}
	tags = osm.Tags{{Key: "highway", Value: "primary"}, {Key: "maxspeed", Value: "25 mph"}}
	correct := 25 * mphToKmh
	if speed := speedLimitFromTags(tags); math.Abs(speed-correct) > testEps {
		t.Errorf("Speed must be %f, but got %f", correct, speed)
	}
	tags = osm.Tags{{Key: "highway", Value: "primary"}, {Key: "maxspeed", Value: "signals"}}
	if speed := speedLimitFromTags(tags); speed != defaultSpeedByLinkType[LINK_PRIMARY] {
		t.Errorf("Speed for non-numeric value must be %f, but got %f", defaultSpeedByLinkType[LINK_PRIMARY], speed)
	}
}

func TestAccessRestrictionsFromTags(t *testing.T) {
	if accessRestrictionsFromTags(residentialTags()).IsRestricted() {
		t.Errorf("Road without access tags must not be restricted")
	}
	tags := osm.Tags{{Key: "highway", Value: "residential"}, {Key: "motor_vehicle", Value: "destination"}}
	restrictions := accessRestrictionsFromTags(tags)
	if !restrictions.IsRestricted() {
		t.Errorf("Road with local-only motor traffic must be restricted")
	}
	for _, mode := range []PathConstraints{CONSTRAINT_CAR, CONSTRAINT_BUS} {
		if restrictions.AllowThroughTraffic.Contains(mode) {
			t.Errorf("Through traffic for %s must be forbidden", mode)
		}
	}
	for _, mode := range []PathConstraints{CONSTRAINT_BIKE, CONSTRAINT_PEDESTRIAN} {
		if !restrictions.AllowThroughTraffic.Contains(mode) {
			t.Errorf("Through traffic for %s must be allowed", mode)
		}
	}
	tags = osm.Tags{{Key: "highway", Value: "residential"}, {Key: "access", Value: "no"}, {Key: "motor_vehicle", Value: "yes"}}
	if !accessRestrictionsFromTags(tags).AllowThroughTraffic.Contains(CONSTRAINT_CAR) {
		t.Errorf("Explicitly allowed motor traffic must pass through")
	}
}

func TestDeriveBaseline(t *testing.T) {
	m := testMap(t)
	for _, road := range m.AllRoads() {
		if !m.GetREdit(road.ID).Equal(m.originalREdit(road.ID)) {
			t.Errorf("Unedited road %d must match its baseline", road.ID)
		}
	}
}
