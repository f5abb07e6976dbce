package osm2edits

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// prepareMixedEdits applies one command of every kind and returns resulting edits
func prepareMixedEdits(t *testing.T, m *Map) *MapEdits {
	t.Helper()
	edits := m.NewEdits()
	edits.EditsName = "bike lanes"
	edits.ProposalDescription = []string{"Protected bike lane", "Calm stop sign"}
	edits.ProposalLink = "https://example.com/proposal"
	m.MustApplyEdits(edits)

	ss := m.GetStopSign(1).Clone()
	ss.FlipSign(0)
	crosswalks := m.GetICrosswalksEdit(1)
	editedCrosswalks := crosswalks.Clone()
	editedCrosswalks[crosswalks.sortedTurnIDs()[0]] = TURN_UNMARKED_CROSSING
	applyCommands(m, parkingToBiking(m, 1, 1))
	applyCommands(m,
		ChangeIntersection{Intersection: 1, Old: m.GetIEdit(1), New: EditStopSign(ss)},
		ChangeCrosswalks{Intersection: 1, Old: crosswalks, New: editedCrosswalks},
		ChangeRouteSchedule{Route: 0, Old: cloneSpawnTimes(m.GetTransitRoute(0).SpawnTimes), New: []time.Duration{8 * time.Hour}},
	)
	raw := m.GetTrafficSignal(2).Export(m)
	raw.OffsetSeconds = 20
	applyCommands(m, ChangeIntersection{Intersection: 2, Old: m.GetIEdit(2), New: EditTrafficSignal(raw)})
	return m.GetEdits()
}

func TestPermanentRoundTrip(t *testing.T) {
	m := testMap(t)
	edits := prepareMixedEdits(t, m)
	data, err := json.Marshal(edits.ToPermanent(m))
	if err != nil {
		t.Fatalf("Can't marshal edits: %s", err)
	}
	loaded, err := LoadEditsFromBytes(m, data)
	if err != nil {
		t.Fatalf("Can't load edits: %s", err)
	}
	if !loaded.Equal(edits) {
		t.Errorf("Loaded edits must be equal to saved ones")
	}
	if len(loaded.Commands) != 5 {
		t.Errorf("Number of commands must be %d, but got %d", 5, len(loaded.Commands))
	}
	checksum, err := edits.GetChecksum(m)
	if err != nil {
		t.Fatalf("Can't evaluate checksum: %s", err)
	}
	loadedChecksum, err := loaded.GetChecksum(m)
	if err != nil {
		t.Fatalf("Can't evaluate checksum: %s", err)
	}
	if checksum != loadedChecksum {
		t.Errorf("Checksum must be '%s', but got '%s'", checksum, loadedChecksum)
	}
	if len(checksum) != 32 {
		t.Errorf("Checksum must be md5 hex digest, but got '%s'", checksum)
	}

	// Loaded edits give the same map on a fresh import
	fresh := testMap(t)
	fresh.MustApplyEdits(loaded)
	for _, roadID := range []RoadID{1} {
		if !fresh.GetREdit(roadID).Equal(m.GetREdit(roadID)) {
			t.Errorf("Road %d must be %+v, but got %+v", roadID, m.GetREdit(roadID), fresh.GetREdit(roadID))
		}
	}
	if fresh.GetTrafficSignal(2).OffsetSeconds != 20 {
		t.Errorf("Signal offset must be %d, but got %d", 20, fresh.GetTrafficSignal(2).OffsetSeconds)
	}
	if len(fresh.GetStopSign(1).StoppingRoads()) != 3 {
		t.Errorf("Number of stopping roads must be %d, but got %d", 3, len(fresh.GetStopSign(1).StoppingRoads()))
	}
}

func TestPermanentFormat(t *testing.T) {
	m := testMap(t)
	edits := prepareMixedEdits(t, m)
	perma := edits.ToPermanent(m)
	if perma.Version != editsFormatVersion {
		t.Errorf("Version must be %d, but got %d", editsFormatVersion, perma.Version)
	}
	if perma.MapName != m.Name() {
		t.Errorf("Map name must be %s, but got %s", m.Name(), perma.MapName)
	}
	changeRoad := perma.Commands[0].ChangeRoad
	if changeRoad == nil {
		t.Fatalf("First command must be ChangeRoad")
	}
	correctRoad := OriginalRoad{OsmWayID: 1001, I1: 101, I2: 102}
	if changeRoad.Road != correctRoad {
		t.Errorf("Road must be %s, but got %s", correctRoad, changeRoad.Road)
	}
	changeIntersection := perma.Commands[1].ChangeIntersection
	if changeIntersection == nil {
		t.Fatalf("Second command must be ChangeIntersection")
	}
	if changeIntersection.Intersection != 101 || changeIntersection.New.Kind != "stop_sign" || len(changeIntersection.New.MustStop) != 3 {
		t.Errorf("Intersection edit must be stop sign at node 101 with 3 stopping roads, but got %+v", changeIntersection)
	}
	schedule := perma.Commands[3].ChangeRouteSchedule
	if schedule == nil {
		t.Fatalf("Fourth command must be ChangeRouteSchedule")
	}
	if schedule.GtfsID != "route_1" || len(schedule.New) != 1 || schedule.New[0] != 28800 {
		t.Errorf("Schedule must be [28800] seconds for 'route_1', but got %v for '%s'", schedule.New, schedule.GtfsID)
	}
}

// stripLaneWidths turns current edits JSON into version 1 one
func stripLaneWidths(t *testing.T, data []byte) []byte {
	t.Helper()
	var value map[string]interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		t.Fatalf("Can't parse edits: %s", err)
	}
	value["version"] = 1
	for _, rawCmd := range value["commands"].([]interface{}) {
		changeRoad, ok := rawCmd.(map[string]interface{})["ChangeRoad"].(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range []string{"old", "new"} {
			for _, spec := range changeRoad[key].(map[string]interface{})["lanes_ltr"].([]interface{}) {
				delete(spec.(map[string]interface{}), "width")
			}
		}
	}
	upgraded, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("Can't marshal edits: %s", err)
	}
	return upgraded
}

func TestUpgradeEdits(t *testing.T) {
	m := testMap(t)
	// Version 1 lanes get default widths
	applyCommands(m, addDrivingLane(m, 5, 3))
	applyCommands(m, m.EditRoadCmd(1, func(er *EditRoad) {
		er.SpeedLimit = 40
	}))
	edits := m.GetEdits()
	data, err := json.Marshal(edits.ToPermanent(m))
	if err != nil {
		t.Fatalf("Can't marshal edits: %s", err)
	}
	loaded, err := LoadEditsFromBytes(m, stripLaneWidths(t, data))
	if err != nil {
		t.Fatalf("Can't load version 1 edits: %s", err)
	}
	if !loaded.Equal(edits) {
		t.Errorf("Upgraded edits must be equal to current ones")
	}

	_, err = LoadEditsFromBytes(m, []byte(`{"map_name": {"city": "test_city", "map": "test_map"}, "version": 0, "commands": []}`))
	if errors.Cause(err) != ErrTooOld {
		t.Errorf("Error must be '%v', but got '%v'", ErrTooOld, err)
	}
	_, err = LoadEditsFromBytes(m, []byte(`{"map_name": {"city": "test_city", "map": "test_map"}, "commands": []}`))
	if errors.Cause(err) != ErrTooOld {
		t.Errorf("Error for edits without version must be '%v', but got '%v'", ErrTooOld, err)
	}
	_, err = LoadEditsFromBytes(m, []byte(`{"map_name": {"city": "test_city", "map": "test_map"}, "version": 3, "commands": []}`))
	if err == nil || errors.Cause(err) == ErrTooOld {
		t.Errorf("Edits of newer version must fail, but got '%v'", err)
	}
}

func TestLoadEditsErrors(t *testing.T) {
	m := testMap(t)
	edits := prepareMixedEdits(t, m)
	perma := edits.ToPermanent(m)

	perma.MapName = MapName{City: "another_city", Map: "test_map"}
	data, err := json.Marshal(perma)
	if err != nil {
		t.Fatalf("Can't marshal edits: %s", err)
	}
	fname := filepath.Join(t.TempDir(), "edits.json")
	if err := os.WriteFile(fname, data, 0644); err != nil {
		t.Fatalf("Can't write edits: %s", err)
	}
	_, err = LoadEditsFromFile(m, fname)
	if errors.Cause(err) != ErrWrongCity {
		t.Errorf("Error must be '%v', but got '%v'", ErrWrongCity, err)
	}

	// Another map of the same city is fine, broken commands are skipped
	perma = edits.ToPermanent(m)
	perma.MapName = MapName{City: "test_city", Map: "another_map"}
	perma.Commands[0].ChangeRoad.Road.OsmWayID = 999999
	data, err = json.Marshal(perma)
	if err != nil {
		t.Fatalf("Can't marshal edits: %s", err)
	}
	if err := os.WriteFile(fname, data, 0644); err != nil {
		t.Fatalf("Can't write edits: %s", err)
	}
	loaded, err := LoadEditsFromFile(m, fname)
	if err != nil {
		t.Fatalf("Can't load edits: %s", err)
	}
	if len(loaded.Commands) != len(perma.Commands)-1 {
		t.Errorf("Number of commands must be %d, but got %d", len(perma.Commands)-1, len(loaded.Commands))
	}
	if _, err := perma.IntoEdits(m); err == nil {
		t.Errorf("Strict resolving must fail on unknown road")
	}

	perma.Commands = perma.Commands[:1]
	data, err = json.Marshal(perma)
	if err != nil {
		t.Fatalf("Can't marshal edits: %s", err)
	}
	_, err = LoadEditsFromBytes(m, data)
	if errors.Cause(err) != ErrEmptyEdits {
		t.Errorf("Error must be '%v', but got '%v'", ErrEmptyEdits, err)
	}

	if _, err := LoadEditsFromFile(m, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("Loading missing file must fail")
	}
}

func TestInitialEditsAreUntitled(t *testing.T) {
	m := testMap(t)
	if m.GetEdits().EditsName != "Untitled Proposal 1" {
		t.Errorf("Name of initial edits must be '%s', but got '%s'", "Untitled Proposal 1", m.GetEdits().EditsName)
	}
	if m.UnsavedEdits() {
		t.Errorf("Initial edits without commands must not be unsaved")
	}
	applyCommands(m, parkingToBiking(m, 1, 1))
	if !m.UnsavedEdits() {
		t.Errorf("Initial edits with commands must be unsaved")
	}
	if err := m.SaveEdits(); err != nil {
		t.Fatalf("Can't save edits: %s", err)
	}
	if _, err := os.Stat(m.EditsPath("Untitled Proposal 1")); err != nil {
		t.Errorf("Edits file must exist: %s", err)
	}
}

func TestSaveEdits(t *testing.T) {
	m := testMap(t)
	edits := m.NewEdits()
	edits.Commands = []EditCmd{parkingToBiking(m, 1, 1)}
	m.MustApplyEdits(edits)
	if !m.UnsavedEdits() {
		t.Errorf("Untitled edits with commands must be unsaved")
	}
	applyCommands(m, m.EditRoadCmd(1, func(er *EditRoad) {
		er.SpeedLimit = 40
	}))
	if err := m.SaveEdits(); err != nil {
		t.Fatalf("Can't save edits: %s", err)
	}
	fname := m.EditsPath("Untitled Proposal 1")
	if _, err := os.Stat(fname); err != nil {
		t.Fatalf("Edits file must exist: %s", err)
	}
	if m.NewEdits().EditsName != "Untitled Proposal 2" {
		t.Errorf("Name of new edits must be '%s', but got '%s'", "Untitled Proposal 2", m.NewEdits().EditsName)
	}
	// Saved copy is compressed, current commands are kept for undo
	if len(m.GetEdits().Commands) != 2 {
		t.Errorf("Number of current commands must be %d, but got %d", 2, len(m.GetEdits().Commands))
	}
	loaded, err := LoadEditsFromFile(m, fname)
	if err != nil {
		t.Fatalf("Can't load saved edits: %s", err)
	}
	if len(loaded.Commands) != 1 {
		t.Errorf("Number of saved commands must be %d, but got %d", 1, len(loaded.Commands))
	}

	fresh := testMap(t)
	fresh.MustApplyEdits(fresh.NewEdits())
	if err := fresh.SaveEdits(); err != nil {
		t.Fatalf("Can't save edits: %s", err)
	}
	if _, err := os.Stat(fresh.EditsPath("Untitled Proposal 1")); !os.IsNotExist(err) {
		t.Errorf("Untitled edits without commands must not be saved")
	}
	if fresh.UnsavedEdits() {
		t.Errorf("Edits without commands must not be unsaved")
	}

	fresh.ClearEditsBeforeSave()
	if len(fresh.GetEdits().Commands) != 0 {
		t.Errorf("Cleared edits must have no commands")
	}
}
