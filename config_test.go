package osm2edits

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMapConfig(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "config.yaml")
	content := "driving_side: left\nlane_widths:\n  driving: 3.2\n"
	if err := os.WriteFile(fname, []byte(content), 0644); err != nil {
		t.Fatalf("Can't write config: %s", err)
	}
	cfg, err := LoadMapConfig(fname)
	if err != nil {
		t.Fatalf("Can't load config: %s", err)
	}
	if cfg.DrivingSide != DRIVING_SIDE_LEFT {
		t.Errorf("Driving side must be '%s', but got '%s'", DRIVING_SIDE_LEFT, cfg.DrivingSide)
	}
	if !cfg.InferredSidewalks || !cfg.BikesCanUseBusLanes {
		t.Errorf("Missing fields must keep defaults")
	}
	if cfg.laneWidth(LANE_DRIVING) != 3.2 {
		t.Errorf("Driving lane width must be %f, but got %f", 3.2, cfg.laneWidth(LANE_DRIVING))
	}
	if cfg.laneWidth(LANE_SIDEWALK) != LANE_SIDEWALK.DefaultWidth() {
		t.Errorf("Sidewalk width must be %f, but got %f", LANE_SIDEWALK.DefaultWidth(), cfg.laneWidth(LANE_SIDEWALK))
	}

	for _, bad := range []string{
		"driving_side: center\n",
		"lane_widths:\n  tram: 3.0\n",
		"lane_widths:\n  driving: -1\n",
		"driving_side: [\n",
	} {
		if err := os.WriteFile(fname, []byte(bad), 0644); err != nil {
			t.Fatalf("Can't write config: %s", err)
		}
		if _, err := LoadMapConfig(fname); err == nil {
			t.Errorf("Config '%s' must be rejected", bad)
		}
	}
	if _, err := LoadMapConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("Missing config must be rejected")
	}
}

func TestNewMapRejectsBadConfig(t *testing.T) {
	cfg := DefaultMapConfig()
	cfg.DrivingSide = "center"
	if _, err := NewMap(testRawMap(), WithConfig(cfg)); err == nil {
		t.Errorf("Map with bad config must not be built")
	}
}
