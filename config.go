package osm2edits

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DrivingSide is side of the road vehicles keep to
type DrivingSide string

const (
	DRIVING_SIDE_RIGHT = DrivingSide("right")
	DRIVING_SIDE_LEFT  = DrivingSide("left")
)

// MapConfig is map-wide settings used for deriving original state of roads
type MapConfig struct {
	DrivingSide         DrivingSide `json:"driving_side" yaml:"driving_side"`
	BikesCanUseBusLanes bool        `json:"bikes_can_use_bus_lanes" yaml:"bikes_can_use_bus_lanes"`
	// Add sidewalks to roads without 'sidewalk' tag
	InferredSidewalks bool `json:"inferred_sidewalks" yaml:"inferred_sidewalks"`
	// Meters. Zero means defaults for every lane type
	LaneWidths map[string]float64 `json:"lane_widths,omitempty" yaml:"lane_widths,omitempty"`
}

func DefaultMapConfig() MapConfig {
	return MapConfig{
		DrivingSide:         DRIVING_SIDE_RIGHT,
		BikesCanUseBusLanes: true,
		InferredSidewalks:   true,
	}
}

// LoadMapConfig reads YAML file with map settings. Missing fields are filled with defaults
func LoadMapConfig(fname string) (MapConfig, error) {
	cfg := DefaultMapConfig()
	data, err := os.ReadFile(fname)
	if err != nil {
		return cfg, errors.Wrap(err, "Can't read map config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "Can't parse map config")
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg MapConfig) validate() error {
	if cfg.DrivingSide != DRIVING_SIDE_RIGHT && cfg.DrivingSide != DRIVING_SIDE_LEFT {
		return errors.Errorf("Driving side should be '%s' or '%s', but got '%s'", DRIVING_SIDE_RIGHT, DRIVING_SIDE_LEFT, cfg.DrivingSide)
	}
	for name, width := range cfg.LaneWidths {
		if _, ok := laneTypesTxt[name]; !ok {
			return errors.Errorf("Unknown lane type '%s' in lane widths", name)
		}
		if width <= 0 {
			return errors.Errorf("Lane width for '%s' should be positive, but got %f", name, width)
		}
	}
	return nil
}

// laneWidth returns configured width for given lane type or default one
func (cfg MapConfig) laneWidth(lt LaneType) float64 {
	if width, ok := cfg.LaneWidths[lt.String()]; ok && width > 0 {
		return width
	}
	return lt.DefaultWidth()
}
