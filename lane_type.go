package osm2edits

import (
	"github.com/pkg/errors"
)

// LaneType is kind of traversable strip inside a road
type LaneType uint16

const (
	LANE_DRIVING = LaneType(iota + 1)
	LANE_PARKING
	LANE_SIDEWALK
	LANE_SHOULDER
	LANE_BIKING
	LANE_BUS
	LANE_CONSTRUCTION

	LANE_UNDEFINED = LaneType(0)
)

func (iotaIdx LaneType) String() string {
	return [...]string{"undefined", "driving", "parking", "sidewalk", "shoulder", "biking", "bus", "construction"}[iotaIdx]
}

var (
	laneTypesTxt = map[string]LaneType{
		"driving":      LANE_DRIVING,
		"parking":      LANE_PARKING,
		"sidewalk":     LANE_SIDEWALK,
		"shoulder":     LANE_SHOULDER,
		"biking":       LANE_BIKING,
		"bus":          LANE_BUS,
		"construction": LANE_CONSTRUCTION,
	}
	// Meters
	defaultWidthByLaneType = map[LaneType]float64{
		LANE_DRIVING:      3.5,
		LANE_PARKING:      2.5,
		LANE_SIDEWALK:     1.5,
		LANE_SHOULDER:     1.5,
		LANE_BIKING:       1.8,
		LANE_BUS:          3.5,
		LANE_CONSTRUCTION: 3.0,
	}
)

func (iotaIdx LaneType) MarshalText() ([]byte, error) {
	if iotaIdx == LANE_UNDEFINED || int(iotaIdx) > len(laneTypesTxt) {
		return nil, errors.Errorf("Can't marshal lane type %d", iotaIdx)
	}
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *LaneType) UnmarshalText(text []byte) error {
	found, ok := laneTypesTxt[string(text)]
	if !ok {
		return errors.Errorf("Unknown lane type '%s'", string(text))
	}
	*iotaIdx = found
	return nil
}

// DefaultWidth returns typical width of a lane of this type (meters)
func (iotaIdx LaneType) DefaultWidth() float64 {
	return defaultWidthByLaneType[iotaIdx]
}

func (iotaIdx LaneType) IsWalkable() bool {
	return iotaIdx == LANE_SIDEWALK || iotaIdx == LANE_SHOULDER
}

func (iotaIdx LaneType) IsForMotorVehicles() bool {
	return iotaIdx == LANE_DRIVING || iotaIdx == LANE_BUS
}

// Direction of lane relative to the direction of road's center line
type Direction uint16

const (
	DIRECTION_FORWARD = Direction(iota)
	DIRECTION_BACKWARD
)

func (iotaIdx Direction) String() string {
	return [...]string{"forward", "backward"}[iotaIdx]
}

func (iotaIdx Direction) Opposite() Direction {
	if iotaIdx == DIRECTION_FORWARD {
		return DIRECTION_BACKWARD
	}
	return DIRECTION_FORWARD
}

func (iotaIdx Direction) MarshalText() ([]byte, error) {
	if iotaIdx > DIRECTION_BACKWARD {
		return nil, errors.Errorf("Can't marshal direction %d", iotaIdx)
	}
	return []byte(iotaIdx.String()), nil
}

func (iotaIdx *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "forward", "fwd":
		*iotaIdx = DIRECTION_FORWARD
	case "backward", "back":
		*iotaIdx = DIRECTION_BACKWARD
	default:
		return errors.Errorf("Unknown direction '%s'", string(text))
	}
	return nil
}

// LaneSpec describes one lane of road's left-to-right layout
type LaneSpec struct {
	LaneType LaneType  `json:"lt"`
	Dir      Direction `json:"dir"`
	// Meters
	Width float64 `json:"width"`
}

func NewLaneSpec(lt LaneType, dir Direction) LaneSpec {
	return LaneSpec{
		LaneType: lt,
		Dir:      dir,
		Width:    lt.DefaultWidth(),
	}
}

func totalWidth(specs []LaneSpec) float64 {
	sum := 0.0
	for _, spec := range specs {
		sum += spec.Width
	}
	return sum
}

func laneSpecsEqual(a, b []LaneSpec) bool {
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
