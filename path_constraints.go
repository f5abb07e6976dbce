package osm2edits

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// PathConstraints is travel mode which decides what lanes could be used
type PathConstraints uint16

const (
	CONSTRAINT_PEDESTRIAN = PathConstraints(iota + 1)
	CONSTRAINT_CAR
	CONSTRAINT_BIKE
	CONSTRAINT_BUS

	CONSTRAINT_UNDEFINED = PathConstraints(0)
)

func (iotaIdx PathConstraints) String() string {
	return [...]string{"undefined", "pedestrian", "car", "bike", "bus"}[iotaIdx]
}

var (
	constraintsAll = []PathConstraints{CONSTRAINT_PEDESTRIAN, CONSTRAINT_CAR, CONSTRAINT_BIKE, CONSTRAINT_BUS}

	constraintsTxt = map[string]PathConstraints{
		"pedestrian": CONSTRAINT_PEDESTRIAN,
		"car":        CONSTRAINT_CAR,
		"bike":       CONSTRAINT_BIKE,
		"bus":        CONSTRAINT_BUS,
	}
)

// CanUse checks if given lane could be traversed with this travel mode
func (iotaIdx PathConstraints) CanUse(lane *Lane, cfg MapConfig) bool {
	switch iotaIdx {
	case CONSTRAINT_PEDESTRIAN:
		return lane.Type.IsWalkable()
	case CONSTRAINT_CAR:
		return lane.Type == LANE_DRIVING
	case CONSTRAINT_BIKE:
		if lane.Type == LANE_BUS {
			return cfg.BikesCanUseBusLanes
		}
		return lane.Type == LANE_BIKING || lane.Type == LANE_DRIVING
	case CONSTRAINT_BUS:
		return lane.Type == LANE_DRIVING || lane.Type == LANE_BUS
	default:
		return false
	}
}

// ConstraintSet is set of travel modes
type ConstraintSet uint16

func NewConstraintSet(modes ...PathConstraints) ConstraintSet {
	set := ConstraintSet(0)
	for _, mode := range modes {
		set = set.With(mode)
	}
	return set
}

func (set ConstraintSet) Contains(mode PathConstraints) bool {
	return set&(1<<mode) != 0
}

func (set ConstraintSet) With(mode PathConstraints) ConstraintSet {
	return set | (1 << mode)
}

func (set ConstraintSet) Without(mode PathConstraints) ConstraintSet {
	return set &^ (1 << mode)
}

func (set ConstraintSet) Modes() []PathConstraints {
	modes := []PathConstraints{}
	for _, mode := range constraintsAll {
		if set.Contains(mode) {
			modes = append(modes, mode)
		}
	}
	return modes
}

func (set ConstraintSet) String() string {
	names := []string{}
	for _, mode := range set.Modes() {
		names = append(names, mode.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

func (set ConstraintSet) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, mode := range set.Modes() {
		names = append(names, mode.String())
	}
	sort.Strings(names)
	return json.Marshal(names)
}

func (set *ConstraintSet) UnmarshalJSON(data []byte) error {
	names := []string{}
	if err := json.Unmarshal(data, &names); err != nil {
		return errors.Wrap(err, "Can't unmarshal constraint set")
	}
	result := ConstraintSet(0)
	for _, name := range names {
		mode, ok := constraintsTxt[strings.ToLower(name)]
		if !ok {
			return errors.Errorf("Unknown travel mode '%s'", name)
		}
		result = result.With(mode)
	}
	*set = result
	return nil
}

// AccessRestrictions limits through-traffic on a road
type AccessRestrictions struct {
	AllowThroughTraffic ConstraintSet `json:"allow_through_traffic"`
	CapVehiclesPerHour  int           `json:"cap_vehicles_per_hour,omitempty"`
}

func DefaultAccessRestrictions() AccessRestrictions {
	return AccessRestrictions{
		AllowThroughTraffic: NewConstraintSet(constraintsAll...),
	}
}

// IsRestricted returns true when any travel mode could not pass through the road
func (ar AccessRestrictions) IsRestricted() bool {
	return ar != DefaultAccessRestrictions()
}
