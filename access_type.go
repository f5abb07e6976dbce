package osm2edits

import (
	"github.com/paulmach/osm"
)

// AccessType is OSM tag key which could restrict travel modes
type AccessType uint16

const (
	ACCESS_HIGHWAY = AccessType(iota + 1)
	ACCESS_MOTOR_VEHICLE
	ACCESS_MOTORCAR
	ACCESS_OSM_ACCESS
	ACCESS_SERVICE
	ACCESS_BICYCLE
	ACCESS_FOOT
	ACCESS_UNDEFINED = AccessType(0)
)

func (iotaIdx AccessType) String() string {
	return [...]string{"undefined", "highway", "motor_vehicle", "motorcar", "access", "service", "bicycle", "foot"}[iotaIdx]
}

var (
	accessTypesAll = []AccessType{ACCESS_HIGHWAY, ACCESS_MOTOR_VEHICLE, ACCESS_MOTORCAR, ACCESS_OSM_ACCESS, ACCESS_SERVICE, ACCESS_BICYCLE, ACCESS_FOOT}

	// Values which forbid travel mode to pass through the road (local traffic is still allowed)
	throughTrafficExcludeValues = map[PathConstraints]map[AccessType]map[string]struct{}{
		CONSTRAINT_CAR: {
			ACCESS_MOTOR_VEHICLE: {
				"no":          struct{}{},
				"private":     struct{}{},
				"destination": struct{}{},
			},
			ACCESS_MOTORCAR: {
				"no":          struct{}{},
				"private":     struct{}{},
				"destination": struct{}{},
			},
			ACCESS_OSM_ACCESS: {
				"no":          struct{}{},
				"private":     struct{}{},
				"destination": struct{}{},
			},
			ACCESS_SERVICE: {
				"parking_aisle":    struct{}{},
				"driveway":         struct{}{},
				"emergency_access": struct{}{},
			},
		},
		CONSTRAINT_BIKE: {
			ACCESS_BICYCLE: {
				"no":      struct{}{},
				"private": struct{}{},
			},
			ACCESS_OSM_ACCESS: {
				"no": struct{}{},
			},
		},
		CONSTRAINT_PEDESTRIAN: {
			ACCESS_FOOT: {
				"no":      struct{}{},
				"private": struct{}{},
			},
		},
	}

	// Values which explicitly allow travel mode despite generic restriction
	throughTrafficIncludeValues = map[PathConstraints]map[AccessType]map[string]struct{}{
		CONSTRAINT_CAR: {
			ACCESS_MOTOR_VEHICLE: {
				"yes": struct{}{},
			},
			ACCESS_MOTORCAR: {
				"yes": struct{}{},
			},
		},
		CONSTRAINT_BIKE: {
			ACCESS_BICYCLE: {
				"yes":        struct{}{},
				"designated": struct{}{},
			},
		},
		CONSTRAINT_PEDESTRIAN: {
			ACCESS_FOOT: {
				"yes":        struct{}{},
				"designated": struct{}{},
			},
		},
	}
)

// accessRestrictionsFromTags evaluates which travel modes are allowed to pass through the road
func accessRestrictionsFromTags(tags osm.Tags) AccessRestrictions {
	restrictions := DefaultAccessRestrictions()
	for _, mode := range []PathConstraints{CONSTRAINT_CAR, CONSTRAINT_BIKE, CONSTRAINT_PEDESTRIAN} {
		if !throughTrafficAllowed(mode, tags) {
			restrictions.AllowThroughTraffic = restrictions.AllowThroughTraffic.Without(mode)
		}
	}
	// Buses follow cars
	if !restrictions.AllowThroughTraffic.Contains(CONSTRAINT_CAR) {
		restrictions.AllowThroughTraffic = restrictions.AllowThroughTraffic.Without(CONSTRAINT_BUS)
	}
	return restrictions
}

func throughTrafficAllowed(mode PathConstraints, tags osm.Tags) bool {
	include := throughTrafficIncludeValues[mode]
	for _, accessType := range accessTypesAll {
		if _, ok := include[accessType][tags.Find(accessType.String())]; ok {
			return true
		}
	}
	exclude := throughTrafficExcludeValues[mode]
	for _, accessType := range accessTypesAll {
		if _, ok := exclude[accessType][tags.Find(accessType.String())]; ok {
			return false
		}
	}
	return true
}
