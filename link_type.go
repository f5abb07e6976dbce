package osm2edits

// LinkType is road class. Lower value means more important road
type LinkType uint16

const (
	LINK_MOTORWAY = LinkType(iota + 1)
	LINK_TRUNK
	LINK_PRIMARY
	LINK_SECONDARY
	LINK_TERTIARY
	LINK_RESIDENTIAL
	LINK_LIVING_STREET
	LINK_SERVICE
	LINK_CYCLEWAY
	LINK_FOOTWAY
	LINK_TRACK
	LINK_UNCLASSIFIED
	LINK_CONSTRUCTION

	LINK_UNDEFINED = LinkType(0)
)

func (iotaIdx LinkType) String() string {
	return [...]string{"undefined", "motorway", "trunk", "primary", "secondary", "tertiary", "residential", "living_street", "service", "cycleway", "footway", "track", "unclassified", "construction"}[iotaIdx]
}

// rank returns importance of road class for stop sign placement. Bigger is more important
func (iotaIdx LinkType) rank() int {
	if iotaIdx == LINK_UNDEFINED {
		return 0
	}
	return int(LINK_CONSTRUCTION) + 1 - int(iotaIdx)
}

var (
	onewayDefaultByLink = map[LinkType]bool{
		LINK_MOTORWAY:      true,
		LINK_TRUNK:         false,
		LINK_PRIMARY:       false,
		LINK_SECONDARY:     false,
		LINK_TERTIARY:      false,
		LINK_RESIDENTIAL:   false,
		LINK_LIVING_STREET: false,
		LINK_SERVICE:       false,
		LINK_CYCLEWAY:      false,
		LINK_FOOTWAY:       false,
		LINK_TRACK:         false,
		LINK_UNCLASSIFIED:  false,
		LINK_CONSTRUCTION:  false,
	}
	// Per direction
	defaultLanesByLinkType = map[LinkType]int{
		LINK_MOTORWAY:      4,
		LINK_TRUNK:         3,
		LINK_PRIMARY:       2,
		LINK_SECONDARY:     2,
		LINK_TERTIARY:      1,
		LINK_RESIDENTIAL:   1,
		LINK_LIVING_STREET: 1,
		LINK_SERVICE:       1,
		LINK_CYCLEWAY:      1,
		LINK_FOOTWAY:       1,
		LINK_TRACK:         1,
		LINK_UNCLASSIFIED:  1,
		LINK_CONSTRUCTION:  1,
	}
	// km/h
	defaultSpeedByLinkType = map[LinkType]float64{
		LINK_MOTORWAY:      120,
		LINK_TRUNK:         100,
		LINK_PRIMARY:       80,
		LINK_SECONDARY:     60,
		LINK_TERTIARY:      40,
		LINK_RESIDENTIAL:   30,
		LINK_LIVING_STREET: 20,
		LINK_SERVICE:       30,
		LINK_CYCLEWAY:      15,
		LINK_FOOTWAY:       5,
		LINK_TRACK:         30,
		LINK_UNCLASSIFIED:  30,
		LINK_CONSTRUCTION:  10,
	}
	// Sidewalks are not inferred for these road classes
	noInferredSidewalks = map[LinkType]struct{}{
		LINK_MOTORWAY:     {},
		LINK_TRUNK:        {},
		LINK_CYCLEWAY:     {},
		LINK_FOOTWAY:      {},
		LINK_TRACK:        {},
		LINK_CONSTRUCTION: {},
	}
)
