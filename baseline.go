package osm2edits

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
)

// BaselineDeriver evaluates original (unedited) state of a road from its import tags
type BaselineDeriver interface {
	DeriveBaseline(tags osm.Tags, cfg MapConfig) EditRoad
}

// OSMBaseline derives lanes layout, speed limit and access restrictions from OSM tags
type OSMBaseline struct{}

func (OSMBaseline) DeriveBaseline(tags osm.Tags, cfg MapConfig) EditRoad {
	return EditRoad{
		LanesLTR:           laneSpecsFromTags(tags, cfg),
		SpeedLimit:         speedLimitFromTags(tags),
		AccessRestrictions: accessRestrictionsFromTags(tags),
	}
}

var (
	mphRegExp    = regexp.MustCompile(`\d+\.?\d*\s*mph`)
	numberRegExp = regexp.MustCompile(`\d+\.?\d*`)
)

const (
	mphToKmh = 1.609344
)

func linkTypeFromTags(tags osm.Tags) LinkType {
	return getHighwayType(tags.Find("highway")).linkType()
}

// speedLimitFromTags returns speed limit in km/h
func speedLimitFromTags(tags osm.Tags) float64 {
	maxSpeed := tags.Find("maxspeed")
	if maxSpeed != "" {
		multiplier := 1.0
		if mphRegExp.MatchString(maxSpeed) {
			multiplier = mphToKmh
		}
		if value, err := strconv.ParseFloat(numberRegExp.FindString(maxSpeed), 64); err == nil && value > 0 {
			return value * multiplier
		}
	}
	if speed, ok := defaultSpeedByLinkType[linkTypeFromTags(tags)]; ok {
		return speed
	}
	return defaultSpeedByLinkType[LINK_UNCLASSIFIED]
}

func onewayFromTags(tags osm.Tags, linkType LinkType) (oneway bool, reversed bool) {
	switch tags.Find("oneway") {
	case "yes", "true", "1":
		return true, false
	case "-1", "reverse":
		return true, true
	case "no", "false", "0":
		return false, false
	}
	if tags.Find("junction") == "roundabout" {
		return true, false
	}
	return onewayDefaultByLink[linkType], false
}

func parseLanesNum(value string) int {
	if value == "" {
		return -1
	}
	lanesNum, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || lanesNum < 0 {
		return -1
	}
	return lanesNum
}

// drivingLanesFromTags returns number of forward and backward lanes of the main travel mode
func drivingLanesFromTags(tags osm.Tags, linkType LinkType, oneway bool) (int, int) {
	fwd := parseLanesNum(tags.Find("lanes:forward"))
	back := parseLanesNum(tags.Find("lanes:backward"))
	if fwd >= 0 && back >= 0 && fwd+back > 0 {
		return fwd, back
	}
	total := parseLanesNum(tags.Find("lanes"))
	if oneway {
		if total > 0 {
			return total, 0
		}
		return defaultLanesByLinkType[linkType], 0
	}
	if total > 1 {
		return total - total/2, total / 2
	}
	perDirection := defaultLanesByLinkType[linkType]
	if perDirection == 0 {
		perDirection = 1
	}
	return perDirection, perDirection
}

func isBikeLaneValue(value string) bool {
	return value == "lane" || value == "track"
}

func isParkingValue(value string) bool {
	return value == "parallel" || value == "diagonal" || value == "perpendicular"
}

// laneSpecsFromTags evaluates left-to-right lanes layout
func laneSpecsFromTags(tags osm.Tags, cfg MapConfig) []LaneSpec {
	linkType := linkTypeFromTags(tags)
	spec := func(lt LaneType, dir Direction) LaneSpec {
		return LaneSpec{LaneType: lt, Dir: dir, Width: cfg.laneWidth(lt)}
	}
	switch linkType {
	case LINK_FOOTWAY:
		return []LaneSpec{spec(LANE_SIDEWALK, DIRECTION_FORWARD)}
	case LINK_CONSTRUCTION:
		return []LaneSpec{spec(LANE_CONSTRUCTION, DIRECTION_FORWARD), spec(LANE_CONSTRUCTION, DIRECTION_BACKWARD)}
	}

	oneway, reversed := onewayFromTags(tags, linkType)
	fwdLanes, backLanes := drivingLanesFromTags(tags, linkType, oneway)
	if reversed {
		fwdLanes, backLanes = backLanes, fwdLanes
	}
	mainType := LANE_DRIVING
	if linkType == LINK_CYCLEWAY {
		mainType = LANE_BIKING
	}

	// Both sides are listed from center of the road to its edge
	fwdSide := make([]LaneSpec, 0, fwdLanes+3)
	backSide := make([]LaneSpec, 0, backLanes+3)
	for i := 0; i < fwdLanes; i++ {
		fwdSide = append(fwdSide, spec(mainType, DIRECTION_FORWARD))
	}
	for i := 0; i < backLanes; i++ {
		backSide = append(backSide, spec(mainType, DIRECTION_BACKWARD))
	}
	if mainType == LANE_DRIVING && tags.Find("busway") == "lane" {
		if fwdLanes > 1 {
			fwdSide[fwdLanes-1] = spec(LANE_BUS, DIRECTION_FORWARD)
		}
		if backLanes > 1 {
			backSide[backLanes-1] = spec(LANE_BUS, DIRECTION_BACKWARD)
		}
	}

	// Tags with 'left' and 'right' suffixes are relative to way direction
	leftSide, rightSide := &backSide, &fwdSide
	leftDir, rightDir := DIRECTION_BACKWARD, DIRECTION_FORWARD
	if cfg.DrivingSide == DRIVING_SIDE_LEFT {
		leftSide, rightSide = &fwdSide, &backSide
		leftDir, rightDir = DIRECTION_FORWARD, DIRECTION_BACKWARD
	}

	if mainType == LANE_DRIVING {
		cycleway := tags.Find("cycleway")
		bothBike := isBikeLaneValue(cycleway) || isBikeLaneValue(tags.Find("cycleway:both"))
		leftBike := bothBike || isBikeLaneValue(tags.Find("cycleway:left"))
		rightBike := bothBike || isBikeLaneValue(tags.Find("cycleway:right"))
		switch {
		case oneway && reversed:
			if leftBike || rightBike {
				backSide = append(backSide, spec(LANE_BIKING, DIRECTION_BACKWARD))
			}
		case oneway:
			if leftBike || rightBike {
				fwdSide = append(fwdSide, spec(LANE_BIKING, DIRECTION_FORWARD))
			}
		default:
			if leftBike {
				*leftSide = append(*leftSide, spec(LANE_BIKING, leftDir))
			}
			if rightBike {
				*rightSide = append(*rightSide, spec(LANE_BIKING, rightDir))
			}
		}

		bothParking := isParkingValue(tags.Find("parking:lane:both"))
		if bothParking || isParkingValue(tags.Find("parking:lane:left")) {
			*leftSide = append(*leftSide, spec(LANE_PARKING, leftDir))
		}
		if bothParking || isParkingValue(tags.Find("parking:lane:right")) {
			*rightSide = append(*rightSide, spec(LANE_PARKING, rightDir))
		}
	}

	leftWalk, rightWalk := false, false
	shoulders := false
	switch tags.Find("sidewalk") {
	case "both":
		leftWalk, rightWalk = true, true
	case "left":
		leftWalk = true
	case "right":
		rightWalk = true
	case "no", "none":
		shoulders = linkType != LINK_MOTORWAY && linkType != LINK_TRUNK && linkType != LINK_CYCLEWAY
	case "separate":
	default:
		if _, ok := noInferredSidewalks[linkType]; !ok && cfg.InferredSidewalks {
			leftWalk, rightWalk = true, true
		}
	}
	switch {
	case shoulders:
		*leftSide = append(*leftSide, spec(LANE_SHOULDER, leftDir))
		*rightSide = append(*rightSide, spec(LANE_SHOULDER, rightDir))
	default:
		if leftWalk {
			*leftSide = append(*leftSide, spec(LANE_SIDEWALK, leftDir))
		}
		if rightWalk {
			*rightSide = append(*rightSide, spec(LANE_SIDEWALK, rightDir))
		}
	}

	ltr := make([]LaneSpec, 0, len(*leftSide)+len(*rightSide))
	for i := len(*leftSide) - 1; i >= 0; i-- {
		ltr = append(ltr, (*leftSide)[i])
	}
	ltr = append(ltr, *rightSide...)
	if len(ltr) == 0 {
		ltr = append(ltr, spec(mainType, DIRECTION_FORWARD))
	}
	return ltr
}
