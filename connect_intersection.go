package osm2edits

import (
	"sort"

	"github.com/paulmach/orb"
)

const (
	defaultRightMostLanes = 1
	defaultLeftMostLanes  = 1
)

// connectionPair is inclusive range of lane indices inside a laneGroup
type connectionPair struct {
	first  int
	second int
}

// laneGroup is set of lanes of one road which are heading the same way through the intersection.
// Lanes are ordered from left to right in direction of travel
type laneGroup struct {
	road RoadID
	// Short segment near the intersection oriented in direction of travel
	geom  orb.LineString
	lanes []LaneID
}

// sortByAngle returns indices of groups sorted by angle in descending order (left to right)
func sortByAngle(angles []float64) []int {
	indices := make([]int, len(angles))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return angles[indices[i]] > angles[indices[j]]
	})
	return indices
}

// getIntersectionsConnections returns lanes ranges to connect from incoming group to every outgoing group.
// Result is indexed the same way as outgoingGroups: [0] is range of incoming lanes, [1] is range of outgoing lanes
func getIntersectionsConnections(incoming laneGroup, outgoingGroups []laneGroup) [][]connectionPair {

	// Sort outgoing groups by angle in descending order (left to right)
	angles := make([]float64, len(outgoingGroups))
	for i, out := range outgoingGroups {
		angles[i] = angleBetweenLines(incoming.geom, out.geom)
	}
	sorted := sortByAngle(angles)

	// Evaluate lanes connections
	connections := make([][]connectionPair, len(outgoingGroups))
	incomingLanes := len(incoming.lanes)
	if incomingLanes == 1 {
		leftIdx := sorted[0]
		connections[leftIdx] = []connectionPair{{0, 0}, {0, 0}}
		for _, idx := range sorted[1:] {
			outLanes := len(outgoingGroups[idx].lanes)
			connections[idx] = []connectionPair{{0, 0}, {outLanes - 1, outLanes - 1}}
		}
		return connections
	}
	if len(sorted) == 1 { // Full connection
		idx := sorted[0]
		minConnections := min(incomingLanes, len(outgoingGroups[idx].lanes))
		connections[idx] = []connectionPair{{0, minConnections - 1}, {0, minConnections - 1}}
	} else if len(sorted) == 2 { // Default right, remaining left
		leftIdx := sorted[0]
		minConnections := min(incomingLanes-defaultLeftMostLanes, len(outgoingGroups[leftIdx].lanes))
		connections[leftIdx] = []connectionPair{{0, minConnections - 1}, {0, minConnections - 1}}
		rightIdx := sorted[1]
		rightLanes := len(outgoingGroups[rightIdx].lanes)
		connections[rightIdx] = []connectionPair{{incomingLanes - defaultRightMostLanes, incomingLanes - 1}, {rightLanes - defaultRightMostLanes, rightLanes - 1}}
	} else { // >= 3, default left, default right, remaining middle
		leftIdx := sorted[0]
		connections[leftIdx] = []connectionPair{{0, defaultLeftMostLanes - 1}, {0, defaultLeftMostLanes - 1}}

		middle := sorted[1 : len(sorted)-1]
		assignedToMiddle := make([]int, len(middle))
		middleLanes := make([]int, len(middle))
		for i, idx := range middle {
			middleLanes[i] = len(outgoingGroups[idx].lanes)
		}
		leftLanesNum := incomingLanes - defaultLeftMostLanes - defaultRightMostLanes
		if leftLanesNum >= len(middle) {
			startLaneNumber := defaultLeftMostLanes
			for leftLanesNum > 0 && total(middleLanes) > 0 {
				for i := range middle {
					if middleLanes[i] == 0 {
						continue
					}
					if leftLanesNum == 0 {
						continue
					}
					middleLanes[i]--
					assignedToMiddle[i]++
					leftLanesNum--
				}
			}
			for i, idx := range middle {
				outLanes := len(outgoingGroups[idx].lanes)
				connections[idx] = []connectionPair{{startLaneNumber, startLaneNumber + assignedToMiddle[i] - 1}, {outLanes - assignedToMiddle[i], outLanes - 1}}
				startLaneNumber += assignedToMiddle[i]
			}
		} else if incomingLanes < len(middle) {
			// Last incoming lane serves every remaining middle group
			for i, idx := range middle {
				laneNumber := min(i, incomingLanes-1)
				outLanes := len(outgoingGroups[idx].lanes)
				connections[idx] = []connectionPair{{laneNumber, laneNumber}, {outLanes - 1, outLanes - 1}}
			}
		} else {
			startLaneNumber := 0
			if incomingLanes-defaultLeftMostLanes == len(middle) {
				startLaneNumber = defaultLeftMostLanes
			}
			for _, idx := range middle {
				outLanes := len(outgoingGroups[idx].lanes)
				connections[idx] = []connectionPair{{startLaneNumber, startLaneNumber}, {outLanes - 1, outLanes - 1}}
				startLaneNumber++
			}
		}
		rightIdx := sorted[len(sorted)-1]
		rightLanes := len(outgoingGroups[rightIdx].lanes)
		connections[rightIdx] = []connectionPair{{incomingLanes - defaultRightMostLanes, incomingLanes - 1}, {rightLanes - defaultRightMostLanes, rightLanes - 1}}
	}

	return connections
}

func total(slice []int) int {
	sum := 0
	for _, val := range slice {
		sum += val
	}
	return sum
}

// expandConnection returns lane pairs for given ranges. Extra lanes of the wider range share the outermost lane of the other one
func expandConnection(src laneGroup, srcRange connectionPair, dst laneGroup, dstRange connectionPair) [][2]LaneID {
	if !validRange(srcRange, len(src.lanes)) || !validRange(dstRange, len(dst.lanes)) {
		return nil
	}
	srcNum := srcRange.second - srcRange.first + 1
	dstNum := dstRange.second - dstRange.first + 1
	pairs := make([][2]LaneID, 0, max(srcNum, dstNum))
	for k := 0; k < max(srcNum, dstNum); k++ {
		pairs = append(pairs, [2]LaneID{
			src.lanes[srcRange.first+min(k, srcNum-1)],
			dst.lanes[dstRange.first+min(k, dstNum-1)],
		})
	}
	return pairs
}

func validRange(rng connectionPair, lanesNum int) bool {
	return rng.first >= 0 && rng.second >= rng.first && rng.second < lanesNum
}
