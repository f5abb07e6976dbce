package osm2edits

// getSpansConnections returns lanes ranges for merging several incoming groups into single outgoing one.
// Result is indexed the same way as incomingGroups: [0] is range of incoming lanes, [1] is range of outgoing lanes
func getSpansConnections(outgoing laneGroup, incomingGroups []laneGroup) [][]connectionPair {

	// Sort incoming groups by angle in descending order (left to right)
	angles := make([]float64, len(incomingGroups))
	for i, in := range incomingGroups {
		angles[i] = angleBetweenLines(in.geom, outgoing.geom)
	}
	sorted := sortByAngle(angles)

	// Evaluate lanes connections
	connections := make([][]connectionPair, len(incomingGroups))
	outgoingLanes := len(outgoing.lanes)
	leftIdx := sorted[0]
	leftLanes := len(incomingGroups[leftIdx].lanes)
	minConnections := min(outgoingLanes, leftLanes)
	// In <-> Out
	connections[leftIdx] = []connectionPair{{leftLanes - minConnections, leftLanes - 1}, {0, minConnections - 1}}
	for _, idx := range sorted[1:] {
		inLanes := len(incomingGroups[idx].lanes)
		minConnections := min(outgoingLanes, inLanes)
		// In <-> Out
		connections[idx] = []connectionPair{{0, minConnections - 1}, {outgoingLanes - minConnections, outgoingLanes - 1}}
	}
	return connections
}
