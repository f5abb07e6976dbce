package osm2edits

// Zone is a group of adjacent roads sharing identical access restrictions
type Zone struct {
	Members      []RoadID
	Borders      []IntersectionID
	Restrictions AccessRestrictions
}

// makeAllZones partitions restricted roads into zones. Without merging every restricted road is its own zone
func makeAllZones(m *Map) []Zone {
	mergeZones := m.edits.MergeZones
	queued := make(map[RoadID]struct{})
	zones := []Zone{}
	for _, road := range m.roads {
		if _, ok := queued[road.ID]; ok || !road.AccessRestrictions.IsRestricted() {
			continue
		}
		members := map[RoadID]struct{}{road.ID: {}}
		queued[road.ID] = struct{}{}
		if mergeZones {
			// Flood fill through intersections
			queue := []RoadID{road.ID}
			for len(queue) > 0 {
				current := m.GetRoad(queue[0])
				queue = queue[1:]
				for _, i := range []IntersectionID{current.SrcI, current.DstI} {
					for _, next := range m.GetIntersection(i).Roads {
						if _, ok := queued[next]; ok {
							continue
						}
						if m.GetRoad(next).AccessRestrictions != road.AccessRestrictions {
							continue
						}
						queued[next] = struct{}{}
						members[next] = struct{}{}
						queue = append(queue, next)
					}
				}
			}
		}

		borders := make(map[IntersectionID]struct{})
		for roadID := range members {
			member := m.GetRoad(roadID)
			for _, i := range []IntersectionID{member.SrcI, member.DstI} {
				for _, other := range m.GetIntersection(i).Roads {
					if _, ok := members[other]; !ok {
						borders[i] = struct{}{}
						break
					}
				}
			}
		}
		zones = append(zones, Zone{
			Members:      sortedRoadIDs(members),
			Borders:      sortedIntersectionIDs(borders),
			Restrictions: road.AccessRestrictions,
		})
	}
	return zones
}
