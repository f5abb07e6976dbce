package osm2edits

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
)

// EffectsToWKT returns ';'-separated table of changed roads and intersections with WKT geometry
func EffectsToWKT(m *Map, effects *EditEffects) string {
	var sb strings.Builder
	sb.WriteString("kind;id;osm_id;geom\n")
	for _, roadID := range sortedRoadIDs(effects.ChangedRoads) {
		road := m.GetRoad(roadID)
		sb.WriteString(fmt.Sprintf("road;%d;%d;%s\n", roadID, road.OrigID.OsmWayID, wkt.MarshalString(road.Center)))
	}
	for _, id := range sortedIntersectionIDs(effects.ChangedIntersections) {
		intersection := m.GetIntersection(id)
		sb.WriteString(fmt.Sprintf("intersection;%d;%d;%s\n", id, intersection.OrigID, wkt.MarshalString(intersection.Polygon)))
	}
	return sb.String()
}
