package osm2edits

import (
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"

	geojson "github.com/paulmach/go.geojson"
)

// Feature kinds of raw map GeoJSON. Kind is stored in "kind" property
const (
	featureIntersection = "intersection"
	featureRoad         = "road"
	featureBuilding     = "building"
	featureParkingLot   = "parking_lot"
	featureTransitStop  = "transit_stop"
	featureTransitRoute = "transit_route"
)

// RawMapFromGeoJSON reads raw map from FeatureCollection. If wgs84 is set coordinates are projected to EPSG:3857
//
// Properties by kind:
//	intersection (Point): osm_id, type, tags
//	road (LineString from i1 to i2): osm_way_id, i1, i2, tags
//	building, parking_lot (Polygon): osm_id
//	transit_stop (Point): gtfs_id, name
//	transit_route (no geometry): gtfs_id, short_name, stops (array of gtfs_id), spawn_times (seconds since midnight)
func RawMapFromGeoJSON(data []byte, name MapName, wgs84 bool) (*RawMap, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse GeoJSON")
	}
	convertPoint := func(coords []float64) orb.Point {
		pt := orb.Point{coords[0], coords[1]}
		if wgs84 {
			return pointToEuclidean(pt)
		}
		return pt
	}
	convertLine := func(coords [][]float64) orb.LineString {
		line := make(orb.LineString, len(coords))
		for i := range coords {
			line[i] = orb.Point{coords[i][0], coords[i][1]}
		}
		if wgs84 {
			return lineToEuclidean(line)
		}
		return line
	}
	convertRing := func(coords [][]float64) orb.Ring {
		ring := make(orb.Ring, len(coords))
		for i := range coords {
			ring[i] = orb.Point{coords[i][0], coords[i][1]}
		}
		if wgs84 {
			return ringToEuclidean(ring)
		}
		return ring
	}

	raw := &RawMap{Name: name}
	for idx, feature := range fc.Features {
		kind, err := feature.PropertyString("kind")
		if err != nil {
			return nil, errors.Wrapf(err, "Feature %d has no kind", idx)
		}
		switch kind {
		case featureIntersection:
			if feature.Geometry == nil || !feature.Geometry.IsPoint() {
				return nil, errors.Errorf("Intersection feature %d must be a Point", idx)
			}
			osmID, err := intProperty(feature, "osm_id")
			if err != nil {
				return nil, errors.Wrapf(err, "Intersection feature %d has no osm_id", idx)
			}
			typeName := feature.PropertyMustString("type", INTERSECTION_STOP_SIGN.String())
			intersectionType, ok := intersectionTypesTxt[typeName]
			if !ok {
				return nil, errors.Errorf("Intersection feature %d has unknown type '%s'", idx, typeName)
			}
			raw.Intersections = append(raw.Intersections, RawIntersection{
				OrigID: osm.NodeID(osmID),
				Point:  convertPoint(feature.Geometry.Point),
				Type:   intersectionType,
				Tags:   tagsFromProperty(feature.Properties["tags"]),
			})
		case featureRoad:
			if feature.Geometry == nil || !feature.Geometry.IsLineString() {
				return nil, errors.Errorf("Road feature %d must be a LineString", idx)
			}
			wayID, err := intProperty(feature, "osm_way_id")
			if err != nil {
				return nil, errors.Wrapf(err, "Road feature %d has no osm_way_id", idx)
			}
			i1, err := intProperty(feature, "i1")
			if err != nil {
				return nil, errors.Wrapf(err, "Road feature %d has no i1", idx)
			}
			i2, err := intProperty(feature, "i2")
			if err != nil {
				return nil, errors.Wrapf(err, "Road feature %d has no i2", idx)
			}
			raw.Roads = append(raw.Roads, RawRoad{
				OrigID: OriginalRoad{OsmWayID: osm.WayID(wayID), I1: osm.NodeID(i1), I2: osm.NodeID(i2)},
				Tags:   tagsFromProperty(feature.Properties["tags"]),
				Center: convertLine(feature.Geometry.LineString),
			})
		case featureBuilding, featureParkingLot:
			if feature.Geometry == nil || !feature.Geometry.IsPolygon() {
				return nil, errors.Errorf("Feature %d of kind '%s' must be a Polygon", idx, kind)
			}
			osmID, _ := intProperty(feature, "osm_id")
			polygon := make(orb.Polygon, 0, len(feature.Geometry.Polygon))
			for _, ring := range feature.Geometry.Polygon {
				polygon = append(polygon, convertRing(ring))
			}
			area := RawArea{OrigID: osm.WayID(osmID), Polygon: polygon}
			if kind == featureBuilding {
				raw.Buildings = append(raw.Buildings, area)
			} else {
				raw.ParkingLots = append(raw.ParkingLots, area)
			}
		case featureTransitStop:
			if feature.Geometry == nil || !feature.Geometry.IsPoint() {
				return nil, errors.Errorf("Transit stop feature %d must be a Point", idx)
			}
			gtfsID, err := feature.PropertyString("gtfs_id")
			if err != nil {
				return nil, errors.Wrapf(err, "Transit stop feature %d has no gtfs_id", idx)
			}
			raw.TransitStops = append(raw.TransitStops, RawTransitStop{
				GtfsID: gtfsID,
				Name:   feature.PropertyMustString("name", gtfsID),
				Point:  convertPoint(feature.Geometry.Point),
			})
		case featureTransitRoute:
			gtfsID, err := feature.PropertyString("gtfs_id")
			if err != nil {
				return nil, errors.Wrapf(err, "Transit route feature %d has no gtfs_id", idx)
			}
			route := RawTransitRoute{
				GtfsID:    gtfsID,
				ShortName: feature.PropertyMustString("short_name", gtfsID),
			}
			stops, _ := feature.Properties["stops"].([]interface{})
			for _, stop := range stops {
				route.Stops = append(route.Stops, fmt.Sprint(stop))
			}
			spawnTimes, _ := feature.Properties["spawn_times"].([]interface{})
			for _, spawnTime := range spawnTimes {
				seconds, ok := spawnTime.(float64)
				if !ok {
					return nil, errors.Errorf("Transit route feature %d has non-numeric spawn time %v", idx, spawnTime)
				}
				route.SpawnTimes = append(route.SpawnTimes, time.Duration(seconds*float64(time.Second)))
			}
			raw.TransitRoutes = append(raw.TransitRoutes, route)
		default:
			return nil, errors.Errorf("Feature %d has unknown kind '%s'", idx, kind)
		}
	}
	return raw, nil
}

// intProperty reads integer property. JSON numbers are decoded as float64
func intProperty(feature *geojson.Feature, key string) (int64, error) {
	switch v := feature.Properties[key].(type) {
	case float64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, errors.Errorf("Property '%s' should be a number, but got %v", key, feature.Properties[key])
	}
}

// tagsFromProperty converts JSON object into tags sorted by key
func tagsFromProperty(value interface{}) osm.Tags {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return osm.Tags{}
	}
	tags := make(osm.Tags, 0, len(obj))
	for key, val := range obj {
		tags = append(tags, osm.Tag{Key: key, Value: fmt.Sprint(val)})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Key < tags[j].Key })
	return tags
}

func lineCoords(line orb.LineString) [][]float64 {
	coords := make([][]float64, len(line))
	for i, pt := range line {
		coords[i] = []float64{pt.X(), pt.Y()}
	}
	return coords
}

func polygonCoords(polygon orb.Polygon) [][][]float64 {
	coords := make([][][]float64, len(polygon))
	for i, ring := range polygon {
		coords[i] = lineCoords(orb.LineString(ring))
	}
	return coords
}

// EffectsToGeoJSON exports everything touched by edits: lanes of changed roads, changed intersections,
// added turns and re-snapped parking lots
func EffectsToGeoJSON(m *Map, effects *EditEffects) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, roadID := range sortedRoadIDs(effects.ChangedRoads) {
		for _, lane := range m.GetRoad(roadID).Lanes {
			feature := geojson.NewLineStringFeature(lineCoords(lane.Geom))
			feature.SetProperty("kind", "lane")
			feature.SetProperty("lane", lane.ID.String())
			feature.SetProperty("lane_type", lane.Type.String())
			feature.SetProperty("dir", lane.Dir.String())
			feature.SetProperty("width", lane.Width)
			fc.AddFeature(feature)
		}
	}
	for _, id := range sortedIntersectionIDs(effects.ChangedIntersections) {
		intersection := m.GetIntersection(id)
		feature := geojson.NewPolygonFeature(polygonCoords(intersection.Polygon))
		feature.SetProperty("kind", featureIntersection)
		feature.SetProperty("osm_id", int64(intersection.OrigID))
		feature.SetProperty("type", intersection.Type.String())
		fc.AddFeature(feature)
	}
	for _, turnID := range sortedTurnIDs(effects.AddedTurns) {
		turn := m.GetTurn(turnID)
		feature := geojson.NewLineStringFeature(lineCoords(turn.Geom))
		feature.SetProperty("kind", "turn")
		feature.SetProperty("turn", turnID.String())
		feature.SetProperty("turn_type", turn.Type.String())
		fc.AddFeature(feature)
	}
	lots := make([]ParkingLotID, 0, len(effects.ChangedParkingLots))
	for id := range effects.ChangedParkingLots {
		lots = append(lots, id)
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i] < lots[j] })
	for _, id := range lots {
		pl := m.GetParkingLot(id)
		feature := geojson.NewLineStringFeature(lineCoords(pl.DrivewayLine))
		feature.SetProperty("kind", "driveway")
		feature.SetProperty("parking_lot", int(id))
		fc.AddFeature(feature)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal effects")
	}
	return data, nil
}
