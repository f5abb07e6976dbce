package osm2edits

import (
	"log/slog"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

const (
	// Meters. Keeps driveways off the ends of lanes
	sidewalkBuffer = 7.5
	// Meters. Farther entities are not snappable
	maxDrivewayDistance = 1000.0
	drivingBuffer       = 1.0
)

// Building is connected to the nearest walkable lane with a driveway
type Building struct {
	ID           BuildingID
	OrigID       osm.WayID
	Polygon      orb.Polygon
	SidewalkPos  Position
	DrivewayGeom orb.LineString
}

func (b *Building) Center() orb.Point {
	return b.Polygon.Bound().Center()
}

// ParkingLot is connected to the nearest walkable lane and to a driving lane of the same road
type ParkingLot struct {
	ID           ParkingLotID
	OrigID       osm.WayID
	Polygon      orb.Polygon
	SidewalkPos  Position
	DrivingPos   Position
	SidewalkLine orb.LineString
	DrivewayLine orb.LineString
}

func (pl *ParkingLot) Center() orb.Point {
	return pl.Polygon.Bound().Center()
}

func isWalkableLane(lane *Lane) bool {
	return lane.Type.IsWalkable()
}

// trimPath cuts the line starting inside the polygon at the polygon's boundary
func trimPath(poly orb.Polygon, line orb.LineString) orb.LineString {
	if len(poly) == 0 || len(line) < 2 {
		return line
	}
	start, end := line[0], line[len(line)-1]
	ring := poly[0]
	best, bestDist := orb.Point{}, -1.0
	for i := 1; i < len(ring); i++ {
		hit, ok := segmentsIntersection(start, end, ring[i-1], ring[i])
		if !ok {
			continue
		}
		dist := planar.Distance(hit, end)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = hit, dist
		}
	}
	if bestDist <= epsilonDistance {
		return line
	}
	return orb.LineString{best, end}
}

// snapBuilding evaluates sidewalk connection of the building
func snapBuilding(m *Map, b *Building) (Position, orb.LineString, error) {
	center := b.Center()
	pos, ok := m.snapper.Snap(center, isWalkableLane, sidewalkBuffer, maxDrivewayDistance)
	if !ok {
		return Position{}, nil, errors.Errorf("Building %d isn't snapped to a sidewalk", b.ID)
	}
	line := orb.LineString{center, pos.Pt(m)}
	if planar.Distance(line[0], line[1]) < epsilonDistance {
		return Position{}, nil, errors.Errorf("Building %d has zero-length driveway", b.ID)
	}
	return pos, trimPath(b.Polygon, line), nil
}

// snapParkingLot evaluates sidewalk and driving connections of the parking lot
func snapParkingLot(m *Map, pl *ParkingLot) (Position, Position, orb.LineString, orb.LineString, error) {
	center := pl.Center()
	sidewalkPos, ok := m.snapper.Snap(center, isWalkableLane, sidewalkBuffer, maxDrivewayDistance)
	if !ok {
		return Position{}, Position{}, nil, nil, errors.Errorf("Parking lot %d isn't snapped to a sidewalk", pl.ID)
	}
	road := m.GetRoad(sidewalkPos.Lane.Road)
	drivingLane, ok := road.FindClosestLane(sidewalkPos.Lane, func(lane *Lane) bool {
		return lane.Type == LANE_DRIVING
	})
	if !ok {
		return Position{}, Position{}, nil, nil, errors.Errorf("Parking lot %d has no driving lane near %s", pl.ID, sidewalkPos.Lane)
	}
	drivingPos := sidewalkPos.EquivPos(drivingLane, m)
	drivingLength := m.GetLane(drivingLane).Length()
	if drivingPos.DistAlong < drivingBuffer || drivingPos.DistAlong > drivingLength-drivingBuffer {
		return Position{}, Position{}, nil, nil, errors.Errorf("Parking lot %d driveway is too close to the end of %s", pl.ID, drivingLane)
	}
	sidewalkLine := trimPath(pl.Polygon, orb.LineString{center, sidewalkPos.Pt(m)})
	drivewayLine := reversedLine(trimPath(pl.Polygon, orb.LineString{center, drivingPos.Pt(m)}))
	return sidewalkPos, drivingPos, sidewalkLine, drivewayLine, nil
}

// fixBuildingDriveways re-snaps given buildings. Failed ones keep stale connection
func fixBuildingDriveways(m *Map, ids []BuildingID, effects *EditEffects) {
	for _, id := range ids {
		b := m.buildings[id]
		pos, geom, err := snapBuilding(m, b)
		if err != nil {
			m.logger.Error("building keeps stale driveway", slog.Int("building", int(id)), slog.Any("error", err))
			m.staleBuildings[id] = struct{}{}
			continue
		}
		b.SidewalkPos = pos
		b.DrivewayGeom = geom
		delete(m.staleBuildings, id)
		// Road which now has this building may need redrawing
		effects.ChangedRoads[pos.Lane.Road] = struct{}{}
	}
}

// fixParkingLotDriveways re-snaps given parking lots. Failed ones keep stale connection
func fixParkingLotDriveways(m *Map, ids []ParkingLotID) {
	for _, id := range ids {
		pl := m.parkingLots[id]
		sidewalkPos, drivingPos, sidewalkLine, drivewayLine, err := snapParkingLot(m, pl)
		if err != nil {
			m.logger.Error("parking lot keeps stale driveway", slog.Int("parking_lot", int(id)), slog.Any("error", err))
			m.staleParkingLots[id] = struct{}{}
			continue
		}
		pl.SidewalkPos = sidewalkPos
		pl.DrivingPos = drivingPos
		pl.SidewalkLine = sidewalkLine
		pl.DrivewayLine = drivewayLine
		delete(m.staleParkingLots, id)
	}
}

// StaleDriveways returns buildings and parking lots which could not be re-snapped after edits
func (m *Map) StaleDriveways() ([]BuildingID, []ParkingLotID) {
	buildings := make([]BuildingID, 0, len(m.staleBuildings))
	for id := range m.staleBuildings {
		buildings = append(buildings, id)
	}
	sort.Slice(buildings, func(i, j int) bool { return buildings[i] < buildings[j] })
	lots := make([]ParkingLotID, 0, len(m.staleParkingLots))
	for id := range m.staleParkingLots {
		lots = append(lots, id)
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i] < lots[j] })
	return buildings, lots
}

// recalculateRoadToBuildings rebuilds lookup of buildings connected to every road
func (m *Map) recalculateRoadToBuildings() {
	m.roadToBuildings = make(map[RoadID][]BuildingID)
	for _, b := range m.buildings {
		roadID := b.SidewalkPos.Lane.Road
		m.roadToBuildings[roadID] = append(m.roadToBuildings[roadID], b.ID)
	}
}

// BuildingsAlongRoad returns buildings connected to sidewalks of the road
func (m *Map) BuildingsAlongRoad(roadID RoadID) []BuildingID {
	return m.roadToBuildings[roadID]
}
