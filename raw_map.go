package osm2edits

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// RawMap is road network before lanes, geometry and turns are derived. Coordinates are planar meters
type RawMap struct {
	Name          MapName
	Intersections []RawIntersection
	Roads         []RawRoad
	Buildings     []RawArea
	ParkingLots   []RawArea
	TransitStops  []RawTransitStop
	TransitRoutes []RawTransitRoute
}

type RawIntersection struct {
	OrigID osm.NodeID
	Point  orb.Point
	Type   IntersectionType
	Tags   osm.Tags
}

// RawRoad connects intersections referred by I1 and I2 of its original identifier
type RawRoad struct {
	OrigID OriginalRoad
	Tags   osm.Tags
	// From I1 to I2
	Center orb.LineString
}

type RawArea struct {
	OrigID  osm.WayID
	Polygon orb.Polygon
}

type RawTransitStop struct {
	GtfsID string
	Name   string
	Point  orb.Point
}

type RawTransitRoute struct {
	GtfsID     string
	ShortName  string
	Stops      []string
	SpawnTimes []time.Duration
}

// NewMap derives complete map from raw data
func NewMap(raw *RawMap, options ...MapOption) (*Map, error) {
	opts := defaultMapOptions()
	for _, option := range options {
		option(opts)
	}
	if err := opts.config.validate(); err != nil {
		return nil, errors.Wrap(err, "Bad map config")
	}
	if opts.verbose {
		opts.logger.Info("Preparing map", slog.String("name", raw.Name.String()), slog.String("options", opts.String()))
	}

	m := &Map{
		name:                raw.Name,
		config:              opts.config,
		stopSigns:           make(map[IntersectionID]*ControlStopSign),
		trafficSignals:      make(map[IntersectionID]*ControlTrafficSignal),
		roadsByOrig:         make(map[OriginalRoad]RoadID),
		intersectionsByOrig: make(map[osm.NodeID]IntersectionID),
		routesByGtfs:        make(map[string]TransitRouteID),
		roadToBuildings:     make(map[RoadID][]BuildingID),
		staleBuildings:      make(map[BuildingID]struct{}),
		staleParkingLots:    make(map[ParkingLotID]struct{}),
		geometer:            opts.geometer,
		snapper:             opts.snapper,
		baseline:            opts.baseline,
		editsDir:            opts.editsDir,
		logger:              opts.logger,
		verbose:             opts.verbose,
	}
	m.edits = m.NewEdits()

	st := time.Now()
	if err := m.prepareGraph(raw); err != nil {
		return nil, errors.Wrap(err, "Can't prepare roads and intersections")
	}
	if opts.verbose {
		opts.logger.Info(fmt.Sprintf("Roads and intersections prepared. Done in %v", time.Since(st)),
			slog.Int("roads", len(m.roads)),
			slog.Int("intersections", len(m.intersections)),
		)
	}

	st = time.Now()
	if err := m.prepareGeometry(); err != nil {
		return nil, errors.Wrap(err, "Can't prepare intersections geometry")
	}
	m.prepareTurns()
	if opts.verbose {
		opts.logger.Info(fmt.Sprintf("Geometry and turns prepared. Done in %v", time.Since(st)))
	}

	st = time.Now()
	if err := m.snapper.Index(m.AllLanes()); err != nil {
		return nil, errors.Wrap(err, "Can't index lanes for snapping")
	}
	if err := m.prepareDriveways(raw, opts.strictMap); err != nil {
		return nil, errors.Wrap(err, "Can't prepare driveways")
	}
	if err := m.prepareTransit(raw, opts.strictMap); err != nil {
		return nil, errors.Wrap(err, "Can't prepare transit")
	}
	m.recalculateRoadToBuildings()
	m.zones = makeAllZones(m)
	if opts.verbose {
		opts.logger.Info(fmt.Sprintf("Driveways, transit and zones prepared. Done in %v", time.Since(st)),
			slog.Int("buildings", len(m.buildings)),
			slog.Int("parking_lots", len(m.parkingLots)),
			slog.Int("transit_stops", len(m.transitStops)),
		)
	}

	m.pathfinderDirty = true
	if err := m.RecalculatePathfindingAfterEdits(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Map) prepareGraph(raw *RawMap) error {
	for idx, rawIntersection := range raw.Intersections {
		if _, ok := m.intersectionsByOrig[rawIntersection.OrigID]; ok {
			return errors.Errorf("Duplicated intersection for node %d", rawIntersection.OrigID)
		}
		if rawIntersection.Type == INTERSECTION_UNDEFINED {
			return errors.Errorf("Intersection for node %d has no type", rawIntersection.OrigID)
		}
		id := IntersectionID(idx)
		m.intersections = append(m.intersections, &Intersection{
			ID:        id,
			OrigID:    rawIntersection.OrigID,
			Point:     rawIntersection.Point,
			Type:      rawIntersection.Type,
			Tags:      rawIntersection.Tags,
			Roads:     []RoadID{},
			Movements: make(map[MovementID]*Movement),
		})
		m.intersectionsByOrig[rawIntersection.OrigID] = id
	}

	for idx, rawRoad := range raw.Roads {
		if _, ok := m.roadsByOrig[rawRoad.OrigID]; ok {
			return errors.Errorf("Duplicated %s", rawRoad.OrigID)
		}
		if len(rawRoad.Center) < 2 {
			return errors.Errorf("%s has degenerate center line", rawRoad.OrigID)
		}
		src, ok := m.intersectionsByOrig[rawRoad.OrigID.I1]
		if !ok {
			return errors.Errorf("%s refers unknown node %d", rawRoad.OrigID, rawRoad.OrigID.I1)
		}
		dst, ok := m.intersectionsByOrig[rawRoad.OrigID.I2]
		if !ok {
			return errors.Errorf("%s refers unknown node %d", rawRoad.OrigID, rawRoad.OrigID.I2)
		}
		if src == dst {
			return errors.Errorf("%s is a loop", rawRoad.OrigID)
		}
		id := RoadID(idx)
		baseline := m.baseline.DeriveBaseline(rawRoad.Tags, m.config)
		if len(baseline.LanesLTR) == 0 {
			return errors.Errorf("%s has no lanes", rawRoad.OrigID)
		}
		road := &Road{
			ID:                 id,
			OrigID:             rawRoad.OrigID,
			Tags:               rawRoad.Tags,
			SrcI:               src,
			DstI:               dst,
			UntrimmedCenter:    rawRoad.Center.Clone(),
			Center:             rawRoad.Center.Clone(),
			SpeedLimit:         baseline.SpeedLimit,
			AccessRestrictions: baseline.AccessRestrictions,
			TransitStops:       make(map[TransitStopID]struct{}),
			linkType:           linkTypeFromTags(rawRoad.Tags),
		}
		road.recreateLanes(baseline.LanesLTR)
		m.roads = append(m.roads, road)
		m.roadsByOrig[rawRoad.OrigID] = id
		m.intersections[src].Roads = append(m.intersections[src].Roads, id)
		m.intersections[dst].Roads = append(m.intersections[dst].Roads, id)
	}

	for _, intersection := range m.intersections {
		if len(intersection.Roads) == 0 {
			return errors.Errorf("Intersection for node %d has no roads", intersection.OrigID)
		}
	}
	return nil
}

// prepareGeometry trims every road at both ends and builds intersections polygons
func (m *Map) prepareGeometry() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%v", r)
		}
	}()
	for _, intersection := range m.intersections {
		recalculateIntersectionPolygon(m, -1, 0, intersection.ID)
	}
	for _, road := range m.roads {
		road.recreateLanes(road.LaneSpecs())
	}
	return nil
}

func (m *Map) prepareTurns() {
	for _, intersection := range m.intersections {
		if intersection.IsBorder() || intersection.IsClosed() {
			continue
		}
		intersection.Turns = makeAllTurns(m, intersection)
		intersection.Movements = movementsForIntersection(m, intersection)
		switch intersection.Type {
		case INTERSECTION_STOP_SIGN, INTERSECTION_UNCONTROLLED:
			m.stopSigns[intersection.ID] = newControlStopSign(m, intersection.ID)
		case INTERSECTION_TRAFFIC_SIGNAL:
			m.trafficSignals[intersection.ID] = newControlTrafficSignal(m, intersection.ID)
		}
	}
}

// prepareDriveways connects buildings and parking lots to lanes. Unconnectable ones are skipped unless strict
func (m *Map) prepareDriveways(raw *RawMap, strict bool) error {
	for _, area := range raw.Buildings {
		b := &Building{
			ID:      BuildingID(len(m.buildings)),
			OrigID:  area.OrigID,
			Polygon: area.Polygon,
		}
		pos, geom, err := snapBuilding(m, b)
		if err != nil {
			if strict {
				return errors.Wrapf(err, "Can't connect building way %d", area.OrigID)
			}
			m.logger.Warn("skipping building", slog.Int64("osm_way_id", int64(area.OrigID)), slog.Any("error", err))
			continue
		}
		b.SidewalkPos = pos
		b.DrivewayGeom = geom
		m.buildings = append(m.buildings, b)
	}
	for _, area := range raw.ParkingLots {
		pl := &ParkingLot{
			ID:      ParkingLotID(len(m.parkingLots)),
			OrigID:  area.OrigID,
			Polygon: area.Polygon,
		}
		sidewalkPos, drivingPos, sidewalkLine, drivewayLine, err := snapParkingLot(m, pl)
		if err != nil {
			if strict {
				return errors.Wrapf(err, "Can't connect parking lot way %d", area.OrigID)
			}
			m.logger.Warn("skipping parking lot", slog.Int64("osm_way_id", int64(area.OrigID)), slog.Any("error", err))
			continue
		}
		pl.SidewalkPos = sidewalkPos
		pl.DrivingPos = drivingPos
		pl.SidewalkLine = sidewalkLine
		pl.DrivewayLine = drivewayLine
		m.parkingLots = append(m.parkingLots, pl)
	}
	return nil
}

func (m *Map) prepareTransit(raw *RawMap, strict bool) error {
	stopsByGtfs := make(map[string]TransitStopID, len(raw.TransitStops))
	for _, rawStop := range raw.TransitStops {
		sidewalkPos, ok := m.snapper.Snap(rawStop.Point, isWalkableLane, sidewalkBuffer, maxDrivewayDistance)
		if !ok {
			if strict {
				return errors.Errorf("Can't connect transit stop '%s' to a sidewalk", rawStop.GtfsID)
			}
			m.logger.Warn("skipping transit stop", slog.String("gtfs_id", rawStop.GtfsID))
			continue
		}
		road := m.GetRoad(sidewalkPos.Lane.Road)
		drivingLane, ok := road.FindClosestLane(sidewalkPos.Lane, func(lane *Lane) bool {
			return CONSTRAINT_BUS.CanUse(lane, m.config)
		})
		if !ok {
			if strict {
				return errors.Errorf("Transit stop '%s' has no lane usable by buses on %s", rawStop.GtfsID, road.OrigID)
			}
			m.logger.Warn("skipping transit stop", slog.String("gtfs_id", rawStop.GtfsID))
			continue
		}
		id := TransitStopID(len(m.transitStops))
		m.transitStops = append(m.transitStops, &TransitStop{
			ID:          id,
			GtfsID:      rawStop.GtfsID,
			Name:        rawStop.Name,
			SidewalkPos: sidewalkPos,
			DrivingPos:  sidewalkPos.EquivPos(drivingLane, m),
		})
		road.TransitStops[id] = struct{}{}
		stopsByGtfs[rawStop.GtfsID] = id
	}

	for _, rawRoute := range raw.TransitRoutes {
		if _, ok := m.routesByGtfs[rawRoute.GtfsID]; ok {
			return errors.Errorf("Duplicated transit route '%s'", rawRoute.GtfsID)
		}
		stops := make([]TransitStopID, 0, len(rawRoute.Stops))
		for _, gtfsID := range rawRoute.Stops {
			stopID, ok := stopsByGtfs[gtfsID]
			if !ok {
				return errors.Errorf("Transit route '%s' refers unknown stop '%s'", rawRoute.GtfsID, gtfsID)
			}
			stops = append(stops, stopID)
		}
		id := TransitRouteID(len(m.transitRoutes))
		m.transitRoutes = append(m.transitRoutes, &TransitRoute{
			ID:             id,
			GtfsID:         rawRoute.GtfsID,
			ShortName:      rawRoute.ShortName,
			Stops:          stops,
			SpawnTimes:     cloneSpawnTimes(rawRoute.SpawnTimes),
			OrigSpawnTimes: cloneSpawnTimes(rawRoute.SpawnTimes),
		})
		m.routesByGtfs[rawRoute.GtfsID] = id
	}
	return nil
}
