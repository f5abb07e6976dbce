package osm2edits

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// EditRoad is editable state of one road
type EditRoad struct {
	LanesLTR []LaneSpec `json:"lanes_ltr"`
	// km/h
	SpeedLimit         float64            `json:"speed_limit"`
	AccessRestrictions AccessRestrictions `json:"access_restrictions"`
}

func (er EditRoad) Clone() EditRoad {
	cp := er
	cp.LanesLTR = make([]LaneSpec, len(er.LanesLTR))
	copy(cp.LanesLTR, er.LanesLTR)
	return cp
}

func (er EditRoad) Equal(other EditRoad) bool {
	return laneSpecsEqual(er.LanesLTR, other.LanesLTR) &&
		er.SpeedLimit == other.SpeedLimit &&
		er.AccessRestrictions == other.AccessRestrictions
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

// Diff returns human readable list of differences of the snapshot against previous one
func (er EditRoad) Diff(other EditRoad) []string {
	lt, dir, width := 0, 0, 0
	for i := 0; i < len(er.LanesLTR) && i < len(other.LanesLTR); i++ {
		spec1, spec2 := er.LanesLTR[i], other.LanesLTR[i]
		if spec1.LaneType != spec2.LaneType {
			lt++
		}
		if spec1.Dir != spec2.Dir {
			dir++
		}
		if spec1.Width != spec2.Width {
			width++
		}
	}
	changes := []string{}
	if added := len(er.LanesLTR) - len(other.LanesLTR); added > 0 {
		changes = append(changes, pluralize(added, "lane added", "lanes added"))
	} else if added < 0 {
		changes = append(changes, pluralize(-added, "lane removed", "lanes removed"))
	}
	if lt > 0 {
		changes = append(changes, pluralize(lt, "lane type", "lane types"))
	}
	if dir > 0 {
		changes = append(changes, pluralize(dir, "lane reversal", "lane reversals"))
	}
	if width > 0 {
		changes = append(changes, pluralize(width, "lane width", "lane widths"))
	}
	if er.SpeedLimit != other.SpeedLimit {
		changes = append(changes, "speed limit")
	}
	if er.AccessRestrictions != other.AccessRestrictions {
		changes = append(changes, "access restrictions")
	}
	return changes
}

// EditIntersectionKind is variant of intersection control snapshot
type EditIntersectionKind uint16

const (
	EDIT_STOP_SIGN = EditIntersectionKind(iota + 1)
	EDIT_TRAFFIC_SIGNAL
	EDIT_CLOSED
)

func (iotaIdx EditIntersectionKind) String() string {
	return [...]string{"undefined", "stop_sign", "traffic_signal", "closed"}[iotaIdx]
}

// EditIntersection is editable control state of one intersection.
// Signals are kept in raw form since movements are only known after every lane edit is applied
type EditIntersection struct {
	Kind          EditIntersectionKind
	StopSign      *ControlStopSign
	TrafficSignal *RawTrafficSignal
}

func EditStopSign(ss *ControlStopSign) EditIntersection {
	return EditIntersection{Kind: EDIT_STOP_SIGN, StopSign: ss.Clone()}
}

func EditTrafficSignal(raw RawTrafficSignal) EditIntersection {
	return EditIntersection{Kind: EDIT_TRAFFIC_SIGNAL, TrafficSignal: &raw}
}

func EditClosed() EditIntersection {
	return EditIntersection{Kind: EDIT_CLOSED}
}

func (ei EditIntersection) Equal(other EditIntersection) bool {
	if ei.Kind != other.Kind {
		return false
	}
	switch ei.Kind {
	case EDIT_STOP_SIGN:
		return ei.StopSign.Equal(other.StopSign)
	case EDIT_TRAFFIC_SIGNAL:
		return ei.TrafficSignal.Equal(*other.TrafficSignal)
	case EDIT_CLOSED:
		return true
	default:
		panic(fmt.Sprintf("Unhandled intersection edit kind %d", ei.Kind))
	}
}

// EditCrosswalks maps every crossing turn of one intersection to its type
type EditCrosswalks map[TurnID]TurnType

func (ec EditCrosswalks) Equal(other EditCrosswalks) bool {
	if len(ec) != len(other) {
		return false
	}
	for id, turnType := range ec {
		if otherType, ok := other[id]; !ok || otherType != turnType {
			return false
		}
	}
	return true
}

func (ec EditCrosswalks) Clone() EditCrosswalks {
	cp := make(EditCrosswalks, len(ec))
	for id, turnType := range ec {
		cp[id] = turnType
	}
	return cp
}

func (ec EditCrosswalks) sortedTurnIDs() []TurnID {
	ids := make([]TurnID, 0, len(ec))
	for id := range ec {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })
	return ids
}

// MapEdits is ordered history of commands with caches of targets differing from baseline
type MapEdits struct {
	EditsName string
	// Oldest first. The same target may appear several times until compression
	Commands []EditCmd
	// Adjacent roads with the same access restrictions are merged into one zone
	MergeZones          bool
	ProposalDescription []string
	ProposalLink        string

	// Derived from commands, kept up to date by updateDerived
	ChangedRoads          map[RoadID]struct{}
	OriginalIntersections map[IntersectionID]EditIntersection
	OriginalCrosswalks    map[IntersectionID]EditCrosswalks
	ChangedRoutes         map[TransitRouteID]struct{}
}

const (
	untitledPrefix = "Untitled Proposal"
)

func newMapEdits() *MapEdits {
	return &MapEdits{
		EditsName:             untitledPrefix,
		Commands:              []EditCmd{},
		MergeZones:            true,
		ProposalDescription:   []string{},
		ChangedRoads:          make(map[RoadID]struct{}),
		OriginalIntersections: make(map[IntersectionID]EditIntersection),
		OriginalCrosswalks:    make(map[IntersectionID]EditCrosswalks),
		ChangedRoutes:         make(map[TransitRouteID]struct{}),
	}
}

// Clone returns deep copy of edits. Commands are immutable values, so they are shared
func (edits *MapEdits) Clone() *MapEdits {
	cp := &MapEdits{
		EditsName:             edits.EditsName,
		Commands:              make([]EditCmd, len(edits.Commands)),
		MergeZones:            edits.MergeZones,
		ProposalDescription:   make([]string, len(edits.ProposalDescription)),
		ProposalLink:          edits.ProposalLink,
		ChangedRoads:          make(map[RoadID]struct{}, len(edits.ChangedRoads)),
		OriginalIntersections: make(map[IntersectionID]EditIntersection, len(edits.OriginalIntersections)),
		OriginalCrosswalks:    make(map[IntersectionID]EditCrosswalks, len(edits.OriginalCrosswalks)),
		ChangedRoutes:         make(map[TransitRouteID]struct{}, len(edits.ChangedRoutes)),
	}
	copy(cp.Commands, edits.Commands)
	copy(cp.ProposalDescription, edits.ProposalDescription)
	for id := range edits.ChangedRoads {
		cp.ChangedRoads[id] = struct{}{}
	}
	for id, orig := range edits.OriginalIntersections {
		cp.OriginalIntersections[id] = orig
	}
	for id, orig := range edits.OriginalCrosswalks {
		cp.OriginalCrosswalks[id] = orig.Clone()
	}
	for id := range edits.ChangedRoutes {
		cp.ChangedRoutes[id] = struct{}{}
	}
	return cp
}

// Equal compares name, settings and commands. Derived caches follow from commands
func (edits *MapEdits) Equal(other *MapEdits) bool {
	if edits.EditsName != other.EditsName || edits.MergeZones != other.MergeZones || edits.ProposalLink != other.ProposalLink {
		return false
	}
	if len(edits.ProposalDescription) != len(other.ProposalDescription) || len(edits.Commands) != len(other.Commands) {
		return false
	}
	for i := range edits.ProposalDescription {
		if edits.ProposalDescription[i] != other.ProposalDescription[i] {
			return false
		}
	}
	for i := range edits.Commands {
		if !edits.Commands[i].Equal(other.Commands[i]) {
			return false
		}
	}
	return true
}

// updateDerived rebuilds caches from commands and prunes targets which match their baseline now
func (edits *MapEdits) updateDerived(m *Map) {
	edits.ChangedRoads = make(map[RoadID]struct{})
	edits.OriginalIntersections = make(map[IntersectionID]EditIntersection)
	edits.OriginalCrosswalks = make(map[IntersectionID]EditCrosswalks)
	edits.ChangedRoutes = make(map[TransitRouteID]struct{})

	for _, cmd := range edits.Commands {
		switch c := cmd.(type) {
		case ChangeRoad:
			edits.ChangedRoads[c.Road] = struct{}{}
		case ChangeIntersection:
			if _, ok := edits.OriginalIntersections[c.Intersection]; !ok {
				edits.OriginalIntersections[c.Intersection] = c.Old
			}
		case ChangeCrosswalks:
			if _, ok := edits.OriginalCrosswalks[c.Intersection]; !ok {
				edits.OriginalCrosswalks[c.Intersection] = c.Old
			}
		case ChangeRouteSchedule:
			edits.ChangedRoutes[c.Route] = struct{}{}
		default:
			panic(fmt.Sprintf("Unhandled edit command %T", cmd))
		}
	}

	for id := range edits.ChangedRoads {
		if m.GetREdit(id).Equal(m.originalREdit(id)) {
			delete(edits.ChangedRoads, id)
		}
	}
	for id, orig := range edits.OriginalIntersections {
		if m.GetIEdit(id).Equal(orig) {
			delete(edits.OriginalIntersections, id)
		}
	}
	for id, orig := range edits.OriginalCrosswalks {
		if m.GetICrosswalksEdit(id).Equal(orig) {
			delete(edits.OriginalCrosswalks, id)
		}
	}
	for id := range edits.ChangedRoutes {
		route := m.GetTransitRoute(id)
		if spawnTimesEqual(route.SpawnTimes, route.OrigSpawnTimes) {
			delete(edits.ChangedRoutes, id)
		}
	}
}

// Compress appends commands describing the net difference from baseline. Assumes updateDerived has been called
func (edits *MapEdits) Compress(m *Map) {
	for _, id := range sortedRoadIDs(edits.ChangedRoads) {
		edits.Commands = append(edits.Commands, ChangeRoad{
			Road: id,
			Old:  m.originalREdit(id),
			New:  m.GetREdit(id),
		})
	}
	intersections := make([]IntersectionID, 0, len(edits.OriginalIntersections))
	for id := range edits.OriginalIntersections {
		intersections = append(intersections, id)
	}
	sort.Slice(intersections, func(i, j int) bool { return intersections[i] < intersections[j] })
	for _, id := range intersections {
		edits.Commands = append(edits.Commands, ChangeIntersection{
			Intersection: id,
			Old:          edits.OriginalIntersections[id],
			New:          m.GetIEdit(id),
		})
	}
	crosswalks := make([]IntersectionID, 0, len(edits.OriginalCrosswalks))
	for id := range edits.OriginalCrosswalks {
		crosswalks = append(crosswalks, id)
	}
	sort.Slice(crosswalks, func(i, j int) bool { return crosswalks[i] < crosswalks[j] })
	for _, id := range crosswalks {
		edits.Commands = append(edits.Commands, ChangeCrosswalks{
			Intersection: id,
			Old:          edits.OriginalCrosswalks[id],
			New:          m.GetICrosswalksEdit(id),
		})
	}
	routes := make([]TransitRouteID, 0, len(edits.ChangedRoutes))
	for id := range edits.ChangedRoutes {
		routes = append(routes, id)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i] < routes[j] })
	for _, id := range routes {
		route := m.GetTransitRoute(id)
		edits.Commands = append(edits.Commands, ChangeRouteSchedule{
			Route: id,
			Old:   cloneSpawnTimes(route.OrigSpawnTimes),
			New:   cloneSpawnTimes(route.SpawnTimes),
		})
	}
}

// ChangedLanes splits changed roads into individually changed lanes and entirely changed roads.
// Deleted lanes are not returned
func (edits *MapEdits) ChangedLanes(m *Map) ([]LaneID, []RoadID) {
	lanes := make(map[LaneID]struct{})
	roads := make(map[RoadID]struct{})
	for id := range edits.ChangedRoads {
		road := m.GetRoad(id)
		orig := m.originalREdit(id)
		if road.SpeedLimit != orig.SpeedLimit || road.AccessRestrictions != orig.AccessRestrictions || len(road.Lanes) != len(orig.LanesLTR) {
			// Lanes were added or removed, so mark the entire road
			roads[id] = struct{}{}
			continue
		}
		for i, lane := range road.Lanes {
			spec := orig.LanesLTR[i]
			if lane.Dir != spec.Dir || lane.Type != spec.LaneType || lane.Width != spec.Width {
				lanes[lane.ID] = struct{}{}
			}
		}
	}
	return sortedLaneIDs(lanes), sortedRoadIDs(roads)
}

// GetChecksum returns md5 hex digest of persistent form
func (edits *MapEdits) GetChecksum(m *Map) (string, error) {
	bytes, err := json.Marshal(edits.ToPermanent(m))
	if err != nil {
		return "", errors.Wrap(err, "Can't marshal edits")
	}
	sum := md5.Sum(bytes)
	return hex.EncodeToString(sum[:]), nil
}

// GetTitle returns first line of proposal description, falling back to name of edits
func (edits *MapEdits) GetTitle() string {
	if len(edits.ProposalDescription) > 0 && edits.ProposalDescription[0] != "" {
		return edits.ProposalDescription[0]
	}
	if edits.EditsName == "" {
		return untitledPrefix
	}
	return edits.EditsName
}

func (edits *MapEdits) isUntitled() bool {
	return strings.HasPrefix(edits.EditsName, untitledPrefix)
}

// EditEffects accumulates everything touched during one edits transaction
type EditEffects struct {
	ChangedRoads         map[RoadID]struct{}
	DeletedLanes         map[LaneID]struct{}
	ChangedIntersections map[IntersectionID]struct{}
	AddedTurns           map[TurnID]struct{}
	DeletedTurns         map[TurnID]struct{}
	ChangedParkingLots   map[ParkingLotID]struct{}

	// Deleted and re-created lanes. Driveways to them need re-snapping
	modifiedLanes map[LaneID]struct{}
}

func newEditEffects() *EditEffects {
	return &EditEffects{
		ChangedRoads:         make(map[RoadID]struct{}),
		DeletedLanes:         make(map[LaneID]struct{}),
		ChangedIntersections: make(map[IntersectionID]struct{}),
		AddedTurns:           make(map[TurnID]struct{}),
		DeletedTurns:         make(map[TurnID]struct{}),
		ChangedParkingLots:   make(map[ParkingLotID]struct{}),
		modifiedLanes:        make(map[LaneID]struct{}),
	}
}

// IsEmpty returns true when transaction touched nothing
func (effects *EditEffects) IsEmpty() bool {
	return len(effects.ChangedRoads) == 0 && len(effects.DeletedLanes) == 0 && len(effects.ChangedIntersections) == 0 &&
		len(effects.AddedTurns) == 0 && len(effects.DeletedTurns) == 0 && len(effects.ChangedParkingLots) == 0
}
