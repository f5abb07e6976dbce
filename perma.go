package osm2edits

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

const (
	// Bump on every incompatible change of persistent edits and teach upgradeEdits about it
	editsFormatVersion = 2
)

// PermanentMapEdits is form of edits referring objects by identifiers stable between map imports
type PermanentMapEdits struct {
	MapName             MapName            `json:"map_name"`
	EditsName           string             `json:"edits_name"`
	Version             int                `json:"version"`
	Commands            []PermanentEditCmd `json:"commands"`
	MergeZones          bool               `json:"merge_zones"`
	ProposalDescription []string           `json:"proposal_description"`
	ProposalLink        string             `json:"proposal_link,omitempty"`
}

// PermanentEditCmd holds exactly one non-nil command
type PermanentEditCmd struct {
	ChangeRoad          *PermanentChangeRoad          `json:"ChangeRoad,omitempty"`
	ChangeIntersection  *PermanentChangeIntersection  `json:"ChangeIntersection,omitempty"`
	ChangeRouteSchedule *PermanentChangeRouteSchedule `json:"ChangeRouteSchedule,omitempty"`
	ChangeCrosswalks    *PermanentChangeCrosswalks    `json:"ChangeCrosswalks,omitempty"`
}

type PermanentChangeRoad struct {
	Road OriginalRoad `json:"r"`
	Old  EditRoad     `json:"old"`
	New  EditRoad     `json:"new"`
}

type PermanentChangeIntersection struct {
	Intersection osm.NodeID                `json:"i"`
	Old          PermanentEditIntersection `json:"old"`
	New          PermanentEditIntersection `json:"new"`
}

// PermanentEditIntersection is intersection control. Kind is one of "stop_sign", "traffic_signal", "closed"
type PermanentEditIntersection struct {
	Kind          string            `json:"kind"`
	MustStop      []OriginalRoad    `json:"must_stop,omitempty"`
	Uncontrolled  bool              `json:"uncontrolled,omitempty"`
	TrafficSignal *RawTrafficSignal `json:"traffic_signal,omitempty"`
}

type PermanentChangeRouteSchedule struct {
	GtfsID string `json:"gtfs_id"`
	// Seconds since midnight
	Old []float64 `json:"old"`
	New []float64 `json:"new"`
}

type PermanentChangeCrosswalks struct {
	Intersection osm.NodeID           `json:"i"`
	Old          []PermanentCrosswalk `json:"old"`
	New          []PermanentCrosswalk `json:"new"`
}

type PermanentCrosswalk struct {
	Src  PermanentLane `json:"src"`
	Dst  PermanentLane `json:"dst"`
	Type TurnType      `json:"turn_type"`
}

// PermanentLane refers lane by its road and position in left-to-right layout
type PermanentLane struct {
	Road   OriginalRoad `json:"road"`
	Offset int          `json:"offset"`
}

// ToPermanent converts edits into form suitable for saving
func (edits *MapEdits) ToPermanent(m *Map) PermanentMapEdits {
	perma := PermanentMapEdits{
		MapName:             m.name,
		EditsName:           edits.EditsName,
		Version:             editsFormatVersion,
		Commands:            make([]PermanentEditCmd, 0, len(edits.Commands)),
		MergeZones:          edits.MergeZones,
		ProposalDescription: make([]string, len(edits.ProposalDescription)),
		ProposalLink:        edits.ProposalLink,
	}
	copy(perma.ProposalDescription, edits.ProposalDescription)
	for _, cmd := range edits.Commands {
		perma.Commands = append(perma.Commands, cmdToPermanent(cmd, m))
	}
	return perma
}

func cmdToPermanent(cmd EditCmd, m *Map) PermanentEditCmd {
	switch c := cmd.(type) {
	case ChangeRoad:
		return PermanentEditCmd{ChangeRoad: &PermanentChangeRoad{
			Road: m.GetRoad(c.Road).OrigID,
			Old:  c.Old.Clone(),
			New:  c.New.Clone(),
		}}
	case ChangeIntersection:
		return PermanentEditCmd{ChangeIntersection: &PermanentChangeIntersection{
			Intersection: m.GetIntersection(c.Intersection).OrigID,
			Old:          intersectionEditToPermanent(c.Old, m),
			New:          intersectionEditToPermanent(c.New, m),
		}}
	case ChangeRouteSchedule:
		return PermanentEditCmd{ChangeRouteSchedule: &PermanentChangeRouteSchedule{
			GtfsID: m.GetTransitRoute(c.Route).GtfsID,
			Old:    durationsToSeconds(c.Old),
			New:    durationsToSeconds(c.New),
		}}
	case ChangeCrosswalks:
		return PermanentEditCmd{ChangeCrosswalks: &PermanentChangeCrosswalks{
			Intersection: m.GetIntersection(c.Intersection).OrigID,
			Old:          crosswalksToPermanent(c.Old, m),
			New:          crosswalksToPermanent(c.New, m),
		}}
	default:
		panic(fmt.Sprintf("Unhandled edit command %T", cmd))
	}
}

func intersectionEditToPermanent(edit EditIntersection, m *Map) PermanentEditIntersection {
	switch edit.Kind {
	case EDIT_STOP_SIGN:
		perma := PermanentEditIntersection{Kind: EDIT_STOP_SIGN.String(), MustStop: []OriginalRoad{}, Uncontrolled: edit.StopSign.Uncontrolled}
		for _, roadID := range edit.StopSign.StoppingRoads() {
			perma.MustStop = append(perma.MustStop, m.GetRoad(roadID).OrigID)
		}
		return perma
	case EDIT_TRAFFIC_SIGNAL:
		raw := *edit.TrafficSignal
		return PermanentEditIntersection{Kind: EDIT_TRAFFIC_SIGNAL.String(), TrafficSignal: &raw}
	case EDIT_CLOSED:
		return PermanentEditIntersection{Kind: EDIT_CLOSED.String()}
	default:
		panic(fmt.Sprintf("Unhandled intersection edit kind %d", edit.Kind))
	}
}

func crosswalksToPermanent(crosswalks EditCrosswalks, m *Map) []PermanentCrosswalk {
	perma := make([]PermanentCrosswalk, 0, len(crosswalks))
	for _, turnID := range crosswalks.sortedTurnIDs() {
		perma = append(perma, PermanentCrosswalk{
			Src:  PermanentLane{Road: m.GetRoad(turnID.Src.Road).OrigID, Offset: turnID.Src.Offset},
			Dst:  PermanentLane{Road: m.GetRoad(turnID.Dst.Road).OrigID, Offset: turnID.Dst.Offset},
			Type: crosswalks[turnID],
		})
	}
	return perma
}

func durationsToSeconds(times []time.Duration) []float64 {
	seconds := make([]float64, len(times))
	for i, t := range times {
		seconds[i] = t.Seconds()
	}
	return seconds
}

func secondsToDurations(seconds []float64) []time.Duration {
	times := make([]time.Duration, len(seconds))
	for i, s := range seconds {
		times[i] = time.Duration(s * float64(time.Second))
	}
	return times
}

// IntoEdits resolves every command against the map. Fails on the first command which doesn't match the map
func (perma PermanentMapEdits) IntoEdits(m *Map) (*MapEdits, error) {
	edits := perma.header()
	for idx, permaCmd := range perma.Commands {
		cmd, err := permaCmd.resolve(m)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't resolve command %d of edits '%s'", idx, perma.EditsName)
		}
		edits.Commands = append(edits.Commands, cmd)
	}
	edits.updateDerived(m)
	return edits, nil
}

// IntoEditsPermissive resolves commands against the map dropping the ones which don't match it
func (perma PermanentMapEdits) IntoEditsPermissive(m *Map) *MapEdits {
	edits := perma.header()
	for idx, permaCmd := range perma.Commands {
		cmd, err := permaCmd.resolve(m)
		if err != nil {
			m.logger.Warn("skipping broken edit command", slog.String("edits", perma.EditsName), slog.Int("command", idx), slog.Any("error", err))
			continue
		}
		edits.Commands = append(edits.Commands, cmd)
	}
	edits.updateDerived(m)
	return edits
}

func (perma PermanentMapEdits) header() *MapEdits {
	edits := newMapEdits()
	edits.EditsName = perma.EditsName
	edits.MergeZones = perma.MergeZones
	edits.ProposalDescription = append(edits.ProposalDescription, perma.ProposalDescription...)
	edits.ProposalLink = perma.ProposalLink
	return edits
}

func (permaCmd PermanentEditCmd) resolve(m *Map) (EditCmd, error) {
	switch {
	case permaCmd.ChangeRoad != nil:
		c := permaCmd.ChangeRoad
		roadID, ok := m.FindRoadByOrig(c.Road)
		if !ok {
			return nil, errors.Errorf("Can't find %s", c.Road)
		}
		// Source data changed, intent of the edit is unclear
		baseLanes, currentLanes := len(m.originalREdit(roadID).LanesLTR), len(m.GetRoad(roadID).Lanes)
		if len(c.Old.LanesLTR) != baseLanes && len(c.Old.LanesLTR) != currentLanes {
			return nil, errors.Errorf("Number of lanes of %s is %d now, but edits assume %d", c.Road, currentLanes, len(c.Old.LanesLTR))
		}
		return ChangeRoad{Road: roadID, Old: c.Old.Clone(), New: c.New.Clone()}, nil
	case permaCmd.ChangeIntersection != nil:
		c := permaCmd.ChangeIntersection
		id, ok := m.FindIntersectionByOrig(c.Intersection)
		if !ok {
			return nil, errors.Errorf("Can't find intersection for node %d", c.Intersection)
		}
		if m.GetIntersection(id).IsBorder() {
			return nil, errors.Errorf("Intersection for node %d is border now", c.Intersection)
		}
		oldEdit, err := c.Old.resolve(id, m)
		if err != nil {
			return nil, errors.Wrap(err, "Can't resolve old state")
		}
		newEdit, err := c.New.resolve(id, m)
		if err != nil {
			return nil, errors.Wrap(err, "Can't resolve new state")
		}
		return ChangeIntersection{Intersection: id, Old: oldEdit, New: newEdit}, nil
	case permaCmd.ChangeRouteSchedule != nil:
		c := permaCmd.ChangeRouteSchedule
		id, ok := m.FindRouteByGtfs(c.GtfsID)
		if !ok {
			return nil, errors.Errorf("Can't find transit route '%s'", c.GtfsID)
		}
		return ChangeRouteSchedule{Route: id, Old: secondsToDurations(c.Old), New: secondsToDurations(c.New)}, nil
	case permaCmd.ChangeCrosswalks != nil:
		c := permaCmd.ChangeCrosswalks
		id, ok := m.FindIntersectionByOrig(c.Intersection)
		if !ok {
			return nil, errors.Errorf("Can't find intersection for node %d", c.Intersection)
		}
		oldEdit, err := resolveCrosswalks(c.Old, id, m)
		if err != nil {
			return nil, errors.Wrap(err, "Can't resolve old crosswalks")
		}
		newEdit, err := resolveCrosswalks(c.New, id, m)
		if err != nil {
			return nil, errors.Wrap(err, "Can't resolve new crosswalks")
		}
		return ChangeCrosswalks{Intersection: id, Old: oldEdit, New: newEdit}, nil
	default:
		return nil, errors.New("Empty edit command")
	}
}

func (perma PermanentEditIntersection) resolve(id IntersectionID, m *Map) (EditIntersection, error) {
	switch perma.Kind {
	case EDIT_STOP_SIGN.String():
		ss := &ControlStopSign{ID: id, MustStop: make(map[RoadID]struct{}, len(perma.MustStop)), Uncontrolled: perma.Uncontrolled}
		intersection := m.GetIntersection(id)
		for _, orig := range perma.MustStop {
			roadID, ok := m.FindRoadByOrig(orig)
			if !ok {
				return EditIntersection{}, errors.Errorf("Can't find %s", orig)
			}
			found := false
			for _, r := range intersection.Roads {
				if r == roadID {
					found = true
					break
				}
			}
			if !found {
				return EditIntersection{}, errors.Errorf("%s doesn't meet intersection %d", orig, id)
			}
			ss.MustStop[roadID] = struct{}{}
		}
		return EditIntersection{Kind: EDIT_STOP_SIGN, StopSign: ss}, nil
	case EDIT_TRAFFIC_SIGNAL.String():
		if perma.TrafficSignal == nil {
			return EditIntersection{}, errors.New("Traffic signal edit has no timing")
		}
		return EditTrafficSignal(*perma.TrafficSignal), nil
	case EDIT_CLOSED.String():
		return EditClosed(), nil
	default:
		return EditIntersection{}, errors.Errorf("Unknown intersection edit kind '%s'", perma.Kind)
	}
}

func resolveCrosswalks(perma []PermanentCrosswalk, id IntersectionID, m *Map) (EditCrosswalks, error) {
	crosswalks := make(EditCrosswalks, len(perma))
	resolveLane := func(lane PermanentLane) (LaneID, error) {
		roadID, ok := m.FindRoadByOrig(lane.Road)
		if !ok {
			return LaneID{}, errors.Errorf("Can't find %s", lane.Road)
		}
		laneID := LaneID{Road: roadID, Offset: lane.Offset}
		if _, ok := m.MaybeGetLane(laneID); !ok {
			return LaneID{}, errors.Errorf("%s has no lane %d", lane.Road, lane.Offset)
		}
		return laneID, nil
	}
	for _, crosswalk := range perma {
		src, err := resolveLane(crosswalk.Src)
		if err != nil {
			return nil, err
		}
		dst, err := resolveLane(crosswalk.Dst)
		if err != nil {
			return nil, err
		}
		turnID := TurnID{Parent: id, Src: src, Dst: dst}
		if _, ok := m.MaybeGetTurn(turnID); !ok {
			return nil, errors.Errorf("Can't find %s", turnID)
		}
		crosswalks[turnID] = crosswalk.Type
	}
	return crosswalks, nil
}
