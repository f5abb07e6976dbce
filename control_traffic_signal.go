package osm2edits

import (
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

const (
	defaultStageDurationSeconds = 30
)

// ControlTrafficSignal is resolved signal timing. It refers movements, so it must be built after lanes are settled
type ControlTrafficSignal struct {
	ID            IntersectionID
	Stages        []Stage
	OffsetSeconds int
}

type Stage struct {
	ProtectedMovements []MovementID
	YieldMovements     []MovementID
	DurationSeconds    int
}

// RawTrafficSignal is signal timing referring roads by their original identifiers
type RawTrafficSignal struct {
	IntersectionOsmID osm.NodeID `json:"intersection"`
	Stages            []RawStage `json:"stages"`
	OffsetSeconds     int        `json:"offset_seconds"`
}

type RawStage struct {
	ProtectedTurns  []RawTurn `json:"protected_turns"`
	PermittedTurns  []RawTurn `json:"permitted_turns"`
	DurationSeconds int       `json:"duration_seconds"`
}

type RawTurn struct {
	From      RawDirectedRoad `json:"from"`
	To        RawDirectedRoad `json:"to"`
	Crosswalk bool            `json:"crosswalk"`
}

type RawDirectedRoad struct {
	Road OriginalRoad `json:"road"`
	Dir  Direction    `json:"dir"`
}

// newControlTrafficSignal generates default timing: one stage per incoming road.
// Crosswalks over other roads yield during the stage
func newControlTrafficSignal(m *Map, id IntersectionID) *ControlTrafficSignal {
	intersection := m.GetIntersection(id)
	ts := &ControlTrafficSignal{ID: id}
	movements := intersection.sortedMovementIDs()
	for _, roadID := range intersection.Roads {
		stage := Stage{DurationSeconds: defaultStageDurationSeconds}
		for _, mvmtID := range movements {
			switch {
			case !mvmtID.Crosswalk && mvmtID.From.Road == roadID:
				stage.ProtectedMovements = append(stage.ProtectedMovements, mvmtID)
			case mvmtID.Crosswalk && mvmtID.From.Road != roadID:
				stage.YieldMovements = append(stage.YieldMovements, mvmtID)
			}
		}
		if len(stage.ProtectedMovements) == 0 {
			continue
		}
		ts.Stages = append(ts.Stages, stage)
	}
	if len(ts.Stages) == 0 {
		stage := Stage{DurationSeconds: defaultStageDurationSeconds}
		for _, mvmtID := range movements {
			stage.ProtectedMovements = append(stage.ProtectedMovements, mvmtID)
		}
		ts.Stages = append(ts.Stages, stage)
	}
	return ts
}

// Validate checks that every movement of the signal exists at the intersection
func (ts *ControlTrafficSignal) Validate(m *Map) error {
	intersection := m.GetIntersection(ts.ID)
	if len(ts.Stages) == 0 {
		return errors.Errorf("Traffic signal at intersection %d has no stages", ts.ID)
	}
	for stageIdx, stage := range ts.Stages {
		if stage.DurationSeconds <= 0 {
			return errors.Errorf("Stage %d of traffic signal at intersection %d has non-positive duration %d", stageIdx, ts.ID, stage.DurationSeconds)
		}
		for _, group := range [][]MovementID{stage.ProtectedMovements, stage.YieldMovements} {
			for _, mvmtID := range group {
				if _, ok := intersection.Movements[mvmtID]; !ok {
					return errors.Errorf("Stage %d of traffic signal at intersection %d refers unknown %s", stageIdx, ts.ID, mvmtID)
				}
			}
		}
	}
	return nil
}

// Export converts signal into form stable between lane edits
func (ts *ControlTrafficSignal) Export(m *Map) RawTrafficSignal {
	raw := RawTrafficSignal{
		IntersectionOsmID: m.GetIntersection(ts.ID).OrigID,
		Stages:            make([]RawStage, 0, len(ts.Stages)),
		OffsetSeconds:     ts.OffsetSeconds,
	}
	exportGroup := func(group []MovementID) []RawTurn {
		turns := make([]RawTurn, 0, len(group))
		for _, mvmtID := range group {
			turns = append(turns, RawTurn{
				From:      RawDirectedRoad{Road: m.GetRoad(mvmtID.From.Road).OrigID, Dir: mvmtID.From.Dir},
				To:        RawDirectedRoad{Road: m.GetRoad(mvmtID.To.Road).OrigID, Dir: mvmtID.To.Dir},
				Crosswalk: mvmtID.Crosswalk,
			})
		}
		return turns
	}
	for _, stage := range ts.Stages {
		raw.Stages = append(raw.Stages, RawStage{
			ProtectedTurns:  exportGroup(stage.ProtectedMovements),
			PermittedTurns:  exportGroup(stage.YieldMovements),
			DurationSeconds: stage.DurationSeconds,
		})
	}
	return raw
}

// importTrafficSignal resolves raw timing against current movements of the intersection
func importTrafficSignal(raw RawTrafficSignal, id IntersectionID, m *Map) (*ControlTrafficSignal, error) {
	ts := &ControlTrafficSignal{
		ID:            id,
		Stages:        make([]Stage, 0, len(raw.Stages)),
		OffsetSeconds: raw.OffsetSeconds,
	}
	importGroup := func(turns []RawTurn) ([]MovementID, error) {
		group := make([]MovementID, 0, len(turns))
		for _, turn := range turns {
			from, ok := m.FindRoadByOrig(turn.From.Road)
			if !ok {
				return nil, errors.Errorf("Can't find %s", turn.From.Road)
			}
			to, ok := m.FindRoadByOrig(turn.To.Road)
			if !ok {
				return nil, errors.Errorf("Can't find %s", turn.To.Road)
			}
			group = append(group, MovementID{
				From:      DirectedRoadID{Road: from, Dir: turn.From.Dir},
				To:        DirectedRoadID{Road: to, Dir: turn.To.Dir},
				Parent:    id,
				Crosswalk: turn.Crosswalk,
			})
		}
		return group, nil
	}
	for stageIdx, rawStage := range raw.Stages {
		protected, err := importGroup(rawStage.ProtectedTurns)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't import protected turns of stage %d", stageIdx)
		}
		yield, err := importGroup(rawStage.PermittedTurns)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't import permitted turns of stage %d", stageIdx)
		}
		ts.Stages = append(ts.Stages, Stage{
			ProtectedMovements: protected,
			YieldMovements:     yield,
			DurationSeconds:    rawStage.DurationSeconds,
		})
	}
	if err := ts.Validate(m); err != nil {
		return nil, errors.Wrap(err, "Imported traffic signal is invalid")
	}
	return ts, nil
}

func (raw RawTrafficSignal) Equal(other RawTrafficSignal) bool {
	if raw.IntersectionOsmID != other.IntersectionOsmID || raw.OffsetSeconds != other.OffsetSeconds || len(raw.Stages) != len(other.Stages) {
		return false
	}
	for i := range raw.Stages {
		a, b := raw.Stages[i], other.Stages[i]
		if a.DurationSeconds != b.DurationSeconds || !rawTurnsEqual(a.ProtectedTurns, b.ProtectedTurns) || !rawTurnsEqual(a.PermittedTurns, b.PermittedTurns) {
			return false
		}
	}
	return true
}

func rawTurnsEqual(a, b []RawTurn) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
