package osm2edits

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"github.com/pkg/errors"
)

// LaneSnapper finds nearest lane position for a point
type LaneSnapper interface {
	// Index replaces set of lanes available for snapping
	Index(lanes []*Lane) error
	// Snap returns nearest position on a lane matching the predicate. Positions closer than buffer to lane ends are not used
	Snap(pt orb.Point, pred func(*Lane) bool, buffer, maxDist float64) (Position, bool)
}

const (
	defaultSnapSpacing = 5.0
)

// lanePoint is sampled point of a lane stored in the spatial index
type lanePoint struct {
	pt   orb.Point
	lane LaneID
}

func (lp *lanePoint) Point() orb.Point {
	return lp.pt
}

// QuadtreeSnapper indexes points sampled along every lane
type QuadtreeSnapper struct {
	// Meters between sampled points
	Spacing float64

	tree  *quadtree.Quadtree
	lanes map[LaneID]*Lane
}

func NewQuadtreeSnapper() *QuadtreeSnapper {
	return &QuadtreeSnapper{
		Spacing: defaultSnapSpacing,
	}
}

func (s *QuadtreeSnapper) Index(lanes []*Lane) error {
	s.lanes = make(map[LaneID]*Lane, len(lanes))
	if len(lanes) == 0 {
		s.tree = nil
		return nil
	}
	bound := lanes[0].Geom.Bound()
	for _, lane := range lanes {
		bound = bound.Union(lane.Geom.Bound())
	}
	s.tree = quadtree.New(bound.Pad(1.0))
	spacing := s.Spacing
	if spacing <= 0 {
		spacing = defaultSnapSpacing
	}
	for _, lane := range lanes {
		s.lanes[lane.ID] = lane
		length := lane.Length()
		for dist := 0.0; dist < length; dist += spacing {
			if err := s.tree.Add(&lanePoint{pt: pointAlongLine(lane.Geom, dist), lane: lane.ID}); err != nil {
				return errors.Wrapf(err, "Can't index %s at %f", lane.ID, dist)
			}
		}
		if err := s.tree.Add(&lanePoint{pt: lane.Geom[len(lane.Geom)-1], lane: lane.ID}); err != nil {
			return errors.Wrapf(err, "Can't index end of %s", lane.ID)
		}
	}
	return nil
}

func (s *QuadtreeSnapper) Snap(pt orb.Point, pred func(*Lane) bool, buffer, maxDist float64) (Position, bool) {
	if s.tree == nil {
		return Position{}, false
	}
	// Sampled points are sparse, so search a bit wider than requested
	radius := maxDist + s.Spacing
	query := orb.Bound{
		Min: orb.Point{pt.X() - radius, pt.Y() - radius},
		Max: orb.Point{pt.X() + radius, pt.Y() + radius},
	}
	candidates := make(map[LaneID]struct{})
	for _, found := range s.tree.InBound(nil, query) {
		candidates[found.(*lanePoint).lane] = struct{}{}
	}

	best, bestDist := Position{}, math.Inf(1)
	for _, laneID := range sortedLaneIDs(candidates) {
		lane := s.lanes[laneID]
		if !pred(lane) {
			continue
		}
		length := lane.Length()
		if length <= 2*buffer {
			continue
		}
		distAlong, _, dist := projectOnLine(lane.Geom, pt)
		if dist > maxDist || dist >= bestDist {
			continue
		}
		distAlong = math.Max(buffer, math.Min(distAlong, length-buffer))
		best, bestDist = Position{Lane: laneID, DistAlong: distAlong}, dist
	}
	return best, !math.IsInf(bestDist, 1)
}
