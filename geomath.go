package osm2edits

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// All geometry is planar: X and Y are meters

const (
	epsilonDistance = 1e-6
)

// Check if two segments intersects and returns intersections Point
// p1, p2 - first segment
// p3, p4 - second segment
// Note: Euclidean space. Segments are treated as infinite lines
func intersect(p1, p2, p3, p4 orb.Point) (orb.Point, error) {
	// Calculate the coefficients of the linear equations
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	// Calculate the determinant
	det := a1*b2 - a2*b1
	if det == 0 {
		return orb.Point{}, errors.New("The lines are parallel")
	}

	// Calculate the intersection point
	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	return orb.Point{x, y}, nil
}

// segmentsIntersection is the same as intersect, but point must lie on both segments
func segmentsIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	pt, err := intersect(p1, p2, p3, p4)
	if err != nil {
		return orb.Point{}, false
	}
	if !onSegment(p1, p2, pt) || !onSegment(p3, p4, pt) {
		return orb.Point{}, false
	}
	return pt, true
}

func onSegment(p, q, pt orb.Point) bool {
	eps := 1e-9
	return math.Min(p[0], q[0])-eps <= pt[0] && pt[0] <= math.Max(p[0], q[0])+eps &&
		math.Min(p[1], q[1])-eps <= pt[1] && pt[1] <= math.Max(p[1], q[1])+eps
}

// offsetCurve shifts line to the left (positive distance) or to the right (negative distance)
func offsetCurve(line orb.LineString, distance float64) orb.LineString {
	// Initialize result list and segment list
	var result orb.LineString
	var segments [][2]orb.Point

	// Iterate over line segments and calculate offset segments
	for i := 1; i < len(line); i++ {
		// Get current and previous points
		p1 := line[i-1]
		p2 := line[i]

		// Calculate the vector between the points
		vec := [2]float64{p2[0] - p1[0], p2[1] - p1[1]}

		// Normalize the vector
		vecLen := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1])
		if vecLen < epsilonDistance {
			continue
		}
		vec = [2]float64{vec[0] / vecLen, vec[1] / vecLen}

		// Rotate the vector by 90 degrees
		rotated := [2]float64{-vec[1], vec[0]}

		// Scale the rotated vector by the distance
		offset := [2]float64{rotated[0] * distance, rotated[1] * distance}

		// Calculate the offset points
		op1 := [2]float64{p1[0] + offset[0], p1[1] + offset[1]}
		op2 := [2]float64{p2[0] + offset[0], p2[1] + offset[1]}

		// Add the offset segment to the list of segments
		segments = append(segments, [2]orb.Point{op1, op2})
	}
	if len(segments) == 0 {
		return line.Clone()
	}

	result = append(result, segments[0][0])
	// Iterate over the segments and calculate the intersections
	for i := 1; i < len(segments); i++ {
		// Get the current and previous segments
		seg1 := segments[i-1]
		seg2 := segments[i]
		// Calculate the intersection point
		intersection, err := intersect(seg1[0], seg1[1], seg2[0], seg2[1])
		if err != nil {
			continue
		}
		// If there is an intersection, add the intersection and the current segment to the result
		result = append(result, intersection)
	}
	result = append(result, segments[len(segments)-1][1])
	return result
}

// lineLength returns length of the line (meters)
func lineLength(line orb.LineString) float64 {
	return planar.Length(line)
}

// pointAlongLine returns point at given distance from the start of the line. Distance is clamped to line's length
func pointAlongLine(line orb.LineString, distance float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if distance <= 0 {
		return line[0]
	}
	traversed := 0.0
	for i := 1; i < len(line); i++ {
		segLength := planar.Distance(line[i-1], line[i])
		if traversed+segLength >= distance {
			if segLength < epsilonDistance {
				return line[i]
			}
			return interpolate(line[i-1], line[i], (distance-traversed)/segLength)
		}
		traversed += segLength
	}
	return line[len(line)-1]
}

func interpolate(p, q orb.Point, fraction float64) orb.Point {
	return orb.Point{
		(1-fraction)*p[0] + fraction*q[0],
		(1-fraction)*p[1] + fraction*q[1],
	}
}

// lineSubstring returns part of the line between two distances from its start
func lineSubstring(line orb.LineString, start, end float64) orb.LineString {
	total := lineLength(line)
	start = math.Max(0, math.Min(start, total))
	end = math.Max(0, math.Min(end, total))
	if end < start {
		start, end = end, start
	}
	result := orb.LineString{pointAlongLine(line, start)}
	traversed := 0.0
	for i := 1; i < len(line); i++ {
		traversed += planar.Distance(line[i-1], line[i])
		if traversed > start && traversed < end {
			result = appendDistinct(result, line[i])
		}
	}
	return appendDistinct(result, pointAlongLine(line, end))
}

func appendDistinct(line orb.LineString, pt orb.Point) orb.LineString {
	if len(line) > 0 && planar.Distance(line[len(line)-1], pt) < epsilonDistance {
		return line
	}
	return append(line, pt)
}

// projectOnLine returns distance along the line to the closest point, the closest point itself and distance to it
func projectOnLine(line orb.LineString, pt orb.Point) (float64, orb.Point, float64) {
	bestAlong, bestDist := 0.0, math.Inf(1)
	var bestPoint orb.Point
	traversed := 0.0
	for i := 1; i < len(line); i++ {
		p, q := line[i-1], line[i]
		segLength := planar.Distance(p, q)
		fraction := 0.0
		if segLength > epsilonDistance {
			fraction = ((pt[0]-p[0])*(q[0]-p[0]) + (pt[1]-p[1])*(q[1]-p[1])) / (segLength * segLength)
			fraction = math.Max(0, math.Min(1, fraction))
		}
		proj := interpolate(p, q, fraction)
		dist := planar.Distance(proj, pt)
		if dist < bestDist {
			bestDist = dist
			bestAlong = traversed + fraction*segLength
			bestPoint = proj
		}
		traversed += segLength
	}
	if len(line) == 1 {
		return 0, line[0], planar.Distance(line[0], pt)
	}
	return bestAlong, bestPoint, bestDist
}

// reversedLine returns new line with reversed order of points
func reversedLine(line orb.LineString) orb.LineString {
	cp := line.Clone()
	cp.Reverse()
	return cp
}

// lastDirection returns unit vector of the last segment of the line
func lastDirection(line orb.LineString) orb.Point {
	for i := len(line) - 1; i > 0; i-- {
		p, q := line[i-1], line[i]
		segLength := planar.Distance(p, q)
		if segLength > epsilonDistance {
			return orb.Point{(q[0] - p[0]) / segLength, (q[1] - p[1]) / segLength}
		}
	}
	return orb.Point{1, 0}
}
