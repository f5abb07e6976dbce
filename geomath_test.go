package osm2edits

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

func lineAsString(l orb.LineString) string {
	agg := []string{}
	for _, pt := range l {
		agg = append(agg, fmt.Sprintf("[%f, %f]", pt.X(), pt.Y()))
	}
	return "[" + strings.Join(agg, ",") + "]"
}

func TestOffset(t *testing.T) {
	line := orb.LineString{{10.0, 10.0}, {15.0, 10.0}, {18.0, 15.0}, {18.0, 20.0}, {15.0, 24.0}, {12.0, 24.0}, {10.0, 18.0}, {10.0, 15.0}, {13.0, 12.0}, {15.0, 16.0}}
	distance := 1.0

	leftL := lineAsString(offsetCurve(line, distance))
	rightL := lineAsString(offsetCurve(line, -distance))

	correctLeft := "[[10.000000, 11.000000],[14.433810, 11.000000],[17.000000, 15.276984],[17.000000, 19.666667],[14.500000, 23.000000],[12.720759, 23.000000],[11.000000, 17.837722],[11.000000, 15.414214],[12.726049, 13.688165],[14.105573, 16.447214]]"
	if leftL != correctLeft {
		t.Errorf("Left offset line should be '%s' but got '%s'", correctLeft, leftL)
	}
	correctRight := "[[10.000000, 9.000000],[15.566190, 9.000000],[19.000000, 14.723016],[19.000000, 20.333333],[15.500000, 25.000000],[11.279241, 25.000000],[9.000000, 18.162278],[9.000000, 14.585786],[13.273951, 10.311835],[15.894427, 15.552786]]"
	if rightL != correctRight {
		t.Errorf("Right offset line should be '%s' but got '%s'", correctRight, rightL)
	}
}

func TestOffsetDegenerate(t *testing.T) {
	line := orb.LineString{{5.0, 5.0}, {5.0, 5.0}}
	offset := offsetCurve(line, 2.0)
	if len(offset) != 2 || offset[0] != line[0] {
		t.Errorf("Offset of zero-length line must be copy of the line, but got '%s'", lineAsString(offset))
	}
}

func TestLineSubstring(t *testing.T) {
	line, err := wkt.UnmarshalLineString("LINESTRING (0 0, 10 0, 10 10, 20 10)")
	if err != nil {
		t.Error(err)
		return
	}
	newLineWKT := wkt.MarshalString(lineSubstring(line, 5, 15))
	correctLine := "LINESTRING(5 0,10 0,10 5)"
	if correctLine != newLineWKT {
		t.Errorf("Correct line should be '%s', but got '%s'", correctLine, newLineWKT)
	}
	// Distances out of bounds are clamped
	newLineWKT = wkt.MarshalString(lineSubstring(line, -5, 100))
	correctLine = "LINESTRING(0 0,10 0,10 10,20 10)"
	if correctLine != newLineWKT {
		t.Errorf("Correct line should be '%s', but got '%s'", correctLine, newLineWKT)
	}
}

func TestPointAlongLine(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	pt := pointAlongLine(line, 15)
	correctPt := orb.Point{10, 5}
	if pt != correctPt {
		t.Errorf("Point must be %v, but got %v", correctPt, pt)
	}
	pt = pointAlongLine(line, 50)
	correctPt = orb.Point{10, 10}
	if pt != correctPt {
		t.Errorf("Point past the end must be %v, but got %v", correctPt, pt)
	}
}

func TestProjectOnLine(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	along, closest, dist := projectOnLine(line, orb.Point{12, 4})
	if math.Abs(along-14) > 1e-9 {
		t.Errorf("Distance along must be %f, but got %f", 14.0, along)
	}
	if math.Abs(closest.X()-10) > 1e-9 || math.Abs(closest.Y()-4) > 1e-9 {
		t.Errorf("Closest point must be %v, but got %v", orb.Point{10, 4}, closest)
	}
	if math.Abs(dist-2) > 1e-9 {
		t.Errorf("Distance must be %f, but got %f", 2.0, dist)
	}
}

func TestReversedLine(t *testing.T) {
	line := orb.LineString{{0, 0}, {1, 1}, {2, 0}}
	reversed := reversedLine(line)
	if reversed[0] != (orb.Point{2, 0}) || reversed[2] != (orb.Point{0, 0}) {
		t.Errorf("Reversed line must be '[[2, 0],[1, 1],[0, 0]]', but got '%s'", lineAsString(reversed))
	}
	if line[0] != (orb.Point{0, 0}) {
		t.Errorf("Source line must stay unchanged, but got '%s'", lineAsString(line))
	}
}
