// Package geom implements planar buffering of GeoJSON geometries. Point
// inputs produce an exact discretized circle; all other inputs produce the
// convex hull of discs placed at every vertex, which is exact for convex
// shapes and a covering approximation for concave ones.
package geom

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultResolution is the number of segments used to approximate a quarter
// circle when the caller does not specify one.
const DefaultResolution = 16

var (
	// ErrNonPositiveDistance is returned for zero or negative buffer distances.
	ErrNonPositiveDistance = errors.New("buffer distance must be positive")

	// ErrEmptyGeometry is returned when the input geometry has no vertices.
	ErrEmptyGeometry = errors.New("geometry has no coordinates")
)

// Buffer returns a polygon covering every point within distance of g.
// resolution controls arc smoothness as segments per quarter circle; values
// below 1 fall back to DefaultResolution.
func Buffer(g orb.Geometry, distance float64, resolution int) (orb.Polygon, error) {
	if distance <= 0 {
		return nil, ErrNonPositiveDistance
	}
	if resolution < 1 {
		resolution = DefaultResolution
	}

	vertices, err := collectVertices(g)
	if err != nil {
		return nil, err
	}
	if len(vertices) == 0 {
		return nil, ErrEmptyGeometry
	}

	// A single vertex buffers to a plain circle; no hull needed.
	if len(vertices) == 1 {
		ring := circle(vertices[0], distance, resolution)
		return orb.Polygon{ring}, nil
	}

	points := make([]orb.Point, 0, len(vertices)*4*resolution)
	for _, v := range vertices {
		points = append(points, circle(v, distance, resolution)...)
	}

	hull := convexHull(points)
	return orb.Polygon{hull}, nil
}

// Area returns the planar area of g.
func Area(g orb.Geometry) float64 {
	return planar.Area(g)
}

// collectVertices flattens any supported geometry into its vertex list.
func collectVertices(g orb.Geometry) ([]orb.Point, error) {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}, nil
	case orb.MultiPoint:
		return []orb.Point(v), nil
	case orb.LineString:
		return []orb.Point(v), nil
	case orb.MultiLineString:
		var pts []orb.Point
		for _, ls := range v {
			pts = append(pts, ls...)
		}
		return pts, nil
	case orb.Ring:
		return []orb.Point(v), nil
	case orb.Polygon:
		var pts []orb.Point
		for _, ring := range v {
			pts = append(pts, ring...)
		}
		return pts, nil
	case orb.MultiPolygon:
		var pts []orb.Point
		for _, poly := range v {
			for _, ring := range poly {
				pts = append(pts, ring...)
			}
		}
		return pts, nil
	case orb.Collection:
		var pts []orb.Point
		for _, member := range v {
			sub, err := collectVertices(member)
			if err != nil {
				return nil, err
			}
			pts = append(pts, sub...)
		}
		return pts, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}
}

// circle returns a closed counterclockwise ring of 4*resolution segments
// approximating a circle of radius r around center.
func circle(center orb.Point, r float64, resolution int) orb.Ring {
	segments := 4 * resolution
	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		ring = append(ring, orb.Point{
			center[0] + r*math.Cos(theta),
			center[1] + r*math.Sin(theta),
		})
	}
	ring = append(ring, ring[0])
	return ring
}

// convexHull computes the convex hull of points using Andrew's monotone chain,
// returned as a closed counterclockwise ring.
func convexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)

	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	// Deduplicate; equal points break the cross-product turn test.
	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq

	if len(pts) < 3 {
		ring := make(orb.Ring, 0, len(pts)+1)
		ring = append(ring, pts...)
		ring = append(ring, pts[0])
		return ring
	}

	var lower, upper []orb.Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := make(orb.Ring, 0, len(lower)+len(upper)-1)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	hull = append(hull, hull[0])
	return hull
}

// cross returns the z-component of (b-a) x (c-a); positive for a left turn.
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}
