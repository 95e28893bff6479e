package space

import "math"

// Point is a position in the 2D environment.
type Point struct {
	X float64
	Y float64
}

// Bounds describes the rectangular extent of the environment,
// spanning [0, Width) x [0, Height).
type Bounds struct {
	Width  float64
	Height float64
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() Point {
	return Point{X: b.Width / 2, Y: b.Height / 2}
}

// Clamp returns p constrained to the bounds.
func (b Bounds) Clamp(p Point) Point {
	p.X = math.Max(0, math.Min(b.Width-epsilon, p.X))
	p.Y = math.Max(0, math.Min(b.Height-epsilon, p.Y))
	return p
}

// epsilon keeps clamped points strictly inside the half-open interval.
const epsilon = 1e-9

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Hypot(dx, dy)
}

// StepToward returns the point reached by moving from `from` toward `to`
// by at most maxDist. Arrives exactly at `to` if it is within reach.
func StepToward(from, to Point, maxDist float64) Point {
	d := Distance(from, to)
	if d <= maxDist || d == 0 {
		return to
	}
	scale := maxDist / d
	return Point{
		X: from.X + (to.X-from.X)*scale,
		Y: from.Y + (to.Y-from.Y)*scale,
	}
}
