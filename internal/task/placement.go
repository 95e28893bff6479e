package task

import (
	"fmt"
	"math/rand"

	"github.com/aristath/swarmsim/internal/space"
)

// Placement chooses positions for newly spawned tasks.
// Implementations must always return a position: when no candidate
// satisfies the policy within its attempt budget, they fall back to the
// best candidate seen rather than under-provisioning the live set.
type Placement interface {
	Name() string
	Place(rng *rand.Rand, bounds space.Bounds, existing []*Task) space.Point
}

// NewPlacement returns the named placement policy.
func NewPlacement(name string, minSeparation float64) (Placement, error) {
	switch name {
	case "uniform", "":
		return UniformPlacement{}, nil
	case "spaced":
		return SpacedPlacement{MinSeparation: minSeparation, MaxAttempts: 16}, nil
	default:
		return nil, fmt.Errorf("unknown placement policy %q", name)
	}
}

// UniformPlacement places tasks uniformly at random over the environment.
type UniformPlacement struct{}

func (UniformPlacement) Name() string { return "uniform" }

func (UniformPlacement) Place(rng *rand.Rand, bounds space.Bounds, _ []*Task) space.Point {
	return space.Point{
		X: rng.Float64() * bounds.Width,
		Y: rng.Float64() * bounds.Height,
	}
}

// SpacedPlacement draws uniform candidates and keeps the first one at least
// MinSeparation away from every existing task. After MaxAttempts it settles
// for the candidate farthest from its nearest task.
type SpacedPlacement struct {
	MinSeparation float64
	MaxAttempts   int
}

func (SpacedPlacement) Name() string { return "spaced" }

func (p SpacedPlacement) Place(rng *rand.Rand, bounds space.Bounds, existing []*Task) space.Point {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 16
	}

	best := bounds.Center()
	bestClearance := -1.0

	for i := 0; i < attempts; i++ {
		candidate := space.Point{
			X: rng.Float64() * bounds.Width,
			Y: rng.Float64() * bounds.Height,
		}

		clearance := nearestTaskDistance(candidate, existing)
		if clearance >= p.MinSeparation {
			return candidate
		}
		if clearance > bestClearance {
			best = candidate
			bestClearance = clearance
		}
	}

	// Fallback: the least-crowded candidate seen. The live-set invariant
	// outranks the separation preference.
	return best
}

func nearestTaskDistance(p space.Point, existing []*Task) float64 {
	if len(existing) == 0 {
		return 1e18
	}
	nearest := 1e18
	for _, t := range existing {
		if d := space.Distance(p, t.Pos); d < nearest {
			nearest = d
		}
	}
	return nearest
}
