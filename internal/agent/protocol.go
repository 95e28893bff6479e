package agent

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/aristath/swarmsim/internal/space"
)

// ActionKind enumerates the decisions a protocol can make.
type ActionKind int

const (
	ActionNone   ActionKind = iota // Stay put
	ActionMove                     // Move toward Dest, bounded by speed
	ActionEngage                   // Commit to the task identified by TaskID
)

// Action is a protocol decision for one activation.
type Action struct {
	Kind   ActionKind
	TaskID int64
	Dest   space.Point
}

// TaskSighting is a task visible within communication range, enriched with
// its current lifecycle facts so protocols can rank without registry access.
type TaskSighting struct {
	ID       int64
	Pos      space.Point
	Distance float64
	Required int
	Assigned int
}

// PeerSighting is another agent visible within communication range.
type PeerSighting struct {
	ID       int64
	Pos      space.Point
	Distance float64
}

// View is everything a Searching agent can see in one activation.
// Sightings arrive in ascending id order.
type View struct {
	Tasks []TaskSighting
	Peers []PeerSighting
}

// Protocol is a pluggable decision policy for Searching agents. Variants
// differ in how they pick targets and moves; the state machine around them
// never changes. Implementations must be deterministic given the same view
// and source.
type Protocol interface {
	Name() string
	Choose(self *Agent, view View, rng *rand.Rand) Action
}

// NewProtocol returns the named protocol variant.
func NewProtocol(name string) (Protocol, error) {
	switch name {
	case "random-walk", "":
		return RandomWalk{}, nil
	case "greedy-nearest":
		return GreedyNearest{}, nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", name)
	}
}

// RandomWalk engages the nearest visible task and otherwise wanders with a
// uniform-random heading and step length bounded by the agent's speed.
type RandomWalk struct{}

func (RandomWalk) Name() string { return "random-walk" }

func (RandomWalk) Choose(self *Agent, view View, rng *rand.Rand) Action {
	if len(view.Tasks) > 0 {
		best := view.Tasks[0]
		for _, s := range view.Tasks[1:] {
			if s.Distance < best.Distance {
				best = s
			}
		}
		return Action{Kind: ActionEngage, TaskID: best.ID}
	}
	return randomStep(self, rng)
}

// GreedyNearest prefers tasks that are closest to starting: fewest missing
// helpers first, then nearest, then lowest id. Falls back to a random step
// when nothing is visible.
type GreedyNearest struct{}

func (GreedyNearest) Name() string { return "greedy-nearest" }

func (GreedyNearest) Choose(self *Agent, view View, rng *rand.Rand) Action {
	if len(view.Tasks) == 0 {
		return randomStep(self, rng)
	}

	best := view.Tasks[0]
	for _, s := range view.Tasks[1:] {
		if deficit(s) != deficit(best) {
			if deficit(s) < deficit(best) {
				best = s
			}
			continue
		}
		if s.Distance < best.Distance {
			best = s
		}
	}
	return Action{Kind: ActionEngage, TaskID: best.ID}
}

func deficit(s TaskSighting) int {
	return s.Required - s.Assigned
}

func randomStep(self *Agent, rng *rand.Rand) Action {
	angle := rng.Float64() * 2 * math.Pi
	dist := rng.Float64() * self.Speed
	return Action{
		Kind: ActionMove,
		Dest: space.Point{
			X: self.Pos.X + math.Cos(angle)*dist,
			Y: self.Pos.Y + math.Sin(angle)*dist,
		},
	}
}
