package agent

import (
	"fmt"

	"github.com/aristath/swarmsim/internal/task"
)

// DriverPolicy chooses which assigned agent is credited with driving a
// shared transition when several qualify in the same tick. The mutation is
// performed by the acting agent either way; the policy only settles
// attribution, deterministically.
type DriverPolicy interface {
	Name() string
	// Driver picks from assigned (ascending agent ids); actor is the agent
	// whose activation triggered the transition.
	Driver(assigned []int64, actor int64) int64
}

// NewDriverPolicy returns the named driver policy.
func NewDriverPolicy(name string) (DriverPolicy, error) {
	switch name {
	case "lowest-id", "":
		return LowestIDDriver{}, nil
	case "acting-agent":
		return ActingAgentDriver{}, nil
	default:
		return nil, fmt.Errorf("unknown driver policy %q", name)
	}
}

// LowestIDDriver credits the lowest-id assigned agent.
type LowestIDDriver struct{}

func (LowestIDDriver) Name() string { return "lowest-id" }

func (LowestIDDriver) Driver(assigned []int64, actor int64) int64 {
	if len(assigned) == 0 {
		return actor
	}
	return assigned[0]
}

// ActingAgentDriver credits whichever agent's activation crossed the
// threshold.
type ActingAgentDriver struct{}

func (ActingAgentDriver) Name() string { return "acting-agent" }

func (ActingAgentDriver) Driver(_ []int64, actor int64) int64 { return actor }

// JoinPolicy decides whether a helper arriving after the Idle to InProgress
// transition may still join the working set.
type JoinPolicy interface {
	Name() string
	Join(t *task.Task) bool
}

// NewJoinPolicy returns the named join policy.
func NewJoinPolicy(name string) (JoinPolicy, error) {
	switch name {
	case "join-if-work-remains", "":
		return JoinIfWorkRemains{}, nil
	case "never-join-late":
		return NeverJoinLate{}, nil
	default:
		return nil, fmt.Errorf("unknown join policy %q", name)
	}
}

// JoinIfWorkRemains admits late helpers while work remains; the assigned
// set has no upper bound.
type JoinIfWorkRemains struct{}

func (JoinIfWorkRemains) Name() string { return "join-if-work-remains" }

func (JoinIfWorkRemains) Join(t *task.Task) bool {
	return t.Status == task.StatusInProgress && t.WorkRemaining > 0
}

// NeverJoinLate sends late helpers back to searching.
type NeverJoinLate struct{}

func (NeverJoinLate) Name() string { return "never-join-late" }

func (NeverJoinLate) Join(_ *task.Task) bool { return false }
