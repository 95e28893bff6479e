package task

import (
	"fmt"

	"github.com/aristath/swarmsim/internal/space"
)

// Status represents the lifecycle state of a task.
type Status int

const (
	StatusIdle       Status = iota // Waiting for enough agents to commit
	StatusInProgress               // Being worked by its assigned agents
	StatusCompleted                // Work depleted; removed at next reconcile
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusInProgress:
		return "InProgress"
	case StatusCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Task is a passive record of one unit of cooperative work.
// Position is fixed at creation. All mutation goes through the Registry.
type Task struct {
	ID            int64       // Unique, assigned by the manager
	Pos           space.Point // Immutable after creation
	Required      int         // Agents needed for Idle -> InProgress
	WorkRemaining float64     // Depleted by assigned agents' contributions
	Status        Status
	Assigned      []int64 // Agent ids committed to this task, ascending
}

// AssignedCount returns the size of the assigned set.
func (t *Task) AssignedCount() int {
	return len(t.Assigned)
}

// IsAssigned reports whether the given agent is in the assigned set.
func (t *Task) IsAssigned(agentID int64) bool {
	for _, id := range t.Assigned {
		if id == agentID {
			return true
		}
	}
	return false
}

func cloneTask(t *Task) *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Assigned != nil {
		cp.Assigned = append([]int64(nil), t.Assigned...)
	}
	return &cp
}
