package task

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the live task set. It owns every task mutation and enforces
// the lifecycle: Idle -> InProgress -> Completed -> removed. Illegal
// transitions return errors; callers treat them as broken core contracts,
// not recoverable conditions.
//
// Core mutations are strictly sequential; the mutex exists so observability
// consumers can take snapshots from other goroutines.
type Registry struct {
	mu    sync.RWMutex
	tasks map[int64]*Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[int64]*Task),
	}
}

// Add inserts a task. Returns an error if the id already exists.
func (r *Registry) Add(t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.ID]; exists {
		return fmt.Errorf("task %d already exists", t.ID)
	}
	r.tasks[t.ID] = cloneTask(t)
	return nil
}

// Get returns a copy of the task by id.
func (r *Registry) Get(taskID int64) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tasks[taskID]
	if !exists {
		return nil, false
	}
	return cloneTask(t), true
}

// All returns copies of every task, ordered by id.
func (r *Registry) All() []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of tasks in the live set, completed included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// CountByStatus returns the number of tasks in the given status.
func (r *Registry) CountByStatus(status Status) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, t := range r.tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Assign adds an agent to a task's assigned set. Only Idle tasks accept
// new claimants before the start transition; InProgress tasks accept late
// joiners (the join policy is decided by the caller). Returns the size of
// the assigned set after the join.
func (r *Registry) Assign(taskID, agentID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tasks[taskID]
	if !exists {
		return 0, fmt.Errorf("task %d not found", taskID)
	}
	if t.Status == StatusCompleted {
		return 0, fmt.Errorf("task %d is completed, cannot assign agent %d", taskID, agentID)
	}
	if t.IsAssigned(agentID) {
		return 0, fmt.Errorf("agent %d already assigned to task %d", agentID, taskID)
	}

	t.Assigned = append(t.Assigned, agentID)
	sort.Slice(t.Assigned, func(i, j int) bool { return t.Assigned[i] < t.Assigned[j] })
	return len(t.Assigned), nil
}

// Unassign removes an agent from a task's assigned set. Used when an agent
// abandons a claim it can no longer honor.
func (r *Registry) Unassign(taskID, agentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %d not found", taskID)
	}
	for i, id := range t.Assigned {
		if id == agentID {
			t.Assigned = append(t.Assigned[:i], t.Assigned[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("agent %d not assigned to task %d", agentID, taskID)
}

// Start performs the Idle -> InProgress transition. The assigned set must
// have reached the required helper count.
func (r *Registry) Start(taskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %d not found", taskID)
	}
	if t.Status != StatusIdle {
		return fmt.Errorf("task %d cannot start from %s", taskID, t.Status)
	}
	if len(t.Assigned) < t.Required {
		return fmt.Errorf("task %d has %d of %d required agents", taskID, len(t.Assigned), t.Required)
	}

	t.Status = StatusInProgress
	return nil
}

// ApplyWork subtracts an agent's contribution from the task's remaining
// work and returns the new remainder. Only valid on InProgress tasks by
// assigned agents.
func (r *Registry) ApplyWork(taskID, agentID int64, amount float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tasks[taskID]
	if !exists {
		return 0, fmt.Errorf("task %d not found", taskID)
	}
	if t.Status != StatusInProgress {
		return 0, fmt.Errorf("task %d is %s, cannot apply work", taskID, t.Status)
	}
	if !t.IsAssigned(agentID) {
		return 0, fmt.Errorf("agent %d not assigned to task %d", agentID, taskID)
	}

	t.WorkRemaining -= amount
	return t.WorkRemaining, nil
}

// Complete performs the InProgress -> Completed transition, clears the
// assigned set, and returns the agent ids that were assigned. A completed
// task never transitions again.
func (r *Registry) Complete(taskID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("task %d not found", taskID)
	}
	if t.Status != StatusInProgress {
		return nil, fmt.Errorf("task %d cannot complete from %s", taskID, t.Status)
	}
	if t.WorkRemaining > 0 {
		return nil, fmt.Errorf("task %d still has %.2f work remaining", taskID, t.WorkRemaining)
	}

	assigned := t.Assigned
	t.Assigned = nil
	t.Status = StatusCompleted
	return assigned, nil
}

// Remove deletes a task from the live set. Only Completed tasks may be
// removed; the manager never force-removes live work.
func (r *Registry) Remove(taskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %d not found", taskID)
	}
	if t.Status != StatusCompleted {
		return fmt.Errorf("task %d is %s, only completed tasks are removed", taskID, t.Status)
	}

	delete(r.tasks, taskID)
	return nil
}
