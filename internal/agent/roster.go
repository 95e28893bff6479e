package agent

import (
	"fmt"
	"sort"
)

// Roster holds every agent in the simulation, keyed by id. Agents are
// created once at simulation start and live until teardown, so the roster
// never shrinks. Iteration is always in ascending id order; that order is
// the fixed activation order the whole concurrency model leans on.
type Roster struct {
	agents map[int64]*Agent
	order  []int64
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{
		agents: make(map[int64]*Agent),
	}
}

// Add registers an agent. Returns an error if the id already exists.
func (r *Roster) Add(a *Agent) error {
	if _, exists := r.agents[a.ID]; exists {
		return fmt.Errorf("agent %d already registered", a.ID)
	}
	r.agents[a.ID] = a
	r.order = append(r.order, a.ID)
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	return nil
}

// Get returns the agent with the given id.
func (r *Roster) Get(id int64) (*Agent, bool) {
	a, ok := r.agents[id]
	return a, ok
}

// Len returns the number of registered agents.
func (r *Roster) Len() int {
	return len(r.agents)
}

// All returns every agent in ascending id order. The returned agents are
// the live instances, not copies; callers outside the activation loop must
// treat them as read-only.
func (r *Roster) All() []*Agent {
	out := make([]*Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}

// CountByState returns the number of agents in the given state.
func (r *Roster) CountByState(s State) int {
	n := 0
	for _, a := range r.agents {
		if a.State == s {
			n++
		}
	}
	return n
}
