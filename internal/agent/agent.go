package agent

import (
	"fmt"
	"math/rand"

	"github.com/aristath/swarmsim/internal/events"
	"github.com/aristath/swarmsim/internal/space"
	"github.com/aristath/swarmsim/internal/task"
)

// State represents the behavioral state of an agent.
type State int

const (
	StateSearching      State = iota // Roaming, looking for tasks
	StateWaitingForHelp              // Claimed a task, waiting in place for helpers
	StateHelping                     // Traveling toward a claimed task to assist
	StateWorking                     // Depleting an in-progress task's work
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateSearching:
		return "Searching"
	case StateWaitingForHelp:
		return "WaitingForHelp"
	case StateHelping:
		return "Helping"
	case StateWorking:
		return "Working"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NoTask is the nil task reference.
const NoTask int64 = 0

// Agent is an autonomous actor in the simulation. Identity and protocol are
// fixed at creation; agents live for the whole run.
//
// Invariant: TaskID != NoTask exactly while the agent is in
// WaitingForHelp, Helping, or Working.
type Agent struct {
	ID        int64
	Pos       space.Point
	Speed     float64
	CommRange float64
	WorkRate  float64
	Protocol  Protocol

	State  State
	TaskID int64
}

// Env is the per-tick environment an agent acts in. The step driver builds
// one Env per tick and hands it to every agent in activation order.
type Env struct {
	Tick          int
	Space         *space.Index
	Tasks         *task.Registry
	Roster        *Roster
	Sink          events.Emitter
	RNG           *rand.Rand
	Driver        DriverPolicy
	Join          JoinPolicy
	ArrivalRadius float64
}

// Step runs one activation of the agent's state machine. The agent always
// re-reads current task state before acting; stale assumptions from earlier
// ticks are never trusted. Returned errors are invariant violations and
// abort the run.
func (a *Agent) Step(env *Env) error {
	switch a.State {
	case StateSearching:
		return a.stepSearching(env)
	case StateWaitingForHelp:
		return a.stepWaiting(env)
	case StateHelping:
		return a.stepHelping(env)
	case StateWorking:
		return a.stepWorking(env)
	default:
		return fmt.Errorf("agent %d in unknown state %d", a.ID, int(a.State))
	}
}

// stepSearching queries the spatial index, lets the protocol decide, and
// either engages a task or moves.
func (a *Agent) stepSearching(env *Env) error {
	if a.TaskID != NoTask {
		return fmt.Errorf("agent %d searching while holding task %d", a.ID, a.TaskID)
	}

	view := a.observe(env)
	action := a.Protocol.Choose(a, view, env.RNG)

	switch action.Kind {
	case ActionEngage:
		return a.engage(env, action.TaskID)
	case ActionMove:
		return a.moveTo(env, action.Dest)
	case ActionNone:
		return nil
	default:
		return fmt.Errorf("agent %d protocol %q returned unknown action %d", a.ID, a.Protocol.Name(), int(action.Kind))
	}
}

// engage commits a Searching agent to an idle task it discovered.
func (a *Agent) engage(env *Env, taskID int64) error {
	t, ok := env.Tasks.Get(taskID)
	if !ok || t.Status != task.StatusIdle {
		// Gone or already started since the view was built. Not an error:
		// the agent simply lost the race and keeps searching.
		return nil
	}

	// Solo task: claim, start, and get to work in one activation.
	if t.Required == 1 {
		if err := a.join(env, t); err != nil {
			return err
		}
		return a.driveStart(env, taskID)
	}

	// Cooperative task, unclaimed: become the first claimant and wait in
	// place. Being discoverable through the index is the call for help.
	if t.AssignedCount() == 0 {
		if err := a.join(env, t); err != nil {
			return err
		}
		a.transition(env, StateWaitingForHelp, taskID)
		return nil
	}

	// Cooperative task already claimed but short of helpers: travel there.
	// An Idle task's assigned set is always below the required count; the
	// threshold crossing flips it to InProgress in the same activation.
	a.transition(env, StateHelping, taskID)
	return a.helpTravel(env, t)
}

// stepWaiting re-checks the claimed task each tick and waits in place until
// the helper count is reached.
func (a *Agent) stepWaiting(env *Env) error {
	t, ok := env.Tasks.Get(a.TaskID)
	if !ok {
		return fmt.Errorf("agent %d waiting on removed task %d", a.ID, a.TaskID)
	}

	switch t.Status {
	case task.StatusCompleted:
		// Finished without this agent. Edge case, not an error: clear the
		// reference and resume searching.
		a.transition(env, StateSearching, NoTask)
		return nil

	case task.StatusInProgress:
		// Started earlier this tick by another activation. The starter
		// flips every assigned agent, so reaching here means this agent
		// missed the assignment.
		if t.IsAssigned(a.ID) {
			a.transition(env, StateWorking, t.ID)
			return nil
		}
		a.transition(env, StateSearching, NoTask)
		return nil

	case task.StatusIdle:
		if t.AssignedCount() >= t.Required {
			return a.driveStart(env, t.ID)
		}
		// Still short of helpers: wait in place.
		return nil

	default:
		return fmt.Errorf("task %d in unknown status %d", t.ID, int(t.Status))
	}
}

// stepHelping travels toward the claimed task and joins on arrival.
func (a *Agent) stepHelping(env *Env) error {
	t, ok := env.Tasks.Get(a.TaskID)
	if !ok {
		// Helpers are not assigned until arrival, so the task can complete
		// and be reconciled away while they travel.
		a.transition(env, StateSearching, NoTask)
		return nil
	}
	if t.Status == task.StatusCompleted {
		a.transition(env, StateSearching, NoTask)
		return nil
	}
	return a.helpTravel(env, t)
}

// helpTravel moves toward the task's fixed position and handles arrival.
func (a *Agent) helpTravel(env *Env, t *task.Task) error {
	if err := a.moveTo(env, t.Pos); err != nil {
		return err
	}
	if space.Distance(a.Pos, t.Pos) > env.ArrivalRadius {
		return nil
	}

	// Arrived. Re-read: the task may have started while this agent was in
	// transit, even within this tick.
	t, ok := env.Tasks.Get(t.ID)
	if !ok || t.Status == task.StatusCompleted {
		a.transition(env, StateSearching, NoTask)
		return nil
	}

	if t.Status == task.StatusInProgress {
		// Late arrival: the join policy decides.
		if !env.Join.Join(t) {
			a.transition(env, StateSearching, NoTask)
			return nil
		}
		if err := a.join(env, t); err != nil {
			return err
		}
		a.transition(env, StateWorking, t.ID)
		return nil
	}

	// Still idle: same effect as the original claimant.
	if err := a.join(env, t); err != nil {
		return err
	}
	t, _ = env.Tasks.Get(t.ID)
	if t.AssignedCount() >= t.Required {
		return a.driveStart(env, t.ID)
	}
	a.transition(env, StateWaitingForHelp, t.ID)
	return nil
}

// stepWorking applies this agent's contribution and drives completion when
// the counter crosses zero.
func (a *Agent) stepWorking(env *Env) error {
	t, ok := env.Tasks.Get(a.TaskID)
	if !ok {
		return fmt.Errorf("agent %d working on removed task %d", a.ID, a.TaskID)
	}
	if t.Status != task.StatusInProgress {
		// Completion flips every assigned agent back to Searching in the
		// completing activation, so a Working agent must always find its
		// task in progress.
		return fmt.Errorf("agent %d working on task %d in status %s", a.ID, t.ID, t.Status)
	}

	remaining, err := env.Tasks.ApplyWork(t.ID, a.ID, a.WorkRate)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}

	assigned, err := env.Tasks.Complete(t.ID)
	if err != nil {
		return err
	}

	env.emit(events.TopicTask, events.TaskCompletedEvent{
		TaskID:   t.ID,
		Driver:   env.Driver.Driver(assigned, a.ID),
		Assigned: assigned,
		AtTick:   env.Tick,
	})

	// Every assigned agent clears its reference and resumes searching on
	// this same tick, before the manager's next reconcile.
	for _, id := range assigned {
		other, ok := env.Roster.Get(id)
		if !ok {
			return fmt.Errorf("task %d assigned to unknown agent %d", t.ID, id)
		}
		other.transition(env, StateSearching, NoTask)
	}
	return nil
}

// join adds the agent to the task's assigned set and records the reference.
func (a *Agent) join(env *Env, t *task.Task) error {
	n, err := env.Tasks.Assign(t.ID, a.ID)
	if err != nil {
		return err
	}
	a.TaskID = t.ID
	env.emit(events.TopicTask, events.TaskAssignedEvent{
		TaskID:   t.ID,
		AgentID:  a.ID,
		Assigned: n,
		Required: t.Required,
		AtTick:   env.Tick,
	})
	return nil
}

// driveStart performs the Idle to InProgress transition and flips every
// assigned agent to Working.
func (a *Agent) driveStart(env *Env, taskID int64) error {
	if err := env.Tasks.Start(taskID); err != nil {
		return err
	}
	t, _ := env.Tasks.Get(taskID)

	env.emit(events.TopicTask, events.TaskStartedEvent{
		TaskID:   taskID,
		Driver:   env.Driver.Driver(t.Assigned, a.ID),
		Assigned: t.Assigned,
		AtTick:   env.Tick,
	})

	for _, id := range t.Assigned {
		other, ok := env.Roster.Get(id)
		if !ok {
			return fmt.Errorf("task %d assigned to unknown agent %d", taskID, id)
		}
		other.transition(env, StateWorking, taskID)
	}
	return nil
}

// observe builds the protocol view from the spatial index and the registry.
// Only Idle tasks are engageable from Searching; in-progress tasks are
// joined through the Helping path alone.
func (a *Agent) observe(env *Env) View {
	var view View
	for _, e := range env.Space.NeighborsWithin(a.Pos, a.CommRange) {
		switch e.Kind {
		case space.KindAgent:
			if e.ID == a.ID {
				continue
			}
			view.Peers = append(view.Peers, PeerSighting{
				ID:       e.ID,
				Pos:      e.Pos,
				Distance: space.Distance(a.Pos, e.Pos),
			})
		case space.KindTask:
			t, ok := env.Tasks.Get(e.ID)
			if !ok || t.Status != task.StatusIdle {
				continue
			}
			view.Tasks = append(view.Tasks, TaskSighting{
				ID:       t.ID,
				Pos:      t.Pos,
				Distance: space.Distance(a.Pos, t.Pos),
				Required: t.Required,
				Assigned: t.AssignedCount(),
			})
		}
	}
	return view
}

// moveTo advances through the spatial index, bounded by speed, and caches
// the resulting position.
func (a *Agent) moveTo(env *Env, dest space.Point) error {
	pos, err := env.Space.Move(space.KindAgent, a.ID, dest, a.Speed)
	if err != nil {
		return err
	}
	a.Pos = pos
	return nil
}

// transition changes state, updates the task reference, and publishes the
// change. Same-state transitions are silent.
func (a *Agent) transition(env *Env, to State, taskID int64) {
	from := a.State
	a.State = to
	a.TaskID = taskID
	if from == to {
		return
	}
	env.emit(events.TopicAgent, events.AgentStateEvent{
		AgentID: a.ID,
		From:    from.String(),
		To:      to.String(),
		TaskID:  taskID,
		AtTick:  env.Tick,
	})
}

func (env *Env) emit(topic string, ev events.Event) {
	if env.Sink != nil {
		env.Sink.Publish(topic, ev)
	}
}
