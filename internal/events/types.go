package events

// Event is the base interface for all simulation events.
type Event interface {
	EventType() string
	Tick() int
}

// Topic constants
const (
	TopicTask  = "task"
	TopicAgent = "agent"
	TopicSim   = "sim"
)

// Event type constants
const (
	EventTypeTaskSpawned   = "task.spawned"
	EventTypeTaskAssigned  = "task.assigned"
	EventTypeTaskStarted   = "task.started"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTaskRemoved   = "task.removed"
	EventTypeAgentState    = "agent.state"
	EventTypeTickStats     = "sim.tick"
)

// TaskSpawnedEvent is published when the task manager creates a task.
type TaskSpawnedEvent struct {
	TaskID   int64
	X, Y     float64
	Required int
	Work     float64
	AtTick   int
}

func (e TaskSpawnedEvent) EventType() string { return EventTypeTaskSpawned }
func (e TaskSpawnedEvent) Tick() int         { return e.AtTick }

// TaskAssignedEvent is published when an agent joins a task's assigned set.
type TaskAssignedEvent struct {
	TaskID   int64
	AgentID  int64
	Assigned int // size of the assigned set after the join
	Required int
	AtTick   int
}

func (e TaskAssignedEvent) EventType() string { return EventTypeTaskAssigned }
func (e TaskAssignedEvent) Tick() int         { return e.AtTick }

// TaskStartedEvent is published on the Idle to InProgress transition.
// Driver is the agent credited with the transition per the driver policy.
type TaskStartedEvent struct {
	TaskID   int64
	Driver   int64
	Assigned []int64
	AtTick   int
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) Tick() int         { return e.AtTick }

// TaskCompletedEvent is published on the InProgress to Completed transition.
type TaskCompletedEvent struct {
	TaskID   int64
	Driver   int64
	Assigned []int64
	AtTick   int
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) Tick() int         { return e.AtTick }

// TaskRemovedEvent is published when reconciliation removes a completed task.
type TaskRemovedEvent struct {
	TaskID int64
	AtTick int
}

func (e TaskRemovedEvent) EventType() string { return EventTypeTaskRemoved }
func (e TaskRemovedEvent) Tick() int         { return e.AtTick }

// AgentStateEvent is published whenever an agent changes state.
// States travel as strings so consumers need no core imports.
type AgentStateEvent struct {
	AgentID int64
	From    string
	To      string
	TaskID  int64 // 0 when the agent holds no task reference
	AtTick  int
}

func (e AgentStateEvent) EventType() string { return EventTypeAgentState }
func (e AgentStateEvent) Tick() int         { return e.AtTick }

// TickStatsEvent is published at the end of every tick with per-state counts.
type TickStatsEvent struct {
	AtTick         int
	Searching      int
	WaitingForHelp int
	Helping        int
	Working        int
	TasksIdle      int
	TasksActive    int
	TasksCompleted int // cumulative over the run
}

func (e TickStatsEvent) EventType() string { return EventTypeTickStats }
func (e TickStatsEvent) Tick() int         { return e.AtTick }
