package task

import (
	"fmt"
	"math/rand"

	"github.com/aristath/swarmsim/internal/events"
	"github.com/aristath/swarmsim/internal/space"
)

// IntRange is an inclusive integer range sampled per spawned task.
type IntRange struct {
	Min int
	Max int
}

// Sample draws a value from the range using the given source.
func (r IntRange) Sample(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// FloatRange is an inclusive float range sampled per spawned task.
type FloatRange struct {
	Min float64
	Max float64
}

// Sample draws a value from the range using the given source.
func (r FloatRange) Sample(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// ManagerConfig configures the task manager.
type ManagerConfig struct {
	Target    int        // T: live task population to maintain
	Required  IntRange   // Helper count per spawned task
	Work      FloatRange // Work amount per spawned task
	Placement Placement
}

// Manager maintains a constant population of live tasks. All task creation
// and removal is centralized in Reconcile so population decisions stay
// auditable in one place per tick.
type Manager struct {
	cfg      ManagerConfig
	registry *Registry
	index    *space.Index
	sink     events.Emitter
	rng      *rand.Rand
	nextID   int64
}

// NewManager creates a task manager over the given registry and index.
// A nil sink disables event publishing; callers holding a possibly-nil
// concrete emitter must convert it to a nil interface rather than pass
// the typed nil through.
func NewManager(cfg ManagerConfig, registry *Registry, index *space.Index, sink events.Emitter, rng *rand.Rand) (*Manager, error) {
	if cfg.Target < 1 {
		return nil, fmt.Errorf("target task count must be >= 1, got %d", cfg.Target)
	}
	if cfg.Required.Min < 1 {
		return nil, fmt.Errorf("required helper count must be >= 1, got %d", cfg.Required.Min)
	}
	if cfg.Work.Min <= 0 {
		return nil, fmt.Errorf("task work amount must be > 0, got %f", cfg.Work.Min)
	}
	if cfg.Placement == nil {
		cfg.Placement = UniformPlacement{}
	}

	return &Manager{
		cfg:      cfg,
		registry: registry,
		index:    index,
		sink:     sink,
		rng:      rng,
		nextID:   1,
	}, nil
}

// Reconcile removes every Completed task from the live set, then spawns
// exactly enough Idle tasks to restore the target population. Called once
// per tick before any agent acts. Idempotent when no agent acted in
// between: a second call finds no completed tasks and no deficit.
func (m *Manager) Reconcile(tick int) error {
	for _, t := range m.registry.All() {
		if t.Status != StatusCompleted {
			continue
		}
		if err := m.registry.Remove(t.ID); err != nil {
			return fmt.Errorf("removing completed task %d: %w", t.ID, err)
		}
		if err := m.index.Remove(space.KindTask, t.ID); err != nil {
			return fmt.Errorf("deregistering task %d: %w", t.ID, err)
		}
		m.publish(events.TaskRemovedEvent{TaskID: t.ID, AtTick: tick})
	}

	deficit := m.cfg.Target - m.registry.Len()
	for i := 0; i < deficit; i++ {
		if err := m.spawn(tick); err != nil {
			return err
		}
	}
	return nil
}

// Live returns the number of non-Completed tasks in the live set.
func (m *Manager) Live() int {
	return m.registry.Len() - m.registry.CountByStatus(StatusCompleted)
}

func (m *Manager) spawn(tick int) error {
	pos := m.cfg.Placement.Place(m.rng, m.index.Bounds(), m.registry.All())
	pos = m.index.Bounds().Clamp(pos)

	t := &Task{
		ID:            m.nextID,
		Pos:           pos,
		Required:      m.cfg.Required.Sample(m.rng),
		WorkRemaining: m.cfg.Work.Sample(m.rng),
		Status:        StatusIdle,
	}
	m.nextID++

	if err := m.registry.Add(t); err != nil {
		return fmt.Errorf("spawning task %d: %w", t.ID, err)
	}
	if err := m.index.Add(space.KindTask, t.ID, t.Pos); err != nil {
		return fmt.Errorf("registering task %d: %w", t.ID, err)
	}

	m.publish(events.TaskSpawnedEvent{
		TaskID:   t.ID,
		X:        t.Pos.X,
		Y:        t.Pos.Y,
		Required: t.Required,
		Work:     t.WorkRemaining,
		AtTick:   tick,
	})
	return nil
}

func (m *Manager) publish(ev events.Event) {
	if m.sink != nil {
		m.sink.Publish(events.TopicTask, ev)
	}
}
