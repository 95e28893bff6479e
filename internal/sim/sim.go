package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/aristath/swarmsim/internal/agent"
	"github.com/aristath/swarmsim/internal/config"
	"github.com/aristath/swarmsim/internal/events"
	"github.com/aristath/swarmsim/internal/space"
	"github.com/aristath/swarmsim/internal/task"
)

// Snapshot is a read-only view of per-state populations at the end of a
// tick. Consumed by observability; nothing feeds back into the core.
type Snapshot struct {
	Tick           int
	Searching      int
	WaitingForHelp int
	Helping        int
	Working        int
	TasksIdle      int
	TasksActive    int
	TasksCompleted int // cumulative over the run
}

// Sim is the step driver: it owns the world and advances it one discrete
// tick at a time. All concurrency in the model is logical; within a tick
// the manager and every agent act strictly in sequence, so later
// activations see the mutations of earlier ones.
type Sim struct {
	cfg      *config.Config
	rng      *rand.Rand
	index    *space.Index
	registry *task.Registry
	manager  *task.Manager
	roster   *agent.Roster
	env      *agent.Env
	rec      *recorder

	tick     int
	mu       sync.RWMutex
	snapshot Snapshot
}

// New builds a simulation from the configuration. The task population is
// provisioned immediately: with T configured, exactly T idle tasks exist
// before the first tick runs. Configuration errors are fatal here.
func New(cfg *config.Config, bus *events.Bus) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	bounds := space.Bounds{Width: cfg.Environment.Width, Height: cfg.Environment.Height}

	cellSize := cfg.Environment.CellSize
	if cellSize == 0 {
		cellSize = cfg.Agents.CommRange.Max
	}
	index := space.NewIndex(bounds, cellSize)
	registry := task.NewRegistry()
	rec := &recorder{bus: bus}

	placement, err := task.NewPlacement(cfg.Tasks.Placement, cfg.Tasks.MinSeparation)
	if err != nil {
		return nil, err
	}

	manager, err := task.NewManager(task.ManagerConfig{
		Target:    cfg.Tasks.Target,
		Required:  task.IntRange{Min: cfg.Tasks.Required.Min, Max: cfg.Tasks.Required.Max},
		Work:      task.FloatRange{Min: cfg.Tasks.Work.Min, Max: cfg.Tasks.Work.Max},
		Placement: placement,
	}, registry, index, rec, rng)
	if err != nil {
		return nil, err
	}

	driver, err := agent.NewDriverPolicy(cfg.Policies.Driver)
	if err != nil {
		return nil, err
	}
	join, err := agent.NewJoinPolicy(cfg.Policies.Join)
	if err != nil {
		return nil, err
	}

	roster := agent.NewRoster()
	for i := 0; i < cfg.Agents.Count; i++ {
		protocol, err := agent.NewProtocol(cfg.Agents.Protocol)
		if err != nil {
			return nil, err
		}

		a := &agent.Agent{
			ID: int64(i + 1),
			Pos: space.Point{
				X: rng.Float64() * bounds.Width,
				Y: rng.Float64() * bounds.Height,
			},
			Speed:     sampleFloat(rng, cfg.Agents.Speed),
			CommRange: sampleFloat(rng, cfg.Agents.CommRange),
			WorkRate:  cfg.Agents.WorkRate,
			Protocol:  protocol,
			State:     agent.StateSearching,
			TaskID:    agent.NoTask,
		}
		if err := index.Add(space.KindAgent, a.ID, a.Pos); err != nil {
			return nil, fmt.Errorf("placing agent %d: %w", a.ID, err)
		}
		if err := roster.Add(a); err != nil {
			return nil, err
		}
	}

	s := &Sim{
		cfg:      cfg,
		rng:      rng,
		index:    index,
		registry: registry,
		manager:  manager,
		roster:   roster,
		rec:      rec,
		env: &agent.Env{
			Space:         index,
			Tasks:         registry,
			Roster:        roster,
			Sink:          rec,
			RNG:           rng,
			Driver:        driver,
			Join:          join,
			ArrivalRadius: cfg.Policies.ArrivalRadius,
		},
	}

	// Initial provisioning: tick 0 is "zero ticks elapsed".
	if err := manager.Reconcile(0); err != nil {
		return nil, err
	}
	s.publishStats()

	return s, nil
}

// Tick advances the simulation one tick: the manager reconciles first, then
// every agent acts once in ascending id order. Errors are invariant
// violations and leave the simulation unusable.
func (s *Sim) Tick() error {
	s.tick++
	s.env.Tick = s.tick

	if err := s.manager.Reconcile(s.tick); err != nil {
		return fmt.Errorf("tick %d reconcile: %w", s.tick, err)
	}

	for _, a := range s.roster.All() {
		if err := a.Step(s.env); err != nil {
			return fmt.Errorf("tick %d agent %d: %w", s.tick, a.ID, err)
		}
	}

	s.publishStats()
	return nil
}

// Run advances the simulation the configured number of ticks, or until the
// context is cancelled.
func (s *Sim) Run(ctx context.Context) error {
	return s.RunTicks(ctx, s.cfg.Ticks)
}

// RunTicks advances the simulation exactly n ticks, or until the context is
// cancelled.
func (s *Sim) RunTicks(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the populations recorded at the end of the last tick.
// Safe to call from other goroutines.
func (s *Sim) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Journal returns a copy of every event published so far, in order. Given
// a fixed seed and configuration, two runs produce identical journals.
func (s *Sim) Journal() []events.Event {
	return s.rec.journal()
}

// Completed returns the cumulative number of completed tasks.
func (s *Sim) Completed() int {
	return s.rec.completedCount()
}

// Tasks returns a copy of the current live task set.
func (s *Sim) Tasks() []*task.Task {
	return s.registry.All()
}

// publishStats computes the end-of-tick snapshot and emits it.
func (s *Sim) publishStats() {
	snap := Snapshot{
		Tick:           s.tick,
		Searching:      s.roster.CountByState(agent.StateSearching),
		WaitingForHelp: s.roster.CountByState(agent.StateWaitingForHelp),
		Helping:        s.roster.CountByState(agent.StateHelping),
		Working:        s.roster.CountByState(agent.StateWorking),
		TasksIdle:      s.registry.CountByStatus(task.StatusIdle),
		TasksActive:    s.registry.CountByStatus(task.StatusInProgress),
		TasksCompleted: s.rec.completedCount(),
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.rec.Publish(events.TopicSim, events.TickStatsEvent{
		AtTick:         snap.Tick,
		Searching:      snap.Searching,
		WaitingForHelp: snap.WaitingForHelp,
		Helping:        snap.Helping,
		Working:        snap.Working,
		TasksIdle:      snap.TasksIdle,
		TasksActive:    snap.TasksActive,
		TasksCompleted: snap.TasksCompleted,
	})
}

func sampleFloat(rng *rand.Rand, r config.FloatRange) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// recorder journals every event in publish order and forwards to the bus.
// The journal is the authoritative transition sequence; bus delivery is
// best-effort for live observers.
type recorder struct {
	bus       *events.Bus
	mu        sync.Mutex
	evs       []events.Event
	completed int
}

func (r *recorder) Publish(topic string, ev events.Event) {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	if ev.EventType() == events.EventTypeTaskCompleted {
		r.completed++
	}
	r.mu.Unlock()

	if r.bus != nil {
		r.bus.Publish(topic, ev)
	}
}

func (r *recorder) journal() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.evs...)
}

func (r *recorder) completedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}
