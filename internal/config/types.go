package config

// IntRange is an inclusive integer range sampled per task.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FloatRange is an inclusive float range sampled per agent or task.
type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// EnvironmentConfig describes the simulated space.
type EnvironmentConfig struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	CellSize float64 `json:"cell_size,omitempty"` // Spatial index granularity; defaults to the max comm range
}

// AgentsConfig describes the agent population. Speed and communication
// range are distributions: each agent samples its own values at creation.
type AgentsConfig struct {
	Count     int        `json:"count"`
	Speed     FloatRange `json:"speed"`
	CommRange FloatRange `json:"comm_range"`
	WorkRate  float64    `json:"work_rate"`
	Protocol  string     `json:"protocol"` // "random-walk" or "greedy-nearest"
}

// TasksConfig describes the task population the manager maintains.
type TasksConfig struct {
	Target        int        `json:"target"`    // T: constant live task count
	Required      IntRange   `json:"required"`  // Helper count per spawned task
	Work          FloatRange `json:"work"`      // Work amount per spawned task
	Placement     string     `json:"placement"` // "uniform" or "spaced"
	MinSeparation float64    `json:"min_separation,omitempty"`
}

// PoliciesConfig names the coordination tie-break policies. These resolve
// behaviors the protocol leaves open: who is credited with a shared
// transition, and whether late helpers may still join.
type PoliciesConfig struct {
	Driver        string  `json:"driver"` // "lowest-id" or "acting-agent"
	Join          string  `json:"join"`   // "join-if-work-remains" or "never-join-late"
	ArrivalRadius float64 `json:"arrival_radius"`
}

// Config is the top-level simulation configuration.
type Config struct {
	Seed        int64             `json:"seed"`
	Ticks       int               `json:"ticks"`
	Environment EnvironmentConfig `json:"environment"`
	Agents      AgentsConfig      `json:"agents"`
	Tasks       TasksConfig       `json:"tasks"`
	Policies    PoliciesConfig    `json:"policies"`
}
