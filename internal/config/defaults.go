package config

// DefaultConfig returns the default simulation configuration: ten agents
// random-walking a 1000x1000 environment with five live tasks.
func DefaultConfig() *Config {
	return &Config{
		Seed:  1234,
		Ticks: 2000,
		Environment: EnvironmentConfig{
			Width:  1000,
			Height: 1000,
		},
		Agents: AgentsConfig{
			Count:     10,
			Speed:     FloatRange{Min: 5, Max: 5},
			CommRange: FloatRange{Min: 200, Max: 200},
			WorkRate:  1,
			Protocol:  "random-walk",
		},
		Tasks: TasksConfig{
			Target:    5,
			Required:  IntRange{Min: 1, Max: 3},
			Work:      FloatRange{Min: 10, Max: 30},
			Placement: "uniform",
		},
		Policies: PoliciesConfig{
			Driver:        "lowest-id",
			Join:          "join-if-work-remains",
			ArrivalRadius: 0.5,
		},
	}
}
