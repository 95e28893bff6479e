package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps every validation failure so callers can treat any
// configuration error as fatal at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration for errors that would make the run
// meaningless or non-terminating. Any failure is fatal: the simulation
// refuses to start rather than run with a broken invariant.
//
// Variant names (protocol, placement, policies) are checked where the
// variants are constructed; this covers the numeric surface.
func (c *Config) Validate() error {
	if c.Ticks < 0 {
		return invalid("ticks must be >= 0, got %d", c.Ticks)
	}

	if c.Environment.Width <= 0 || c.Environment.Height <= 0 {
		return invalid("environment bounds must be positive, got %gx%g",
			c.Environment.Width, c.Environment.Height)
	}
	if c.Environment.CellSize < 0 {
		return invalid("cell size must be >= 0, got %g", c.Environment.CellSize)
	}

	if c.Agents.Count < 1 {
		return invalid("agent count must be >= 1, got %d", c.Agents.Count)
	}
	if c.Agents.Speed.Min <= 0 || c.Agents.Speed.Max < c.Agents.Speed.Min {
		return invalid("agent speed range [%g,%g] must be positive and ordered",
			c.Agents.Speed.Min, c.Agents.Speed.Max)
	}
	if c.Agents.CommRange.Min <= 0 || c.Agents.CommRange.Max < c.Agents.CommRange.Min {
		return invalid("communication range [%g,%g] must be positive and ordered",
			c.Agents.CommRange.Min, c.Agents.CommRange.Max)
	}
	if c.Agents.WorkRate <= 0 {
		return invalid("work rate must be > 0, got %g", c.Agents.WorkRate)
	}

	if c.Tasks.Target < 1 {
		return invalid("target task count must be >= 1, got %d", c.Tasks.Target)
	}
	if c.Tasks.Required.Min < 1 || c.Tasks.Required.Max < c.Tasks.Required.Min {
		return invalid("required helper range [%d,%d] must be >= 1 and ordered",
			c.Tasks.Required.Min, c.Tasks.Required.Max)
	}
	if c.Tasks.Work.Min <= 0 || c.Tasks.Work.Max < c.Tasks.Work.Min {
		return invalid("task work range [%g,%g] must be positive and ordered",
			c.Tasks.Work.Min, c.Tasks.Work.Max)
	}
	if c.Tasks.MinSeparation < 0 {
		return invalid("min separation must be >= 0, got %g", c.Tasks.MinSeparation)
	}

	// A task can require more helpers than exist; it would sit idle
	// forever and pin the whole population.
	if c.Agents.Count < c.Tasks.Required.Max {
		return invalid("agent count %d is below the maximum required helper count %d",
			c.Agents.Count, c.Tasks.Required.Max)
	}

	if c.Policies.ArrivalRadius <= 0 {
		return invalid("arrival radius must be > 0, got %g", c.Policies.ArrivalRadius)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
