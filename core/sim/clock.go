package sim

import (
	"time"

	"github.com/kilianp07/solarbay/core/pricing"
)

// Clock tracks simulated time. It is owned exclusively by the Simulator;
// instants only move forward between Reset calls.
type Clock struct {
	current time.Time
	step    time.Duration
}

// NewClock creates a clock at start advancing by step per tick.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{current: start, step: step}
}

// Now returns the current simulated instant.
func (c *Clock) Now() time.Time { return c.current }

// Step returns the fixed step duration.
func (c *Clock) Step() time.Duration { return c.step }

// StepHours returns the step duration in hours.
func (c *Clock) StepHours() float64 { return c.step.Hours() }

// Advance moves the clock forward by one step and returns the new instant.
func (c *Clock) Advance() time.Time {
	c.current = c.current.Add(c.step)
	return c.current
}

// HourOfDay returns the local simulated hour, 0-23.
func (c *Clock) HourOfDay() int { return c.current.Hour() }

// IsPeak reports whether the current instant falls in the schedule's peak
// window.
func (c *Clock) IsPeak(s pricing.Schedule) bool {
	return s.IsPeak(c.HourOfDay())
}

// Reset reinitializes the clock to a new start instant.
func (c *Clock) Reset(start time.Time) { c.current = start }
