package sim

import (
	"fmt"
	"time"

	"github.com/kilianp07/solarbay/core/pricing"
	"github.com/kilianp07/solarbay/core/station"
)

// Config defines a simulation run. Battery, bay and pricing sections carry
// their own defaults and validation.
type Config struct {
	// StepMinutes is the simulated step length. Physics use this value;
	// SpeedMultiplier only paces playback.
	StepMinutes int `json:"step_minutes"`

	// StartDate/StartTime define the initial simulated instant.
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`

	SpeedMultiplier float64 `json:"speed_multiplier"`

	Battery station.BatteryConfig `json:"battery"`
	Bay     station.BayConfig     `json:"bay"`
	Pricing pricing.Schedule      `json:"pricing"`
}

// SetDefaults fills in the default hourly run starting January 1st 2020.
func (c *Config) SetDefaults() {
	if c.StepMinutes == 0 {
		c.StepMinutes = 60
	}
	if c.StartDate == "" {
		c.StartDate = "2020-01-01"
	}
	if c.StartTime == "" {
		c.StartTime = "00:00:00"
	}
	if c.SpeedMultiplier == 0 {
		c.SpeedMultiplier = 1
	}
	c.Battery.SetDefaults()
	c.Bay.SetDefaults()
	c.Pricing.SetDefaults()
}

// Validate checks the run parameters and every sub-section.
func (c Config) Validate() error {
	if c.StepMinutes <= 0 {
		return fmt.Errorf("sim: step_minutes must be positive")
	}
	if c.SpeedMultiplier <= 0 {
		return fmt.Errorf("sim: speed_multiplier must be positive")
	}
	if _, err := c.StartInstant(); err != nil {
		return err
	}
	if err := c.Battery.Validate(); err != nil {
		return err
	}
	if err := c.Bay.Validate(); err != nil {
		return err
	}
	return c.Pricing.Validate()
}

// StepDuration returns the simulated step length.
func (c Config) StepDuration() time.Duration {
	return time.Duration(c.StepMinutes) * time.Minute
}

// StartInstant parses the configured start date and time.
func (c Config) StartInstant() (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", c.StartDate+" "+c.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("sim: invalid start date/time: %w", err)
	}
	return t, nil
}
