package sim

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	if cfg.StepMinutes != 60 {
		t.Fatalf("step_minutes = %d, want 60", cfg.StepMinutes)
	}
	if cfg.StartDate != "2020-01-01" || cfg.StartTime != "00:00:00" {
		t.Fatalf("unexpected default start: %s %s", cfg.StartDate, cfg.StartTime)
	}
	if cfg.SpeedMultiplier != 1 {
		t.Fatalf("speed = %v, want 1", cfg.SpeedMultiplier)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestConfigStartInstant(t *testing.T) {
	cfg := Config{StartDate: "2020-06-15", StartTime: "08:30:00"}
	got, err := cfg.StartInstant()
	if err != nil {
		t.Fatalf("start instant: %v", err)
	}
	want := time.Date(2020, time.June, 15, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("start = %v, want %v", got, want)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	base := func() Config {
		var cfg Config
		cfg.SetDefaults()
		return cfg
	}

	cfg := base()
	cfg.StepMinutes = -5
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for negative step")
	}

	cfg = base()
	cfg.StartDate = "15/06/2020"
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for malformed start date")
	}

	cfg = base()
	cfg.SpeedMultiplier = -1
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for negative speed")
	}

	cfg = base()
	cfg.Battery.CapacityKWh = -10
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for invalid battery section")
	}

	cfg = base()
	cfg.Pricing.PeakEndHour = cfg.Pricing.PeakStartHour
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for invalid pricing section")
	}
}

func TestConfigStepDuration(t *testing.T) {
	cfg := Config{StepMinutes: 15}
	if got := cfg.StepDuration(); got != 15*time.Minute {
		t.Fatalf("step duration = %v, want 15m", got)
	}
}
