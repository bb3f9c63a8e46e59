package station

import "fmt"

// BatteryConfig holds the fixed parameters of the stationary battery.
type BatteryConfig struct {
	CapacityKWh    float64 `json:"capacity_kwh"`
	MaxChargeKW    float64 `json:"max_charge_kw"`
	MaxDischargeKW float64 `json:"max_discharge_kw"`

	// InitialSOC is the state of charge in percent applied on start.
	InitialSOC float64 `json:"initial_soc"`

	// ChargeTargetSOC, when above the current SOC, lets the allocator pull
	// grid power to pre-charge the battery. Zero disables the objective.
	ChargeTargetSOC float64 `json:"charge_target_soc"`
}

// SetDefaults applies the default station battery: 100 kWh, 30 kW both ways.
func (c *BatteryConfig) SetDefaults() {
	if c.CapacityKWh == 0 {
		c.CapacityKWh = 100
	}
	if c.MaxChargeKW == 0 {
		c.MaxChargeKW = 30
	}
	if c.MaxDischargeKW == 0 {
		c.MaxDischargeKW = 30
	}
}

// Validate rejects unusable battery parameters.
func (c BatteryConfig) Validate() error {
	if c.CapacityKWh <= 0 {
		return fmt.Errorf("battery: capacity_kwh must be positive")
	}
	if c.MaxChargeKW <= 0 || c.MaxDischargeKW <= 0 {
		return fmt.Errorf("battery: charge/discharge limits must be positive")
	}
	if c.InitialSOC < 0 || c.InitialSOC > 100 {
		return fmt.Errorf("battery: initial_soc %.2f out of range [0,100]", c.InitialSOC)
	}
	if c.ChargeTargetSOC < 0 || c.ChargeTargetSOC > 100 {
		return fmt.Errorf("battery: charge_target_soc %.2f out of range [0,100]", c.ChargeTargetSOC)
	}
	return nil
}

// Battery owns the stationary battery state of charge. All SOC mutation
// goes through ApplyFlow or SetSOC so the [0,100] bound always holds.
type Battery struct {
	cfg BatteryConfig
	soc float64 // percent
}

// NewBattery creates a battery at the configured initial SOC.
func NewBattery(cfg BatteryConfig) (*Battery, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Battery{cfg: cfg, soc: cfg.InitialSOC}, nil
}

// SOC returns the state of charge in percent.
func (b *Battery) SOC() float64 { return b.soc }

// Config returns the fixed battery parameters.
func (b *Battery) Config() BatteryConfig { return b.cfg }

// SetSOC overrides the state of charge, rejecting out-of-range values.
func (b *Battery) SetSOC(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("battery: soc %.2f out of range [0,100]", pct)
	}
	b.soc = pct
	return nil
}

// ApplyFlow applies a net charging power (positive = charging) for the
// given step duration and returns the power that was actually realized.
// The requested energy delta is clamped to the capacity bounds; the
// clamped value is the authoritative flow for the step, so callers must
// report the returned power rather than the requested one.
func (b *Battery) ApplyFlow(netKW, stepHours float64) float64 {
	if stepHours <= 0 {
		return 0
	}
	stored := b.soc / 100 * b.cfg.CapacityKWh
	after := stored + netKW*stepHours
	if after > b.cfg.CapacityKWh {
		after = b.cfg.CapacityKWh
	}
	if after < 0 {
		after = 0
	}
	actual := (after - stored) / stepHours
	b.soc = after / b.cfg.CapacityKWh * 100
	return actual
}

// ChargeHeadroomKW returns the maximum charging power sustainable for the
// step without breaching the rate limit or 100% SOC.
func (b *Battery) ChargeHeadroomKW(stepHours float64) float64 {
	if stepHours <= 0 || b.soc >= 100 {
		return 0
	}
	byCapacity := (100 - b.soc) / 100 * b.cfg.CapacityKWh / stepHours
	if byCapacity < b.cfg.MaxChargeKW {
		return byCapacity
	}
	return b.cfg.MaxChargeKW
}

// DischargeAvailableKW returns the maximum discharge power sustainable for
// the step without breaching the rate limit or 0% SOC.
func (b *Battery) DischargeAvailableKW(stepHours float64) float64 {
	if stepHours <= 0 || b.soc <= 0 {
		return 0
	}
	byCapacity := b.soc / 100 * b.cfg.CapacityKWh / stepHours
	if byCapacity < b.cfg.MaxDischargeKW {
		return byCapacity
	}
	return b.cfg.MaxDischargeKW
}
