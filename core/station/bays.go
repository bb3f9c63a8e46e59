package station

import (
	"fmt"

	"github.com/kilianp07/solarbay/core/model"
)

// CompletionThreshold is the SOC percentage at which a charging session is
// considered complete and the vehicle departs.
const CompletionThreshold = 99.9

// BayConfig holds the per-bay charger and nominal vehicle pack parameters.
// All four bays share one configuration; state is tracked independently.
type BayConfig struct {
	CapacityKWh float64 `json:"capacity_kwh"`
	MaxChargeKW float64 `json:"max_charge_kw"`
}

// SetDefaults applies a 40 kWh nominal pack on a 7.4 kW AC charger.
func (c *BayConfig) SetDefaults() {
	if c.CapacityKWh == 0 {
		c.CapacityKWh = 40
	}
	if c.MaxChargeKW == 0 {
		c.MaxChargeKW = 7.4
	}
}

// Validate rejects unusable bay parameters.
func (c BayConfig) Validate() error {
	if c.CapacityKWh <= 0 {
		return fmt.Errorf("bay: capacity_kwh must be positive")
	}
	if c.MaxChargeKW <= 0 {
		return fmt.Errorf("bay: max_charge_kw must be positive")
	}
	return nil
}

type bay struct {
	occupied bool
	soc      float64 // percent
	// release is set when the bay completed during the current step and
	// takes effect at the start of the next one.
	release bool
}

// BayBank owns the occupancy and state of charge of the four charging
// bays. A bay whose SOC reaches the completion threshold keeps reporting
// its final SOC for the completing step and is released on the next.
type BayBank struct {
	cfg  BayConfig
	bays [model.NumBays]bay
}

// NewBayBank creates an empty bank with all bays unoccupied.
func NewBayBank(cfg BayConfig) (*BayBank, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BayBank{cfg: cfg}, nil
}

// Config returns the shared bay parameters.
func (bb *BayBank) Config() BayConfig { return bb.cfg }

// Occupied reports whether bay i holds a vehicle.
func (bb *BayBank) Occupied(i int) bool { return bb.bays[i].occupied }

// SOC returns bay i's state of charge in percent. Unoccupied bays are 0.
func (bb *BayBank) SOC(i int) float64 { return bb.bays[i].soc }

// SOCs returns all bay SOCs in bay order.
func (bb *BayBank) SOCs() [model.NumBays]float64 {
	var out [model.NumBays]float64
	for i := range bb.bays {
		out[i] = bb.bays[i].soc
	}
	return out
}

// SetOccupied places or removes a vehicle. Placing resets any pending
// release; removing zeroes the SOC so an empty bay contributes no demand.
func (bb *BayBank) SetOccupied(i int, occupied bool, initialSOC float64) error {
	if i < 0 || i >= model.NumBays {
		return fmt.Errorf("bay index %d out of range [0,%d)", i, model.NumBays)
	}
	if initialSOC < 0 || initialSOC > 100 {
		return fmt.Errorf("bay %d: soc %.2f out of range [0,100]", i, initialSOC)
	}
	b := &bb.bays[i]
	b.occupied = occupied
	b.release = false
	if occupied {
		b.soc = initialSOC
	} else {
		b.soc = 0
	}
	return nil
}

// SetSOC overrides bay i's state of charge without touching occupancy.
func (bb *BayBank) SetSOC(i int, pct float64) error {
	if i < 0 || i >= model.NumBays {
		return fmt.Errorf("bay index %d out of range [0,%d)", i, model.NumBays)
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("bay %d: soc %.2f out of range [0,100]", i, pct)
	}
	bb.bays[i].soc = pct
	bb.bays[i].release = false
	return nil
}

// DemandKW returns bay i's charging demand for a step of the given length:
// the headroom-limited power up to the charger rate. Unoccupied or
// completed bays demand nothing.
func (bb *BayBank) DemandKW(i int, stepHours float64) float64 {
	b := bb.bays[i]
	if !b.occupied || stepHours <= 0 || b.soc >= CompletionThreshold {
		return 0
	}
	byCapacity := (100 - b.soc) / 100 * bb.cfg.CapacityKWh / stepHours
	if byCapacity < bb.cfg.MaxChargeKW {
		return byCapacity
	}
	return bb.cfg.MaxChargeKW
}

// ApplyFlow charges bay i with the given power for the step and returns
// the realized power after clamping the SOC to [0,100]. Same read-back
// contract as the battery: the returned value is what physically happened.
func (bb *BayBank) ApplyFlow(i int, kw, stepHours float64) float64 {
	b := &bb.bays[i]
	if !b.occupied || stepHours <= 0 {
		return 0
	}
	stored := b.soc / 100 * bb.cfg.CapacityKWh
	after := stored + kw*stepHours
	if after > bb.cfg.CapacityKWh {
		after = bb.cfg.CapacityKWh
	}
	if after < 0 {
		after = 0
	}
	actual := (after - stored) / stepHours
	b.soc = after / bb.cfg.CapacityKWh * 100
	return actual
}

// BeginStep applies releases deferred from the previous step: completed
// bays become unoccupied with SOC 0, modelling vehicle departure.
func (bb *BayBank) BeginStep() {
	for i := range bb.bays {
		if bb.bays[i].release {
			bb.bays[i] = bay{}
		}
	}
}

// FinishStep marks bays that reached the completion threshold during the
// step. The release is deferred so the completing step still reports the
// final SOC.
func (bb *BayBank) FinishStep() {
	for i := range bb.bays {
		if bb.bays[i].occupied && bb.bays[i].soc >= CompletionThreshold {
			bb.bays[i].release = true
		}
	}
}
