package sim

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/solarbay/core/allocator"
	"github.com/kilianp07/solarbay/core/logger"
	"github.com/kilianp07/solarbay/core/model"
	"github.com/kilianp07/solarbay/core/pricing"
	"github.com/kilianp07/solarbay/core/pv"
	"github.com/kilianp07/solarbay/core/station"
)

// State is the orchestrator lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "stopped"
}

var (
	// ErrNotRunning is returned by Tick and Stop while stopped.
	ErrNotRunning = errors.New("simulation is not running")
	// ErrAlreadyRunning is returned by Start while running.
	ErrAlreadyRunning = errors.New("simulation is already running")
)

// flowEpsilon absorbs float drift when comparing requested and realized
// power; anything below it is not a real clamp.
const flowEpsilon = 1e-9

// Simulator drives one simulation tick end to end: clock, PV lookup,
// allocation, battery and bay state updates, pricing, and the emitted
// StepResult. All entry points serialize on one mutex, so a parameter
// update is always observed whole by the next tick.
type Simulator struct {
	mu sync.Mutex

	cfg      Config
	state    State
	runID    string
	step     int
	speed    float64
	override float64 // PV override in kW, negative = disabled

	clock    *Clock
	battery  *station.Battery
	bays     *station.BayBank
	ledger   *pricing.Ledger
	schedule pricing.Schedule
	source   pv.Source

	log logger.Logger
}

// New validates the configuration and creates a stopped simulator reading
// PV power from source.
func New(cfg Config, source pv.Source, log logger.Logger) (*Simulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		source = pv.Constant(0)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	start, err := cfg.StartInstant()
	if err != nil {
		return nil, err
	}
	batt, err := station.NewBattery(cfg.Battery)
	if err != nil {
		return nil, err
	}
	bays, err := station.NewBayBank(cfg.Bay)
	if err != nil {
		return nil, err
	}
	return &Simulator{
		cfg:      cfg,
		speed:    cfg.SpeedMultiplier,
		override: -1,
		schedule: cfg.Pricing,
		source:   source,
		battery:  batt,
		bays:     bays,
		ledger:   pricing.NewLedger(),
		clock:    NewClock(start, cfg.StepDuration()),
		log:      log,
	}, nil
}

// Start transitions Stopped->Running, reinitializing battery, bays, cost
// ledger and clock from the configuration. A zero start instant uses the
// configured start date and time.
func (s *Simulator) Start(start time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return ErrAlreadyRunning
	}
	if start.IsZero() {
		var err error
		if start, err = s.cfg.StartInstant(); err != nil {
			return err
		}
	}
	batt, err := station.NewBattery(s.cfg.Battery)
	if err != nil {
		return err
	}
	bays, err := station.NewBayBank(s.cfg.Bay)
	if err != nil {
		return err
	}
	s.battery = batt
	s.bays = bays
	s.ledger = pricing.NewLedger()
	s.schedule = s.cfg.Pricing
	s.clock = NewClock(start, s.cfg.StepDuration())
	s.runID = uuid.NewString()
	s.step = 0
	s.state = StateRunning
	s.log.Infof("simulation %s started at %s (step %s)", s.runID, start.Format(time.RFC3339), s.cfg.StepDuration())
	return nil
}

// Stop freezes the simulation. State is retained for inspection until the
// next Start.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return ErrNotRunning
	}
	s.state = StateStopped
	s.log.Infof("simulation %s stopped after %d steps", s.runID, s.step)
	return nil
}

// State returns the lifecycle state.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunID returns the identifier of the current or last run.
func (s *Simulator) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// StepDuration returns the simulated step length.
func (s *Simulator) StepDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.StepDuration()
}

// SetSpeed changes the playback speed multiplier. It never affects the
// physics, only the harness pacing read through Speed.
func (s *Simulator) SetSpeed(multiplier float64) error {
	if multiplier <= 0 {
		return fmt.Errorf("sim: speed multiplier must be positive")
	}
	s.mu.Lock()
	s.speed = multiplier
	s.mu.Unlock()
	return nil
}

// Speed returns the playback speed multiplier.
func (s *Simulator) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// ResetCost zeroes the cumulative cost ledger.
func (s *Simulator) ResetCost() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger != nil {
		s.ledger.Reset()
	}
}

// Tick executes one full allocation cycle and advances the clock. It is
// an error while stopped.
func (s *Simulator) Tick() (model.StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return model.StepResult{}, ErrNotRunning
	}

	// Releases deferred from the previous step take effect first, so a
	// completed bay reports its final SOC exactly once.
	s.bays.BeginStep()

	now := s.clock.Now()
	hours := s.clock.StepHours()
	peak := s.clock.IsPeak(s.schedule)

	pvWatts := s.pvWatts(now)

	in := allocator.Input{
		PVKw:      pvWatts / 1000,
		StepHours: hours,
		Battery: allocator.BatteryInput{
			SOCPercent:           s.battery.SOC(),
			ChargeHeadroomKW:     s.battery.ChargeHeadroomKW(hours),
			DischargeAvailableKW: s.battery.DischargeAvailableKW(hours),
			TargetSOCPercent:     s.cfg.Battery.ChargeTargetSOC,
			CapacityKWh:          s.cfg.Battery.CapacityKWh,
		},
	}
	for i := 0; i < model.NumBays; i++ {
		in.BayDemandKW[i] = s.bays.DemandKW(i, hours)
	}

	flows := allocator.Allocate(in)
	batteryFlow := s.apply(&flows, hours)

	stepCost := s.ledger.PriceStep(flows.GridRequest, hours, s.schedule, peak)

	res := model.StepResult{
		RunID:          s.runID,
		Step:           s.step,
		Time:           now,
		Date:           now.Format("2006-01-02"),
		TimeOfDay:      now.Format("15:04:05"),
		PVWatts:        pvWatts,
		BatterySOC:     s.battery.SOC(),
		BatteryFlowKW:  batteryFlow,
		BaySOC:         s.bays.SOCs(),
		EVFlowKW:       flows.EVTotal(),
		GridFlowKW:     flows.GridRequest,
		Flows:          flows,
		Peak:           peak,
		PeakLabel:      peakLabel(peak),
		Rate:           s.schedule.RateFor(peak),
		StepCost:       stepCost,
		CumulativeCost: s.ledger.Cumulative(),
	}

	s.bays.FinishStep()
	s.clock.Advance()
	s.step++
	return res, nil
}

// pvWatts resolves the PV output for the instant, honoring a manual
// override when one is set.
func (s *Simulator) pvWatts(now time.Time) float64 {
	if s.override >= 0 {
		return s.override * 1000
	}
	w := s.source.PowerAt(now)
	if w < 0 {
		return 0
	}
	return w
}

// apply writes the allocated flows into the bay and battery managers and
// reconciles the flow tuple against the realized (clamped) values, so the
// emitted record only contains physically realizable power. Returns the
// realized net battery flow.
func (s *Simulator) apply(f *model.Flows, hours float64) float64 {
	for i := 0; i < model.NumBays; i++ {
		requested := f.BayEV[i]
		actual := s.bays.ApplyFlow(i, requested, hours)
		if short := requested - actual; short > flowEpsilon {
			f.BayEV[i] = actual
			s.shedEVFlow(f, short)
		}
	}

	requestedNet := f.BatteryNet()
	actualNet := s.battery.ApplyFlow(requestedNet, hours)
	if diff := requestedNet - actualNet; diff > flowEpsilon {
		// Charge clamped at 100%: drop grid charging first, surplus solar
		// becomes export.
		fromGrid := math.Min(diff, f.GridToBattery)
		f.GridToBattery -= fromGrid
		if rest := diff - fromGrid; rest > flowEpsilon {
			f.SolarToBattery -= rest
			f.SolarToGridExport += rest
		}
	} else if diff < -flowEpsilon {
		// Discharge clamped at 0%: the grid backstop covers what the
		// battery could not deliver.
		short := math.Min(-diff, f.BatteryToEV)
		f.BatteryToEV -= short
		f.GridToEV += short
	}

	f.GridRequest = f.GridToEV + f.GridToBattery - f.SolarToGridExport - f.BatteryToGridExport
	return actualNet
}

// shedEVFlow removes power that a clamped bay did not absorb, unwinding
// the supply priority in reverse: grid first, then battery, then solar
// (which turns into export).
func (s *Simulator) shedEVFlow(f *model.Flows, short float64) {
	fromGrid := math.Min(short, f.GridToEV)
	f.GridToEV -= fromGrid
	short -= fromGrid
	if short > flowEpsilon {
		fromBattery := math.Min(short, f.BatteryToEV)
		f.BatteryToEV -= fromBattery
		short -= fromBattery
	}
	if short > flowEpsilon {
		f.SolarToEV -= short
		f.SolarToGridExport += short
	}
}

func peakLabel(peak bool) string {
	if peak {
		return "Peak"
	}
	return "Off-Peak"
}
