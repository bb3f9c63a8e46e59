package sim

import (
	"math"
	"testing"
	"time"

	"github.com/kilianp07/solarbay/core/pv"
)

// idleSim returns a running simulator with no PV, no vehicles and no
// pre-charge target, so nothing moves unless a parameter update does it.
func idleSim(t *testing.T, startTime string) *Simulator {
	t.Helper()
	return newRunningSim(t, func(cfg *Config) {
		cfg.StartTime = startTime
		cfg.Battery.InitialSOC = 50
	}, pv.Constant(0))
}

func TestUpdateParametersBatterySOC(t *testing.T) {
	s := idleSim(t, "00:00:00")

	if err := s.UpdateParameters(map[string]float64{ParamBatterySOC: 80}); err != nil {
		t.Fatalf("update: %v", err)
	}
	res := mustTick(t, s)
	if res.BatterySOC != 80 {
		t.Fatalf("battery soc = %v, want 80", res.BatterySOC)
	}
}

func TestUpdateParametersUnknownKeyRejected(t *testing.T) {
	s := idleSim(t, "00:00:00")

	err := s.UpdateParameters(map[string]float64{
		ParamBatterySOC: 80,
		"bogus_knob":    1,
	})
	if err == nil {
		t.Fatalf("expected error for unknown parameter")
	}
	// The valid half of the rejected batch must not have landed.
	res := mustTick(t, s)
	if res.BatterySOC != 50 {
		t.Fatalf("battery soc = %v, want untouched 50", res.BatterySOC)
	}
}

func TestUpdateParametersAtomicRejection(t *testing.T) {
	s := idleSim(t, "12:00:00")

	err := s.UpdateParameters(map[string]float64{
		ParamPeakRate:   0.5,
		ParamBatterySOC: 150,
	})
	if err == nil {
		t.Fatalf("expected error for out-of-range battery soc")
	}
	res := mustTick(t, s)
	if res.Rate != 0.25 {
		t.Fatalf("peak rate = %v, want untouched 0.25", res.Rate)
	}
	if res.BatterySOC != 50 {
		t.Fatalf("battery soc = %v, want untouched 50", res.BatterySOC)
	}
}

func TestUpdateParametersPricing(t *testing.T) {
	s := idleSim(t, "12:00:00")

	if err := s.UpdateParameters(map[string]float64{
		ParamPeakRate:    0.5,
		ParamOffPeakRate: 0.2,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	res := mustTick(t, s)
	if res.Rate != 0.5 {
		t.Fatalf("peak rate = %v, want 0.5", res.Rate)
	}

	if err := s.UpdateParameters(map[string]float64{ParamPeakRate: -1}); err == nil {
		t.Fatalf("expected error for negative rate")
	}
}

func TestUpdateParametersPeakWindow(t *testing.T) {
	s := idleSim(t, "00:00:00")

	// Midnight is off-peak under the default window.
	res := mustTick(t, s)
	if res.Peak {
		t.Fatalf("expected off-peak before update")
	}

	if err := s.UpdateParameters(map[string]float64{
		ParamPeakStartHour: 0,
		ParamPeakEndHour:   24,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	res = mustTick(t, s)
	if !res.Peak {
		t.Fatalf("expected peak under all-day window")
	}

	if err := s.UpdateParameters(map[string]float64{
		ParamPeakStartHour: 22,
		ParamPeakEndHour:   6,
	}); err == nil {
		t.Fatalf("expected error for wrapping window")
	}
}

func TestUpdateParametersBayPlacement(t *testing.T) {
	s := idleSim(t, "00:00:00")

	if err := s.UpdateParameters(map[string]float64{
		BayOccupiedParam(2):   1,
		BayPercentageParam(2): 30,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	res := mustTick(t, s)
	if res.BaySOC[1] <= 30 {
		t.Fatalf("bay 2 soc = %v, want charging above 30", res.BaySOC[1])
	}
	if res.EVFlowKW <= 0 {
		t.Fatalf("ev flow = %v, want positive", res.EVFlowKW)
	}

	// Vacating drops the bay back out of the allocation.
	if err := s.UpdateParameters(map[string]float64{BayOccupiedParam(2): 0}); err != nil {
		t.Fatalf("update: %v", err)
	}
	res = mustTick(t, s)
	if res.BaySOC[1] != 0 || res.EVFlowKW != 0 {
		t.Fatalf("vacated bay still active: soc=%v ev=%v", res.BaySOC[1], res.EVFlowKW)
	}
}

func TestUpdateParametersBaySOCRange(t *testing.T) {
	s := idleSim(t, "00:00:00")
	if err := s.UpdateParameters(map[string]float64{BayPercentageParam(1): 130}); err == nil {
		t.Fatalf("expected error for soc 130")
	}
}

func TestUpdateParametersPVOverride(t *testing.T) {
	s := newRunningSim(t, nil, pv.Constant(2000))

	if err := s.UpdateParameters(map[string]float64{ParamPVOverride: 5}); err != nil {
		t.Fatalf("update: %v", err)
	}
	res := mustTick(t, s)
	if res.PVWatts != 5000 {
		t.Fatalf("pv = %v, want 5000 under override", res.PVWatts)
	}

	// A negative value clears the override and the source takes back over.
	if err := s.UpdateParameters(map[string]float64{ParamPVOverride: -1}); err != nil {
		t.Fatalf("update: %v", err)
	}
	res = mustTick(t, s)
	if res.PVWatts != 2000 {
		t.Fatalf("pv = %v, want 2000 from source", res.PVWatts)
	}
}

func TestUpdateParametersWhileStopped(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	cfg.Battery.InitialSOC = 50
	s, err := New(cfg, pv.Constant(0), nil)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	if err := s.UpdateParameters(map[string]float64{ParamBatterySOC: 70}); err != nil {
		t.Fatalf("update while stopped: %v", err)
	}
	if err := s.Start(time.Time{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	res := mustTick(t, s)
	if math.Abs(res.BatterySOC-70) > 1e-9 {
		t.Fatalf("battery soc = %v, want 70 carried into the run", res.BatterySOC)
	}
}

func TestBayParamParsing(t *testing.T) {
	cases := []struct {
		key   string
		n     int
		field string
		ok    bool
	}{
		{"bay1_occupied", 0, "occupied", true},
		{"bay4_percentage", 3, "percentage", true},
		{"bay0_occupied", 0, "", false},
		{"bay5_percentage", 0, "", false},
		{"bay1_voltage", 0, "", false},
		{"battery_soc", 0, "", false},
		{"bayX_occupied", 0, "", false},
	}
	for _, c := range cases {
		n, field, ok := bayParam(c.key)
		if ok != c.ok {
			t.Errorf("%s: ok = %v, want %v", c.key, ok, c.ok)
			continue
		}
		if ok && (n != c.n || field != c.field) {
			t.Errorf("%s: parsed (%d,%s), want (%d,%s)", c.key, n, field, c.n, c.field)
		}
	}
}
