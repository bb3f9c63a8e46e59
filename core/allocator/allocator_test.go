package allocator

import (
	"math"
	"testing"

	"github.com/kilianp07/solarbay/core/model"
)

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// checkIdentities verifies the conservation identities every flow tuple
// must satisfy: solar splits exactly into its three sinks, each bay's
// inflow is the sum of its three sources, and the grid request matches the
// signed import/export balance.
func checkIdentities(t *testing.T, in Input, f model.Flows) {
	t.Helper()
	pv := math.Max(in.PVKw, 0)
	approx(t, "solar balance", f.SolarToBattery+f.SolarToEV+f.SolarToGridExport, pv)

	var bayTotal float64
	for _, kw := range f.BayEV {
		bayTotal += kw
	}
	approx(t, "bay inflow balance", bayTotal, f.SolarToEV+f.BatteryToEV+f.GridToEV)
	approx(t, "grid request", f.GridRequest,
		f.GridToEV+f.GridToBattery-f.SolarToGridExport-f.BatteryToGridExport)
}

func TestAllocateSolarSurplus(t *testing.T) {
	in := Input{
		PVKw:      10,
		StepHours: 1,
		Battery: BatteryInput{
			SOCPercent:           50,
			ChargeHeadroomKW:     5,
			DischargeAvailableKW: 30,
			CapacityKWh:          100,
		},
		BayDemandKW: [model.NumBays]float64{2, 0, 0, 0},
	}
	f := Allocate(in)

	approx(t, "solar_to_battery", f.SolarToBattery, 5)
	approx(t, "solar_to_ev", f.SolarToEV, 2)
	approx(t, "solar_to_grid_export", f.SolarToGridExport, 3)
	approx(t, "battery_to_ev", f.BatteryToEV, 0)
	approx(t, "grid_to_ev", f.GridToEV, 0)
	approx(t, "grid_request", f.GridRequest, -3)
	approx(t, "bay 1 inflow", f.BayEV[0], 2)
	checkIdentities(t, in, f)
}

func TestAllocateGridBackstop(t *testing.T) {
	in := Input{
		PVKw:      0,
		StepHours: 1,
		Battery: BatteryInput{
			SOCPercent:           0,
			ChargeHeadroomKW:     30,
			DischargeAvailableKW: 0,
			CapacityKWh:          100,
		},
		BayDemandKW: [model.NumBays]float64{5, 0, 0, 0},
	}
	f := Allocate(in)

	approx(t, "grid_to_ev", f.GridToEV, 5)
	approx(t, "battery_to_ev", f.BatteryToEV, 0)
	approx(t, "solar_to_ev", f.SolarToEV, 0)
	approx(t, "grid_request", f.GridRequest, 5)
	approx(t, "bay 1 inflow", f.BayEV[0], 5)
	checkIdentities(t, in, f)
}

func TestAllocateProportionalSplit(t *testing.T) {
	in := Input{
		PVKw:        3,
		StepHours:   1,
		Battery:     BatteryInput{SOCPercent: 100, CapacityKWh: 100},
		BayDemandKW: [model.NumBays]float64{4, 4, 0, 0},
	}
	f := Allocate(in)

	approx(t, "solar_to_ev", f.SolarToEV, 3)
	approx(t, "grid_to_ev", f.GridToEV, 5)
	// Each bay gets half the solar and half the grid backstop.
	approx(t, "bay 1 inflow", f.BayEV[0], 4)
	approx(t, "bay 2 inflow", f.BayEV[1], 4)
	approx(t, "grid_request", f.GridRequest, 5)
	checkIdentities(t, in, f)
}

func TestAllocateUnevenDemandSplit(t *testing.T) {
	in := Input{
		PVKw:        6,
		StepHours:   1,
		BayDemandKW: [model.NumBays]float64{6, 2, 0, 0},
	}
	f := Allocate(in)

	// 6 kW of solar over 8 kW of demand, grid covering the rest: both bays
	// end up fully served whatever the split.
	approx(t, "bay 1 inflow", f.BayEV[0], 6)
	approx(t, "bay 2 inflow", f.BayEV[1], 2)
	approx(t, "solar_to_ev", f.SolarToEV, 6)
	approx(t, "grid_to_ev", f.GridToEV, 2)
	checkIdentities(t, in, f)
}

func TestAllocateBatteryBackstop(t *testing.T) {
	in := Input{
		PVKw:      0,
		StepHours: 1,
		Battery: BatteryInput{
			SOCPercent:           80,
			DischargeAvailableKW: 3,
			CapacityKWh:          100,
		},
		BayDemandKW: [model.NumBays]float64{4, 4, 0, 0},
	}
	f := Allocate(in)

	approx(t, "battery_to_ev", f.BatteryToEV, 3)
	approx(t, "grid_to_ev", f.GridToEV, 5)
	approx(t, "bay 1 inflow", f.BayEV[0], 4)
	approx(t, "bay 2 inflow", f.BayEV[1], 4)
	approx(t, "grid_request", f.GridRequest, 5)
	checkIdentities(t, in, f)
}

func TestAllocateNoDischargeWhileCharging(t *testing.T) {
	// Solar charges the battery and partially serves the bays; the battery
	// never discharges in the same step it is charging.
	in := Input{
		PVKw:      4,
		StepHours: 1,
		Battery: BatteryInput{
			SOCPercent:           50,
			ChargeHeadroomKW:     2,
			DischargeAvailableKW: 30,
			CapacityKWh:          100,
		},
		BayDemandKW: [model.NumBays]float64{5, 0, 0, 0},
	}
	f := Allocate(in)

	approx(t, "solar_to_battery", f.SolarToBattery, 2)
	approx(t, "solar_to_ev", f.SolarToEV, 2)
	approx(t, "battery_to_ev", f.BatteryToEV, 0)
	approx(t, "grid_to_ev", f.GridToEV, 3)
	checkIdentities(t, in, f)
}

func TestAllocateFullBatteryExportsSurplus(t *testing.T) {
	in := Input{
		PVKw:      5,
		StepHours: 1,
		Battery: BatteryInput{
			SOCPercent:           100,
			ChargeHeadroomKW:     0,
			DischargeAvailableKW: 30,
			CapacityKWh:          100,
		},
	}
	f := Allocate(in)

	approx(t, "solar_to_battery", f.SolarToBattery, 0)
	approx(t, "solar_to_grid_export", f.SolarToGridExport, 5)
	approx(t, "grid_request", f.GridRequest, -5)
	checkIdentities(t, in, f)
}

func TestAllocateGridPreCharge(t *testing.T) {
	in := Input{
		PVKw:      0,
		StepHours: 1,
		Battery: BatteryInput{
			SOCPercent:       40,
			ChargeHeadroomKW: 30,
			TargetSOCPercent: 80,
			CapacityKWh:      100,
		},
	}
	f := Allocate(in)

	// 40 kWh to target, capped by the 30 kW charge headroom.
	approx(t, "grid_to_battery", f.GridToBattery, 30)
	approx(t, "grid_request", f.GridRequest, 30)
	checkIdentities(t, in, f)
}

func TestAllocateGridPreChargeNearTarget(t *testing.T) {
	in := Input{
		PVKw:      0,
		StepHours: 1,
		Battery: BatteryInput{
			SOCPercent:       79,
			ChargeHeadroomKW: 30,
			TargetSOCPercent: 80,
			CapacityKWh:      100,
		},
	}
	f := Allocate(in)

	// Only 1 kWh short of the target: the pre-charge stops there instead of
	// pulling the full headroom.
	approx(t, "grid_to_battery", f.GridToBattery, 1)
	checkIdentities(t, in, f)
}

func TestAllocatePreChargeSkippedWhileDischarging(t *testing.T) {
	in := Input{
		PVKw:      0,
		StepHours: 1,
		Battery: BatteryInput{
			SOCPercent:           40,
			ChargeHeadroomKW:     30,
			DischargeAvailableKW: 30,
			TargetSOCPercent:     80,
			CapacityKWh:          100,
		},
		BayDemandKW: [model.NumBays]float64{5, 0, 0, 0},
	}
	f := Allocate(in)

	approx(t, "battery_to_ev", f.BatteryToEV, 5)
	approx(t, "grid_to_battery", f.GridToBattery, 0)
	checkIdentities(t, in, f)
}

func TestAllocateNegativePVTreatedAsZero(t *testing.T) {
	in := Input{
		PVKw:        -3,
		StepHours:   1,
		BayDemandKW: [model.NumBays]float64{2, 0, 0, 0},
	}
	f := Allocate(in)

	approx(t, "solar_to_ev", f.SolarToEV, 0)
	approx(t, "grid_to_ev", f.GridToEV, 2)
	checkIdentities(t, in, f)
}

func TestAllocateIdle(t *testing.T) {
	f := Allocate(Input{StepHours: 1})
	if f != (model.Flows{}) {
		t.Fatalf("idle allocation should be all zeros, got %+v", f)
	}
}
