// Package allocator implements the per-step greedy power allocation among
// the PV array, the stationary battery, the four charging bays and the
// grid connection.
//
// The policy is a fixed priority order, not an optimization search:
// solar feeds the battery first, then the bays, then exports the surplus;
// remaining bay demand is drawn from the battery and finally from the
// grid, which is treated as an unconstrained source so EV demand is
// always served. Supply that cannot cover every bay is split across bays
// proportionally to their remaining demand, so equal demands receive
// equal service rather than first-come-first-served.
package allocator

import "github.com/kilianp07/solarbay/core/model"

// BatteryInput is the read-only battery view consumed by Allocate.
type BatteryInput struct {
	SOCPercent float64
	// ChargeHeadroomKW is the charging power sustainable this step given
	// the rate limit and remaining capacity.
	ChargeHeadroomKW float64
	// DischargeAvailableKW is the discharge power sustainable this step
	// given the rate limit and stored energy.
	DischargeAvailableKW float64
	// TargetSOCPercent, when above SOCPercent, requests grid pre-charging.
	TargetSOCPercent float64
	CapacityKWh      float64
}

// Input gathers everything Allocate needs for one step.
type Input struct {
	PVKw      float64
	StepHours float64
	Battery   BatteryInput
	// BayDemandKW is each bay's headroom-and-rate-limited demand; zero for
	// unoccupied or complete bays.
	BayDemandKW [model.NumBays]float64
}

// Allocate computes the flow tuple for one step. It is pure: state updates
// are the callers' responsibility, applied through the station managers.
func Allocate(in Input) model.Flows {
	var f model.Flows

	pv := in.PVKw
	if pv < 0 {
		pv = 0
	}

	// Solar first: battery charging up to its headroom.
	f.SolarToBattery = min(pv, in.Battery.ChargeHeadroomKW)
	pv -= f.SolarToBattery

	// Then bay demand, proportionally when solar cannot cover it all.
	total := 0.0
	for _, d := range in.BayDemandKW {
		total += d
	}
	remaining := in.BayDemandKW
	if total > 0 && pv > 0 {
		served := min(pv, total)
		for i, d := range in.BayDemandKW {
			share := served * d / total
			f.BayEV[i] += share
			remaining[i] = d - share
			f.SolarToEV += share
		}
		pv -= served
	}

	// Any surplus beyond battery and EV needs is exported.
	f.SolarToGridExport = pv

	// Deficit resolution: the battery backs the bays, but never in a step
	// where it is itself being charged from solar.
	deficit := total - f.SolarToEV
	if deficit > 0 && f.SolarToBattery == 0 {
		fromBattery := min(deficit, in.Battery.DischargeAvailableKW)
		if fromBattery > 0 {
			for i := range remaining {
				share := fromBattery * remaining[i] / deficit
				f.BayEV[i] += share
				remaining[i] -= share
			}
			f.BatteryToEV = fromBattery
		}
	}

	// Grid backstop: whatever demand is still unmet is imported. This is
	// the one flow that is never clamped.
	for i, r := range remaining {
		if r > 0 {
			f.BayEV[i] += r
			f.GridToEV += r
		}
	}

	// Off-peak pre-charging objective: top the battery up from the grid
	// toward the target SOC, within the remaining charge headroom. Skipped
	// while the battery is discharging.
	if in.Battery.TargetSOCPercent > in.Battery.SOCPercent && f.BatteryToEV == 0 && in.StepHours > 0 {
		toTarget := (in.Battery.TargetSOCPercent - in.Battery.SOCPercent) / 100 * in.Battery.CapacityKWh / in.StepHours
		headroom := in.Battery.ChargeHeadroomKW - f.SolarToBattery
		f.GridToBattery = min(max(toTarget-f.SolarToBattery, 0), max(headroom, 0))
	}

	f.GridRequest = f.GridToEV + f.GridToBattery - f.SolarToGridExport - f.BatteryToGridExport
	return f
}
