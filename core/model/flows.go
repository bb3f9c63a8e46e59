package model

// NumBays is the number of independent EV charging bays at the station.
const NumBays = 4

// Flows holds the power allocation of a single simulation step in kW.
// Positive values flow into the named sink.
type Flows struct {
	SolarToBattery      float64 `json:"solar_to_battery"`
	SolarToEV           float64 `json:"solar_to_ev"`
	SolarToGridExport   float64 `json:"solar_to_grid_export"`
	BatteryToEV         float64 `json:"battery_to_ev"`
	BatteryToGridExport float64 `json:"battery_to_grid_export"`
	GridToEV            float64 `json:"grid_to_ev"`
	GridToBattery       float64 `json:"grid_to_battery"`

	// BayEV is the total inflow per bay, summed over solar, battery and
	// grid contributions.
	BayEV [NumBays]float64 `json:"bay_ev"`

	// GridRequest is the signed net grid flow: imports minus exports.
	GridRequest float64 `json:"grid_request"`
}

// EVTotal returns the aggregate EV charging power in kW.
func (f Flows) EVTotal() float64 {
	return f.SolarToEV + f.BatteryToEV + f.GridToEV
}

// BatteryNet returns the net battery charging power in kW. Positive means
// the battery is charging.
func (f Flows) BatteryNet() float64 {
	return f.SolarToBattery + f.GridToBattery - f.BatteryToEV - f.BatteryToGridExport
}
