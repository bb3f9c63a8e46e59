package model

import "time"

// StepResult is the immutable record emitted once per simulation tick.
// The core keeps no history; consumers own windowing and persistence.
type StepResult struct {
	RunID string    `json:"run_id"`
	Step  int       `json:"step"`
	Time  time.Time `json:"time"`

	// Date and TimeOfDay mirror Time for display consumers.
	Date      string `json:"date"`
	TimeOfDay string `json:"time_of_day"`

	PVWatts float64 `json:"pv_watts"`

	BatterySOC float64 `json:"battery_soc"`
	// BatteryFlowKW is the realized net battery power, positive = charging.
	BatteryFlowKW float64 `json:"battery_flow_kw"`

	BaySOC   [NumBays]float64 `json:"bay_soc"`
	EVFlowKW float64          `json:"ev_flow_kw"`

	// GridFlowKW is signed: positive = import, negative = export.
	GridFlowKW float64 `json:"grid_flow_kw"`

	Flows Flows `json:"flows"`

	Peak           bool    `json:"peak"`
	PeakLabel      string  `json:"peak_label"`
	Rate           float64 `json:"rate"`
	StepCost       float64 `json:"step_cost"`
	CumulativeCost float64 `json:"cumulative_cost"`
}
