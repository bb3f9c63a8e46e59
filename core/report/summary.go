// Package report derives run-level statistics from recorded step results.
package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/solarbay/core/model"
)

// Summary aggregates a recorded run.
type Summary struct {
	Steps int `json:"steps"`

	PVEnergyKWh       float64 `json:"pv_energy_kwh"`
	EVEnergyKWh       float64 `json:"ev_energy_kwh"`
	ImportedEnergyKWh float64 `json:"imported_energy_kwh"`
	ExportedEnergyKWh float64 `json:"exported_energy_kwh"`

	MeanGridKW   float64 `json:"mean_grid_kw"`
	StdDevGridKW float64 `json:"stddev_grid_kw"`
	MaxImportKW  float64 `json:"max_import_kw"`

	PeakSteps int     `json:"peak_steps"`
	TotalCost float64 `json:"total_cost"`
}

// Summarize reduces a run's step results. stepHours is the simulated step
// length in hours; an empty run yields the zero Summary.
func Summarize(results []model.StepResult, stepHours float64) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	grid := make([]float64, len(results))
	pvKW := make([]float64, len(results))
	evKW := make([]float64, len(results))
	var imported, exported float64
	peakSteps := 0
	for i, r := range results {
		grid[i] = r.GridFlowKW
		pvKW[i] = r.PVWatts / 1000
		evKW[i] = r.EVFlowKW
		if r.GridFlowKW > 0 {
			imported += r.GridFlowKW * stepHours
		} else {
			exported += -r.GridFlowKW * stepHours
		}
		if r.Peak {
			peakSteps++
		}
	}

	return Summary{
		Steps:             len(results),
		PVEnergyKWh:       floats.Sum(pvKW) * stepHours,
		EVEnergyKWh:       floats.Sum(evKW) * stepHours,
		ImportedEnergyKWh: imported,
		ExportedEnergyKWh: exported,
		MeanGridKW:        stat.Mean(grid, nil),
		StdDevGridKW:      stdDev(grid),
		MaxImportKW:       maxImport(grid),
		PeakSteps:         peakSteps,
		TotalCost:         results[len(results)-1].CumulativeCost,
	}
}

// stdDev of a single sample is defined as 0 here rather than NaN.
func stdDev(grid []float64) float64 {
	if len(grid) < 2 {
		return 0
	}
	return stat.StdDev(grid, nil)
}

func maxImport(grid []float64) float64 {
	max := 0.0
	for _, g := range grid {
		if g > max {
			max = g
		}
	}
	return max
}
