package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/solarbay/core/model"
)

// PromSink exposes the live simulation state as Prometheus metrics.
type PromSink struct {
	pvOutput   prometheus.Gauge
	batterySoc prometheus.Gauge
	baySoc     *prometheus.GaugeVec
	gridPower  prometheus.Gauge
	totalCost  prometheus.Gauge

	ticks    prometheus.Counter
	imported prometheus.Counter
	exported prometheus.Counter

	stepHours float64
}

// NewPromSink registers the simulation metrics on the default registerer.
func NewPromSink(stepHours float64) (*PromSink, error) {
	return NewPromSinkWithRegistry(stepHours, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(stepHours float64, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		pvOutput: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "station_pv_output_kw",
			Help: "PV AC output for the current step",
		}),
		batterySoc: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "station_battery_soc_percent",
			Help: "Stationary battery state of charge",
		}),
		baySoc: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "station_bay_soc_percent",
			Help: "EV bay state of charge",
		}, []string{"bay"}),
		gridPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "station_grid_power_kw",
			Help: "Signed net grid flow, positive for import",
		}),
		totalCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "station_cumulative_cost",
			Help: "Accumulated grid energy cost",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_simulation_ticks_total",
			Help: "Number of simulation steps executed",
		}),
		imported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_grid_imported_kwh_total",
			Help: "Energy imported from the grid",
		}),
		exported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_grid_exported_kwh_total",
			Help: "Energy exported to the grid",
		}),
		stepHours: stepHours,
	}
	for _, c := range []prometheus.Collector{
		s.pvOutput, s.batterySoc, s.baySoc, s.gridPower, s.totalCost,
		s.ticks, s.imported, s.exported,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordStep updates the gauges and counters from one step result.
func (s *PromSink) RecordStep(rec model.StepResult) error {
	s.pvOutput.Set(rec.PVWatts / 1000)
	s.batterySoc.Set(rec.BatterySOC)
	for i, soc := range rec.BaySOC {
		s.baySoc.WithLabelValues(bayLabel(i)).Set(soc)
	}
	s.gridPower.Set(rec.GridFlowKW)
	s.totalCost.Set(rec.CumulativeCost)
	s.ticks.Inc()
	if rec.GridFlowKW > 0 {
		s.imported.Add(rec.GridFlowKW * s.stepHours)
	} else {
		s.exported.Add(-rec.GridFlowKW * s.stepHours)
	}
	return nil
}

func bayLabel(i int) string {
	return string(rune('1' + i))
}
