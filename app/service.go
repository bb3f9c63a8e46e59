// Package app wires the simulation core to its harness: pacing, MQTT,
// metrics sinks and the CSV export.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kilianp07/solarbay/config"
	"github.com/kilianp07/solarbay/core/model"
	"github.com/kilianp07/solarbay/core/report"
	"github.com/kilianp07/solarbay/core/sim"
	"github.com/kilianp07/solarbay/infra/logger"
	"github.com/kilianp07/solarbay/infra/metrics"
	"github.com/kilianp07/solarbay/infra/mqtt"
	"github.com/kilianp07/solarbay/infra/pvwatts"
	"github.com/kilianp07/solarbay/internal/eventbus"
	"github.com/kilianp07/solarbay/pkg/export"
)

// Reserved command keys interpreted by the service itself; any other key
// in a command message is a simulator parameter. Control and parameter
// keys may be mixed in one message.
const (
	// CommandSpeed sets the playback speed multiplier.
	CommandSpeed = "simulation_speed"
	// CommandRunning starts (nonzero) or stops (zero) the simulation.
	CommandRunning = "simulation_running"
	// CommandResetCost zeroes the cumulative cost ledger when nonzero.
	CommandResetCost = "reset_cost"
)

// Service runs the paced simulation loop. The loop is the single caller
// of Tick; parameter commands are funneled through a channel so updates
// apply between ticks, never during one.
type Service struct {
	Simulator *sim.Simulator

	cfg      *config.Config
	bus      *eventbus.Bus
	client   *mqtt.Client
	sink     metrics.Sink
	commands chan map[string]float64
	recorded []model.StepResult
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	series, err := pvwatts.NewSeries(cfg.PVWatts, logger.New("pv-series"))
	if err != nil {
		return nil, fmt.Errorf("pv series: %w", err)
	}
	simulator, err := sim.New(cfg.Simulation, series, logger.New("simulator"))
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	var sinks []metrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Simulation.StepDuration().Hours())
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink metrics.Sink = metrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	svc := &Service{
		Simulator: simulator,
		cfg:       cfg,
		bus:       eventbus.New(),
		sink:      sink,
		commands:  make(chan map[string]float64, 4),
		log:       log,
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.New(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.client = client
	}
	return svc, nil
}

// Run starts the simulation and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Simulator.Start(time.Time{}); err != nil {
		return err
	}

	metrics.StartCollector(ctx, s.bus, s.sink, s.log)
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.client != nil {
		if err := s.client.SubscribeCommands(s.enqueueCommand); err != nil {
			return fmt.Errorf("subscribe commands: %w", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case params := <-s.commands:
			s.applyCommand(params)
		case <-time.After(s.tickDelay()):
			rec, err := s.Simulator.Tick()
			if err == sim.ErrNotRunning {
				// Paused by a stop command; keep draining commands so a
				// start command can resume the run.
				continue
			}
			if err != nil {
				return err
			}
			s.recorded = append(s.recorded, rec)
			s.bus.Publish(rec)
			if s.client != nil {
				if err := s.client.PublishStep(rec); err != nil {
					s.log.Errorf("publish step %d: %v", rec.Step, err)
				}
			}
		}
	}
}

// tickDelay derives the wall-clock pacing from the speed multiplier. At
// 1x, one simulated step plays back in one second per the dashboard
// convention; higher multipliers shorten the delay.
func (s *Service) tickDelay() time.Duration {
	return time.Duration(float64(time.Second) / s.Simulator.Speed())
}

// applyCommand splits a command message into control keys, handled here,
// and parameter keys, forwarded to the simulator. A rejected half never
// blocks the other.
func (s *Service) applyCommand(params map[string]float64) {
	rest := make(map[string]float64, len(params))
	for key, value := range params {
		switch key {
		case CommandSpeed:
			if err := s.Simulator.SetSpeed(value); err != nil {
				s.log.Errorf("speed command rejected: %v", err)
			}
		case CommandRunning:
			s.setRunning(value != 0)
		case CommandResetCost:
			if value != 0 {
				s.Simulator.ResetCost()
			}
		default:
			rest[key] = value
		}
	}
	if len(rest) == 0 {
		return
	}
	if err := s.Simulator.UpdateParameters(rest); err != nil {
		s.log.Errorf("parameter update rejected: %v", err)
	}
}

// setRunning applies a start/stop command; repeating the current state is
// not an error.
func (s *Service) setRunning(run bool) {
	if run {
		if err := s.Simulator.Start(time.Time{}); err != nil && err != sim.ErrAlreadyRunning {
			s.log.Errorf("start command rejected: %v", err)
		}
		return
	}
	if err := s.Simulator.Stop(); err != nil && err != sim.ErrNotRunning {
		s.log.Errorf("stop command rejected: %v", err)
	}
}

func (s *Service) enqueueCommand(params map[string]float64) {
	select {
	case s.commands <- params:
	default:
		s.log.Warnf("command queue full, dropping parameter update")
	}
}

// shutdown stops the run, writes the CSV export and logs the summary.
func (s *Service) shutdown() error {
	if err := s.Simulator.Stop(); err != nil && err != sim.ErrNotRunning {
		return err
	}
	summary := report.Summarize(s.recorded, s.Simulator.StepDuration().Hours())
	s.log.Infof("run %s: %d steps, %.2f kWh pv, %.2f kWh imported, cost %.2f",
		s.Simulator.RunID(), summary.Steps, summary.PVEnergyKWh, summary.ImportedEnergyKWh, summary.TotalCost)

	if s.cfg.Export.CSVPath == "" || len(s.recorded) == 0 {
		return nil
	}
	f, err := os.Create(s.cfg.Export.CSVPath)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer f.Close()
	if err := export.WriteCSV(f, s.recorded); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	s.log.Infof("wrote %d steps to %s", len(s.recorded), s.cfg.Export.CSVPath)
	return nil
}

// Close releases harness resources.
func (s *Service) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	s.bus.Close()
	return nil
}
