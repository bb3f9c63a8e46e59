package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/solarbay/core/model"
	"github.com/kilianp07/solarbay/infra/logger"
)

// InfluxSink writes step records to an InfluxDB bucket.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg Config) *InfluxSink {
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so a missing backend never blocks
// the simulation.
func NewInfluxSinkWithFallback(cfg Config) Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return NopSink{}
	}
	return sink
}

// RecordStep writes the step record as a single point.
func (s *InfluxSink) RecordStep(rec model.StepResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("charge_step").
		AddTag("run_id", rec.RunID).
		AddTag("peak", strconv.FormatBool(rec.Peak)).
		AddField("pv_kw", round3(rec.PVWatts/1000)).
		AddField("battery_soc", round3(rec.BatterySOC)).
		AddField("battery_flow_kw", round3(rec.BatteryFlowKW)).
		AddField("ev_flow_kw", round3(rec.EVFlowKW)).
		AddField("grid_flow_kw", round3(rec.GridFlowKW)).
		AddField("step_cost", round3(rec.StepCost)).
		AddField("cumulative_cost", round3(rec.CumulativeCost)).
		SetTime(rec.Time)
	for i, soc := range rec.BaySOC {
		p.AddField("bay"+strconv.Itoa(i+1)+"_soc", round3(soc))
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
