// Package metrics records step results in observability backends.
package metrics

import (
	"fmt"

	"github.com/kilianp07/solarbay/core/model"
)

// Sink records one step result per tick.
type Sink interface {
	RecordStep(rec model.StepResult) error
}

// NopSink discards all records.
type NopSink struct{}

// RecordStep implements Sink.
func (NopSink) RecordStep(model.StepResult) error { return nil }

// Config defines the enabled sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`

	InfluxEnabled bool   `json:"influx_enabled"`
	InfluxURL     string `json:"influx_url"`
	InfluxToken   string `json:"influx_token"`
	InfluxOrg     string `json:"influx_org"`
	InfluxBucket  string `json:"influx_bucket"`
}

// SetDefaults applies the default Prometheus listen address.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

// Validate checks that enabled sinks are fully configured.
func (c Config) Validate() error {
	if c.InfluxEnabled && (c.InfluxURL == "" || c.InfluxOrg == "" || c.InfluxBucket == "") {
		return fmt.Errorf("metrics: influx requires url, org and bucket")
	}
	return nil
}
