// Package pvwatts loads cached PVWatts v8 responses into a PV series.
// Fetching from the API happens out of band; the simulation only ever
// reads the response file.
package pvwatts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kilianp07/solarbay/core/pv"
	"github.com/kilianp07/solarbay/infra/logger"
)

// Config points at the cached response file.
type Config struct {
	// ResponsePath is the cached PVWatts JSON response. Empty disables
	// the PV source; the simulation then sees zero output unless a manual
	// override is set.
	ResponsePath string `json:"response_path"`
}

// response mirrors the fields of a PVWatts v8 hourly response we consume.
type response struct {
	Outputs struct {
		AC []float64 `json:"ac"`
		DC []float64 `json:"dc"`
	} `json:"outputs"`
	Errors []string `json:"errors"`
}

// Load parses the cached response and returns the hourly watt series,
// preferring AC output and falling back to DC.
func Load(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pvwatts: read response: %w", err)
	}
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("pvwatts: decode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("pvwatts: response contains errors: %v", resp.Errors)
	}
	if len(resp.Outputs.AC) > 0 {
		return resp.Outputs.AC, nil
	}
	if len(resp.Outputs.DC) > 0 {
		return resp.Outputs.DC, nil
	}
	return nil, fmt.Errorf("pvwatts: response has no hourly output series")
}

// NewSeries loads the configured response into a pv.Series. An empty path
// yields an empty series, which reports zero output for every instant.
func NewSeries(cfg Config, log logger.Logger) (*pv.Series, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	if cfg.ResponsePath == "" {
		log.Warnf("no pvwatts response configured, pv output is zero")
		return pv.NewSeries(nil, log), nil
	}
	watts, err := Load(cfg.ResponsePath)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d hourly pv samples from %s", len(watts), cfg.ResponsePath)
	return pv.NewSeries(watts, log), nil
}
