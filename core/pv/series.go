package pv

import (
	"time"

	"github.com/kilianp07/solarbay/core/logger"
)

// Source supplies the PV AC output in watts for a simulated instant.
type Source interface {
	PowerAt(t time.Time) float64
}

// Series is an hourly power series keyed by hour of year, typically the
// 8760 points of a PVWatts response. Lookups interpolate linearly between
// adjacent samples and wrap across year boundaries.
type Series struct {
	watts []float64
	log   logger.Logger
}

// NewSeries wraps the given hourly watt values. A nil logger is replaced
// with a no-op logger.
func NewSeries(watts []float64, log logger.Logger) *Series {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Series{watts: watts, log: log}
}

// Len returns the number of hourly samples.
func (s *Series) Len() int { return len(s.watts) }

// PowerAt returns the interpolated PV output for t. An empty series or a
// negative sample yields 0: a missing irradiance value means "no sun" and
// must not halt the simulation.
func (s *Series) PowerAt(t time.Time) float64 {
	if len(s.watts) == 0 {
		s.log.Warnf("pv series empty, treating %s as no sun", t.Format(time.RFC3339))
		return 0
	}
	idx := hourOfYear(t) % len(s.watts)
	next := (idx + 1) % len(s.watts)

	frac := float64(t.Minute()*60+t.Second()) / 3600.0
	w := s.watts[idx]*(1-frac) + s.watts[next]*frac
	if w < 0 {
		return 0
	}
	return w
}

// hourOfYear maps an instant to its hour index since January 1st, 00:00.
func hourOfYear(t time.Time) int {
	return (t.YearDay()-1)*24 + t.Hour()
}

// Constant is a fixed-output Source, used for overrides and tests.
type Constant float64

// PowerAt returns the constant watt value regardless of the instant.
func (c Constant) PowerAt(time.Time) float64 {
	if c < 0 {
		return 0
	}
	return float64(c)
}
