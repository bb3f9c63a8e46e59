package pricing

import "fmt"

// Schedule defines the time-of-use tariff. The peak window is the half-open
// hour interval [PeakStartHour, PeakEndHour) in local simulated time.
type Schedule struct {
	PeakRate    float64 `json:"peak_rate"`
	OffPeakRate float64 `json:"off_peak_rate"`

	PeakStartHour int `json:"peak_start_hour"`
	PeakEndHour   int `json:"peak_end_hour"`

	// ExportCreditRate credits net exports per kWh against the cumulative
	// cost. Zero disables the credit, which is the default policy.
	ExportCreditRate float64 `json:"export_credit_rate"`
}

// SetDefaults applies the default tariff: peak between 08:00 and 22:00.
func (s *Schedule) SetDefaults() {
	if s.PeakRate == 0 && s.OffPeakRate == 0 {
		s.PeakRate = 0.25
		s.OffPeakRate = 0.10
	}
	if s.PeakStartHour == 0 && s.PeakEndHour == 0 {
		s.PeakStartHour = 8
		s.PeakEndHour = 22
	}
}

// Validate rejects malformed schedules. PeakEndHour deliberately ranges to
// 24: the interval is half-open, so a window ending at midnight would
// otherwise be inexpressible. Wrapping windows (end before start) are not
// supported and fail here rather than silently misbehaving.
func (s Schedule) Validate() error {
	if s.PeakRate < 0 || s.OffPeakRate < 0 {
		return fmt.Errorf("pricing: rates must be non-negative")
	}
	if s.ExportCreditRate < 0 {
		return fmt.Errorf("pricing: export_credit_rate must be non-negative")
	}
	if s.PeakStartHour < 0 || s.PeakStartHour > 23 {
		return fmt.Errorf("pricing: peak_start_hour %d out of range [0,23]", s.PeakStartHour)
	}
	if s.PeakEndHour < 0 || s.PeakEndHour > 24 {
		return fmt.Errorf("pricing: peak_end_hour %d out of range [0,24]", s.PeakEndHour)
	}
	if s.PeakEndHour <= s.PeakStartHour {
		return fmt.Errorf("pricing: peak window [%d,%d) must not wrap or be empty", s.PeakStartHour, s.PeakEndHour)
	}
	return nil
}

// IsPeak reports whether the given hour of day falls in the peak window.
func (s Schedule) IsPeak(hour int) bool {
	return hour >= s.PeakStartHour && hour < s.PeakEndHour
}

// RateFor returns the applicable import rate.
func (s Schedule) RateFor(peak bool) float64 {
	if peak {
		return s.PeakRate
	}
	return s.OffPeakRate
}
