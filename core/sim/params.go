package sim

import (
	"fmt"
	"math"

	"github.com/kilianp07/solarbay/core/model"
)

// Parameter keys accepted by UpdateParameters. Booleans are encoded as
// floats, nonzero meaning true, matching the external harness contract.
const (
	ParamBatterySOC    = "battery_soc"
	ParamPVOverride    = "pv_output_override"
	ParamPeakRate      = "peak_rate"
	ParamOffPeakRate   = "off_peak_rate"
	ParamPeakStartHour = "peak_start_hour"
	ParamPeakEndHour   = "peak_end_hour"
)

// BayOccupiedParam returns the occupancy key for bay n (1-based).
func BayOccupiedParam(n int) string { return fmt.Sprintf("bay%d_occupied", n) }

// BayPercentageParam returns the SOC key for bay n (1-based).
func BayPercentageParam(n int) string { return fmt.Sprintf("bay%d_percentage", n) }

// UpdateParameters merges user-supplied overrides into the live state. The
// whole update is validated before anything is mutated, so a rejected
// update leaves the simulation untouched and no tick ever observes a
// partially applied one. Valid in either lifecycle state.
func (s *Simulator) UpdateParameters(params map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.schedule
	type bayUpdate struct {
		occupied   *bool
		socPercent *float64
	}
	var bays [model.NumBays]bayUpdate
	var batterySOC, override *float64

	for key, value := range params {
		switch key {
		case ParamBatterySOC:
			if value < 0 || value > 100 {
				return fmt.Errorf("sim: %s %.2f out of range [0,100]", key, value)
			}
			v := value
			batterySOC = &v
		case ParamPVOverride:
			v := value
			override = &v
		case ParamPeakRate:
			staged.PeakRate = value
		case ParamOffPeakRate:
			staged.OffPeakRate = value
		case ParamPeakStartHour:
			staged.PeakStartHour = hourValue(value)
		case ParamPeakEndHour:
			staged.PeakEndHour = hourValue(value)
		default:
			n, field, ok := bayParam(key)
			if !ok {
				return fmt.Errorf("sim: unknown parameter %q", key)
			}
			switch field {
			case "occupied":
				occ := value != 0
				bays[n].occupied = &occ
			case "percentage":
				if value < 0 || value > 100 {
					return fmt.Errorf("sim: %s %.2f out of range [0,100]", key, value)
				}
				v := value
				bays[n].socPercent = &v
			}
		}
	}

	if err := staged.Validate(); err != nil {
		return err
	}

	// Everything validated; apply. Occupancy changes land before SOC
	// overrides so a vehicle placed and charged in one update works.
	s.schedule = staged
	s.cfg.Pricing = staged
	if batterySOC != nil {
		if err := s.battery.SetSOC(*batterySOC); err != nil {
			return err
		}
		s.cfg.Battery.InitialSOC = *batterySOC
		s.log.Infof("battery soc set to %.2f%%", *batterySOC)
	}
	for i := range bays {
		if bays[i].occupied != nil {
			soc := s.bays.SOC(i)
			if bays[i].socPercent != nil {
				soc = *bays[i].socPercent
			}
			if err := s.bays.SetOccupied(i, *bays[i].occupied, soc); err != nil {
				return err
			}
		} else if bays[i].socPercent != nil {
			if err := s.bays.SetSOC(i, *bays[i].socPercent); err != nil {
				return err
			}
		}
	}
	if override != nil {
		if *override < 0 {
			s.override = -1
			s.log.Infof("pv output override cleared")
		} else {
			s.override = *override
			s.log.Infof("pv output overridden to %.2f kW", *override)
		}
	}
	return nil
}

// bayParam parses "bay<N>_occupied" / "bay<N>_percentage" keys. The bay
// index is returned 0-based.
func bayParam(key string) (int, string, bool) {
	var n int
	var field string
	if _, err := fmt.Sscanf(key, "bay%d_%s", &n, &field); err != nil {
		return 0, "", false
	}
	if n < 1 || n > model.NumBays {
		return 0, "", false
	}
	if field != "occupied" && field != "percentage" {
		return 0, "", false
	}
	return n - 1, field, true
}

func hourValue(v float64) int { return int(math.Round(v)) }
