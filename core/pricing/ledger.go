package pricing

// Ledger accumulates the grid energy cost over a simulation run.
type Ledger struct {
	cumulative float64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger { return &Ledger{} }

// PriceStep prices one step's net grid flow and adds it to the cumulative
// cost. Imports are charged at the applicable rate; exports cost nothing
// unless the schedule configures an export credit. The step cost is
// returned (negative when a credit applies).
func (l *Ledger) PriceStep(gridRequestKW, stepHours float64, s Schedule, peak bool) float64 {
	var cost float64
	switch {
	case gridRequestKW > 0:
		cost = gridRequestKW * stepHours * s.RateFor(peak)
	case gridRequestKW < 0 && s.ExportCreditRate > 0:
		cost = gridRequestKW * stepHours * s.ExportCreditRate
	}
	l.cumulative += cost
	if l.cumulative < 0 {
		l.cumulative = 0
	}
	return cost
}

// Cumulative returns the total accumulated cost.
func (l *Ledger) Cumulative() float64 { return l.cumulative }

// Reset zeroes the cumulative cost.
func (l *Ledger) Reset() { l.cumulative = 0 }
