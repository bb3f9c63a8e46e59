// Package export writes recorded step results for external consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/solarbay/core/model"
)

// csvHeader is the compatibility contract with existing export consumers;
// the column order must not change.
var csvHeader = []string{
	"time",
	"battery_percent",
	"battery_flow_kw",
	"ev_flow_kw",
	"grid_flow_kw",
	"vehicle1_percent",
	"vehicle2_percent",
	"vehicle3_percent",
	"vehicle4_percent",
}

// WriteCSV writes the step records to w in the contract column order.
func WriteCSV(w io.Writer, results []model.StepResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		rec := []string{
			r.Time.Format(time.RFC3339),
			fmtFloat(r.BatterySOC),
			fmtFloat(r.BatteryFlowKW),
			fmtFloat(r.EVFlowKW),
			fmtFloat(r.GridFlowKW),
			fmtFloat(r.BaySOC[0]),
			fmtFloat(r.BaySOC[1]),
			fmtFloat(r.BaySOC[2]),
			fmtFloat(r.BaySOC[3]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the step records to w as a JSON array.
func WriteJSON(w io.Writer, results []model.StepResult) error {
	enc := json.NewEncoder(w)
	return enc.Encode(results)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
