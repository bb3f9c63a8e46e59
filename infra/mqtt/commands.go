package mqtt

import (
	"encoding/json"
	"fmt"
)

// ParseCommand decodes a JSON object of parameter overrides into the
// float map the simulator consumes. Booleans are coerced to 0/1 so
// dashboards can send either form for occupancy toggles.
func ParseCommand(payload []byte) (map[string]float64, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	params := make(map[string]float64, len(raw))
	for key, v := range raw {
		switch val := v.(type) {
		case float64:
			params[key] = val
		case bool:
			if val {
				params[key] = 1
			} else {
				params[key] = 0
			}
		default:
			return nil, fmt.Errorf("parameter %q: unsupported value %v", key, v)
		}
	}
	return params, nil
}
