package graph

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp returns the event's "timestamp" field as a time. The field holds
// epoch seconds as a JSON number or a numeric string. Missing, null and
// non-numeric values report false.
func (ev Event) Timestamp() (time.Time, bool) {
	if ev == nil {
		return time.Time{}, false
	}
	secs, ok := epochSeconds(ev["timestamp"])
	if !ok {
		return time.Time{}, false
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
}

func epochSeconds(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
