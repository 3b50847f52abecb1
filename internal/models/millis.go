package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// isoMillis is the wire layout for timestamps: ISO-8601 with millisecond precision in UTC.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Millis is a wall-clock timestamp in epoch milliseconds.
// On the wire it is an ISO-8601 string; incoming payloads may also send a plain number.
type Millis int64

// MillisFromTime converts t to epoch milliseconds.
func MillisFromTime(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time returns the timestamp as a UTC time.Time.
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// Sub returns m - o in milliseconds.
func (m Millis) Sub(o Millis) float64 {
	return float64(m - o)
}

func (m Millis) String() string {
	return m.Time().Format(isoMillis)
}

func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		*m = MillisFromTime(t)
		return nil
	}
	// Browsers report Date.now() as an integer, performance.now()-based clocks as floats.
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	*m = Millis(int64(f))
	return nil
}
