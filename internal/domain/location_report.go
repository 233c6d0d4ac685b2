package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// UnmarshalJSON decodes a report with a lenient ts: an RFC 3339 string or
// epoch milliseconds (number or numeric string). Any other ts is treated as
// absent so the server stamps the report instead of dropping it.
func (r *LocationReport) UnmarshalJSON(b []byte) error {
	type plain LocationReport
	aux := struct {
		*plain
		TS json.RawMessage `json:"ts"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.TS = clientTime(aux.TS)
	return nil
}

func clientTime(raw json.RawMessage) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	v := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil
		}
		v = strings.TrimSpace(v)
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			t = t.UTC()
			return &t
		}
	}

	ms, err := strconv.ParseFloat(v, 64)
	if err != nil || ms <= 0 {
		return nil
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}
