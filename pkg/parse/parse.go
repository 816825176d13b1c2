// Package parse holds the lenient optional value types used by create requests.
// Unparseable input becomes an absent value rather than an error.
package parse

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order. They cover ISO-8601 dates and date-times
// with a T or space separator, optional seconds, fraction and UTC offset.
var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// Time parses an ISO-8601 date or date-time. Values with an offset are
// converted to UTC; values without one are taken as UTC.
func Time(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Float parses a decimal number. NaN and infinities are rejected.
func Float(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int parses a base-10 integer.
func Int(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// OptionalInt is an integer that may be absent.
type OptionalInt struct {
	Value int64
	Valid bool
}

// Ptr returns nil when absent.
func (o OptionalInt) Ptr() *int64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalParam implements echo.BindUnmarshaler for form and query values.
func (o *OptionalInt) UnmarshalParam(param string) error {
	o.Value, o.Valid = Int(param)
	return nil
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	raw := jsonScalar(data)
	if v, ok := Int(raw); ok {
		o.Value, o.Valid = v, true
		return nil
	}
	// JSON numbers like 3.0 are accepted when integral.
	if f, ok := Float(raw); ok && f == math.Trunc(f) {
		o.Value, o.Valid = int64(f), true
		return nil
	}
	*o = OptionalInt{}
	return nil
}

// MarshalJSON writes the value or null.
func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// OptionalFloat is a float that may be absent.
type OptionalFloat struct {
	Value float64
	Valid bool
}

func (o OptionalFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func (o *OptionalFloat) UnmarshalParam(param string) error {
	o.Value, o.Valid = Float(param)
	return nil
}

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	o.Value, o.Valid = Float(jsonScalar(data))
	return nil
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// OptionalTime is a timestamp that may be absent.
type OptionalTime struct {
	Value time.Time
	Valid bool
}

func (o OptionalTime) Ptr() *time.Time {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func (o *OptionalTime) UnmarshalParam(param string) error {
	o.Value, o.Valid = Time(param)
	return nil
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Value, o.Valid = Time(jsonScalar(data))
	return nil
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// jsonScalar returns the text of a JSON string or number literal. Anything
// else (null, objects, arrays, booleans) yields "".
func jsonScalar(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(data)
	}
	return ""
}
