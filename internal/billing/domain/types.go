package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Amount decodes numbers, numeric strings, null or garbage; anything
// unparseable becomes zero so dirty billing data never fails a report.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount(parseNumber(b))
	return nil
}

func (a Amount) Float64() float64 { return float64(a) }

func parseNumber(b []byte) float64 {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	text := string(raw)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return 0
		}
		text = strings.TrimSpace(unquoted)
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// Code is a numeric status or type identifier that the platform may send as a string.
type Code int

func (c *Code) UnmarshalJSON(b []byte) error {
	*c = Code(int(parseNumber(b)))
	return nil
}

// FlexString accepts strings, numbers and null.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		*s = ""
	case raw[0] == '"':
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			*s = ""
			return nil
		}
		*s = FlexString(v)
	case raw[0] == '{' || raw[0] == '[':
		*s = ""
	default:
		*s = FlexString(string(raw))
	}
	return nil
}

func (s FlexString) String() string { return string(s) }

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	time.DateTime,
}

// Date keeps the platform's original text for display next to the parsed instant.
// Unparseable or missing values leave Time zero.
type Date struct {
	Time time.Time
	Raw  string
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw FlexString
	_ = raw.UnmarshalJSON(b)
	*d = ParseDate(raw.String())
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Raw)
}

func (d Date) IsZero() bool { return d.Time.IsZero() }

func ParseDate(value string) Date {
	value = strings.TrimSpace(value)
	d := Date{Raw: value}
	if value == "" {
		return d
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d.Time = t.UTC()
			return d
		}
	}
	return d
}

// NewDate builds a Date from an instant, rendering it as YYYY-MM-DD.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return Date{Time: t.UTC(), Raw: t.UTC().Format(time.DateOnly)}
}
