package upload

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Source tells where a file handle came from.
type Source string

const (
	SourcePicker Source = "picker"
	SourceDrop   Source = "drop"
)

// ParseSource maps a form value to a Source. Anything unknown counts as the picker.
func ParseSource(v string) Source {
	if Source(v) == SourceDrop {
		return SourceDrop
	}
	return SourcePicker
}

// File is a user supplied file handle.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// IsZero reports whether no file was supplied.
func (f File) IsZero() bool {
	return f.Name == "" && len(f.Content) == 0
}

// State of the modal lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
)

// Result is the analytics response body. Fields are kept raw and coerced at
// render time, so malformed payloads degrade to NaN or empty output instead of failing.
type Result struct {
	VDOT      json.RawMessage `json:"vdot"`
	AvgHR     json.RawMessage `json:"avg_hr"`
	FiveKTime json.RawMessage `json:"fivek_time"`
	HalfTime  json.RawMessage `json:"half_time"`
	FullTime  json.RawMessage `json:"full_time"`
	Error     json.RawMessage `json:"error"`
	Message   json.RawMessage `json:"message"`
}

// HasError reports whether the payload carries a truthy error field.
func (r Result) HasError() bool {
	return truthy(r.Error)
}

// ErrorText returns the server supplied error message.
func (r Result) ErrorText() string {
	return text(r.Error)
}

// Metrics is the rendered projection of a successful Result.
type Metrics struct {
	VDOT      string `json:"vdot-value"`
	HeartRate string `json:"hr-value"`
	FiveKTime string `json:"fivek-time"`
	HalfTime  string `json:"half-time"`
	FullTime  string `json:"full-time"`
}

// Project renders r onto display strings.
func (r Result) Project() Metrics {
	return Metrics{
		VDOT:      FormatVDOT(number(r.VDOT)),
		HeartRate: FormatHeartRate(number(r.AvgHR)),
		FiveKTime: text(r.FiveKTime),
		HalfTime:  text(r.HalfTime),
		FullTime:  text(r.FullTime),
	}
}

// FormatVDOT renders the estimate with exactly two decimals.
func FormatVDOT(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatHeartRate rounds half away from zero and appends the unit.
func FormatHeartRate(v float64) string {
	r := math.Round(v)
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', 0, 64) + " BPM"
}

func number(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return math.NaN()
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
}

func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}
