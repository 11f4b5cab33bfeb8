package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The coerce-or-default primitives below are total: every input, including
// nil and values of unexpected types, maps to a defined result.

// String coerces v to trimmed text. Numbers are printed without exponent.
// Anything else (nil, maps, slices) yields "".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return String(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Decimal coerces v to a decimal. Non-numeric or missing input yields zero.
func Decimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(t)
	case float32:
		return Decimal(float64(t))
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case int32:
		return decimal.NewFromInt(int64(t))
	case json.Number:
		return parseDecimal(t.String())
	case string:
		return parseDecimal(t)
	default:
		return decimal.Zero
	}
}

// NonNegative is Decimal clamped at zero.
func NonNegative(v any) decimal.Decimal {
	d := Decimal(v)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Time coerces v to an instant, reading zoneless layouts as UTC.
func Time(v any, now time.Time) time.Time {
	return TimeIn(v, now, time.UTC)
}

// TimeIn coerces v to an instant. Accepted inputs are time.Time, epoch
// milliseconds (number or digit string) and the layouts in timeLayouts.
// Layouts without an offset are read as wall-clock time in loc, so a plain
// calendar date stays on that date when formatted in loc.
// Missing or malformed input yields now.
func TimeIn(v any, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	switch t := v.(type) {
	case time.Time:
		if !t.IsZero() {
			return t
		}
	case float64:
		if t > 0 && !math.IsInf(t, 0) {
			return time.UnixMilli(int64(t))
		}
	case int64:
		if t > 0 {
			return time.UnixMilli(t)
		}
	case int:
		if t > 0 {
			return time.UnixMilli(int64(t))
		}
	case json.Number:
		if ms, err := t.Int64(); err == nil && ms > 0 {
			return time.UnixMilli(ms)
		}
	case string:
		return parseTime(strings.TrimSpace(t), now, loc)
	}
	return now
}

func parseTime(s string, now time.Time, loc *time.Location) time.Time {
	if s == "" {
		return now
	}
	if isDigits(s) {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms)
		}
		return now
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts
		}
	}
	return now
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
