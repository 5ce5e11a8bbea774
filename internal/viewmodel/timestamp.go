package viewmodel

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the single rendering of every timestamp leaving this package.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	minTimestamp = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, 12, 31, 23, 59, 59, 999e6, time.UTC)
)

// CoerceTimestamp renders v as a UTC ISO-8601 timestamp. Numbers and numeric strings are epoch milliseconds,
// other strings are parsed with the supported layouts. Absent values (nil, empty, zero or negative epochs)
// yield now without a warning; anything unparsable yields now with a warning.
func CoerceTimestamp(v interface{}, now time.Time) (string, *ParseWarning) {
	t, _, warning := coerceTime(v, now)
	return formatTimestamp(t), warning
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// coerceTime returns the parsed time, whether the value was present and valid, and a warning for garbage.
func coerceTime(v interface{}, now time.Time) (time.Time, bool, *ParseWarning) {
	switch t := v.(type) {
	case nil:
		return now, false, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return now, false, nil
		}
		if ms, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpochMillis(ms, t, now)
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				if parsed.Before(minTimestamp) || parsed.After(maxTimestamp) {
					break
				}
				return parsed, true, nil
			}
		}
		return now, false, &ParseWarning{Kind: WarningTimestamp, Raw: t}
	case time.Time:
		return t, true, nil
	default:
		if ms, ok := toFloat(v); ok {
			return fromEpochMillis(ms, v, now)
		}
		return now, false, &ParseWarning{Kind: WarningTimestamp, Raw: rawString(v)}
	}
}

func fromEpochMillis(ms float64, raw interface{}, now time.Time) (time.Time, bool, *ParseWarning) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return now, false, &ParseWarning{Kind: WarningTimestamp, Raw: rawString(raw)}
	}
	if ms <= 0 {
		return now, false, nil
	}
	if ms > float64(maxTimestamp.UnixMilli()) {
		return now, false, &ParseWarning{Kind: WarningTimestamp, Raw: rawString(raw)}
	}
	return time.UnixMilli(int64(ms)).UTC(), true, nil
}

// timestamp coerces a field and records the warning under its name.
func (w *warnings) timestamp(field string, v interface{}, now time.Time) (time.Time, bool) {
	t, ok, warning := coerceTime(v, now)
	w.add(field, warning)
	return t, ok
}
