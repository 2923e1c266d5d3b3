package core

import (
	"math"
	"strings"
	"time"
)

// timestampLayouts are tried in order when a timestamp arrives as text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Accepted instants span years 1 through 9999, the range every store driver
// round-trips. Numbers are further held to the ±8.64e15 ms of a JS Date.
var (
	minTimestamp = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)
)

const maxTimestampMillis = 8.64e15

// Validate checks a candidate and converts it into a Draft.
// A missing field yields ErrInvalidRequest; a present field that breaks
// a content rule yields ErrInvalidMessage.
func Validate(c Candidate) (Draft, error) {
	if c.Text == nil {
		return Draft{}, invalidRequest("text", "is required")
	}
	if c.Author == nil {
		return Draft{}, invalidRequest("author", "is required")
	}
	if c.Timestamp == nil {
		return Draft{}, invalidRequest("timestamp", "is required")
	}

	text, err := nonBlank("text", c.Text)
	if err != nil {
		return Draft{}, err
	}
	author, err := nonBlank("author", c.Author)
	if err != nil {
		return Draft{}, err
	}
	ts, err := ParseTimestamp(c.Timestamp)
	if err != nil {
		return Draft{}, err
	}

	return Draft{Text: text, Author: author, Timestamp: ts}, nil
}

func nonBlank(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalidMessage(field, "must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalidMessage(field, "must not be blank")
	}
	return s, nil
}

// ParseTimestamp accepts a date string, a time.Time, or a number of Unix
// milliseconds and returns it in UTC. Instants outside years 1 to 9999 are
// rejected as ErrInvalidMessage.
func ParseTimestamp(v any) (time.Time, error) {
	ts, err := parseTimestamp(v)
	if err != nil {
		return time.Time{}, err
	}
	if ts.Before(minTimestamp) || ts.After(maxTimestamp) {
		return time.Time{}, invalidMessage("timestamp", "is out of range")
	}
	return ts, nil
}

func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, invalidMessage("timestamp", "must not be zero")
		}
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, invalidRequest("timestamp", "is required")
		}
		return parseTimestamp(*t)
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, invalidMessage("timestamp", "is not a valid date")
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t != math.Trunc(t) {
			return time.Time{}, invalidMessage("timestamp", "is not a valid date")
		}
		if math.Abs(t) > maxTimestampMillis {
			return time.Time{}, invalidMessage("timestamp", "is out of range")
		}
		return time.UnixMilli(int64(t)).UTC(), nil
	case int64:
		if t > maxTimestampMillis || t < -maxTimestampMillis {
			return time.Time{}, invalidMessage("timestamp", "is out of range")
		}
		return time.UnixMilli(t).UTC(), nil
	default:
		return time.Time{}, invalidMessage("timestamp", "must be a date string or time value")
	}
}
