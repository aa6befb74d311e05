package model

import (
	"fmt"
	"time"
)

// tsLayout renders RFC3339 UTC with millisecond precision. The result is
// lexicographically sortable, which is what makes string comparison of stored
// timestamps correct in SQL.
const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTS renders t as the canonical stored timestamp string.
func FormatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// ParseTS parses a canonical timestamp string.
func ParseTS(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// TimeRange is a half-open [Start, End) range of canonical UTC timestamps.
type TimeRange struct {
	Start string
	End   string
}

// Range presets accepted by the read queries.
const (
	RangeToday     = "today"
	RangeLast7     = "last7days"
	RangeLast14    = "last14days"
	RangeThisMonth = "thismonth"
	RangeAllTime   = "alltime"
)

// ResolveRange turns a preset or an explicit start/end pair into absolute UTC
// bounds. An explicit pair wins over the preset; a lone start runs to now.
func ResolveRange(preset string, start, end *time.Time) (TimeRange, error) {
	now := time.Now().UTC()
	if start != nil {
		e := now
		if end != nil {
			e = end.UTC()
		}
		return TimeRange{Start: FormatTS(*start), End: FormatTS(e)}, nil
	}
	if preset == "" {
		preset = RangeLast7
	}
	var s time.Time
	switch preset {
	case RangeToday:
		s = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case RangeLast7:
		s = now.AddDate(0, 0, -7)
	case RangeLast14:
		s = now.AddDate(0, 0, -14)
	case RangeThisMonth:
		s = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case RangeAllTime:
		s = time.Unix(0, 0).UTC()
	default:
		return TimeRange{}, fmt.Errorf("unsupported range %q", preset)
	}
	return TimeRange{Start: FormatTS(s), End: FormatTS(now)}, nil
}

// Bucket is the fixed bucket width of a time series.
type Bucket int

const (
	BucketHour Bucket = iota
	BucketDay
)

// ParseBucket maps the wire/flag spelling to a Bucket.
func ParseBucket(s string) (Bucket, error) {
	switch s {
	case "hour":
		return BucketHour, nil
	case "day":
		return BucketDay, nil
	}
	return 0, fmt.Errorf("unsupported bucket %q", s)
}

// Truncate aligns t down to the bucket boundary in UTC.
func (b Bucket) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch b {
	case BucketDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	}
}

// Next returns the start of the bucket after t (t must be bucket-aligned).
func (b Bucket) Next(t time.Time) time.Time {
	if b == BucketDay {
		return t.AddDate(0, 0, 1)
	}
	return t.Add(time.Hour)
}

// Metric selects what a time series aggregates.
type Metric int

const (
	MetricTokens Metric = iota
	MetricCost
)

// ParseMetric maps the wire/flag spelling to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "tokens":
		return MetricTokens, nil
	case "cost":
		return MetricCost, nil
	}
	return 0, fmt.Errorf("unsupported metric %q", s)
}
