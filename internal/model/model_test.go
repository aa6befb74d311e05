package model

import (
	"testing"
	"time"
)

func TestDeltaFrom(t *testing.T) {
	prev := TokenTotals{Input: 100, CachedInput: 40, Output: 50, ReasoningOutput: 10, Total: 150}
	cur := TokenTotals{Input: 160, CachedInput: 70, Output: 140, ReasoningOutput: 30, Total: 300}

	d := cur.DeltaFrom(prev)
	if d.Input != 60 || d.CachedInput != 30 || d.Output != 90 || d.ReasoningOutput != 20 || d.Total != 150 {
		t.Fatalf("unexpected delta: %+v", d)
	}
}

func TestDeltaFromCounterReset(t *testing.T) {
	prev := TokenTotals{Input: 500, Output: 500, Total: 1000}
	cur := TokenTotals{Input: 80, Output: 20, Total: 100}

	// Totals went backwards, so the new counters belong to a fresh session
	// and are taken as-is.
	d := cur.DeltaFrom(prev)
	if d != cur {
		t.Fatalf("got %+v, want %+v", d, cur)
	}
}

func TestPercentLeft(t *testing.T) {
	cs := ContextStatus{Used: 50_000, Window: 200_000}
	pct, ok := cs.PercentLeft()
	if !ok || pct != 75.0 {
		t.Fatalf("got %v %v, want 75 true", pct, ok)
	}

	if _, ok := (ContextStatus{Used: 10}).PercentLeft(); ok {
		t.Fatal("zero window should not report a percentage")
	}
}

func TestNormalizeEffort(t *testing.T) {
	cases := []struct {
		in   string
		want string
		nil_ bool
	}{
		{"HIGH", "high", false},
		{" medium ", "medium", false},
		{"xhigh", "xhigh", false},
		{"", "", true},
		{"   ", "", true},
	}
	for _, c := range cases {
		got := NormalizeEffort(c.in)
		if c.nil_ {
			if got != nil {
				t.Errorf("NormalizeEffort(%q) = %q, want nil", c.in, *got)
			}
			continue
		}
		if got == nil || *got != c.want {
			t.Errorf("NormalizeEffort(%q) = %v, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatTSRoundTrip(t *testing.T) {
	orig := time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)
	s := FormatTS(orig)
	if s != "2026-03-14T15:09:26.535Z" {
		t.Fatalf("unexpected canonical form %q", s)
	}
	back, err := ParseTS(s)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(orig) {
		t.Fatalf("round trip drifted: %v != %v", back, orig)
	}
}

func TestFormatTSNormalizesZone(t *testing.T) {
	loc := time.FixedZone("plus2", 2*3600)
	s := FormatTS(time.Date(2026, 1, 1, 2, 0, 0, 0, loc))
	if s != "2026-01-01T00:00:00.000Z" {
		t.Fatalf("got %q", s)
	}
}

func TestResolveRangeExplicit(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	r, err := ResolveRange(RangeToday, &start, &end)
	if err != nil {
		t.Fatal(err)
	}
	if r.Start != "2026-01-01T00:00:00.000Z" || r.End != "2026-01-02T00:00:00.000Z" {
		t.Fatalf("explicit bounds should win: %+v", r)
	}
}

func TestResolveRangeUnknown(t *testing.T) {
	if _, err := ResolveRange("yesterday", nil, nil); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestBucketTruncate(t *testing.T) {
	ts := time.Date(2026, 5, 10, 13, 42, 9, 0, time.UTC)
	if got := BucketHour.Truncate(ts); got.Hour() != 13 || got.Minute() != 0 {
		t.Fatalf("hour truncate: %v", got)
	}
	if got := BucketDay.Truncate(ts); got.Hour() != 0 || got.Day() != 10 {
		t.Fatalf("day truncate: %v", got)
	}
	next := BucketDay.Next(BucketDay.Truncate(ts))
	if next.Day() != 11 {
		t.Fatalf("day next: %v", next)
	}
}
