package store

import (
	"testing"

	"github.com/theirongolddev/cxburn/internal/model"
)

func rangeOf(start, end string) model.TimeRange {
	return model.TimeRange{Start: start, End: end}
}

func TestSummaryTotalsAndCosts(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	insertEvents(t, s, h.ID,
		makeUsageEvent("e1", "2025-06-01T00:10:00.000Z", "gpt-5", 100),
		makeUsageEvent("e2", "2025-06-01T01:10:00.000Z", "gpt-5", 200),
		makeUsageEvent("e3", "2025-06-02T00:10:00.000Z", "gpt-5", 400),
	)

	r := rangeOf("2025-06-01T00:00:00.000Z", "2025-06-02T00:00:00.000Z")
	sum, err := s.Summary(h.ID, r)
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalTokens != 300 {
		t.Errorf("total tokens = %d, want 300 (e3 is outside the range)", sum.TotalTokens)
	}
	if sum.TotalCostUSD != nil {
		t.Errorf("no pricing rules, cost should be nil, got %v", *sum.TotalCostUSD)
	}

	if _, err := s.ReplacePricingRules([]model.PricingRuleInput{
		{ModelPattern: "gpt-5", InputPer1M: 2, CachedInputPer1M: 0.5, OutputPer1M: 8, EffectiveFrom: "2025-01-01T00:00:00.000Z"},
	}); err != nil {
		t.Fatal(err)
	}
	sum, err = s.Summary(h.ID, r)
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalCostUSD == nil || *sum.TotalCostUSD <= 0 {
		t.Errorf("cost should now be priced, got %v", sum.TotalCostUSD)
	}
}

func TestSummaryEmptyRange(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	sum, err := s.Summary(h.ID, rangeOf("2025-06-01T00:00:00.000Z", "2025-06-02T00:00:00.000Z"))
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalTokens != 0 || sum.TotalCostUSD != nil {
		t.Errorf("empty range should be zero and unpriced: %+v", sum)
	}
}

func TestTimeseriesHourlyBuckets(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	// Two events in hour 0, one in hour 1, nothing afterwards.
	insertEvents(t, s, h.ID,
		makeUsageEvent("e1", "2025-06-01T00:10:00.000Z", "gpt-5", 100),
		makeUsageEvent("e2", "2025-06-01T00:40:00.000Z", "gpt-5", 200),
		makeUsageEvent("e3", "2025-06-01T01:05:00.000Z", "gpt-5", 300),
	)

	points, err := s.Timeseries(h.ID,
		rangeOf("2025-06-01T00:00:00.000Z", "2025-06-01T04:00:00.000Z"),
		model.BucketHour, model.MetricTokens)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d buckets, want 4 (dense)", len(points))
	}
	if points[0].BucketStart != "2025-06-01T00:00:00.000Z" || points[0].Value != 300 {
		t.Errorf("bucket 0: %+v", points[0])
	}
	if points[1].Value != 300 {
		t.Errorf("bucket 1: %+v", points[1])
	}
	if points[2].Value != 0 || points[3].Value != 0 {
		t.Errorf("empty buckets should be zero: %+v %+v", points[2], points[3])
	}
}

func TestTimeseriesDailyCost(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	if _, err := s.ReplacePricingRules([]model.PricingRuleInput{
		{ModelPattern: "gpt-5", InputPer1M: 2, CachedInputPer1M: 0.5, OutputPer1M: 8, EffectiveFrom: "2025-01-01T00:00:00.000Z"},
	}); err != nil {
		t.Fatal(err)
	}
	insertEvents(t, s, h.ID,
		makeUsageEvent("e1", "2025-06-01T10:00:00.000Z", "gpt-5", 1_000_000),
	)

	points, err := s.Timeseries(h.ID,
		rangeOf("2025-06-01T00:00:00.000Z", "2025-06-03T00:00:00.000Z"),
		model.BucketDay, model.MetricCost)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d buckets, want 2", len(points))
	}
	if points[0].Value != 5.0 {
		t.Errorf("day 1 cost = %v, want 5.0", points[0].Value)
	}
	if points[1].Value != 0 {
		t.Errorf("day 2 cost = %v, want 0", points[1].Value)
	}
}

func TestListUsageEventsPaging(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	insertEvents(t, s, h.ID,
		makeUsageEvent("e1", "2025-06-01T00:10:00.000Z", "gpt-5", 100),
		makeUsageEvent("e2", "2025-06-01T00:20:00.000Z", "gpt-5-mini", 200),
		makeUsageEvent("e3", "2025-06-01T00:30:00.000Z", "gpt-5", 300),
	)
	r := rangeOf("2025-06-01T00:00:00.000Z", "2025-06-02T00:00:00.000Z")

	events, err := s.ListUsageEvents(h.ID, r, "", 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != "e3" {
		t.Fatalf("newest first paging: %+v", events)
	}

	events, err = s.ListUsageEvents(h.ID, r, "", 2, 2)
	if err != nil || len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("second page: %+v %v", events, err)
	}

	events, err = s.ListUsageEvents(h.ID, r, "gpt-5-mini", 10, 0)
	if err != nil || len(events) != 1 || events[0].ID != "e2" {
		t.Fatalf("model filter: %+v %v", events, err)
	}
}

func TestMessageCountFiltersUserRole(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	_, err := s.InsertFileBatch(FileBatch{
		HomeID: h.ID,
		Messages: []model.MessageEvent{
			{ID: "m1", TS: "2025-06-01T00:10:00.000Z", Role: "user", Source: "s.jsonl", SessionID: "x", RawJSON: "{}"},
			{ID: "m2", TS: "2025-06-01T00:11:00.000Z", Role: "assistant", Source: "s.jsonl", SessionID: "x", RawJSON: "{}"},
			{ID: "m3", TS: "2025-06-01T00:12:00.000Z", Role: "user", Source: "s.jsonl", SessionID: "x", RawJSON: "{}"},
		},
		Cursor: model.Cursor{HomeID: h.ID, FilePath: "s.jsonl", UpdatedAt: "2025-06-01T00:12:01.000Z"},
	})
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.MessageCountInRange(h.ID, rangeOf("2025-06-01T00:00:00.000Z", "2025-06-02T00:00:00.000Z"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("user message count = %d, want 2", n)
	}
}

func TestBreakdownByModel(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	insertEvents(t, s, h.ID,
		makeUsageEvent("e1", "2025-06-01T00:10:00.000Z", "gpt-5", 100),
		makeUsageEvent("e2", "2025-06-01T00:20:00.000Z", "gpt-5", 200),
		makeUsageEvent("e3", "2025-06-01T00:30:00.000Z", "gpt-5-mini", 500),
	)

	r := rangeOf("2025-06-01T00:00:00.000Z", "2025-06-02T00:00:00.000Z")
	rows, err := s.BreakdownByModel(h.ID, r)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d models, want 2", len(rows))
	}
	if rows[0].Model != "gpt-5-mini" || rows[0].TotalTokens != 500 {
		t.Errorf("largest first: %+v", rows[0])
	}
	if rows[1].Model != "gpt-5" || rows[1].TotalTokens != 300 {
		t.Errorf("second: %+v", rows[1])
	}
	if rows[0].TotalCostUSD != nil {
		t.Errorf("unpriced model should have nil cost")
	}
}

func TestBreakdownByModelEffort(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	high := makeUsageEvent("e1", "2025-06-01T00:10:00.000Z", "gpt-5", 100)
	high.ReasoningEffort = strptr("high")
	low := makeUsageEvent("e2", "2025-06-01T00:20:00.000Z", "gpt-5", 200)
	low.ReasoningEffort = strptr("low")
	unknown := makeUsageEvent("e3", "2025-06-01T00:30:00.000Z", "gpt-5", 400)

	insertEvents(t, s, h.ID, high, low, unknown)

	rows, err := s.BreakdownByModelEffortTokens(h.ID, rangeOf("2025-06-01T00:00:00.000Z", "2025-06-02T00:00:00.000Z"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d groups, want 3", len(rows))
	}
	// The unknown-effort group keeps a nil effort rather than collapsing
	// into a default level.
	if rows[0].ReasoningEffort != nil || rows[0].Tokens.Total != 400 {
		t.Errorf("unknown effort group: %+v", rows[0])
	}
}

func TestContextPressureStats(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	e1 := makeUsageEvent("e1", "2025-06-01T00:10:00.000Z", "gpt-5", 100)
	e1.Context = model.ContextStatus{Used: 50_000, Window: 200_000}
	e2 := makeUsageEvent("e2", "2025-06-01T00:20:00.000Z", "gpt-5", 100)
	e2.Context = model.ContextStatus{Used: 150_000, Window: 200_000}
	noWindow := makeUsageEvent("e3", "2025-06-01T00:30:00.000Z", "gpt-5", 100)
	noWindow.Context = model.ContextStatus{Used: 10, Window: 0}

	insertEvents(t, s, h.ID, e1, e2, noWindow)

	stats, err := s.ContextPressureStats(h.ID, rangeOf("2025-06-01T00:00:00.000Z", "2025-06-02T00:00:00.000Z"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.SampleCount != 2 {
		t.Fatalf("sample count = %d, want 2 (windowless events excluded)", stats.SampleCount)
	}
	if stats.AvgPressurePct == nil || *stats.AvgPressurePct != 50 {
		t.Errorf("avg pressure = %v, want 50", stats.AvgPressurePct)
	}
}

func TestActiveSessions(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	old := makeUsageEvent("e1", "2025-06-01T00:00:00.000Z", "gpt-5", 100)
	old.SessionID = "old"
	recent1 := makeUsageEvent("e2", "2025-06-01T10:00:00.000Z", "gpt-5", 100)
	recent1.SessionID = "live"
	recent2 := makeUsageEvent("e3", "2025-06-01T10:30:00.000Z", "gpt-5", 100)
	recent2.SessionID = "live"
	recent2.Context = model.ContextStatus{Used: 42_000, Window: 200_000}

	insertEvents(t, s, h.ID, old, recent1, recent2)

	sessions, err := s.ActiveSessions(h.ID, "2025-06-01T10:00:00.000Z")
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	got := sessions[0]
	if got.SessionID != "live" || got.LastSeen != "2025-06-01T10:30:00.000Z" {
		t.Errorf("session: %+v", got)
	}
	if got.SessionStart != "2025-06-01T10:00:00.000Z" {
		t.Errorf("session start: %q", got.SessionStart)
	}
	if got.ContextUsed != 42_000 {
		t.Errorf("context should come from the latest event: %+v", got)
	}
}

func TestLatestContext(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	if _, ok, err := s.LatestContext(h.ID); err != nil || ok {
		t.Fatalf("no events yet: %v %v", ok, err)
	}

	e := makeUsageEvent("e1", "2025-06-01T00:10:00.000Z", "gpt-5", 100)
	e.Context = model.ContextStatus{Used: 7_000, Window: 200_000}
	insertEvents(t, s, h.ID, e)

	cs, ok, err := s.LatestContext(h.ID)
	if err != nil || !ok || cs.Used != 7_000 {
		t.Fatalf("latest context: %+v %v %v", cs, ok, err)
	}
}

func TestLimitWindows(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	snaps := []model.LimitSnapshot{
		{LimitType: model.LimitLong, PercentLeft: 80, ResetAt: "2025-06-08T00:00:00.000Z", ObservedAt: "2025-06-02T00:00:00.000Z", Source: "s.jsonl"},
		{LimitType: model.LimitLong, PercentLeft: 90, ResetAt: "2025-06-15T00:00:00.000Z", ObservedAt: "2025-06-09T00:00:00.000Z", Source: "s.jsonl"},
	}
	if _, err := s.InsertFileBatch(FileBatch{
		HomeID: h.ID,
		Limits: snaps,
		Cursor: model.Cursor{HomeID: h.ID, FilePath: "s.jsonl", UpdatedAt: "2025-06-09T00:00:01.000Z"},
	}); err != nil {
		t.Fatal(err)
	}
	insertEvents(t, s, h.ID,
		makeUsageEvent("e1", "2025-06-05T00:00:00.000Z", "gpt-5", 100),
		makeUsageEvent("e2", "2025-06-10T00:00:00.000Z", "gpt-5", 900),
	)

	windows, err := s.LimitWindows(h.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	first, second := windows[0], windows[1]
	if first.Complete {
		t.Error("oldest window has an inferred start and must be incomplete")
	}
	if first.WindowEnd != "2025-06-08T00:00:00.000Z" || first.TotalTokens != 100 {
		t.Errorf("first window: %+v", first)
	}
	if !second.Complete || second.WindowStart != "2025-06-08T00:00:00.000Z" {
		t.Errorf("second window: %+v", second)
	}
	if second.TotalTokens != 900 {
		t.Errorf("second window tokens: %+v", second)
	}

	limited, err := s.LimitWindows(h.ID, 1)
	if err != nil || len(limited) != 1 || limited[0].WindowEnd != second.WindowEnd {
		t.Fatalf("limited windows: %+v %v", limited, err)
	}
}

func TestLatestLimitSnapshot(t *testing.T) {
	s := newTestStore(t)
	h := testHome(t, s)

	if _, ok, err := s.LatestLimitSnapshot(h.ID, model.LimitShort); err != nil || ok {
		t.Fatalf("no snapshots yet: %v %v", ok, err)
	}

	snaps := []model.LimitSnapshot{
		{LimitType: model.LimitShort, PercentLeft: 80, ResetAt: "2025-06-01T05:00:00.000Z", ObservedAt: "2025-06-01T00:00:00.000Z", Source: "s.jsonl"},
		{LimitType: model.LimitShort, PercentLeft: 60, ResetAt: "2025-06-01T05:00:00.000Z", ObservedAt: "2025-06-01T01:00:00.000Z", Source: "s.jsonl"},
	}
	if _, err := s.InsertFileBatch(FileBatch{
		HomeID: h.ID,
		Limits: snaps,
		Cursor: model.Cursor{HomeID: h.ID, FilePath: "s.jsonl", UpdatedAt: "2025-06-01T01:00:01.000Z"},
	}); err != nil {
		t.Fatal(err)
	}

	snap, ok, err := s.LatestLimitSnapshot(h.ID, model.LimitShort)
	if err != nil || !ok {
		t.Fatalf("latest snapshot: %v %v", ok, err)
	}
	if snap.PercentLeft != 60 {
		t.Errorf("latest percent_left = %v, want 60", snap.PercentLeft)
	}
}
