package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/cxburn/internal/model"
	"github.com/theirongolddev/cxburn/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store, model.Home) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "cxburn.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	homeDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(homeDir, "sessions"), 0o750); err != nil {
		t.Fatal(err)
	}
	home, err := s.AddHome(homeDir, "test")
	if err != nil {
		t.Fatal(err)
	}
	return New(s), s, home
}

func usageLine(ts string, total uint64) string {
	input := total / 2
	output := total - input
	return fmt.Sprintf(
		`{"timestamp":%q,"type":"event_msg","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":%d,"output_tokens":%d,"total_tokens":%d},"model_context_window":200000}}}`,
		ts, input, output, total)
}

func sessionFile(t *testing.T, home model.Home, name, content string) string {
	t.Helper()
	path := filepath.Join(home.Path, "sessions", name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func appendTo(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
}

func allTime() model.TimeRange {
	r, _ := model.ResolveRange(model.RangeAllTime, nil, nil)
	return r
}

func TestRunIngestsCumulativeTotalsAsDeltas(t *testing.T) {
	e, s, home := newTestEngine(t)

	sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		usageLine("2025-06-01T00:10:00.000Z", 100)+"\n"+
			usageLine("2025-06-01T00:40:00.000Z", 300)+"\n")

	stats, err := e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EventsInserted != 2 || stats.FilesScanned != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	sum, err := s.Summary(home.ID, allTime())
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalTokens != 300 {
		t.Errorf("stored deltas should sum to the last cumulative total: %d", sum.TotalTokens)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	e, s, home := newTestEngine(t)

	sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		usageLine("2025-06-01T00:10:00.000Z", 100)+"\n")

	if _, err := e.Run(context.Background(), home.ID); err != nil {
		t.Fatal(err)
	}
	stats, err := e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EventsInserted != 0 {
		t.Errorf("second run inserted %d events", stats.EventsInserted)
	}
	if stats.FilesSkipped != 1 {
		t.Errorf("up-to-date file should be skipped: %+v", stats)
	}
	n, err := s.CountUsageEvents(home.ID)
	if err != nil || n != 1 {
		t.Fatalf("events = %d, %v", n, err)
	}
}

func TestRunResumesAppendedLines(t *testing.T) {
	e, s, home := newTestEngine(t)

	path := sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		usageLine("2025-06-01T00:10:00.000Z", 100)+"\n")
	if _, err := e.Run(context.Background(), home.ID); err != nil {
		t.Fatal(err)
	}

	appendTo(t, path, usageLine("2025-06-01T01:05:00.000Z", 600)+"\n")
	stats, err := e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EventsInserted != 1 {
		t.Fatalf("resume inserted %d events, want 1", stats.EventsInserted)
	}

	// The appended event's delta is computed against the cursor's seeded
	// totals, not from zero.
	sum, err := s.Summary(home.ID, allTime())
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalTokens != 600 {
		t.Errorf("totals after resume = %d, want 600", sum.TotalTokens)
	}
}

func TestRunBucketsDeltasByEventTime(t *testing.T) {
	e, s, home := newTestEngine(t)

	sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		usageLine("2025-06-01T00:10:00.000Z", 100)+"\n"+
			usageLine("2025-06-01T00:40:00.000Z", 300)+"\n"+
			usageLine("2025-06-01T01:05:00.000Z", 600)+"\n")

	if _, err := e.Run(context.Background(), home.ID); err != nil {
		t.Fatal(err)
	}
	points, err := s.Timeseries(home.ID,
		model.TimeRange{Start: "2025-06-01T00:00:00.000Z", End: "2025-06-01T02:00:00.000Z"},
		model.BucketHour, model.MetricTokens)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("buckets = %+v", points)
	}
	if points[0].Value != 300 || points[1].Value != 300 {
		t.Errorf("per-hour deltas = [%v %v], want [300 300]", points[0].Value, points[1].Value)
	}
}

func TestRunLeavesPartialLineForNextRun(t *testing.T) {
	e, s, home := newTestEngine(t)

	partial := `{"timestamp":"2025-06-01T00:40:00.000Z","type":"event_ms`
	path := sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		usageLine("2025-06-01T00:10:00.000Z", 100)+"\n"+partial)

	stats, err := e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EventsInserted != 1 {
		t.Fatalf("first run inserted %d events, want 1", stats.EventsInserted)
	}
	cursor, ok, err := s.GetCursor(home.ID, path)
	if err != nil || !ok {
		t.Fatal(err)
	}
	wantOffset := uint64(len(usageLine("2025-06-01T00:10:00.000Z", 100)) + 1)
	if cursor.ByteOffset != wantOffset {
		t.Fatalf("cursor offset = %d, want %d (before the partial line)", cursor.ByteOffset, wantOffset)
	}

	// Finish the line; only the completed event ingests.
	rest := `g","payload":{"type":"token_count","info":{"total_token_usage":{"input_tokens":150,"output_tokens":150,"total_tokens":300}}}}` + "\n"
	appendTo(t, path, rest)
	stats, err = e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EventsInserted != 1 {
		t.Fatalf("second run inserted %d events, want 1", stats.EventsInserted)
	}
	sum, err := s.Summary(home.ID, allTime())
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalTokens != 300 {
		t.Errorf("totals = %d, want 300", sum.TotalTokens)
	}
}

func TestRunTruncatedFileRestartsFromZero(t *testing.T) {
	e, s, home := newTestEngine(t)

	path := sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		usageLine("2025-06-01T00:10:00.000Z", 100)+"\n"+
			usageLine("2025-06-01T00:40:00.000Z", 300)+"\n")
	if _, err := e.Run(context.Background(), home.ID); err != nil {
		t.Fatal(err)
	}

	// Replace with a shorter file holding a different event.
	if err := os.WriteFile(path, []byte(usageLine("2025-06-02T09:00:00.000Z", 50)+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	stats, err := e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EventsInserted != 1 {
		t.Fatalf("post-truncation run inserted %d events, want 1", stats.EventsInserted)
	}
	cursor, ok, err := s.GetCursor(home.ID, path)
	if err != nil || !ok {
		t.Fatal(err)
	}
	if cursor.SeedTotals.Total != 50 {
		t.Errorf("seed totals should restart from the new file: %+v", cursor.SeedTotals)
	}
}

func TestRunCounterResetWithinFile(t *testing.T) {
	e, s, home := newTestEngine(t)

	sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		usageLine("2025-06-01T00:10:00.000Z", 300)+"\n"+
			usageLine("2025-06-01T00:40:00.000Z", 50)+"\n")

	if _, err := e.Run(context.Background(), home.ID); err != nil {
		t.Fatal(err)
	}
	sum, err := s.Summary(home.ID, allTime())
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalTokens != 350 {
		t.Errorf("a backwards counter counts as a fresh delta: %d, want 350", sum.TotalTokens)
	}
}

func TestRunReportsMalformedLines(t *testing.T) {
	e, s, home := newTestEngine(t)

	path := sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		"this is not json at all\n"+
			usageLine("2025-06-01T00:10:00.000Z", 100)+"\n")

	stats, err := e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.EventsInserted != 1 {
		t.Errorf("inserted %d events, want 1", stats.EventsInserted)
	}
	if len(stats.Issues) != 1 {
		t.Fatalf("got %d issues, want 1: %+v", len(stats.Issues), stats.Issues)
	}
	if stats.Issues[0].FilePath != path || stats.Issues[0].Message == "" {
		t.Errorf("issue should name the file and reason: %+v", stats.Issues[0])
	}

	// The malformed line was fully read, so the cursor moves past it and a
	// second run neither re-reports nor re-reads it.
	again, err := e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.EventsInserted != 0 || len(again.Issues) != 0 || again.FilesSkipped != 1 {
		t.Errorf("second run should skip the file cleanly: %+v", again)
	}
	n, err := s.CountUsageEvents(home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("stored %d events, want 1", n)
	}
}

func TestRunRefusesOverlappingRun(t *testing.T) {
	e, _, home := newTestEngine(t)

	if err := e.acquire(home.ID); err != nil {
		t.Fatal(err)
	}
	defer e.release(home.ID)

	_, err := e.Run(context.Background(), home.ID)
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}

	// A different home is unaffected.
	if err := e.acquire(home.ID + 1); err != nil {
		t.Fatalf("other home should acquire: %v", err)
	}
	e.release(home.ID + 1)
}

func TestRunPricesEventsAtInsert(t *testing.T) {
	e, s, home := newTestEngine(t)

	if _, err := s.ReplacePricingRules([]model.PricingRuleInput{
		{ModelPattern: "*", InputPer1M: 2, CachedInputPer1M: 0.5, OutputPer1M: 8, EffectiveFrom: "2025-01-01T00:00:00.000Z"},
	}); err != nil {
		t.Fatal(err)
	}
	sessionFile(t, home, "rollout-2025-06-01T00-10-00-aaa.jsonl",
		usageLine("2025-06-01T00:10:00.000Z", 1_000_000)+"\n")

	if _, err := e.Run(context.Background(), home.ID); err != nil {
		t.Fatal(err)
	}
	events, err := s.ListUsageEvents(home.ID, allTime(), "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].CostUSD == nil {
		t.Fatalf("event should carry a cost: %+v", events)
	}
	if *events[0].CostUSD != 5.0 {
		t.Errorf("cost = %v, want 5.0", *events[0].CostUSD)
	}
}

func TestRunMissingSessionsDir(t *testing.T) {
	e, s, home := newTestEngine(t)
	if err := os.RemoveAll(filepath.Join(home.Path, "sessions")); err != nil {
		t.Fatal(err)
	}
	stats, err := e.Run(context.Background(), home.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesScanned != 0 || stats.EventsInserted != 0 {
		t.Errorf("stats = %+v", stats)
	}
	n, err := s.CountUsageEvents(home.ID)
	if err != nil || n != 0 {
		t.Fatalf("events = %d, %v", n, err)
	}
}
