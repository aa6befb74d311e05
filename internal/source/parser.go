package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/cxburn/internal/model"
)

// LineParser turns raw JSON lines into usage events, message events and
// limit snapshots. It carries the sticky per-file state (the model announced
// by session_meta and the effort announced by turn_context) forward across
// lines, so it must see a file's lines in order. Seed values let a resumed
// read start with the state the previous run ended on.
type LineParser struct {
	source    string
	sessionID string
	model     *string
	effort    *string
}

// NewLineParser builds a parser for one file. seedModel and seedEffort may be
// nil when the file is read from the beginning.
func NewLineParser(source string, seedModel, seedEffort *string) *LineParser {
	return &LineParser{
		source:    source,
		sessionID: SessionIDFromSource(source),
		model:     seedModel,
		effort:    seedEffort,
	}
}

// Model returns the most recently observed model name, if any.
func (p *LineParser) Model() *string { return p.model }

// Effort returns the most recently observed reasoning effort, if any.
func (p *LineParser) Effort() *string { return p.effort }

// Parse processes one line. JSON objects carrying nothing of interest yield
// an empty ParsedLine; lines that do not parse as a JSON object come back
// with Err set so the caller can report them. Whitespace-only lines are
// ignored.
func (p *LineParser) Parse(line []byte) ParsedLine {
	if len(bytes.TrimSpace(line)) == 0 {
		return ParsedLine{}
	}
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		return ParsedLine{Err: fmt.Errorf("not a JSON object: %w", err)}
	}

	if m := extractModel(obj); m != "" {
		p.model = &m
	}
	if e, ok := extractTurnContextEffort(obj); ok {
		p.effort = model.NormalizeEffort(e)
	}

	var out ParsedLine
	out.Usage = p.usageEvent(obj, line)
	if out.Usage == nil {
		out.Message = p.messageEvent(obj, line)
	}
	out.Limits = p.limitSnapshots(obj, line)
	return out
}

// usageEvent extracts a token_count event. The returned event's Tokens field
// holds the session's cumulative totals as logged.
func (p *LineParser) usageEvent(obj map[string]any, line []byte) *model.UsageEvent {
	info := tokenCountInfo(obj)
	if info == nil {
		return nil
	}
	totals, ok := parseUsageTotals(info)
	if !ok {
		return nil
	}
	ts, ok := extractTimestamp(obj)
	if !ok {
		return nil
	}

	modelName := "unknown"
	if m := extractModel(obj); m != "" {
		modelName = m
	} else if p.model != nil {
		modelName = *p.model
	}

	effort := p.effort
	if effort == nil {
		if e := lookupString(obj, effortPaths...); e != "" {
			effort = model.NormalizeEffort(e)
		}
	}

	ev := &model.UsageEvent{
		ID:              LineID(p.source, line),
		TS:              ts,
		Model:           modelName,
		Tokens:          totals,
		Context:         parseContext(info),
		ReasoningEffort: effort,
		Source:          p.source,
		SessionID:       p.sessionID,
		RawJSON:         string(line),
	}
	if rid := lookupString(obj, requestIDPaths...); rid != "" {
		ev.RequestID = &rid
	}
	return ev
}

// messageEvent extracts a user_message/message record. Lines typed
// user_message without a role default to role "user". Only user, assistant
// and system roles are kept.
func (p *LineParser) messageEvent(obj map[string]any, line []byte) *model.MessageEvent {
	topType, _ := obj["type"].(string)
	payloadType := topType
	info := any(obj)
	if topType == "event_msg" {
		payload, ok := obj["payload"].(map[string]any)
		if !ok {
			return nil
		}
		payloadType, _ = payload["type"].(string)
		if i, ok := payload["info"]; ok {
			info = i
		} else {
			info = payload
		}
	}
	if payloadType != "user_message" && payloadType != "message" {
		return nil
	}

	role := ""
	if m, ok := info.(map[string]any); ok {
		role = lookupString(m, rolePaths...)
	}
	if role == "" {
		if payloadType != "user_message" {
			return nil
		}
		role = "user"
	}
	role = strings.ToLower(role)
	switch role {
	case "user", "assistant", "system":
	default:
		return nil
	}

	ts, ok := extractTimestamp(obj)
	if !ok {
		if m, isMap := info.(map[string]any); isMap {
			ts, ok = extractTimestamp(m)
		}
		if !ok {
			return nil
		}
	}

	return &model.MessageEvent{
		ID:        LineID(p.source, line),
		TS:        ts,
		Role:      role,
		Source:    p.source,
		SessionID: p.sessionID,
		RawJSON:   string(line),
	}
}

// limitSnapshots extracts rate limit snapshots. The "primary" window maps to
// the 5h limit and "secondary" to the 7d limit; other keys are ignored.
func (p *LineParser) limitSnapshots(obj map[string]any, line []byte) []model.LimitSnapshot {
	var limits map[string]any
	for _, path := range [][]string{
		{"payload", "rate_limits"},
		{"payload", "info", "rate_limits"},
		{"rate_limits"},
	} {
		if v, ok := lookup(obj, path); ok {
			if m, ok := v.(map[string]any); ok {
				limits = m
				break
			}
		}
	}
	if limits == nil {
		return nil
	}
	observedAt, ok := extractTimestamp(obj)
	if !ok {
		return nil
	}

	var snaps []model.LimitSnapshot
	for key, label := range map[string]string{"primary": model.LimitShort, "secondary": model.LimitLong} {
		window, ok := limits[key].(map[string]any)
		if !ok {
			continue
		}
		pct, ok := extractPercentLeft(window)
		if !ok {
			continue
		}
		resetAt, ok := extractResetAt(window, observedAt)
		if !ok {
			continue
		}
		snaps = append(snaps, model.LimitSnapshot{
			LimitType:   label,
			PercentLeft: pct,
			ResetAt:     resetAt,
			ObservedAt:  observedAt,
			Source:      p.source,
			RawLine:     string(line),
		})
	}
	return snaps
}

// tokenCountInfo returns payload.info for event_msg/token_count lines, nil
// otherwise.
func tokenCountInfo(obj map[string]any) map[string]any {
	if t, _ := obj["type"].(string); t != "event_msg" {
		return nil
	}
	payload, ok := obj["payload"].(map[string]any)
	if !ok {
		return nil
	}
	if t, _ := payload["type"].(string); t != "token_count" {
		return nil
	}
	info, ok := payload["info"].(map[string]any)
	if !ok {
		return nil
	}
	return info
}

func parseUsageTotals(info map[string]any) (model.TokenTotals, bool) {
	usage, ok := info["total_token_usage"].(map[string]any)
	if !ok {
		return model.TokenTotals{}, false
	}
	input, okIn := asUint(usage["input_tokens"])
	output, okOut := asUint(usage["output_tokens"])
	total, okTotal := asUint(usage["total_tokens"])
	if !okIn || !okOut || !okTotal {
		return model.TokenTotals{}, false
	}
	cached, _ := asUint(usage["cached_input_tokens"])
	reasoning, _ := asUint(usage["reasoning_output_tokens"])
	return model.TokenTotals{
		Input:           input,
		CachedInput:     cached,
		Output:          output,
		ReasoningOutput: reasoning,
		Total:           total,
	}, true
}

// parseContext derives the context window status. The last turn's total is
// the better "used" figure when present; otherwise the session total stands
// in.
func parseContext(info map[string]any) model.ContextStatus {
	var cs model.ContextStatus
	if last, ok := info["last_token_usage"].(map[string]any); ok {
		if used, ok := asUint(last["total_tokens"]); ok {
			cs.Used = used
		}
	}
	if cs.Used == 0 {
		if total, ok := info["total_token_usage"].(map[string]any); ok {
			if used, ok := asUint(total["total_tokens"]); ok {
				cs.Used = used
			}
		}
	}
	if window, ok := asUint(info["model_context_window"]); ok {
		cs.Window = window
	}
	return cs
}

var (
	modelPaths = [][]string{
		{"model"},
		{"payload", "model"},
		{"payload", "info", "model"},
		{"payload", "info", "model_name"},
		{"payload", "info", "model_id"},
	}
	timestampPaths = [][]string{{"timestamp"}, {"ts"}, {"time"}}
	requestIDPaths = [][]string{
		{"request_id"},
		{"requestId"},
		{"payload", "request_id"},
		{"payload", "requestId"},
		{"payload", "info", "request_id"},
		{"payload", "info", "requestId"},
	}
	rolePaths = [][]string{
		{"role"},
		{"info", "role"},
		{"author", "role"},
		{"info", "author", "role"},
	}
	effortPaths = [][]string{
		{"turn_context", "effort"},
		{"payload", "info", "effort"},
		{"payload", "effort"},
		{"effort"},
		{"usage", "effort"},
		{"usage", "reasoning_effort"},
		{"payload", "usage", "effort"},
		{"payload", "usage", "reasoning_effort"},
	}
)

func extractModel(obj map[string]any) string {
	return lookupString(obj, modelPaths...)
}

// extractTurnContextEffort returns the effort value from a turn_context line.
// The second return is false for lines of any other type.
func extractTurnContextEffort(obj map[string]any) (string, bool) {
	topType, _ := obj["type"].(string)
	payloadType := ""
	if payload, ok := obj["payload"].(map[string]any); ok {
		payloadType, _ = payload["type"].(string)
	}
	if topType != "turn_context" && payloadType != "turn_context" {
		return "", false
	}
	if e := lookupString(obj, effortPaths...); e != "" {
		return e, true
	}
	return "", false
}

func lookup(obj map[string]any, path []string) (any, bool) {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func lookupString(obj map[string]any, paths ...[]string) string {
	for _, path := range paths {
		if v, ok := lookup(obj, path); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func asUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return uint64(i), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// extractTimestamp finds the line's timestamp and normalizes it to canonical
// UTC form. Numeric values are treated as unix epochs, in milliseconds when
// they carry more than ten digits.
func extractTimestamp(obj map[string]any) (string, bool) {
	for _, path := range timestampPaths {
		v, ok := lookup(obj, path)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if ts, ok := normalizeTimestamp(s); ok {
			return ts, true
		}
	}
	return "", false
}

func normalizeTimestamp(raw string) (string, bool) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return model.FormatTS(t), true
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return model.FormatTS(t), true
		}
	}
	if isDigits(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return model.FormatTS(epochToTime(n, len(raw) > 10)), true
		}
	}
	return "", false
}

func epochToTime(n int64, millis bool) time.Time {
	if millis {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

var (
	percentLeftKeys = []string{"percent_left", "remaining_percent", "remaining_pct", "percent_remaining", "remaining"}
	percentUsedKeys = []string{"used_percent", "used_pct", "percent_used", "used"}
	resetAtKeys     = []string{"reset_at", "resets_at", "resetAt", "reset", "reset_time", "resetTime"}
)

// extractPercentLeft reads the remaining share of a limit window. Fractions
// in [0, 1] are treated as ratios; "used" variants are inverted.
func extractPercentLeft(window map[string]any) (float64, bool) {
	for _, key := range percentLeftKeys {
		if v, ok := window[key]; ok {
			if f, ok := asFloat(v); ok {
				return normalizePercent(f), true
			}
		}
	}
	for _, key := range percentUsedKeys {
		if v, ok := window[key]; ok {
			if f, ok := asFloat(v); ok {
				return normalizePercent(100 - normalizePercent(f)), true
			}
		}
	}
	return 0, false
}

func normalizePercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v <= 1.0 {
		v *= 100
	}
	return math.Min(100, math.Max(0, v))
}

func extractResetAt(window map[string]any, observedAt string) (string, bool) {
	for _, key := range resetAtKeys {
		v, ok := window[key]
		if !ok {
			continue
		}
		if ts, ok := parseResetAt(v, observedAt); ok {
			return ts, true
		}
	}
	return "", false
}

// parseResetAt accepts RFC3339, a handful of date/time spellings, bare
// clock times (next occurrence after the observation) and numeric epochs.
// Results are truncated to the minute.
func parseResetAt(v any, observedAt string) (string, bool) {
	ref, err := model.ParseTS(observedAt)
	if err != nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return model.FormatTS(truncateMinute(t)), true
		}
		for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02", "2006/01/02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return model.FormatTS(truncateMinute(t)), true
			}
		}
		for _, layout := range []string{"15:04:05", "15:04"} {
			clock, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			t := time.Date(ref.Year(), ref.Month(), ref.Day(),
				clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
			if !t.After(ref) {
				t = t.AddDate(0, 0, 1)
			}
			return model.FormatTS(truncateMinute(t)), true
		}
		return "", false
	}
	f, ok := asFloat(v)
	if !ok {
		return "", false
	}
	seconds := f
	if seconds > 1_000_000_000_000 {
		seconds /= 1000
	}
	secs := int64(seconds)
	nanos := int64((seconds - float64(secs)) * 1e9)
	return model.FormatTS(truncateMinute(time.Unix(secs, nanos).UTC())), true
}

func truncateMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
