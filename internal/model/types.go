// Package model defines the domain types shared by the store, the ingest
// pipeline, and the analytics queries. It has no I/O.
package model

// TokenTotals holds the token counts of one usage event. ReasoningOutput is a
// subset of Output and CachedInput is a subset of Input; neither adds to Total.
type TokenTotals struct {
	Input           uint64
	CachedInput     uint64
	Output          uint64
	ReasoningOutput uint64
	Total           uint64
}

// Add returns the element-wise sum of a and b.
func (a TokenTotals) Add(b TokenTotals) TokenTotals {
	return TokenTotals{
		Input:           a.Input + b.Input,
		CachedInput:     a.CachedInput + b.CachedInput,
		Output:          a.Output + b.Output,
		ReasoningOutput: a.ReasoningOutput + b.ReasoningOutput,
		Total:           a.Total + b.Total,
	}
}

// DeltaFrom returns the growth of cumulative counters from prev to a. When the
// counter went backwards (the CLI restarted its session counter), a itself is
// the delta.
func (a TokenTotals) DeltaFrom(prev TokenTotals) TokenTotals {
	if a.Total < prev.Total {
		return a
	}
	return TokenTotals{
		Input:           sub(a.Input, prev.Input),
		CachedInput:     sub(a.CachedInput, prev.CachedInput),
		Output:          sub(a.Output, prev.Output),
		ReasoningOutput: sub(a.ReasoningOutput, prev.ReasoningOutput),
		Total:           sub(a.Total, prev.Total),
	}
}

func sub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// ContextStatus is the context-window occupancy reported alongside an event.
type ContextStatus struct {
	Used   uint64
	Window uint64
}

// PercentLeft reports how much of the window remains, when the window is known.
func (c ContextStatus) PercentLeft() (float64, bool) {
	if c.Window == 0 {
		return 0, false
	}
	used := float64(c.Used)
	total := float64(c.Window)
	return (total - used) / total * 100, true
}

// UsageEvent is one priced model invocation. Tokens are the event's own usage
// (the delta between consecutive cumulative log totals, computed at ingest).
// Timestamps are RFC3339 UTC with millisecond precision.
type UsageEvent struct {
	ID              string
	TS              string
	Model           string
	Tokens          TokenTotals
	Context         ContextStatus
	CostUSD         *float64
	ReasoningEffort *string
	Source          string
	SessionID       string
	RequestID       *string
	RawJSON         string
}

// MessageEvent is a role-tagged marker used for session liveness and
// per-window message counts. It carries no token or cost data.
type MessageEvent struct {
	ID        string
	TS        string
	Role      string
	Source    string
	SessionID string
	RawJSON   string
}

// Limit kinds as they appear in the CLI's rate_limits payload.
const (
	LimitShort = "5h"
	LimitLong  = "7d"
)

// LimitSnapshot is one observed remaining-capacity reading. Append-only.
type LimitSnapshot struct {
	LimitType   string
	PercentLeft float64
	ResetAt     string
	ObservedAt  string
	Source      string
	RawLine     string
}

// PricingRule is a stored, time-bounded cost rate. Rates are USD per one
// million tokens. EffectiveTo is nil for an open-ended rule. The effective
// range is half-open: [EffectiveFrom, EffectiveTo).
type PricingRule struct {
	ID               int64
	ModelPattern     string
	InputPer1M       float64
	CachedInputPer1M float64
	OutputPer1M      float64
	EffectiveFrom    string
	EffectiveTo      *string
}

// PricingRuleInput is a rule as supplied by the caller, before it has an id.
type PricingRuleInput struct {
	ModelPattern     string  `toml:"model_pattern"`
	InputPer1M       float64 `toml:"input_per_1m"`
	CachedInputPer1M float64 `toml:"cached_input_per_1m"`
	OutputPer1M      float64 `toml:"output_per_1m"`
	EffectiveFrom    string  `toml:"effective_from"`
	EffectiveTo      *string `toml:"effective_to,omitempty"`
}

// CostBreakdown splits a cost into its token-type components.
type CostBreakdown struct {
	InputUSD       float64
	CachedInputUSD float64
	OutputUSD      float64
	TotalUSD       float64
}

// Home is a tracked root directory of CLI logs.
type Home struct {
	ID         int64
	Label      string
	Path       string
	CreatedAt  string
	LastSeenAt *string
}

// Cursor is the resumable read position of one log file under one home.
// SeedModel, SeedEffort and SeedTotals carry the fold state needed to resume
// mid-file: the model/effort last seen before the offset and the cumulative
// token totals of the last usage line, so deltas stay correct across runs.
type Cursor struct {
	HomeID       int64
	FilePath     string
	Inode        *uint64
	Mtime        *string
	ByteOffset   uint64
	LastEventKey *string
	UpdatedAt    string
	SeedModel    *string
	SeedEffort   *string
	SeedTotals   TokenTotals
}
