package model

// UsageSummary holds range totals. Cost fields are nil when no pricing rule
// covered any event in the range.
type UsageSummary struct {
	EventCount            uint64
	TotalTokens           uint64
	InputTokens           uint64
	CachedInputTokens     uint64
	OutputTokens          uint64
	ReasoningOutputTokens uint64
	TotalCostUSD          *float64
	InputCostUSD          *float64
	CachedInputCostUSD    *float64
	OutputCostUSD         *float64
}

// TimeSeriesPoint is one bucket of a metric series. BucketStart is the
// UTC-aligned start of the bucket.
type TimeSeriesPoint struct {
	BucketStart string
	Value       float64
}

// ModelBreakdown is the compact per-model view (tokens plus total cost).
type ModelBreakdown struct {
	Model        string
	TotalTokens  uint64
	TotalCostUSD *float64
}

// ModelTokenBreakdown splits a model's tokens by type.
type ModelTokenBreakdown struct {
	Model  string
	Tokens TokenTotals
}

// ModelCostBreakdown splits a model's tokens and costs by type.
type ModelCostBreakdown struct {
	Model              string
	Tokens             TokenTotals
	InputCostUSD       *float64
	CachedInputCostUSD *float64
	OutputCostUSD      *float64
	TotalCostUSD       *float64
}

// ModelEffortTokenBreakdown splits tokens by (model, reasoning effort).
// ReasoningEffort is nil for events whose effort was never reported.
type ModelEffortTokenBreakdown struct {
	Model           string
	ReasoningEffort *string
	Tokens          TokenTotals
}

// ModelEffortCostBreakdown splits tokens and costs by (model, effort).
type ModelEffortCostBreakdown struct {
	Model              string
	ReasoningEffort    *string
	Tokens             TokenTotals
	InputCostUSD       *float64
	CachedInputCostUSD *float64
	OutputCostUSD      *float64
	TotalCostUSD       *float64
}

// ContextPressureStats are averages over events that reported a context window.
type ContextPressureStats struct {
	AvgContextUsed   *float64
	AvgContextWindow *float64
	AvgPressurePct   *float64
	SampleCount      uint64
}

// ActiveSession is a session with recent activity and its latest context state.
type ActiveSession struct {
	SessionID     string
	Model         string
	LastSeen      string
	SessionStart  string
	ContextUsed   uint64
	ContextWindow uint64
}

// LimitWindow is one historical long-window span between two reset boundaries.
// Complete is false for the oldest window, whose start is inferred.
type LimitWindow struct {
	WindowStart  string
	WindowEnd    string
	TotalTokens  uint64
	TotalCostUSD *float64
	MessageCount uint64
	Complete     bool
}

// CurrentLimitWindow is the in-progress window ending at the next known reset.
type CurrentLimitWindow struct {
	WindowStart  string
	WindowEnd    string
	TotalTokens  uint64
	TotalCostUSD *float64
	MessageCount uint64
}

// CurrentLimits pairs the two limit kinds; either side may be nil when no
// snapshot with a future reset exists.
type CurrentLimits struct {
	Short *CurrentLimitWindow
	Long  *CurrentLimitWindow
}
