package app

import (
	"time"

	"github.com/theirongolddev/cxburn/internal/model"
)

// Summary aggregates usage over the selected range for the active home.
func (a *App) Summary(p RangeParams) (model.UsageSummary, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return model.UsageSummary{}, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return model.UsageSummary{}, err
	}
	return a.store.Summary(home.ID, r)
}

// Timeseries returns dense bucketed points over the selected range.
func (a *App) Timeseries(p RangeParams, bucket model.Bucket, metric model.Metric) ([]model.TimeSeriesPoint, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return nil, err
	}
	return a.store.Timeseries(home.ID, r, bucket, metric)
}

// BreakdownByModel returns per-model totals, largest first.
func (a *App) BreakdownByModel(p RangeParams) ([]model.ModelBreakdown, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return nil, err
	}
	return a.store.BreakdownByModel(home.ID, r)
}

// BreakdownByModelTokens returns per-model token splits.
func (a *App) BreakdownByModelTokens(p RangeParams) ([]model.ModelTokenBreakdown, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return nil, err
	}
	return a.store.BreakdownByModelTokens(home.ID, r)
}

// BreakdownByModelCosts returns per-model cost splits.
func (a *App) BreakdownByModelCosts(p RangeParams) ([]model.ModelCostBreakdown, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return nil, err
	}
	return a.store.BreakdownByModelCosts(home.ID, r)
}

// BreakdownByModelEffortTokens returns per-(model, effort) token splits.
func (a *App) BreakdownByModelEffortTokens(p RangeParams) ([]model.ModelEffortTokenBreakdown, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return nil, err
	}
	return a.store.BreakdownByModelEffortTokens(home.ID, r)
}

// BreakdownByModelEffortCosts returns per-(model, effort) cost splits.
func (a *App) BreakdownByModelEffortCosts(p RangeParams) ([]model.ModelEffortCostBreakdown, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return nil, err
	}
	return a.store.BreakdownByModelEffortCosts(home.ID, r)
}

// Events lists stored usage events, newest first.
func (a *App) Events(p RangeParams, modelName string, limit, offset int) ([]model.UsageEvent, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return nil, err
	}
	return a.store.ListUsageEvents(home.ID, r, modelName, limit, offset)
}

// ContextStats reports context-window pressure over the selected range.
func (a *App) ContextStats(p RangeParams) (model.ContextPressureStats, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return model.ContextPressureStats{}, err
	}
	r, err := a.resolveRange(p)
	if err != nil {
		return model.ContextPressureStats{}, err
	}
	return a.store.ContextPressureStats(home.ID, r)
}

// LatestContext returns the most recent context-window reading.
func (a *App) LatestContext() (model.ContextStatus, bool, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return model.ContextStatus{}, false, err
	}
	return a.store.LatestContext(home.ID)
}

// ActiveSessions lists sessions seen within the last minutes. A nil minutes
// uses the configured default.
func (a *App) ActiveSessions(minutes *int) ([]model.ActiveSession, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	m := 0
	if minutes != nil {
		m = *minutes
	}
	if m <= 0 {
		m, err = a.store.ContextActiveMinutes()
		if err != nil {
			return nil, err
		}
	}
	since := model.FormatTS(time.Now().Add(-time.Duration(m) * time.Minute))
	return a.store.ActiveSessions(home.ID, since)
}

// LimitsLatest returns the most recent snapshot of each rate-limit window,
// current or not.
func (a *App) LimitsLatest() (short, long *model.LimitSnapshot, err error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, nil, err
	}
	if snap, ok, err := a.store.LatestLimitSnapshot(home.ID, model.LimitShort); err != nil {
		return nil, nil, err
	} else if ok {
		short = &snap
	}
	if snap, ok, err := a.store.LatestLimitSnapshot(home.ID, model.LimitLong); err != nil {
		return nil, nil, err
	} else if ok {
		long = &snap
	}
	return short, long, nil
}

// LimitsCurrent aggregates usage inside the currently open 5h and 7d windows.
func (a *App) LimitsCurrent() (model.CurrentLimits, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return model.CurrentLimits{}, err
	}
	short, err := a.store.LimitCurrentWindow(home.ID, model.LimitShort)
	if err != nil {
		return model.CurrentLimits{}, err
	}
	long, err := a.store.LimitCurrentWindow(home.ID, model.LimitLong)
	if err != nil {
		return model.CurrentLimits{}, err
	}
	return model.CurrentLimits{Short: short, Long: long}, nil
}

// Limits7dWindows reconstructs historical 7d windows from observed reset
// boundaries, oldest first. limit > 0 keeps only the most recent windows.
func (a *App) Limits7dWindows(limit int) ([]model.LimitWindow, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return nil, err
	}
	return a.store.LimitWindows(home.ID, limit)
}
