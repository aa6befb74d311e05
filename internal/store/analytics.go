package store

import (
	"database/sql"

	"github.com/theirongolddev/cxburn/internal/model"
	"github.com/theirongolddev/cxburn/internal/pricing"
)

// usageRow is the slice of a usage event the aggregations need. Token
// counts are the per-event deltas written at ingest.
type usageRow struct {
	id      string
	ts      string
	model   string
	tokens  model.TokenTotals
	costUSD *float64
	source  string
	effort  *string
}

func (s *Store) loadUsageRows(homeID int64, r model.TimeRange, modelName string) ([]usageRow, error) {
	q := `SELECT id, ts, model, input_tokens, cached_input_tokens, output_tokens,
			reasoning_output_tokens, total_tokens, cost_usd, source, reasoning_effort
		FROM usage_event
		WHERE home_id = ? AND ts >= ? AND ts < ?`
	args := []any{homeID, r.Start, r.End}
	if modelName != "" {
		q += " AND model = ?"
		args = append(args, modelName)
	}
	q += " ORDER BY ts ASC"
	return s.queryUsageRows(q, args...)
}

func (s *Store) loadAllUsageRows(homeID int64) ([]usageRow, error) {
	return s.queryUsageRows(`SELECT id, ts, model, input_tokens, cached_input_tokens, output_tokens,
			reasoning_output_tokens, total_tokens, cost_usd, source, reasoning_effort
		FROM usage_event
		WHERE home_id = ?
		ORDER BY ts ASC`, homeID)
}

func (s *Store) queryUsageRows(q string, args ...any) ([]usageRow, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []usageRow
	for rows.Next() {
		var row usageRow
		var cost sql.NullFloat64
		var effort sql.NullString
		if err := rows.Scan(&row.id, &row.ts, &row.model,
			&row.tokens.Input, &row.tokens.CachedInput, &row.tokens.Output,
			&row.tokens.ReasoningOutput, &row.tokens.Total,
			&cost, &row.source, &effort); err != nil {
			return nil, err
		}
		row.costUSD = f64FromNull(cost)
		row.effort = strFromNull(effort)
		out = append(out, row)
	}
	return out, rows.Err()
}

// rowCost prices one row: the cost stored at ingest wins, otherwise the
// current pricing rules are consulted. known is false when neither applies.
func rowCost(rules []model.PricingRule, row usageRow) (breakdown model.CostBreakdown, known bool) {
	if row.costUSD != nil {
		return model.CostBreakdown{TotalUSD: *row.costUSD}, true
	}
	rule := pricing.Resolve(rules, row.model, row.ts)
	if rule == nil {
		return model.CostBreakdown{}, false
	}
	return pricing.Cost(rule, row.tokens), true
}

// Summary aggregates token and cost totals over a range. Cost fields are
// nil when no event in the range could be priced.
func (s *Store) Summary(homeID int64, r model.TimeRange) (model.UsageSummary, error) {
	rules, err := s.ListPricingRules()
	if err != nil {
		return model.UsageSummary{}, err
	}
	rows, err := s.loadUsageRows(homeID, r, "")
	if err != nil {
		return model.UsageSummary{}, err
	}

	var out model.UsageSummary
	var cost model.CostBreakdown
	costKnown := false
	for _, row := range rows {
		out.EventCount++
		out.InputTokens += row.tokens.Input
		out.CachedInputTokens += row.tokens.CachedInput
		out.OutputTokens += row.tokens.Output
		out.ReasoningOutputTokens += row.tokens.ReasoningOutput
		out.TotalTokens += row.tokens.Total

		c, known := rowCost(rules, row)
		if known {
			costKnown = true
		}
		cost.InputUSD += c.InputUSD
		cost.CachedInputUSD += c.CachedInputUSD
		cost.OutputUSD += c.OutputUSD
		cost.TotalUSD += c.TotalUSD
	}
	if costKnown {
		out.TotalCostUSD = &cost.TotalUSD
		out.InputCostUSD = &cost.InputUSD
		out.CachedInputCostUSD = &cost.CachedInputUSD
		out.OutputCostUSD = &cost.OutputUSD
	}
	return out, nil
}

// MessageCountInRange counts user messages inside a range.
func (s *Store) MessageCountInRange(homeID int64, r model.TimeRange) (uint64, error) {
	var n uint64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM message_event
		WHERE home_id = ? AND role = 'user' AND ts >= ? AND ts < ?`,
		homeID, r.Start, r.End).Scan(&n)
	return n, err
}

// Timeseries buckets usage over a range. Every bucket between the range
// bounds appears in the result, zero-valued when nothing happened in it.
func (s *Store) Timeseries(homeID int64, r model.TimeRange, bucket model.Bucket, metric model.Metric) ([]model.TimeSeriesPoint, error) {
	start, err := model.ParseTS(r.Start)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseTS(r.End)
	if err != nil {
		return nil, err
	}

	var rules []model.PricingRule
	if metric == model.MetricCost {
		rules, err = s.ListPricingRules()
		if err != nil {
			return nil, err
		}
	}
	rows, err := s.loadUsageRows(homeID, r, "")
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64)
	for _, row := range rows {
		ts, err := model.ParseTS(row.ts)
		if err != nil {
			continue
		}
		key := model.FormatTS(bucket.Truncate(ts))
		switch metric {
		case model.MetricCost:
			c, known := rowCost(rules, row)
			if known {
				values[key] += c.TotalUSD
			}
		default:
			values[key] += float64(row.tokens.Total)
		}
	}

	var points []model.TimeSeriesPoint
	for t := bucket.Truncate(start); t.Before(end); t = bucket.Next(t) {
		key := model.FormatTS(t)
		points = append(points, model.TimeSeriesPoint{
			BucketStart: key,
			Value:       values[key],
		})
	}
	return points, nil
}

// ListUsageEvents pages through raw events in a range, newest first.
func (s *Store) ListUsageEvents(homeID int64, r model.TimeRange, modelName string, limit, offset int) ([]model.UsageEvent, error) {
	q := `SELECT id, ts, model, input_tokens, cached_input_tokens, output_tokens,
			reasoning_output_tokens, total_tokens, context_used, context_window,
			cost_usd, reasoning_effort, source, session_id, request_id, raw_json
		FROM usage_event
		WHERE home_id = ? AND ts >= ? AND ts < ?`
	args := []any{homeID, r.Start, r.End}
	if modelName != "" {
		q += " AND model = ?"
		args = append(args, modelName)
	}
	q += " ORDER BY ts DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []model.UsageEvent
	for rows.Next() {
		var ev model.UsageEvent
		var cost sql.NullFloat64
		var effort, requestID sql.NullString
		if err := rows.Scan(&ev.ID, &ev.TS, &ev.Model,
			&ev.Tokens.Input, &ev.Tokens.CachedInput, &ev.Tokens.Output,
			&ev.Tokens.ReasoningOutput, &ev.Tokens.Total,
			&ev.Context.Used, &ev.Context.Window,
			&cost, &effort, &ev.Source, &ev.SessionID, &requestID, &ev.RawJSON); err != nil {
			return nil, err
		}
		ev.CostUSD = f64FromNull(cost)
		ev.ReasoningEffort = strFromNull(effort)
		ev.RequestID = strFromNull(requestID)
		events = append(events, ev)
	}
	return events, rows.Err()
}
