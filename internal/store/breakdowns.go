package store

import (
	"sort"

	"github.com/theirongolddev/cxburn/internal/model"
	"github.com/theirongolddev/cxburn/internal/pricing"
)

// BreakdownByModel groups usage by model, largest first.
func (s *Store) BreakdownByModel(homeID int64, r model.TimeRange) ([]model.ModelBreakdown, error) {
	rules, err := s.ListPricingRules()
	if err != nil {
		return nil, err
	}
	rows, err := s.loadUsageRows(homeID, r, "")
	if err != nil {
		return nil, err
	}

	tokens := make(map[string]uint64)
	costs := make(map[string]float64)
	costKnown := make(map[string]bool)
	for _, row := range rows {
		tokens[row.model] += row.tokens.Total
		c, known := rowCost(rules, row)
		costs[row.model] += c.TotalUSD
		if known {
			costKnown[row.model] = true
		}
	}

	out := make([]model.ModelBreakdown, 0, len(tokens))
	for name, total := range tokens {
		bd := model.ModelBreakdown{Model: name, TotalTokens: total}
		if costKnown[name] {
			cost := costs[name]
			bd.TotalCostUSD = &cost
		}
		out = append(out, bd)
	}
	sortByTokens(out, func(b model.ModelBreakdown) uint64 { return b.TotalTokens })
	return out, nil
}

// BreakdownByModelTokens reports the full token composition per model.
func (s *Store) BreakdownByModelTokens(homeID int64, r model.TimeRange) ([]model.ModelTokenBreakdown, error) {
	rows, err := s.loadUsageRows(homeID, r, "")
	if err != nil {
		return nil, err
	}

	totals := make(map[string]model.TokenTotals)
	for _, row := range rows {
		totals[row.model] = totals[row.model].Add(row.tokens)
	}

	out := make([]model.ModelTokenBreakdown, 0, len(totals))
	for name, t := range totals {
		out = append(out, model.ModelTokenBreakdown{Model: name, Tokens: t})
	}
	sortByTokens(out, func(b model.ModelTokenBreakdown) uint64 { return b.Tokens.Total })
	return out, nil
}

// BreakdownByModelCosts reports token composition plus priced cost
// components per model. Cost fields stay nil for models no rule covers.
func (s *Store) BreakdownByModelCosts(homeID int64, r model.TimeRange) ([]model.ModelCostBreakdown, error) {
	rules, err := s.ListPricingRules()
	if err != nil {
		return nil, err
	}
	rows, err := s.loadUsageRows(homeID, r, "")
	if err != nil {
		return nil, err
	}

	totals := make(map[string]model.TokenTotals)
	costs := make(map[string]model.CostBreakdown)
	costKnown := make(map[string]bool)
	for _, row := range rows {
		totals[row.model] = totals[row.model].Add(row.tokens)
		// Component costs always come from pricing; a stored total
		// cannot be split.
		if rule := pricing.Resolve(rules, row.model, row.ts); rule != nil {
			c := pricing.Cost(rule, row.tokens)
			acc := costs[row.model]
			acc.InputUSD += c.InputUSD
			acc.CachedInputUSD += c.CachedInputUSD
			acc.OutputUSD += c.OutputUSD
			acc.TotalUSD += c.TotalUSD
			costs[row.model] = acc
			costKnown[row.model] = true
		}
	}

	out := make([]model.ModelCostBreakdown, 0, len(totals))
	for name, t := range totals {
		bd := model.ModelCostBreakdown{Model: name, Tokens: t}
		if costKnown[name] {
			c := costs[name]
			bd.InputCostUSD = &c.InputUSD
			bd.CachedInputCostUSD = &c.CachedInputUSD
			bd.OutputCostUSD = &c.OutputUSD
			bd.TotalCostUSD = &c.TotalUSD
		}
		out = append(out, bd)
	}
	sortByTokens(out, func(b model.ModelCostBreakdown) uint64 { return b.Tokens.Total })
	return out, nil
}

type modelEffortKey struct {
	model  string
	effort string
	known  bool
}

func effortKey(m string, effort *string) modelEffortKey {
	k := modelEffortKey{model: m}
	if effort != nil {
		k.effort = *effort
		k.known = true
	}
	return k
}

func (k modelEffortKey) effortPtr() *string {
	if !k.known {
		return nil
	}
	e := k.effort
	return &e
}

// BreakdownByModelEffortTokens groups token composition by model and
// reasoning effort. Events whose effort was never observed group under a
// nil effort.
func (s *Store) BreakdownByModelEffortTokens(homeID int64, r model.TimeRange) ([]model.ModelEffortTokenBreakdown, error) {
	rows, err := s.loadUsageRows(homeID, r, "")
	if err != nil {
		return nil, err
	}

	totals := make(map[modelEffortKey]model.TokenTotals)
	for _, row := range rows {
		k := effortKey(row.model, row.effort)
		totals[k] = totals[k].Add(row.tokens)
	}

	out := make([]model.ModelEffortTokenBreakdown, 0, len(totals))
	for k, t := range totals {
		out = append(out, model.ModelEffortTokenBreakdown{
			Model:           k.model,
			ReasoningEffort: k.effortPtr(),
			Tokens:          t,
		})
	}
	sortByTokens(out, func(b model.ModelEffortTokenBreakdown) uint64 { return b.Tokens.Total })
	return out, nil
}

// BreakdownByModelEffortCosts adds priced cost components to the per-effort
// grouping.
func (s *Store) BreakdownByModelEffortCosts(homeID int64, r model.TimeRange) ([]model.ModelEffortCostBreakdown, error) {
	rules, err := s.ListPricingRules()
	if err != nil {
		return nil, err
	}
	rows, err := s.loadUsageRows(homeID, r, "")
	if err != nil {
		return nil, err
	}

	totals := make(map[modelEffortKey]model.TokenTotals)
	costs := make(map[modelEffortKey]model.CostBreakdown)
	costKnown := make(map[string]bool)
	for _, row := range rows {
		k := effortKey(row.model, row.effort)
		totals[k] = totals[k].Add(row.tokens)
		if rule := pricing.Resolve(rules, row.model, row.ts); rule != nil {
			c := pricing.Cost(rule, row.tokens)
			acc := costs[k]
			acc.InputUSD += c.InputUSD
			acc.CachedInputUSD += c.CachedInputUSD
			acc.OutputUSD += c.OutputUSD
			acc.TotalUSD += c.TotalUSD
			costs[k] = acc
			costKnown[row.model] = true
		}
	}

	out := make([]model.ModelEffortCostBreakdown, 0, len(totals))
	for k, t := range totals {
		bd := model.ModelEffortCostBreakdown{
			Model:           k.model,
			ReasoningEffort: k.effortPtr(),
			Tokens:          t,
		}
		if costKnown[k.model] {
			c := costs[k]
			bd.InputCostUSD = &c.InputUSD
			bd.CachedInputCostUSD = &c.CachedInputUSD
			bd.OutputCostUSD = &c.OutputUSD
			bd.TotalCostUSD = &c.TotalUSD
		}
		out = append(out, bd)
	}
	sortByTokens(out, func(b model.ModelEffortCostBreakdown) uint64 { return b.Tokens.Total })
	return out, nil
}

func sortByTokens[T any](items []T, total func(T) uint64) {
	sort.SliceStable(items, func(i, j int) bool {
		return total(items[i]) > total(items[j])
	})
}
