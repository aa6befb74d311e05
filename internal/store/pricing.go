package store

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/cxburn/internal/model"
	"github.com/theirongolddev/cxburn/internal/pricing"
)

// ListPricingRules returns all pricing rules, newest effective_from first.
func (s *Store) ListPricingRules() ([]model.PricingRule, error) {
	rows, err := s.db.Query(`SELECT id, model_pattern, input_per_1m, cached_input_per_1m,
			output_per_1m, effective_from, effective_to
		FROM pricing_rule
		ORDER BY effective_from DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rules []model.PricingRule
	for rows.Next() {
		var r model.PricingRule
		var to sql.NullString
		if err := rows.Scan(&r.ID, &r.ModelPattern, &r.InputPer1M, &r.CachedInputPer1M,
			&r.OutputPer1M, &r.EffectiveFrom, &to); err != nil {
			return nil, err
		}
		r.EffectiveTo = strFromNull(to)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ReplacePricingRules swaps the whole rule set in one transaction.
func (s *Store) ReplacePricingRules(rules []model.PricingRuleInput) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM pricing_rule"); err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`INSERT INTO pricing_rule (
		model_pattern, input_per_1m, cached_input_per_1m, output_per_1m,
		effective_from, effective_to
	) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rules {
		if _, err := stmt.Exec(r.ModelPattern, r.InputPer1M, r.CachedInputPer1M,
			r.OutputPer1M, r.EffectiveFrom, nullStr(r.EffectiveTo)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rules), nil
}

// RecomputeCosts reprices every stored usage event of a home under the
// current rules and returns how many rows changed. Events no rule covers get
// a NULL cost.
func (s *Store) RecomputeCosts(homeID int64) (int, error) {
	start := time.Now()
	rules, err := s.ListPricingRules()
	if err != nil {
		return 0, err
	}
	rows, err := s.loadAllUsageRows(homeID)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`UPDATE usage_event SET cost_usd = ?
		WHERE home_id = ? AND id = ? AND cost_usd IS NOT ?`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	changed := 0
	for _, row := range rows {
		var cost any
		if rule := pricing.Resolve(rules, row.model, row.ts); rule != nil {
			cost = pricing.Cost(rule, row.tokens).TotalUSD
		}
		res, err := stmt.Exec(cost, homeID, row.id, cost)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			changed++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if os.Getenv("CXBURN_INGEST_TIMING") != "" {
		fmt.Fprintf(os.Stderr, "recompute costs: rows=%d changed=%d total=%s\n",
			len(rows), changed, time.Since(start).Round(time.Millisecond))
	}
	return changed, nil
}
