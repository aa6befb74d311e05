// Package pricing resolves per-model token rates and computes event costs.
package pricing

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/cxburn/internal/model"
)

// MatchesPattern reports whether a model name matches a pricing pattern.
// Patterns are case-insensitive and '*' matches any run of characters; the
// whole name must match.
func MatchesPattern(pattern, modelName string) bool {
	p := strings.ToLower(pattern)
	n := strings.ToLower(modelName)
	if !strings.Contains(p, "*") {
		return p == n
	}
	parts := strings.Split(p, "*")
	if !strings.HasPrefix(n, parts[0]) {
		return false
	}
	n = n[len(parts[0]):]
	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(n, parts[i])
		if idx < 0 {
			return false
		}
		n = n[idx+len(parts[i]):]
	}
	return strings.HasSuffix(n, parts[len(parts)-1])
}

// Resolve picks the pricing rule governing modelName at timestamp ts. Rules
// whose half-open [effective_from, effective_to) window excludes ts are
// ignored. Exact patterns beat wildcard patterns; among equally specific
// candidates the latest effective_from wins. Returns nil when nothing
// matches.
func Resolve(rules []model.PricingRule, modelName, ts string) *model.PricingRule {
	var best *model.PricingRule
	bestExact := false
	for i := range rules {
		r := &rules[i]
		if !MatchesPattern(r.ModelPattern, modelName) {
			continue
		}
		if ts < r.EffectiveFrom {
			continue
		}
		if r.EffectiveTo != nil && ts >= *r.EffectiveTo {
			continue
		}
		exact := !strings.Contains(r.ModelPattern, "*")
		switch {
		case best == nil:
			best, bestExact = r, exact
		case exact && !bestExact:
			best, bestExact = r, exact
		case exact == bestExact && r.EffectiveFrom > best.EffectiveFrom:
			best = r
		}
	}
	return best
}

// Cost prices a token delta under a rule. Cached input tokens are billed at
// the cached rate only; uncached input is the input count net of the cached
// count.
func Cost(rule *model.PricingRule, tokens model.TokenTotals) model.CostBreakdown {
	cached := tokens.CachedInput
	uncached := tokens.Input
	if cached > uncached {
		cached = uncached
	}
	uncached -= cached

	in := float64(uncached) / 1e6 * rule.InputPer1M
	ci := float64(cached) / 1e6 * rule.CachedInputPer1M
	out := float64(tokens.Output) / 1e6 * rule.OutputPer1M
	return model.CostBreakdown{
		InputUSD:       in,
		CachedInputUSD: ci,
		OutputUSD:      out,
		TotalUSD:       in + ci + out,
	}
}

// Validate checks a replacement rule set: timestamps must parse, rates must
// be non-negative, windows must be well ordered, and rules sharing a pattern
// must not overlap in time.
func Validate(rules []model.PricingRuleInput) error {
	type window struct {
		from string
		to   *string
	}
	byPattern := make(map[string][]window)
	for i, r := range rules {
		if strings.TrimSpace(r.ModelPattern) == "" {
			return fmt.Errorf("rule %d: empty model_pattern", i)
		}
		if r.InputPer1M < 0 || r.CachedInputPer1M < 0 || r.OutputPer1M < 0 {
			return fmt.Errorf("rule %d (%s): negative rate", i, r.ModelPattern)
		}
		if _, err := model.ParseTS(r.EffectiveFrom); err != nil {
			return fmt.Errorf("rule %d (%s): bad effective_from: %w", i, r.ModelPattern, err)
		}
		if r.EffectiveTo != nil {
			if _, err := model.ParseTS(*r.EffectiveTo); err != nil {
				return fmt.Errorf("rule %d (%s): bad effective_to: %w", i, r.ModelPattern, err)
			}
			if *r.EffectiveTo <= r.EffectiveFrom {
				return fmt.Errorf("rule %d (%s): effective_to precedes effective_from", i, r.ModelPattern)
			}
		}
		key := strings.ToLower(r.ModelPattern)
		byPattern[key] = append(byPattern[key], window{from: r.EffectiveFrom, to: r.EffectiveTo})
	}
	for pattern, ws := range byPattern {
		for i := range ws {
			for j := i + 1; j < len(ws); j++ {
				if overlaps(ws[i].from, ws[i].to, ws[j].from, ws[j].to) {
					return fmt.Errorf("pattern %q: overlapping effective windows", pattern)
				}
			}
		}
	}
	return nil
}

func overlaps(aFrom string, aTo *string, bFrom string, bTo *string) bool {
	aEndsBeforeB := aTo != nil && *aTo <= bFrom
	bEndsBeforeA := bTo != nil && *bTo <= aFrom
	return !aEndsBeforeB && !bEndsBeforeA
}
