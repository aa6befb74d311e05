package app

import (
	"fmt"
	"os"

	"github.com/theirongolddev/cxburn/internal/config"
	"github.com/theirongolddev/cxburn/internal/model"
	"github.com/theirongolddev/cxburn/internal/pricing"
)

// ListPricing returns the stored pricing rules, newest effective date first.
func (a *App) ListPricing() ([]model.PricingRule, error) {
	return a.store.ListPricingRules()
}

// ReplacePricing validates and swaps in a new rule set, reprices the active
// home's stored events, and rewrites the seed file so the rules survive a
// database reset. A seed write failure is reported but does not undo the
// replacement.
func (a *App) ReplacePricing(rules []model.PricingRuleInput) (int, error) {
	if err := pricing.Validate(rules); err != nil {
		return 0, err
	}
	n, err := a.store.ReplacePricingRules(rules)
	if err != nil {
		return 0, err
	}
	if _, err := a.RecomputeCosts(); err != nil {
		return n, err
	}
	if err := config.WritePricingSeed(a.pricingPath, rules); err != nil {
		fmt.Fprintf(os.Stderr, "failed to update pricing seed: %v\n", err)
	}
	return n, nil
}

// RecomputeCosts reprices every stored event of the active home against the
// current rules and returns how many rows changed.
func (a *App) RecomputeCosts() (int, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return 0, err
	}
	return a.store.RecomputeCosts(home.ID)
}

// SeedPricing populates an empty pricing table from the seed file, or from
// the built-in defaults when no seed file exists. A populated table is left
// alone.
func (a *App) SeedPricing() error {
	rules, err := a.store.ListPricingRules()
	if err != nil {
		return err
	}
	if len(rules) > 0 {
		return nil
	}
	seed, err := config.LoadPricingSeed(a.pricingPath)
	if err != nil {
		return err
	}
	if len(seed) == 0 {
		return nil
	}
	if err := pricing.Validate(seed); err != nil {
		return fmt.Errorf("pricing seed: %w", err)
	}
	_, err = a.store.ReplacePricingRules(seed)
	return err
}
