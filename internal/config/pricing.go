package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/cxburn/internal/model"
)

// pricingFile is the on-disk shape of the pricing seed: a list of [[rule]]
// tables.
type pricingFile struct {
	Rule []model.PricingRuleInput `toml:"rule"`
}

// PricingPath returns the full path to the pricing seed file.
func PricingPath() string {
	return filepath.Join(ConfigDir(), "pricing.toml")
}

// DefaultPricingRules returns the built-in pricing used when no seed file
// exists. Rates are USD per million tokens.
func DefaultPricingRules() []model.PricingRuleInput {
	from := "2025-08-07T00:00:00.000Z"
	return []model.PricingRuleInput{
		{ModelPattern: "gpt-5", InputPer1M: 1.25, CachedInputPer1M: 0.125, OutputPer1M: 10.00, EffectiveFrom: from},
		{ModelPattern: "gpt-5-codex", InputPer1M: 1.25, CachedInputPer1M: 0.125, OutputPer1M: 10.00, EffectiveFrom: from},
		{ModelPattern: "gpt-5-mini", InputPer1M: 0.25, CachedInputPer1M: 0.025, OutputPer1M: 2.00, EffectiveFrom: from},
		{ModelPattern: "gpt-5-nano", InputPer1M: 0.05, CachedInputPer1M: 0.005, OutputPer1M: 0.40, EffectiveFrom: from},
		{ModelPattern: "gpt-5*", InputPer1M: 1.25, CachedInputPer1M: 0.125, OutputPer1M: 10.00, EffectiveFrom: from},
	}
}

// LoadPricingSeed returns the rules from the seed file, or the built-in
// defaults when the file does not exist.
func LoadPricingSeed(path string) ([]model.PricingRuleInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPricingRules(), nil
		}
		return nil, fmt.Errorf("reading pricing seed: %w", err)
	}

	var file pricingFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing pricing seed: %w", err)
	}
	return file.Rule, nil
}

// WritePricingSeed rewrites the seed file so rule edits survive a database
// reset.
func WritePricingSeed(path string, rules []model.PricingRuleInput) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating pricing seed dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating pricing seed: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(pricingFile{Rule: rules})
}
