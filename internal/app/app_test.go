package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/cxburn/internal/config"
	"github.com/theirongolddev/cxburn/internal/model"
	"github.com/theirongolddev/cxburn/internal/store"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := store.Open(filepath.Join(t.TempDir(), "cxburn.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	homeDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(homeDir, "sessions"), 0o750); err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{General: config.GeneralConfig{CodexHome: homeDir}}
	a := New(s, cfg)
	a.pricingPath = filepath.Join(t.TempDir(), "pricing.toml")
	return a
}

func TestActiveHomeAutoRegisters(t *testing.T) {
	a := newTestApp(t)

	home, err := a.ActiveHome()
	if err != nil {
		t.Fatal(err)
	}
	if home.Path != a.cfg.General.CodexHome {
		t.Errorf("home path = %q, want the configured codex home", home.Path)
	}
	again, err := a.ActiveHome()
	if err != nil || again.ID != home.ID {
		t.Errorf("second call should return the same home: %+v, %v", again, err)
	}
}

func TestRunIngestEmptyHome(t *testing.T) {
	a := newTestApp(t)

	stats, err := a.RunIngest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.EventsInserted != 0 || stats.FilesScanned != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCreateHomeValidatesPath(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.CreateHome(filepath.Join(t.TempDir(), "missing"), "x"); err == nil {
		t.Error("nonexistent path should be rejected")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := a.CreateHome(file, "x"); err == nil {
		t.Error("plain file should be rejected")
	}

	dir := t.TempDir()
	home, err := a.CreateHome(dir, "work")
	if err != nil {
		t.Fatal(err)
	}
	active, err := a.ActiveHome()
	if err != nil || active.ID != home.ID {
		t.Errorf("created home should become active: %+v, %v", active, err)
	}
}

func TestDeleteHomeGuards(t *testing.T) {
	a := newTestApp(t)

	first, err := a.ActiveHome()
	if err != nil {
		t.Fatal(err)
	}
	if err := a.DeleteHome(first.ID); !errors.Is(err, ErrLastHome) {
		t.Fatalf("deleting the only home: err = %v, want ErrLastHome", err)
	}

	second, err := a.CreateHome(t.TempDir(), "second")
	if err != nil {
		t.Fatal(err)
	}
	// second is now active; deleting it must re-target the remaining home.
	if err := a.DeleteHome(second.ID); err != nil {
		t.Fatal(err)
	}
	active, err := a.ActiveHome()
	if err != nil || active.ID != first.ID {
		t.Errorf("active after delete = %+v, want the first home", active)
	}
}

func TestReplacePricingRewritesSeed(t *testing.T) {
	a := newTestApp(t)

	rules := []model.PricingRuleInput{
		{ModelPattern: "gpt-5", InputPer1M: 2, CachedInputPer1M: 0.5, OutputPer1M: 8, EffectiveFrom: "2025-01-01T00:00:00.000Z"},
	}
	n, err := a.ReplacePricing(rules)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("replaced %d rules, want 1", n)
	}
	seed, err := config.LoadPricingSeed(a.pricingPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(seed) != 1 || seed[0].ModelPattern != "gpt-5" {
		t.Errorf("seed file not rewritten: %+v", seed)
	}
}

func TestReplacePricingRejectsOverlap(t *testing.T) {
	a := newTestApp(t)

	rules := []model.PricingRuleInput{
		{ModelPattern: "gpt-5", InputPer1M: 2, OutputPer1M: 8, EffectiveFrom: "2025-01-01T00:00:00.000Z"},
		{ModelPattern: "gpt-5", InputPer1M: 3, OutputPer1M: 9, EffectiveFrom: "2025-06-01T00:00:00.000Z"},
	}
	if _, err := a.ReplacePricing(rules); err == nil {
		t.Error("open-ended overlapping rules should be rejected")
	}
	stored, err := a.ListPricing()
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 0 {
		t.Errorf("rejected rules must not be stored: %+v", stored)
	}
}

func TestSeedPricingOnlyWhenEmpty(t *testing.T) {
	a := newTestApp(t)

	if err := a.SeedPricing(); err != nil {
		t.Fatal(err)
	}
	seeded, err := a.ListPricing()
	if err != nil {
		t.Fatal(err)
	}
	if len(seeded) == 0 {
		t.Fatal("empty table should be seeded from the defaults")
	}

	custom := []model.PricingRuleInput{
		{ModelPattern: "gpt-5", InputPer1M: 2, OutputPer1M: 8, EffectiveFrom: "2025-01-01T00:00:00.000Z"},
	}
	if _, err := a.ReplacePricing(custom); err != nil {
		t.Fatal(err)
	}
	if err := a.SeedPricing(); err != nil {
		t.Fatal(err)
	}
	after, err := a.ListPricing()
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 || after[0].ModelPattern != "gpt-5" {
		t.Errorf("seeding must not clobber existing rules: %+v", after)
	}
}

func TestUpdateSettingsMinutes(t *testing.T) {
	a := newTestApp(t)

	m := 15
	if err := a.UpdateSettings(SettingsPatch{ContextActiveMinutes: &m}); err != nil {
		t.Fatal(err)
	}
	got, err := a.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if got.ContextActiveMinutes != 15 {
		t.Errorf("minutes = %d, want 15", got.ContextActiveMinutes)
	}
}

func TestResolveRangeUsesConfiguredDefault(t *testing.T) {
	a := newTestApp(t)
	a.cfg.General.DefaultRange = "bogus"

	if _, err := a.Summary(RangeParams{}); err == nil {
		t.Error("a bad configured default range should surface as an error")
	}
	if _, err := a.Summary(RangeParams{Preset: model.RangeToday}); err != nil {
		t.Errorf("explicit preset must bypass the default: %v", err)
	}
}
