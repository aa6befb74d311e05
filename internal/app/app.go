// Package app wires the store, the ingest engine, and the config into the
// operations the command layer calls.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/theirongolddev/cxburn/internal/config"
	"github.com/theirongolddev/cxburn/internal/model"
	"github.com/theirongolddev/cxburn/internal/pipeline"
	"github.com/theirongolddev/cxburn/internal/store"
)

var (
	// ErrNoActiveHome is returned when an operation needs a home and none
	// is registered.
	ErrNoActiveHome = errors.New("no active home; add one with `cxburn homes add`")

	// ErrLastHome is returned when deleting the only registered home.
	ErrLastHome = errors.New("cannot remove the last home")
)

// App exposes every user-facing operation over one open store.
type App struct {
	store  *store.Store
	engine *pipeline.Engine
	cfg    config.Config

	pricingPath string
}

// New builds an App over an open store.
func New(st *store.Store, cfg config.Config) *App {
	return &App{
		store:       st,
		engine:      pipeline.New(st),
		cfg:         cfg,
		pricingPath: config.PricingPath(),
	}
}

// Store exposes the underlying store for read-only callers.
func (a *App) Store() *store.Store { return a.store }

// ActiveHome returns the active home, registering the configured codex home
// on first use.
func (a *App) ActiveHome() (model.Home, error) {
	home, ok, err := a.store.ActiveHome()
	if err != nil {
		return model.Home{}, err
	}
	if ok {
		return home, nil
	}
	return a.store.EnsureActiveHome(a.cfg.CodexHome())
}

// RunIngest ingests new log data for the active home.
func (a *App) RunIngest(ctx context.Context) (model.IngestStats, error) {
	home, err := a.ActiveHome()
	if err != nil {
		return model.IngestStats{}, err
	}
	return a.engine.Run(ctx, home.ID)
}

// RunIngestHome ingests new log data for one specific home.
func (a *App) RunIngestHome(ctx context.Context, homeID int64) (model.IngestStats, error) {
	return a.engine.Run(ctx, homeID)
}

// RangeParams selects a time range: an explicit start/end pair wins over the
// preset, and an empty preset falls back to the configured default.
type RangeParams struct {
	Preset string
	Start  *time.Time
	End    *time.Time
}

func (a *App) resolveRange(p RangeParams) (model.TimeRange, error) {
	preset := p.Preset
	if preset == "" {
		preset = a.cfg.General.DefaultRange
	}
	return model.ResolveRange(preset, p.Start, p.End)
}
