package app

import (
	"fmt"
	"os"

	"github.com/theirongolddev/cxburn/internal/model"
)

// ListHomes returns every registered home.
func (a *App) ListHomes() ([]model.Home, error) {
	return a.store.ListHomes()
}

// CreateHome registers a new usage home and makes it active. The path must be
// an existing directory.
func (a *App) CreateHome(path, label string) (model.Home, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Home{}, fmt.Errorf("home path %s: %w", path, err)
	}
	if !info.IsDir() {
		return model.Home{}, fmt.Errorf("home path %s is not a directory", path)
	}
	home, err := a.store.AddHome(path, label)
	if err != nil {
		return model.Home{}, err
	}
	if err := a.store.SetActiveHome(home.ID); err != nil {
		return model.Home{}, err
	}
	return home, nil
}

// SetActiveHome switches the active home.
func (a *App) SetActiveHome(id int64) error {
	return a.store.SetActiveHome(id)
}

// DeleteHome removes a home and its data. The last home cannot be removed;
// when the active home is removed, another one becomes active.
func (a *App) DeleteHome(id int64) error {
	n, err := a.store.CountHomes()
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastHome
	}

	active, ok, err := a.store.ActiveHome()
	if err != nil {
		return err
	}
	if err := a.store.DeleteHome(id); err != nil {
		return err
	}
	if ok && active.ID == id {
		homes, err := a.store.ListHomes()
		if err != nil {
			return err
		}
		if len(homes) > 0 {
			return a.store.SetActiveHome(homes[0].ID)
		}
	}
	return nil
}

// ClearHomeData drops a home's ingested data but keeps the registration, so
// the next ingest rebuilds it from the logs.
func (a *App) ClearHomeData(id int64) error {
	return a.store.ClearHomeData(id)
}
