package app

import "github.com/theirongolddev/cxburn/internal/config"

// Settings is the user-adjustable runtime state.
type Settings struct {
	CodexHome            string
	DBPath               string
	DefaultRange         string
	ContextActiveMinutes int
}

// SettingsPatch updates only the fields that are set.
type SettingsPatch struct {
	CodexHome            *string
	DefaultRange         *string
	ContextActiveMinutes *int
}

// Settings returns the effective settings.
func (a *App) Settings() (Settings, error) {
	minutes, err := a.store.ContextActiveMinutes()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		CodexHome:            a.cfg.CodexHome(),
		DBPath:               a.cfg.DBPath(),
		DefaultRange:         a.cfg.General.DefaultRange,
		ContextActiveMinutes: minutes,
	}, nil
}

// UpdateSettings applies a patch: the active-session window is stored in the
// database, the rest in the config file.
func (a *App) UpdateSettings(p SettingsPatch) error {
	if p.ContextActiveMinutes != nil {
		if err := a.store.SetContextActiveMinutes(*p.ContextActiveMinutes); err != nil {
			return err
		}
	}
	if p.CodexHome == nil && p.DefaultRange == nil {
		return nil
	}
	if p.CodexHome != nil {
		a.cfg.General.CodexHome = *p.CodexHome
	}
	if p.DefaultRange != nil {
		a.cfg.General.DefaultRange = *p.DefaultRange
	}
	return config.Save(a.cfg)
}
