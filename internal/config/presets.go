package config

import "sort"

var Presets = map[string]*Config{
	"tiny": {
		Width: 64, Height: 64, Density: 0.5, Seed: 1,
		Backend: "cpu", Frontend: "terminal",
	},
	"small": {
		Width: 256, Height: 256, Density: 0.5, Seed: 1,
		Backend: "auto", Frontend: "window",
	},
	"default": {
		Width: DefaultWidth, Height: DefaultHeight, Density: DefaultDensity, Seed: 1,
		Backend: "auto", Frontend: "window",
	},
	"sparse": {
		Width: DefaultWidth, Height: DefaultHeight, Density: 0.15, Seed: 7,
		Backend: "auto", Frontend: "window",
	},
	"large": {
		Width: 2000, Height: 2000, Density: 0.5, Seed: 1,
		Backend: "opengl", Frontend: "window",
	},
}

// GetPreset returns a copy of the named preset filled in with defaults for
// the fields it leaves unset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	def := DefaultConfig()
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.StatsInterval == 0 {
		cfg.StatsInterval = def.StatsInterval
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
