// Package config loads runtime settings for the effect scheduler from TOML.
// Settings are an overlay on defaults: only keys present in the file
// override.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// Runtime carries the tunables a run consumes.
type Runtime struct {
	// DefaultTimeout, when non-zero, bounds every run started with this
	// config; zero means no implicit deadline.
	DefaultTimeout time.Duration

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string

	// Development switches the logger to zap's development encoding.
	Development bool
}

// Default returns the settings used when no file overrides them.
func Default() Runtime {
	return Runtime{
		DefaultTimeout: 0,
		LogLevel:       "info",
	}
}

// fileConfig is the raw TOML key mapping.
type fileConfig struct {
	DefaultTimeout string `toml:"default_timeout"`
	LogLevel       string `toml:"log_level"`
	Development    bool   `toml:"development"`
}

// Load reads path and overlays its defined keys on Default.
func Load(path string) (Runtime, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Runtime{}, fmt.Errorf("load runtime config: %w", err)
	}

	if meta.IsDefined("default_timeout") {
		d, err := time.ParseDuration(raw.DefaultTimeout)
		if err != nil {
			return Runtime{}, fmt.Errorf("load runtime config: default_timeout: %w", err)
		}
		cfg.DefaultTimeout = d
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = raw.LogLevel
	}
	if meta.IsDefined("development") {
		cfg.Development = raw.Development
	}
	return cfg, nil
}

// BuildLogger constructs a zap logger honoring LogLevel and Development.
func (r Runtime) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(r.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	zc := zap.NewProductionConfig()
	if r.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
