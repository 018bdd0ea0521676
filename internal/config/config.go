// Package config loads StepBoard settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"StepBoard/internal/state"
)

// Config is the full application configuration.
type Config struct {
	Canvas   Canvas   `toml:"canvas"`
	Executor Executor `toml:"executor"`
	Feed     Feed     `toml:"feed"`
	LLM      LLM      `toml:"llm"`
	Corpus   Corpus   `toml:"corpus"`
	Log      Log      `toml:"log"`
}

type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Executor holds the pen a replay starts with.
type Executor struct {
	DefaultColor string `toml:"default_color"`
	DefaultWidth int    `toml:"default_width"`
}

// Feed configures the websocket event feed for remote viewers.
type Feed struct {
	Enabled   bool `toml:"enabled"`
	Port      int  `toml:"port"`
	Advertise bool `toml:"advertise"`
}

// LLM configures the step-text generator.
type LLM struct {
	URL            string `toml:"url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
}

// Timeout returns the request timeout as a duration.
func (l LLM) Timeout() time.Duration { return time.Duration(l.TimeoutSeconds) * time.Second }

type Corpus struct {
	Path string `toml:"path"`
}

type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Canvas:   Canvas{Width: 1024, Height: 768},
		Executor: Executor{DefaultColor: "black", DefaultWidth: 2},
		Feed:     Feed{Enabled: false, Port: 8888, Advertise: true},
		LLM: LLM{
			URL:            "http://localhost:11434",
			Model:          "qwen2.5:7b",
			TimeoutSeconds: 60,
			Retries:        2,
		},
		Corpus: Corpus{Path: "training_data.json"},
		Log:    Log{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height))
	}
	if _, ok := state.LookupColor(c.Executor.DefaultColor); !ok {
		errs = append(errs, fmt.Errorf("executor.default_color %q is not in the palette", c.Executor.DefaultColor))
	}
	if !state.ValidStrokeWidth(c.Executor.DefaultWidth) {
		errs = append(errs, fmt.Errorf("executor.default_width %d outside [%d,%d]",
			c.Executor.DefaultWidth, state.MinStrokeWidth, state.MaxStrokeWidth))
	}
	if c.Feed.Port <= 0 || c.Feed.Port > 65535 {
		errs = append(errs, fmt.Errorf("feed.port %d out of range", c.Feed.Port))
	}
	if c.LLM.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_seconds must be positive"))
	}
	if c.LLM.Retries < 0 {
		errs = append(errs, fmt.Errorf("llm.retries must not be negative"))
	}
	return errors.Join(errs...)
}
