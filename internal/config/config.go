// Package config handles panel configuration loading, parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the full ledged configuration: an ordered set of panel entries.
type Config struct {
	Panels []PanelConfig `toml:"panels" yaml:"panels"`
}

// DefaultConfig returns the stock two-entry configuration: a top panel that
// spans the output and reserves space, and a centered bottom dock with
// autohide.
func DefaultConfig() *Config {
	return &Config{
		Panels: []PanelConfig{
			{
				Name:                  "Panel",
				Anchor:                AnchorTop,
				Layer:                 LayerTop,
				KeyboardInteractivity: KeyboardNone,
				Size:                  SizeM,
				Output:                OutputAll,
				Background:            Background{Style: BackgroundTheme, Alpha: 1},
				PluginsWingStart:      []string{"workspaces"},
				PluginsCenter:         []string{"clock"},
				PluginsWingEnd:        []string{"tray", "battery"},
				ExpandToEdges:         true,
				Padding:               4,
				Spacing:               4,
				ExclusiveZone:         true,
				Opacity:               1,
			},
			{
				Name:                  "Dock",
				Anchor:                AnchorBottom,
				Layer:                 LayerTop,
				KeyboardInteractivity: KeyboardNone,
				Size:                  SizeL,
				Output:                OutputAll,
				Background:            Background{Style: BackgroundTheme, Alpha: 1},
				PluginsCenter:         []string{"launcher"},
				Padding:               4,
				Spacing:               4,
				ExclusiveZone:         true,
				AutoHide:              &AutoHide{WaitMS: 1000, TransitionMS: 200, HandlePX: 4},
				BorderRadius:          8,
				Margin:                4,
				AnchorGap:             true,
				Opacity:               1,
			},
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "ledge", "config.toml")
}

// Load reads configuration from the specified path. If path is empty the
// default config path is used; a missing file yields the default config.
// TOML and YAML are both accepted, chosen by file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := &Config{}
	var seen alphaFields
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
		if err == nil {
			err = yaml.Unmarshal(data, &seen)
		}
	default:
		err = toml.Unmarshal(data, cfg)
		if err == nil {
			err = toml.Unmarshal(data, &seen)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	applyDefaults(cfg, &seen)
	return cfg, nil
}

// alphaFields mirrors the config document just enough to tell an explicit
// zero opacity or background alpha from an absent field.
type alphaFields struct {
	Panels []struct {
		Opacity    *float64 `toml:"opacity" yaml:"opacity"`
		Background struct {
			Alpha *float64 `toml:"alpha" yaml:"alpha"`
		} `toml:"background" yaml:"background"`
	} `toml:"panels" yaml:"panels"`
}

func (a *alphaFields) opacitySet(i int) bool {
	return a != nil && i < len(a.Panels) && a.Panels[i].Opacity != nil
}

func (a *alphaFields) alphaSet(i int) bool {
	return a != nil && i < len(a.Panels) && a.Panels[i].Background.Alpha != nil
}

// applyDefaults fills zero-valued fields every panel entry is expected to
// carry, so partial files behave like the stock config. An explicit zero
// opacity or alpha in the file survives; only an absent field gets the
// opaque default.
func applyDefaults(cfg *Config, seen *alphaFields) {
	for i := range cfg.Panels {
		p := &cfg.Panels[i]
		if p.Anchor == "" {
			p.Anchor = AnchorTop
		}
		if p.Layer == "" {
			p.Layer = LayerTop
		}
		if p.KeyboardInteractivity == "" {
			p.KeyboardInteractivity = KeyboardNone
		}
		if p.Size == "" {
			p.Size = SizeM
		}
		if p.Output == "" {
			p.Output = OutputAll
		}
		if p.Background.Style == "" {
			p.Background.Style = BackgroundTheme
		}
		if p.Background.Alpha == 0 && !seen.alphaSet(i) {
			p.Background.Alpha = 1
		}
		if p.Opacity == 0 && !seen.opacitySet(i) {
			p.Opacity = 1
		}
		// Empty plugin lists decode as empty slices but are written as nil
		// by the stock config; collapse them so a saved file loads back
		// equal and a reload diff sees no change.
		if len(p.PluginsWingStart) == 0 {
			p.PluginsWingStart = nil
		}
		if len(p.PluginsCenter) == 0 {
			p.PluginsCenter = nil
		}
		if len(p.PluginsWingEnd) == 0 {
			p.PluginsWingEnd = nil
		}
	}
}

// Save writes the configuration to the specified path, creating parent
// directories if needed. The encoding follows the file extension.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = toml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every panel entry and also rejects duplicate panel names,
// since the panel name is the registry key for its bindings. It returns the
// errors for the offending entries; valid entries remain usable.
func (c *Config) Validate() []error {
	var errs []error
	names := make(map[string]bool)
	for i := range c.Panels {
		p := &c.Panels[i]
		if names[p.Name] {
			errs = append(errs, &ValidationError{Panel: p.Name, Field: "name", Reason: "duplicates another panel entry"})
			continue
		}
		names[p.Name] = true
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ValidPanels returns the panel entries that pass validation, skipping
// duplicates and schema violations.
func (c *Config) ValidPanels() []PanelConfig {
	out := make([]PanelConfig, 0, len(c.Panels))
	names := make(map[string]bool)
	for i := range c.Panels {
		p := c.Panels[i]
		if names[p.Name] || p.Validate() != nil {
			continue
		}
		names[p.Name] = true
		out = append(out, p)
	}
	return out
}

// Panel returns the entry with the given name, or nil.
func (c *Config) Panel(name string) *PanelConfig {
	for i := range c.Panels {
		if c.Panels[i].Name == name {
			return &c.Panels[i]
		}
	}
	return nil
}
