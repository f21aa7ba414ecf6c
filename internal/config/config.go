// Package config provides configuration management for viewkit using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration is read from .viewkit.yml by default. Every key can be
// overridden from the environment with the VIEWKIT_ prefix, for example
// VIEWKIT_TEMPLATES_ENGINE=pongo2 or VIEWKIT_TEMPLATES_SOURCES=./a,./b.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	// EngineAuto selects the highest priority available engine.
	EngineAuto = "auto"

	// DefaultContentKey is the alias a layout includes to render the view.
	DefaultContentKey = "content"
	// DefaultDebounce is the quiet period the watcher waits for.
	DefaultDebounce = 200 * time.Millisecond
)

// Config is the complete viewkit configuration.
type Config struct {
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
}

// TemplatesConfig describes where templates live and how names resolve.
type TemplatesConfig struct {
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	Suffix string `mapstructure:"suffix" yaml:"suffix"`
	// Engine is "auto" or a provider name.
	Engine string `mapstructure:"engine" yaml:"engine"`
	// Sources are searched in order; the first one holding a template wins.
	Sources []string          `mapstructure:"sources" yaml:"sources"`
	Aliases map[string]string `mapstructure:"aliases" yaml:"aliases,omitempty"`
	Layout  LayoutConfig      `mapstructure:"layout" yaml:"layout"`
	Cache   bool              `mapstructure:"cache" yaml:"cache"`
}

// LayoutConfig names the layout every view is wrapped in.
type LayoutConfig struct {
	Name       string `mapstructure:"name" yaml:"name,omitempty"`
	ContentKey string `mapstructure:"content_key" yaml:"content_key"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// SetDefaults registers default values on v. Keys with a default are also
// the keys AutomaticEnv can override during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("templates.prefix", "")
	v.SetDefault("templates.suffix", "")
	v.SetDefault("templates.engine", EngineAuto)
	v.SetDefault("templates.sources", []string{"./templates"})
	v.SetDefault("templates.layout.name", "")
	v.SetDefault("templates.layout.content_key", DefaultContentKey)
	v.SetDefault("templates.cache", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("watch.debounce", DefaultDebounce)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads, defaults and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	// A sources list set to an empty value falls back to the default.
	if len(config.Templates.Sources) == 0 {
		config.Templates.Sources = []string{"./templates"}
	}
	if config.Templates.Layout.ContentKey == "" {
		config.Templates.Layout.ContentKey = DefaultContentKey
	}
	if config.Templates.Engine == "" {
		config.Templates.Engine = EngineAuto
	}
	if config.Templates.Aliases == nil {
		config.Templates.Aliases = make(map[string]string)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
