// Package config loads fluid settings with Viper from a YAML file,
// environment variables and command-line flags.
//
// Environment variables use the FLUID_ prefix and underscores for nesting,
// e.g. FLUID_TEMPLATES_LOCATION or FLUID_CACHE_SCOPE.  templates.location is
// not required here; its absence is reported by the first view build.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tessera-cms/fluid/internal/logging"
	"github.com/tessera-cms/fluid/views"
)

// EnvPrefix prefixes the environment variables that override settings.
const EnvPrefix = "FLUID"

type Config struct {
	Application ApplicationConfig `mapstructure:"application"`
	Templates   TemplatesConfig   `mapstructure:"templates"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Locale      LocaleConfig      `mapstructure:"locale"`
	Scripts     ScriptsConfig     `mapstructure:"scripts"`
	Render      RenderConfig      `mapstructure:"render"`
	Log         LogConfig         `mapstructure:"log"`
}

type ApplicationConfig struct {
	Name string `mapstructure:"name"`
}

type TemplatesConfig struct {
	Location   string   `mapstructure:"location"`   // directory of the application's views
	Extensions []string `mapstructure:"extensions"` // view file extensions
	Manifest   string   `mapstructure:"manifest"`   // optional YAML manifest, relative to location
	Tenants    string   `mapstructure:"tenants"`    // optional directory of per-tenant view overrides
	Globals    string   `mapstructure:"globals"`    // optional YAML file of global values
}

type CacheConfig struct {
	Scope    string        `mapstructure:"scope"` // "process" or "tenant"
	Watch    bool          `mapstructure:"watch"` // invalidate on template changes
	Debounce time.Duration `mapstructure:"debounce"`
}

type LocaleConfig struct {
	Dir     string `mapstructure:"dir"`
	Default string `mapstructure:"default"`
}

type ScriptsConfig struct {
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RenderConfig struct {
	Layout     string `mapstructure:"layout"`
	Autoescape bool   `mapstructure:"autoescape"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every setting with its default value.  Settings
// must be registered for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("application.name", "fluid")
	v.SetDefault(views.LocationSetting, "")
	v.SetDefault("templates.extensions", views.DefaultExtensions)
	v.SetDefault("templates.manifest", "")
	v.SetDefault("templates.tenants", "")
	v.SetDefault("templates.globals", "")
	v.SetDefault("cache.scope", views.ScopeProcess.String())
	v.SetDefault("cache.watch", false)
	v.SetDefault("cache.debounce", views.DefaultDebounce)
	v.SetDefault("locale.dir", "")
	v.SetDefault("locale.default", "en")
	v.SetDefault("scripts.dir", "")
	v.SetDefault("scripts.timeout", time.Second)
	v.SetDefault("render.layout", "")
	v.SetDefault("render.autoescape", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Init registers the defaults of v and enables environment overrides.
func Init(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile merges the YAML configuration file into v.  An empty name is
// ignored.
func ReadFile(v *viper.Viper, configFile string) error {
	if configFile == "" {
		return nil
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configFile, err)
	}
	return nil
}

// New returns a Viper instance with defaults and environment overrides
// applied.  If configFile is not empty it is read as YAML.
func New(configFile string) (*viper.Viper, error) {
	var v = viper.New()
	Init(v)
	if err := ReadFile(v, configFile); err != nil {
		return nil, err
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if _, err := views.ParseScope(config.Cache.Scope); err != nil {
		return fmt.Errorf("cache.scope: %w", err)
	}
	if config.Cache.Debounce < 0 {
		return errors.New("cache.debounce must not be negative")
	}
	if config.Scripts.Timeout < 0 {
		return errors.New("scripts.timeout must not be negative")
	}
	for _, ext := range config.Templates.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("templates.extensions: %q must start with a dot", ext)
		}
	}
	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(config.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	return nil
}

// Scope returns the parsed cache scope.  Load has already validated it.
func (c *Config) Scope() views.Scope {
	var scope, _ = views.ParseScope(c.Cache.Scope)
	return scope
}
