// Package config loads folio settings from defaults, an optional TOML file
// and FOLIO_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultPort         = "8080"
	DefaultMode         = "release"
	DefaultDataFile     = "data.json"
	DefaultAboutFormat  = "text"
	DefaultFetchTimeout = "30s"
	DefaultStorage      = StorageCookie
	DefaultThemeKey     = "theme"
	DefaultCookieName   = "theme"
	DefaultCookieMaxAge = "8760h"
	DefaultDBPath       = "folio.db"
	DefaultPruneAfter   = "8760h"
	DefaultThreshold    = 0.1
	DefaultRootMargin   = "0px"
	DefaultPageTTL      = "30m"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultOutputDir    = "public"
	DefaultFileName     = "folio.toml"
	EnvPrefix           = "FOLIO"
)

// Theme storage backends.
const (
	StorageCookie = "cookie"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config is the full folio configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" toml:"server"`
	Content ContentConfig `mapstructure:"content" toml:"content"`
	Theme   ThemeConfig   `mapstructure:"theme" toml:"theme"`
	Reveal  RevealConfig  `mapstructure:"reveal" toml:"reveal"`
	Log     LogConfig     `mapstructure:"log" toml:"log"`
	Build   BuildConfig   `mapstructure:"build" toml:"build"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port string `mapstructure:"port" toml:"port"`
	Mode string `mapstructure:"mode" toml:"mode"` // gin mode: debug, release, test
}

// ContentConfig locates the page template and the portfolio document.
type ContentConfig struct {
	DataFile     string `mapstructure:"data_file" toml:"data_file"`
	DataURL      string `mapstructure:"data_url" toml:"data_url"`           // fetched instead of data_file when set
	TemplateFile string `mapstructure:"template_file" toml:"template_file"` // empty = bundled template
	AboutFormat  string `mapstructure:"about_format" toml:"about_format"`   // text, markdown
	FetchTimeout string `mapstructure:"fetch_timeout" toml:"fetch_timeout"`
	Watch        bool   `mapstructure:"watch" toml:"watch"`
}

// ThemeConfig selects where the theme preference lives.
type ThemeConfig struct {
	Storage      string `mapstructure:"storage" toml:"storage"` // cookie, sqlite, memory
	Key          string `mapstructure:"key" toml:"key"`
	CookieName   string `mapstructure:"cookie_name" toml:"cookie_name"`
	CookieMaxAge string `mapstructure:"cookie_max_age" toml:"cookie_max_age"`
	DBPath       string `mapstructure:"db_path" toml:"db_path"`
	PruneAfter   string `mapstructure:"prune_after" toml:"prune_after"`
}

// RevealConfig tunes the scroll reveal.
type RevealConfig struct {
	Threshold  float64 `mapstructure:"threshold" toml:"threshold"`
	RootMargin string  `mapstructure:"root_margin" toml:"root_margin"`
	PageTTL    string  `mapstructure:"page_ttl" toml:"page_ttl"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" toml:"format"` // text, json
}

// BuildConfig configures static builds.
type BuildConfig struct {
	OutputDir string `mapstructure:"output_dir" toml:"output_dir"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: DefaultPort,
			Mode: DefaultMode,
		},
		Content: ContentConfig{
			DataFile:     DefaultDataFile,
			AboutFormat:  DefaultAboutFormat,
			FetchTimeout: DefaultFetchTimeout,
			Watch:        true,
		},
		Theme: ThemeConfig{
			Storage:      DefaultStorage,
			Key:          DefaultThemeKey,
			CookieName:   DefaultCookieName,
			CookieMaxAge: DefaultCookieMaxAge,
			DBPath:       DefaultDBPath,
			PruneAfter:   DefaultPruneAfter,
		},
		Reveal: RevealConfig{
			Threshold:  DefaultThreshold,
			RootMargin: DefaultRootMargin,
			PageTTL:    DefaultPageTTL,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Build: BuildConfig{
			OutputDir: DefaultOutputDir,
		},
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.mode", c.Server.Mode)
	v.SetDefault("content.data_file", c.Content.DataFile)
	v.SetDefault("content.data_url", c.Content.DataURL)
	v.SetDefault("content.template_file", c.Content.TemplateFile)
	v.SetDefault("content.about_format", c.Content.AboutFormat)
	v.SetDefault("content.fetch_timeout", c.Content.FetchTimeout)
	v.SetDefault("content.watch", c.Content.Watch)
	v.SetDefault("theme.storage", c.Theme.Storage)
	v.SetDefault("theme.key", c.Theme.Key)
	v.SetDefault("theme.cookie_name", c.Theme.CookieName)
	v.SetDefault("theme.cookie_max_age", c.Theme.CookieMaxAge)
	v.SetDefault("theme.db_path", c.Theme.DBPath)
	v.SetDefault("theme.prune_after", c.Theme.PruneAfter)
	v.SetDefault("reveal.threshold", c.Reveal.Threshold)
	v.SetDefault("reveal.root_margin", c.Reveal.RootMargin)
	v.SetDefault("reveal.page_ttl", c.Reveal.PageTTL)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("build.output_dir", c.Build.OutputDir)
}

// Load reads configuration. With an empty path it looks for folio.toml in
// the working directory and carries on with defaults when it is absent; an
// explicit path must exist. The PORT variable is honoured when
// FOLIO_SERVER_PORT is not set.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, filepath.Ext(DefaultFileName)))
		v.SetConfigType("toml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if _, set := os.LookupEnv(EnvPrefix + "_SERVER_PORT"); !set {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Server.Port = port
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated and duration settings.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode: unknown gin mode %q", c.Server.Mode)
	}
	switch c.Theme.Storage {
	case StorageCookie, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("theme.storage: unknown backend %q", c.Theme.Storage)
	}
	switch c.Content.AboutFormat {
	case "text", "markdown":
	default:
		return fmt.Errorf("content.about_format: unknown format %q", c.Content.AboutFormat)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for name, d := range map[string]string{
		"content.fetch_timeout": c.Content.FetchTimeout,
		"theme.cookie_max_age":  c.Theme.CookieMaxAge,
		"theme.prune_after":     c.Theme.PruneAfter,
		"reveal.page_ttl":       c.Reveal.PageTTL,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Reveal.Threshold <= 0 || c.Reveal.Threshold > 1 {
		return fmt.Errorf("reveal.threshold: %v is outside (0, 1]", c.Reveal.Threshold)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// duration parses a value Validate has already accepted.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// Timeout returns the document fetch timeout.
func (c ContentConfig) Timeout() time.Duration { return duration(c.FetchTimeout) }

// MaxAge returns the theme cookie lifetime.
func (c ThemeConfig) MaxAge() time.Duration { return duration(c.CookieMaxAge) }

// PruneAge returns the age after which stored preferences are dropped.
func (c ThemeConfig) PruneAge() time.Duration { return duration(c.PruneAfter) }

// TTL returns how long a page keeps its reveal state.
func (c RevealConfig) TTL() time.Duration { return duration(c.PageTTL) }

// Write saves c as TOML at path, creating parent directories. An existing
// file is left untouched and reported as os.ErrExist.
func (c *Config) Write(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("write config %s: %w", path, os.ErrExist)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
