// Package config loads docview settings from defaults, an optional
// docview.yaml, DOCVIEW_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/csheth/docview/internal/session"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	CacheDir       string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	LogFile        string        `mapstructure:"log_file" yaml:"log_file"`
	InitialScale   float64       `mapstructure:"initial_scale" yaml:"initial_scale"`
	Layout         string        `mapstructure:"layout" yaml:"layout"`
	AltScreen      bool          `mapstructure:"alt_screen" yaml:"alt_screen"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:8000",
		RequestTimeout: 2 * time.Minute,
		CacheDir:       defaultCacheDir(),
		CacheTTL:       7 * 24 * time.Hour,
		LogFile:        filepath.Join(defaultCacheDir(), "docview.log"),
		InitialScale:   session.DefaultScale,
		Layout:         session.LayoutSplit.String(),
		AltScreen:      true,
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return filepath.Join(os.TempDir(), "docview")
	}
	return filepath.Join(dir, "docview")
}

// Loader wraps a viper instance so tests and commands do not share global
// state.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a viper instance with defaults and the DOCVIEW_
// environment prefix. cfgFile, when set, is the only file considered;
// otherwise docview.yaml is searched in ./ and $HOME/.docview.
func NewLoader(cfgFile string) *Loader {
	v := viper.New()
	d := Default()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("initial_scale", d.InitialScale)
	v.SetDefault("layout", d.Layout)
	v.SetDefault("alt_screen", d.AltScreen)

	v.SetEnvPrefix("DOCVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("docview")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.docview")
	}
	return &Loader{v: v}
}

// BindFlags lets explicitly set flags override every other layer. Flag
// names use dashes; they map onto the underscore keys.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !l.known(key) {
			return
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func (l *Loader) known(key string) bool {
	switch key {
	case "base_url", "request_timeout", "cache_dir", "cache_ttl",
		"log_file", "initial_scale", "layout", "alt_screen":
		return true
	}
	return false
}

// Load reads the config file if present and returns the validated result.
// A missing file is not an error. initial_scale is clamped to the zoom range.
func (l *Loader) Load() (Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.InitialScale = session.ClampScale(cfg.InitialScale)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFile reports the file that was read, or "" when none was found.
func (l *Loader) ConfigFile() string { return l.v.ConfigFileUsed() }

// Validate checks the values the rest of the program relies on.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	switch strings.ToLower(c.Layout) {
	case "", "split", "full", "pdf":
	default:
		return fmt.Errorf("layout %q must be split or full", c.Layout)
	}
	return nil
}

// LayoutMode returns the parsed layout.
func (c Config) LayoutMode() session.LayoutMode {
	return session.ParseLayoutMode(strings.ToLower(c.Layout))
}
