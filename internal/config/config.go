// Package config loads settings shared by the commands.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lapswim/lapswim/schema"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "LAPSWIM"

// Config holds the settings which can come from a config file or the
// environment. Command-line flags override these.
type Config struct {
	Env      string `mapstructure:"env"` // development or production
	LogLevel string `mapstructure:"log_level"`

	ClassicURL string   `mapstructure:"classic_url"`
	Y360URL    string   `mapstructure:"y360_url"`
	Weeks      int      `mapstructure:"weeks"`
	Zone       string   `mapstructure:"zone"`
	Branches   []string `mapstructure:"branches"` // empty for all

	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	FetchQPS    float64       `mapstructure:"fetch_qps"`
	CacheDir    string        `mapstructure:"cache_dir"`
	CacheMaxAge time.Duration `mapstructure:"cache_max_age"`

	NominatimURL string        `mapstructure:"nominatim_url"`
	GeocodeEvery time.Duration `mapstructure:"geocode_every"`

	DataDir string `mapstructure:"data_dir"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("classic_url", "https://classic.ymcaindy.org/schedules/print")
	v.SetDefault("y360_url", "https://www.ymcaindy.org/schedules")
	v.SetDefault("weeks", 3)
	v.SetDefault("zone", schema.Zone)
	v.SetDefault("branches", []string{})
	v.SetDefault("user_agent", "lapswim-scraper-bot/0.1")
	v.SetDefault("timeout", "30s")
	v.SetDefault("fetch_qps", 0)
	v.SetDefault("cache_dir", "")
	v.SetDefault("cache_max_age", "6h")
	v.SetDefault("nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode_every", "1100ms")
	v.SetDefault("data_dir", "data")
}

// Load reads the config from the defaults, then the config file, then the
// environment. If file is empty, lapswim.{yaml,toml,json} is looked for in
// the current directory and ignored if missing.
func Load(file string) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("lapswim")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks for settings which can never work.
func (c Config) Validate() error {
	if c.Weeks <= 0 {
		return fmt.Errorf("invalid config: weeks must be positive, got %d", c.Weeks)
	}
	if c.FetchQPS < 0 {
		return fmt.Errorf("invalid config: fetch_qps must not be negative, got %v", c.FetchQPS)
	}
	if c.Zone == "" {
		return errors.New("invalid config: zone is required")
	}
	return nil
}

// IsProduction returns true if running in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Location loads the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Zone == schema.Zone {
		return schema.LoadZone()
	}
	loc, err := time.LoadLocation(c.Zone)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", c.Zone, err)
	}
	return loc, nil
}
