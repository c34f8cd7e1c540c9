package config

import (
	"bytes"
	"errors"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultTemperature is used when a request carries no temperature.
	DefaultTemperature = 25.0

	DefaultListenAddr  = "127.0.0.1:8000"
	DefaultMetricsAddr = "127.0.0.1:8080"
	DefaultCacheSize   = 4096
	DefaultChartPoints = 100
	MaxChartPoints     = 10000
)

type Config struct {
	ListenAddr         string   `toml:"listen_address,omitempty"`
	MetricsAddr        string   `toml:"metrics_address,omitempty"`
	Resolution         int      `toml:"resolution,omitempty"`
	CacheSize          int      `toml:"cache_size,omitempty"`
	DefaultTemperature *float64 `toml:"default_temperature,omitempty"`
}

var (
	errResolution = errors.New("resolution must not be negative")
	errCacheSize  = errors.New("cache_size must not be negative")
)

// Load reads a TOML configuration file. Unknown keys are rejected and unset
// values are filled in with their defaults.
func Load(configFile string) (Config, error) {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return Config{}, err
	}
	return Decode(raw)
}

func Decode(raw []byte) (Config, error) {
	var cfg Config
	err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		return Config{}, err
	}
	if cfg.Resolution < 0 {
		return Config{}, errResolution
	}
	if cfg.CacheSize < 0 {
		return Config{}, errCacheSize
	}
	cfg.applyDefaults()
	return cfg, nil
}

func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}
	if c.CacheSize == 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.DefaultTemperature == nil {
		t := DefaultTemperature
		c.DefaultTemperature = &t
	}
}
