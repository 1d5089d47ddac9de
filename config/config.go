// Package config gathers the settings of the tsp command from flags and
// TSP_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/levihackerman-102/proof-of-optima-template/guest"
)

const EnvPrefix = "TSP_"

type Config struct {
	KeysDir    string `koanf:"keys-dir"`
	OutDir     string `koanf:"out-dir"`
	Capacity   int    `koanf:"capacity"`
	LogLevel   string `koanf:"log-level"`
	LogFile    string `koanf:"log-file"`
	LogMaxSize int    `koanf:"log-max-size"`
}

var Default = Config{
	KeysDir:    "keys",
	OutDir:     ".",
	Capacity:   8,
	LogLevel:   "info",
	LogMaxSize: 100,
}

func AddOptions(f *flag.FlagSet) {
	f.String("keys-dir", Default.KeysDir, "directory holding the trusted setup (pk, vk, constraint system)")
	f.String("out-dir", Default.OutDir, "directory proof artifacts are written to")
	f.Int("capacity", Default.Capacity, "largest number of cities the circuit accepts")
	f.String("log-level", Default.LogLevel, "log level (trace, debug, info, warn, error)")
	f.String("log-file", Default.LogFile, "also write logs to this file, rotated by size")
	f.Int("log-max-size", Default.LogMaxSize, "log file size in megabytes before rotation")
}

// envKey maps TSP_KEYS_DIR to keys-dir.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Load reads the configuration. Explicitly set flags win over environment
// variables, which win over flag defaults.
func Load(f *flag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading flags: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.KeysDir == "" {
		return errors.New("keys-dir must be set")
	}
	if c.OutDir == "" {
		return errors.New("out-dir must be set")
	}
	if c.Capacity < 1 || c.Capacity > guest.MaxCities {
		return fmt.Errorf("capacity must be in [1, %d], got %d", guest.MaxCities, c.Capacity)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	if c.LogFile != "" && c.LogMaxSize <= 0 {
		return fmt.Errorf("log-max-size must be positive, got %d", c.LogMaxSize)
	}
	return nil
}
